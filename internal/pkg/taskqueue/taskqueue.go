package taskqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/logoforge/server/internal/pkg/pagination"
	redisc "github.com/logoforge/server/internal/pkg/redis"
	"github.com/redis/go-redis/v9"
)

// JobState is the lifecycle state of a generation or edit request.
type JobState string

const (
	StateIdle      JobState = "idle"
	StateSubmitted JobState = "submitted"
	StateAwaiting  JobState = "awaiting"
	StateSucceeded JobState = "succeeded"
	StateFailed    JobState = "failed"
)

// Terminal reports whether no further transition is allowed.
func (s JobState) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// JobKind says what produced a job.
type JobKind string

const (
	KindGenerate JobKind = "generate"
	KindEdit     JobKind = "edit"
	KindRefine   JobKind = "refine"
)

var (
	ErrInFlight          = errors.New("a request for this logo is already in progress")
	ErrIllegalTransition = errors.New("illegal job state transition")
	ErrJobNotFound       = errors.New("job not found")
)

// Job is a single generation/edit request stored in Redis.
type Job struct {
	ID           string          `json:"id"`
	Kind         JobKind         `json:"kind"`
	OwnerID      string          `json:"ownerId"`
	LockKey      string          `json:"lockKey"`
	State        JobState        `json:"state"`
	Prompt       string          `json:"prompt,omitempty"`
	SourceLogoID string          `json:"sourceLogoId,omitempty"`
	LogoID       string          `json:"logoId,omitempty"`
	Payload      json.RawMessage `json:"payload,omitempty"`
	Error        string          `json:"error,omitempty"`
	StatusCode   int             `json:"statusCode,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

const (
	jobTTL          = 24 * time.Hour
	defaultLockTTL  = 2 * time.Minute
	lockGracePeriod = 15 * time.Second
)

var transitions = map[JobState][]JobState{
	StateSubmitted: {StateAwaiting, StateFailed},
	StateAwaiting:  {StateSucceeded, StateFailed},
}

// releaseScript deletes the lock only while it still belongs to the given job.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Service manages job records and the per-key in-flight lock.
type Service struct {
	rc      *redisc.Client
	lockTTL time.Duration
	now     func() time.Time
}

// NewService builds a job service. providerTimeout bounds how long a lock may be held.
func NewService(rc *redisc.Client, providerTimeout time.Duration) *Service {
	ttl := defaultLockTTL
	if providerTimeout > 0 {
		ttl = providerTimeout + lockGracePeriod
	}
	return &Service{rc: rc, lockTTL: ttl, now: time.Now}
}

func (s *Service) jobKey(id string) string { return redisc.Key("job", id) }

// ownerKey is a sorted set of job ids scored by creation time.
func (s *Service) ownerKey(owner string) string { return redisc.Key("jobs", "owner", owner) }
func (s *Service) lockKey(key string) string { return redisc.Key("inflight", key) }
func (s *Service) LockTTL() time.Duration { return s.lockTTL }

// Submit takes the in-flight lock for lockKey and records a job in the submitted state.
// A held lock yields ErrInFlight.
func (s *Service) Submit(ctx context.Context, kind JobKind, ownerID, lockKey string, prompt string, payload interface{}) (*Job, error) {
	now := s.now()
	job := &Job{
		ID:        uuid.New().String(),
		Kind:      kind,
		OwnerID:   ownerID,
		LockKey:   lockKey,
		State:     StateSubmitted,
		Prompt:    prompt,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode job payload: %w", err)
		}
		job.Payload = raw
	}

	ok, err := s.rc.SetNX(ctx, s.lockKey(lockKey), job.ID, s.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire in-flight lock: %w", err)
	}
	if !ok {
		return nil, ErrInFlight
	}

	data, err := json.Marshal(job)
	if err != nil {
		s.release(ctx, job)
		return nil, err
	}

	pipe := s.rc.Raw().TxPipeline()
	pipe.Set(ctx, s.jobKey(job.ID), data, jobTTL)
	pipe.ZAdd(ctx, s.ownerKey(ownerID), redis.Z{
		Score:  float64(job.CreatedAt.UnixMilli()),
		Member: job.ID,
	})
	pipe.Expire(ctx, s.ownerKey(ownerID), jobTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		s.release(ctx, job)
		return nil, fmt.Errorf("store job: %w", err)
	}
	return job, nil
}

// GetByID retrieves a job by its ID. Returns (nil, nil) when it does not exist.
func (s *Service) GetByID(ctx context.Context, id string) (*Job, error) {
	data, err := s.rc.Raw().Get(ctx, s.jobKey(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var job Job
	return &job, json.Unmarshal(data, &job)
}

// Await marks that the request has been handed to the external provider.
func (s *Service) Await(ctx context.Context, id string) (*Job, error) {
	return s.transition(ctx, id, StateAwaiting, nil)
}

// Succeed records the produced logo and releases the lock.
func (s *Service) Succeed(ctx context.Context, id, logoID string) (*Job, error) {
	return s.transition(ctx, id, StateSucceeded, func(j *Job) {
		j.LogoID = logoID
		j.Error = ""
	})
}

// Fail records the failure and releases the lock so the user may resubmit.
func (s *Service) Fail(ctx context.Context, id string, status int, errMsg string) (*Job, error) {
	return s.transition(ctx, id, StateFailed, func(j *Job) {
		j.StatusCode = status
		j.Error = errMsg
	})
}

func (s *Service) transition(ctx context.Context, id string, to JobState, mutate func(*Job)) (*Job, error) {
	job, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, ErrJobNotFound
	}
	if !allowed(job.State, to) {
		return job, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, job.State, to)
	}

	job.State = to
	job.UpdatedAt = s.now()
	if mutate != nil {
		mutate(job)
	}

	data, err := json.Marshal(job)
	if err != nil {
		return nil, err
	}
	if err := s.rc.Raw().Set(ctx, s.jobKey(id), data, jobTTL).Err(); err != nil {
		return nil, err
	}
	if to.Terminal() {
		s.release(ctx, job)
	}
	return job, nil
}

func allowed(from, to JobState) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (s *Service) release(ctx context.Context, job *Job) {
	_ = releaseScript.Run(ctx, s.rc.Raw(), []string{s.lockKey(job.LockKey)}, job.ID).Err()
}

// LockState reports the state of the request currently holding lockKey, or idle.
func (s *Service) LockState(ctx context.Context, lockKey string) (JobState, error) {
	holder, err := s.rc.Get(ctx, s.lockKey(lockKey))
	if err != nil {
		return "", err
	}
	if holder == "" {
		return StateIdle, nil
	}
	job, err := s.GetByID(ctx, holder)
	if err != nil {
		return "", err
	}
	if job == nil || job.State.Terminal() {
		return StateIdle, nil
	}
	return job.State, nil
}

// ListByOwner returns an owner's jobs, newest first.
func (s *Service) ListByOwner(ctx context.Context, ownerID string, page, size int) ([]*Job, int64, error) {
	ids, err := s.rc.Raw().ZRevRange(ctx, s.ownerKey(ownerID), 0, -1).Result()
	if err != nil {
		return nil, 0, err
	}

	var jobs []*Job
	for _, id := range ids {
		job, err := s.GetByID(ctx, id)
		if err != nil || job == nil {
			continue
		}
		jobs = append(jobs, job)
	}

	start, end := pagination.New(page, size).Window(len(jobs))
	if start == end {
		return []*Job{}, int64(len(jobs)), nil
	}
	return jobs[start:end], int64(len(jobs)), nil
}
