package generation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/logoforge/server/internal/models"
	"github.com/logoforge/server/internal/modules/storage/blob"
	"github.com/logoforge/server/internal/pkg/composition"
	"github.com/logoforge/server/internal/pkg/metrics"
	"github.com/logoforge/server/internal/pkg/taskqueue"
	"go.uber.org/zap"
)

var (
	ErrLogoNotFound  = errors.New("logo not found")
	ErrDraftNotFound = errors.New("draft not found")
)

// LogoRepository persists produced logos.
type LogoRepository interface {
	Get(ownerID, id string) (*models.LogoModel, error)
	Create(logo *models.LogoModel) error
}

// DraftReader loads a saved composition.
type DraftReader interface {
	Get(ownerID, id string) (*models.DraftModel, error)
}

// GenerateInput starts a new logo.
type GenerateInput struct {
	Prompt  string
	Config  *composition.Configuration
	DraftID string
	Name    string
}

// EditInput derives a new logo from an existing one.
type EditInput struct {
	Prompt   string
	Mask     []byte
	Settings composition.Override
	Name     string
	// Kind defaults to taskqueue.KindEdit.
	Kind taskqueue.JobKind
}

// Result is a finished job and the logo it produced.
type Result struct {
	Job  *taskqueue.Job    `json:"job"`
	Logo *models.LogoModel `json:"logo"`
}

// JobError is returned when a submitted job failed. Job carries the terminal record.
type JobError struct {
	Job *taskqueue.Job
	Err error
}

func (e *JobError) Error() string { return e.Err.Error() }
func (e *JobError) Unwrap() error { return e.Err }

type Service struct {
	jobs     *taskqueue.Service
	provider Provider
	store    blob.Store
	logos    LogoRepository
	drafts   DraftReader
	metrics  *metrics.Metrics
	log      *zap.Logger
	timeout  time.Duration
	now      func() time.Time
}

type ServiceOption func(*Service)

func WithMetrics(m *metrics.Metrics) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

func WithLogger(l *zap.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithTimeout bounds each provider call.
func WithTimeout(d time.Duration) ServiceOption {
	return func(s *Service) { s.timeout = d }
}

func WithDrafts(d DraftReader) ServiceOption {
	return func(s *Service) { s.drafts = d }
}

func NewService(jobs *taskqueue.Service, provider Provider, store blob.Store, logos LogoRepository, opts ...ServiceOption) *Service {
	s := &Service{
		jobs:     jobs,
		provider: provider,
		store:    store,
		logos:    logos,
		log:      zap.NewNop(),
		timeout:  2 * time.Minute,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate runs idle → submitted → awaiting → succeeded|failed for a new logo.
// Only one generation per draft (or per owner without a draft) may be in flight.
// The work is detached from ctx cancellation: a client that goes away does not abort it.
func (s *Service) Generate(ctx context.Context, ownerID string, in GenerateInput) (*Result, error) {
	ctx = context.WithoutCancel(ctx)

	cfg, err := s.resolveConfig(ownerID, in)
	if err != nil {
		return nil, err
	}
	req, err := BuildGenerateRequest(cfg, in.Prompt)
	if err != nil {
		return nil, err
	}

	lockKey := "owner:" + ownerID
	if in.DraftID != "" {
		lockKey = "draft:" + in.DraftID
	}
	job, err := s.jobs.Submit(ctx, taskqueue.KindGenerate, ownerID, lockKey, in.Prompt, req.Parameters)
	if err != nil {
		return nil, err
	}

	return s.run(ctx, job, "generate", func(callCtx context.Context) ([]byte, error) {
		return s.provider.Generate(callCtx, req)
	}, NamingContext{Prompt: in.Prompt, Name: in.Name}, cfg, nil)
}

// Edit produces a new logo derived from logoID. The original record is left untouched.
func (s *Service) Edit(ctx context.Context, ownerID, logoID string, in EditInput) (*Result, error) {
	ctx = context.WithoutCancel(ctx)

	original, err := s.logos.Get(ownerID, logoID)
	if err != nil {
		return nil, err
	}
	if original == nil {
		return nil, ErrLogoNotFound
	}
	req, err := BuildEditRequest(original, in.Prompt, in.Mask, in.Settings)
	if err != nil {
		return nil, err
	}
	if err := req.Settings.Validate(); err != nil {
		return nil, err
	}

	kind := in.Kind
	if kind == "" {
		kind = taskqueue.KindEdit
	}
	job, err := s.jobs.Submit(ctx, kind, ownerID, "logo:"+original.ID, in.Prompt, req.Parameters)
	if err != nil {
		return nil, err
	}

	req.Source = s.loadSource(ctx, original)
	return s.run(ctx, job, "edit", func(callCtx context.Context) ([]byte, error) {
		return s.provider.Edit(callCtx, req)
	}, NamingContext{Prompt: in.Prompt, Name: in.Name, Original: original}, req.Settings, &original.ID)
}

// Job returns an owner's job, or nil when it does not exist or belongs to someone else.
func (s *Service) Job(ctx context.Context, ownerID, id string) (*taskqueue.Job, error) {
	job, err := s.jobs.GetByID(ctx, id)
	if err != nil || job == nil {
		return nil, err
	}
	if job.OwnerID != ownerID {
		return nil, nil
	}
	return job, nil
}

func (s *Service) Jobs(ctx context.Context, ownerID string, page, size int) ([]*taskqueue.Job, int64, error) {
	return s.jobs.ListByOwner(ctx, ownerID, page, size)
}

func (s *Service) run(
	ctx context.Context,
	job *taskqueue.Job,
	operation string,
	call func(context.Context) ([]byte, error),
	naming NamingContext,
	settings composition.Configuration,
	parentID *string,
) (*Result, error) {
	log := s.log.With(zap.String("job_id", job.ID), zap.String("owner_id", job.OwnerID), zap.String("kind", string(job.Kind)))

	if _, err := s.jobs.Await(ctx, job.ID); err != nil {
		return nil, s.fail(ctx, log, job, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	started := time.Now()
	raw, err := call(callCtx)
	cancel()
	s.metrics.ObserveUpstream(s.provider.Name(), operation, started)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, ErrUpstream) {
			err = &UpstreamError{Provider: s.provider.Name(), Status: http.StatusGatewayTimeout, Message: "timed out"}
		}
		return nil, s.fail(ctx, log, job, err)
	}

	if naming.Now.IsZero() {
		naming.Now = s.now()
	}
	asset, err := InterpretResponse(raw, naming)
	if err != nil {
		return nil, s.fail(ctx, log, job, err)
	}

	obj, err := s.store.Put(ctx, job.OwnerID, asset.Filename, asset.Data, asset.ContentType)
	s.metrics.RecordUpload(s.store.Driver(), err)
	if err != nil {
		return nil, s.fail(ctx, log, job, fmt.Errorf("store image: %w", err))
	}
	asset.URL = obj.URL

	logo := &models.LogoModel{
		OwnerID:    job.OwnerID,
		Name:       asset.Name,
		URL:        asset.URL,
		StorageKey: obj.Key,
		ParentID:   parentID,
		Settings:   settings,
	}
	if err := s.logos.Create(logo); err != nil {
		if delErr := s.store.Delete(ctx, obj.Key); delErr != nil {
			log.Warn("orphaned blob after failed insert", zap.String("key", obj.Key), zap.Error(delErr))
		}
		return nil, s.fail(ctx, log, job, fmt.Errorf("save logo: %w", err))
	}

	done, err := s.jobs.Succeed(ctx, job.ID, logo.ID)
	if err != nil {
		log.Error("mark job succeeded", zap.Error(err))
		done = job
	}
	s.metrics.RecordJob(string(job.Kind), string(taskqueue.StateSucceeded))
	log.Info("logo produced", zap.String("logo_id", logo.ID))
	return &Result{Job: done, Logo: logo}, nil
}

func (s *Service) fail(ctx context.Context, log *zap.Logger, job *taskqueue.Job, cause error) error {
	status := http.StatusInternalServerError
	var upstream *UpstreamError
	if errors.As(cause, &upstream) {
		status = upstream.HTTPStatus()
	}
	log.Error("job failed", zap.Int("status", status), zap.Error(cause))

	failed, err := s.jobs.Fail(ctx, job.ID, status, cause.Error())
	if err != nil {
		log.Error("mark job failed", zap.Error(err))
		failed = job
	}
	s.metrics.RecordJob(string(job.Kind), string(taskqueue.StateFailed))
	return &JobError{Job: failed, Err: cause}
}

func (s *Service) resolveConfig(ownerID string, in GenerateInput) (composition.Configuration, error) {
	switch {
	case in.DraftID != "":
		if s.drafts == nil {
			return composition.Configuration{}, ErrDraftNotFound
		}
		d, err := s.drafts.Get(ownerID, in.DraftID)
		if err != nil {
			return composition.Configuration{}, err
		}
		if d == nil {
			return composition.Configuration{}, ErrDraftNotFound
		}
		return d.Configuration.Clone(), nil
	case in.Config != nil:
		cfg := in.Config.Clone()
		cfg.Normalize()
		if err := cfg.Validate(); err != nil {
			return composition.Configuration{}, err
		}
		return cfg, nil
	}
	return composition.NewConfiguration(), nil
}

// loadSource reads the original image through the storage collaborator when it owns the blob.
func (s *Service) loadSource(ctx context.Context, original *models.LogoModel) []byte {
	key := original.StorageKey
	if key == "" {
		key, _ = s.store.KeyFromURL(original.URL)
	}
	if !s.store.Owns(original.OwnerID, key) {
		return nil
	}
	data, err := s.store.Get(ctx, key)
	if err != nil {
		s.log.Warn("load source image", zap.String("logo_id", original.ID), zap.Error(err))
		return nil
	}
	return data
}

// State reports whether an edit of logoID is in flight, for clients that disable resubmission.
func (s *Service) State(ctx context.Context, ownerID, logoID string) (taskqueue.JobState, error) {
	logo, err := s.logos.Get(ownerID, logoID)
	if err != nil {
		return "", err
	}
	if logo == nil {
		return "", ErrLogoNotFound
	}
	return s.jobs.LockState(ctx, "logo:"+logo.ID)
}
