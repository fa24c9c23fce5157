package generation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/logoforge/server/internal/models"
	"github.com/logoforge/server/internal/modules/storage/blob"
	"github.com/logoforge/server/internal/pkg/composition"
	redisc "github.com/logoforge/server/internal/pkg/redis"
	"github.com/logoforge/server/internal/pkg/taskqueue"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memLogos struct {
	mu    sync.Mutex
	items map[string]*models.LogoModel
	seq   int
	fail  error
}

func newMemLogos() *memLogos { return &memLogos{items: map[string]*models.LogoModel{}} }

func (m *memLogos) Get(ownerID, id string) (*models.LogoModel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.items[id]
	if !ok || l.OwnerID != ownerID {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}

func (m *memLogos) Create(logo *models.LogoModel) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.seq++
	logo.ID = fmt.Sprintf("logo-%d", m.seq)
	cp := *logo
	m.items[logo.ID] = &cp
	return nil
}

type memDrafts map[string]*models.DraftModel

func (m memDrafts) Get(ownerID, id string) (*models.DraftModel, error) {
	d, ok := m[id]
	if !ok || d.OwnerID != ownerID {
		return nil, nil
	}
	return d, nil
}

// funcProvider lets tests script provider behaviour.
type funcProvider struct {
	generate func(ctx context.Context, req *GenerateRequest) ([]byte, error)
	edit     func(ctx context.Context, req *EditRequest) ([]byte, error)
}

func (p *funcProvider) Name() string { return "fake" }

func (p *funcProvider) Generate(ctx context.Context, req *GenerateRequest) ([]byte, error) {
	return p.generate(ctx, req)
}

func (p *funcProvider) Edit(ctx context.Context, req *EditRequest) ([]byte, error) {
	return p.edit(ctx, req)
}

type fixture struct {
	svc    *Service
	jobs   *taskqueue.Service
	logos  *memLogos
	store  *blob.LocalStore
	drafts memDrafts
	mr     *miniredis.Miniredis
}

func newFixture(t *testing.T, provider Provider) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	jobs := taskqueue.NewService(redisc.Wrap(redis.NewClient(&redis.Options{Addr: mr.Addr()})), 5*time.Second)
	logos := newMemLogos()
	store := blob.NewLocalStore(t.TempDir(), "http://localhost/objects", "logos")
	drafts := memDrafts{}
	svc := NewService(jobs, provider, store, logos, WithDrafts(drafts), WithTimeout(time.Second))
	return &fixture{svc: svc, jobs: jobs, logos: logos, store: store, drafts: drafts, mr: mr}
}

func (f *fixture) seedLogo(t *testing.T, owner, name string) *models.LogoModel {
	t.Helper()
	obj, err := f.store.Put(context.Background(), owner, "seed.png", pngFixture(t), "image/png")
	require.NoError(t, err)
	logo := &models.LogoModel{OwnerID: owner, Name: name, URL: obj.URL, StorageKey: obj.Key, Settings: scenarioConfig()}
	require.NoError(t, f.logos.Create(logo))
	return logo
}

func TestGenerateSucceeds(t *testing.T) {
	f := newFixture(t, newMockProvider(configWithDelay(0)))
	ctx := context.Background()

	res, err := f.svc.Generate(ctx, "u1", GenerateInput{Prompt: "tech startup"})
	require.NoError(t, err)

	assert.Equal(t, taskqueue.StateSucceeded, res.Job.State)
	assert.Equal(t, res.Logo.ID, res.Job.LogoID)
	assert.Equal(t, "tech startup", res.Logo.Name)
	assert.Equal(t, "u1", res.Logo.OwnerID)
	assert.Regexp(t, `^http://localhost/objects/logos/u1/logo-\d+\.png$`, res.Logo.URL)
	assert.Equal(t, composition.NewConfiguration().Width, res.Logo.Settings.Width)

	data, err := f.store.Get(ctx, res.Logo.StorageKey)
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	state, err := f.jobs.LockState(ctx, "owner:u1")
	require.NoError(t, err)
	assert.Equal(t, taskqueue.StateIdle, state, "succeeded returns the lock to idle")
}

func TestGenerateFromDraft(t *testing.T) {
	f := newFixture(t, newMockProvider(configWithDelay(0)))
	cfg := scenarioConfig()
	cfg.ArtStyle = composition.StyleGeometric
	f.drafts["d1"] = &models.DraftModel{OwnerID: "u1", Configuration: cfg}

	res, err := f.svc.Generate(context.Background(), "u1", GenerateInput{Prompt: "p", DraftID: "d1", Name: "Mine"})
	require.NoError(t, err)
	assert.Equal(t, composition.StyleGeometric, res.Logo.Settings.ArtStyle)
	assert.Equal(t, "Mine", res.Logo.Name)

	_, err = f.svc.Generate(context.Background(), "u2", GenerateInput{Prompt: "p", DraftID: "d1"})
	assert.ErrorIs(t, err, ErrDraftNotFound)
}

func TestGenerateRejectsInvalidInput(t *testing.T) {
	called := false
	f := newFixture(t, &funcProvider{generate: func(context.Context, *GenerateRequest) ([]byte, error) {
		called = true
		return nil, nil
	}})

	_, err := f.svc.Generate(context.Background(), "u1", GenerateInput{Prompt: " "})
	assert.ErrorIs(t, err, composition.ErrValidation)

	bad := scenarioConfig()
	bad.LogoColors = nil
	_, err = f.svc.Generate(context.Background(), "u1", GenerateInput{Prompt: "p", Config: &bad})
	assert.ErrorIs(t, err, composition.ErrValidation)
	assert.False(t, called, "validation happens before the provider is invoked")
}

func TestGenerateUpstreamFailureReleasesLock(t *testing.T) {
	f := newFixture(t, &funcProvider{generate: func(context.Context, *GenerateRequest) ([]byte, error) {
		return nil, &UpstreamError{Provider: "fake", Status: http.StatusTooManyRequests, Message: "quota"}
	}})
	ctx := context.Background()

	_, err := f.svc.Generate(ctx, "u1", GenerateInput{Prompt: "p"})
	var jobErr *JobError
	require.ErrorAs(t, err, &jobErr)
	assert.ErrorIs(t, err, ErrUpstream)
	assert.Equal(t, taskqueue.StateFailed, jobErr.Job.State)
	assert.Equal(t, http.StatusTooManyRequests, jobErr.Job.StatusCode)

	state, err := f.jobs.LockState(ctx, "owner:u1")
	require.NoError(t, err)
	assert.Equal(t, taskqueue.StateIdle, state, "failed is retriable")
	assert.Empty(t, f.logos.items)
}

func TestGenerateTimeoutBecomesGatewayTimeout(t *testing.T) {
	f := newFixture(t, &funcProvider{generate: func(ctx context.Context, _ *GenerateRequest) ([]byte, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}})
	f.svc.timeout = 20 * time.Millisecond

	_, err := f.svc.Generate(context.Background(), "u1", GenerateInput{Prompt: "p"})
	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusGatewayTimeout, upstream.HTTPStatus())
}

func TestOneInFlightRequestPerLogo(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{}, 1)
	f := newFixture(t, &funcProvider{edit: func(ctx context.Context, _ *EditRequest) ([]byte, error) {
		entered <- struct{}{}
		<-release
		return swatch(scenarioConfig())
	}})
	f.svc.timeout = 5 * time.Second
	logo := f.seedLogo(t, "u1", "Acme")

	done := make(chan error, 1)
	go func() {
		_, err := f.svc.Edit(context.Background(), "u1", logo.ID, EditInput{Prompt: "first"})
		done <- err
	}()
	<-entered

	state, err := f.svc.State(context.Background(), "u1", logo.ID)
	require.NoError(t, err)
	assert.Equal(t, taskqueue.StateAwaiting, state)

	_, err = f.svc.Edit(context.Background(), "u1", logo.ID, EditInput{Prompt: "second"})
	assert.ErrorIs(t, err, taskqueue.ErrInFlight)

	close(release)
	require.NoError(t, <-done)

	state, err = f.svc.State(context.Background(), "u1", logo.ID)
	require.NoError(t, err)
	assert.Equal(t, taskqueue.StateIdle, state)
}

func TestEditCreatesDerivedRecord(t *testing.T) {
	var seen *EditRequest
	f := newFixture(t, &funcProvider{edit: func(_ context.Context, req *EditRequest) ([]byte, error) {
		seen = req
		return swatch(req.Settings)
	}})
	original := f.seedLogo(t, "u1", "Acme")

	vintage := composition.StyleVintage
	res, err := f.svc.Edit(context.Background(), "u1", original.ID, EditInput{
		Prompt:   "make it retro",
		Settings: composition.Override{ArtStyle: &vintage},
	})
	require.NoError(t, err)

	assert.Equal(t, "Acme (edited)", res.Logo.Name)
	assert.Equal(t, composition.StyleVintage, res.Logo.Settings.ArtStyle)
	require.NotNil(t, res.Logo.ParentID)
	assert.Equal(t, original.ID, *res.Logo.ParentID)
	assert.NotEqual(t, original.ID, res.Logo.ID)
	assert.Equal(t, taskqueue.KindEdit, res.Job.Kind)
	assert.NotEmpty(t, seen.Source, "source bytes come from the blob store")

	unchanged, _ := f.logos.Get("u1", original.ID)
	assert.Equal(t, composition.StyleMinimal, unchanged.Settings.ArtStyle)
	assert.Equal(t, original.URL, unchanged.URL)
}

func TestEditErrors(t *testing.T) {
	called := false
	f := newFixture(t, &funcProvider{edit: func(context.Context, *EditRequest) ([]byte, error) {
		called = true
		return nil, errors.New("boom")
	}})
	logo := f.seedLogo(t, "u1", "Acme")

	_, err := f.svc.Edit(context.Background(), "u2", logo.ID, EditInput{Prompt: "p"})
	assert.ErrorIs(t, err, ErrLogoNotFound, "logos are owner scoped")

	huge := 5000
	_, err = f.svc.Edit(context.Background(), "u1", logo.ID, EditInput{Prompt: "p", Settings: composition.Override{Width: &huge}})
	assert.ErrorIs(t, err, composition.ErrValidation)
	assert.False(t, called)

	_, err = f.svc.Edit(context.Background(), "u1", logo.ID, EditInput{Prompt: "p", Kind: taskqueue.KindRefine})
	var jobErr *JobError
	require.ErrorAs(t, err, &jobErr)
	assert.Equal(t, taskqueue.KindRefine, jobErr.Job.Kind)
	assert.Equal(t, http.StatusInternalServerError, jobErr.Job.StatusCode)
}

func TestFailedInsertRemovesBlob(t *testing.T) {
	f := newFixture(t, newMockProvider(configWithDelay(0)))
	f.logos.fail = errors.New("db down")

	_, err := f.svc.Generate(context.Background(), "u1", GenerateInput{Prompt: "p"})
	require.Error(t, err)

	jobs, total, err := f.svc.Jobs(context.Background(), "u1", 1, 10)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	assert.Equal(t, taskqueue.StateFailed, jobs[0].State)

	entries, err := os.ReadDir(filepath.Join(f.store.Dir(), "logos", "u1"))
	require.NoError(t, err)
	assert.Empty(t, entries, "blob is removed when the record cannot be saved")
}

func TestJobIsOwnerScoped(t *testing.T) {
	f := newFixture(t, newMockProvider(configWithDelay(0)))
	res, err := f.svc.Generate(context.Background(), "u1", GenerateInput{Prompt: "p"})
	require.NoError(t, err)

	job, err := f.svc.Job(context.Background(), "u1", res.Job.ID)
	require.NoError(t, err)
	require.NotNil(t, job)

	job, err = f.svc.Job(context.Background(), "u2", res.Job.ID)
	require.NoError(t, err)
	assert.Nil(t, job)
}
