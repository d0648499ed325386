package memory

import (
	"context"
	"errors"
	"testing"

	"sidecrew/internal/domain/account"
	"sidecrew/internal/domain/application"
	"sidecrew/internal/domain/job"
	"sidecrew/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store   *Store
	client  uuid.UUID
	agent   uuid.UUID
	worker  uuid.UUID
	job     uuid.UUID
	posting uuid.UUID
}

func seed(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	f := fixture{store: New(), client: uuid.New(), agent: uuid.New(), worker: uuid.New(), job: uuid.New(), posting: uuid.New()}
	r := f.store.Repos()

	require.NoError(t, r.Accounts.Create(ctx, account.Account{ID: f.client, Kind: account.KindClient, Email: "c@x.test"}))
	require.NoError(t, r.Accounts.Create(ctx, account.Account{ID: f.agent, Kind: account.KindAgent, Email: "a@x.test"}))
	require.NoError(t, r.Accounts.Create(ctx, account.Account{ID: f.worker, Kind: account.KindWorker, Email: "w@x.test"}))

	agent := f.agent
	require.NoError(t, r.Jobs.Create(ctx, job.Job{ID: f.job, ClientID: f.client, AgentID: &agent, Title: "t", PayPerWorker: 100, WorkersNeeded: 1, Status: job.StatusOpen}))
	require.NoError(t, r.Postings.Create(ctx, job.Posting{ID: f.posting, JobID: f.job, AgentID: f.agent, Title: "p", WorkerPayRate: 90, IsActive: true}))
	return f
}

func TestStore_ReferentialRules(t *testing.T) {
	ctx := context.Background()
	f := seed(t)
	r := f.store.Repos()

	err := r.Jobs.Create(ctx, job.Job{ID: uuid.New(), ClientID: uuid.New(), Title: "orphan"})
	assert.ErrorIs(t, err, repository.ErrReference)

	err = r.Accounts.Create(ctx, account.Account{ID: uuid.New(), Kind: account.KindClient, Email: " C@X.test "})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	app := application.Application{ID: uuid.New(), PostingID: f.posting, WorkerID: f.worker}
	require.NoError(t, r.Applications.Create(ctx, app))
	err = r.Applications.Create(ctx, application.Application{ID: uuid.New(), PostingID: f.posting, WorkerID: f.worker})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	applied, err := r.Applications.Exists(ctx, f.posting, f.worker)
	require.NoError(t, err)
	assert.True(t, applied)
}

func TestStore_WithinTxRollsBack(t *testing.T) {
	ctx := context.Background()
	f := seed(t)

	boom := errors.New("boom")
	err := f.store.WithinTx(ctx, func(r repository.Repos) error {
		j, err := r.Jobs.FindForUpdate(ctx, repository.JobFilter{ID: f.job})
		require.NoError(t, err)
		j.Status = job.StatusCompleted
		require.NoError(t, r.Jobs.Update(ctx, j))
		require.NoError(t, r.Accounts.UpdateStatus(ctx, account.KindAgent, f.agent, account.StatusRejected))
		return boom
	})
	require.ErrorIs(t, err, boom)

	j, err := f.store.Repos().Jobs.Find(ctx, repository.JobFilter{ID: f.job})
	require.NoError(t, err)
	assert.Equal(t, job.StatusOpen, j.Status)

	a, err := f.store.Repos().Accounts.FindByID(ctx, account.KindAgent, f.agent)
	require.NoError(t, err)
	assert.Equal(t, account.StatusPending, a.Status)
}

func TestStore_DeleteJobCascades(t *testing.T) {
	ctx := context.Background()
	f := seed(t)
	r := f.store.Repos()

	appID := uuid.New()
	require.NoError(t, r.Applications.Create(ctx, application.Application{ID: appID, PostingID: f.posting, WorkerID: f.worker}))
	_, err := r.Proofs.Upsert(ctx, application.Proof{ID: uuid.New(), ApplicationID: appID, ImageRef: "k", Status: application.ProofPending})
	require.NoError(t, err)

	require.NoError(t, r.Jobs.Delete(ctx, f.job))

	postings, err := r.Postings.List(ctx, repository.PostingFilter{JobID: f.job})
	require.NoError(t, err)
	assert.Empty(t, postings)

	n, err := r.Applications.Count(ctx, repository.ApplicationFilter{WorkerID: f.worker})
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = r.Proofs.Find(ctx, repository.ProofFilter{ApplicationID: appID})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	assert.ErrorIs(t, r.Jobs.Delete(ctx, f.job), repository.ErrNotFound)
}

func TestStore_ReleaseAgent(t *testing.T) {
	ctx := context.Background()
	f := seed(t)
	r := f.store.Repos()

	n, err := r.Jobs.ReleaseAgent(ctx, f.agent)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	j, err := r.Jobs.Find(ctx, repository.JobFilter{ID: f.job})
	require.NoError(t, err)
	assert.False(t, j.HasAgent())
	assert.Equal(t, job.StatusSeekingAgent, j.Status)
}

func TestStore_UpdateProfile(t *testing.T) {
	ctx := context.Background()
	f := seed(t)
	r := f.store.Repos()

	other := uuid.New()
	require.NoError(t, r.Accounts.Create(ctx, account.Account{ID: other, Kind: account.KindAgent, Email: "b@x.test"}))

	lat, lng := -7.25, 112.75
	err := r.Accounts.UpdateProfile(ctx, account.Account{ID: f.agent, Kind: account.KindAgent, Name: "Rina", Email: " A@X.test ", AgencyName: "Crew Co", Latitude: &lat, Longitude: &lng})
	require.NoError(t, err)

	a, err := r.Accounts.FindByID(ctx, account.KindAgent, f.agent)
	require.NoError(t, err)
	assert.Equal(t, "a@x.test", a.Email)
	assert.Equal(t, "Crew Co", a.AgencyName)
	require.NotNil(t, a.Latitude)
	assert.Equal(t, lat, *a.Latitude)

	err = r.Accounts.UpdateProfile(ctx, account.Account{ID: other, Kind: account.KindAgent, Name: "Other", Email: "a@x.test"})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	// The same address may be used by an account of another kind.
	err = r.Accounts.UpdateProfile(ctx, account.Account{ID: f.worker, Kind: account.KindWorker, Name: "Budi", Email: "a@x.test"})
	assert.NoError(t, err)

	err = r.Accounts.UpdateProfile(ctx, account.Account{ID: uuid.New(), Kind: account.KindClient, Email: "z@x.test"})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
