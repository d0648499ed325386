package admin

import (
	"context"
	"testing"

	"sidecrew/internal/domain/account"
	"sidecrew/internal/domain/job"
	"sidecrew/internal/repository"
	"sidecrew/internal/repository/memory"
	"sidecrew/internal/usecase/lifecycle"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingInvalidator struct{ calls int }

func (c *countingInvalidator) Invalidate(context.Context) { c.calls++ }

type fixture struct {
	ctx    context.Context
	store  *memory.Store
	engine *lifecycle.Service
	cache  *countingInvalidator
	svc    *Service
}

func newFixture() *fixture {
	store := memory.New()
	engine := lifecycle.NewService(store, nil, nil, nil)
	cache := &countingInvalidator{}
	return &fixture{
		ctx:    context.Background(),
		store:  store,
		engine: engine,
		cache:  cache,
		svc:    NewService(store, engine, cache, nil),
	}
}

func (f *fixture) account(t *testing.T, kind account.Kind, status account.ApprovalStatus) account.Actor {
	t.Helper()
	a := account.Account{
		ID:           uuid.New(),
		Kind:         kind,
		Name:         string(kind),
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: "hash",
		Status:       status,
	}
	require.NoError(t, f.store.Repos().Accounts.Create(f.ctx, a))
	return a.Actor()
}

func TestApproveAndReject(t *testing.T) {
	f := newFixture()
	agent := f.account(t, account.KindAgent, account.StatusPending)
	f.account(t, account.KindAgent, account.StatusApproved)

	pending, err := f.svc.ListAccounts(f.ctx, account.KindAgent, account.StatusPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Empty(t, pending[0].PasswordHash)

	a, err := f.svc.Approve(f.ctx, account.KindAgent, agent.ID)
	require.NoError(t, err)
	assert.Equal(t, account.StatusApproved, a.Status)
	assert.Equal(t, 1, f.cache.calls)

	a, err = f.svc.Reject(f.ctx, account.KindAgent, agent.ID)
	require.NoError(t, err)
	assert.Equal(t, account.StatusRejected, a.Status)
	assert.Equal(t, 2, f.cache.calls)

	_, err = f.svc.Approve(f.ctx, account.KindWorker, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.svc.Approve(f.ctx, account.KindAdmin, uuid.New())
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.svc.ListAccounts(f.ctx, account.KindClient, "bogus")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDeleteAgentReleasesJobs(t *testing.T) {
	f := newFixture()
	client := f.account(t, account.KindClient, account.StatusApproved)
	agent := f.account(t, account.KindAgent, account.StatusApproved)

	j, err := f.engine.CreateJob(f.ctx, client, lifecycle.CreateJobInput{Title: "Crew", PayPerWorker: 1000, WorkersNeeded: 1})
	require.NoError(t, err)
	_, err = f.engine.ClaimJob(f.ctx, agent, j.ID)
	require.NoError(t, err)
	p, err := f.engine.CreatePosting(f.ctx, agent, j.ID, lifecycle.PostingInput{})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteAccount(f.ctx, account.KindAgent, agent.ID))
	assert.Equal(t, 1, f.cache.calls)

	detail, err := f.svc.JobDetail(f.ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, job.StatusSeekingAgent, detail.Job.Status)
	assert.False(t, detail.Job.HasAgent())
	assert.Empty(t, detail.Postings)

	postings, err := f.store.Repos().Postings.List(f.ctx, repository.PostingFilter{ID: p.ID})
	require.NoError(t, err)
	assert.Empty(t, postings)

	assert.ErrorIs(t, f.svc.DeleteAccount(f.ctx, account.KindAgent, agent.ID), ErrNotFound)
}

func TestStatsAndJobs(t *testing.T) {
	f := newFixture()
	client := f.account(t, account.KindClient, account.StatusApproved)
	f.account(t, account.KindClient, account.StatusPending)
	f.account(t, account.KindWorker, account.StatusPending)
	f.account(t, account.KindAgent, account.StatusApproved)

	j, err := f.engine.CreateJob(f.ctx, client, lifecycle.CreateJobInput{Title: "Crew", PayPerWorker: 1000, WorkersNeeded: 1})
	require.NoError(t, err)

	st, err := f.svc.Stats(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{
		Clients: 2, Agents: 1, Workers: 1,
		PendingClients: 1, PendingWorkers: 1,
		Jobs: 1,
	}, st)

	jobs, err := f.svc.ListJobs(f.ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 1)

	admin := account.Actor{Kind: account.KindAdmin, ID: uuid.New()}
	require.NoError(t, f.svc.DeleteJob(f.ctx, admin, j.ID))
	_, err = f.svc.JobDetail(f.ctx, j.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteClientDropsItsRatings(t *testing.T) {
	f := newFixture()
	kept := f.account(t, account.KindClient, account.StatusApproved)
	leaving := f.account(t, account.KindClient, account.StatusApproved)
	agent := f.account(t, account.KindAgent, account.StatusApproved)
	worker := f.account(t, account.KindWorker, account.StatusApproved)

	complete := func(client account.Actor, agentStars, workerStars int) {
		t.Helper()
		j, err := f.engine.CreateJob(f.ctx, client, lifecycle.CreateJobInput{Title: "Crew", PayPerWorker: 1000, WorkersNeeded: 1})
		require.NoError(t, err)
		_, err = f.engine.ClaimJob(f.ctx, agent, j.ID)
		require.NoError(t, err)
		p, err := f.engine.CreatePosting(f.ctx, agent, j.ID, lifecycle.PostingInput{})
		require.NoError(t, err)
		a, err := f.engine.Apply(f.ctx, worker, p.ID)
		require.NoError(t, err)
		_, err = f.engine.AcceptApplication(f.ctx, agent, a.ID)
		require.NoError(t, err)
		lat, lng := 1.0, 2.0
		sub, err := f.engine.SubmitProof(f.ctx, worker, a.ID, lifecycle.ProofInput{ImageRef: "ref-" + a.ID.String(), Latitude: &lat, Longitude: &lng})
		require.NoError(t, err)
		_, err = f.engine.ApproveProof(f.ctx, agent, sub.Proof.ID)
		require.NoError(t, err)
		_, err = f.engine.RateAgent(f.ctx, client, j.ID, agentStars)
		require.NoError(t, err)
		_, err = f.engine.RateWorker(f.ctx, agent, a.ID, workerStars)
		require.NoError(t, err)
	}
	complete(kept, 4, 5)
	complete(leaving, 2, 1)

	require.NoError(t, f.svc.DeleteAccount(f.ctx, account.KindClient, leaving.ID))
	assert.Equal(t, 1, f.cache.calls)

	ag, err := f.store.Repos().Accounts.FindByID(f.ctx, account.KindAgent, agent.ID)
	require.NoError(t, err)
	assert.Equal(t, 4.0, ag.Rating)
	wk, err := f.store.Repos().Accounts.FindByID(f.ctx, account.KindWorker, worker.ID)
	require.NoError(t, err)
	assert.Equal(t, 5.0, wk.Rating)

	require.NoError(t, f.svc.DeleteAccount(f.ctx, account.KindAgent, agent.ID))
	wk, err = f.store.Repos().Accounts.FindByID(f.ctx, account.KindWorker, worker.ID)
	require.NoError(t, err)
	assert.Zero(t, wk.Rating)
}
