package board

import (
	"context"
	"testing"

	"sidecrew/internal/domain/account"
	"sidecrew/internal/domain/application"
	"sidecrew/internal/domain/job"
	"sidecrew/internal/repository/memory"
	"sidecrew/internal/usecase/lifecycle"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAccount(t *testing.T, store *memory.Store, kind account.Kind) account.Actor {
	t.Helper()
	a := account.Account{
		ID:     uuid.New(),
		Kind:   kind,
		Name:   string(kind),
		Email:  uuid.NewString() + "@example.com",
		Status: account.StatusApproved,
	}
	require.NoError(t, store.Repos().Accounts.Create(context.Background(), a))
	return a.Actor()
}

func TestBoards(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	engine := lifecycle.NewService(store, nil, nil, nil)
	svc := NewService(store, nil)

	client := newAccount(t, store, account.KindClient)
	agent := newAccount(t, store, account.KindAgent)
	worker := newAccount(t, store, account.KindWorker)

	newJob := func(title string, invite *uuid.UUID) job.Job {
		j, err := engine.CreateJob(ctx, client, lifecycle.CreateJobInput{
			Title: title, PayPerWorker: 5000, WorkersNeeded: 2, InviteAgentID: invite,
		})
		require.NoError(t, err)
		return j
	}
	public := newJob("public", nil)
	invited := newJob("invited", &agent.ID)
	claimed := newJob("claimed", nil)
	_, err := engine.ClaimJob(ctx, agent, claimed.ID)
	require.NoError(t, err)
	bare := newJob("bare", nil)
	_, err = engine.ClaimJob(ctx, agent, bare.ID)
	require.NoError(t, err)

	posting, err := engine.CreatePosting(ctx, agent, claimed.ID, lifecycle.PostingInput{})
	require.NoError(t, err)

	w, err := svc.Worker(ctx, worker)
	require.NoError(t, err)
	require.Len(t, w.Postings, 1)
	assert.Equal(t, posting.ID, w.Postings[0].ID)
	assert.Empty(t, w.Applications)

	app, err := engine.Apply(ctx, worker, posting.ID)
	require.NoError(t, err)

	w, err = svc.Worker(ctx, worker)
	require.NoError(t, err)
	assert.Empty(t, w.Postings)
	require.Len(t, w.Applications, 1)
	assert.Equal(t, app.ID, w.Applications[0].ID)

	b, err := svc.Agent(ctx, agent)
	require.NoError(t, err)
	require.Len(t, b.Invites, 1)
	assert.Equal(t, invited.ID, b.Invites[0].ID)
	require.Len(t, b.Public, 1)
	assert.Equal(t, public.ID, b.Public[0].ID)
	require.Len(t, b.NeedsPosting, 1)
	assert.Equal(t, bare.ID, b.NeedsPosting[0].ID)
	require.Len(t, b.PendingApplications, 1)
	assert.Equal(t, application.StatusPending, b.PendingApplications[0].Status)
	assert.Empty(t, b.PendingProofs)

	_, err = engine.AcceptApplication(ctx, agent, app.ID)
	require.NoError(t, err)
	lat, lng := 1.0, 2.0
	_, err = engine.SubmitProof(ctx, worker, app.ID, lifecycle.ProofInput{ImageRef: "ref", Latitude: &lat, Longitude: &lng})
	require.NoError(t, err)

	b, err = svc.Agent(ctx, agent)
	require.NoError(t, err)
	assert.Empty(t, b.PendingApplications)
	require.Len(t, b.PendingProofs, 1)
	assert.Equal(t, worker.ID, b.PendingProofs[0].WorkerID)

	jobs, err := svc.ClientJobs(ctx, client)
	require.NoError(t, err)
	require.Len(t, jobs, 4)
	assert.Equal(t, bare.ID, jobs[0].Job.ID)
	for _, cj := range jobs {
		if cj.Job.ID == claimed.ID {
			assert.Len(t, cj.Postings, 1)
			assert.Equal(t, 1, cj.Applications)
		}
	}
}

func TestBoardsCheckRole(t *testing.T) {
	svc := NewService(memory.New(), nil)
	ctx := context.Background()
	someone := account.Actor{Kind: account.KindWorker, ID: uuid.New()}

	_, err := svc.ClientJobs(ctx, someone)
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = svc.Agent(ctx, someone)
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = svc.Worker(ctx, account.Actor{Kind: account.KindClient, ID: uuid.New()})
	assert.ErrorIs(t, err, ErrUnauthorized)
}
