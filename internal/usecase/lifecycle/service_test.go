package lifecycle

import (
	"context"
	"sync"
	"testing"

	"sidecrew/internal/domain/account"
	"sidecrew/internal/domain/application"
	"sidecrew/internal/domain/event"
	"sidecrew/internal/domain/job"
	"sidecrew/internal/repository"
	"sidecrew/internal/repository/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []event.Event
}

func (n *recordingNotifier) Publish(ev event.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
}

func (n *recordingNotifier) types() []event.Type {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]event.Type, 0, len(n.events))
	for _, ev := range n.events {
		out = append(out, ev.Type)
	}
	return out
}

type countingInvalidator struct{ calls int }

func (c *countingInvalidator) Invalidate(context.Context) { c.calls++ }

type fixture struct {
	t     *testing.T
	ctx   context.Context
	store *memory.Store
	svc   *Service
	notes *recordingNotifier
	cache *countingInvalidator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	notes := &recordingNotifier{}
	cache := &countingInvalidator{}
	return &fixture{
		t:     t,
		ctx:   context.Background(),
		store: store,
		svc:   NewService(store, notes, cache, nil),
		notes: notes,
		cache: cache,
	}
}

func (f *fixture) account(kind account.Kind, name string, status account.ApprovalStatus) account.Actor {
	f.t.Helper()
	a := account.Account{
		ID:     uuid.New(),
		Kind:   kind,
		Name:   name,
		Email:  name + "@example.com",
		Status: status,
	}
	require.NoError(f.t, f.store.Repos().Accounts.Create(f.ctx, a))
	return a.Actor()
}

func (f *fixture) client() account.Actor {
	return f.account(account.KindClient, "client-"+uuid.NewString()[:8], account.StatusApproved)
}

func (f *fixture) agent() account.Actor {
	return f.account(account.KindAgent, "agent-"+uuid.NewString()[:8], account.StatusApproved)
}

func (f *fixture) worker() account.Actor {
	return f.account(account.KindWorker, "worker-"+uuid.NewString()[:8], account.StatusApproved)
}

// openJob creates a job for client, has agent claim it, and returns it OPEN.
func (f *fixture) openJob(client, agent account.Actor, needed int) job.Job {
	f.t.Helper()
	j, err := f.svc.CreateJob(f.ctx, client, CreateJobInput{
		Title:         "Event crew",
		Description:   "Set up and tear down",
		PayPerWorker:  10000,
		WorkersNeeded: needed,
	})
	require.NoError(f.t, err)
	j, err = f.svc.ClaimJob(f.ctx, agent, j.ID)
	require.NoError(f.t, err)
	require.Equal(f.t, job.StatusOpen, j.Status)
	return j
}

func (f *fixture) job(id uuid.UUID) job.Job {
	f.t.Helper()
	j, err := f.store.Repos().Jobs.Find(f.ctx, repository.JobFilter{ID: id})
	require.NoError(f.t, err)
	return j
}

func (f *fixture) posting(id uuid.UUID) job.Posting {
	f.t.Helper()
	list, err := f.store.Repos().Postings.List(f.ctx, repository.PostingFilter{ID: id})
	require.NoError(f.t, err)
	require.Len(f.t, list, 1)
	return list[0]
}

func (f *fixture) application(id uuid.UUID) repository.ApplicationRow {
	f.t.Helper()
	list, err := f.store.Repos().Applications.List(f.ctx, repository.ApplicationFilter{ID: id})
	require.NoError(f.t, err)
	require.Len(f.t, list, 1)
	return list[0]
}

func (f *fixture) submit(worker account.Actor, appID uuid.UUID) application.Proof {
	f.t.Helper()
	lat, lon := -6.2, 106.8
	res, err := f.svc.SubmitProof(f.ctx, worker, appID, ProofInput{ImageRef: "work_proofs/" + uuid.NewString() + ".jpg", Latitude: &lat, Longitude: &lon})
	require.NoError(f.t, err)
	return res.Proof
}

func TestStaffingScenario(t *testing.T) {
	f := newFixture(t)
	client, agent := f.client(), f.agent()
	w1, w2, w3 := f.worker(), f.worker(), f.worker()

	j := f.openJob(client, agent, 2)
	p, err := f.svc.CreatePosting(f.ctx, agent, j.ID, PostingInput{})
	require.NoError(t, err)
	assert.Equal(t, job.Cents(9000), p.WorkerPayRate)
	assert.Equal(t, j.Title, p.Title)

	a1, err := f.svc.Apply(f.ctx, w1, p.ID)
	require.NoError(t, err)
	a2, err := f.svc.Apply(f.ctx, w2, p.ID)
	require.NoError(t, err)
	a3, err := f.svc.Apply(f.ctx, w3, p.ID)
	require.NoError(t, err)

	out, err := f.svc.AcceptApplication(f.ctx, agent, a1.ID)
	require.NoError(t, err)
	assert.False(t, out.Filled())
	assert.Equal(t, job.StatusOpen, f.job(j.ID).Status)
	assert.True(t, f.posting(p.ID).IsActive)

	out, err = f.svc.AcceptApplication(f.ctx, agent, a2.ID)
	require.NoError(t, err)
	assert.True(t, out.Filled())
	assert.Equal(t, job.StatusFilled, f.job(j.ID).Status)
	assert.False(t, f.posting(p.ID).IsActive)
	assert.Equal(t, application.StatusPending, f.application(a3.ID).Status)

	_, err = f.svc.AcceptApplication(f.ctx, agent, a3.ID)
	require.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, application.StatusPending, f.application(a3.ID).Status)

	p1 := f.submit(w1, a1.ID)
	p2 := f.submit(w2, a2.ID)

	res, err := f.svc.ApproveProof(f.ctx, agent, p1.ID)
	require.NoError(t, err)
	assert.Equal(t, application.StatusCompleted, res.Application.Status)
	assert.Equal(t, job.StatusFilled, f.job(j.ID).Status)

	res, err = f.svc.ApproveProof(f.ctx, agent, p2.ID)
	require.NoError(t, err)
	assert.Equal(t, job.StatusCompleted, res.Job.Status)

	final := f.job(j.ID)
	assert.Equal(t, job.StatusCompleted, final.Status)
	require.True(t, final.HasAgent())
	assert.Equal(t, agent.ID, *final.AgentID)

	assert.Contains(t, f.notes.types(), event.JobFilled)
	assert.Contains(t, f.notes.types(), event.JobCompleted)
}

func TestCompletionCountsAcrossPostings(t *testing.T) {
	f := newFixture(t)
	client, agent := f.client(), f.agent()
	w1, w2 := f.worker(), f.worker()

	j := f.openJob(client, agent, 2)
	pa, err := f.svc.CreatePosting(f.ctx, agent, j.ID, PostingInput{Title: "Morning shift"})
	require.NoError(t, err)
	pb, err := f.svc.CreatePosting(f.ctx, agent, j.ID, PostingInput{Title: "Evening shift"})
	require.NoError(t, err)

	a1, err := f.svc.Apply(f.ctx, w1, pa.ID)
	require.NoError(t, err)
	a2, err := f.svc.Apply(f.ctx, w2, pb.ID)
	require.NoError(t, err)
	_, err = f.svc.AcceptApplication(f.ctx, agent, a1.ID)
	require.NoError(t, err)
	_, err = f.svc.AcceptApplication(f.ctx, agent, a2.ID)
	require.NoError(t, err)
	assert.Equal(t, job.StatusOpen, f.job(j.ID).Status)

	_, err = f.svc.ApproveProof(f.ctx, agent, f.submit(w1, a1.ID).ID)
	require.NoError(t, err)
	assert.Equal(t, job.StatusOpen, f.job(j.ID).Status)

	_, err = f.svc.ApproveProof(f.ctx, agent, f.submit(w2, a2.ID).ID)
	require.NoError(t, err)
	assert.Equal(t, job.StatusCompleted, f.job(j.ID).Status)
}

func TestApplyTwiceIsRejected(t *testing.T) {
	f := newFixture(t)
	client, agent, w := f.client(), f.agent(), f.worker()
	j := f.openJob(client, agent, 1)
	p, err := f.svc.CreatePosting(f.ctx, agent, j.ID, PostingInput{})
	require.NoError(t, err)

	_, err = f.svc.Apply(f.ctx, w, p.ID)
	require.NoError(t, err)
	_, err = f.svc.Apply(f.ctx, w, p.ID)
	require.ErrorIs(t, err, ErrAlreadyApplied)
	require.ErrorIs(t, err, ErrInvalidState)

	n, err := f.store.Repos().Applications.Count(f.ctx, repository.ApplicationFilter{PostingID: p.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestApplyToInactivePosting(t *testing.T) {
	f := newFixture(t)
	client, agent, w1, w2 := f.client(), f.agent(), f.worker(), f.worker()
	j := f.openJob(client, agent, 1)
	p, err := f.svc.CreatePosting(f.ctx, agent, j.ID, PostingInput{})
	require.NoError(t, err)
	a1, err := f.svc.Apply(f.ctx, w1, p.ID)
	require.NoError(t, err)
	_, err = f.svc.AcceptApplication(f.ctx, agent, a1.ID)
	require.NoError(t, err)

	_, err = f.svc.Apply(f.ctx, w2, p.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestInviteFlow(t *testing.T) {
	f := newFixture(t)
	client, agent := f.client(), f.agent()

	j, err := f.svc.CreateJob(f.ctx, client, CreateJobInput{
		Title: "Warehouse", PayPerWorker: 5000, WorkersNeeded: 3, InviteAgentID: &agent.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, job.StatusPendingAgent, j.Status)
	require.True(t, j.HasAgent())

	other := f.agent()
	_, err = f.svc.AcceptInvite(f.ctx, other, j.ID)
	require.ErrorIs(t, err, ErrNotFound)

	j, err = f.svc.RejectInvite(f.ctx, agent, j.ID)
	require.NoError(t, err)
	assert.Equal(t, job.StatusSeekingAgent, j.Status)
	assert.False(t, j.HasAgent())

	j, err = f.svc.ClaimJob(f.ctx, other, j.ID)
	require.NoError(t, err)
	assert.Equal(t, job.StatusOpen, j.Status)
	assert.Equal(t, other.ID, *j.AgentID)

	_, err = f.svc.ClaimJob(f.ctx, agent, j.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestAcceptInvite(t *testing.T) {
	f := newFixture(t)
	client, agent := f.client(), f.agent()
	j, err := f.svc.CreateJob(f.ctx, client, CreateJobInput{
		Title: "Ushers", PayPerWorker: 5000, WorkersNeeded: 1, InviteAgentID: &agent.ID,
	})
	require.NoError(t, err)

	j, err = f.svc.AcceptInvite(f.ctx, agent, j.ID)
	require.NoError(t, err)
	assert.Equal(t, job.StatusOpen, j.Status)
}

func TestInviteFallsBackToPublicBoard(t *testing.T) {
	f := newFixture(t)
	client := f.client()
	pending := f.account(account.KindAgent, "pending-agent", account.StatusPending)
	unknown := uuid.New()

	for _, id := range []uuid.UUID{pending.ID, unknown} {
		id := id
		j, err := f.svc.CreateJob(f.ctx, client, CreateJobInput{
			Title: "Cleanup", PayPerWorker: 5000, WorkersNeeded: 1, InviteAgentID: &id,
		})
		require.NoError(t, err)
		assert.Equal(t, job.StatusSeekingAgent, j.Status)
		assert.False(t, j.HasAgent())
	}
}

func TestCreateJobValidation(t *testing.T) {
	f := newFixture(t)
	client := f.client()
	lat := 10.0

	cases := []CreateJobInput{
		{Title: "", PayPerWorker: 100, WorkersNeeded: 1},
		{Title: "x", PayPerWorker: 0, WorkersNeeded: 1},
		{Title: "x", PayPerWorker: 100, WorkersNeeded: 0},
		{Title: "x", PayPerWorker: 100, WorkersNeeded: 1, Latitude: &lat},
		{Title: "x", PayPerWorker: 1 << 60, WorkersNeeded: 1},
	}
	for _, in := range cases {
		_, err := f.svc.CreateJob(f.ctx, client, in)
		assert.ErrorIs(t, err, ErrValidation)
	}

	_, err := f.svc.CreateJob(f.ctx, f.agent(), CreateJobInput{Title: "x", PayPerWorker: 100, WorkersNeeded: 1})
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestCreatePostingPayRate(t *testing.T) {
	f := newFixture(t)
	client, agent := f.client(), f.agent()
	j := f.openJob(client, agent, 1)

	custom := job.Cents(12500)
	p, err := f.svc.CreatePosting(f.ctx, agent, j.ID, PostingInput{WorkerPayRate: &custom})
	require.NoError(t, err)
	assert.Equal(t, custom, p.WorkerPayRate)

	zero := job.Cents(0)
	_, err = f.svc.CreatePosting(f.ctx, agent, j.ID, PostingInput{WorkerPayRate: &zero})
	assert.ErrorIs(t, err, ErrValidation)

	tooMuch := job.MaxCents + 1
	_, err = f.svc.CreatePosting(f.ctx, agent, j.ID, PostingInput{WorkerPayRate: &tooMuch})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.CreatePosting(f.ctx, f.agent(), j.ID, PostingInput{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLargestPayKeepsDefaultRatePositive(t *testing.T) {
	f := newFixture(t)
	client, agent := f.client(), f.agent()

	j, err := f.svc.CreateJob(f.ctx, client, CreateJobInput{Title: "Stadium crew", PayPerWorker: job.MaxCents, WorkersNeeded: 1})
	require.NoError(t, err)
	_, err = f.svc.ClaimJob(f.ctx, agent, j.ID)
	require.NoError(t, err)

	p, err := f.svc.CreatePosting(f.ctx, agent, j.ID, PostingInput{})
	require.NoError(t, err)
	assert.True(t, p.WorkerPayRate.Valid())
	assert.Equal(t, job.DefaultWorkerPayRate(job.MaxCents), p.WorkerPayRate)
}

func TestRejectProofRequiresRemarks(t *testing.T) {
	f := newFixture(t)
	client, agent, w := f.client(), f.agent(), f.worker()
	j := f.openJob(client, agent, 1)
	p, err := f.svc.CreatePosting(f.ctx, agent, j.ID, PostingInput{})
	require.NoError(t, err)
	a, err := f.svc.Apply(f.ctx, w, p.ID)
	require.NoError(t, err)
	_, err = f.svc.AcceptApplication(f.ctx, agent, a.ID)
	require.NoError(t, err)
	proof := f.submit(w, a.ID)

	_, err = f.svc.RejectProof(f.ctx, agent, proof.ID, "   ")
	require.ErrorIs(t, err, ErrValidation)
	row := f.application(a.ID)
	assert.Equal(t, application.StatusProofSubmitted, row.Status)
	assert.Equal(t, application.ProofPending, row.ProofStatus)

	res, err := f.svc.RejectProof(f.ctx, agent, proof.ID, "photo is blurry")
	require.NoError(t, err)
	assert.Equal(t, application.ProofRejected, res.Proof.Status)
	assert.Equal(t, application.StatusProofRejected, res.Application.Status)

	lat, lon := -6.21, 106.81
	again, err := f.svc.SubmitProof(f.ctx, w, a.ID, ProofInput{ImageRef: "work_proofs/second.jpg", Latitude: &lat, Longitude: &lon})
	require.NoError(t, err)
	assert.Equal(t, proof.ID, again.Proof.ID)
	assert.Equal(t, "work_proofs/second.jpg", again.Proof.ImageRef)
	assert.Equal(t, proof.ImageRef, again.ReplacedImageRef)
	row = f.application(a.ID)
	assert.Equal(t, application.StatusProofSubmitted, row.Status)
	assert.Equal(t, application.ProofPending, row.ProofStatus)
	assert.Empty(t, row.ProofRemarks)
}

func TestSubmitProofValidation(t *testing.T) {
	f := newFixture(t)
	client, agent, w := f.client(), f.agent(), f.worker()
	j := f.openJob(client, agent, 1)
	p, err := f.svc.CreatePosting(f.ctx, agent, j.ID, PostingInput{})
	require.NoError(t, err)
	a, err := f.svc.Apply(f.ctx, w, p.ID)
	require.NoError(t, err)

	lat, lon := 1.0, 2.0
	_, err = f.svc.SubmitProof(f.ctx, w, a.ID, ProofInput{ImageRef: "img", Latitude: &lat})
	require.ErrorIs(t, err, ErrValidation)
	_, err = f.svc.SubmitProof(f.ctx, w, a.ID, ProofInput{Latitude: &lat, Longitude: &lon})
	require.ErrorIs(t, err, ErrValidation)

	// still PENDING, so there is nothing to prove yet
	_, err = f.svc.SubmitProof(f.ctx, w, a.ID, ProofInput{ImageRef: "img", Latitude: &lat, Longitude: &lon})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteJob(t *testing.T) {
	f := newFixture(t)
	client, agent, w := f.client(), f.agent(), f.worker()

	j := f.openJob(client, agent, 1)
	p, err := f.svc.CreatePosting(f.ctx, agent, j.ID, PostingInput{})
	require.NoError(t, err)
	a, err := f.svc.Apply(f.ctx, w, p.ID)
	require.NoError(t, err)
	_, err = f.svc.AcceptApplication(f.ctx, agent, a.ID)
	require.NoError(t, err)
	proof := f.submit(w, a.ID)

	_, err = f.svc.ApproveProof(f.ctx, agent, proof.ID)
	require.NoError(t, err)
	err = f.svc.DeleteJob(f.ctx, client, j.ID)
	require.ErrorIs(t, err, ErrConflict)
	require.ErrorIs(t, f.svc.DeleteJob(f.ctx, agent, j.ID), ErrUnauthorized)

	admin := account.Actor{Kind: account.KindAdmin, ID: uuid.New()}
	require.NoError(t, f.svc.DeleteJob(f.ctx, admin, j.ID))
	_, err = f.store.Repos().Jobs.Find(f.ctx, repository.JobFilter{ID: j.ID})
	require.ErrorIs(t, err, repository.ErrNotFound)

	open := f.openJob(client, agent, 2)
	p2, err := f.svc.CreatePosting(f.ctx, agent, open.ID, PostingInput{})
	require.NoError(t, err)
	a2, err := f.svc.Apply(f.ctx, w, p2.ID)
	require.NoError(t, err)
	_, err = f.svc.AcceptApplication(f.ctx, agent, a2.ID)
	require.NoError(t, err)
	pr2 := f.submit(w, a2.ID)

	require.ErrorIs(t, f.svc.DeleteJob(f.ctx, f.client(), open.ID), ErrNotFound)
	require.NoError(t, f.svc.DeleteJob(f.ctx, client, open.ID))

	repos := f.store.Repos()
	_, err = repos.Jobs.Find(f.ctx, repository.JobFilter{ID: open.ID})
	assert.ErrorIs(t, err, repository.ErrNotFound)
	postings, err := repos.Postings.List(f.ctx, repository.PostingFilter{JobID: open.ID})
	require.NoError(t, err)
	assert.Empty(t, postings)
	apps, err := repos.Applications.List(f.ctx, repository.ApplicationFilter{PostingID: p2.ID})
	require.NoError(t, err)
	assert.Empty(t, apps)
	_, err = repos.Proofs.Find(f.ctx, repository.ProofFilter{ID: pr2.ID})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

// completeOne drives a fresh one-worker job to COMPLETED and returns the job
// and the worker's application.
func (f *fixture) completeOne(client, agent, w account.Actor) (job.Job, application.Application) {
	f.t.Helper()
	j := f.openJob(client, agent, 1)
	p, err := f.svc.CreatePosting(f.ctx, agent, j.ID, PostingInput{})
	require.NoError(f.t, err)
	a, err := f.svc.Apply(f.ctx, w, p.ID)
	require.NoError(f.t, err)
	_, err = f.svc.AcceptApplication(f.ctx, agent, a.ID)
	require.NoError(f.t, err)
	res, err := f.svc.ApproveProof(f.ctx, agent, f.submit(w, a.ID).ID)
	require.NoError(f.t, err)
	require.Equal(f.t, job.StatusCompleted, res.Job.Status)
	return res.Job, res.Application
}

func TestRatingsAreOneTimeAndAveraged(t *testing.T) {
	f := newFixture(t)
	client, agent, w := f.client(), f.agent(), f.worker()

	j1, a1 := f.completeOne(client, agent, w)
	j2, a2 := f.completeOne(client, agent, w)

	_, err := f.svc.RateAgent(f.ctx, client, j1.ID, 5)
	require.NoError(t, err)
	_, err = f.svc.RateAgent(f.ctx, client, j1.ID, 1)
	require.ErrorIs(t, err, ErrAlreadyRated)
	_, err = f.svc.RateAgent(f.ctx, client, j2.ID, 2)
	require.NoError(t, err)

	ag, err := f.store.Repos().Accounts.FindByID(f.ctx, account.KindAgent, agent.ID)
	require.NoError(t, err)
	assert.Equal(t, 3.5, ag.Rating)
	assert.Equal(t, 2, f.cache.calls)

	_, err = f.svc.RateWorker(f.ctx, agent, a1.ID, 4)
	require.NoError(t, err)
	_, err = f.svc.RateWorker(f.ctx, agent, a2.ID, 3)
	require.NoError(t, err)
	_, err = f.svc.RateWorker(f.ctx, agent, a2.ID, 5)
	require.ErrorIs(t, err, ErrAlreadyRated)

	wk, err := f.store.Repos().Accounts.FindByID(f.ctx, account.KindWorker, w.ID)
	require.NoError(t, err)
	assert.Equal(t, 3.5, wk.Rating)

	_, err = f.svc.RateAgent(f.ctx, client, j2.ID, 9)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRateAgentRequiresCompletedJob(t *testing.T) {
	f := newFixture(t)
	client, agent := f.client(), f.agent()
	j := f.openJob(client, agent, 1)

	_, err := f.svc.RateAgent(f.ctx, client, j.ID, 4)
	require.ErrorIs(t, err, ErrNotFound)
	assert.False(t, f.job(j.ID).IsRated())
}

func TestMarkWorkerPaidAndPayForJob(t *testing.T) {
	f := newFixture(t)
	client, agent, w := f.client(), f.agent(), f.worker()
	j, a := f.completeOne(client, agent, w)

	paid, err := f.svc.MarkWorkerPaid(f.ctx, agent, a.ID)
	require.NoError(t, err)
	assert.Equal(t, application.PaymentPaid, paid.WorkerPaymentStatus)
	_, err = f.svc.MarkWorkerPaid(f.ctx, agent, a.ID)
	require.NoError(t, err)

	got, err := f.svc.PayForJob(f.ctx, client, j.ID)
	require.NoError(t, err)
	assert.Equal(t, job.PaymentPaid, got.ClientPaymentStatus)

	_, err = f.svc.PayForJob(f.ctx, w, j.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestRejectApplicationIsTerminal(t *testing.T) {
	f := newFixture(t)
	client, agent, w := f.client(), f.agent(), f.worker()
	j := f.openJob(client, agent, 1)
	p, err := f.svc.CreatePosting(f.ctx, agent, j.ID, PostingInput{})
	require.NoError(t, err)
	a, err := f.svc.Apply(f.ctx, w, p.ID)
	require.NoError(t, err)

	got, err := f.svc.RejectApplication(f.ctx, agent, a.ID)
	require.NoError(t, err)
	assert.Equal(t, application.StatusRejected, got.Status)

	_, err = f.svc.AcceptApplication(f.ctx, agent, a.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFailedActionPublishesNothing(t *testing.T) {
	f := newFixture(t)
	agent := f.agent()
	before := len(f.notes.types())

	_, err := f.svc.ClaimJob(f.ctx, agent, uuid.New())
	require.ErrorIs(t, err, ErrNotFound)
	assert.Len(t, f.notes.types(), before)
}

func TestConcurrentAcceptDoesNotOverfill(t *testing.T) {
	f := newFixture(t)
	client, agent := f.client(), f.agent()
	j := f.openJob(client, agent, 1)
	p, err := f.svc.CreatePosting(f.ctx, agent, j.ID, PostingInput{})
	require.NoError(t, err)

	var ids []uuid.UUID
	for i := 0; i < 5; i++ {
		a, err := f.svc.Apply(f.ctx, f.worker(), p.ID)
		require.NoError(t, err)
		ids = append(ids, a.ID)
	}

	var wg sync.WaitGroup
	errs := make([]error, len(ids))
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id uuid.UUID) {
			defer wg.Done()
			_, errs[i] = f.svc.AcceptApplication(f.ctx, agent, id)
		}(i, id)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
		} else {
			assert.ErrorIs(t, err, ErrInvalidState)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, job.StatusFilled, f.job(j.ID).Status)
}

func TestFirstProofReplacesNothing(t *testing.T) {
	f := newFixture(t)
	client, agent, w := f.client(), f.agent(), f.worker()
	j := f.openJob(client, agent, 1)
	p, err := f.svc.CreatePosting(f.ctx, agent, j.ID, PostingInput{})
	require.NoError(t, err)
	a, err := f.svc.Apply(f.ctx, w, p.ID)
	require.NoError(t, err)
	_, err = f.svc.AcceptApplication(f.ctx, agent, a.ID)
	require.NoError(t, err)

	lat, lon := -6.2, 106.8
	res, err := f.svc.SubmitProof(f.ctx, w, a.ID, ProofInput{ImageRef: "work_proofs/first.jpg", Latitude: &lat, Longitude: &lon})
	require.NoError(t, err)
	assert.Empty(t, res.ReplacedImageRef)
}

func TestDeletingRatedJobRefreshesMeans(t *testing.T) {
	f := newFixture(t)
	client, agent, w := f.client(), f.agent(), f.worker()

	j1, a1 := f.completeOne(client, agent, w)
	j2, a2 := f.completeOne(client, agent, w)
	_, err := f.svc.RateAgent(f.ctx, client, j1.ID, 5)
	require.NoError(t, err)
	_, err = f.svc.RateAgent(f.ctx, client, j2.ID, 1)
	require.NoError(t, err)
	_, err = f.svc.RateWorker(f.ctx, agent, a1.ID, 4)
	require.NoError(t, err)
	_, err = f.svc.RateWorker(f.ctx, agent, a2.ID, 2)
	require.NoError(t, err)
	calls := f.cache.calls

	admin := account.Actor{Kind: account.KindAdmin, ID: uuid.New()}
	require.NoError(t, f.svc.DeleteJob(f.ctx, admin, j2.ID))

	ag, err := f.store.Repos().Accounts.FindByID(f.ctx, account.KindAgent, agent.ID)
	require.NoError(t, err)
	assert.Equal(t, 5.0, ag.Rating)
	wk, err := f.store.Repos().Accounts.FindByID(f.ctx, account.KindWorker, w.ID)
	require.NoError(t, err)
	assert.Equal(t, 4.0, wk.Rating)
	assert.Equal(t, calls+1, f.cache.calls)

	require.NoError(t, f.svc.DeleteJob(f.ctx, admin, j1.ID))
	ag, err = f.store.Repos().Accounts.FindByID(f.ctx, account.KindAgent, agent.ID)
	require.NoError(t, err)
	assert.Zero(t, ag.Rating)
}
