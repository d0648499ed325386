// Package board builds the per-role dashboards. Reads run outside any
// transaction, so a board is a best-effort snapshot.
package board

import (
	"context"
	"errors"

	"sidecrew/internal/domain/account"
	"sidecrew/internal/domain/application"
	"sidecrew/internal/domain/job"
	"sidecrew/internal/pkg/logger"
	"sidecrew/internal/repository"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrInternal     = errors.New("internal error")
)

type ClientJob struct {
	Job          job.Job
	Postings     []job.Posting
	Applications int
}

type AgentBoard struct {
	// Invites are jobs offered directly to the agent.
	Invites []job.Job
	// Public are unclaimed jobs any agent may take.
	Public []job.Job
	// NeedsPosting are the agent's open jobs with nothing advertised yet.
	NeedsPosting        []job.Job
	PendingApplications []repository.ApplicationRow
	PendingProofs       []repository.ProofRow
}

type WorkerBoard struct {
	Postings     []job.Posting
	Applications []repository.ApplicationRow
}

type Service struct {
	store repository.Store
	log   *logger.Logger
}

func NewService(store repository.Store, log *logger.Logger) *Service {
	return &Service{store: store, log: logger.OrNop(log).With("component", "board")}
}

// ClientJobs lists the client's jobs newest first, each with its postings
// and the number of applications received across them.
func (s *Service) ClientJobs(ctx context.Context, actor account.Actor) ([]ClientJob, error) {
	if !actor.Is(account.KindClient) {
		return nil, ErrUnauthorized
	}
	r := s.store.Repos()

	jobs, err := r.Jobs.List(ctx, repository.JobFilter{ClientID: actor.ID})
	if err != nil {
		return nil, s.internal("list client jobs", err)
	}
	out := make([]ClientJob, 0, len(jobs))
	for _, j := range jobs {
		postings, err := r.Postings.List(ctx, repository.PostingFilter{JobID: j.ID})
		if err != nil {
			return nil, s.internal("list job postings", err)
		}
		n, err := r.Applications.Count(ctx, repository.ApplicationFilter{JobID: j.ID})
		if err != nil {
			return nil, s.internal("count job applications", err)
		}
		out = append(out, ClientJob{Job: j, Postings: postings, Applications: n})
	}
	return out, nil
}

func (s *Service) Agent(ctx context.Context, actor account.Actor) (AgentBoard, error) {
	if !actor.Is(account.KindAgent) {
		return AgentBoard{}, ErrUnauthorized
	}
	r := s.store.Repos()
	var (
		b   AgentBoard
		err error
	)

	if b.Invites, err = r.Jobs.List(ctx, repository.JobFilter{
		AgentID:  actor.ID,
		Statuses: []job.Status{job.StatusPendingAgent},
	}); err != nil {
		return AgentBoard{}, s.internal("list invites", err)
	}
	if b.Public, err = r.Jobs.List(ctx, repository.JobFilter{
		NoAgent:  true,
		Statuses: []job.Status{job.StatusSeekingAgent},
	}); err != nil {
		return AgentBoard{}, s.internal("list public jobs", err)
	}
	if b.NeedsPosting, err = r.Jobs.List(ctx, repository.JobFilter{
		AgentID:         actor.ID,
		Statuses:        []job.Status{job.StatusOpen},
		WithoutPostings: true,
	}); err != nil {
		return AgentBoard{}, s.internal("list jobs without postings", err)
	}
	if b.PendingApplications, err = r.Applications.List(ctx, repository.ApplicationFilter{
		AgentID:     actor.ID,
		Statuses:    []application.Status{application.StatusPending},
		OldestFirst: true,
	}); err != nil {
		return AgentBoard{}, s.internal("list pending applications", err)
	}
	if b.PendingProofs, err = r.Proofs.List(ctx, repository.ProofFilter{
		AgentID:  actor.ID,
		Statuses: []application.ProofStatus{application.ProofPending},
	}); err != nil {
		return AgentBoard{}, s.internal("list pending proofs", err)
	}
	return b, nil
}

func (s *Service) Worker(ctx context.Context, actor account.Actor) (WorkerBoard, error) {
	if !actor.Is(account.KindWorker) {
		return WorkerBoard{}, ErrUnauthorized
	}
	r := s.store.Repos()

	postings, err := r.Postings.List(ctx, repository.PostingFilter{ActiveOnly: true, NotAppliedBy: actor.ID})
	if err != nil {
		return WorkerBoard{}, s.internal("list open postings", err)
	}
	apps, err := r.Applications.List(ctx, repository.ApplicationFilter{WorkerID: actor.ID})
	if err != nil {
		return WorkerBoard{}, s.internal("list worker applications", err)
	}
	return WorkerBoard{Postings: postings, Applications: apps}, nil
}

func (s *Service) internal(what string, err error) error {
	s.log.Error(what+" failed", "error", err)
	return ErrInternal
}
