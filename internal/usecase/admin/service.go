package admin

import (
	"context"
	"errors"

	"sidecrew/internal/domain/account"
	"sidecrew/internal/domain/job"
	"sidecrew/internal/pkg/logger"
	"sidecrew/internal/repository"
	"sidecrew/internal/usecase/lifecycle"

	"github.com/google/uuid"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
)

// JobRemover deletes a job with its dependents and notifies the people
// involved.
type JobRemover interface {
	DeleteJob(ctx context.Context, actor account.Actor, jobID uuid.UUID) error
}

// CacheInvalidator drops data derived from the set of approved agents.
type CacheInvalidator interface {
	Invalidate(ctx context.Context)
}

type Stats struct {
	Clients        int64 `json:"clients"`
	Agents         int64 `json:"agents"`
	Workers        int64 `json:"workers"`
	PendingClients int64 `json:"pending_clients"`
	PendingAgents  int64 `json:"pending_agents"`
	PendingWorkers int64 `json:"pending_workers"`
	Jobs           int64 `json:"jobs"`
}

type JobDetail struct {
	Job          job.Job
	Postings     []job.Posting
	Applications []repository.ApplicationRow
}

type Service struct {
	store      repository.Store
	jobs       JobRemover
	invalidate CacheInvalidator
	log        *logger.Logger
}

func NewService(store repository.Store, jobs JobRemover, invalidate CacheInvalidator, log *logger.Logger) *Service {
	return &Service{
		store:      store,
		jobs:       jobs,
		invalidate: invalidate,
		log:        logger.OrNop(log).With("component", "admin"),
	}
}

// ListAccounts returns accounts of kind, newest first. An empty status
// lists all of them.
func (s *Service) ListAccounts(ctx context.Context, kind account.Kind, status account.ApprovalStatus) ([]account.Account, error) {
	if !kind.Stored() || (status != "" && !status.Valid()) {
		return nil, ErrInvalidInput
	}
	list, err := s.store.Repos().Accounts.List(ctx, kind, status)
	if err != nil {
		s.log.Error("list accounts failed", "kind", kind, "error", err)
		return nil, ErrInternal
	}
	for i := range list {
		list[i].PasswordHash = ""
	}
	return list, nil
}

func (s *Service) Approve(ctx context.Context, kind account.Kind, id uuid.UUID) (account.Account, error) {
	return s.setStatus(ctx, kind, id, account.StatusApproved)
}

func (s *Service) Reject(ctx context.Context, kind account.Kind, id uuid.UUID) (account.Account, error) {
	return s.setStatus(ctx, kind, id, account.StatusRejected)
}

func (s *Service) setStatus(ctx context.Context, kind account.Kind, id uuid.UUID, status account.ApprovalStatus) (account.Account, error) {
	if !kind.Stored() {
		return account.Account{}, ErrInvalidInput
	}
	r := s.store.Repos()
	if err := r.Accounts.UpdateStatus(ctx, kind, id, status); err != nil {
		return account.Account{}, s.storeErr("update account status", err)
	}
	a, err := r.Accounts.FindByID(ctx, kind, id)
	if err != nil {
		return account.Account{}, s.storeErr("reload account", err)
	}
	if kind == account.KindAgent {
		s.agentsChanged(ctx)
	}
	s.log.Info("account status changed", "kind", kind, "account_id", id, "status", status)
	a.PasswordHash = ""
	return a, nil
}

// DeleteAccount removes an account. An agent's jobs are released back to
// the public board first; its postings go with it. Ratings held on the
// cascaded rows drop out of the other parties' means.
func (s *Service) DeleteAccount(ctx context.Context, kind account.Kind, id uuid.UUID) error {
	if !kind.Stored() {
		return ErrInvalidInput
	}
	var (
		released int64
		rated    lifecycle.RatedParties
	)
	err := s.store.WithinTx(ctx, func(r repository.Repos) error {
		if _, err := r.Accounts.FindByID(ctx, kind, id); err != nil {
			return err
		}
		if err := collectRated(ctx, r, kind, id, &rated); err != nil {
			return err
		}
		if kind == account.KindAgent {
			n, err := r.Jobs.ReleaseAgent(ctx, id)
			if err != nil {
				return err
			}
			released = n
		}
		if err := r.Accounts.Delete(ctx, kind, id); err != nil {
			return err
		}
		return rated.Refresh(ctx, r)
	})
	if err != nil {
		return s.storeErr("delete account", err)
	}
	if kind == account.KindAgent || rated.AgentsAffected() {
		s.agentsChanged(ctx)
	}
	s.log.Info("account deleted", "kind", kind, "account_id", id, "jobs_released", released)
	return nil
}

// collectRated gathers the ratings that disappear with the account's
// cascade: a client's jobs and their applications, or the applications on
// an agent's postings. A worker's applications only rated the worker.
func collectRated(ctx context.Context, r repository.Repos, kind account.Kind, id uuid.UUID, rated *lifecycle.RatedParties) error {
	var filters []repository.ApplicationFilter
	switch kind {
	case account.KindClient:
		jobs, err := r.Jobs.List(ctx, repository.JobFilter{ClientID: id})
		if err != nil {
			return err
		}
		for _, j := range jobs {
			rated.AddJob(j)
			filters = append(filters, repository.ApplicationFilter{JobID: j.ID})
		}
	case account.KindAgent:
		filters = append(filters, repository.ApplicationFilter{AgentID: id})
	}
	for _, f := range filters {
		apps, err := r.Applications.List(ctx, f)
		if err != nil {
			return err
		}
		for _, a := range apps {
			rated.AddApplication(a.Application)
		}
	}
	return nil
}

func (s *Service) ListJobs(ctx context.Context) ([]job.Job, error) {
	list, err := s.store.Repos().Jobs.List(ctx, repository.JobFilter{})
	if err != nil {
		return nil, s.storeErr("list jobs", err)
	}
	return list, nil
}

// JobDetail returns a job with every application across its postings.
func (s *Service) JobDetail(ctx context.Context, id uuid.UUID) (JobDetail, error) {
	r := s.store.Repos()
	j, err := r.Jobs.Find(ctx, repository.JobFilter{ID: id})
	if err != nil {
		return JobDetail{}, s.storeErr("find job", err)
	}
	postings, err := r.Postings.List(ctx, repository.PostingFilter{JobID: id})
	if err != nil {
		return JobDetail{}, s.storeErr("list postings", err)
	}
	apps, err := r.Applications.List(ctx, repository.ApplicationFilter{JobID: id})
	if err != nil {
		return JobDetail{}, s.storeErr("list applications", err)
	}
	return JobDetail{Job: j, Postings: postings, Applications: apps}, nil
}

// DeleteJob removes any job, completed ones included.
func (s *Service) DeleteJob(ctx context.Context, actor account.Actor, id uuid.UUID) error {
	return s.jobs.DeleteJob(ctx, actor, id)
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	r := s.store.Repos()
	var st Stats
	counts := []struct {
		dst    *int64
		kind   account.Kind
		status account.ApprovalStatus
	}{
		{&st.Clients, account.KindClient, ""},
		{&st.Agents, account.KindAgent, ""},
		{&st.Workers, account.KindWorker, ""},
		{&st.PendingClients, account.KindClient, account.StatusPending},
		{&st.PendingAgents, account.KindAgent, account.StatusPending},
		{&st.PendingWorkers, account.KindWorker, account.StatusPending},
	}
	for _, c := range counts {
		n, err := r.Accounts.Count(ctx, c.kind, c.status)
		if err != nil {
			return Stats{}, s.storeErr("count accounts", err)
		}
		*c.dst = n
	}
	n, err := r.Jobs.Count(ctx)
	if err != nil {
		return Stats{}, s.storeErr("count jobs", err)
	}
	st.Jobs = n
	return st, nil
}

func (s *Service) agentsChanged(ctx context.Context) {
	if s.invalidate != nil {
		s.invalidate.Invalidate(ctx)
	}
}

func (s *Service) storeErr(op string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	s.log.Error(op+" failed", "error", err)
	return ErrInternal
}
