package memory

import (
	"context"
	"sort"

	"sidecrew/internal/domain/account"
	"sidecrew/internal/domain/job"
	"sidecrew/internal/repository"

	"github.com/google/uuid"
)

type postings view

var _ repository.PostingRepository = (*postings)(nil)

func (r *postings) Create(_ context.Context, p job.Posting) error {
	v := (*view)(r)
	defer v.lock()()
	st := v.st()

	if _, ok := st.postings[p.ID]; ok {
		return repository.ErrDuplicate
	}
	if _, ok := st.jobs[p.JobID]; !ok {
		return missingRef("job", p.JobID)
	}
	if _, ok := st.accounts[account.KindAgent][p.AgentID]; !ok {
		return missingRef("agent", p.AgentID)
	}
	p.CreatedAt = v.s.tick()
	st.postings[p.ID] = p
	return nil
}

func (r *postings) FindForUpdate(_ context.Context, f repository.PostingFilter) (job.Posting, error) {
	v := (*view)(r)
	defer v.lock()()
	out := r.match(f)
	if len(out) == 0 {
		return job.Posting{}, repository.ErrNotFound
	}
	return out[0], nil
}

func (r *postings) List(_ context.Context, f repository.PostingFilter) ([]job.Posting, error) {
	v := (*view)(r)
	defer v.lock()()
	return r.match(f), nil
}

func (r *postings) match(f repository.PostingFilter) []job.Posting {
	st := (*view)(r).st()
	out := make([]job.Posting, 0)
	for _, p := range st.postings {
		if f.ID != uuid.Nil && p.ID != f.ID {
			continue
		}
		if f.JobID != uuid.Nil && p.JobID != f.JobID {
			continue
		}
		if f.AgentID != uuid.Nil && p.AgentID != f.AgentID {
			continue
		}
		if f.ActiveOnly && !p.IsActive {
			continue
		}
		if f.NotAppliedBy != uuid.Nil && st.hasApplied(p.ID, f.NotAppliedBy) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].CreatedAt.After(out[k].CreatedAt) })
	return out
}

func (r *postings) Update(_ context.Context, p job.Posting) error {
	v := (*view)(r)
	defer v.lock()()
	st := v.st()
	cur, ok := st.postings[p.ID]
	if !ok {
		return repository.ErrNotFound
	}
	cur.Title = p.Title
	cur.Description = p.Description
	cur.WorkerPayRate = p.WorkerPayRate
	cur.IsActive = p.IsActive
	st.postings[p.ID] = cur
	return nil
}

func (st *state) hasApplied(postingID, workerID uuid.UUID) bool {
	for _, a := range st.apps {
		if a.PostingID == postingID && a.WorkerID == workerID {
			return true
		}
	}
	return false
}
