package memory

import (
	"context"
	"sort"

	"sidecrew/internal/domain/account"
	"sidecrew/internal/domain/job"
	"sidecrew/internal/repository"

	"github.com/google/uuid"
)

type jobs view

var _ repository.JobRepository = (*jobs)(nil)

func (r *jobs) Create(_ context.Context, j job.Job) error {
	v := (*view)(r)
	defer v.lock()()
	st := v.st()

	if _, ok := st.jobs[j.ID]; ok {
		return repository.ErrDuplicate
	}
	if _, ok := st.accounts[account.KindClient][j.ClientID]; !ok {
		return missingRef("client", j.ClientID)
	}
	if j.HasAgent() {
		if _, ok := st.accounts[account.KindAgent][*j.AgentID]; !ok {
			return missingRef("agent", *j.AgentID)
		}
	}
	if j.Status == "" {
		j.Status = job.StatusSeekingAgent
	}
	if j.ClientPaymentStatus == "" {
		j.ClientPaymentStatus = job.PaymentPending
	}
	now := v.s.tick()
	j.CreatedAt, j.UpdatedAt = now, now
	st.jobs[j.ID] = j
	return nil
}

func (r *jobs) Find(_ context.Context, f repository.JobFilter) (job.Job, error) {
	v := (*view)(r)
	defer v.lock()()
	out := r.match(f)
	if len(out) == 0 {
		return job.Job{}, repository.ErrNotFound
	}
	return out[0], nil
}

func (r *jobs) FindForUpdate(ctx context.Context, f repository.JobFilter) (job.Job, error) {
	return r.Find(ctx, f)
}

func (r *jobs) List(_ context.Context, f repository.JobFilter) ([]job.Job, error) {
	v := (*view)(r)
	defer v.lock()()
	return r.match(f), nil
}

func (r *jobs) match(f repository.JobFilter) []job.Job {
	st := (*view)(r).st()
	out := make([]job.Job, 0)
	for _, j := range st.jobs {
		if f.ID != uuid.Nil && j.ID != f.ID {
			continue
		}
		if f.ClientID != uuid.Nil && j.ClientID != f.ClientID {
			continue
		}
		if f.AgentID != uuid.Nil && (!j.HasAgent() || *j.AgentID != f.AgentID) {
			continue
		}
		if f.NoAgent && j.HasAgent() {
			continue
		}
		if len(f.Statuses) > 0 && !contains(f.Statuses, j.Status) {
			continue
		}
		if f.WithoutPostings && st.hasPosting(j.ID) {
			continue
		}
		out = append(out, j)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].CreatedAt.After(out[k].CreatedAt) })
	return out
}

func (r *jobs) Update(_ context.Context, j job.Job) error {
	v := (*view)(r)
	defer v.lock()()
	st := v.st()

	cur, ok := st.jobs[j.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if j.HasAgent() {
		if _, ok := st.accounts[account.KindAgent][*j.AgentID]; !ok {
			return missingRef("agent", *j.AgentID)
		}
	}
	cur.AgentID = j.AgentID
	cur.Status = j.Status
	cur.ClientPaymentStatus = j.ClientPaymentStatus
	cur.ClientRatingForAgent = j.ClientRatingForAgent
	cur.UpdatedAt = v.s.tick()
	st.jobs[j.ID] = cur
	return nil
}

func (r *jobs) Delete(_ context.Context, id uuid.UUID) error {
	v := (*view)(r)
	defer v.lock()()
	st := v.st()
	if _, ok := st.jobs[id]; !ok {
		return repository.ErrNotFound
	}
	st.deleteJob(id)
	return nil
}

func (r *jobs) AverageClientRating(_ context.Context, agentID uuid.UUID) (float64, error) {
	v := (*view)(r)
	defer v.lock()()
	var ratings []int
	for _, j := range v.st().jobs {
		if j.HasAgent() && *j.AgentID == agentID && j.IsRated() {
			ratings = append(ratings, *j.ClientRatingForAgent)
		}
	}
	return account.MeanRating(ratings), nil
}

func (r *jobs) ReleaseAgent(_ context.Context, agentID uuid.UUID) (int64, error) {
	v := (*view)(r)
	defer v.lock()()
	st := v.st()
	var n int64
	for id, j := range st.jobs {
		if !j.HasAgent() || *j.AgentID != agentID {
			continue
		}
		j.AgentID = nil
		if j.Status != job.StatusCompleted {
			j.Status = job.StatusSeekingAgent
		}
		j.UpdatedAt = v.s.tick()
		st.jobs[id] = j
		n++
	}
	return n, nil
}

func (r *jobs) Count(context.Context) (int64, error) {
	v := (*view)(r)
	defer v.lock()()
	return int64(len(v.st().jobs)), nil
}

func (st *state) hasPosting(jobID uuid.UUID) bool {
	for _, p := range st.postings {
		if p.JobID == jobID {
			return true
		}
	}
	return false
}

func contains[T comparable](list []T, v T) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
