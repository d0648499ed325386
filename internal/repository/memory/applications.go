package memory

import (
	"context"
	"sort"

	"sidecrew/internal/domain/account"
	"sidecrew/internal/domain/application"
	"sidecrew/internal/repository"

	"github.com/google/uuid"
)

type applications view

var _ repository.ApplicationRepository = (*applications)(nil)

func (r *applications) Create(_ context.Context, a application.Application) error {
	v := (*view)(r)
	defer v.lock()()
	st := v.st()

	if _, ok := st.apps[a.ID]; ok {
		return repository.ErrDuplicate
	}
	if _, ok := st.postings[a.PostingID]; !ok {
		return missingRef("posting", a.PostingID)
	}
	if _, ok := st.accounts[account.KindWorker][a.WorkerID]; !ok {
		return missingRef("worker", a.WorkerID)
	}
	if st.hasApplied(a.PostingID, a.WorkerID) {
		return repository.ErrDuplicate
	}
	if a.Status == "" {
		a.Status = application.StatusPending
	}
	if a.WorkerPaymentStatus == "" {
		a.WorkerPaymentStatus = application.PaymentUnpaid
	}
	a.AppliedAt = v.s.tick()
	st.apps[a.ID] = a
	return nil
}

func (r *applications) Exists(_ context.Context, postingID, workerID uuid.UUID) (bool, error) {
	v := (*view)(r)
	defer v.lock()()
	return v.st().hasApplied(postingID, workerID), nil
}

func (r *applications) FindForUpdate(_ context.Context, f repository.ApplicationFilter) (application.Application, error) {
	v := (*view)(r)
	defer v.lock()()
	rows := r.match(f)
	if len(rows) == 0 {
		return application.Application{}, repository.ErrNotFound
	}
	return rows[0].Application, nil
}

func (r *applications) List(_ context.Context, f repository.ApplicationFilter) ([]repository.ApplicationRow, error) {
	v := (*view)(r)
	defer v.lock()()
	return r.match(f), nil
}

func (r *applications) Count(_ context.Context, f repository.ApplicationFilter) (int, error) {
	v := (*view)(r)
	defer v.lock()()
	return len(r.match(f)), nil
}

func (r *applications) match(f repository.ApplicationFilter) []repository.ApplicationRow {
	st := (*view)(r).st()
	out := make([]repository.ApplicationRow, 0)
	for _, a := range st.apps {
		p, ok := st.postings[a.PostingID]
		if !ok {
			continue
		}
		if f.ID != uuid.Nil && a.ID != f.ID {
			continue
		}
		if f.PostingID != uuid.Nil && a.PostingID != f.PostingID {
			continue
		}
		if f.JobID != uuid.Nil && p.JobID != f.JobID {
			continue
		}
		if f.WorkerID != uuid.Nil && a.WorkerID != f.WorkerID {
			continue
		}
		if f.AgentID != uuid.Nil && p.AgentID != f.AgentID {
			continue
		}
		if len(f.Statuses) > 0 && !contains(f.Statuses, a.Status) {
			continue
		}
		row := repository.ApplicationRow{
			Application:  a,
			JobID:        p.JobID,
			AgentID:      p.AgentID,
			PostingTitle: p.Title,
			WorkerName:   st.accounts[account.KindWorker][a.WorkerID].Name,
		}
		if proof, ok := st.proofFor(a.ID); ok {
			id := proof.ID
			row.ProofID = &id
			row.ProofStatus = proof.Status
			row.ProofRemarks = proof.AgentRemarks
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, k int) bool {
		if f.OldestFirst {
			return out[i].AppliedAt.Before(out[k].AppliedAt)
		}
		return out[i].AppliedAt.After(out[k].AppliedAt)
	})
	return out
}

func (r *applications) Update(_ context.Context, a application.Application) error {
	v := (*view)(r)
	defer v.lock()()
	st := v.st()
	cur, ok := st.apps[a.ID]
	if !ok {
		return repository.ErrNotFound
	}
	cur.Status = a.Status
	cur.AgentRatingForWorker = a.AgentRatingForWorker
	cur.WorkerPaymentStatus = a.WorkerPaymentStatus
	st.apps[a.ID] = cur
	return nil
}

func (r *applications) AverageAgentRating(_ context.Context, workerID uuid.UUID) (float64, error) {
	v := (*view)(r)
	defer v.lock()()
	var ratings []int
	for _, a := range v.st().apps {
		if a.WorkerID == workerID && a.IsRated() {
			ratings = append(ratings, *a.AgentRatingForWorker)
		}
	}
	return account.MeanRating(ratings), nil
}
