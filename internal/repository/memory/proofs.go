package memory

import (
	"context"
	"sort"

	"sidecrew/internal/domain/account"
	"sidecrew/internal/domain/application"
	"sidecrew/internal/repository"

	"github.com/google/uuid"
)

type proofs view

var _ repository.ProofRepository = (*proofs)(nil)

func (r *proofs) Upsert(_ context.Context, p application.Proof) (application.Proof, error) {
	v := (*view)(r)
	defer v.lock()()
	st := v.st()

	if _, ok := st.apps[p.ApplicationID]; !ok {
		return application.Proof{}, missingRef("application", p.ApplicationID)
	}
	if existing, ok := st.proofFor(p.ApplicationID); ok {
		p.ID = existing.ID
	}
	p.UploadedAt = v.s.tick()
	st.proofs[p.ID] = p
	return p, nil
}

func (r *proofs) Find(_ context.Context, f repository.ProofFilter) (application.Proof, error) {
	v := (*view)(r)
	defer v.lock()()
	rows := r.match(f)
	if len(rows) == 0 {
		return application.Proof{}, repository.ErrNotFound
	}
	return rows[0].Proof, nil
}

func (r *proofs) FindForUpdate(ctx context.Context, f repository.ProofFilter) (application.Proof, error) {
	return r.Find(ctx, f)
}

func (r *proofs) List(_ context.Context, f repository.ProofFilter) ([]repository.ProofRow, error) {
	v := (*view)(r)
	defer v.lock()()
	return r.match(f), nil
}

func (r *proofs) match(f repository.ProofFilter) []repository.ProofRow {
	st := (*view)(r).st()
	out := make([]repository.ProofRow, 0)
	for _, p := range st.proofs {
		a, ok := st.apps[p.ApplicationID]
		if !ok {
			continue
		}
		posting, ok := st.postings[a.PostingID]
		if !ok {
			continue
		}
		if f.ID != uuid.Nil && p.ID != f.ID {
			continue
		}
		if f.ApplicationID != uuid.Nil && p.ApplicationID != f.ApplicationID {
			continue
		}
		if f.AgentID != uuid.Nil && posting.AgentID != f.AgentID {
			continue
		}
		if len(f.Statuses) > 0 && !contains(f.Statuses, p.Status) {
			continue
		}
		out = append(out, repository.ProofRow{
			Proof:        p,
			WorkerID:     a.WorkerID,
			WorkerName:   st.accounts[account.KindWorker][a.WorkerID].Name,
			PostingID:    posting.ID,
			PostingTitle: posting.Title,
			JobID:        posting.JobID,
		})
	}
	sort.Slice(out, func(i, k int) bool { return out[i].UploadedAt.Before(out[k].UploadedAt) })
	return out
}

func (r *proofs) Update(_ context.Context, p application.Proof) error {
	v := (*view)(r)
	defer v.lock()()
	st := v.st()
	cur, ok := st.proofs[p.ID]
	if !ok {
		return repository.ErrNotFound
	}
	cur.Status = p.Status
	cur.AgentRemarks = p.AgentRemarks
	st.proofs[p.ID] = cur
	return nil
}
