// Package memory is an in-process repository.Store. It keeps the same
// referential rules as the Postgres schema (cascading deletes, unique
// applications, one proof per application) and serialises transactions
// behind a single mutex, so it stands in for Postgres in tests and in
// STORE_BACKEND=memory deployments.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"sidecrew/internal/domain/account"
	"sidecrew/internal/domain/application"
	"sidecrew/internal/domain/job"
	"sidecrew/internal/repository"

	"github.com/google/uuid"
)

var _ repository.Store = (*Store)(nil)

type state struct {
	jobs     map[uuid.UUID]job.Job
	postings map[uuid.UUID]job.Posting
	apps     map[uuid.UUID]application.Application
	proofs   map[uuid.UUID]application.Proof
	accounts map[account.Kind]map[uuid.UUID]account.Account
}

func newState() *state {
	return &state{
		jobs:     make(map[uuid.UUID]job.Job),
		postings: make(map[uuid.UUID]job.Posting),
		apps:     make(map[uuid.UUID]application.Application),
		proofs:   make(map[uuid.UUID]application.Proof),
		accounts: map[account.Kind]map[uuid.UUID]account.Account{
			account.KindClient: {},
			account.KindAgent:  {},
			account.KindWorker: {},
		},
	}
}

// clone copies every table. Entities are stored by value and never mutated
// in place, so a shallow copy per map is a full snapshot.
func (s *state) clone() *state {
	out := &state{
		jobs:     make(map[uuid.UUID]job.Job, len(s.jobs)),
		postings: make(map[uuid.UUID]job.Posting, len(s.postings)),
		apps:     make(map[uuid.UUID]application.Application, len(s.apps)),
		proofs:   make(map[uuid.UUID]application.Proof, len(s.proofs)),
		accounts: make(map[account.Kind]map[uuid.UUID]account.Account, len(s.accounts)),
	}
	for k, v := range s.jobs {
		out.jobs[k] = v
	}
	for k, v := range s.postings {
		out.postings[k] = v
	}
	for k, v := range s.apps {
		out.apps[k] = v
	}
	for k, v := range s.proofs {
		out.proofs[k] = v
	}
	for kind, table := range s.accounts {
		cp := make(map[uuid.UUID]account.Account, len(table))
		for k, v := range table {
			cp[k] = v
		}
		out.accounts[kind] = cp
	}
	return out
}

// Store is safe for concurrent use. WithinTx holds the lock for the whole
// callback, so transactions never interleave.
type Store struct {
	mu   sync.Mutex
	st   *state
	now  func() time.Time
	last time.Time
}

func New() *Store {
	return &Store{
		st:  newState(),
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Repos returns repositories that lock per call. They must not be used from
// inside a WithinTx callback.
func (s *Store) Repos() repository.Repos {
	return s.repos(func() func() {
		s.mu.Lock()
		return s.mu.Unlock
	})
}

func (s *Store) WithinTx(ctx context.Context, fn func(r repository.Repos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	if err := fn(s.repos(func() func() { return func() {} })); err != nil {
		s.st = snapshot
		return err
	}
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }

// tick returns a strictly increasing timestamp so creation order survives
// sorting even when the wall clock repeats. Callers hold s.mu.
func (s *Store) tick() time.Time {
	t := s.now()
	if !t.After(s.last) {
		t = s.last.Add(time.Microsecond)
	}
	s.last = t
	return t
}

func (s *Store) repos(lock func() func()) repository.Repos {
	v := &view{s: s, lock: lock}
	return repository.Repos{
		Jobs:         (*jobs)(v),
		Postings:     (*postings)(v),
		Applications: (*applications)(v),
		Proofs:       (*proofs)(v),
		Accounts:     (*accounts)(v),
	}
}

// view binds repository methods to the store with a locking policy.
type view struct {
	s    *Store
	lock func() func()
}

func (v *view) st() *state { return v.s.st }

func missingRef(what string, id uuid.UUID) error {
	return fmt.Errorf("%w: %s %s", repository.ErrReference, what, id)
}

// deleteJob removes a job and everything hanging off it.
func (st *state) deleteJob(id uuid.UUID) {
	delete(st.jobs, id)
	for pid, p := range st.postings {
		if p.JobID == id {
			st.deletePosting(pid)
		}
	}
}

func (st *state) deletePosting(id uuid.UUID) {
	delete(st.postings, id)
	for aid, a := range st.apps {
		if a.PostingID == id {
			st.deleteApplication(aid)
		}
	}
}

func (st *state) deleteApplication(id uuid.UUID) {
	delete(st.apps, id)
	for pid, p := range st.proofs {
		if p.ApplicationID == id {
			delete(st.proofs, pid)
		}
	}
}

func (st *state) deleteAccount(kind account.Kind, id uuid.UUID) {
	delete(st.accounts[kind], id)
	switch kind {
	case account.KindClient:
		for jid, j := range st.jobs {
			if j.ClientID == id {
				st.deleteJob(jid)
			}
		}
	case account.KindAgent:
		for jid, j := range st.jobs {
			if j.AgentID != nil && *j.AgentID == id {
				j.AgentID = nil
				st.jobs[jid] = j
			}
		}
		for pid, p := range st.postings {
			if p.AgentID == id {
				st.deletePosting(pid)
			}
		}
	case account.KindWorker:
		for aid, a := range st.apps {
			if a.WorkerID == id {
				st.deleteApplication(aid)
			}
		}
	}
}

func (st *state) proofFor(appID uuid.UUID) (application.Proof, bool) {
	for _, p := range st.proofs {
		if p.ApplicationID == appID {
			return p, true
		}
	}
	return application.Proof{}, false
}
