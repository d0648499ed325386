// Package lifecycle owns the guarded status transitions of jobs, postings,
// applications, and work proofs.
//
// Every operation runs in one store transaction. The target row is read with
// FindForUpdate filtered by id, the calling actor, and the status the
// transition requires; a miss is reported as ErrNotFound whether the row is
// absent, owned by someone else, or in another status. Cascading recounts
// happen inside the same transaction after the parent Job row is locked.
// Locks are always taken in the order application, proof, posting, job.
//
// Events are published only after commit.
package lifecycle

import (
	"context"
	"errors"
	"time"

	"sidecrew/internal/domain/account"
	"sidecrew/internal/domain/event"
	"sidecrew/internal/pkg/logger"
	"sidecrew/internal/repository"

	"github.com/google/uuid"
)

// Notifier receives committed lifecycle events.
type Notifier interface {
	Publish(ev event.Event)
}

// CacheInvalidator is told when agent ratings change, so ranked agent lists
// built from them can be dropped.
type CacheInvalidator interface {
	Invalidate(ctx context.Context)
}

type Service struct {
	store      repository.Store
	notifier   Notifier
	invalidate CacheInvalidator
	log        *logger.Logger
	now        func() time.Time
}

func NewService(store repository.Store, notifier Notifier, invalidate CacheInvalidator, log *logger.Logger) *Service {
	return &Service{
		store:      store,
		notifier:   notifier,
		invalidate: invalidate,
		log:        logger.OrNop(log).With("component", "lifecycle"),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// outbox collects events raised inside a transaction.
type outbox struct {
	now    time.Time
	events []event.Event
}

func (o *outbox) add(ev event.Event, to ...account.Actor) {
	ev.Timestamp = o.now
	for _, a := range to {
		if a.ID != uuid.Nil {
			ev.Recipients = append(ev.Recipients, a)
		}
	}
	o.events = append(o.events, ev)
}

// run executes fn in a transaction and publishes its events once committed.
func (s *Service) run(ctx context.Context, op string, fn func(r repository.Repos, out *outbox) error) error {
	out := &outbox{now: s.now()}
	err := s.store.WithinTx(ctx, func(r repository.Repos) error {
		return fn(r, out)
	})
	if err != nil {
		mapped := classify(err)
		if errors.Is(mapped, ErrInternal) {
			s.log.Error("lifecycle action failed", "op", op, "error", err)
		} else {
			s.log.Debug("lifecycle action refused", "op", op, "error", err)
		}
		return mapped
	}
	if s.notifier != nil {
		for _, ev := range out.events {
			s.notifier.Publish(ev)
		}
	}
	return nil
}

func requireRole(actor account.Actor, kind account.Kind) error {
	if !actor.Is(kind) {
		return ErrUnauthorized
	}
	return nil
}

func clientActor(id uuid.UUID) account.Actor { return account.Actor{Kind: account.KindClient, ID: id} }
func agentActor(id uuid.UUID) account.Actor  { return account.Actor{Kind: account.KindAgent, ID: id} }
func workerActor(id uuid.UUID) account.Actor { return account.Actor{Kind: account.KindWorker, ID: id} }

func agentOf(id *uuid.UUID) account.Actor {
	if id == nil {
		return account.Actor{}
	}
	return agentActor(*id)
}
