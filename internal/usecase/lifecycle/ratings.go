package lifecycle

import (
	"context"
	"errors"

	"sidecrew/internal/domain/account"
	"sidecrew/internal/domain/application"
	"sidecrew/internal/domain/job"
	"sidecrew/internal/repository"

	"github.com/google/uuid"
)

// RatedParties collects the agents and workers whose stored mean rating
// includes a rating held on rows that are about to be deleted.
type RatedParties struct {
	agents  map[uuid.UUID]struct{}
	workers map[uuid.UUID]struct{}
}

func (p *RatedParties) AddJob(j job.Job) {
	if !j.IsRated() || !j.HasAgent() {
		return
	}
	if p.agents == nil {
		p.agents = make(map[uuid.UUID]struct{})
	}
	p.agents[*j.AgentID] = struct{}{}
}

func (p *RatedParties) AddApplication(a application.Application) {
	if !a.IsRated() {
		return
	}
	if p.workers == nil {
		p.workers = make(map[uuid.UUID]struct{})
	}
	p.workers[a.WorkerID] = struct{}{}
}

// AgentsAffected reports whether any agent rating will be recomputed.
func (p *RatedParties) AgentsAffected() bool {
	return len(p.agents) > 0
}

// Refresh recomputes the mean rating of every collected party. Call it in
// the transaction that deleted the rows, after the delete. Parties removed
// by the same delete are skipped.
func (p *RatedParties) Refresh(ctx context.Context, r repository.Repos) error {
	for id := range p.agents {
		avg, err := r.Jobs.AverageClientRating(ctx, id)
		if err != nil {
			return err
		}
		if err := skipGone(r.Accounts.UpdateRating(ctx, account.KindAgent, id, avg)); err != nil {
			return err
		}
	}
	for id := range p.workers {
		avg, err := r.Applications.AverageAgentRating(ctx, id)
		if err != nil {
			return err
		}
		if err := skipGone(r.Accounts.UpdateRating(ctx, account.KindWorker, id, avg)); err != nil {
			return err
		}
	}
	return nil
}

func skipGone(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	return err
}
