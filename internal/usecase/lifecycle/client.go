package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"sidecrew/internal/domain/account"
	"sidecrew/internal/domain/application"
	"sidecrew/internal/domain/event"
	"sidecrew/internal/domain/job"
	"sidecrew/internal/repository"

	"github.com/google/uuid"
)

type CreateJobInput struct {
	Title         string
	Description   string
	Address       string
	Latitude      *float64
	Longitude     *float64
	PayPerWorker  job.Cents
	WorkersNeeded int
	// InviteAgentID names an agent to offer the job to directly.
	InviteAgentID *uuid.UUID
}

func (in CreateJobInput) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if !in.PayPerWorker.Valid() {
		return fmt.Errorf("%w: pay per worker must be positive and at most %s", ErrValidation, job.MaxCents)
	}
	if in.WorkersNeeded < 1 {
		return fmt.Errorf("%w: workers needed must be at least 1", ErrValidation)
	}
	if (in.Latitude == nil) != (in.Longitude == nil) {
		return fmt.Errorf("%w: latitude and longitude go together", ErrValidation)
	}
	if in.Latitude != nil && !application.ValidCoordinates(*in.Latitude, *in.Longitude) {
		return fmt.Errorf("%w: coordinates out of range", ErrValidation)
	}
	return nil
}

// CreateJob records a new job for the client. With an invite naming an
// approved agent the job goes straight to PENDING_AGENT; an unknown or
// unapproved invitee leaves it on the public board instead.
func (s *Service) CreateJob(ctx context.Context, actor account.Actor, in CreateJobInput) (job.Job, error) {
	if err := requireRole(actor, account.KindClient); err != nil {
		return job.Job{}, err
	}
	if err := in.validate(); err != nil {
		return job.Job{}, err
	}

	j := job.Job{
		ID:                  uuid.New(),
		ClientID:            actor.ID,
		Title:               strings.TrimSpace(in.Title),
		Description:         strings.TrimSpace(in.Description),
		Location:            job.Location{Address: strings.TrimSpace(in.Address), Latitude: in.Latitude, Longitude: in.Longitude},
		PayPerWorker:        in.PayPerWorker,
		WorkersNeeded:       in.WorkersNeeded,
		Status:              job.StatusSeekingAgent,
		ClientPaymentStatus: job.PaymentPending,
	}

	err := s.run(ctx, "create_job", func(r repository.Repos, out *outbox) error {
		if in.InviteAgentID != nil && *in.InviteAgentID != uuid.Nil {
			agent, err := r.Accounts.FindByID(ctx, account.KindAgent, *in.InviteAgentID)
			switch {
			case err == nil && agent.Status == account.StatusApproved:
				if err := j.Apply(job.ActionInvite); err != nil {
					return err
				}
				id := agent.ID
				j.AgentID = &id
			case err == nil, errors.Is(err, repository.ErrNotFound):
				s.log.Info("invited agent unavailable, job left on public board",
					"job_id", j.ID, "agent_id", *in.InviteAgentID)
			default:
				return err
			}
		}
		if err := r.Jobs.Create(ctx, j); err != nil {
			return err
		}
		created, err := r.Jobs.Find(ctx, repository.JobFilter{ID: j.ID})
		if err != nil {
			return err
		}
		j = created
		out.add(event.Event{Type: event.JobCreated, JobID: j.ID, Status: string(j.Status)},
			clientActor(j.ClientID), agentOf(j.AgentID))
		return nil
	})
	if err != nil {
		return job.Job{}, err
	}
	s.log.Info("job created", "job_id", j.ID, "client_id", j.ClientID, "status", j.Status)
	return j, nil
}

// PayForJob records the client's payment. No gateway is involved; the call
// confirms a payment made elsewhere and works in any job status.
func (s *Service) PayForJob(ctx context.Context, actor account.Actor, jobID uuid.UUID) (job.Job, error) {
	if err := requireRole(actor, account.KindClient); err != nil {
		return job.Job{}, err
	}
	var j job.Job
	err := s.run(ctx, "pay_for_job", func(r repository.Repos, out *outbox) error {
		var err error
		j, err = r.Jobs.FindForUpdate(ctx, repository.JobFilter{ID: jobID, ClientID: actor.ID})
		if err != nil {
			return err
		}
		j.ClientPaymentStatus = job.PaymentPaid
		if err := r.Jobs.Update(ctx, j); err != nil {
			return err
		}
		out.add(event.Event{Type: event.JobPaid, JobID: j.ID, Status: string(j.ClientPaymentStatus)},
			clientActor(j.ClientID), agentOf(j.AgentID))
		return nil
	})
	if err != nil {
		return job.Job{}, err
	}
	s.log.Info("job paid", "job_id", j.ID)
	return j, nil
}

// DeleteJob removes a job together with its postings, applications, and
// proofs. Clients may delete their own jobs unless completed; the admin may
// delete any job.
func (s *Service) DeleteJob(ctx context.Context, actor account.Actor, jobID uuid.UUID) error {
	admin := actor.Is(account.KindAdmin)
	if !admin {
		if err := requireRole(actor, account.KindClient); err != nil {
			return err
		}
	}
	filter := repository.JobFilter{ID: jobID}
	if !admin {
		filter.ClientID = actor.ID
	}
	var rated RatedParties
	err := s.run(ctx, "delete_job", func(r repository.Repos, out *outbox) error {
		j, err := r.Jobs.FindForUpdate(ctx, filter)
		if err != nil {
			return err
		}
		if j.Status == job.StatusCompleted && !admin {
			return ErrJobCompleted
		}
		apps, err := r.Applications.List(ctx, repository.ApplicationFilter{JobID: j.ID})
		if err != nil {
			return err
		}
		rated.AddJob(j)
		for _, a := range apps {
			rated.AddApplication(a.Application)
		}
		if err := r.Jobs.Delete(ctx, j.ID); err != nil {
			return err
		}
		if err := rated.Refresh(ctx, r); err != nil {
			return err
		}
		to := []account.Actor{clientActor(j.ClientID), agentOf(j.AgentID)}
		for _, a := range apps {
			to = append(to, workerActor(a.WorkerID))
		}
		out.add(event.Event{Type: event.JobDeleted, JobID: j.ID}, to...)
		return nil
	})
	if err != nil {
		return err
	}
	if rated.AgentsAffected() && s.invalidate != nil {
		s.invalidate.Invalidate(ctx)
	}
	s.log.Info("job deleted", "job_id", jobID, "by", actor.Kind, "actor_id", actor.ID)
	return nil
}

// RateAgent stores the client's one-time rating of the agent on a completed
// job and recomputes the agent's mean rating.
func (s *Service) RateAgent(ctx context.Context, actor account.Actor, jobID uuid.UUID, rating int) (job.Job, error) {
	if err := requireRole(actor, account.KindClient); err != nil {
		return job.Job{}, err
	}
	if !account.ValidRating(rating) {
		return job.Job{}, ErrInvalidRating
	}
	var (
		j   job.Job
		avg float64
	)
	err := s.run(ctx, "rate_agent", func(r repository.Repos, out *outbox) error {
		var err error
		j, err = r.Jobs.FindForUpdate(ctx, repository.JobFilter{
			ID:       jobID,
			ClientID: actor.ID,
			Statuses: []job.Status{job.StatusCompleted},
		})
		if err != nil {
			return err
		}
		if j.IsRated() {
			return ErrAlreadyRated
		}
		if !j.HasAgent() {
			return ErrNoAgent
		}
		j.ClientRatingForAgent = &rating
		if err := r.Jobs.Update(ctx, j); err != nil {
			return err
		}
		avg, err = r.Jobs.AverageClientRating(ctx, *j.AgentID)
		if err != nil {
			return err
		}
		if err := r.Accounts.UpdateRating(ctx, account.KindAgent, *j.AgentID, avg); err != nil {
			return err
		}
		out.add(event.Event{Type: event.AgentRated, JobID: j.ID}, agentOf(j.AgentID))
		return nil
	})
	if err != nil {
		return job.Job{}, err
	}
	if s.invalidate != nil {
		s.invalidate.Invalidate(ctx)
	}
	s.log.Info("agent rated", "job_id", j.ID, "agent_id", *j.AgentID, "rating", rating, "agent_rating", avg)
	return j, nil
}
