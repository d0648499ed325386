package lifecycle

import (
	"context"
	"fmt"
	"strings"

	"sidecrew/internal/domain/account"
	"sidecrew/internal/domain/application"
	"sidecrew/internal/domain/event"
	"sidecrew/internal/domain/job"
	"sidecrew/internal/repository"

	"github.com/google/uuid"
)

// ClaimJob assigns an unclaimed job from the public board to the agent.
func (s *Service) ClaimJob(ctx context.Context, actor account.Actor, jobID uuid.UUID) (job.Job, error) {
	if err := requireRole(actor, account.KindAgent); err != nil {
		return job.Job{}, err
	}
	j, err := s.moveJob(ctx, "claim_job", repository.JobFilter{
		ID:       jobID,
		NoAgent:  true,
		Statuses: []job.Status{job.StatusSeekingAgent},
	}, func(j *job.Job) (event.Type, error) {
		if err := j.Apply(job.ActionClaim); err != nil {
			return "", err
		}
		id := actor.ID
		j.AgentID = &id
		return event.JobClaimed, nil
	})
	if err != nil {
		return job.Job{}, err
	}
	s.log.Info("job claimed", "job_id", j.ID, "agent_id", actor.ID)
	return j, nil
}

func (s *Service) AcceptInvite(ctx context.Context, actor account.Actor, jobID uuid.UUID) (job.Job, error) {
	if err := requireRole(actor, account.KindAgent); err != nil {
		return job.Job{}, err
	}
	j, err := s.moveJob(ctx, "accept_invite", repository.JobFilter{
		ID:       jobID,
		AgentID:  actor.ID,
		Statuses: []job.Status{job.StatusPendingAgent},
	}, func(j *job.Job) (event.Type, error) {
		return event.JobInviteAccepted, j.Apply(job.ActionAcceptInvite)
	})
	if err != nil {
		return job.Job{}, err
	}
	s.log.Info("invite accepted", "job_id", j.ID, "agent_id", actor.ID)
	return j, nil
}

// RejectInvite declines a direct invite and returns the job to the public
// board.
func (s *Service) RejectInvite(ctx context.Context, actor account.Actor, jobID uuid.UUID) (job.Job, error) {
	if err := requireRole(actor, account.KindAgent); err != nil {
		return job.Job{}, err
	}
	j, err := s.moveJob(ctx, "reject_invite", repository.JobFilter{
		ID:       jobID,
		AgentID:  actor.ID,
		Statuses: []job.Status{job.StatusPendingAgent},
	}, func(j *job.Job) (event.Type, error) {
		if err := j.Apply(job.ActionRejectInvite); err != nil {
			return "", err
		}
		j.AgentID = nil
		return event.JobInviteRejected, nil
	})
	if err != nil {
		return job.Job{}, err
	}
	s.log.Info("invite rejected", "job_id", j.ID, "agent_id", actor.ID)
	return j, nil
}

// moveJob locks the job matching f, lets mutate change it, and persists the
// result. The acting agent and the client are notified.
func (s *Service) moveJob(ctx context.Context, op string, f repository.JobFilter, mutate func(j *job.Job) (event.Type, error)) (job.Job, error) {
	var j job.Job
	err := s.run(ctx, op, func(r repository.Repos, out *outbox) error {
		var err error
		j, err = r.Jobs.FindForUpdate(ctx, f)
		if err != nil {
			return err
		}
		prevAgent := j.AgentID
		typ, err := mutate(&j)
		if err != nil {
			return err
		}
		if err := r.Jobs.Update(ctx, j); err != nil {
			return err
		}
		agent := agentOf(j.AgentID)
		if agent.ID == uuid.Nil {
			agent = agentOf(prevAgent)
		}
		out.add(event.Event{Type: typ, JobID: j.ID, Status: string(j.Status)}, clientActor(j.ClientID), agent)
		return nil
	})
	return j, err
}

type PostingInput struct {
	Title       string
	Description string
	// WorkerPayRate overrides the default share of the client rate.
	WorkerPayRate *job.Cents
}

// CreatePosting publishes a worker-facing posting for one of the agent's
// OPEN jobs. Title and description fall back to the job's own.
func (s *Service) CreatePosting(ctx context.Context, actor account.Actor, jobID uuid.UUID, in PostingInput) (job.Posting, error) {
	if err := requireRole(actor, account.KindAgent); err != nil {
		return job.Posting{}, err
	}
	if in.WorkerPayRate != nil && !in.WorkerPayRate.Valid() {
		return job.Posting{}, fmt.Errorf("%w: worker pay rate must be positive and at most %s", ErrValidation, job.MaxCents)
	}

	var p job.Posting
	err := s.run(ctx, "create_posting", func(r repository.Repos, out *outbox) error {
		j, err := r.Jobs.FindForUpdate(ctx, repository.JobFilter{
			ID:       jobID,
			AgentID:  actor.ID,
			Statuses: []job.Status{job.StatusOpen},
		})
		if err != nil {
			return err
		}

		p = job.Posting{
			ID:            uuid.New(),
			JobID:         j.ID,
			AgentID:       actor.ID,
			Title:         strings.TrimSpace(in.Title),
			Description:   strings.TrimSpace(in.Description),
			WorkerPayRate: job.DefaultWorkerPayRate(j.PayPerWorker),
			IsActive:      true,
		}
		if p.Title == "" {
			p.Title = j.Title
		}
		if p.Description == "" {
			p.Description = j.Description
		}
		if in.WorkerPayRate != nil {
			p.WorkerPayRate = *in.WorkerPayRate
		}
		if err := r.Postings.Create(ctx, p); err != nil {
			return err
		}
		out.add(event.Event{Type: event.PostingCreated, JobID: j.ID, PostingID: p.ID},
			agentActor(actor.ID), clientActor(j.ClientID))
		return nil
	})
	if err != nil {
		return job.Posting{}, err
	}
	s.log.Info("posting created", "posting_id", p.ID, "job_id", p.JobID, "worker_pay_rate", p.WorkerPayRate.String())
	return p, nil
}

// AcceptOutcome reports the application and the state its posting and job
// were left in.
type AcceptOutcome struct {
	Application application.Application
	Posting     job.Posting
	Job         job.Job
}

func (o AcceptOutcome) Filled() bool {
	return o.Job.Status == job.StatusFilled && !o.Posting.IsActive
}

// AcceptApplication accepts a pending application on one of the agent's
// postings. When the posting's engaged applications reach the job's demand
// the posting closes and the job becomes FILLED. Acceptance is refused once
// the posting has closed or the job has left OPEN.
func (s *Service) AcceptApplication(ctx context.Context, actor account.Actor, appID uuid.UUID) (AcceptOutcome, error) {
	if err := requireRole(actor, account.KindAgent); err != nil {
		return AcceptOutcome{}, err
	}
	var res AcceptOutcome
	err := s.run(ctx, "accept_application", func(r repository.Repos, out *outbox) error {
		app, err := r.Applications.FindForUpdate(ctx, repository.ApplicationFilter{
			ID:       appID,
			AgentID:  actor.ID,
			Statuses: []application.Status{application.StatusPending},
		})
		if err != nil {
			return err
		}
		p, err := r.Postings.FindForUpdate(ctx, repository.PostingFilter{ID: app.PostingID})
		if err != nil {
			return err
		}
		j, err := r.Jobs.FindForUpdate(ctx, repository.JobFilter{ID: p.JobID})
		if err != nil {
			return err
		}
		if !p.IsActive || j.Status != job.StatusOpen {
			return ErrPostingFilled
		}

		if err := app.Apply(application.ActionAccept); err != nil {
			return err
		}
		if err := r.Applications.Update(ctx, app); err != nil {
			return err
		}

		engaged, err := r.Applications.Count(ctx, repository.ApplicationFilter{
			PostingID: p.ID,
			Statuses:  application.EngagedStatuses(),
		})
		if err != nil {
			return err
		}
		out.add(event.Event{Type: event.ApplicationAccepted, JobID: j.ID, PostingID: p.ID, ApplicationID: app.ID, Status: string(app.Status)},
			workerActor(app.WorkerID))

		if engaged >= j.WorkersNeeded {
			p.IsActive = false
			if err := r.Postings.Update(ctx, p); err != nil {
				return err
			}
			if err := j.Apply(job.ActionFill); err != nil {
				return err
			}
			if err := r.Jobs.Update(ctx, j); err != nil {
				return err
			}
			out.add(event.Event{Type: event.JobFilled, JobID: j.ID, PostingID: p.ID, Status: string(j.Status)},
				clientActor(j.ClientID), agentOf(j.AgentID))
		}

		res = AcceptOutcome{Application: app, Posting: p, Job: j}
		return nil
	})
	if err != nil {
		return AcceptOutcome{}, err
	}
	s.log.Info("application accepted", "application_id", appID, "posting_id", res.Posting.ID, "filled", res.Filled())
	return res, nil
}

func (s *Service) RejectApplication(ctx context.Context, actor account.Actor, appID uuid.UUID) (application.Application, error) {
	if err := requireRole(actor, account.KindAgent); err != nil {
		return application.Application{}, err
	}
	var app application.Application
	err := s.run(ctx, "reject_application", func(r repository.Repos, out *outbox) error {
		var err error
		app, err = r.Applications.FindForUpdate(ctx, repository.ApplicationFilter{
			ID:       appID,
			AgentID:  actor.ID,
			Statuses: []application.Status{application.StatusPending},
		})
		if err != nil {
			return err
		}
		if err := app.Apply(application.ActionReject); err != nil {
			return err
		}
		if err := r.Applications.Update(ctx, app); err != nil {
			return err
		}
		out.add(event.Event{Type: event.ApplicationRejected, PostingID: app.PostingID, ApplicationID: app.ID, Status: string(app.Status)},
			workerActor(app.WorkerID))
		return nil
	})
	if err != nil {
		return application.Application{}, err
	}
	s.log.Info("application rejected", "application_id", app.ID)
	return app, nil
}

// MarkWorkerPaid records that the agent paid the worker for a completed
// application. Repeating it is harmless.
func (s *Service) MarkWorkerPaid(ctx context.Context, actor account.Actor, appID uuid.UUID) (application.Application, error) {
	if err := requireRole(actor, account.KindAgent); err != nil {
		return application.Application{}, err
	}
	var app application.Application
	err := s.run(ctx, "mark_worker_paid", func(r repository.Repos, out *outbox) error {
		var err error
		app, err = r.Applications.FindForUpdate(ctx, repository.ApplicationFilter{
			ID:       appID,
			AgentID:  actor.ID,
			Statuses: []application.Status{application.StatusCompleted},
		})
		if err != nil {
			return err
		}
		app.WorkerPaymentStatus = application.PaymentPaid
		if err := r.Applications.Update(ctx, app); err != nil {
			return err
		}
		out.add(event.Event{Type: event.WorkerPaid, PostingID: app.PostingID, ApplicationID: app.ID, Status: string(app.WorkerPaymentStatus)},
			workerActor(app.WorkerID))
		return nil
	})
	if err != nil {
		return application.Application{}, err
	}
	s.log.Info("worker paid", "application_id", app.ID, "worker_id", app.WorkerID)
	return app, nil
}

// RateWorker stores the agent's one-time rating of the worker on a completed
// application and recomputes the worker's mean rating.
func (s *Service) RateWorker(ctx context.Context, actor account.Actor, appID uuid.UUID, rating int) (application.Application, error) {
	if err := requireRole(actor, account.KindAgent); err != nil {
		return application.Application{}, err
	}
	if !account.ValidRating(rating) {
		return application.Application{}, ErrInvalidRating
	}
	var app application.Application
	err := s.run(ctx, "rate_worker", func(r repository.Repos, out *outbox) error {
		var err error
		app, err = r.Applications.FindForUpdate(ctx, repository.ApplicationFilter{
			ID:       appID,
			AgentID:  actor.ID,
			Statuses: []application.Status{application.StatusCompleted},
		})
		if err != nil {
			return err
		}
		if app.IsRated() {
			return ErrAlreadyRated
		}
		app.AgentRatingForWorker = &rating
		if err := r.Applications.Update(ctx, app); err != nil {
			return err
		}
		avg, err := r.Applications.AverageAgentRating(ctx, app.WorkerID)
		if err != nil {
			return err
		}
		if err := r.Accounts.UpdateRating(ctx, account.KindWorker, app.WorkerID, avg); err != nil {
			return err
		}
		out.add(event.Event{Type: event.WorkerRated, ApplicationID: app.ID}, workerActor(app.WorkerID))
		return nil
	})
	if err != nil {
		return application.Application{}, err
	}
	s.log.Info("worker rated", "application_id", app.ID, "worker_id", app.WorkerID, "rating", rating)
	return app, nil
}

// ReviewOutcome reports a reviewed proof with its application and job.
type ReviewOutcome struct {
	Proof       application.Proof
	Application application.Application
	Job         job.Job
}

// ApproveProof accepts a pending proof and completes its application. Once
// completed applications across all of the job's postings reach the job's
// demand the job becomes COMPLETED.
func (s *Service) ApproveProof(ctx context.Context, actor account.Actor, proofID uuid.UUID) (ReviewOutcome, error) {
	if err := requireRole(actor, account.KindAgent); err != nil {
		return ReviewOutcome{}, err
	}
	res, err := s.review(ctx, "approve_proof", actor, proofID, func(r repository.Repos, res *ReviewOutcome, out *outbox) error {
		if err := res.Proof.Review(true, ""); err != nil {
			return err
		}
		if err := res.Application.Apply(application.ActionApproveProof); err != nil {
			return err
		}
		if err := s.saveReview(ctx, r, res); err != nil {
			return err
		}
		out.add(event.Event{Type: event.ProofApproved, JobID: res.Job.ID, ApplicationID: res.Application.ID, ProofID: res.Proof.ID, Status: string(res.Proof.Status)},
			workerActor(res.Application.WorkerID))

		completed, err := r.Applications.Count(ctx, repository.ApplicationFilter{
			JobID:    res.Job.ID,
			Statuses: []application.Status{application.StatusCompleted},
		})
		if err != nil {
			return err
		}
		if completed >= res.Job.WorkersNeeded && res.Job.Status.Can(job.ActionComplete) {
			if err := res.Job.Apply(job.ActionComplete); err != nil {
				return err
			}
			if err := r.Jobs.Update(ctx, res.Job); err != nil {
				return err
			}
			out.add(event.Event{Type: event.JobCompleted, JobID: res.Job.ID, Status: string(res.Job.Status)},
				clientActor(res.Job.ClientID), agentOf(res.Job.AgentID))
		}
		return nil
	})
	if err != nil {
		return ReviewOutcome{}, err
	}
	s.log.Info("proof approved", "proof_id", proofID, "application_id", res.Application.ID, "job_status", res.Job.Status)
	return res, nil
}

// RejectProof sends a pending proof back to the worker with remarks, which
// are required.
func (s *Service) RejectProof(ctx context.Context, actor account.Actor, proofID uuid.UUID, remarks string) (ReviewOutcome, error) {
	if err := requireRole(actor, account.KindAgent); err != nil {
		return ReviewOutcome{}, err
	}
	remarks = strings.TrimSpace(remarks)
	if remarks == "" {
		return ReviewOutcome{}, ErrRemarksRequired
	}
	res, err := s.review(ctx, "reject_proof", actor, proofID, func(r repository.Repos, res *ReviewOutcome, out *outbox) error {
		if err := res.Proof.Review(false, remarks); err != nil {
			return err
		}
		if err := res.Application.Apply(application.ActionRejectProof); err != nil {
			return err
		}
		if err := s.saveReview(ctx, r, res); err != nil {
			return err
		}
		out.add(event.Event{Type: event.ProofRejected, JobID: res.Job.ID, ApplicationID: res.Application.ID, ProofID: res.Proof.ID, Status: string(res.Proof.Status)},
			workerActor(res.Application.WorkerID))
		return nil
	})
	if err != nil {
		return ReviewOutcome{}, err
	}
	s.log.Info("proof rejected", "proof_id", proofID, "application_id", res.Application.ID)
	return res, nil
}

// review loads a pending proof on one of the agent's postings with its
// application, posting, and job locked in the usual order, then hands them to
// decide.
func (s *Service) review(ctx context.Context, op string, actor account.Actor, proofID uuid.UUID, decide func(r repository.Repos, res *ReviewOutcome, out *outbox) error) (ReviewOutcome, error) {
	var res ReviewOutcome
	err := s.run(ctx, op, func(r repository.Repos, out *outbox) error {
		pending := []application.ProofStatus{application.ProofPending}
		seen, err := r.Proofs.Find(ctx, repository.ProofFilter{ID: proofID, AgentID: actor.ID, Statuses: pending})
		if err != nil {
			return err
		}
		app, err := r.Applications.FindForUpdate(ctx, repository.ApplicationFilter{
			ID:       seen.ApplicationID,
			AgentID:  actor.ID,
			Statuses: []application.Status{application.StatusProofSubmitted},
		})
		if err != nil {
			return err
		}
		proof, err := r.Proofs.FindForUpdate(ctx, repository.ProofFilter{ID: proofID, Statuses: pending})
		if err != nil {
			return err
		}
		p, err := r.Postings.FindForUpdate(ctx, repository.PostingFilter{ID: app.PostingID})
		if err != nil {
			return err
		}
		j, err := r.Jobs.FindForUpdate(ctx, repository.JobFilter{ID: p.JobID})
		if err != nil {
			return err
		}
		res = ReviewOutcome{Proof: proof, Application: app, Job: j}
		return decide(r, &res, out)
	})
	return res, err
}

func (s *Service) saveReview(ctx context.Context, r repository.Repos, res *ReviewOutcome) error {
	if err := r.Proofs.Update(ctx, res.Proof); err != nil {
		return err
	}
	return r.Applications.Update(ctx, res.Application)
}
