package lifecycle

import (
	"context"
	"errors"
	"strings"

	"sidecrew/internal/domain/account"
	"sidecrew/internal/domain/application"
	"sidecrew/internal/domain/event"
	"sidecrew/internal/repository"

	"github.com/google/uuid"
)

// Apply files the worker's application on an active posting. A worker gets
// one application per posting.
func (s *Service) Apply(ctx context.Context, actor account.Actor, postingID uuid.UUID) (application.Application, error) {
	if err := requireRole(actor, account.KindWorker); err != nil {
		return application.Application{}, err
	}
	app := application.Application{
		ID:                  uuid.New(),
		PostingID:           postingID,
		WorkerID:            actor.ID,
		Status:              application.StatusPending,
		WorkerPaymentStatus: application.PaymentUnpaid,
	}
	err := s.run(ctx, "apply", func(r repository.Repos, out *outbox) error {
		p, err := r.Postings.FindForUpdate(ctx, repository.PostingFilter{ID: postingID, ActiveOnly: true})
		if err != nil {
			return err
		}
		exists, err := r.Applications.Exists(ctx, p.ID, actor.ID)
		if err != nil {
			return err
		}
		if exists {
			return ErrAlreadyApplied
		}
		if err := r.Applications.Create(ctx, app); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrAlreadyApplied
			}
			return err
		}
		out.add(event.Event{Type: event.ApplicationCreated, JobID: p.JobID, PostingID: p.ID, ApplicationID: app.ID, Status: string(app.Status)},
			agentActor(p.AgentID), workerActor(actor.ID))
		return nil
	})
	if err != nil {
		return application.Application{}, err
	}
	s.log.Info("application created", "application_id", app.ID, "posting_id", postingID, "worker_id", actor.ID)
	return app, nil
}

type ProofInput struct {
	// ImageRef is the blob store reference of the uploaded image.
	ImageRef  string
	Latitude  *float64
	Longitude *float64
}

func (in ProofInput) validate() error {
	if strings.TrimSpace(in.ImageRef) == "" || in.Latitude == nil || in.Longitude == nil {
		return ErrProofIncomplete
	}
	if !application.ValidCoordinates(*in.Latitude, *in.Longitude) {
		return ErrProofIncomplete
	}
	return nil
}

// SubmitOutcome is a stored proof and, on resubmission, the image reference
// it replaced. The caller owns deleting that image.
type SubmitOutcome struct {
	Proof            application.Proof
	ReplacedImageRef string
}

// SubmitProof uploads or replaces the proof on one of the worker's accepted
// or proof-rejected applications. The proof goes back to PENDING with prior
// remarks cleared.
func (s *Service) SubmitProof(ctx context.Context, actor account.Actor, appID uuid.UUID, in ProofInput) (SubmitOutcome, error) {
	if err := requireRole(actor, account.KindWorker); err != nil {
		return SubmitOutcome{}, err
	}
	if err := in.validate(); err != nil {
		return SubmitOutcome{}, err
	}
	var res SubmitOutcome
	err := s.run(ctx, "submit_proof", func(r repository.Repos, out *outbox) error {
		app, err := r.Applications.FindForUpdate(ctx, repository.ApplicationFilter{
			ID:       appID,
			WorkerID: actor.ID,
			Statuses: application.ProofSubmittable(),
		})
		if err != nil {
			return err
		}
		prev, err := r.Proofs.Find(ctx, repository.ProofFilter{ApplicationID: app.ID})
		switch {
		case err == nil:
			res.ReplacedImageRef = prev.ImageRef
		case !errors.Is(err, repository.ErrNotFound):
			return err
		}
		proof, err := r.Proofs.Upsert(ctx, application.Proof{
			ID:            uuid.New(),
			ApplicationID: app.ID,
			ImageRef:      strings.TrimSpace(in.ImageRef),
			Latitude:      *in.Latitude,
			Longitude:     *in.Longitude,
			Status:        application.ProofPending,
		})
		if err != nil {
			return err
		}
		res.Proof = proof
		if err := app.Apply(application.ActionSubmitProof); err != nil {
			return err
		}
		if err := r.Applications.Update(ctx, app); err != nil {
			return err
		}
		postings, err := r.Postings.List(ctx, repository.PostingFilter{ID: app.PostingID})
		if err != nil {
			return err
		}
		ev := event.Event{Type: event.ProofSubmitted, PostingID: app.PostingID, ApplicationID: app.ID, ProofID: proof.ID, Status: string(app.Status)}
		to := []account.Actor{workerActor(actor.ID)}
		if len(postings) > 0 {
			ev.JobID = postings[0].JobID
			to = append(to, agentActor(postings[0].AgentID))
		}
		out.add(ev, to...)
		return nil
	})
	if err != nil {
		return SubmitOutcome{}, err
	}
	if res.ReplacedImageRef == res.Proof.ImageRef {
		res.ReplacedImageRef = ""
	}
	s.log.Info("proof submitted", "proof_id", res.Proof.ID, "application_id", appID, "resubmitted", res.ReplacedImageRef != "")
	return res, nil
}
