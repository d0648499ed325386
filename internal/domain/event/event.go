package event

import (
	"time"

	"github.com/google/uuid"

	"sidecrew/internal/domain/account"
)

type Type string

const (
	JobCreated          Type = "job.created"
	JobClaimed          Type = "job.claimed"
	JobInviteAccepted   Type = "job.invite_accepted"
	JobInviteRejected   Type = "job.invite_rejected"
	JobFilled           Type = "job.filled"
	JobCompleted        Type = "job.completed"
	JobPaid             Type = "job.paid"
	JobDeleted          Type = "job.deleted"
	PostingCreated      Type = "posting.created"
	ApplicationCreated  Type = "application.created"
	ApplicationAccepted Type = "application.accepted"
	ApplicationRejected Type = "application.rejected"
	ProofSubmitted      Type = "proof.submitted"
	ProofApproved       Type = "proof.approved"
	ProofRejected       Type = "proof.rejected"
	WorkerPaid          Type = "worker.paid"
	AgentRated          Type = "agent.rated"
	WorkerRated         Type = "worker.rated"
)

// Event describes a committed lifecycle transition. Recipients are the
// actors whose view of the entity changed.
type Event struct {
	Type          Type            `json:"type"`
	JobID         uuid.UUID       `json:"job_id,omitempty"`
	PostingID     uuid.UUID       `json:"posting_id,omitempty"`
	ApplicationID uuid.UUID       `json:"application_id,omitempty"`
	ProofID       uuid.UUID       `json:"proof_id,omitempty"`
	Status        string          `json:"status,omitempty"`
	Timestamp     time.Time       `json:"timestamp"`
	Recipients    []account.Actor `json:"-"`
}
