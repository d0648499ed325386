package application

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending        Status = "PENDING"
	StatusAccepted       Status = "ACCEPTED"
	StatusRejected       Status = "REJECTED"
	StatusProofSubmitted Status = "PROOF_SUBMITTED"
	StatusCompleted      Status = "COMPLETED"
	StatusProofRejected  Status = "PROOF_REJECTED"
)

type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "unpaid"
	PaymentPaid   PaymentStatus = "paid"
)

type Action string

const (
	ActionAccept       Action = "accept"
	ActionReject       Action = "reject"
	ActionSubmitProof  Action = "submit_proof"
	ActionApproveProof Action = "approve_proof"
	ActionRejectProof  Action = "reject_proof"
)

var ErrInvalidTransition = errors.New("invalid application transition")

var transitions = map[Status]map[Action]Status{
	StatusPending: {
		ActionAccept: StatusAccepted,
		ActionReject: StatusRejected,
	},
	StatusAccepted: {
		ActionSubmitProof: StatusProofSubmitted,
	},
	StatusProofSubmitted: {
		ActionApproveProof: StatusCompleted,
		ActionRejectProof:  StatusProofRejected,
	},
	StatusProofRejected: {
		ActionSubmitProof: StatusProofSubmitted,
	},
	StatusRejected:  {},
	StatusCompleted: {},
}

func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

func (s Status) Next(a Action) (Status, error) {
	next, ok := transitions[s][a]
	if !ok {
		return s, fmt.Errorf("%w: %s --%s-->", ErrInvalidTransition, s, a)
	}
	return next, nil
}

// EngagedStatuses are the statuses of applications an agent has accepted,
// at any later stage. They count against a posting's capacity.
func EngagedStatuses() []Status {
	return []Status{StatusAccepted, StatusProofSubmitted, StatusProofRejected, StatusCompleted}
}

// ProofSubmittable lists the statuses a worker may upload proof from.
func ProofSubmittable() []Status {
	return []Status{StatusAccepted, StatusProofRejected}
}

type Application struct {
	ID                   uuid.UUID
	PostingID            uuid.UUID
	WorkerID             uuid.UUID
	Status               Status
	AgentRatingForWorker *int
	WorkerPaymentStatus  PaymentStatus
	AppliedAt            time.Time
}

func (a *Application) Apply(act Action) error {
	next, err := a.Status.Next(act)
	if err != nil {
		return err
	}
	a.Status = next
	return nil
}

func (a Application) IsRated() bool {
	return a.AgentRatingForWorker != nil
}
