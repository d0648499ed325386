package job

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a client-agent contract.
type Status string

const (
	StatusSeekingAgent Status = "SEEKING_AGENT"
	StatusPendingAgent Status = "PENDING_AGENT"
	StatusOpen         Status = "OPEN"
	StatusFilled       Status = "FILLED"
	StatusCompleted    Status = "COMPLETED"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

// Cents is a currency amount in minor units.
type Cents int64

func (c Cents) String() string {
	sign := ""
	v := int64(c)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// MaxCents is the largest amount a job or posting may carry.
const MaxCents Cents = math.MaxInt64 / 100

// Valid reports whether c is a positive amount no larger than MaxCents.
func (c Cents) Valid() bool {
	return c > 0 && c <= MaxCents
}

// Percent returns pct percent of c, rounded half up to the nearest cent.
// pct must be between 0 and 100; c is split so the product stays in range.
func (c Cents) Percent(pct int64) Cents {
	whole, rest := int64(c)/100, int64(c)%100
	return Cents(whole*pct + (rest*pct+50)/100)
}

// DefaultMarginPercent is the share of the client rate offered to workers
// when an agent does not set a worker pay rate.
const DefaultMarginPercent = 90

func DefaultWorkerPayRate(clientRate Cents) Cents {
	return clientRate.Percent(DefaultMarginPercent)
}

type Location struct {
	Address   string
	Latitude  *float64
	Longitude *float64
}

type Job struct {
	ID                   uuid.UUID
	ClientID             uuid.UUID
	AgentID              *uuid.UUID
	Title                string
	Description          string
	Location             Location
	PayPerWorker         Cents
	WorkersNeeded        int
	Status               Status
	ClientPaymentStatus  PaymentStatus
	ClientRatingForAgent *int
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func (j Job) HasAgent() bool {
	return j.AgentID != nil && *j.AgentID != uuid.Nil
}

func (j Job) IsRated() bool {
	return j.ClientRatingForAgent != nil
}

// Posting is the worker-facing advertisement an agent publishes for a Job.
type Posting struct {
	ID            uuid.UUID
	JobID         uuid.UUID
	AgentID       uuid.UUID
	Title         string
	Description   string
	WorkerPayRate Cents
	IsActive      bool
	CreatedAt     time.Time
}

// Action is an event that moves a Job between statuses.
type Action string

const (
	ActionInvite       Action = "invite"
	ActionClaim        Action = "claim"
	ActionAcceptInvite Action = "accept_invite"
	ActionRejectInvite Action = "reject_invite"
	ActionFill         Action = "fill"
	ActionComplete     Action = "complete"
)

var ErrInvalidTransition = errors.New("invalid job transition")

var transitions = map[Status]map[Action]Status{
	StatusSeekingAgent: {
		ActionInvite: StatusPendingAgent,
		ActionClaim:  StatusOpen,
	},
	StatusPendingAgent: {
		ActionAcceptInvite: StatusOpen,
		ActionRejectInvite: StatusSeekingAgent,
	},
	StatusOpen: {
		ActionFill:     StatusFilled,
		ActionComplete: StatusCompleted,
	},
	StatusFilled: {
		ActionComplete: StatusCompleted,
	},
	StatusCompleted: {},
}

func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Next returns the status reached by applying a to s.
func (s Status) Next(a Action) (Status, error) {
	next, ok := transitions[s][a]
	if !ok {
		return s, fmt.Errorf("%w: %s --%s-->", ErrInvalidTransition, s, a)
	}
	return next, nil
}

func (s Status) Can(a Action) bool {
	_, ok := transitions[s][a]
	return ok
}

// Apply moves j along a, leaving it untouched on error.
func (j *Job) Apply(a Action) error {
	next, err := j.Status.Next(a)
	if err != nil {
		return err
	}
	j.Status = next
	return nil
}
