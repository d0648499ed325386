package account

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind is the role an authenticated actor plays.
type Kind string

const (
	KindClient Kind = "client"
	KindAgent  Kind = "agent"
	KindWorker Kind = "worker"
	KindAdmin  Kind = "admin"
)

var ErrUnknownKind = errors.New("unknown account kind")

func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case KindClient, KindAgent, KindWorker, KindAdmin:
		return k, nil
	}
	return "", ErrUnknownKind
}

// Stored reports whether accounts of this kind live in the database.
// The admin is configured, not registered.
func (k Kind) Stored() bool {
	return k == KindClient || k == KindAgent || k == KindWorker
}

// Actor is the authenticated identity a request acts as.
type Actor struct {
	Kind Kind
	ID   uuid.UUID
}

func (a Actor) Is(k Kind) bool {
	return a.Kind == k && a.ID != uuid.Nil
}

func (a Actor) Topic() string {
	return string(a.Kind) + ":" + a.ID.String()
}

type ApprovalStatus string

const (
	StatusPending  ApprovalStatus = "pending"
	StatusApproved ApprovalStatus = "approved"
	StatusRejected ApprovalStatus = "rejected"
)

func (s ApprovalStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Account is a registered client, agent, or worker. Kind-specific fields are
// left zero for the other kinds.
type Account struct {
	ID           uuid.UUID
	Kind         Kind
	Name         string
	Email        string
	PasswordHash string
	Phone        string
	ProfilePic   string
	Status       ApprovalStatus

	// client
	CompanyName string

	// agent and worker
	Address string
	Rating  float64

	// agent
	AgencyName string
	Latitude   *float64
	Longitude  *float64

	// worker
	Skills    string
	Available bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (a Account) Actor() Actor {
	return Actor{Kind: a.Kind, ID: a.ID}
}

const (
	MinRating = 1
	MaxRating = 5
)

func ValidRating(r int) bool {
	return r >= MinRating && r <= MaxRating
}

// MeanRating is the arithmetic mean of ratings, 0 when there are none.
func MeanRating(ratings []int) float64 {
	if len(ratings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	return float64(sum) / float64(len(ratings))
}
