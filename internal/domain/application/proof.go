package application

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type ProofStatus string

const (
	ProofPending  ProofStatus = "PENDING"
	ProofApproved ProofStatus = "APPROVED"
	ProofRejected ProofStatus = "REJECTED"
)

// Proof is a worker's evidence of completion: an image reference and the
// coordinates it was taken at. One per application; resubmission replaces it.
type Proof struct {
	ID            uuid.UUID
	ApplicationID uuid.UUID
	ImageRef      string
	Latitude      float64
	Longitude     float64
	Status        ProofStatus
	AgentRemarks  string
	UploadedAt    time.Time
}

// Review moves a pending proof to approved or rejected.
func (p *Proof) Review(approve bool, remarks string) error {
	if p.Status != ProofPending {
		return fmt.Errorf("%w: proof %s is %s", ErrInvalidTransition, p.ID, p.Status)
	}
	if approve {
		p.Status = ProofApproved
		return nil
	}
	p.Status = ProofRejected
	p.AgentRemarks = remarks
	return nil
}

// ValidCoordinates reports whether lat/lon lie on the globe.
func ValidCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
