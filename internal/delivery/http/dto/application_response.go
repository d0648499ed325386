package dto

import (
	"time"

	"sidecrew/internal/domain/application"
	"sidecrew/internal/repository"

	"github.com/google/uuid"
)

type ApplicationResponse struct {
	ID                   uuid.UUID  `json:"id"`
	PostingID            uuid.UUID  `json:"job_posting_id"`
	WorkerID             uuid.UUID  `json:"worker_id"`
	Status               string     `json:"status"`
	AgentRatingForWorker *int       `json:"agent_rating_for_worker"`
	WorkerPaymentStatus  string     `json:"worker_payment_status"`
	AppliedAt            time.Time  `json:"applied_at"`
	JobID                *uuid.UUID `json:"job_id,omitempty"`
	PostingTitle         string     `json:"posting_title,omitempty"`
	WorkerName           string     `json:"worker_name,omitempty"`
	Proof                *ProofRef  `json:"proof,omitempty"`
}

// ProofRef is the summary of an application's proof shown next to it.
type ProofRef struct {
	ID      uuid.UUID `json:"id"`
	Status  string    `json:"status"`
	Remarks string    `json:"agent_remarks"`
}

type ProofResponse struct {
	ID            uuid.UUID `json:"id"`
	ApplicationID uuid.UUID `json:"application_id"`
	ImageRef      string    `json:"image_ref"`
	Latitude      float64   `json:"latitude"`
	Longitude     float64   `json:"longitude"`
	Status        string    `json:"status"`
	AgentRemarks  string    `json:"agent_remarks"`
	UploadedAt    time.Time `json:"uploaded_at"`

	WorkerID     *uuid.UUID `json:"worker_id,omitempty"`
	WorkerName   string     `json:"worker_name,omitempty"`
	PostingID    *uuid.UUID `json:"job_posting_id,omitempty"`
	PostingTitle string     `json:"posting_title,omitempty"`
	JobID        *uuid.UUID `json:"job_id,omitempty"`
}

func NewApplicationResponse(a application.Application) ApplicationResponse {
	return ApplicationResponse{
		ID:                   a.ID,
		PostingID:            a.PostingID,
		WorkerID:             a.WorkerID,
		Status:               string(a.Status),
		AgentRatingForWorker: a.AgentRatingForWorker,
		WorkerPaymentStatus:  string(a.WorkerPaymentStatus),
		AppliedAt:            a.AppliedAt,
	}
}

func NewApplicationRowResponses(rows []repository.ApplicationRow) []ApplicationResponse {
	out := make([]ApplicationResponse, 0, len(rows))
	for _, r := range rows {
		res := NewApplicationResponse(r.Application)
		jobID := r.JobID
		res.JobID = &jobID
		res.PostingTitle = r.PostingTitle
		res.WorkerName = r.WorkerName
		if r.ProofID != nil {
			res.Proof = &ProofRef{ID: *r.ProofID, Status: string(r.ProofStatus), Remarks: r.ProofRemarks}
		}
		out = append(out, res)
	}
	return out
}

func NewProofResponse(p application.Proof) ProofResponse {
	return ProofResponse{
		ID:            p.ID,
		ApplicationID: p.ApplicationID,
		ImageRef:      p.ImageRef,
		Latitude:      p.Latitude,
		Longitude:     p.Longitude,
		Status:        string(p.Status),
		AgentRemarks:  p.AgentRemarks,
		UploadedAt:    p.UploadedAt,
	}
}

func NewProofRowResponses(rows []repository.ProofRow) []ProofResponse {
	out := make([]ProofResponse, 0, len(rows))
	for _, r := range rows {
		res := NewProofResponse(r.Proof)
		workerID, postingID, jobID := r.WorkerID, r.PostingID, r.JobID
		res.WorkerID = &workerID
		res.WorkerName = r.WorkerName
		res.PostingID = &postingID
		res.PostingTitle = r.PostingTitle
		res.JobID = &jobID
		out = append(out, res)
	}
	return out
}
