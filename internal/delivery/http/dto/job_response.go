package dto

import (
	"time"

	"sidecrew/internal/domain/job"

	"github.com/google/uuid"
)

type JobResponse struct {
	ID                   uuid.UUID  `json:"id"`
	ClientID             uuid.UUID  `json:"client_id"`
	AgentID              *uuid.UUID `json:"agent_id"`
	Title                string     `json:"title"`
	Description          string     `json:"description"`
	Address              string     `json:"address"`
	Latitude             *float64   `json:"latitude"`
	Longitude            *float64   `json:"longitude"`
	PayPerWorkerCents    int64      `json:"pay_per_worker_cents"`
	PayPerWorker         string     `json:"pay_per_worker"`
	WorkersNeeded        int        `json:"workers_needed"`
	Status               string     `json:"status"`
	ClientPaymentStatus  string     `json:"client_payment_status"`
	ClientRatingForAgent *int       `json:"client_rating_for_agent"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

type PostingResponse struct {
	ID                 uuid.UUID `json:"id"`
	JobID              uuid.UUID `json:"job_id"`
	AgentID            uuid.UUID `json:"agent_id"`
	Title              string    `json:"title"`
	Description        string    `json:"description"`
	WorkerPayRateCents int64     `json:"worker_pay_rate_cents"`
	WorkerPayRate      string    `json:"worker_pay_rate"`
	IsActive           bool      `json:"is_active"`
	CreatedAt          time.Time `json:"created_at"`
}

func NewJobResponse(j job.Job) JobResponse {
	return JobResponse{
		ID:                   j.ID,
		ClientID:             j.ClientID,
		AgentID:              j.AgentID,
		Title:                j.Title,
		Description:          j.Description,
		Address:              j.Location.Address,
		Latitude:             j.Location.Latitude,
		Longitude:            j.Location.Longitude,
		PayPerWorkerCents:    int64(j.PayPerWorker),
		PayPerWorker:         j.PayPerWorker.String(),
		WorkersNeeded:        j.WorkersNeeded,
		Status:               string(j.Status),
		ClientPaymentStatus:  string(j.ClientPaymentStatus),
		ClientRatingForAgent: j.ClientRatingForAgent,
		CreatedAt:            j.CreatedAt,
		UpdatedAt:            j.UpdatedAt,
	}
}

func NewJobResponses(list []job.Job) []JobResponse {
	out := make([]JobResponse, 0, len(list))
	for _, j := range list {
		out = append(out, NewJobResponse(j))
	}
	return out
}

func NewPostingResponse(p job.Posting) PostingResponse {
	return PostingResponse{
		ID:                 p.ID,
		JobID:              p.JobID,
		AgentID:            p.AgentID,
		Title:              p.Title,
		Description:        p.Description,
		WorkerPayRateCents: int64(p.WorkerPayRate),
		WorkerPayRate:      p.WorkerPayRate.String(),
		IsActive:           p.IsActive,
		CreatedAt:          p.CreatedAt,
	}
}

func NewPostingResponses(list []job.Posting) []PostingResponse {
	out := make([]PostingResponse, 0, len(list))
	for _, p := range list {
		out = append(out, NewPostingResponse(p))
	}
	return out
}
