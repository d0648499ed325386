package dto

import (
	"sidecrew/internal/usecase/admin"
	"sidecrew/internal/usecase/board"
	"sidecrew/internal/usecase/lifecycle"
)

type ClientJobResponse struct {
	JobResponse
	Postings         []PostingResponse `json:"postings"`
	ApplicationCount int               `json:"application_count"`
}

type AgentBoardResponse struct {
	Invites             []JobResponse         `json:"invites"`
	PublicJobs          []JobResponse         `json:"public_jobs"`
	JobsNeedingPosting  []JobResponse         `json:"jobs_needing_posting"`
	PendingApplications []ApplicationResponse `json:"pending_applications"`
	PendingProofs       []ProofResponse       `json:"pending_proofs"`
}

type WorkerBoardResponse struct {
	OpenPostings []PostingResponse     `json:"open_postings"`
	Applications []ApplicationResponse `json:"applications"`
}

type JobDetailResponse struct {
	JobResponse
	Postings     []PostingResponse     `json:"postings"`
	Applications []ApplicationResponse `json:"applications"`
}

// AcceptResponse reports an acceptance and whether it filled the posting.
type AcceptResponse struct {
	Application ApplicationResponse `json:"application"`
	Posting     PostingResponse     `json:"posting"`
	Job         JobResponse         `json:"job"`
	Filled      bool                `json:"filled"`
}

type ReviewResponse struct {
	Proof       ProofResponse       `json:"proof"`
	Application ApplicationResponse `json:"application"`
	Job         JobResponse         `json:"job"`
}

func NewClientJobResponses(list []board.ClientJob) []ClientJobResponse {
	out := make([]ClientJobResponse, 0, len(list))
	for _, cj := range list {
		out = append(out, ClientJobResponse{
			JobResponse:      NewJobResponse(cj.Job),
			Postings:         NewPostingResponses(cj.Postings),
			ApplicationCount: cj.Applications,
		})
	}
	return out
}

func NewAgentBoardResponse(b board.AgentBoard) AgentBoardResponse {
	return AgentBoardResponse{
		Invites:             NewJobResponses(b.Invites),
		PublicJobs:          NewJobResponses(b.Public),
		JobsNeedingPosting:  NewJobResponses(b.NeedsPosting),
		PendingApplications: NewApplicationRowResponses(b.PendingApplications),
		PendingProofs:       NewProofRowResponses(b.PendingProofs),
	}
}

func NewWorkerBoardResponse(b board.WorkerBoard) WorkerBoardResponse {
	return WorkerBoardResponse{
		OpenPostings: NewPostingResponses(b.Postings),
		Applications: NewApplicationRowResponses(b.Applications),
	}
}

func NewJobDetailResponse(d admin.JobDetail) JobDetailResponse {
	return JobDetailResponse{
		JobResponse:  NewJobResponse(d.Job),
		Postings:     NewPostingResponses(d.Postings),
		Applications: NewApplicationRowResponses(d.Applications),
	}
}

func NewAcceptResponse(o lifecycle.AcceptOutcome) AcceptResponse {
	return AcceptResponse{
		Application: NewApplicationResponse(o.Application),
		Posting:     NewPostingResponse(o.Posting),
		Job:         NewJobResponse(o.Job),
		Filled:      o.Filled(),
	}
}

func NewReviewResponse(o lifecycle.ReviewOutcome) ReviewResponse {
	return ReviewResponse{
		Proof:       NewProofResponse(o.Proof),
		Application: NewApplicationResponse(o.Application),
		Job:         NewJobResponse(o.Job),
	}
}
