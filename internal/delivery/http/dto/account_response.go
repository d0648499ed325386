package dto

import (
	"time"

	"sidecrew/internal/domain/account"
	"sidecrew/internal/domain/proximity"

	"github.com/google/uuid"
)

type AccountResponse struct {
	ID          uuid.UUID `json:"id"`
	Role        string    `json:"role"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone,omitempty"`
	ProfilePic  string    `json:"profile_pic,omitempty"`
	Status      string    `json:"status"`
	CompanyName string    `json:"company_name,omitempty"`
	Address     string    `json:"address,omitempty"`
	AgencyName  string    `json:"agency_name,omitempty"`
	Latitude    *float64  `json:"latitude,omitempty"`
	Longitude   *float64  `json:"longitude,omitempty"`
	Skills      string    `json:"skills,omitempty"`
	Available   *bool     `json:"available,omitempty"`
	Rating      *float64  `json:"rating,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func NewAccountResponse(a account.Account) AccountResponse {
	res := AccountResponse{
		ID:          a.ID,
		Role:        string(a.Kind),
		Name:        a.Name,
		Email:       a.Email,
		Phone:       a.Phone,
		ProfilePic:  a.ProfilePic,
		Status:      string(a.Status),
		CompanyName: a.CompanyName,
		Address:     a.Address,
		AgencyName:  a.AgencyName,
		Latitude:    a.Latitude,
		Longitude:   a.Longitude,
		Skills:      a.Skills,
		CreatedAt:   a.CreatedAt,
	}
	switch a.Kind {
	case account.KindAgent:
		rating := a.Rating
		res.Rating = &rating
	case account.KindWorker:
		rating, available := a.Rating, a.Available
		res.Rating = &rating
		res.Available = &available
	}
	return res
}

func NewAccountResponses(list []account.Account) []AccountResponse {
	out := make([]AccountResponse, 0, len(list))
	for _, a := range list {
		out = append(out, NewAccountResponse(a))
	}
	return out
}

// NearbyAgentResponse is one entry of the proximity endpoint.
type NearbyAgentResponse struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	AgencyName string    `json:"agency_name"`
	Rating     float64   `json:"rating"`
	Distance   float64   `json:"distance"`
}

func NewNearbyAgentResponses(list []proximity.Match) []NearbyAgentResponse {
	out := make([]NearbyAgentResponse, 0, len(list))
	for _, m := range list {
		out = append(out, NearbyAgentResponse{
			ID:         m.ID,
			Name:       m.Name,
			AgencyName: m.AgencyName,
			Rating:     m.Rating,
			Distance:   m.Distance,
		})
	}
	return out
}
