package site

import (
	"time"

	"summit/internal/content"
)

// APIResponse is the envelope of every JSON response.
type APIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HealthResponse is returned by /healthz.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Uptime    string    `json:"uptime"`
}

// ListingResponse carries a fetched collection and how the fetch ended.
type ListingResponse[T any] struct {
	Items []T    `json:"items"`
	State string `json:"state"`
	Error string `json:"error,omitempty"`
}

// SponsorResponse is a sponsor with its logo resolved for display.
type SponsorResponse struct {
	content.Sponsor
	LogoSrc string `json:"logo_src"`
}

// SponsorRequest is the body of the sponsor create and update endpoints.
type SponsorRequest struct {
	Name         string `json:"name"`
	LogoURL      string `json:"logo_url"`
	Website      string `json:"website"`
	Tier         string `json:"tier"`
	Description  string `json:"description"`
	ContactEmail string `json:"contact_email"`
}

// SpeakerRequest is the body of the speaker create and update endpoints.
type SpeakerRequest struct {
	Name     string `json:"name"`
	Title    string `json:"title"`
	Company  string `json:"company"`
	Bio      string `json:"bio"`
	ImageURL string `json:"image_url"`
}

// StatusRequest is the body of the application status endpoint.
type StatusRequest struct {
	Status string `json:"status"`
}

// UploadResponse is returned by the upload endpoint.
type UploadResponse struct {
	URL string `json:"url"`
}
