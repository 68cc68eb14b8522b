package dto

import (
	"time"

	"shortlink/internal/domain/models"
)

// Request
type (
	LinkCreateRequest struct {
		URL        string `json:"url"`
		CustomCode string `json:"custom_code,omitempty"`
		TTLSeconds int64  `json:"ttl_seconds,omitempty"`
	}
)

// Response
type (
	LinkCreateResponse struct {
		Result    string `json:"result"`
		ShortCode string `json:"short_code"`
		ExpireAt  string `json:"expire_at,omitempty"`
	}

	UserLinkResponse struct {
		ShortURL    string `json:"short_url"`
		OriginalURL string `json:"original_url"`
		ClickCount  int64  `json:"click_count"`
		CreatedAt   string `json:"created_at"`
		ExpireAt    string `json:"expire_at,omitempty"`
	}

	LinkDeleteResponse struct {
		Deleted []string `json:"deleted"`
	}

	DailyClicksResponse struct {
		Day    string `json:"day"`
		Clicks int64  `json:"clicks"`
	}

	ErrorResponse struct {
		Error string `json:"error"`
	}
)

func (r LinkCreateRequest) TTL() time.Duration {
	return time.Duration(r.TTLSeconds) * time.Second
}

// Domain → Response
func LinkCreateResponseFromDomain(link models.Link, shortURL string) LinkCreateResponse {
	resp := LinkCreateResponse{
		Result:    shortURL,
		ShortCode: link.ShortCode,
	}
	if !link.ExpireAt.IsZero() {
		resp.ExpireAt = link.ExpireAt.Format(time.RFC3339)
	}
	return resp
}

func UserLinksResponseFromDomain(links []models.Link, shortURL func(string) string) []UserLinkResponse {
	responses := make([]UserLinkResponse, len(links))
	for i, link := range links {
		responses[i] = UserLinkResponse{
			ShortURL:    shortURL(link.ShortCode),
			OriginalURL: link.LongURL,
			ClickCount:  link.ClickCount,
			CreatedAt:   link.CreatedAt.Format(time.RFC3339),
		}
		if !link.ExpireAt.IsZero() {
			responses[i].ExpireAt = link.ExpireAt.Format(time.RFC3339)
		}
	}
	return responses
}

func DailyClicksResponseFromDomain(stats []models.DailyClicks) []DailyClicksResponse {
	responses := make([]DailyClicksResponse, len(stats))
	for i, day := range stats {
		responses[i] = DailyClicksResponse{
			Day:    day.Day,
			Clicks: day.Clicks,
		}
	}
	return responses
}
