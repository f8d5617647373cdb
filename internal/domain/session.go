package domain

import "time"

// SessionState remembers the last resolved and pending flight search per
// conversation, so follow-up queries ("same route but in first") can inherit
// parameters the user omitted.
type SessionState struct {
	ChatID               string         `json:"chatId"`
	LastFlightRequest    *SearchRequest `json:"lastFlightRequest,omitempty"`
	PendingFlightRequest *SearchRequest `json:"pendingFlightRequest,omitempty"`
	UpdatedAt            time.Time      `json:"updatedAt"`
}
