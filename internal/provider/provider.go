// Package provider contains one client per external travel data provider.
// All provider-specific request translation and response parsing stays
// inside that provider's client; every failure crosses the package boundary
// as a typed *Error value, never as a panic or untyped error, so the
// aggregator's partial-failure handling is purely data-driven.
package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/voyago/voyago/internal/domain"
)

// ErrorKind classifies a provider failure.
type ErrorKind string

const (
	KindRateLimited ErrorKind = "rate_limited"
	KindNetwork     ErrorKind = "network"
	KindTimeout     ErrorKind = "timeout"
	KindNoResults   ErrorKind = "no_results"
	KindAuthFailed  ErrorKind = "auth_failed"
)

// Error is a provider-scoped failure. It is returned as data: the
// aggregator records it per provider and keeps the sibling searches alive.
type Error struct {
	Provider domain.Provider
	Kind     ErrorKind
	Message  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Provider, e.Kind, e.Message)
}

// Retryable reports whether the failure class is worth retrying later.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindRateLimited, KindNetwork, KindTimeout:
		return true
	}
	return false
}

// Summary converts the error into its caller-facing form.
func (e *Error) Summary() domain.ErrorSummary {
	return domain.ErrorSummary{
		Kind:      string(e.Kind),
		Message:   e.Message,
		Retryable: e.Retryable(),
	}
}

// Client is the common search contract all providers implement.
type Client interface {
	// Name identifies the provider.
	Name() domain.Provider

	// BookingType reports whether this provider returns cash or award offers.
	BookingType() domain.BookingType

	// Search runs the provider-specific search. On failure the returned
	// *Error is non-nil and the offer slice is nil; the two are exclusive.
	Search(ctx context.Context, req domain.SearchRequest) ([]domain.FlightOffer, *Error)
}

// classifyTransport converts a transport-level error into a typed Error.
func classifyTransport(p domain.Provider, err error) *Error {
	kind := KindNetwork
	if errors.Is(err, context.DeadlineExceeded) {
		kind = KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		kind = KindTimeout
	}
	// retryablehttp wraps timeouts in a "giving up" error string
	if kind == KindNetwork && strings.Contains(err.Error(), "Client.Timeout") {
		kind = KindTimeout
	}
	return &Error{Provider: p, Kind: kind, Message: err.Error()}
}

// classifyStatus converts a non-2xx HTTP status into a typed Error.
func classifyStatus(p domain.Provider, status int, body string) *Error {
	var kind ErrorKind
	switch {
	case status == 401 || status == 403:
		kind = KindAuthFailed
	case status == 429:
		kind = KindRateLimited
	case status == 404:
		kind = KindNoResults
	default:
		kind = KindNetwork
	}
	msg := fmt.Sprintf("HTTP %d", status)
	if body = strings.TrimSpace(body); body != "" {
		msg += ": " + truncate(body, 200)
	}
	return &Error{Provider: p, Kind: kind, Message: msg}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
