package search

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/voyago/voyago/internal/aggregator"
	"github.com/voyago/voyago/internal/domain"
	"github.com/voyago/voyago/internal/logging"
	"github.com/voyago/voyago/internal/store"
)

// ToolName is the registry identifier every flight search records under.
const ToolName = "flight_search"

// ErrInFlight signals that an identical search is already queued or running;
// the caller should poll the referenced tool call instead of starting another.
type ErrInFlight struct {
	ToolCallID string
}

func (e *ErrInFlight) Error() string {
	return fmt.Sprintf("identical search already in flight (tool call %s)", e.ToolCallID)
}

// Service orchestrates one flight search end to end: normalize, record in
// the registry, aggregate across providers, persist session state, settle
// the registry row.
type Service struct {
	toolCalls *store.ToolCallStore
	sessions  store.SessionStates
	agg       *aggregator.Aggregator
	log       *logging.Logger
	now       func() time.Time
}

// NewService wires the search orchestrator.
func NewService(toolCalls *store.ToolCallStore, sessions store.SessionStates, agg *aggregator.Aggregator, log *logging.Logger) *Service {
	return &Service{
		toolCalls: toolCalls,
		sessions:  sessions,
		agg:       agg,
		log:       log.Sub("search"),
		now:       time.Now,
	}
}

// Execute runs a flight search for a chat. Validation failures and duplicate
// in-flight submissions return before any provider is contacted; a search
// where every provider failed settles the registry row as failed and returns
// an AggregateError.
func (s *Service) Execute(ctx context.Context, chatID string, rawParams json.RawMessage) (*domain.FlightSearchResult, error) {
	var raw RawParams
	if err := json.Unmarshal(rawParams, &raw); err != nil {
		return nil, &ValidationError{Field: "params", Message: "not a valid JSON object"}
	}

	prior, err := s.sessions.Get(chatID)
	if err != nil {
		// inheritance is best-effort; a fresh request can still stand alone
		s.log.Warn().Err(err).Str("chat_id", chatID).Msg("session state unavailable")
		prior = nil
	}

	req, err := Normalize(raw, prior, s.now())
	if err != nil {
		return nil, err
	}

	reqJSON, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	tc, reused, err := s.toolCalls.Record(chatID, ToolName, reqJSON, req.DedupeKey())
	if err != nil {
		return nil, err
	}
	if reused {
		s.log.Info().Str("tool_call_id", tc.ID).Str("chat_id", chatID).Msg("duplicate search collapsed")
		return nil, &ErrInFlight{ToolCallID: tc.ID}
	}

	if err := s.toolCalls.MarkRunning(tc.ID); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("tool_call_id", tc.ID).
		Str("route", req.Origin+"-"+req.Destination).
		Str("depart", req.DepartDate).
		Msg("search started")

	agg := s.agg.Aggregate(ctx, req)
	if agg.AllFailed() {
		aggErr := &aggregator.AggregateError{Errors: agg.ProviderErrors}
		if merr := s.toolCalls.MarkFailed(tc.ID, aggErr.Error()); merr != nil {
			s.log.Error().Err(merr).Str("tool_call_id", tc.ID).Msg("settle failed row")
		}
		return nil, aggErr
	}

	result := &domain.FlightSearchResult{
		Offers:         agg.Offers,
		ProviderErrors: make(map[domain.Provider]domain.ErrorSummary, len(agg.ProviderErrors)),
		SearchedAt:     agg.SearchedAt,
		ToolCallID:     tc.ID,
	}
	for p, perr := range agg.ProviderErrors {
		result.ProviderErrors[p] = perr.Summary()
	}

	resultJSON, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	if err := s.toolCalls.MarkSucceeded(tc.ID, resultJSON); err != nil {
		return nil, err
	}

	if err := s.sessions.Upsert(domain.SessionState{
		ChatID:            chatID,
		LastFlightRequest: &req,
		UpdatedAt:         s.now().UTC(),
	}); err != nil {
		// the search itself succeeded; losing inheritance is worth a warning, not a failure
		s.log.Warn().Err(err).Str("chat_id", chatID).Msg("persist session state")
	}

	s.log.Info().
		Str("tool_call_id", tc.ID).
		Int("offers", len(result.Offers)).
		Int("provider_errors", len(result.ProviderErrors)).
		Msg("search finished")

	return result, nil
}
