// Package aggregator fans a canonical search out to every applicable
// provider client concurrently and merges whatever comes back. A failing
// provider never aborts its siblings: failures arrive as typed values and
// are collected per provider.
package aggregator

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/voyago/voyago/internal/domain"
	"github.com/voyago/voyago/internal/logging"
	"github.com/voyago/voyago/internal/provider"
)

// Policy configures provider inclusion and result ordering.
type Policy struct {
	// AwardPolicy decides when award providers join a search:
	// "always", or "awardOnly" (only when the request asks for awards).
	AwardPolicy string

	// SortBy is the single ordering key: "price" or "duration".
	SortBy string
}

// Result is the outcome of one aggregation run.
type Result struct {
	Offers         []domain.FlightOffer
	ProviderErrors map[domain.Provider]*provider.Error
	SearchedAt     time.Time
}

// AllFailed reports whether no applicable provider produced offers.
func (r Result) AllFailed() bool {
	return len(r.Offers) == 0 && len(r.ProviderErrors) > 0
}

// AggregateError is returned by callers when every applicable provider
// failed. It keeps the per-provider detail so retryable failures (timeouts,
// rate limits) can be distinguished from non-retryable ones.
type AggregateError struct {
	Errors map[domain.Provider]*provider.Error
}

func (e *AggregateError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for p, perr := range e.Errors {
		parts = append(parts, fmt.Sprintf("%s: %s", p, perr.Kind))
	}
	sort.Strings(parts)
	return "all providers failed: " + strings.Join(parts, ", ")
}

// Retryable reports whether at least one underlying failure is transient.
func (e *AggregateError) Retryable() bool {
	for _, perr := range e.Errors {
		if perr.Retryable() {
			return true
		}
	}
	return false
}

// Aggregator coordinates the provider fan-out.
type Aggregator struct {
	clients []provider.Client
	policy  Policy
	log     *logging.Logger
}

// New creates an aggregator over the given provider clients.
func New(clients []provider.Client, policy Policy, log *logging.Logger) *Aggregator {
	return &Aggregator{
		clients: clients,
		policy:  policy,
		log:     log.Sub("aggregator"),
	}
}

// Applicable returns the provider set for a request. Cash providers are
// excluded by awardOnly requests; award providers join per the policy.
func (a *Aggregator) Applicable(req domain.SearchRequest) []provider.Client {
	var out []provider.Client
	for _, c := range a.clients {
		switch c.BookingType() {
		case domain.BookingAward:
			if req.AwardOnly || a.policy.AwardPolicy == "always" {
				out = append(out, c)
			}
		case domain.BookingCash:
			if !req.AwardOnly {
				out = append(out, c)
			}
		}
	}
	return out
}

// Aggregate runs all applicable provider searches concurrently and waits
// for every one to settle. Total latency is bounded by the slowest
// provider's own timeout, not the sum: an exceeded timeout resolves that
// provider to a timeout error without cancelling siblings.
func (a *Aggregator) Aggregate(ctx context.Context, req domain.SearchRequest) Result {
	clients := a.Applicable(req)

	type settled struct {
		name   domain.Provider
		offers []domain.FlightOffer
		err    *provider.Error
	}

	ch := make(chan settled, len(clients))
	for _, c := range clients {
		go func(c provider.Client) {
			offers, perr := c.Search(ctx, req)
			ch <- settled{name: c.Name(), offers: offers, err: perr}
		}(c)
	}

	res := Result{
		ProviderErrors: make(map[domain.Provider]*provider.Error),
		SearchedAt:     time.Now().UTC(),
	}
	for range clients {
		s := <-ch
		if s.err != nil {
			a.log.Warn().
				Str("provider", string(s.name)).
				Str("kind", string(s.err.Kind)).
				Str("detail", s.err.Message).
				Msg("provider search failed")
			res.ProviderErrors[s.name] = s.err
			continue
		}
		res.Offers = append(res.Offers, s.offers...)
	}

	sortOffers(res.Offers, a.policy.SortBy)

	a.log.Info().
		Int("providers", len(clients)).
		Int("offers", len(res.Offers)).
		Int("failures", len(res.ProviderErrors)).
		Msg("aggregation settled")
	return res
}

// sortOffers orders the merged list by a single key so repeated runs over
// the same fixtures produce a stable, testable ordering. For "price", cash
// offers (currency amounts) sort before award offers (miles); within each
// booking type the ascending amount decides, with the offer id as tiebreak.
func sortOffers(offers []domain.FlightOffer, sortBy string) {
	sort.SliceStable(offers, func(i, j int) bool {
		a, b := offers[i], offers[j]
		if sortBy == "duration" {
			if a.TotalDurationMinutes != b.TotalDurationMinutes {
				return a.TotalDurationMinutes < b.TotalDurationMinutes
			}
			return a.ID < b.ID
		}
		if a.BookingType != b.BookingType {
			return a.BookingType == domain.BookingCash
		}
		if a.BookingType == domain.BookingAward {
			if a.Price.Miles != b.Price.Miles {
				return a.Price.Miles < b.Price.Miles
			}
			return a.ID < b.ID
		}
		if a.Price.Amount != b.Price.Amount {
			return a.Price.Amount < b.Price.Amount
		}
		return a.ID < b.ID
	})
}
