package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseCabin(t *testing.T) {
	tests := []struct {
		in   string
		want Cabin
		ok   bool
	}{
		{"economy", CabinEconomy, true},
		{"ECONOMY", CabinEconomy, true},
		{"", CabinEconomy, true},
		{"premium_economy", CabinPremiumEconomy, true},
		{"premium-economy", CabinPremiumEconomy, true},
		{"BUSINESS", CabinBusiness, true},
		{" first ", CabinFirst, true},
		{"steerage", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseCabin(tt.in)
		assert.Equal(t, tt.ok, ok, "input %q", tt.in)
		if ok {
			assert.Equal(t, tt.want, got, "input %q", tt.in)
		}
	}
}

func TestCabin_Valid(t *testing.T) {
	assert.True(t, CabinBusiness.Valid())
	assert.True(t, CabinPremiumEconomy.Valid())
	assert.False(t, Cabin("luxury").Valid())
	assert.False(t, Cabin("").Valid())
}

func TestSearchRequest_DedupeKey_Deterministic(t *testing.T) {
	req := SearchRequest{
		Origin:      "FRA",
		Destination: "BKK",
		DepartDate:  "2026-03-10",
		Cabin:       CabinBusiness,
		Passengers:  1,
	}

	assert.Equal(t, req.DedupeKey(), req.DedupeKey())
	assert.Len(t, req.DedupeKey(), 64)
}

func TestSearchRequest_DedupeKey_CaseInsensitiveAirports(t *testing.T) {
	a := SearchRequest{Origin: "fra", Destination: "bkk", DepartDate: "2026-03-10", Cabin: CabinEconomy, Passengers: 2}
	b := SearchRequest{Origin: "FRA", Destination: "BKK", DepartDate: "2026-03-10", Cabin: CabinEconomy, Passengers: 2}
	assert.Equal(t, a.DedupeKey(), b.DedupeKey())
}

func TestSearchRequest_DedupeKey_SensitiveFields(t *testing.T) {
	base := SearchRequest{Origin: "FRA", Destination: "BKK", DepartDate: "2026-03-10", Cabin: CabinEconomy, Passengers: 1}

	changed := []SearchRequest{}
	for _, mutate := range []func(r SearchRequest) SearchRequest{
		func(r SearchRequest) SearchRequest { r.Destination = "SIN"; return r },
		func(r SearchRequest) SearchRequest { r.DepartDate = "2026-03-11"; return r },
		func(r SearchRequest) SearchRequest { r.ReturnDate = "2026-03-20"; return r },
		func(r SearchRequest) SearchRequest { r.Cabin = CabinFirst; return r },
		func(r SearchRequest) SearchRequest { r.Passengers = 2; return r },
		func(r SearchRequest) SearchRequest { r.AwardOnly = true; return r },
	} {
		changed = append(changed, mutate(base))
	}

	for _, c := range changed {
		assert.NotEqual(t, base.DedupeKey(), c.DedupeKey(), "%+v", c)
	}
}

func TestSearchRequest_DedupeKey_IgnoresPresentationFields(t *testing.T) {
	a := SearchRequest{Origin: "FRA", Destination: "BKK", DepartDate: "2026-03-10", Cabin: CabinEconomy, Passengers: 1}
	b := a
	b.FlexibilityDays = 3
	b.NonStop = true
	assert.Equal(t, a.DedupeKey(), b.DedupeKey())
}

func TestToolCallStatus_Terminal(t *testing.T) {
	assert.False(t, StatusQueued.Terminal())
	assert.False(t, StatusRunning.Terminal())
	assert.True(t, StatusSucceeded.Terminal())
	assert.True(t, StatusFailed.Terminal())
	assert.True(t, StatusTimeout.Terminal())
	assert.True(t, StatusCanceled.Terminal())
}

func TestToolCallStatus_CanTransition(t *testing.T) {
	tests := []struct {
		from, to ToolCallStatus
		ok       bool
	}{
		{StatusQueued, StatusRunning, true},
		{StatusQueued, StatusCanceled, true},
		{StatusQueued, StatusSucceeded, false},
		{StatusRunning, StatusSucceeded, true},
		{StatusRunning, StatusFailed, true},
		{StatusRunning, StatusTimeout, true},
		{StatusRunning, StatusQueued, false},
		{StatusSucceeded, StatusFailed, false},
		{StatusTimeout, StatusRunning, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.ok, tt.from.CanTransition(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestProviderToken_ValidFor(t *testing.T) {
	tok := ProviderToken{ExpiresAt: time.Now().Add(2 * time.Minute)}
	assert.True(t, tok.ValidFor(60*time.Second))
	assert.False(t, tok.ValidFor(3*time.Minute))

	expired := ProviderToken{ExpiresAt: time.Now().Add(-time.Second)}
	assert.False(t, expired.ValidFor(0))
}

func TestFlightOffer_Stops(t *testing.T) {
	direct := FlightOffer{Segments: []Segment{{FlightNumber: "LH772"}}}
	assert.Equal(t, 0, direct.Stops())

	oneStop := FlightOffer{Segments: []Segment{{FlightNumber: "LH772"}, {FlightNumber: "TG921"}}}
	assert.Equal(t, 1, oneStop.Stops())

	assert.Equal(t, 0, FlightOffer{}.Stops())
}
