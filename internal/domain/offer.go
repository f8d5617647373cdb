package domain

import "time"

// Provider identifies an external travel data provider.
type Provider string

const (
	ProviderSeats   Provider = "seats"   // award inventory partner
	ProviderAmadeus Provider = "amadeus" // OAuth cash fares
	ProviderDuffel  Provider = "duffel"  // static-key cash fares
)

// BookingType distinguishes paid fares from mileage redemptions.
type BookingType string

const (
	BookingCash  BookingType = "cash"
	BookingAward BookingType = "award"
)

// Price is either a currency amount (cash) or a miles amount plus loyalty
// program code (award); exactly one side is populated per offer.
type Price struct {
	Amount   float64 `json:"amount,omitempty"`
	Currency string  `json:"currency,omitempty"`
	Miles    int     `json:"miles,omitempty"`
	Program  string  `json:"program,omitempty"`
}

// Segment is one flight leg within an offer's itinerary.
type Segment struct {
	FlightNumber string    `json:"flightNumber"`
	Origin       string    `json:"origin"`
	Destination  string    `json:"destination"`
	DepartTime   time.Time `json:"departTime"`
	ArriveTime   time.Time `json:"arriveTime"`
}

// FlightOffer is one bookable result normalized across providers.
// Offers are created fresh per search and never persisted beyond the
// response the caller chooses to log.
type FlightOffer struct {
	ID                   string      `json:"id"`
	Provider             Provider    `json:"provider"`
	BookingType          BookingType `json:"bookingType"`
	Price                Price       `json:"price"`
	Cabin                Cabin       `json:"cabin"`
	Segments             []Segment   `json:"segments"`
	TotalDurationMinutes int         `json:"totalDurationMinutes"`
	Airline              string      `json:"airline,omitempty"`
	CO2EmissionsKg       float64     `json:"co2EmissionsKg,omitempty"`
}

// Stops returns the number of intermediate stops in the itinerary.
func (o FlightOffer) Stops() int {
	if len(o.Segments) == 0 {
		return 0
	}
	return len(o.Segments) - 1
}

// ErrorSummary is the caller-facing description of one provider's failure.
type ErrorSummary struct {
	Kind      string `json:"kind"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

// FlightSearchResult is the output contract of one aggregation run.
type FlightSearchResult struct {
	Offers         []FlightOffer              `json:"offers"`
	ProviderErrors map[Provider]ErrorSummary  `json:"providerErrors,omitempty"`
	SearchedAt     time.Time                  `json:"searchedAt"`
	ToolCallID     string                     `json:"toolCallId,omitempty"`
}
