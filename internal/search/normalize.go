package search

import (
	"fmt"
	"strings"
	"time"

	"github.com/voyago/voyago/internal/domain"
)

// RawParams mirrors the declared tool input: untrusted strings and numbers
// straight from the calling layer.
type RawParams struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	DepartDate  string `json:"departDate"`
	ReturnDate  string `json:"returnDate,omitempty"`
	Cabin       string `json:"cabin,omitempty"`
	Passengers  int    `json:"passengers,omitempty"`
	AwardOnly   bool   `json:"awardOnly,omitempty"`
	Flexibility int    `json:"flexibility,omitempty"`
	NonStop     bool   `json:"nonStop,omitempty"`
}

// ValidationError rejects a request before it reaches the registry or any
// provider. Field names the violated parameter.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

const dateLayout = "2006-01-02"

// Normalize validates raw parameters and canonicalizes them into a
// SearchRequest. Omitted route and cabin fields are inherited from the
// chat's last resolved search when one exists; validation always runs on
// the merged result, so an inherited date that has since passed still
// fails cleanly.
func Normalize(raw RawParams, prior *domain.SessionState, now time.Time) (domain.SearchRequest, error) {
	if prior != nil && prior.LastFlightRequest != nil {
		last := prior.LastFlightRequest
		if raw.Origin == "" {
			raw.Origin = last.Origin
		}
		if raw.Destination == "" {
			raw.Destination = last.Destination
		}
		if raw.DepartDate == "" {
			raw.DepartDate = last.DepartDate
		}
		if raw.ReturnDate == "" {
			raw.ReturnDate = last.ReturnDate
		}
		if raw.Cabin == "" {
			raw.Cabin = string(last.Cabin)
		}
		if raw.Passengers == 0 {
			raw.Passengers = last.Passengers
		}
	}

	req := domain.SearchRequest{
		Origin:          strings.ToUpper(strings.TrimSpace(raw.Origin)),
		Destination:     strings.ToUpper(strings.TrimSpace(raw.Destination)),
		DepartDate:      strings.TrimSpace(raw.DepartDate),
		ReturnDate:      strings.TrimSpace(raw.ReturnDate),
		Passengers:      raw.Passengers,
		AwardOnly:       raw.AwardOnly,
		FlexibilityDays: raw.Flexibility,
		NonStop:         raw.NonStop,
	}

	if err := validAirport(req.Origin); err != nil {
		return domain.SearchRequest{}, &ValidationError{Field: "origin", Message: err.Error()}
	}
	if err := validAirport(req.Destination); err != nil {
		return domain.SearchRequest{}, &ValidationError{Field: "destination", Message: err.Error()}
	}
	if req.Origin == req.Destination {
		return domain.SearchRequest{}, &ValidationError{Field: "destination", Message: "must differ from origin"}
	}

	cabin, ok := domain.ParseCabin(raw.Cabin)
	if !ok {
		return domain.SearchRequest{}, &ValidationError{Field: "cabin", Message: fmt.Sprintf("unknown cabin class %q", raw.Cabin)}
	}
	req.Cabin = cabin

	if req.Passengers == 0 {
		req.Passengers = 1
	}
	if req.Passengers < 1 || req.Passengers > 9 {
		return domain.SearchRequest{}, &ValidationError{Field: "passengers", Message: "must be between 1 and 9"}
	}

	if req.FlexibilityDays < 0 {
		return domain.SearchRequest{}, &ValidationError{Field: "flexibility", Message: "must not be negative"}
	}

	depart, err := time.Parse(dateLayout, req.DepartDate)
	if err != nil {
		return domain.SearchRequest{}, &ValidationError{Field: "departDate", Message: "must be a YYYY-MM-DD date"}
	}
	today := now.UTC().Truncate(24 * time.Hour)
	if depart.Before(today) {
		return domain.SearchRequest{}, &ValidationError{Field: "departDate", Message: "must not be in the past"}
	}

	if req.ReturnDate != "" {
		ret, err := time.Parse(dateLayout, req.ReturnDate)
		if err != nil {
			return domain.SearchRequest{}, &ValidationError{Field: "returnDate", Message: "must be a YYYY-MM-DD date"}
		}
		if !ret.After(depart) {
			return domain.SearchRequest{}, &ValidationError{Field: "returnDate", Message: "must be after departDate"}
		}
	}

	return req, nil
}

func validAirport(code string) error {
	if len(code) != 3 {
		return fmt.Errorf("must be a 3-letter IATA code, got %q", code)
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return fmt.Errorf("must be a 3-letter IATA code, got %q", code)
		}
	}
	return nil
}
