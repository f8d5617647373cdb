package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Cabin is a normalized cabin class.
type Cabin string

const (
	CabinEconomy        Cabin = "economy"
	CabinPremiumEconomy Cabin = "premium_economy"
	CabinBusiness       Cabin = "business"
	CabinFirst          Cabin = "first"
)

// Valid reports whether the cabin is one of the known classes.
func (c Cabin) Valid() bool {
	switch c {
	case CabinEconomy, CabinPremiumEconomy, CabinBusiness, CabinFirst:
		return true
	}
	return false
}

// ParseCabin normalizes provider/user spellings ("BUSINESS", "premium-economy")
// into a Cabin. Empty input defaults to economy.
func ParseCabin(s string) (Cabin, bool) {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "-", "_")) {
	case "":
		return CabinEconomy, true
	case "economy", "coach", "m":
		return CabinEconomy, true
	case "premium_economy", "premium":
		return CabinPremiumEconomy, true
	case "business", "j":
		return CabinBusiness, true
	case "first", "f":
		return CabinFirst, true
	}
	return "", false
}

// SearchRequest is the canonical, validated form of a flight search,
// independent of any provider's API shape. Dates are YYYY-MM-DD.
type SearchRequest struct {
	Origin          string `json:"origin"`
	Destination     string `json:"destination"`
	DepartDate      string `json:"departDate"`
	ReturnDate      string `json:"returnDate,omitempty"`
	Cabin           Cabin  `json:"cabin"`
	Passengers      int    `json:"passengers"`
	AwardOnly       bool   `json:"awardOnly,omitempty"`
	FlexibilityDays int    `json:"flexibility,omitempty"`
	NonStop         bool   `json:"nonStop,omitempty"`
}

// RoundTrip reports whether the request includes a return leg.
func (r SearchRequest) RoundTrip() bool {
	return r.ReturnDate != ""
}

// DedupeKey returns a deterministic hash identifying this search for
// duplicate-execution collapsing. Flexibility and nonStop are deliberately
// excluded: they tune presentation, not which search is running.
func (r SearchRequest) DedupeKey() string {
	canonical := fmt.Sprintf("%s|%s|%s|%s|%s|%d|%t",
		strings.ToUpper(r.Origin), strings.ToUpper(r.Destination),
		r.DepartDate, r.ReturnDate, r.Cabin, r.Passengers, r.AwardOnly)
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}
