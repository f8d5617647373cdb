package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/voyago/voyago/internal/config"
	"github.com/voyago/voyago/internal/domain"
	"github.com/voyago/voyago/internal/logging"
	"github.com/voyago/voyago/internal/token"
)

// AmadeusClient searches the OAuth2 cash-fare API. A bearer token is
// obtained from the token manager before every call; token failures come
// back as KindAuthFailed so the aggregator treats them like any other
// provider-scoped error.
type AmadeusClient struct {
	baseURL     string
	environment string
	timeout     time.Duration
	tokens      *token.Manager
	client      *http.Client
	log         *logging.Logger
}

// NewAmadeusClient creates an OAuth cash-fare client from config.
func NewAmadeusClient(cfg config.AmadeusConfig, tokens *token.Manager, log *logging.Logger) *AmadeusClient {
	timeout := config.Timeout(cfg.TimeoutSec)
	return &AmadeusClient{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		environment: cfg.Environment,
		timeout:     timeout,
		tokens:      tokens,
		client:      newHTTPClient(timeout),
		log:         log.Sub("provider.amadeus"),
	}
}

// Name identifies the provider.
func (c *AmadeusClient) Name() domain.Provider { return domain.ProviderAmadeus }

// BookingType reports cash.
func (c *AmadeusClient) BookingType() domain.BookingType { return domain.BookingCash }

// Search translates the canonical request into a flight-offers search and
// parses nested itinerary/segment structures into ordered segments.
func (c *AmadeusClient) Search(ctx context.Context, req domain.SearchRequest) ([]domain.FlightOffer, *Error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	bearer, err := c.tokens.Token(ctx, c.environment)
	if err != nil {
		return nil, &Error{Provider: c.Name(), Kind: KindAuthFailed, Message: err.Error()}
	}

	payload, err := json.Marshal(c.buildRequestBody(req))
	if err != nil {
		return nil, &Error{Provider: c.Name(), Kind: KindNetwork, Message: "encoding request: " + err.Error()}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v2/shopping/flight-offers", bytes.NewReader(payload))
	if err != nil {
		return nil, &Error{Provider: c.Name(), Kind: KindNetwork, Message: err.Error()}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", bearer.TokenType+" "+bearer.AccessToken)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, classifyTransport(c.Name(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransport(c.Name(), err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(c.Name(), resp.StatusCode, string(body))
	}

	var parsed amadeusSearchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &Error{Provider: c.Name(), Kind: KindNetwork, Message: "parsing response: " + err.Error()}
	}

	offers := c.toOffers(parsed, req)
	if len(offers) == 0 {
		return nil, &Error{Provider: c.Name(), Kind: KindNoResults, Message: "no fares for the requested route"}
	}

	c.log.Debug().Int("offers", len(offers)).Str("route", req.Origin+"-"+req.Destination).Msg("fare search done")
	return offers, nil
}

func (c *AmadeusClient) buildRequestBody(req domain.SearchRequest) map[string]any {
	originDestinations := []map[string]any{{
		"id":                      "1",
		"originLocationCode":      strings.ToUpper(req.Origin),
		"destinationLocationCode": strings.ToUpper(req.Destination),
		"departureDateTimeRange":  map[string]string{"date": req.DepartDate},
	}}
	if req.RoundTrip() {
		originDestinations = append(originDestinations, map[string]any{
			"id":                      "2",
			"originLocationCode":      strings.ToUpper(req.Destination),
			"destinationLocationCode": strings.ToUpper(req.Origin),
			"departureDateTimeRange":  map[string]string{"date": req.ReturnDate},
		})
	}

	travelers := make([]map[string]any, req.Passengers)
	for i := range travelers {
		travelers[i] = map[string]any{
			"id":           strconv.Itoa(i + 1),
			"travelerType": "ADULT",
		}
	}

	odIDs := make([]string, len(originDestinations))
	for i := range originDestinations {
		odIDs[i] = strconv.Itoa(i + 1)
	}

	criteria := map[string]any{
		"cabinRestrictions": []map[string]any{{
			"cabin":                amadeusCabin(req.Cabin),
			"coverage":             "MOST_SEGMENTS",
			"originDestinationIds": odIDs,
		}},
	}
	if req.NonStop {
		criteria["flightFilters"] = map[string]any{"maxFlightConnections": 0}
	}

	return map[string]any{
		"currencyCode":       "EUR",
		"originDestinations": originDestinations,
		"travelers":          travelers,
		"sources":            []string{"GDS"},
		"searchCriteria":     criteria,
	}
}

func (c *AmadeusClient) toOffers(parsed amadeusSearchResponse, req domain.SearchRequest) []domain.FlightOffer {
	var offers []domain.FlightOffer
	for _, item := range parsed.Data {
		amount, err := strconv.ParseFloat(item.Price.GrandTotal, 64)
		if err != nil || amount <= 0 {
			continue
		}

		offer := domain.FlightOffer{
			ID:          fmt.Sprintf("amadeus-%s", item.ID),
			Provider:    c.Name(),
			BookingType: domain.BookingCash,
			Cabin:       req.Cabin,
			Price: domain.Price{
				Amount:   amount,
				Currency: item.Price.Currency,
			},
		}

		total := 0
		for _, itin := range item.Itineraries {
			total += parseISODurationMinutes(itin.Duration)
			for _, seg := range itin.Segments {
				offer.Segments = append(offer.Segments, domain.Segment{
					FlightNumber: seg.CarrierCode + seg.Number,
					Origin:       seg.Departure.IataCode,
					Destination:  seg.Arrival.IataCode,
					DepartTime:   parseProviderTime(seg.Departure.At),
					ArriveTime:   parseProviderTime(seg.Arrival.At),
				})
			}
		}
		if total == 0 && len(offer.Segments) > 0 {
			total = spanMinutes(offer.Segments[0].DepartTime, offer.Segments[len(offer.Segments)-1].ArriveTime)
		}
		offer.TotalDurationMinutes = total

		if len(item.Itineraries) > 0 && len(item.Itineraries[0].Segments) > 0 {
			offer.Airline = item.Itineraries[0].Segments[0].CarrierCode
		}
		offers = append(offers, offer)
	}
	return offers
}

// amadeusCabin maps the canonical cabin to the fare API's vocabulary.
func amadeusCabin(c domain.Cabin) string {
	switch c {
	case domain.CabinPremiumEconomy:
		return "PREMIUM_ECONOMY"
	case domain.CabinBusiness:
		return "BUSINESS"
	case domain.CabinFirst:
		return "FIRST"
	default:
		return "ECONOMY"
	}
}

// Fare API response shapes.

type amadeusSearchResponse struct {
	Data []amadeusOffer `json:"data"`
}

type amadeusOffer struct {
	ID          string             `json:"id"`
	Itineraries []amadeusItinerary `json:"itineraries"`
	Price       amadeusPrice       `json:"price"`
}

type amadeusItinerary struct {
	Duration string           `json:"duration"`
	Segments []amadeusSegment `json:"segments"`
}

type amadeusSegment struct {
	CarrierCode string          `json:"carrierCode"`
	Number      string          `json:"number"`
	Departure   amadeusEndpoint `json:"departure"`
	Arrival     amadeusEndpoint `json:"arrival"`
}

type amadeusEndpoint struct {
	IataCode string `json:"iataCode"`
	At       string `json:"at"`
}

type amadeusPrice struct {
	Currency   string `json:"currency"`
	GrandTotal string `json:"grandTotal"`
}
