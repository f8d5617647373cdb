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
)

// DuffelClient searches the static-bearer-key cash-fare API. No token
// refresh cycle: the key comes straight from configuration. Offers carry
// airline branding and CO2 totals when the provider supplies them.
type DuffelClient struct {
	baseURL    string
	apiKey     string
	apiVersion string
	timeout    time.Duration
	client     *http.Client
	log        *logging.Logger
}

// NewDuffelClient creates a static-key cash-fare client from config.
func NewDuffelClient(cfg config.DuffelConfig, log *logging.Logger) *DuffelClient {
	timeout := config.Timeout(cfg.TimeoutSec)
	return &DuffelClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		apiVersion: cfg.APIVersion,
		timeout:    timeout,
		client:     newHTTPClient(timeout),
		log:        log.Sub("provider.duffel"),
	}
}

// Name identifies the provider.
func (c *DuffelClient) Name() domain.Provider { return domain.ProviderDuffel }

// BookingType reports cash.
func (c *DuffelClient) BookingType() domain.BookingType { return domain.BookingCash }

// Search creates an offer request with return_offers=true so the offers
// come back inline in a single round trip.
func (c *DuffelClient) Search(ctx context.Context, req domain.SearchRequest) ([]domain.FlightOffer, *Error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := json.Marshal(c.buildRequestBody(req))
	if err != nil {
		return nil, &Error{Provider: c.Name(), Kind: KindNetwork, Message: "encoding request: " + err.Error()}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/air/offer_requests?return_offers=true", bytes.NewReader(payload))
	if err != nil {
		return nil, &Error{Provider: c.Name(), Kind: KindNetwork, Message: err.Error()}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Duffel-Version", c.apiVersion)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, classifyTransport(c.Name(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransport(c.Name(), err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, classifyStatus(c.Name(), resp.StatusCode, string(body))
	}

	var parsed duffelOfferRequestResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &Error{Provider: c.Name(), Kind: KindNetwork, Message: "parsing response: " + err.Error()}
	}

	offers := c.toOffers(parsed, req)
	if len(offers) == 0 {
		return nil, &Error{Provider: c.Name(), Kind: KindNoResults, Message: "no offers for the requested route"}
	}

	c.log.Debug().Int("offers", len(offers)).Str("route", req.Origin+"-"+req.Destination).Msg("offer request done")
	return offers, nil
}

func (c *DuffelClient) buildRequestBody(req domain.SearchRequest) map[string]any {
	slices := []map[string]any{{
		"origin":         strings.ToUpper(req.Origin),
		"destination":    strings.ToUpper(req.Destination),
		"departure_date": req.DepartDate,
	}}
	if req.RoundTrip() {
		slices = append(slices, map[string]any{
			"origin":         strings.ToUpper(req.Destination),
			"destination":    strings.ToUpper(req.Origin),
			"departure_date": req.ReturnDate,
		})
	}

	passengers := make([]map[string]any, req.Passengers)
	for i := range passengers {
		passengers[i] = map[string]any{"type": "adult"}
	}

	maxConnections := 1
	if req.NonStop {
		maxConnections = 0
	}

	return map[string]any{
		"data": map[string]any{
			"slices":          slices,
			"passengers":      passengers,
			"cabin_class":     duffelCabin(req.Cabin),
			"max_connections": maxConnections,
		},
	}
}

func (c *DuffelClient) toOffers(parsed duffelOfferRequestResponse, req domain.SearchRequest) []domain.FlightOffer {
	var offers []domain.FlightOffer
	for _, item := range parsed.Data.Offers {
		amount, err := strconv.ParseFloat(item.TotalAmount, 64)
		if err != nil || amount <= 0 {
			continue
		}

		offer := domain.FlightOffer{
			ID:          fmt.Sprintf("duffel-%s", item.ID),
			Provider:    c.Name(),
			BookingType: domain.BookingCash,
			Cabin:       req.Cabin,
			Price: domain.Price{
				Amount:   amount,
				Currency: item.TotalCurrency,
			},
			Airline: item.Owner.Name,
		}
		if kg, err := strconv.ParseFloat(item.TotalEmissionsKg, 64); err == nil {
			offer.CO2EmissionsKg = kg
		}

		total := 0
		for _, slice := range item.Slices {
			total += parseISODurationMinutes(slice.Duration)
			for _, seg := range slice.Segments {
				offer.Segments = append(offer.Segments, domain.Segment{
					FlightNumber: seg.MarketingCarrier.IataCode + seg.MarketingCarrierFlightNumber,
					Origin:       seg.Origin.IataCode,
					Destination:  seg.Destination.IataCode,
					DepartTime:   parseProviderTime(seg.DepartingAt),
					ArriveTime:   parseProviderTime(seg.ArrivingAt),
				})
			}
		}
		if total == 0 && len(offer.Segments) > 0 {
			total = spanMinutes(offer.Segments[0].DepartTime, offer.Segments[len(offer.Segments)-1].ArriveTime)
		}
		offer.TotalDurationMinutes = total

		offers = append(offers, offer)
	}
	return offers
}

// duffelCabin maps the canonical cabin to the offer API's vocabulary.
func duffelCabin(c domain.Cabin) string {
	switch c {
	case domain.CabinPremiumEconomy:
		return "premium_economy"
	case domain.CabinBusiness:
		return "business"
	case domain.CabinFirst:
		return "first"
	default:
		return "economy"
	}
}

// Offer API response shapes.

type duffelOfferRequestResponse struct {
	Data duffelOfferRequest `json:"data"`
}

type duffelOfferRequest struct {
	ID     string        `json:"id"`
	Offers []duffelOffer `json:"offers"`
}

type duffelOffer struct {
	ID               string        `json:"id"`
	TotalAmount      string        `json:"total_amount"`
	TotalCurrency    string        `json:"total_currency"`
	TotalEmissionsKg string        `json:"total_emissions_kg"`
	Owner            duffelAirline `json:"owner"`
	Slices           []duffelSlice `json:"slices"`
}

type duffelAirline struct {
	Name     string `json:"name"`
	IataCode string `json:"iata_code"`
}

type duffelSlice struct {
	Duration string          `json:"duration"`
	Segments []duffelSegment `json:"segments"`
}

type duffelSegment struct {
	MarketingCarrier             duffelAirline `json:"marketing_carrier"`
	MarketingCarrierFlightNumber string        `json:"marketing_carrier_flight_number"`
	Origin                       duffelPlace   `json:"origin"`
	Destination                  duffelPlace   `json:"destination"`
	DepartingAt                  string        `json:"departing_at"`
	ArrivingAt                   string        `json:"arriving_at"`
}

type duffelPlace struct {
	IataCode string `json:"iata_code"`
}
