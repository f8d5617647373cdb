package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/voyago/voyago/internal/config"
	"github.com/voyago/voyago/internal/domain"
	"github.com/voyago/voyago/internal/logging"
)

// SeatsClient searches the award inventory partner API. Results are always
// award bookings priced in miles plus a loyalty program code.
type SeatsClient struct {
	baseURL    string
	partnerKey string
	timeout    time.Duration
	client     *http.Client
	log        *logging.Logger
}

// NewSeatsClient creates an award inventory client from config.
func NewSeatsClient(cfg config.SeatsConfig, log *logging.Logger) *SeatsClient {
	timeout := config.Timeout(cfg.TimeoutSec)
	return &SeatsClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		partnerKey: cfg.PartnerKey,
		timeout:    timeout,
		client:     newHTTPClient(timeout),
		log:        log.Sub("provider.seats"),
	}
}

// Name identifies the provider.
func (c *SeatsClient) Name() domain.Provider { return domain.ProviderSeats }

// BookingType reports award.
func (c *SeatsClient) BookingType() domain.BookingType { return domain.BookingAward }

// Search queries partner award availability for the requested route and date.
func (c *SeatsClient) Search(ctx context.Context, req domain.SearchRequest) ([]domain.FlightOffer, *Error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	q := url.Values{}
	q.Set("origin_airport", strings.ToUpper(req.Origin))
	q.Set("destination_airport", strings.ToUpper(req.Destination))
	q.Set("start_date", req.DepartDate)
	q.Set("end_date", endDate(req))
	q.Set("cabin", seatsCabin(req.Cabin))
	if req.NonStop {
		q.Set("direct_only", "true")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/partnerapi/search?"+q.Encode(), nil)
	if err != nil {
		return nil, &Error{Provider: c.Name(), Kind: KindNetwork, Message: err.Error()}
	}
	httpReq.Header.Set("Partner-Authorization", c.partnerKey)
	httpReq.Header.Set("Accept", "application/json")

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

	var parsed seatsSearchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &Error{Provider: c.Name(), Kind: KindNetwork, Message: "parsing response: " + err.Error()}
	}

	offers := c.toOffers(parsed, req)
	if len(offers) == 0 {
		return nil, &Error{Provider: c.Name(), Kind: KindNoResults, Message: "no award availability for the requested route"}
	}

	c.log.Debug().Int("offers", len(offers)).Str("route", req.Origin+"-"+req.Destination).Msg("award search done")
	return offers, nil
}

func (c *SeatsClient) toOffers(parsed seatsSearchResponse, req domain.SearchRequest) []domain.FlightOffer {
	var offers []domain.FlightOffer
	for _, avail := range parsed.Data {
		if avail.MileageCost <= 0 || avail.RemainingSeats < req.Passengers {
			continue
		}
		if req.NonStop && len(avail.Segments) > 1 {
			continue
		}

		offer := domain.FlightOffer{
			ID:          fmt.Sprintf("seats-%s", avail.ID),
			Provider:    c.Name(),
			BookingType: domain.BookingAward,
			Cabin:       req.Cabin,
			Price: domain.Price{
				Miles:   avail.MileageCost,
				Program: avail.Source,
			},
			Airline: avail.Carrier,
		}
		for _, seg := range avail.Segments {
			offer.Segments = append(offer.Segments, domain.Segment{
				FlightNumber: seg.FlightNumber,
				Origin:       seg.Origin,
				Destination:  seg.Destination,
				DepartTime:   parseProviderTime(seg.DepartsAt),
				ArriveTime:   parseProviderTime(seg.ArrivesAt),
			})
		}
		if n := len(offer.Segments); n > 0 {
			offer.TotalDurationMinutes = spanMinutes(offer.Segments[0].DepartTime, offer.Segments[n-1].ArriveTime)
		}
		offers = append(offers, offer)
	}
	return offers
}

// endDate widens the search window by the request's flexibility days.
func endDate(req domain.SearchRequest) string {
	if req.FlexibilityDays <= 0 {
		return req.DepartDate
	}
	depart, err := time.Parse("2006-01-02", req.DepartDate)
	if err != nil {
		return req.DepartDate
	}
	return depart.AddDate(0, 0, req.FlexibilityDays).Format("2006-01-02")
}

// seatsCabin maps the canonical cabin to the partner's vocabulary.
func seatsCabin(c domain.Cabin) string {
	switch c {
	case domain.CabinPremiumEconomy:
		return "premium"
	case domain.CabinBusiness:
		return "business"
	case domain.CabinFirst:
		return "first"
	default:
		return "economy"
	}
}

// Partner API response shapes.

type seatsSearchResponse struct {
	Data []seatsAvailability `json:"data"`
}

type seatsAvailability struct {
	ID             string         `json:"id"`
	Source         string         `json:"source"` // loyalty program code
	Carrier        string         `json:"carrier"`
	MileageCost    int            `json:"mileage_cost"`
	RemainingSeats int            `json:"remaining_seats"`
	Segments       []seatsSegment `json:"segments"`
}

type seatsSegment struct {
	FlightNumber string `json:"flight_number"`
	Origin       string `json:"origin_airport"`
	Destination  string `json:"destination_airport"`
	DepartsAt    string `json:"departs_at"`
	ArrivesAt    string `json:"arrives_at"`
}
