package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/voyago/voyago/internal/config"
	"github.com/voyago/voyago/internal/domain"
	"github.com/voyago/voyago/internal/logging"
	"github.com/voyago/voyago/internal/store"
	"github.com/voyago/voyago/internal/token"
)

var testLog = logging.New(nil, "silent")

func businessRequest() domain.SearchRequest {
	return domain.SearchRequest{
		Origin:      "FRA",
		Destination: "BKK",
		DepartDate:  "2026-03-10",
		Cabin:       domain.CabinBusiness,
		Passengers:  1,
	}
}

// --- duration helpers ---

func TestParseISODurationMinutes(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"PT11H30M", 690},
		{"PT45M", 45},
		{"PT2H", 120},
		{"P1DT2H", 1560},
		{"", 0},
		{"bogus", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseISODurationMinutes(tt.in), "input %q", tt.in)
	}
}

func TestParseProviderTime(t *testing.T) {
	withZone := parseProviderTime("2026-03-10T13:55:00+01:00")
	assert.False(t, withZone.IsZero())

	local := parseProviderTime("2026-03-10T13:55:00")
	assert.False(t, local.IsZero())
	assert.Equal(t, 13, local.Hour())

	assert.True(t, parseProviderTime("not a time").IsZero())
}

// --- error classification ---

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status int
		kind   ErrorKind
	}{
		{401, KindAuthFailed},
		{403, KindAuthFailed},
		{429, KindRateLimited},
		{404, KindNoResults},
		{500, KindNetwork},
		{502, KindNetwork},
	}
	for _, tt := range tests {
		err := classifyStatus(domain.ProviderDuffel, tt.status, "")
		assert.Equal(t, tt.kind, err.Kind, "status %d", tt.status)
	}
}

func TestError_Retryable(t *testing.T) {
	assert.True(t, (&Error{Kind: KindTimeout}).Retryable())
	assert.True(t, (&Error{Kind: KindRateLimited}).Retryable())
	assert.True(t, (&Error{Kind: KindNetwork}).Retryable())
	assert.False(t, (&Error{Kind: KindNoResults}).Retryable())
	assert.False(t, (&Error{Kind: KindAuthFailed}).Retryable())
}

// --- seats (award) client ---

const seatsFixture = `{
	"data": [
		{
			"id": "av1",
			"source": "aeroplan",
			"carrier": "Lufthansa",
			"mileage_cost": 70000,
			"remaining_seats": 2,
			"segments": [
				{"flight_number": "LH772", "origin_airport": "FRA", "destination_airport": "BKK",
				 "departs_at": "2026-03-10T13:55:00", "arrives_at": "2026-03-11T06:15:00"}
			]
		},
		{
			"id": "av2",
			"source": "lifemiles",
			"carrier": "Thai",
			"mileage_cost": 0,
			"remaining_seats": 4,
			"segments": []
		}
	]
}`

func seatsClient(t *testing.T, url string) *SeatsClient {
	t.Helper()
	return NewSeatsClient(config.SeatsConfig{
		BaseURL:    url,
		PartnerKey: "pk-test",
		TimeoutSec: 5,
	}, testLog)
}

func TestSeats_Search(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Partner-Authorization")
		assert.Equal(t, "FRA", r.URL.Query().Get("origin_airport"))
		assert.Equal(t, "BKK", r.URL.Query().Get("destination_airport"))
		assert.Equal(t, "2026-03-10", r.URL.Query().Get("start_date"))
		assert.Equal(t, "business", r.URL.Query().Get("cabin"))
		w.Write([]byte(seatsFixture))
	}))
	t.Cleanup(srv.Close)

	offers, perr := seatsClient(t, srv.URL).Search(context.Background(), businessRequest())
	require.Nil(t, perr)
	assert.Equal(t, "pk-test", gotAuth)

	// zero-mileage row is dropped
	require.Len(t, offers, 1)
	o := offers[0]
	assert.Equal(t, domain.ProviderSeats, o.Provider)
	assert.Equal(t, domain.BookingAward, o.BookingType)
	assert.Equal(t, 70000, o.Price.Miles)
	assert.Equal(t, "aeroplan", o.Price.Program)
	assert.Zero(t, o.Price.Amount)
	require.Len(t, o.Segments, 1)
	assert.Equal(t, "LH772", o.Segments[0].FlightNumber)
	assert.Equal(t, 980, o.TotalDurationMinutes)
}

func TestSeats_Search_FlexibilityWidensWindow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2026-03-13", r.URL.Query().Get("end_date"))
		w.Write([]byte(seatsFixture))
	}))
	t.Cleanup(srv.Close)

	req := businessRequest()
	req.FlexibilityDays = 3
	_, perr := seatsClient(t, srv.URL).Search(context.Background(), req)
	require.Nil(t, perr)
}

func TestSeats_Search_NoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": []}`))
	}))
	t.Cleanup(srv.Close)

	offers, perr := seatsClient(t, srv.URL).Search(context.Background(), businessRequest())
	assert.Nil(t, offers)
	require.NotNil(t, perr)
	assert.Equal(t, KindNoResults, perr.Kind)
}

func TestSeats_Search_AuthFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"bad partner key"}`, http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)

	_, perr := seatsClient(t, srv.URL).Search(context.Background(), businessRequest())
	require.NotNil(t, perr)
	assert.Equal(t, KindAuthFailed, perr.Kind)
}

func TestSeats_Search_RateLimitedNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	t.Cleanup(srv.Close)

	_, perr := seatsClient(t, srv.URL).Search(context.Background(), businessRequest())
	require.NotNil(t, perr)
	assert.Equal(t, KindRateLimited, perr.Kind)
	assert.Equal(t, int32(1), calls.Load())
}

func TestSeats_Search_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	t.Cleanup(srv.Close)

	client := NewSeatsClient(config.SeatsConfig{
		BaseURL:    srv.URL,
		PartnerKey: "pk",
		TimeoutSec: 1,
	}, testLog)

	start := time.Now()
	_, perr := client.Search(context.Background(), businessRequest())
	require.NotNil(t, perr)
	assert.Equal(t, KindTimeout, perr.Kind)
	assert.Less(t, time.Since(start), 1900*time.Millisecond)
}

// --- amadeus (OAuth cash) client ---

const amadeusFixture = `{
	"data": [
		{
			"id": "1",
			"itineraries": [
				{
					"duration": "PT11H30M",
					"segments": [
						{"carrierCode": "LH", "number": "772",
						 "departure": {"iataCode": "FRA", "at": "2026-03-10T13:55:00"},
						 "arrival": {"iataCode": "BKK", "at": "2026-03-11T06:25:00"}}
					]
				}
			],
			"price": {"currency": "EUR", "grandTotal": "1834.00"}
		},
		{
			"id": "2",
			"itineraries": [
				{
					"duration": "PT14H05M",
					"segments": [
						{"carrierCode": "TG", "number": "921",
						 "departure": {"iataCode": "FRA", "at": "2026-03-10T14:45:00"},
						 "arrival": {"iataCode": "BKK", "at": "2026-03-11T09:50:00"}}
					]
				}
			],
			"price": {"currency": "EUR", "grandTotal": "1620.50"}
		}
	]
}`

// amadeusTestClient wires an AmadeusClient to fixture servers for both the
// token endpoint and the fare search endpoint.
func amadeusTestClient(t *testing.T, handler http.HandlerFunc) *AmadeusClient {
	t.Helper()

	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"amadeus-token","token_type":"Bearer","expires_in":1799}`))
	}))
	t.Cleanup(tokenSrv.Close)

	apiSrv := httptest.NewServer(handler)
	t.Cleanup(apiSrv.Close)

	db, err := store.Open(":memory:", testLog)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tokens := token.NewManager(store.NewTokenStore(db), testLog)
	tokens.RegisterEnvironment("amadeus-test", clientcredentials.Config{
		ClientID:     "id",
		ClientSecret: "secret",
		TokenURL:     tokenSrv.URL + "/v1/security/oauth2/token",
	})

	return NewAmadeusClient(config.AmadeusConfig{
		BaseURL:     apiSrv.URL,
		Environment: "amadeus-test",
		TimeoutSec:  5,
	}, tokens, testLog)
}

func TestAmadeus_Search(t *testing.T) {
	client := amadeusTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/shopping/flight-offers", r.URL.Path)
		assert.Equal(t, "Bearer amadeus-token", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		ods := body["originDestinations"].([]any)
		assert.Len(t, ods, 1)
		travelers := body["travelers"].([]any)
		assert.Len(t, travelers, 1)

		w.Write([]byte(amadeusFixture))
	})

	offers, perr := client.Search(context.Background(), businessRequest())
	require.Nil(t, perr)
	require.Len(t, offers, 2)

	assert.Equal(t, domain.ProviderAmadeus, offers[0].Provider)
	assert.Equal(t, domain.BookingCash, offers[0].BookingType)
	assert.Equal(t, 1834.00, offers[0].Price.Amount)
	assert.Equal(t, "EUR", offers[0].Price.Currency)
	assert.Equal(t, 690, offers[0].TotalDurationMinutes)
	assert.Equal(t, "LH", offers[0].Airline)
	require.Len(t, offers[0].Segments, 1)
	assert.Equal(t, "LH772", offers[0].Segments[0].FlightNumber)

	assert.Equal(t, 1620.50, offers[1].Price.Amount)
	assert.Equal(t, 845, offers[1].TotalDurationMinutes)
}

func TestAmadeus_Search_RoundTripSendsTwoSlices(t *testing.T) {
	client := amadeusTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Len(t, body["originDestinations"].([]any), 2)
		w.Write([]byte(amadeusFixture))
	})

	req := businessRequest()
	req.ReturnDate = "2026-03-20"
	_, perr := client.Search(context.Background(), req)
	require.Nil(t, perr)
}

func TestAmadeus_Search_TokenFailureIsAuthFailed(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_client"}`, http.StatusUnauthorized)
	}))
	t.Cleanup(tokenSrv.Close)

	db, err := store.Open(":memory:", testLog)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tokens := token.NewManager(store.NewTokenStore(db), testLog)
	tokens.RegisterEnvironment("amadeus-test", clientcredentials.Config{
		ClientID: "id", ClientSecret: "bad", TokenURL: tokenSrv.URL,
	})

	client := NewAmadeusClient(config.AmadeusConfig{
		BaseURL:     "http://127.0.0.1:0",
		Environment: "amadeus-test",
		TimeoutSec:  5,
	}, tokens, testLog)

	offers, perr := client.Search(context.Background(), businessRequest())
	assert.Nil(t, offers)
	require.NotNil(t, perr)
	assert.Equal(t, KindAuthFailed, perr.Kind)
}

func TestAmadeus_Search_NoResults(t *testing.T) {
	client := amadeusTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": []}`))
	})

	_, perr := client.Search(context.Background(), businessRequest())
	require.NotNil(t, perr)
	assert.Equal(t, KindNoResults, perr.Kind)
}

// --- duffel (static-key cash) client ---

const duffelFixture = `{
	"data": {
		"id": "orq_1",
		"offers": [
			{
				"id": "off_1",
				"total_amount": "1790.40",
				"total_currency": "EUR",
				"total_emissions_kg": "462",
				"owner": {"name": "Lufthansa", "iata_code": "LH"},
				"slices": [
					{
						"duration": "PT11H20M",
						"segments": [
							{"marketing_carrier": {"name": "Lufthansa", "iata_code": "LH"},
							 "marketing_carrier_flight_number": "772",
							 "origin": {"iata_code": "FRA"},
							 "destination": {"iata_code": "BKK"},
							 "departing_at": "2026-03-10T13:55:00",
							 "arriving_at": "2026-03-11T06:15:00"}
						]
					}
				]
			}
		]
	}
}`

func duffelClient(t *testing.T, url string) *DuffelClient {
	t.Helper()
	return NewDuffelClient(config.DuffelConfig{
		BaseURL:    url,
		APIKey:     "duffel_test_key",
		APIVersion: "v2",
		TimeoutSec: 5,
	}, testLog)
}

func TestDuffel_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/air/offer_requests", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("return_offers"))
		assert.Equal(t, "Bearer duffel_test_key", r.Header.Get("Authorization"))
		assert.Equal(t, "v2", r.Header.Get("Duffel-Version"))

		var body struct {
			Data struct {
				Slices     []any  `json:"slices"`
				Passengers []any  `json:"passengers"`
				CabinClass string `json:"cabin_class"`
			} `json:"data"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Len(t, body.Data.Slices, 1)
		assert.Len(t, body.Data.Passengers, 1)
		assert.Equal(t, "business", body.Data.CabinClass)

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(duffelFixture))
	}))
	t.Cleanup(srv.Close)

	offers, perr := duffelClient(t, srv.URL).Search(context.Background(), businessRequest())
	require.Nil(t, perr)
	require.Len(t, offers, 1)

	o := offers[0]
	assert.Equal(t, domain.ProviderDuffel, o.Provider)
	assert.Equal(t, domain.BookingCash, o.BookingType)
	assert.Equal(t, 1790.40, o.Price.Amount)
	assert.Equal(t, "Lufthansa", o.Airline)
	assert.Equal(t, 462.0, o.CO2EmissionsKg)
	assert.Equal(t, 680, o.TotalDurationMinutes)
	require.Len(t, o.Segments, 1)
	assert.Equal(t, "LH772", o.Segments[0].FlightNumber)
}

func TestDuffel_Search_ServerErrorIsNetwork(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	_, perr := duffelClient(t, srv.URL).Search(context.Background(), businessRequest())
	require.NotNil(t, perr)
	assert.Equal(t, KindNetwork, perr.Kind)
	assert.True(t, perr.Retryable())
}

func TestDuffel_Search_TransientErrorIsRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "warming up", http.StatusBadGateway)
			return
		}
		w.Write([]byte(duffelFixture))
	}))
	t.Cleanup(srv.Close)

	offers, perr := duffelClient(t, srv.URL).Search(context.Background(), businessRequest())
	require.Nil(t, perr)
	assert.Len(t, offers, 1)
	assert.Equal(t, int32(2), calls.Load())
}
