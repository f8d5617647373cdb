package cli

import (
	"fmt"

	"golang.org/x/oauth2/clientcredentials"

	"github.com/voyago/voyago/internal/aggregator"
	"github.com/voyago/voyago/internal/config"
	"github.com/voyago/voyago/internal/logging"
	"github.com/voyago/voyago/internal/provider"
	"github.com/voyago/voyago/internal/search"
	"github.com/voyago/voyago/internal/store"
	"github.com/voyago/voyago/internal/token"
)

// app holds the wired component graph shared by serve and one-shot search.
type app struct {
	cfg       config.Config
	db        *store.DB
	toolCalls *store.ToolCallStore
	sessions  store.SessionStates
	service   *search.Service
}

// buildApp loads and validates config, opens the database, and wires the
// token manager, provider clients, aggregator, and search service.
func buildApp(log *logging.Logger) (*app, error) {
	cfg, err := config.Load(paths.Config)
	if err != nil {
		return nil, err
	}

	issues := config.Validate(&cfg)
	if len(issues) > 0 {
		for _, issue := range issues {
			log.Error().Str("path", issue.Path).Msg(issue.Message)
		}
		return nil, fmt.Errorf("config validation failed with %d issue(s)", len(issues))
	}

	if err := paths.EnsureDirs(); err != nil {
		return nil, fmt.Errorf("creating data directories: %w", err)
	}

	db, err := store.Open(paths.DB, log)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	toolCalls := store.NewToolCallStore(db)

	var sessions store.SessionStates
	if cfg.Session.Store == "memory" {
		sessions = store.NewMemorySessionStates()
		log.Info().Msg("using in-memory session state store")
	} else {
		sessions = store.NewSQLiteSessionStates(db)
	}

	tokens := token.NewManager(store.NewTokenStore(db), log)

	var clients []provider.Client
	if cfg.Providers.Seats.Enabled {
		clients = append(clients, provider.NewSeatsClient(cfg.Providers.Seats, log))
	}
	if cfg.Providers.Amadeus.Enabled {
		am := cfg.Providers.Amadeus
		tokens.RegisterEnvironment(am.Environment, clientcredentials.Config{
			ClientID:     am.ClientID,
			ClientSecret: am.ClientSecret,
			TokenURL:     am.BaseURL + "/v1/security/oauth2/token",
		})
		clients = append(clients, provider.NewAmadeusClient(am, tokens, log))
	}
	if cfg.Providers.Duffel.Enabled {
		clients = append(clients, provider.NewDuffelClient(cfg.Providers.Duffel, log))
	}
	if len(clients) == 0 {
		db.Close()
		return nil, fmt.Errorf("no providers enabled; enable at least one under providers in %s", paths.Config)
	}

	names := make([]string, 0, len(clients))
	for _, c := range clients {
		names = append(names, string(c.Name()))
	}
	log.Info().Strs("providers", names).Str("award_policy", cfg.Providers.AwardPolicy).Msg("providers wired")

	agg := aggregator.New(clients, aggregator.Policy{
		AwardPolicy: cfg.Providers.AwardPolicy,
		SortBy:      cfg.Search.SortBy,
	}, log)

	return &app{
		cfg:       cfg,
		db:        db,
		toolCalls: toolCalls,
		sessions:  sessions,
		service:   search.NewService(toolCalls, sessions, agg, log),
	}, nil
}

func (a *app) close() {
	a.db.Close()
}
