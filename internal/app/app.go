package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/mercury-team/external/gotsport"
	"github.com/riskibarqy/mercury-team/internal/config"
	"github.com/riskibarqy/mercury-team/internal/domain/changelog"
	"github.com/riskibarqy/mercury-team/internal/domain/fixture"
	"github.com/riskibarqy/mercury-team/internal/domain/scrape"
	"github.com/riskibarqy/mercury-team/internal/domain/teamname"
	"github.com/riskibarqy/mercury-team/internal/infrastructure/repository/jsonfile"
	"github.com/riskibarqy/mercury-team/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/mercury-team/internal/interfaces/httpapi"
	"github.com/riskibarqy/mercury-team/internal/platform/cache"
	idgen "github.com/riskibarqy/mercury-team/internal/platform/id"
	"github.com/riskibarqy/mercury-team/internal/platform/logging"
	"github.com/riskibarqy/mercury-team/internal/platform/resilience"
	"github.com/riskibarqy/mercury-team/internal/usecase"
)

// scheduleStore is what both the JSON file and Postgres stores provide.
type scheduleStore interface {
	fixture.Repository
	scrape.Repository
	ChangeLog() changelog.Repository
}

// App holds the wired services shared by the API server and the sync CLI.
type App struct {
	cfg      config.Config
	logger   *logging.Logger
	Fixtures *usecase.FixtureService
	Sync     *usecase.SyncService
	db       *sqlx.DB
}

func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}

	store, db, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	source := gotsport.NewClient(gotsport.ClientConfig{
		ResultsURL:  cfg.GotSportResultsURL,
		ScheduleURL: cfg.GotSportScheduleURL,
		Timeout:     cfg.GotSportTimeout,
		UserAgent:   cfg.GotSportUserAgent,
		Logger:      logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.GotSportCircuitEnabled,
			FailureThreshold: cfg.GotSportCircuitFailures,
			OpenTimeout:      cfg.GotSportCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.GotSportCircuitHalfOpenMax,
		},
	})

	fixtures := usecase.NewFixtureService(store, store.ChangeLog(), cache.NewStore(cfg.CacheTTL), cfg.TeamLocation)
	syncSvc := usecase.NewSyncService(
		source,
		store,
		store,
		idgen.NewRunIDGenerator(),
		fixtures,
		reconcileOptions(cfg),
		logger,
	)

	return &App{
		cfg:      cfg,
		logger:   logger,
		Fixtures: fixtures,
		Sync:     syncSvc,
		db:       db,
	}, nil
}

// HTTPServer builds the API server around the wired services.
func (a *App) HTTPServer() (*http.Server, error) {
	if a.cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	handler := httpapi.NewHandler(a.Fixtures, a.Sync, a.logger)
	router := httpapi.NewRouter(handler, a.logger, httpapi.RouterConfig{
		ServiceName:        a.cfg.ServiceName,
		CORSAllowedOrigins: a.cfg.CORSAllowedOrigins,
		InternalJobToken:   a.cfg.InternalJobToken,
	})

	return &http.Server{
		Addr:         a.cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  a.cfg.ReadTimeout,
		WriteTimeout: a.cfg.WriteTimeout,
	}, nil
}

func (a *App) Close() error {
	if a == nil || a.db == nil {
		return nil
	}
	return a.db.Close()
}

func openStore(ctx context.Context, cfg config.Config, logger *logging.Logger) (scheduleStore, *sqlx.DB, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		db, err := openDB(ctx, cfg.DBURL)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using postgres store", "db_name", dbNameFromURL(cfg.DBURL), "db_url", redactDBURL(cfg.DBURL))
		return postgres.NewStore(db), db, nil
	case config.StoreDriverJSON, "":
		logger.Info("using json file store", "data_dir", cfg.DataDir)
		return jsonfile.NewStore(cfg.DataDir), nil, nil
	default:
		return nil, nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}
}

func openDB(ctx context.Context, dbURL string) (*sqlx.DB, error) {
	db, err := otelsqlx.Open("postgres", dbURL,
		otelsql.WithAttributes(attribute.String("db.system", "postgresql")),
		otelsql.WithDBName(dbNameFromURL(dbURL)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		closeErr := db.Close()
		return nil, fmt.Errorf("ping postgres: %w", errors.Join(err, closeErr))
	}
	return db, nil
}

func reconcileOptions(cfg config.Config) usecase.ReconcileOptions {
	aliases := make([]teamname.Alias, 0, len(cfg.TeamAliases))
	for _, alias := range cfg.TeamAliases {
		aliases = append(aliases, teamname.Alias{Contains: alias.Contains, Short: alias.Short})
	}

	return usecase.ReconcileOptions{
		Identity:        teamname.NewIdentity(cfg.TeamIdentity...),
		Aliases:         aliases,
		ProximityDays:   cfg.ProximityDays,
		RecentFormLimit: cfg.RecentForm,
	}
}
