package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"dashboardBot/internal/config"
	"dashboardBot/internal/dashboard"
	"dashboardBot/internal/finance"
	"dashboardBot/internal/logging"
	"dashboardBot/internal/openai"
	"dashboardBot/internal/server"
	"dashboardBot/internal/storage"
	"dashboardBot/internal/telegram"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		l := logging.New("info", false)
		l.Fatal().Err(err).Msg("config")
	}
	log := logging.New(cfg.LogLevel, cfg.LogPretty)

	// Ensure parent directory for the DB exists
	_ = os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755)
	db, err := storage.OpenSQLite("file:" + cfg.DBPath + "?_fk=1")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open sqlite")
	}
	defer db.Close()
	if err := storage.InitSchema(db); err != nil {
		log.Fatal().Err(err).Msg("failed to init schema")
	}
	store := storage.NewStore(db)
	log.Info().Str("path", cfg.DBPath).Msg("db: request log ready")

	svc, err := buildService(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build dashboard service")
	}

	deps := telegram.HandlerDeps{Dashboards: svc, Store: store, Log: log}
	if cfg.OpenAIKey != "" {
		deps.Commentator = openai.NewCommentator(cfg.OpenAIKey)
	} else {
		log.Warn().Msg("OPENAI_API_KEY not set, /explain will skip commentary")
	}
	tg, err := telegram.NewBot(cfg.TelegramToken, cfg.WebhookPublicURL, deps)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start telegram bot")
	}

	srv := server.New(server.Config{
		Port:       cfg.Port,
		Log:        log,
		Dashboards: svc,
		Store:      store,
		Webhook:    tg.WebhookHandler,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
	}
}

func buildService(cfg config.Config, log zerolog.Logger) (*dashboard.Service, error) {
	benchmarks := finance.DefaultBenchmarks()
	if cfg.BenchmarksPath != "" {
		var err error
		if benchmarks, err = finance.LoadBenchmarks(cfg.BenchmarksPath); err != nil {
			return nil, err
		}
	}

	// Fail early on a broken ticker list; it is re-read on every interaction.
	universe, err := finance.LoadUniverse(cfg.UniversePath)
	if err != nil {
		return nil, err
	}
	log.Info().Int("tickers", universe.Len()).Int("benchmarks", len(benchmarks.All())).Msg("reference data loaded")

	yahoo := finance.NewYahooClient(log)
	return dashboard.NewService(dashboard.Deps{
		Universe:   dashboard.FileUniverse(cfg.UniversePath),
		Benchmarks: benchmarks,
		Assembler:  finance.NewAssembler(yahoo, cfg.MarketSuffix, log),
		Calendar:   finance.NewTradingCalendar(cfg.CalendarMIC, log),
		Icons:      finance.NewIconFetcher(cfg.IconBaseURL, log),
		Log:        log,
	}), nil
}
