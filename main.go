package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"

	"github.com/dskvich/openrouter-telegram-bot/pkg/api/handler"
	"github.com/dskvich/openrouter-telegram-bot/pkg/catalog"
	"github.com/dskvich/openrouter-telegram-bot/pkg/database"
	"github.com/dskvich/openrouter-telegram-bot/pkg/logger"
	"github.com/dskvich/openrouter-telegram-bot/pkg/menu"
	"github.com/dskvich/openrouter-telegram-bot/pkg/openrouter"
	"github.com/dskvich/openrouter-telegram-bot/pkg/repository"
	"github.com/dskvich/openrouter-telegram-bot/pkg/services"
	"github.com/dskvich/openrouter-telegram-bot/pkg/telegram"
	"github.com/dskvich/openrouter-telegram-bot/pkg/workers"
)

type Config struct {
	TelegramBotToken      string        `env:"TELEGRAM_BOT_TOKEN,required"`
	TelegramUpdateTimeout int           `env:"TELEGRAM_UPDATE_TIMEOUT" envDefault:"60"`
	OpenRouterAPIKey      string        `env:"OPENROUTER_API_KEY,required"`
	OpenRouterBaseURL     string        `env:"OPENROUTER_BASE_URL" envDefault:"https://openrouter.ai/api/v1"`
	InferenceTimeout      time.Duration `env:"INFERENCE_TIMEOUT" envDefault:"90s"`
	ModelCatalogFile      string        `env:"MODEL_CATALOG_FILE"`
	HistoryBackend        string        `env:"HISTORY_BACKEND" envDefault:"bolt"`
	HistoryBoltPath       string        `env:"HISTORY_BOLT_PATH" envDefault:"data/histories.bolt"`
	PgURL                 string        `env:"DATABASE_URL"`
	RedisAddr             string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword         string        `env:"REDIS_PASSWORD"`
	RedisDB               int           `env:"REDIS_DB" envDefault:"0"`
	HealthAddr            string        `env:"HEALTH_ADDR"`
	LogLevel              string        `env:"LOG_LEVEL" envDefault:"info"`
	LogNoColor            bool          `env:"LOG_NO_COLOR"`
}

type historyStore interface {
	services.HistoryRepository
	Ping(ctx context.Context) error
	Close() error
}

func main() {
	slog.SetDefault(slog.New(logger.NewHandler(os.Stderr, logger.DefaultOptions)))

	if err := runMain(); err != nil {
		slog.Error("shutting down due to error", logger.Err(err))
		os.Exit(1)
	}
	slog.Info("shutdown complete")
}

func runMain() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if err := setupLogger(cfg); err != nil {
		return err
	}

	ctx, cancelFn := context.WithCancel(context.Background())
	defer cancelFn()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
		select {
		case s := <-sigCh:
			slog.Info("shutting down due to signal", "signal", s.String())
			cancelFn()
		case <-ctx.Done():
		}
	}()

	history, err := newHistoryStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("creating history store: %w", err)
	}
	defer func() {
		if err := history.Close(); err != nil {
			slog.Error("closing history store", logger.Err(err))
		}
	}()

	workerGroup, err := setupWorkers(cfg, history)
	if err != nil {
		return err
	}

	return workerGroup.Start(ctx)
}

// loadConfig reads .env when present, then the process environment.
func loadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parsing env config: %w", err)
	}
	return &cfg, nil
}

func setupLogger(cfg *Config) error {
	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}

	opts := *logger.DefaultOptions
	opts.Level = level
	opts.NoColor = cfg.LogNoColor
	slog.SetDefault(slog.New(logger.NewHandler(os.Stderr, &opts)))
	return nil
}

func newHistoryStore(ctx context.Context, cfg *Config) (historyStore, error) {
	switch cfg.HistoryBackend {
	case "bolt":
		return repository.NewBoltHistoryRepository(cfg.HistoryBoltPath)
	case "postgres":
		db, err := database.NewPostgres(ctx, cfg.PgURL)
		if err != nil {
			return nil, fmt.Errorf("creating db: %w", err)
		}
		return repository.NewPostgresHistoryRepository(db), nil
	case "redis":
		return repository.NewRedisHistoryRepository(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	case "memory":
		slog.Warn("History is kept in memory and will be lost on restart")
		return repository.NewMemoryHistoryRepository(), nil
	default:
		return nil, fmt.Errorf("unknown history backend %q", cfg.HistoryBackend)
	}
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.New(catalog.Default())
	}
	return catalog.Load(path)
}

func setupWorkers(cfg *Config, history historyStore) (workers.Group, error) {
	var workerGroup workers.Group

	models, err := loadCatalog(cfg.ModelCatalogFile)
	if err != nil {
		return nil, fmt.Errorf("loading model catalog: %w", err)
	}
	slog.Info("Model catalog loaded", "models", len(models.Entries()), "backend", cfg.HistoryBackend)

	inference, err := openrouter.NewClient(cfg.OpenRouterAPIKey, cfg.OpenRouterBaseURL, cfg.InferenceTimeout)
	if err != nil {
		return nil, fmt.Errorf("creating openrouter client: %w", err)
	}

	telegramClient, err := telegram.NewClient(cfg.TelegramBotToken, cfg.TelegramUpdateTimeout)
	if err != nil {
		return nil, fmt.Errorf("creating telegram client: %w", err)
	}

	router := services.NewRouter(
		telegramClient,
		repository.NewSessionRepository(),
		history,
		inference,
		models,
		menu.NewRenderer(models),
	)

	workerGroup = append(workerGroup, workers.NewTelegramUpdateListener(telegramClient, models, router))

	if cfg.HealthAddr != "" {
		health := handler.NewHealth(history, cfg.HistoryBackend)
		workerGroup = append(workerGroup, workers.NewHTTPServer(cfg.HealthAddr, handler.NewRouter(health)))
	}

	return workerGroup, nil
}
