package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stock-movement-predictor/internal/entity"
	"stock-movement-predictor/internal/predictor/config"
	delivery "stock-movement-predictor/internal/predictor/delivery/http"
	"stock-movement-predictor/internal/predictor/repository"
	"stock-movement-predictor/internal/predictor/service"
	"stock-movement-predictor/pkg/logger"
	"stock-movement-predictor/pkg/redis"
	"stock-movement-predictor/pkg/telegram"
	"stock-movement-predictor/pkg/utils"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"google.golang.org/genai"
)

var (
	configPath   string
	ingestSymbol string
	ingestMonths int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the prediction HTTP service",
	Run:   runServe,
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Runs the ingestion pipeline once for a symbol",
	Run:   runIngest,
}

func runServe(cmd *cobra.Command, args []string) {
	// Create a context that is canceled on interrupt signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()

	appLogger.Info("Starting Prediction Service", logger.Field("name", cfg.App.Name))

	// Redis backs the prediction response cache; the service runs without
	// it when no host is configured.
	var redisClient *redis.Client
	if cfg.Redis.Host != "" {
		redisClient, err = redis.NewClient(redis.Config{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err != nil {
			appLogger.Fatal("Failed to initialize Redis", logger.ErrorField(err))
		}
		defer redisClient.Close()
	}

	// Initialize repositories
	datasetRepo := repository.NewDatasetRepository(cfg.Store.DataDir, appLogger)
	modelRepo := repository.NewModelRepository(cfg.Model.Dir, cfg.Model.CacheTTL, appLogger)
	var snapshotRepo repository.SnapshotRepository
	if cfg.Store.SnapshotDir != "" {
		snapshotRepo = repository.NewSnapshotRepository(cfg.Store.SnapshotDir, appLogger)
	}

	// Initialize services
	reconciler := service.NewGapReconcilerService(datasetRepo, appLogger)
	featureSvc := service.NewFeatureEngineeringService(appLogger, snapshotRepo)
	var predictionSvc service.PredictionService
	if redisClient != nil {
		predictionSvc = service.NewPredictionService(reconciler, featureSvc, modelRepo, redisClient.Client, cfg.Prediction.CacheTTL, appLogger)
	} else {
		predictionSvc = service.NewPredictionService(reconciler, featureSvc, modelRepo, nil, 0, appLogger)
	}

	// Optional scheduled refresh keeps the persisted series current.
	if cfg.Scheduler.Enabled {
		ingestionSvc, err := buildIngestionService(ctx, cfg, appLogger, datasetRepo)
		if err != nil {
			appLogger.Fatal("Failed to initialize ingestion pipeline", logger.ErrorField(err))
		}
		notifier := buildNotifier(cfg, appLogger)
		scheduler, err := service.NewRefreshScheduler(cfg, ingestionSvc, notifier, appLogger)
		if err != nil {
			appLogger.Fatal("Failed to initialize refresh scheduler", logger.ErrorField(err))
		}
		go scheduler.Start(ctx)
	}

	// Initialize Echo server
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.CORS())

	predictHandler := delivery.NewPredictHandler(predictionSvc, appLogger)
	apiV1 := e.Group("/api/v1")
	predictHandler.RegisterRoutes(apiV1)
	e.GET("/health", delivery.Health)

	// Start server
	go func() {
		addr := fmt.Sprintf(":%d", cfg.API.Port)
		appLogger.Info("HTTP server starting", logger.Field("address", addr))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			appLogger.Error("HTTP server failed to start", logger.ErrorField(err))
			stop() // trigger shutdown
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()

	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		appLogger.Fatal("Server forced to shutdown", logger.ErrorField(err))
	}

	appLogger.Info("Server exiting")
}

func runIngest(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()

	if ingestSymbol == "" {
		appLogger.Fatal("--symbol is required")
	}

	datasetRepo := repository.NewDatasetRepository(cfg.Store.DataDir, appLogger)
	ingestionSvc, err := buildIngestionService(ctx, cfg, appLogger, datasetRepo)
	if err != nil {
		appLogger.Fatal("Failed to initialize ingestion pipeline", logger.ErrorField(err))
	}

	end := entity.DateOf(utils.TimeNowUTC())
	start := end.AddDays(-ingestMonths * 30)

	summary, err := ingestionSvc.Ingest(ctx, ingestSymbol, start, end)
	if err != nil {
		appLogger.Fatal("Ingestion failed", logger.ErrorField(err))
	}

	appLogger.Info("Ingestion completed",
		logger.StringField("symbol", summary.Symbol),
		logger.IntField("price_rows", summary.PriceRows),
		logger.IntField("articles", summary.Articles),
		logger.IntField("merged_rows", summary.MergedRows),
	)
}

// buildIngestionService wires the news source and sentiment provider
// selected in the configuration.
func buildIngestionService(ctx context.Context, cfg *config.Config, appLogger *logger.Logger, datasetRepo repository.DatasetRepository) (service.IngestionService, error) {
	priceRepo := repository.NewAlphaVantageRepository(cfg, appLogger)

	var newsRepo repository.NewsRepository
	switch cfg.News.Source {
	case "rss":
		newsRepo = repository.NewRSSNewsRepository(cfg, appLogger)
	default:
		newsRepo = repository.NewFinnhubRepository(cfg, appLogger)
	}

	var sentimentRepo repository.SentimentRepository
	switch cfg.AI.Provider {
	case "gemini":
		genAiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey: cfg.Gemini.APIKey,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
		}
		sentimentRepo, err = repository.NewGeminiSentimentRepository(cfg, appLogger, genAiClient)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Gemini sentiment repository: %w", err)
		}
	default:
		sentimentRepo = repository.NewLexiconSentimentRepository()
	}

	return service.NewIngestionService(priceRepo, newsRepo, sentimentRepo, datasetRepo, buildNotifier(cfg, appLogger), appLogger), nil
}

func buildNotifier(cfg *config.Config, appLogger *logger.Logger) telegram.Notifier {
	if cfg.Telegram.BotToken == "" {
		return telegram.NoopNotifier{}
	}
	notifier, err := telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	if err != nil {
		appLogger.Warn("Failed to initialize Telegram notifier", logger.ErrorField(err))
		return telegram.NoopNotifier{}
	}
	return notifier
}

func main() {
	rootCmd := &cobra.Command{Use: "prediction-service"}

	serveCmd.Flags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "Path to the configuration file")
	ingestCmd.Flags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "Path to the configuration file")
	ingestCmd.Flags().StringVar(&ingestSymbol, "symbol", "", "Ticker symbol to ingest, e.g. AAPL")
	ingestCmd.Flags().IntVar(&ingestMonths, "months", 24, "How many months of history to ingest")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(ingestCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing prediction-service CLI: %s\n", err)
		os.Exit(1)
	}
}
