package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fadilmartias/interview-worker/internal/config"
	opshandler "github.com/fadilmartias/interview-worker/internal/domain/fiber/handler"
	"github.com/fadilmartias/interview-worker/internal/domain/kafka"
	kafkahandler "github.com/fadilmartias/interview-worker/internal/domain/kafka/handler"
	"github.com/fadilmartias/interview-worker/internal/middleware"
	"github.com/fadilmartias/interview-worker/internal/observability"
	"github.com/fadilmartias/interview-worker/internal/repository"
	"github.com/fadilmartias/interview-worker/internal/service"
	"github.com/fadilmartias/interview-worker/internal/usecase"
	"github.com/fadilmartias/interview-worker/internal/util"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/pprof"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Could not load .env file")
	}

	appConfig := config.LoadAppConfig()
	logger, err := util.NewLogger(appConfig.IsProduction(), appConfig.Debug)
	if err != nil {
		log.Fatalf("Could not build logger: %v", err)
	}

	os.Exit(exitCode(logger, run(logger, appConfig)))
}

// exitCode logs the outcome of run, flushes the logger and returns the
// process exit status.
func exitCode(logger *zap.Logger, err error) int {
	code := 0
	if err != nil {
		logger.Error("worker exited", zap.Error(err))
		code = 1
	}
	_ = logger.Sync()
	return code
}

func run(logger *zap.Logger, appConfig *config.AppConfig) error {
	// Registered once for the life of the process.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mongoConfig := config.LoadMongoConfig()
	client, err := connectMongo(ctx, mongoConfig)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(closeCtx); err != nil {
			logger.Warn("mongo disconnect failed", zap.Error(err))
		}
	}()
	logger.Info("connected to mongo", zap.String("database", mongoConfig.Database), zap.String("collection", mongoConfig.Collection))

	store := repository.NewCandidateRepository(
		client.Database(mongoConfig.Database).Collection(mongoConfig.Collection),
		mongoConfig.Timeout,
	)

	gemini, err := service.NewGeminiService(ctx, config.LoadGeminiConfig(), logger)
	if err != nil {
		return err
	}
	text, err := textBackend(gemini, logger)
	if err != nil {
		return err
	}

	ocrConfig := config.LoadOCRConfig()
	if version, err := util.CheckTesseract(ctx); err != nil {
		logger.Warn("tesseract not available, resume extraction will fail", zap.Error(err))
	} else {
		logger.Info("tesseract available", zap.String("version", version))
	}
	extractor := util.NewTextExtractor(
		util.FitzRasterizer{},
		util.TesseractRecognizer{Language: ocrConfig.Language},
		ocrConfig.Threshold,
		logger,
	)

	resume := usecase.NewResumeUsecase(store, extractor, service.NewQuestionService(text, logger), logger)
	scoring := usecase.NewScoringUsecase(
		store,
		service.NewSimilarityService(gemini, logger),
		service.NewFeedbackService(text, logger),
		logger,
	)

	router := kafkahandler.NewInterviewHandler(logger)
	router.RegisterTopics(resume, scoring)

	obs := observability.New(appConfig.Name, logger)
	defer obs.Shutdown()

	if appConfig.OpsPort != "" {
		app := newOpsApp(appConfig, obs, gemini)
		go func() {
			logger.Info("ops server listening", zap.String("addr", appConfig.OpsPort))
			if err := app.Listen(appConfig.OpsPort); err != nil {
				logger.Error("ops server stopped", zap.Error(err))
			}
		}()
		defer func() {
			if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
				logger.Warn("ops server shutdown failed", zap.Error(err))
			}
		}()
	}

	kafkaConfig := config.LoadKafkaConfig()
	reader, err := kafka.NewReader(kafkaConfig)
	if err != nil {
		return err
	}
	consumer := kafka.NewConsumer(
		reader,
		middleware.Chain(router.Dispatch, middleware.Instrument(obs), middleware.Recover(logger)),
		kafkaConfig.PollTimeout,
		logger,
	)
	defer func() {
		if err := consumer.Close(); err != nil {
			logger.Warn("kafka reader close failed", zap.Error(err))
		}
	}()

	logger.Info("listening for messages",
		zap.Strings("brokers", kafkaConfig.Brokers),
		zap.String("group_id", kafkaConfig.GroupID),
		zap.Strings("topics", router.Topics()),
	)
	if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("consumer: %w", err)
	}
	logger.Info("shutting down")
	return nil
}

func connectMongo(ctx context.Context, cfg *config.MongoConfig) (*mongo.Client, error) {
	connectCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI).SetTimeout(cfg.Timeout))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

// textBackend picks the generator for question and feedback prompts.
// Embeddings always go through Gemini.
func textBackend(gemini *service.GeminiService, logger *zap.Logger) (service.TextGenerator, error) {
	switch backend := config.LoadGeminiConfig().Backend; backend {
	case "", "gemini":
		return gemini, nil
	case "openrouter":
		return service.NewOpenRouterService(config.LoadOpenRouterConfig(), logger)
	default:
		return nil, fmt.Errorf("unknown GENERATIVE_BACKEND %q", backend)
	}
}

func newOpsApp(appConfig *config.AppConfig, obs *observability.Observability, breaker opshandler.CircuitBreaker) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               appConfig.Name,
		DisableStartupMessage: true,
		ErrorHandler: func(ctx *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError

			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}

			return util.ErrorResponse(ctx, util.ErrorResponseFormat{Code: code, Message: err.Error()}, err)
		},
	})
	app.Use(recover.New(recover.Config{
		EnableStackTrace: !appConfig.IsProduction(),
	}))
	app.Use(pprof.New(pprof.Config{
		Next: func(c *fiber.Ctx) bool {
			return appConfig.IsProduction()
		},
	}))

	opshandler.NewOpsHandler(appConfig.Name, obs, breaker).RegisterRoutes(app)
	return app
}
