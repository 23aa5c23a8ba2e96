package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/codearena/judge-api/internal/config"
	"github.com/codearena/judge-api/internal/database"
	"github.com/codearena/judge-api/internal/handler"
	"github.com/codearena/judge-api/internal/middleware"
	"github.com/codearena/judge-api/internal/models"
	"github.com/codearena/judge-api/internal/repository"
	"github.com/codearena/judge-api/internal/router"
	"github.com/codearena/judge-api/internal/service"
	"github.com/codearena/judge-api/pkg/judge"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.User{}, &models.Problem{}, &models.Submission{}, &models.SolvedProblem{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Redis backs the progress cache and verdict pubsub; the service degrades
	// to direct reads without it.
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis url not configured, progress caching disabled")
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Close()
	}

	judgeClient, err := judge.NewHTTPClient(judge.Config{
		BaseURL:      cfg.JudgeURL,
		AuthToken:    cfg.JudgeAuthToken,
		PollInterval: cfg.JudgePollMs,
		PollMax:      cfg.JudgePollMax,
		WaitBudget:   cfg.JudgeWaitBudget,
		Logger:       logger,
	})
	if err != nil {
		log.Fatalf("failed to create judge client: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	problemRepo := repository.NewProblemRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	progressRepo := repository.NewUserProgressRepository(db)

	progressService := service.NewProgressService(progressRepo, redisClient, cfg.ProgressCacheTTL, logger)
	reconciler := service.NewProgressReconciler(progressRepo, progressService, logger)
	verdictPublisher := service.NewVerdictPublisher(redisClient, cfg.EventChannelBase, natsConn, logger)
	evaluationService := service.NewEvaluationService(problemRepo, submissionRepo, reconciler, judgeClient, verdictPublisher, validate, logger)
	problemService := service.NewProblemService(problemRepo, judgeClient, validate, logger)
	submissionService := service.NewSubmissionService(submissionRepo, logger)

	problemHandler := handler.NewProblemHandler(problemService, validate, logger)
	judgeHandler := handler.NewJudgeHandler(evaluationService, validate, logger)
	submissionHandler := handler.NewSubmissionHandler(submissionService, logger)
	progressHandler := handler.NewProgressHandler(progressService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		ProblemHandler:    problemHandler,
		JudgeHandler:      judgeHandler,
		SubmissionHandler: submissionHandler,
		ProgressHandler:   progressHandler,
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
