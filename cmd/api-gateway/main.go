package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	_ "github.com/EduConnectOfficial/educonnect-api/api/swagger"
	"github.com/EduConnectOfficial/educonnect-api/internal/handler"
	"github.com/EduConnectOfficial/educonnect-api/internal/repository"
	"github.com/EduConnectOfficial/educonnect-api/internal/service"
	"github.com/EduConnectOfficial/educonnect-api/pkg/cache"
	"github.com/EduConnectOfficial/educonnect-api/pkg/config"
	"github.com/EduConnectOfficial/educonnect-api/pkg/database"
	"github.com/EduConnectOfficial/educonnect-api/pkg/logger"
	corsmiddleware "github.com/EduConnectOfficial/educonnect-api/pkg/middleware/cors"
	reqidmiddleware "github.com/EduConnectOfficial/educonnect-api/pkg/middleware/requestid"
)

// @title EduConnect API
// @version 0.1.0
// @description Enrollment, quiz attempts, rewards and teacher analytics
// @BasePath /api
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	mongoClient, db, err := database.NewMongo(cfg.Mongo)
	if err != nil {
		logr.Sugar().Fatalw("mongo connection failed", "error", err)
	}
	defer mongoClient.Disconnect(context.Background()) //nolint:errcheck

	validate := validator.New()
	metrics := service.NewMetricsService()

	// Redis is optional; the API serves uncached when it is absent.
	var cacheSvc *service.CacheService
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, caching disabled", zap.Error(err))
		cacheSvc = service.NewCacheService(nil, metrics, 0, logr, false)
	} else {
		defer redisClient.Close() //nolint:errcheck
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metrics, cfg.Analytics.CacheTTL, logr, true)
	}

	userRepo := repository.NewUserRepository(db)
	classRepo := repository.NewClassRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(mongoClient, db)
	courseRepo := repository.NewCourseRepository(db)
	moduleRepo := repository.NewModuleRepository(db)
	quizRepo := repository.NewQuizRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	completionRepo := repository.NewCompletionRepository(db)
	attemptRepo := repository.NewAttemptRepository(mongoClient, db)
	submissionRepo := repository.NewSubmissionRepository(db)
	counterRepo := repository.NewCounterRepository(db)

	ensureIndexes(logr,
		userRepo.EnsureIndexes,
		enrollmentRepo.EnsureIndexes,
		completionRepo.EnsureIndexes,
		attemptRepo.EnsureIndexes,
		submissionRepo.EnsureIndexes,
	)

	authSvc := service.NewAuthService(service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     "educonnect-api",
	}, logr)

	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, userRepo, classRepo, validate, logr)

	attemptSvc := service.NewQuizAttemptService(quizRepo, attemptRepo, completionRepo, userRepo, cfg.Quiz.DefaultPassingPercent, validate, logr)

	gamificationSvc := service.NewGamificationService(service.GamificationServiceParams{
		Completions:           completionRepo,
		Attempts:              attemptRepo,
		Submissions:           submissionRepo,
		Quizzes:               quizRepo,
		Assignments:           assignmentRepo,
		Mirrors:               enrollmentRepo,
		Courses:               courseRepo,
		Modules:               moduleRepo,
		Users:                 userRepo,
		Metrics:               metrics,
		Logger:                logr,
		PointsPerModule:       cfg.Gamification.PointsPerModule,
		PointsPerOnTimeSubmit: cfg.Gamification.PointsPerOnTimeSubmit,
	})

	analyticsSvc := service.NewTeacherAnalyticsService(service.TeacherAnalyticsParams{
		Classes:           classRepo,
		Courses:           courseRepo,
		Modules:           moduleRepo,
		Quizzes:           quizRepo,
		Rosters:           enrollmentRepo,
		Users:             userRepo,
		Completions:       completionRepo,
		Attempts:          attemptRepo,
		Cache:             cacheSvc,
		Metrics:           metrics,
		Logger:            logr,
		TimeOnTaskQuizCap: cfg.Analytics.TimeOnTaskQuizCap,
		AtRiskScore:       cfg.Analytics.AtRiskScore,
		AtRiskCompletion:  cfg.Analytics.AtRiskCompletion,
		FanOutConcurrency: cfg.Analytics.FanOutConcurrency,
	})

	sequenceSvc := service.NewSequenceService(counterRepo, logr)

	leaderboardSvc := service.NewLeaderboardService(enrollmentRepo, enrollmentRepo, courseRepo, userRepo, gamificationSvc, cacheSvc, cfg.Leaderboard.MaxEntries, validate, logr)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	handler.Register(r, cfg.APIPrefix, handler.Handlers{
		Enrollments: handler.NewEnrollmentHandler(enrollmentSvc),
		Quizzes:     handler.NewQuizHandler(attemptSvc),
		Rewards:     handler.NewRewardsHandler(gamificationSvc),
		Leaderboard: handler.NewLeaderboardHandler(leaderboardSvc),
		Analytics:   handler.NewAnalyticsHandler(analyticsSvc),
		Sequences:   handler.NewSequenceHandler(sequenceSvc),
	}, handler.RouterDeps{
		Auth:    authSvc,
		Metrics: metrics,
		Ready: func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return mongoClient.Ping(ctx, readpref.Primary())
		},
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

func ensureIndexes(logr *zap.Logger, fns ...func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	for _, fn := range fns {
		if err := fn(ctx); err != nil {
			logr.Warn("index creation failed", zap.Error(err))
		}
	}
}
