package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"soulbound.backend/internal/config"
	"soulbound.backend/internal/infrastructure/blockchain"
	"soulbound.backend/internal/infrastructure/datasources/postgres"
	"soulbound.backend/internal/infrastructure/jobs"
	"soulbound.backend/internal/infrastructure/metrics"
	"soulbound.backend/internal/infrastructure/repositories"
	"soulbound.backend/internal/interfaces/http/handlers"
	"soulbound.backend/internal/interfaces/http/middleware"
	"soulbound.backend/internal/usecases"
	"soulbound.backend/pkg/crypto"
	"soulbound.backend/pkg/jwt"
	"soulbound.backend/pkg/logger"
	"soulbound.backend/pkg/redis"
)

var (
	loadDotenv  = godotenv.Load
	loadCfg     = config.Load
	initLog     = logger.Init
	initRedis   = redis.Init
	openDB      = postgres.NewConnection
	migrateDB   = postgres.Migrate
	newGateway  = blockchain.NewCredentialGateway
	runServer   = serveUntilDone
	getStdDB    = func(db *gorm.DB) (*sql.DB, error) { return db.DB() }
	newRegistry = func() *prometheus.Registry {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		return reg
	}
)

func main() {
	if err := runMainProcess(); err != nil {
		log.Fatal(err)
	}
}

func runMainProcess() error {
	// Load .env file
	if err := loadDotenv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := loadCfg()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	initLog(cfg.Server.Env)
	logger.Info(context.Background(), "Logger initialized", zap.String("env", cfg.Server.Env))

	if err := initRedis(cfg.Redis.URL, cfg.Redis.PASSWORD); err != nil {
		logger.Error(context.Background(), "Failed to initialize Redis", zap.Error(err))
		return fmt.Errorf("failed to initialize redis: %w", err)
	}
	logger.Info(context.Background(), "Redis initialized")

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := openDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	sqlDB, err := getStdDB(db)
	if err != nil {
		return fmt.Errorf("failed to get generic database object: %w", err)
	}
	defer sqlDB.Close()

	if err := migrateDB(db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	logger.Info(context.Background(), "Connected to PostgreSQL via GORM")

	keyCipher, err := crypto.NewKeyCipher(cfg.Security.WalletEncryptionKey)
	if err != nil {
		return fmt.Errorf("failed to initialize key cipher: %w", err)
	}

	jwtService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiry)
	nonceStore := redis.NewNonceStore(redis.GetClient(), cfg.Security.WalletNonceTTL)

	registry := newRegistry()
	m := metrics.New(registry)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// A gateway that cannot initialize stays not-ready; redemptions and quest completions are then recorded as pending.
	gateway := newGateway(ctx, cfg.Blockchain, m)
	defer gateway.Close()

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	eventRepo := repositories.NewEventRepository(db)
	walletRepo := repositories.NewWalletRepository(db)
	codeRepo := repositories.NewRedemptionCodeRepository(db)
	redemptionRepo := repositories.NewRedemptionRepository(db)
	credentialRepo := repositories.NewCredentialRepository(db)
	questRepo := repositories.NewQuestRepository(db)
	completionRepo := repositories.NewQuestCompletionRepository(db)
	uow := repositories.NewUnitOfWork(db)

	// Initialize usecases
	custodyUsecase := usecases.NewCustodyUsecase(walletRepo, keyCipher)
	walletUsecase := usecases.NewWalletUsecase(walletRepo, nonceStore, m)
	issuer := usecases.NewCredentialIssuer(gateway, credentialRepo, walletRepo, uow)
	redemptionUsecase := usecases.NewRedemptionUsecase(
		codeRepo, redemptionRepo, eventRepo, userRepo, walletRepo, credentialRepo, uow, issuer, gateway, m,
	)
	questUsecase := usecases.NewQuestUsecase(
		questRepo, completionRepo, userRepo, walletRepo, credentialRepo, uow, issuer, gateway, m,
	)
	credentialUsecase := usecases.NewCredentialUsecase(credentialRepo, walletRepo, gateway)

	// Initialize handlers
	walletHandler := handlers.NewWalletHandler(walletUsecase, custodyUsecase, credentialUsecase)
	redemptionHandler := handlers.NewRedemptionHandler(redemptionUsecase)
	credentialHandler := handlers.NewCredentialHandler(credentialUsecase)
	questHandler := handlers.NewQuestHandler(questUsecase)

	// Start background jobs
	reconcileJob := jobs.NewPendingCredentialJob(
		jobs.Reconcilers{redemptionUsecase, questUsecase}, cfg.Jobs.ReconcileInterval, cfg.Jobs.ReconcileBatchSize)
	go reconcileJob.Start(ctx)
	defer reconcileJob.Stop()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggerMiddleware())

	applyCORSMiddleware(r)
	registerHealthRoute(r)
	registerMetricsRoute(r, registry)
	registerAPIV1Routes(r, routeDeps{
		walletHandler:     walletHandler,
		redemptionHandler: redemptionHandler,
		credentialHandler: credentialHandler,
		questHandler:      questHandler,
		authMiddleware:    middleware.AuthMiddleware(jwtService),
	})

	for _, route := range r.Routes() {
		logger.Debug(ctx, "Registered route", zap.String("method", route.Method), zap.String("path", route.Path))
	}

	logger.Info(ctx, "Soulbound backend starting",
		zap.String("port", cfg.Server.Port),
		zap.Bool("gateway_ready", gateway.IsReady()),
	)

	if err := runServer(ctx, r, cfg.Server.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// serveUntilDone serves r until ctx is cancelled, then drains in-flight requests.
func serveUntilDone(ctx context.Context, r *gin.Engine, port string) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info(context.Background(), "Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
