package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/joho/godotenv"

	"soulbound.backend/internal/config"
	"soulbound.backend/internal/infrastructure/blockchain"
	"soulbound.backend/internal/infrastructure/datasources/postgres"
	"soulbound.backend/internal/infrastructure/jobs"
	"soulbound.backend/internal/infrastructure/metrics"
	"soulbound.backend/internal/infrastructure/repositories"
	"soulbound.backend/internal/usecases"
	"soulbound.backend/pkg/logger"
)

type reconcileRuntime interface {
	GatewayReady() bool
	ReconcilePending(ctx context.Context, limit int) (int, error)
}

type reconcileDeps struct {
	loadEnv func() error
	loadCfg func() *config.Config
	prepare func(ctx context.Context, cfg *config.Config) (reconcileRuntime, io.Closer, error)
	out     io.Writer
}

type reconcileRuntimeImpl struct {
	jobs.Reconcilers
	gateway *blockchain.CredentialGateway
}

func (r reconcileRuntimeImpl) GatewayReady() bool {
	return r.gateway.IsReady()
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func defaultReconcileDeps() reconcileDeps {
	return reconcileDeps{
		loadEnv: func() error { return godotenv.Load() },
		loadCfg: config.Load,
		prepare: func(ctx context.Context, cfg *config.Config) (reconcileRuntime, io.Closer, error) {
			db, err := postgres.NewConnection(cfg.Database)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to connect db: %w", err)
			}
			sqlDB, err := db.DB()
			if err != nil {
				return nil, nil, fmt.Errorf("failed to init sql db: %w", err)
			}

			m := metrics.Nop()
			gateway := blockchain.NewCredentialGateway(ctx, cfg.Blockchain, m)

			userRepo := repositories.NewUserRepository(db)
			walletRepo := repositories.NewWalletRepository(db)
			credentialRepo := repositories.NewCredentialRepository(db)
			uow := repositories.NewUnitOfWork(db)
			issuer := usecases.NewCredentialIssuer(gateway, credentialRepo, walletRepo, uow)
			ledger := usecases.NewRedemptionUsecase(
				repositories.NewRedemptionCodeRepository(db),
				repositories.NewRedemptionRepository(db),
				repositories.NewEventRepository(db),
				userRepo, walletRepo, credentialRepo, uow, issuer, gateway, m,
			)
			quests := usecases.NewQuestUsecase(
				repositories.NewQuestRepository(db),
				repositories.NewQuestCompletionRepository(db),
				userRepo, walletRepo, credentialRepo, uow, issuer, gateway, m,
			)

			closer := closerFunc(func() error {
				gateway.Close()
				return sqlDB.Close()
			})
			return reconcileRuntimeImpl{Reconcilers: jobs.Reconcilers{ledger, quests}, gateway: gateway}, closer, nil
		},
		out: os.Stdout,
	}
}

func runReconcile(ctx context.Context, args []string, deps reconcileDeps) error {
	def := defaultReconcileDeps()
	if deps.loadEnv == nil {
		deps.loadEnv = def.loadEnv
	}
	if deps.loadCfg == nil {
		deps.loadCfg = def.loadCfg
	}
	if deps.prepare == nil {
		deps.prepare = def.prepare
	}
	if deps.out == nil {
		deps.out = def.out
	}

	fs := flag.NewFlagSet("reconcile", flag.ContinueOnError)
	limit := fs.Int("limit", 100, "maximum pending claims of each kind to inspect")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit <= 0 {
		return fmt.Errorf("--limit must be positive, got %d", *limit)
	}

	if err := deps.loadEnv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	cfg := deps.loadCfg()
	logger.Init(cfg.Server.Env)

	runtime, closer, err := deps.prepare(ctx, cfg)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}

	if !runtime.GatewayReady() {
		return errors.New("credential gateway is not ready; check CHAIN_RPC_URL, MINTER_PRIVATE_KEY and CREDENTIAL_CONTRACT_ADDRESS")
	}

	n, err := runtime.ReconcilePending(ctx, *limit)
	if err != nil {
		return fmt.Errorf("reconcile failed after %d credentials: %w", n, err)
	}

	_, _ = fmt.Fprintf(deps.out, "reconciled=%d\n", n)
	return nil
}

func main() {
	if err := runReconcile(context.Background(), os.Args[1:], defaultReconcileDeps()); err != nil {
		log.Fatal(err)
	}
}
