// Package main runs the bank-verified token minting service: bank linking
// endpoints, mint records, the pending-mint reconciler, and optionally a
// custodial mint endpoint when a signing key is configured.
package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"

	"stablemint/internal/api"
	"stablemint/internal/banklink"
	"stablemint/internal/minting"
	"stablemint/internal/observability"
	"stablemint/internal/plaid"
	"stablemint/internal/solana"
	"stablemint/internal/storage"
	chstore "stablemint/internal/storage/clickhouse"
	"stablemint/internal/storage/memory"
	"stablemint/internal/storage/migrations"
	pgstore "stablemint/internal/storage/postgres"
	"stablemint/internal/wallet"
)

// appStores holds the storage implementations behind the service.
type appStores struct {
	users   storage.UserStore
	links   storage.BankLinkStore
	records storage.MintRecordStore
	tokens  storage.TokenStore
	audit   storage.AuditEventStore // nil when no audit backend is configured
}

func main() {
	// .env is optional; flags and real env vars win.
	_ = godotenv.Load()

	addr := flag.String("addr", envOr("SERVER_ADDR", ":8080"), "HTTP listen address")
	rpcEndpoint := flag.String("rpc-endpoint", os.Getenv("SOLANA_RPC_ENDPOINT"), "Solana RPC HTTP endpoint")
	wsEndpoint := flag.String("ws-endpoint", os.Getenv("SOLANA_WS_ENDPOINT"), "Solana WebSocket endpoint (optional, enables push confirmation)")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string (optional, enables the audit trail)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")

	plaidClientID := flag.String("plaid-client-id", os.Getenv("PLAID_CLIENT_ID"), "Plaid client ID")
	plaidSecret := flag.String("plaid-secret", os.Getenv("PLAID_SECRET"), "Plaid secret")
	plaidEnv := flag.String("plaid-env", envOr("PLAID_ENV", plaid.EnvSandbox), "Plaid environment (sandbox|production)")
	degradedSandbox := flag.Bool("degraded-sandbox", envBool("DEGRADED_SANDBOX", true), "Substitute a fallback balance when the aggregator omits one")
	fallbackBalance := flag.Float64("fallback-balance", envFloat("FALLBACK_BALANCE", 1000), "Balance substituted in degraded sandbox mode")

	mintSignerSeed := flag.String("mint-signer-seed", os.Getenv("MINT_SIGNER_SEED"), "Hex ed25519 seed enabling the custodial /api/mint endpoint")
	confirmTimeout := flag.Duration("confirm-timeout", 60*time.Second, "Bound on waiting for transaction confirmation")
	reconcileInterval := flag.Duration("reconcile-interval", 30*time.Second, "Pending mint record reconciliation interval")
	debug := flag.Bool("debug", false, "Enable debug logging")

	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.RFC3339,
	}))
	slog.SetDefault(logger)

	if *rpcEndpoint == "" {
		logger.Error("--rpc-endpoint is required")
		os.Exit(1)
	}
	if !*useMemory && *postgresDSN == "" {
		logger.Error("--postgres-dsn is required (use --use-memory for in-memory storage)")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory, logger)
	if err != nil {
		logger.Error("create stores", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	aggregator := createAggregator(*plaidClientID, *plaidSecret, *plaidEnv, logger)

	linkOpts := banklink.Options{
		DegradedSandbox: *degradedSandbox,
		FallbackBalance: *fallbackBalance,
	}
	if *plaidEnv == plaid.EnvProduction && linkOpts.DegradedSandbox {
		logger.Warn("degraded sandbox mode enabled against production; missing balances will be fabricated")
	}
	linkService := banklink.NewService(aggregator, stores.links, stores.users, stores.audit, linkOpts, logger)

	metrics := observability.NewMetrics("")
	rpc := solana.NewHTTPClient(*rpcEndpoint, solana.WithCallObserver(metrics.ObserveRPC))

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware())

	appAPI := api.New(linkService, stores.links, stores.records, stores.tokens, metrics, logger)
	appAPI.RegisterRoutes(r)

	if *mintSignerSeed != "" {
		mintAPI, closeConfirmer, err := createMintAPI(ctx, *mintSignerSeed, *wsEndpoint, *confirmTimeout, rpc, linkService, stores, metrics, logger)
		if err != nil {
			logger.Error("configure mint endpoint", "error", err)
			os.Exit(1)
		}
		defer closeConfirmer()
		mintAPI.RegisterRoutes(r)
		logger.Info("custodial mint endpoint enabled")
	}

	started := time.Now()
	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", observability.Handler())
	r.Get("/status", func(w http.ResponseWriter, req *http.Request) {
		backend := "postgres"
		if *useMemory {
			backend = "memory"
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":           "running",
			"uptime":           time.Since(started).String(),
			"storage":          backend,
			"audit_trail":      stores.audit != nil,
			"plaid_env":        *plaidEnv,
			"degraded_sandbox": *degradedSandbox,
			"mint_endpoint":    *mintSignerSeed != "",
		})
	})

	reconciler := minting.NewReconciler(rpc, stores.records, stores.audit, metrics, *reconcileInterval, logger)
	go func() {
		if err := reconciler.Run(ctx); err != nil && err != context.Canceled {
			logger.Error("reconciler stopped", "error", err)
		}
	}()

	server := &http.Server{Addr: *addr, Handler: r}

	go func() {
		logger.Info("server listening", "addr", *addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
	logger.Info("shutdown complete")
}

// createStores wires either the in-memory stack or PostgreSQL with an
// optional ClickHouse audit trail, applying embedded migrations.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool, logger *slog.Logger) (*appStores, func(), error) {
	if useMemory {
		links := memory.NewBankLinkStore()
		return &appStores{
			users:   memory.NewUserStore(),
			links:   links,
			records: memory.NewMintRecordStoreWithLinks(links),
			tokens:  memory.NewTokenStore(),
			audit:   memory.NewAuditEventStore(),
		}, func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres migrations: %w", err)
	}

	stores := &appStores{
		users:   pgstore.NewUserStore(pool),
		links:   pgstore.NewBankLinkStore(pool),
		records: pgstore.NewMintRecordStore(pool),
		tokens:  pgstore.NewTokenStore(pool),
	}
	cleanup := func() { pool.Close() }

	if clickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
		if err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
		}
		stores.audit = chstore.NewAuditEventStore(conn)
		cleanup = func() {
			conn.Close()
			pool.Close()
		}
	} else {
		logger.Info("no clickhouse DSN, audit trail disabled")
	}

	return stores, cleanup, nil
}

// createAggregator builds the Plaid client, falling back to a
// misconfigured stub so requests fail with a configuration error instead
// of the server refusing to start.
func createAggregator(clientID, secret, env string, logger *slog.Logger) banklink.Aggregator {
	client, err := plaid.NewClient(plaid.Config{
		ClientID:    clientID,
		Secret:      secret,
		Environment: env,
	})
	if err != nil {
		logger.Warn("plaid credentials missing or invalid, linking disabled", "error", err)
		return banklink.NewMisconfiguredAggregator(err)
	}
	return client
}

// createMintAPI builds the custodial mint pipeline around the configured
// signing key. The WebSocket confirmer is optional; without it the
// pipeline polls for confirmation.
func createMintAPI(ctx context.Context, seedHex, wsEndpoint string, confirmTimeout time.Duration, rpc solana.RPCClient, balances minting.BalanceSource, stores *appStores, metrics *observability.Metrics, logger *slog.Logger) (*api.MintAPI, func(), error) {
	seed, err := hex.DecodeString(seedHex)
	if err != nil {
		return nil, nil, fmt.Errorf("decode mint signer seed: %w", err)
	}
	kp, err := solana.KeypairFromSeed(seed)
	if err != nil {
		return nil, nil, fmt.Errorf("mint signer keypair: %w", err)
	}
	signer := wallet.NewKeypairSigner(kp)

	var confirmer solana.ConfirmationWaiter
	closeConfirmer := func() {}
	if wsEndpoint != "" {
		ws, err := solana.NewWSConfirmer(ctx, wsEndpoint, nil)
		if err != nil {
			logger.Warn("websocket confirmer unavailable, confirmation will poll", "error", err)
		} else {
			confirmer = ws
			closeConfirmer = func() { ws.Close() }
		}
	}

	pipeline := minting.NewPipeline(rpc, confirmer, balances, stores.links, stores.records, stores.tokens, stores.audit, metrics, minting.Options{
		ConfirmTimeout: confirmTimeout,
	}, logger)

	return api.NewMintAPI(pipeline, signer, logger), closeConfirmer, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
