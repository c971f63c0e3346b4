package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/campusconnect/campus-connect/internal/api"
	"github.com/campusconnect/campus-connect/internal/config"
	"github.com/campusconnect/campus-connect/internal/database"
	"github.com/campusconnect/campus-connect/internal/notify"
	"github.com/campusconnect/campus-connect/internal/realtime"
	"github.com/campusconnect/campus-connect/internal/stats"
)

// development only, override with CAMPUS_SIGNING_KEY or -signing-key
const defaultSigningKey = "wT0phFUusHZIrDhL9bUKPUhwaxKhpi/SaI6PtgB+MgU="

func splitOrigins(value string) []string {
	var origins []string
	for _, o := range strings.Split(value, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// usesDefaultSigningKey reports whether key is the published development
// key and logs a warning when it is.
func usesDefaultSigningKey(logger *log.Logger, key string) bool {
	if key != defaultSigningKey {
		return false
	}
	logger.Println("WARNING: using the built-in development signing key, tokens can be forged; set CAMPUS_SIGNING_KEY or -signing-key")
	return true
}

func main() {
	logger := log.New(os.Stderr, "[campus-connect] ", log.LstdFlags)

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Fatal("load .env:", err)
	}

	var env config.EnvSettings
	if err := envconfig.Process("campus", &env); err != nil {
		logger.Fatal("environment:", err)
	}
	if env.SigningKey == "" {
		env.SigningKey = defaultSigningKey
	}

	var (
		addr           string
		dsn            string
		signingKey     string
		allowedOrigins string
		tokenTTL       time.Duration
		migrate        bool
	)
	flag.StringVar(&addr, "addr", env.Addr, "server address")
	flag.StringVar(&dsn, "dsn", env.DSN, "database connection string")
	flag.StringVar(&signingKey, "signing-key", env.SigningKey, "base64 encoded signing key")
	flag.StringVar(&allowedOrigins, "allowed-origins", strings.Join(env.AllowedOrigins, ","), "comma-separated list of allowed origins for CORS and websockets")
	flag.DurationVar(&tokenTTL, "token-ttl", env.TokenTTL, "session token lifetime")
	flag.BoolVar(&migrate, "migrate", env.Migrate, "apply database migrations on startup")
	flag.Parse()

	usesDefaultSigningKey(logger, signingKey)

	cfg, err := config.NewConfig(addr, dsn, signingKey, splitOrigins(allowedOrigins))
	if err != nil {
		logger.Fatal("config:", err)
	}
	cfg.TokenExpiration = tokenTTL

	repo, err := database.NewPgRepository(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("db open:", err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logger.Println("db close:", err)
		}
	}()

	if migrate {
		if err := repo.Migrate(); err != nil {
			logger.Fatal("db migrate:", err)
		}
	}

	mux := http.NewServeMux()
	statsUpdater := stats.NewStatsUpdater(mux)

	hub := realtime.NewHub(logger, statsUpdater)
	notifier := notify.NewService(repo, notify.NewEmitter(logger, hub))
	srv := api.NewApp(mux, logger, hub, repo, notifier, cfg)

	go hub.Run()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		logger.Printf("received signal: %s", sig)
	case err := <-errCh:
		logger.Println("server:", err)
	}

	shutDownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutDownCtx); err != nil {
		logger.Println("HTTP server shutdown:", err)
	}

	logger.Println("shutting down realtime hub...")
	if err := hub.Shutdown(shutDownCtx); err != nil {
		logger.Println("realtime hub shutdown:", err)
	}

	logger.Println("shutdown complete")
}
