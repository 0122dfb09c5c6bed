package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"aquadash/internal/backend"
	"aquadash/internal/handlers"
	"aquadash/internal/logger"
	"aquadash/internal/metrics"
	"aquadash/internal/repository"
	"aquadash/internal/server"
	"aquadash/internal/service"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/viper"
)

func main() {
	// load config.yml plus env overrides
	if err := loadConfig(); err != nil {
		// the logger level comes from config, so fall back to a default one here
		logger.New(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}

	log := logger.New(viper.GetString("log.level"))

	// open DB
	db, err := openDB(log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	// upstream script-service client
	upstream, err := backend.New(backend.Config{
		BaseURL:         viper.GetString("upstream.url"),
		Timeout:         viper.GetDuration("upstream.timeout"),
		BreakerFailures: uint32(viper.GetUint("upstream.breaker_failures")),
		BreakerOpenFor:  viper.GetDuration("upstream.breaker_open_for"),
	})
	if err != nil {
		log.Fatalw("failed to build upstream client", "err", err)
	}

	// wire dependencies
	m := metrics.New(prometheus.DefaultRegisterer)
	repos := repository.NewRepository(db)
	services := service.NewService(upstream, repos, m, log, service.Config{
		SettleDelay:       viper.GetDuration("upstream.settle_delay"),
		CalibrationSettle: viper.GetDuration("upstream.calibration_settle"),
		AdminUser:         viper.GetString("auth.admin_user"),
		AdminPass:         viper.GetString("auth.admin_pass"),
		AdminPassHash:     viper.GetString("auth.admin_pass_hash"),
		SigningKey:        viper.GetString("auth.signing_key"),
		TokenTTL:          viper.GetDuration("auth.token_ttl"),
	})
	proxy := handlers.NewProxyForwarder(viper.GetString("upstream.url"), viper.GetDuration("upstream.timeout"))
	apiHandler := handlers.NewHandler(services, proxy, log)

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// start snapshot poller
	go services.Poller.Run(ctx, pollInterval())

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, viper.GetString("port"), apiHandler, log)

	// graceful shutdown
	waitForShutdown(cancel, srv, log)
}

const defaultPollInterval = 10 * time.Second

func pollInterval() time.Duration {
	if d := viper.GetDuration("poll.interval"); d > 0 {
		return d
	}
	return defaultPollInterval
}

func loadConfig() error {
	viper.AddConfigPath("configs") // configs/config.yml
	viper.SetConfigName("config")

	// secrets come from the environment, never from a shipped file:
	// AQUADASH_UPSTREAM_URL, AQUADASH_AUTH_ADMIN_USER, AQUADASH_AUTH_ADMIN_PASS, ...
	viper.SetEnvPrefix("aquadash")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	return viper.ReadInConfig()
}

// openDB initializes the SQLite database using configuration.
func openDB(log *logger.Logger) (*sql.DB, error) {
	dbPath := viper.GetString("db.path")
	if dbPath == "" {
		log.Infow("db.path not set in config; using default file", "default", "aquadash.db")
		dbPath = "aquadash.db"
	}
	return repository.InitDB(dbPath)
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if port == "" {
			port = "8080"
		}
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop background goroutines
	cancel()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalw("server forced to shutdown", "err", err)
	}
}
