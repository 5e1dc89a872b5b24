package main

import (
	"context"
	"database/sql"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "tilt_cover/docs"
	"tilt_cover/internal/actuator"
	"tilt_cover/internal/config"
	"tilt_cover/internal/handlers"
	"tilt_cover/internal/logger"
	"tilt_cover/internal/mqtt"
	"tilt_cover/internal/repository"
	"tilt_cover/internal/repository/db"
	"tilt_cover/internal/server"
	"tilt_cover/internal/service"
)

const shutdownTimeout = 10 * time.Second

// @title                       Tilt Cover API
// @version                     1.0
// @description                 Time-based position and tilt control for a motorized window covering.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	configPath := flag.String("config", "configs/config.yml", "path to config.yml")
	flag.Parse()

	// load config.yml
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}

	// init logger
	log := logger.Init(cfg.LogLevel, cfg.LogFormat)
	if dump, err := cfg.Dump(); err == nil {
		log.Debugw("effective_config", "yaml", dump)
	}

	// open DB
	sqlDB, err := openDB(cfg.DB.Path, log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	// relays
	drv, err := actuator.New(cfg.Actuator.ToActuator(), log.Named("actuator"))
	if err != nil {
		log.Fatalw("failed to init actuator", "err", err)
	}
	defer func() {
		if cerr := drv.Close(); cerr != nil {
			log.Errorw("failed to release actuator", "err", cerr)
		}
	}()

	// wire dependencies
	repos := repository.NewRepository(sqlDB)
	services := service.NewService(repos, service.Options{
		Cover:    cfg.Cover.ToCover(),
		Actuator: drv,
		Auth:     service.AuthConfig{SigningKey: cfg.Auth.SigningKey, TokenTTL: cfg.Auth.TokenTTL},
		Log:      log,
	})
	apiHandler := handlers.NewHandler(services, log)

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup

	// the runner owns the cover from here on
	wg.Add(1)
	go func() {
		defer wg.Done()
		services.Runner.Run(ctx, cfg.Runner.Tick)
	}()

	if cfg.MQTT.Enabled {
		startMQTT(ctx, &wg, cfg.MQTT, services, log)
	}

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, cfg.Port, apiHandler, log)

	// graceful shutdown
	waitForShutdown(cancel, srv, log)
	wg.Wait()
}

// openDB initializes the SQLite database.
func openDB(path string, log *logger.Logger) (*sql.DB, error) {
	if path == "" {
		log.Infow("db.path not set in config; using default file", "default", "app.db")
		path = "app.db"
	}
	return db.InitDB(path)
}

func startMQTT(ctx context.Context, wg *sync.WaitGroup, mc config.MQTTConfig, services *service.Service, log *logger.Logger) {
	mcfg := mc.ToMQTT()
	bridge := mqtt.Dial(mcfg, services.Cover, services.StateFeed, log.Named("mqtt"))

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := bridge.Run(ctx); err != nil {
			log.Errorw("mqtt bridge stopped", "err", err)
		}
	}()
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

	// stop background goroutines; the runner halts a moving cover
	cancel()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
