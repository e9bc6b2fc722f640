package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yndnr/postvote-go/internal/core/service"
	"github.com/yndnr/postvote-go/internal/infra/buildinfo"
	"github.com/yndnr/postvote-go/internal/infra/confloader"
	"github.com/yndnr/postvote-go/internal/infra/shutdown"
	"github.com/yndnr/postvote-go/internal/infra/tlsroots"
	"github.com/yndnr/postvote-go/internal/server/config"
	"github.com/yndnr/postvote-go/internal/server/httpserver"
	"github.com/yndnr/postvote-go/internal/server/localserver"
	"github.com/yndnr/postvote-go/internal/storage"
	"github.com/yndnr/postvote-go/internal/storage/dynamostore"
	"github.com/yndnr/postvote-go/internal/telemetry/logger"
	"github.com/yndnr/postvote-go/internal/telemetry/metric"
	"github.com/yndnr/postvote-go/pkg/passhash"
)

// storagePingTimeout bounds the ping done on each metrics scrape.
const storagePingTimeout = 2 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile  = flag.String("config", "", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println("postvote-server " + buildinfo.String())
		return nil
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := initLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	info := buildinfo.Get()
	log.Info("starting postvote-server",
		"version", info.Version,
		"commit", info.Commit,
		"config", *configFile)
	log.Debug("effective configuration", "config", config.Sanitize(cfg))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := metric.NewRegistry()

	engine, err := initStorage(ctx, cfg, log, reg)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	shutdownHandler := shutdown.NewHandler(cfg.Server.ShutdownTimeout, log)
	// Hooks run in reverse order of registration.
	shutdownHandler.OnClose("storage", engine.Close)

	if err := reg.Registerer().Register(metric.NewStorageCollector(engine, storagePingTimeout)); err != nil {
		log.Warn("storage collector not registered", "error", err)
	}

	authSvc, postSvc, err := initServices(cfg, engine)
	if err != nil {
		shutdownHandler.Run()
		return fmt.Errorf("init services: %w", err)
	}

	router := httpserver.NewRouter(&httpserver.RouterConfig{
		AuthService:        authSvc,
		PostService:        postSvc,
		Storage:            engine,
		Metrics:            reg,
		Logger:             log,
		CORSAllowedOrigins: cfg.Server.HTTP.CORSAllowedOrigins,
		EnableAudit:        cfg.Server.HTTP.Audit,
	})

	opts := httpserver.Options{
		ReadTimeout:  cfg.Server.HTTP.ReadTimeout,
		WriteTimeout: cfg.Server.HTTP.WriteTimeout,
	}
	if cfg.Server.HTTP.TLSEnabled() {
		reloader, err := tlsroots.NewCertReloader(cfg.Server.HTTP.TLSCertFile, cfg.Server.HTTP.TLSKeyFile,
			tlsroots.WithLogger(log))
		if err != nil {
			shutdownHandler.Run()
			return fmt.Errorf("load tls certificate: %w", err)
		}
		if err := reloader.Start(); err != nil {
			log.Warn("certificate reload disabled", "error", err)
		} else {
			shutdownHandler.OnClose("tls reloader", reloader.Stop)
		}
		opts.TLSConfig = reloader.ServerConfig()
	}

	if path := *configFile; path != "" {
		if w, err := watchConfig(path, log); err != nil {
			log.Warn("configuration reload disabled", "error", err)
		} else {
			shutdownHandler.OnClose("config watcher", w.Stop)
		}
	}

	if path := cfg.Server.Local.SocketPath; path != "" {
		local := localserver.New(path, localserver.NewHandler(localserver.HandlerConfig{
			Storage:  engine,
			Shutdown: shutdownHandler.Trigger,
			Logger:   log,
		}))
		if err := local.Listen(); err != nil {
			shutdownHandler.Run()
			return fmt.Errorf("local socket: %w", err)
		}
		shutdownHandler.OnShutdown("local socket", local.Shutdown)
		go func() {
			log.Info("local management socket listening", "path", path)
			if err := local.Serve(); err != nil {
				log.Error("local socket error", "error", err)
			}
		}()
	}

	httpServer := httpserver.New(cfg.Server.HTTP.Addr, router, opts)
	shutdownHandler.OnShutdown("http server", httpServer.Shutdown)

	go func() {
		log.Info("HTTP server listening",
			"addr", cfg.Server.HTTP.Addr,
			"tls", cfg.Server.HTTP.TLSEnabled(),
			"backend", engine.Backend())

		var err error
		if opts.TLSConfig != nil {
			err = httpServer.ListenAndServeTLS("", "")
		} else {
			err = httpServer.ListenAndServe()
		}
		if err != nil {
			log.Error("HTTP server error", "error", err)
			shutdownHandler.Trigger("http server failed")
		}
	}()

	log.Info("server started, press Ctrl+C to stop")
	if err := shutdownHandler.Wait(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

// loadConfig loads configuration from defaults, file and environment.
func loadConfig(configFile string) (*config.ServerConfig, error) {
	cfg := config.Default()

	opts := []confloader.Option{}
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}

	if err := confloader.NewLoader(opts...).Load(cfg); err != nil {
		return nil, err
	}
	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// initLogger builds the process logger and installs it as the slog default.
func initLogger(cfg *config.ServerConfig) (*slog.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	if err != nil {
		return nil, err
	}
	slog.SetDefault(log)
	return log, nil
}

// initStorage opens the configured storage backend.
func initStorage(ctx context.Context, cfg *config.ServerConfig, log *slog.Logger, reg *metric.Registry) (*storage.Engine, error) {
	badgerCfg := storage.DefaultBadgerConfig(cfg.Storage.DataDir)
	badgerCfg.GCInterval = cfg.Storage.Badger.GCInterval
	badgerCfg.SyncWrites = cfg.Storage.Badger.SyncWrites

	dyn := cfg.Storage.DynamoDB
	return storage.Open(ctx, storage.Config{
		Backend: cfg.Storage.Backend,
		Badger:  badgerCfg,
		DynamoDB: dynamostore.Config{
			Region:          dyn.Region,
			Endpoint:        dyn.Endpoint,
			UsersTable:      dyn.UsersTable,
			PostsTable:      dyn.PostsTable,
			AccessKeyID:     dyn.AccessKeyID,
			SecretAccessKey: dyn.SecretAccessKey,
		},
		CreateTables: dyn.CreateTables,
		Logger:       log,
		Registry:     reg.Registerer(),
	})
}

// initServices builds the domain services on top of the storage engine.
func initServices(cfg *config.ServerConfig, engine *storage.Engine) (*service.AuthService, *service.PostService, error) {
	hasher, err := passhash.New(cfg.Auth.Hasher, passhash.Options{
		PBKDF2Iterations: cfg.Auth.PBKDF2Iterations,
	})
	if err != nil {
		return nil, nil, err
	}

	authSvc := service.NewAuthService(engine.Users, &service.AuthServiceConfig{
		SessionTTL: cfg.Auth.SessionTTL,
		TokenBytes: cfg.Auth.TokenBytes,
		Hasher:     hasher,
	})
	postSvc := service.NewPostService(engine.Posts, authSvc, &service.PostServiceConfig{
		AutoUpvoteAuthor: cfg.Posts.AutoUpvoteAuthor,
		MaxVoteAttempts:  cfg.Posts.MaxVoteAttempts,
	})
	return authSvc, postSvc, nil
}

// watchConfig reloads log.level when the configuration file changes. Other
// keys take effect on restart.
func watchConfig(path string, log *slog.Logger) (*confloader.Watcher, error) {
	w, err := confloader.NewWatcher(path, confloader.WithWatcherLogger(log))
	if err != nil {
		return nil, err
	}

	w.OnChange(func(string) {
		cfg, err := loadConfig(path)
		if err != nil {
			log.Warn("configuration reload failed", "error", err)
			return
		}
		if cfg.Log.Level == logger.GetLevel() {
			return
		}
		if err := logger.SetLevel(cfg.Log.Level); err != nil {
			log.Warn("log level not changed", "error", err)
			return
		}
		log.Info("log level changed", "level", cfg.Log.Level)
	})
	w.StartAsync()
	return w, nil
}
