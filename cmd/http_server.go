package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/helpdesk/internal"
	"github.com/frahmantamala/helpdesk/internal/auth"
	"github.com/frahmantamala/helpdesk/internal/db"
	"github.com/frahmantamala/helpdesk/internal/ticket"
	ticketPostgres "github.com/frahmantamala/helpdesk/internal/ticket/postgres"
	"github.com/frahmantamala/helpdesk/internal/transport"
	"github.com/frahmantamala/helpdesk/internal/transport/openapi"
	"github.com/frahmantamala/helpdesk/internal/transport/rest"
	"github.com/frahmantamala/helpdesk/internal/user"
	userPostgres "github.com/frahmantamala/helpdesk/internal/user/postgres"
	"github.com/frahmantamala/helpdesk/pkg/logger"

	"github.com/go-chi/chi"
	"github.com/spf13/cobra"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config *internal.Config
	DB     *db.Handle
	Router *chi.Mux
	Logger *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			deps.Logger.Error("Server failed to start", "error", err)
			_ = deps.DB.Close()
			os.Exit(1)
		}
	}

	if err := deps.DB.Close(); err != nil {
		deps.Logger.Error("Database close error", "error", err)
	}
	deps.Logger.Info("Server stopped")
}

func initializeDependencies(ctx context.Context) (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(config.Observability.Logging.Level, config.Observability.Logging.Format)
	lg := logger.LoggerWrapper()

	handle, err := db.Open(ctx, config.Database, lg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	codec, err := auth.NewJWTCodec(config.Security.JWTSecret, config.Security.JWTAlgorithm)
	if err != nil {
		_ = handle.Close()
		return nil, fmt.Errorf("failed to initialize token codec: %w", err)
	}
	hasher := auth.NewBcryptHasher(config.Security.BCryptCost)

	userRepo := userPostgres.NewUserRepository(handle.Gorm)
	ticketRepo := ticketPostgres.NewTicketRepository(handle.Gorm, handle.SQL)

	authService := auth.NewService(userRepo, hasher, codec, config.Security.AccessTokenDuration, lg)
	userService := user.NewService(userRepo, hasher, lg)
	ticketService := ticket.NewService(ticketRepo, lg)

	routeDeps := rest.Dependencies{
		DB:             handle,
		AuthHandler:    auth.NewHandler(authService),
		RBAC:           auth.NewRBACAuthorization(lg),
		UserHandler:    user.NewHandler(userService),
		TicketHandler:  ticket.NewHandler(ticketService),
		AllowedOrigins: config.Server.Origins(),
		Logger:         lg,
	}
	if config.Observability.Metrics.Enabled {
		routeDeps.MetricsPath = config.Observability.Metrics.Path
	}
	if config.Server.ValidateRequests {
		doc, err := openapi.Load(ctx)
		if err != nil {
			_ = handle.Close()
			return nil, fmt.Errorf("failed to load api document: %w", err)
		}
		routeDeps.Validator, err = openapi.NewValidator(doc, transport.NewBaseHandler(lg))
		if err != nil {
			_ = handle.Close()
			return nil, fmt.Errorf("failed to build request validator: %w", err)
		}
	}

	return &Dependencies{
		Config: config,
		Logger: lg,
		DB:     handle,
		Router: rest.NewRouter(routeDeps),
	}, nil
}
