// Package server boots the application: config, connections, dependency
// wiring, the middleware chain and graceful shutdown.
package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pizzanova/backend/app/controllers"
	"github.com/pizzanova/backend/app/graph"
	"github.com/pizzanova/backend/app/repositories"
	"github.com/pizzanova/backend/app/routes"
	"github.com/pizzanova/backend/app/services"
	"github.com/pizzanova/backend/config"
	"github.com/pizzanova/backend/pkg/audit"
	"github.com/pizzanova/backend/pkg/cache"
	"github.com/pizzanova/backend/pkg/database"
	"github.com/pizzanova/backend/pkg/logger"
	"github.com/pizzanova/backend/pkg/metrics"
	"github.com/pizzanova/backend/pkg/middleware"
	"github.com/pizzanova/backend/pkg/reqid"
	"github.com/pizzanova/backend/pkg/router"
	"github.com/pizzanova/backend/pkg/storage"
	"github.com/pizzanova/backend/pkg/tracker"
)

const shutdownTimeout = 10 * time.Second

// Run boots everything and blocks until SIGINT/SIGTERM.
func Run() error {
	if err := config.Load(); err != nil {
		return err
	}

	ctx := context.Background()
	if err := database.Connect(ctx); err != nil {
		return err
	}
	defer func() {
		if err := database.Disconnect(context.Background()); err != nil {
			logger.Error("mongo disconnect", "error", err)
		}
	}()

	cache.Connect()
	storage.Connect()
	audit.Start(database.Collection("security_log"))
	defer audit.Close()

	if err := EnsureIndexes(ctx); err != nil {
		return err
	}

	r, err := BuildRouter()
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + config.AppPort(),
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr, "env", config.AppEnv())
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// BuildRouter wires repositories, services, controllers and middleware.
// Split from Run so the CLI route:list command can introspect routes
// without opening connections.
func BuildRouter() (*router.Router, error) {
	userRepo := repositories.NewUserRepository()
	productRepo := repositories.NewProductRepository()
	orderRepo := repositories.NewOrderRepository()

	hub := tracker.NewHub()
	validator := services.NewPriceValidator(productRepo)

	authSvc := services.NewAuthService(userRepo)
	productSvc := services.NewProductService(productRepo)
	cartSvc := services.NewCartService(productRepo)
	orderSvc := services.NewOrderService(orderRepo, userRepo, validator, hub)
	adminSvc := services.NewAdminService(userRepo)

	schema, err := graph.NewSchema(productSvc)
	if err != nil {
		return nil, err
	}

	r := router.New()
	r.Use(
		reqid.Middleware(),
		middleware.Logger,
		middleware.Recovery,
		middleware.CORS(middleware.DefaultCORSOptions()),
		middleware.RateLimit(300, time.Minute),
		metrics.Middleware(),
	)

	routes.Register(r, routes.Deps{
		Auth:         controllers.NewAuthController(authSvc),
		Products:     controllers.NewProductController(productSvc),
		Cart:         controllers.NewCartController(cartSvc),
		Orders:       controllers.NewOrderController(orderSvc, userRepo, hub),
		AdminOrders:  controllers.NewAdminOrderController(orderSvc),
		AdminUsers:   controllers.NewAdminUserController(adminSvc),
		AdminCatalog: controllers.NewAdminProductController(productSvc),
		GraphQL:      graph.Handler(schema),
		Resolver:     accountResolver(userRepo),
	})

	// Serve locally stored product images.
	if config.StorageDefault() == "local" {
		fs := http.StripPrefix("/storage/", http.FileServer(http.Dir(config.StorageLocalRoot())))
		r.Get("/storage/*", "storage", fs.ServeHTTP)
	}

	return r, nil
}

// EnsureIndexes creates every collection index. Called by serve and seed.
func EnsureIndexes(ctx context.Context) error {
	if err := repositories.NewUserRepository().EnsureIndexes(ctx); err != nil {
		return err
	}
	if err := repositories.NewProductRepository().EnsureIndexes(ctx); err != nil {
		return err
	}
	return repositories.NewOrderRepository().EnsureIndexes(ctx)
}

// accountResolver adapts the user repository into the middleware's live
// identity lookup.
func accountResolver(users *repositories.UserRepository) middleware.Resolver {
	return func(ctx context.Context, userID string) (*middleware.Account, error) {
		u, err := users.FindByID(ctx, userID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, middleware.ErrNoAccount
			}
			return nil, err
		}
		return &middleware.Account{
			ID:            u.ID.Hex(),
			Role:          u.Role,
			Email:         u.Email,
			Name:          u.Name,
			Blocked:       u.IsBlocked,
			BlockedReason: u.BlockedReason,
		}, nil
	}
}
