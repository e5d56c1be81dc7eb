package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"grocery_backend/internal/config"
	"grocery_backend/internal/database"
	"grocery_backend/internal/handlers"
	"grocery_backend/internal/notify"
	"grocery_backend/internal/orderwindow"
	"grocery_backend/internal/repositories"
	"grocery_backend/internal/router"
	"grocery_backend/internal/services"
	"grocery_backend/internal/trace"
	"grocery_backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg, migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply the schema before serving")
	return cmd
}

func openDB(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	return database.Open(ctx, cfg.DSN(), database.PoolOptions{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
}

func newAdminEmitter(cfg *config.Config) (notify.AdminEmitter, func() error, error) {
	if !cfg.Kafka.Enabled {
		return notify.LogEmitter{}, func() error { return nil }, nil
	}
	emitter, err := notify.NewKafkaEmitter(cfg.Kafka.Brokers, cfg.Kafka.AdminTopic)
	if err != nil {
		return nil, nil, err
	}
	return emitter, emitter.Close, nil
}

func runServe(ctx context.Context, cfg *config.Config, migrate bool) error {
	if cfg.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret must be set (GROCERY_AUTH_JWT_SECRET)")
	}
	tokens, err := utils.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	if err := handlers.RegisterValidators(); err != nil {
		return fmt.Errorf("registering validators: %w", err)
	}

	if cfg.Tracing.Enabled {
		tp, err := trace.InitTracer(ctx, cfg.Tracing.ServiceName)
		if err != nil {
			return fmt.Errorf("failed to init tracer: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(shutdownCtx); err != nil {
				log.Warn().Err(err).Msg("tracer shutdown error")
			}
		}()
	}

	db, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	if migrate {
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
	}

	emitter, closeEmitter, err := newAdminEmitter(cfg)
	if err != nil {
		return fmt.Errorf("creating admin emitter: %w", err)
	}
	defer func() {
		if err := closeEmitter(); err != nil {
			log.Warn().Err(err).Msg("kafka producer close error")
		}
	}()
	dispatcher := notify.NewDispatcher(
		emitter,
		notify.NewWebhookClient(cfg.Webhook.URL, cfg.Webhook.Secret, cfg.Webhook.Timeout),
		notify.Options{Workers: cfg.Notify.Workers, QueueSize: cfg.Notify.QueueSize, JobTimeout: cfg.Notify.JobTimeout},
	)

	settingsRepo := repositories.NewSettingsRepository(db)
	productRepo := repositories.NewProductRepository(db)
	cartRepo := repositories.NewCartRepository(db)
	orderRepo := repositories.NewOrderRepository(db)
	couponRepo := repositories.NewCouponRepository(db)
	tx := repositories.NewTransactor(db)

	window := orderwindow.NewCache(settingsRepo, cfg.Business.OrderWindowTTL, orderwindow.WithLocation(loc))
	if err := window.Refresh(ctx); err != nil {
		log.Warn().Err(err).Msg("initial order window load failed, using defaults")
	}

	couponService := services.NewCouponService(couponRepo, orderRepo, tx, services.CouponPolicy{
		ReferralRewardAmount: cfg.Business.ReferralRewardAmount,
		ReferralRewardTTL:    cfg.Business.ReferralRewardTTL,
		WelcomeCouponAmount:  cfg.Business.WelcomeCouponAmount,
	}, nil)
	checkoutService := services.NewCheckoutService(services.CheckoutDeps{
		Window:            window,
		SettingsRepo:      settingsRepo,
		ProductRepo:       productRepo,
		OrderRepo:         orderRepo,
		CartRepo:          cartRepo,
		Coupons:           couponService,
		Transactor:        tx,
		Events:            dispatcher,
		LookupParallelism: cfg.Business.ProductLookupParallel,
	})
	orderService := services.NewOrderService(orderRepo, dispatcher)
	cartService := services.NewCartService(cartRepo, productRepo)
	settingsService := services.NewSettingsService(settingsRepo, window)

	gin.SetMode(cfg.Server.Mode)
	engine := gin.New()
	router.Setup(engine, router.Handlers{
		Cart:     handlers.NewCartHandler(cartService),
		Orders:   handlers.NewOrderHandler(checkoutService, orderService),
		Coupons:  handlers.NewCouponHandler(couponService),
		Settings: handlers.NewSettingsHandler(settingsService),
		Health:   handlers.NewHealthHandler(db),
	}, router.Options{
		ServiceName: cfg.Tracing.ServiceName,
		CORSOrigins: cfg.Server.CORSOrigins,
		Tokens:      tokens,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		utils.LogInfo("Server starting", map[string]interface{}{"port": cfg.Server.Port})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown error")
	}
	if err := dispatcher.Close(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("notification queue not drained")
	}
	log.Info().Msg("server stopped")
	return nil
}
