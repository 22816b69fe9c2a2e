package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/nan-tic/facturae-b2brouter/internal/application/routing"
	"github.com/nan-tic/facturae-b2brouter/internal/domain/facturae"
	"github.com/nan-tic/facturae-b2brouter/internal/infrastructure/b2brouter"
	"github.com/nan-tic/facturae-b2brouter/internal/infrastructure/postgres"
	httpRouter "github.com/nan-tic/facturae-b2brouter/internal/interfaces/http"
	"github.com/nan-tic/facturae-b2brouter/pkg/config"
	"github.com/nan-tic/facturae-b2brouter/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	defaultService := facturae.Service(cfg.B2BRouter.DefaultService)
	if !defaultService.Valid() {
		panic("FACTURAE_SERVICE no soportado: " + cfg.B2BRouter.DefaultService)
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Bool("b2brouter_production", cfg.B2BRouter.Production).
		Msg("iniciando servicio")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	invoiceRepo := postgres.NewInvoiceRepository(pool)
	router := b2brouter.NewClient(b2brouter.Config{
		Production: cfg.B2BRouter.Production,
		Account:    cfg.B2BRouter.Account,
		APIKey:     cfg.B2BRouter.APIKey,
	})

	submitUC := routing.NewSubmitInvoiceUseCase(invoiceRepo, router, routing.SubmitOptions{
		DefaultService:  defaultService,
		SendAfterImport: cfg.B2BRouter.SendAfterImport,
	}, log.Component("submit"))

	reconcileUC := routing.NewReconcileStatesUseCase(invoiceRepo, router, routing.ReconcileOptions{
		LookbackDays: cfg.B2BRouter.StateUpdateDays,
		DateFrom:     cfg.B2BRouter.DateFrom,
		DateTo:       cfg.B2BRouter.DateTo,
	}, log.Component("reconcile"))

	notificationUC := routing.NewApplyNotificationUseCase(invoiceRepo, log.Component("webhook"))

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Submit:       submitUC,
		Reconcile:    reconcileUC,
		Notification: notificationUC,
		WebhookToken: cfg.B2BRouter.WebhookToken,
	})

	// Ticker de reconciliación opcional. Con intervalo 0 la reconciliación
	// solo corre vía cmd/reconcile (cron del anfitrión) o POST /api/reconcile.
	stopTicker := make(chan struct{})
	if cfg.B2BRouter.UpdateInterval > 0 {
		go runReconcileTicker(cfg.B2BRouter.UpdateInterval, reconcileUC, log, stopTicker)
	}

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")
	close(stopTicker)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("servicio detenido")
}

// runReconcileTicker ejecuta la reconciliación cada interval. El TryLock evita
// solapar pasadas si una tarda más que el intervalo.
func runReconcileTicker(interval time.Duration, uc *routing.ReconcileStatesUseCase, log *logger.Logger, stop <-chan struct{}) {
	var running sync.Mutex
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if !running.TryLock() {
				log.Warn().Msg("pasada de reconciliación anterior aún en curso, saltando")
				continue
			}
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			if _, err := uc.Run(ctx); err != nil {
				log.Error().Err(err).Msg("pasada de reconciliación fallida")
			}
			cancel()
			running.Unlock()
		}
	}
}
