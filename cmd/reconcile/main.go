// Comando de una sola pasada para el cron del anfitrión: ejecuta la
// reconciliación de estados B2BRouter y termina. Sale con código distinto de
// cero si la pasada aborta.
package main

import (
	"context"
	"os"
	"time"

	"github.com/nan-tic/facturae-b2brouter/internal/application/routing"
	"github.com/nan-tic/facturae-b2brouter/internal/infrastructure/b2brouter"
	"github.com/nan-tic/facturae-b2brouter/internal/infrastructure/postgres"
	"github.com/nan-tic/facturae-b2brouter/pkg/config"
	"github.com/nan-tic/facturae-b2brouter/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{Env: cfg.App.Env, Level: "info"}).Component("reconcile")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

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

	uc := routing.NewReconcileStatesUseCase(invoiceRepo, router, routing.ReconcileOptions{
		LookbackDays: cfg.B2BRouter.StateUpdateDays,
		DateFrom:     cfg.B2BRouter.DateFrom,
		DateTo:       cfg.B2BRouter.DateTo,
	}, log)

	summary, err := uc.Run(ctx)
	if err != nil {
		log.Error().Err(err).Msg("pasada de reconciliación abortada")
		os.Exit(1)
	}

	log.Info().
		Time("date_from", summary.DateFrom).
		Time("date_to", summary.DateTo).
		Int("scanned", summary.Scanned).
		Int("matched", summary.Matched).
		Int("sends", summary.SendsTriggered).
		Int("send_failures", len(summary.SendFailures)).
		Msg("reconciliación terminada")

	if len(summary.SendFailures) > 0 {
		os.Exit(2)
	}
}
