package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/nan-tic/facturae-b2brouter/internal/application/routing"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Submit       *routing.SubmitInvoiceUseCase
	Reconcile    *routing.ReconcileStatesUseCase
	Notification *routing.ApplyNotificationUseCase
	WebhookToken string
}

// Router registra las rutas del servicio.
func Router(app *fiber.App, deps RouterDeps) {
	// Webhook de B2BRouter: la ruta original aceptaba GET, POST y PUT.
	webhook := NewWebhookHandler(deps.Notification, deps.WebhookToken)
	app.Get("/b2brouter", webhook.InvoiceState)
	app.Post("/b2brouter", webhook.InvoiceState)
	app.Put("/b2brouter", webhook.InvoiceState)

	api := app.Group("/api")
	invoices := NewInvoiceHandler(deps.Submit, deps.Reconcile)
	api.Post("/invoices/:id/facturae/send", invoices.Send)
	api.Post("/reconcile", invoices.Reconcile)
}
