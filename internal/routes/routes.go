package routes

import (
	"github.com/gin-gonic/gin"

	"lexledger/internal/handlers"
)

func SetupRoutes(
	r *gin.Engine,
	webhookHandler *handlers.WebhookHandler,
	timeEntryHandler *handlers.TimeEntryHandler,
	runHandler *handlers.RunHandler,
	reportHandler *handlers.ReportHandler,
) *gin.Engine {

	// ---- payment processor bridge
	r.POST("/webhooks/payments", webhookHandler.PaymentEvent)

	// ---- billable time intake
	r.POST("/time-entries", timeEntryHandler.Create)

	// ---- manual run triggers
	runs := r.Group("/runs")
	{
		runs.POST("/reconcile", runHandler.Reconcile)
		runs.POST("/invoices", runHandler.GenerateInvoices)
		runs.GET("/digest", runHandler.LastDigest)
	}

	// ---- reports
	r.GET("/clients", reportHandler.ListBalances)
	r.GET("/clients/:id/balance", reportHandler.GetClientBalance)
	r.GET("/invoices", reportHandler.ListInvoices)

	return r
}
