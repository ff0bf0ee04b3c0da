package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"lexledger/internal/repositories"
	"lexledger/internal/services"
)

type ReportHandler struct {
	Service  *services.ReconcileService
	Clients  *repositories.ClientRepository
	Invoices *repositories.InvoiceRepository
}

func NewReportHandler(service *services.ReconcileService, clients *repositories.ClientRepository,
	invoices *repositories.InvoiceRepository) *ReportHandler {
	return &ReportHandler{Service: service, Clients: clients, Invoices: invoices}
}

// ListBalances returns the current balance report for every client.
func (h *ReportHandler) ListBalances(c *gin.Context) {
	balances, gaps, err := h.Service.BalanceReport()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"balances": balances, "gaps": gaps})
}

func (h *ReportHandler) GetClientBalance(c *gin.Context) {
	id := c.Param("id")
	client, err := h.Clients.GetByID(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if client == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "client not found"})
		return
	}

	balances, _, err := h.Service.BalanceReport()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	for _, b := range balances {
		if b.ClientID == id {
			c.JSON(http.StatusOK, gin.H{"client": client, "balance": b})
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "no balance computed for client"})
}

func (h *ReportHandler) ListInvoices(c *gin.Context) {
	month := c.Query("month")
	var err error
	var invoices interface{}
	if month != "" {
		invoices, err = h.Invoices.ListByMonth(month)
	} else {
		invoices, err = h.Invoices.List()
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, invoices)
}
