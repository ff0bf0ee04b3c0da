package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"lexledger/internal/models"
	"lexledger/internal/repositories"
)

// TimeEntryHandler records billable time. Balances pick the entry up
// on the next reconciliation run.
type TimeEntryHandler struct {
	Entries *repositories.TimeEntryRepository
}

func NewTimeEntryHandler(entries *repositories.TimeEntryRepository) *TimeEntryHandler {
	return &TimeEntryHandler{Entries: entries}
}

type timeEntryRequest struct {
	Date        string `json:"date" binding:"required"` // YYYY-MM-DD
	ClientID    string `json:"client_id"`
	MatterID    string `json:"matter_id"`
	LawyerID    string `json:"lawyer_id" binding:"required"`
	Hours       string `json:"hours" binding:"required"`
	Description string `json:"description"`
}

func (h *TimeEntryHandler) Create(c *gin.Context) {
	var req timeEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}
	hours, err := decimal.NewFromString(req.Hours)
	if err != nil || hours.Sign() <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "hours must be a positive decimal"})
		return
	}
	if req.ClientID == "" && req.MatterID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "client_id or matter_id is required"})
		return
	}

	id, err := h.Entries.Insert(&models.TimeEntry{
		Date:        date,
		ClientID:    req.ClientID,
		MatterID:    req.MatterID,
		LawyerID:    req.LawyerID,
		Hours:       hours,
		Description: req.Description,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}
