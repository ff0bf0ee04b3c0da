package handlers

import (
	"errors"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"

	"lexledger/internal/services"
)

// RunHandler exposes manual triggers for the scheduled jobs. A manual
// trigger racing the scheduled run is answered 409, never interleaved.
type RunHandler struct {
	Service *services.ReconcileService
}

func NewRunHandler(service *services.ReconcileService) *RunHandler {
	return &RunHandler{Service: service}
}

func (h *RunHandler) Reconcile(c *gin.Context) {
	digest, err := h.Service.RunDailySync(time.Now())
	if err != nil {
		if errors.Is(err, services.ErrRunInProgress) {
			c.JSON(http.StatusConflict, gin.H{"error": "a reconciliation run is already in progress"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, digest)
}

var monthPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

type generateInvoicesRequest struct {
	Month string `json:"month"` // YYYY-MM; defaults to the previous month
}

func (h *RunHandler) GenerateInvoices(c *gin.Context) {
	var req generateInvoicesRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	now := time.Now()
	month := req.Month
	if month == "" {
		month = services.PreviousMonth(now)
	}
	if !monthPattern.MatchString(month) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "month must be YYYY-MM"})
		return
	}

	res, err := h.Service.RunInvoiceGeneration(month, now)
	if err != nil {
		if errors.Is(err, services.ErrRunInProgress) {
			c.JSON(http.StatusConflict, gin.H{"error": "a reconciliation run is already in progress"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"month":           month,
		"invoices":        res.NewInvoices,
		"duplicate_skips": res.DuplicateSkips,
		"gaps":            res.Gaps,
	})
}

func (h *RunHandler) LastDigest(c *gin.Context) {
	digest := h.Service.LastDigest()
	if digest == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no run has completed yet"})
		return
	}
	c.JSON(http.StatusOK, digest)
}
