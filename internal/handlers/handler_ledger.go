package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/crewledger/ledger_backend/internal/apperrors"
	portssvc "github.com/crewledger/ledger_backend/internal/core/ports/services"
	"github.com/crewledger/ledger_backend/internal/dto"
	"github.com/crewledger/ledger_backend/internal/middleware"
	"github.com/crewledger/ledger_backend/internal/utils/money"
)

// ledgerHandler handles HTTP requests related to journal entries.
type ledgerHandler struct {
	ledgerService portssvc.LedgerSvcFacade
}

// newLedgerHandler creates a new ledgerHandler.
func newLedgerHandler(ledgerService portssvc.LedgerSvcFacade) *ledgerHandler {
	return &ledgerHandler{
		ledgerService: ledgerService,
	}
}

// respondWithLedgerError maps service errors onto HTTP responses. Cross-tenant
// references read as not found so account existence never leaks across
// tenants.
func respondWithLedgerError(c *gin.Context, logger *slog.Logger, err error, operation string) {
	var unbalanced *apperrors.UnbalancedError
	switch {
	case errors.As(err, &unbalanced):
		logger.Warn("Unbalanced entry rejected", slog.Int64("delta_cents", unbalanced.DeltaCents))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
			"delta": money.FromCents(unbalanced.DeltaCents),
		})
	case errors.Is(err, apperrors.ErrForeignTenant):
		logger.Warn("Cross-tenant account reference rejected", slog.String("error", err.Error()))
		c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
	case errors.Is(err, apperrors.ErrValidation):
		logger.Warn("Validation error", slog.String("operation", operation), slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Entry not found"})
	case errors.Is(err, apperrors.ErrInvalidTransition):
		logger.Warn("Invalid status transition", slog.String("operation", operation), slog.String("error", err.Error()))
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrConflict):
		logger.Warn("Concurrent conflict not resolved by retries", slog.String("operation", operation))
		c.JSON(http.StatusConflict, gin.H{"error": "Concurrent update conflict, please retry"})
	case errors.Is(err, apperrors.ErrDuplicate):
		logger.Warn("Duplicate entry rejected", slog.String("operation", operation), slog.String("error", err.Error()))
		c.JSON(http.StatusConflict, gin.H{"error": "Reference number already in use"})
	case errors.Is(err, apperrors.ErrPeriodClosed):
		logger.Warn("Posting into closed period rejected", slog.String("operation", operation))
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Accounting period is closed"})
	default:
		logger.Error("Unexpected service error", slog.String("operation", operation), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// requireIdentity pulls the tenant and actor out of the authenticated request
// context, answering 401 when either is missing.
func requireIdentity(c *gin.Context, logger *slog.Logger) (tenantID, actorUserID string, ok bool) {
	tenantID, ok = middleware.GetTenantIDFromContext(c)
	if !ok {
		logger.Error("Tenant ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return "", "", false
	}
	actorUserID, ok = middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return "", "", false
	}
	return tenantID, actorUserID, true
}

// createDraft godoc
// @Summary Create a draft journal entry
// @Description Creates a new entry in DRAFT status; drafts may be unbalanced
// @Tags entries
// @Accept  json
// @Produce  json
// @Param   entry body dto.CreateDraftRequest true "Draft entry"
// @Success 201 {object} dto.EntryResponse
// @Failure 400 {object} map[string]string "Invalid request format"
// @Router /entries [post]
func (h *ledgerHandler) createDraft(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CreateDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for createDraft", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	tenantID, actorUserID, ok := requireIdentity(c, logger)
	if !ok {
		return
	}

	entry, err := h.ledgerService.CreateDraft(c.Request.Context(), tenantID, req, actorUserID)
	if err != nil {
		respondWithLedgerError(c, logger, err, "createDraft")
		return
	}

	logger.Info("Draft entry created", slog.String("entry_id", entry.EntryID))
	c.JSON(http.StatusCreated, dto.ToEntryResponse(entry))
}

// updateDraft godoc
// @Summary Update a draft journal entry
// @Description Replaces the header and full line set of a draft
// @Tags entries
// @Accept  json
// @Produce  json
// @Param   entryID path string true "Entry ID"
// @Param   entry body dto.UpdateDraftRequest true "Updated draft"
// @Success 200 {object} dto.EntryResponse
// @Failure 404 {object} map[string]string "Entry not found"
// @Failure 409 {object} map[string]string "Entry is no longer a draft"
// @Router /entries/{entryID} [put]
func (h *ledgerHandler) updateDraft(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	entryID := c.Param("entryID")

	var req dto.UpdateDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for updateDraft", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	tenantID, actorUserID, ok := requireIdentity(c, logger)
	if !ok {
		return
	}

	entry, err := h.ledgerService.UpdateDraft(c.Request.Context(), tenantID, entryID, req, actorUserID)
	if err != nil {
		respondWithLedgerError(c, logger, err, "updateDraft")
		return
	}
	c.JSON(http.StatusOK, dto.ToEntryResponse(entry))
}

// deleteDraft godoc
// @Summary Delete a draft journal entry
// @Description Hard-deletes a draft; posted entries can only be voided
// @Tags entries
// @Produce  json
// @Param   entryID path string true "Entry ID"
// @Success 204 "Deleted"
// @Failure 404 {object} map[string]string "Entry not found"
// @Failure 409 {object} map[string]string "Entry is no longer a draft"
// @Router /entries/{entryID} [delete]
func (h *ledgerHandler) deleteDraft(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	entryID := c.Param("entryID")

	tenantID, actorUserID, ok := requireIdentity(c, logger)
	if !ok {
		return
	}

	if err := h.ledgerService.DeleteDraft(c.Request.Context(), tenantID, entryID, actorUserID); err != nil {
		respondWithLedgerError(c, logger, err, "deleteDraft")
		return
	}

	logger.Info("Draft entry deleted", slog.String("entry_id", entryID))
	c.Status(http.StatusNoContent)
}

// postEntry godoc
// @Summary Post a draft journal entry
// @Description Validates the draft and atomically transitions it to POSTED with balance effects applied
// @Tags entries
// @Produce  json
// @Param   entryID path string true "Entry ID"
// @Success 200 {object} dto.EntryResponse
// @Failure 400 {object} map[string]string "Entry is unbalanced or invalid"
// @Failure 404 {object} map[string]string "Entry not found"
// @Failure 409 {object} map[string]string "Entry is no longer a draft"
// @Failure 422 {object} map[string]string "Accounting period is closed"
// @Router /entries/{entryID}/post [post]
func (h *ledgerHandler) postEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	entryID := c.Param("entryID")

	tenantID, actorUserID, ok := requireIdentity(c, logger)
	if !ok {
		return
	}

	entry, err := h.ledgerService.Post(c.Request.Context(), tenantID, entryID, actorUserID)
	if err != nil {
		respondWithLedgerError(c, logger, err, "postEntry")
		return
	}

	logger.Info("Entry posted", slog.String("entry_id", entry.EntryID))
	c.JSON(http.StatusOK, dto.ToEntryResponse(entry))
}

// postFromSource godoc
// @Summary Create and post an entry from an external source
// @Description Idempotently posts an entry for an external document; replays return the entry recorded first
// @Tags entries
// @Accept  json
// @Produce  json
// @Param   entry body dto.PostFromSourceRequest true "Source posting"
// @Success 200 {object} dto.EntryResponse
// @Failure 400 {object} map[string]string "Entry is unbalanced or invalid"
// @Failure 422 {object} map[string]string "Accounting period is closed"
// @Router /entries/post-from-source [post]
func (h *ledgerHandler) postFromSource(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.PostFromSourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for postFromSource", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	tenantID, actorUserID, ok := requireIdentity(c, logger)
	if !ok {
		return
	}

	entry, err := h.ledgerService.PostFromSource(c.Request.Context(), tenantID, req, actorUserID)
	if err != nil {
		respondWithLedgerError(c, logger, err, "postFromSource")
		return
	}

	logger.Info("Source entry posted",
		slog.String("entry_id", entry.EntryID),
		slog.String("source_type", string(req.SourceType)),
		slog.String("source_id", req.SourceID),
	)
	c.JSON(http.StatusOK, dto.ToEntryResponse(entry))
}

// voidEntry godoc
// @Summary Void a posted journal entry
// @Description Cancels a posted entry; depending on source type the entry is reversed in place or offset by a reversing entry
// @Tags entries
// @Accept  json
// @Produce  json
// @Param   entryID path string true "Entry ID"
// @Param   void body dto.VoidEntryRequest true "Void reason"
// @Success 200 {object} dto.EntryResponse
// @Failure 400 {object} map[string]string "Reason missing"
// @Failure 404 {object} map[string]string "Entry not found"
// @Failure 409 {object} map[string]string "Entry is not posted"
// @Failure 422 {object} map[string]string "Accounting period is closed"
// @Router /entries/{entryID}/void [post]
func (h *ledgerHandler) voidEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	entryID := c.Param("entryID")

	var req dto.VoidEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for voidEntry", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "A void reason is required"})
		return
	}

	tenantID, actorUserID, ok := requireIdentity(c, logger)
	if !ok {
		return
	}

	entry, err := h.ledgerService.Void(c.Request.Context(), tenantID, entryID, actorUserID, req.Reason)
	if err != nil {
		respondWithLedgerError(c, logger, err, "voidEntry")
		return
	}

	logger.Info("Entry voided", slog.String("entry_id", entry.EntryID))
	c.JSON(http.StatusOK, dto.ToEntryResponse(entry))
}

// getEntry godoc
// @Summary Get a journal entry
// @Description Retrieves an entry with its lines
// @Tags entries
// @Produce  json
// @Param   entryID path string true "Entry ID"
// @Success 200 {object} dto.EntryResponse
// @Failure 404 {object} map[string]string "Entry not found"
// @Router /entries/{entryID} [get]
func (h *ledgerHandler) getEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	entryID := c.Param("entryID")

	tenantID, _, ok := requireIdentity(c, logger)
	if !ok {
		return
	}

	entry, err := h.ledgerService.GetEntry(c.Request.Context(), tenantID, entryID)
	if err != nil {
		respondWithLedgerError(c, logger, err, "getEntry")
		return
	}
	c.JSON(http.StatusOK, dto.ToEntryResponse(entry))
}

// listEntries godoc
// @Summary List journal entries for a date range
// @Description Retrieves entries dated within [from, to], newest first, with cursor pagination
// @Tags entries
// @Produce  json
// @Param   from query string true "Range start (YYYY-MM-DD)"
// @Param   to query string true "Range end (YYYY-MM-DD)"
// @Param   limit query int false "Page size (default 20)"
// @Param   nextToken query string false "Cursor from the previous page"
// @Success 200 {object} dto.ListEntriesResponse
// @Failure 400 {object} map[string]string "Invalid date range"
// @Router /entries [get]
func (h *ledgerHandler) listEntries(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	tenantID, _, ok := requireIdentity(c, logger)
	if !ok {
		return
	}

	from, err := time.Parse("2006-01-02", c.Query("from"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'from' date, expected YYYY-MM-DD"})
		return
	}
	to, err := time.Parse("2006-01-02", c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'to' date, expected YYYY-MM-DD"})
		return
	}
	if to.Before(from) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "'to' must not be before 'from'"})
		return
	}

	params := dto.ListEntriesParams{
		From: from,
		// Entry dates can carry intraday timestamps; the range end is
		// inclusive of its whole day.
		To:    to.Add(24*time.Hour - time.Nanosecond),
		Limit: parseLimit(c),
	}
	if token := c.Query("nextToken"); token != "" {
		params.NextToken = &token
	}

	resp, err := h.ledgerService.ListEntriesForPeriod(c.Request.Context(), tenantID, params)
	if err != nil {
		respondWithLedgerError(c, logger, err, "listEntries")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// listAccountLines godoc
// @Summary List posted lines for an account
// @Description Retrieves the posted journal lines touching an account, newest first, with cursor pagination
// @Tags accounts
// @Produce  json
// @Param   accountID path string true "Account ID"
// @Param   limit query int false "Page size (default 20)"
// @Param   nextToken query string false "Cursor from the previous page"
// @Success 200 {object} dto.ListLinesResponse
// @Failure 404 {object} map[string]string "Account not found"
// @Router /accounts/{accountID}/lines [get]
func (h *ledgerHandler) listAccountLines(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountID := c.Param("accountID")

	tenantID, _, ok := requireIdentity(c, logger)
	if !ok {
		return
	}

	params := dto.ListLinesParams{Limit: parseLimit(c)}
	if token := c.Query("nextToken"); token != "" {
		params.NextToken = &token
	}

	resp, err := h.ledgerService.ListLinesForAccount(c.Request.Context(), tenantID, accountID, params)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
			return
		}
		respondWithLedgerError(c, logger, err, "listAccountLines")
		return
	}
	c.JSON(http.StatusOK, resp)
}

func parseLimit(c *gin.Context) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		return 20
	}
	return limit
}

// registerEntryRoutes registers the journal entry routes.
func registerEntryRoutes(group *gin.RouterGroup, ledgerService portssvc.LedgerSvcFacade) {
	h := newLedgerHandler(ledgerService)

	entries := group.Group("/entries")
	{
		entries.POST("", h.createDraft)
		entries.GET("", h.listEntries)
		entries.POST("/post-from-source", h.postFromSource)
		entries.GET("/:entryID", h.getEntry)
		entries.PUT("/:entryID", h.updateDraft)
		entries.DELETE("/:entryID", h.deleteDraft)
		entries.POST("/:entryID/post", h.postEntry)
		entries.POST("/:entryID/void", h.voidEntry)
	}
}
