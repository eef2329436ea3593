package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cartpilot/cartpilot/internal/repositories/postgres"
	"github.com/cartpilot/cartpilot/internal/services"
	"github.com/cartpilot/cartpilot/internal/utils"
)

type AssistantHandler struct {
	orchestration services.OrchestrationService
	carts         services.CartService
	audits        postgres.AuditRepo
}

func NewAssistantHandler(orchestration services.OrchestrationService, carts services.CartService, audits postgres.AuditRepo) *AssistantHandler {
	return &AssistantHandler{orchestration: orchestration, carts: carts, audits: audits}
}

type QueryRequest struct {
	Input         string `json:"input"`
	ConfirmAction bool   `json:"confirm_action"`
	FastMode      bool   `json:"fast_mode"`
}

// Query runs one full assistant cycle for the authenticated user.
// Partial updates go out over the user's room; the response carries the
// final outcome.
func (h *AssistantHandler) Query(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "AssistantHandler.Query", "invalid json body", err))
		return
	}
	if strings.TrimSpace(req.Input) == "" {
		writeError(c, utils.E(utils.CodeInvalidArgument, "AssistantHandler.Query", "input is required", nil))
		return
	}

	outcome, err := h.orchestration.HandleUserInput(c.Request.Context(), userID, req.Input, req.ConfirmAction, nil, req.FastMode)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, outcome)
}

func (h *AssistantHandler) Cart(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	summary, err := h.carts.Summary(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// AuditHistory lists audit records for a user. Admin only.
func (h *AssistantHandler) AuditHistory(c *gin.Context) {
	targetUser := c.Param("user_id")
	if targetUser == "" {
		writeError(c, utils.E(utils.CodeInvalidArgument, "AssistantHandler.AuditHistory", "missing user_id", nil))
		return
	}

	limit := 50
	if s := c.Query("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	rows, err := h.audits.ListByUser(c.Request.Context(), targetUser, limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id": targetUser,
		"records": rows,
	})
}
