package server

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/tbxark/ticketagent/agent"
	"github.com/tbxark/ticketagent/catalog"
	"github.com/tbxark/ticketagent/types"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type CreateSessionResponse struct {
	SessionID string `json:"session_id"`
}

type MessageRequest struct {
	Text           string `json:"text" binding:"required"`
	Requester      string `json:"requester"`
	TargetEmployee string `json:"target_employee"`
}

type Handlers struct {
	engine     Engine
	catalog    *catalog.Catalog
	turnWindow int
}

func (h *Handlers) HandleCreateSession(c *gin.Context) {
	state, err := h.engine.Start(c.Request.Context())
	if err != nil {
		h.internalError(c, "SESSION_CREATE_FAILED", err)
		return
	}
	c.JSON(http.StatusCreated, CreateSessionResponse{SessionID: state.SessionID})
}

func (h *Handlers) HandleGetSession(c *gin.Context) {
	state, ok, err := h.engine.Session(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.internalError(c, "SESSION_LOAD_FAILED", err)
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "session not found", Code: "SESSION_NOT_FOUND"})
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *Handlers) HandleDeleteSession(c *gin.Context) {
	if err := h.engine.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.internalError(c, "SESSION_DELETE_FAILED", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// HandlePostMessage runs one turn. Planning failures and rejected answers are
// regular 200 responses carrying status "error" or "need_more_info".
func (h *Handlers) HandlePostMessage(c *gin.Context) {
	var req MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request: " + err.Error(), Code: "INVALID_REQUEST"})
		return
	}
	ctx := c.Request.Context()
	resp, err := h.engine.Invoke(ctx, &agent.Request{
		SessionID:      c.Param("id"),
		Text:           req.Text,
		Requester:      req.Requester,
		TargetEmployee: req.TargetEmployee,
	})
	if err != nil {
		if ctx.Err() != nil {
			c.JSON(499, ErrorResponse{Error: "request cancelled", Code: "CANCELLED"})
			return
		}
		h.internalError(c, "TURN_FAILED", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handlers) HandleListTurns(c *gin.Context) {
	limit := h.turnWindow
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "limit must be a non-negative integer", Code: "INVALID_LIMIT"})
			return
		}
		limit = n
	}
	turns, err := h.engine.Turns(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		h.internalError(c, "TURNS_LOAD_FAILED", err)
		return
	}
	if turns == nil {
		turns = []types.ChatTurn{}
	}
	c.JSON(http.StatusOK, gin.H{"turns": turns})
}

func (h *Handlers) HandleGetCatalog(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"version":       h.catalog.Version(),
		"service_areas": h.catalog.ServiceAreas(),
	})
}

func (h *Handlers) internalError(c *gin.Context, code string, err error) {
	slog.Error("Request failed", "path", c.FullPath(), "session", c.Param("id"), "code", code, "error", err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Code: code})
}
