package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/aescanero/spellforge/internal/application/orchestrator"
	"github.com/aescanero/spellforge/internal/application/registry"
	"github.com/aescanero/spellforge/pkg/domain"
	"github.com/aescanero/spellforge/pkg/node"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SpellSubmitRequest represents a spell submission request
type SpellSubmitRequest struct {
	Spell  *domain.Spell  `json:"spell" binding:"required"`
	Inputs map[string]any `json:"inputs"`
}

// SpellSubmitResponse represents a spell submission response
type SpellSubmitResponse struct {
	ExecutionID string    `json:"execution_id"`
	Status      string    `json:"status"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// ComponentResponse describes a registered component
type ComponentResponse struct {
	Name        string        `json:"name"`
	Category    string        `json:"category"`
	Description string        `json:"description,omitempty"`
	Inputs      []node.Socket `json:"inputs"`
	Outputs     []node.Socket `json:"outputs"`
}

// ToolInvokeResponse carries the text a tool produced
type ToolInvokeResponse struct {
	Tool   string `json:"tool"`
	Result string `json:"result"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail represents error details
type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func abort(c *gin.Context, status int, code, message string) {
	c.JSON(status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// abortLookup maps an execution lookup error to a response
func (s *Server) abortLookup(c *gin.Context, err error) {
	if errors.Is(err, orchestrator.ErrExecutionNotFound) {
		abort(c, http.StatusNotFound, "NOT_FOUND", "Spell execution not found")
		return
	}
	s.logger.Error("failed to get spell execution", zap.Error(err))
	abort(c, http.StatusInternalServerError, "STORAGE_ERROR", err.Error())
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	checks := gin.H{"orchestrator": "ok"}
	status := http.StatusOK
	healthy := "healthy"

	if s.health != nil {
		pool := s.health.GetStatus()
		checks["workers"] = pool
		if !pool.Healthy {
			status = http.StatusServiceUnavailable
			healthy = "unhealthy"
		}
	}

	c.JSON(status, gin.H{
		"status":    healthy,
		"timestamp": time.Now().UTC(),
		"checks":    checks,
	})
}

// handleSubmitSpell handles spell submission
func (s *Server) handleSubmitSpell(c *gin.Context) {
	var req SpellSubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.logger.Error("invalid request", zap.Error(err))
		abort(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	executionID, err := s.spells.SubmitSpell(c.Request.Context(), req.Spell, req.Inputs)
	if err != nil {
		s.logger.Error("failed to submit spell", zap.Error(err))
		if errors.Is(err, orchestrator.ErrValidation) {
			abort(c, http.StatusBadRequest, "INVALID_SPELL", err.Error())
			return
		}
		abort(c, http.StatusUnprocessableEntity, "SUBMISSION_FAILED", err.Error())
		return
	}

	c.JSON(http.StatusCreated, SpellSubmitResponse{
		ExecutionID: executionID,
		Status:      string(domain.ExecutionStatusSubmitted),
		SubmittedAt: time.Now().UTC(),
	})
}

// handleListSpells handles listing spell executions
func (s *Server) handleListSpells(c *gin.Context) {
	states, err := s.spells.ListExecutions(c.Request.Context())
	if err != nil {
		s.logger.Error("failed to list spells", zap.Error(err))
		abort(c, http.StatusInternalServerError, "STORAGE_ERROR", err.Error())
		return
	}

	summaries := make([]gin.H, 0, len(states))
	for _, state := range states {
		summaries = append(summaries, statusBody(state))
	}

	c.JSON(http.StatusOK, gin.H{
		"spells": summaries,
		"total":  len(summaries),
	})
}

// handleGetSpell handles getting the full execution state
func (s *Server) handleGetSpell(c *gin.Context) {
	state, err := s.spells.GetStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.abortLookup(c, err)
		return
	}

	c.JSON(http.StatusOK, state)
}

// handleGetStatus handles getting spell status
func (s *Server) handleGetStatus(c *gin.Context) {
	state, err := s.spells.GetStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.abortLookup(c, err)
		return
	}

	c.JSON(http.StatusOK, statusBody(state))
}

func statusBody(state *domain.SpellState) gin.H {
	return gin.H{
		"execution_id": state.ExecutionID,
		"spell_id":     state.Spell.ID,
		"status":       state.Status,
		"error":        state.Error,
		"submitted_at": state.SubmittedAt,
		"started_at":   state.StartedAt,
		"completed_at": state.CompletedAt,
	}
}

// handleGetResult handles getting spell outputs
func (s *Server) handleGetResult(c *gin.Context) {
	state, err := s.spells.GetStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.abortLookup(c, err)
		return
	}

	if !state.Status.IsTerminal() {
		abort(c, http.StatusConflict, "NOT_COMPLETED", "Spell execution not yet completed")
		return
	}

	outputs := make(map[string]any, len(state.NodeStates))
	for id, ns := range state.NodeStates {
		if ns.Status == domain.ExecutionStatusCompleted {
			outputs[id] = ns.Output
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"execution_id": state.ExecutionID,
		"status":       state.Status,
		"error":        state.Error,
		"outputs":      outputs,
		"completed_at": state.CompletedAt,
	})
}

// handleCancelSpell handles spell cancellation
func (s *Server) handleCancelSpell(c *gin.Context) {
	executionID := c.Param("id")

	if err := s.spells.CancelExecution(c.Request.Context(), executionID); err != nil {
		if errors.Is(err, orchestrator.ErrExecutionNotFound) {
			abort(c, http.StatusNotFound, "NOT_FOUND", "Spell execution not found")
			return
		}
		abort(c, http.StatusConflict, "CANCELLATION_FAILED", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"execution_id": executionID,
		"status":       domain.ExecutionStatusCancelled,
		"cancelled_at": time.Now().UTC(),
	})
}

// handleListComponents lists every registered component definition
func (s *Server) handleListComponents(c *gin.Context) {
	defs := s.registry.Definitions()
	components := make([]ComponentResponse, 0, len(defs))
	for _, d := range defs {
		components = append(components, ComponentResponse{
			Name:        d.Name(),
			Category:    d.Category(),
			Description: d.Description(),
			Inputs:      d.Inputs(),
			Outputs:     d.Outputs(),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"components": components,
		"plugins":    s.registry.Plugins(),
	})
}

// handleListTools lists the registered tool ids
func (s *Server) handleListTools(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tools": s.registry.ToolIDs()})
}

// handleInvokeTool runs a registered tool with the server's agent
func (s *Server) handleInvokeTool(c *gin.Context) {
	id := c.Param("id")
	ec := &node.Context{
		Agent:  s.agent,
		Logger: s.logger.With(zap.String("tool", id)),
	}

	result, err := s.registry.InvokeTool(c.Request.Context(), id, ec)
	if err != nil {
		if errors.Is(err, registry.ErrToolNotFound) {
			abort(c, http.StatusNotFound, "TOOL_NOT_FOUND", err.Error())
			return
		}
		s.logger.Error("tool invocation failed", zap.String("tool", id), zap.Error(err))
		abort(c, http.StatusBadGateway, "TOOL_FAILED", err.Error())
		return
	}

	c.JSON(http.StatusOK, ToolInvokeResponse{Tool: id, Result: result})
}
