package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"salesflow_backend/internal/pipeline/engine"
	"salesflow_backend/internal/pipeline/ports"
	"salesflow_backend/internal/pipeline/transport"
	"salesflow_backend/platform/apperr"
	"salesflow_backend/platform/httpkit"
	"salesflow_backend/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

type Handler struct {
	eng       *engine.Engine
	directory ports.OwnerDirectory
	validate  *validator.Validator
}

func New(eng *engine.Engine, directory ports.OwnerDirectory, validate *validator.Validator) *Handler {
	return &Handler{eng: eng, directory: directory, validate: validate}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/leads", h.ListLeads)
	rg.POST("/leads", h.CreateLead)
	rg.GET("/leads/:id", h.GetLead)
	rg.PUT("/leads/:id", h.UpdateLead)
	rg.DELETE("/leads/:id", h.DeleteLead)
	rg.PUT("/leads/:id/assign", h.AssignLead)
	rg.POST("/leads/:id/move", h.MoveLead)
	rg.GET("/leads/:id/history", h.ListHistory)
	rg.GET("/leads/:id/follow-ups", h.ListFollowUpsByLead)

	rg.GET("/board", h.Board)
	rg.GET("/stages", h.ListStages)
	rg.GET("/owners", h.ListOwners)

	rg.GET("/follow-ups", h.ListFollowUps)
	rg.POST("/follow-ups", h.CreateFollowUp)
	rg.GET("/follow-ups/:id", h.GetFollowUp)
	rg.PUT("/follow-ups/:id", h.UpdateFollowUp)
	rg.DELETE("/follow-ups/:id", h.DeleteFollowUp)
}

func (h *Handler) CreateLead(c *gin.Context) {
	var req transport.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	lead, err := h.eng.AddLead(c.Request.Context(), engine.AddLeadParams{
		Name:    req.Name,
		Phone:   req.Phone,
		Email:   req.Email,
		Company: req.Company,
		Source:  req.Source,
		Notes:   req.Notes,
		OwnerID: req.OwnerID.Value,
	})
	if err != nil {
		mapEngineError(c, err)
		return
	}

	httpkit.JSON(c, http.StatusCreated, transport.ToLeadResponse(lead))
}

func (h *Handler) ListLeads(c *gin.Context) {
	if stage := c.Query("stage"); stage != "" {
		leads, err := h.eng.LeadsByStage(stage)
		if err != nil {
			mapEngineError(c, err)
			return
		}
		httpkit.OK(c, transport.ToLeadResponses(leads))
		return
	}
	if owner := c.Query("ownerId"); owner != "" {
		ownerID, err := uuid.Parse(owner)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return
		}
		httpkit.OK(c, transport.ToLeadResponses(h.eng.LeadsByOwner(ownerID)))
		return
	}
	httpkit.OK(c, transport.ToLeadResponses(h.eng.Leads()))
}

func (h *Handler) GetLead(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	lead, err := h.eng.GetLead(id)
	if err != nil {
		mapEngineError(c, err)
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(lead))
}

func (h *Handler) UpdateLead(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.UpdateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	lead, err := h.eng.EditLead(c.Request.Context(), id, engine.EditLeadParams{
		Name:    req.Name,
		Phone:   req.Phone,
		Email:   req.Email,
		Company: req.Company,
		Source:  req.Source,
		Notes:   req.Notes,
	})
	if err != nil {
		mapEngineError(c, err)
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(lead))
}

func (h *Handler) DeleteLead(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	if err := h.eng.DeleteLead(c.Request.Context(), id); err != nil {
		mapEngineError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) AssignLead(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.AssignLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	// The engine treats owner IDs as opaque; membership in the workforce
	// directory is enforced at the edge.
	if req.OwnerID != nil {
		if _, err := h.directory.GetOwner(c.Request.Context(), *req.OwnerID); err != nil {
			httpkit.Error(c, http.StatusBadRequest, "unknown owner", err.Error())
			return
		}
	}

	lead, err := h.eng.AssignLead(c.Request.Context(), id, req.OwnerID)
	if err != nil {
		mapEngineError(c, err)
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(lead))
}

func (h *Handler) MoveLead(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.MoveLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	lead, err := h.eng.MoveLead(c.Request.Context(), id, req.FromStage, req.ToStage, identity.UserID())
	if err != nil {
		mapEngineError(c, err)
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(lead))
}

func (h *Handler) ListHistory(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	httpkit.OK(c, transport.ToHistoryResponses(h.eng.HistoryByLead(id)))
}

func (h *Handler) Board(c *gin.Context) {
	httpkit.OK(c, transport.ToBoardResponse(h.eng.Stages().Initial(), h.eng.Board()))
}

func (h *Handler) ListStages(c *gin.Context) {
	httpkit.OK(c, gin.H{
		"stages":       h.eng.Stages().Names(),
		"initialStage": h.eng.Stages().Initial(),
	})
}

func (h *Handler) ListOwners(c *gin.Context) {
	owners, err := h.directory.ListOwners(c.Request.Context())
	if err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "owner directory unavailable", nil)
		return
	}
	out := make([]transport.OwnerResponse, len(owners))
	for i, o := range owners {
		out[i] = transport.OwnerResponse{ID: o.ID, Name: o.Name, Email: o.Email}
	}
	httpkit.OK(c, out)
}

// mapEngineError translates engine sentinels into typed errors for the
// HTTP layer.
func mapEngineError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, engine.ErrLeadNotFound), errors.Is(err, engine.ErrFollowUpNotFound):
		httpkit.HandleError(c, apperr.Wrap(apperr.KindNotFound, err.Error(), err))
	case errors.Is(err, engine.ErrStageMismatch):
		httpkit.HandleError(c, apperr.Wrap(apperr.KindConflict, err.Error(), err))
	case errors.Is(err, engine.ErrUnknownStage), errors.Is(err, engine.ErrNameRequired):
		httpkit.HandleError(c, apperr.Wrap(apperr.KindValidation, err.Error(), err))
	default:
		httpkit.HandleError(c, err)
	}
}
