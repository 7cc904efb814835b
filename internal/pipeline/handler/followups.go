package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"salesflow_backend/internal/pipeline/engine"
	"salesflow_backend/internal/pipeline/transport"
	"salesflow_backend/platform/httpkit"
)

func (h *Handler) CreateFollowUp(c *gin.Context) {
	var req transport.CreateFollowUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.eng.AddFollowUp(c.Request.Context(), engine.AddFollowUpParams{
		Kind:        req.Kind,
		LeadID:      req.LeadID,
		DealID:      req.DealID.Value,
		RepID:       req.RepID.Value,
		ScheduledAt: req.ScheduledAt,
		Notes:       req.Notes,
	})
	if err != nil {
		mapEngineError(c, err)
		return
	}

	resp := transport.CreateFollowUpResponse{
		FollowUp: transport.ToFollowUpResponse(result.FollowUp),
		TaskID:   result.TaskID,
	}
	if result.TaskErr != nil {
		resp.TaskWarning = "delegated task could not be created: " + result.TaskErr.Error()
	}
	httpkit.JSON(c, http.StatusCreated, resp)
}

func (h *Handler) ListFollowUps(c *gin.Context) {
	if deal := c.Query("dealId"); deal != "" {
		dealID, err := uuid.Parse(deal)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return
		}
		httpkit.OK(c, transport.ToFollowUpResponses(h.eng.FollowUpsByDeal(dealID)))
		return
	}
	if rep := c.Query("repId"); rep != "" {
		repID, err := uuid.Parse(rep)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return
		}
		httpkit.OK(c, transport.ToFollowUpResponses(h.eng.FollowUpsByRep(repID)))
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return
		}
		limit = parsed
	}
	httpkit.OK(c, transport.ToFollowUpResponses(h.eng.RecentFollowUps(limit)))
}

func (h *Handler) ListFollowUpsByLead(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	httpkit.OK(c, transport.ToFollowUpResponses(h.eng.FollowUpsByLead(id)))
}

func (h *Handler) GetFollowUp(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	fu, err := h.eng.GetFollowUp(id)
	if err != nil {
		mapEngineError(c, err)
		return
	}
	httpkit.OK(c, transport.ToFollowUpResponse(fu))
}

func (h *Handler) UpdateFollowUp(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.UpdateFollowUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	fu, err := h.eng.UpdateFollowUp(c.Request.Context(), id, engine.UpdateFollowUpParams{
		Kind:        req.Kind,
		ScheduledAt: req.ScheduledAt,
		Outcome:     req.Outcome,
		Notes:       req.Notes,
		DealID:      req.DealID,
		RepID:       req.RepID,
	})
	if err != nil {
		mapEngineError(c, err)
		return
	}
	httpkit.OK(c, transport.ToFollowUpResponse(fu))
}

func (h *Handler) DeleteFollowUp(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	if err := h.eng.DeleteFollowUp(c.Request.Context(), id); err != nil {
		mapEngineError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
