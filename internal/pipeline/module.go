// Package pipeline provides the sales pipeline bounded context module.
// This file defines the module that encapsulates engine setup and route
// registration.
package pipeline

import (
	"salesflow_backend/internal/events"
	apphttp "salesflow_backend/internal/http"
	"salesflow_backend/internal/pipeline/domain"
	"salesflow_backend/internal/pipeline/engine"
	"salesflow_backend/internal/pipeline/handler"
	"salesflow_backend/internal/pipeline/ports"
	"salesflow_backend/platform/config"
	"salesflow_backend/platform/logger"
	"salesflow_backend/platform/validator"
)

// Module is the pipeline bounded context module implementing http.Module.
type Module struct {
	engine  *engine.Engine
	handler *handler.Handler
}

// NewModule creates and initializes the pipeline module with its dependencies.
// The task creator is the adapter into the external task subsystem; the owner
// directory resolves sales team members for assignment.
func NewModule(
	cfg config.PipelineConfig,
	tasks ports.TaskCreator,
	directory ports.OwnerDirectory,
	eventBus events.Bus,
	val *validator.Validator,
	log *logger.Logger,
) (*Module, error) {
	stages, err := domain.NewStageSet(cfg.GetStageNames(), cfg.GetInitialStage())
	if err != nil {
		return nil, err
	}

	eng := engine.New(stages, tasks, eventBus, log)
	h := handler.New(eng, directory, val)

	return &Module{engine: eng, handler: h}, nil
}

// Name returns the module identifier.
func (m *Module) Name() string { return "pipeline" }

// RegisterRoutes mounts the pipeline routes. All routes require auth: stage
// moves record the acting user on the history ledger.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/pipeline"))
}

// Engine exposes the pipeline engine for cross-module wiring in the
// composition root.
func (m *Module) Engine() *engine.Engine { return m.engine }
