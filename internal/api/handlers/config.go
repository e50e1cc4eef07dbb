package handlers

import (
	"net/http"

	"github.com/wonny/momentum/internal/brain"
	"github.com/wonny/momentum/internal/strategyconfig"
	"github.com/wonny/momentum/pkg/logger"
)

// ConfigHandler exposes the active scoring config
type ConfigHandler struct {
	engine *brain.Engine
	logger *logger.Logger
}

// NewConfigHandler creates a new config handler
func NewConfigHandler(engine *brain.Engine, log *logger.Logger) *ConfigHandler {
	return &ConfigHandler{
		engine: engine,
		logger: log,
	}
}

// ConfigResponse is the body of GET /api/config
type ConfigResponse struct {
	StrategyID string                   `json:"strategy_id"`
	Version    string                   `json:"version"`
	ConfigHash string                   `json:"config_hash"`
	Config     *strategyconfig.Config   `json:"config"`
	Warnings   []strategyconfig.Warning `json:"warnings"`
}

// GetConfig returns the active config and its hash
// GET /api/config
func (h *ConfigHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	cfg := h.engine.Config()

	warnings := strategyconfig.Warn(cfg)
	if warnings == nil {
		warnings = []strategyconfig.Warning{}
	}

	respondJSON(w, http.StatusOK, ConfigResponse{
		StrategyID: cfg.Meta.StrategyID,
		Version:    cfg.Meta.Version,
		ConfigHash: h.engine.ConfigHash(),
		Config:     cfg,
		Warnings:   warnings,
	})
}
