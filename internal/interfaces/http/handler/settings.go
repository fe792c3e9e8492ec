package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	app "github.com/reimburse/backend/internal/application/reimbursement"
)

// SettingsHandler serves the global settings and the legacy budget configuration
type SettingsHandler struct {
	BaseHandler
	settings *app.SettingsService
}

// NewSettingsHandler creates a new SettingsHandler
func NewSettingsHandler(settings *app.SettingsService) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

// GlobalSettingsBody sets the default project
//
//	@Description	Global settings
type GlobalSettingsBody struct {
	DefaultProjectID uuid.UUID `json:"default_project_id" binding:"required"`
}

// BudgetConfigBody is the legacy application-wide budget
//
//	@Description	Budget configuration
type BudgetConfigBody struct {
	TotalBudget int64         `json:"total_budget" binding:"gte=0" example:"5000000"`
	ByCode      map[int]int64 `json:"by_code"`
}

// GetGlobal godoc
// @ID           getGlobalSettings
// @Summary      Get global settings
// @Tags         settings
// @Produce      json
// @Success      200 {object} APIResponse[app.GlobalSettingsResponse]
// @Security     BearerAuth
// @Router       /settings/global [get]
func (h *SettingsHandler) GetGlobal(c *gin.Context) {
	resp, err := h.settings.GetGlobal(c.Request.Context(), actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// SetGlobal godoc
// @ID           setGlobalSettings
// @Summary      Set the default project
// @Tags         settings
// @Accept       json
// @Produce      json
// @Param        request body GlobalSettingsBody true "Default project"
// @Success      200 {object} APIResponse[app.GlobalSettingsResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /settings/global [put]
func (h *SettingsHandler) SetGlobal(c *gin.Context) {
	var body GlobalSettingsBody
	if !h.bindJSON(c, &body) {
		return
	}
	resp, err := h.settings.SetDefaultProject(c.Request.Context(), actor(c), body.DefaultProjectID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// GetBudgetConfig godoc
// @ID           getBudgetConfig
// @Summary      Get the legacy budget configuration
// @Tags         settings
// @Produce      json
// @Success      200 {object} APIResponse[app.BudgetConfigResponse]
// @Security     BearerAuth
// @Router       /settings/budget-config [get]
func (h *SettingsHandler) GetBudgetConfig(c *gin.Context) {
	resp, err := h.settings.GetBudgetConfig(c.Request.Context(), actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// SetBudgetConfig godoc
// @ID           setBudgetConfig
// @Summary      Set the legacy budget configuration
// @Tags         settings
// @Accept       json
// @Produce      json
// @Param        request body BudgetConfigBody true "Budget"
// @Success      200 {object} APIResponse[app.BudgetConfigResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /settings/budget-config [put]
func (h *SettingsHandler) SetBudgetConfig(c *gin.Context) {
	var body BudgetConfigBody
	if !h.bindJSON(c, &body) {
		return
	}
	resp, err := h.settings.SetBudgetConfig(c.Request.Context(), actor(c), app.BudgetConfigResponse{
		TotalBudget: body.TotalBudget,
		ByCode:      body.ByCode,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
