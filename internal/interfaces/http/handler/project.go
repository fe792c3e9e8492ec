package handler

import (
	"github.com/gin-gonic/gin"
	app "github.com/reimburse/backend/internal/application/reimbursement"
)

// ProjectHandler serves projects, their membership and budget usage
type ProjectHandler struct {
	BaseHandler
	projects *app.ProjectService
	budgets  *app.BudgetService
}

// NewProjectHandler creates a new ProjectHandler
func NewProjectHandler(projects *app.ProjectService, budgets *app.BudgetService) *ProjectHandler {
	return &ProjectHandler{projects: projects, budgets: budgets}
}

// ProjectBody is the editable content of a project
//
//	@Description	Project content
type ProjectBody struct {
	Name                      string        `json:"name" example:"2025 Spring Retreat"`
	Description               string        `json:"description"`
	DocumentNo                string        `json:"document_no" example:"2025-001"`
	TotalBudget               int64         `json:"total_budget" binding:"gte=0" example:"5000000"`
	BudgetByCode              map[int]int64 `json:"budget_by_code"`
	DirectorApprovalThreshold int64         `json:"director_approval_threshold" binding:"gte=0" example:"500000"`
	BudgetWarningThreshold    int           `json:"budget_warning_threshold" binding:"gte=0,lte=100" example:"80"`
	IsActive                  *bool         `json:"is_active"`
}

func (b ProjectBody) toInput() app.ProjectInput {
	return app.ProjectInput{
		Name:                      b.Name,
		Description:               b.Description,
		DocumentNo:                b.DocumentNo,
		TotalBudget:               b.TotalBudget,
		BudgetByCode:              b.BudgetByCode,
		DirectorApprovalThreshold: b.DirectorApprovalThreshold,
		BudgetWarningThreshold:    b.BudgetWarningThreshold,
		IsActive:                  b.IsActive,
	}
}

// MembersBody replaces the member list of a project
//
//	@Description	Project members
type MembersBody struct {
	MemberUIDs []string `json:"member_uids" binding:"required"`
}

// ListProjectsQuery filters the project listing
type ListProjectsQuery struct {
	ActiveOnly bool `form:"active_only"`
}

// List godoc
// @ID           listProjects
// @Summary      List projects
// @Description  Plain users see the projects they belong to
// @Tags         projects
// @Produce      json
// @Param        active_only query bool false "Only active projects"
// @Success      200 {object} APIResponse[[]app.ProjectResponse]
// @Security     BearerAuth
// @Router       /projects [get]
func (h *ProjectHandler) List(c *gin.Context) {
	var q ListProjectsQuery
	if !h.bindQuery(c, &q) {
		return
	}
	projects, err := h.projects.List(c.Request.Context(), actor(c), q.ActiveOnly)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, projects)
}

// Get godoc
// @ID           getProject
// @Summary      Get a project
// @Tags         projects
// @Produce      json
// @Param        id path string true "Project ID" format(uuid)
// @Success      200 {object} APIResponse[app.ProjectResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /projects/{id} [get]
func (h *ProjectHandler) Get(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	project, err := h.projects.Get(c.Request.Context(), actor(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, project)
}

// Budget godoc
// @ID           getProjectBudget
// @Summary      Budget usage of a project
// @Description  Approved and settled requests count as used
// @Tags         projects
// @Produce      json
// @Param        id path string true "Project ID" format(uuid)
// @Success      200 {object} APIResponse[app.BudgetUsageResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /projects/{id}/budget [get]
func (h *ProjectHandler) Budget(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	usage, err := h.budgets.Usage(c.Request.Context(), actor(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, usage)
}

// Create godoc
// @ID           createProject
// @Summary      Create a project
// @Tags         projects
// @Accept       json
// @Produce      json
// @Param        request body ProjectBody true "Project content"
// @Success      201 {object} APIResponse[app.ProjectResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /projects [post]
func (h *ProjectHandler) Create(c *gin.Context) {
	var body ProjectBody
	if !h.bindJSON(c, &body) {
		return
	}
	project, err := h.projects.Create(c.Request.Context(), actor(c), body.toInput())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, project)
}

// Update godoc
// @ID           updateProject
// @Summary      Update a project
// @Tags         projects
// @Accept       json
// @Produce      json
// @Param        id path string true "Project ID" format(uuid)
// @Param        request body ProjectBody true "Project content"
// @Success      200 {object} APIResponse[app.ProjectResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /projects/{id} [put]
func (h *ProjectHandler) Update(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var body ProjectBody
	if !h.bindJSON(c, &body) {
		return
	}
	project, err := h.projects.Update(c.Request.Context(), actor(c), id, body.toInput())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, project)
}

// SetMembers godoc
// @ID           setProjectMembers
// @Summary      Replace project members
// @Description  Keeps each user's project list in step with the member list
// @Tags         projects
// @Accept       json
// @Produce      json
// @Param        id path string true "Project ID" format(uuid)
// @Param        request body MembersBody true "Member uids"
// @Success      200 {object} APIResponse[app.MembershipResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /projects/{id}/members [put]
func (h *ProjectHandler) SetMembers(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var body MembersBody
	if !h.bindJSON(c, &body) {
		return
	}
	resp, err := h.projects.SetMembers(c.Request.Context(), actor(c), id, body.MemberUIDs)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
