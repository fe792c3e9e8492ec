package handler

import (
	"github.com/gin-gonic/gin"
	app "github.com/reimburse/backend/internal/application/reimbursement"
)

// UserHandler serves the caller's profile and user administration
type UserHandler struct {
	BaseHandler
	users *app.UserService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(users *app.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// UpdateProfileBody carries the self-editable profile fields
//
//	@Description	Profile update
type UpdateProfileBody struct {
	DisplayName      string `json:"display_name" example:"Kim Minji"`
	Phone            string `json:"phone" example:"010-1234-5678"`
	BankName         string `json:"bank_name" example:"Shinhan"`
	BankAccount      string `json:"bank_account" example:"110-123-456789"`
	DefaultCommittee string `json:"default_committee" binding:"omitempty,committee" example:"operations"`
	Signature        string `json:"signature"`
}

// ChangeRoleBody sets a user's role
//
//	@Description	Role change
type ChangeRoleBody struct {
	Role string `json:"role" binding:"required,oneof=user approver admin" example:"approver"`
}

// ListUsersQuery filters the user listing
type ListUsersQuery struct {
	Role     string `form:"role" binding:"omitempty,oneof=user approver admin"`
	Search   string `form:"search"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// Me godoc
// @ID           getMyProfile
// @Summary      Get the caller's profile
// @Tags         me
// @Produce      json
// @Success      200 {object} APIResponse[app.UserResponse]
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /me [get]
func (h *UserHandler) Me(c *gin.Context) {
	profile, err := h.users.GetProfile(c.Request.Context(), actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, profile)
}

// UpdateMe godoc
// @ID           updateMyProfile
// @Summary      Update the caller's profile
// @Tags         me
// @Accept       json
// @Produce      json
// @Param        request body UpdateProfileBody true "Profile fields"
// @Success      200 {object} APIResponse[app.UserResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /me [put]
func (h *UserHandler) UpdateMe(c *gin.Context) {
	var body UpdateProfileBody
	if !h.bindJSON(c, &body) {
		return
	}
	profile, err := h.users.UpdateProfile(c.Request.Context(), actor(c), app.UpdateProfileInput{
		DisplayName:      body.DisplayName,
		Phone:            body.Phone,
		BankName:         body.BankName,
		BankAccount:      body.BankAccount,
		DefaultCommittee: body.DefaultCommittee,
		Signature:        body.Signature,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, profile)
}

// List godoc
// @ID           listUsers
// @Summary      List users
// @Tags         users
// @Produce      json
// @Param        role query string false "Role filter" Enums(user, approver, admin)
// @Param        search query string false "Name or email search"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} APIResponse[[]app.UserResponse]
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /users [get]
func (h *UserHandler) List(c *gin.Context) {
	var q ListUsersQuery
	if !h.bindQuery(c, &q) {
		return
	}
	page, err := h.users.List(c.Request.Context(), actor(c), app.ListUsersInput{
		Role:     q.Role,
		Search:   q.Search,
		Page:     q.Page,
		PageSize: q.PageSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(c, page)
}

// ChangeRole godoc
// @ID           changeUserRole
// @Summary      Change a user's role
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        uid path string true "User uid"
// @Param        request body ChangeRoleBody true "New role"
// @Success      200 {object} APIResponse[app.UserResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /users/{uid}/role [put]
func (h *UserHandler) ChangeRole(c *gin.Context) {
	var body ChangeRoleBody
	if !h.bindJSON(c, &body) {
		return
	}
	user, err := h.users.ChangeRole(c.Request.Context(), actor(c), c.Param("uid"), body.Role)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}
