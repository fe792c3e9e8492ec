package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	app "github.com/reimburse/backend/internal/application/reimbursement"
)

// RequestHandler serves the payment request lifecycle
type RequestHandler struct {
	BaseHandler
	requests *app.RequestService
}

// NewRequestHandler creates a new RequestHandler
func NewRequestHandler(requests *app.RequestService) *RequestHandler {
	return &RequestHandler{requests: requests}
}

// PaymentRequestBody is the content of a new or resubmitted request.
// Field level rules are checked by the domain so every problem is reported at once.
//
//	@Description	Payment request submission
type PaymentRequestBody struct {
	ProjectID   *uuid.UUID        `json:"project_id" example:"00000000-0000-0000-0000-000000000001"`
	Payee       string            `json:"payee" example:"Kim Minji"`
	Phone       string            `json:"phone" example:"010-1234-5678"`
	BankName    string            `json:"bank_name" example:"Shinhan"`
	BankAccount string            `json:"bank_account" example:"110-123-456789"`
	Date        string            `json:"date" example:"2025-03-14"`
	Session     string            `json:"session" example:"2025-1"`
	Committee   string            `json:"committee" example:"operations"`
	Items       []app.LineItemDTO `json:"items"`
	Receipts    []app.ReceiptDTO  `json:"receipts"`
	Comments    string            `json:"comments"`
}

func (b PaymentRequestBody) toInput() app.RequestInput {
	return app.RequestInput{
		ProjectID:   b.ProjectID,
		Payee:       b.Payee,
		Phone:       b.Phone,
		BankName:    b.BankName,
		BankAccount: b.BankAccount,
		Date:        b.Date,
		Session:     b.Session,
		Committee:   b.Committee,
		Items:       b.Items,
		Receipts:    b.Receipts,
		Comments:    b.Comments,
	}
}

// ApproveRequestBody carries the approver's signature image
//
//	@Description	Approval submission
type ApproveRequestBody struct {
	Signature string `json:"signature" binding:"required"`
}

// RejectRequestBody carries the rejection reason
//
//	@Description	Rejection submission
type RejectRequestBody struct {
	Reason string `json:"reason"`
}

// ListRequestsQuery filters the request listing
type ListRequestsQuery struct {
	Status      string `form:"status" binding:"omitempty,oneof=pending approved settled rejected cancelled"`
	Committee   string `form:"committee" binding:"omitempty,committee"`
	ProjectID   string `form:"project_id"`
	RequestedBy string `form:"requested_by"`
	Mine        bool   `form:"mine"`
	Page        int    `form:"page" binding:"omitempty,min=1"`
	PageSize    int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy     string `form:"order_by"`
	OrderDir    string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// Create godoc
// @ID           createPaymentRequest
// @Summary      Submit a payment request
// @Description  Creates a pending request. The submitted banking details are remembered on the caller's profile.
// @Tags         requests
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key header string false "Client chosen submission key"
// @Param        request body PaymentRequestBody true "Request content"
// @Success      201 {object} APIResponse[app.PaymentRequestResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /requests [post]
func (h *RequestHandler) Create(c *gin.Context) {
	var body PaymentRequestBody
	if !h.bindJSON(c, &body) {
		return
	}
	resp, err := h.requests.Create(c.Request.Context(), actor(c), body.toInput())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Resubmit godoc
// @ID           resubmitPaymentRequest
// @Summary      Resubmit a rejected request
// @Description  Creates a new pending request linked to a rejected one the caller submitted
// @Tags         requests
// @Accept       json
// @Produce      json
// @Param        id path string true "Rejected request ID" format(uuid)
// @Param        Idempotency-Key header string false "Client chosen submission key"
// @Param        request body PaymentRequestBody true "Corrected content"
// @Success      201 {object} APIResponse[app.PaymentRequestResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /requests/{id}/resubmit [post]
func (h *RequestHandler) Resubmit(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var body PaymentRequestBody
	if !h.bindJSON(c, &body) {
		return
	}
	resp, err := h.requests.Resubmit(c.Request.Context(), actor(c), id, body.toInput())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// List godoc
// @ID           listPaymentRequests
// @Summary      List payment requests
// @Description  Plain users only see their own requests
// @Tags         requests
// @Produce      json
// @Param        status query string false "Status filter" Enums(pending, approved, settled, rejected, cancelled)
// @Param        committee query string false "Committee filter" Enums(operations, preparation)
// @Param        project_id query string false "Project filter" format(uuid)
// @Param        requested_by query string false "Submitter uid"
// @Param        mine query bool false "Only the caller's requests"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} APIResponse[[]app.PaymentRequestResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /requests [get]
func (h *RequestHandler) List(c *gin.Context) {
	var q ListRequestsQuery
	if !h.bindQuery(c, &q) {
		return
	}
	projectID, err := optionalUUID(q.ProjectID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page, err := h.requests.List(c.Request.Context(), actor(c), app.ListRequestsInput{
		Status:      q.Status,
		Committee:   q.Committee,
		ProjectID:   projectID,
		RequestedBy: q.RequestedBy,
		Mine:        q.Mine,
		Page:        q.Page,
		PageSize:    q.PageSize,
		OrderBy:     q.OrderBy,
		OrderDir:    q.OrderDir,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(c, page)
}

// Get godoc
// @ID           getPaymentRequest
// @Summary      Get a payment request
// @Tags         requests
// @Produce      json
// @Param        id path string true "Request ID" format(uuid)
// @Success      200 {object} APIResponse[app.PaymentRequestResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /requests/{id} [get]
func (h *RequestHandler) Get(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.requests.Get(c.Request.Context(), actor(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Cancel godoc
// @ID           cancelPaymentRequest
// @Summary      Cancel a payment request
// @Description  The submitter may cancel a pending request; approvers may also cancel approved ones
// @Tags         requests
// @Produce      json
// @Param        id path string true "Request ID" format(uuid)
// @Success      200 {object} APIResponse[app.PaymentRequestResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /requests/{id}/cancel [post]
func (h *RequestHandler) Cancel(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.requests.Cancel(c.Request.Context(), actor(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Approve godoc
// @ID           approvePaymentRequest
// @Summary      Approve a pending request
// @Description  Response flags amounts that need director sign-off
// @Tags         requests
// @Accept       json
// @Produce      json
// @Param        id path string true "Request ID" format(uuid)
// @Param        request body ApproveRequestBody true "Approver signature"
// @Success      200 {object} APIResponse[app.ApprovalResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /requests/{id}/approve [post]
func (h *RequestHandler) Approve(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var body ApproveRequestBody
	if !h.bindJSON(c, &body) {
		return
	}
	resp, err := h.requests.Approve(c.Request.Context(), actor(c), id, body.Signature)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Reject godoc
// @ID           rejectPaymentRequest
// @Summary      Reject a pending request
// @Tags         requests
// @Accept       json
// @Produce      json
// @Param        id path string true "Request ID" format(uuid)
// @Param        request body RejectRequestBody true "Rejection reason"
// @Success      200 {object} APIResponse[app.PaymentRequestResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /requests/{id}/reject [post]
func (h *RequestHandler) Reject(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var body RejectRequestBody
	if !h.bindJSON(c, &body) {
		return
	}
	resp, err := h.requests.Reject(c.Request.Context(), actor(c), id, body.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
