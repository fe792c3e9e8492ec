package handler

import (
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	app "github.com/reimburse/backend/internal/application/reimbursement"
)

// SettlementHandler serves settlements and their printable reports
type SettlementHandler struct {
	BaseHandler
	settlements *app.SettlementService
	reports     *app.ReportService
}

// NewSettlementHandler creates a new SettlementHandler
func NewSettlementHandler(settlements *app.SettlementService, reports *app.ReportService) *SettlementHandler {
	return &SettlementHandler{settlements: settlements, reports: reports}
}

// SettleBody selects the approved requests to settle together
//
//	@Description	Settlement submission
type SettleBody struct {
	RequestIDs           []uuid.UUID `json:"request_ids" binding:"required,min=1"`
	RequestedBySignature string      `json:"requested_by_signature"`
	ApprovalSignature    string      `json:"approval_signature"`
}

// SignaturesBody replaces the signature images of a settlement
//
//	@Description	Settlement signatures
type SignaturesBody struct {
	RequestedBySignature string `json:"requested_by_signature"`
	ApprovalSignature    string `json:"approval_signature"`
}

// ListSettlementsQuery filters the settlement listing
type ListSettlementsQuery struct {
	ProjectID string `form:"project_id"`
	Committee string `form:"committee" binding:"omitempty,committee"`
	Payee     string `form:"payee"`
	Page      int    `form:"page" binding:"omitempty,min=1"`
	PageSize  int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// Settle godoc
// @ID           createSettlement
// @Summary      Settle approved requests
// @Description  Groups approved requests of one payee, committee and project into a settlement. All requests flip to settled together or nothing is written.
// @Tags         settlements
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key header string false "Client chosen submission key"
// @Param        request body SettleBody true "Requests to settle"
// @Success      201 {object} APIResponse[app.SettlementResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /settlements [post]
func (h *SettlementHandler) Settle(c *gin.Context) {
	var body SettleBody
	if !h.bindJSON(c, &body) {
		return
	}
	resp, err := h.settlements.Settle(c.Request.Context(), actor(c), app.SettleInput{
		RequestIDs:           body.RequestIDs,
		RequestedBySignature: body.RequestedBySignature,
		ApprovalSignature:    body.ApprovalSignature,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// List godoc
// @ID           listSettlements
// @Summary      List settlements
// @Tags         settlements
// @Produce      json
// @Param        project_id query string false "Project filter" format(uuid)
// @Param        committee query string false "Committee filter" Enums(operations, preparation)
// @Param        payee query string false "Payee filter"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} APIResponse[[]app.SettlementResponse]
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /settlements [get]
func (h *SettlementHandler) List(c *gin.Context) {
	var q ListSettlementsQuery
	if !h.bindQuery(c, &q) {
		return
	}
	projectID, err := optionalUUID(q.ProjectID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page, err := h.settlements.List(c.Request.Context(), actor(c), app.ListSettlementsInput{
		ProjectID: projectID,
		Committee: q.Committee,
		Payee:     q.Payee,
		Page:      q.Page,
		PageSize:  q.PageSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(c, page)
}

// Get godoc
// @ID           getSettlement
// @Summary      Get a settlement
// @Tags         settlements
// @Produce      json
// @Param        id path string true "Settlement ID" format(uuid)
// @Success      200 {object} APIResponse[app.SettlementResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /settlements/{id} [get]
func (h *SettlementHandler) Get(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.settlements.Get(c.Request.Context(), actor(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// AttachSignatures godoc
// @ID           attachSettlementSignatures
// @Summary      Set settlement signatures
// @Tags         settlements
// @Accept       json
// @Produce      json
// @Param        id path string true "Settlement ID" format(uuid)
// @Param        request body SignaturesBody true "Signature images"
// @Success      200 {object} APIResponse[app.SettlementResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /settlements/{id}/signatures [put]
func (h *SettlementHandler) AttachSignatures(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var body SignaturesBody
	if !h.bindJSON(c, &body) {
		return
	}
	resp, err := h.settlements.AttachSignatures(c.Request.Context(), actor(c), id, body.RequestedBySignature, body.ApprovalSignature)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ReportPDF godoc
// @ID           exportSettlementPDF
// @Summary      Download the settlement report as PDF
// @Description  Renders the report with receipt images embedded. 503 when no browser is configured.
// @Tags         settlements
// @Produce      application/pdf
// @Param        id path string true "Settlement ID" format(uuid)
// @Success      200 {file} file
// @Failure      404 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /settlements/{id}/report.pdf [get]
func (h *SettlementHandler) ReportPDF(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	report, err := h.reports.ExportSettlementPDF(c.Request.Context(), actor(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	sendFile(c, report.FileName, report.ContentType, report.Data, true)
}

// ReportHTML godoc
// @ID           exportSettlementHTML
// @Summary      Preview the settlement report
// @Tags         settlements
// @Produce      html
// @Param        id path string true "Settlement ID" format(uuid)
// @Success      200 {string} string "HTML document"
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /settlements/{id}/report.html [get]
func (h *SettlementHandler) ReportHTML(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	report, err := h.reports.ExportSettlementHTML(c.Request.Context(), actor(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	sendFile(c, report.FileName, report.ContentType, report.Data, false)
}

// sendFile writes raw bytes with a Content-Disposition carrying a possibly
// non-ASCII file name
func sendFile(c *gin.Context, name, contentType string, data []byte, attachment bool) {
	disposition := "inline"
	if attachment {
		disposition = "attachment"
	}
	c.Header("Content-Disposition", mime.FormatMediaType(disposition, map[string]string{"filename": name}))
	c.Data(http.StatusOK, contentType, data)
}
