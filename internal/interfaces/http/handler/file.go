package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	app "github.com/reimburse/backend/internal/application/reimbursement"
)

// FileHandler serves receipt and bank book uploads and downloads
type FileHandler struct {
	BaseHandler
	files *app.FileService
}

// NewFileHandler creates a new FileHandler
func NewFileHandler(files *app.FileService) *FileHandler {
	return &FileHandler{files: files}
}

// UploadFileBody is one file as a base64 data URI
//
//	@Description	File upload
type UploadFileBody struct {
	Name string `json:"name" binding:"required" example:"receipt.jpg"`
	Data string `json:"data" binding:"required" example:"data:image/jpeg;base64,/9j/4AAQ..."`
}

// UploadReceiptsBody is a batch of receipt files for one committee
//
//	@Description	Receipt upload batch
type UploadReceiptsBody struct {
	Files     []UploadFileBody `json:"files" binding:"required,min=1,dive"`
	Committee string           `json:"committee" binding:"required,committee" example:"operations"`
	ProjectID *uuid.UUID       `json:"project_id"`
}

// DownloadFileBody names a stored object
//
//	@Description	File download
type DownloadFileBody struct {
	Path string `json:"path" binding:"required" example:"receipts/default/operations/1710400000000_receipt.jpg"`
}

// ReceiptArchiveBody selects the requests whose receipts are zipped
//
//	@Description	Receipt archive selection
type ReceiptArchiveBody struct {
	RequestIDs []uuid.UUID `json:"request_ids" binding:"required,min=1"`
}

// UploadReceipts godoc
// @ID           uploadReceipts
// @Summary      Upload receipts
// @Description  Files are stored independently; a failed file carries an error and does not affect the others
// @Tags         files
// @Accept       json
// @Produce      json
// @Param        request body UploadReceiptsBody true "Receipt files"
// @Param        Idempotency-Key header string false "Client chosen submission key"
// @Success      200 {object} APIResponse[[]app.UploadResult]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /files/receipts [post]
func (h *FileHandler) UploadReceipts(c *gin.Context) {
	var body UploadReceiptsBody
	if !h.bindJSON(c, &body) {
		return
	}
	files := make([]app.UploadFile, len(body.Files))
	for i, f := range body.Files {
		files[i] = app.UploadFile{Name: f.Name, Data: f.Data}
	}
	results, err := h.files.UploadReceipts(c.Request.Context(), actor(c), app.UploadReceiptsInput{
		Files:     files,
		Committee: body.Committee,
		ProjectID: body.ProjectID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, results)
}

// UploadBankBook godoc
// @ID           uploadBankBook
// @Summary      Upload the caller's bank book
// @Tags         files
// @Accept       json
// @Produce      json
// @Param        request body UploadFileBody true "Bank book image"
// @Param        Idempotency-Key header string false "Client chosen submission key"
// @Success      200 {object} APIResponse[app.UploadResult]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /files/bankbook [post]
func (h *FileHandler) UploadBankBook(c *gin.Context) {
	var body UploadFileBody
	if !h.bindJSON(c, &body) {
		return
	}
	result, err := h.files.UploadBankBook(c.Request.Context(), actor(c), app.UploadFile{Name: body.Name, Data: body.Data})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Download godoc
// @ID           downloadFile
// @Summary      Download a stored file
// @Description  Returns the object base64 encoded. Bank books are readable by their owner and approvers only.
// @Tags         files
// @Accept       json
// @Produce      json
// @Param        request body DownloadFileBody true "Storage path"
// @Success      200 {object} APIResponse[app.DownloadedFile]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /files/download [post]
func (h *FileHandler) Download(c *gin.Context) {
	var body DownloadFileBody
	if !h.bindJSON(c, &body) {
		return
	}
	file, err := h.files.DownloadFile(c.Request.Context(), actor(c), body.Path)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, file)
}

// ReceiptArchive godoc
// @ID           downloadReceiptArchive
// @Summary      Zip the receipts of requests
// @Description  Receipts that cannot be fetched are skipped and counted in X-Archive-Skipped
// @Tags         files
// @Accept       json
// @Produce      application/zip
// @Param        request body ReceiptArchiveBody true "Requests"
// @Success      200 {file} file
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /files/receipts/archive [post]
func (h *FileHandler) ReceiptArchive(c *gin.Context) {
	var body ReceiptArchiveBody
	if !h.bindJSON(c, &body) {
		return
	}
	archive, err := h.files.ReceiptArchive(c.Request.Context(), actor(c), body.RequestIDs)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.Header("X-Archive-Entries", strconv.Itoa(archive.Entries))
	c.Header("X-Archive-Skipped", strconv.Itoa(archive.Skipped))
	sendFile(c, archive.FileName, "application/zip", archive.Data, true)
}
