package reimbursement

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/reimburse/backend/internal/domain/reimbursement"
	"github.com/reimburse/backend/internal/domain/shared"
	"go.uber.org/zap"
)

const (
	receiptsPrefix     = "receipts"
	bankBookPrefix     = "bankbook"
	defaultProjectSlug = "default"
)

// AllowedUploadTypes are the content types accepted for receipts and bank books
var AllowedUploadTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"image/webp":      true,
	"application/pdf": true,
}

// FileService uploads and downloads receipts and bank books through object storage
type FileService struct {
	storage     ObjectStorage
	userRepo    reimbursement.UserRepository
	requestRepo reimbursement.PaymentRequestRepository
	logger      *zap.Logger
	now         func() time.Time
}

// NewFileService creates a new FileService
func NewFileService(
	storage ObjectStorage,
	userRepo reimbursement.UserRepository,
	requestRepo reimbursement.PaymentRequestRepository,
	logger *zap.Logger,
) *FileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileService{
		storage:     storage,
		userRepo:    userRepo,
		requestRepo: requestRepo,
		logger:      logger,
		now:         time.Now,
	}
}

// UploadReceipts stores each file independently under the committee's folder.
// A failed file yields an entry with Error set and does not affect the others.
func (s *FileService) UploadReceipts(ctx context.Context, actor reimbursement.Actor, in UploadReceiptsInput) ([]UploadResult, error) {
	if err := actor.RequireAuthenticated(); err != nil {
		return nil, err
	}
	if len(in.Files) == 0 {
		return nil, shared.NewDomainError("INVALID_ARGUMENT", "No files to upload")
	}
	committee := reimbursement.Committee(in.Committee)
	if !committee.IsValid() {
		return nil, shared.NewDomainError("INVALID_ARGUMENT", reimbursement.MsgCommitteeInvalid)
	}

	folder := defaultProjectSlug
	if in.ProjectID != nil {
		folder = in.ProjectID.String()
	}

	results := make([]UploadResult, len(in.Files))
	for i, f := range in.Files {
		name := cleanFileName(f.Name)
		// the batch index keeps same-named files from sharing a key
		key := fmt.Sprintf("%s/%s/%s/%d_%d_%s", receiptsPrefix, folder, committee, s.now().UnixMilli(), i, name)
		results[i] = s.upload(ctx, key, name, f.Data)
	}

	failed := 0
	for _, r := range results {
		if !r.OK() {
			failed++
		}
	}
	s.logger.Info("receipts uploaded",
		zap.String("uid", actor.UID),
		zap.Int("files", len(results)),
		zap.Int("failed", failed))
	return results, nil
}

// UploadBankBook stores the caller's bank book and records it on their profile
func (s *FileService) UploadBankBook(ctx context.Context, actor reimbursement.Actor, f UploadFile) (*UploadResult, error) {
	if err := actor.RequireAuthenticated(); err != nil {
		return nil, err
	}
	name := cleanFileName(f.Name)
	key := fmt.Sprintf("%s/%s/%d_%s", bankBookPrefix, actor.UID, s.now().UnixMilli(), name)

	result := s.upload(ctx, key, name, f.Data)
	if !result.OK() {
		return nil, shared.NewDomainError("INVALID_ARGUMENT", result.Error)
	}

	user, err := s.userRepo.FindByUID(ctx, actor.UID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("NOT_FOUND", "User not found")
		}
		return nil, err
	}
	user.SetBankBook(result.URL, result.StoragePath)
	if err := s.userRepo.SaveWithLock(ctx, user); err != nil {
		return nil, err
	}
	return &result, nil
}

// Fetch reads a stored object. Bank books are only readable by their owner and approvers.
// Receipts are readable by any signed-in user; their public URL is already on every request.
func (s *FileService) Fetch(ctx context.Context, actor reimbursement.Actor, storagePath string) (*FetchedFile, error) {
	if err := actor.RequireAuthenticated(); err != nil {
		return nil, err
	}
	storagePath = strings.TrimSpace(storagePath)
	if storagePath == "" {
		return nil, shared.NewDomainError("INVALID_ARGUMENT", "Storage path is required")
	}
	if strings.Contains(storagePath, "..") || strings.HasPrefix(storagePath, "/") {
		return nil, shared.NewDomainError("INVALID_ARGUMENT", "Invalid storage path")
	}
	if owner, ok := bankBookOwner(storagePath); ok && owner != actor.UID && !actor.Role.CanApprove() {
		return nil, shared.NewDomainError("FORBIDDEN", "You cannot read another user's bank book")
	}

	data, contentType, err := s.storage.Download(ctx, storagePath)
	if err != nil {
		return nil, err
	}
	if contentType == "" {
		contentType = contentTypeFromExt(storagePath)
	}
	return &FetchedFile{Data: data, ContentType: contentType, FileName: path.Base(storagePath)}, nil
}

// DownloadFile reads a stored object and base64-encodes it
func (s *FileService) DownloadFile(ctx context.Context, actor reimbursement.Actor, storagePath string) (*DownloadedFile, error) {
	f, err := s.Fetch(ctx, actor, storagePath)
	if err != nil {
		return nil, err
	}
	return &DownloadedFile{
		Data:        base64.StdEncoding.EncodeToString(f.Data),
		ContentType: f.ContentType,
		FileName:    f.FileName,
	}, nil
}

// ReceiptArchive zips the receipts of the selected requests.
// Receipts that cannot be downloaded, and legacy drive receipts, are skipped.
func (s *FileService) ReceiptArchive(ctx context.Context, actor reimbursement.Actor, requestIDs []uuid.UUID) (*Archive, error) {
	if err := actor.RequireApprover(); err != nil {
		return nil, err
	}
	if len(requestIDs) == 0 {
		return nil, shared.NewDomainError("INVALID_ARGUMENT", "Select at least one request")
	}
	requests, err := s.requestRepo.FindByIDs(ctx, requestIDs)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	archive := &Archive{FileName: fmt.Sprintf("receipts_%s.zip", s.now().Format("20060102_150405"))}
	used := make(map[string]int)

	for _, req := range requests {
		for i, receipt := range req.Receipts {
			if receipt.StoragePath == "" {
				archive.Skipped++
				continue
			}
			f, err := s.Fetch(ctx, actor, receipt.StoragePath)
			if err != nil {
				s.logger.Warn("skipping receipt in archive",
					zap.String("request_id", req.ID.String()),
					zap.String("storage_path", receipt.StoragePath),
					zap.Error(err))
				archive.Skipped++
				continue
			}
			name := archiveEntryName(req, i+1, receipt.Ext(), used)
			w, err := zw.Create(name)
			if err != nil {
				return nil, fmt.Errorf("failed to add %s to archive: %w", name, err)
			}
			if _, err := w.Write(f.Data); err != nil {
				return nil, fmt.Errorf("failed to write %s to archive: %w", name, err)
			}
			archive.Entries++
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish archive: %w", err)
	}
	archive.Data = buf.Bytes()
	return archive, nil
}

func (s *FileService) upload(ctx context.Context, key, name, dataURI string) UploadResult {
	result := UploadResult{FileName: name}
	data, contentType, err := decodeDataURI(dataURI)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	if !AllowedUploadTypes[contentType] {
		result.Error = fmt.Sprintf("content type %q is not allowed", contentType)
		return result
	}
	if err := s.storage.Upload(ctx, key, contentType, data); err != nil {
		s.logger.Warn("upload failed", zap.String("storage_path", key), zap.Error(err))
		result.Error = "upload failed"
		return result
	}
	result.URL = s.storage.PublicURL(key)
	result.StoragePath = key
	return result
}

// decodeDataURI splits "data:<type>;base64,<payload>" into bytes and content type
func decodeDataURI(uri string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return nil, "", errors.New("file data must be a data URI")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", errors.New("malformed data URI")
	}
	contentType, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return nil, "", errors.New("data URI must be base64 encoded")
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("invalid base64 payload: %w", err)
	}
	if len(data) == 0 {
		return nil, "", errors.New("file is empty")
	}
	return data, strings.ToLower(contentType), nil
}

func cleanFileName(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "file"
	}
	return name
}

func bankBookOwner(storagePath string) (string, bool) {
	rest, ok := strings.CutPrefix(storagePath, bankBookPrefix+"/")
	if !ok {
		return "", false
	}
	owner, _, _ := strings.Cut(rest, "/")
	return owner, true
}

func archiveEntryName(req *reimbursement.PaymentRequest, index int, ext string, used map[string]int) string {
	payee := strings.NewReplacer("/", "_", "\\", "_", " ", "_").Replace(req.Payee)
	base := fmt.Sprintf("%s_%s_%d", req.Date, payee, index)
	if n := used[base]; n > 0 {
		used[base] = n + 1
		base = fmt.Sprintf("%s(%d)", base, n)
	} else {
		used[base] = 1
	}
	if ext == "" {
		return base
	}
	return base + "." + ext
}

func contentTypeFromExt(p string) string {
	switch strings.ToLower(path.Ext(p)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".pdf":
		return "application/pdf"
	}
	return "application/octet-stream"
}
