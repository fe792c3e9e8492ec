package reimbursement

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/reimburse/backend/internal/domain/reimbursement"
	"github.com/reimburse/backend/internal/domain/shared"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	reportTitle            = "지급 정산서"
	defaultPreloadParallel = 4
)

// ErrRenderUnavailable is returned when no browser can be opened for printing
var ErrRenderUnavailable = shared.NewDomainError("RENDER_UNAVAILABLE", "PDF rendering is not available")

// ReportService renders settlement reports with their receipts appended
type ReportService struct {
	settlementRepo reimbursement.SettlementRepository
	projectRepo    reimbursement.ProjectRepository
	files          *FileService
	template       ReportTemplate
	renderer       PDFRenderer
	rasterizer     PageRasterizer
	images         ImageNormalizer
	logger         *zap.Logger
	parallel       int
}

// NewReportService creates a new ReportService. renderer and rasterizer may be nil
// when no browser is configured; PDF export then fails with RENDER_UNAVAILABLE.
func NewReportService(
	settlementRepo reimbursement.SettlementRepository,
	projectRepo reimbursement.ProjectRepository,
	files *FileService,
	template ReportTemplate,
	renderer PDFRenderer,
	rasterizer PageRasterizer,
	images ImageNormalizer,
	logger *zap.Logger,
) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		settlementRepo: settlementRepo,
		projectRepo:    projectRepo,
		files:          files,
		template:       template,
		renderer:       renderer,
		rasterizer:     rasterizer,
		images:         images,
		logger:         logger,
		parallel:       defaultPreloadParallel,
	}
}

// SetPreloadParallel bounds how many receipts are fetched at once
func (s *ReportService) SetPreloadParallel(n int) {
	if n > 0 {
		s.parallel = n
	}
}

// ExportSettlementHTML builds the report document for preview
func (s *ReportService) ExportSettlementHTML(ctx context.Context, actor reimbursement.Actor, id uuid.UUID) (*ExportedReport, error) {
	view, err := s.buildView(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	html, err := s.template.Execute(view)
	if err != nil {
		return nil, fmt.Errorf("failed to lay out report: %w", err)
	}
	return &ExportedReport{
		FileName:    reportFileName(view, "html"),
		ContentType: "text/html; charset=utf-8",
		Data:        []byte(html),
	}, nil
}

// ExportSettlementPDF prints the report document to PDF
func (s *ReportService) ExportSettlementPDF(ctx context.Context, actor reimbursement.Actor, id uuid.UUID) (*ExportedReport, error) {
	if s.renderer == nil {
		return nil, ErrRenderUnavailable
	}
	report, err := s.ExportSettlementHTML(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	pdf, err := s.renderer.RenderPDF(ctx, string(report.Data))
	if err != nil {
		if errors.Is(err, ErrRenderUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to render report: %w", err)
	}
	report.Data = pdf
	report.ContentType = "application/pdf"
	report.FileName = strings.TrimSuffix(report.FileName, ".html") + ".pdf"
	return report, nil
}

func (s *ReportService) buildView(ctx context.Context, actor reimbursement.Actor, id uuid.UUID) (*SettlementReportView, error) {
	if err := actor.RequireApprover(); err != nil {
		return nil, err
	}
	settlement, err := s.settlementRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("NOT_FOUND", "Settlement not found")
		}
		return nil, err
	}

	view := &SettlementReportView{
		Title:          reportTitle,
		SettlementDate: settlement.CreatedAt,
		Payee:          settlement.Payee,
		Phone:          settlement.Phone,
		Session:        settlement.Session,
		BankName:       settlement.BankName,
		BankAccount:    settlement.BankAccount,
		Committee:      settlement.Committee.DisplayName(),
		TotalAmount:    settlement.TotalAmount,
		RequestCount:   settlement.RequestCount(),
		ReceiptCount:   len(settlement.Receipts),
		RequestedBy:    ReportSignature{Name: settlement.Payee, Image: settlement.RequestedBySignature},
		ApprovedBy:     ReportSignature{Image: settlement.ApprovalSignature},
	}
	if settlement.ApprovedBy != nil {
		view.ApprovedBy.Name = settlement.ApprovedBy.Name
	}
	for i, item := range settlement.Items {
		view.Items = append(view.Items, ReportLine{
			Index:       i + 1,
			Description: item.Description,
			BudgetCode:  item.BudgetCode,
			Amount:      item.Amount,
		})
	}

	if settlement.ProjectID != nil {
		project, err := s.projectRepo.FindByID(ctx, *settlement.ProjectID)
		switch {
		case err == nil:
			view.ProjectName = project.Name
			view.DocumentNo = project.DocumentNo
		case errors.Is(err, shared.ErrNotFound):
			s.logger.Warn("settlement project missing", zap.String("project_id", settlement.ProjectID.String()))
		default:
			return nil, err
		}
	}

	receipts, err := s.preloadReceipts(ctx, actor, settlement.Receipts)
	if err != nil {
		return nil, err
	}
	view.Receipts = receipts
	return view, nil
}

// preloadReceipts downloads every receipt concurrently and keeps their order.
// A receipt that cannot be turned into an image yields an empty DataURL.
func (s *ReportService) preloadReceipts(ctx context.Context, actor reimbursement.Actor, receipts reimbursement.Receipts) ([]ReportReceipt, error) {
	out := make([]ReportReceipt, len(receipts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallel)
	for i, r := range receipts {
		out[i].FileName = r.DisplayName()
		g.Go(func() error {
			dataURL, err := s.receiptImage(gctx, actor, r)
			if err != nil {
				s.logger.Warn("receipt not embedded in report",
					zap.String("file_name", r.DisplayName()),
					zap.Error(err))
				return nil
			}
			out[i].DataURL = dataURL
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, ctx.Err()
}

func (s *ReportService) receiptImage(ctx context.Context, actor reimbursement.Actor, r reimbursement.Receipt) (string, error) {
	if r.StoragePath == "" {
		return "", errors.New("receipt has no storage path")
	}
	f, err := s.files.Fetch(ctx, actor, r.StoragePath)
	if err != nil {
		return "", err
	}

	data, contentType := f.Data, f.ContentType
	if r.IsPDF() || contentType == "application/pdf" {
		if s.rasterizer == nil {
			return "", ErrRenderUnavailable
		}
		png, err := s.rasterizer.RasterizeFirstPage(ctx, data)
		if err != nil {
			return "", err
		}
		data, contentType = png, "image/png"
	} else if s.images != nil {
		data, contentType, err = s.images.Normalize(data)
		if err != nil {
			return "", err
		}
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

func reportFileName(view *SettlementReportView, ext string) string {
	payee := strings.NewReplacer("/", "_", "\\", "_", " ", "_").Replace(view.Payee)
	return fmt.Sprintf("settlement_%s_%s.%s", payee, view.SettlementDate.Format("20060102"), ext)
}
