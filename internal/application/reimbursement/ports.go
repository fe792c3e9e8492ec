// Package reimbursement contains the application services for payment requests,
// settlements, projects and the file and report operations around them.
package reimbursement

import (
	"context"
)

// ObjectStorage stores uploaded receipts and bank books
type ObjectStorage interface {
	// Upload writes data under key
	Upload(ctx context.Context, key, contentType string, data []byte) error
	// Download reads the object under key and its content type
	Download(ctx context.Context, key string) ([]byte, string, error)
	// PublicURL returns the externally visible URL of key
	PublicURL(key string) string
}

// PDFRenderer prints an HTML document to PDF
type PDFRenderer interface {
	RenderPDF(ctx context.Context, html string) ([]byte, error)
}

// PageRasterizer renders the first page of a PDF as a PNG image
type PageRasterizer interface {
	RasterizeFirstPage(ctx context.Context, pdf []byte) ([]byte, error)
}

// ImageNormalizer decodes an uploaded image and re-encodes it at a bounded size.
// It returns the encoded bytes and their content type.
type ImageNormalizer interface {
	Normalize(data []byte) ([]byte, string, error)
}

// ReportTemplate lays out a settlement report as a standalone HTML document
type ReportTemplate interface {
	Execute(view *SettlementReportView) (string, error)
}
