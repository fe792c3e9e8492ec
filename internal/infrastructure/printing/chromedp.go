package printing

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	reimbapp "github.com/reimburse/backend/internal/application/reimbursement"
	"go.uber.org/zap"
)

const (
	defaultChromeTimeout = 60 * time.Second
	defaultPDFJSURL      = "https://cdnjs.cloudflare.com/ajax/libs/pdf.js/3.11.174/pdf.min.js"

	// A4 in inches
	a4Width  = 8.27
	a4Height = 11.69

	rasterScale = 2
	pngDataURL  = "data:image/png;base64,"
)

var (
	_ reimbapp.PDFRenderer    = (*ChromedpRenderer)(nil)
	_ reimbapp.PageRasterizer = (*ChromedpRenderer)(nil)
)

// ChromedpConfig contains configuration for the chromedp renderer
type ChromedpConfig struct {
	// RemoteURL is a DevTools endpoint of a running browser.
	// If empty, chromedp launches a local headless instance per job.
	RemoteURL string
	// Timeout bounds a single print or rasterise job
	Timeout time.Duration
	// NoSandbox runs Chrome without sandbox (required for Docker/root)
	NoSandbox bool
	// PDFJSURL is the pdf.js build injected to rasterise PDF pages
	PDFJSURL string
	Logger   *zap.Logger
}

// ChromedpRenderer prints HTML to PDF and rasterises PDF pages through the DevTools protocol
type ChromedpRenderer struct {
	config      ChromedpConfig
	logger      *zap.Logger
	allocCtx    context.Context
	allocCancel context.CancelFunc
}

// NewChromedpRenderer creates a renderer. No browser is started until the first job.
func NewChromedpRenderer(config ChromedpConfig) *ChromedpRenderer {
	if config.Timeout <= 0 {
		config.Timeout = defaultChromeTimeout
	}
	if config.PDFJSURL == "" {
		config.PDFJSURL = defaultPDFJSURL
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &ChromedpRenderer{config: config, logger: logger}
	if config.RemoteURL != "" {
		r.allocCtx, r.allocCancel = chromedp.NewRemoteAllocator(context.Background(), config.RemoteURL)
	} else {
		r.allocCtx, r.allocCancel = chromedp.NewExecAllocator(context.Background(), r.allocatorOptions()...)
	}
	return r
}

func (r *ChromedpRenderer) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true), // Important for Docker
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("font-render-hinting", "none"),
	)
	if r.config.NoSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}
	return opts
}

// RenderPDF prints a standalone HTML document on A4 paper
func (r *ChromedpRenderer) RenderPDF(ctx context.Context, html string) ([]byte, error) {
	if strings.TrimSpace(html) == "" {
		return nil, errors.New("HTML content is empty")
	}
	start := time.Now()

	var pdf []byte
	err := r.run(ctx,
		setDocument(html),
		chromedp.ActionFunc(func(ctx context.Context) error {
			data, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(a4Width).
				WithPaperHeight(a4Height).
				WithMarginTop(0).
				WithMarginRight(0).
				WithMarginBottom(0).
				WithMarginLeft(0).
				WithPreferCSSPageSize(true).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = data
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}
	if len(pdf) == 0 {
		return nil, errors.New("generated PDF is empty")
	}

	r.logger.Info("PDF rendered",
		zap.Int("bytes", len(pdf)),
		zap.Duration("duration", time.Since(start)))
	return pdf, nil
}

// RasterizeFirstPage draws page one of pdf onto a canvas with pdf.js and returns it as PNG
func (r *ChromedpRenderer) RasterizeFirstPage(ctx context.Context, pdf []byte) ([]byte, error) {
	if len(pdf) == 0 {
		return nil, errors.New("PDF content is empty")
	}
	script, err := rasterScript(r.config.PDFJSURL, pdf)
	if err != nil {
		return nil, err
	}

	var dataURL string
	err = r.run(ctx,
		setDocument("<!DOCTYPE html><html><head><meta charset=\"utf-8\"></head><body></body></html>"),
		chromedp.Evaluate(script, &dataURL, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithAwaitPromise(true)
		}),
	)
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(dataURL, pngDataURL) {
		return nil, errors.New("rasteriser returned no image")
	}
	return base64.StdEncoding.DecodeString(dataURL[len(pngDataURL):])
}

// run opens a fresh tab, runs actions within the job timeout and closes the tab.
// Failing to reach a browser at all is reported as ErrRenderUnavailable.
func (r *ChromedpRenderer) run(ctx context.Context, actions ...chromedp.Action) error {
	browserCtx, browserCancel := chromedp.NewContext(r.allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			r.logger.Debug(fmt.Sprintf(format, args...))
		}),
	)
	defer browserCancel()

	if err := chromedp.Run(browserCtx); err != nil {
		r.logger.Error("failed to open browser", zap.Error(err))
		return fmt.Errorf("%w: %v", reimbapp.ErrRenderUnavailable, err)
	}

	jobCtx, cancel := context.WithTimeout(browserCtx, r.config.Timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(jobCtx, actions...); err != nil {
		switch {
		case ctx.Err() != nil:
			return ctx.Err()
		case errors.Is(jobCtx.Err(), context.DeadlineExceeded):
			return fmt.Errorf("browser job timed out after %v: %w", r.config.Timeout, err)
		}
		return fmt.Errorf("browser job failed: %w", err)
	}
	return nil
}

// Close shuts the allocator down
func (r *ChromedpRenderer) Close() error {
	if r.allocCancel != nil {
		r.allocCancel()
	}
	return nil
}

func setDocument(html string) chromedp.Action {
	return chromedp.Tasks{
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
		}),
	}
}

func rasterScript(pdfjsURL string, pdf []byte) (string, error) {
	src, err := json.Marshal(pdfjsURL)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(base64.StdEncoding.EncodeToString(pdf))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(rasterScriptTemplate, src, data, rasterScale), nil
}

const rasterScriptTemplate = `(async () => {
  const src = %s;
  const data = %s;
  await new Promise((resolve, reject) => {
    const s = document.createElement('script');
    s.src = src;
    s.onload = resolve;
    s.onerror = () => reject(new Error('pdf.js failed to load'));
    document.head.appendChild(s);
  });
  const lib = window.pdfjsLib;
  lib.GlobalWorkerOptions.workerSrc = src.replace(/pdf(\.min)?\.js$/, 'pdf.worker$1.js');
  const bin = atob(data);
  const bytes = new Uint8Array(bin.length);
  for (let i = 0; i < bin.length; i++) bytes[i] = bin.charCodeAt(i);
  const doc = await lib.getDocument({ data: bytes }).promise;
  const pg = await doc.getPage(1);
  const viewport = pg.getViewport({ scale: %d });
  const canvas = document.createElement('canvas');
  canvas.width = viewport.width;
  canvas.height = viewport.height;
  await pg.render({ canvasContext: canvas.getContext('2d'), viewport }).promise;
  return canvas.toDataURL('image/png');
})()`
