package pdfexport

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/cyrildacostabolant/Cahier-test/report"
)

// ChromeRenderer rasterizes composed HTML through headless Chrome. It
// implements report.Backend.
type ChromeRenderer struct {
	// ExecPath pins the browser binary. Empty means chromedp's lookup.
	ExecPath string
	// Settle is the delay between page readiness and the print snapshot,
	// letting fonts and embedded images finish loading.
	Settle time.Duration
	// Timeout bounds one whole render, navigation through print. Chrome
	// blocks on the CDP response, so an unbounded call can hang forever.
	// Zero falls back to defaultRenderTimeout.
	Timeout time.Duration
}

const defaultRenderTimeout = 30 * time.Second

// NewChromeRenderer creates a renderer with the default settle delay and
// render deadline.
func NewChromeRenderer() *ChromeRenderer {
	return &ChromeRenderer{
		Settle:  500 * time.Millisecond,
		Timeout: defaultRenderTimeout,
	}
}

// Render prints html to PDF bytes using the page geometry of profile.
// Failures wrap report.ErrRenderBackend so callers can keep the session
// alive and let the user retry.
func (r *ChromeRenderer) Render(ctx context.Context, html string, profile report.Profile) ([]byte, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = defaultRenderTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(1200, 800),
	)
	if r.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(r.ExecPath))
	}

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	defer cancel()

	taskCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	// Chrome only prints real navigations well, so the document goes
	// through a temp file instead of a data URL.
	htmlFile := filepath.Join(os.TempDir(), "cahier_export_"+time.Now().Format("20060102_150405")+".html")
	if err := os.WriteFile(htmlFile, []byte(html), 0644); err != nil {
		return nil, fmt.Errorf("%w: write temp html: %v", report.ErrRenderBackend, err)
	}
	defer os.Remove(htmlFile)

	width, height := profile.PaperSizeInches()
	margin := profile.MarginInches()

	var pdf []byte
	err := chromedp.Run(taskCtx,
		chromedp.Navigate("file:///"+filepath.ToSlash(htmlFile)),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(r.Settle),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPaperWidth(width).
				WithPaperHeight(height).
				WithMarginTop(margin).
				WithMarginBottom(margin).
				WithMarginLeft(margin).
				WithMarginRight(margin).
				WithScale(profile.Scale).
				WithPrintBackground(true).
				WithPreferCSSPageSize(true).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = buf
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", report.ErrRenderBackend, err)
	}
	return pdf, nil
}
