package printing

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/disciplinario/backend/internal/domain/printing"
	"go.uber.org/zap"
)

const (
	defaultChromeTimeout = 30 * time.Second
	readyPollInterval    = 50 * time.Millisecond
	cssPixelsPerInch     = 96.0
	mmPerInch            = 25.4
)

var errContainerMissing = errors.New("page container not found")

// layoutReadyScript reports whether the container is visible, web fonts are
// loaded and every image has finished loading.
const layoutReadyScript = `function(selector) {
	const el = document.querySelector(selector);
	if (!el || el.offsetWidth === 0 || el.offsetHeight === 0) {
		return false;
	}
	if (document.fonts && document.fonts.status !== 'loaded') {
		return false;
	}
	return Array.from(document.images).every(img => img.complete);
}`

// ChromedpConfig contains configuration for the chromedp rasterizer
type ChromedpConfig struct {
	// Timeout bounds a single capture, including browser start-up
	Timeout time.Duration
	// RemoteURL is the URL of a remote Chrome/Chromium instance (optional)
	// If empty, chromedp will launch a new browser instance
	RemoteURL string
	// NoSandbox runs Chrome without sandbox (required for Docker/root)
	NoSandbox bool
	// Logger for debug output
	Logger *zap.Logger
}

// ChromedpRasterizer captures page markup with headless Chromium
type ChromedpRasterizer struct {
	config      *ChromedpConfig
	logger      *zap.Logger
	allocCtx    context.Context
	allocCancel context.CancelFunc
}

// NewChromedpRasterizer creates a new chromedp-based rasterizer. Nothing is
// launched here: with a local allocator every capture starts its own browser
// and closes it when done; with RemoteURL each capture opens a tab on the
// remote browser.
func NewChromedpRasterizer(config *ChromedpConfig) *ChromedpRasterizer {
	if config == nil {
		config = &ChromedpConfig{}
	}
	if config.Timeout <= 0 {
		config.Timeout = defaultChromeTimeout
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &ChromedpRasterizer{
		config: config,
		logger: logger,
	}
	r.initAllocator()
	return r
}

// initAllocator initializes the Chrome allocator
func (r *ChromedpRasterizer) initAllocator() {
	if r.config.RemoteURL != "" {
		r.allocCtx, r.allocCancel = chromedp.NewRemoteAllocator(context.Background(), r.config.RemoteURL)
		return
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-dev-shm-usage", true), // Important for Docker
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-translate", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("font-render-hinting", "none"),
	)
	if r.config.NoSandbox {
		opts = append(opts, chromedp.Flag("no-sandbox", true))
	}

	r.allocCtx, r.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
}

// Rasterize loads the markup into a fresh tab sized to the physical page,
// waits for layout and captures the page container
func (r *ChromedpRasterizer) Rasterize(ctx context.Context, markup string, opts RasterOptions) (*Bitmap, error) {
	if strings.TrimSpace(markup) == "" {
		return nil, NewCaptureError(ErrCodeContainerMissing, "markup is empty", nil)
	}
	opts = opts.withDefaults()

	background, err := ParseHexColor(opts.Background)
	if err != nil {
		return nil, err
	}

	startTime := time.Now()

	ctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	tabCtx, tabCancel := chromedp.NewContext(r.allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			r.logger.Debug(fmt.Sprintf(format, args...))
		}),
	)
	defer tabCancel()

	// Tie the tab lifetime to the caller's deadline.
	stop := context.AfterFunc(ctx, tabCancel)
	defer stop()

	viewportW, viewportH := viewportSize(opts.Geometry)
	selector := opts.Selector

	var (
		present bool
		ready   bool
		capture []byte
	)

	err = chromedp.Run(tabCtx,
		chromedp.EmulateViewport(viewportW, viewportH),
		emulation.SetDefaultBackgroundColorOverride().WithColor(&cdp.RGBA{
			R: int64(background.R),
			G: int64(background.G),
			B: int64(background.B),
			A: 1,
		}),
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, markup).Do(ctx)
		}),
		chromedp.Evaluate(containerPresentExpr(selector), &present),
		chromedp.ActionFunc(func(ctx context.Context) error {
			if !present {
				return errContainerMissing
			}
			return nil
		}),
		chromedp.PollFunction(layoutReadyScript, &ready,
			chromedp.WithPollingArgs(selector),
			chromedp.WithPollingInterval(readyPollInterval)),
		chromedp.ScreenshotScale(selector, opts.Scale, &capture, chromedp.ByQuery),
	)
	if err != nil {
		return nil, r.captureError(ctx, selector, err)
	}

	bitmap, err := DecodeBitmap(capture)
	if err != nil {
		return nil, err
	}

	bitmap, err = NormalizeBitmap(bitmap, background, opts.MaxWidth)
	if err != nil {
		return nil, err
	}

	r.logger.Info("Page rasterized",
		zap.Int("width", bitmap.Width),
		zap.Int("height", bitmap.Height),
		zap.Duration("duration", time.Since(startTime)))

	return bitmap, nil
}

func (r *ChromedpRasterizer) captureError(ctx context.Context, selector string, err error) error {
	switch {
	case errors.Is(err, errContainerMissing):
		return NewCaptureError(ErrCodeContainerMissing, "page container "+selector+" not found", err)
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return NewCaptureError(ErrCodeCaptureTimeout,
			fmt.Sprintf("page capture timed out after %v", r.config.Timeout), err)
	case errors.Is(ctx.Err(), context.Canceled):
		return NewCaptureError(ErrCodeCaptureTimeout, "page capture was cancelled", err)
	}
	r.logger.Error("chromedp capture failed", zap.Error(err))
	return NewCaptureError(ErrCodeCaptureFailed, "chromedp execution failed", err)
}

// Close releases resources held by the rasterizer
func (r *ChromedpRasterizer) Close() error {
	if r.allocCancel != nil {
		r.allocCancel()
	}
	return nil
}

// viewportSize converts the physical page to CSS pixels
func viewportSize(g printing.PageGeometry) (int64, int64) {
	return mmToCSSPixels(g.Width), mmToCSSPixels(g.Height)
}

func mmToCSSPixels(mm float64) int64 {
	return int64(math.Ceil(mm / mmPerInch * cssPixelsPerInch))
}

func containerPresentExpr(selector string) string {
	return fmt.Sprintf("document.querySelector(%q) !== null", selector)
}

// Ensure ChromedpRasterizer implements Rasterizer
var _ Rasterizer = (*ChromedpRasterizer)(nil)
