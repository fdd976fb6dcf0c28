package render

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-vidsum/internal/fileutil"
	"github.com/alnah/go-vidsum/internal/process"
)

// DefaultTimeout bounds page load and printing when the context has no deadline.
const DefaultTimeout = 60 * time.Second

// Result is a rendered document.
type Result struct {
	PDF   []byte
	Pages int
}

// Renderer converts a self-contained HTML document to PDF.
type Renderer interface {
	Render(ctx context.Context, html string) (Result, error)
	Close() error
}

var (
	_ Renderer = (*RodRenderer)(nil)
	_ Renderer = (*PooledRenderer)(nil)
)

// RodRenderer renders with headless Chrome via go-rod. The browser is
// launched lazily on first use and reused until Close.
type RodRenderer struct {
	settings Settings
	timeout  time.Duration

	mu       sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
}

// NewRodRenderer creates a RodRenderer. Returns an error if settings are invalid.
func NewRodRenderer(settings Settings, timeout time.Duration) (*RodRenderer, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &RodRenderer{settings: settings, timeout: timeout}, nil
}

// ensureBrowser lazily launches and connects to the browser. Caller holds r.mu.
func (r *RodRenderer) ensureBrowser() error {
	if r.browser != nil {
		return nil
	}

	l := launcher.New()

	// Pre-installed browser (Docker/containerized environments)
	bin := os.Getenv("ROD_BROWSER_BIN")
	if bin != "" {
		l = l.Bin(bin)
	}

	// NoSandbox required for CI and containers
	if os.Getenv("CI") == "true" || os.Getenv("ROD_NO_SANDBOX") == "1" || bin != "" {
		l = l.NoSandbox(true)
	}

	u, err := l.Launch()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	r.launcher = l
	r.browser = browser
	return nil
}

// Close releases the browser and kills its process group.
func (r *RodRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var err error
	if r.browser != nil {
		err = r.browser.Close()
		r.browser = nil
	}
	if r.launcher != nil {
		if pid := r.launcher.PID(); pid > 0 {
			process.KillProcessGroup(pid)
		}
		r.launcher.Kill()
		r.launcher = nil
	}
	return err
}

// Render writes html to a temp file, loads it in a fresh tab and prints it.
func (r *RodRenderer) Render(ctx context.Context, html string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	tmpPath, cleanup, err := fileutil.WriteTempFile(html, "html")
	if err != nil {
		return Result{}, err
	}
	defer cleanup()

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ensureBrowser(); err != nil {
		return Result{}, err
	}

	timeout := r.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return Result{}, context.DeadlineExceeded
		}
	}

	page, err := r.browser.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	defer page.Close()

	width, height := r.settings.viewport()
	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             width,
		Height:            height,
		DeviceScaleFactor: r.settings.Scale,
	}); err != nil {
		return Result{}, fmt.Errorf("%w: setting viewport: %v", ErrPageCreate, err)
	}
	if err := (proto.EmulationSetScriptExecutionDisabled{Value: true}).Call(page); err != nil {
		return Result{}, fmt.Errorf("%w: disabling scripts: %v", ErrPageCreate, err)
	}

	timed := page.Timeout(timeout)
	if err := timed.Navigate("file://" + tmpPath); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	if err := timed.WaitLoad(); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	reader, err := timed.PDF(r.buildPDFOptions())
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}

	pdf, err := io.ReadAll(reader)
	if err != nil {
		return Result{}, fmt.Errorf("%w: reading PDF stream: %v", ErrPDFGeneration, err)
	}

	pages, err := CountPages(pdf)
	if err != nil {
		return Result{}, err
	}

	return Result{PDF: pdf, Pages: pages}, nil
}

// buildPDFOptions maps Settings onto Chrome's print parameters.
func (r *RodRenderer) buildPDFOptions() *proto.PagePrintToPDF {
	width, height := r.settings.paperInches()
	margin := r.settings.marginInches()

	return &proto.PagePrintToPDF{
		PaperWidth:      floatPtr(width),
		PaperHeight:     floatPtr(height),
		MarginTop:       floatPtr(margin),
		MarginBottom:    floatPtr(margin),
		MarginLeft:      floatPtr(margin),
		MarginRight:     floatPtr(margin),
		PrintBackground: true,
	}
}

// floatPtr returns a pointer to a float64 value.
func floatPtr(v float64) *float64 {
	return &v
}
