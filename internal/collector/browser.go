package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"

	"github.com/ppiankov/polemica/internal/logger"
)

// Renderer returns the DOM of a page after scripts have run
type Renderer interface {
	Render(ctx context.Context, pageURL string) (string, error)
}

// ChromeRenderer renders pages in a headless Chrome driven by chromedp.
// Each call launches and tears down its own browser.
type ChromeRenderer struct {
	ExecPath     string        // Empty uses chromedp's lookup
	UserAgent    string
	Timeout      time.Duration // Whole render, including launch
	WaitSelector string        // Waited for, but its absence is not an error
	SelectorWait time.Duration
	SettleDelay  time.Duration

	Log logrus.FieldLogger
}

func (r *ChromeRenderer) Render(ctx context.Context, pageURL string) (string, error) {
	log := logger.OrDefault(r.Log)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.WindowSize(1280, 800),
	)
	if r.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(r.UserAgent))
	}
	if r.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(r.ExecPath))
	}

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	if err := chromedp.Run(browserCtx, chromedp.Navigate(pageURL)); err != nil {
		return "", fmt.Errorf("navigate %s: %w", pageURL, err)
	}

	if r.WaitSelector != "" && r.SelectorWait > 0 {
		waitCtx, cancelWait := context.WithTimeout(browserCtx, r.SelectorWait)
		err := chromedp.Run(waitCtx, chromedp.WaitReady(r.WaitSelector, chromedp.ByQuery))
		cancelWait()
		if err != nil {
			log.WithField("selector", r.WaitSelector).Debug("selector never appeared, continuing")
		}
	}

	var html string
	actions := []chromedp.Action{}
	if r.SettleDelay > 0 {
		actions = append(actions, chromedp.Sleep(r.SettleDelay))
	}
	actions = append(actions, chromedp.OuterHTML("html", &html, chromedp.ByQuery))

	if err := chromedp.Run(browserCtx, actions...); err != nil {
		return "", fmt.Errorf("read DOM: %w", err)
	}
	return html, nil
}
