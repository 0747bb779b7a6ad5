package scraper

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"
)

// Session is one isolated rendering session. Every method applies its own
// timeout so a stuck page cannot stall the run past its bound.
type Session interface {
	Navigate(url string, timeout time.Duration) error
	WaitVisible(selector string, timeout time.Duration) error
	Text(selector string, timeout time.Duration) (string, error)
	HTML(timeout time.Duration) (string, error)
	Close()
}

// SessionFactory opens a fresh Session. Each acquisition attempt gets its own
// session so a browser left in a bad state cannot poison the next attempt.
type SessionFactory func(ctx context.Context) (Session, error)

type chromeSession struct {
	ctx     context.Context
	cancels []context.CancelFunc
}

// NewChromeSession starts a headless Chrome instance scoped to ctx.
func NewChromeSession(ctx context.Context) (Session, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.WindowSize(1920, 1080),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	// Launch eagerly so a missing or broken Chrome install surfaces here,
	// where the caller counts it as a failed attempt.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, err
	}

	return &chromeSession{
		ctx:     browserCtx,
		cancels: []context.CancelFunc{cancelBrowser, cancelAlloc},
	}, nil
}

func (s *chromeSession) Navigate(url string, timeout time.Duration) error {
	return s.run(timeout, chromedp.Navigate(url))
}

func (s *chromeSession) WaitVisible(selector string, timeout time.Duration) error {
	return s.run(timeout, chromedp.WaitVisible(selector, chromedp.ByQuery))
}

func (s *chromeSession) Text(selector string, timeout time.Duration) (string, error) {
	var text string
	err := s.run(timeout, chromedp.Text(selector, &text, chromedp.ByQuery))
	return text, err
}

func (s *chromeSession) HTML(timeout time.Duration) (string, error) {
	var html string
	err := s.run(timeout, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

// Close tears down the tab context before the allocator that owns it.
func (s *chromeSession) Close() {
	for _, cancel := range s.cancels {
		cancel()
	}
}

func (s *chromeSession) run(timeout time.Duration, actions ...chromedp.Action) error {
	ctx := s.ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(s.ctx, timeout)
		defer cancel()
	}
	return chromedp.Run(ctx, actions...)
}

var _ Session = (*chromeSession)(nil)
