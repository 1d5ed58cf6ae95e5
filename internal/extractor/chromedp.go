package extractor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/raysh454/qadetector/internal/logging"
	"github.com/raysh454/qadetector/internal/model"
)

const (
	// Serialized like page content: doctype (when present) plus <html>.
	documentJS = `(document.doctype ? new XMLSerializer().serializeToString(document.doctype) + "\n" : "") + document.documentElement.outerHTML`

	visibleTextJS = `document.body ? document.body.innerText : ""`

	imagesJS = `Array.from(document.images).map(img => ({
		src: img.src,
		alt: img.getAttribute("alt") || "",
		width: img.width,
		height: img.height
	}))`

	linksJS = `Array.from(document.links).map(a => ({
		href: a.href,
		text: (a.textContent || "").trim(),
		title: a.title || ""
	}))`
)

// ChromedpExtractor loads pages in a headless Chrome. Every call gets its own
// browser process which is torn down before Extract returns.
type ChromedpExtractor struct {
	cfg    Config
	opts   []chromedp.ExecAllocatorOption
	logger logging.Logger
}

func NewChromedpExtractor(cfg Config, logger logging.Logger) *ChromedpExtractor {
	if logger == nil {
		logger = logging.Nop{}
	}
	cfg = withDefaults(cfg)

	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts, chromedp.Flag("headless", cfg.Headless))
	if cfg.NoSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}

	return &ChromedpExtractor{
		cfg:    cfg,
		opts:   opts,
		logger: logger.With(logging.Component("chromedp-extractor")),
	}
}

// waitNetworkIdle signals once the page has had at most maxInflight requests
// outstanding for idleAfter. The returned kick func (re)arms the timer and is
// used once navigation commits, since a page with no subresources never emits
// a LoadingFinished event.
func waitNetworkIdle(ctx context.Context, idleAfter time.Duration, maxInflight int32) (<-chan struct{}, func()) {
	idleChan := make(chan struct{})
	var activeReqs int32
	var timer *time.Timer
	var timerMutex sync.Mutex
	var once sync.Once

	startTimer := func() {
		timerMutex.Lock()
		defer timerMutex.Unlock()

		if timer != nil {
			timer.Stop()
		}

		timer = time.AfterFunc(idleAfter, func() {
			if atomic.LoadInt32(&activeReqs) <= maxInflight {
				once.Do(func() {
					close(idleChan)
				})
			}
		})
	}

	chromedp.ListenTarget(ctx, func(ev any) {
		switch ev.(type) {
		case *network.EventRequestWillBeSent:
			atomic.AddInt32(&activeReqs, 1)
		case *network.EventLoadingFinished, *network.EventLoadingFailed:
			n := atomic.AddInt32(&activeReqs, -1)
			if n < 0 {
				atomic.CompareAndSwapInt32(&activeReqs, n, 0)
			}
			if n <= maxInflight {
				startTimer()
			}
		}
	})

	return idleChan, startTimer
}

// Extract navigates to pageURL, waits for network idle and snapshots the DOM.
func (e *ChromedpExtractor) Extract(ctx context.Context, pageURL string) (*model.Content, error) {
	start := time.Now()

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, e.opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	// An empty Run starts the browser.
	if err := chromedp.Run(browserCtx); err != nil {
		e.logger.Error("browser launch failed", logging.Err(err))
		return nil, fmt.Errorf("%w: %v", model.ErrBrowserLaunch, err)
	}

	navCtx, cancelNav := context.WithTimeout(browserCtx, e.cfg.NavigationTimeout)
	defer cancelNav()

	idle, kick := waitNetworkIdle(navCtx, e.cfg.IdleAfter, int32(e.cfg.IdleInflight))

	if err := chromedp.Run(navCtx, network.Enable(), chromedp.Navigate(pageURL)); err != nil {
		return nil, e.navError(navCtx, pageURL, err)
	}
	kick()

	select {
	case <-idle:
	case <-navCtx.Done():
		return nil, e.navError(navCtx, pageURL, navCtx.Err())
	}

	var (
		html   string
		text   string
		title  string
		images []model.Image
		links  []model.Link
	)
	err := chromedp.Run(navCtx,
		chromedp.Evaluate(documentJS, &html),
		chromedp.Evaluate(visibleTextJS, &text),
		chromedp.Title(&title),
		chromedp.Evaluate(imagesJS, &images),
		chromedp.Evaluate(linksJS, &links),
	)
	if err != nil {
		return nil, e.navError(navCtx, pageURL, err)
	}

	e.logger.Info("page extracted",
		logging.Field{Key: "url", Value: pageURL},
		logging.Field{Key: "html_bytes", Value: len(html)},
		logging.Field{Key: "images", Value: len(images)},
		logging.Field{Key: "links", Value: len(links)},
		logging.Field{Key: "elapsed", Value: time.Since(start).String()})

	if images == nil {
		images = []model.Image{}
	}
	if links == nil {
		links = []model.Link{}
	}
	return &model.Content{
		URL:    pageURL,
		Title:  title,
		HTML:   html,
		Text:   text,
		Images: images,
		Links:  links,
		Source: model.SourceBrowser,
	}, nil
}

func (e *ChromedpExtractor) navError(navCtx context.Context, pageURL string, err error) error {
	if errors.Is(navCtx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		e.logger.Warn("navigation timed out",
			logging.Field{Key: "url", Value: pageURL},
			logging.Field{Key: "timeout", Value: e.cfg.NavigationTimeout.String()})
		return fmt.Errorf("%w after %s: %s", model.ErrNavigationTimeout, e.cfg.NavigationTimeout, pageURL)
	}
	e.logger.Warn("navigation failed", logging.Field{Key: "url", Value: pageURL}, logging.Err(err))
	return fmt.Errorf("%w: %v", model.ErrNavigation, err)
}
