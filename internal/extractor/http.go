package extractor

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/raysh454/qadetector/internal/logging"
	"github.com/raysh454/qadetector/internal/model"
	"github.com/raysh454/qadetector/internal/webclient"
)

// HTTPExtractor fetches raw markup without running scripts. It is meant for
// hosts without Chrome; text and DOM facts are derived from the served HTML.
type HTTPExtractor struct {
	cfg    Config
	client webclient.WebClient
	logger logging.Logger
}

// NewHTTPExtractor wraps client, building a default net/http client when nil.
func NewHTTPExtractor(cfg Config, client webclient.WebClient, logger logging.Logger) (*HTTPExtractor, error) {
	if logger == nil {
		logger = logging.Nop{}
	}
	cfg = withDefaults(cfg)
	if client == nil {
		wcfg := webclient.DefaultConfig()
		wcfg.Timeout = cfg.NavigationTimeout
		c, err := webclient.NewNetHTTPClient(wcfg, logger, nil)
		if err != nil {
			return nil, err
		}
		client = c
	}
	return &HTTPExtractor{
		cfg:    cfg,
		client: client,
		logger: logger.With(logging.Component("http-extractor")),
	}, nil
}

func (h *HTTPExtractor) Extract(ctx context.Context, pageURL string) (*model.Content, error) {
	ctx, cancel := context.WithTimeout(ctx, h.cfg.NavigationTimeout)
	defer cancel()

	resp, err := h.client.Do(ctx, &webclient.Request{
		Method:  http.MethodGet,
		URL:     pageURL,
		Headers: http.Header{"Accept": []string{"text/html,application/xhtml+xml"}},
	})
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) || isTimeout(err) {
			return nil, fmt.Errorf("%w after %s: %s", model.ErrNavigationTimeout, h.cfg.NavigationTimeout, pageURL)
		}
		return nil, fmt.Errorf("%w: %v", model.ErrNavigation, err)
	}
	if resp.StatusCode >= 400 {
		h.logger.Warn("page returned error status",
			logging.Field{Key: "url", Value: pageURL},
			logging.Field{Key: "status", Value: resp.StatusCode})
		return nil, fmt.Errorf("%w: %s returned %d", model.ErrNavigation, pageURL, resp.StatusCode)
	}

	content, err := bundleFromHTML(pageURL, string(resp.Body), model.SourceHTTP)
	if err != nil {
		return nil, fmt.Errorf("%w: parse html: %v", model.ErrNavigation, err)
	}
	h.logger.Debug("page extracted",
		logging.Field{Key: "url", Value: pageURL},
		logging.Field{Key: "html_bytes", Value: len(resp.Body)})
	return content, nil
}

func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
