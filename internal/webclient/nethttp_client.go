package webclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/raysh454/qadetector/internal/logging"
)

var ErrNilRequest = errors.New("request cannot be nil")

// net/http backed implementation of webclient.
type NetHTTPClient struct {
	cfg    Config
	client *http.Client
	logger logging.Logger
}

func NewNetHTTPClient(cfg Config, logger logging.Logger, httpClient *http.Client) (*NetHTTPClient, error) {
	if logger == nil {
		logger = logging.Nop{}
	}
	componentLogger := logger.With(logging.Field{Key: "backend", Value: "nethttp"})

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	componentLogger.Debug("created nethttp webclient",
		logging.Field{Key: "timeout", Value: httpClient.Timeout.String()})

	return &NetHTTPClient{
		cfg:    cfg,
		client: httpClient,
		logger: componentLogger,
	}, nil
}

// Do implements the generic request execution using net/http.
func (nhc *NetHTTPClient) Do(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, ErrNilRequest
	}

	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}

	nhc.logger.Debug("sending http request",
		logging.Field{Key: "method", Value: method},
		logging.Field{Key: "url", Value: req.URL})

	var bodyReader io.Reader
	if len(req.Body) > 0 {
		bodyReader = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	for k, vs := range req.Headers {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if httpReq.Header.Get("User-Agent") == "" && nhc.cfg.UserAgent != "" {
		httpReq.Header.Set("User-Agent", nhc.cfg.UserAgent)
	}

	resp, err := nhc.client.Do(httpReq)
	if err != nil {
		nhc.logger.Warn("http request failed",
			logging.Field{Key: "method", Value: method},
			logging.Field{Key: "url", Value: req.URL},
			logging.Err(err))
		return nil, fmt.Errorf("http do: %w", err)
	}
	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	if nhc.cfg.MaxBodyBytes > 0 {
		reader = io.LimitReader(resp.Body, nhc.cfg.MaxBodyBytes)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		nhc.logger.Warn("failed to read response body",
			logging.Field{Key: "method", Value: method},
			logging.Field{Key: "url", Value: req.URL},
			logging.Err(err))
		return nil, fmt.Errorf("read body: %w", err)
	}

	return &Response{
		Request:    req,
		Body:       body,
		Headers:    resp.Header,
		StatusCode: resp.StatusCode,
		FetchedAt:  time.Now(),
	}, nil
}

// Get is a convenience method for simple GET requests
func (nhc *NetHTTPClient) Get(ctx context.Context, url string) (*Response, error) {
	return nhc.Do(ctx, &Request{Method: http.MethodGet, URL: url})
}

func (nhc *NetHTTPClient) Close() error {
	nhc.client.CloseIdleConnections()
	return nil
}
