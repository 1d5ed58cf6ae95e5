// Package extractor produces the content bundle that checks run against,
// either by loading the page server-side or by validating what the embedded
// widget submitted.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/raysh454/qadetector/internal/logging"
	"github.com/raysh454/qadetector/internal/model"
)

// Extractor loads a page and returns its content bundle.
type Extractor interface {
	Extract(ctx context.Context, pageURL string) (*model.Content, error)
}

type Backend string

const (
	BackendChromedp Backend = "chromedp"
	BackendNetHTTP  Backend = "nethttp"
)

// Config configures server-side extraction.
type Config struct {
	Backend           Backend       `mapstructure:"backend"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout"`

	// IdleAfter is how long the network must stay quiet, with at most
	// IdleInflight requests outstanding, before the page counts as loaded.
	IdleAfter    time.Duration `mapstructure:"idle_after"`
	IdleInflight int           `mapstructure:"idle_inflight"`

	Headless  bool   `mapstructure:"headless"`
	NoSandbox bool   `mapstructure:"no_sandbox"`
	ExecPath  string `mapstructure:"exec_path"`
}

func DefaultConfig() Config {
	return Config{
		Backend:           BackendChromedp,
		NavigationTimeout: 30 * time.Second,
		IdleAfter:         500 * time.Millisecond,
		IdleInflight:      2,
		Headless:          true,
	}
}

// BackendConstructor builds an Extractor from config.
type BackendConstructor func(cfg Config, logger logging.Logger) (Extractor, error)

var (
	mu       sync.RWMutex
	registry = map[string]BackendConstructor{}
)

// RegisterBackend registers a named backend constructor. Registering the same
// name twice overwrites the previous constructor.
func RegisterBackend(name Backend, ctor BackendConstructor) {
	if name == "" || ctor == nil {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	registry[strings.ToLower(string(name))] = ctor
}

// New constructs the configured backend.
func New(cfg Config, logger logging.Logger) (Extractor, error) {
	if logger == nil {
		logger = logging.Nop{}
	}
	backend := strings.ToLower(strings.TrimSpace(string(cfg.Backend)))
	if backend == "" {
		backend = string(BackendChromedp)
	}

	mu.RLock()
	ctor, ok := registry[backend]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("extractor backend %q not registered: available backends=%v", backend, ListBackends())
	}

	ex, err := ctor(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("construct extractor backend %q: %w", backend, err)
	}
	if ex == nil {
		return nil, errors.New("extractor constructor returned nil")
	}
	return ex, nil
}

// ListBackends returns the registered backend names, sorted.
func ListBackends() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func init() {
	RegisterBackend(BackendChromedp, func(cfg Config, logger logging.Logger) (Extractor, error) {
		return NewChromedpExtractor(cfg, logger), nil
	})
	RegisterBackend(BackendNetHTTP, func(cfg Config, logger logging.Logger) (Extractor, error) {
		return NewHTTPExtractor(cfg, nil, logger)
	})
}

func withDefaults(cfg Config) Config {
	def := DefaultConfig()
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = def.NavigationTimeout
	}
	if cfg.IdleAfter <= 0 {
		cfg.IdleAfter = def.IdleAfter
	}
	if cfg.IdleInflight < 0 {
		cfg.IdleInflight = 0
	}
	return cfg
}
