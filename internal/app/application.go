package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/raysh454/qadetector/internal/auth"
	"github.com/raysh454/qadetector/internal/checks"
	"github.com/raysh454/qadetector/internal/database"
	"github.com/raysh454/qadetector/internal/extractor"
	"github.com/raysh454/qadetector/internal/history"
	"github.com/raysh454/qadetector/internal/logging"
	"github.com/raysh454/qadetector/internal/notify"
	"github.com/raysh454/qadetector/internal/registry"
	"github.com/raysh454/qadetector/internal/webclient"
)

// Application is the runtime state container shared by the API server and
// the CLI. Pass it into modules rather than using package-level variables.
type Application struct {
	Config *Config
	Logger logging.Logger

	DB           *database.DB
	Registry     *registry.Registry
	History      *history.Store
	Scanner      *Scanner
	Orchestrator *Orchestrator
	Auth         *auth.Authenticator

	closers []func() error
}

// New opens and migrates the database and builds every component from cfg.
func New(ctx context.Context, cfg *Config, logger logging.Logger) (*Application, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = logging.Nop{}
	}
	a := &Application{Config: cfg, Logger: logger}

	db, err := database.Open(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	a.DB = db
	a.closers = append(a.closers, db.Close)

	if _, err := db.Migrate(ctx); err != nil {
		a.Close()
		return nil, err
	}

	if err := a.build(cfg, logger); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *Application) build(cfg *Config, logger logging.Logger) error {
	reg, err := registry.NewRegistry(a.DB, logger)
	if err != nil {
		return fmt.Errorf("new registry: %w", err)
	}
	a.Registry = reg

	store, err := history.NewStore(a.DB, logger)
	if err != nil {
		return fmt.Errorf("new history store: %w", err)
	}
	a.History = store

	wc, err := webclient.NewNetHTTPClient(cfg.WebClient, logger, nil)
	if err != nil {
		return fmt.Errorf("new web client: %w", err)
	}
	a.closers = append(a.closers, wc.Close)

	ex, err := newExtractor(cfg.Extractor, wc, logger)
	if err != nil {
		return err
	}

	checkRegistry, err := NewCheckRegistry(cfg.Checks, wc)
	if err != nil {
		return err
	}
	runner := checks.NewRunner(checkRegistry, cfg.Checks.Timeout, logger)

	var notifier notify.Notifier = notify.Nop{}
	if cfg.Notify.Enabled() {
		d, err := notify.NewDiscordNotifier(cfg.Notify, logger)
		if err != nil {
			return fmt.Errorf("new discord notifier: %w", err)
		}
		notifier = d
		a.closers = append(a.closers, d.Close)
	}

	a.Scanner, err = NewScanner(ScannerOptions{
		Projects:       reg,
		Extractor:      ex,
		Runner:         runner,
		Store:          store,
		Notifier:       notifier,
		ScoreThreshold: cfg.Notify.ScoreThreshold,
		Logger:         logger,
	})
	if err != nil {
		return err
	}
	a.Orchestrator = NewOrchestrator(cfg, a.Scanner, logger)
	a.Auth = auth.New(cfg.Auth)
	return nil
}

func newExtractor(cfg extractor.Config, wc webclient.WebClient, logger logging.Logger) (extractor.Extractor, error) {
	if cfg.Backend == extractor.BackendNetHTTP {
		return extractor.NewHTTPExtractor(cfg, wc, logger)
	}
	return extractor.New(cfg, logger)
}

// NewCheckRegistry builds the three built-in checks from cfg. The HTML
// validator talks to a Nu checker when configured and falls back to the
// local tokenizer otherwise.
func NewCheckRegistry(cfg ChecksConfig, wc webclient.WebClient) (*checks.Registry, error) {
	dict := checks.DefaultDictionary()
	if cfg.DictionaryPath != "" {
		d, err := checks.LoadDictionary(cfg.DictionaryPath)
		if err != nil {
			return nil, fmt.Errorf("load dictionary: %w", err)
		}
		dict = d
	}

	var validator checks.Validator = checks.NewLocalValidator()
	if cfg.Validator == ValidatorNu {
		if wc == nil {
			return nil, errors.New("nu validator needs a web client")
		}
		endpoint := cfg.ValidatorURL
		if endpoint == "" {
			endpoint = checks.DefaultNuURL
		}
		validator = checks.NewNuValidator(endpoint, wc)
	}

	reg := checks.NewRegistry(
		checks.NewAccessibilityCheck(),
		checks.NewSpellingCheck(dict),
		checks.NewHTMLValidationCheck(validator),
	)
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	return reg, nil
}

// Close stops background jobs and releases resources in reverse order of
// acquisition.
func (a *Application) Close() error {
	if a == nil {
		return errors.New("application is nil")
	}
	if a.Orchestrator != nil {
		a.Orchestrator.Close()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
