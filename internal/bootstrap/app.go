// Package bootstrap wires the catalogue, NLU pipeline, execution boundary,
// auth store and audit log into one App for the CLI and MCP entry points.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/DevSymphony/sysop/internal/audit"
	"github.com/DevSymphony/sysop/internal/auth"
	"github.com/DevSymphony/sysop/internal/catalogue"
	"github.com/DevSymphony/sysop/internal/executor"
	"github.com/DevSymphony/sysop/internal/lemma"
	"github.com/DevSymphony/sysop/internal/macro"
	"github.com/DevSymphony/sysop/internal/matcher"
	"github.com/DevSymphony/sysop/internal/nlu"
	"github.com/DevSymphony/sysop/internal/roles"
	"github.com/DevSymphony/sysop/internal/router"
	"github.com/DevSymphony/sysop/internal/sysinfo"
	"github.com/DevSymphony/sysop/internal/util/config"
	"github.com/DevSymphony/sysop/internal/watch"
)

// ErrPermissionDenied is returned when the caller's role is below the
// intent's required role.
var ErrPermissionDenied = errors.New("permission denied")

// Identity is an authenticated caller.
type Identity struct {
	Username string
	Role     roles.Role
}

// App holds the long-lived components of one sysop process.
type App struct {
	Config    *config.ProjectConfig
	Logger    *zap.Logger
	Catalogue *catalogue.Catalogue
	Parser    *nlu.Parser
	Handlers  *router.Registry
	Runner    *executor.Runner
	Session   *executor.Session

	// Audit is nil until OpenAudit succeeds.
	Audit *audit.Logger

	mu      sync.Mutex
	closers []func() error
}

// New builds an App from cfg. The catalogue comes from cfg.CataloguePath
// when that file exists and from the built-in definitions otherwise.
func New(cfg *config.ProjectConfig, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	cat, err := catalogue.Open(CatalogueSource(cfg), logger)
	if err != nil {
		return nil, err
	}

	lem := lemma.New(cfg.Lemmatizer, logger)
	m := matcher.New(lem, matcher.NewStrategy(cfg.Matcher), logger)
	parser := nlu.New(cat, m, logger)

	handlers := router.NewRegistry()
	if err := sysinfo.Register(handlers); err != nil {
		return nil, fmt.Errorf("failed to register built-in handlers: %w", err)
	}

	runner := executor.NewRunner(cat, handlers, cfg.OSTag, logger)
	return &App{
		Config:    cfg,
		Logger:    logger,
		Catalogue: cat,
		Parser:    parser,
		Handlers:  handlers,
		Runner:    runner,
		Session:   executor.NewSession(runner, logger),
	}, nil
}

// CatalogueSource picks the catalogue file or the embedded fallback.
func CatalogueSource(cfg *config.ProjectConfig) catalogue.Source {
	if cfg.CataloguePath != "" {
		if _, err := os.Stat(cfg.CataloguePath); err == nil {
			return catalogue.FileSource(cfg.CataloguePath)
		}
	}
	return catalogue.Embedded()
}

// Reload re-reads the catalogue and rebuilds the phrase index. On failure
// the previous catalogue stays active.
func (a *App) Reload() error {
	if err := a.Catalogue.Load(CatalogueSource(a.Config)); err != nil {
		return err
	}
	a.Parser.Rebuild()
	return nil
}

// Watch starts hot reload of the catalogue file. It returns nil when the
// embedded catalogue is in use or watching is disabled.
func (a *App) Watch(ctx context.Context) (*watch.Watcher, error) {
	if !a.Config.Watch() || strings.HasPrefix(a.Catalogue.Source(), "builtin:") {
		return nil, nil
	}
	w, err := watch.New(a.Config.CataloguePath, a.Reload, a.Logger)
	if err != nil {
		return nil, err
	}
	if err := w.Start(ctx); err != nil {
		return nil, err
	}
	a.onClose(func() error { w.Stop(); return nil })
	return w, nil
}

// OpenUsers opens the users database with the installation identity,
// creating the identity on first use.
func (a *App) OpenUsers() (*auth.Store, error) {
	sealer, created, err := auth.LoadOrCreateSealer(config.GetSecretKeyPath())
	if err != nil {
		return nil, err
	}
	if created {
		a.Logger.Info("generated installation key", zap.String("path", config.GetSecretKeyPath()))
	}
	store, err := auth.OpenStore(a.Config.UsersDB, sealer, a.Logger)
	if err != nil {
		return nil, err
	}
	a.onClose(store.Close)
	return store, nil
}

// OpenAudit attaches the SQLite audit log.
func (a *App) OpenAudit() (*audit.Logger, error) {
	l, err := audit.Open(a.Config.AuditDB, a.Logger)
	if err != nil {
		return nil, err
	}
	a.Audit = l
	a.onClose(l.Close)
	return l, nil
}

func (a *App) onClose(fn func() error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closers = append(a.closers, fn)
}

// Close releases everything opened through the App, newest first.
func (a *App) Close() error {
	a.mu.Lock()
	closers := a.closers
	a.closers = nil
	a.mu.Unlock()

	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Run checks the caller's role, executes the intent through the session and
// writes an audit record. Output chunks are streamed to out.
func (a *App) Run(ctx context.Context, who Identity, intent string, params map[string]string, out func(string)) error {
	def, ok := a.Catalogue.Get(intent)
	if !ok {
		return fmt.Errorf("%w: %s", catalogue.ErrUnknownIntent, intent)
	}

	check := roles.ValidateIntentPermission(who.Role, def)
	if !check.Allowed {
		err := fmt.Errorf("%w: %s requires role %s", ErrPermissionDenied, intent, check.Required)
		a.record(ctx, who, intent, params, err.Error(), true)
		return err
	}

	var transcript strings.Builder
	tee := func(chunk string) {
		transcript.WriteString(chunk)
		if out != nil {
			out(chunk)
		}
	}

	err := a.Session.Run(ctx, intent, params, tee)
	result := transcript.String()
	if err != nil && result == "" {
		result = err.Error()
	}
	a.record(ctx, who, intent, params, result, err != nil)
	return err
}

func (a *App) record(ctx context.Context, who Identity, intent string, params map[string]string, result string, failed bool) {
	if a.Audit == nil {
		return
	}
	var err error
	if failed {
		_, err = a.Audit.Error(ctx, who.Username, intent, params, result)
	} else {
		_, err = a.Audit.Info(ctx, who.Username, intent, params, result)
	}
	if err != nil {
		a.Logger.Warn("failed to write audit record", zap.Error(err))
	}
}

// MacroExecutor replays entries as who, with the same role checks and
// auditing as interactive runs.
func (a *App) MacroExecutor(who Identity, out func(string)) macro.Executor {
	return macro.ExecutorFunc(func(ctx context.Context, intent string, params map[string]string) error {
		return a.Run(ctx, who, intent, params, out)
	})
}

// NewSequencer returns a macro sequencer bound to who, using the configured
// playback delay.
func (a *App) NewSequencer(who Identity, out func(string)) *macro.Sequencer {
	return macro.New(a.MacroExecutor(who, out), a.Logger, macro.WithDelay(a.Config.PlaybackDelay()))
}
