// Package server serves the homepage over SSH. Every session is one page
// load.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	bm "github.com/charmbracelet/wish/bubbletea"
	gossh "golang.org/x/crypto/ssh"

	"github.com/jmylchreest/homepage/internal/config"
	"github.com/jmylchreest/homepage/internal/geo"
	"github.com/jmylchreest/homepage/internal/homepage"
	"github.com/jmylchreest/homepage/internal/locale"
	"github.com/jmylchreest/homepage/internal/store"
	"github.com/jmylchreest/homepage/internal/theme"
	"github.com/jmylchreest/homepage/internal/tui"
)

// Deps are the shared services every session uses.
type Deps struct {
	// Store persists per-visitor preferences. Nil gives every session a
	// fresh in-memory store.
	Store *store.FileStore
	// Geo looks up visitor addresses. Nil disables geolocation.
	Geo *geo.Client
	// Palettes supplies theme colors. Nil uses the built-in palettes.
	Palettes *theme.Loader
	Logger   *slog.Logger
}

// Runtime wires config, middleware and the SSH server.
type Runtime struct {
	cfg     *config.Config
	deps    Deps
	logger  *slog.Logger
	limiter *Limiter
	server  *ssh.Server
}

// New builds the server. The host key is generated on first start.
func New(cfg *config.Config, deps Deps) (*Runtime, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	logger := deps.Logger.With("component", "server")

	if dir := filepath.Dir(cfg.Server.HostKeyPath); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create host key directory: %w", err)
		}
	}

	r := &Runtime{
		cfg:     cfg,
		deps:    deps,
		logger:  logger,
		limiter: NewLimiter(cfg.Server.RateLimitPerMinute, cfg.Server.RateLimitBurst),
	}

	address := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	srv, err := wish.NewServer(
		wish.WithAddress(address),
		wish.WithHostKeyPath(cfg.Server.HostKeyPath),
		wish.WithIdleTimeout(cfg.Server.IdleTimeout.Duration()),
		wish.WithPublicKeyAuth(func(ssh.Context, ssh.PublicKey) bool { return true }),
		wish.WithKeyboardInteractiveAuth(func(ssh.Context, gossh.KeyboardInteractiveChallenge) bool { return true }),
		// Last runs first.
		wish.WithMiddleware(
			bm.Middleware(r.teaHandler),
			activeterm.Middleware(),
			LoggingMiddleware(logger),
			RateLimitMiddleware(r.limiter, logger),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ssh server: %w", err)
	}
	r.server = srv
	return r, nil
}

// Address returns the listen address.
func (r *Runtime) Address() string {
	return r.server.Addr
}

// Run serves until ctx is done or the process receives SIGINT or SIGTERM.
func (r *Runtime) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		r.logger.Info("shutting down")
		_ = r.server.Shutdown(context.Background())
	}()

	r.logger.Info("listening",
		"address", r.server.Addr,
		"host_key_path", r.cfg.Server.HostKeyPath,
		"idle_timeout", r.cfg.Server.IdleTimeout.Duration(),
		"persistent", r.deps.Store != nil,
		"geolocation", r.deps.Geo != nil)

	err := r.server.ListenAndServe()
	if err == nil || errors.Is(err, ssh.ErrServerClosed) {
		return nil
	}
	return err
}

// teaHandler builds the page and view for one session.
func (r *Runtime) teaHandler(s ssh.Session) (tea.Model, []tea.ProgramOption) {
	visitor := visitorID(s.PublicKey(), s.RemoteAddr())
	renderer := bm.MakeRenderer(s)

	page, err := homepage.New(homepage.Options{
		Config:     r.cfg,
		Prefs:      r.preferences(visitor),
		Scheme:     theme.StaticScheme(renderer.HasDarkBackground()),
		Geolocator: r.geolocator(remoteIP(s.RemoteAddr())),
		Logger:     r.deps.Logger,
		Visitor:    visitor,
	})
	if err != nil {
		r.logger.Error("failed to create page", "visitor", visitor, "error", err)
		_, _ = fmt.Fprintln(s, "internal error")
		return nil, nil
	}

	page.Load(s.Context())
	go func() {
		<-s.Context().Done()
		page.Close()
	}()

	m := tui.New(page, tui.Options{
		Renderer:          renderer,
		Palettes:          r.deps.Palettes,
		TerminalClipboard: true,
		Logger:            r.deps.Logger,
	})
	return m, []tea.ProgramOption{tea.WithAltScreen()}
}

func (r *Runtime) preferences(visitor string) store.Preferences {
	if r.deps.Store == nil {
		return store.NewMemoryStore(nil)
	}
	return r.deps.Store.Bucket(visitor).WithSource("ssh")
}

func (r *Runtime) geolocator(ip string) locale.Geolocator {
	if r.deps.Geo == nil || !geolocatable(ip) {
		return nil
	}
	return r.deps.Geo.ForIP(ip)
}
