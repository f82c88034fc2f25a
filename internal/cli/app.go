// Package cli implements ledgerctl, a local command line client over the
// ledger core.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"
	"github.com/rs/zerolog"

	"finance-tracker-go/internal/aggregate"
	"finance-tracker-go/internal/auth"
	"finance-tracker-go/internal/config"
	"finance-tracker-go/internal/ledger"
	"finance-tracker-go/internal/registry"
	"finance-tracker-go/internal/store"
)

var errNoSession = errors.New("not logged in, run signup or login first")

// App is shared by every command of one ledgerctl run.
type App struct {
	cfg       *config.Config
	log       zerolog.Logger
	out       io.Writer
	auth      *auth.Service
	ledger    *ledger.Engine
	registry  *registry.Registry
	aggregate *aggregate.Engine

	// Plain prints markdown as is instead of rendering it for a terminal.
	Plain bool
}

func New(cfg *config.Config, log zerolog.Logger, s store.Store, out io.Writer) *App {
	reg := registry.New(s, log)
	return &App{
		cfg: cfg,
		log: log,
		out: out,
		auth: auth.New(s, reg, log, auth.Options{
			Secret:     cfg.JWTSecret,
			TTL:        cfg.SessionTTL(),
			BcryptCost: cfg.BcryptCost,
		}),
		ledger:    ledger.New(s, log),
		registry:  reg,
		aggregate: aggregate.New(s, cfg.Location(), cfg.DailyWindowDays),
	}
}

// Register adds every ledgerctl command to c.
func Register(c *subcommands.Commander, app *App) {
	c.Register(&signupCmd{app: app}, "session")
	c.Register(&loginCmd{app: app}, "session")
	c.Register(&logoutCmd{app: app}, "session")

	c.Register(&addAccountCmd{app: app}, "accounts")
	c.Register(&accountsCmd{app: app}, "accounts")
	c.Register(&toggleAccountCmd{app: app}, "accounts")
	c.Register(&addCardCmd{app: app}, "accounts")
	c.Register(&cardsCmd{app: app}, "accounts")
	c.Register(&toggleCardCmd{app: app}, "accounts")

	c.Register(&addClassificationCmd{app: app}, "categories")
	c.Register(&classificationsCmd{app: app}, "categories")
	c.Register(&deleteClassificationCmd{app: app}, "categories")
	c.Register(&addCategoryCmd{app: app}, "categories")
	c.Register(&categoriesCmd{app: app}, "categories")
	c.Register(&deleteCategoryCmd{app: app}, "categories")

	c.Register(&addTxCmd{app: app}, "transactions")
	c.Register(&txsCmd{app: app}, "transactions")
	c.Register(&deleteTxCmd{app: app}, "transactions")

	c.Register(&dashboardCmd{app: app}, "reports")
	c.Register(&exportCmd{app: app}, "reports")
}

func (a *App) saveSession(sess *auth.Session) error {
	if dir := filepath.Dir(a.cfg.SessionFile); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("session: %w", err)
		}
	}
	return os.WriteFile(a.cfg.SessionFile, []byte(sess.Token+"\n"), 0o600)
}

func (a *App) clearSession() error {
	err := os.Remove(a.cfg.SessionFile)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// session returns ctx carrying the owner of the saved session token.
func (a *App) session(ctx context.Context) (context.Context, error) {
	b, err := os.ReadFile(a.cfg.SessionFile)
	if errors.Is(err, fs.ErrNotExist) {
		return ctx, errNoSession
	}
	if err != nil {
		return ctx, fmt.Errorf("session: %w", err)
	}
	ctx, err = a.auth.Authenticate(ctx, strings.TrimSpace(string(b)))
	if errors.Is(err, auth.ErrTokenInvalid) {
		return ctx, fmt.Errorf("session expired, run login again: %w", err)
	}
	return ctx, err
}

func (a *App) printMarkdown(md string) {
	if a.Plain {
		fmt.Fprint(a.out, md)
		return
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(120))
	if err == nil {
		var out string
		if out, err = r.Render(md); err == nil {
			fmt.Fprint(a.out, out)
			return
		}
	}
	a.log.Debug().Err(err).Msg("markdown rendering failed, printing raw")
	fmt.Fprint(a.out, md)
}

// failed reports err on stderr and returns the failure status.
func (a *App) failed(err error) subcommands.ExitStatus {
	fmt.Fprintln(os.Stderr, "error:", err)
	return subcommands.ExitFailure
}
