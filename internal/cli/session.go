package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"finance-tracker-go/internal/auth"
)

type signupCmd struct {
	app                   *App
	name, email, password string
}

func (*signupCmd) Name() string     { return "signup" }
func (*signupCmd) Synopsis() string { return "create an account and log in" }
func (*signupCmd) Usage() string {
	return `ledgerctl signup -name <name> -email <email> -password <password>

  Registers a new user, seeds the default categories and stores the
  session token locally.
`
}

func (c *signupCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "display name")
	f.StringVar(&c.email, "email", "", "login email")
	f.StringVar(&c.password, "password", "", "password (6 characters or more)")
}

func (c *signupCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	sess, err := c.app.auth.SignUp(ctx, auth.SignUpInput{Name: c.name, Email: c.email, Password: c.password})
	if err != nil {
		return c.app.failed(err)
	}
	if err := c.app.saveSession(sess); err != nil {
		return c.app.failed(err)
	}
	fmt.Fprintf(c.app.out, "Welcome %s, you are logged in until %s\n", sess.User.Name, sess.ExpiresAt.Format("2006-01-02 15:04"))
	return subcommands.ExitSuccess
}

type loginCmd struct {
	app             *App
	email, password string
}

func (*loginCmd) Name() string     { return "login" }
func (*loginCmd) Synopsis() string { return "log in and store the session token" }
func (*loginCmd) Usage() string {
	return "ledgerctl login -email <email> -password <password>\n"
}

func (c *loginCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.email, "email", "", "login email")
	f.StringVar(&c.password, "password", "", "password")
}

func (c *loginCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	sess, err := c.app.auth.Login(ctx, c.email, c.password)
	if err != nil {
		return c.app.failed(err)
	}
	if err := c.app.saveSession(sess); err != nil {
		return c.app.failed(err)
	}
	fmt.Fprintf(c.app.out, "Logged in as %s\n", sess.User.Email)
	return subcommands.ExitSuccess
}

type logoutCmd struct{ app *App }

func (*logoutCmd) Name() string             { return "logout" }
func (*logoutCmd) Synopsis() string         { return "forget the stored session token" }
func (*logoutCmd) Usage() string            { return "ledgerctl logout\n" }
func (*logoutCmd) SetFlags(_ *flag.FlagSet) {}

func (c *logoutCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := c.app.clearSession(); err != nil {
		return c.app.failed(err)
	}
	fmt.Fprintln(c.app.out, "Logged out")
	return subcommands.ExitSuccess
}
