package cli

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"finance-tracker-go/internal/export"
)

type dashboardCmd struct {
	app  *App
	days int
}

func (*dashboardCmd) Name() string     { return "dashboard" }
func (*dashboardCmd) Synopsis() string { return "show totals, the daily series and top categories" }
func (*dashboardCmd) Usage() string    { return "ledgerctl dashboard [-days <n>]\n" }

func (c *dashboardCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.days, "days", 0, "length of the daily series, defaults to the configured window")
}

func (c *dashboardCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ctx, err := c.app.session(ctx)
	if err != nil {
		return c.app.failed(err)
	}
	dash, err := c.app.aggregate.Dashboard(ctx)
	if err != nil {
		return c.app.failed(err)
	}
	if c.days > 0 {
		if dash.Daily, err = c.app.aggregate.DailySeries(ctx, c.days); err != nil {
			return c.app.failed(err)
		}
	}
	c.app.printMarkdown(dashboardMarkdown(dash, c.app.cfg.Currency))
	return subcommands.ExitSuccess
}

type exportCmd struct {
	app    *App
	format string
	output string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "export transactions as csv or xlsx" }
func (*exportCmd) Usage() string {
	return `ledgerctl export [-format csv|xlsx] [-o <file>]

  Writes every transaction, newest first. Without -o the file is named
  after today's date in the current directory.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.format, "format", "csv", "csv or xlsx")
	f.StringVar(&c.output, "o", "", "output file")
}

func (c *exportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	format, err := export.ParseFormat(c.format)
	if err != nil {
		return c.app.failed(err)
	}
	ctx, err = c.app.session(ctx)
	if err != nil {
		return c.app.failed(err)
	}
	details, err := c.app.aggregate.ListTransactionsWithDetails(ctx)
	if err != nil {
		return c.app.failed(err)
	}

	path := c.output
	if path == "" {
		path = format.Filename(c.app.aggregate.Today().Format("20060102"))
	}
	f, err := os.Create(path)
	if err != nil {
		return c.app.failed(err)
	}
	if err := export.Write(f, format, details); err != nil {
		f.Close()
		return c.app.failed(err)
	}
	if err := f.Close(); err != nil {
		return c.app.failed(err)
	}
	fmt.Fprintf(c.app.out, "Exported %d transactions to %s\n", len(details), path)
	return subcommands.ExitSuccess
}
