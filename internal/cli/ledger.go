package cli

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"finance-tracker-go/internal/ledger"
	"finance-tracker-go/internal/models"
)

// oneArg returns the single positional argument of a command, such as an id.
func oneArg(f *flag.FlagSet, what string) (string, error) {
	if f.NArg() != 1 {
		return "", fmt.Errorf("expected exactly one %s argument", what)
	}
	return f.Arg(0), nil
}

type addAccountCmd struct {
	app      *App
	bank     string
	balance  string
	inactive bool
}

func (*addAccountCmd) Name() string     { return "add-account" }
func (*addAccountCmd) Synopsis() string { return "add a bank account" }
func (*addAccountCmd) Usage() string {
	return "ledgerctl add-account -bank <name> [-balance <initial balance>] [-inactive]\n"
}

func (c *addAccountCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.bank, "bank", "", "bank name")
	f.StringVar(&c.balance, "balance", "0", "initial balance")
	f.BoolVar(&c.inactive, "inactive", false, "create the account inactive")
}

func (c *addAccountCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ctx, err := c.app.session(ctx)
	if err != nil {
		return c.app.failed(err)
	}
	balance, err := decimal.NewFromString(c.balance)
	if err != nil {
		return c.app.failed(fmt.Errorf("invalid balance %q", c.balance))
	}
	active := !c.inactive
	acct, err := c.app.ledger.AddAccount(ctx, ledger.AccountInput{BankName: c.bank, InitialBalance: balance, IsActive: &active})
	if err != nil {
		return c.app.failed(err)
	}
	fmt.Fprintf(c.app.out, "Added account %s (%s)\n", acct.BankName, acct.ID)
	return subcommands.ExitSuccess
}

type accountsCmd struct{ app *App }

func (*accountsCmd) Name() string             { return "accounts" }
func (*accountsCmd) Synopsis() string         { return "list bank accounts" }
func (*accountsCmd) Usage() string            { return "ledgerctl accounts\n" }
func (*accountsCmd) SetFlags(_ *flag.FlagSet) {}

func (c *accountsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ctx, err := c.app.session(ctx)
	if err != nil {
		return c.app.failed(err)
	}
	accts, err := c.app.ledger.ListAccounts(ctx)
	if err != nil {
		return c.app.failed(err)
	}
	c.app.printMarkdown(accountsMarkdown(accts, c.app.cfg.Currency))
	return subcommands.ExitSuccess
}

type toggleAccountCmd struct{ app *App }

func (*toggleAccountCmd) Name() string             { return "toggle-account" }
func (*toggleAccountCmd) Synopsis() string         { return "activate or deactivate a bank account" }
func (*toggleAccountCmd) Usage() string            { return "ledgerctl toggle-account <id>\n" }
func (*toggleAccountCmd) SetFlags(_ *flag.FlagSet) {}

func (c *toggleAccountCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	id, err := oneArg(f, "account id")
	if err != nil {
		return c.app.failed(err)
	}
	ctx, err = c.app.session(ctx)
	if err != nil {
		return c.app.failed(err)
	}
	if err := c.app.ledger.ToggleAccount(ctx, id); err != nil {
		return c.app.failed(err)
	}
	fmt.Fprintf(c.app.out, "Toggled account %s\n", id)
	return subcommands.ExitSuccess
}

type addCardCmd struct {
	app                *App
	title, limit       string
	brand              string
	dueDay, closingDay int
}

func (*addCardCmd) Name() string     { return "add-card" }
func (*addCardCmd) Synopsis() string { return "add a credit card" }
func (*addCardCmd) Usage() string {
	return "ledgerctl add-card -title <name> -limit <credit limit> [-brand <brand>] -due <day> -closing <day>\n"
}

func (c *addCardCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.title, "title", "", "card title")
	f.StringVar(&c.limit, "limit", "0", "credit limit")
	f.StringVar(&c.brand, "brand", "", "card brand, e.g. Visa")
	f.IntVar(&c.dueDay, "due", 10, "due day of month (1-31)")
	f.IntVar(&c.closingDay, "closing", 3, "closing day of month (1-31)")
}

func (c *addCardCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ctx, err := c.app.session(ctx)
	if err != nil {
		return c.app.failed(err)
	}
	limit, err := decimal.NewFromString(c.limit)
	if err != nil {
		return c.app.failed(fmt.Errorf("invalid limit %q", c.limit))
	}
	card, err := c.app.ledger.AddCard(ctx, ledger.CardInput{
		Title: c.title, CreditLimit: limit, Brand: c.brand, DueDay: c.dueDay, ClosingDay: c.closingDay,
	})
	if err != nil {
		return c.app.failed(err)
	}
	fmt.Fprintf(c.app.out, "Added card %s (%s)\n", card.Title, card.ID)
	return subcommands.ExitSuccess
}

type cardsCmd struct{ app *App }

func (*cardsCmd) Name() string             { return "cards" }
func (*cardsCmd) Synopsis() string         { return "list credit cards" }
func (*cardsCmd) Usage() string            { return "ledgerctl cards\n" }
func (*cardsCmd) SetFlags(_ *flag.FlagSet) {}

func (c *cardsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ctx, err := c.app.session(ctx)
	if err != nil {
		return c.app.failed(err)
	}
	cards, err := c.app.ledger.ListCards(ctx)
	if err != nil {
		return c.app.failed(err)
	}
	c.app.printMarkdown(cardsMarkdown(cards, c.app.cfg.Currency))
	return subcommands.ExitSuccess
}

type toggleCardCmd struct{ app *App }

func (*toggleCardCmd) Name() string             { return "toggle-card" }
func (*toggleCardCmd) Synopsis() string         { return "activate or deactivate a credit card" }
func (*toggleCardCmd) Usage() string            { return "ledgerctl toggle-card <id>\n" }
func (*toggleCardCmd) SetFlags(_ *flag.FlagSet) {}

func (c *toggleCardCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	id, err := oneArg(f, "card id")
	if err != nil {
		return c.app.failed(err)
	}
	ctx, err = c.app.session(ctx)
	if err != nil {
		return c.app.failed(err)
	}
	if err := c.app.ledger.ToggleCard(ctx, id); err != nil {
		return c.app.failed(err)
	}
	fmt.Fprintf(c.app.out, "Toggled card %s\n", id)
	return subcommands.ExitSuccess
}

type addTxCmd struct {
	app         *App
	kind        string
	amount      string
	date        string
	category    string
	method      string
	source      string
	description string
}

func (*addTxCmd) Name() string     { return "add-tx" }
func (*addTxCmd) Synopsis() string { return "record an income or expense" }
func (*addTxCmd) Usage() string {
	return `ledgerctl add-tx -type income|expense -amount <n> -category <id> -method bank|card -source <id> [-date YYYY-MM-DD] [-desc <text>]

  Records a transaction and adjusts the balance of its payment source.
  The date defaults to today.
`
}

func (c *addTxCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.kind, "type", "expense", "income or expense")
	f.StringVar(&c.amount, "amount", "", "positive amount")
	f.StringVar(&c.date, "date", "", "calendar date, defaults to today")
	f.StringVar(&c.category, "category", "", "category id")
	f.StringVar(&c.method, "method", "bank", "payment method: bank or card")
	f.StringVar(&c.source, "source", "", "account or card id")
	f.StringVar(&c.description, "desc", "", "description")
}

func parseMethod(s string) models.PaymentMethod {
	switch strings.ToLower(s) {
	case "bank", "bank_account":
		return models.BankAccountMethod
	case "card", "credit_card":
		return models.CreditCardMethod
	}
	return models.PaymentMethod(strings.ToUpper(s))
}

func (c *addTxCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ctx, err := c.app.session(ctx)
	if err != nil {
		return c.app.failed(err)
	}
	amount, err := decimal.NewFromString(c.amount)
	if err != nil {
		return c.app.failed(fmt.Errorf("invalid amount %q", c.amount))
	}
	date := c.date
	if date == "" {
		date = c.app.aggregate.Today().Format(models.DateLayout)
	}
	tx, err := c.app.ledger.AddTransaction(ctx, ledger.TransactionInput{
		TransactionType: models.TransactionType(strings.ToUpper(c.kind)),
		Amount:          amount,
		Date:            date,
		CategoryID:      c.category,
		PaymentMethod:   parseMethod(c.method),
		PaymentMethodID: c.source,
		Description:     c.description,
	})
	if err != nil {
		return c.app.failed(err)
	}
	fmt.Fprintf(c.app.out, "Recorded %s of %s on %s (%s)\n",
		strings.ToLower(string(tx.TransactionType)), formatMoney(tx.Amount, c.app.cfg.Currency), tx.Date, tx.ID)
	return subcommands.ExitSuccess
}

type txsCmd struct {
	app   *App
	limit int
}

func (*txsCmd) Name() string     { return "txs" }
func (*txsCmd) Synopsis() string { return "list transactions, newest first" }
func (*txsCmd) Usage() string    { return "ledgerctl txs [-n <count>]\n" }

func (c *txsCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.limit, "n", 0, "show at most n transactions (0 for all)")
}

func (c *txsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ctx, err := c.app.session(ctx)
	if err != nil {
		return c.app.failed(err)
	}
	details, err := c.app.aggregate.ListTransactionsWithDetails(ctx)
	if err != nil {
		return c.app.failed(err)
	}
	if c.limit > 0 && len(details) > c.limit {
		details = details[:c.limit]
	}
	c.app.printMarkdown(transactionsMarkdown(details, c.app.cfg.Currency))
	return subcommands.ExitSuccess
}

type deleteTxCmd struct{ app *App }

func (*deleteTxCmd) Name() string     { return "delete-tx" }
func (*deleteTxCmd) Synopsis() string { return "delete a transaction without reverting its balance effect" }
func (*deleteTxCmd) Usage() string {
	return "ledgerctl delete-tx <id>\n\n  Balances adjusted by the transaction are left as they are.\n"
}
func (*deleteTxCmd) SetFlags(_ *flag.FlagSet) {}

func (c *deleteTxCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	id, err := oneArg(f, "transaction id")
	if err != nil {
		return c.app.failed(err)
	}
	ctx, err = c.app.session(ctx)
	if err != nil {
		return c.app.failed(err)
	}
	if err := c.app.ledger.DeleteTransaction(ctx, id); err != nil {
		return c.app.failed(err)
	}
	fmt.Fprintf(c.app.out, "Deleted transaction %s\n", id)
	return subcommands.ExitSuccess
}
