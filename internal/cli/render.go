package cli

import (
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"finance-tracker-go/internal/aggregate"
	"finance-tracker-go/internal/models"
	"finance-tracker-go/internal/registry"
)

// formatMoney renders d in the display currency, e.g. "$1,234.50".
func formatMoney(d decimal.Decimal, currency string) string {
	if currency == "" {
		currency = money.USD
	}
	cur := *money.New(0, currency).Currency()
	minor := d.Shift(int32(cur.Fraction)).Round(0)
	return cur.Formatter().Format(minor.IntPart())
}

// cell keeps user text from breaking a markdown table row.
func cell(s string) string {
	if s == "" {
		return "-"
	}
	return strings.ReplaceAll(s, "|", "\\|")
}

func activeMark(active bool) string {
	if active {
		return "yes"
	}
	return "no"
}

func accountsMarkdown(accts []models.BankAccount, currency string) string {
	var b strings.Builder
	b.WriteString("# Bank accounts\n\n")
	if len(accts) == 0 {
		b.WriteString("No accounts yet.\n")
		return b.String()
	}
	b.WriteString("| Bank | Initial | Current | Active | ID |\n|---|--:|--:|---|---|\n")
	for _, a := range accts {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n", cell(a.BankName),
			formatMoney(a.InitialBalance, currency), formatMoney(a.CurrentBalance, currency),
			activeMark(a.IsActive), a.ID)
	}
	return b.String()
}

func cardsMarkdown(cards []models.CreditCard, currency string) string {
	var b strings.Builder
	b.WriteString("# Credit cards\n\n")
	if len(cards) == 0 {
		b.WriteString("No cards yet.\n")
		return b.String()
	}
	b.WriteString("| Card | Brand | Limit | Available | Due | Closing | Active | ID |\n|---|---|--:|--:|--:|--:|---|---|\n")
	for _, c := range cards {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %d | %d | %s | %s |\n", cell(c.Title), cell(c.Brand),
			formatMoney(c.CreditLimit, currency), formatMoney(c.AvailableLimit, currency),
			c.DueDay, c.ClosingDay, activeMark(c.IsActive), c.ID)
	}
	return b.String()
}

func transactionsTable(b *strings.Builder, details []aggregate.TransactionDetail, currency string) {
	b.WriteString("| Date | Description | Category | Paid with | Amount |\n|---|---|---|---|--:|\n")
	for _, d := range details {
		fmt.Fprintf(b, "| %s | %s | %s | %s | %s |\n", d.Date, cell(d.Description),
			cell(d.CategoryName), cell(d.PaymentMethodName), formatMoney(d.SignedAmount(), currency))
	}
}

func transactionsMarkdown(details []aggregate.TransactionDetail, currency string) string {
	var b strings.Builder
	b.WriteString("# Transactions\n\n")
	if len(details) == 0 {
		b.WriteString("No transactions yet.\n")
		return b.String()
	}
	transactionsTable(&b, details, currency)
	return b.String()
}

func groupsMarkdown(groups []registry.Group) string {
	var b strings.Builder
	b.WriteString("# Categories\n")
	for _, g := range groups {
		title := "Ungrouped"
		if g.Classification != nil {
			title = g.Classification.Name
		}
		fmt.Fprintf(&b, "\n## %s\n\n", cell(title))
		for _, c := range g.Categories {
			fmt.Fprintf(&b, "- %s (%s) `%s`\n", c.Name, strings.ToLower(string(c.Type)), c.ID)
		}
	}
	return b.String()
}

func dashboardMarkdown(dash aggregate.Dashboard, currency string) string {
	var b strings.Builder
	s := dash.Stats
	b.WriteString("# Dashboard\n\n")
	fmt.Fprintf(&b, "| Total balance | Available credit | Income | Expenses |\n|--:|--:|--:|--:|\n| %s | %s | %s | %s |\n",
		formatMoney(s.TotalBalance, currency), formatMoney(s.TotalAvailableCredit, currency),
		formatMoney(s.TotalIncome, currency), formatMoney(s.TotalExpenses, currency))

	b.WriteString("\n## Daily\n\n| Date | Income | Expense |\n|---|--:|--:|\n")
	for _, p := range dash.Daily {
		fmt.Fprintf(&b, "| %s | %s | %s |\n", p.Date, formatMoney(p.Income, currency), formatMoney(p.Expense, currency))
	}

	if len(dash.TopCategories) > 0 {
		b.WriteString("\n## Top categories\n\n| Category | Total |\n|---|--:|\n")
		for _, t := range dash.TopCategories {
			fmt.Fprintf(&b, "| %s | %s |\n", cell(t.Label), formatMoney(t.Total, currency))
		}
	}

	if len(dash.Recent) > 0 {
		b.WriteString("\n## Recent\n\n")
		transactionsTable(&b, dash.Recent, currency)
	}
	return b.String()
}
