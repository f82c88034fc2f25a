// Package aggregate derives read models from the ledger: transaction
// details with resolved names, dashboard totals, a fixed-window daily
// series and the expense distribution by category.
//
// Nothing here is cached. Every Engine call reads the owner's records
// fresh from the store and hands them to the pure Compute functions.
package aggregate

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"finance-tracker-go/internal/identity"
	"finance-tracker-go/internal/models"
	"finance-tracker-go/internal/store"
)

// Display fallbacks for references that do not resolve.
const (
	UnknownCategory = "Uncategorized"
	UnknownBank     = "Unknown Bank"
	UnknownCard     = "Unknown Card"
	OtherCategory   = "Other"
)

const (
	DefaultWindowDays = 7
	RecentCount       = 5
	TopCategoryCount  = 4
)

type TransactionDetail struct {
	models.Transaction
	CategoryName          string `json:"category_name"`
	ClassificationName    string `json:"classification_name,omitempty"`
	PaymentMethodName     string `json:"payment_method_name"`
	CategoryResolved      bool   `json:"category_resolved"`
	PaymentMethodResolved bool   `json:"payment_method_resolved"`
}

type DashboardStats struct {
	TotalBalance         decimal.Decimal `json:"total_balance"`
	TotalAvailableCredit decimal.Decimal `json:"total_available_credit"`
	TotalIncome          decimal.Decimal `json:"total_income"`
	TotalExpenses        decimal.Decimal `json:"total_expenses"`
}

type DailyPoint struct {
	Date    string          `json:"date"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
}

// Distribution maps a category label to its expense total. It has no order.
type Distribution map[string]decimal.Decimal

type CategoryTotal struct {
	Label string          `json:"label"`
	Total decimal.Decimal `json:"total"`
}

type Dashboard struct {
	Stats         DashboardStats      `json:"stats"`
	Daily         []DailyPoint        `json:"daily"`
	Distribution  Distribution        `json:"distribution"`
	TopCategories []CategoryTotal     `json:"top_categories"`
	Recent        []TransactionDetail `json:"recent"`
}

type Engine struct {
	store  store.Store
	loc    *time.Location
	window int
	now    func() time.Time
}

// New returns an engine that evaluates "today" in loc and uses window
// days for the dashboard series.
func New(s store.Store, loc *time.Location, window int) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{store: s, loc: loc, window: window, now: time.Now}
}

// WithClock replaces the wall clock, for tests and reproducible reports.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Today is the current calendar day in the engine's location.
func (e *Engine) Today() time.Time {
	t := e.now().In(e.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, e.loc)
}

type snapshot struct {
	transactions    []models.Transaction
	categories      []models.Category
	classifications []models.Classification
	accounts        []models.BankAccount
	cards           []models.CreditCard
}

func (e *Engine) load(ctx context.Context, owner string) (snapshot, error) {
	var snap snapshot
	var err error
	if snap.transactions, err = e.store.Transactions().All(ctx, owner); err != nil {
		return snap, fmt.Errorf("aggregate: loading transactions: %w", err)
	}
	if snap.categories, err = e.store.Categories().All(ctx, owner); err != nil {
		return snap, fmt.Errorf("aggregate: loading categories: %w", err)
	}
	if snap.classifications, err = e.store.Classifications().All(ctx, owner); err != nil {
		return snap, fmt.Errorf("aggregate: loading classifications: %w", err)
	}
	if snap.accounts, err = e.store.Accounts().All(ctx, owner); err != nil {
		return snap, fmt.Errorf("aggregate: loading accounts: %w", err)
	}
	if snap.cards, err = e.store.Cards().All(ctx, owner); err != nil {
		return snap, fmt.Errorf("aggregate: loading cards: %w", err)
	}
	return snap, nil
}

func (s snapshot) details() []TransactionDetail {
	return ResolveDetails(s.transactions, s.categories, s.classifications, s.accounts, s.cards)
}

// ListTransactionsWithDetails is the canonical transaction read model,
// newest date first.
func (e *Engine) ListTransactionsWithDetails(ctx context.Context) ([]TransactionDetail, error) {
	owner, ok := identity.OwnerFrom(ctx)
	if !ok {
		return []TransactionDetail{}, nil
	}
	snap, err := e.load(ctx, owner)
	if err != nil {
		return nil, err
	}
	return snap.details(), nil
}

func (e *Engine) DashboardStats(ctx context.Context) (DashboardStats, error) {
	owner, ok := identity.OwnerFrom(ctx)
	if !ok {
		return ComputeStats(nil, nil, nil), nil
	}
	snap, err := e.load(ctx, owner)
	if err != nil {
		return DashboardStats{}, err
	}
	return ComputeStats(snap.transactions, snap.accounts, snap.cards), nil
}

// DailySeries returns exactly windowDays points ending today. A
// non-positive window means DefaultWindowDays.
func (e *Engine) DailySeries(ctx context.Context, windowDays int) ([]DailyPoint, error) {
	owner, ok := identity.OwnerFrom(ctx)
	if !ok {
		return ComputeDailySeries(nil, e.Today(), windowDays), nil
	}
	txs, err := e.store.Transactions().All(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("aggregate: loading transactions: %w", err)
	}
	return ComputeDailySeries(txs, e.Today(), windowDays), nil
}

func (e *Engine) CategoryDistribution(ctx context.Context) (Distribution, error) {
	owner, ok := identity.OwnerFrom(ctx)
	if !ok {
		return Distribution{}, nil
	}
	snap, err := e.load(ctx, owner)
	if err != nil {
		return nil, err
	}
	return ComputeCategoryDistribution(snap.details()), nil
}

// Dashboard computes every dashboard widget from a single read.
func (e *Engine) Dashboard(ctx context.Context) (Dashboard, error) {
	var snap snapshot
	if owner, ok := identity.OwnerFrom(ctx); ok {
		var err error
		if snap, err = e.load(ctx, owner); err != nil {
			return Dashboard{}, err
		}
	}
	details := snap.details()
	dist := ComputeCategoryDistribution(details)
	recent := details
	if len(recent) > RecentCount {
		recent = recent[:RecentCount]
	}
	return Dashboard{
		Stats:         ComputeStats(snap.transactions, snap.accounts, snap.cards),
		Daily:         ComputeDailySeries(snap.transactions, e.Today(), e.window),
		Distribution:  dist,
		TopCategories: TopCategories(dist, TopCategoryCount),
		Recent:        recent,
	}, nil
}

// ResolveDetails joins transactions against their category and payment
// source. The result is sorted by date descending; equal dates keep the
// input order.
func ResolveDetails(
	txs []models.Transaction,
	categories []models.Category,
	classifications []models.Classification,
	accounts []models.BankAccount,
	cards []models.CreditCard,
) []TransactionDetail {
	catIdx := store.NewIndex(categories)
	clsIdx := store.NewIndex(classifications)
	acctIdx := store.NewIndex(accounts)
	cardIdx := store.NewIndex(cards)

	out := make([]TransactionDetail, 0, len(txs))
	for _, tx := range txs {
		d := TransactionDetail{Transaction: tx}

		cat := catIdx.Lookup(tx.CategoryID)
		d.CategoryName = cat.Label(func(c models.Category) string { return c.Name }, UnknownCategory)
		if c, ok := cat.Get(); ok && c.Name != "" {
			d.CategoryResolved = true
			if c.ClassificationID != nil {
				d.ClassificationName = clsIdx.Lookup(*c.ClassificationID).Label(
					func(c models.Classification) string { return c.Name }, "")
			}
		}

		switch tx.PaymentMethod {
		case models.CreditCardMethod:
			card := cardIdx.Lookup(tx.PaymentMethodID)
			d.PaymentMethodName = card.Label(func(c models.CreditCard) string { return c.Title }, UnknownCard)
			d.PaymentMethodResolved = card.IsFound()
		default:
			acct := acctIdx.Lookup(tx.PaymentMethodID)
			d.PaymentMethodName = acct.Label(func(a models.BankAccount) string { return a.BankName }, UnknownBank)
			d.PaymentMethodResolved = acct.IsFound()
		}
		out = append(out, d)
	}

	// YYYY-MM-DD compares chronologically as a string
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out
}

// ComputeStats sums balances over every account and card, active or not,
// and income and expenses over all time.
func ComputeStats(txs []models.Transaction, accounts []models.BankAccount, cards []models.CreditCard) DashboardStats {
	var s DashboardStats
	for _, a := range accounts {
		s.TotalBalance = s.TotalBalance.Add(a.CurrentBalance)
	}
	for _, c := range cards {
		s.TotalAvailableCredit = s.TotalAvailableCredit.Add(c.AvailableLimit)
	}
	for _, tx := range txs {
		switch tx.TransactionType {
		case models.Income:
			s.TotalIncome = s.TotalIncome.Add(tx.Amount)
		case models.Expense:
			s.TotalExpenses = s.TotalExpenses.Add(tx.Amount)
		}
	}
	return s
}

// ComputeDailySeries buckets txs by exact date over windowDays days ending
// at today, oldest first. Empty days are kept as zero points.
func ComputeDailySeries(txs []models.Transaction, today time.Time, windowDays int) []DailyPoint {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	points := make([]DailyPoint, windowDays)
	pos := make(map[string]int, windowDays)
	for i := 0; i < windowDays; i++ {
		day := today.AddDate(0, 0, i-windowDays+1).Format(models.DateLayout)
		points[i] = DailyPoint{Date: day, Income: decimal.Zero, Expense: decimal.Zero}
		pos[day] = i
	}
	for _, tx := range txs {
		i, ok := pos[tx.Date]
		if !ok {
			continue
		}
		switch tx.TransactionType {
		case models.Income:
			points[i].Income = points[i].Income.Add(tx.Amount)
		case models.Expense:
			points[i].Expense = points[i].Expense.Add(tx.Amount)
		}
	}
	return points
}

// ComputeCategoryDistribution sums expenses per category name. Unresolved
// categories are grouped under OtherCategory, not UnknownCategory.
func ComputeCategoryDistribution(details []TransactionDetail) Distribution {
	dist := Distribution{}
	for _, d := range details {
		if d.TransactionType != models.Expense {
			continue
		}
		label := OtherCategory
		if d.CategoryResolved {
			label = d.CategoryName
		}
		dist[label] = dist[label].Add(d.Amount)
	}
	return dist
}

// TopCategories orders dist by descending total, ties by label, and keeps
// at most n entries. n <= 0 keeps all of them.
func TopCategories(dist Distribution, n int) []CategoryTotal {
	out := make([]CategoryTotal, 0, len(dist))
	for label, total := range dist {
		out = append(out, CategoryTotal{Label: label, Total: total})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Total.Cmp(out[j].Total); c != 0 {
			return c > 0
		}
		return out[i].Label < out[j].Label
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
