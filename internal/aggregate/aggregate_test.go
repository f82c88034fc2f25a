package aggregate

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"finance-tracker-go/internal/identity"
	"finance-tracker-go/internal/ledger"
	"finance-tracker-go/internal/models"
	"finance-tracker-go/internal/store"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func fixedClock(s string) func() time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return t }
}

func tx(id, date string, kind models.TransactionType, amount, categoryID string) models.Transaction {
	return models.Transaction{
		ID: id, OwnerID: "u1", Date: date, TransactionType: kind, Amount: dec(amount),
		CategoryID: categoryID, PaymentMethod: models.BankAccountMethod, PaymentMethodID: "a1",
	}
}

func TestResolveDetailsSortsByDateDescending(t *testing.T) {
	txs := []models.Transaction{
		tx("t1", "2024-01-01", models.Expense, "1", "c1"),
		tx("t2", "2024-01-03", models.Expense, "1", "c1"),
		tx("t3", "2024-01-02", models.Expense, "1", "c1"),
		tx("t4", "2024-01-03", models.Income, "1", "c1"),
	}
	got := ResolveDetails(txs, nil, nil, nil, nil)
	want := []string{"t2", "t4", "t3", "t1"}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("position %d: got %s want %s (order %v)", i, got[i].ID, id, ids(got))
		}
	}
}

func ids(ds []TransactionDetail) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.ID
	}
	return out
}

func TestResolveDetailsFallbacks(t *testing.T) {
	clsID := "cls1"
	cats := []models.Category{{ID: "c1", Name: "Food", ClassificationID: &clsID}}
	classes := []models.Classification{{ID: "cls1", Name: "Essentials"}}
	accts := []models.BankAccount{{ID: "a1", BankName: "First"}}
	cards := []models.CreditCard{{ID: "k1", Title: "Gold"}}

	txs := []models.Transaction{
		{ID: "t1", Date: "2024-01-01", CategoryID: "c1", PaymentMethod: models.BankAccountMethod, PaymentMethodID: "a1"},
		{ID: "t2", Date: "2024-01-01", CategoryID: "gone", PaymentMethod: models.BankAccountMethod, PaymentMethodID: "gone"},
		{ID: "t3", Date: "2024-01-01", CategoryID: "c1", PaymentMethod: models.CreditCardMethod, PaymentMethodID: "k1"},
		{ID: "t4", Date: "2024-01-01", CategoryID: "c1", PaymentMethod: models.CreditCardMethod, PaymentMethodID: "a1"},
	}
	got := ResolveDetails(txs, cats, classes, accts, cards)

	cases := []struct {
		cat, cls, pay string
		catOK, payOK  bool
	}{
		{"Food", "Essentials", "First", true, true},
		{UnknownCategory, "", UnknownBank, false, false},
		{"Food", "Essentials", "Gold", true, true},
		{"Food", "Essentials", UnknownCard, true, false},
	}
	for i, c := range cases {
		d := got[i]
		if d.CategoryName != c.cat || d.ClassificationName != c.cls || d.PaymentMethodName != c.pay ||
			d.CategoryResolved != c.catOK || d.PaymentMethodResolved != c.payOK {
			t.Errorf("%s: got %+v", d.ID, d)
		}
	}
}

func TestComputeDailySeriesAlwaysHasWindowPoints(t *testing.T) {
	today := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)

	empty := ComputeDailySeries(nil, today, 7)
	if len(empty) != 7 {
		t.Fatalf("len=%d want 7", len(empty))
	}
	if empty[0].Date != "2024-02-25" || empty[6].Date != "2024-03-02" {
		t.Fatalf("range %s..%s", empty[0].Date, empty[6].Date)
	}
	for _, p := range empty {
		if !p.Income.IsZero() || !p.Expense.IsZero() {
			t.Fatalf("non-zero bucket with no transactions: %+v", p)
		}
	}

	txs := []models.Transaction{
		tx("t1", "2024-03-02", models.Income, "10", ""),
		tx("t2", "2024-03-02", models.Expense, "2.5", ""),
		tx("t3", "2024-02-29", models.Expense, "4", ""),
		tx("t4", "2024-02-24", models.Expense, "100", ""), // outside the window
		tx("t5", "2024-03-03", models.Expense, "100", ""), // future
	}
	series := ComputeDailySeries(txs, today, 7)
	if len(series) != 7 {
		t.Fatalf("len=%d want 7", len(series))
	}
	last := series[6]
	if !last.Income.Equal(dec("10")) || !last.Expense.Equal(dec("2.5")) {
		t.Errorf("today=%+v", last)
	}
	if series[4].Date != "2024-02-29" || !series[4].Expense.Equal(dec("4")) {
		t.Errorf("leap day=%+v", series[4])
	}
	var total decimal.Decimal
	for _, p := range series {
		total = total.Add(p.Expense)
	}
	if !total.Equal(dec("6.5")) {
		t.Errorf("expense in window=%s want 6.5", total)
	}

	if got := ComputeDailySeries(nil, today, 0); len(got) != DefaultWindowDays {
		t.Errorf("window 0 gave %d points", len(got))
	}
	if got := ComputeDailySeries(nil, today, 30); len(got) != 30 {
		t.Errorf("window 30 gave %d points", len(got))
	}
}

func TestComputeCategoryDistribution(t *testing.T) {
	cats := []models.Category{{ID: "food", Name: "Food"}, {ID: "transport", Name: "Transport"}, {ID: "salary", Name: "Salary"}}
	txs := []models.Transaction{
		tx("t1", "2024-01-01", models.Expense, "40", "food"),
		tx("t2", "2024-01-02", models.Expense, "10", "food"),
		tx("t3", "2024-01-03", models.Expense, "5", "transport"),
		tx("t4", "2024-01-03", models.Income, "1000", "salary"),
	}
	dist := ComputeCategoryDistribution(ResolveDetails(txs, cats, nil, nil, nil))
	if len(dist) != 2 {
		t.Fatalf("dist=%v want 2 labels", dist)
	}
	if !dist["Food"].Equal(dec("50")) || !dist["Transport"].Equal(dec("5")) {
		t.Fatalf("dist=%v", dist)
	}

	txs = append(txs, tx("t5", "2024-01-04", models.Expense, "7", "deleted"))
	dist = ComputeCategoryDistribution(ResolveDetails(txs, cats, nil, nil, nil))
	if !dist[OtherCategory].Equal(dec("7")) {
		t.Fatalf("unresolved category should land in %q: %v", OtherCategory, dist)
	}
	if _, ok := dist[UnknownCategory]; ok {
		t.Fatalf("distribution must not use %q", UnknownCategory)
	}
}

func TestTopCategories(t *testing.T) {
	dist := Distribution{"a": dec("5"), "b": dec("50"), "c": dec("5"), "d": dec("1"), "e": dec("9")}
	top := TopCategories(dist, 4)
	want := []string{"b", "e", "a", "c"}
	if len(top) != 4 {
		t.Fatalf("len=%d", len(top))
	}
	for i, label := range want {
		if top[i].Label != label {
			t.Fatalf("top=%+v want order %v", top, want)
		}
	}
	if all := TopCategories(dist, 0); len(all) != 5 {
		t.Fatalf("n=0 kept %d", len(all))
	}
}

func TestComputeStatsIncludesInactive(t *testing.T) {
	accts := []models.BankAccount{{CurrentBalance: dec("100"), IsActive: true}, {CurrentBalance: dec("-20")}}
	cards := []models.CreditCard{{AvailableLimit: dec("800"), IsActive: true}, {AvailableLimit: dec("50")}}
	txs := []models.Transaction{
		tx("t1", "2020-01-01", models.Income, "10", ""),
		tx("t2", "2024-01-01", models.Income, "5", ""),
		tx("t3", "2024-01-01", models.Expense, "3.25", ""),
	}
	s := ComputeStats(txs, accts, cards)
	if !s.TotalBalance.Equal(dec("80")) || !s.TotalAvailableCredit.Equal(dec("850")) ||
		!s.TotalIncome.Equal(dec("15")) || !s.TotalExpenses.Equal(dec("3.25")) {
		t.Fatalf("stats=%+v", s)
	}
}

func TestEngineOverLedger(t *testing.T) {
	s, err := store.NewMemory("")
	if err != nil {
		t.Fatal(err)
	}
	ctx := identity.WithOwner(context.Background(), "u1")
	led := ledger.New(s, zerolog.Nop())
	acct, _ := led.AddAccount(ctx, ledger.AccountInput{BankName: "First", InitialBalance: dec("100")})

	food := models.Category{ID: "food", OwnerID: "u1", Name: "Food", Type: models.Expense}
	if err := s.Categories().Insert(ctx, &food); err != nil {
		t.Fatal(err)
	}
	add := func(date string, kind models.TransactionType, amount, method, source string) {
		t.Helper()
		_, err := led.AddTransaction(ctx, ledger.TransactionInput{
			TransactionType: kind, Amount: dec(amount), Date: date, CategoryID: "food",
			PaymentMethod: models.PaymentMethod(method), PaymentMethodID: source,
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	add("2024-03-01", models.Expense, "30", "BANK_ACCOUNT", acct.ID)
	add("2024-03-02", models.Income, "50", "BANK_ACCOUNT", acct.ID)
	add("2024-03-02", models.Expense, "5", "BANK_ACCOUNT", "deleted-account")
	add("2024-02-01", models.Expense, "1", "CREDIT_CARD", "deleted-card")

	// 23:30 UTC on Mar 1 is already Mar 2 in Tokyo
	loc, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Skip("no tzdata:", err)
	}
	eng := New(s, loc, 7).WithClock(fixedClock("2024-03-01T23:30:00Z"))

	details, err := eng.ListTransactionsWithDetails(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(details) != 4 {
		t.Fatalf("details=%d want 4", len(details))
	}
	if details[1].PaymentMethodName != UnknownBank || details[3].PaymentMethodName != UnknownCard {
		t.Fatalf("fallbacks: %+v", details)
	}

	dash, err := eng.Dashboard(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !dash.Stats.TotalBalance.Equal(dec("120")) {
		t.Errorf("total balance=%s want 120", dash.Stats.TotalBalance)
	}
	if len(dash.Daily) != 7 || dash.Daily[6].Date != "2024-03-02" {
		t.Errorf("daily ends %s want 2024-03-02", dash.Daily[len(dash.Daily)-1].Date)
	}
	if !dash.Daily[6].Income.Equal(dec("50")) || !dash.Daily[5].Expense.Equal(dec("30")) {
		t.Errorf("daily=%+v", dash.Daily)
	}
	if !dash.Distribution["Food"].Equal(dec("36")) {
		t.Errorf("distribution=%v", dash.Distribution)
	}
	if len(dash.Recent) != 4 || len(dash.TopCategories) != 1 {
		t.Errorf("recent=%d top=%d", len(dash.Recent), len(dash.TopCategories))
	}

	// no owner: empty reads, still a full window
	empty, err := eng.Dashboard(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(empty.Recent) != 0 || len(empty.Daily) != 7 || !empty.Stats.TotalBalance.IsZero() {
		t.Errorf("logged-out dashboard=%+v", empty)
	}
}
