package database

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"finance-tracker-go/internal/config"
	"finance-tracker-go/internal/logger"
	"finance-tracker-go/internal/models"
)

func TestOpenSQLite(t *testing.T) {
	cfg := &config.Config{DBDriver: "sqlite", DBPath: filepath.Join(t.TempDir(), "db", "ledger.db")}
	s, closeFn, err := Open(cfg, logger.Nop())
	if err != nil {
		t.Fatalf("Open err=%v", err)
	}
	defer closeFn()

	ctx := context.Background()
	a := models.BankAccount{ID: "a1", OwnerID: "u1", BankName: "First", CurrentBalance: decimal.NewFromInt(5)}
	if err := s.Accounts().Insert(ctx, &a); err != nil {
		t.Fatalf("Insert err=%v", err)
	}
	all, err := s.Accounts().All(ctx, "u1")
	if err != nil || len(all) != 1 {
		t.Fatalf("All=%+v err=%v", all, err)
	}
}

func TestOpenJSON(t *testing.T) {
	cfg := &config.Config{DBDriver: "json", DBPath: filepath.Join(t.TempDir(), "ledger.json")}
	s, closeFn, err := Open(cfg, logger.Nop())
	if err != nil {
		t.Fatalf("Open err=%v", err)
	}
	defer closeFn()
	if s == nil {
		t.Fatal("nil store")
	}
}

func TestConnectRejectsJSON(t *testing.T) {
	if _, err := Connect(&config.Config{DBDriver: "json"}, logger.Nop()); err == nil {
		t.Fatal("expected error")
	}
}

type failingExec struct{ calls int }

func (f *failingExec) Exec(string, ...any) (sql.Result, error) {
	f.calls++
	return nil, errors.New("database is locked")
}

func TestApplyPragmasLogsFailures(t *testing.T) {
	var buf bytes.Buffer
	db := &failingExec{}
	applyPragmas(db, logger.NewWithWriter(&buf, "debug"))
	if db.calls != len(sqlitePragmas) {
		t.Fatalf("calls=%d want %d", db.calls, len(sqlitePragmas))
	}
	out := buf.String()
	if strings.Count(out, "sqlite pragma failed") != len(sqlitePragmas) || !strings.Contains(out, "database is locked") {
		t.Fatalf("log output:\n%s", out)
	}
}

func TestOpenSQLiteKeepsInsertionOrder(t *testing.T) {
	cfg := &config.Config{DBDriver: "sqlite", DBPath: filepath.Join(t.TempDir(), "ledger.db")}
	s, closeFn, err := Open(cfg, logger.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer closeFn()

	ctx := context.Background()
	// ids sort opposite to insertion order
	ids := []string{"t9", "t8", "t7", "t6", "t5", "t4", "t3", "t2", "t1"}
	for _, id := range ids {
		tx := models.Transaction{ID: id, OwnerID: "u1", Date: "2024-01-01", TransactionType: models.Expense,
			Amount: decimal.NewFromInt(1), PaymentMethod: models.BankAccountMethod}
		if err := s.Transactions().Insert(ctx, &tx); err != nil {
			t.Fatal(err)
		}
	}
	all, err := s.Transactions().All(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	for i, tx := range all {
		if tx.ID != ids[i] {
			t.Fatalf("position %d: got %s want %s", i, tx.ID, ids[i])
		}
	}
}
