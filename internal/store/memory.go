package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"finance-tracker-go/internal/models"
)

const snapshotVersion = 1

// Memory keeps every table in process memory. When created with a path,
// the full snapshot is rewritten to that file after each committed write,
// so the file is always the ground truth for the next run.
//
// Every call holds mu, and an Atomic call holds it until fn returns, so
// atomic blocks run one at a time and nothing else interleaves with them.
type Memory struct {
	mu   sync.Mutex
	path string
	data tables
	now  func() time.Time
}

type tables struct {
	Users           []userRow               `json:"users"`
	Accounts        []models.BankAccount    `json:"accounts"`
	Cards           []models.CreditCard     `json:"cards"`
	Classifications []models.Classification `json:"classifications"`
	Categories      []models.Category       `json:"categories"`
	Transactions    []models.Transaction    `json:"transactions"`
}

type snapshotMeta struct {
	Storage   string    `json:"storage"`
	Version   int       `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

type snapshot struct {
	Meta snapshotMeta `json:"_meta"`
	tables
}

// userRow exposes the password hash that models.User hides from JSON.
type userRow struct {
	models.User
	PasswordHash string `json:"password_hash"`
}

// NewMemory returns an empty store, or the one saved at path. An empty path
// keeps everything in memory only.
func NewMemory(path string) (*Memory, error) {
	m := &Memory{path: path, now: time.Now}
	if path == "" {
		return m, nil
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return m, nil
	}
	if err != nil {
		return nil, fmt.Errorf("NewMemory: reading snapshot: %w", err)
	}
	var snap snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return nil, fmt.Errorf("NewMemory: decoding snapshot: %w", err)
	}
	m.data = snap.tables
	return m, nil
}

func (m *Memory) Users() Users                            { return memView{m: m}.Users() }
func (m *Memory) Accounts() Table[models.BankAccount]     { return memView{m: m}.Accounts() }
func (m *Memory) Cards() Table[models.CreditCard]         { return memView{m: m}.Cards() }
func (m *Memory) Categories() Table[models.Category]      { return memView{m: m}.Categories() }
func (m *Memory) Transactions() Table[models.Transaction] { return memView{m: m}.Transactions() }

func (m *Memory) Classifications() Table[models.Classification] {
	return memView{m: m}.Classifications()
}

// Atomic runs fn under the store lock and restores the pre-call tables when
// fn fails. The snapshot file is written once, after fn succeeds.
func (m *Memory) Atomic(ctx context.Context, fn func(Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	backup, err := m.data.clone()
	if err != nil {
		return err
	}
	if err := fn(memView{m: m, held: true}); err != nil {
		m.data = backup
		return err
	}
	return m.commitLocked(false)
}

// memView is the Store handed out by Memory. With held set the caller
// already owns m.mu, which is how tables reached from inside Atomic avoid
// taking it twice.
type memView struct {
	m    *Memory
	held bool
}

func (v memView) Users() Users {
	return memUsers{memTable[models.User]{m: v.m, held: v.held, name: TableUsers, rows: usersRows}}
}

func (v memView) Accounts() Table[models.BankAccount] {
	return memTable[models.BankAccount]{m: v.m, held: v.held, name: TableAccounts, rows: func(t *tables) *[]models.BankAccount { return &t.Accounts }}
}

func (v memView) Cards() Table[models.CreditCard] {
	return memTable[models.CreditCard]{m: v.m, held: v.held, name: TableCards, rows: func(t *tables) *[]models.CreditCard { return &t.Cards }}
}

func (v memView) Classifications() Table[models.Classification] {
	return memTable[models.Classification]{m: v.m, held: v.held, name: TableClassifications, rows: func(t *tables) *[]models.Classification { return &t.Classifications }}
}

func (v memView) Categories() Table[models.Category] {
	return memTable[models.Category]{m: v.m, held: v.held, name: TableCategories, rows: func(t *tables) *[]models.Category { return &t.Categories }}
}

func (v memView) Transactions() Table[models.Transaction] {
	return memTable[models.Transaction]{m: v.m, held: v.held, name: TableTransactions, rows: func(t *tables) *[]models.Transaction { return &t.Transactions }}
}

// Atomic on a held view joins the enclosing block; its rollback covers fn.
func (v memView) Atomic(ctx context.Context, fn func(Store) error) error {
	if v.held {
		return fn(v)
	}
	return v.m.Atomic(ctx, fn)
}

// commitLocked persists the snapshot. Writes inside an Atomic block (held)
// are persisted once when the block commits.
func (m *Memory) commitLocked(held bool) error {
	if held || m.path == "" {
		return nil
	}
	snap := snapshot{
		Meta:   snapshotMeta{Storage: "json_snapshot", Version: snapshotVersion, Timestamp: m.now()},
		tables: m.data,
	}
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("store: creating snapshot dir: %w", err)
	}
	tmp := m.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("store: creating snapshot: %w", err)
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		f.Close()
		return fmt.Errorf("store: encoding snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("store: closing snapshot: %w", err)
	}
	return os.Rename(tmp, m.path)
}

func (t tables) clone() (tables, error) {
	var out tables
	b, err := json.Marshal(t)
	if err != nil {
		return out, fmt.Errorf("store: cloning tables: %w", err)
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return out, fmt.Errorf("store: cloning tables: %w", err)
	}
	return out, nil
}

type memTable[T Record] struct {
	m    *Memory
	held bool
	name string
	rows func(*tables) *[]T
}

// lock takes the store lock unless the enclosing Atomic already holds it.
func (t memTable[T]) lock() func() {
	if t.held {
		return func() {}
	}
	t.m.mu.Lock()
	return t.m.mu.Unlock
}

func (t memTable[T]) commit() error { return t.m.commitLocked(t.held) }

func (t memTable[T]) All(_ context.Context, ownerID string) ([]T, error) {
	defer t.lock()()
	var out []T
	for _, r := range *t.rows(&t.m.data) {
		if r.Owner() == ownerID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (t memTable[T]) Get(_ context.Context, id string) (Lookup[T], error) {
	defer t.lock()()
	for _, r := range *t.rows(&t.m.data) {
		if r.RecordID() == id {
			return Found(r), nil
		}
	}
	return Dangling[T](), nil
}

func (t memTable[T]) Insert(_ context.Context, rec *T) error {
	defer t.lock()()
	rows := t.rows(&t.m.data)
	for _, r := range *rows {
		if r.RecordID() == (*rec).RecordID() {
			return fmt.Errorf("store.Insert(%s): id %q: %w", t.name, r.RecordID(), ErrDuplicate)
		}
	}
	now := t.m.now()
	stamped, err := merge(*rec, map[string]any{"created_at": now, "updated_at": now})
	if err != nil {
		return fmt.Errorf("store.Insert(%s): %w", t.name, err)
	}
	*rec = stamped
	*rows = append(*rows, stamped)
	return t.commit()
}

func (t memTable[T]) Update(_ context.Context, id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	defer t.lock()()
	rows := *t.rows(&t.m.data)
	for i, r := range rows {
		if r.RecordID() != id {
			continue
		}
		patch := make(map[string]any, len(fields)+1)
		for k, v := range fields {
			patch[k] = v
		}
		patch["updated_at"] = t.m.now()
		merged, err := merge(r, patch)
		if err != nil {
			return fmt.Errorf("store.Update(%s): %w", t.name, err)
		}
		rows[i] = merged
		return t.commit()
	}
	return nil
}

func (t memTable[T]) Increment(_ context.Context, id, column string, delta decimal.Decimal) error {
	defer t.lock()()
	rows := *t.rows(&t.m.data)
	for i, r := range rows {
		if r.RecordID() != id {
			continue
		}
		fields, err := encodeRecord(r)
		if err != nil {
			return fmt.Errorf("store.Increment(%s): %w", t.name, err)
		}
		raw, ok := fields[column]
		if !ok {
			return fmt.Errorf("store.Increment(%s): unknown column %q", t.name, column)
		}
		var cur decimal.Decimal
		if err := json.Unmarshal(raw, &cur); err != nil {
			return fmt.Errorf("store.Increment(%s): column %q: %w", t.name, column, err)
		}
		merged, err := merge(r, map[string]any{column: cur.Add(delta), "updated_at": t.m.now()})
		if err != nil {
			return fmt.Errorf("store.Increment(%s): %w", t.name, err)
		}
		rows[i] = merged
		return t.commit()
	}
	return nil
}

func (t memTable[T]) Delete(_ context.Context, id string) error {
	defer t.lock()()
	rows := t.rows(&t.m.data)
	kept := (*rows)[:0]
	for _, r := range *rows {
		if r.RecordID() != id {
			kept = append(kept, r)
		}
	}
	*rows = kept
	return t.commit()
}

// merge overwrites the top-level JSON fields of rec with patch and decodes
// the result into a fresh value, so no pointer is shared with rec.
func merge[T Record](rec T, patch map[string]any) (T, error) {
	var zero T
	fields, err := encodeRecord(rec)
	if err != nil {
		return zero, err
	}
	for k, v := range patch {
		b, err := json.Marshal(v)
		if err != nil {
			return zero, fmt.Errorf("encoding field %q: %w", k, err)
		}
		fields[k] = b
	}
	return decodeRecord[T](fields)
}

func encodeRecord[T Record](rec T) (map[string]json.RawMessage, error) {
	var v any = rec
	if u, ok := v.(models.User); ok {
		v = userRow{User: u, PasswordHash: u.PasswordHash}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

func decodeRecord[T Record](fields map[string]json.RawMessage) (T, error) {
	var rec T
	b, err := json.Marshal(fields)
	if err != nil {
		return rec, err
	}
	if _, ok := any(rec).(models.User); ok {
		var row userRow
		if err := decodeStrict(b, &row); err != nil {
			return rec, err
		}
		row.User.PasswordHash = row.PasswordHash
		return any(row.User).(T), nil
	}
	if err := decodeStrict(b, &rec); err != nil {
		return rec, err
	}
	return rec, nil
}

// decodeStrict rejects patch keys that are not columns of the record.
func decodeStrict(b []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// users are stored as userRow; the adapter converts at the table boundary.
func usersRows(t *tables) *[]models.User {
	users := make([]models.User, len(t.Users))
	for i, r := range t.Users {
		u := r.User
		u.PasswordHash = r.PasswordHash
		users[i] = u
	}
	return &users
}

type memUsers struct {
	memTable[models.User]
}

func (u memUsers) Insert(_ context.Context, rec *models.User) error {
	defer u.lock()()
	for _, r := range u.m.data.Users {
		if r.ID == rec.ID {
			return fmt.Errorf("store.Insert(%s): id %q: %w", u.name, rec.ID, ErrDuplicate)
		}
		if r.Email == rec.Email {
			return fmt.Errorf("store.Insert(%s): email %q: %w", u.name, rec.Email, ErrDuplicate)
		}
	}
	now := u.m.now()
	rec.CreatedAt, rec.UpdatedAt = now, now
	u.m.data.Users = append(u.m.data.Users, userRow{User: *rec, PasswordHash: rec.PasswordHash})
	return u.commit()
}

func (u memUsers) Update(_ context.Context, id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	defer u.lock()()
	for i, r := range u.m.data.Users {
		if r.ID != id {
			continue
		}
		cur := r.User
		cur.PasswordHash = r.PasswordHash
		patch := map[string]any{"updated_at": u.m.now()}
		for k, v := range fields {
			patch[k] = v
		}
		merged, err := merge(cur, patch)
		if err != nil {
			return fmt.Errorf("store.Update(%s): %w", u.name, err)
		}
		u.m.data.Users[i] = userRow{User: merged, PasswordHash: merged.PasswordHash}
		return u.commit()
	}
	return nil
}

func (u memUsers) Delete(_ context.Context, id string) error {
	defer u.lock()()
	kept := u.m.data.Users[:0]
	for _, r := range u.m.data.Users {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	u.m.data.Users = kept
	return u.commit()
}

func (u memUsers) Increment(_ context.Context, _, column string, _ decimal.Decimal) error {
	return fmt.Errorf("store.Increment(%s): no numeric column %q", u.name, column)
}

func (u memUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	defer u.lock()()
	for _, r := range u.m.data.Users {
		if r.Email == email {
			user := r.User
			user.PasswordHash = r.PasswordHash
			return &user, nil
		}
	}
	return nil, ErrNoUser
}
