package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"finance-tracker-go/internal/identity"
	"finance-tracker-go/internal/models"
	"finance-tracker-go/internal/registry"
	"finance-tracker-go/internal/store"
)

func newService(t *testing.T) (*Service, *registry.Registry) {
	t.Helper()
	s, err := store.NewMemory("")
	if err != nil {
		t.Fatal(err)
	}
	reg := registry.New(s, zerolog.Nop())
	return New(s, reg, zerolog.Nop(), Options{Secret: "test-secret", BcryptCost: bcrypt.MinCost}), reg
}

func TestSignUpSeedsDefaultsAndLogsIn(t *testing.T) {
	svc, reg := newService(t)
	ctx := context.Background()

	sess, err := svc.SignUp(ctx, SignUpInput{Name: "Ann", Email: " Ann@Example.com ", Password: "hunter22"})
	if err != nil {
		t.Fatal(err)
	}
	if sess.User.Email != "ann@example.com" || sess.Token == "" {
		t.Fatalf("session=%+v", sess)
	}

	cats, err := reg.ListCategories(identity.WithOwner(ctx, sess.User.ID), "")
	if err != nil {
		t.Fatal(err)
	}
	if len(cats) != len(registry.Defaults) {
		t.Fatalf("seeded %d categories want %d", len(cats), len(registry.Defaults))
	}

	login, err := svc.Login(ctx, "ann@example.com", "hunter22")
	if err != nil {
		t.Fatal(err)
	}
	authed, err := svc.Authenticate(ctx, login.Token)
	if err != nil {
		t.Fatal(err)
	}
	if owner, ok := identity.OwnerFrom(authed); !ok || owner != sess.User.ID {
		t.Fatalf("owner=%q ok=%v", owner, ok)
	}
}

func TestSignUpRejectsDuplicatesAndBadInput(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	if _, err := svc.SignUp(ctx, SignUpInput{Name: "Ann", Email: "ann@example.com", Password: "hunter22"}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.SignUp(ctx, SignUpInput{Name: "Ann", Email: "ANN@example.com", Password: "hunter22"}); !errors.Is(err, ErrDuplicateUser) {
		t.Fatalf("duplicate err=%v", err)
	}
	for _, in := range []SignUpInput{
		{Email: "bob@example.com", Password: "hunter22"},
		{Name: "Bob", Email: "not-an-email", Password: "hunter22"},
		{Name: "Bob", Email: "bob@example.com", Password: "123"},
	} {
		if _, err := svc.SignUp(ctx, in); !errors.Is(err, models.ErrValidation) {
			t.Errorf("%+v: err=%v", in, err)
		}
	}
}

func TestLoginFailures(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	if _, err := svc.SignUp(ctx, SignUpInput{Name: "Ann", Email: "ann@example.com", Password: "hunter22"}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Login(ctx, "ann@example.com", "wrong-pass"); !errors.Is(err, ErrAuthentication) {
		t.Errorf("wrong password err=%v", err)
	}
	if _, err := svc.Login(ctx, "nobody@example.com", "hunter22"); !errors.Is(err, ErrAuthentication) {
		t.Errorf("unknown email err=%v", err)
	}
}

func TestTokenExpiryAndTampering(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return start }

	sess, err := svc.SignUp(ctx, SignUpInput{Name: "Ann", Email: "ann@example.com", Password: "hunter22"})
	if err != nil {
		t.Fatal(err)
	}
	if !sess.ExpiresAt.Equal(start.Add(24 * time.Hour)) {
		t.Fatalf("expires_at=%s", sess.ExpiresAt)
	}
	if id, err := svc.Parse(sess.Token); err != nil || id != sess.User.ID {
		t.Fatalf("Parse = %q, %v", id, err)
	}

	svc.now = func() time.Time { return start.Add(25 * time.Hour) }
	if _, err := svc.Parse(sess.Token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expired token err=%v", err)
	}

	svc.now = func() time.Time { return start }
	if _, err := svc.Parse(sess.Token + "x"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("tampered token err=%v", err)
	}
	other := New(mustMemory(t), nil, zerolog.Nop(), Options{Secret: "other-secret"})
	if _, err := other.Parse(sess.Token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("foreign secret err=%v", err)
	}
}

func TestAuthenticateRejectsDeletedUser(t *testing.T) {
	s := mustMemory(t)
	svc := New(s, registry.New(s, zerolog.Nop()), zerolog.Nop(), Options{Secret: "k", BcryptCost: bcrypt.MinCost})
	ctx := context.Background()
	sess, err := svc.SignUp(ctx, SignUpInput{Name: "Ann", Email: "ann@example.com", Password: "hunter22"})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Users().Delete(ctx, sess.User.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Authenticate(ctx, sess.Token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("err=%v", err)
	}
}

func mustMemory(t *testing.T) *store.Memory {
	t.Helper()
	m, err := store.NewMemory("")
	if err != nil {
		t.Fatal(err)
	}
	return m
}

// brokenCategories fails every category insert, including inside Atomic.
type brokenCategories struct{ store.Store }

func (b brokenCategories) Categories() store.Table[models.Category] {
	return failingTable{b.Store.Categories()}
}

func (b brokenCategories) Atomic(ctx context.Context, fn func(store.Store) error) error {
	return b.Store.Atomic(ctx, func(tx store.Store) error { return fn(brokenCategories{tx}) })
}

type failingTable struct{ store.Table[models.Category] }

func (failingTable) Insert(context.Context, *models.Category) error { return errors.New("disk full") }

func TestSignUpRollsBackWhenSeedingFails(t *testing.T) {
	mem, err := store.NewMemory("")
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	broken := brokenCategories{mem}
	svc := New(broken, registry.New(broken, zerolog.Nop()), zerolog.Nop(), Options{Secret: "s", BcryptCost: bcrypt.MinCost})

	in := SignUpInput{Name: "Ann", Email: "ann@example.com", Password: "hunter22"}
	if _, err := svc.SignUp(ctx, in); err == nil || errors.Is(err, ErrDuplicateUser) {
		t.Fatalf("SignUp err=%v want seeding failure", err)
	}
	if _, err := mem.Users().FindByEmail(ctx, "ann@example.com"); !errors.Is(err, store.ErrNoUser) {
		t.Fatalf("user left behind after failed sign-up: err=%v", err)
	}

	reg := registry.New(mem, zerolog.Nop())
	retry := New(mem, reg, zerolog.Nop(), Options{Secret: "s", BcryptCost: bcrypt.MinCost})
	sess, err := retry.SignUp(ctx, in)
	if err != nil {
		t.Fatalf("retry SignUp err=%v", err)
	}
	cats, _ := reg.ListCategories(identity.WithOwner(ctx, sess.User.ID), "")
	if len(cats) != len(registry.Defaults) {
		t.Fatalf("seeded %d categories want %d", len(cats), len(registry.Defaults))
	}
}

func TestConcurrentSignUpsWithSameEmail(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	const n = 10
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		ok   int
		dups int
		errs []error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.SignUp(ctx, SignUpInput{Name: "Ann", Email: "ann@example.com", Password: "hunter22"})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, ErrDuplicateUser):
				dups++
			default:
				errs = append(errs, err)
			}
		}()
	}
	wg.Wait()
	if ok != 1 || dups != n-1 || len(errs) != 0 {
		t.Fatalf("ok=%d duplicates=%d other=%v", ok, dups, errs)
	}
}
