package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"finance-tracker-go/internal/identity"
	"finance-tracker-go/internal/models"
	"finance-tracker-go/internal/store"
)

func newRegistry(t *testing.T) (*Registry, store.Store) {
	t.Helper()
	s, err := store.NewMemory("")
	if err != nil {
		t.Fatal(err)
	}
	return New(s, zerolog.Nop()), s
}

func as(owner string) context.Context {
	return identity.WithOwner(context.Background(), owner)
}

func TestDeleteClassificationLeavesCategories(t *testing.T) {
	r, s := newRegistry(t)
	ctx := as("u1")

	cls, err := r.AddClassification(ctx, "Essentials")
	if err != nil {
		t.Fatal(err)
	}
	cat, err := r.AddCategory(ctx, CategoryInput{Name: "Food", Type: models.Expense, ClassificationID: &cls.ID})
	if err != nil {
		t.Fatal(err)
	}

	if err := r.DeleteClassification(ctx, cls.ID); err != nil {
		t.Fatal(err)
	}

	l, err := s.Categories().Get(context.Background(), cat.ID)
	if err != nil {
		t.Fatal(err)
	}
	got, ok := l.Get()
	if !ok {
		t.Fatal("category was deleted with its classification")
	}
	if got.ClassificationID == nil || *got.ClassificationID != cls.ID {
		t.Fatalf("classification_id=%v want %q", got.ClassificationID, cls.ID)
	}

	groups, err := r.GroupCategories(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(groups) != 1 || groups[0].Key != Ungrouped || len(groups[0].Categories) != 1 {
		t.Fatalf("groups=%+v want the category under %q", groups, Ungrouped)
	}
}

func TestListCategoriesFiltersByType(t *testing.T) {
	r, _ := newRegistry(t)
	ctx := as("u1")
	seeded, err := r.SeedDefaults(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(seeded) != len(Defaults) {
		t.Fatalf("seeded %d want %d", len(seeded), len(Defaults))
	}

	income, err := r.ListCategories(ctx, models.Income)
	if err != nil {
		t.Fatal(err)
	}
	if len(income) != 2 || income[0].Name != "Salary" || income[1].Name != "Bonus" {
		t.Fatalf("income categories=%+v", income)
	}
	expense, _ := r.ListCategories(ctx, models.Expense)
	if len(expense) != 4 {
		t.Fatalf("expense categories=%d want 4", len(expense))
	}
	all, _ := r.ListCategories(ctx, "")
	if len(all) != 6 {
		t.Fatalf("all categories=%d want 6", len(all))
	}
	if _, err := r.ListCategories(ctx, "TRANSFER"); !errors.Is(err, models.ErrValidation) {
		t.Fatalf("unknown type err=%v", err)
	}

	others, _ := r.ListCategories(as("u2"), "")
	if len(others) != 0 {
		t.Fatalf("u2 sees %d categories of u1", len(others))
	}
}

func TestUpdateCategory(t *testing.T) {
	r, _ := newRegistry(t)
	ctx := as("u1")
	cls, _ := r.AddClassification(ctx, "Fixed")
	cat, _ := r.AddCategory(ctx, CategoryInput{Name: "Rent", Type: models.Expense})

	name := "Housing"
	got, err := r.UpdateCategory(ctx, cat.ID, CategoryPatch{Name: &name, ClassificationID: &cls.ID})
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Housing" || got.ClassificationID == nil || *got.ClassificationID != cls.ID || got.Type != models.Expense {
		t.Fatalf("updated=%+v", got)
	}

	got, err = r.UpdateCategory(ctx, cat.ID, CategoryPatch{ClearClassification: true})
	if err != nil {
		t.Fatal(err)
	}
	if got.ClassificationID != nil {
		t.Fatalf("classification not cleared: %+v", got)
	}

	empty := " "
	if _, err := r.UpdateCategory(ctx, cat.ID, CategoryPatch{Name: &empty}); !errors.Is(err, models.ErrValidation) {
		t.Fatalf("empty name err=%v", err)
	}
	if got, err := r.UpdateCategory(as("u2"), cat.ID, CategoryPatch{Name: &name}); got != nil || err != nil {
		t.Fatalf("foreign update = %+v, %v", got, err)
	}
}

func TestClassificationCRUD(t *testing.T) {
	r, _ := newRegistry(t)
	ctx := as("u1")
	if _, err := r.AddClassification(ctx, ""); !errors.Is(err, models.ErrValidation) {
		t.Fatalf("empty name err=%v", err)
	}
	cls, err := r.AddClassification(ctx, "Leisure")
	if err != nil {
		t.Fatal(err)
	}
	upd, err := r.UpdateClassification(ctx, cls.ID, "Fun")
	if err != nil || upd.Name != "Fun" {
		t.Fatalf("update = %+v, %v", upd, err)
	}
	list, _ := r.ListClassifications(ctx)
	if len(list) != 1 || list[0].Name != "Fun" {
		t.Fatalf("list=%+v", list)
	}
	if err := r.DeleteClassification(ctx, cls.ID); err != nil {
		t.Fatal(err)
	}
	list, _ = r.ListClassifications(ctx)
	if len(list) != 0 {
		t.Fatalf("list after delete=%+v", list)
	}
}

func TestGroupBy(t *testing.T) {
	clsA := "a"
	gone := "gone"
	classes := []models.Classification{{ID: "a", Name: "Essentials"}, {ID: "b", Name: "Empty"}}
	cats := []models.Category{
		{ID: "1", Name: "Rent", ClassificationID: &clsA},
		{ID: "2", Name: "Food", ClassificationID: &clsA},
		{ID: "3", Name: "Games", ClassificationID: &gone},
		{ID: "4", Name: "Misc"},
	}
	groups := GroupBy(cats, classes)
	if len(groups) != 3 {
		t.Fatalf("groups=%d want 3", len(groups))
	}
	if groups[0].Key != "a" || groups[0].Categories[0].Name != "Food" || groups[0].Categories[1].Name != "Rent" {
		t.Errorf("first group=%+v", groups[0])
	}
	if groups[1].Key != "b" || len(groups[1].Categories) != 0 {
		t.Errorf("empty classification group=%+v", groups[1])
	}
	if groups[2].Key != Ungrouped || groups[2].Classification != nil || len(groups[2].Categories) != 2 {
		t.Errorf("ungrouped=%+v", groups[2])
	}
}

func TestNoOwner(t *testing.T) {
	r, _ := newRegistry(t)
	ctx := context.Background()
	if cat, err := r.AddCategory(ctx, CategoryInput{Name: "x", Type: models.Income}); cat != nil || err != nil {
		t.Fatalf("AddCategory = %v, %v", cat, err)
	}
	seeded, err := r.SeedDefaults(ctx)
	if err != nil || len(seeded) != 0 {
		t.Fatalf("SeedDefaults = %v, %v", seeded, err)
	}
}
