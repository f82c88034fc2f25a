// Package registry manages categories and the classifications that group
// them. Neither deletion cascades: categories keep pointing at deleted
// classifications, and transactions keep pointing at deleted categories.
package registry

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"finance-tracker-go/internal/identity"
	"finance-tracker-go/internal/models"
	"finance-tracker-go/internal/store"
)

// Ungrouped is the bucket for categories without a live classification.
const Ungrouped = "ungrouped"

// Defaults are the categories every new owner starts with.
var Defaults = []struct {
	Name string
	Type models.TransactionType
}{
	{"Salary", models.Income},
	{"Bonus", models.Income},
	{"Housing", models.Expense},
	{"Food", models.Expense},
	{"Transportation", models.Expense},
	{"Entertainment", models.Expense},
}

type Registry struct {
	store store.Store
	log   zerolog.Logger
	newID func() string
}

func New(s store.Store, log zerolog.Logger) *Registry {
	return &Registry{store: s, log: log, newID: uuid.NewString}
}

// WithStore returns a copy of r working on s, such as the store handed to
// an Atomic block.
func (r *Registry) WithStore(s store.Store) *Registry {
	c := *r
	c.store = s
	return &c
}

type CategoryInput struct {
	Name             string                 `json:"name"`
	Type             models.TransactionType `json:"type"`
	ClassificationID *string                `json:"classification_id"`
}

// CategoryPatch carries the fields of an update; nil fields are left alone.
// ClearClassification detaches the category from its classification.
type CategoryPatch struct {
	Name                *string                 `json:"name"`
	Type                *models.TransactionType `json:"type"`
	ClassificationID    *string                 `json:"classification_id"`
	ClearClassification bool                    `json:"clear_classification"`
}

// Group is one classification with its categories, or the ungrouped bucket
// when Classification is nil.
type Group struct {
	Key            string                 `json:"key"`
	Classification *models.Classification `json:"classification"`
	Categories     []models.Category      `json:"categories"`
}

func (in CategoryInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return models.Invalid("name", "required")
	}
	if !in.Type.Valid() {
		return models.Invalid("type", "must be INCOME or EXPENSE")
	}
	return nil
}

func (p CategoryPatch) fields() (map[string]any, error) {
	f := map[string]any{}
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return nil, models.Invalid("name", "must not be empty")
		}
		f["name"] = name
	}
	if p.Type != nil {
		if !p.Type.Valid() {
			return nil, models.Invalid("type", "must be INCOME or EXPENSE")
		}
		f["type"] = *p.Type
	}
	switch {
	case p.ClearClassification:
		f["classification_id"] = nil
	case p.ClassificationID != nil:
		f["classification_id"] = *p.ClassificationID
	}
	return f, nil
}

func (r *Registry) AddCategory(ctx context.Context, in CategoryInput) (*models.Category, error) {
	owner, ok := identity.OwnerFrom(ctx)
	if !ok {
		return nil, nil
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	cat := models.Category{
		ID:               r.newID(),
		OwnerID:          owner,
		ClassificationID: in.ClassificationID,
		Name:             strings.TrimSpace(in.Name),
		Type:             in.Type,
	}
	if err := r.store.Categories().Insert(ctx, &cat); err != nil {
		return nil, fmt.Errorf("AddCategory: %w", err)
	}
	return &cat, nil
}

// ListCategories returns the owner's categories, optionally only those of
// one type. An empty type returns all of them.
func (r *Registry) ListCategories(ctx context.Context, typ models.TransactionType) ([]models.Category, error) {
	owner, ok := identity.OwnerFrom(ctx)
	if !ok {
		return []models.Category{}, nil
	}
	if typ != "" && !typ.Valid() {
		return nil, models.Invalid("type", "must be INCOME or EXPENSE")
	}
	all, err := r.store.Categories().All(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("ListCategories: %w", err)
	}
	out := []models.Category{}
	for _, c := range all {
		if typ == "" || c.Type == typ {
			out = append(out, c)
		}
	}
	return out, nil
}

// UpdateCategory applies patch and returns the stored result. Missing or
// foreign ids return nil without error.
func (r *Registry) UpdateCategory(ctx context.Context, id string, patch CategoryPatch) (*models.Category, error) {
	owner, ok := identity.OwnerFrom(ctx)
	if !ok {
		return nil, nil
	}
	fields, err := patch.fields()
	if err != nil {
		return nil, err
	}
	l, err := store.Owned(ctx, r.store.Categories(), owner, id)
	if err != nil {
		return nil, fmt.Errorf("UpdateCategory: %w", err)
	}
	if !l.IsFound() {
		return nil, nil
	}
	if err := r.store.Categories().Update(ctx, id, fields); err != nil {
		return nil, fmt.Errorf("UpdateCategory: %w", err)
	}
	l, err = r.store.Categories().Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("UpdateCategory: reloading: %w", err)
	}
	cat, _ := l.Get()
	return &cat, nil
}

// DeleteCategory never looks at transactions; theirs become dangling.
func (r *Registry) DeleteCategory(ctx context.Context, id string) error {
	owner, ok := identity.OwnerFrom(ctx)
	if !ok {
		return nil
	}
	l, err := store.Owned(ctx, r.store.Categories(), owner, id)
	if err != nil {
		return fmt.Errorf("DeleteCategory: %w", err)
	}
	if !l.IsFound() {
		return nil
	}
	if err := r.store.Categories().Delete(ctx, id); err != nil {
		return fmt.Errorf("DeleteCategory: %w", err)
	}
	r.log.Info().Str("owner_id", owner).Str("category_id", id).Msg("category deleted")
	return nil
}

func (r *Registry) AddClassification(ctx context.Context, name string) (*models.Classification, error) {
	owner, ok := identity.OwnerFrom(ctx)
	if !ok {
		return nil, nil
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, models.Invalid("name", "required")
	}
	cls := models.Classification{ID: r.newID(), OwnerID: owner, Name: name}
	if err := r.store.Classifications().Insert(ctx, &cls); err != nil {
		return nil, fmt.Errorf("AddClassification: %w", err)
	}
	return &cls, nil
}

func (r *Registry) ListClassifications(ctx context.Context) ([]models.Classification, error) {
	owner, ok := identity.OwnerFrom(ctx)
	if !ok {
		return []models.Classification{}, nil
	}
	all, err := r.store.Classifications().All(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("ListClassifications: %w", err)
	}
	if all == nil {
		all = []models.Classification{}
	}
	return all, nil
}

func (r *Registry) UpdateClassification(ctx context.Context, id, name string) (*models.Classification, error) {
	owner, ok := identity.OwnerFrom(ctx)
	if !ok {
		return nil, nil
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, models.Invalid("name", "required")
	}
	l, err := store.Owned(ctx, r.store.Classifications(), owner, id)
	if err != nil {
		return nil, fmt.Errorf("UpdateClassification: %w", err)
	}
	cls, found := l.Get()
	if !found {
		return nil, nil
	}
	if err := r.store.Classifications().Update(ctx, id, map[string]any{"name": name}); err != nil {
		return nil, fmt.Errorf("UpdateClassification: %w", err)
	}
	cls.Name = name
	return &cls, nil
}

// DeleteClassification removes only the classification. Categories that
// reference it keep their classification_id.
func (r *Registry) DeleteClassification(ctx context.Context, id string) error {
	owner, ok := identity.OwnerFrom(ctx)
	if !ok {
		return nil
	}
	l, err := store.Owned(ctx, r.store.Classifications(), owner, id)
	if err != nil {
		return fmt.Errorf("DeleteClassification: %w", err)
	}
	if !l.IsFound() {
		return nil
	}
	if err := r.store.Classifications().Delete(ctx, id); err != nil {
		return fmt.Errorf("DeleteClassification: %w", err)
	}
	r.log.Info().Str("owner_id", owner).Str("classification_id", id).Msg("classification deleted")
	return nil
}

// GroupCategories buckets categories under their classification, in
// classification insertion order, with the ungrouped bucket last. Empty
// classifications are kept.
func (r *Registry) GroupCategories(ctx context.Context, typ models.TransactionType) ([]Group, error) {
	cats, err := r.ListCategories(ctx, typ)
	if err != nil {
		return nil, err
	}
	classes, err := r.ListClassifications(ctx)
	if err != nil {
		return nil, err
	}
	return GroupBy(cats, classes), nil
}

// GroupBy is the pure form of GroupCategories.
func GroupBy(cats []models.Category, classes []models.Classification) []Group {
	idx := store.NewIndex(classes)
	byKey := make(map[string][]models.Category, len(classes)+1)
	for _, c := range cats {
		key := Ungrouped
		if c.ClassificationID != nil && idx.Lookup(*c.ClassificationID).IsFound() {
			key = *c.ClassificationID
		}
		byKey[key] = append(byKey[key], c)
	}

	groups := make([]Group, 0, len(classes)+1)
	for i := range classes {
		cls := classes[i]
		groups = append(groups, Group{Key: cls.ID, Classification: &cls, Categories: nonNil(byKey[cls.ID])})
	}
	if loose := byKey[Ungrouped]; len(loose) > 0 {
		groups = append(groups, Group{Key: Ungrouped, Categories: loose})
	}
	for i := range groups {
		sort.SliceStable(groups[i].Categories, func(a, b int) bool {
			return groups[i].Categories[a].Name < groups[i].Categories[b].Name
		})
	}
	return groups
}

// SeedDefaults inserts the default categories for the current owner.
func (r *Registry) SeedDefaults(ctx context.Context) ([]models.Category, error) {
	seeded := make([]models.Category, 0, len(Defaults))
	for _, d := range Defaults {
		cat, err := r.AddCategory(ctx, CategoryInput{Name: d.Name, Type: d.Type})
		if err != nil {
			return seeded, fmt.Errorf("SeedDefaults: %w", err)
		}
		if cat == nil {
			return seeded, nil
		}
		seeded = append(seeded, *cat)
	}
	return seeded, nil
}

func nonNil(s []models.Category) []models.Category {
	if s == nil {
		return []models.Category{}
	}
	return s
}
