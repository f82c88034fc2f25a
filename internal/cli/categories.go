package cli

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/google/subcommands"

	"finance-tracker-go/internal/models"
	"finance-tracker-go/internal/registry"
)

type addClassificationCmd struct {
	app  *App
	name string
}

func (*addClassificationCmd) Name() string     { return "add-classification" }
func (*addClassificationCmd) Synopsis() string { return "add a classification to group categories" }
func (*addClassificationCmd) Usage() string {
	return "ledgerctl add-classification -name <name>\n"
}

func (c *addClassificationCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "classification name")
}

func (c *addClassificationCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ctx, err := c.app.session(ctx)
	if err != nil {
		return c.app.failed(err)
	}
	cls, err := c.app.registry.AddClassification(ctx, c.name)
	if err != nil {
		return c.app.failed(err)
	}
	fmt.Fprintf(c.app.out, "Added classification %s (%s)\n", cls.Name, cls.ID)
	return subcommands.ExitSuccess
}

type classificationsCmd struct{ app *App }

func (*classificationsCmd) Name() string             { return "classifications" }
func (*classificationsCmd) Synopsis() string         { return "list classifications" }
func (*classificationsCmd) Usage() string            { return "ledgerctl classifications\n" }
func (*classificationsCmd) SetFlags(_ *flag.FlagSet) {}

func (c *classificationsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ctx, err := c.app.session(ctx)
	if err != nil {
		return c.app.failed(err)
	}
	classes, err := c.app.registry.ListClassifications(ctx)
	if err != nil {
		return c.app.failed(err)
	}
	var b strings.Builder
	b.WriteString("# Classifications\n\n| Name | ID |\n|---|---|\n")
	for _, cls := range classes {
		fmt.Fprintf(&b, "| %s | %s |\n", cell(cls.Name), cls.ID)
	}
	c.app.printMarkdown(b.String())
	return subcommands.ExitSuccess
}

type deleteClassificationCmd struct{ app *App }

func (*deleteClassificationCmd) Name() string { return "delete-classification" }
func (*deleteClassificationCmd) Synopsis() string {
	return "delete a classification, its categories become ungrouped"
}
func (*deleteClassificationCmd) Usage() string            { return "ledgerctl delete-classification <id>\n" }
func (*deleteClassificationCmd) SetFlags(_ *flag.FlagSet) {}

func (c *deleteClassificationCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	id, err := oneArg(f, "classification id")
	if err != nil {
		return c.app.failed(err)
	}
	ctx, err = c.app.session(ctx)
	if err != nil {
		return c.app.failed(err)
	}
	if err := c.app.registry.DeleteClassification(ctx, id); err != nil {
		return c.app.failed(err)
	}
	fmt.Fprintf(c.app.out, "Deleted classification %s\n", id)
	return subcommands.ExitSuccess
}

type addCategoryCmd struct {
	app            *App
	name           string
	kind           string
	classification string
}

func (*addCategoryCmd) Name() string     { return "add-category" }
func (*addCategoryCmd) Synopsis() string { return "add an income or expense category" }
func (*addCategoryCmd) Usage() string {
	return "ledgerctl add-category -name <name> -type income|expense [-classification <id>]\n"
}

func (c *addCategoryCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "category name")
	f.StringVar(&c.kind, "type", "expense", "income or expense")
	f.StringVar(&c.classification, "classification", "", "classification id")
}

func (c *addCategoryCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ctx, err := c.app.session(ctx)
	if err != nil {
		return c.app.failed(err)
	}
	in := registry.CategoryInput{Name: c.name, Type: models.TransactionType(strings.ToUpper(c.kind))}
	if c.classification != "" {
		in.ClassificationID = &c.classification
	}
	cat, err := c.app.registry.AddCategory(ctx, in)
	if err != nil {
		return c.app.failed(err)
	}
	fmt.Fprintf(c.app.out, "Added category %s (%s)\n", cat.Name, cat.ID)
	return subcommands.ExitSuccess
}

type categoriesCmd struct {
	app  *App
	kind string
}

func (*categoriesCmd) Name() string     { return "categories" }
func (*categoriesCmd) Synopsis() string { return "list categories grouped by classification" }
func (*categoriesCmd) Usage() string {
	return "ledgerctl categories [-type income|expense]\n"
}

func (c *categoriesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.kind, "type", "", "only list income or expense categories")
}

func (c *categoriesCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ctx, err := c.app.session(ctx)
	if err != nil {
		return c.app.failed(err)
	}
	groups, err := c.app.registry.GroupCategories(ctx, models.TransactionType(strings.ToUpper(c.kind)))
	if err != nil {
		return c.app.failed(err)
	}
	c.app.printMarkdown(groupsMarkdown(groups))
	return subcommands.ExitSuccess
}

type deleteCategoryCmd struct{ app *App }

func (*deleteCategoryCmd) Name() string             { return "delete-category" }
func (*deleteCategoryCmd) Synopsis() string         { return "delete a category" }
func (*deleteCategoryCmd) Usage() string            { return "ledgerctl delete-category <id>\n" }
func (*deleteCategoryCmd) SetFlags(_ *flag.FlagSet) {}

func (c *deleteCategoryCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	id, err := oneArg(f, "category id")
	if err != nil {
		return c.app.failed(err)
	}
	ctx, err = c.app.session(ctx)
	if err != nil {
		return c.app.failed(err)
	}
	if err := c.app.registry.DeleteCategory(ctx, id); err != nil {
		return c.app.failed(err)
	}
	fmt.Fprintf(c.app.out, "Deleted category %s\n", id)
	return subcommands.ExitSuccess
}
