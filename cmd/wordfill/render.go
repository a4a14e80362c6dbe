package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/benjaminschreck/go-wordfill/pkg/wordfill"
	"github.com/benjaminschreck/go-wordfill/pkg/wordfill/datasource"
)

// dataFlags are the data sources shared by render and watch.
type dataFlags struct {
	files   []string
	sqlite  string
	queries []string
}

func (d *dataFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&d.files, "data", "d", nil, "Data file (.json, .yaml, .yml); repeat to merge")
	cmd.Flags().StringVar(&d.sqlite, "sqlite", "", "SQLite database to query")
	cmd.Flags().StringArrayVar(&d.queries, "query", nil, "Named query as name=SQL; rows become a list under name")
}

// load merges the data files in order, then the query results.
func (d *dataFlags) load(ctx context.Context) (wordfill.Data, error) {
	data, err := datasource.LoadFiles(d.files...)
	if err != nil {
		return nil, err
	}
	if len(d.queries) == 0 {
		return data, nil
	}
	if d.sqlite == "" {
		return nil, fmt.Errorf("--query requires --sqlite")
	}
	queries, err := parseQueries(d.queries)
	if err != nil {
		return nil, err
	}
	rows, err := datasource.LoadSQLite(ctx, d.sqlite, queries)
	if err != nil {
		return nil, err
	}
	datasource.Merge(data, rows)
	return data, nil
}

func parseQueries(args []string) (map[string]string, error) {
	queries := make(map[string]string, len(args))
	for _, arg := range args {
		name, query, ok := strings.Cut(arg, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" || strings.TrimSpace(query) == "" {
			return nil, fmt.Errorf("invalid --query %q: want name=SQL", arg)
		}
		queries[name] = query
	}
	return queries, nil
}

func newRenderCmd(a *app) *cobra.Command {
	var (
		template string
		output   string
		data     dataFlags
	)
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a template once",
		Example: `  wordfill render -t invoice.docx -d customer.yaml -d items.json -o out.docx
  wordfill render -t report.docx --sqlite sales.db --query "rows=SELECT * FROM sales" -o report-out.docx`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.render(ctx, template, output, &data)
		},
	}
	cmd.Flags().StringVarP(&template, "template", "t", "", "Template file (.docx)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file")
	data.register(cmd)
	_ = cmd.MarkFlagRequired("template")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func (a *app) render(ctx context.Context, template, output string, data *dataFlags) error {
	values, err := data.load(ctx)
	if err != nil {
		return err
	}
	return a.engine.SaveAsByTemplate(ctx, output, template, values)
}
