package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/benjaminschreck/go-wordfill/pkg/wordfill"
	"github.com/benjaminschreck/go-wordfill/pkg/wordfill/datasource"
)

func newBatchCmd(a *app) *cobra.Command {
	var (
		template string
		outDir   string
		workers  int
	)
	cmd := &cobra.Command{
		Use:     "batch DATA_FILE...",
		Short:   "Render one document per data file",
		Example: `  wordfill batch -t letter.docx -o out/ customers/*.yaml`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if workers <= 0 {
				workers = a.config.Workers
			}
			n, err := renderBatch(ctx, a.engine, template, outDir, args, workers)
			a.logger.Info("Rendered %d of %d documents", n, len(args))
			return err
		},
	}
	cmd.Flags().StringVarP(&template, "template", "t", "", "Template file (.docx)")
	cmd.Flags().StringVarP(&outDir, "output-dir", "o", ".", "Directory for the rendered documents")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Concurrent renders (default: config workers)")
	_ = cmd.MarkFlagRequired("template")
	return cmd
}

// outputName maps a data file to its document: customers/jane.yaml -> jane.docx.
func outputName(dataFile string) string {
	base := filepath.Base(dataFile)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".docx"
}

// renderBatch renders template once per data file into outDir with at most
// workers renders in flight. A failing file does not stop the others; every
// failure is reported in the returned error. It returns how many documents
// were written.
func renderBatch(ctx context.Context, engine *wordfill.Engine, template, outDir string, dataFiles []string, workers int) (int, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return 0, fmt.Errorf("create output directory: %w", err)
	}
	f, err := os.Open(template)
	if err != nil {
		return 0, wordfill.NewDocumentError("open template", template, err)
	}
	tmpl, err := engine.Prepare(f)
	f.Close()
	if err != nil {
		return 0, err
	}
	defer tmpl.Close()

	errs := wordfill.NewMultiError()
	done := make(chan struct{}, len(dataFiles))

	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for _, file := range dataFiles {
		file := file
		g.Go(func() error {
			if ctx.Err() != nil {
				errs.Add(wordfill.WithContext(ctx.Err(), "render", map[string]any{"data": file}))
				return nil
			}
			data, err := datasource.LoadFile(file)
			if err == nil {
				err = tmpl.SaveAs(ctx, filepath.Join(outDir, outputName(file)), data)
			}
			if err != nil {
				errs.Add(wordfill.WithContext(err, "render", map[string]any{"data": file}))
				return nil
			}
			engine.Logger().Debug("Rendered %s", file)
			done <- struct{}{}
			return nil
		})
	}
	_ = g.Wait()
	close(done)
	return len(done), errs.Err()
}
