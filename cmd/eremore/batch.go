package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"eremore/pkg/eremore"
)

var formatExtensions = map[string]string{
	eremore.FormatPNG:  ".png",
	eremore.FormatJPEG: ".jpg",
	eremore.FormatTIFF: ".tif",
	eremore.FormatBMP:  ".bmp",
}

type batchOptions struct {
	recipe    string
	outputDir string
	format    string
	jobs      int
}

func newBatchCommand(g *globalOptions) *cobra.Command {
	o := &batchOptions{}
	cmd := &cobra.Command{
		Use:   "batch [flags] INPUT...",
		Short: "Develop many raw images with one recipe",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd.Context(), g, o, args)
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&o.recipe, "recipe", "", "YAML recipe describing the stages (default recipe when empty)")
	fs.StringVar(&o.outputDir, "output-dir", "", "directory the developed images are written to")
	fs.StringVar(&o.format, "format", eremore.FormatPNG, "output format: png, jpeg, tiff or bmp")
	fs.IntVar(&o.jobs, "jobs", runtime.NumCPU(), "images developed concurrently")
	_ = cmd.MarkFlagRequired("output-dir")
	return cmd
}

// outputPath names the developed image after the input's base name.
func outputPath(dir, input, ext string) string {
	base := filepath.Base(input)
	return filepath.Join(dir, strings.TrimSuffix(base, filepath.Ext(base))+ext)
}

func runBatch(ctx context.Context, g *globalOptions, o *batchOptions, inputs []string) error {
	if o.jobs < 1 {
		return fmt.Errorf("--jobs must be at least 1, got %d", o.jobs)
	}
	format, err := eremore.ParseFormat(o.format)
	if err != nil {
		return err
	}
	ext := formatExtensions[format]
	name := func(in string) string { return outputPath(o.outputDir, in, ext) }
	if dup := lo.FindDuplicatesBy(inputs, name); len(dup) > 0 {
		return fmt.Errorf("several inputs would be written to %s", name(dup[0]))
	}

	log, err := g.logger()
	if err != nil {
		return err
	}
	recipe, err := loadRecipe(o.recipe, eremore.DefaultRecipe(), nil, nil)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(o.outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(o.jobs)
	for _, in := range inputs {
		in := in
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return developFile(recipe, in, name(in), log.WithField("input", in))
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"images":     len(inputs),
		"output_dir": o.outputDir,
	}).Info("Batch finished")
	return nil
}

// developFile runs its own Editor so that files can be developed in parallel.
func developFile(recipe eremore.Recipe, input, output string, log logrus.FieldLogger) error {
	_, _, out, err := develop(recipe, input, log)
	if err != nil {
		return err
	}
	return eremore.NewExporter(log).Export(out, output)
}
