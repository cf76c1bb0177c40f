package main

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"eremore/pkg/eremore"
)

func newEnginesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "engines",
		Short: "List the engines every stage can select",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "raster backend: %s\n", eremore.RasterBackend)
			for _, s := range eremore.EngineCatalog() {
				fmt.Fprintf(w, "  %-15s %s\n", s.Stage, strings.Join(s.Engines, ", "))
			}
			return nil
		},
	}
}

// engineHelp describes an engine flag with the names the stage accepts.
func engineHelp(stage string) string {
	s, ok := lo.Find(eremore.EngineCatalog(), func(s eremore.StageEngines) bool { return s.Stage == stage })
	if !ok {
		return stage + " engine"
	}
	return fmt.Sprintf("%s engine (%s, or none to drop the stage)", stage, strings.Join(s.Engines, ", "))
}
