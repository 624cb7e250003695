package main

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/arthur-debert/nanoquery/nanoquery/view"
)

func newViewsCmd(a *app) *cobra.Command {
	var showMetrics bool

	cmd := &cobra.Command{
		Use:   "views <query-file>...",
		Short: "Listen to several queries at once and report their live views",
		Long: `Registers every query definition as a live view, then feeds the
snapshot's documents through the registry. Equal queries share one view.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := prometheus.NewRegistry()
			registry := view.NewRegistry(
				view.WithLogger(a.logger),
				view.WithMetrics(view.NewMetrics(reg)),
			)

			views := make([]*view.View, len(args))
			out := cmd.OutOrStdout()
			for i, path := range args {
				q, err := loadQuery(path)
				if err != nil {
					return err
				}
				v, reused := registry.Listen(q)
				views[i] = v
				if reused {
					fmt.Fprintf(out, "%s: shares view %s\n", path, q.CanonicalID())
				}
			}

			s, err := a.openStore()
			if err != nil {
				return err
			}
			registry.Apply(s.Documents()...)

			fmt.Fprintf(out, "%d distinct views\n", registry.Len())
			for i, v := range views {
				fmt.Fprintf(out, "%s: %d matching, %d returned\n", args[i], v.Size(), len(v.Documents()))
			}

			if showMetrics {
				families, err := reg.Gather()
				if err != nil {
					return err
				}
				for _, mf := range families {
					if _, err := expfmt.MetricFamilyToText(out, mf); err != nil {
						return err
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showMetrics, "metrics", false, "print registry metrics in Prometheus text format")
	return cmd
}
