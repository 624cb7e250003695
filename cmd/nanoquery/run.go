package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arthur-debert/nanoquery/formats"
	"github.com/arthur-debert/nanoquery/nanoquery/query"
	"github.com/arthur-debert/nanoquery/nanoquery/querydef"
	"github.com/arthur-debert/nanoquery/nanoquery/view"
)

func newRunCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run <query-file>",
		Short: "Evaluate a query definition and print the matching documents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := loadQuery(args[0])
			if err != nil {
				return err
			}
			format, err := formats.Get(a.cfg.Format)
			if err != nil {
				return err
			}
			s, err := a.openStore()
			if err != nil {
				return err
			}

			docs := view.NewProcessor(a.logger).Execute(s.Documents(), q)
			if err := format.Render(cmd.OutOrStdout(), docs); err != nil {
				return fmt.Errorf("failed to render results: %w", err)
			}
			return nil
		},
	}
}

// loadQuery reads a query definition file
func loadQuery(path string) (query.Query, error) {
	q, _, err := querydef.Load(path)
	if err != nil {
		return query.Query{}, fmt.Errorf("%s: %w", path, err)
	}
	return q, nil
}
