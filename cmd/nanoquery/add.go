package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newAddCmd(a *app) *cobra.Command {
	var id string
	var sets []string

	cmd := &cobra.Command{
		Use:   "add <collection>",
		Short: "Add a document to the snapshot",
		Long: `Add a document to the snapshot. Values given with --set are parsed as
YAML, so --set unread=3 stores an integer and --set tags='[a, b]' a list.
Without --id a random id is generated.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := parseSets(sets)
			if err != nil {
				return err
			}

			s, err := a.openStore()
			if err != nil {
				return err
			}
			key, err := s.Add(args[0], id, fields)
			if err != nil {
				return err
			}
			if err := s.Save(); err != nil {
				return err
			}

			a.logger.Info("document added", "key", key.String(), "fields", len(fields))
			_, err = fmt.Fprintln(cmd.OutOrStdout(), key.String())
			return err
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "document id (default: random uuid)")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "field=value, repeatable")
	return cmd
}

// parseSets turns field=value pairs into decoded field values
func parseSets(sets []string) (map[string]interface{}, error) {
	fields := make(map[string]interface{}, len(sets))
	for _, set := range sets {
		name, raw, ok := strings.Cut(set, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --set %q: expected field=value", set)
		}
		var value interface{}
		if err := yaml.Unmarshal([]byte(raw), &value); err != nil {
			return nil, fmt.Errorf("invalid value for %s: %w", name, err)
		}
		fields[name] = value
	}
	return fields, nil
}
