package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newValidateCmd(a *app) *cobra.Command {
	var (
		template string
		format   string
	)
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Report the placeholders, bindings and problems of a template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(template)
			if err != nil {
				return fmt.Errorf("read template: %w", err)
			}
			report, err := a.engine.ValidateTemplate(content)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch format {
			case "yaml":
				enc := yaml.NewEncoder(out)
				enc.SetIndent(2)
				if err := enc.Encode(report); err != nil {
					return err
				}
				if err := enc.Close(); err != nil {
					return err
				}
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return err
				}
			default:
				return fmt.Errorf("unknown format %q: want yaml or json", format)
			}

			if !report.Valid {
				return fmt.Errorf("template %s has %d issues", template, len(report.Issues))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&template, "template", "t", "", "Template file (.docx)")
	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "Output format: yaml or json")
	_ = cmd.MarkFlagRequired("template")
	return cmd
}
