package main

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wolfman30/smp-leadform/internal/form"
)

// NewValidateCmd creates the validate command.
func NewValidateCmd() *cobra.Command {
	var (
		step   int
		fields []string
	)
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the input of one form step",
		Long: `Validate runs a step's validation against the given fields and prints
the error the visitor would see. It exits non-zero when the step is invalid.

Example:
  leadctl validate --step 6 --field zipCode=28202
  leadctl validate --step 1 --field hairLossType=receding-hairline --field hairLossType=thinning-crown`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if _, ok := form.Lookup(step); !ok {
				return fmt.Errorf("unknown step %d", step)
			}

			values, err := parseFields(fields)
			if err != nil {
				return err
			}
			res := form.Validate(step, form.Extract(step, values), cfg.Form.Rules())
			if !res.Valid {
				if len(res.Fields) > 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "fields: %s\n", strings.Join(res.Fields, ", "))
				}
				return fmt.Errorf("step %d invalid: %s", step, res.Message)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "step %d valid\n", step)
			return nil
		},
	}

	cmd.Flags().IntVarP(&step, "step", "s", 1, "Step number (1-7)")
	cmd.Flags().StringArrayVarP(&fields, "field", "f", nil, "Field value as name=value; repeat for checkbox groups")
	return cmd
}

func parseFields(raw []string) (url.Values, error) {
	values := url.Values{}
	for _, kv := range raw {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid field %q: expected name=value", kv)
		}
		values.Add(name, value)
	}
	return values, nil
}
