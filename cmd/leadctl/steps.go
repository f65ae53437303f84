package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wolfman30/smp-leadform/internal/form"
)

var kindNames = map[form.Kind]string{
	form.KindMultiChoice:  "multi-choice",
	form.KindSingleChoice: "single-choice",
	form.KindText:         "text",
	form.KindContact:      "contact",
}

// NewStepsCmd creates the steps command.
func NewStepsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "steps",
		Short: "List the question steps and their accepted options",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			for _, step := range form.Steps() {
				field := step.Field
				if field == "" {
					field = "-"
				}
				line := fmt.Sprintf("%d %s %s", step.Number, field, kindNames[step.Kind])
				if len(step.Options) > 0 {
					line += " " + strings.Join(step.Options, ",")
				}
				fmt.Fprintln(out, line)
			}
		},
	}
}
