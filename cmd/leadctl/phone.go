package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wolfman30/smp-leadform/internal/form"
)

// NewFormatPhoneCmd creates the format-phone command.
func NewFormatPhoneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "format-phone <value>...",
		Short: "Format phone input the way the form displays it",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			for _, arg := range args {
				fmt.Fprintln(cmd.OutOrStdout(), form.FormatPhone(arg))
			}
		},
	}
}
