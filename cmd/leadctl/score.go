package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/wolfman30/smp-leadform/internal/form"
)

type scoreOutput struct {
	LeadScore   int    `json:"lead_score"`
	LeadQuality string `json:"lead_quality"`
}

// NewScoreCmd creates the score command.
func NewScoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score [answers-file]",
		Short: "Score an answer set",
		Long: `Score reads an answer set in JSON or YAML, using the same keys as the
webhook payload, and prints its lead score and quality band.
Use "-" or omit the file to read from stdin.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			path := "-"
			if len(args) == 1 {
				path = args[0]
			}
			answers, err := readAnswers(cmd.InOrStdin(), path)
			if err != nil {
				return err
			}

			score := form.Score(answers)
			out := scoreOutput{
				LeadScore:   score,
				LeadQuality: form.Quality(score, cfg.Form.LeadScoring),
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	return cmd
}

// readAnswers decodes an answer set. JSON documents are valid YAML, so one
// decoder covers both.
func readAnswers(stdin io.Reader, path string) (form.Answers, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path) //nolint:gosec // operator-supplied path
	}
	if err != nil {
		return form.Answers{}, fmt.Errorf("read answers: %w", err)
	}

	var answers form.Answers
	if err := yaml.Unmarshal(data, &answers); err != nil {
		return form.Answers{}, fmt.Errorf("parse answers: %w", err)
	}
	return answers, nil
}
