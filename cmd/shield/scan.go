package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"spoilerblock/shield/pkg/cli"
	"spoilerblock/shield/pkg/detection"
	"spoilerblock/shield/pkg/events"
)

var scanFlags struct {
	profile profileFlags
	lines   bool
	format  string
}

var scanCmd = &cobra.Command{
	Use:   "scan [text...]",
	Short: "Score text for spoilers",
	Long: `Score one or more texts against the spoiler profile and print the verdicts.

Each argument is scored as one text. Without arguments the text is read from
standard input, as a whole or line by line with --lines.

Examples:
  # Score with keywords given on the command line
  shield scan -k "Walter White" "Walter White dies in the finale"

  # Score every line of a file with the configured profile
  shield scan --lines < comments.txt

  # Print a table instead of JSON
  shield scan --format text -k Snape "Snape kills Dumbledore"`,
	RunE: scanText,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanFlags.profile.register(scanCmd)
	scanCmd.Flags().BoolVar(&scanFlags.lines, "lines", false, "score each line of stdin separately")
	scanCmd.Flags().StringVar(&scanFlags.format, "format", "json", "output format: json, text, csv")
}

// verdict is one scored text.
type verdict struct {
	Text string `json:"text"`
	*detection.Result
}

type verdicts []verdict

func (v verdicts) Header() []string {
	return []string{"TEXT", "SPOILER", "CONFIDENCE", "RISK", "MATCHED"}
}

func (v verdicts) Rows() [][]string {
	rows := make([][]string, 0, len(v))
	for _, r := range v {
		rows = append(rows, []string{
			events.TruncatePreview(r.Text, 60),
			strconv.FormatBool(r.IsSpoiler),
			strconv.Itoa(r.Confidence),
			string(r.RiskLevel),
			strings.Join(r.MatchedTerms, ", "),
		})
	}
	return rows
}

func scanText(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(scanFlags.format)
	if err != nil {
		return err
	}
	cfg, _, err := setup(cmd)
	if err != nil {
		return err
	}
	p, err := scanFlags.profile.resolve(cfg)
	if err != nil {
		return cli.NewCommandError("scan", err)
	}

	texts := args
	if len(texts) == 0 {
		if texts, err = readTexts(cmd.InOrStdin(), scanFlags.lines); err != nil {
			return cli.NewCommandError("scan", err)
		}
	}

	engine := detection.NewEngine(detection.EngineConfig{Thresholds: cfg.Detection.Thresholds})
	results := make(verdicts, 0, len(texts))
	for _, text := range texts {
		results = append(results, verdict{Text: text, Result: engine.Score(text, p)})
	}

	if format == cli.FormatJSON && len(results) == 1 {
		return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), results[0])
	}
	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), results)
}

func readTexts(r io.Reader, lines bool) ([]string, error) {
	if !lines {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return []string{string(data)}, nil
	}

	var texts []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			texts = append(texts, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read stdin: %w", err)
	}
	return texts, nil
}
