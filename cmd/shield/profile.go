package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"spoilerblock/shield/pkg/cli"
	"spoilerblock/shield/pkg/profile"
)

var profileShowFlags profileFlags

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Work with spoiler profiles",
}

var profileValidateCmd = &cobra.Command{
	Use:   "validate FILE...",
	Short: "Validate profile files",
	Long: `Check that profile files decode and contain only usable entries.

Examples:
  shield profile validate profile.yaml
  shield profile validate profiles/*.json`,
	Args: cobra.MinimumNArgs(1),
	RunE: validateProfiles,
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective profile",
	Long: `Print the profile one-shot commands would use: the profile file merged
with any --keyword, --context and --sensitivity flags, trimmed and
deduplicated.`,
	RunE: showProfile,
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileValidateCmd, profileShowCmd)
	profileShowFlags.register(profileShowCmd)
}

func validateProfiles(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	failed := 0
	for _, path := range args {
		p, err := profile.Load(path)
		if err != nil {
			failed++
			fmt.Fprintf(out, "✗ %s: %v\n", path, err)
			continue
		}
		fmt.Fprintf(out, "✓ %s: %d blocked keywords, %d context terms, sensitivity %s\n",
			path, len(p.BlockedKeywords), len(p.ContextTerms), p.Sensitivity)
	}
	if failed > 0 {
		return cli.NewCommandError("profile validate", fmt.Errorf("%d of %d profiles invalid", failed, len(args)))
	}
	return nil
}

func showProfile(cmd *cobra.Command, args []string) error {
	cfg, _, err := setup(cmd)
	if err != nil {
		return err
	}
	p, err := profileShowFlags.resolve(cfg)
	if err != nil {
		return cli.NewCommandError("profile show", err)
	}

	var sb strings.Builder
	enc := yaml.NewEncoder(&sb)
	enc.SetIndent(2)
	if err := enc.Encode(p); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), sb.String())
	return err
}
