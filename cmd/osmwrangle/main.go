package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/osm-berlin-etl/internal/adapter/osmfile"
	"github.com/couchcryptid/osm-berlin-etl/internal/domain"
	"github.com/couchcryptid/osm-berlin-etl/internal/survey"
)

var version = "0.1.0"

var defaultExtract = filepath.Join("osm-extracts", "berlin.osm.bz2")

const stdinArg = "-"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "osmwrangle",
		Short: "Survey and audit an OpenStreetMap extract",
		Long: `osmwrangle explores an OSM XML extract (plain, gzip or bzip2) before it
is imported. Pass "-" as FILE to read the extract from standard input.

It reports:
  - the distinct street names used on ways
  - how often every tag key and element path occurs
  - which street names the audit catalogue corrects, skips or cannot classify`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().Bool("progress", false, "show a progress bar on stderr while reading the extract")

	rootCmd.AddCommand(streetNamesCmd())
	rootCmd.AddCommand(tagKeysCmd())
	rootCmd.AddCommand(tagPathsCmd())
	rootCmd.AddCommand(auditNamesCmd())
	return rootCmd
}

// openExtract opens FILE, the default extract when no argument is given, or
// standard input for "-".
func openExtract(cmd *cobra.Command, args []string) (*osmfile.Source, error) {
	path := defaultExtract
	if len(args) > 0 {
		path = args[0]
	}
	var opts []osmfile.Option
	if progress, _ := cmd.Flags().GetBool("progress"); progress {
		opts = append(opts, osmfile.WithProgress(cmd.ErrOrStderr()))
	}
	if path == stdinArg {
		return osmfile.NewReader(cmd.Context(), cmd.InOrStdin(), opts...)
	}
	return osmfile.Open(cmd.Context(), path, opts...)
}

func streetNamesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "street-names [FILE]",
		Short: "Write the distinct addr:street values of ways to a file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, _ := cmd.Flags().GetString("out")

			src, err := openExtract(cmd, args)
			if err != nil {
				return err
			}
			defer src.Close()

			names, err := survey.CollectStreetNames(src)
			if err != nil {
				return err
			}

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}
			if err := survey.WriteStreetNames(f, names); err != nil {
				f.Close()
				return fmt.Errorf("write %s: %w", out, err)
			}
			if err := f.Close(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d street names to %s\n", len(names), out)
			return nil
		},
	}
	cmd.Flags().String("out", "street_names.txt", "the file to write street names to")
	return cmd
}

func tagKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tag-keys [FILE]",
		Short: "Count every tag key in the extract",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := openExtract(cmd, args)
			if err != nil {
				return err
			}
			defer src.Close()

			counts, err := survey.CountTagKeys(src)
			if err != nil {
				return err
			}
			return survey.WriteCounts(cmd.OutOrStdout(), "Tag key counts:", counts)
		},
	}
}

func tagPathsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tag-paths [FILE]",
		Short: "Count every XML element path in the extract",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := openExtract(cmd, args)
			if err != nil {
				return err
			}
			defer src.Close()

			counts, err := survey.CountPaths(src)
			if err != nil {
				return err
			}
			return survey.WriteCounts(cmd.OutOrStdout(), "XML item counts:", counts)
		},
	}
}

func auditNamesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit-names [NAMES_FILE]",
		Short: "Audit a street name list written by street-names",
		Long: `Audit every line of a street name list against the street catalogue.

Skipped and corrected names are printed to stdout. Names no rule covers are
printed to stderr and make the command fail; add them to a rules file
(--rules) to extend the catalogue.

Example:
  osmwrangle audit-names street_names.txt --rules rules.yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			strict, _ := cmd.Flags().GetBool("strict")
			rulesFile, _ := cmd.Flags().GetString("rules")

			path := "street_names.txt"
			if len(args) > 0 {
				path = args[0]
			}

			rules, err := domain.LoadRuleSet(rulesFile)
			if err != nil {
				return err
			}

			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("open street names: %w", err)
			}
			defer f.Close()

			sum, err := survey.AuditNames(f, domain.NewStreetAuditor(rules), cmd.OutOrStdout(), cmd.ErrOrStderr(), strict)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), sum)
			if sum.Unclassified > 0 {
				return fmt.Errorf("%d street names are not covered by any rule", sum.Unclassified)
			}
			return nil
		},
	}
	cmd.Flags().Bool("strict", false, "abort on the first unclassified name")
	cmd.Flags().String("rules", "", "YAML file extending the built-in street catalogue")
	return cmd
}
