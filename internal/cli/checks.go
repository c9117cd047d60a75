package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/buemura/advaudit/internal/check"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var checksCategoryFlag string

var checksCmd = &cobra.Command{
	Use:   "checks",
	Short: "List the check catalog",
	Long:  "Lists every registered check with its effective settings and availability.",
	Args:  cobra.NoArgs,
	RunE:  runChecks,
}

func init() {
	checksCmd.Flags().StringVar(&checksCategoryFlag, "category", "", "only list checks of this category")
	rootCmd.AddCommand(checksCmd)
}

// checkListing is the JSON form of one catalog entry.
type checkListing struct {
	check.Definition
	Available   bool   `json:"available"`
	Unavailable string `json:"unavailable,omitempty"`
}

func runChecks(cmd *cobra.Command, args []string) error {
	e, err := openEnv(false)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx := cmd.Context()
	defs := e.runner.Definitions(ctx)

	var listing []checkListing
	for _, entry := range e.registry().All() {
		def := defs[entry.Definition.ID]
		if checksCategoryFlag != "" && def.Category != checksCategoryFlag {
			continue
		}
		l := checkListing{Definition: def, Available: entry.Available()}
		if entry.Unavailable != nil {
			l.Unavailable = entry.Unavailable.Error()
		}
		listing = append(listing, l)
	}

	w := cmd.OutOrStdout()
	if appConfig.OutputFormat == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(listing)
	}
	writeCheckTable(w, listing)
	return nil
}

func writeCheckTable(w io.Writer, listing []checkListing) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "Category", "Severity", "Enabled", "Label"})
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	table.SetColumnSeparator("│")
	for _, l := range listing {
		enabled := color.GreenString("yes")
		if !l.Enabled {
			enabled = color.YellowString("no")
		}
		label := l.Label
		if !l.Available {
			label = fmt.Sprintf("%s %s", label, color.RedString("(unavailable: %s)", l.Unavailable))
		}
		table.Append([]string{l.ID, l.Category, string(l.Severity), enabled, label})
	}
	table.Render()
}
