// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/monadic/intel-scout/internal/clierr"
	"github.com/monadic/intel-scout/internal/panellog"
	"github.com/monadic/intel-scout/pkg/bridge"
	"github.com/monadic/intel-scout/pkg/correlate"
	"github.com/monadic/intel-scout/pkg/pagescan"
	"github.com/monadic/intel-scout/pkg/query"
)

// ANSI color codes for headless output
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorPurple = "\033[35m"
	colorCyan   = "\033[36m"
)

var (
	scanConfigPath string
	scanDictPath   string
	scanPageURL    string
	scanJSON       bool
	scanQuery      string
	scanMissing    bool
)

var scanCmd = &cobra.Command{
	Use:   "scan [file]",
	Short: "Scan page text and print the correlated entities",
	Long: `Scan page text and print the correlated entities without opening the panel.

The page text comes from the file argument or stdin. Every configured
platform is asked about each detection; hits on the same identity merge
into one row.

Examples:
  # Scan a saved page
  intel-scout scan advisory.txt

  # Pipe page text in
  curl -s https://example.com/advisory | intel-scout scan

  # Only entities no platform knows
  intel-scout scan advisory.txt --missing

  # Filter with a query expression
  intel-scout scan advisory.txt -q 'type=Vulnerability AND found=true'

  # Output as JSON
  intel-scout scan advisory.txt --json
`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHeadlessScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringVar(&scanConfigPath, "config", "", "Platform config file (overrides INTEL_SCOUT_CONFIG)")
	scanCmd.Flags().StringVar(&scanDictPath, "dictionary", "", "Technique dictionary YAML (default: built-in ATT&CK subset)")
	scanCmd.Flags().StringVar(&scanPageURL, "url", "", "URL of the page being scanned, recorded in the output")
	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "Output as JSON")
	scanCmd.Flags().StringVarP(&scanQuery, "query", "q", "", "Filter expression, e.g. 'type=Malware AND found=false'")
	scanCmd.Flags().BoolVar(&scanMissing, "missing", false, "Show only entities no platform knows")
}

// scanReport is the JSON envelope of a headless scan.
type scanReport struct {
	URL        string                        `json:"url,omitempty"`
	Detections int                           `json:"detections"`
	Entities   []*correlate.CorrelatedEntity `json:"entities"`
	Known      int                           `json:"known"`
	Unknown    int                           `json:"unknown"`
}

func runHeadlessScan(cmd *cobra.Command, args []string) error {
	text, err := readPageText(args)
	if err != nil {
		return err
	}

	var q *query.Query
	if scanQuery != "" {
		q, err = query.Parse(scanQuery)
		if err != nil {
			return clierr.WrapWithHint(err, "filters look like: type=Malware AND found=false")
		}
	}

	snap, err := loadSnapshot(scanConfigPath)
	if err != nil {
		return err
	}

	dict := pagescan.NewDictionary(pagescan.DefaultTechniques())
	if scanDictPath != "" {
		dict, err = pagescan.LoadDictionary(scanDictPath)
		if err != nil {
			return err
		}
	}

	caller := bridge.NewHTTPCaller(snap)
	scanner := pagescan.NewScanner(caller, snap, dict, panellog.Stderr())

	ctx, cancel := context.WithTimeout(context.Background(), scanTimeout)
	defer cancel()
	batch := scanner.Scan(ctx, text)
	entities := correlate.Correlate(batch)

	filtered := make([]*correlate.CorrelatedEntity, 0, len(entities))
	for _, e := range entities {
		if scanMissing && e.Found {
			continue
		}
		if q != nil && !q.Matches(e) {
			continue
		}
		filtered = append(filtered, e)
	}

	known := 0
	for _, e := range filtered {
		if e.Found {
			known++
		}
	}

	if scanJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(scanReport{
			URL:        scanPageURL,
			Detections: batch.Size(),
			Entities:   filtered,
			Known:      known,
			Unknown:    len(filtered) - known,
		})
	}

	return outputScanHuman(filtered, batch.Size(), known)
}

func outputScanHuman(entities []*correlate.CorrelatedEntity, detections, known int) error {
	fmt.Printf("\n%s%sPAGE SCAN%s\n", colorBold, colorCyan, colorReset)
	if scanPageURL != "" {
		fmt.Printf("%s%s%s\n", colorDim, scanPageURL, colorReset)
	}
	fmt.Printf("%s%d detections, %d entities after merge%s\n\n", colorDim, detections, len(entities), colorReset)

	if len(entities) == 0 {
		fmt.Println(clierr.NothingFound("entities"))
		return nil
	}

	knownRows := make([]*correlate.CorrelatedEntity, 0, len(entities))
	unknownRows := make([]*correlate.CorrelatedEntity, 0, len(entities))
	for _, e := range entities {
		if e.Found {
			knownRows = append(knownRows, e)
		} else {
			unknownRows = append(unknownRows, e)
		}
	}

	if len(knownRows) > 0 {
		fmt.Printf("%s%sKNOWN (%d)%s\n", colorBold, colorGreen, len(knownRows), colorReset)
		fmt.Println("────────────────────────────────────────────────────────────────")
		writeEntityTable(knownRows)
		fmt.Println()
	}

	if len(unknownRows) > 0 {
		fmt.Printf("%s%sUNKNOWN (%d)%s\n", colorBold, colorRed, len(unknownRows), colorReset)
		fmt.Println("────────────────────────────────────────────────────────────────")
		writeEntityTable(unknownRows)
		fmt.Println()
	}

	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Printf("Summary: %s%d known%s, %s%d unknown%s\n\n",
		colorGreen, known, colorReset,
		colorRed, len(entities)-known, colorReset)
	return nil
}

func writeEntityTable(entities []*correlate.CorrelatedEntity) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "  TYPE\tIDENTITY\tPLATFORMS\n")
	for _, e := range entities {
		platforms := "-"
		if len(e.Matches) > 0 {
			ids := make([]string, 0, len(e.Matches))
			for _, match := range e.Matches {
				ids = append(ids, match.PlatformID)
			}
			platforms = joinMax(ids, 3)
		}
		ident := e.Ident()
		if len(ident) > 48 {
			ident = ident[:45] + "..."
		}
		tag := ""
		if e.DiscoveredByAI {
			tag = " " + colorYellow + "[AI]" + colorReset
		}
		fmt.Fprintf(w, "  %s\t%s%s\t%s\n", e.Type, ident, tag, platforms)
	}
	w.Flush()
}

// joinMax joins up to n items, appending a +k marker for the rest.
func joinMax(items []string, n int) string {
	if len(items) <= n {
		out := ""
		for i, s := range items {
			if i > 0 {
				out += ","
			}
			out += s
		}
		return out
	}
	out := ""
	for i := 0; i < n; i++ {
		if i > 0 {
			out += ","
		}
		out += items[i]
	}
	return fmt.Sprintf("%s +%d", out, len(items)-n)
}
