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
	"github.com/monadic/intel-scout/pkg/bridge"
	"github.com/monadic/intel-scout/pkg/platform"
)

var (
	platformsConfigPath string
	platformsJSON       bool
	platformsCheck      bool
)

var platformsCmd = &cobra.Command{
	Use:   "platforms",
	Short: "List configured platforms",
	Long: `List configured platforms and optionally check that they answer.

Examples:
  # Show the configured platforms
  intel-scout platforms

  # Probe each platform and show liveness
  intel-scout platforms --check

  # Output as JSON
  intel-scout platforms --check --json
`,
	Args: cobra.NoArgs,
	RunE: runPlatforms,
}

func init() {
	rootCmd.AddCommand(platformsCmd)

	platformsCmd.Flags().StringVar(&platformsConfigPath, "config", "", "Platform config file (overrides INTEL_SCOUT_CONFIG)")
	platformsCmd.Flags().BoolVar(&platformsJSON, "json", false, "Output as JSON")
	platformsCmd.Flags().BoolVar(&platformsCheck, "check", false, "Probe each platform and report liveness")
}

// platformRow is one platform in the listing, with probe results when
// --check ran.
type platformRow struct {
	platform.Platform
	Alive *bool  `json:"alive,omitempty"`
	Error string `json:"error,omitempty"`

	errClass string
}

func runPlatforms(cmd *cobra.Command, args []string) error {
	snap, err := loadSnapshot(platformsConfigPath)
	if err != nil {
		return err
	}

	var caller bridge.Caller
	if platformsCheck {
		caller = bridge.NewHTTPCaller(snap)
	}

	platforms := snap.All()
	rows := make([]platformRow, 0, len(platforms))
	for _, p := range platforms {
		row := platformRow{Platform: p}
		if platformsCheck {
			probeErr := probePlatform(caller, p.ID)
			alive := probeErr == nil
			row.Alive = &alive
			if probeErr != nil {
				row.Error = probeErr.Error()
				row.errClass = clierr.ClassifyError(probeErr)
			}
		}
		rows = append(rows, row)
	}

	if platformsJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	outputPlatformsHuman(rows)
	return nil
}

func probePlatform(caller bridge.Caller, platformID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), bridgeTimeout)
	defer cancel()
	resp, err := caller.Call(ctx, bridge.Request{Type: bridge.GetPlatformStatus, PlatformID: platformID})
	if err != nil {
		return err
	}
	return resp.Err()
}

func outputPlatformsHuman(rows []platformRow) {
	fmt.Printf("\n%s%sPLATFORMS%s\n", colorBold, colorCyan, colorReset)
	fmt.Printf("%s%d configured%s\n\n", colorDim, len(rows), colorReset)

	if len(rows) == 0 {
		fmt.Println(clierr.NothingFound("platforms"))
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "  STATUS\tID\tNAME\tKIND\tURL\n")
	up := 0
	for _, row := range rows {
		status := colorDim + "-" + colorReset
		if row.Alive != nil {
			if *row.Alive {
				status = colorGreen + "● up" + colorReset
				up++
			} else {
				status = fmt.Sprintf("%s● down%s %s(%s)%s",
					colorRed, colorReset, colorDim, row.errClass, colorReset)
			}
		}
		kind := colorCyan + string(row.Kind) + colorReset
		if row.Kind == platform.KindSim {
			kind = colorPurple + string(row.Kind) + colorReset
		}
		name := row.Name
		if row.Enterprise {
			name += " " + colorYellow + "[EE]" + colorReset
		}
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\t%s\n", status, row.ID, name, kind, row.URL)
	}
	w.Flush()

	if platformsCheck {
		fmt.Println()
		fmt.Println("═══════════════════════════════════════════════════════════════")
		fmt.Printf("Summary: %s%d up%s, %s%d down%s\n\n",
			colorGreen, up, colorReset,
			colorRed, len(rows)-up, colorReset)
	}
}
