// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

// Command intel-scout scans page text for security entities and drives the
// analyst side panel over the configured intel and simulation platforms.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/monadic/intel-scout/pkg/platform"
)

var (
	// BuildTag is set during build
	BuildTag = "dev"
	// BuildDate is set during build
	BuildDate = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "intel-scout",
	Short: "Scan pages and correlate entities across intel platforms",
	Long: `intel-scout - scan pages and correlate entities across intel platforms

intel-scout extracts observables, vulnerabilities, and attack patterns from
page text, looks them up on every configured platform, and merges the results
into one deduplicated view. It provides commands for:

  - Scanning a page or file for IOCs and ATT&CK techniques
  - Working scan results in an interactive panel (containers, investigations,
    scenarios, atomic testing, cross-platform search)
  - Importing unknown entities into an intel platform as observables
  - Checking configured platform connectivity

Works degraded with no platforms configured: scanning and extraction still
run, platform-backed flows report themselves unavailable.

Environment Variables:
  INTEL_SCOUT_CONFIG        Platform config file (default: ~/.intel-scout/platforms.yaml)
  INTEL_SCOUT_TOKEN_<ID>    API token per platform id, e.g. INTEL_SCOUT_TOKEN_OCTI_MAIN
  INTEL_SCOUT_LOG_DIR       Session log directory (default: ~/.intel-scout/logs)
  LOG_LEVEL                 Log verbosity: debug, info, warn, error (default: info)
`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	// Add version command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("intel-scout version %s (built %s)\n", BuildTag, BuildDate)
		},
	})

	// Add completion command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion script",
		Long: `Generate shell completion script for intel-scout.

Bash:
  $ source <(intel-scout completion bash)
  # Or add to ~/.bashrc:
  $ intel-scout completion bash >> ~/.bashrc

Zsh:
  $ source <(intel-scout completion zsh)
  # Or install to fpath:
  $ intel-scout completion zsh > "${fpath[1]}/_intel-scout"

Fish:
  $ intel-scout completion fish | source
  # Or install:
  $ intel-scout completion fish > ~/.config/fish/completions/intel-scout.fish

PowerShell:
  PS> intel-scout completion powershell | Out-String | Invoke-Expression
`,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.ExactArgs(1),
		DisableFlagsInUseLine: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			default:
				return fmt.Errorf("unsupported shell: %s", args[0])
			}
		},
	})
}

// loadSnapshot reads the platform config, honoring --config over the
// INTEL_SCOUT_CONFIG default chain.
func loadSnapshot(configPath string) (*platform.Snapshot, error) {
	if configPath != "" {
		return platform.LoadFile(configPath)
	}
	return platform.Load()
}

// readPageText reads the page source from the file argument, or from stdin
// when text is piped in.
func readPageText(args []string) (string, error) {
	if len(args) > 0 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", fmt.Errorf("failed to read page file: %w", err)
		}
		return string(data), nil
	}
	stat, err := os.Stdin.Stat()
	if err == nil && (stat.Mode()&os.ModeCharDevice) == 0 {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	return "", fmt.Errorf("page text is required: pass a file argument or pipe text on stdin")
}
