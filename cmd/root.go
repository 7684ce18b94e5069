// Package cmd is the cobra-based administrative CLI described in
// SPEC_FULL.md §2.7 — a thin dispatcher over searchclient.Client, the same
// role the teacher's own cmd package plays over its transfer engine.
// Grounded in cmd/root.go: a persistent --log-level flag parsed in
// PersistentPreRunE and one global client instance the subcommands share.
// Subcommands print plain text with fmt directly; the --output-format flag
// is parsed but no subcommand reads it.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/riftcode/volsearch/common"
	"github.com/riftcode/volsearch/config"
	"github.com/riftcode/volsearch/searchclient"
)

var (
	logLevelRaw  string
	configPath   string
	outputFormat string

	client *searchclient.Client
	logger common.ILogger
)

// rootCmd is the base command when volsearch is invoked with no subcommand.
var rootCmd = &cobra.Command{
	Use:   "volsearch",
	Short: "Index and search files on NTFS volumes",
	Long: `volsearch enumerates the Master File Table of NTFS volumes, keeps a
searchable index current via the USN change journal, and answers queries
against it without ever walking the filesystem tree.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var level common.LogLevel
		if logLevelRaw != "" {
			if err := level.Parse(logLevelRaw); err != nil {
				return fmt.Errorf("invalid --log-level %q: %w", logLevelRaw, err)
			}
		} else {
			level = common.ELogLevel.Info()
		}
		logger = common.NewLogger(level)

		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		client = searchclient.New(cfg, logger)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevelRaw, "log-level", "", "minimum log level: NONE|FATAL|ERROR|WARN|INFO|DEBUG")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath(), "path to the config JSON file")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "output-format", "text", "output format: text|json (every subcommand prints plain text regardless)")
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "volsearch.json"
	}
	return dir + string(os.PathSeparator) + "volsearch" + string(os.PathSeparator) + "config.json"
}

// Execute runs the CLI, exiting the process with a non-zero status on
// error — the same shape the teacher's own main.go expects from
// cmd.Execute().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
