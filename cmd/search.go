package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/riftcode/volsearch/query"
	"github.com/riftcode/volsearch/searchclient"
)

var (
	searchScope    []string
	searchRealtime bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the index (or live-walk unindexed drives) for matching files",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-sigChan
			cancel()
		}()

		query := args[0]
		var result searchclient.SearchResult

		if searchRealtime {
			scope, err := parseScope(searchScope)
			if err != nil {
				return err
			}
			result = client.RealtimeSearch(ctx, query, scope)
		} else {
			result = client.SearchFiles(ctx, query)
		}

		printBatches(result.RunID.String(), result.Batches)
		complete := <-result.Done
		fmt.Printf("search-complete: %d result(s)\n", complete.Count)
		return nil
	},
}

func init() {
	searchCmd.Flags().StringSliceVar(&searchScope, "scope", nil, "drive letters to live-walk with --realtime when they have no built index, e.g. C,D (every indexed drive is always searched)")
	searchCmd.Flags().BoolVar(&searchRealtime, "realtime", false, "fall back to a live filesystem walk for drives with no built index")
	rootCmd.AddCommand(searchCmd)
}

func parseScope(raw []string) ([]byte, error) {
	out := make([]byte, 0, len(raw))
	for _, r := range raw {
		letter, err := driveLetterArg(r)
		if err != nil {
			return nil, err
		}
		out = append(out, letter)
	}
	return out, nil
}

func printBatches(runID string, batches <-chan query.Batch) {
	for b := range batches {
		for _, it := range b.Items {
			fmt.Printf("[%s] %c:\\ %s\n", runID, b.Drive, it.Path)
		}
	}
}
