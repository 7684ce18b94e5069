package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/riftcode/volsearch/searchclient"
)

var buildWatch bool

var buildCmd = &cobra.Command{
	Use:   "build <drive-letter...>",
	Short: "Perform a full MFT enumeration and build the search index for one or more drives",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-sigChan
			cancel()
		}()

		scope := make([]byte, 0, len(args))
		for _, arg := range args {
			letter, err := driveLetterArg(arg)
			if err != nil {
				return err
			}
			scope = append(scope, letter)
		}

		finished, err := client.BuildIndex(ctx, scope, func(ev searchclient.IndexBuildEvent) {
			switch ev.Status {
			case searchclient.IndexBuildStatusBuilding:
				fmt.Printf("%c: building...\n", ev.Drive)
			case searchclient.IndexBuildStatusCompleted:
				fmt.Printf("%c: completed\n", ev.Drive)
			case searchclient.IndexBuildStatusFailed:
				fmt.Printf("%c: failed: %v\n", ev.Drive, ev.Err)
			}
		})
		if err != nil {
			return err
		}
		fmt.Printf("rebuild finished: %s\n", finished.Message)

		if buildWatch {
			for _, letter := range finished.Succeeded {
				if err := client.StartFileMonitoring(ctx, letter); err != nil {
					fmt.Printf("%c: monitoring failed to start: %v\n", letter, err)
				}
			}
			if len(finished.Succeeded) > 0 {
				fmt.Println("monitoring active, press Ctrl-C to stop")
				<-ctx.Done()
			}
		}
		return nil
	},
}

func init() {
	buildCmd.Flags().BoolVar(&buildWatch, "watch", false, "start USN journal monitoring for each drive after it builds")
	rootCmd.AddCommand(buildCmd)
}

// driveLetterArg accepts "C", "C:", or "C:\" and returns the bare letter.
func driveLetterArg(arg string) (byte, error) {
	if len(arg) == 0 {
		return 0, fmt.Errorf("empty drive argument")
	}
	letter := arg[0]
	if letter >= 'a' && letter <= 'z' {
		letter -= 'a' - 'A'
	}
	if letter < 'A' || letter > 'Z' {
		return 0, fmt.Errorf("invalid drive letter %q", arg)
	}
	return letter, nil
}
