package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch <drive-letter...>",
	Short: "Start USN journal monitoring for already-indexed drives",
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

		for _, arg := range args {
			letter, err := driveLetterArg(arg)
			if err != nil {
				return err
			}
			if err := client.StartFileMonitoring(ctx, letter); err != nil {
				return fmt.Errorf("drive %c: %w", letter, err)
			}
			fmt.Printf("%c: monitoring started\n", letter)
		}

		fmt.Println("watching, press Ctrl-C to stop")
		<-ctx.Done()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
