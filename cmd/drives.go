package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/riftcode/volsearch/searchclient"
)

var drivesCmd = &cobra.Command{
	Use:   "drives",
	Short: "List drive letters present on this machine",
	RunE: func(cmd *cobra.Command, args []string) error {
		drives := searchclient.GetAllDrives()
		if len(drives) == 0 {
			fmt.Println("no drives detected")
			return nil
		}
		for _, d := range drives {
			status := client.DriveState(d)
			fmt.Printf("%c:\\  %s\n", d, status)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(drivesCmd)
}
