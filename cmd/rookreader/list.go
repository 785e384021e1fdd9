package main

import (
	"fmt"
	"os"

	"github.com/Rookro/RookReader/container"
	"github.com/Rookro/RookReader/internal/errutil"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list <path>",
	Short: "List the image entries of a container",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		source, err := container.Open(args[0], container.Options{})
		if err != nil {
			errutil.ReportError(err, "Failed to open container")
			os.Exit(1)
		}

		for _, entry := range source.Entries() {
			fmt.Println(entry)
		}
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
