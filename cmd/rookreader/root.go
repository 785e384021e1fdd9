package main

import (
	"fmt"
	"os"

	"github.com/Rookro/RookReader/internal/errutil"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "rookreader",
	Short: "A comic and book reader backend",
	Long:  `rookreader serves images from comic archives, PDFs and EPUBs over HTTP.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if _, printErr := fmt.Fprintln(os.Stderr, err); printErr != nil {
			errutil.ReportError(printErr, "Failed to print error to stderr")
		}
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	viper.SetEnvPrefix("ROOKREADER")
	viper.AutomaticEnv()
}
