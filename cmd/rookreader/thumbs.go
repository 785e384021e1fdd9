package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Rookro/RookReader/container"
	"github.com/Rookro/RookReader/internal/errutil"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var thumbsCmd = &cobra.Command{
	Use:   "thumbs <path>",
	Short: "Extract thumbnails for every entry of a container",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		output, err := cmd.Flags().GetString("output")
		if err != nil {
			errutil.ReportError(err, "Failed to get output flag")
			os.Exit(1)
		}

		source, err := container.Open(args[0], container.Options{})
		if err != nil {
			errutil.ReportError(err, "Failed to open container")
			os.Exit(1)
		}

		if err := os.MkdirAll(output, 0o755); err != nil {
			errutil.ReportError(err, "Failed to create output directory")
			os.Exit(1)
		}

		entries := source.Entries()
		bar := progressbar.Default(int64(len(entries)), "thumbnails")
		for _, entry := range entries {
			img, err := source.Thumbnail(entry)
			if err != nil {
				errutil.LogMsg(err, "Failed to render thumbnail")
				continue
			}

			name := thumbnailFileName(entry)
			if err := os.WriteFile(filepath.Join(output, name), img.Data, 0o644); err != nil {
				errutil.ReportError(err, "Failed to write thumbnail")
				os.Exit(1)
			}
			errutil.LogMsg(bar.Add(1), "Failed to update progress bar")
		}
	},
}

// thumbnailFileName flattens an entry name into a single .jpg file name.
func thumbnailFileName(entry string) string {
	name := strings.ReplaceAll(entry, "/", "_")
	ext := filepath.Ext(name)
	if ext != "" {
		name = strings.TrimSuffix(name, ext)
	}
	return fmt.Sprintf("%s.jpg", name)
}

func init() {
	rootCmd.AddCommand(thumbsCmd)

	thumbsCmd.Flags().String("output", "thumbnails", "Directory to write thumbnails into")
}
