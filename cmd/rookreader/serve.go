package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/Rookro/RookReader/internal/app"
	"github.com/Rookro/RookReader/internal/errutil"
	"github.com/Rookro/RookReader/internal/handler"
	"github.com/Rookro/RookReader/internal/history"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the HTTP server",
	Run: func(cmd *cobra.Command, args []string) {
		port := viper.GetInt("port")
		historyPath := viper.GetString("history-db")

		settings := app.DefaultSettings()
		settings.EnablePreview = viper.GetBool("enable-preview")
		settings.MaxImageHeight = viper.GetUint32("max-image-height")
		settings.ImageResizeMethod = viper.GetString("image-resize-method")
		settings.PDFRenderingHeight = viper.GetInt("pdf-rendering-height")

		state := app.NewState(settings)
		defer state.Close()

		var repo history.Repository
		if historyPath != "" {
			if err := os.MkdirAll(filepath.Dir(historyPath), 0o755); err != nil {
				errutil.ReportError(err, "Failed to create history directory")
				os.Exit(1)
			}
			sqlRepo, err := history.OpenSQLite(historyPath)
			if err != nil {
				errutil.ReportError(err, "Failed to open history database")
				os.Exit(1)
			}
			defer func() {
				errutil.LogMsg(sqlRepo.Close(), "Failed to close history database")
			}()
			repo = sqlRepo
		} else {
			slog.Warn("History database disabled")
		}

		h := handler.New(state, repo)

		addr := fmt.Sprintf(":%d", port)
		slog.Info("Starting server", "addr", addr, "history_db", historyPath)

		server := &http.Server{
			Addr:    addr,
			Handler: h.Mux(),
		}

		if err := server.ListenAndServe(); err != nil {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "Port to run the server on")
	serveCmd.Flags().String("history-db", defaultHistoryPath(), "Path to the history database (empty disables history)")
	serveCmd.Flags().Bool("enable-preview", true, "Serve downscaled previews before full images")
	serveCmd.Flags().Uint32("max-image-height", 0, "Downscale images taller than this (0 disables)")
	serveCmd.Flags().String("image-resize-method", "triangle", "Resize filter (nearest, triangle, catmull-rom, gaussian, lanczos3)")
	serveCmd.Flags().Int("pdf-rendering-height", 2000, "Target pixel height for rendered PDF pages")

	viper.BindPFlag("port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("history-db", serveCmd.Flags().Lookup("history-db"))
	viper.BindPFlag("enable-preview", serveCmd.Flags().Lookup("enable-preview"))
	viper.BindPFlag("max-image-height", serveCmd.Flags().Lookup("max-image-height"))
	viper.BindPFlag("image-resize-method", serveCmd.Flags().Lookup("image-resize-method"))
	viper.BindPFlag("pdf-rendering-height", serveCmd.Flags().Lookup("pdf-rendering-height"))
}

func defaultHistoryPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "history.db"
	}
	return filepath.Join(dir, "rookreader", "history.db")
}
