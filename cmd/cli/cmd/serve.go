package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/class-inspect/internal/webui"
	"github.com/class-inspect/pkg/config"
	"github.com/class-inspect/pkg/utils"
)

var (
	// Serve command flags
	dataDir string
	port    int
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web viewer over scan output",
	Long: `Serve starts an HTTP server for browsing scan results.

The viewer lists the scans under the data directory and exposes each
scan's report, class summaries, disassembly listings, and reference
graph. It reads the artifacts the scan command writes, decompressing
zstd and gzip listings on the fly.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	// Set dynamic example using actual binary name
	binName := BinName()
	serveCmd.Example = `  # Serve the configured output directory on the configured port
  ` + binName + ` serve

  # Specify data directory and port
  ` + binName + ` serve -d ./scans -p 9090`

	serveCmd.Flags().StringVarP(&dataDir, "data-dir", "d", "", "Directory containing scan output (default from config)")
	serveCmd.Flags().IntVarP(&port, "port", "p", 0, "Port for the web server (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load("")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	dir := dataDir
	if dir == "" {
		dir = cfg.Output.Dir
	}
	serverPort := port
	if serverPort == 0 {
		serverPort = cfg.Server.Port
	}

	return startServeMode(dir, serverPort, GetLogger())
}

// startServeMode is shared between scan --serve and the serve command.
func startServeMode(dataDirectory string, serverPort int, log utils.Logger) error {
	// Verify data directory exists
	if _, err := os.Stat(dataDirectory); os.IsNotExist(err) {
		return fmt.Errorf("data directory not found: %s", dataDirectory)
	}

	server := webui.NewServer(dataDirectory, serverPort, log)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(ctx)
		os.Exit(0)
	}()

	log.Info("Class inspect viewer: http://localhost:%d", serverPort)
	log.Info("Data directory: %s", dataDirectory)
	log.Info("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}
