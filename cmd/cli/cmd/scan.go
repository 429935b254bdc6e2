package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/class-inspect/internal/service"
	"github.com/class-inspect/pkg/config"
)

var (
	// Scan command flags
	scanInput   string
	scanOutput  string
	scanName    string
	configPath  string
	scanWorkers int
	serveAfter  bool
	servePort   int
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan a directory tree for class files",
	Long: `Scan walks a directory tree, descending into .jar and .war archives,
parses every class file on a worker pool, and writes scan artifacts:

  - per-class disassembly text and summary JSON under classes/
  - a scan report (report.json) with corpus statistics
  - a class reference graph (refgraph.json.gz)

With database persistence enabled in the configuration, the report and
class summaries are recorded; with storage enabled, every artifact is
uploaded under scan.upload_prefix.`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	// Set dynamic example using actual binary name
	binName := BinName()
	scanCmd.Example = `  # Scan compiled classes into ./out/<scan name>
  ` + binName + ` scan -i ./build/classes

  # Scan a JAR with a custom scan name and output root
  ` + binName + ` scan -i ./app.jar -o ./scans --name release-check

  # Scan and immediately browse the results
  ` + binName + ` scan -i ./build/classes --serve --port 8080`

	scanCmd.Flags().StringVarP(&scanInput, "input", "i", "", "Class file, archive, or directory to scan (required)")
	scanCmd.Flags().StringVarP(&scanOutput, "output", "o", "", "Output root for scan artifacts (default from config)")
	scanCmd.Flags().StringVar(&scanName, "name", "", "Scan name, used as the artifact subdirectory (default timestamped)")
	scanCmd.Flags().StringVarP(&configPath, "config", "c", "", "Config file path")
	scanCmd.Flags().IntVarP(&scanWorkers, "workers", "w", 0, "Parser worker count (0 means one per CPU)")
	scanCmd.Flags().BoolVar(&serveAfter, "serve", false, "Start the web viewer after the scan")
	scanCmd.Flags().IntVar(&servePort, "port", 8080, "Port for the web viewer (used with --serve)")
	scanCmd.MarkFlagRequired("input")
}

func runScan(cmd *cobra.Command, args []string) error {
	log := GetLogger()

	// Validate scan input
	if _, err := os.Stat(scanInput); os.IsNotExist(err) {
		return fmt.Errorf("scan input not found: %s", scanInput)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if scanOutput != "" {
		cfg.Output.Dir = scanOutput
	}
	if cmd.Flags().Changed("workers") {
		cfg.Scan.Workers = scanWorkers
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	name := scanName
	if name == "" {
		name = "scan-" + time.Now().Format("20060102-150405")
	}
	outDir := cfg.ScanDir(name)

	svc, err := service.New(cfg, log)
	if err != nil {
		return err
	}
	svc.SetVersion(Version)

	ctx := context.Background()
	if err := svc.Initialize(ctx); err != nil {
		return err
	}
	defer svc.Close()

	log.Info("=== Class Inspect Scan ===")
	log.Info("Scan root:  %s", scanInput)
	log.Info("Output dir: %s", outDir)
	log.Info("")

	res, err := svc.Scan(ctx, scanInput, outDir)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	report := res.Report
	log.Info("")
	log.Info("=== Scan Complete ===")
	log.Info("Classes found:  %d", report.ClassesFound)
	log.Info("Classes parsed: %d", report.ClassesParsed)
	if report.ClassesSkipped > 0 {
		log.Info("Classes skipped: %d (prefix filters)", report.ClassesSkipped)
	}
	if len(report.Failures) > 0 {
		log.Warn("Failures:       %d", len(report.Failures))
	}
	log.Info("Findings:       %d", report.FindingCount)
	log.Info("Duration:       %dms", report.DurationMS)
	log.Info("Artifacts are in: %s", outDir)

	// If serve mode is enabled, start the web viewer over the output root
	if serveAfter {
		log.Info("")
		log.Info("Starting web viewer...")
		return startServeMode(cfg.Output.Dir, servePort, log)
	}

	return nil
}
