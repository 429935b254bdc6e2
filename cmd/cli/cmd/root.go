package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/class-inspect/internal/formatter"
	"github.com/class-inspect/internal/inspector"
	"github.com/class-inspect/pkg/utils"
)

var (
	// Global flags
	verbose bool
	logger  utils.Logger

	// Root command flags
	outputFormat string
	outputFile   string
)

// rootCmd represents the base command. Run with a class file argument
// it disassembles that one file; batch scans and the web viewer live
// in subcommands.
var rootCmd = &cobra.Command{
	Use:   "class-inspect [file.class]",
	Short: "A JVM class file inspection tool",
	Long: `class-inspect parses JVM class files and renders them as a javap-style
disassembly: class header, constant pool, field and method signatures,
and bytecode mnemonics with resolved constant pool comments.

Given a class file argument it disassembles that file to stdout. The
scan subcommand walks directory trees and archives and writes scan
artifacts; serve starts a web viewer over scan output.`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Diagnostics go to stderr; stdout carries command output.
		logLevel := utils.LevelInfo
		if verbose {
			logLevel = utils.LevelDebug
		}
		logger = utils.NewDefaultLogger(logLevel, os.Stderr)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}
		return runInspect(context.Background(), args[0])
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	// Root command flags
	rootCmd.Flags().StringVarP(&outputFormat, "format", "f", formatter.FormatText, "Output format: text, json, summary")
	rootCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Write output to a file instead of stdout")

	// Set dynamic example using actual binary name
	binName := BinName()
	rootCmd.Example = `  # Disassemble a class file
  ` + binName + ` Main.class

  # Summarize a class as JSON
  ` + binName + ` -f json Main.class

  # Scan a build tree and write artifacts
  ` + binName + ` scan -i ./build/classes

  # Browse scan results
  ` + binName + ` serve -d ./out -p 8080`
}

// runInspect disassembles one class file to the selected output.
func runInspect(ctx context.Context, path string) error {
	registry := formatter.NewRegistry()
	f, ok := registry.Lookup(outputFormat)
	if !ok {
		return fmt.Errorf("unknown format %q (valid: %s)", outputFormat, strings.Join(registry.Names(), ", "))
	}

	cfg := inspector.DefaultConfig()
	if verbose {
		cfg.Logger = logger
	}

	result, err := inspector.New(cfg).InspectFile(ctx, path)
	if err != nil {
		return fmt.Errorf("failed to inspect %s: %w", path, err)
	}

	out := os.Stdout
	if outputFile != "" {
		file, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer file.Close()
		out = file
	}

	if err := f.Format(out, result); err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}

	return nil
}

// GetLogger returns the configured logger
func GetLogger() utils.Logger {
	return logger
}

// BinName returns the base name of the current executable
func BinName() string {
	return filepath.Base(os.Args[0])
}
