package main

import (
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/joshuapare/memsim/internal/config"
	"github.com/joshuapare/memsim/internal/logger"
	"github.com/joshuapare/memsim/memory"
)

var (
	// Global flags
	verbose    bool
	quiet      bool
	jsonOut    bool
	configPath string
	logLevel   string
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

var rootCmd = &cobra.Command{
	Use:   "memsimctl",
	Short: "Simulate paging and segmentation memory management",
	Long: `memsimctl runs a memory-management simulator that places processes
into a fixed pool of memory using either paging (with FIFO, LRU or OPTIMAL
page replacement) or segmentation (best-fit with compaction).`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initLogging()
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML configuration file")
	rootCmd.PersistentFlags().
		StringVar(&logLevel, "log-level", "", "Log to stderr at this level (debug, info, warn, error)")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		printError("%v\n", err)
		os.Exit(1)
	}
}

// initLogging enables the simulator's structured log when --log-level is
// given, or at debug level with --verbose.
func initLogging() error {
	level := logLevel
	if level == "" && verbose {
		level = "debug"
	}
	if level == "" {
		return logger.Init(logger.Options{})
	}
	return logger.Init(logger.Options{
		Enabled: true,
		Level:   logger.ParseLevel(level),
		Writer:  os.Stderr,
	})
}

// newManager builds a manager from --config, or from defaults.
func newManager() (*memory.Manager, *config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	return managerFromConfig(cfg)
}

func managerFromConfig(cfg *config.Config) (*memory.Manager, *config.Config, error) {
	opts, err := cfg.Options()
	if err != nil {
		return nil, nil, err
	}
	// Flags win over the file.
	if logLevel == "" && !verbose && cfg.LogLevel != "" {
		lvl, _ := cfg.Level()
		if err := logger.Init(logger.Options{Enabled: true, Level: lvl, Writer: os.Stderr}); err != nil {
			return nil, nil, err
		}
	}
	m, err := memory.New(opts)
	if err != nil {
		return nil, nil, err
	}
	printVerbose("Memory: %d units, page size %d, strategy %s, policy %s\n",
		opts.TotalMemory, opts.PageSize, opts.Strategy, opts.Policy)
	return m, cfg, nil
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...interface{}) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printError prints an error message
func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format, args...)
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...interface{}) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v interface{}) error {
	encoder := jsonAPI.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
