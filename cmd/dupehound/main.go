package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/IvanShishkin/dupehound/internal/config"
	"github.com/IvanShishkin/dupehound/internal/metrics"
	"github.com/IvanShishkin/dupehound/internal/priority"
	"github.com/IvanShishkin/dupehound/internal/report"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ANSI colors
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorRed    = "\033[31m"
	colorOrange = "\033[38;5;208m"
	colorYellow = "\033[38;5;220m"
	colorGray   = "\033[38;5;245m"
	colorGreen  = "\033[32m"
)

var (
	version     = "0.1.0"
	logger      *zap.Logger
	verbose     bool
	configFile  string
	metricsFile string
	metricsAddr string
)

// Priority policies accepted by --policy
var policies = []string{"newest", "similar-name"}

func main() {
	rootCmd := &cobra.Command{
		Use:   "dupehound",
		Short: "Dupehound - Duplicate File Finder",
		Long: `Finds files with identical content under a directory, picks one file per group
to keep, and deletes or symlinks the rest.`,
		Version: version,
		Run: func(cmd *cobra.Command, args []string) {
			printMainBanner()
			cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initLogger()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			finish()
		},
	}

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (YAML)")
	rootCmd.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "Write Prometheus metrics to this file when the command ends")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while the command runs")

	// Disable built-in help command
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	// Add commands
	rootCmd.AddCommand(scanCmd())
	rootCmd.AddCommand(selectCmd())
	rootCmd.AddCommand(actionCmd("delete"))
	rootCmd.AddCommand(actionCmd("symlink"))
	rootCmd.AddCommand(scriptCmd())
	rootCmd.AddCommand(sessionCmd())
	rootCmd.AddCommand(algorithmsCmd())
	rootCmd.AddCommand(helpCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// initLogger builds the logger based on the verbose flag and starts the
// metrics endpoint when requested
func initLogger() error {
	var err error
	if verbose {
		logger, err = zap.NewDevelopment()
	} else {
		// Silent logger - only errors
		cfg := zap.Config{
			Level:            zap.NewAtomicLevelAt(zapcore.ErrorLevel),
			Encoding:         "json",
			OutputPaths:      []string{"stderr"},
			ErrorOutputPaths: []string{"stderr"},
			EncoderConfig:    zap.NewProductionEncoderConfig(),
		}
		logger, err = cfg.Build()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return err
	}

	if metricsAddr != "" {
		srv := &http.Server{
			Addr:              metricsAddr,
			Handler:           metrics.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Warn("Metrics endpoint stopped", zap.String("addr", metricsAddr), zap.Error(err))
			}
		}()
	}

	return nil
}

// finish writes the metrics textfile and flushes the logger
func finish() {
	if logger == nil {
		return
	}
	if metricsFile != "" {
		if err := metrics.WriteTextfile(metricsFile); err != nil {
			logger.Error("Failed to write metrics", zap.String("path", metricsFile), zap.Error(err))
		}
	}
	_ = logger.Sync()
}

// loadConfig reads configuration from the --config file and environment
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		logger.Error("Failed to load config", zap.Error(err))
		return nil, err
	}
	return cfg, nil
}

// printMainBanner prints the main banner
func printMainBanner() {
	fmt.Println()
	fmt.Printf("%s", colorOrange)
	fmt.Println("████▄  ██  ██ ████▄  ██████ ██  ██ ▄████▄ ██  ██ ███  ██ ████▄ ")
	fmt.Println("██  ██ ██  ██ ██▄▄█▀ ██▄▄   ██████ ██  ██ ██  ██ ██ ▀▄██ ██  ██")
	fmt.Println("████▀  ▀████▀ ██     ██████ ██  ██ ▀████▀ ▀████▀ ██   ██ ████▀ ")
	fmt.Printf("%s", colorReset)
	fmt.Println()
	fmt.Printf("%sDuplicate File Finder v%s%s\n", colorGray, version, colorReset)
	fmt.Println()
}

// printBanner prints the scan header
func printBanner(path string, cfg *config.Config) {
	fmt.Println()
	fmt.Printf("  %s%sDUPEHOUND%s %sv%s%s\n", colorBold, colorOrange, colorReset, colorGray, version, colorReset)
	fmt.Println()
	fmt.Printf("  %sTarget:%s     %s\n", colorGray, colorReset, path)
	fmt.Printf("  %sAlgorithm:%s  %s\n", colorGray, colorReset, cfg.HashAlgorithm)
	fmt.Printf("  %sPolicy:%s     %s\n", colorGray, colorReset, cfg.PriorityPolicy)
	fmt.Printf("  %sMin size:%s   %s\n", colorGray, colorReset, cfg.MinSize)
}

// validateFlags validates CLI flag values
func validateFlags(reportFormat, algorithm, policy string, similarity float64) error {
	// Validate report format
	if reportFormat != "" && !contains(report.Formats, reportFormat) {
		return fmt.Errorf("--report must be one of: %s (got: %s)", strings.Join(report.Formats, ", "), reportFormat)
	}

	// Validate hash algorithm
	if algorithm != "" && !config.IsHashAlgorithm(algorithm) {
		return fmt.Errorf("--algorithm must be one of: %s (got: %s)", strings.Join(config.HashAlgorithms, ", "), algorithm)
	}

	// Validate priority policy
	if policy != "" && !contains(policies, policy) {
		return fmt.Errorf("--policy must be one of: %s (got: %s)", strings.Join(policies, ", "), policy)
	}

	// Validate similarity threshold
	if similarity < 0 || similarity > 1 {
		return fmt.Errorf("--similarity must be between 0 and 1 (got: %v)", similarity)
	}

	return nil
}

// contains checks if slice contains item
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// signalContext returns a context cancelled on Ctrl-C
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// algorithmsCmd lists hash algorithms and priority policies
func algorithmsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "algorithms",
		Short: "List hash algorithms and priority policies",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("\n%s%sHASH ALGORITHMS%s\n\n", colorBold, colorOrange, colorReset)
			for _, a := range config.HashAlgorithms {
				marker := ""
				if a == "sha256" {
					marker = fmt.Sprintf(" %s(default)%s", colorGray, colorReset)
				}
				fmt.Printf("  %s%s\n", a, marker)
			}

			fmt.Printf("\n%s%sPRIORITY POLICIES%s\n\n", colorBold, colorOrange, colorReset)
			fmt.Printf("  %-14s %skeep the most recently modified file (default)%s\n", "newest", colorGray, colorReset)
			fmt.Printf("  %-14s %skeep the file whose name best matches the clean name (threshold %.1f)%s\n",
				"similar-name", colorGray, priority.DefaultThreshold, colorReset)
			fmt.Println()
		},
	}
}

// helpCmd creates a custom help command
func helpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "help",
		Short: "Show help information",
		Run: func(cmd *cobra.Command, args []string) {
			printMainBanner()

			fmt.Printf("%s%sUSAGE%s\n\n", colorBold, colorOrange, colorReset)
			fmt.Printf("  dupehound <command> [flags]\n")

			fmt.Printf("\n%s%sCOMMANDS%s\n\n", colorBold, colorOrange, colorReset)
			fmt.Printf("  %sscan%s        Find duplicate files in a directory\n", colorBold, colorReset)
			fmt.Printf("  %sselect%s      Change which files of a session are marked\n", colorBold, colorReset)
			fmt.Printf("  %sdelete%s      Delete the marked files of a session\n", colorBold, colorReset)
			fmt.Printf("  %ssymlink%s     Replace the marked files with links to the kept file\n", colorBold, colorReset)
			fmt.Printf("  %sscript%s      Export a shell script instead of acting\n", colorBold, colorReset)
			fmt.Printf("  %ssession%s     Inspect a saved session\n", colorBold, colorReset)
			fmt.Printf("  %salgorithms%s  List hash algorithms and policies\n", colorBold, colorReset)

			fmt.Printf("\n%s%sGLOBAL FLAGS%s\n\n", colorBold, colorOrange, colorReset)
			fmt.Printf("  %s-v, --verbose%s       Enable verbose logging\n", colorBold, colorReset)
			fmt.Printf("  %s--config%s            Config file (YAML)\n", colorBold, colorReset)
			fmt.Printf("  %s--metrics-file%s      Write Prometheus metrics when done\n", colorBold, colorReset)
			fmt.Printf("  %s--metrics-addr%s      Serve Prometheus metrics while running\n", colorBold, colorReset)
			fmt.Printf("  %s-h, --help%s          Show help for any command\n", colorBold, colorReset)

			fmt.Printf("\n%s%sEXAMPLES%s\n\n", colorBold, colorOrange, colorReset)

			fmt.Printf("  %s# Scan and save a session%s\n", colorGray, colorReset)
			fmt.Printf("  dupehound scan --session dupes.json ~/Pictures\n\n")

			fmt.Printf("  %s# Keep the cleanest name instead of the newest file%s\n", colorGray, colorReset)
			fmt.Printf("  dupehound scan --policy similar-name --session dupes.json ~/Downloads\n\n")

			fmt.Printf("  %s# List file ids, unmark one file, then delete the rest%s\n", colorGray, colorReset)
			fmt.Printf("  dupehound session show --files --session dupes.json\n")
			fmt.Printf("  dupehound select --session dupes.json --set 3f2a9c0e1b7d4a55=false\n")
			fmt.Printf("  dupehound delete --session dupes.json\n\n")

			fmt.Printf("  %s# Store the session in S3%s\n", colorGray, colorReset)
			fmt.Printf("  dupehound scan --session s3://backups/dupes.json /srv/media\n\n")
		},
	}
}
