package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/IvanShishkin/dupehound/internal/core"
	"github.com/IvanShishkin/dupehound/internal/filesystem"
	"github.com/IvanShishkin/dupehound/internal/report"
	"github.com/IvanShishkin/dupehound/internal/selection"
	"github.com/IvanShishkin/dupehound/pkg/models"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// scanCmd creates the scan command
func scanCmd() *cobra.Command {
	var (
		minSize      string
		workers      int
		chunkSize    string
		algorithm    string
		hashTimeout  int
		policy       string
		similarity   float64
		exclude      []string
		reportFormat string
		outputFile   string
		sessionPath  string
	)

	cmd := &cobra.Command{
		Use:   "scan [path]",
		Short: "Find duplicate files in a directory",
		Long: `Recursively scan a directory, group files with identical content and elect
one file per group to keep.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			// Validate flags before doing anything
			if err := validateFlags(reportFormat, algorithm, policy, similarity); err != nil {
				fmt.Printf("\n  %s✗ Invalid parameter:%s %s\n\n", colorRed, colorReset, err.Error())
				return err
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			// Override config with CLI flags
			if minSize != "" {
				cfg.MinSize = minSize
			}
			if workers > 0 {
				cfg.Workers = workers
			}
			if chunkSize != "" {
				cfg.ChunkSize = chunkSize
			}
			if algorithm != "" {
				cfg.HashAlgorithm = algorithm
			}
			if hashTimeout > 0 {
				cfg.HashTimeout = hashTimeout
			}
			if policy != "" {
				cfg.PriorityPolicy = policy
			}
			if cmd.Flags().Changed("similarity") {
				cfg.SimilarityThreshold = similarity
			}
			if len(exclude) > 0 {
				cfg.Exclude = exclude
			}
			if reportFormat != "" {
				cfg.ReportFormat = reportFormat
			}
			if outputFile != "" {
				cfg.OutputFile = outputFile
			}
			if err := cfg.Validate(); err != nil {
				fmt.Printf("\n  %s✗ Invalid configuration:%s %s\n\n", colorRed, colorReset, err.Error())
				return err
			}

			printBanner(path, cfg)

			ctx, stop := signalContext()
			defer stop()

			scanner := core.NewScanner(cfg, afero.NewOsFs(), logger)

			// Set up progress callback
			bar := progress.New(progress.WithDefaultGradient(), progress.WithWidth(30))
			lastPhase := ""
			scanner.SetProgressCallback(func(p core.Progress) {
				// Clear previous line if same phase
				if lastPhase == p.Phase {
					fmt.Print("\033[1A\033[K")
				}
				lastPhase = p.Phase

				switch p.Phase {
				case core.PhaseCounting:
					fmt.Printf("  %sCounting:%s   %s\n", colorGray, colorReset, p.Message)
				case core.PhaseScanning:
					fmt.Printf("  %sScanning:%s   %s %s%.1f%%%s (%d/%d)\n",
						colorGray, colorReset, bar.ViewAs(p.Percent/100), colorOrange, p.Percent, colorReset, p.Current, p.Total)
				case core.PhaseHashing:
					fmt.Printf("  %sHashing:%s    %s %s%.1f%%%s %s%s%s\n",
						colorGray, colorReset, bar.ViewAs(p.Percent/100), colorOrange, p.Percent, colorReset, colorGray, p.Message, colorReset)
				case core.PhaseComplete:
					fmt.Printf("  %s✓ Scan complete%s\n\n", colorGreen, colorReset)
				}
			})

			minBytes, err := filesystem.ParseSize(cfg.MinSize)
			if err != nil {
				return err
			}

			// Run scan
			result, err := scanner.Scan(ctx, path, minBytes)
			if err != nil {
				if errors.Is(err, models.ErrCancelled) {
					fmt.Printf("\n  %s⊘ Scan cancelled, no result%s\n\n", colorYellow, colorReset)
				}
				logger.Error("Scan failed", zap.Error(err))
				return err
			}

			generator := report.NewGenerator(cfg, logger)
			reportPath, err := generator.Generate(result)
			if err != nil {
				logger.Error("Failed to generate report", zap.Error(err))
				return err
			}

			// Print report path if generated
			if reportPath != "" {
				fmt.Printf("  %sReport:%s     %s%s%s\n", colorGray, colorReset, colorOrange, reportPath, colorReset)
			}

			if sessionPath != "" {
				store := selection.Initialize(result)
				backend, err := openArchive(ctx, cfg, sessionPath)
				if err != nil {
					return err
				}
				if err := saveSession(ctx, cfg, backend, store, time.Now()); err != nil {
					return err
				}
				fmt.Printf("  %sSession:%s    %s%s%s\n", colorGray, colorReset, colorOrange, backend.Location(), colorReset)
			}
			fmt.Println()

			return nil
		},
	}

	// Flags
	cmd.Flags().StringVar(&minSize, "min-size", "", "Minimum file size to consider, e.g. 1M (default from config: 1M)")
	cmd.Flags().IntVar(&workers, "workers", 0, "Number of hash workers (default: min(CPU cores, 4))")
	cmd.Flags().StringVar(&chunkSize, "chunk-size", "", "Read chunk size for hashing (default: 64K)")
	cmd.Flags().StringVar(&algorithm, "algorithm", "", "Hash algorithm: md5, sha1, sha256, blake2b, xxhash (default: sha256)")
	cmd.Flags().IntVar(&hashTimeout, "hash-timeout", 0, "Per-file hash timeout in seconds (default: 60)")
	cmd.Flags().StringVar(&policy, "policy", "", "Priority policy: newest, similar-name (default: newest)")
	cmd.Flags().Float64Var(&similarity, "similarity", 0.8, "Name similarity threshold for similar-name")
	cmd.Flags().StringSliceVar(&exclude, "exclude", nil, "Directory names to exclude (comma-separated)")
	cmd.Flags().StringVarP(&reportFormat, "report", "r", "", "Report format: txt, json, md, html (default: console output)")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file path")
	cmd.Flags().StringVar(&sessionPath, "session", "", "Save the session to a file or s3://bucket/key")

	return cmd
}
