package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/IvanShishkin/dupehound/internal/actions"
	"github.com/IvanShishkin/dupehound/internal/archive"
	"github.com/IvanShishkin/dupehound/internal/config"
	"github.com/IvanShishkin/dupehound/internal/filesystem"
	"github.com/IvanShishkin/dupehound/internal/selection"
	"github.com/IvanShishkin/dupehound/internal/session"
	"github.com/IvanShishkin/dupehound/pkg/models"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Paths listed before a delete or symlink confirmation
const previewLimit = 10

// openArchive resolves a --session location
func openArchive(ctx context.Context, cfg *config.Config, location string) (archive.Backend, error) {
	backend, err := archive.Open(ctx, location, cfg.S3, afero.NewOsFs(), logger)
	if err != nil {
		logger.Error("Failed to open session archive", zap.String("location", location), zap.Error(err))
		return nil, err
	}
	return backend, nil
}

// loadSession reads and decodes the session stored in backend
func loadSession(ctx context.Context, backend archive.Backend) (*selection.Store, *models.SessionSnapshot, error) {
	data, err := backend.Read(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read session %s: %w", backend.Location(), err)
	}
	store, snapshot, err := session.Load(data)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load session %s: %w", backend.Location(), err)
	}
	logger.Debug("Session loaded",
		zap.String("location", backend.Location()),
		zap.Int("groups", snapshot.Result.TotalGroups))
	return store, snapshot, nil
}

// saveSession encodes the store and writes it to backend
func saveSession(ctx context.Context, cfg *config.Config, backend archive.Backend, store *selection.Store, now time.Time) error {
	format, err := session.ParseFormat(cfg.SessionFormat)
	if err != nil {
		return err
	}
	data, err := session.Save(store.Result(), store.State(), now, format)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := backend.Write(ctx, data); err != nil {
		return fmt.Errorf("failed to write session %s: %w", backend.Location(), err)
	}
	return nil
}

// sessionFlag registers the required --session flag
func sessionFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVar(target, "session", "", "Session file or s3://bucket/key")
	_ = cmd.MarkFlagRequired("session")
}

// printSummary prints the selection summary of a store
func printSummary(store *selection.Store) {
	summary := store.Summary()
	fmt.Printf("  %sSelected:%s   %d of %d files (%s)\n",
		colorGray, colorReset, summary.Selected, summary.Total, filesystem.FormatSize(summary.SelectedBytes))
}

// parseAssignment parses an ID=true|false selection change
func parseAssignment(s string) (models.FileID, bool, error) {
	id, value, ok := strings.Cut(s, "=")
	if !ok || strings.TrimSpace(id) == "" {
		return "", false, fmt.Errorf("--set expects ID=true|false (got: %s)", s)
	}
	selected, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return "", false, fmt.Errorf("--set expects ID=true|false (got: %s)", s)
	}
	return models.FileID(strings.TrimSpace(id)), selected, nil
}

// fileLines lists every file of a session as "id  mark  path", group by group.
// Marked files carry [x]; the retained file of each group is tagged (keep).
func fileLines(store *selection.Store) ([]string, error) {
	var lines []string
	for _, g := range store.Result().Groups {
		lines = append(lines, fmt.Sprintf("Group %d (%s each)", g.ID, filesystem.FormatSize(g.Size)))
		for _, f := range g.Members() {
			selected, err := store.Get(f.ID)
			if err != nil {
				return nil, err
			}
			mark := "[ ]"
			if selected {
				mark = "[x]"
			}
			line := fmt.Sprintf("  %s  %s  %s", f.ID, mark, f.Path)
			if g.IsPriority(f.ID) {
				line += "  (keep)"
			}
			lines = append(lines, line)
		}
	}
	return lines, nil
}

// selectCmd changes the selection of a saved session
func selectCmd() *cobra.Command {
	var (
		sessionPath string
		assignments []string
		toggleAll   bool
		all         bool
		none        bool
	)

	cmd := &cobra.Command{
		Use:   "select",
		Short: "Change which files of a session are marked",
		Long: `Mark or unmark files of a saved session. Without changes the current
selection summary is printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if all && none {
				return fmt.Errorf("--all and --none are mutually exclusive")
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx := context.Background()
			backend, err := openArchive(ctx, cfg, sessionPath)
			if err != nil {
				return err
			}
			store, _, err := loadSession(ctx, backend)
			if err != nil {
				return err
			}

			changed := false
			switch {
			case all:
				store.SetAll(true)
				changed = true
			case none:
				store.SetAll(false)
				changed = true
			}
			if toggleAll {
				selected := store.ToggleAll()
				logger.Debug("Toggled selection", zap.Bool("selected", selected))
				changed = true
			}
			for _, a := range assignments {
				id, selected, err := parseAssignment(a)
				if err != nil {
					return err
				}
				if err := store.Set(id, selected); err != nil {
					return err
				}
				changed = true
			}

			fmt.Println()
			printSummary(store)
			if changed {
				if err := saveSession(ctx, cfg, backend, store, time.Now()); err != nil {
					return err
				}
				fmt.Printf("  %sSession:%s    %s%s%s\n", colorGray, colorReset, colorOrange, backend.Location(), colorReset)
			}
			fmt.Println()

			return nil
		},
	}

	sessionFlag(cmd, &sessionPath)
	cmd.Flags().StringArrayVar(&assignments, "set", nil, "Set one file, e.g. --set ID=false (repeatable)")
	cmd.Flags().BoolVar(&toggleAll, "toggle-all", false, "Select everything, or deselect everything if more than half is selected")
	cmd.Flags().BoolVar(&all, "all", false, "Select every file")
	cmd.Flags().BoolVar(&none, "none", false, "Deselect every file")

	return cmd
}

// actionCmd creates the delete or symlink command
func actionCmd(name string) *cobra.Command {
	var (
		sessionPath string
		yes         bool
	)

	mode, _ := actions.ParseMode(name)
	short := "Delete the selected files of a session"
	if mode == actions.ModeSymlink {
		short = "Replace the selected files with symlinks to the kept file"
	}

	cmd := &cobra.Command{
		Use:   name,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx := context.Background()
			backend, err := openArchive(ctx, cfg, sessionPath)
			if err != nil {
				return err
			}
			store, _, err := loadSession(ctx, backend)
			if err != nil {
				return err
			}

			preview := actions.Preview(store, previewLimit)
			if preview.Count == 0 {
				fmt.Printf("\n  %sNothing selected%s\n\n", colorGray, colorReset)
				return nil
			}

			fmt.Printf("\n  %s%s%s %d files (%s)\n", colorBold, name, colorReset, preview.Count, filesystem.FormatSize(preview.Bytes))
			for _, p := range preview.Paths {
				fmt.Printf("    %s\n", p)
			}
			if preview.More > 0 {
				fmt.Printf("    %s... and %d more%s\n", colorGray, preview.More, colorReset)
			}

			if !yes && !confirm(fmt.Sprintf("Proceed with %s?", name)) {
				fmt.Printf("  %sAborted%s\n\n", colorGray, colorReset)
				return nil
			}

			executor := actions.NewExecutor(afero.NewOsFs(), logger)
			var result *actions.Report
			if mode == actions.ModeSymlink {
				result, err = executor.Symlink(store)
			} else {
				result, err = executor.Delete(store)
			}
			if err != nil {
				return err
			}

			fmt.Println()
			if mode == actions.ModeSymlink {
				fmt.Printf("  %s✓ Created %d symlinks%s, freed %s\n", colorGreen, result.Created, colorReset, filesystem.FormatSize(result.FreedBytes))
			} else {
				fmt.Printf("  %s✓ Deleted %d files%s, freed %s\n", colorGreen, result.Deleted, colorReset, filesystem.FormatSize(result.FreedBytes))
			}
			for _, line := range result.ErrorLines(cfg.MaxErrorsShown) {
				fmt.Printf("  %s⚠ %s%s\n", colorYellow, line, colorReset)
			}

			if err := saveSession(ctx, cfg, backend, store, time.Now()); err != nil {
				return err
			}
			printSummary(store)
			fmt.Println()

			return nil
		},
	}

	sessionFlag(cmd, &sessionPath)
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")

	return cmd
}

// confirm asks a yes/no question on stdin; anything but y/yes is no
func confirm(question string) bool {
	fmt.Printf("\n  %s%s [y/N]:%s ", colorBold, question, colorReset)

	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	input = strings.TrimSpace(strings.ToLower(input))
	return input == "y" || input == "yes"
}

// scriptCmd exports the selection as a shell script
func scriptCmd() *cobra.Command {
	var (
		sessionPath string
		modeName    string
		outputFile  string
	)

	cmd := &cobra.Command{
		Use:   "script",
		Short: "Export a shell script that performs the selected action",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := actions.ParseMode(modeName)
			if err != nil {
				return err
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx := context.Background()
			backend, err := openArchive(ctx, cfg, sessionPath)
			if err != nil {
				return err
			}
			store, _, err := loadSession(ctx, backend)
			if err != nil {
				return err
			}

			script, err := actions.ExportScript(store, mode, time.Now())
			if err != nil {
				return err
			}

			if outputFile == "" {
				fmt.Print(script)
				return nil
			}
			if err := os.WriteFile(outputFile, []byte(script), 0755); err != nil {
				return fmt.Errorf("failed to write script: %w", err)
			}
			fmt.Fprintf(os.Stderr, "%s✓ Script written to %s%s\n", colorGreen, outputFile, colorReset)
			return nil
		},
	}

	sessionFlag(cmd, &sessionPath)
	cmd.Flags().StringVar(&modeName, "mode", "delete", "Action: delete, symlink")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Write the script to a file instead of stdout")

	return cmd
}

// sessionCmd groups session inspection commands
func sessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect saved sessions",
	}

	var (
		sessionPath string
		listFiles   bool
	)
	show := &cobra.Command{
		Use:   "show",
		Short: "Show the summary of a saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx := context.Background()
			backend, err := openArchive(ctx, cfg, sessionPath)
			if err != nil {
				return err
			}
			store, snapshot, err := loadSession(ctx, backend)
			if err != nil {
				return err
			}

			result := snapshot.Result
			fmt.Println()
			fmt.Printf("  %sSession:%s    %s\n", colorGray, colorReset, backend.Location())
			fmt.Printf("  %sSaved:%s      %s\n", colorGray, colorReset, snapshot.Timestamp.Format(models.ModTimeLayout))
			fmt.Printf("  %sRoot:%s       %s\n", colorGray, colorReset, result.Root)
			fmt.Printf("  %sAlgorithm:%s  %s\n", colorGray, colorReset, result.Algorithm)
			fmt.Printf("  %sPolicy:%s     %s\n", colorGray, colorReset, result.Policy)
			fmt.Printf("  %sGroups:%s     %d (%s reclaimable)\n", colorGray, colorReset, result.TotalGroups, filesystem.FormatSize(result.TotalWastedBytes))
			printSummary(store)

			if listFiles {
				lines, err := fileLines(store)
				if err != nil {
					return err
				}
				fmt.Println()
				for _, line := range lines {
					fmt.Println("  " + line)
				}
			}
			fmt.Println()

			return nil
		},
	}
	sessionFlag(show, &sessionPath)
	show.Flags().BoolVar(&listFiles, "files", false, "List every file with its id and mark")

	cmd.AddCommand(show)
	return cmd
}
