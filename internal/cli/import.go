package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"placement/internal/common"
	"placement/internal/importer"
	"placement/internal/store"

	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import [students.csv]",
	Short: "Import student records from a CSV file",
	Long: `Import student records from a CSV file. Rows are matched to existing
students by email: known students are updated, new ones created and rows
without a name or email skipped.

The header row names the columns; common variants such as "Roll No",
"CGPA" or "Branch" are recognised.`,
	Args:    cobra.ExactArgs(1),
	PreRunE: formatPreRun(&importConfig),
	RunE:    runImport,
}

var importConfig common.CommandConfig

var watchCmd = &cobra.Command{
	Use:   "watch [directory]",
	Short: "Import student CSV files as they appear in a directory",
	Long: `Watch a directory and import every CSV file written, created or renamed
into it. Files already present are imported on start. Runs until interrupted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	addOutputFlags(importCmd, &importConfig)
}

func runImport(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		return common.RunCommand(cmd.Context(), a.logger, importConfig, "import",
			func(ctx context.Context) (store.ImportResult, error) {
				file, err := common.NewFileProcessor(a.logger).OpenInput(args[0], a.cfg.App.MaxFileSize)
				if err != nil {
					return store.ImportResult{}, err
				}
				defer func() { _ = file.Close() }()
				return a.svc.ImportCSV(ctx, file)
			})
	})
}

func runWatch(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		dir := a.cfg.Importer.Dir
		if len(args) == 1 {
			dir = args[0]
		}
		if dir == "" {
			return fmt.Errorf("no directory given and importer.dir is not set")
		}

		watcher := importer.NewWatcher(dir, a.cfg.Importer.DebounceDelay, a.svc, a.logger)
		watcher.OnImport(func(path string, result store.ImportResult, err error) {
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", filepath.Base(path), err)
				return
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d created, %d updated, %d skipped\n",
				filepath.Base(path), result.Created, result.Updated, result.Skipped)
		})
		if err := watcher.Start(cmd.Context()); err != nil {
			return err
		}

		a.logger.Info("Watching for student CSV files", "dir", dir)
		<-cmd.Context().Done()
		return watcher.Stop()
	})
}
