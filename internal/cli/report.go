package cli

import (
	"context"
	"fmt"
	"strings"

	"placement/internal/common"
	"placement/internal/placement"
	"placement/internal/service"

	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Placement statistics and breakdowns",
}

var reportStatsCmd = &cobra.Command{
	Use:     "stats",
	Short:   "Overall placement statistics",
	Args:    cobra.NoArgs,
	PreRunE: formatPreRun(&reportStatsConfig),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			return common.RunCommand(cmd.Context(), a.logger, reportStatsConfig, "report stats", a.svc.Statistics)
		})
	},
}

var reportBreakdownCmd = &cobra.Command{
	Use:       "breakdown [course|department|year]",
	Short:     "Placement figures grouped by course, department or year",
	Args:      cobra.ExactArgs(1),
	ValidArgs: breakdownArgs(),
	PreRunE:   formatPreRun(&reportBreakdownConfig),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			return common.RunCommand(cmd.Context(), a.logger, reportBreakdownConfig, "report breakdown",
				func(ctx context.Context) ([]placement.Breakdown, error) {
					return a.svc.Breakdown(ctx, args[0])
				})
		})
	},
}

var reportFullCmd = &cobra.Command{
	Use:     "full",
	Short:   "Summary and every breakdown in one report",
	Args:    cobra.NoArgs,
	PreRunE: formatPreRun(&reportFullConfig),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			return common.RunCommand(cmd.Context(), a.logger, reportFullConfig, "report full",
				func(ctx context.Context) (service.Report, error) {
					return a.svc.FullReport(ctx)
				})
		})
	},
}

var (
	reportStatsConfig     common.CommandConfig
	reportBreakdownConfig common.CommandConfig
	reportFullConfig      common.CommandConfig
)

var studentsCmd = &cobra.Command{
	Use:   "students",
	Short: "List students with normalized course and department",
	Long: `List students after normalization. Filters combine; course and
department accept any spelling the normalizer recognises ("B.Tech", "cse").`,
	Args: cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		// Text and markdown have no student renderer.
		if studentsConfig.OutputFormat == "" {
			studentsConfig.OutputFormat = "json"
		}
		cfg, err := getConfigFromContext(cmd.Context())
		if err != nil {
			return err
		}
		return common.ValidateOutputFormat(studentsConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runStudents,
}

var (
	studentsConfig common.CommandConfig
	studentsFilter service.StudentFilter
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export every student as CSV",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

var exportFile string

func init() {
	addOutputFlags(reportStatsCmd, &reportStatsConfig)
	addOutputFlags(reportBreakdownCmd, &reportBreakdownConfig)
	addOutputFlags(reportFullCmd, &reportFullConfig)
	reportCmd.AddCommand(reportStatsCmd, reportBreakdownCmd, reportFullCmd)

	addOutputFlags(studentsCmd, &studentsConfig)
	studentsCmd.Flags().StringVar(&studentsFilter.Course, "course", "", "Only students in this course")
	studentsCmd.Flags().StringVar(&studentsFilter.Department, "department", "", "Only students in this department")
	studentsCmd.Flags().StringVar(&studentsFilter.Year, "year", "", "Only students in this year")
	studentsCmd.Flags().BoolVar(&studentsFilter.ActiveOnly, "active-only", false, "Skip inactive students")
	studentsCmd.Flags().String("placed", "", "Filter by placement: true or false")

	exportCmd.Flags().StringVarP(&exportFile, "output", "o", "", "Output file path (default: stdout)")
}

func breakdownArgs() []string {
	args := make([]string, 0, len(placement.BreakdownKeys))
	for _, key := range placement.BreakdownKeys {
		args = append(args, string(key))
	}
	return args
}

func runStudents(cmd *cobra.Command, args []string) error {
	filter := studentsFilter
	if cmd.Flags().Changed("placed") {
		raw, _ := cmd.Flags().GetString("placed")
		switch strings.ToLower(raw) {
		case "true", "yes", "1":
			placed := true
			filter.Placed = &placed
		case "false", "no", "0":
			placed := false
			filter.Placed = &placed
		default:
			return fmt.Errorf("invalid --placed value %q: want true or false", raw)
		}
	}

	return withApp(cmd.Context(), func(a *app) error {
		return common.RunCommand(cmd.Context(), a.logger, studentsConfig, "students",
			func(ctx context.Context) ([]placement.NormalizedStudent, error) {
				return a.svc.ListStudents(ctx, filter)
			})
	})
}

func runExport(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		fp := common.NewFileProcessor(a.logger)
		if exportFile == "" {
			return a.svc.ExportCSV(cmd.Context(), cmd.OutOrStdout())
		}
		if err := fp.ValidateOutputFile(exportFile); err != nil {
			return err
		}

		var b strings.Builder
		if err := a.svc.ExportCSV(cmd.Context(), &b); err != nil {
			return err
		}
		if err := fp.WriteFile(exportFile, b.String()); err != nil {
			return err
		}
		a.logger.Info("Students exported", "file", exportFile)
		return nil
	})
}
