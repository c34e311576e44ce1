package cli

import (
	"context"
	"fmt"
	"strings"

	"placement/internal/common"
	"placement/internal/errors"
	"placement/internal/mcpserver"
	"placement/internal/placement"
	"placement/internal/service"

	"github.com/spf13/cobra"
)

var matchCmd = &cobra.Command{
	Use:   "match [student-id]",
	Short: "Rank open jobs for a student",
	Long: `Rank every open job for a student. The score out of 100 gives up to 80
points for skill overlap, 10 when the job accepts the student's department and
10 when the student meets the job's minimum CGPA.`,
	Args:    cobra.ExactArgs(1),
	PreRunE: formatPreRun(&matchConfig),
	RunE:    runMatch,
}

var (
	matchConfig       common.CommandConfig
	matchEligibleOnly bool
)

var applyCmd = &cobra.Command{
	Use:   "apply [student-id] [job-id]",
	Short: "Record a student's application to a job",
	Args:  cobra.ExactArgs(2),
	RunE:  runApply,
}

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about the placement data",
	Long: `Answer a natural-language question about students, placements,
companies and jobs. The configured LLM answers within app.analysisTimeout;
otherwise the built-in responder answers from the same data.`,
	Args:    cobra.MinimumNArgs(1),
	PreRunE: formatPreRun(&askConfig),
	RunE:    runAsk,
}

var askConfig common.CommandConfig

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve placement tools over MCP on stdin and stdout",
	Args:  cobra.NoArgs,
	RunE:  runMCP,
}

func init() {
	addOutputFlags(matchCmd, &matchConfig)
	matchCmd.Flags().BoolVar(&matchEligibleOnly, "eligible-only", false, "Only jobs whose minimum CGPA the student meets")

	addOutputFlags(askCmd, &askConfig)
}

func runMatch(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		return common.RunCommand(cmd.Context(), a.logger, matchConfig, "match",
			func(ctx context.Context) ([]placement.MatchResult, error) {
				return a.svc.MatchJobs(ctx, args[0], matchEligibleOnly)
			})
	})
}

func runApply(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		application, err := a.svc.Apply(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Application %s recorded (%s)\n", application.ID, application.Status)
		return nil
	})
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.Join(args, " ")
	return withApp(cmd.Context(), func(a *app) error {
		return common.RunCommand(cmd.Context(), a.logger, askConfig, "ask",
			func(ctx context.Context) (service.Analysis, error) {
				return a.svc.Analyze(ctx, question)
			})
	})
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := getConfigFromContext(cmd.Context())
	if err != nil {
		return err
	}
	level, err := errors.ParseLevel(cfg.App.LogLevel)
	if err != nil {
		return err
	}
	// Stdout carries the protocol.
	ctx := context.WithValue(cmd.Context(), loggerKey, errors.NewStderrLogger(level))

	return withApp(ctx, func(a *app) error {
		return mcpserver.ServeStdio(mcpserver.New(a.svc, Version, a.logger))
	})
}
