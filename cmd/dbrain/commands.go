package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ashureev/dbrain/internal/domain"
	"github.com/ashureev/dbrain/internal/intent"
	"github.com/ashureev/dbrain/internal/progress"
	"github.com/ashureev/dbrain/internal/router"
)

func newClassifyCmd() *cobra.Command {
	var projectsFile string
	cmd := &cobra.Command{
		Use:   "classify [text]",
		Short: "Show how an utterance would be routed, without acting on it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projects, err := loadProjects(projectsFile)
			if err != nil {
				return err
			}
			printClassification(cmd.OutOrStdout(), intent.NewExtractor(projects), strings.Join(args, " "))
			return nil
		},
	}
	cmd.Flags().StringVar(&projectsFile, "projects", os.Getenv("PROJECTS_FILE"), "YAML project table (defaults to the built-in table)")
	return cmd
}

func printClassification(w io.Writer, ext *intent.Extractor, text string) {
	kind := intent.Classify(text)
	fmt.Fprintf(w, "intent: %s\n", kind)

	switch kind {
	case domain.IntentCreateTask:
		f := ext.TaskFields(text)
		fmt.Fprintf(w, "title: %s\n", f.Title)
		if f.Project != "" {
			fmt.Fprintf(w, "project: %s\n", f.Project)
		}
		if f.Due != nil {
			fmt.Fprintf(w, "due: %s\n", f.Due.ISO())
		}
	case domain.IntentQueryTasks:
		fmt.Fprintf(w, "scope: %s\n", intent.ClassifyQuery(text))
	}
}

func newProcessCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "process",
		Short: "Run daily processing over today's note and snapshot the vault",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runJob(cmd, (*router.Router).ProcessDaily)
		},
	}
}

func newWeeklyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "weekly",
		Short: "Generate the weekly digest and save it to the vault",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runJob(cmd, (*router.Router).Weekly)
		},
	}
}

func runJob(cmd *cobra.Command, job func(*router.Router, context.Context, progress.Indicator) domain.Result) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	res := job(a.router, ctx, writerIndicator{w: cmd.ErrOrStderr()})
	if !res.OK() {
		return errors.New(res.Error)
	}
	fmt.Fprintln(cmd.OutOrStdout(), res.Report)
	if res.Reference != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "saved: %s\n", res.Reference)
	}
	return nil
}

// writerIndicator prints progress lines to a terminal.
type writerIndicator struct {
	w io.Writer
}

func (i writerIndicator) Update(_ context.Context, text string) error {
	_, err := fmt.Fprintln(i.w, text)
	return err
}
