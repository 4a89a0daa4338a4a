package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"ffcraft/internal/command"
	"ffcraft/internal/logging"
	"ffcraft/internal/queue"
	"ffcraft/internal/worker"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var (
		presetIDs      []string
		priority       int
		maxConcurrent  int
		skipValidation bool
		autoRetry      bool
		asJSON         bool
	)

	cmd := &cobra.Command{
		Use:   "run [state.json|-]...",
		Short: "Validate, queue and run encoding states",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			runID := uuid.NewString()
			logger = logging.WithContext(logging.WithCorrelationID(cmd.Context(), runID), logger)
			registry, err := ctx.hwRegistry()
			if err != nil {
				return err
			}

			states, err := ctx.loadStates(cmd, args, presetIDs)
			if err != nil {
				return err
			}
			if !skipValidation {
				validator, err := ctx.newValidator(cmd.Context(), false)
				if err != nil {
					return err
				}
				for _, s := range states {
					result := validator.Validate(s.State)
					for _, w := range result.Warnings {
						logging.WarnWithHint(logger, "state warning", "validation_warning", w.Message,
							logging.String("state", s.Name), logging.String("field", w.Field))
					}
					if !result.Valid {
						fmt.Fprintln(cmd.ErrOrStderr(), renderTable([]string{"Level", "Field", "Message"}, issueRows(result), nil))
						return fmt.Errorf("state %s is invalid; fix the errors or pass --skip-validation", s.Name)
					}
				}
			}

			lock := flock.New(cfg.RunLockPath())
			ok, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire run lock: %w", err)
			}
			if !ok {
				return fmt.Errorf("another ffcraft run holds %s", cfg.RunLockPath())
			}
			defer func() { _ = lock.Unlock() }()

			qcfg := queue.ConfigFromSettings(cfg)
			if maxConcurrent > 0 {
				qcfg.MaxConcurrent = maxConcurrent
			}
			q, err := queue.New(qcfg, queue.WithLogger(logger))
			if err != nil {
				return err
			}

			opts := []worker.Option{}
			if cmd.Flags().Changed("auto-retry") {
				opts = append(opts, worker.WithAutoRetry(autoRetry))
			}
			if !asJSON && shouldColorize(cmd.ErrOrStderr()) {
				opts = append(opts, worker.WithObserver(newProgressPrinter(cmd.ErrOrStderr()).observe))
			}
			dispatcher := worker.New(cfg, q, logger, opts...)

			generator := command.NewGenerator(cfg.FFmpeg.Binary, registry)
			for _, s := range states {
				if _, err := q.Enqueue(queue.JobSpec{
					Name:     s.Name,
					Command:  generator.Generate(s.State),
					Priority: priority,
				}); err != nil {
					return fmt.Errorf("enqueue %s: %w", s.Name, err)
				}
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := dispatcher.Start(runCtx); err != nil {
				return err
			}
			waitErr := dispatcher.Wait(runCtx)
			dispatcher.Stop()

			jobs := q.List()
			if asJSON {
				if err := writeJSON(cmd, jobs); err != nil {
					return err
				}
			} else {
				printJobSummary(cmd, jobs)
			}
			if waitErr != nil {
				return context.Canceled
			}
			stats := q.Stats()
			if stats.Failed > 0 || stats.Cancelled > 0 {
				return fmt.Errorf("%d of %d jobs did not complete", stats.Failed+stats.Cancelled, stats.Total)
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&presetIDs, "preset", nil, "Run a saved preset by ID (repeatable)")
	cmd.Flags().IntVar(&priority, "priority", 0, "Priority for the queued jobs (higher runs first)")
	cmd.Flags().IntVar(&maxConcurrent, "max-concurrent", 0, "Override queue.max_concurrent")
	cmd.Flags().BoolVar(&skipValidation, "skip-validation", false, "Run states even if validation reports errors")
	cmd.Flags().BoolVar(&autoRetry, "auto-retry", false, "Retry failed runs up to queue.max_retries (overrides worker.auto_retry)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output job results as JSON")
	return cmd
}

func printJobSummary(cmd *cobra.Command, jobs []queue.Job) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	rows := make([][]string, 0, len(jobs))
	for _, job := range jobs {
		elapsed := ""
		if !job.StartedAt.IsZero() && !job.CompletedAt.IsZero() {
			elapsed = job.CompletedAt.Sub(job.StartedAt).Round(100 * time.Millisecond).String()
		}
		rows = append(rows, []string{
			shortID(job.ID),
			job.Name,
			colorizeStatus(job.Status, colorize),
			strconv.Itoa(job.RetryCount),
			elapsed,
			job.Error,
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"ID", "Name", "Status", "Retries", "Elapsed", "Error"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
	))
}
