package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/desertthunder/ibup/internal/formatter"
	"github.com/desertthunder/ibup/internal/repositories"
	"github.com/desertthunder/ibup/internal/shared"
	"github.com/urfave/cli/v3"
)

// History lists the runs recorded in a SQLite report, or prints one run with --run.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("db")
	if path == "" {
		path = r.config.Report.Path
	}
	if path == "" {
		return fmt.Errorf("%w: --db", shared.ErrMissingArgument)
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("%w: report database %s: %v", shared.ErrInvalidArgument, path, err)
	}

	db, err := shared.OpenReportDatabase(path)
	if err != nil {
		return fmt.Errorf("failed to open report database: %w", err)
	}
	defer db.Close()

	repo := repositories.NewReportRepository(db)

	if id := cmd.String("run"); id != "" {
		format, err := formatter.ParseFormat(cmd.String("format"))
		if err != nil {
			return err
		}

		run, err := repo.GetRun(id)
		if err != nil {
			return err
		}

		data, err := formatter.Export(run, format)
		if err != nil {
			return err
		}
		_, err = r.output.Write(data)
		return err
	}

	runs, err := repo.ListRuns()
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(runs, true)
	}

	if len(runs) == 0 {
		r.writePlain("No runs recorded in %s\n", path)
		return nil
	}

	for _, run := range runs {
		r.writePlain("%s  %s  %4ds  uploaded %d, skipped %d, failed %d  %s\n",
			run.ID,
			run.StartedAt.Local().Format(time.DateTime),
			formatter.Seconds(run.FinishedAt.Sub(run.StartedAt)),
			run.Uploaded, run.Skipped, run.Failed,
			strings.Join(run.Roots, ", "),
		)
	}
	return nil
}
