package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/ibup/internal/files"
	"github.com/desertthunder/ibup/internal/formatter"
	"github.com/desertthunder/ibup/internal/models"
	"github.com/desertthunder/ibup/internal/repositories"
	"github.com/desertthunder/ibup/internal/shared"
	"github.com/desertthunder/ibup/internal/tasks"
	"github.com/desertthunder/ibup/internal/ui"
	"github.com/urfave/cli/v3"
)

// uploadOptions merges the [upload] and [report] config sections with the flags.
type uploadOptions struct {
	dirs           []string
	tags           []string
	playlists      []string
	parallel       bool
	skipDuplicates bool
	skipHidden     bool
	yes            bool
	tui            bool
	color          bool
	reportPath     string
	reportFormat   formatter.Format
}

func (r *Runner) resolveOptions(cmd *cli.Command) (uploadOptions, error) {
	conf := r.config.Upload
	opts := uploadOptions{
		dirs:           cmd.StringSlice("directory"),
		tags:           append(append([]string{}, conf.Tags...), cmd.StringSlice("tag")...),
		playlists:      append(append([]string{}, conf.Playlists...), cmd.StringSlice("playlist")...),
		parallel:       conf.Parallel && !cmd.Bool("no-parallel"),
		skipDuplicates: conf.SkipDuplicates && !cmd.Bool("no-skip-duplicates"),
		skipHidden:     conf.SkipHidden || cmd.Bool("skip-hidden"),
		yes:            cmd.Bool("yes"),
		tui:            cmd.Bool("tui"),
		color:          cmd.Bool("color"),
		reportPath:     r.config.Report.Path,
	}

	if len(opts.dirs) == 0 {
		wd, err := os.Getwd()
		if err != nil {
			return opts, fmt.Errorf("failed to get working directory: %w", err)
		}
		opts.dirs = []string{wd}
	}

	format := r.config.Report.Format
	if cmd.IsSet("report") {
		opts.reportPath = cmd.String("report")
	}
	if cmd.IsSet("report-format") {
		format = cmd.String("report-format")
	}

	f, err := formatter.ParseFormat(format)
	if err != nil {
		return opts, err
	}
	opts.reportFormat = f

	return opts, nil
}

func (r *Runner) confirmerFor(opts uploadOptions) ui.Confirmer {
	switch {
	case r.confirmer != nil:
		return r.confirmer
	case opts.yes:
		return ui.AutoConfirmer{Out: r.output}
	case opts.tui:
		return ui.NewListConfirmer(nil, nil)
	default:
		return ui.NewPromptConfirmer(r.input, r.output)
	}
}

// Upload logs in, finds supported files, asks for confirmation and uploads them.
//
// Login, account info, metadata resolution and fingerprint fetch failures end the
// command with an error. Declining at the prompt is a normal exit.
func (r *Runner) Upload(ctx context.Context, cmd *cli.Command) error {
	opts, err := r.resolveOptions(cmd)
	if err != nil {
		return err
	}

	client, sess, err := r.login(ctx, cmd)
	if err != nil {
		return err
	}

	exts, err := client.SupportedFiletypes(ctx, sess)
	if err != nil {
		return err
	}
	r.writePlain("Account info fetched\n")
	r.logger.Debug("supported filetypes", "extensions", exts.Sorted())

	candidates, err := files.Discover(opts.dirs, exts, files.Options{SkipHidden: opts.skipHidden, Logger: r.logger})
	if err != nil {
		return err
	}
	paths := candidates.Sorted()

	ok, err := r.confirmerFor(opts).Confirm(ctx, paths)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	progress := make(chan tasks.ProgressUpdate, tasks.ProgressCapacity(len(paths), len(opts.tags), len(opts.playlists)))
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.printProgress(progress)
	}()

	meta, err := tasks.NewResolver(client, sess, r.logger, progress).Resolve(ctx, opts.tags, opts.playlists)
	if err != nil {
		close(progress)
		<-done
		return err
	}

	if opts.skipDuplicates {
		r.writePlain("Any duplicates will be skipped and listed at the end.\n")
	}

	runID := shared.GenerateID()
	engine := tasks.NewUploadEngine(client, sess, shared.WithLogger(r.logger, "run", runID))
	result, err := engine.Run(ctx, progress, paths, meta, tasks.RunOpts{
		SkipDuplicates: opts.skipDuplicates,
		Parallel:       opts.parallel,
	})
	close(progress)
	<-done
	if err != nil {
		return err
	}

	run := &models.Run{
		ID:             runID,
		StartedAt:      result.StartedAt,
		FinishedAt:     result.FinishedAt,
		Roots:          opts.dirs,
		Tags:           meta.TagNames(),
		Playlists:      meta.PlaylistNames(),
		SkipDuplicates: opts.skipDuplicates,
		Parallel:       opts.parallel,
		Uploaded:       result.Uploaded,
		Skipped:        result.Skipped,
		Errors:         result.Errors,
	}

	if err := (formatter.Summary{Debug: r.debug, Color: opts.color}).Write(r.output, run); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}

	return r.writeReport(run, opts)
}

// printProgress prints a timestamped line when a file starts uploading and when it finishes.
// Other updates go to the logger.
func (r *Runner) printProgress(progress <-chan tasks.ProgressUpdate) {
	for update := range progress {
		fp, ok := update.Data.(tasks.FileProgress)
		switch {
		case update.Phase != tasks.UploadFiles:
			r.logger.Info(update.Message)
		case ok && fp.Result == nil && fp.Stage == models.StageUploading:
			r.writePlain("%s\n", formatter.UploadingLine(r.now(), fp.Path))
		case ok && fp.Result != nil && fp.Result.Outcome == models.Uploaded:
			r.writePlain("%s\n", formatter.FinishedLine(r.now(), fp.Path, fp.TrackID))
		default:
			r.logger.Debug(update.Message, "step", update.Step, "total", update.Total)
		}
	}
}

// writeReport exports run when a report path is configured.
func (r *Runner) writeReport(run *models.Run, opts uploadOptions) error {
	if opts.reportPath == "" {
		return nil
	}

	if opts.reportFormat == formatter.FormatSQLite {
		db, err := shared.OpenReportDatabase(opts.reportPath)
		if err != nil {
			return fmt.Errorf("failed to open report database: %w", err)
		}
		defer db.Close()

		if err := repositories.NewReportRepository(db).SaveRun(run); err != nil {
			return fmt.Errorf("failed to save report: %w", err)
		}
	} else if err := formatter.WriteReport(run, opts.reportPath, opts.reportFormat); err != nil {
		return err
	}

	r.logger.Info("report written", "path", opts.reportPath, "format", opts.reportFormat, "run", run.ID)
	return nil
}
