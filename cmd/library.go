package main

import (
	"context"

	"github.com/urfave/cli/v3"
)

// Filetypes prints the file extensions the account accepts.
func (r *Runner) Filetypes(ctx context.Context, cmd *cli.Command) error {
	client, sess, err := r.login(ctx, cmd)
	if err != nil {
		return err
	}

	exts, err := client.SupportedFiletypes(ctx, sess)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(exts.Sorted(), false)
	}

	for _, ext := range exts.Sorted() {
		r.writePlain("%s\n", ext)
	}
	return nil
}

// Library prints the tags and playlists in the remote library.
func (r *Runner) Library(ctx context.Context, cmd *cli.Command) error {
	client, sess, err := r.login(ctx, cmd)
	if err != nil {
		return err
	}

	lib, err := client.Library(ctx, sess)
	if err != nil {
		return err
	}
	r.logger.Debug("library fetched", "tags", len(lib.Tags), "playlists", len(lib.Playlists))

	if cmd.Bool("json") {
		return r.writeJSON(lib, cmd.Bool("pretty"))
	}

	r.writePlain("Tags (%d):\n", len(lib.Tags))
	for _, tag := range lib.Tags {
		r.writePlain("  %-8s %s\n", tag.ID, tag.Name)
	}

	r.writePlain("\nPlaylists (%d):\n", len(lib.Playlists))
	for _, pl := range lib.Playlists {
		r.writePlain("  %-8s %s\n", pl.ID, pl.Name)
	}
	return nil
}
