package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/ibup/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup writes the default configuration file.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("output")

	r.logger.Info("creating config file from template", "path", path)
	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}

	r.writePlain("✓ Config written to %s\n", path)
	r.writePlain("Edit the [upload] section to change the default tags, playlists and options.\n")
	return nil
}

// Token opens the apps page where a login token is issued.
//
// When no browser can be started the URL is printed instead.
func (r *Runner) Token(ctx context.Context, cmd *cli.Command) error {
	url := r.config.Service.AppsURL
	if url == "" {
		return fmt.Errorf("%w: service.apps_url is empty", shared.ErrInvalidConfig)
	}

	if err := r.openURL(url); err != nil {
		r.logger.Warn("unable to open browser", "error", err)
		r.writePlain("Open %s in your browser.\n", url)
	}

	r.writePlain("Log in, click the \"Apps\" button in the side menu, and enable this app.\n")
	r.writePlain("Then run: ibup <login-token>\n")
	return nil
}
