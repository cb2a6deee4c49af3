package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ibup/internal/services"
	"github.com/desertthunder/ibup/internal/shared"
	"github.com/desertthunder/ibup/internal/ui"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	input      io.Reader
	confirmer  ui.Confirmer
	openURL    func(string) error
	now        func() time.Time
	debug      bool
}

// RunnerOpts contains configuration options for creating a Runner.
//
// A nil Confirmer picks one from the --yes and --tui flags.
type RunnerOpts struct {
	Config     *shared.Config
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Input      io.Reader
	Confirmer  ui.Confirmer
	OpenURL    func(string) error
	Now        func() time.Time
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.OpenURL == nil {
		opts.OpenURL = shared.OpenBrowser
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Runner{
		config:     opts.Config,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		input:      opts.Input,
		confirmer:  opts.Confirmer,
		openURL:    opts.OpenURL,
		now:        opts.Now,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, tokenCommand, filetypesCommand, libraryCommand, historyCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// before loads the configuration and applies --debug ahead of every action.
//
// An explicit --config must load; the default path is only used when the file exists.
func (r *Runner) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("debug") {
		r.debug = true
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	path := cmd.String("config")
	if cmd.IsSet("config") {
		if _, err := os.Stat(path); err != nil {
			return ctx, fmt.Errorf("%w: %s", shared.ErrMissingConfig, path)
		}
		config, err := shared.LoadConfig(path)
		if err != nil {
			return ctx, err
		}
		r.config = config
		r.logger.Debug("config loaded", "path", path)
		return ctx, nil
	}

	if _, err := os.Stat(path); err == nil {
		config, err := shared.LoadConfig(path)
		if err != nil {
			r.logger.Warn("failed to load config, using defaults", "path", path, "error", err)
			return ctx, nil
		}
		r.config = config
		r.logger.Debug("config loaded", "path", path)
	}

	return ctx, nil
}

func (r *Runner) client() *services.Client {
	return services.NewClient(r.config, r.httpClient, r.logger)
}

// login exchanges a login token for a session.
func (r *Runner) login(ctx context.Context, cmd *cli.Command) (*services.Client, services.Session, error) {
	token := cmd.StringArg("login-token")
	if token == "" {
		return nil, services.Session{}, fmt.Errorf("%w: login token (enable the app at %s to get one)",
			shared.ErrMissingArgument, r.config.Service.AppsURL)
	}

	client := r.client()
	sess, err := client.Login(ctx, token)
	if err != nil {
		return nil, services.Session{}, err
	}
	return client, sess, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
