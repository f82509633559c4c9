package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	appconfig "github.com/wolfman30/leadhunter/internal/config"
)

type rootOptions struct {
	envFile string
	output  string

	stdout io.Writer
	stderr io.Writer
	cfg    *appconfig.Config
	app    *app
}

// execute runs the command line in args and releases the shared wiring
// whether or not the command succeeded. Request goroutines print notices and
// logs while the command writes, so both streams are serialized.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts := &rootOptions{stdout: newSyncWriter(stdout), stderr: newSyncWriter(stderr)}
	defer opts.release()
	cmd := newRootCmd(opts)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

func newRootCmd(opts *rootOptions) *cobra.Command {

	cmd := &cobra.Command{
		Use:           "leadhunter",
		Short:         "Find businesses with low digital presence using LeadHunterAI",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			switch strings.ToLower(opts.output) {
			case "table", "json", "yaml":
			default:
				return fmt.Errorf("unsupported output format %q (want table, json or yaml)", opts.output)
			}
			if opts.envFile != "" {
				cfg, err := appconfig.LoadFile(opts.envFile)
				if err != nil {
					return fmt.Errorf("load %s: %w", opts.envFile, err)
				}
				opts.cfg = cfg
				return nil
			}
			opts.cfg = appconfig.Load()
			return nil
		},
	}
	cmd.SetOut(opts.stdout)
	cmd.SetErr(opts.stderr)
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "dotenv file to load before reading the environment")
	cmd.PersistentFlags().StringVarP(&opts.output, "output", "o", "table", "output format: table, json or yaml")

	cmd.AddCommand(
		newLoginCmd(opts),
		newLogoutCmd(opts),
		newStatusCmd(opts),
		newSearchCmd(opts),
		newHistoryCmd(opts),
		newProfileCmd(opts),
		newContactCmd(opts),
		newDemoCmd(opts),
	)
	return cmd
}

// open builds the shared wiring on first use.
func (o *rootOptions) open(cmd *cobra.Command) (*app, error) {
	if o.app != nil {
		return o.app, nil
	}
	a, err := newApp(cmd.Context(), o.cfg, o.stderr)
	if err != nil {
		return nil, err
	}
	o.app = a
	return a, nil
}

func (o *rootOptions) release() {
	if o.app != nil {
		o.app.close()
		o.app = nil
	}
}
