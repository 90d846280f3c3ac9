package main

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"summit/internal/bootstrap"
	"summit/internal/config"
	"summit/internal/logging"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// cli holds state shared by the subcommands.
type cli struct {
	configFile string
	cfg        config.Config
	meta       config.Metadata
}

// NewRootCommand builds the summit command tree.
func NewRootCommand() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "summit",
		Short: "Conference site for the Boardroom Summit",
		Long: fmt.Sprintf(`%s

Serves the public summit pages and the admin tools, and manages sponsors,
speakers, uploads and application status from the command line.

%s
  summit serve                                  # Serve the site
  summit sponsors list                          # List sponsors
  summit sponsors create --name Acme --logo-url https://cdn.example/acme.png --tier gold
  summit status mentorship 42 approved          # Update an application status
  summit upload speaker ./ada.jpg               # Upload a speaker photo
  summit config                                 # Show the effective configuration`,
			bold("summit"),
			bold("EXAMPLES:")),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.load(cmd.ErrOrStderr())
		},
	}
	root.PersistentFlags().StringVarP(&c.configFile, "config", "c", "", "Path to summit.yaml")

	root.AddCommand(
		c.serveCommand(),
		c.sponsorsCommand(),
		c.speakersCommand(),
		c.applicationsCommand(),
		c.statusCommand(),
		c.uploadCommand(),
		c.configCommand(),
	)
	return root
}

func (c *cli) load(logOut io.Writer) error {
	var opts []config.Option
	if c.configFile != "" {
		opts = append(opts, config.WithConfigFile(c.configFile))
	}
	cfg, meta, err := config.Load(opts...)
	if err != nil {
		return err
	}
	c.cfg, c.meta = cfg, meta
	bootstrap.ConfigureLogging(cfg.Log, logOut)
	return nil
}

// withServices opens the backend for a one-off command.
func (c *cli) withServices(ctx context.Context, fn func(*bootstrap.Services) error) error {
	services, err := bootstrap.OpenServices(ctx, c.cfg, nil, logging.NewComponentLogger("CLI"))
	if err != nil {
		return err
	}
	defer services.Close()
	return fn(services)
}

func (c *cli) serveCommand() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the site",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				c.cfg.Server.Addr = addr
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s on %s (backend: %s)\n",
				green("Serving"), bold(c.cfg.Site.Name), cyan(c.cfg.Server.Addr), c.cfg.Backend.Driver)
			return bootstrap.RunServer(cmd.Context(), c.cfg)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")
	return cmd
}

func (c *cli) configCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration with credentials masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			data, err := config.DumpYAML(c.cfg)
			if err != nil {
				return err
			}
			if file := c.meta.ConfigFile(); file != "" {
				fmt.Fprintf(out, "%s %s\n", gray("# file:"), file)
			} else {
				fmt.Fprintln(out, gray("# file: none (defaults and environment)"))
			}
			for _, key := range []string{"backend.driver", "backend.url", "admin.token"} {
				fmt.Fprintf(out, "%s %s=%s\n", gray("# source:"), key, c.meta.Source(key))
			}
			_, err = out.Write(data)
			return err
		},
	}
}
