package main

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/spf13/cobra"
	"github.com/wolfman30/leadhunter/internal/contact"
	"github.com/wolfman30/leadhunter/internal/demo"
	"github.com/wolfman30/leadhunter/internal/export"
	"github.com/wolfman30/leadhunter/internal/history"
	"github.com/wolfman30/leadhunter/internal/leads"
	"github.com/wolfman30/leadhunter/internal/profile"
	"github.com/wolfman30/leadhunter/internal/search"
	"github.com/wolfman30/leadhunter/pkg/logging"
)

func newLoginCmd(opts *rootOptions) *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store the bearer token used for authenticated calls",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			if err := a.session.Login(cmd.Context(), token); err != nil {
				return err
			}
			fmt.Fprintln(opts.stdout, "Logged in.")
			if exp, ok := a.session.ExpiresAt(); ok {
				fmt.Fprintf(opts.stdout, "Token expires at %s.\n", exp.Local().Format(time.RFC1123))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "bearer token issued by the backend")
	_ = cmd.MarkFlagRequired("token")
	return cmd
}

func newLogoutCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			if err := a.session.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(opts.stdout, "Logged out.")
			return nil
		},
	}
}

func newStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the backend URL and session state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			fmt.Fprintf(opts.stdout, "API:           %s\n", a.cfg.APIBaseURL)
			fmt.Fprintf(opts.stdout, "Session store: %s\n", a.cfg.SessionStore)
			if !a.session.Authenticated() {
				fmt.Fprintln(opts.stdout, "Authenticated: no")
				return nil
			}
			fmt.Fprintln(opts.stdout, "Authenticated: yes")
			if exp, ok := a.session.ExpiresAt(); ok {
				fmt.Fprintf(opts.stdout, "Expires:       %s\n", exp.Local().Format(time.RFC1123))
			}
			return nil
		},
	}
}

func newSearchCmd(opts *rootOptions) *cobra.Command {
	cfg := leads.NewSearchConfig("", "")
	var exportCSV bool
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Generate a list of qualified leads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			if err := a.requireLogin(); err != nil {
				return err
			}

			orch := search.New(search.Config{
				Caller:   a.client,
				Notifier: a.notifier,
				Exporter: a.exporter,
				Bounds:   a.bounds(),
				Logger:   a.logger,
				Metrics:  a.metrics,
			})
			defer orch.Close()

			ch, err := orch.Submit(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			fmt.Fprintf(opts.stderr, "Buscando leads de %q em %q...\n", cfg.Niche, cfg.Region)

			var view search.View
			select {
			case v, ok := <-ch:
				if !ok {
					return errReported
				}
				view = v
			case <-cmd.Context().Done():
				return cmd.Context().Err()
			}
			if view.Err != nil {
				return errReported
			}
			if err := renderLeads(opts.stdout, opts.output, view.Leads); err != nil {
				return err
			}

			if exportCSV {
				res, err := orch.ExportCSV(cmd.Context())
				switch {
				case errors.Is(err, export.ErrNothingToExport):
				case err != nil:
					return errReported
				default:
					fmt.Fprintf(opts.stdout, "Exported %d leads to %s\n", res.Count, res.Location)
				}
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&cfg.Niche, "niche", "", "business niche, e.g. \"Energia solar\"")
	f.StringVar(&cfg.Region, "region", "", "target region, e.g. \"Brasília\"")
	f.IntVar(&cfg.Quantity, "quantity", leads.DefaultQuantity, "number of leads to generate")
	f.StringVar(&cfg.Criteria, "criteria", leads.DefaultCriteria, "low digital presence criteria")
	f.StringVar(&cfg.IncludeKeywords, "include", "", "keywords the businesses should match")
	f.StringVar(&cfg.ExcludeKeywords, "exclude", "", "keywords to exclude")
	f.BoolVar(&exportCSV, "export", false, "also export the results as CSV")
	return cmd
}

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	var asCSV, asPDF bool
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List previously generated leads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			if err := a.requireLogin(); err != nil {
				return err
			}
			loader := history.New(history.Config{
				Caller:   a.client,
				Tokens:   a.session,
				Notifier: a.notifier,
				Exporter: a.exporter,
				Logger:   a.logger,
				Metrics:  a.metrics,
			})
			defer loader.Close()

			view, err := loader.Load(cmd.Context())
			if err != nil {
				return errReported
			}
			if err := renderLeads(opts.stdout, opts.output, view.Leads); err != nil {
				return err
			}

			exports := []struct {
				enabled bool
				run     func() (export.Result, error)
			}{
				{asCSV, func() (export.Result, error) { return loader.ExportCSV(cmd.Context()) }},
				{asPDF, func() (export.Result, error) { return loader.ExportPDF(cmd.Context()) }},
			}
			failed := false
			for _, e := range exports {
				if !e.enabled {
					continue
				}
				res, err := e.run()
				switch {
				case errors.Is(err, export.ErrNothingToExport):
				case err != nil:
					failed = true
				default:
					fmt.Fprintf(opts.stdout, "Exported %d leads to %s\n", res.Count, res.Location)
				}
			}
			if failed {
				return errReported
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asCSV, "csv", false, "export the history as leads_historico.csv")
	cmd.Flags().BoolVar(&asPDF, "pdf", false, "export the history as leads_historico.pdf")
	return cmd
}

func newProfileCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or update the company profile",
	}

	service := func(cmd *cobra.Command) (*profile.Service, error) {
		a, err := opts.open(cmd)
		if err != nil {
			return nil, err
		}
		if err := a.requireLogin(); err != nil {
			return nil, err
		}
		return profile.NewService(a.client, a.session, a.notifier, a.logger), nil
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the company profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := service(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()
			form, err := svc.Load(cmd.Context())
			if err != nil {
				return errReported
			}
			return renderProfile(opts.stdout, opts.output, form)
		},
	}

	var name, services string
	set := &cobra.Command{
		Use:   "set",
		Short: "Update the company profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := service(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()
			form, err := svc.Load(cmd.Context())
			if err != nil {
				return errReported
			}
			if cmd.Flags().Changed("name") {
				form.CompanyName = name
			}
			if cmd.Flags().Changed("services") {
				form.CompanyServices = services
			}
			if err := svc.Save(cmd.Context(), form); err != nil {
				return errReported
			}
			return nil
		},
	}
	set.Flags().StringVar(&name, "name", "", "company name")
	set.Flags().StringVar(&services, "services", "", "services offered by the company")

	cmd.AddCommand(show, set)
	return cmd
}

func newContactCmd(opts *rootOptions) *cobra.Command {
	var msg contact.Message
	cmd := &cobra.Command{
		Use:   "contact",
		Short: "Send a message to the LeadHunterAI team",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			err = contact.NewService(a.client, a.notifier, a.logger).Send(cmd.Context(), msg)
			if contact.IsValidation(err) {
				return err
			}
			if err != nil {
				return errReported
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&msg.Name, "name", "", "your name")
	f.StringVar(&msg.Email, "email", "", "your email address")
	f.StringVar(&msg.Phone, "phone", "", "phone number (optional)")
	f.StringVar(&msg.Message, "message", "", "message, at least 10 characters")
	return cmd
}

func newDemoCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run or talk to the in-memory demo backend",
	}

	var addr string
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Serve the demo backend until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := opts.cfg
			logger := logging.NewWithOptions(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, Writer: opts.stderr})
			if addr == "" {
				addr = cfg.DemoAddr
			}
			srv, err := demo.NewServer(demo.Config{
				Secret:         cfg.DemoJWTSecret,
				AllowedOrigins: cfg.DemoAllowedOrigins,
				Bounds:         leads.Bounds{Min: cfg.QuantityMin, Max: cfg.QuantityMax},
				Logger:         logger,
				ContactRate:    cfg.DemoContactRate,
				ContactBurst:   cfg.DemoContactBurst,
			})
			if err != nil {
				return err
			}
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("listen %s: %w", addr, err)
			}
			fmt.Fprintf(opts.stdout, "Demo backend on http://%s\n", ln.Addr())
			return srv.Serve(cmd.Context(), ln)
		},
	}
	serve.Flags().StringVar(&addr, "addr", "", "listen address (default DEMO_ADDR)")

	var (
		subject string
		ttl     time.Duration
		login   bool
	)
	token := &cobra.Command{
		Use:   "token",
		Short: "Mint a token accepted by the demo backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tok, err := demo.IssueToken(opts.cfg.DemoJWTSecret, subject, ttl)
			if err != nil {
				return err
			}
			if login {
				a, err := opts.open(cmd)
				if err != nil {
					return err
				}
				if err := a.session.Login(cmd.Context(), tok); err != nil {
					return err
				}
			}
			fmt.Fprintln(opts.stdout, tok)
			return nil
		},
	}
	token.Flags().StringVar(&subject, "subject", "demo", "token subject")
	token.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	token.Flags().BoolVar(&login, "login", false, "also store the token as the current session")

	cmd.AddCommand(serve, token)
	return cmd
}
