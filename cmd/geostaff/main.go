package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"geostaff-client/internal/api"
	"geostaff-client/internal/capture"
	"geostaff-client/internal/config"
	"geostaff-client/internal/handler"
	"geostaff-client/internal/i18n"
	"geostaff-client/internal/session"
	"geostaff-client/internal/store"
)

// Version information (set via ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	log.SetFlags(log.LstdFlags)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := i18n.Init(cfg.Locale); err != nil {
		log.Fatalf("Failed to load translations: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := &cli{
		ctx: i18n.WithLocale(ctx, cfg.Locale),
		cfg: cfg,
		in:  bufio.NewReader(os.Stdin),
	}
	defer c.close()

	registry := NewCommandRegistry(VersionInfo{Version: version, Commit: commit, Date: date})
	registerCommands(registry, c)

	if err := registry.Execute(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, "Error:", errorText(c.ctx, err))
		if cfg.Debug {
			log.Printf("ERROR %v", err)
		}
		c.close()
		os.Exit(1)
	}
}

func errorText(ctx context.Context, err error) string {
	var ue *usageError
	if errors.As(err, &ue) {
		return ue.Error()
	}
	return handler.Message(ctx, err)
}

// cli wires the views on first use, after a command's flags have had a
// chance to adjust the configuration.
type cli struct {
	ctx context.Context
	cfg *config.Config
	in  *bufio.Reader
	a   *handler.App
}

func (c *cli) app() (*handler.App, error) {
	if c.a != nil {
		return c.a, nil
	}
	loc, err := c.cfg.Location()
	if err != nil {
		return nil, err
	}
	kv, err := store.NewFileStore(c.cfg.StateDir)
	if err != nil {
		return nil, err
	}
	sess := session.New(kv)
	if err := sess.Init(); err != nil {
		return nil, fmt.Errorf("restore session: %w", err)
	}
	client := api.NewClient(c.cfg.APIURL, sess,
		api.WithTimeout(c.cfg.RequestTimeout),
		api.WithDebug(c.cfg.Debug),
	)

	c.a = handler.NewApp(handler.Deps{
		Out:     os.Stdout,
		Client:  client,
		Session: sess,
		Store:   kv,
		Nav:     handler.NewRouter(nil),
		Locator: capture.WithTimeout(capture.StaticLocator{Fix: c.cfg.Fix()}, c.cfg.LocateTimeout),
		Camera:  capture.Exclusive(capture.FileCamera{Path: c.cfg.PhotoPath}),
		Capture: capture.Config{
			RetryDelay:   c.cfg.RetryDelay,
			RefetchDelay: c.cfg.RefetchDelay,
			Photo:        capture.PhotoOptions{MaxWidth: c.cfg.PhotoMaxWidth, Quality: c.cfg.PhotoQuality},
		},
		Location:   loc,
		Locale:     c.cfg.Locale,
		ExportDir:  c.cfg.ExportDir,
		ShowDevOTP: c.cfg.IsDevelopment(),
		Color:      colorEnabled(),
	})
	return c.a, nil
}

func (c *cli) close() {
	if c.a != nil {
		c.a.Close()
		c.a = nil
	}
}

func colorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	fi, err := os.Stdout.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}

func registerCommands(r *CommandRegistry, c *cli) {
	for _, cmd := range []*Command{
		{
			Name:        "login",
			Description: "Sign in with a one-time password",
			Usage:       "geostaff login <phone> [--otp <code>]",
			Examples: []string{
				"geostaff login +919876543210",
				"geostaff login 9876543210 --otp 123456",
			},
		},
		{
			Name:        "resend-otp",
			Description: "Send the one-time password again",
			Usage:       "geostaff resend-otp <phone>",
		},
		{
			Name:        "logout",
			Description: "Sign out and forget the stored session",
			Usage:       "geostaff logout",
		},
		{
			Name:        "whoami",
			Description: "Show the signed-in profile",
			Usage:       "geostaff whoami [--remote]",
		},
		{
			Name:        "refresh",
			Description: "Renew the session token",
			Usage:       "geostaff refresh",
		},
		{
			Name:        "dashboard",
			Description: "Show today's overview",
			Usage:       "geostaff dashboard",
		},
		{
			Name:        "status",
			Description: "Show today's attendance",
			Usage:       "geostaff status",
		},
		{
			Name:        "check-in",
			Description: "Check in with location and photo",
			Usage:       "geostaff check-in [--work-status office|site|remote] [--notes <text>] [--lat <deg> --lng <deg>] [--photo <file>]",
			Examples: []string{
				"geostaff check-in --photo selfie.jpg",
				"geostaff check-in --work-status site --lat 28.6139 --lng 77.2090 --photo selfie.jpg",
			},
		},
		{
			Name:        "check-out",
			Description: "Check out with location and photo",
			Usage:       "geostaff check-out [--notes <text>] [--lat <deg> --lng <deg>] [--photo <file>]",
		},
		{
			Name:        "history",
			Description: "List attendance records, newest first",
			Usage:       "geostaff history [--page N] [--size N]",
		},
		{
			Name:        "recent",
			Description: "List the latest attendance records",
			Usage:       "geostaff recent [--limit N]",
		},
		{
			Name:        "calendar",
			Description: "Show a month of attendance",
			Usage:       "geostaff calendar [--year YYYY] [--month M] [--type check-in|check-out]",
		},
		{
			Name:        "summary",
			Description: "Show monthly attendance totals",
			Usage:       "geostaff summary [--year YYYY] [--month M]",
		},
		{
			Name:        "export",
			Description: "Save attendance to a file",
			Usage:       "geostaff export [--from YYYY-MM-DD] [--to YYYY-MM-DD] [--format csv|xlsx] [--dir <dir>]",
			Examples: []string{
				"geostaff export --from 2024-03-01 --to 2024-03-31",
				"geostaff export --format xlsx --dir ~/Documents",
			},
		},
		{
			Name:        "leave",
			Description: "Apply for, list and cancel leave",
			Usage:       "geostaff leave <apply|balance|history|cancel|pending> [flags]",
			Examples: []string{
				"geostaff leave apply --type casual --from 2024-03-04 --to 2024-03-05 --reason \"family function\"",
				"geostaff leave history --status pending",
				"geostaff leave cancel 65f1c2d3e4a5b6c7d8e9f0a1",
			},
		},
		{
			Name:        "health",
			Description: "Check that the API and its database are reachable",
			Usage:       "geostaff health",
		},
	} {
		cmd.Run = c.runner(cmd)
		r.Register(cmd)
	}
}

func (c *cli) runner(cmd *Command) func([]string) error {
	switch cmd.Name {
	case "login":
		return func(args []string) error { return c.login(cmd, args) }
	case "resend-otp":
		return func(args []string) error { return c.resendOTP(cmd, args) }
	case "logout":
		return func(args []string) error { return c.logout(cmd, args) }
	case "whoami":
		return func(args []string) error { return c.whoami(cmd, args) }
	case "refresh":
		return func(args []string) error { return c.refresh(cmd, args) }
	case "dashboard":
		return func(args []string) error { return c.dashboard(cmd, args) }
	case "status":
		return func(args []string) error { return c.status(cmd, args) }
	case "check-in":
		return func(args []string) error { return c.capture(cmd, args, true) }
	case "check-out":
		return func(args []string) error { return c.capture(cmd, args, false) }
	case "history":
		return func(args []string) error { return c.history(cmd, args) }
	case "recent":
		return func(args []string) error { return c.recent(cmd, args) }
	case "calendar":
		return func(args []string) error { return c.calendar(cmd, args) }
	case "summary":
		return func(args []string) error { return c.summary(cmd, args) }
	case "export":
		return func(args []string) error { return c.export(cmd, args) }
	case "leave":
		return func(args []string) error { return c.leave(cmd, args) }
	case "health":
		return func(args []string) error { return c.health(cmd, args) }
	}
	return func([]string) error { return usagef("command %s is not wired", cmd.Name) }
}
