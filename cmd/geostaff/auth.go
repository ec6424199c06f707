package main

import (
	"fmt"
	"os"
	"strings"

	"geostaff-client/internal/handler"
)

func (c *cli) login(cmd *Command, args []string) error {
	fs := cmd.NewFlagSet()
	otp := fs.String("otp", "", "one-time password; prompted for when omitted")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		cmd.PrintUsage()
		return usagef("login needs exactly one phone number")
	}
	phone := fs.Arg(0)

	app, err := c.app()
	if err != nil {
		return err
	}
	if *otp == "" {
		if _, err := app.Auth.RequestOTP(c.ctx, handler.PhoneForm{Phone: phone}); err != nil {
			return err
		}
		if *otp, err = c.prompt("OTP: "); err != nil {
			return err
		}
	}
	_, err = app.Auth.Verify(c.ctx, handler.OTPForm{Phone: phone, OTP: *otp})
	return err
}

func (c *cli) prompt(label string) (string, error) {
	fmt.Fprint(os.Stderr, label)
	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func (c *cli) resendOTP(cmd *Command, args []string) error {
	fs := cmd.NewFlagSet()
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		cmd.PrintUsage()
		return usagef("resend-otp needs exactly one phone number")
	}
	app, err := c.app()
	if err != nil {
		return err
	}
	_, err = app.Auth.ResendOTP(c.ctx, handler.PhoneForm{Phone: fs.Arg(0)})
	return err
}

func (c *cli) logout(cmd *Command, args []string) error {
	if err := cmd.NewFlagSet().Parse(args); err != nil {
		return err
	}
	app, err := c.app()
	if err != nil {
		return err
	}
	return app.Auth.Logout(c.ctx)
}

func (c *cli) whoami(cmd *Command, args []string) error {
	fs := cmd.NewFlagSet()
	remote := fs.Bool("remote", false, "fetch the profile from the server")
	if err := fs.Parse(args); err != nil {
		return err
	}
	app, err := c.app()
	if err != nil {
		return err
	}
	return app.Auth.WhoAmI(c.ctx, *remote)
}

func (c *cli) refresh(cmd *Command, args []string) error {
	if err := cmd.NewFlagSet().Parse(args); err != nil {
		return err
	}
	app, err := c.app()
	if err != nil {
		return err
	}
	return app.Auth.Refresh(c.ctx)
}

func (c *cli) dashboard(cmd *Command, args []string) error {
	if err := cmd.NewFlagSet().Parse(args); err != nil {
		return err
	}
	app, err := c.app()
	if err != nil {
		return err
	}
	return app.Dashboard.Show(c.ctx)
}

func (c *cli) health(cmd *Command, args []string) error {
	if err := cmd.NewFlagSet().Parse(args); err != nil {
		return err
	}
	app, err := c.app()
	if err != nil {
		return err
	}
	return app.Health.Check(c.ctx)
}
