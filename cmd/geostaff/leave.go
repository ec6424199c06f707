package main

import (
	"fmt"
	"os"

	"geostaff-client/internal/handler"
	"geostaff-client/internal/model"
)

func (c *cli) leave(cmd *Command, args []string) error {
	if len(args) < 1 {
		printLeaveUsage()
		return usagef("leave needs a subcommand")
	}
	sub, rest := args[0], args[1:]
	switch sub {
	case "apply":
		return c.leaveApply(rest)
	case "balance":
		return c.leaveBalance(rest)
	case "history":
		return c.leaveHistory(rest)
	case "cancel":
		return c.leaveCancel(rest)
	case "pending":
		return c.leavePending(rest)
	case "help", "-h", "--help":
		printLeaveUsage()
		return nil
	}
	printLeaveUsage()
	return usagef("unknown leave subcommand: %s", sub)
}

func printLeaveUsage() {
	fmt.Fprintln(os.Stderr, "Apply for, list and cancel leave")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "USAGE:")
	fmt.Fprintln(os.Stderr, "    geostaff leave <subcommand> [flags]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "SUBCOMMANDS:")
	fmt.Fprintln(os.Stderr, "    apply      Request leave for a date range")
	fmt.Fprintln(os.Stderr, "    balance    Show remaining leave")
	fmt.Fprintln(os.Stderr, "    history    List leave requests")
	fmt.Fprintln(os.Stderr, "    cancel     Cancel a pending or approved request")
	fmt.Fprintln(os.Stderr, "    pending    Count pending requests")
}

func (c *cli) leaveApply(args []string) error {
	sub := &Command{Name: "leave apply", Description: "Request leave for a date range",
		Usage: "geostaff leave apply --type casual|sick|earned --from YYYY-MM-DD --to YYYY-MM-DD --reason <text> [--dry-run]"}
	fs := sub.NewFlagSet()
	kind := fs.String("type", "", "casual, sick or earned")
	from := fs.String("from", "", "first day, YYYY-MM-DD")
	to := fs.String("to", "", "last day, YYYY-MM-DD; defaults to --from")
	reason := fs.String("reason", "", "reason, 3 to 500 characters")
	dryRun := fs.Bool("dry-run", false, "only show how many working days would be requested")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *to == "" {
		*to = *from
	}
	form := handler.LeaveForm{LeaveType: model.LeaveType(*kind), StartDate: *from, EndDate: *to, Reason: *reason}

	app, err := c.app()
	if err != nil {
		return err
	}
	if *dryRun {
		days, err := app.Leave.Preview(c.ctx, &form)
		if err != nil {
			return err
		}
		fmt.Println(days)
		return nil
	}
	_, err = app.Leave.Apply(c.ctx, form)
	return err
}

func (c *cli) leaveBalance(args []string) error {
	sub := &Command{Name: "leave balance", Description: "Show remaining leave", Usage: "geostaff leave balance [--year YYYY]"}
	fs := sub.NewFlagSet()
	year := fs.Int("year", 0, "year; defaults to the current one")
	if err := fs.Parse(args); err != nil {
		return err
	}
	app, err := c.app()
	if err != nil {
		return err
	}
	_, err = app.Leave.Balance(c.ctx, *year)
	return err
}

func (c *cli) leaveHistory(args []string) error {
	sub := &Command{Name: "leave history", Description: "List leave requests",
		Usage: "geostaff leave history [--status pending|approved|rejected|cancelled] [--page N] [--size N]"}
	fs := sub.NewFlagSet()
	status := fs.String("status", "", "only requests with this status")
	page := fs.Int("page", 1, "page number")
	size := fs.Int("size", 20, "requests per page")
	if err := fs.Parse(args); err != nil {
		return err
	}
	app, err := c.app()
	if err != nil {
		return err
	}
	_, err = app.Leave.History(c.ctx, *page, *size, model.LeaveStatus(*status))
	return err
}

func (c *cli) leaveCancel(args []string) error {
	sub := &Command{Name: "leave cancel", Description: "Cancel a pending or approved request", Usage: "geostaff leave cancel <request-id>"}
	fs := sub.NewFlagSet()
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		sub.PrintUsage()
		return usagef("leave cancel needs exactly one request id")
	}
	app, err := c.app()
	if err != nil {
		return err
	}
	_, err = app.Leave.Cancel(c.ctx, fs.Arg(0))
	return err
}

func (c *cli) leavePending(args []string) error {
	sub := &Command{Name: "leave pending", Description: "Count pending requests", Usage: "geostaff leave pending"}
	if err := sub.NewFlagSet().Parse(args); err != nil {
		return err
	}
	app, err := c.app()
	if err != nil {
		return err
	}
	_, err = app.Leave.PendingCount(c.ctx)
	return err
}
