// Copyright (c) 2026 Domara. All rights reserved.
// Author: platform@domara.io

// Command domarctl is an operator CLI for the Domara property-management
// API. It drives the SDK end to end: authentication, permission checks, and
// the staff, unit, and invoice listings.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration (optional YAML profile, then environment).
//  3. Open the keystore selected by configuration.
//  4. Wire the session manager and restore any persisted session.
//  5. Dispatch the subcommand.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/domara/domara-go/internal/event"
	"github.com/domara/domara-go/internal/keystore"
	"github.com/domara/domara-go/internal/permission"
	"github.com/domara/domara-go/internal/platform/config"
	"github.com/domara/domara-go/internal/platform/constants"
	"github.com/domara/domara-go/internal/platform/i18n"
	redisstore "github.com/domara/domara-go/internal/platform/redis"
	"github.com/domara/domara-go/internal/resource/billing"
	"github.com/domara/domara-go/internal/resource/property"
	"github.com/domara/domara-go/internal/resource/staff"
	"github.com/domara/domara-go/internal/session"
	"github.com/domara/domara-go/internal/transport"
	"github.com/domara/domara-go/pkg/pagination"
	"github.com/domara/domara-go/pkg/query"
)

const usage = `domarctl — Domara operator CLI

Usage:
  domarctl [--profile FILE] <command> [flags]

Commands:
  login       Authenticate with email and password
  logout      Terminate the current session
  whoami      Print the current user
  can         Check permissions (--all / --any)
  staff       staff list [--status] [--search] [--page] [--limit]
  units       units list [--status] [--search] [--page] [--limit]
  invoices    invoices list [--status] [--from] [--to] [--page] [--limit]
`

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	global := pflag.NewFlagSet("domarctl", pflag.ContinueOnError)
	global.SetOutput(os.Stderr)
	global.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	profile := global.String("profile", "", "path to a YAML configuration profile")
	debug := global.Bool("debug", false, "enable debug logging")
	global.SetInterspersed(false)

	if err := global.Parse(args); err != nil {
		return 2
	}
	rest := global.Args()
	if len(rest) == 0 {
		global.Usage()
		return 2
	}

	cfg, err := config.LoadWithProfile(*profile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "configuration error:", err)
		return 1
	}

	level := slog.LevelWarn
	if *debug || cfg.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})).With(slog.String("app", "domarctl"))
	slog.SetDefault(logger)

	context, cancel := stdContext()
	defer cancel()

	app, err := wire(context, cfg, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "startup error:", err)
		return 1
	}
	defer app.close()

	return app.dispatch(context, rest[0], rest[1:])
}

func stdContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), constants.DefaultRequestTimeout)
}

// # Wiring

// app holds the wired SDK components for one invocation.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	manager   *session.Manager
	checker   *permission.Checker
	guard     *permission.Guard
	localizer *i18n.Localizer
	cleanup   []func()
}

func wire(context context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	application := &app{cfg: cfg, logger: logger}

	store, err := application.openKeystore(context)
	if err != nil {
		return nil, err
	}

	bus := event.NewBroadcaster()
	cache := permission.NewCache(store, bus, logger)

	manager, err := session.NewManager(cfg.BaseURL, store, cache, logger, transport.Options{
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})
	if err != nil {
		return nil, err
	}

	checker := permission.NewChecker(cache, bus)
	application.cleanup = append(application.cleanup, checker.Close)

	application.manager = manager
	application.checker = checker
	application.guard = permission.NewGuard(checker, manager.Status, manager.RoleName)
	application.localizer = i18n.New(cfg.Language, store, logger)

	// Pick up a persisted session before any command runs.
	restoreContext, cancel := stdContext()
	defer cancel()
	manager.Restore(restoreContext)

	return application, nil
}

// openKeystore selects the backing store from configuration: sealed file
// when a passphrase is set, plain file when only a path is set, Redis when a
// URL is set, and in-memory otherwise.
func (application *app) openKeystore(context context.Context) (keystore.Store, error) {
	cfg := application.cfg

	switch {
	case cfg.KeystorePath != "" && cfg.KeystorePassphrase != "":
		return keystore.NewSealed(cfg.KeystorePath, cfg.KeystorePassphrase, application.logger)
	case cfg.KeystorePath != "":
		return keystore.NewFile(cfg.KeystorePath, application.logger)
	case cfg.RedisURL != "":
		client, err := redisstore.NewClient(context, cfg.RedisURL, application.logger)
		if err != nil {
			return nil, err
		}
		application.cleanup = append(application.cleanup, func() {
			if cerr := client.Close(); cerr != nil {
				application.logger.Warn("redis_close_failed", slog.Any("error", cerr))
			}
		})
		return keystore.NewRedis(client, "domarctl"), nil
	default:
		application.logger.Warn("keystore_not_configured_using_memory")
		return keystore.NewMemory(), nil
	}
}

func (application *app) close() {
	for _, fn := range application.cleanup {
		fn()
	}
}

// # Dispatch

func (application *app) dispatch(context context.Context, command string, args []string) int {
	switch command {
	case "login":
		return application.cmdLogin(context, args)
	case "logout":
		return application.cmdLogout(context)
	case "whoami":
		return application.cmdWhoami(context)
	case "can":
		return application.cmdCan(context, args)
	case "staff":
		return application.cmdStaff(context, args)
	case "units":
		return application.cmdUnits(context, args)
	case "invoices":
		return application.cmdInvoices(context, args)
	case "help", "--help", "-h":
		fmt.Fprint(os.Stderr, usage)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", command, usage)
		return 2
	}
}

// fail prints a localized message for the error and returns the exit code.
func (application *app) fail(err error) int {
	fmt.Fprintln(os.Stderr, application.localizer.Message(err))
	return 1
}

// # Commands

func (application *app) cmdLogin(context context.Context, args []string) int {
	flags := pflag.NewFlagSet("login", pflag.ContinueOnError)
	email := flags.String("email", "", "account email")
	password := flags.String("password", "", "account password")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	established, err := application.manager.Login(context, *email, *password)
	if err != nil {
		return application.fail(err)
	}

	fmt.Printf("logged in as %s (%s)\n",
		established.User.Email,
		established.User.Role.Name,
	)
	return 0
}

func (application *app) cmdLogout(context context.Context) int {
	application.manager.Logout(context)
	fmt.Println("logged out")
	return 0
}

func (application *app) cmdWhoami(context context.Context) int {
	user := application.manager.User()
	if user == nil {
		if _, err := application.manager.CurrentUser(context); err != nil {
			return application.fail(err)
		}
		user = application.manager.User()
	}
	if user == nil {
		fmt.Println("not logged in")
		return 1
	}

	fmt.Printf("%s %s <%s>\nrole: %s\npermissions: %s\n",
		user.FirstName, user.LastName, user.Email,
		user.Role.Name,
		strings.Join(user.Role.Permissions.IDs(), ", "),
	)
	return 0
}

func (application *app) cmdCan(context context.Context, args []string) int {
	flags := pflag.NewFlagSet("can", pflag.ContinueOnError)
	all := flags.Bool("all", false, "require every listed permission")
	anyOf := flags.Bool("any", false, "require at least one listed permission")
	if err := flags.Parse(args); err != nil {
		return 2
	}
	// Permissions may be given space- or comma-separated.
	required := query.StringSlice(strings.Join(flags.Args(), ","))
	if len(required) == 0 {
		fmt.Fprintln(os.Stderr, "usage: domarctl can [--all|--any] <permission...>")
		return 2
	}

	mode := permission.ModeAll
	if *anyOf && !*all {
		mode = permission.ModeAny
	}

	decision := application.guard.Evaluate(context, required, mode)
	fmt.Println(decision.String())
	if decision != permission.DecisionGranted {
		return 1
	}
	return 0
}

// listFlags parses the pagination and filter flags shared by the listing
// commands. The returned FlagSet has already consumed args.
func listFlags(name string, args []string) (*pflag.FlagSet, pagination.Params, error) {
	flags := pflag.NewFlagSet(name, pflag.ContinueOnError)
	page := flags.Int("page", 1, "page number")
	limit := flags.Int("limit", 20, "page size")
	flags.String("status", "", "status filter")
	flags.String("search", "", "search filter")
	flags.String("from", "", "start date (YYYY-MM-DD)")
	flags.String("to", "", "end date (YYYY-MM-DD)")
	if err := flags.Parse(args); err != nil {
		return nil, pagination.Params{}, err
	}
	return flags, pagination.Params{Page: *page, Limit: *limit}, nil
}

func (application *app) cmdStaff(context context.Context, args []string) int {
	if len(args) == 0 || args[0] != "list" {
		fmt.Fprintln(os.Stderr, "usage: domarctl staff list [flags]")
		return 2
	}
	flags, params, err := listFlags("staff list", args[1:])
	if err != nil {
		return 2
	}
	status, _ := flags.GetString("status")
	search, _ := flags.GetString("search")

	client := staff.NewClient(application.manager.Client(), application.logger)
	members, meta, err := client.List(context, params, staff.Filter{Status: status, Search: search})
	if err != nil {
		return application.fail(err)
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "ID\tNAME\tEMAIL\tPOSITION\tSTATUS")
	for _, member := range members {
		fmt.Fprintf(writer, "%s\t%s %s\t%s\t%s\t%s\n",
			member.ID, member.FirstName, member.LastName,
			member.Email, member.Position, member.Status,
		)
	}
	writer.Flush()
	printMeta(meta)
	return 0
}

func (application *app) cmdUnits(context context.Context, args []string) int {
	if len(args) == 0 || args[0] != "list" {
		fmt.Fprintln(os.Stderr, "usage: domarctl units list [flags]")
		return 2
	}
	flags, params, err := listFlags("units list", args[1:])
	if err != nil {
		return 2
	}
	status, _ := flags.GetString("status")
	search, _ := flags.GetString("search")

	client := property.NewClient(application.manager.Client(), application.logger)
	units, meta, err := client.List(context, params, property.Filter{Status: status, Search: search})
	if err != nil {
		return application.fail(err)
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "ID\tNAME\tADDRESS\tRENT\tSTATUS")
	for _, unit := range units {
		fmt.Fprintf(writer, "%s\t%s\t%s\t%.2f\t%s\n",
			unit.ID, unit.Name, unit.Address,
			float64(unit.MonthlyRent)/100, unit.Status,
		)
	}
	writer.Flush()
	printMeta(meta)
	return 0
}

func (application *app) cmdInvoices(context context.Context, args []string) int {
	if len(args) == 0 || args[0] != "list" {
		fmt.Fprintln(os.Stderr, "usage: domarctl invoices list [flags]")
		return 2
	}
	flags, params, err := listFlags("invoices list", args[1:])
	if err != nil {
		return 2
	}

	filter := billing.Filter{}
	filter.Status, _ = flags.GetString("status")
	if raw, _ := flags.GetString("from"); raw != "" {
		if filter.From, err = time.Parse("2006-01-02", raw); err != nil {
			fmt.Fprintln(os.Stderr, "invalid --from date:", raw)
			return 2
		}
	}
	if raw, _ := flags.GetString("to"); raw != "" {
		if filter.To, err = time.Parse("2006-01-02", raw); err != nil {
			fmt.Fprintln(os.Stderr, "invalid --to date:", raw)
			return 2
		}
	}

	client := billing.NewClient(application.manager.Client(), application.logger)
	invoices, meta, err := client.ListInvoices(context, params, filter)
	if err != nil {
		return application.fail(err)
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "ID\tUNIT\tAMOUNT\tDUE\tSTATUS")
	for _, invoice := range invoices {
		fmt.Fprintf(writer, "%s\t%s\t%.2f %s\t%s\t%s\n",
			invoice.ID, invoice.UnitID,
			float64(invoice.AmountCents)/100, invoice.Currency,
			invoice.DueDate.Format("2006-01-02"), invoice.Status,
		)
	}
	writer.Flush()
	printMeta(meta)
	return 0
}

func printMeta(meta pagination.Meta) {
	fmt.Printf("page %d of %d (%d total)\n", meta.Page, meta.TotalPages, meta.Total)
}
