package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
	"github.com/yukikurage/soundshare-api/internal/cascade"
	"github.com/yukikurage/soundshare-api/internal/config"
	"github.com/yukikurage/soundshare-api/internal/database"
	"github.com/yukikurage/soundshare-api/internal/logging"
	"github.com/yukikurage/soundshare-api/internal/models"
	"github.com/yukikurage/soundshare-api/internal/notify"
	"github.com/yukikurage/soundshare-api/internal/repository"
	"github.com/yukikurage/soundshare-api/internal/services"
	"github.com/yukikurage/soundshare-api/internal/spam"
)

// operator holds what the subcommands share once setup has run.
type operator struct {
	out        io.Writer
	log        *logrus.Logger
	moderation *services.ModerationService
	closers    []func() error
}

func newApp(out io.Writer) *cli.Command {
	op := &operator{out: out}

	return &cli.Command{
		Name:  "moderate",
		Usage: "Operator tools for account removal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a TOML configuration file",
				Sources: cli.EnvVars("CONFIG_FILE"),
			},
		},
		Before: op.setup,
		After:  op.teardown,
		Commands: []*cli.Command{
			{
				Name:   "migrate",
				Usage:  "Create or update the schema",
				Action: op.migrate,
			},
			{
				Name:  "cascade",
				Usage: "Remove an account with everything it owns, or finish an interrupted removal",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "login", Aliases: []string{"l"}, Usage: "Login of the account", Required: true},
				},
				Action: op.runCascade,
			},
			{
				Name:  "show",
				Usage: "Inspect an account",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "login", Aliases: []string{"l"}, Usage: "Login of the account", Required: true},
					&cli.BoolFlag{Name: "with-deleted", Usage: "Include removed accounts"},
				},
				Action: op.show,
			},
		},
	}
}

func (op *operator) setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	cfg, err := config.LoadWithFile(cmd.String("config"))
	if err != nil {
		return ctx, err
	}

	op.log = logging.New(cfg.LogLevel, cfg.LogFormat)
	if err := database.Connect(cfg, op.log); err != nil {
		return ctx, err
	}
	db := database.GetDB()

	var locker cascade.Locker = cascade.NewLocalLocker()
	if cfg.Cascade.LockBackend == "redis" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr()})
		op.closers = append(op.closers, client.Close)
		locker = cascade.NewRedisLocker(client, cfg.Cascade.LockTTL)
	}

	resolver := cascade.NewResolver(db,
		cascade.WithLocker(locker),
		cascade.WithLogger(op.log),
		cascade.WithVerify(cfg.Cascade.Verify),
	)
	runner := services.NewCascadeRunner(resolver, cfg.Cascade.RetryAttempts, cfg.Cascade.RetryDelay, op.log)

	// Operators decide themselves; no oracle and no queue.
	guard := spam.NewGuard(spam.Static{}, true, op.log)
	op.moderation = services.NewModerationService(repository.NewUserRepository(db), runner, guard, notify.Noop{}, false, op.log)

	return ctx, nil
}

func (op *operator) teardown(context.Context, *cli.Command) error {
	var errs []error
	for _, closeFn := range op.closers {
		errs = append(errs, closeFn())
	}
	return errors.Join(errs...)
}

func (op *operator) migrate(_ context.Context, _ *cli.Command) error {
	if err := database.Migrate(op.log); err != nil {
		return err
	}
	fmt.Fprintln(op.out, "schema up to date")
	return nil
}

func (op *operator) runCascade(ctx context.Context, cmd *cli.Command) error {
	login := cmd.String("login")

	report, err := op.moderation.CascadeByLogin(ctx, login)
	if err != nil {
		return fmt.Errorf("cascade %s: %w", login, err)
	}

	if report.Noop() {
		fmt.Fprintf(op.out, "%s: nothing left to remove (run %s)\n", login, report.RunID)
		return nil
	}

	fmt.Fprintf(op.out, "%s: removed %d rows (run %s)\n", login, report.Total(), report.RunID)
	for _, kind := range models.AllKinds {
		if n := report.Count(kind); n > 0 {
			fmt.Fprintf(op.out, "  %-8s %d\n", kind, n)
		}
	}
	return nil
}

func (op *operator) show(_ context.Context, cmd *cli.Command) error {
	user, err := op.moderation.InspectUser(cmd.String("login"), cmd.Bool("with-deleted"))
	if err != nil {
		return err
	}

	status := "live"
	if user.IsDeleted() {
		status = "deleted " + user.DeletedAt.Time.Format("2006-01-02 15:04:05")
	}

	fmt.Fprintf(op.out, "id:        %d\n", user.ID)
	fmt.Fprintf(op.out, "login:     %s\n", user.Login)
	fmt.Fprintf(op.out, "email:     %s\n", user.Email)
	fmt.Fprintf(op.out, "status:    %s\n", status)
	fmt.Fprintf(op.out, "spam:      %t\n", user.IsSpam)
	fmt.Fprintf(op.out, "moderator: %t\n", user.IsModerator)
	fmt.Fprintf(op.out, "assets:    %d\n", user.AssetsCount)
	fmt.Fprintf(op.out, "listens:   %d\n", user.ListensCount)
	return nil
}
