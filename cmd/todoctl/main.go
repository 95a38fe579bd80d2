// Command todoctl runs one-off maintenance tasks against a todo deployment.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/odyssey-todo/internal/app"
	"github.com/odyssey-erp/odyssey-todo/jobs"
)

const usage = `usage: todoctl <command>

commands:
  migrate                        apply store migrations for STORE_DRIVER
  jobs trigger sessions-purge    enqueue a purge of expired session audit rows
  jobs stats                     print default queue depth
`

var errUsage = errors.New("invalid usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "todoctl:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	cfg, err := app.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	switch args[0] {
	case "migrate":
		return migrate(ctx, cfg, out)
	case "jobs":
		return runJobs(ctx, cfg, args[1:], out)
	default:
		return errUsage
	}
}

func migrate(ctx context.Context, cfg *app.Config, out io.Writer) error {
	stores, err := app.OpenStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer stores.Close()
	fmt.Fprintf(out, "%s store migrated\n", cfg.StoreDriver)
	return nil
}

func runJobs(ctx context.Context, cfg *app.Config, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
	switch args[0] {
	case "trigger":
		fs := flag.NewFlagSet("trigger", flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		grace := fs.Duration("grace", cfg.SessionPurgeGrace, "only purge rows expired longer ago than this")
		if len(args) < 2 || args[1] != "sessions-purge" {
			return errUsage
		}
		if err := fs.Parse(args[2:]); err != nil {
			return errUsage
		}
		client := jobs.NewClient(redisOpts)
		defer client.Close()
		info, err := client.EnqueueSessionsPurge(ctx, *grace)
		if err != nil {
			return fmt.Errorf("enqueue: %w", err)
		}
		fmt.Fprintf(out, "enqueued %s id=%s queue=%s\n", info.Type, info.ID, info.Queue)
		return nil
	case "stats":
		inspector := asynq.NewInspector(redisOpts)
		defer inspector.Close()
		info, err := inspector.GetQueueInfo(jobs.QueueDefault)
		if errors.Is(err, asynq.ErrQueueNotFound) {
			fmt.Fprintf(out, "queue=%s pending=0 active=0 scheduled=0 retry=0\n", jobs.QueueDefault)
			return nil
		}
		if err != nil {
			return fmt.Errorf("inspect queue: %w", err)
		}
		fmt.Fprintf(out, "queue=%s pending=%d active=%d scheduled=%d retry=%d\n", info.Queue, info.Pending, info.Active, info.Scheduled, info.Retry)
		return nil
	default:
		return errUsage
	}
}
