package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/BradenHooton/acctlock/internal/models"
	svc "github.com/BradenHooton/acctlock/internal/services"
	"github.com/spf13/cobra"
)

type lockService interface {
	SetLock(ctx context.Context, userID string, locked bool, actorID string) (*models.LockResult, error)
	SetLockBulk(ctx context.Context, userIDs []string, locked bool, actorID string) (*models.BulkLockResult, error)
	Status(ctx context.Context, userID string) (*models.LockStatus, error)
}

type activityService interface {
	QueryAll(ctx context.Context, q models.ActivityQuery) (*models.ActivityPage, error)
}

type maintenanceService interface {
	PurgeData(ctx context.Context, actorID string) (*svc.PurgeResult, error)
}

// services is what the commands operate on. Every action is attributed to
// the system actor.
type services struct {
	locks       lockService
	activity    activityService
	maintenance maintenanceService
}

// connectFunc opens the backing stores and returns a release func
type connectFunc func(ctx context.Context) (*services, func(), error)

func newRootCmd(connect connectFunc) *cobra.Command {
	root := &cobra.Command{
		Use:          "acctlockctl",
		Short:        "Manage account locks from the command line",
		SilenceUsage: true,
	}

	root.AddCommand(
		newLockCmd(connect, true),
		newLockCmd(connect, false),
		newStatusCmd(connect),
		newActivityCmd(connect),
		newPurgeCmd(connect),
	)
	return root
}

// withServices runs fn against freshly connected services
func withServices(cmd *cobra.Command, connect connectFunc, fn func(ctx context.Context, s *services) error) error {
	ctx := cmd.Context()
	s, release, err := connect(ctx)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer release()
	return fn(ctx, s)
}

func newLockCmd(connect connectFunc, locked bool) *cobra.Command {
	use, short := "unlock", "Unlock one or more accounts"
	if locked {
		use, short = "lock", "Lock one or more accounts and end their sessions"
	}

	return &cobra.Command{
		Use:   use + " USER_ID [USER_ID...]",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, connect, func(ctx context.Context, s *services) error {
				out := cmd.OutOrStdout()
				if len(args) == 1 {
					result, err := s.locks.SetLock(ctx, args[0], locked, models.SystemActor)
					if err != nil {
						return err
					}
					if !result.Changed {
						fmt.Fprintf(out, "%s already %s\n", result.UserID, stateWord(locked))
						return nil
					}
					fmt.Fprintf(out, "%s %s\n", result.UserID, stateWord(locked))
					return nil
				}

				result, err := s.locks.SetLockBulk(ctx, args, locked, models.SystemActor)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%d of %d accounts %s, %d skipped\n", result.Processed, result.Users, stateWord(locked), result.Skipped)
				return nil
			})
		},
	}
}

func stateWord(locked bool) string {
	if locked {
		return "locked"
	}
	return "unlocked"
}

func newStatusCmd(connect connectFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "status USER_ID",
		Short: "Show the lock state and history of an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, connect, func(ctx context.Context, s *services) error {
				status, err := s.locks.Status(ctx, args[0])
				if err != nil {
					if errors.Is(err, models.ErrNotFound) {
						return fmt.Errorf("user %s not found", args[0])
					}
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(status)
			})
		},
	}
}

func newActivityCmd(connect connectFunc) *cobra.Command {
	var q models.ActivityQuery
	var action string

	cmd := &cobra.Command{
		Use:   "activity",
		Short: "List lock activity across all accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q.Filter.ActionKind = models.ActionKind(action)
			return withServices(cmd, connect, func(ctx context.Context, s *services) error {
				page, err := s.activity.QueryAll(ctx, q)
				if err != nil {
					return err
				}
				return writeActivity(cmd.OutOrStdout(), page)
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&action, "action", "", "filter by action: locked or unlocked")
	f.StringVar(&q.Filter.UserID, "user", "", "filter by account id")
	f.StringVar(&q.Filter.Actor, "actor", "", "filter by performer id, or \"system\"")
	f.StringVar(&q.Filter.DateFrom, "from", "", "first day to include (YYYY-MM-DD)")
	f.StringVar(&q.Filter.DateTo, "to", "", "last day to include (YYYY-MM-DD)")
	f.StringVar(&q.Sort.Field, "orderby", models.ActivitySortTimestamp, "sort by timestamp, account, action or actor")
	f.StringVar(&q.Sort.Direction, "order", models.SortDesc, "asc or desc")
	f.IntVar(&q.Page.Number, "page", 1, "page number")
	f.IntVar(&q.Page.Size, "per-page", models.DefaultActivityPageSize, "entries per page")
	return cmd
}

func writeActivity(out io.Writer, page *models.ActivityPage) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tACCOUNT\tACTION\tPERFORMED BY")
	for _, rec := range page.Entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			rec.Timestamp.Format(time.DateTime), rec.UserName, rec.Action, rec.PerformedName)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(out, "page %d, %d of %d entries\n", page.Page, len(page.Entries), page.TotalCount)
	return err
}

func newPurgeCmd(connect connectFunc) *cobra.Command {
	var confirmed bool

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete every lock flag, activity history and the denial message",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirmed {
				return errors.New("refusing to purge without --yes")
			}
			return withServices(cmd, connect, func(ctx context.Context, s *services) error {
				result, err := s.maintenance.PurgeData(ctx, models.SystemActor)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %d lock flags and %d activity logs\n", result.LockFlags, result.ActivityLogs)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&confirmed, "yes", false, "confirm removal of all lock data")
	return cmd
}
