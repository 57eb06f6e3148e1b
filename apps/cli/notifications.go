package main

import (
	"context"
	"fmt"
	"time"

	"github.com/trezcool/fypdesk/core/access"
	"github.com/trezcool/fypdesk/core/notification"
)

func (cli *commandLine) notifications(ctx context.Context, args []string) error {
	sub, args := subcommand(args)
	if _, err := cli.enter(ctx, access.RouteNotifications); err != nil {
		return err
	}

	if sub == "watch" {
		return cli.watchNotifications(ctx, args)
	}

	feed := notification.NewFeed(cli.api, cli.sess, cli.logger)
	defer feed.Close()
	switch sub {
	case "list":
		fs := cli.flagSet("notifications list")
		filter := fs.String("filter", string(notification.FilterAll), "all, unread or read.")
		if err := parseFlags(fs, args); err != nil {
			return err
		}
		f, err := notification.ParseFilter(*filter)
		if err != nil {
			return err
		}
		if err := feed.Load(ctx, f); err != nil {
			return err
		}
		return cli.notificationTable(feed)
	case "read":
		fs := cli.flagSet("notifications read")
		id := fs.Int64("id", 0, "The notification id.")
		if err := parseFlags(fs, args); err != nil {
			return err
		}
		if *id == 0 {
			return usage(fs)
		}
		if err := feed.Load(ctx, notification.FilterAll); err != nil {
			return err
		}
		if err := feed.MarkRead(ctx, *id); err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "Notification #%d marked as read\n", *id)
		return nil
	case "read-all":
		if err := feed.Load(ctx, notification.FilterAll); err != nil {
			return err
		}
		if err := feed.MarkAllRead(ctx); err != nil {
			return err
		}
		fmt.Fprintln(cli.out, "All notifications marked as read")
		return nil
	case "delete":
		fs := cli.flagSet("notifications delete")
		id := fs.Int64("id", 0, "The notification id.")
		if err := parseFlags(fs, args); err != nil {
			return err
		}
		if *id == 0 {
			return usage(fs)
		}
		if err := feed.Load(ctx, notification.FilterAll); err != nil {
			return err
		}
		if err := feed.Delete(ctx, *id); err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "Notification #%d deleted\n", *id)
		return nil
	case "clear":
		fs := cli.flagSet("notifications clear")
		yes := fs.Bool("yes", false, "Do not ask for confirmation.")
		if err := parseFlags(fs, args); err != nil {
			return err
		}
		ok := cli.confirmed(*yes, "Delete all notifications?")
		if err := feed.DeleteAll(ctx, ok); err != nil {
			return err
		}
		fmt.Fprintln(cli.out, "All notifications deleted")
		return nil
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) notificationTable(feed *notification.Feed) error {
	items := feed.Items()
	if len(items) == 0 {
		fmt.Fprintln(cli.out, "No notifications.")
		return nil
	}
	now := time.Now()
	tw := cli.table("", "ID", "MESSAGE", "WHEN", "READ")
	for _, n := range items {
		row(tw, notification.Icon(n.Type), n.ID, n.Message, notification.Age(n.CreatedAt, now), n.IsRead)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "\n%d unread\n", feed.UnreadCount())
	return nil
}

// watchNotifications prints the unread count every time it changes, until ctx is done
// or the -for duration elapses.
func (cli *commandLine) watchNotifications(ctx context.Context, args []string) error {
	fs := cli.flagSet("notifications watch")
	every := fs.Duration("every", cli.conf.Notifications.PollInterval, "The polling interval.")
	limit := fs.Duration("for", 0, "Stop after this long; 0 watches until interrupted.")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *limit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *limit)
		defer cancel()
	}

	badge := notification.NewBadge(cli.api, cli.sess, cli.logger, *every)
	if err := badge.Refresh(ctx); err != nil {
		return err
	}
	cli.printUnread(badge.Count())

	changed := make(chan struct{}, 1)
	badge.OnChange(func(int) {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	cli.sess.OnLogout(cancel)
	badge.Start(ctx)
	defer badge.Stop()

	for {
		select {
		case <-ctx.Done():
			if cli.expired.Load() {
				return errLoginRequired
			}
			return nil
		case <-changed:
			cli.printUnread(badge.Count())
		}
	}
}

func (cli *commandLine) printUnread(count int) {
	fmt.Fprintf(cli.out, "%s  %d unread\n", time.Now().Format("15:04:05"), count)
}
