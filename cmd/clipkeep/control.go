package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"go.klb.dev/clipkeep/internal/hub"
	"go.klb.dev/clipkeep/internal/ipc"
	"go.klb.dev/clipkeep/internal/message"
	"go.klb.dev/clipkeep/internal/settings"
)

func newSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change a runtime setting",
		Long: fmt.Sprintf(`Changes a setting on the running daemon. The new value takes effect
immediately and is stored in the database.

Keys:
  %s  positive integer, maximum unpinned entries
  %s  true|false
  %s  true|false`,
			settings.KeyHistoryLimit, settings.KeyIgnorePasswordManagers, settings.KeyIgnoreCustomApps),
		Args: cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			reply, err := request(&message.Message{Type: message.TypeSet, Key: args[0], Value: args[1]})
			if err != nil {
				return err
			}
			fmt.Printf("%s = %s\n", args[0], reply.Settings.Values()[args[0]])
			return nil
		},
	}
}

func newPauseCmd() *cobra.Command {
	return newMonitorCmd("pause", "Stop recording clipboard changes", false)
}

func newResumeCmd() *cobra.Command {
	return newMonitorCmd("resume", "Start recording clipboard changes again", true)
}

func newMonitorCmd(use, short string, on bool) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			reply, err := request(&message.Message{Type: message.TypeMonitor, Monitoring: &on})
			if err != nil {
				return err
			}
			fmt.Printf("Monitoring: %s\n", onOff(*reply.Monitoring))
			return nil
		},
	}
}

func newStatusCmd() *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			reply, err := request(&message.Message{Type: message.TypeStatus})
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(os.Stdout, reply.Status)
			}
			printStatus(os.Stdout, reply.Status)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "output raw JSON")
	return cmd
}

func printStatus(w io.Writer, st *message.Status) {
	tw := newTable(w)
	fmt.Fprintf(tw, "Version:\t%s (pid %d)\n", st.Version, st.PID)
	fmt.Fprintf(tw, "Started:\t%s\n", humanize.Time(st.StartedAt))
	fmt.Fprintf(tw, "Transport:\tipc (%s)\n", ipc.SocketPath())
	if st.HTTPAddr != "" {
		fmt.Fprintf(tw, "HTTP API:\thttp://%s/api\n", st.HTTPAddr)
	}
	fmt.Fprintf(tw, "Clipboard:\t%s, every %s\n", st.Backend, st.PollInterval)
	fmt.Fprintf(tw, "Monitoring:\t%s\n", onOff(st.Monitoring))
	encrypted := ""
	if st.Encrypted {
		encrypted = " (encrypted)"
	}
	fmt.Fprintf(tw, "Database:\t%s%s\n", st.Database, encrypted)
	fmt.Fprintf(tw, "Entries:\t%d of %d, %d pinned\n", st.Items-st.Pinned, st.Settings.HistoryLimit, st.Pinned)
	fmt.Fprintf(tw, "Ignoring:\tpassword managers %s, %d custom apps %s\n",
		onOff(st.Settings.IgnorePasswordManagers), st.IgnoredApps, onOff(st.Settings.IgnoreCustomApps))
	fmt.Fprintf(tw, "Captured:\t%d ingested, %d ignored, %d skipped, %d failed (%s polls)\n",
		st.Stats.Ingested, st.Stats.Ignored, st.Stats.Skipped, st.Stats.Failed,
		humanize.Comma(int64(st.Stats.Ticks)))
	fmt.Fprintf(tw, "Watchers:\t%d\n", st.Subscribers)
	_ = tw.Flush()
}

func newWatchCmd() *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream history and state changes",
		Long: `Subscribes to the daemon and prints one line per change until interrupted.
The current state of everything is printed first.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			conn, err := ipc.Dial()
			if err != nil {
				return fmt.Errorf("clipkeep daemon not reachable at %s: %w", ipc.SocketPath(), err)
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return ipc.Watch(ctx, conn, func(ev hub.Event) {
				if jsonOut {
					_ = printJSON(os.Stdout, ev)
					return
				}
				printEvent(os.Stdout, ev)
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "output one JSON object per event")
	return cmd
}

func printEvent(w io.Writer, ev hub.Event) {
	ts := ev.At.Local().Format("15:04:05")
	switch ev.Kind {
	case hub.KindHistory:
		head := "empty"
		if len(ev.History) > 0 {
			head = oneLine(ev.History[0].Preview(previewRunes))
		}
		fmt.Fprintf(w, "%s history  %d entries, newest: %s\n", ts, len(ev.History), head)
	case hub.KindMonitoring:
		fmt.Fprintf(w, "%s monitor  %s\n", ts, onOff(ev.Monitoring != nil && *ev.Monitoring))
	case hub.KindIgnore:
		fmt.Fprintf(w, "%s ignore   %d apps\n", ts, len(ev.Ignored))
	case hub.KindSettings:
		if ev.Settings != nil {
			fmt.Fprintf(w, "%s settings limit=%d password-managers=%t custom-apps=%t\n", ts,
				ev.Settings.HistoryLimit, ev.Settings.IgnorePasswordManagers, ev.Settings.IgnoreCustomApps)
		}
	default:
		fmt.Fprintf(w, "%s %s\n", ts, ev.Kind)
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
