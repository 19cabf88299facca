// clipkeep: clipboard history for the desktop.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"go.klb.dev/clipkeep/internal/logging"
)

// Version is set at build time via -ldflags "-X main.Version=x.y.z".
var Version = "dev"

func main() {
	root := &cobra.Command{
		Use:   "clipkeep",
		Short: "Clipboard history daemon and CLI",
		Long: `clipkeep watches the system clipboard and keeps a bounded, de-duplicated
history of what you copied: text, colors, images and file references.

Run "clipkeep daemon" once per login session. Every other command talks to the
running daemon over a local socket (a named pipe on Windows).

Config file search order (first found wins):
  /etc/clipkeep/clipkeep.toml
  $HOME/.config/clipkeep/clipkeep.toml
  path supplied via --config

All flags can be set via CLIPKEEP_<FLAG> env vars or config-file keys.
See "clipkeep daemon --help" for the full flag reference.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newDaemonCmd(),
		newListCmd(),
		newShowCmd(),
		newCopyCmd(),
		newPinCmd(),
		newDeleteCmd(),
		newClearCmd(),
		newSetCmd(),
		newPauseCmd(),
		newResumeCmd(),
		newStatusCmd(),
		newWatchCmd(),
		newIgnoreCmd(),
		newVersionCmd(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("clipkeep %s\n", Version)
		},
	}
}

// resolveLogging sets up the global slog logger after flags are parsed.
func resolveLogging(interactive bool, formatStr, levelStr string) {
	def := slog.LevelInfo
	if interactive {
		def = slog.LevelDebug
	}
	logging.Setup(logging.ParseFormat(formatStr), logging.ParseLevel(levelStr, def))
}
