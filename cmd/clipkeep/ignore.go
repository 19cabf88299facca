package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"go.klb.dev/clipkeep/internal/ignore"
	"go.klb.dev/clipkeep/internal/message"
)

func newIgnoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ignore",
		Short: "Manage applications whose copies are never recorded",
		Long: `Copies made while an ignored application has focus are not recorded.

Application IDs are bundle identifiers on macOS (com.example.App), the
WM_CLASS class name on X11 (KeePassXC) and the executable name on Windows
(KeePass.exe). Password managers are ignored by default; see
"clipkeep ignore builtin".`,
	}
	cmd.AddCommand(
		newIgnoreListCmd(),
		newIgnoreAddCmd(),
		newIgnoreRemoveCmd(),
		newIgnoreBuiltInCmd(),
	)
	return cmd
}

func newIgnoreListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the custom ignore list",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runIgnore(&message.Message{Type: message.TypeIgnoreList}, "")
		},
	}
}

func newIgnoreAddCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "add <app-id>",
		Short: "Add an application to the ignore list",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			app := ignore.App{ApplicationID: args[0], DisplayName: name}
			return runIgnore(&message.Message{Type: message.TypeIgnoreAdd, App: &app}, "Added "+args[0])
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	return cmd
}

func newIgnoreRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <app-id>",
		Aliases: []string{"rm"},
		Short:   "Remove an application from the ignore list",
		Args:    cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runIgnore(&message.Message{Type: message.TypeIgnoreRemove, ID: args[0]}, "Removed "+args[0])
		},
	}
}

func newIgnoreBuiltInCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "builtin",
		Short: "List the built-in password manager identifiers",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runIgnore(&message.Message{Type: message.TypeIgnoreBuiltIn}, "")
		},
	}
}

func runIgnore(req *message.Message, done string) error {
	reply, err := request(req)
	if err != nil {
		return err
	}
	if done != "" {
		fmt.Println(done)
		fmt.Println()
	}
	printApps(os.Stdout, reply.Apps)
	return nil
}

func printApps(w io.Writer, apps []ignore.App) {
	if len(apps) == 0 {
		fmt.Fprintln(w, "No applications.")
		return
	}
	tw := newTable(w)
	_, _ = fmt.Fprintf(tw, "APPLICATION ID\tNAME\n")
	_, _ = fmt.Fprintf(tw, "--------------\t----\n")
	for _, a := range apps {
		name := a.DisplayName
		if name == "" {
			name = "-"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\n", a.ApplicationID, name)
	}
	_ = tw.Flush()
}
