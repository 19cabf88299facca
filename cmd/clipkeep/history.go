package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"go.klb.dev/clipkeep/internal/message"
)

func newListCmd() *cobra.Command {
	var (
		jsonOut bool
		pinned  bool
	)
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the clipboard history, newest first",
		Long: `Lists the history kept by the running daemon. Pinned entries are marked
with an asterisk and always sort above unpinned ones.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			reply, err := request(&message.Message{Type: message.TypeList, PinnedOnly: pinned})
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(os.Stdout, reply.Items)
			}
			printItems(os.Stdout, reply.Items, time.Now())
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "output raw JSON")
	cmd.Flags().BoolVar(&pinned, "pinned", false, "only pinned entries")
	return cmd
}

func newShowCmd() *cobra.Command {
	var (
		jsonOut bool
		raw     bool
	)
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one history entry",
		Long: `Shows the metadata and text of one entry. With --raw the stored binary
content (image bytes, file thumbnail) is written to stdout instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			reply, err := request(&message.Message{Type: message.TypeGet, ID: args[0]})
			if err != nil {
				return err
			}
			it := *reply.Item
			switch {
			case raw:
				if len(it.Payload) == 0 {
					return fmt.Errorf("entry %s has no binary content", it.ID)
				}
				_, err := os.Stdout.Write(it.Payload)
				return err
			case jsonOut:
				return printJSON(os.Stdout, it)
			}
			printItem(os.Stdout, it, time.Now())
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "output raw JSON")
	cmd.Flags().BoolVar(&raw, "raw", false, "write the binary payload to stdout")
	return cmd
}

func newCopyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "copy <id>",
		Short: "Put a history entry back on the clipboard",
		Long: `Writes the entry to the system clipboard. The daemon does not record
this write as a new capture.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			reply, err := request(&message.Message{Type: message.TypeCopy, ID: args[0]})
			if err != nil {
				return err
			}
			fmt.Printf("Copied %s: %s\n", reply.Item.ID, oneLine(reply.Item.Preview(previewRunes)))
			return nil
		},
	}
}

func newPinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pin <id>",
		Short: "Toggle the pin on a history entry",
		Long:  `Pinned entries are never evicted and survive "clipkeep clear".`,
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			reply, err := request(&message.Message{Type: message.TypePin, ID: args[0]})
			if err != nil {
				return err
			}
			state := "Unpinned"
			if reply.Item.Pinned {
				state = "Pinned"
			}
			fmt.Printf("%s %s\n", state, reply.Item.ID)
			return nil
		},
	}
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Remove one history entry",
		Args:    cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if _, err := request(&message.Message{Type: message.TypeDelete, ID: args[0]}); err != nil {
				return err
			}
			fmt.Printf("Deleted %s\n", args[0])
			return nil
		},
	}
}

func newClearCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove unpinned history entries",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			reply, err := request(&message.Message{Type: message.TypeClear, All: all})
			if err != nil {
				return err
			}
			fmt.Printf("Removed %d entries\n", reply.Removed)
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "also remove pinned entries")
	return cmd
}
