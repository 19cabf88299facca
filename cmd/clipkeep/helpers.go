package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"go.klb.dev/clipkeep/internal/history"
	"go.klb.dev/clipkeep/internal/ipc"
	"go.klb.dev/clipkeep/internal/message"
)

const previewRunes = 60

// request sends req to the running daemon.
func request(req *message.Message) (*message.Message, error) {
	return ipc.Request(req)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 1, 0, 2, ' ', 0)
}

// printItems renders items newest first as a table.
func printItems(w io.Writer, items []history.Item, now time.Time) {
	if len(items) == 0 {
		fmt.Fprintln(w, "History is empty.")
		return
	}
	tw := newTable(w)
	_, _ = fmt.Fprintf(tw, "\tID\tKIND\tCOPIED\tCONTENT\n")
	_, _ = fmt.Fprintf(tw, "\t--\t----\t------\t-------\n")
	for _, it := range items {
		marker := ""
		if it.Pinned {
			marker = "*"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			marker, it.ID, it.Kind, age(it.CreatedAt, now), oneLine(it.Preview(previewRunes)))
	}
	_ = tw.Flush()
}

// printItem renders the full metadata of a single entry.
func printItem(w io.Writer, it history.Item, now time.Time) {
	tw := newTable(w)
	fmt.Fprintf(tw, "ID:\t%s\n", it.ID)
	fmt.Fprintf(tw, "Kind:\t%s\n", it.Kind)
	fmt.Fprintf(tw, "Pinned:\t%t\n", it.Pinned)
	fmt.Fprintf(tw, "Copied:\t%s (%s)\n", it.CreatedAt.Local().Format(time.RFC3339), age(it.CreatedAt, now))
	if it.SourcePath != "" {
		fmt.Fprintf(tw, "Source:\t%s\n", it.SourcePath)
	}
	if len(it.Payload) > 0 {
		fmt.Fprintf(tw, "Payload:\t%s\n", humanize.Bytes(uint64(len(it.Payload))))
	}
	if len(it.RichText) > 0 {
		fmt.Fprintf(tw, "Rich text:\t%s\n", humanize.Bytes(uint64(len(it.RichText))))
	}
	_ = tw.Flush()

	if it.Kind == history.KindText || it.Kind == history.KindColor {
		fmt.Fprintln(w)
		fmt.Fprintln(w, it.PrimaryText)
	} else {
		fmt.Fprintf(w, "Label:  %s\n", it.PrimaryText)
	}
}

func age(t, now time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

// oneLine collapses line breaks and tabs so a preview fits one table row.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
