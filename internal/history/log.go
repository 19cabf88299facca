package history

import (
	"context"
	"log/slog"
)

// LogItem logs a history event at INFO (id, kind, pinned) and DEBUG (text
// preview up to 120 chars, or payload size for binary items).
func LogItem(event string, it Item) {
	slog.Info(event, "id", it.ID, "kind", it.Kind, "pinned", it.Pinned)

	if !slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	switch it.Kind {
	case KindText, KindColor:
		slog.Debug("history item", "id", it.ID, "preview", it.Preview(120), "rich_text", len(it.RichText) > 0)
	default:
		slog.Debug("history item", "id", it.ID, "label", it.PrimaryText, "source_path", it.SourcePath, "size_bytes", len(it.Payload))
	}
}
