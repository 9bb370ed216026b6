package internal

import (
	"log/slog"

	"github.com/kangtastic/peapod/ethernet"
)

// LevelTrace extends slog's level range below LevelDebug for the
// per-packet classification/rewrite detail that -vvv enables; ordinary
// -v/-vv stop at LevelInfo/LevelDebug.
const LevelTrace slog.Level = slog.LevelDebug - 2

// SlogMAC returns a slog.Attr rendering addr as colon-separated hex, the
// same textual form required for the PKT_DEST/PKT_SOURCE script
// environment variables.
func SlogMAC(key string, addr [6]byte) slog.Attr {
	buf := ethernet.AppendAddr(make([]byte, 0, 17), addr)
	return slog.String(key, string(buf))
}
