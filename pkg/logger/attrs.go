package logger

import (
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
)

// ensureInstanceID keeps a caller-provided id and otherwise derives one from
// the hostname plus a short random suffix, so replicas stay tellable apart in
// aggregated logs.
func ensureInstanceID(v string) string {
	if v != "" {
		return v
	}

	host, _ := os.Hostname()
	return host + "-" + uuid.NewString()[:8]
}

// commonAttr is stamped onto every record via the handler, not per call site.
func commonAttr(cfg Config) []slog.Attr {
	return []slog.Attr{
		slog.String("service", cfg.Service),
		slog.String("env", string(cfg.Env)),
		slog.String("version", cfg.Version),
		slog.String("instance_id", cfg.InstanceID),
		slog.Time("started_at", time.Now()),
	}
}
