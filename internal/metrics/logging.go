package metrics

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/LavishGent/linernotes/internal/types"
)

// LoggingPublisher is the Publisher used when no statsd agent is configured.
// Metric calls log at debug with their "key:value" tags expanded into a
// "tags" group; health samples log at info, or warn while enrichment is
// degraded.
type LoggingPublisher struct {
	logger   *slog.Logger
	baseTags []string
}

// NewLoggingPublisher creates a publisher that writes to logger. baseTags are
// attached to every metric call.
func NewLoggingPublisher(logger *slog.Logger, baseTags ...string) *LoggingPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingPublisher{
		logger:   logger.With("component", "metrics"),
		baseTags: baseTags,
	}
}

func (p *LoggingPublisher) Gauge(name string, value float64, tags ...string) {
	p.emit("gauge", name, slog.Float64("value", value), tags)
}

func (p *LoggingPublisher) Incr(name string, tags ...string) {
	p.emit("incr", name, slog.Int64("value", 1), tags)
}

func (p *LoggingPublisher) Count(name string, value int64, tags ...string) {
	p.emit("count", name, slog.Int64("value", value), tags)
}

func (p *LoggingPublisher) Histogram(name string, value float64, tags ...string) {
	p.emit("histogram", name, slog.Float64("value", value), tags)
}

// Timing logs duration in milliseconds, the unit statsd timers use.
func (p *LoggingPublisher) Timing(name string, duration time.Duration, tags ...string) {
	p.emit("timing", name, slog.Int64("duration_ms", duration.Milliseconds()), tags)
}

// Event logs at a level derived from alertType: "error" and "warning" map to
// their slog levels, anything else logs at info.
func (p *LoggingPublisher) Event(title, text, alertType string, tags ...string) {
	level := slog.LevelInfo
	switch alertType {
	case "error":
		level = slog.LevelError
	case "warning":
		level = slog.LevelWarn
	}
	p.logger.LogAttrs(context.Background(), level, title,
		slog.String("text", text),
		slog.String("alert_type", alertType),
		p.tagGroup(tags),
	)
}

// PublishHealthMetrics logs one enrichment health sample.
func (p *LoggingPublisher) PublishHealthMetrics(m *types.PublisherHealthMetrics) {
	if m == nil {
		return
	}

	level := slog.LevelInfo
	if m.CircuitOpen || !m.IsConnected {
		level = slog.LevelWarn
	}
	p.logger.LogAttrs(context.Background(), level, "Enrichment health",
		slog.Group("cache",
			slog.Int64("entries", m.CacheEntries),
			slog.Int64("max_entries", m.CacheMaxEntries),
			slog.Int64("expired", m.CacheExpired),
			slog.Float64("usage", m.CacheUsageRatio),
			slog.Float64("hit_ratio", m.HitRatio),
		),
		slog.Float64("enrich_avg_ms", m.AverageLatencyMs),
		slog.Bool("circuit_open", m.CircuitOpen),
		slog.Bool("connected", m.IsConnected),
	)
}

func (p *LoggingPublisher) Close() error {
	return nil
}

func (p *LoggingPublisher) emit(kind, name string, value slog.Attr, tags []string) {
	p.logger.LogAttrs(context.Background(), slog.LevelDebug, kind,
		slog.String("name", name),
		value,
		p.tagGroup(tags),
	)
}

// tagGroup splits each tag on its first ':' so "slot:funfact:lore" logs as
// tags.slot=funfact:lore. A tag without ':' logs with an empty value.
func (p *LoggingPublisher) tagGroup(tags []string) slog.Attr {
	attrs := make([]any, 0, len(p.baseTags)+len(tags))
	for _, set := range [][]string{p.baseTags, tags} {
		for _, tag := range set {
			key, value, _ := strings.Cut(tag, ":")
			attrs = append(attrs, slog.String(key, value))
		}
	}
	return slog.Group("tags", attrs...)
}

var _ types.Publisher = (*LoggingPublisher)(nil)
