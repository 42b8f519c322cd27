package linernotes

import (
	"context"
	"log/slog"
	"slices"
)

// slogAdapter routes slog records to a caller-supplied Logger so the
// internal packages can keep logging through *slog.Logger.
type slogAdapter struct {
	logger Logger
	attrs  []slog.Attr // keys already carry their group prefix
	group  string
}

func newSlogLogger(l Logger) *slog.Logger {
	if sl, ok := l.(*slog.Logger); ok {
		return sl
	}
	return slog.New(slogAdapter{logger: l})
}

func (a slogAdapter) Enabled(context.Context, slog.Level) bool {
	return true
}

//nolint:gocritic // slog.Handler requires the record by value
func (a slogAdapter) Handle(_ context.Context, r slog.Record) error {
	args := make([]any, 0, 2*(len(a.attrs)+r.NumAttrs()))
	for _, attr := range a.attrs {
		args = append(args, attr.Key, attr.Value.Any())
	}
	r.Attrs(func(attr slog.Attr) bool {
		args = append(args, a.key(attr.Key), attr.Value.Any())
		return true
	})

	switch {
	case r.Level >= slog.LevelError:
		a.logger.Error(r.Message, args...)
	case r.Level >= slog.LevelWarn:
		a.logger.Warn(r.Message, args...)
	case r.Level >= slog.LevelInfo:
		a.logger.Info(r.Message, args...)
	default:
		a.logger.Debug(r.Message, args...)
	}
	return nil
}

func (a slogAdapter) key(k string) string {
	if a.group == "" {
		return k
	}
	return a.group + "." + k
}

func (a slogAdapter) WithAttrs(attrs []slog.Attr) slog.Handler {
	qualified := make([]slog.Attr, len(attrs))
	for i, attr := range attrs {
		qualified[i] = slog.Attr{Key: a.key(attr.Key), Value: attr.Value}
	}
	return slogAdapter{
		logger: a.logger,
		attrs:  append(slices.Clone(a.attrs), qualified...),
		group:  a.group,
	}
}

func (a slogAdapter) WithGroup(name string) slog.Handler {
	if name == "" {
		return a
	}
	return slogAdapter{
		logger: a.logger,
		attrs:  a.attrs,
		group:  a.key(name),
	}
}
