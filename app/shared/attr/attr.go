package attr

import (
	"context"
	"log/slog"

	"github.com/pickem-club/standings-engine/app/shared/sharedtypes"
)

type correlationIDKey struct{}

// WithCorrelationID stores a correlation ID on the context so every log
// line emitted downstream can carry it.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, id)
}

// ExtractCorrelationID returns the correlation ID attr for the context,
// or an empty-valued attr when none was set.
func ExtractCorrelationID(ctx context.Context) slog.Attr {
	if id, ok := ctx.Value(correlationIDKey{}).(string); ok {
		return slog.String("correlation_id", id)
	}
	return slog.String("correlation_id", "")
}

func String(key, value string) slog.Attr {
	return slog.String(key, value)
}

func Int(key string, value int) slog.Attr {
	return slog.Int(key, value)
}

func Bool(key string, value bool) slog.Attr {
	return slog.Bool(key, value)
}

func Any(key string, value any) slog.Attr {
	return slog.Any(key, value)
}

func Error(err error) slog.Attr {
	return slog.Any("error", err)
}

func UserID(key string, id sharedtypes.UserID) slog.Attr {
	return slog.String(key, string(id))
}

func SlateID(key string, id sharedtypes.SlateID) slog.Attr {
	return slog.String(key, id.String())
}

func SeasonID(key string, id sharedtypes.SeasonID) slog.Attr {
	return slog.String(key, string(id))
}

func Points(key string, p sharedtypes.Points) slog.Attr {
	return slog.Int(key, int(p))
}
