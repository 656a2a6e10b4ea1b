package commanding

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/SARVESHVARADKAR123/chatbox/internal/observability"
)

func Logging() Middleware {
	return func(next Next) Next {
		return func(ctx context.Context, cmd Command) (any, error) {
			log := observability.GetLogger(ctx).With(zap.String("command", cmd.CommandName()))
			start := time.Now()

			out, err := next(ctx, cmd)
			if err != nil {
				log.Warn("command failed", zap.Duration("took", time.Since(start)), zap.Error(err))
				return out, err
			}
			log.Debug("command handled", zap.Duration("took", time.Since(start)))
			return out, nil
		}
	}
}

func Metrics() Middleware {
	return func(next Next) Next {
		return func(ctx context.Context, cmd Command) (any, error) {
			start := time.Now()
			out, err := next(ctx, cmd)

			status := "ok"
			if err != nil {
				status = "error"
			}
			observability.CommandsTotal.WithLabelValues(cmd.CommandName(), status).Inc()
			observability.CommandDuration.WithLabelValues(cmd.CommandName()).Observe(time.Since(start).Seconds())
			return out, err
		}
	}
}

func Tracing() Middleware {
	tracer := otel.Tracer(observability.TracerName)
	return func(next Next) Next {
		return func(ctx context.Context, cmd Command) (any, error) {
			ctx, span := tracer.Start(ctx, "command "+cmd.CommandName())
			defer span.End()
			span.SetAttributes(attribute.String("command.name", cmd.CommandName()))

			out, err := next(ctx, cmd)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			}
			return out, err
		}
	}
}
