package service

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/observability"
)

const tracerName = "github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/service"

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, name)
	span.SetAttributes(attrs...)
	return ctx, span
}

// failMutation marks the span as failed and counts the failed operation.
// Unique-index violations that slipped past the pre-checks surface as ErrDuplicate.
func failMutation(span trace.Span, operation string, err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) && !errors.Is(err, ErrDuplicate) {
		err = fmt.Errorf("%s: %w", operation, ErrDuplicate)
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, operation)
	observability.DomainMutationsFailed().WithLabelValues(operation).Inc()
	return err
}
