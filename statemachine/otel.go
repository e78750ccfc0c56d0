package statemachine

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/hexapus/gamecore/statemachine"

// startInitializeSpan creates the span covering Initialize.
// Uses the global tracer installed by the telemetry package, if any.
// The caller is responsible for calling span.End().
//
//nolint:spancheck // Span lifecycle managed by caller
func startInitializeSpan(ctx context.Context, m *Machine) (context.Context, trace.Span) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "statemachine.initialize")
	addMachineAttributes(span, m)

	return ctx, span
}

// startTransitionSpan creates the span covering one Exit/Enter switch.
// The caller is responsible for calling span.End().
//
//nolint:spancheck // Span lifecycle managed by caller
func startTransitionSpan(ctx context.Context, m *Machine, from, to string) (context.Context, trace.Span) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "statemachine.transition")
	addMachineAttributes(span, m)
	span.SetAttributes(
		attribute.String("from", from),
		attribute.String("to", to),
		attribute.Int64("tick", int64(m.ticks)), //nolint:gosec // tick counts stay far below MaxInt64
	)

	return ctx, span
}

func addMachineAttributes(span trace.Span, m *Machine) {
	span.SetAttributes(
		attribute.String("machine", m.name),
		attribute.String("machine_id", m.id),
	)
}

// recordDiagnosticEvent attaches a diagnostic to the span in ctx, if one is recording.
func recordDiagnosticEvent(ctx context.Context, sev Severity, code error, state, target string) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("severity", sev.String()),
		attribute.String("state", state),
		attribute.String("target", target),
	}

	if code != nil {
		attrs = append(attrs, attribute.String("code", code.Error()))
	}

	span.AddEvent("statemachine.diagnostic", trace.WithAttributes(attrs...))
}
