package statemachine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// setupTestTracer creates a test tracer with an in-memory exporter.
func setupTestTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	tp := trace.NewTracerProvider(
		trace.WithSyncer(exporter),
	)

	oldProvider := otel.GetTracerProvider()

	otel.SetTracerProvider(tp)

	t.Cleanup(func() {
		otel.SetTracerProvider(oldProvider)
	})

	return exporter
}

func spanAttributes(span tracetest.SpanStub) map[string]any {
	attrs := make(map[string]any)
	for _, attr := range span.Attributes {
		attrs[string(attr.Key)] = attr.Value.AsInterface()
	}

	return attrs
}

// spansFor returns the recorded spans belonging to machine m.
func spansFor(exporter *tracetest.InMemoryExporter, m *Machine) tracetest.SpanStubs {
	var out tracetest.SpanStubs

	for _, span := range exporter.GetSpans() {
		if spanAttributes(span)["machine_id"] == m.ID() {
			out = append(out, span)
		}
	}

	return out
}

// TestSpanCreation verifies the initialize and transition spans.
// Note: Cannot use t.Parallel() because setupTestTracer modifies global OTEL tracer provider.
//
//nolint:paralleltest // Test modifies global OTEL tracer provider
func TestSpanCreation(t *testing.T) {
	exporter := setupTestTracer(t)

	ctx := context.Background()
	m := newStubMachine(t, "A", "B")

	require.NoError(t, m.Initialize(ctx, "A"))
	require.NoError(t, m.Transition(ctx, "B"))
	require.NoError(t, m.Transition(ctx, "B"))

	spans := spansFor(exporter, m)
	require.Len(t, spans, 2)

	assert.Equal(t, "statemachine.initialize", spans[0].Name)
	assert.Equal(t, "statemachine.transition", spans[1].Name)

	attrs := spanAttributes(spans[1])
	assert.Equal(t, m.Name(), attrs["machine"])
	assert.Equal(t, "A", attrs["from"])
	assert.Equal(t, "B", attrs["to"])
}

//nolint:paralleltest // Test modifies global OTEL tracer provider
func TestDiagnosticSpanEvent(t *testing.T) {
	exporter := setupTestTracer(t)

	ctx := context.Background()
	m := newStubMachine(t, "A")

	require.NoError(t, m.Initialize(ctx, "Z"))

	spans := spansFor(exporter, m)
	require.Len(t, spans, 1)
	require.Len(t, spans[0].Events, 1)

	event := spans[0].Events[0]
	assert.Equal(t, "statemachine.diagnostic", event.Name)

	attrs := make(map[string]any)
	for _, attr := range event.Attributes {
		attrs[string(attr.Key)] = attr.Value.AsInterface()
	}

	assert.Equal(t, "warning", attrs["severity"])
	assert.Equal(t, "Z", attrs["target"])
	assert.Equal(t, ErrStateNotFound.Error(), attrs["code"])
}

//nolint:paralleltest // Test modifies global OTEL tracer provider
func TestInitializeErrorSpanStatus(t *testing.T) {
	exporter := setupTestTracer(t)

	m := newStubMachine(t)

	require.ErrorIs(t, m.Initialize(context.Background(), ""), ErrNoStates)

	spans := spansFor(exporter, m)
	require.Len(t, spans, 1)
	assert.Equal(t, "Error", spans[0].Status.Code.String())
}
