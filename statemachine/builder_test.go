package statemachine_test

import (
	"context"
	"testing"

	"github.com/hexapus/gamecore/statemachine"
	smtesting "github.com/hexapus/gamecore/statemachine/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder(t *testing.T) {
	t.Parallel()

	j := smtesting.NewJournal()
	sink := smtesting.NewRecordingSink()

	m, err := statemachine.NewBuilder("traffic").
		WithInitialState("Red").
		AddState("Red", smtesting.NewRecordingState(j, "Red")).
		AddState("Green", smtesting.NewRecordingState(j, "Green")).
		AddState("Yellow", smtesting.NewRecordingState(j, "Yellow")).
		AddTransition("Red", "Green").
		AddTransition("Green", "Yellow").
		AddTransition("Yellow", "Red").
		WithOptions(statemachine.WithSink(sink)).
		Build()
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, m.Initialize(ctx, ""))

	require.NoError(t, m.Transition(ctx, "Green"))
	require.ErrorIs(t, m.Transition(ctx, "Red"), statemachine.ErrTransitionNotAllowed)
	require.NoError(t, m.Transition(ctx, "Yellow"))
	require.NoError(t, m.Transition(ctx, "Red"))

	assert.Equal(t, "traffic", m.Name())
	assert.Equal(t, []string{"Red", "Green", "Yellow", "Red"}, statemachine.Path(m.History()))
	assert.Len(t, sink.All(), 1)
}

func TestBuilderConfig(t *testing.T) {
	t.Parallel()

	cfg := statemachine.NewBuilder("b").
		AddState("A", &statemachine.Base{}).
		AddTransition("A", "A").
		Config()

	assert.Equal(t, "b", cfg.Name)
	require.Len(t, cfg.States, 1)
	assert.Equal(t, "*statemachine.Base", cfg.States[0].Kind)
	require.NoError(t, cfg.Validate())
}

func TestBuilderRejectsInvalidDeclaration(t *testing.T) {
	t.Parallel()

	_, err := statemachine.NewBuilder("b").
		AddState("A", &statemachine.Base{}).
		AddTransition("A", "Z").
		Build()
	require.ErrorIs(t, err, statemachine.ErrTransitionToNotFound)

	_, err = statemachine.NewBuilder("b").
		AddState("A", nil).
		Build()
	require.ErrorIs(t, err, statemachine.ErrNilState)
}
