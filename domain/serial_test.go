package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopkeep/m/internal/apperr"
)

func TestSerialState_Transitions(t *testing.T) {
	next, err := SerialAvailable.Transition(SerialSell)
	require.NoError(t, err)
	assert.Equal(t, SerialSold, next)

	next, err = SerialSold.Transition(SerialRestore)
	require.NoError(t, err)
	assert.Equal(t, SerialAvailable, next)
}

func TestSerialState_SellingSoldSerialIsUnavailable(t *testing.T) {
	_, err := SerialSold.Transition(SerialSell)
	assert.ErrorIs(t, err, apperr.ErrSerialUnavailable)
}

func TestSerialState_RestoringAvailableSerialConflicts(t *testing.T) {
	_, err := SerialAvailable.Transition(SerialRestore)
	assert.ErrorIs(t, err, apperr.ErrStateConflict)
}

func TestSerialState_UnknownStateRejected(t *testing.T) {
	_, err := SerialState("lost").Transition(SerialSell)
	assert.Error(t, err)
	assert.False(t, SerialState("lost").Valid())
}

func TestSerialEvent_From(t *testing.T) {
	assert.Equal(t, SerialAvailable, SerialSell.From())
	assert.Equal(t, SerialSold, SerialRestore.From())
}
