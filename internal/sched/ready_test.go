package sched

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsReady(t *testing.T) {
	exited := map[TaskID]bool{2: true}
	resolve := func(id TaskID) bool { return exited[id] }

	tests := []struct {
		name  string
		state State
		now   int64
		want  bool
	}{
		{"runnable", State{Kind: StateRunnable}, 0, true},
		{"exited", State{Kind: StateExited}, 0, false},
		{"waiting on live task", State{Kind: StateWaiting, WaitingFor: 1}, 0, false},
		{"waiting on exited task", State{Kind: StateWaiting, WaitingFor: 2}, 0, true},
		{"waiting on task 0", State{Kind: StateWaiting, WaitingFor: 0}, 0, false},
		{"sleeping before deadline", State{Kind: StateSleeping, WakeAt: 50}, 49, false},
		{"sleeping at deadline", State{Kind: StateSleeping, WakeAt: 50}, 50, true},
		{"sleeping past deadline", State{Kind: StateSleeping, WakeAt: 50}, 80, true},
		{"stale wake time ignored when runnable", State{Kind: StateRunnable, WakeAt: 1000}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isReady(tt.state, tt.now, resolve))
		})
	}
}

func TestHasExited_UnknownIDsCountAsExited(t *testing.T) {
	s, _, _ := newTestScheduler(t, Config{})
	_, err := s.Create(func() {})
	require.NoError(t, err)

	assert.False(t, s.hasExited(0))
	assert.False(t, s.hasExited(1))
	assert.True(t, s.hasExited(-1))
	assert.True(t, s.hasExited(2))
}

func TestReady_InvalidHandle(t *testing.T) {
	s, _, _ := newTestScheduler(t, Config{})

	_, err := s.Ready(7)
	assert.ErrorIs(t, err, ErrInvalidHandle)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "Runnable", State{}.String())
	assert.Equal(t, "Sleeping(40)", State{Kind: StateSleeping, WakeAt: 40}.String())
	assert.Equal(t, "Waiting(3)", State{Kind: StateWaiting, WaitingFor: 3}.String())
	assert.Equal(t, "Exited", State{Kind: StateExited}.String())
}
