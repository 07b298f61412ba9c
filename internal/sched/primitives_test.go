package sched

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coopsched/internal/input"
)

func TestWait_BlocksUntilTargetExits(t *testing.T) {
	s, clock, rec := newTestScheduler(t, Config{})
	var hostWhileSleeping State
	var hostErr error

	id, err := s.Create(func() {
		hostWhileSleeping, hostErr = s.State(0)
		_ = s.Sleep(50)
	})
	require.NoError(t, err)

	require.NoError(t, s.Wait(id))

	require.NoError(t, hostErr)
	if diff := cmp.Diff(State{Kind: StateWaiting, WaitingFor: id}, hostWhileSleeping); diff != "" {
		t.Errorf("host state while waiting (-want +got):\n%s", diff)
	}
	assert.GreaterOrEqual(t, clock.NowMS(), int64(50))

	st, err := s.State(0)
	require.NoError(t, err)
	assert.Equal(t, State{Kind: StateRunnable}, st, "wait target is cleared on selection")
	assert.Equal(t, []TaskID{id, 0}, rec.dispatched())
}

func TestWait_NotSelectedWhileTargetAlive(t *testing.T) {
	s, _, rec := newTestScheduler(t, Config{})
	turns := 0

	target, err := s.Create(func() {
		for range 5 {
			turns++
			_ = s.Yield()
		}
	})
	require.NoError(t, err)

	require.NoError(t, s.Wait(target))

	assert.Equal(t, 5, turns)
	// The target kept control through every yield; the host only came back
	// once it had exited.
	assert.Equal(t, []TaskID{target, 0}, rec.dispatched())
	assert.Equal(t, 5, rec.count(StatusYield, target))
}

func TestWait_InvalidHandle(t *testing.T) {
	s, _, rec := newTestScheduler(t, Config{})

	_, err := s.Create(func() {})
	require.NoError(t, err)

	for _, h := range []TaskID{-1, 2, 100} {
		assert.ErrorIs(t, s.Wait(h), ErrInvalidHandle, "handle %d", h)
	}
	assert.ErrorIs(t, s.Wait(0), ErrInvalidHandle, "waiting on itself")
	assert.Empty(t, rec.dispatched())

	st, err := s.State(0)
	require.NoError(t, err)
	assert.Equal(t, StateRunnable, st.Kind)
}

func TestWait_AlreadyExitedStillYields(t *testing.T) {
	s, _, rec := newTestScheduler(t, Config{})

	first, err := s.Create(func() {})
	require.NoError(t, err)
	require.NoError(t, s.Wait(first))

	ran := false
	second, err := s.Create(func() { ran = true })
	require.NoError(t, err)

	require.NoError(t, s.Wait(first))

	assert.True(t, ran, "other ready task runs before the wait returns")
	assert.Equal(t, []TaskID{first, 0, second, 0}, rec.dispatched())
	assert.Equal(t, 2, rec.count(StatusWait, 0))

	st, err := s.State(0)
	require.NoError(t, err)
	assert.Equal(t, State{Kind: StateRunnable}, st)
}

func TestWait_AlreadyExitedAloneContinues(t *testing.T) {
	s, _, rec := newTestScheduler(t, Config{})

	id, err := s.Create(func() {})
	require.NoError(t, err)
	require.NoError(t, s.Wait(id))

	switches := s.Stats().Switches
	require.NoError(t, s.Wait(id))
	assert.Equal(t, switches, s.Stats().Switches)
	assert.Equal(t, []TaskID{id, 0}, rec.dispatched())
}

func TestWait_MutualWaitIsNotDetected(t *testing.T) {
	s, _, _ := newTestScheduler(t, Config{})

	a, err := s.Create(func() { _ = s.Wait(2) })
	require.NoError(t, err)
	b, err := s.Create(func() { _ = s.Wait(1) })
	require.NoError(t, err)

	require.NoError(t, s.Yield())

	for _, tc := range []struct{ id, on TaskID }{{a, b}, {b, a}} {
		st, err := s.State(tc.id)
		require.NoError(t, err)
		assert.Equal(t, State{Kind: StateWaiting, WaitingFor: tc.on}, st)
		ready, err := s.Ready(tc.id)
		require.NoError(t, err)
		assert.False(t, ready)
	}

	// Only the host can run; yielding comes straight back.
	switches := s.Stats().Switches
	require.NoError(t, s.Yield())
	assert.Equal(t, switches, s.Stats().Switches)
	assert.Equal(t, 3, s.NumAlive())
}

func TestSleep_NotSelectedBeforeDeadline(t *testing.T) {
	s, clock, _ := newTestScheduler(t, Config{})
	var slept, woke int64

	id, err := s.Create(func() {
		slept = clock.NowMS()
		_ = s.Sleep(50)
		woke = clock.NowMS()
	})
	require.NoError(t, err)
	require.NoError(t, s.Wait(id))

	assert.GreaterOrEqual(t, woke-slept, int64(50))
	assert.Positive(t, s.Stats().IdlePasses)
}

func TestSleep_SpinningSchedulerWithSteppingClock(t *testing.T) {
	clock := &ManualClock{Step: 1}
	s := New(Config{Idle: IdleSpin}, WithClock(clock))
	require.NoError(t, s.Init())
	defer func() { require.NoError(t, s.Close()) }()

	var slept, woke int64
	id, err := s.Create(func() {
		slept = clock.NowMS()
		_ = s.Sleep(25)
		woke = clock.NowMS()
	})
	require.NoError(t, err)
	require.NoError(t, s.Wait(id))

	assert.GreaterOrEqual(t, woke-slept, int64(25))
}

func TestSleep_ReadySleepersFollowScanOrder(t *testing.T) {
	s, clock, _ := newTestScheduler(t, Config{})
	var woke []TaskID

	late, err := s.Create(func() {
		_ = s.Sleep(30)
		woke = append(woke, s.Current())
	})
	require.NoError(t, err)
	early, err := s.Create(func() {
		_ = s.Sleep(10)
		woke = append(woke, s.Current())
	})
	require.NoError(t, err)

	require.NoError(t, s.Yield())
	clock.Advance(100)
	require.NoError(t, s.Wait(early))
	require.NoError(t, s.Wait(late))

	// Both deadlines have passed; the scan from task 1 wins over the
	// earlier deadline of task 2.
	assert.Equal(t, []TaskID{late, early}, woke)
}

func TestSleep_NonPositiveDoesNotYield(t *testing.T) {
	s, _, rec := newTestScheduler(t, Config{})
	ran := false

	_, err := s.Create(func() { ran = true })
	require.NoError(t, err)

	require.NoError(t, s.Sleep(0))
	require.NoError(t, s.Sleep(-5))

	assert.False(t, ran)
	assert.Empty(t, rec.dispatched())
	assert.Zero(t, rec.count(StatusSleep, 0))
}

func TestSleep_IndexTracksPendingWakeTimes(t *testing.T) {
	s, clock, _ := newTestScheduler(t, Config{})

	id, err := s.Create(func() { _ = s.Sleep(30) })
	require.NoError(t, err)

	require.NoError(t, s.Yield())
	at, ok := s.NextWake()
	require.True(t, ok)
	assert.Equal(t, int64(30), at)
	assert.Equal(t, 1, s.Stats().Sleepers)

	st, err := s.State(id)
	require.NoError(t, err)
	assert.Equal(t, State{Kind: StateSleeping, WakeAt: 30}, st)

	ready, err := s.Ready(id)
	require.NoError(t, err)
	assert.False(t, ready)
	clock.Advance(30)
	ready, err = s.Ready(id)
	require.NoError(t, err)
	assert.True(t, ready)

	require.NoError(t, s.Wait(id))
	_, ok = s.NextWake()
	assert.False(t, ok)
	assert.Zero(t, s.Stats().Sleepers)
}

func TestReadChar_YieldsOnEveryMiss(t *testing.T) {
	in := input.NewScript(input.None, input.None, input.None, 'x')
	s, _, rec := newTestScheduler(t, Config{}, WithInput(in))
	turns := 0
	stop := false

	other, err := s.Create(func() {
		for !stop {
			turns++
			_ = s.Yield()
		}
	})
	require.NoError(t, err)

	r, err := s.ReadChar()
	require.NoError(t, err)
	assert.Equal(t, 'x', r)
	assert.Equal(t, 3, rec.count(StatusYield, 0))
	assert.Equal(t, 3, turns, "the other task ran between every probe")
	assert.Equal(t, 4, in.Probes())

	stop = true
	require.NoError(t, s.Wait(other))
}

func TestReadChar_AvailableInputDoesNotYield(t *testing.T) {
	s, _, rec := newTestScheduler(t, Config{}, WithInput(input.NewScript('a', 'b')))

	_, err := s.Create(func() {})
	require.NoError(t, err)

	for _, want := range []rune{'a', 'b'} {
		r, err := s.ReadChar()
		require.NoError(t, err)
		assert.Equal(t, want, r)
	}
	assert.Zero(t, rec.count(StatusYield, 0))
	assert.Empty(t, rec.dispatched())
	assert.Equal(t, 2, rec.count(StatusRead, 0))
}

func TestReadChar_NoInput(t *testing.T) {
	s, _, _ := newTestScheduler(t, Config{})

	_, err := s.ReadChar()
	assert.ErrorIs(t, err, ErrNoInput)
}

func TestYield_AloneContinues(t *testing.T) {
	s, _, _ := newTestScheduler(t, Config{})

	require.NoError(t, s.Yield())
	assert.Zero(t, s.Stats().Switches)
	assert.Equal(t, TaskID(0), s.Current())
}
