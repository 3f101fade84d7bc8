package fault

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMatching(t *testing.T) {
	err := Conflict("already_exists", "file already exists")
	wrapped := fmt.Errorf("upload: %w", err)

	assert.True(t, errors.Is(wrapped, ErrConflict))
	assert.False(t, errors.Is(wrapped, ErrNotFound))
	assert.True(t, errors.Is(wrapped, &Error{Code: "already_exists"}))
	assert.False(t, errors.Is(wrapped, &Error{Kind: KindConflict, Code: "other"}))
	assert.Equal(t, "already_exists", CodeOf(wrapped))
	assert.Equal(t, KindConflict, KindOf(wrapped))
	assert.Equal(t, "already_exists: file already exists", err.Error())

	assert.Empty(t, CodeOf(errors.New("plain")))
	assert.Empty(t, KindOf(nil))
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "zero value", cfg: Config{}},
		{name: "full error rate", cfg: Config{ErrorRate: 1}},
		{name: "negative rate", cfg: Config{ErrorRate: -0.1}, wantErr: true},
		{name: "rate above one", cfg: Config{ErrorRate: 1.5}, wantErr: true},
		{name: "negative delay", cfg: Config{NetworkDelay: -time.Second}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestInjector(t *testing.T) {
	clock := NewFakeClock(time.Unix(0, 0))
	seq := NewSequenceRand(0.2, 0.9)
	inj := NewInjector(clock, seq)

	require.NoError(t, inj.Delay(context.Background(), Config{NetworkDelay: 250 * time.Millisecond}))
	assert.Equal(t, 250*time.Millisecond, clock.Slept())
	assert.Equal(t, time.Unix(0, 0).Add(250*time.Millisecond), inj.Now())

	// A zero rate must not consume a sample.
	assert.False(t, inj.Roll(Config{}))
	assert.True(t, inj.Roll(Config{ErrorRate: 0.5}))
	assert.False(t, inj.Roll(Config{ErrorRate: 0.5}))
	// exhausted sequences repeat the last sample
	assert.False(t, inj.Chance(0.5))
}

func TestFakeClockHonoursCancelledContext(t *testing.T) {
	clock := NewFakeClock(time.Unix(0, 0))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := clock.Sleep(ctx, time.Second)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, clock.Slept())
}

func TestRealClockSleep(t *testing.T) {
	start := time.Now()
	require.NoError(t, RealClock{}.Sleep(context.Background(), 20*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestErrorRateOneAlwaysFails(t *testing.T) {
	inj := NewInjector(NewFakeClock(time.Now()), NewSeededRand(42))
	for i := 0; i < 1000; i++ {
		require.True(t, inj.Roll(Config{ErrorRate: 1}))
	}
}
