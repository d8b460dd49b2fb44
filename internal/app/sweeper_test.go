package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genudine/ps2-discord-room-bot/internal/core"
	"github.com/genudine/ps2-discord-room-bot/internal/domain"
)

type recordingPruner struct {
	mu    sync.Mutex
	calls []domain.ChannelID
	fail  map[domain.ChannelID]error
}

func (r *recordingPruner) PruneShared(_ context.Context, trigger domain.ChannelID) (*PruneReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, trigger)
	return &PruneReport{Trigger: trigger}, r.fail[trigger]
}

func (r *recordingPruner) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func TestSweepNowVisitsEveryGuild(t *testing.T) {
	reg, err := NewWatchRegistry([]string{"1:100", "2:200", "3:300"})
	require.NoError(t, err)
	lookupErr := &core.LookupError{Op: "trigger", ID: "200", Err: core.ErrNotFound}
	pr := &recordingPruner{fail: map[domain.ChannelID]error{"200": lookupErr}}

	results := NewSweeper(reg, pr, time.Hour, 2).SweepNow(context.Background())

	require.Len(t, results, 3)
	assert.ElementsMatch(t, []domain.ChannelID{"100", "200", "300"}, pr.calls)
	assert.NoError(t, results[0].Err)
	assert.True(t, errors.Is(results[1].Err, core.ErrNotFound), "failure stays with its guild")
	assert.NoError(t, results[2].Err)
}

func TestSweeperTicksUntilCancelled(t *testing.T) {
	reg, err := NewWatchRegistry([]string{"1:100"})
	require.NoError(t, err)
	pr := &recordingPruner{}
	s := NewSweeper(reg, pr, 10*time.Millisecond, 1)

	ctx, cancel := context.WithCancel(context.Background())
	require.True(t, s.Start(ctx))
	assert.False(t, s.Start(ctx), "second ready must not start another loop")

	assert.Eventually(t, func() bool { return pr.count() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatalf("sweeper did not stop after cancel")
	}
}

func TestSweeperFirstPassWaitsOneInterval(t *testing.T) {
	reg, err := NewWatchRegistry([]string{"1:100"})
	require.NoError(t, err)
	pr := &recordingPruner{}
	s := NewSweeper(reg, pr, time.Hour, 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, pr.count())
}
