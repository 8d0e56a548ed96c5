package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsUnknownTimezone(t *testing.T) {
	_, err := New("Mars/Olympus_Mons")
	assert.Error(t, err)

	s, err := New("")
	require.NoError(t, err)
	assert.NotNil(t, s)
}

func TestAddRejectsInvalidSpec(t *testing.T) {
	s, err := New("UTC")
	require.NoError(t, err)

	assert.Error(t, s.Add("broken", "every now and then", func(context.Context) error { return nil }))
	assert.NoError(t, s.Add("disabled", "", func(context.Context) error { return nil }))
	assert.Empty(t, s.cron.Entries())
}

func TestJobsRun(t *testing.T) {
	s, err := New("UTC")
	require.NoError(t, err)

	var ok, failing int32
	require.NoError(t, s.Add("ok", "@every 1s", func(context.Context) error {
		atomic.AddInt32(&ok, 1)
		return nil
	}))
	require.NoError(t, s.Add("failing", "@every 1s", func(context.Context) error {
		atomic.AddInt32(&failing, 1)
		return errors.New("boom")
	}))

	s.Start()
	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&ok) > 0 && atomic.LoadInt32(&failing) > 0
	}, 5*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Stop(ctx))
}

func TestStopCancelsRunningJob(t *testing.T) {
	s, err := New("UTC")
	require.NoError(t, err)

	started := make(chan struct{})
	cancelled := make(chan struct{})
	s.cron.Start()
	go s.run("long", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		close(cancelled)
		return ctx.Err()
	})
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("job context was not cancelled")
	}
}
