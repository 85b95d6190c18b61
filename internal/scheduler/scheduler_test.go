package scheduler

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestScheduler_AddJob(t *testing.T) {
	s := New(zaptest.NewLogger(t))

	require.NoError(t, s.AddJob("30 7 * * 1-5", JobFunc{JobName: "scan", Fn: func() error { return nil }}))
	require.NoError(t, s.AddJob("@daily", JobFunc{JobName: "fetch", Fn: func() error { return nil }}))
	assert.Equal(t, 2, s.Len())
}

func TestScheduler_RejectsBadSchedule(t *testing.T) {
	s := New()

	err := s.AddJob("every tuesday", JobFunc{JobName: "scan", Fn: func() error { return nil }})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "scan")
	assert.Equal(t, 0, s.Len())
}

func TestScheduler_RunsJobs(t *testing.T) {
	s := New(zaptest.NewLogger(t))

	var ok, failed atomic.Int32
	require.NoError(t, s.AddJob("@every 1s", JobFunc{JobName: "ok", Fn: func() error {
		ok.Add(1)
		return nil
	}}))
	require.NoError(t, s.AddJob("@every 1s", JobFunc{JobName: "failing", Fn: func() error {
		failed.Add(1)
		return errors.New("upstream down")
	}}))

	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return ok.Load() > 0 && failed.Load() > 0
	}, 3*time.Second, 20*time.Millisecond)
}
