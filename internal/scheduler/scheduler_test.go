package scheduler

import (
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubJob struct {
	name string
	runs int
	err  error
}

func (j *stubJob) Run() error   { j.runs++; return j.err }
func (j *stubJob) Name() string { return j.name }

func TestAddJob_ValidSchedule(t *testing.T) {
	s := New(zerolog.Nop())
	assert.NoError(t, s.AddJob("30 22 * * MON-FRI", &stubJob{name: "refresh"}))
	assert.NoError(t, s.AddJob("@daily", &stubJob{name: "nightly"}))
}

func TestAddJob_InvalidSchedule(t *testing.T) {
	s := New(zerolog.Nop())
	assert.Error(t, s.AddJob("not a cron expression", &stubJob{name: "bad"}))
}

func TestRunNow(t *testing.T) {
	s := New(zerolog.Nop())

	job := &stubJob{name: "ok"}
	require.NoError(t, s.RunNow(job))
	assert.Equal(t, 1, job.runs)

	failing := &stubJob{name: "broken", err: fmt.Errorf("boom")}
	assert.Error(t, s.RunNow(failing))
	assert.Equal(t, 1, failing.runs)
}

func TestStartStop(t *testing.T) {
	s := New(zerolog.Nop())
	require.NoError(t, s.AddJob("@daily", &stubJob{name: "noop"}))

	s.Start()
	s.Stop() // must return once no jobs are running
}
