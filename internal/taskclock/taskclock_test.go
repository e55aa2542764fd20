package taskclock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldops/internal/models"
)

var base = time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC) // понедельник

func TestParseDuration(t *testing.T) {
	cases := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"", 0, false},
		{"0", 0, false},
		{"5000", 5 * time.Second, false},          // легаси-миллисекунды
		{"90000", 90 * time.Second, false},
		{"00:00:05", 5 * time.Second, false},      // интервальный текст
		{"01:30:00", 90 * time.Minute, false},
		{"123:00:01", 123*time.Hour + time.Second, false},
		{" 00:01:40 ", 100 * time.Second, false},
		{"-5000", 0, true},
		{"00:61:00", 0, true},
		{"1:2", 0, true},
		{"abc", 0, true},
	}
	for _, c := range cases {
		got, err := ParseDuration(c.in)
		if c.wantErr {
			assert.Error(t, err, "input %q", c.in)
			continue
		}
		require.NoError(t, err, "input %q", c.in)
		assert.Equal(t, c.want, got, "input %q", c.in)
	}
}

func TestFormatInterval_RoundTrip(t *testing.T) {
	for _, d := range []time.Duration{0, time.Second, 100 * time.Second, 90 * time.Minute, 25 * time.Hour} {
		got, err := ParseDuration(FormatInterval(d))
		require.NoError(t, err)
		assert.Equal(t, d, got)
	}
}

func TestClampProgress(t *testing.T) {
	assert.Equal(t, 0, ClampProgress(-5))
	assert.Equal(t, 0, ClampProgress(0))
	assert.Equal(t, 42, ClampProgress(42))
	assert.Equal(t, 100, ClampProgress(100))
	assert.Equal(t, 100, ClampProgress(150))
}

func TestApply_StartPauseResume(t *testing.T) {
	task := &models.Task{Status: models.StatusNotStarted}

	// t=0: старт
	require.NoError(t, Apply(task, models.StatusInProgress, base))
	require.NotNil(t, task.StartedAt)
	assert.Equal(t, base, *task.StartedAt)
	require.NotNil(t, task.ProgressPercentage)

	// t=10s: пауза
	require.NoError(t, Apply(task, models.StatusPaused, base.Add(10*time.Second)))
	require.NotNil(t, task.LastPauseAt)

	// t=15s: возобновление — накоплено ровно 5 секунд паузы
	require.NoError(t, Apply(task, models.StatusInProgress, base.Add(15*time.Second)))
	assert.Nil(t, task.LastPauseAt)
	assert.Equal(t, 5*time.Second, PauseTotal(task))

	// started_at не переустанавливается при возобновлении
	assert.Equal(t, base, *task.StartedAt)
}

func TestApply_PauseAccumulationOverCycles(t *testing.T) {
	task := &models.Task{Status: models.StatusNotStarted}
	now := base
	require.NoError(t, Apply(task, models.StatusInProgress, now))

	// N циклов пауза/возобновление: накопленная пауза равна сумме интервалов
	var want time.Duration
	for i := 1; i <= 7; i++ {
		now = now.Add(time.Minute)
		require.NoError(t, Apply(task, models.StatusPaused, now))
		pause := time.Duration(i) * 13 * time.Second
		now = now.Add(pause)
		require.NoError(t, Apply(task, models.StatusInProgress, now))
		want += pause
	}
	assert.Equal(t, want, PauseTotal(task))
}

func TestApply_CompleteFoldsOpenPause(t *testing.T) {
	task := &models.Task{Status: models.StatusNotStarted}
	require.NoError(t, Apply(task, models.StatusInProgress, base))
	require.NoError(t, Apply(task, models.StatusPaused, base.Add(10*time.Second)))

	// завершение из паузы: открытый интервал складывается перед фиксацией
	done := base.Add(25 * time.Second)
	require.NoError(t, Apply(task, models.StatusCompleted, done))

	assert.Equal(t, 15*time.Second, PauseTotal(task))
	require.NotNil(t, task.CompletedAt)
	assert.Equal(t, done, *task.CompletedAt)
	assert.Nil(t, task.LastPauseAt)
	assert.Nil(t, task.ProgressPercentage)

	// completed_at выставляется ровно один раз
	assert.Error(t, Apply(task, models.StatusInProgress, done.Add(time.Second)))
}

func TestApply_RejectsBadTransitions(t *testing.T) {
	cases := []struct{ from, to models.TaskStatus }{
		{models.StatusNotStarted, models.StatusPaused},
		{models.StatusNotStarted, models.StatusCompleted},
		{models.StatusPaused, models.StatusPaused},
		{models.StatusCompleted, models.StatusInProgress},
		{models.StatusCompleted, models.StatusNotStarted},
		{models.StatusInProgress, models.StatusInProgress},
		{models.StatusInProgress, models.StatusPlanned},
	}
	for _, c := range cases {
		task := &models.Task{Status: c.from}
		assert.ErrorIs(t, Apply(task, c.to, base), ErrBadTransition, "%s -> %s", c.from, c.to)
	}
}

func TestElapsed(t *testing.T) {
	task := &models.Task{Status: models.StatusNotStarted}
	assert.Equal(t, time.Duration(0), Elapsed(task, base))

	require.NoError(t, Apply(task, models.StatusInProgress, base))
	assert.Equal(t, 30*time.Second, Elapsed(task, base.Add(30*time.Second)))

	// во время паузы часы стоят
	require.NoError(t, Apply(task, models.StatusPaused, base.Add(30*time.Second)))
	assert.Equal(t, 30*time.Second, Elapsed(task, base.Add(2*time.Minute)))

	require.NoError(t, Apply(task, models.StatusInProgress, base.Add(2*time.Minute)))
	assert.Equal(t, 40*time.Second, Elapsed(task, base.Add(2*time.Minute+10*time.Second)))

	// после завершения значение замораживается на completed_at
	require.NoError(t, Apply(task, models.StatusCompleted, base.Add(3*time.Minute)))
	frozen := Elapsed(task, base.Add(3*time.Minute))
	assert.Equal(t, 90*time.Second, frozen)
	assert.Equal(t, frozen, Elapsed(task, base.Add(time.Hour)))
}

func TestElapsed_MonotoneBeforePersist(t *testing.T) {
	task := &models.Task{Status: models.StatusNotStarted}
	require.NoError(t, Apply(task, models.StatusInProgress, base))

	prev := Elapsed(task, base)
	for i := 1; i <= 60; i++ {
		cur := Elapsed(task, base.Add(time.Duration(i)*time.Second))
		assert.GreaterOrEqual(t, cur, prev)
		prev = cur
	}
}

func TestElapsed_LegacyMillisecondsPause(t *testing.T) {
	started := base
	done := base.Add(time.Minute)
	task := &models.Task{
		Status:             models.StatusCompleted,
		StartedAt:          &started,
		CompletedAt:        &done,
		TotalPauseDuration: "5000", // старый числовой формат
	}
	assert.Equal(t, 55*time.Second, Elapsed(task, done.Add(time.Hour)))
}

func TestResetForReassignment(t *testing.T) {
	task := &models.Task{Status: models.StatusNotStarted}
	require.NoError(t, Apply(task, models.StatusInProgress, base))
	require.NoError(t, Apply(task, models.StatusCompleted, base.Add(time.Minute)))

	ResetForReassignment(task, base.Add(2*time.Minute))
	assert.Equal(t, models.StatusNotStarted, task.Status)
	assert.Nil(t, task.StartedAt)
	assert.Nil(t, task.CompletedAt)
	assert.Equal(t, time.Duration(0), PauseTotal(task))
}

func TestNextActionableDay(t *testing.T) {
	// понедельник -> вторник
	assert.Equal(t, time.Tuesday, NextActionableDay(base).Weekday())
	// пятница -> понедельник
	friday := time.Date(2025, time.March, 7, 15, 0, 0, 0, time.UTC)
	next := NextActionableDay(friday)
	assert.Equal(t, time.Monday, next.Weekday())
	assert.Equal(t, 10, next.Day())
	// суббота -> понедельник
	saturday := friday.AddDate(0, 0, 1)
	assert.Equal(t, time.Monday, NextActionableDay(saturday).Weekday())
}

func TestForward_SnapshotIdempotent(t *testing.T) {
	due := base.AddDate(0, 0, -3)
	task := &models.Task{Status: models.StatusPlanned, DueDate: &due}

	Forward(task, base)
	require.NotNil(t, task.OriginalDueDate)
	assert.Equal(t, due, *task.OriginalDueDate)
	assert.Equal(t, models.StatusPending, task.Status)
	firstDue := *task.DueDate
	assert.True(t, firstDue.After(due))

	// повторный прогон двигает due_date, но не трогает снимок
	Forward(task, base.AddDate(0, 0, 2))
	assert.Equal(t, due, *task.OriginalDueDate)
	assert.True(t, task.DueDate.After(firstDue))
}
