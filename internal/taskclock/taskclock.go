// Package taskclock — чистая логика жизненного цикла задачи:
// матрица переходов статусов, учёт пауз и вычисление фактической
// длительности. Никаких обращений к базе, время передаётся явно.
package taskclock

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"fieldops/internal/models"
)

var (
	ErrBadTransition = errors.New("taskclock: transition not allowed")
	ErrBadDuration   = errors.New("taskclock: unrecognized duration format")
)

// ParseDuration принимает оба представления интервала из легаси-данных:
// число — миллисекунды ("5000"), текст — интервал "HH:MM:SS".
// Пустая строка читается как ноль.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		if ms < 0 {
			return 0, ErrBadDuration
		}
		return time.Duration(ms) * time.Millisecond, nil
	}

	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, ErrBadDuration
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	sec, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil ||
		h < 0 || m < 0 || m > 59 || sec < 0 || sec > 59 {
		return 0, ErrBadDuration
	}

	return time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(sec)*time.Second, nil
}

// FormatInterval — каноническое хранимое представление (HH:MM:SS).
func FormatInterval(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	s := (d % time.Minute) / time.Second
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// PauseTotal — накопленная пауза задачи в нормализованном виде.
// Нечитаемое значение считаем нулём, чтобы не ронять отображение.
func PauseTotal(t *models.Task) time.Duration {
	d, err := ParseDuration(t.TotalPauseDuration)
	if err != nil {
		return 0
	}
	return d
}

// ClampProgress прижимает процент выполнения к [0,100].
func ClampProgress(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// CanTransition — матрица допустимых переходов.
// Completed терминален: выход из него только через ResetForReassignment.
func CanTransition(current, next models.TaskStatus) bool {
	if current == next {
		return false
	}
	switch next {
	case models.StatusInProgress:
		return current == models.StatusNotStarted ||
			current == models.StatusPending ||
			current == models.StatusPlanned ||
			current == models.StatusPaused
	case models.StatusPaused:
		return current == models.StatusInProgress
	case models.StatusCompleted:
		return current == models.StatusInProgress ||
			current == models.StatusPaused
	default:
		return false
	}
}

// Apply выполняет переход и все его побочные эффекты на самой задаче.
// Запись в базу — забота вызывающего.
func Apply(t *models.Task, next models.TaskStatus, now time.Time) error {
	if !CanTransition(t.Status, next) {
		return ErrBadTransition
	}

	switch next {
	case models.StatusInProgress:
		if t.StartedAt == nil {
			started := now
			t.StartedAt = &started
		}
		// возобновление: открытая пауза складывается в накопленную
		if t.LastPauseAt != nil {
			foldPause(t, now)
		}
		if t.ProgressPercentage == nil {
			zero := 0
			t.ProgressPercentage = &zero
		}

	case models.StatusPaused:
		paused := now
		t.LastPauseAt = &paused

	case models.StatusCompleted:
		if t.LastPauseAt != nil {
			foldPause(t, now)
		}
		if t.CompletedAt == nil {
			done := now
			t.CompletedAt = &done
		}
	}

	t.Status = next
	// процент осмыслен только в In Progress
	if next != models.StatusInProgress {
		t.ProgressPercentage = nil
	}
	t.UpdatedAt = now
	return nil
}

func foldPause(t *models.Task, now time.Time) {
	open := now.Sub(*t.LastPauseAt)
	if open < 0 {
		open = 0
	}
	t.TotalPauseDuration = FormatInterval(PauseTotal(t) + open)
	t.LastPauseAt = nil
}

// ResetForReassignment — явный административный сброс выполненной задачи
// для повторного назначения. Учёт времени начинается заново.
func ResetForReassignment(t *models.Task, now time.Time) {
	t.Status = models.StatusNotStarted
	t.StartedAt = nil
	t.LastPauseAt = nil
	t.TotalPauseDuration = FormatInterval(0)
	t.CompletedAt = nil
	t.ProgressPercentage = nil
	t.UpdatedAt = now
}

// Elapsed — фактическая длительность работы над задачей:
// (конец − started_at) − накопленные паузы − открытая пауза.
// Конец — completed_at, для активной задачи — переданное "сейчас".
func Elapsed(t *models.Task, now time.Time) time.Duration {
	if t.StartedAt == nil {
		return 0
	}
	ref := now
	if t.CompletedAt != nil {
		ref = *t.CompletedAt
	}

	elapsed := ref.Sub(*t.StartedAt) - PauseTotal(t)
	if t.LastPauseAt != nil && t.CompletedAt == nil {
		elapsed -= ref.Sub(*t.LastPauseAt)
	}
	if elapsed < 0 {
		elapsed = 0
	}
	return elapsed
}

// NextActionableDay — политика автопереноса: следующий рабочий день
// (суббота и воскресенье пропускаются).
func NextActionableDay(now time.Time) time.Time {
	d := now.AddDate(0, 0, 1)
	for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
		d = d.AddDate(0, 0, 1)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
}

// Forward переводит просроченную запланированную задачу в Pending.
// original_due_date фиксируется только при первом переносе.
func Forward(t *models.Task, now time.Time) {
	if t.OriginalDueDate == nil && t.DueDate != nil {
		orig := *t.DueDate
		t.OriginalDueDate = &orig
	}
	next := NextActionableDay(now)
	t.DueDate = &next
	t.Status = models.StatusPending
	t.UpdatedAt = now
}
