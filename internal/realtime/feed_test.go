package realtime

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, feed *Feed, table string) (*[]ChangeEvent, Subscription) {
	t.Helper()
	var mu sync.Mutex
	events := &[]ChangeEvent{}
	sub, err := feed.Watch(table, func(ev ChangeEvent) {
		mu.Lock()
		*events = append(*events, ev)
		mu.Unlock()
	})
	require.NoError(t, err)
	return events, sub
}

func TestFeed_DeliversChanges(t *testing.T) {
	bus := NewMemoryBus()
	feed := NewFeed(bus)

	events, sub := collect(t, feed, "tasks")
	defer sub.Close()

	now := time.Now()
	feed.Changed("tasks", "update", 42, now, map[string]any{"id": 42})
	bus.Flush()

	require.Len(t, *events, 1)
	assert.Equal(t, "tasks", (*events)[0].Table)
	assert.Equal(t, uint(42), (*events)[0].RowID)
}

func TestFeed_DropsStaleEvents(t *testing.T) {
	bus := NewMemoryBus()
	feed := NewFeed(bus)

	events, sub := collect(t, feed, "tasks")
	defer sub.Close()

	now := time.Now()
	// свежее событие, затем отставшее по той же строке
	feed.Changed("tasks", "update", 7, now, nil)
	bus.Flush()
	feed.Changed("tasks", "update", 7, now.Add(-time.Minute), nil)
	bus.Flush()
	// другая строка не затрагивается
	feed.Changed("tasks", "update", 8, now.Add(-time.Hour), nil)
	bus.Flush()

	require.Len(t, *events, 2)
	assert.Equal(t, uint(7), (*events)[0].RowID)
	assert.Equal(t, uint(8), (*events)[1].RowID)
}

func TestFeed_NilSafe(t *testing.T) {
	var feed *Feed
	// публикация без шины не должна паниковать
	feed.Changed("tasks", "update", 1, time.Now(), nil)
}

func TestMemoryBus_Unsubscribe(t *testing.T) {
	bus := NewMemoryBus()
	var mu sync.Mutex
	count := 0
	sub, err := bus.Subscribe("s", func([]byte) {
		mu.Lock()
		count++
		mu.Unlock()
	})
	require.NoError(t, err)

	require.NoError(t, bus.Publish("s", []byte("1")))
	bus.Flush()
	require.NoError(t, sub.Close())
	require.NoError(t, bus.Publish("s", []byte("2")))
	bus.Flush()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, count)
}
