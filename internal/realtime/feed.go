package realtime

import (
	"encoding/json"
	"log"
	"sync"
	"time"
)

// ChangeEvent — уведомление об изменении строки. Payload несёт свежую
// копию строки, UpdatedAt нужен получателю для отбрасывания устаревших
// событий.
type ChangeEvent struct {
	Table     string          `json:"table"`
	Event     string          `json:"event"` // insert / update / delete
	RowID     uint            `json:"row_id"`
	UpdatedAt time.Time       `json:"updated_at"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// Feed публикует ленту изменений по таблицам.
type Feed struct {
	bus Bus
}

func NewFeed(bus Bus) *Feed {
	return &Feed{bus: bus}
}

func changeSubject(table string) string { return "changes." + table }

// Changed — best-effort: ошибка публикации логируется и не влияет
// на сам запрос.
func (f *Feed) Changed(table, event string, rowID uint, updatedAt time.Time, row interface{}) {
	if f == nil || f.bus == nil {
		return
	}
	ev := ChangeEvent{Table: table, Event: event, RowID: rowID, UpdatedAt: updatedAt}
	if row != nil {
		if payload, err := json.Marshal(row); err == nil {
			ev.Payload = payload
		}
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if err := f.bus.Publish(changeSubject(table), data); err != nil {
		log.Printf("[feed] publish %s failed: %v", changeSubject(table), err)
	}
}

// Watch подписывает обработчик на изменения таблицы. События со
// штампом старее уже увиденного для той же строки отбрасываются —
// защита от гонки устаревшего события с локальной правкой.
func (f *Feed) Watch(table string, handler func(ChangeEvent)) (Subscription, error) {
	var mu sync.Mutex
	seen := make(map[uint]time.Time)

	return f.bus.Subscribe(changeSubject(table), func(data []byte) {
		var ev ChangeEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return
		}
		mu.Lock()
		if last, ok := seen[ev.RowID]; ok && ev.UpdatedAt.Before(last) {
			mu.Unlock()
			return // устаревшее событие
		}
		seen[ev.RowID] = ev.UpdatedAt
		mu.Unlock()
		handler(ev)
	})
}
