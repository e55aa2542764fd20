// Package realtime — шина событий поверх NATS: лента изменений строк
// для открытых экранов и транспорт для сигналинга встреч.
package realtime

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// Bus — минимальный интерфейс publish/subscribe.
// Реализации: NATS в бою, MemoryBus в тестах и при запуске без брокера.
type Bus interface {
	Publish(subject string, data []byte) error
	Subscribe(subject string, handler func(data []byte)) (Subscription, error)
}

// Subscription — подписка с явным временем жизни; владелец обязан
// закрыть её вместе со своим экраном.
type Subscription interface {
	Close() error
}

type NatsBus struct {
	nc *nats.Conn
}

func Connect(url string) (*NatsBus, error) {
	nc, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(10),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NatsBus{nc: nc}, nil
}

func (b *NatsBus) Publish(subject string, data []byte) error {
	return b.nc.Publish(subject, data)
}

func (b *NatsBus) Subscribe(subject string, handler func(data []byte)) (Subscription, error) {
	sub, err := b.nc.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Data)
	})
	if err != nil {
		return nil, err
	}
	return natsSubscription{sub: sub}, nil
}

func (b *NatsBus) Conn() *nats.Conn { return b.nc }

func (b *NatsBus) Close() error {
	return b.nc.Drain()
}

type natsSubscription struct {
	sub *nats.Subscription
}

func (s natsSubscription) Close() error {
	return s.sub.Unsubscribe()
}

// MemoryBus — внутрипроцессная шина с той же семантикой доставки
// (асинхронно, best-effort). Используется в тестах и когда NATS_URL
// недоступен.
type MemoryBus struct {
	mu       sync.RWMutex
	handlers map[string][]*memorySubscription
	wg       sync.WaitGroup
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{handlers: make(map[string][]*memorySubscription)}
}

func (b *MemoryBus) Publish(subject string, data []byte) error {
	b.mu.RLock()
	subs := make([]*memorySubscription, len(b.handlers[subject]))
	copy(subs, b.handlers[subject])
	b.mu.RUnlock()

	for _, s := range subs {
		b.wg.Add(1)
		go func(s *memorySubscription) {
			defer b.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					log.Printf("[bus] handler panic on %s: %v", subject, r)
				}
			}()
			s.handler(data)
		}(s)
	}
	return nil
}

func (b *MemoryBus) Subscribe(subject string, handler func(data []byte)) (Subscription, error) {
	s := &memorySubscription{bus: b, subject: subject, handler: handler}
	b.mu.Lock()
	b.handlers[subject] = append(b.handlers[subject], s)
	b.mu.Unlock()
	return s, nil
}

// Flush дожидается доставки всех опубликованных сообщений (для тестов).
func (b *MemoryBus) Flush() {
	b.wg.Wait()
}

type memorySubscription struct {
	bus     *MemoryBus
	subject string
	handler func(data []byte)
}

func (s *memorySubscription) Close() error {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	subs := s.bus.handlers[s.subject]
	for i, cur := range subs {
		if cur == s {
			s.bus.handlers[s.subject] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	return nil
}
