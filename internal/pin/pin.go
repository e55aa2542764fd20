// Package pin — одноразовые коды входа сотрудников. Код живёт 30
// секунд и ждёт решения админа; хранение — redis с TTL или память
// процесса.
package pin

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"fieldops/internal/models"
)

// TTL — время жизни кода; по его истечении вход считается отклонённым.
const TTL = 30 * time.Second

var ErrNotFound = errors.New("pin: not found or expired")

type Store interface {
	Save(ctx context.Context, p models.LoginPin) error
	Get(ctx context.Context, code string) (models.LoginPin, error)
}

// NewCode — шестизначный одноразовый код.
func NewCode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		// crypto/rand на практике не отказывает; фоллбек на время
		return fmt.Sprintf("%06d", time.Now().UnixNano()%1000000)
	}
	return fmt.Sprintf("%06d", n.Int64())
}

const keyPrefix = "login_pin:"

type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(addr string) *RedisStore {
	return &RedisStore{rdb: redis.NewClient(&redis.Options{Addr: addr})}
}

func (s *RedisStore) Save(ctx context.Context, p models.LoginPin) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	ttl := time.Until(p.ExpiresAt)
	if ttl <= 0 {
		return ErrNotFound
	}
	return s.rdb.Set(ctx, keyPrefix+p.Code, data, ttl).Err()
}

func (s *RedisStore) Get(ctx context.Context, code string) (models.LoginPin, error) {
	data, err := s.rdb.Get(ctx, keyPrefix+code).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.LoginPin{}, ErrNotFound
	}
	if err != nil {
		return models.LoginPin{}, err
	}
	var p models.LoginPin
	if err := json.Unmarshal(data, &p); err != nil {
		return models.LoginPin{}, err
	}
	return p, nil
}

func (s *RedisStore) Close() error { return s.rdb.Close() }

// MemoryStore повторяет TTL-семантику redis в памяти процесса.
type MemoryStore struct {
	mu   sync.Mutex
	pins map[string]models.LoginPin
	now  func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{pins: make(map[string]models.LoginPin), now: time.Now}
}

func (s *MemoryStore) Save(_ context.Context, p models.LoginPin) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !p.ExpiresAt.After(s.now()) {
		return ErrNotFound
	}
	s.pins[p.Code] = p
	return nil
}

func (s *MemoryStore) Get(_ context.Context, code string) (models.LoginPin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pins[code]
	if !ok || !p.ExpiresAt.After(s.now()) {
		delete(s.pins, code)
		return models.LoginPin{}, ErrNotFound
	}
	return p, nil
}
