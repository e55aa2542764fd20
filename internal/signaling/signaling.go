// Package signaling — лёгкое рукопожатие invite/accept/cancel для
// встреч поверх шины. Без персистентности и без гарантий доставки:
// потерянное приглашение просто не дойдёт.
package signaling

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sync"

	"github.com/google/uuid"

	"fieldops/internal/realtime"
)

type MediaType string

const (
	MediaAudio MediaType = "audio"
	MediaVideo MediaType = "video"
)

const (
	KindInvite = "invite"
	KindAccept = "accept"
	KindCancel = "cancel"
)

type Message struct {
	Kind      string    `json:"kind"`
	MeetingID string    `json:"meeting_id"`
	From      uint      `json:"from"`
	To        []uint    `json:"to,omitempty"`
	MediaType MediaType `json:"media_type,omitempty"`
}

func userSubject(id uint) string      { return fmt.Sprintf("meeting.user.%d", id) }
func meetingSubject(id string) string { return "meeting.room." + id }

func NewMeetingID() string { return uuid.NewString() }

type Service struct {
	bus realtime.Bus
}

func NewService(bus realtime.Bus) *Service {
	return &Service{bus: bus}
}

// Invite рассылает приглашение в персональный канал каждого участника.
// Доставка best-effort: ошибки по отдельным адресатам собираются,
// остальных это не останавливает.
func (s *Service) Invite(meetingID string, from uint, to []uint, media MediaType) []error {
	var errs []error
	for _, userID := range to {
		msg := Message{Kind: KindInvite, MeetingID: meetingID, From: from, To: []uint{userID}, MediaType: media}
		if err := s.publish(userSubject(userID), msg); err != nil {
			errs = append(errs, fmt.Errorf("invite user %d: %w", userID, err))
		}
	}
	return errs
}

// Accept — ответ приглашённого в общий канал встречи.
func (s *Service) Accept(meetingID string, from uint) error {
	return s.publish(meetingSubject(meetingID), Message{Kind: KindAccept, MeetingID: meetingID, From: from})
}

// Cancel завершает встречу для всех: сообщение уходит и в канал
// встречи, и в персональные каналы.
func (s *Service) Cancel(meetingID string, from uint, to []uint) error {
	msg := Message{Kind: KindCancel, MeetingID: meetingID, From: from, To: to}
	err := s.publish(meetingSubject(meetingID), msg)
	for _, userID := range to {
		_ = s.publish(userSubject(userID), msg)
	}
	return err
}

func (s *Service) publish(subject string, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return s.bus.Publish(subject, data)
}

// Session — взгляд инициатора на встречу: подписка на канал встречи,
// копящая принявших участников. Закрывается вместе с экраном.
type Session struct {
	MeetingID string

	mu        sync.Mutex
	accepted  map[uint]struct{}
	cancelled bool
	sub       realtime.Subscription
}

// Open подписывает инициатора на канал встречи.
func (s *Service) Open(meetingID string) (*Session, error) {
	session := &Session{
		MeetingID: meetingID,
		accepted:  make(map[uint]struct{}),
	}
	sub, err := s.bus.Subscribe(meetingSubject(meetingID), func(data []byte) {
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			return
		}
		session.mu.Lock()
		defer session.mu.Unlock()
		switch msg.Kind {
		case KindAccept:
			session.accepted[msg.From] = struct{}{}
		case KindCancel:
			session.cancelled = true
		}
	})
	if err != nil {
		return nil, err
	}
	session.sub = sub
	return session, nil
}

// Participants — id участников, принявших приглашение.
func (s *Session) Participants() []uint {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]uint, 0, len(s.accepted))
	for id := range s.accepted {
		ids = append(ids, id)
	}
	return ids
}

func (s *Session) Cancelled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelled
}

func (s *Session) Close() error {
	if s.sub == nil {
		return nil
	}
	return s.sub.Close()
}

// ShareLink собирает ссылку-приглашение для внешнего мессенджера.
// Без настроенного базового адреса отдаём относительный путь —
// клиент подставит свой origin.
func ShareLink(baseURL, meetingID string, media MediaType) string {
	q := url.Values{}
	q.Set("meeting", meetingID)
	q.Set("type", string(media))
	return baseURL + "/meeting/join?" + q.Encode()
}
