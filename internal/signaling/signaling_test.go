package signaling

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldops/internal/realtime"
)

func TestInvite_DeliveredToPersonalChannels(t *testing.T) {
	bus := realtime.NewMemoryBus()
	svc := NewService(bus)

	got := make(chan Message, 2)
	for _, userID := range []uint{2, 3} {
		_, err := bus.Subscribe(userSubject(userID), func(data []byte) {
			var msg Message
			require.NoError(t, json.Unmarshal(data, &msg))
			got <- msg
		})
		require.NoError(t, err)
	}

	meetingID := NewMeetingID()
	errs := svc.Invite(meetingID, 1, []uint{2, 3}, MediaVideo)
	assert.Empty(t, errs)
	bus.Flush()

	for i := 0; i < 2; i++ {
		msg := <-got
		assert.Equal(t, KindInvite, msg.Kind)
		assert.Equal(t, meetingID, msg.MeetingID)
		assert.Equal(t, uint(1), msg.From)
		assert.Equal(t, MediaVideo, msg.MediaType)
	}
}

func TestSession_AccumulatesAccepts(t *testing.T) {
	bus := realtime.NewMemoryBus()
	svc := NewService(bus)

	meetingID := NewMeetingID()
	session, err := svc.Open(meetingID)
	require.NoError(t, err)
	defer session.Close()

	require.NoError(t, svc.Accept(meetingID, 2))
	require.NoError(t, svc.Accept(meetingID, 3))
	require.NoError(t, svc.Accept(meetingID, 2)) // повтор не дублирует
	bus.Flush()

	assert.ElementsMatch(t, []uint{2, 3}, session.Participants())
	assert.False(t, session.Cancelled())
}

func TestSession_Cancel(t *testing.T) {
	bus := realtime.NewMemoryBus()
	svc := NewService(bus)

	meetingID := NewMeetingID()
	session, err := svc.Open(meetingID)
	require.NoError(t, err)
	defer session.Close()

	require.NoError(t, svc.Cancel(meetingID, 1, []uint{2, 3}))
	bus.Flush()

	assert.True(t, session.Cancelled())
}

func TestSession_CloseStopsDelivery(t *testing.T) {
	bus := realtime.NewMemoryBus()
	svc := NewService(bus)

	meetingID := NewMeetingID()
	session, err := svc.Open(meetingID)
	require.NoError(t, err)
	require.NoError(t, session.Close())

	require.NoError(t, svc.Accept(meetingID, 2))
	bus.Flush()

	assert.Empty(t, session.Participants())
}

func TestShareLink(t *testing.T) {
	link := ShareLink("https://fieldops.example", "abc-123", MediaAudio)
	assert.Equal(t, "https://fieldops.example/meeting/join?meeting=abc-123&type=audio", link)

	// без базового адреса — относительный путь, origin подставит клиент
	link = ShareLink("", "abc-123", MediaVideo)
	assert.Equal(t, "/meeting/join?meeting=abc-123&type=video", link)
}
