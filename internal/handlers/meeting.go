package handlers

import (
	"net/http"

	"fieldops/internal/middleware"
	"fieldops/internal/signaling"

	"github.com/gin-gonic/gin"
)

type createMeetingInput struct {
	InviteeIDs []uint `json:"invitee_ids" binding:"required"`
	MediaType  string `json:"media_type"`
}

// CreateMeeting — инициатор создаёт встречу: случайный id, приглашения
// в персональные каналы участников, ссылка для внешнего мессенджера.
// Всё best-effort: недоставленное приглашение молча пропадает.
func CreateMeeting(c *gin.Context) {
	var in createMeetingInput
	if err := c.ShouldBindJSON(&in); err != nil || len(in.InviteeIDs) == 0 {
		abortJSON(c, http.StatusBadRequest, "Укажите участников")
		return
	}

	media := signaling.MediaType(in.MediaType)
	if media != signaling.MediaAudio && media != signaling.MediaVideo {
		media = signaling.MediaVideo
	}

	meetingID := signaling.NewMeetingID()
	from := middleware.CurrentUserID(c)

	inviteErrors := map[string]string{}
	for _, err := range signal.Invite(meetingID, from, in.InviteeIDs, media) {
		inviteErrors[err.Error()] = "не доставлено"
	}

	// без настроенного PUBLIC_BASE_URL ссылка строится от адреса,
	// по которому пришёл сам запрос
	base := publicBaseURL
	if base == "" {
		scheme := "http"
		if c.Request.TLS != nil {
			scheme = "https"
		}
		base = scheme + "://" + c.Request.Host
	}

	c.JSON(http.StatusOK, gin.H{
		"meeting_id": meetingID,
		"media_type": media,
		"share_link": signaling.ShareLink(base, meetingID, media),
		"errors":     inviteErrors,
	})
}

type acceptMeetingInput struct {
	MeetingID string `json:"meeting_id" binding:"required"`
}

func AcceptMeeting(c *gin.Context) {
	var in acceptMeetingInput
	if err := c.ShouldBindJSON(&in); err != nil {
		abortJSON(c, http.StatusBadRequest, "Некорректные данные")
		return
	}
	if err := signal.Accept(in.MeetingID, middleware.CurrentUserID(c)); err != nil {
		abortJSON(c, http.StatusBadGateway, "Не удалось отправить ответ")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Приглашение принято"})
}

type cancelMeetingInput struct {
	MeetingID  string `json:"meeting_id" binding:"required"`
	InviteeIDs []uint `json:"invitee_ids"`
}

func CancelMeeting(c *gin.Context) {
	var in cancelMeetingInput
	if err := c.ShouldBindJSON(&in); err != nil {
		abortJSON(c, http.StatusBadRequest, "Некорректные данные")
		return
	}
	if err := signal.Cancel(in.MeetingID, middleware.CurrentUserID(c), in.InviteeIDs); err != nil {
		abortJSON(c, http.StatusBadGateway, "Не удалось завершить встречу")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Встреча завершена"})
}
