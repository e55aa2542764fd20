package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// abortJSON — единый вид ошибок API.
func abortJSON(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// dbErrorMessage переводит типовые ошибки базы в понятное сообщение,
// остальное отдаёт как есть.
func dbErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if strings.Contains(msg, "does not exist") || strings.Contains(msg, "no such table") {
		return "Таблицы не созданы — выполните миграции"
	}
	return msg
}
