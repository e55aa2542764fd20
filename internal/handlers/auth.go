package handlers

import (
	"net/http"
	"strings"

	"fieldops/internal/auth"
	"fieldops/internal/database"
	"fieldops/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

type loginInput struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login — вход по паролю. Ставит cookie-сессию и вместе с ней отдаёт
// bearer-токен для мобильного клиента.
func Login(c *gin.Context) {
	var in loginInput
	if err := c.ShouldBindJSON(&in); err != nil {
		abortJSON(c, http.StatusBadRequest, "Некорректные данные")
		return
	}

	var user models.User
	if err := database.DB.Where("username = ?", strings.TrimSpace(in.Username)).First(&user).Error; err != nil {
		abortJSON(c, http.StatusBadRequest, "Неверный логин или пароль")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		abortJSON(c, http.StatusBadRequest, "Неверный логин или пароль")
		return
	}

	token, err := auth.GenerateToken(user)
	if err != nil {
		abortJSON(c, http.StatusInternalServerError, "Не удалось выпустить токен")
		return
	}

	sess := sessions.Default(c)
	sess.Set("user_id", user.ID)
	sess.Set("role", string(user.Role))
	_ = sess.Save()

	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

func Logout(c *gin.Context) {
	sess := sessions.Default(c)
	sess.Clear()
	_ = sess.Save()
	c.JSON(http.StatusOK, gin.H{"message": "Выход выполнен"})
}
