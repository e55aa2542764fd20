package middleware

import (
	"fieldops/internal/database"
	"fieldops/internal/models"

	"github.com/gin-gonic/gin"
)

// InjectUser подгружает полную запись пользователя после RequireAuth.
// Нужен хендлерам, которым мало одного id (профиль, отчёты).
func InjectUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if uid := CurrentUserID(c); uid > 0 {
			var user models.User
			if err := database.DB.First(&user, uid).Error; err == nil {
				c.Set("CurrentUser", user)
			}
		}
		c.Next()
	}
}
