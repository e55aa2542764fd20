package middleware

import (
	"net/http"
	"strings"

	"fieldops/internal/auth"
	"fieldops/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// RequireAuth пускает либо по cookie-сессии (веб-клиент админа),
// либо по bearer-токену (мобильный клиент сотрудника).
// В контекст кладутся user_id и role.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if header := c.GetHeader("Authorization"); header != "" {
			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Некорректный заголовок Authorization"})
				return
			}
			claims, err := auth.ParseToken(parts[1])
			if err != nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Недействительный токен"})
				return
			}
			c.Set("user_id", claims.UserID)
			c.Set("role", claims.Role)
			c.Next()
			return
		}

		sess := sessions.Default(c)
		uid, ok := sess.Get("user_id").(uint)
		if !ok || uid == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Требуется вход"})
			return
		}
		roleStr, _ := sess.Get("role").(string)
		c.Set("user_id", uid)
		c.Set("role", models.UserRole(roleStr))
		c.Next()
	}
}

func RequireRole(roles ...models.UserRole) gin.HandlerFunc {
	roleSet := map[models.UserRole]struct{}{}
	for _, r := range roles {
		roleSet[r] = struct{}{}
	}

	return func(c *gin.Context) {
		role, ok := c.Get("role")
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Требуется вход"})
			return
		}
		if _, allowed := roleSet[role.(models.UserRole)]; !allowed {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Недостаточно прав"})
			return
		}
		c.Next()
	}
}

// CurrentUserID — id действующего пользователя из контекста запроса.
func CurrentUserID(c *gin.Context) uint {
	uid, _ := c.Get("user_id")
	id, _ := uid.(uint)
	return id
}

// CurrentRole — роль действующего пользователя.
func CurrentRole(c *gin.Context) models.UserRole {
	role, _ := c.Get("role")
	r, _ := role.(models.UserRole)
	return r
}
