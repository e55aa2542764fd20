package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"fieldops/internal/auth"
	"fieldops/internal/database"
	"fieldops/internal/middleware"
	"fieldops/internal/models"
	"fieldops/internal/pin"

	"github.com/gin-gonic/gin"
)

// PIN-вход сотрудника: устройство запрашивает код, админ одобряет,
// устройство опрашивает статус (или слушает pin.<code> на шине).
// Истечение 30 секунд само по себе означает отказ.

func pinSubject(code string) string { return "pin." + code }

type requestPinInput struct {
	Username string `json:"username" binding:"required"`
}

func RequestLoginPin(c *gin.Context) {
	var in requestPinInput
	if err := c.ShouldBindJSON(&in); err != nil {
		abortJSON(c, http.StatusBadRequest, "Некорректные данные")
		return
	}

	var user models.User
	if err := database.DB.Where("username = ?", strings.TrimSpace(in.Username)).First(&user).Error; err != nil {
		abortJSON(c, http.StatusNotFound, "Пользователь не найден")
		return
	}
	if user.Role != models.RoleEmployee {
		abortJSON(c, http.StatusForbidden, "PIN-вход доступен только сотрудникам")
		return
	}

	now := time.Now()
	p := models.LoginPin{
		Code:      pin.NewCode(),
		UserID:    user.ID,
		Username:  user.Username,
		Status:    models.PinPending,
		CreatedAt: now,
		ExpiresAt: now.Add(pin.TTL),
	}
	if err := pins.Save(c.Request.Context(), p); err != nil {
		abortJSON(c, http.StatusInternalServerError, "Не удалось создать код входа")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":       p.Code,
		"expires_at": p.ExpiresAt,
	})
}

// LoginPinStatus — статус кода для опрашивающего устройства.
// Пропавший из хранилища код означает, что 30 секунд вышли.
func LoginPinStatus(c *gin.Context) {
	code := c.Param("code")

	p, err := pins.Get(c.Request.Context(), code)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"status": models.PinExpired})
		return
	}

	resp := gin.H{"status": p.Status}
	if p.Status == models.PinApproved {
		var user models.User
		if err := database.DB.First(&user, p.UserID).Error; err == nil {
			if token, err := auth.GenerateToken(user); err == nil {
				resp["token"] = token
				resp["user"] = user
			}
		}
	}
	c.JSON(http.StatusOK, resp)
}

type reviewPinInput struct {
	Approve bool `json:"approve"`
}

// ReviewLoginPin — решение админа; чем бы оно ни было, событие уходит
// в канал pin.<code>, чтобы устройство узнало о нём без опроса.
func ReviewLoginPin(c *gin.Context) {
	code := c.Param("code")

	var in reviewPinInput
	if err := c.ShouldBindJSON(&in); err != nil {
		abortJSON(c, http.StatusBadRequest, "Некорректные данные")
		return
	}

	p, err := pins.Get(c.Request.Context(), code)
	if err != nil {
		abortJSON(c, http.StatusGone, "Код не найден или истёк")
		return
	}
	if p.Status != models.PinPending {
		abortJSON(c, http.StatusConflict, "Код уже обработан")
		return
	}

	if in.Approve {
		p.Status = models.PinApproved
	} else {
		p.Status = models.PinRejected
	}
	if err := pins.Save(c.Request.Context(), p); err != nil {
		abortJSON(c, http.StatusInternalServerError, "Не удалось сохранить решение")
		return
	}

	database.CreateAuditLog(middleware.CurrentUserID(c), "pin", p.UserID, "review", "PIN "+string(p.Status))

	if bus != nil {
		if data, err := json.Marshal(gin.H{"code": p.Code, "status": p.Status}); err == nil {
			_ = bus.Publish(pinSubject(p.Code), data)
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": p.Status})
}
