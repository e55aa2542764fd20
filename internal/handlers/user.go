package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"fieldops/internal/database"
	"fieldops/internal/middleware"
	"fieldops/internal/models"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

func ListUsers(c *gin.Context) {
	var users []models.User
	q := database.DB.Order("username asc")
	if role := c.Query("role"); role != "" {
		q = q.Where("role = ?", role)
	}
	if err := q.Find(&users).Error; err != nil {
		abortJSON(c, http.StatusInternalServerError, dbErrorMessage(err))
		return
	}
	c.JSON(http.StatusOK, users)
}

type createUserInput struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Skills   string `json:"skills"`
}

// CreateUser — заведение учётки админом; самостоятельной регистрации нет.
func CreateUser(c *gin.Context) {
	var in createUserInput
	if err := c.ShouldBindJSON(&in); err != nil {
		abortJSON(c, http.StatusBadRequest, "Некорректные данные")
		return
	}

	in.Username = strings.TrimSpace(in.Username)
	if len(in.Username) < 3 || len(in.Password) < 6 {
		abortJSON(c, http.StatusBadRequest, "Слишком короткий логин или пароль")
		return
	}

	role := models.UserRole(in.Role)
	if role == "" {
		role = models.RoleEmployee
	}
	if role != models.RoleAdmin && role != models.RoleEmployee {
		abortJSON(c, http.StatusBadRequest, "Неверная роль")
		return
	}

	var existing models.User
	if err := database.DB.Where("username = ?", in.Username).First(&existing).Error; err == nil {
		abortJSON(c, http.StatusBadRequest, "Пользователь уже существует")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		abortJSON(c, http.StatusInternalServerError, "Ошибка хеширования пароля")
		return
	}

	user := models.User{
		Username:     in.Username,
		PasswordHash: string(hash),
		Role:         role,
		FullName:     in.FullName,
		Email:        in.Email,
		Phone:        in.Phone,
		Skills:       in.Skills,
	}
	if err := database.DB.Create(&user).Error; err != nil {
		abortJSON(c, http.StatusInternalServerError, dbErrorMessage(err))
		return
	}

	database.CreateAuditLog(middleware.CurrentUserID(c), "user", user.ID, "create", "Создан пользователь "+user.Username)

	c.JSON(http.StatusOK, user)
}

type updateUserInput struct {
	FullName *string `json:"full_name"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	Skills   *string `json:"skills"`
}

// UpdateUser — профиль. Сотрудник меняет только свой, админ — любой.
func UpdateUser(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		abortJSON(c, http.StatusBadRequest, "Некорректный ID")
		return
	}

	actorID := middleware.CurrentUserID(c)
	if middleware.CurrentRole(c) != models.RoleAdmin && actorID != uint(id) {
		abortJSON(c, http.StatusForbidden, "Можно менять только свой профиль")
		return
	}

	var user models.User
	if err := database.DB.First(&user, id).Error; err != nil {
		abortJSON(c, http.StatusNotFound, "Пользователь не найден")
		return
	}

	var in updateUserInput
	if err := c.ShouldBindJSON(&in); err != nil {
		abortJSON(c, http.StatusBadRequest, "Некорректные данные")
		return
	}

	if in.FullName != nil {
		user.FullName = *in.FullName
	}
	if in.Email != nil {
		user.Email = *in.Email
	}
	if in.Phone != nil {
		user.Phone = *in.Phone
	}
	if in.Skills != nil {
		user.Skills = *in.Skills
	}

	if err := database.DB.Save(&user).Error; err != nil {
		abortJSON(c, http.StatusInternalServerError, dbErrorMessage(err))
		return
	}

	c.JSON(http.StatusOK, user)
}

type deleteUserInput struct {
	Reason string `json:"reason"`
}

// DeleteUser — "мягкое" удаление: причина обязательна, строка уходит
// в архив DeletedUser и только потом удаляется.
func DeleteUser(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		abortJSON(c, http.StatusBadRequest, "Некорректный ID")
		return
	}

	var in deleteUserInput
	if err := c.ShouldBindJSON(&in); err != nil || strings.TrimSpace(in.Reason) == "" {
		abortJSON(c, http.StatusBadRequest, "Укажите причину удаления")
		return
	}

	var user models.User
	if err := database.DB.First(&user, id).Error; err != nil {
		abortJSON(c, http.StatusNotFound, "Пользователь не найден")
		return
	}

	actorID := middleware.CurrentUserID(c)
	archive := models.DeletedUser{
		UserID:      user.ID,
		Username:    user.Username,
		FullName:    user.FullName,
		Role:        user.Role,
		Reason:      strings.TrimSpace(in.Reason),
		DeletedByID: actorID,
	}
	if err := database.DB.Create(&archive).Error; err != nil {
		abortJSON(c, http.StatusInternalServerError, dbErrorMessage(err))
		return
	}

	if err := database.DB.Delete(&user).Error; err != nil {
		abortJSON(c, http.StatusInternalServerError, dbErrorMessage(err))
		return
	}

	database.CreateAuditLog(actorID, "user", user.ID, "delete", "Удалён пользователь "+user.Username+": "+archive.Reason)

	c.JSON(http.StatusOK, gin.H{"message": "Пользователь удалён"})
}
