package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"fieldops/internal/database"
	"fieldops/internal/middleware"
	"fieldops/internal/models"
	"fieldops/internal/taskclock"

	"github.com/gin-gonic/gin"
)

type TransitionInput struct {
	Status string `json:"status" binding:"required"`
}

// TransitionTask — смена статуса исполнителем. Побочные эффекты по
// времени считает taskclock, запись в базу — одним условным UPDATE,
// охраняемым принадлежностью к исполнителям: чужой пользователь не
// перепишет задачу даже при гонке. Автоповторов нет — при отказе
// состояние в базе не меняется, ошибка уходит клиенту.
func TransitionTask(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		abortJSON(c, http.StatusBadRequest, "Некорректный ID")
		return
	}

	var in TransitionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		abortJSON(c, http.StatusBadRequest, "Некорректные данные")
		return
	}
	next := models.TaskStatus(in.Status)

	var task models.Task
	if err := database.DB.First(&task, id).Error; err != nil {
		abortJSON(c, http.StatusNotFound, "Задача не найдена")
		return
	}

	actor := middleware.CurrentUserID(c)
	// авторизация до любых изменений
	if !isAssignee(task.ID, actor) {
		abortJSON(c, http.StatusForbidden, "Вы не исполнитель этой задачи")
		return
	}

	now := time.Now()
	if err := taskclock.Apply(&task, next, now); err != nil {
		if errors.Is(err, taskclock.ErrBadTransition) {
			abortJSON(c, http.StatusConflict, "Недопустимый переход статуса")
			return
		}
		abortJSON(c, http.StatusInternalServerError, err.Error())
		return
	}

	updates := map[string]interface{}{
		"status":               task.Status,
		"progress_percentage":  task.ProgressPercentage,
		"started_at":           task.StartedAt,
		"last_pause_at":        task.LastPauseAt,
		"total_pause_duration": task.TotalPauseDuration,
		"completed_at":         task.CompletedAt,
		"updated_at":           now,
	}

	owned := database.DB.Model(&models.TaskAssignee{}).
		Select("task_id").
		Where("task_id = ? AND user_id = ?", task.ID, actor)

	res := database.DB.Model(&models.Task{}).
		Where("id = ? AND id IN (?)", task.ID, owned).
		Updates(updates)
	if res.Error != nil {
		abortJSON(c, http.StatusInternalServerError, dbErrorMessage(res.Error))
		return
	}
	if res.RowsAffected == 0 {
		// исполнителя сняли между проверкой и записью
		abortJSON(c, http.StatusForbidden, "Вы не исполнитель этой задачи")
		return
	}

	database.CreateAuditLog(actor, "task", task.ID, "status_change", "Статус изменён на: "+string(next))
	feed.Changed("tasks", "update", task.ID, now, task)

	c.JSON(http.StatusOK, gin.H{
		"task":            task,
		"elapsed_seconds": int64(taskclock.Elapsed(&task, now).Seconds()),
	})
}
