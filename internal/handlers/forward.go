package handlers

import (
	"net/http"
	"strconv"
	"time"

	"fieldops/internal/database"
	"fieldops/internal/middleware"
	"fieldops/internal/models"
	"fieldops/internal/taskclock"

	"github.com/gin-gonic/gin"
)

// ForwardOverdueTasks — ручной административный пакет: просроченные
// запланированные задачи переводятся в Pending со сдвигом срока на
// следующий рабочий день. Исходный срок фиксируется только при первом
// переносе. Отказ по одной строке не прерывает пакет — частичный
// результат возвращается вызывающему.
func ForwardOverdueTasks(c *gin.Context) {
	now := time.Now()

	var tasks []models.Task
	if err := database.DB.
		Where("status = ? AND due_date IS NOT NULL AND due_date < ?", models.StatusPlanned, now).
		Find(&tasks).Error; err != nil {
		abortJSON(c, http.StatusInternalServerError, dbErrorMessage(err))
		return
	}

	actor := middleware.CurrentUserID(c)
	forwarded := 0
	rowErrors := map[string]string{}

	for i := range tasks {
		task := &tasks[i]
		taskclock.Forward(task, now)

		err := database.DB.Model(&models.Task{}).
			Where("id = ?", task.ID).
			Updates(map[string]interface{}{
				"status":            task.Status,
				"due_date":          task.DueDate,
				"original_due_date": task.OriginalDueDate,
				"updated_at":        now,
			}).Error
		if err != nil {
			rowErrors[strconv.Itoa(int(task.ID))] = dbErrorMessage(err)
			continue
		}

		forwarded++
		database.CreateAuditLog(actor, "task", task.ID, "forward", "Задача перенесена, новый срок: "+task.DueDate.Format("2006-01-02"))
		feed.Changed("tasks", "update", task.ID, now, task)
	}

	c.JSON(http.StatusOK, gin.H{
		"forwarded": forwarded,
		"errors":    rowErrors,
	})
}
