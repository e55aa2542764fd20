package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"fieldops/internal/database"
	"fieldops/internal/middleware"
	"fieldops/internal/models"
	"fieldops/internal/storage"
	"fieldops/internal/taskclock"

	"github.com/gin-gonic/gin"
)

// SubmitProof — завершение задачи с фото-подтверждением. Порядок
// строгий: сначала загрузка изображения, потом строка подтверждения,
// потом перевод задачи в Completed. Отказ загрузки прерывает всё до
// каких-либо записей; отказ после успешной загрузки оставляет объект
// в хранилище (принятая несогласованность) и отдаёт ошибку.
func SubmitProof(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		abortJSON(c, http.StatusBadRequest, "Некорректный ID")
		return
	}

	var task models.Task
	if err := database.DB.First(&task, id).Error; err != nil {
		abortJSON(c, http.StatusNotFound, "Задача не найдена")
		return
	}

	actor := middleware.CurrentUserID(c)
	if !isAssignee(task.ID, actor) {
		abortJSON(c, http.StatusForbidden, "Вы не исполнитель этой задачи")
		return
	}
	if !taskclock.CanTransition(task.Status, models.StatusCompleted) {
		abortJSON(c, http.StatusConflict, "Задачу в этом статусе нельзя завершить")
		return
	}

	fh, err := c.FormFile("image")
	if err != nil {
		abortJSON(c, http.StatusBadRequest, "Нет изображения")
		return
	}
	notes := strings.TrimSpace(c.PostForm("notes"))

	f, err := fh.Open()
	if err != nil {
		abortJSON(c, http.StatusBadRequest, "Не удалось прочитать файл")
		return
	}
	data, err := io.ReadAll(f)
	f.Close()
	if err != nil {
		abortJSON(c, http.StatusBadRequest, "Не удалось прочитать файл")
		return
	}

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}

	now := time.Now()
	objectName := "proofs/" + strconv.Itoa(int(task.ID)) + "/" + strconv.FormatInt(now.UnixMilli(), 10)

	// шаг 1: загрузка; при отказе — никаких строк-сирот
	if _, err := objects.Put(c.Request.Context(), objectName, data, contentType); err != nil {
		abortJSON(c, http.StatusBadGateway, "Не удалось загрузить изображение: "+err.Error())
		return
	}
	imageURL := "/files/" + objectName

	// шаг 2: строка подтверждения
	proof := models.TaskProof{
		TaskID:        task.ID,
		ImageURL:      imageURL,
		Description:   notes,
		SubmittedByID: actor,
		Status:        models.ProofPending,
	}
	if err := database.DB.Create(&proof).Error; err != nil {
		// объект уже загружен и намеренно не откатывается
		abortJSON(c, http.StatusInternalServerError, dbErrorMessage(err))
		return
	}

	// шаг 3: завершение задачи со сворачиванием открытой паузы
	if err := taskclock.Apply(&task, models.StatusCompleted, now); err != nil {
		abortJSON(c, http.StatusConflict, "Недопустимый переход статуса")
		return
	}
	task.ProofURL = imageURL
	task.ProofNotes = notes

	owned := database.DB.Model(&models.TaskAssignee{}).
		Select("task_id").
		Where("task_id = ? AND user_id = ?", task.ID, actor)
	res := database.DB.Model(&models.Task{}).
		Where("id = ? AND id IN (?)", task.ID, owned).
		Updates(map[string]interface{}{
			"status":               task.Status,
			"progress_percentage":  nil,
			"last_pause_at":        nil,
			"total_pause_duration": task.TotalPauseDuration,
			"completed_at":         task.CompletedAt,
			"proof_url":            task.ProofURL,
			"proof_notes":          task.ProofNotes,
			"updated_at":           now,
		})
	if res.Error != nil {
		abortJSON(c, http.StatusInternalServerError, dbErrorMessage(res.Error))
		return
	}
	if res.RowsAffected == 0 {
		abortJSON(c, http.StatusForbidden, "Вы не исполнитель этой задачи")
		return
	}

	database.CreateAuditLog(actor, "proof", proof.ID, "create", "Подтверждение по задаче "+strconv.Itoa(int(task.ID)))
	database.CreateAuditLog(actor, "task", task.ID, "status_change", "Статус изменён на: "+string(models.StatusCompleted))
	feed.Changed("tasks", "update", task.ID, now, task)

	c.JSON(http.StatusOK, gin.H{"task": task, "proof": proof})
}

type reviewProofInput struct {
	Decision string `json:"decision" binding:"required"` // approve / reject
	Reason   string `json:"reason"`
}

// ReviewProof — решение админа по подтверждению. Отклонение без
// причины отбивается до любых записей. Статус самой задачи не
// меняется: сброс — отдельное действие RequestReassignment.
func ReviewProof(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		abortJSON(c, http.StatusBadRequest, "Некорректный ID")
		return
	}

	var in reviewProofInput
	if err := c.ShouldBindJSON(&in); err != nil {
		abortJSON(c, http.StatusBadRequest, "Некорректные данные")
		return
	}

	var status models.ProofStatus
	switch in.Decision {
	case "approve":
		status = models.ProofApproved
	case "reject":
		if strings.TrimSpace(in.Reason) == "" {
			abortJSON(c, http.StatusBadRequest, "Укажите причину отклонения")
			return
		}
		status = models.ProofRejected
	default:
		abortJSON(c, http.StatusBadRequest, "Неверное решение")
		return
	}

	var proof models.TaskProof
	if err := database.DB.First(&proof, id).Error; err != nil {
		abortJSON(c, http.StatusNotFound, "Подтверждение не найдено")
		return
	}
	if proof.Status != models.ProofPending {
		abortJSON(c, http.StatusConflict, "Подтверждение уже рассмотрено")
		return
	}

	now := time.Now()
	reviewer := middleware.CurrentUserID(c)
	proof.Status = status
	proof.ReviewedByID = &reviewer
	proof.ReviewedAt = &now
	proof.RejectionReason = strings.TrimSpace(in.Reason)

	if err := database.DB.Save(&proof).Error; err != nil {
		abortJSON(c, http.StatusInternalServerError, dbErrorMessage(err))
		return
	}

	database.CreateAuditLog(reviewer, "proof", proof.ID, "review", "Подтверждение: "+string(status))
	feed.Changed("task_proofs", "update", proof.ID, now, proof)

	c.JSON(http.StatusOK, proof)
}

// RequestReassignment — явный админский сброс выполненной задачи в
// Not Started для переназначения (обычно после отклонённого
// подтверждения).
func RequestReassignment(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		abortJSON(c, http.StatusBadRequest, "Некорректный ID")
		return
	}

	var task models.Task
	if err := database.DB.First(&task, id).Error; err != nil {
		abortJSON(c, http.StatusNotFound, "Задача не найдена")
		return
	}
	if task.Status != models.StatusCompleted {
		abortJSON(c, http.StatusConflict, "Сбросить можно только выполненную задачу")
		return
	}

	now := time.Now()
	taskclock.ResetForReassignment(&task, now)

	err = database.DB.Model(&models.Task{}).
		Where("id = ?", task.ID).
		Updates(map[string]interface{}{
			"status":               task.Status,
			"progress_percentage":  nil,
			"started_at":           nil,
			"last_pause_at":        nil,
			"total_pause_duration": task.TotalPauseDuration,
			"completed_at":         nil,
			"updated_at":           now,
		}).Error
	if err != nil {
		abortJSON(c, http.StatusInternalServerError, dbErrorMessage(err))
		return
	}

	database.CreateAuditLog(middleware.CurrentUserID(c), "task", task.ID, "reassign", "Задача сброшена для переназначения")
	feed.Changed("tasks", "update", task.ID, now, task)

	c.JSON(http.StatusOK, task)
}

// ServeFile отдаёт объект из хранилища (фото-подтверждения, вложения).
func ServeFile(c *gin.Context) {
	name := strings.TrimPrefix(c.Param("name"), "/")
	if name == "" {
		abortJSON(c, http.StatusBadRequest, "Не указано имя файла")
		return
	}

	data, info, err := objects.Get(c.Request.Context(), name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			abortJSON(c, http.StatusNotFound, "Файл не найден")
			return
		}
		abortJSON(c, http.StatusBadGateway, err.Error())
		return
	}

	c.Data(http.StatusOK, info.ContentType, data)
}
