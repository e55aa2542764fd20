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
	"fieldops/internal/taskclock"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Валидируемая форма создания задачи; произвольные объекты с клиента
// не принимаются.
type CreateTaskInput struct {
	Title          string  `json:"title" binding:"required"`
	Description    string  `json:"description"`
	Priority       string  `json:"priority"`
	CompletionType string  `json:"completion_type"`
	DueDate        *string `json:"due_date"`
	StartDate      *string `json:"start_date"`
	EndDate        *string `json:"end_date"`

	EstimatedDuration string `json:"estimated_duration"`
	AssigningDuration string `json:"time_assigning_duration"`

	AssigneeIDs []uint `json:"assignee_ids"`
	JobID       *uint  `json:"job_id"`
	Planned     bool   `json:"planned"` // завести в пред-статусе Planned

	RequiredLatitude  *float64 `json:"required_latitude"`
	RequiredLongitude *float64 `json:"required_longitude"`
	RequiredRadius    *float64 `json:"required_radius"`
	AutoCheckIn       bool     `json:"auto_check_in"`
	AutoCheckOut      bool     `json:"auto_check_out"`

	Locations []TaskLocationInput `json:"locations"`
}

type TaskLocationInput struct {
	GeofenceID       *uint   `json:"geofence_id"`
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	Radius           float64 `json:"radius"`
	RequireArrival   bool    `json:"require_arrival"`
	RequireDeparture bool    `json:"require_departure"`
}

func parseDate(s *string) (*time.Time, bool) {
	if s == nil || *s == "" {
		return nil, true
	}
	if t, err := time.Parse(time.RFC3339, *s); err == nil {
		return &t, true
	}
	if t, err := time.Parse("2006-01-02", *s); err == nil {
		return &t, true
	}
	return nil, false
}

func CreateTask(c *gin.Context) {
	var in CreateTaskInput
	if err := c.ShouldBindJSON(&in); err != nil {
		abortJSON(c, http.StatusBadRequest, "Некорректные данные")
		return
	}

	priority := models.TaskPriority(in.Priority)
	switch priority {
	case models.PriorityHigh, models.PriorityMedium, models.PriorityLow:
	case "":
		priority = models.PriorityMedium
	default:
		abortJSON(c, http.StatusBadRequest, "Неверный приоритет")
		return
	}

	completion := models.CompletionType(in.CompletionType)
	switch completion {
	case models.CompletionWithProof, models.CompletionWithoutProof:
	case "":
		completion = models.CompletionWithoutProof
	default:
		abortJSON(c, http.StatusBadRequest, "Неверный тип завершения")
		return
	}

	// интервалы нормализуются на границе, внутрь бизнес-логики ходит
	// только канонический вид
	estimated, err := normalizeInterval(in.EstimatedDuration)
	if err != nil {
		abortJSON(c, http.StatusBadRequest, "Неверный формат оценки длительности")
		return
	}
	assigning, err := normalizeInterval(in.AssigningDuration)
	if err != nil {
		abortJSON(c, http.StatusBadRequest, "Неверный формат длительности назначения")
		return
	}

	due, ok := parseDate(in.DueDate)
	if !ok {
		abortJSON(c, http.StatusBadRequest, "Неверный срок выполнения")
		return
	}
	start, ok := parseDate(in.StartDate)
	if !ok {
		abortJSON(c, http.StatusBadRequest, "Неверная дата начала")
		return
	}
	end, ok := parseDate(in.EndDate)
	if !ok {
		abortJSON(c, http.StatusBadRequest, "Неверная дата окончания")
		return
	}

	status := models.StatusNotStarted
	if in.Planned {
		status = models.StatusPlanned
	}

	task := models.Task{
		Title:              strings.TrimSpace(in.Title),
		Description:        strings.TrimSpace(in.Description),
		Priority:           priority,
		Status:             status,
		CompletionType:     completion,
		DueDate:            due,
		StartDate:          start,
		EndDate:            end,
		EstimatedDuration:  estimated,
		AssigningDuration:  assigning,
		JobID:              in.JobID,
		RequiredLatitude:   in.RequiredLatitude,
		RequiredLongitude:  in.RequiredLongitude,
		RequiredRadius:     in.RequiredRadius,
		AutoCheckIn:        in.AutoCheckIn,
		AutoCheckOut:       in.AutoCheckOut,
		TotalPauseDuration: taskclock.FormatInterval(0),
		CreatedByID:        middleware.CurrentUserID(c),
	}

	if err := database.DB.Create(&task).Error; err != nil {
		abortJSON(c, http.StatusInternalServerError, dbErrorMessage(err))
		return
	}

	if len(in.AssigneeIDs) > 0 {
		if err := syncAssignees(database.DB, &task, in.AssigneeIDs); err != nil {
			abortJSON(c, http.StatusBadRequest, err.Error())
			return
		}
	}

	for _, loc := range in.Locations {
		row := models.TaskLocation{
			TaskID:           task.ID,
			GeofenceID:       loc.GeofenceID,
			Latitude:         loc.Latitude,
			Longitude:        loc.Longitude,
			Radius:           loc.Radius,
			RequireArrival:   loc.RequireArrival,
			RequireDeparture: loc.RequireDeparture,
		}
		_ = database.DB.Create(&row).Error
	}

	database.CreateAuditLog(task.CreatedByID, "task", task.ID, "create", "Создана задача: "+task.Title)
	feed.Changed("tasks", "insert", task.ID, task.UpdatedAt, task)

	c.JSON(http.StatusOK, loadTask(task.ID))
}

// syncAssignees переписывает состав исполнителей. Инвариант: легаси-поле
// assigned_to_id всегда равно первому элементу списка.
func syncAssignees(db *gorm.DB, task *models.Task, ids []uint) error {
	var count int64
	if err := db.Model(&models.User{}).Where("id IN ?", ids).Count(&count).Error; err != nil {
		return err
	}
	if count != int64(len(ids)) {
		return errUnknownAssignee
	}

	if err := db.Where("task_id = ?", task.ID).Delete(&models.TaskAssignee{}).Error; err != nil {
		return err
	}
	for _, userID := range ids {
		if err := db.Create(&models.TaskAssignee{TaskID: task.ID, UserID: userID}).Error; err != nil {
			return err
		}
	}

	task.AssignedToID = ids[0]
	return db.Model(task).Update("assigned_to_id", ids[0]).Error
}

var errUnknownAssignee = errors.New("среди исполнителей есть несуществующий пользователь")

func loadTask(id uint) *models.Task {
	var task models.Task
	err := database.DB.
		Preload("Assignees").
		Preload("Assignees.User").
		Preload("Locations").
		Preload("Locations.Geofence").
		Preload("Proofs").
		Preload("Attachments").
		First(&task, id).Error
	if err != nil {
		return nil
	}
	return &task
}

func ListTasks(c *gin.Context) {
	q := database.DB.
		Preload("Assignees").
		Preload("Proofs").
		Preload("Attachments").
		Preload("Locations").
		Order("created_at desc")

	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	if priority := c.Query("priority"); priority != "" {
		q = q.Where("priority = ?", priority)
	}
	if jobID := c.Query("job_id"); jobID != "" {
		if id, err := strconv.Atoi(jobID); err == nil && id > 0 {
			q = q.Where("job_id = ?", id)
		}
	}

	// сотрудник видит только свои задачи
	if middleware.CurrentRole(c) == models.RoleEmployee {
		uid := middleware.CurrentUserID(c)
		q = q.Where("id IN (?)",
			database.DB.Model(&models.TaskAssignee{}).Select("task_id").Where("user_id = ?", uid))
	}

	var tasks []models.Task
	if err := q.Find(&tasks).Error; err != nil {
		abortJSON(c, http.StatusInternalServerError, dbErrorMessage(err))
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func GetTask(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		abortJSON(c, http.StatusBadRequest, "Некорректный ID")
		return
	}
	task := loadTask(uint(id))
	if task == nil {
		abortJSON(c, http.StatusNotFound, "Задача не найдена")
		return
	}

	// фактическая длительность считается на лету и не хранится
	c.JSON(http.StatusOK, gin.H{
		"task":            task,
		"elapsed_seconds": int64(taskclock.Elapsed(task, time.Now()).Seconds()),
	})
}

type UpdateTaskInput struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Priority    *string `json:"priority"`
	DueDate     *string `json:"due_date"`
	AssigneeIDs []uint  `json:"assignee_ids"`
	JobID       *uint   `json:"job_id"`
}

func UpdateTask(c *gin.Context) {
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

	var in UpdateTaskInput
	if err := c.ShouldBindJSON(&in); err != nil {
		abortJSON(c, http.StatusBadRequest, "Некорректные данные")
		return
	}

	if in.Title != nil {
		if len(strings.TrimSpace(*in.Title)) == 0 {
			abortJSON(c, http.StatusBadRequest, "Пустое название")
			return
		}
		task.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		task.Description = strings.TrimSpace(*in.Description)
	}
	if in.Priority != nil {
		p := models.TaskPriority(*in.Priority)
		if p != models.PriorityHigh && p != models.PriorityMedium && p != models.PriorityLow {
			abortJSON(c, http.StatusBadRequest, "Неверный приоритет")
			return
		}
		task.Priority = p
	}
	if in.DueDate != nil {
		due, ok := parseDate(in.DueDate)
		if !ok {
			abortJSON(c, http.StatusBadRequest, "Неверный срок выполнения")
			return
		}
		task.DueDate = due
	}
	if in.JobID != nil {
		task.JobID = in.JobID
	}

	if err := database.DB.Save(&task).Error; err != nil {
		abortJSON(c, http.StatusInternalServerError, dbErrorMessage(err))
		return
	}

	if len(in.AssigneeIDs) > 0 {
		if err := syncAssignees(database.DB, &task, in.AssigneeIDs); err != nil {
			abortJSON(c, http.StatusBadRequest, err.Error())
			return
		}
	}

	database.CreateAuditLog(middleware.CurrentUserID(c), "task", task.ID, "update", "Задача обновлена: "+task.Title)
	feed.Changed("tasks", "update", task.ID, task.UpdatedAt, task)

	c.JSON(http.StatusOK, loadTask(task.ID))
}

func DeleteTask(c *gin.Context) {
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

	if err := database.DB.Delete(&task).Error; err != nil {
		abortJSON(c, http.StatusInternalServerError, dbErrorMessage(err))
		return
	}

	database.CreateAuditLog(middleware.CurrentUserID(c), "task", task.ID, "delete", "Удалена задача: "+task.Title)
	feed.Changed("tasks", "delete", task.ID, time.Now(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Задача удалена"})
}

type progressInput struct {
	Progress int `json:"progress"`
}

// UpdateProgress — процент выполнения; осмыслен только в In Progress,
// значение прижимается к [0,100].
func UpdateProgress(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		abortJSON(c, http.StatusBadRequest, "Некорректный ID")
		return
	}

	var in progressInput
	if err := c.ShouldBindJSON(&in); err != nil {
		abortJSON(c, http.StatusBadRequest, "Некорректные данные")
		return
	}

	var task models.Task
	if err := database.DB.First(&task, id).Error; err != nil {
		abortJSON(c, http.StatusNotFound, "Задача не найдена")
		return
	}

	if !isAssignee(task.ID, middleware.CurrentUserID(c)) {
		abortJSON(c, http.StatusForbidden, "Вы не исполнитель этой задачи")
		return
	}
	if task.Status != models.StatusInProgress {
		abortJSON(c, http.StatusConflict, "Процент меняется только у задачи в работе")
		return
	}

	p := taskclock.ClampProgress(in.Progress)
	task.ProgressPercentage = &p
	if err := database.DB.Save(&task).Error; err != nil {
		abortJSON(c, http.StatusInternalServerError, dbErrorMessage(err))
		return
	}

	feed.Changed("tasks", "update", task.ID, task.UpdatedAt, task)
	c.JSON(http.StatusOK, task)
}

// UploadAttachments — пакетная загрузка файлов; отказ одного файла не
// прерывает остальные, ошибки возвращаются по каждому отдельно.
func UploadAttachments(c *gin.Context) {
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

	form, err := c.MultipartForm()
	if err != nil {
		abortJSON(c, http.StatusBadRequest, "Ожидается multipart-форма")
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		abortJSON(c, http.StatusBadRequest, "Нет файлов")
		return
	}

	uploaderID := middleware.CurrentUserID(c)
	var saved []models.TaskAttachment
	uploadErrors := map[string]string{}

	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			uploadErrors[fh.Filename] = err.Error()
			continue
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			uploadErrors[fh.Filename] = err.Error()
			continue
		}

		contentType := fh.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		objectName := "attachments/" + strconv.Itoa(int(task.ID)) + "/" + uuid.NewString() + "-" + fh.Filename
		if _, err := objects.Put(c.Request.Context(), objectName, data, contentType); err != nil {
			uploadErrors[fh.Filename] = err.Error()
			continue
		}

		att := models.TaskAttachment{
			TaskID:       task.ID,
			FileName:     fh.Filename,
			FileSize:     fh.Size,
			MimeType:     contentType,
			URL:          "/files/" + objectName,
			UploadedByID: uploaderID,
		}
		if err := database.DB.Create(&att).Error; err != nil {
			uploadErrors[fh.Filename] = dbErrorMessage(err)
			continue
		}
		saved = append(saved, att)
	}

	feed.Changed("tasks", "update", task.ID, time.Now(), nil)

	c.JSON(http.StatusOK, gin.H{"attachments": saved, "errors": uploadErrors})
}

func isAssignee(taskID, userID uint) bool {
	if userID == 0 {
		return false
	}
	var count int64
	database.DB.Model(&models.TaskAssignee{}).
		Where("task_id = ? AND user_id = ?", taskID, userID).
		Count(&count)
	return count > 0
}

// normalizeInterval приводит интервал из формы к каноническому виду.
func normalizeInterval(s string) (string, error) {
	if strings.TrimSpace(s) == "" {
		return "", nil
	}
	d, err := taskclock.ParseDuration(s)
	if err != nil {
		return "", err
	}
	return taskclock.FormatInterval(d), nil
}
