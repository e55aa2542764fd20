package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"fieldops/internal/database"
	"fieldops/internal/middleware"
	"fieldops/internal/models"

	"github.com/gin-gonic/gin"
)

type createJobInput struct {
	Title        string `json:"title" binding:"required"`
	CustomerName string `json:"customer_name"`
	Description  string `json:"description"`
}

func CreateJob(c *gin.Context) {
	var in createJobInput
	if err := c.ShouldBindJSON(&in); err != nil {
		abortJSON(c, http.StatusBadRequest, "Некорректные данные")
		return
	}
	if len(strings.TrimSpace(in.Title)) < 3 {
		abortJSON(c, http.StatusBadRequest, "Название должно быть не короче 3 символов")
		return
	}

	job := models.Job{
		Title:        strings.TrimSpace(in.Title),
		CustomerName: strings.TrimSpace(in.CustomerName),
		Description:  strings.TrimSpace(in.Description),
		Status:       models.JobActive,
	}
	if err := database.DB.Create(&job).Error; err != nil {
		abortJSON(c, http.StatusInternalServerError, dbErrorMessage(err))
		return
	}

	database.CreateAuditLog(middleware.CurrentUserID(c), "job", job.ID, "create", "Создан заказ: "+job.Title)
	feed.Changed("jobs", "insert", job.ID, job.UpdatedAt, job)

	c.JSON(http.StatusOK, job)
}

func ListJobs(c *gin.Context) {
	q := database.DB.Preload("Materials").Order("created_at desc")
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}

	var jobs []models.Job
	if err := q.Find(&jobs).Error; err != nil {
		abortJSON(c, http.StatusInternalServerError, dbErrorMessage(err))
		return
	}
	c.JSON(http.StatusOK, jobs)
}

func GetJob(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		abortJSON(c, http.StatusBadRequest, "Некорректный ID")
		return
	}

	var job models.Job
	if err := database.DB.Preload("Materials").Preload("Tasks").First(&job, id).Error; err != nil {
		abortJSON(c, http.StatusNotFound, "Заказ не найден")
		return
	}
	c.JSON(http.StatusOK, job)
}

type updateJobInput struct {
	Title        *string `json:"title"`
	CustomerName *string `json:"customer_name"`
	Description  *string `json:"description"`
	Status       *string `json:"status"`
}

func UpdateJob(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		abortJSON(c, http.StatusBadRequest, "Некорректный ID")
		return
	}

	var job models.Job
	if err := database.DB.First(&job, id).Error; err != nil {
		abortJSON(c, http.StatusNotFound, "Заказ не найден")
		return
	}

	var in updateJobInput
	if err := c.ShouldBindJSON(&in); err != nil {
		abortJSON(c, http.StatusBadRequest, "Некорректные данные")
		return
	}

	if in.Title != nil {
		job.Title = strings.TrimSpace(*in.Title)
	}
	if in.CustomerName != nil {
		job.CustomerName = strings.TrimSpace(*in.CustomerName)
	}
	if in.Description != nil {
		job.Description = strings.TrimSpace(*in.Description)
	}
	if in.Status != nil {
		status := models.JobStatus(*in.Status)
		switch status {
		case models.JobActive, models.JobOnHold, models.JobCompleted, models.JobCancelled:
			job.Status = status
		default:
			abortJSON(c, http.StatusBadRequest, "Неверный статус заказа")
			return
		}
	}

	if err := database.DB.Save(&job).Error; err != nil {
		abortJSON(c, http.StatusInternalServerError, dbErrorMessage(err))
		return
	}

	database.CreateAuditLog(middleware.CurrentUserID(c), "job", job.ID, "update", "Заказ обновлён: "+job.Title)
	feed.Changed("jobs", "update", job.ID, job.UpdatedAt, job)

	c.JSON(http.StatusOK, job)
}

type addMaterialInput struct {
	Name        string  `json:"name" binding:"required"`
	IssuedAt    *string `json:"issued_at"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	Rate        float64 `json:"rate"`
}

// AddJobMaterial — строка выданных материалов; сумма всегда считается
// на сервере.
func AddJobMaterial(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		abortJSON(c, http.StatusBadRequest, "Некорректный ID")
		return
	}

	var job models.Job
	if err := database.DB.First(&job, id).Error; err != nil {
		abortJSON(c, http.StatusNotFound, "Заказ не найден")
		return
	}

	var in addMaterialInput
	if err := c.ShouldBindJSON(&in); err != nil {
		abortJSON(c, http.StatusBadRequest, "Некорректные данные")
		return
	}
	if in.Quantity < 0 || in.Rate < 0 {
		abortJSON(c, http.StatusBadRequest, "Количество и цена не могут быть отрицательными")
		return
	}

	issuedAt, ok := parseDate(in.IssuedAt)
	if !ok {
		abortJSON(c, http.StatusBadRequest, "Неверная дата выдачи")
		return
	}

	material := models.JobMaterial{
		JobID:       job.ID,
		Name:        strings.TrimSpace(in.Name),
		IssuedAt:    issuedAt,
		Description: strings.TrimSpace(in.Description),
		Quantity:    in.Quantity,
		Rate:        in.Rate,
		Amount:      in.Quantity * in.Rate,
	}
	if err := database.DB.Create(&material).Error; err != nil {
		abortJSON(c, http.StatusInternalServerError, dbErrorMessage(err))
		return
	}

	c.JSON(http.StatusOK, material)
}
