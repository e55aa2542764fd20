package handlers

import (
	"net/http"
	"strconv"

	"fieldops/internal/database"
	"fieldops/internal/models"

	"github.com/gin-gonic/gin"
)

func ListAuditLogs(c *gin.Context) {
	q := database.DB.Preload("User").Order("created_at desc").Limit(200)

	if entity := c.Query("entity"); entity != "" {
		q = q.Where("entity = ?", entity)
	}
	if idStr := c.Query("entity_id"); idStr != "" {
		if id, err := strconv.Atoi(idStr); err == nil && id > 0 {
			q = q.Where("entity_id = ?", id)
		}
	}

	var logs []models.AuditLog
	if err := q.Find(&logs).Error; err != nil {
		abortJSON(c, http.StatusInternalServerError, dbErrorMessage(err))
		return
	}
	c.JSON(http.StatusOK, logs)
}
