package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ivanslavinskyi/ai-antiscam-bot/internal/repository"
)

const (
	defaultRecordsLimit = 50
	maxRecordsLimit     = 200
)

type RecordsHandler interface {
	GetRecords(c *gin.Context)
	GetRecordByID(c *gin.Context)
}

type recordsHandler struct {
	recordRepo repository.RecordRepository
	logger     *zap.Logger
}

func NewRecordsHandler(recordRepo repository.RecordRepository, logger *zap.Logger) RecordsHandler {
	return &recordsHandler{recordRepo: recordRepo, logger: logger}
}

// GetRecords handles GET /api/records
// Query parameters:
// - limit: page size, default 50, capped at 200
// - offset: rows to skip, default 0
func (h *recordsHandler) GetRecords(c *gin.Context) {
	limit := defaultRecordsLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		limit = n
		if limit > maxRecordsLimit {
			limit = maxRecordsLimit
		}
	}

	offset := 0
	if raw := c.Query("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid offset"})
			return
		}
		offset = n
	}

	records, err := h.recordRepo.GetRecentRecords(limit, offset)
	if err != nil {
		h.logger.Error("Failed to get records", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve records"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"records": records,
		"limit":   limit,
		"offset":  offset,
	})
}

// GetRecordByID handles GET /api/records/:id
func (h *recordsHandler) GetRecordByID(c *gin.Context) {
	idStr := c.Param("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.logger.Error("Invalid record ID", zap.String("id", idStr), zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid record ID"})
		return
	}

	record, err := h.recordRepo.GetRecordDetail(id)
	if err != nil {
		h.logger.Error("Failed to get record", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve record"})
		return
	}
	if record == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"record": record})
}
