package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ivanslavinskyi/ai-antiscam-bot/internal/models"
	"github.com/ivanslavinskyi/ai-antiscam-bot/internal/repository"
)

// DatasetHandler exposes the admin-labeled message corpus for review
// and for export as classifier training data.
type DatasetHandler interface {
	GetEntries(c *gin.Context)
	GetStats(c *gin.Context)
	Export(c *gin.Context)
}

type datasetHandler struct {
	datasetRepo repository.DatasetRepository
	logger      *zap.Logger
}

func NewDatasetHandler(datasetRepo repository.DatasetRepository, logger *zap.Logger) DatasetHandler {
	return &datasetHandler{datasetRepo: datasetRepo, logger: logger}
}

// GetEntries handles GET /api/dataset with an optional ?label= filter.
func (h *datasetHandler) GetEntries(c *gin.Context) {
	label, ok := labelFilter(c)
	if !ok {
		return
	}

	entries, err := h.datasetRepo.GetLabeledEntries(label)
	if err != nil {
		h.logger.Error("Failed to get dataset entries", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get dataset entries"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"entries": entries,
		"count":   len(entries),
	})
}

// GetStats handles GET /api/dataset/stats.
func (h *datasetHandler) GetStats(c *gin.Context) {
	stats, err := h.datasetRepo.GetDatasetStats()
	if err != nil {
		h.logger.Error("Failed to get dataset stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get dataset stats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

// Export handles GET /api/dataset/export and serves the labeled corpus
// as a downloadable JSON file.
func (h *datasetHandler) Export(c *gin.Context) {
	label, ok := labelFilter(c)
	if !ok {
		return
	}

	entries, err := h.datasetRepo.GetLabeledEntries(label)
	if err != nil {
		h.logger.Error("Failed to export dataset", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export dataset"})
		return
	}

	filename := fmt.Sprintf("antiscam_dataset_%s.json", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.JSON(http.StatusOK, gin.H{
		"exported_at": time.Now().UTC(),
		"count":       len(entries),
		"entries":     entries,
	})
}

// labelFilter validates the optional ?label= query parameter. It writes
// the error response itself and reports validity via the bool.
func labelFilter(c *gin.Context) (string, bool) {
	label := c.Query("label")
	if label != "" && label != models.HumanLabelScam && label != models.HumanLabelNotScam {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("Invalid label. Valid values: %s, %s", models.HumanLabelScam, models.HumanLabelNotScam),
		})
		return "", false
	}
	return label, true
}
