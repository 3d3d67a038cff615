package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ivanslavinskyi/ai-antiscam-bot/internal/models"
	"github.com/ivanslavinskyi/ai-antiscam-bot/internal/repository"
)

const (
	dashboardOffendersLimit = 10
	dashboardRecentLimit    = 10
)

type AnalyticsHandler interface {
	GetDashboard(c *gin.Context)
}

type analyticsHandler struct {
	recordRepo repository.RecordRepository
	memberRepo repository.MemberRepository
	logger     *zap.Logger
}

func NewAnalyticsHandler(recordRepo repository.RecordRepository, memberRepo repository.MemberRepository, logger *zap.Logger) AnalyticsHandler {
	return &analyticsHandler{
		recordRepo: recordRepo,
		memberRepo: memberRepo,
		logger:     logger,
	}
}

// DashboardStats is the aggregate view over every chat the bot
// moderates.
type DashboardStats struct {
	TotalChecked   int64                  `json:"total_checked"`
	ScamByModel    int64                  `json:"scam_by_model"`
	ScamByHuman    int64                  `json:"scam_by_human"`
	NotScamByHuman int64                  `json:"not_scam_by_human"`
	HumanLabeled   int64                  `json:"human_labeled"`
	DetectionRate  float64                `json:"detection_rate"`
	TopOffenders   []*models.TopOffender  `json:"top_offenders"`
	RecentScams    []*models.RecordDetail `json:"recent_scams"`
}

// GetDashboard handles GET /api/analytics/dashboard
func (h *analyticsHandler) GetDashboard(c *gin.Context) {
	stats, err := h.recordRepo.GetStats(nil)
	if err != nil {
		h.logger.Error("Failed to get moderation stats for dashboard", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve dashboard data"})
		return
	}

	offenders, err := h.memberRepo.GetTopOffenders(nil, dashboardOffendersLimit)
	if err != nil {
		h.logger.Error("Failed to get top offenders for dashboard", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve dashboard data"})
		return
	}

	recent, err := h.recordRepo.GetRecentScams(nil, dashboardRecentLimit)
	if err != nil {
		h.logger.Error("Failed to get recent scams for dashboard", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve dashboard data"})
		return
	}

	detectionRate := 0.0
	if stats.TotalChecked > 0 {
		detectionRate = float64(stats.ScamByModel) / float64(stats.TotalChecked)
	}

	c.JSON(http.StatusOK, DashboardStats{
		TotalChecked:   stats.TotalChecked,
		ScamByModel:    stats.ScamByModel,
		ScamByHuman:    stats.ScamByHuman,
		NotScamByHuman: stats.NotScamByHuman,
		HumanLabeled:   stats.HumanLabeled,
		DetectionRate:  detectionRate,
		TopOffenders:   offenders,
		RecentScams:    recent,
	})
}
