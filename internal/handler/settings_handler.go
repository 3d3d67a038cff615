package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ivanslavinskyi/ai-antiscam-bot/internal/config"
)

// SettingsHandler exposes a read-only view of the moderation settings.
// Configuration is loaded once at startup and never mutated at runtime,
// so there is no update counterpart; changing a setting means editing
// the config file and restarting.
type SettingsHandler interface {
	GetSettings(c *gin.Context)
}

type settingsHandler struct {
	cfg *config.Config
}

func NewSettingsHandler(cfg *config.Config) SettingsHandler {
	return &settingsHandler{cfg: cfg}
}

// SettingsResponse is the safe subset of the configuration: no tokens,
// no secrets, no connection strings.
type SettingsResponse struct {
	Moderation struct {
		Model               string  `json:"model"`
		ConfidenceThreshold float64 `json:"confidence_threshold"`
		GlobalAdminChats    int     `json:"global_admin_chats"`
	} `json:"moderation"`
	Metrics struct {
		Enabled bool `json:"enabled"`
	} `json:"metrics"`
	Debug bool `json:"debug"`
}

// GetSettings handles GET /api/settings.
func (h *settingsHandler) GetSettings(c *gin.Context) {
	response := SettingsResponse{}
	response.Moderation.Model = h.cfg.OpenAI.Model
	response.Moderation.ConfidenceThreshold = h.cfg.Moderation.ConfidenceThreshold
	response.Moderation.GlobalAdminChats = len(h.cfg.Moderation.AdminChatIDs)
	response.Metrics.Enabled = h.cfg.Metrics.Enabled
	response.Debug = h.cfg.Debug

	c.JSON(http.StatusOK, response)
}
