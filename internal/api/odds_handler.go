package api

import (
	"errors"
	"net/http"

	"github.com/KuiHua-JAC/winsports-cron/internal/interfaces"
	"github.com/KuiHua-JAC/winsports-cron/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// OddsHandler 读取赔率缓存文档（运维排查用）
type OddsHandler struct {
	store       interfaces.DocumentStore
	collection  string
	sportPrefix string
	logger      *logrus.Logger
}

// NewOddsHandler store 为 nil 时接口返回 503
func NewOddsHandler(store interfaces.DocumentStore, collection, sportPrefix string, logger *logrus.Logger) *OddsHandler {
	return &OddsHandler{
		store:       store,
		collection:  collection,
		sportPrefix: sportPrefix,
		logger:      logger,
	}
}

// GetOdds 按提供方 eventId 读取缓存文档
// GET /odds/:eventId
func (h *OddsHandler) GetOdds(c *gin.Context) {
	eventID := c.Param("eventId")
	if eventID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "eventId is required"})
		return
	}
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "error": "document store unavailable"})
		return
	}

	key := model.DocumentKey(h.sportPrefix, eventID)
	doc, err := h.store.Get(c.Request.Context(), h.collection, key)
	if err != nil {
		if errors.Is(err, interfaces.ErrDocumentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "not found"})
			return
		}
		h.logger.WithError(err).WithField("key", key).Error("GetOdds failed")
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, doc)
}
