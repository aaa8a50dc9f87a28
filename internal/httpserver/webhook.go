package httpserver

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

const webhookSecretHeader = "X-Webhook-Secret"

// publishEvent is the projection configured on the CMS webhook.
type publishEvent struct {
	Type string `json:"_type" binding:"required"`
	Slug struct {
		Current string `json:"current"`
	} `json:"slug"`
}

func webhookHandler(inv Invalidator, secret string, logger log.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := strings.TrimSpace(c.GetHeader(webhookSecretHeader))
		if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid webhook secret"})
			return
		}
		var ev publishEvent
		if err := c.ShouldBindJSON(&ev); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
			return
		}
		if err := inv.InvalidateDocument(c.Request.Context(), ev.Type, ev.Slug.Current); err != nil {
			logger.WithError(err).WithField("type", ev.Type).Error("content invalidation failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "invalidation failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "invalidated"})
	}
}
