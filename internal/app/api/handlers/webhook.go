package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	wh "github.com/fatflowers/memberhub/internal/app/service/webhook"
	"github.com/fatflowers/memberhub/pkg/logctx"
)

// @Summary      RevenueCat Webhook
// @Description  Handles signed subscription lifecycle events from RevenueCat. The signature header must carry a hex HMAC-SHA256 of the raw body.
// @Tags         Webhook
// @Accept       json
// @Produce      json
// @Param        payload body string true "RevenueCat webhook event"
// @Success      200  {object}  map[string]bool
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/webhook/revenuecat [post]
// ApiRevenueCatWebhook handles RevenueCat server notifications.
func ApiRevenueCatWebhook(h *wh.Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := io.ReadAll(c.Request.Body)
		if err != nil {
			logctx.FromGin(c, h.Logger).Errorw("webhook_body_read_error", "error", err.Error())
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read request body"})
			return
		}

		err = h.HandleDelivery(c.Request.Context(), raw, c.GetHeader(h.SignatureHeader()))
		switch {
		case err == nil:
			c.JSON(http.StatusOK, gin.H{"success": true})
		case errors.Is(err, wh.ErrInvalidSignature):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid signature"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
	}
}

func RegisterWebhookRoutes(r gin.IRouter, h *wh.Handler) {
	// Mount under provided group, expected at "/api/v1/webhook"
	r.POST("/revenuecat", ApiRevenueCatWebhook(h))
}
