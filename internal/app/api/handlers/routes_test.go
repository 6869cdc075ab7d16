package handlers

import (
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestRegisterRoutes_RegistersEndpoints(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterHealthRoutes(r.Group("/"))
	RegisterWebhookRoutes(r.Group("/api/v1/webhook"), nil)
	RegisterAdminRoutes(r.Group("/api/v1/admin"), nil, nil)

	routes := r.Routes()
	contains := func(target string) bool {
		for _, rt := range routes {
			if rt.Method+" "+rt.Path == target {
				return true
			}
		}
		return false
	}

	require.True(t, contains("GET /healthz"))
	require.True(t, contains("POST /api/v1/webhook/revenuecat"))
	require.True(t, contains("POST /api/v1/admin/webhook_events/scan"))
	require.True(t, contains("GET /api/v1/admin/accounts/:id"))
}
