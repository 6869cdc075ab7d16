package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fatflowers/memberhub/internal/app/service/account"
	"github.com/fatflowers/memberhub/internal/app/service/eventlog"
	"github.com/fatflowers/memberhub/pkg/response"
)

// @Summary      Scan webhook event log
// @Description  Paginated, filtered listing of the durable webhook audit log for operational triage.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body eventlog.ScanEventsRequest true "filters and paging"
// @Success      200  {object}  response.APIResponse[eventlog.ScanEventsResponse]
// @Router       /api/v1/admin/webhook_events/scan [post]
func ApiScanWebhookEvents(events *eventlog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req eventlog.ScanEventsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}

		res, err := events.ScanEvents(c.Request.Context(), &req)
		if err != nil {
			c.JSON(http.StatusInternalServerError, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Get account billing state
// @Description  Returns the billing-relevant slice of one account.
// @Tags         Admin
// @Produce      json
// @Param        id path string true "account id (provider app_user_id)"
// @Success      200  {object}  response.APIResponse[models.Account]
// @Router       /api/v1/admin/accounts/{id} [get]
func ApiGetAccount(accounts *account.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		acct, err := accounts.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			if errors.Is(err, account.ErrAccountNotFound) {
				c.JSON(http.StatusNotFound, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
				return
			}
			c.JSON(http.StatusInternalServerError, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(acct))
	}
}

func RegisterAdminRoutes(r gin.IRouter, events *eventlog.Service, accounts *account.Service) {
	r.POST("/webhook_events/scan", ApiScanWebhookEvents(events))
	r.GET("/accounts/:id", ApiGetAccount(accounts))
}
