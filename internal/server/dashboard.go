package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	wabadomain "github.com/notifybiz/console/internal/waba/domain"
	"github.com/notifybiz/console/internal/tenantctx"
)

func (s *Server) GetVendorDashboard(c *gin.Context) {
	resp, err := s.dashboardSvc.GetVendorStats(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetAdminDashboard(c *gin.Context) {
	resp, err := s.dashboardSvc.GetAdminStats(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListWABAAccounts(c *gin.Context) {
	ctx := c.Request.Context()

	vendorID, ok := tenantctx.VendorIDFromContext(ctx)
	if !ok {
		AbortWithError(c, ErrForbidden)
		return
	}

	resp, err := s.wabaSvc.ListAccounts(ctx, vendorID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DisconnectWABA(c *gin.Context) {
	ctx := c.Request.Context()

	vendorID, ok := tenantctx.VendorIDFromContext(ctx)
	if !ok {
		AbortWithError(c, ErrForbidden)
		return
	}

	wabaID := strings.TrimSpace(c.Param("wabaId"))
	if err := s.wabaSvc.Disconnect(ctx, vendorID, wabaID); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func isWABAValidationError(err error) bool {
	switch err {
	case wabadomain.ErrInvalidTenant,
		wabadomain.ErrInvalidWABA,
		wabadomain.ErrEmptyCode:
		return true
	default:
		return false
	}
}
