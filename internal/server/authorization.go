package server

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/notifybiz/console/internal/tenantctx"
)

// authorizeVendorAction gates a route on the RBAC policy for the acting
// vendor resolved by VendorContext.
func (s *Server) authorizeVendorAction(object string, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.authorizeVendorActionWithContext(c, object, action); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

func (s *Server) authorizeVendorActionWithContext(c *gin.Context, object string, action string) error {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		return ErrUnauthorized
	}

	vendorID, ok := tenantctx.VendorIDFromContext(c.Request.Context())
	if !ok || vendorID == 0 {
		return ErrForbidden
	}

	if s.authzSvc == nil {
		return ErrForbidden
	}

	actor := fmt.Sprintf("user:%s", userID.String())
	return s.authzSvc.Authorize(c.Request.Context(), actor, vendorID.String(), strings.TrimSpace(object), strings.TrimSpace(action))
}
