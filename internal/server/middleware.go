package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	authdomain "github.com/notifybiz/console/internal/auth/domain"
	"github.com/notifybiz/console/internal/tenantctx"
)

const (
	// HeaderVendor selects the acting vendor when a user belongs to more
	// than one; the session's active vendor is the fallback.
	HeaderVendor = "X-Vendor-ID"

	contextUserIDKey  = "user_id"
	contextSessionKey = "session"
)

// WebAuthRequired authenticates the session cookie and stores the user on
// the gin context.
func (s *Server) WebAuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := s.sessions.ReadToken(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		session, err := s.authsvc.Authenticate(c.Request.Context(), token)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Set(contextUserIDKey, session.UserID.String())
		c.Set(contextSessionKey, session)

		ctx := tenantctx.WithUserID(c.Request.Context(), session.UserID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// VendorContext resolves the acting vendor from the header or the session
// and injects it into the request context. Routes behind it can rely on
// tenantctx.VendorIDFromContext.
func (s *Server) VendorContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		vendorID, err := s.resolveVendorID(c)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		ctx := tenantctx.WithVendorID(c.Request.Context(), vendorID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func (s *Server) resolveVendorID(c *gin.Context) (snowflake.ID, error) {
	if header := strings.TrimSpace(c.GetHeader(HeaderVendor)); header != "" {
		parsed, err := snowflake.ParseString(header)
		if err != nil || parsed == 0 {
			return 0, newValidationError("vendor_id", "invalid_vendor", "invalid vendor id")
		}
		return parsed, nil
	}

	if session := s.sessionFromContext(c); session != nil && session.ActiveVendorID != nil && *session.ActiveVendorID != 0 {
		return snowflake.ID(*session.ActiveVendorID), nil
	}

	userID, ok := s.userIDFromSession(c)
	if !ok {
		return 0, ErrUnauthorized
	}
	vendors, err := s.vendorSvc.ListByOwner(c.Request.Context(), userID.String())
	if err != nil {
		return 0, err
	}
	if len(vendors) > 0 {
		return vendors[0].ID, nil
	}

	// Console admins without a vendor of their own fall back to the
	// default vendor.
	defaultID, err := s.defaultVendorID(c)
	if err != nil {
		return 0, err
	}
	if defaultID == 0 {
		return 0, ErrForbidden
	}
	return defaultID, nil
}

func (s *Server) defaultVendorID(c *gin.Context) (snowflake.ID, error) {
	var row struct {
		ID int64
	}
	if err := s.db.WithContext(c.Request.Context()).
		Raw(`SELECT id FROM vendors WHERE is_default LIMIT 1`).
		Scan(&row).Error; err != nil {
		return 0, err
	}
	return snowflake.ID(row.ID), nil
}

func (s *Server) sessionFromContext(c *gin.Context) *authdomain.Session {
	value, ok := c.Get(contextSessionKey)
	if !ok {
		return nil
	}
	session, ok := value.(*authdomain.Session)
	if !ok {
		return nil
	}
	return session
}

func (s *Server) userIDFromSession(c *gin.Context) (snowflake.ID, bool) {
	raw := strings.TrimSpace(c.GetString(contextUserIDKey))
	if raw == "" {
		return 0, false
	}
	parsed, err := snowflake.ParseString(raw)
	if err != nil || parsed == 0 {
		return 0, false
	}
	return parsed, true
}
