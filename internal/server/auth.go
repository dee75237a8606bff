package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	authdomain "github.com/notifybiz/console/internal/auth/domain"
	"github.com/notifybiz/console/internal/auth/password"
	"gorm.io/gorm"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (s *Server) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	email := strings.TrimSpace(req.Email)
	result, err := s.authsvc.Login(c.Request.Context(), authdomain.LoginRequest{
		Email:     email,
		Password:  req.Password,
		UserAgent: c.Request.UserAgent(),
		IPAddress: c.ClientIP(),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.sessions.Set(c, result.RawToken, result.ExpiresAt)
	s.enrichSessionMetadata(c, result)

	c.JSON(http.StatusOK, result.Session)
}

func (s *Server) Logout(c *gin.Context) {
	token, ok := s.sessions.ReadToken(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	if err := s.authsvc.Logout(c.Request.Context(), token); err != nil {
		AbortWithError(c, err)
		return
	}

	s.sessions.Clear(c)
	c.Status(http.StatusNoContent)
}

func (s *Server) Me(c *gin.Context) {
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

	var user authdomain.User
	if err := s.db.WithContext(c.Request.Context()).First(&user, "id = ?", session.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		AbortWithError(c, err)
		return
	}

	mustChangePassword := false
	passwordState := "rotated"
	if user.Provider == "local" && (user.IsDefault || user.LastPasswordChanged == nil) {
		mustChangePassword = true
		passwordState = "default"
	}

	vendors, err := s.vendorSvc.ListByOwner(c.Request.Context(), user.ID.String())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	vendorIDs := make([]string, 0, len(vendors))
	for _, vendor := range vendors {
		vendorIDs = append(vendorIDs, vendor.ID.String())
	}

	metadata := map[string]any{
		"user_id":              user.ID.String(),
		"external_id":          user.ExternalID,
		"provider":             user.Provider,
		"display_name":         user.DisplayName,
		"email":                user.Email,
		"is_default":           user.IsDefault,
		"must_change_password": mustChangePassword,
		"password_state":       passwordState,
		"vendor_ids":           vendorIDs,
	}
	if session.ActiveVendorID != nil && *session.ActiveVendorID != 0 {
		metadata["active_vendor_id"] = snowflake.ID(*session.ActiveVendorID).String()
	}

	c.JSON(http.StatusOK, &authdomain.SessionView{Metadata: metadata})
}

func (s *Server) ChangePassword(c *gin.Context) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	currentPassword := strings.TrimSpace(req.CurrentPassword)
	newPassword := strings.TrimSpace(req.NewPassword)
	if currentPassword == "" {
		AbortWithError(c, newValidationError("current_password", "required", "current password is required"))
		return
	}
	if newPassword == "" {
		AbortWithError(c, newValidationError("new_password", "required", "new password is required"))
		return
	}
	if currentPassword == newPassword {
		AbortWithError(c, newValidationError("new_password", "must_differ", "new password must be different"))
		return
	}
	if len(newPassword) < 8 {
		AbortWithError(c, newValidationError("new_password", "weak_password", "password must be at least 8 characters"))
		return
	}

	var user authdomain.User
	if err := s.db.WithContext(c.Request.Context()).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		AbortWithError(c, err)
		return
	}
	if user.Provider != "local" {
		AbortWithError(c, ErrForbidden)
		return
	}
	if user.PasswordHash == nil || !password.Verify(currentPassword, *user.PasswordHash) {
		AbortWithError(c, authdomain.ErrInvalidCredentials)
		return
	}

	if err := s.authsvc.ChangePassword(c.Request.Context(), userID.String(), newPassword); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListUserVendors returns the vendors owned by the authenticated user.
func (s *Server) ListUserVendors(c *gin.Context) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	vendors, err := s.vendorSvc.ListByOwner(c.Request.Context(), userID.String())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": vendors})
}

// UseVendor pins the acting vendor on the session.
func (s *Server) UseVendor(c *gin.Context) {
	session := s.sessionFromContext(c)
	if session == nil {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	vendorID, err := snowflake.ParseString(strings.TrimSpace(c.Param("vendorId")))
	if err != nil || vendorID == 0 {
		AbortWithError(c, newValidationError("vendor_id", "invalid_vendor", "invalid vendor id"))
		return
	}

	active := int64(vendorID)
	if err := s.authsvc.UpdateSessionVendor(c.Request.Context(), session.ID, &active); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) enrichSessionMetadata(c *gin.Context, result *authdomain.LoginResult) {
	if result == nil || result.Session == nil {
		return
	}

	rawUserID, ok := result.Session.Metadata["user_id"].(string)
	if !ok {
		return
	}
	parsedUserID, err := snowflake.ParseString(rawUserID)
	if err != nil {
		return
	}

	vendors, err := s.vendorSvc.ListByOwner(c.Request.Context(), parsedUserID.String())
	if err != nil || len(vendors) == 0 {
		return
	}

	vendorIDs := make([]string, 0, len(vendors))
	for _, vendor := range vendors {
		vendorIDs = append(vendorIDs, vendor.ID.String())
	}
	result.Session.Metadata["vendor_ids"] = vendorIDs
}
