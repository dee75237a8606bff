package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/notifybiz/console/internal/providers/meta"
	wabadomain "github.com/notifybiz/console/internal/waba/domain"
)

// Actions accepted by the facebook dispatch endpoint. The embedded signup
// clients post everything through one route with an action discriminator.
const (
	actionSignupCallback = "signup_callback"
	actionExchangeToken  = "exchange_token"
	actionGetPermissions = "get_permissions"
)

type facebookRequest struct {
	Action   string               `json:"action"`
	UserID   any                  `json:"userId"`
	Code     string               `json:"code,omitempty"`
	WABAData *wabadomain.WABAData `json:"wabaData,omitempty"`
}

type facebookUserRequest struct {
	UserID any `json:"userId"`
}

// HandleFacebookAction dispatches the embedded signup client calls.
func (s *Server) HandleFacebookAction(c *gin.Context) {
	var req facebookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFacebookError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	action := strings.TrimSpace(req.Action)
	c.Set("signup_action", action)

	switch action {
	case actionSignupCallback:
		s.facebookSignupCallback(c, req)
	case actionExchangeToken:
		s.facebookExchangeToken(c, req)
	case actionGetPermissions:
		s.facebookGetPermissions(c, req)
	default:
		respondFacebookError(c, http.StatusBadRequest, "unknown action: "+action)
	}
}

func (s *Server) facebookSignupCallback(c *gin.Context, req facebookRequest) {
	if req.WABAData == nil {
		respondFacebookError(c, http.StatusBadRequest, "wabaData is required")
		return
	}

	account, err := s.wabaSvc.SignupCallback(c.Request.Context(), wabadomain.SignupCallbackRequest{
		UserID:   req.UserID,
		WABAData: *req.WABAData,
	})
	if err != nil {
		respondFacebookServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": account})
}

func (s *Server) facebookExchangeToken(c *gin.Context, req facebookRequest) {
	result, err := s.wabaSvc.ExchangeToken(c.Request.Context(), wabadomain.ExchangeTokenRequest{
		UserID: req.UserID,
		Code:   req.Code,
	})
	if err != nil {
		respondFacebookServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "permissions": result.GrantedScopes})
}

func (s *Server) facebookGetPermissions(c *gin.Context, req facebookRequest) {
	result, err := s.wabaSvc.GetPermissions(c.Request.Context(), req.UserID)
	if err != nil {
		respondFacebookServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":             true,
		"current_permissions": result.CurrentPermissions,
		"missing_permissions": result.MissingPermissions,
		"has_all_permissions": result.HasAllPermissions,
	})
}

// RequestFacebookPermissions builds the incremental-authorization URL for
// the scopes the vendor is still missing.
func (s *Server) RequestFacebookPermissions(c *gin.Context) {
	var req facebookUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFacebookError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	permissionURL, err := s.wabaSvc.RequestPermissionsURL(c.Request.Context(), req.UserID)
	if err != nil {
		respondFacebookServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "permission_url": permissionURL})
}

func (s *Server) ListFacebookBusinesses(c *gin.Context) {
	userID := strings.TrimSpace(c.Param("userId"))

	businesses, err := s.wabaSvc.ListBusinesses(c.Request.Context(), userID)
	if err != nil {
		respondFacebookServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "businesses": businesses})
}

func (s *Server) GetFacebookBusiness(c *gin.Context) {
	businessID := strings.TrimSpace(c.Param("businessId"))
	userID := strings.TrimSpace(c.Query("userId"))

	business, err := s.wabaSvc.GetBusiness(c.Request.Context(), userID, businessID)
	if err != nil {
		respondFacebookServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "business": business})
}

// respondFacebookServiceError keeps the {success, error} envelope the
// embedded clients parse, with a status that matches the failure.
func respondFacebookServiceError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	var graphErr *meta.GraphError
	switch {
	case errors.Is(err, wabadomain.ErrInvalidTenant),
		errors.Is(err, wabadomain.ErrInvalidWABA),
		errors.Is(err, wabadomain.ErrEmptyCode):
		status = http.StatusBadRequest
	case errors.Is(err, wabadomain.ErrCodeInFlight):
		status = http.StatusConflict
	case errors.Is(err, wabadomain.ErrNoAccount),
		errors.Is(err, wabadomain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, wabadomain.ErrRateLimited):
		status = http.StatusTooManyRequests
	case errors.As(err, &graphErr):
		status = http.StatusBadGateway
	}

	respondFacebookError(c, status, err.Error())
}

func respondFacebookError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "error": message})
}
