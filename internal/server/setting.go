package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	settingdomain "github.com/notifybiz/console/internal/setting/domain"
)

type upsertSettingRequest struct {
	Key         string `json:"key"`
	Value       string `json:"value"`
	IsSensitive bool   `json:"is_sensitive"`
	IsPublic    bool   `json:"is_public"`
}

func (s *Server) UpsertSetting(c *gin.Context) {
	var req upsertSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.settingSvc.Upsert(c.Request.Context(), settingdomain.UpsertSettingRequest{
		Key:         strings.TrimSpace(req.Key),
		Value:       req.Value,
		IsSensitive: req.IsSensitive,
		IsPublic:    req.IsPublic,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListSettings(c *gin.Context) {
	resp, err := s.settingSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetSetting(c *gin.Context) {
	resp, err := s.settingSvc.Get(c.Request.Context(), strings.TrimSpace(c.Param("key")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// ListPublicSettings exposes the non-sensitive public subset without auth;
// the embedded clients bootstrap from it.
func (s *Server) ListPublicSettings(c *gin.Context) {
	resp, err := s.settingSvc.ListPublic(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteSetting(c *gin.Context) {
	if err := s.settingSvc.Delete(c.Request.Context(), strings.TrimSpace(c.Param("key"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func isSettingValidationError(err error) bool {
	switch err {
	case settingdomain.ErrInvalidVendor,
		settingdomain.ErrInvalidKey:
		return true
	default:
		return false
	}
}
