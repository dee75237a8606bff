package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	plandomain "github.com/notifybiz/console/internal/plan/domain"
)

type createPlanRequest struct {
	Code         string `json:"code"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	PriceCents   int64  `json:"price_cents"`
	Currency     string `json:"currency"`
	Interval     string `json:"interval"`
	MessageLimit int64  `json:"message_limit"`
}

type updatePlanRequest struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	PriceCents   *int64 `json:"price_cents"`
	MessageLimit *int64 `json:"message_limit"`
	IsActive     *bool  `json:"is_active"`
}

func (s *Server) CreatePlan(c *gin.Context) {
	var req createPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.planSvc.Create(c.Request.Context(), plandomain.CreatePlanRequest{
		Code:         strings.TrimSpace(req.Code),
		Name:         strings.TrimSpace(req.Name),
		Description:  strings.TrimSpace(req.Description),
		PriceCents:   req.PriceCents,
		Currency:     strings.TrimSpace(req.Currency),
		Interval:     strings.TrimSpace(req.Interval),
		MessageLimit: req.MessageLimit,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListPlans(c *gin.Context) {
	includeInactive, err := parseOptionalBool(c.Query("include_inactive"))
	if err != nil {
		AbortWithError(c, newValidationError("include_inactive", "invalid_include_inactive", "invalid include_inactive"))
		return
	}

	resp, err := s.planSvc.List(c.Request.Context(), includeInactive != nil && *includeInactive)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetPlanByID(c *gin.Context) {
	resp, err := s.planSvc.GetByID(c.Request.Context(), plandomain.GetPlanRequest{
		ID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdatePlan(c *gin.Context) {
	var req updatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.planSvc.Update(c.Request.Context(), plandomain.UpdatePlanRequest{
		ID:           strings.TrimSpace(c.Param("id")),
		Name:         strings.TrimSpace(req.Name),
		Description:  strings.TrimSpace(req.Description),
		PriceCents:   req.PriceCents,
		MessageLimit: req.MessageLimit,
		IsActive:     req.IsActive,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func isPlanValidationError(err error) bool {
	switch err {
	case plandomain.ErrInvalidCode,
		plandomain.ErrInvalidName,
		plandomain.ErrInvalidInterval,
		plandomain.ErrInvalidPrice,
		plandomain.ErrInvalidID:
		return true
	default:
		return false
	}
}
