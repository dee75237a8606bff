package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	vendordomain "github.com/notifybiz/console/internal/vendors/domain"
	"github.com/notifybiz/console/pkg/db/pagination"
)

type createVendorRequest struct {
	Name        string `json:"name"`
	OwnerUserID string `json:"owner_user_id"`
	PlanID      string `json:"plan_id"`
}

type updateVendorRequest struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	PlanID string `json:"plan_id"`
}

func (s *Server) CreateVendor(c *gin.Context) {
	var req createVendorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	ownerID := strings.TrimSpace(req.OwnerUserID)
	if ownerID == "" {
		if userID, ok := s.userIDFromSession(c); ok {
			ownerID = userID.String()
		}
	}

	resp, err := s.vendorSvc.Create(c.Request.Context(), vendordomain.CreateVendorRequest{
		Name:        strings.TrimSpace(req.Name),
		OwnerUserID: ownerID,
		PlanID:      strings.TrimSpace(req.PlanID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListVendors(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Name        string `form:"name"`
		Status      string `form:"status"`
		CreatedFrom string `form:"created_from"`
		CreatedTo   string `form:"created_to"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	createdFrom, err := parseOptionalTime(query.CreatedFrom, false)
	if err != nil {
		AbortWithError(c, newValidationError("created_from", "invalid_created_from", "invalid created_from"))
		return
	}
	createdTo, err := parseOptionalTime(query.CreatedTo, true)
	if err != nil {
		AbortWithError(c, newValidationError("created_to", "invalid_created_to", "invalid created_to"))
		return
	}

	resp, err := s.vendorSvc.List(c.Request.Context(), vendordomain.ListVendorRequest{
		PageToken:   query.PageToken,
		PageSize:    int32(query.PageSize),
		Name:        strings.TrimSpace(query.Name),
		Status:      strings.TrimSpace(query.Status),
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetVendorByID(c *gin.Context) {
	resp, err := s.vendorSvc.GetByID(c.Request.Context(), vendordomain.GetVendorRequest{
		ID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateVendor(c *gin.Context) {
	var req updateVendorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.vendorSvc.Update(c.Request.Context(), vendordomain.UpdateVendorRequest{
		ID:     strings.TrimSpace(c.Param("id")),
		Name:   strings.TrimSpace(req.Name),
		Status: strings.TrimSpace(req.Status),
		PlanID: strings.TrimSpace(req.PlanID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func isVendorValidationError(err error) bool {
	switch err {
	case vendordomain.ErrInvalidName,
		vendordomain.ErrInvalidOwner,
		vendordomain.ErrInvalidStatus,
		vendordomain.ErrInvalidPlan,
		vendordomain.ErrInvalidID:
		return true
	default:
		return false
	}
}
