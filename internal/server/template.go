package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	templatedomain "github.com/notifybiz/console/internal/template/domain"
	wabadomain "github.com/notifybiz/console/internal/waba/domain"
	"github.com/notifybiz/console/pkg/db/pagination"
	"github.com/notifybiz/console/internal/tenantctx"
)

type createTemplateRequest struct {
	Name     string `json:"name"`
	Language string `json:"language"`
	Category string `json:"category"`
	Body     string `json:"body"`
}

type updateTemplateRequest struct {
	Category string `json:"category"`
	Body     string `json:"body"`
}

func (s *Server) CreateTemplate(c *gin.Context) {
	var req createTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.templateSvc.Create(c.Request.Context(), templatedomain.CreateTemplateRequest{
		Name:     strings.TrimSpace(req.Name),
		Language: strings.TrimSpace(req.Language),
		Category: strings.TrimSpace(req.Category),
		Body:     req.Body,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListTemplates(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Status   string `form:"status"`
		Language string `form:"language"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.templateSvc.List(c.Request.Context(), templatedomain.ListTemplateRequest{
		PageToken: query.PageToken,
		PageSize:  int32(query.PageSize),
		Status:    strings.TrimSpace(query.Status),
		Language:  strings.TrimSpace(query.Language),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetTemplateByID(c *gin.Context) {
	resp, err := s.templateSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateTemplate(c *gin.Context) {
	var req updateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.templateSvc.Update(c.Request.Context(), templatedomain.UpdateTemplateRequest{
		ID:       strings.TrimSpace(c.Param("id")),
		Category: strings.TrimSpace(req.Category),
		Body:     req.Body,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteTemplate(c *gin.Context) {
	if err := s.templateSvc.Delete(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) SubmitTemplateForApproval(c *gin.Context) {
	resp, err := s.templateSvc.SubmitForApproval(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// SyncTemplates pulls the template catalog from the vendor's connected WABA
// and reconciles it against the local table.
func (s *Server) SyncTemplates(c *gin.Context) {
	ctx := c.Request.Context()

	vendorID, ok := tenantctx.VendorIDFromContext(ctx)
	if !ok {
		AbortWithError(c, ErrForbidden)
		return
	}

	accounts, err := s.wabaSvc.ListAccounts(ctx, vendorID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var connected *wabadomain.Account
	for i := range accounts {
		if accounts[i].Status == wabadomain.StatusConnected && accounts[i].AccessToken != "" {
			connected = &accounts[i]
			break
		}
	}
	if connected == nil {
		AbortWithError(c, wabadomain.ErrNoAccount)
		return
	}

	remote, err := s.metaClient.MessageTemplates(ctx, connected.WABAID, connected.AccessToken)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	rows := make([]templatedomain.RemoteTemplate, 0, len(remote))
	for _, tpl := range remote {
		rows = append(rows, templatedomain.RemoteTemplate{
			ID:       tpl.ID,
			Name:     tpl.Name,
			Language: tpl.Language,
			Category: tpl.Category,
			Status:   tpl.Status,
		})
	}

	resp, err := s.templateSvc.Sync(ctx, rows)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetTemplateAnalytics(c *gin.Context) {
	resp, err := s.templateSvc.Analytics(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func isTemplateValidationError(err error) bool {
	switch err {
	case templatedomain.ErrInvalidVendor,
		templatedomain.ErrInvalidName,
		templatedomain.ErrInvalidLanguage,
		templatedomain.ErrInvalidCategory,
		templatedomain.ErrInvalidStatus,
		templatedomain.ErrInvalidID:
		return true
	default:
		return false
	}
}
