package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	contactdomain "github.com/notifybiz/console/internal/contact/domain"
	"github.com/notifybiz/console/pkg/db/pagination"
)

type createContactRequest struct {
	Name        string   `json:"name"`
	PhoneNumber string   `json:"phone_number"`
	Email       string   `json:"email"`
	Tags        []string `json:"tags"`
}

type updateContactRequest struct {
	Name  string   `json:"name"`
	Email string   `json:"email"`
	Tags  []string `json:"tags"`
}

type bulkCreateContactsRequest struct {
	Contacts []createContactRequest `json:"contacts"`
}

func (s *Server) CreateContact(c *gin.Context) {
	var req createContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.contactSvc.Create(c.Request.Context(), contactdomain.CreateContactRequest{
		Name:        strings.TrimSpace(req.Name),
		PhoneNumber: strings.TrimSpace(req.PhoneNumber),
		Email:       strings.TrimSpace(req.Email),
		Tags:        req.Tags,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) BulkCreateContacts(c *gin.Context) {
	var req bulkCreateContactsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if len(req.Contacts) == 0 {
		AbortWithError(c, newValidationError("contacts", "required", "contacts are required"))
		return
	}

	rows := make([]contactdomain.CreateContactRequest, 0, len(req.Contacts))
	for _, row := range req.Contacts {
		rows = append(rows, contactdomain.CreateContactRequest{
			Name:        strings.TrimSpace(row.Name),
			PhoneNumber: strings.TrimSpace(row.PhoneNumber),
			Email:       strings.TrimSpace(row.Email),
			Tags:        row.Tags,
		})
	}

	resp, err := s.contactSvc.BulkCreate(c.Request.Context(), rows)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListContacts(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Name        string `form:"name"`
		PhoneNumber string `form:"phone_number"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.contactSvc.List(c.Request.Context(), contactdomain.ListContactRequest{
		PageToken:   query.PageToken,
		PageSize:    int32(query.PageSize),
		Name:        strings.TrimSpace(query.Name),
		PhoneNumber: strings.TrimSpace(query.PhoneNumber),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetContactByID(c *gin.Context) {
	resp, err := s.contactSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateContact(c *gin.Context) {
	var req updateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.contactSvc.Update(c.Request.Context(), contactdomain.UpdateContactRequest{
		ID:    strings.TrimSpace(c.Param("id")),
		Name:  strings.TrimSpace(req.Name),
		Email: strings.TrimSpace(req.Email),
		Tags:  req.Tags,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteContact(c *gin.Context) {
	if err := s.contactSvc.Delete(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func isContactValidationError(err error) bool {
	switch err {
	case contactdomain.ErrInvalidVendor,
		contactdomain.ErrInvalidName,
		contactdomain.ErrInvalidPhone,
		contactdomain.ErrInvalidID:
		return true
	default:
		return false
	}
}
