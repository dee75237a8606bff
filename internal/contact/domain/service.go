package domain

import (
	"context"
	"errors"

	"github.com/notifybiz/console/pkg/db/pagination"
)

type CreateContactRequest struct {
	Name        string
	PhoneNumber string
	Email       string
	Tags        []string
}

type BulkCreateResult struct {
	Created int      `json:"created"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors,omitempty"`
}

type ListContactRequest struct {
	PageToken   string
	PageSize    int32
	Name        string
	PhoneNumber string
}

type ListContactFilter struct {
	Name        string
	PhoneNumber string
}

type ListContactResponse struct {
	pagination.PageInfo
	Contacts []Contact `json:"contacts"`
}

type UpdateContactRequest struct {
	ID    string
	Name  string
	Email string
	Tags  []string
}

type Service interface {
	Create(context.Context, CreateContactRequest) (Contact, error)
	BulkCreate(ctx context.Context, reqs []CreateContactRequest) (BulkCreateResult, error)
	List(context.Context, ListContactRequest) (ListContactResponse, error)
	GetByID(ctx context.Context, id string) (Contact, error)
	Update(context.Context, UpdateContactRequest) (Contact, error)
	Delete(ctx context.Context, id string) error
}

var (
	ErrInvalidVendor = errors.New("invalid_vendor")
	ErrInvalidName   = errors.New("invalid_name")
	ErrInvalidPhone  = errors.New("invalid_phone")
	ErrInvalidID     = errors.New("invalid_id")
	ErrPhoneExists   = errors.New("phone_exists")
	ErrNotFound      = errors.New("not_found")
)
