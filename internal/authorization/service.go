package authorization

import (
	"context"
	"errors"
)

// Service answers whether an actor may perform an action on an object
// inside a vendor scope. Actors are "system", "user:<id>".
type Service interface {
	Authorize(ctx context.Context, actor string, vendorID string, object string, action string) error
}

var (
	ErrInvalidActor  = errors.New("invalid_actor")
	ErrInvalidVendor = errors.New("invalid_vendor")
	ErrInvalidObject = errors.New("invalid_object")
	ErrInvalidAction = errors.New("invalid_action")
	ErrForbidden     = errors.New("forbidden")
)
