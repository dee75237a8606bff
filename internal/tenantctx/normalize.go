package tenantctx

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

// ErrInvalidTenant reports a tenant identity that could not be reduced to a
// scalar identifier.
var ErrInvalidTenant = errors.New("invalid_tenant")

// NormalizeTenantID reduces a tenant identity to a scalar identifier string.
//
// Login payloads historically delivered the identity either as a bare ID or
// as a full user object. Every consumer downstream expects the scalar, so the
// unwrap happens exactly once here, at the boundary.
func NormalizeTenantID(raw any) (string, error) {
	switch v := raw.(type) {
	case nil:
		return "", ErrInvalidTenant
	case string:
		id := strings.TrimSpace(v)
		if id == "" {
			return "", ErrInvalidTenant
		}
		return id, nil
	case int64:
		if v == 0 {
			return "", ErrInvalidTenant
		}
		return strconv.FormatInt(v, 10), nil
	case float64:
		if v == 0 {
			return "", ErrInvalidTenant
		}
		return strconv.FormatInt(int64(v), 10), nil
	case json.Number:
		id := strings.TrimSpace(v.String())
		if id == "" || id == "0" {
			return "", ErrInvalidTenant
		}
		return id, nil
	case map[string]any:
		for _, key := range []string{"id", "_id", "userId", "user_id"} {
			if nested, ok := v[key]; ok {
				return NormalizeTenantID(nested)
			}
		}
		return "", ErrInvalidTenant
	default:
		return "", ErrInvalidTenant
	}
}
