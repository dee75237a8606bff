package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	contactdomain "github.com/notifybiz/console/internal/contact/domain"
	"github.com/notifybiz/console/internal/providers/meta"
	templatedomain "github.com/notifybiz/console/internal/template/domain"
	vendordomain "github.com/notifybiz/console/internal/vendors/domain"
	wabadomain "github.com/notifybiz/console/internal/waba/domain"
)

func TestMapErrorStatuses(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		typ    string
	}{
		{"validation", vendordomain.ErrInvalidName, http.StatusBadRequest, "validation_error"},
		{"unauthorized", ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{"forbidden", ErrForbidden, http.StatusForbidden, "forbidden"},
		{"conflict", contactdomain.ErrPhoneExists, http.StatusConflict, "conflict"},
		{"not_editable", templatedomain.ErrNotEditable, http.StatusConflict, "conflict"},
		{"rate_limited", wabadomain.ErrRateLimited, http.StatusTooManyRequests, "too_many_requests"},
		{"not_found", wabadomain.ErrNoAccount, http.StatusNotFound, "not_found"},
		{"upstream_down", wabadomain.ErrUpstreamFailed, http.StatusServiceUnavailable, "service_unavailable"},
		{"graph", &meta.GraphError{Message: "bad token", Code: 190}, http.StatusBadGateway, "upstream_error"},
		{"unknown", ErrInternal, http.StatusInternalServerError, "internal_error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, payload := mapError(tc.err)
			if status != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, status)
			}
			if payload.Type != tc.typ {
				t.Fatalf("expected type %q, got %q", tc.typ, payload.Type)
			}
		})
	}
}

func TestErrorHandlingMiddlewareWritesEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	router.GET("/boom", func(c *gin.Context) {
		AbortWithError(c, vendordomain.ErrNotFound)
	})

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", resp.Code)
	}
	body := decodeBody(t, resp)
	errObj, ok := body["error"].(map[string]any)
	if !ok || errObj["type"] != "not_found" {
		t.Fatalf("unexpected error payload: %v", body)
	}
}

func TestValidationErrorPayloadCarriesFields(t *testing.T) {
	status, payload := mapError(newValidationError("phone_number", "invalid_phone", "invalid value"))
	if status != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", status)
	}
	if len(payload.Errors) != 1 || payload.Errors[0].Field != "phone_number" {
		t.Fatalf("unexpected validation errors: %+v", payload.Errors)
	}
}

func TestClassifyErrorForLog(t *testing.T) {
	family, typ := classifyErrorForLog(wabadomain.ErrUpstreamFailed)
	if family != "server_error" || typ != "service_unavailable" {
		t.Fatalf("unexpected classification: %s/%s", family, typ)
	}

	family, typ = classifyErrorForLog(vendordomain.ErrInvalidName)
	if family != "client_error" || typ != "validation_error" {
		t.Fatalf("unexpected classification: %s/%s", family, typ)
	}

	family, typ = classifyErrorForLog(nil)
	if family != "" || typ != "" {
		t.Fatalf("expected empty classification for nil error, got %s/%s", family, typ)
	}
}
