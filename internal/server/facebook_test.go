package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	wabadomain "github.com/notifybiz/console/internal/waba/domain"
)

type fakeWABAService struct {
	callbackCalls int
	lastUserID    any
	lastWABAData  wabadomain.WABAData

	exchangeCalls int
	lastCode      string
	exchangeErr   error

	permissions *wabadomain.PermissionsResult
}

func (f *fakeWABAService) SignupCallback(ctx context.Context, req wabadomain.SignupCallbackRequest) (*wabadomain.Account, error) {
	f.callbackCalls++
	f.lastUserID = req.UserID
	f.lastWABAData = req.WABAData
	_ = ctx
	return &wabadomain.Account{
		ID:       snowflake.ID(1),
		VendorID: snowflake.ID(7),
		WABAID:   req.WABAData.WABAID,
		Status:   wabadomain.StatusConnected,
	}, nil
}

func (f *fakeWABAService) ExchangeToken(ctx context.Context, req wabadomain.ExchangeTokenRequest) (*wabadomain.ExchangeTokenResult, error) {
	f.exchangeCalls++
	f.lastUserID = req.UserID
	f.lastCode = req.Code
	_ = ctx
	if f.exchangeErr != nil {
		return nil, f.exchangeErr
	}
	return &wabadomain.ExchangeTokenResult{
		GrantedScopes: []string{"whatsapp_business_management", "whatsapp_business_messaging"},
	}, nil
}

func (f *fakeWABAService) GetPermissions(ctx context.Context, userID any) (*wabadomain.PermissionsResult, error) {
	f.lastUserID = userID
	_ = ctx
	if f.permissions == nil {
		return nil, wabadomain.ErrNoAccount
	}
	return f.permissions, nil
}

func (f *fakeWABAService) RequestPermissionsURL(ctx context.Context, userID any) (string, error) {
	f.lastUserID = userID
	_ = ctx
	return "https://www.facebook.com/v24.0/dialog/oauth?state=7", nil
}

func (f *fakeWABAService) ListBusinesses(ctx context.Context, userID any) ([]wabadomain.BusinessSummary, error) {
	f.lastUserID = userID
	_ = ctx
	return []wabadomain.BusinessSummary{{ID: "biz-1", Name: "Acme"}}, nil
}

func (f *fakeWABAService) GetBusiness(ctx context.Context, userID any, businessID string) (*wabadomain.BusinessSummary, error) {
	f.lastUserID = userID
	_ = ctx
	return &wabadomain.BusinessSummary{ID: businessID, Name: "Acme"}, nil
}

func (f *fakeWABAService) ListAccounts(ctx context.Context, userID any) ([]wabadomain.Account, error) {
	f.lastUserID = userID
	_ = ctx
	return nil, nil
}

func (f *fakeWABAService) Disconnect(ctx context.Context, userID any, wabaID string) error {
	_ = ctx
	_ = userID
	_ = wabaID
	return nil
}

func newFacebookTestRouter(svc wabadomain.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)

	srv := &Server{wabaSvc: svc}

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	router.POST("/api/facebook", srv.HandleFacebookAction)
	router.POST("/api/facebook/request-permissions", srv.RequestFacebookPermissions)
	router.GET("/api/facebook/business/:businessId", srv.GetFacebookBusiness)
	router.GET("/api/facebook/:userId/businesses", srv.ListFacebookBusinesses)

	return router
}

func postFacebook(t *testing.T, router *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/facebook", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func decodeBody(t *testing.T, resp *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body
}

func TestFacebookDispatchUnknownAction(t *testing.T) {
	svc := &fakeWABAService{}
	router := newFacebookTestRouter(svc)

	resp := postFacebook(t, router, `{"action":"frobnicate","userId":"7"}`)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
	body := decodeBody(t, resp)
	if body["success"] != false {
		t.Fatalf("expected success=false, got %v", body["success"])
	}
	if svc.callbackCalls != 0 || svc.exchangeCalls != 0 {
		t.Fatal("expected no service calls for unknown action")
	}
}

func TestFacebookSignupCallback(t *testing.T) {
	svc := &fakeWABAService{}
	router := newFacebookTestRouter(svc)

	resp := postFacebook(t, router, `{"action":"signup_callback","userId":"7","wabaData":{"waba_id":"waba-1","phone_number_id":"phone-1","event":"FINISH"}}`)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	body := decodeBody(t, resp)
	if body["success"] != true {
		t.Fatalf("expected success=true, got %v", body["success"])
	}
	if svc.callbackCalls != 1 {
		t.Fatalf("expected 1 callback call, got %d", svc.callbackCalls)
	}
	if svc.lastWABAData.WABAID != "waba-1" || svc.lastWABAData.Event != "FINISH" {
		t.Fatalf("unexpected waba data: %+v", svc.lastWABAData)
	}
}

func TestFacebookSignupCallbackRequiresWABAData(t *testing.T) {
	svc := &fakeWABAService{}
	router := newFacebookTestRouter(svc)

	resp := postFacebook(t, router, `{"action":"signup_callback","userId":"7"}`)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
	if svc.callbackCalls != 0 {
		t.Fatal("expected callback not to reach the service")
	}
}

func TestFacebookExchangeToken(t *testing.T) {
	svc := &fakeWABAService{}
	router := newFacebookTestRouter(svc)

	resp := postFacebook(t, router, `{"action":"exchange_token","userId":"7","code":"auth-code"}`)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	body := decodeBody(t, resp)
	if body["success"] != true {
		t.Fatalf("expected success=true, got %v", body["success"])
	}
	perms, ok := body["permissions"].([]any)
	if !ok || len(perms) != 2 {
		t.Fatalf("expected 2 granted permissions, got %v", body["permissions"])
	}
	if svc.lastCode != "auth-code" {
		t.Fatalf("expected code to reach the service, got %q", svc.lastCode)
	}
}

func TestFacebookExchangeTokenInFlightConflict(t *testing.T) {
	svc := &fakeWABAService{exchangeErr: wabadomain.ErrCodeInFlight}
	router := newFacebookTestRouter(svc)

	resp := postFacebook(t, router, `{"action":"exchange_token","userId":"7","code":"auth-code"}`)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", resp.Code)
	}
	body := decodeBody(t, resp)
	if body["success"] != false {
		t.Fatalf("expected success=false, got %v", body["success"])
	}
	if body["error"] != wabadomain.ErrCodeInFlight.Error() {
		t.Fatalf("unexpected error message: %v", body["error"])
	}
}

func TestFacebookGetPermissions(t *testing.T) {
	svc := &fakeWABAService{
		permissions: &wabadomain.PermissionsResult{
			CurrentPermissions: []string{"whatsapp_business_management"},
			MissingPermissions: []string{"business_management"},
			HasAllPermissions:  false,
		},
	}
	router := newFacebookTestRouter(svc)

	resp := postFacebook(t, router, `{"action":"get_permissions","userId":"7"}`)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	body := decodeBody(t, resp)
	if body["has_all_permissions"] != false {
		t.Fatalf("expected has_all_permissions=false, got %v", body["has_all_permissions"])
	}
	missing, ok := body["missing_permissions"].([]any)
	if !ok || len(missing) != 1 {
		t.Fatalf("expected 1 missing permission, got %v", body["missing_permissions"])
	}
}

func TestFacebookGetPermissionsNoAccount(t *testing.T) {
	svc := &fakeWABAService{}
	router := newFacebookTestRouter(svc)

	resp := postFacebook(t, router, `{"action":"get_permissions","userId":"7"}`)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", resp.Code)
	}
}

func TestFacebookRequestPermissionsURL(t *testing.T) {
	svc := &fakeWABAService{}
	router := newFacebookTestRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/facebook/request-permissions", bytes.NewBufferString(`{"userId":"7"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	body := decodeBody(t, resp)
	if body["permission_url"] != "https://www.facebook.com/v24.0/dialog/oauth?state=7" {
		t.Fatalf("unexpected permission url: %v", body["permission_url"])
	}
}

func TestFacebookBusinessRoutes(t *testing.T) {
	svc := &fakeWABAService{}
	router := newFacebookTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/facebook/7/businesses", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	if svc.lastUserID != "7" {
		t.Fatalf("expected user id from path, got %v", svc.lastUserID)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/facebook/business/biz-1?userId=7", nil)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	body := decodeBody(t, resp)
	business, ok := body["business"].(map[string]any)
	if !ok || business["id"] != "biz-1" {
		t.Fatalf("unexpected business payload: %v", body["business"])
	}
}
