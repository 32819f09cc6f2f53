package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authmem "github.com/moridelogica/backoffice/internal/auth/memory"
	"github.com/moridelogica/backoffice/internal/config"
	"github.com/moridelogica/backoffice/internal/domain"
	"github.com/moridelogica/backoffice/internal/exchange"
	"github.com/moridelogica/backoffice/internal/locations"
	"github.com/moridelogica/backoffice/internal/records"
	"github.com/moridelogica/backoffice/internal/stats"
	"github.com/moridelogica/backoffice/internal/store/memory"
	"github.com/moridelogica/backoffice/internal/users"
	"github.com/moridelogica/backoffice/internal/web"
)

type testEnv struct {
	server *httptest.Server
	users  *users.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{}
	cfg.Server.RequestTimeout = time.Minute
	cfg.Upload.MaxFileSize = 1 << 20
	cfg.Rate.Enabled = false

	st := memory.New()
	provider := authmem.New()

	recordSvc := records.NewService(st, nil)
	locationSvc := locations.NewService(st, nil)
	userSvc := users.NewService(st, provider, false, nil)
	statsSvc := stats.NewService(st)
	importer := exchange.NewImporter(recordSvc, nil)

	srv := web.NewServer(cfg, provider, recordSvc, importer, locationSvc, userSvc, statsSvc)

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return &testEnv{server: ts, users: userSvc}
}

// signIn provisions an account with the given role and returns its bearer
// token.
func (e *testEnv) signIn(t *testing.T, email string, role domain.Role) string {
	t.Helper()

	_, err := e.users.Create(context.Background(), users.CreateInput{
		Email:    email,
		Password: "secret1",
		Name:     "Test User",
		Role:     role,
	})
	require.NoError(t, err)

	resp := e.do(t, http.MethodPost, "/api/login", "",
		map[string]string{"email": email, "password": "secret1"})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.NotEmpty(t, body.Token)
	return body.Token
}

func (e *testEnv) do(t *testing.T, method, path, token string, payload any) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, e.server.URL+path, body)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestLoginFailures(t *testing.T) {
	env := newTestEnv(t)
	env.signIn(t, "jane@example.com", domain.RoleAdmin)

	tests := []struct {
		name       string
		email      string
		password   string
		wantStatus int
		wantError  string
	}{
		{"unknown email", "ghost@example.com", "secret1", http.StatusUnauthorized, "No account found with this email."},
		{"wrong password", "jane@example.com", "wrong", http.StatusUnauthorized, "Incorrect password."},
		{"bad email format", "not-an-email", "secret1", http.StatusBadRequest, "Invalid email format."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.do(t, http.MethodPost, "/api/login", "",
				map[string]string{"email": tt.email, "password": tt.password})
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			body := decode[map[string]string](t, resp)
			assert.Equal(t, tt.wantError, body["error"])
		})
	}
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/api/records", "/api/locations", "/api/users", "/api/stats", "/api/me"} {
		resp := env.do(t, http.MethodGet, path, "", nil)
		resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "path %s", path)
	}
}

func TestSessionLifecycle(t *testing.T) {
	env := newTestEnv(t)
	token := env.signIn(t, "jane@example.com", domain.RoleAdmin)

	resp := env.do(t, http.MethodGet, "/api/me", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	me := decode[map[string]any](t, resp)
	assert.Equal(t, "jane@example.com", me["email"])
	assert.Equal(t, "admin", me["role"])

	resp = env.do(t, http.MethodPost, "/api/logout", token, nil)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/me", token, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRecordLifecycle(t *testing.T) {
	env := newTestEnv(t)
	token := env.signIn(t, "jane@example.com", domain.RoleAdmin)

	resp := env.do(t, http.MethodPost, "/api/records", token, map[string]any{
		"awbNumber":   "AWB-1",
		"productType": "Box",
		"destination": "Kisumu",
		"products":    []map[string]any{{"productType": "Box", "quantity": 2, "weight": 1.5}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[map[string]any](t, resp)
	id, _ := created["id"].(string)
	require.NotEmpty(t, id)

	resp = env.do(t, http.MethodGet, "/api/records/"+id, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[map[string]any](t, resp)
	assert.Equal(t, "AWB-1", got["awbNumber"])

	resp = env.do(t, http.MethodPut, "/api/records/"+id, token, map[string]any{
		"awbNumber":   "AWB-1",
		"productType": "Crate",
	})
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodDelete, "/api/records/"+id, token, nil)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/records/"+id, token, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRecordDeleteForbiddenForStaff(t *testing.T) {
	env := newTestEnv(t)
	adminToken := env.signIn(t, "admin@example.com", domain.RoleAdmin)
	staffToken := env.signIn(t, "staff@example.com", domain.RoleWarehouseStaff)

	resp := env.do(t, http.MethodPost, "/api/records", adminToken, map[string]any{
		"productType": "Box",
	})
	created := decode[map[string]any](t, resp)
	id := created["id"].(string)

	resp = env.do(t, http.MethodDelete, "/api/records/"+id, staffToken, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/records/"+id, adminToken, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRecordDateFilter(t *testing.T) {
	env := newTestEnv(t)
	token := env.signIn(t, "jane@example.com", domain.RoleAdmin)

	for awb, created := range map[string]string{
		"JAN": "2024-01-15T00:00:00Z",
		"FEB": "2024-02-15T00:00:00Z",
		"MAR": "2024-03-15T00:00:00Z",
	} {
		resp := env.do(t, http.MethodPost, "/api/records", token, map[string]any{
			"awbNumber":   awb,
			"productType": "Box",
			"createdAt":   created,
		})
		resp.Body.Close()
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp := env.do(t, http.MethodGet, "/api/records?start=2024-02-01&end=2024-02-28", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[[]map[string]any](t, resp)
	require.Len(t, list, 1)
	assert.Equal(t, "FEB", list[0]["awbNumber"])

	// Inverted range is rejected, not silently empty.
	resp = env.do(t, http.MethodGet, "/api/records?start=2024-03-01&end=2024-02-01", token, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Half a range is rejected.
	resp = env.do(t, http.MethodGet, "/api/records?start=2024-02-01", token, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRecordExport(t *testing.T) {
	env := newTestEnv(t)
	token := env.signIn(t, "jane@example.com", domain.RoleAdmin)

	resp := env.do(t, http.MethodPost, "/api/records", token, map[string]any{
		"awbNumber":   "AWB-9",
		"productType": "Box",
	})
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/records/export", token, nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, "text/csv; charset=utf-8", resp.Header.Get("Content-Type"))
	disposition := resp.Header.Get("Content-Disposition")
	assert.Contains(t, disposition, "attachment")
	assert.Contains(t, disposition, "records_"+time.Now().Format("2006-01-02"))

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	body := string(data)
	assert.True(t, strings.HasPrefix(body, "\uFEFF"), "export must carry a BOM")
	assert.Contains(t, body, `"AWB-9"`)
}

func TestRecordImport(t *testing.T) {
	env := newTestEnv(t)
	token := env.signIn(t, "jane@example.com", domain.RoleAdmin)

	csv := strings.Join([]string{
		"AWBNumber,ProductType,CreatedAt",
		"AWB-1,Box,01/02/2024",
		"AWB-2,,01/03/2024",
		"AWB-3,Bag,01/04/2024",
	}, "\n")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "records.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(csv))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, env.server.URL+"/api/records/import", &buf)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	result := decode[struct {
		Message  string `json:"message"`
		Uploaded int    `json:"uploaded"`
		Skipped  int    `json:"skipped"`
	}](t, resp)
	assert.Equal(t, "Successfully uploaded 2 records.", result.Message)
	assert.Equal(t, 2, result.Uploaded)
	assert.Equal(t, 1, result.Skipped)

	listResp := env.do(t, http.MethodGet, "/api/records", token, nil)
	list := decode[[]map[string]any](t, listResp)
	assert.Len(t, list, 2)
}

func TestRecordImportRejectsNonCSV(t *testing.T) {
	env := newTestEnv(t)
	token := env.signIn(t, "jane@example.com", domain.RoleAdmin)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "data.txt")
	require.NoError(t, err)
	fmt.Fprint(part, "not a csv")
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, env.server.URL+"/api/records/import", &buf)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decode[map[string]string](t, resp)
	assert.Equal(t, "please upload a CSV file", body["error"])
}

func TestLocationEndpoints(t *testing.T) {
	env := newTestEnv(t)
	token := env.signIn(t, "jane@example.com", domain.RoleWarehouseStaff)

	resp := env.do(t, http.MethodPost, "/api/locations", token, map[string]string{"name": "Warehouse A"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	loc := decode[map[string]string](t, resp)
	require.NotEmpty(t, loc["id"])

	resp = env.do(t, http.MethodPost, "/api/locations", token, map[string]string{"name": "  "})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/locations", token, nil)
	list := decode[[]map[string]string](t, resp)
	require.Len(t, list, 1)

	resp = env.do(t, http.MethodDelete, "/api/locations/"+loc["id"], token, nil)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestUserEndpointsRoleVisibility(t *testing.T) {
	env := newTestEnv(t)
	adminToken := env.signIn(t, "admin@example.com", domain.RoleAdmin)
	staffToken := env.signIn(t, "staff@example.com", domain.RoleWarehouseStaff)

	// Staff cannot delete users.
	resp := env.do(t, http.MethodGet, "/api/users", staffToken, nil)
	listForStaff := decode[[]map[string]any](t, resp)
	require.Len(t, listForStaff, 2)

	var staffUID string
	for _, u := range listForStaff {
		if u["email"] == "staff@example.com" {
			staffUID = u["uid"].(string)
		}
	}
	require.NotEmpty(t, staffUID)

	resp = env.do(t, http.MethodDelete, "/api/users/"+staffUID, staffToken, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = env.do(t, http.MethodDelete, "/api/users/"+staffUID, adminToken, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/users", adminToken, nil)
	listForAdmin := decode[[]map[string]any](t, resp)
	assert.Len(t, listForAdmin, 1)
}

func TestStatsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	token := env.signIn(t, "jane@example.com", domain.RoleAdmin)

	for _, month := range []string{"2024-01-10T00:00:00Z", "2024-01-20T00:00:00Z", "2024-04-05T00:00:00Z"} {
		resp := env.do(t, http.MethodPost, "/api/records", token, map[string]any{
			"productType": "Box",
			"createdAt":   month,
		})
		resp.Body.Close()
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp := env.do(t, http.MethodGet, "/api/stats", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	overview := decode[struct {
		TotalUsers   int `json:"totalUsers"`
		TotalRecords int `json:"totalRecords"`
		Monthly      []struct {
			Month string `json:"month"`
			Count int    `json:"count"`
		} `json:"monthly"`
	}](t, resp)

	assert.Equal(t, 1, overview.TotalUsers)
	assert.Equal(t, 3, overview.TotalRecords)
	require.Len(t, overview.Monthly, 2)
	assert.Equal(t, "Jan 2024", overview.Monthly[0].Month)
	assert.Equal(t, 2, overview.Monthly[0].Count)
}
