package routes

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glasspro-backend/controllers"
	"glasspro-backend/services"
	"glasspro-backend/store"
)

const testSecret = "test-secret"

type fakeSender struct {
	to, body string
}

func (f *fakeSender) SendSMS(_ context.Context, to, body string) (string, error) {
	f.to, f.body = to, body
	return "SM1", nil
}

func newTestRouter(t *testing.T, sender services.MessageSender) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	live := store.NewLive(store.NewMemoryStore(), nil)
	t.Cleanup(func() { _ = live.Close() })
	h := controllers.NewHandler(live, services.NewNotificationService(sender), testSecret, time.Hour)
	return SetupRouter(h, []string{"http://localhost:3000"}, testSecret)
}

func doJSON(t *testing.T, r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func register(t *testing.T, r http.Handler, email string) string {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/auth/register", "", map[string]any{
		"email":       email,
		"name":        "Owner",
		"password":    "s3cret-pass",
		"companyName": "Clear View Glass",
		"phone":       "555-010-0100",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[map[string]any](t, w)["token"].(string)
}

func TestRegisterLoginAndMe(t *testing.T) {
	r := newTestRouter(t, nil)
	register(t, r, "owner@example.com")

	w := doJSON(t, r, http.MethodPost, "/auth/register", "", map[string]any{
		"email": "owner@example.com", "name": "Again", "password": "s3cret-pass", "companyName": "X",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, r, http.MethodPost, "/auth/login", "", map[string]any{"email": "owner@example.com", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, r, http.MethodPost, "/auth/login", "", map[string]any{"email": "OWNER@example.com", "password": "s3cret-pass"})
	require.Equal(t, http.StatusOK, w.Code)
	token := decode[map[string]any](t, w)["token"].(string)

	w = doJSON(t, r, http.MethodGet, "/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[map[string]any](t, w)
	profile := me["profile"].(map[string]any)
	assert.Equal(t, "Clear View Glass", profile["companyName"])
	assert.Equal(t, "owner@example.com", profile["email"])
}

func TestAPIRequiresToken(t *testing.T) {
	r := newTestRouter(t, nil)
	assert.Equal(t, http.StatusUnauthorized, doJSON(t, r, http.MethodGet, "/api/customers", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, doJSON(t, r, http.MethodGet, "/api/customers", "garbage", nil).Code)
	assert.Equal(t, http.StatusOK, doJSON(t, r, http.MethodGet, "/healthz", "", nil).Code)
}

func TestCustomerEndpoints(t *testing.T) {
	r := newTestRouter(t, nil)
	token := register(t, r, "owner@example.com")

	w := doJSON(t, r, http.MethodPost, "/api/customers", token, map[string]any{"name": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "name is required")

	w = doJSON(t, r, http.MethodPost, "/api/customers", token, map[string]any{"name": "Ada", "phone": "555-0100"})
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode[map[string]any](t, w)["id"].(string)

	w = doJSON(t, r, http.MethodPut, "/api/customers/"+id, token, map[string]any{"address": "1 Main St"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1 Main St", decode[map[string]any](t, w)["address"])

	w = doJSON(t, r, http.MethodGet, "/api/customers", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]map[string]any](t, w), 1)

	assert.Equal(t, http.StatusOK, doJSON(t, r, http.MethodDelete, "/api/customers/"+id, token, nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(t, r, http.MethodGet, "/api/customers/"+id, token, nil).Code)
}

func TestTenantsCannotSeeEachOther(t *testing.T) {
	r := newTestRouter(t, nil)
	mine := register(t, r, "a@example.com")
	theirs := register(t, r, "b@example.com")

	w := doJSON(t, r, http.MethodPost, "/api/customers", mine, map[string]any{"name": "Ada"})
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode[map[string]any](t, w)["id"].(string)

	assert.Equal(t, http.StatusNotFound, doJSON(t, r, http.MethodGet, "/api/customers/"+id, theirs, nil).Code)
	w = doJSON(t, r, http.MethodGet, "/api/customers", theirs, nil)
	assert.Empty(t, decode[[]map[string]any](t, w))
}

func TestJobPricingAndWorkOrder(t *testing.T) {
	sender := &fakeSender{}
	r := newTestRouter(t, sender)
	token := register(t, r, "owner@example.com")

	w := doJSON(t, r, http.MethodPut, "/api/profile/company", token, map[string]any{"salesTaxRate": "8"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/customers", token, map[string]any{"name": "Ada", "phone": "(555) 010-0199"})
	require.Equal(t, http.StatusCreated, w.Code)
	customerID := decode[map[string]any](t, w)["id"].(string)

	w = doJSON(t, r, http.MethodPost, "/api/jobs", token, map[string]any{
		"customerId":    customerID,
		"date":          "2024-03-07",
		"glassType":     "Windshield",
		"cost":          "100",
		"quantity":      2,
		"discountType":  "percentage",
		"discountValue": 10,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	job := decode[map[string]any](t, w)
	jobID := job["id"].(string)
	assert.Equal(t, "Ada", job["customerName"])
	assert.InDelta(t, 194.40, job["totalAmount"].(float64), 1e-9)
	assert.Equal(t, true, job["applySalesTax"])

	w = doJSON(t, r, http.MethodGet, "/api/jobs/"+jobID+"/workorder", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	wo := decode[map[string]any](t, w)
	assert.InDelta(t, 180.0, wo["serviceAmount"].(float64), 1e-9)
	assert.InDelta(t, 14.40, wo["taxAmount"].(float64), 1e-9)

	w = doJSON(t, r, http.MethodGet, "/api/jobs/"+jobID+"/workorder?format=print", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "$194.40")

	w = doJSON(t, r, http.MethodGet, "/api/jobs/"+jobID+"/workorder?format=email", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Date: 3/7/2024")

	assert.Equal(t, http.StatusBadRequest, doJSON(t, r, http.MethodGet, "/api/jobs/"+jobID+"/workorder?format=pdf", token, nil).Code)

	w = doJSON(t, r, http.MethodPost, "/api/jobs/"+jobID+"/workorder/sms", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "+15550100199", sender.to)
	assert.Contains(t, sender.body, "total $194.40")

	// Preview a pending edit, then save a manual total.
	w = doJSON(t, r, http.MethodPost, "/api/jobs/"+jobID+"/preview", token, map[string]any{"cost": "200"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.InDelta(t, 388.80, decode[map[string]any](t, w)["total"].(float64), 1e-9)

	w = doJSON(t, r, http.MethodPut, "/api/jobs/"+jobID, token, map[string]any{"totalAmount": "150", "status": "completed"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 150.0, decode[map[string]any](t, w)["totalAmount"])

	w = doJSON(t, r, http.MethodGet, "/api/jobs?status=completed", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]map[string]any](t, w), 1)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, r, http.MethodGet, "/api/jobs?status=lost", token, nil).Code)

	w = doJSON(t, r, http.MethodGet, "/api/dashboard", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1.0, decode[map[string]any](t, w)["completedJobs"])
}

func TestSMSDisabledWithoutProvider(t *testing.T) {
	r := newTestRouter(t, nil)
	token := register(t, r, "owner@example.com")
	w := doJSON(t, r, http.MethodPost, "/api/jobs", token, map[string]any{"cost": "10"})
	require.Equal(t, http.StatusCreated, w.Code)
	jobID := decode[map[string]any](t, w)["id"].(string)

	w = doJSON(t, r, http.MethodPost, "/api/jobs/"+jobID+"/workorder/sms", token, map[string]any{"phone": "5550100199"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestPreviewDraftJob(t *testing.T) {
	r := newTestRouter(t, nil)
	token := register(t, r, "owner@example.com")

	w := doJSON(t, r, http.MethodPost, "/api/jobs/preview", token, map[string]any{
		"cost": 50, "discountType": "flat", "discountValue": 60, "applySalesTax": false,
	})
	require.Equal(t, http.StatusOK, w.Code)
	wo := decode[map[string]any](t, w)
	assert.Equal(t, 0.0, wo["serviceAmount"])
	assert.Equal(t, 0.0, wo["total"])

	w = doJSON(t, r, http.MethodGet, "/api/jobs", token, nil)
	assert.Empty(t, decode[[]map[string]any](t, w))
}

func TestWorkflowOptionEndpoints(t *testing.T) {
	r := newTestRouter(t, nil)
	token := register(t, r, "owner@example.com")

	var ids []string
	for _, name := range []string{"Chip", "Crack", "Shatter"} {
		w := doJSON(t, r, http.MethodPost, "/api/profile/options/damageTypes", token, map[string]any{"name": name, "cost": "40"})
		require.Equal(t, http.StatusCreated, w.Code)
		ids = append(ids, decode[map[string]any](t, w)["id"].(string))
	}

	// Deleting the middle option leaves the third addressable by its id.
	require.Equal(t, http.StatusOK, doJSON(t, r, http.MethodDelete, "/api/profile/options/damageTypes/"+ids[1], token, nil).Code)
	w := doJSON(t, r, http.MethodPut, "/api/profile/options/damageTypes/"+ids[2], token, map[string]any{"name": "Shattered", "cost": "300"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/profile", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	options := decode[map[string]any](t, w)["jobWorkflowOptions"].(map[string]any)["damageTypes"].([]any)
	require.Len(t, options, 2)
	assert.Equal(t, "Chip", options[0].(map[string]any)["name"])
	assert.Equal(t, "Shattered", options[1].(map[string]any)["name"])

	assert.Equal(t, http.StatusNotFound, doJSON(t, r, http.MethodPut, "/api/profile/options/damageTypes/"+ids[1], token, map[string]any{"name": "X"}).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(t, r, http.MethodPost, "/api/profile/options/tints", token, map[string]any{"name": "X"}).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, r, http.MethodPost, "/api/profile/options/glassTypes", token, map[string]any{"name": ""}).Code)
}

func readEvent(t *testing.T, sc *bufio.Scanner) (string, string) {
	t.Helper()
	var event, data string
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimPrefix(line, "event:")
		case strings.HasPrefix(line, "data:"):
			data = strings.TrimPrefix(line, "data:")
		case line == "" && event != "":
			return event, data
		}
	}
	t.Fatalf("stream ended: %v", sc.Err())
	return "", ""
}

func TestStreamPushesSnapshots(t *testing.T) {
	r := newTestRouter(t, nil)
	token := register(t, r, "owner@example.com")
	srv := httptest.NewServer(r)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/stream/customers", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	sc := bufio.NewScanner(resp.Body)
	event, data := readEvent(t, sc)
	assert.Equal(t, "snapshot", event)
	assert.Equal(t, "[]", data)

	w := doJSON(t, r, http.MethodPost, "/api/customers", token, map[string]any{"name": "Ada"})
	require.Equal(t, http.StatusCreated, w.Code)

	event, data = readEvent(t, sc)
	assert.Equal(t, "snapshot", event)
	assert.Contains(t, data, `"name":"Ada"`)
}

func TestStreamUnknownCollection(t *testing.T) {
	r := newTestRouter(t, nil)
	token := register(t, r, "owner@example.com")
	assert.Equal(t, http.StatusNotFound, doJSON(t, r, http.MethodGet, "/api/stream/accounts", token, nil).Code)
}
