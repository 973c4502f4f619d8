package routes_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"logiledger-api-server/config"
	"logiledger-api-server/internal/api/routes"
	"logiledger-api-server/internal/service"
	"logiledger-api-server/internal/socket"
	"logiledger-api-server/internal/store/memstore"
)

func init() {
	gin.SetMode(gin.TestMode)
	logrus.SetOutput(io.Discard)
}

type testAPI struct {
	t      *testing.T
	router *gin.Engine
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	svcs := service.New(service.Options{Store: memstore.New()}, service.AccountConfig{JWTSecret: "test-secret"}, nil)
	router, err := routes.SetupRouter(routes.Dependencies{
		Config:   config.Config{Server: config.ServerConfig{AllowedOrigins: []string{"http://localhost:3000"}}},
		Services: svcs,
		Hub:      socket.NewHub(),
	})
	require.NoError(t, err)
	return &testAPI{t: t, router: router}
}

func (a *testAPI) do(method, path, token string, body interface{}) (int, map[string]interface{}) {
	a.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var out map[string]interface{}
	require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return w.Code, out
}

func (a *testAPI) register(userType, location string) (token, id string) {
	a.t.Helper()
	code, body := a.do(http.MethodPost, "/api/auth/register", "", gin.H{
		"name":        gofakeit.Name(),
		"email":       gofakeit.Email(),
		"password":    "secret123",
		"userType":    userType,
		"companyName": gofakeit.Company(),
		"phoneNumber": gofakeit.Phone(),
		"location":    location,
	})
	require.Equal(a.t, http.StatusCreated, code, body)
	user := body["user"].(map[string]interface{})
	return body["token"].(string), user["id"].(string)
}

func field(body map[string]interface{}, key string) map[string]interface{} {
	v, _ := body[key].(map[string]interface{})
	return v
}

func list(body map[string]interface{}, key string) []interface{} {
	v, _ := body[key].([]interface{})
	return v
}

func TestPing(t *testing.T) {
	api := newTestAPI(t)
	code, body := api.do(http.MethodGet, "/api/ping", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "1.0.0", body["version"])
}

func TestAuthEndpoints(t *testing.T) {
	api := newTestAPI(t)
	email := gofakeit.Email()

	code, body := api.do(http.MethodPost, "/api/auth/register", "", gin.H{
		"name": "Asha", "email": email, "password": "secret123", "userType": "msme",
		"location": gin.H{"city": "Pune", "state": "Maharashtra"},
	})
	require.Equal(t, http.StatusCreated, code, body)
	assert.Equal(t, true, body["success"])
	assert.NotContains(t, field(body, "user"), "password")

	code, _ = api.do(http.MethodPost, "/api/auth/register", "", gin.H{
		"name": "Asha", "email": email, "password": "secret123", "userType": "msme",
	})
	assert.Equal(t, http.StatusConflict, code)

	code, body = api.do(http.MethodPost, "/api/auth/register", "", gin.H{
		"name": "Ravi", "email": gofakeit.Email(), "password": "secret123", "userType": "admin",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, false, body["success"])

	code, body = api.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": email, "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Invalid email or password", body["message"])

	code, body = api.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": email, "password": "secret123"})
	require.Equal(t, http.StatusOK, code)
	token := body["token"].(string)

	code, body = api.do(http.MethodGet, "/api/auth/verify", token, nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, email, field(body, "user")["email"])

	code, _ = api.do(http.MethodGet, "/api/auth/verify", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, body = api.do(http.MethodPut, "/api/auth/profile", token, gin.H{"location": "Nashik, Maharashtra"})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Nashik", field(field(body, "user"), "location")["city"])
}

func TestMarketplaceFlow(t *testing.T) {
	api := newTestAPI(t)
	companyToken, _ := api.register("company", "Mumbai, Maharashtra")
	puneToken, _ := api.register("msme", "Pune, Maharashtra")
	chennaiToken, _ := api.register("msme", "Chennai, Tamil Nadu")

	consignmentBody := gin.H{
		"title":       "Laptops to Delhi",
		"origin":      "Mumbai, Maharashtra",
		"destination": gin.H{"city": "Delhi", "state": "Delhi"},
		"goodsType":   "electronics",
		"weight":      1200,
		"budget":      50000,
		"deadline":    "2099-06-30",
	}

	code, body := api.do(http.MethodPost, "/api/consignments/create", puneToken, consignmentBody)
	assert.Equal(t, http.StatusForbidden, code)

	invalid := gin.H{}
	for k, v := range consignmentBody {
		invalid[k] = v
	}
	invalid["goodsType"] = "spaceships"
	code, body = api.do(http.MethodPost, "/api/consignments/create", companyToken, invalid)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Invalid goods type", body["message"])

	code, body = api.do(http.MethodPost, "/api/consignments/create", companyToken, consignmentBody)
	require.Equal(t, http.StatusCreated, code, body)
	assert.EqualValues(t, 1, body["matchingMSMEs"])
	consignment := field(body, "consignment")
	consignmentID := consignment["id"].(string)
	assert.Equal(t, "Mumbai, Maharashtra", field(consignment, "origin")["fullAddress"])

	code, body = api.do(http.MethodGet, "/api/consignments/public", "", nil)
	require.Equal(t, http.StatusOK, code)
	public := list(body, "consignments")
	require.Len(t, public, 1)
	assert.NotContains(t, public[0], "companyId")

	code, body = api.do(http.MethodGet, "/api/consignments/available", puneToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, body["matchingCount"])
	available := list(body, "consignments")
	require.Len(t, available, 1)
	assert.Equal(t, true, available[0].(map[string]interface{})["locationMatch"].(map[string]interface{})["isMatch"])

	code, body = api.do(http.MethodGet, "/api/consignments/available", chennaiToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 0, body["matchingCount"])
	assert.EqualValues(t, 1, body["totalAvailable"])

	code, body = api.do(http.MethodGet, "/api/consignments/location-recommendations", puneToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, list(field(body, "recommendations"), "matchingConsignments"), 1)

	code, body = api.do(http.MethodPost, "/api/bids/create", puneToken, gin.H{
		"consignmentId": consignmentID, "amount": 60000, "estimatedDelivery": "2099-06-01",
	})
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = api.do(http.MethodPost, "/api/bids/create", puneToken, gin.H{
		"consignmentId": consignmentID, "bidAmount": 42000, "estimatedDelivery": "2099-06-01", "notes": "Two trucks",
	})
	require.Equal(t, http.StatusCreated, code, body)
	winningBidID := field(body, "bid")["id"].(string)
	assert.Equal(t, "Two trucks", field(body, "bid")["message"])

	code, _ = api.do(http.MethodPost, "/api/bids/create", puneToken, gin.H{
		"consignmentId": consignmentID, "amount": 41000, "estimatedDelivery": "2099-06-01",
	})
	assert.Equal(t, http.StatusConflict, code)

	code, body = api.do(http.MethodPost, "/api/bids/create", chennaiToken, gin.H{
		"consignmentId": consignmentID, "amount": 45000, "estimatedDeliveryTime": 5,
	})
	require.Equal(t, http.StatusCreated, code, body)
	losingBidID := field(body, "bid")["id"].(string)

	code, body = api.do(http.MethodGet, "/api/bids/consignment/"+consignmentID, companyToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, list(body, "bids"), 2)

	code, _ = api.do(http.MethodPost, "/api/bids/"+winningBidID+"/award", puneToken, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, body = api.do(http.MethodPost, "/api/bids/"+winningBidID+"/award", companyToken, nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "awarded", field(body, "consignment")["status"])
	assert.EqualValues(t, 1, body["rejectedBids"])

	code, _ = api.do(http.MethodPost, "/api/bids/"+losingBidID+"/award", companyToken, nil)
	assert.Equal(t, http.StatusConflict, code)

	code, body = api.do(http.MethodGet, "/api/bids/my-bids", chennaiToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "rejected", list(body, "bids")[0].(map[string]interface{})["status"])

	code, body = api.do(http.MethodGet, "/api/jobs/awarded", puneToken, nil)
	require.Equal(t, http.StatusOK, code)
	jobs := list(body, "jobs")
	require.Len(t, jobs, 1)
	job := jobs[0].(map[string]interface{})
	jobID := job["id"].(string)
	assert.Equal(t, "assigned", job["status"])

	code, _ = api.do(http.MethodPut, "/api/jobs/"+jobID+"/status", puneToken, gin.H{"status": "completed"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = api.do(http.MethodPut, "/api/jobs/"+jobID+"/status", chennaiToken, gin.H{"status": "in_progress"})
	assert.Equal(t, http.StatusForbidden, code)

	code, body = api.do(http.MethodPut, "/api/jobs/"+jobID+"/status", puneToken, gin.H{"status": "in_progress"})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "in_progress", field(body, "job")["status"])

	code, body = api.do(http.MethodGet, "/api/consignments/"+consignmentID, companyToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "in_progress", field(body, "consignment")["status"])

	code, body = api.do(http.MethodGet, "/api/jobs/company", companyToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, list(body, "jobs"), 1)

	code, body = api.do(http.MethodPost, "/api/jobs/"+jobID+"/invoice", puneToken, gin.H{
		"invoiceData": gin.H{"invoiceNumber": "INV-7", "amount": 42000},
	})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, true, field(body, "job")["invoiceUploaded"])
	assert.Equal(t, "INV-7", field(body, "job")["invoiceNumber"])
}

func TestInvoiceFileForUnknownJob(t *testing.T) {
	api := newTestAPI(t)
	msmeToken, _ := api.register("msme", "Pune, Maharashtra")

	var buf bytes.Buffer
	buf.WriteString("--b\r\nContent-Disposition: form-data; name=\"file\"; filename=\"inv.pdf\"\r\nContent-Type: application/pdf\r\n\r\n%PDF-1.4\r\n--b--\r\n")
	req := httptest.NewRequest(http.MethodPost, "/api/jobs/000000000000000000000000/invoice/file", &buf)
	req.Header.Set("Content-Type", "multipart/form-data; boundary=b")
	req.Header.Set("Authorization", "Bearer "+msmeToken)
	w := httptest.NewRecorder()
	api.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUnauthenticatedRequestsAreRejected(t *testing.T) {
	api := newTestAPI(t)
	for _, path := range []string{"/api/consignments/my-consignments", "/api/bids/my-bids", "/api/jobs/awarded"} {
		code, body := api.do(http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, code, path)
		assert.Equal(t, false, body["success"])
	}
}

type denyAll struct{}

func (denyAll) Allow(context.Context, string) (bool, int, error) { return false, 0, nil }
func (denyAll) Limit() int                                        { return 0 }

func TestRateLimitedRouter(t *testing.T) {
	svcs := service.New(service.Options{Store: memstore.New()}, service.AccountConfig{JWTSecret: "test-secret"}, nil)
	router, err := routes.SetupRouter(routes.Dependencies{Services: svcs, Hub: socket.NewHub(), Limiter: denyAll{}})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/ping", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

// keyCounter allows limit hits per key and records every key it saw.
type keyCounter struct {
	mu    sync.Mutex
	limit int
	keys  map[string]int
}

func (k *keyCounter) Limit() int { return k.limit }

func (k *keyCounter) Allow(_ context.Context, key string) (bool, int, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.keys[key]++
	return k.keys[key] <= k.limit, 0, nil
}

func rateLimitedRouter(t *testing.T, trusted []string, limiter *keyCounter) *gin.Engine {
	t.Helper()
	svcs := service.New(service.Options{Store: memstore.New()}, service.AccountConfig{JWTSecret: "test-secret"}, nil)
	router, err := routes.SetupRouter(routes.Dependencies{
		Config:   config.Config{Server: config.ServerConfig{TrustedProxies: trusted}},
		Services: svcs,
		Hub:      socket.NewHub(),
		Limiter:  limiter,
	})
	require.NoError(t, err)
	return router
}

func pingFrom(router *gin.Engine, remoteAddr, forwardedFor string) int {
	req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	req.RemoteAddr = remoteAddr
	req.Header.Set("X-Forwarded-For", forwardedFor)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimitIgnoresForwardedForFromUntrustedPeers(t *testing.T) {
	limiter := &keyCounter{limit: 1, keys: map[string]int{}}
	router := rateLimitedRouter(t, nil, limiter)

	var codes []int
	for _, xff := range []string{"1.1.1.1", "2.2.2.2", "3.3.3.3"} {
		codes = append(codes, pingFrom(router, "10.0.0.9:4321", xff))
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests, http.StatusTooManyRequests}, codes)
	assert.Equal(t, map[string]int{"10.0.0.9": 3}, limiter.keys)
}

func TestRateLimitUsesForwardedForFromTrustedProxy(t *testing.T) {
	limiter := &keyCounter{limit: 1, keys: map[string]int{}}
	router := rateLimitedRouter(t, []string{"10.0.0.0/8"}, limiter)

	assert.Equal(t, http.StatusOK, pingFrom(router, "10.0.0.9:4321", "1.1.1.1"))
	assert.Equal(t, http.StatusOK, pingFrom(router, "10.0.0.9:4321", "2.2.2.2"))
	assert.Equal(t, http.StatusTooManyRequests, pingFrom(router, "10.0.0.9:4321", "1.1.1.1"))
	assert.Equal(t, map[string]int{"1.1.1.1": 2, "2.2.2.2": 1}, limiter.keys)
}

func TestSetupRouterRejectsBadTrustedProxy(t *testing.T) {
	svcs := service.New(service.Options{Store: memstore.New()}, service.AccountConfig{JWTSecret: "test-secret"}, nil)
	_, err := routes.SetupRouter(routes.Dependencies{
		Config:   config.Config{Server: config.ServerConfig{TrustedProxies: []string{"not-a-cidr"}}},
		Services: svcs,
		Hub:      socket.NewHub(),
	})
	assert.Error(t, err)
}
