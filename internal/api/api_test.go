package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/farmtofork/farmtofork/backend/market-service/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-for-unit-tests"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func consumerToken(t *testing.T) string {
	return signToken(t, jwt.MapClaims{
		"user_id": "user_2abc",
		"email":   "jean@example.com",
		"role":    models.RoleConsumer,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

// identityEcho echoes the claims the middleware stored on the context.
func identityEcho(c *gin.Context) {
	userID, _ := GetUserID(c)
	email, _ := GetUserEmail(c)
	c.JSON(http.StatusOK, gin.H{
		"user_id": userID,
		"email":   email,
		"role":    GetUserRole(c),
	})
}

func newAuthRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/whoami", AuthMiddleware(), identityEcho)
	r.GET("/admin", AuthMiddleware(), AdminMiddleware(), identityEcho)
	return r
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	r := newAuthRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, string(models.ErrUnauthenticated), decodeError(t, w).Error)
}

func TestAuthMiddleware_MalformedHeader(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	r := newAuthRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Token abc123")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_MissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	r := newAuthRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+consumerToken(t))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestAuthMiddleware_InvalidSignature(t *testing.T) {
	t.Setenv("JWT_SECRET", "a-different-secret")
	r := newAuthRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+consumerToken(t))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, string(models.ErrUnauthenticated), decodeError(t, w).Error)
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	r := newAuthRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+consumerToken(t))
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "user_2abc", resp["user_id"])
	assert.Equal(t, "jean@example.com", resp["email"])
	assert.Equal(t, models.RoleConsumer, resp["role"])
}

func TestAuthMiddleware_SubClaimFallback(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	r := newAuthRouter()

	token := signToken(t, jwt.MapClaims{
		"sub":   "user_fromsub",
		"email": "sub@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "user_fromsub", resp["user_id"])
	assert.Equal(t, models.RoleConsumer, resp["role"], "missing role claim defaults to consumer")
}

func TestAdminMiddleware(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	r := newAuthRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+consumerToken(t))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, string(models.ErrForbidden), decodeError(t, w).Error)

	adminToken := signToken(t, jwt.MapClaims{
		"user_id": "user_admin",
		"email":   "admin@example.com",
		"role":    models.RoleAdmin,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

// newHandlerRouter wires a Handler with no database; every test below must
// fail validation or auth before any store access.
func newHandlerRouter(t *testing.T) *gin.Engine {
	t.Setenv("JWT_SECRET", testSecret)
	gin.SetMode(gin.TestMode)
	h := NewHandler(nil, nil, nil)
	r := gin.New()
	auth := r.Group("/api")
	auth.Use(AuthMiddleware())
	auth.POST("/onboarding/submit-request", h.SubmitFarmerRequest)
	auth.POST("/orders/create", h.CreateOrder)
	admin := auth.Group("/admin")
	admin.Use(AdminMiddleware())
	admin.POST("/validate-farmer-request", h.DecideFarmerRequest)
	return r
}

func postJSON(t *testing.T, r *gin.Engine, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestSubmitFarmerRequest_RequiresAuth(t *testing.T) {
	r := newHandlerRouter(t)

	w := postJSON(t, r, "/api/onboarding/submit-request", "", models.SubmitFarmerRequestRequest{})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSubmitFarmerRequest_BatchValidation(t *testing.T) {
	r := newHandlerRouter(t)

	w := postJSON(t, r, "/api/onboarding/submit-request", consumerToken(t), models.SubmitFarmerRequestRequest{
		FirstName: "",
		LastName:  "Dupont",
		FarmName:  "",
		Siret:     "123",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, string(models.ErrValidation), resp.Error)
	assert.GreaterOrEqual(t, len(resp.Details), 3, "every problem is reported, not just the first")
}

func TestCreateOrder_BatchValidation(t *testing.T) {
	r := newHandlerRouter(t)

	w := postJSON(t, r, "/api/orders/create", consumerToken(t), models.CreateOrderRequest{
		FarmID:       0,
		Items:        nil,
		DeliveryMode: "teleport",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, string(models.ErrValidation), resp.Error)
	assert.NotEmpty(t, resp.Details)
}

func TestCreateOrder_DeliveryRequiresAddress(t *testing.T) {
	r := newHandlerRouter(t)

	w := postJSON(t, r, "/api/orders/create", consumerToken(t), models.CreateOrderRequest{
		FarmID:       1,
		Items:        []models.CreateOrderItemInput{{ProductID: 10, Quantity: 2}},
		DeliveryMode: string(models.DeliveryModeDelivery),
		DeliveryDay:  "2026-09-04",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, string(models.ErrValidation), resp.Error)
}

func TestDecideFarmerRequest_RejectsBadDecision(t *testing.T) {
	r := newHandlerRouter(t)

	adminToken := signToken(t, jwt.MapClaims{
		"user_id": "user_admin",
		"email":   "admin@example.com",
		"role":    models.RoleAdmin,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	w := postJSON(t, r, "/api/admin/validate-farmer-request", adminToken, models.DecideFarmerRequestRequest{
		RequestID: 42,
		Status:    "pending",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, string(models.ErrValidation), resp.Error)
	assert.Contains(t, resp.Details, "status must be 'approved' or 'rejected'")
}

func TestDecideFarmerRequest_ForbiddenForNonAdmin(t *testing.T) {
	r := newHandlerRouter(t)

	w := postJSON(t, r, "/api/admin/validate-farmer-request", consumerToken(t), models.DecideFarmerRequestRequest{
		RequestID: 42,
		Status:    "approved",
	})

	assert.Equal(t, http.StatusForbidden, w.Code)
}
