package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/arkanlabs/course-feedback-api/internal/middleware"
	"github.com/arkanlabs/course-feedback-api/internal/models"
	"github.com/arkanlabs/course-feedback-api/internal/service"
)

type stubUserRepo struct {
	users map[string]*models.User
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func newAuthRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := &stubUserRepo{users: map[string]*models.User{
		"u-1": {
			ID: "u-1", TenantID: "tenant-1", Email: "grace@example.com",
			PasswordHash: string(hash), FullName: "Grace Hopper",
			Role: models.RoleStudent, Active: true,
		},
	}}
	auth := service.NewAuthService(repo, nil, nil, service.AuthConfig{TokenSecret: "test-secret"})
	h := NewAuthHandler(auth)

	router := gin.New()
	router.POST("/auth/login", h.Login)
	authed := router.Group("", middleware.JWT(auth))
	authed.GET("/auth/me", h.Me)
	return router
}

func TestAuthHandlerLoginAndMe(t *testing.T) {
	router := newAuthRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"email":"grace@example.com","password":"secret123"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var loginEnvelope struct {
		Data models.LoginResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &loginEnvelope))
	require.NotEmpty(t, loginEnvelope.Data.AccessToken)
	assert.Equal(t, "Grace Hopper", loginEnvelope.Data.User.FullName)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+loginEnvelope.Data.AccessToken)
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var meEnvelope struct {
		Data models.UserInfo `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &meEnvelope))
	assert.Equal(t, "u-1", meEnvelope.Data.ID)
	assert.Equal(t, models.RoleStudent, meEnvelope.Data.Role)
}

func TestAuthHandlerLoginWrongPassword(t *testing.T) {
	router := newAuthRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"email":"grace@example.com","password":"wrong"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthHandlerLoginInvalidBody(t *testing.T) {
	router := newAuthRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthHandlerMeWithoutToken(t *testing.T) {
	router := newAuthRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthHandlerMeGarbageToken(t *testing.T) {
	router := newAuthRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
