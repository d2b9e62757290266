package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"videoquiz-backend/internal/models"
	"videoquiz-backend/internal/services"
)

var testCookies = CookieSettings{
	AccessName:  "access_token",
	RefreshName: "refresh_token",
	Secure:      true,
	SameSite:    http.SameSiteLaxMode,
}

func cookieByName(rr *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &m))
	return m
}

func TestAuthHandler_Register(t *testing.T) {
	auth := &fakeAuth{}
	h := NewAuthHandler(auth, testCookies, zap.NewNop())

	body := `{"username":"alice","email":"alice@example.com","password":"password123","confirmed_password":"password123"}`
	req := httptest.NewRequest(http.MethodPost, "/api/register", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.Register(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "User created successfully!", decodeBody(t, rr)["detail"])
	assert.Equal(t, "password123", auth.gotRegister.ConfirmedPassword)
}

func TestAuthHandler_RegisterValidation(t *testing.T) {
	auth := &fakeAuth{registerErr: &services.ValidationError{Fields: map[string]string{"confirmed_password": "Passwords do not match."}}}
	h := NewAuthHandler(auth, testCookies, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/register", strings.NewReader(`{}`))
	rr := httptest.NewRecorder()
	h.Register(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	errObj := decodeBody(t, rr)["error"].(map[string]interface{})
	assert.Equal(t, "VALIDATION_ERROR", errObj["code"])
	assert.Equal(t, "Passwords do not match.", errObj["fields"].(map[string]interface{})["confirmed_password"])
}

func TestAuthHandler_RegisterBadJSON(t *testing.T) {
	h := NewAuthHandler(&fakeAuth{}, testCookies, zap.NewNop())

	rr := httptest.NewRecorder()
	h.Register(rr, httptest.NewRequest(http.MethodPost, "/api/register", strings.NewReader(`{`)))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAuthHandler_Login(t *testing.T) {
	user := &models.User{ID: uuid.New(), Username: "alice", Email: "alice@example.com", PasswordHash: "secret-hash"}
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	auth := &fakeAuth{
		loginUser:   user,
		loginTokens: &models.AuthTokens{AccessToken: "acc", AccessExpiresAt: exp, RefreshToken: "ref", RefreshExpiresAt: exp},
	}
	h := NewAuthHandler(auth, testCookies, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(`{"username":"alice","password":"password123"}`))
	rr := httptest.NewRecorder()
	h.Login(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, "Login successfully!", body["detail"])
	u := body["user"].(map[string]interface{})
	assert.Equal(t, user.ID.String(), u["id"])
	assert.Equal(t, "alice", u["username"])
	assert.NotContains(t, rr.Body.String(), "secret-hash")

	access := cookieByName(rr, "access_token")
	require.NotNil(t, access)
	assert.Equal(t, "acc", access.Value)
	assert.True(t, access.HttpOnly)
	assert.True(t, access.Secure)
	assert.Equal(t, http.SameSiteLaxMode, access.SameSite)

	refresh := cookieByName(rr, "refresh_token")
	require.NotNil(t, refresh)
	assert.Equal(t, "ref", refresh.Value)
}

func TestAuthHandler_LoginInvalid(t *testing.T) {
	h := NewAuthHandler(&fakeAuth{loginErr: services.ErrInvalidCredentials}, testCookies, zap.NewNop())

	rr := httptest.NewRecorder()
	h.Login(rr, httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(`{"username":"x","password":"y"}`)))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Nil(t, cookieByName(rr, "access_token"))
}

func TestAuthHandler_Refresh(t *testing.T) {
	auth := &fakeAuth{}
	h := NewAuthHandler(auth, testCookies, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/token/refresh", nil)
	req.AddCookie(&http.Cookie{Name: "refresh_token", Value: "old-refresh"})
	rr := httptest.NewRecorder()
	h.Refresh(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, "Token refreshed", body["detail"])
	assert.Equal(t, "new-access", body["access"])
	assert.Equal(t, "old-refresh", auth.gotRefresh)
	assert.Equal(t, "new-access", cookieByName(rr, "access_token").Value)
}

func TestAuthHandler_RefreshWithoutCookie(t *testing.T) {
	auth := &fakeAuth{refreshErr: &services.UnauthorizedError{Message: "Refresh token not provided."}}
	h := NewAuthHandler(auth, testCookies, zap.NewNop())

	rr := httptest.NewRecorder()
	h.Refresh(rr, httptest.NewRequest(http.MethodPost, "/api/token/refresh", nil))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Empty(t, auth.gotRefresh)
}

func TestAuthHandler_Logout(t *testing.T) {
	auth := &fakeAuth{}
	h := NewAuthHandler(auth, testCookies, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/logout", nil)
	req.AddCookie(&http.Cookie{Name: "refresh_token", Value: "r"})
	rr := httptest.NewRecorder()
	h.Logout(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, decodeBody(t, rr)["detail"], "Refresh token is now invalid.")
	assert.Equal(t, "r", auth.gotLogout)

	for _, name := range []string{"access_token", "refresh_token"} {
		c := cookieByName(rr, name)
		require.NotNil(t, c, name)
		assert.Empty(t, c.Value)
		assert.True(t, c.MaxAge < 0)
	}
}
