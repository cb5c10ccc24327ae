package api

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"bizcard/internal/auth"
	"bizcard/internal/database"
)

func newTestAuthService(t *testing.T) *auth.AuthService {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}
	privPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatalf("marshal public key: %v", err)
	}
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})
	svc, err := auth.NewAuthService(privPEM, pubPEM, 15*time.Minute, 720*time.Hour)
	if err != nil {
		t.Fatalf("new auth service: %v", err)
	}
	return svc
}

// newDeadRedis returns a client that cannot connect. Login tolerates redis
// outages for rate limiting, so these tests exercise that path too.
func newDeadRedis(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func newAuthTestRouter(h *AuthHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/v1/auth/register", h.Register)
	r.POST("/v1/auth/login", h.Login)
	r.POST("/v1/auth/change-password", authAs(1), h.ChangePassword)
	return r
}

func postJSON(t *testing.T, r *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterAndLogin(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAuthService(t)
	h := NewAuthHandler(db, svc, newDeadRedis(t), nil, 10, 5, 15*time.Minute, "")
	r := newAuthTestRouter(h)

	w := postJSON(t, r, "/v1/auth/register", map[string]any{
		"username": "jane", "password": "hunter22222",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body = %s", w.Code, w.Body.String())
	}

	w = postJSON(t, r, "/v1/auth/login", map[string]any{
		"username": "jane", "password": "hunter22222",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		AccessToken        string `json:"access_token"`
		TokenType          string `json:"token_type"`
		MustChangePassword bool   `json:"must_change_password"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if resp.AccessToken == "" || resp.TokenType != "Bearer" {
		t.Errorf("login response: %+v", resp)
	}

	claims, err := svc.ValidateToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("validate issued token: %v", err)
	}
	if claims.TokenType != "access" {
		t.Errorf("token type = %q", claims.TokenType)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAuthService(t)
	hash, err := svc.HashPassword("hunter22222")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err := db.Create(&database.User{Username: "jane", PasswordHash: hash}).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}

	h := NewAuthHandler(db, svc, newDeadRedis(t), nil, 10, 5, 15*time.Minute, "")
	r := newAuthTestRouter(h)

	w := postJSON(t, r, "/v1/auth/login", map[string]any{
		"username": "jane", "password": "wrong-password",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAuthService(t)
	h := NewAuthHandler(db, svc, newDeadRedis(t), nil, 10, 5, 15*time.Minute, "")
	r := newAuthTestRouter(h)

	body := map[string]any{"username": "jane", "password": "hunter22222"}
	if w := postJSON(t, r, "/v1/auth/register", body); w.Code != http.StatusCreated {
		t.Fatalf("first register: %d", w.Code)
	}
	if w := postJSON(t, r, "/v1/auth/register", body); w.Code != http.StatusConflict {
		t.Fatalf("second register: %d, want 409", w.Code)
	}
}

func TestChangePassword_ClearsFlag(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAuthService(t)
	hash, err := svc.HashPassword("initial-pass-1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	user := database.User{Username: "jane", PasswordHash: hash, MustChangePassword: true}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}

	h := NewAuthHandler(db, svc, newDeadRedis(t), nil, 10, 5, 15*time.Minute, "")
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/v1/auth/change-password", authAs(user.ID), h.ChangePassword)

	w := postJSON(t, r, "/v1/auth/change-password", map[string]any{
		"current_password": "initial-pass-1",
		"new_password":     "fresh-pass-22",
		"confirm_password": "fresh-pass-22",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var stored database.User
	if err := db.First(&stored, user.ID).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if stored.MustChangePassword {
		t.Error("flag must clear after a successful change")
	}
	if !svc.CheckPasswordHash("fresh-pass-22", stored.PasswordHash) {
		t.Error("new password must verify")
	}
	if svc.CheckPasswordHash("initial-pass-1", stored.PasswordHash) {
		t.Error("old password must stop verifying")
	}
}
