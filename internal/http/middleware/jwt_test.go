package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/hilaltech/miqat/internal/db"
	"github.com/hilaltech/miqat/internal/model"
)

type stubStore struct {
	db.Store
	user *model.User
}

func (s *stubStore) GetUserByID(id int) (*model.User, error) {
	if s.user != nil && s.user.ID == id {
		return s.user, nil
	}
	return nil, errors.New("user not found")
}

func protectedRouter(secret string, store db.Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(JWTMiddleware(secret, store))
	r.GET("/whoami", func(c *gin.Context) {
		user, ok := GetCurrentUser(c)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "no user in context"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": user.ID})
	})
	return r
}

func TestJWTRoundTrip(t *testing.T) {
	const secret = "supersecret"
	store := &stubStore{user: &model.User{ID: 42, Email: "imam@example.com"}}
	r := protectedRouter(secret, store)

	token, err := GenerateJWT(42, secret)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("code = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestJWTMissingAndMalformedHeaders(t *testing.T) {
	const secret = "supersecret"
	store := &stubStore{user: &model.User{ID: 42}}
	r := protectedRouter(secret, store)

	cases := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"not bearer", "Basic abc123"},
		{"garbage token", "Bearer not-a-jwt"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != http.StatusUnauthorized {
				t.Fatalf("code = %d, want 401", w.Code)
			}
		})
	}
}

func TestJWTWrongSecretRejected(t *testing.T) {
	store := &stubStore{user: &model.User{ID: 42}}
	r := protectedRouter("right-secret", store)

	token, err := GenerateJWT(42, "wrong-secret")
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("code = %d, want 401", w.Code)
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("testpassword")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !CheckPassword(hash, "testpassword") {
		t.Fatalf("correct password rejected")
	}
	if CheckPassword(hash, "wrongpassword") {
		t.Fatalf("wrong password accepted")
	}
}
