package endpoints

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hilaltech/miqat/internal/db"
	"github.com/hilaltech/miqat/internal/http/api"
	"github.com/hilaltech/miqat/internal/model"
)

// memStore keeps users in a map; everything else is unused here.
type memStore struct {
	db.Store
	users  map[int]*model.User
	nextID int
}

func newMemStore() *memStore {
	return &memStore{users: map[int]*model.User{}, nextID: 1}
}

func (m *memStore) CreateUser(email, hashedPassword string, name *string) (int, error) {
	id := m.nextID
	m.nextID++
	m.users[id] = &model.User{
		ID:             id,
		Email:          email,
		HashedPassword: hashedPassword,
		Name:           name,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	return id, nil
}

func (m *memStore) GetUserByEmail(email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memStore) GetUserByID(id int) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *memStore) UpdateUserProfile(id int, email string, name *string) error {
	u, ok := m.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.Email = email
	u.Name = name
	u.UpdatedAt = time.Now()
	return nil
}

func setupAuthRouter(secret string, store db.Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	api.MountGroup(r, api.GroupConfig{Prefix: "/api/admin"},
		AuthPublicModule(secret, store))
	api.MountGroup(r, api.GroupConfig{
		Prefix:    "/api/admin",
		Auth:      true,
		SecretKey: secret,
		Store:     store,
	}, AuthSessionModule(secret, store))

	return r
}

func postJSON(t *testing.T, r *gin.Engine, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSignupLoginAndProfile(t *testing.T) {
	const jwtSecret = "supersecret"
	store := newMemStore()
	router := setupAuthRouter(jwtSecret, store)

	w := postJSON(t, router, "/api/admin/auth/signup", map[string]string{
		"email":    "test@example.com",
		"password": "12345678",
	}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("signup failed: %s", w.Body.String())
	}
	var signupResp map[string]string
	json.Unmarshal(w.Body.Bytes(), &signupResp)
	token := signupResp["token"]
	if token == "" {
		t.Fatalf("signup returned no token")
	}

	// profile requires the token
	req := httptest.NewRequest(http.MethodGet, "/api/admin/auth/current_profile", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code == http.StatusOK {
		t.Fatalf("expected unauthorized without token")
	}

	req = httptest.NewRequest(http.MethodGet, "/api/admin/auth/current_profile", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("current profile failed: %s", w.Body.String())
	}

	// login with the same credentials works
	w = postJSON(t, router, "/api/admin/auth/login", map[string]string{
		"email":    "test@example.com",
		"password": "12345678",
	}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("login failed: %s", w.Body.String())
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	const jwtSecret = "supersecret"
	store := newMemStore()
	router := setupAuthRouter(jwtSecret, store)

	postJSON(t, router, "/api/admin/auth/signup", map[string]string{
		"email":    "test@example.com",
		"password": "12345678",
	}, "")

	w := postJSON(t, router, "/api/admin/auth/login", map[string]string{
		"email":    "test@example.com",
		"password": "wrongpassword",
	}, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("code = %d, want 401", w.Code)
	}
}

func TestDuplicateSignupConflicts(t *testing.T) {
	const jwtSecret = "supersecret"
	store := newMemStore()
	router := setupAuthRouter(jwtSecret, store)

	postJSON(t, router, "/api/admin/auth/signup", map[string]string{
		"email":    "test@example.com",
		"password": "12345678",
	}, "")
	w := postJSON(t, router, "/api/admin/auth/signup", map[string]string{
		"email":    "test@example.com",
		"password": "12345678",
	}, "")
	if w.Code != http.StatusConflict {
		t.Fatalf("code = %d, want 409", w.Code)
	}
}
