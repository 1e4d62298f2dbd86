package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/atelier-market/identity-api/internal/core/domain"
	"github.com/atelier-market/identity-api/internal/core/ports"
	"github.com/atelier-market/identity-api/internal/core/service"
)

const testSecret = "secret"

type stubUserRepo struct {
	users map[string]*domain.User
}

func newStubUserRepo(users ...*domain.User) *stubUserRepo {
	r := &stubUserRepo{users: make(map[string]*domain.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	if u, ok := r.users[id]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) Save(_ context.Context, u *domain.User) (*domain.User, error)  { return u, nil }
func (r *stubUserRepo) FindByEmail(_ context.Context, _ string) (*domain.User, error) { return nil, domain.ErrUserNotFound }
func (r *stubUserRepo) FindAll(_ context.Context) ([]domain.User, error)              { return nil, nil }
func (r *stubUserRepo) Update(_ context.Context, u *domain.User) (*domain.User, error) {
	return u, nil
}
func (r *stubUserRepo) Delete(_ context.Context, _ string) error { return nil }

func testCodec(t *testing.T) ports.TokenCodec {
	t.Helper()
	codec, err := service.NewJWTCodec(testSecret, time.Hour)
	if err != nil {
		t.Fatalf("NewJWTCodec: %v", err)
	}
	return codec
}

// signToken crafts a raw token for cases the codec refuses to produce.
func signToken(t *testing.T, subject, role string, exp time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":  subject,
		"role": role,
		"exp":  exp.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func request(method, routePath, token string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath(routePath)
	return c, rec
}

func expectUnauthorized(t *testing.T, err error) {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected echo.HTTPError, got %v", err)
	}
	if he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", he.Code)
	}
}

func TestAuth_ValidToken(t *testing.T) {
	user := &domain.User{ID: "user-1", Role: domain.RoleMember}
	repo := newStubUserRepo(user)
	codec := testCodec(t)

	token, err := codec.Issue(user.ID, domain.RoleMember)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	c, rec := request(http.MethodGet, "/users/:id", "Bearer "+token)

	called := false
	handler := Auth(codec, repo, zerolog.Nop())(func(c echo.Context) error {
		called = true
		got, _ := c.Get(ContextKeyUser).(*domain.User)
		if got == nil || got.ID != "user-1" {
			t.Fatalf("user not attached to context")
		}
		if c.Get(ContextKeyRole) != domain.RoleMember {
			t.Fatalf("role not attached to context")
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuth_MissingHeader(t *testing.T) {
	c, _ := request(http.MethodGet, "/users/:id", "")
	handler := Auth(testCodec(t), newStubUserRepo(), zerolog.Nop())(failNext(t))
	expectUnauthorized(t, handler(c))
}

func TestAuth_MalformedHeader(t *testing.T) {
	c, _ := request(http.MethodGet, "/users/:id", "Token abc")
	handler := Auth(testCodec(t), newStubUserRepo(), zerolog.Nop())(failNext(t))
	expectUnauthorized(t, handler(c))
}

func TestAuth_InvalidToken(t *testing.T) {
	c, _ := request(http.MethodGet, "/users/:id", "Bearer not-a-token")
	handler := Auth(testCodec(t), newStubUserRepo(), zerolog.Nop())(failNext(t))
	expectUnauthorized(t, handler(c))
}

func TestAuth_UnknownRoleInClaims(t *testing.T) {
	user := &domain.User{ID: "user-1", Role: domain.RoleMember}
	token := signToken(t, user.ID, "admin", time.Now().Add(time.Hour))

	c, _ := request(http.MethodGet, "/users/:id", "Bearer "+token)
	handler := Auth(testCodec(t), newStubUserRepo(user), zerolog.Nop())(failNext(t))
	expectUnauthorized(t, handler(c))
}

func TestAuth_SubjectGone(t *testing.T) {
	codec := testCodec(t)
	token, _ := codec.Issue("deleted-user", domain.RoleMember)

	c, _ := request(http.MethodGet, "/users/:id", "Bearer "+token)
	handler := Auth(codec, newStubUserRepo(), zerolog.Nop())(failNext(t))
	expectUnauthorized(t, handler(c))
}

func TestAuth_StaleRoleToken(t *testing.T) {
	// Token was issued while the user was a manager; the user has since been
	// demoted. The signature is still valid but the token must be rejected.
	user := &domain.User{ID: "user-1", Role: domain.RoleMember}
	codec := testCodec(t)
	token, _ := codec.Issue(user.ID, domain.RoleManager)

	c, _ := request(http.MethodGet, "/users/:id", "Bearer "+token)
	handler := Auth(codec, newStubUserRepo(user), zerolog.Nop())(failNext(t))
	expectUnauthorized(t, handler(c))
}

func TestAuth_RestrictedRouteMember(t *testing.T) {
	user := &domain.User{ID: "user-1", Role: domain.RoleMember}
	codec := testCodec(t)
	token, _ := codec.Issue(user.ID, domain.RoleMember)

	c, _ := request(http.MethodGet, "/users", "Bearer "+token)
	handler := Auth(codec, newStubUserRepo(user), zerolog.Nop())(failNext(t))
	expectUnauthorized(t, handler(c))
}

func TestAuth_RestrictedRouteManager(t *testing.T) {
	user := &domain.User{ID: "user-1", Role: domain.RoleManager}
	codec := testCodec(t)
	token, _ := codec.Issue(user.ID, domain.RoleManager)

	c, rec := request(http.MethodGet, "/users", "Bearer "+token)
	handler := Auth(codec, newStubUserRepo(user), zerolog.Nop())(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuth_RoleMutationRouteMember(t *testing.T) {
	user := &domain.User{ID: "user-1", Role: domain.RoleMember}
	codec := testCodec(t)
	token, _ := codec.Issue(user.ID, domain.RoleMember)

	c, _ := request(http.MethodPut, "/users/:id/role", "Bearer "+token)
	handler := Auth(codec, newStubUserRepo(user), zerolog.Nop())(failNext(t))
	expectUnauthorized(t, handler(c))
}

func failNext(t *testing.T) echo.HandlerFunc {
	return func(c echo.Context) error {
		t.Fatalf("should not reach next handler")
		return nil
	}
}
