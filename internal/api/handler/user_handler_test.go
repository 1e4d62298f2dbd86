package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/atelier-market/identity-api/internal/api/middleware"
	"github.com/atelier-market/identity-api/internal/core/domain"
	"github.com/atelier-market/identity-api/internal/core/ports"
)

const testUserID = "6f1c1f9a-7e54-4f3e-9a39-0c6f3e1d2b4a"

type stubUserService struct {
	authenticateUser *domain.User
	authenticateErr  error
	registerUser     *domain.User
	registerErr      error
	getUser          *domain.User
	getErr           error
	deleteErr        error
}

func (s *stubUserService) Register(_ context.Context, _ ports.RegisterInput) (*domain.User, error) {
	return s.registerUser, s.registerErr
}

func (s *stubUserService) Authenticate(_ context.Context, _, _ string) (*domain.User, error) {
	return s.authenticateUser, s.authenticateErr
}

func (s *stubUserService) GetUser(_ context.Context, _, _, _ string) (*domain.User, error) {
	return s.getUser, s.getErr
}

func (s *stubUserService) UpdateUser(_ context.Context, _ ports.UpdateUserInput, _, _ string) (*domain.User, error) {
	return s.getUser, s.getErr
}

func (s *stubUserService) ChangeRole(_ context.Context, _, _, _ string) (*domain.User, error) {
	return s.getUser, s.getErr
}

func (s *stubUserService) DeleteUser(_ context.Context, _, _ string) error {
	return s.deleteErr
}

func (s *stubUserService) ListUsers(_ context.Context, _ string) ([]domain.User, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return []domain.User{}, nil
}

type stubCodec struct {
	token string
	err   error
}

func (c *stubCodec) Issue(_, _ string) (string, error)   { return c.token, c.err }
func (c *stubCodec) Verify(_ string) (*ports.Claims, error) { return nil, domain.ErrInvalidToken }

type stubThrottle struct {
	allowed  bool
	failures []string
	resets   []string
}

func (t *stubThrottle) Allow(_ context.Context, _ string) (bool, error) { return t.allowed, nil }
func (t *stubThrottle) RecordFailure(_ context.Context, email string) error {
	t.failures = append(t.failures, email)
	return nil
}
func (t *stubThrottle) Reset(_ context.Context, email string) error {
	t.resets = append(t.resets, email)
	return nil
}

type stubAudit struct {
	events []ports.AuditEventInput
}

func (a *stubAudit) Enqueue(event ports.AuditEventInput) {
	a.events = append(a.events, event)
}

func newRequestContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func withActor(c echo.Context, user *domain.User) {
	c.Set(middleware.ContextKeyUser, user)
	c.Set(middleware.ContextKeyRole, user.Role)
}

func TestLogin_Success(t *testing.T) {
	user := &domain.User{ID: testUserID, Email: "ada@example.com", Role: domain.RoleMember}
	throttle := &stubThrottle{allowed: true}
	audit := &stubAudit{}
	h := NewUserHandler(
		&stubUserService{authenticateUser: user},
		&stubCodec{token: "signed-token"},
		throttle,
		audit,
		zerolog.Nop(),
	)

	c, rec := newRequestContext(http.MethodPost, "/login", `{"email":"ada@example.com","password":"hunter2hunter2"}`)
	if err := h.Login(c); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp tokenResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Token != "signed-token" {
		t.Fatalf("unexpected token %q", resp.Token)
	}
	if len(throttle.resets) != 1 {
		t.Fatalf("throttle not reset on success")
	}
	if len(audit.events) != 1 || audit.events[0].Action != domain.AuditLogin {
		t.Fatalf("expected a single login audit event, got %+v", audit.events)
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	throttle := &stubThrottle{allowed: true}
	audit := &stubAudit{}
	h := NewUserHandler(
		&stubUserService{authenticateErr: domain.ErrInvalidCredentials},
		&stubCodec{},
		throttle,
		audit,
		zerolog.Nop(),
	)

	c, _ := newRequestContext(http.MethodPost, "/login", `{"email":"ada@example.com","password":"wrong-password"}`)
	err := h.Login(c)
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if len(throttle.failures) != 1 {
		t.Fatalf("failed attempt not recorded")
	}
	if len(audit.events) != 1 || audit.events[0].Action != domain.AuditLoginFailed {
		t.Fatalf("expected a failed-login audit event, got %+v", audit.events)
	}
}

func TestLogin_Throttled(t *testing.T) {
	h := NewUserHandler(
		&stubUserService{},
		&stubCodec{},
		&stubThrottle{allowed: false},
		&stubAudit{},
		zerolog.Nop(),
	)

	c, _ := newRequestContext(http.MethodPost, "/login", `{"email":"ada@example.com","password":"hunter2hunter2"}`)
	err := h.Login(c)

	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %v", err)
	}
}

func TestRegister_Success(t *testing.T) {
	user := &domain.User{ID: testUserID, Email: "ada@example.com", Role: domain.RoleMember}
	audit := &stubAudit{}
	h := NewUserHandler(&stubUserService{registerUser: user}, &stubCodec{}, &stubThrottle{allowed: true}, audit, zerolog.Nop())

	body := `{"email":"ada@example.com","password":"hunter2hunter2","given_name":"Ada","family_name":"Lovelace"}`
	c, rec := newRequestContext(http.MethodPost, "/users", body)
	if err := h.Register(c); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if len(audit.events) != 1 || audit.events[0].Action != domain.AuditRegistered {
		t.Fatalf("expected a registered audit event, got %+v", audit.events)
	}
}

func TestRegister_SchemaValidation(t *testing.T) {
	h := NewUserHandler(&stubUserService{}, &stubCodec{}, &stubThrottle{allowed: true}, &stubAudit{}, zerolog.Nop())

	// Password below the minimum never reaches the service.
	body := `{"email":"ada@example.com","password":"short","given_name":"Ada","family_name":"Lovelace"}`
	c, _ := newRequestContext(http.MethodPost, "/users", body)
	err := h.Register(c)

	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	h := NewUserHandler(&stubUserService{registerErr: domain.ErrEmailTaken}, &stubCodec{}, &stubThrottle{allowed: true}, &stubAudit{}, zerolog.Nop())

	body := `{"email":"ada@example.com","password":"hunter2hunter2","given_name":"Ada","family_name":"Lovelace"}`
	c, _ := newRequestContext(http.MethodPost, "/users", body)
	err := h.Register(c)
	if !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestGet_InvalidPathID(t *testing.T) {
	h := NewUserHandler(&stubUserService{}, &stubCodec{}, &stubThrottle{allowed: true}, &stubAudit{}, zerolog.Nop())

	c, _ := newRequestContext(http.MethodGet, "/users/nope", "")
	withActor(c, &domain.User{ID: testUserID, Role: domain.RoleMember})
	c.SetParamNames("id")
	c.SetParamValues("nope")

	err := h.Get(c)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestGet_MissingAuthContext(t *testing.T) {
	h := NewUserHandler(&stubUserService{}, &stubCodec{}, &stubThrottle{allowed: true}, &stubAudit{}, zerolog.Nop())

	c, _ := newRequestContext(http.MethodGet, "/users/"+testUserID, "")
	c.SetParamNames("id")
	c.SetParamValues(testUserID)

	err := h.Get(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestGet_Success(t *testing.T) {
	user := &domain.User{ID: testUserID, Email: "ada@example.com", Role: domain.RoleMember}
	h := NewUserHandler(&stubUserService{getUser: user}, &stubCodec{}, &stubThrottle{allowed: true}, &stubAudit{}, zerolog.Nop())

	c, rec := newRequestContext(http.MethodGet, "/users/"+testUserID, "")
	withActor(c, user)
	c.SetParamNames("id")
	c.SetParamValues(testUserID)

	if err := h.Get(c); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestChangeRole_Success(t *testing.T) {
	manager := &domain.User{ID: "9a2b6c1d-0e3f-4a5b-8c7d-6e5f4a3b2c1d", Role: domain.RoleManager}
	promoted := &domain.User{ID: testUserID, Role: domain.RoleManager}
	audit := &stubAudit{}
	h := NewUserHandler(&stubUserService{getUser: promoted}, &stubCodec{}, &stubThrottle{allowed: true}, audit, zerolog.Nop())

	c, rec := newRequestContext(http.MethodPut, "/users/"+testUserID+"/role", `{"role":"manager"}`)
	withActor(c, manager)
	c.SetParamNames("id")
	c.SetParamValues(testUserID)

	if err := h.ChangeRole(c); err != nil {
		t.Fatalf("ChangeRole: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(audit.events) != 1 || audit.events[0].Action != domain.AuditRoleChanged {
		t.Fatalf("expected a role-changed audit event, got %+v", audit.events)
	}
	if audit.events[0].ActorID != manager.ID {
		t.Fatalf("audit actor should be the manager, got %q", audit.events[0].ActorID)
	}
}

func TestDelete_Success(t *testing.T) {
	manager := &domain.User{ID: "9a2b6c1d-0e3f-4a5b-8c7d-6e5f4a3b2c1d", Role: domain.RoleManager}
	audit := &stubAudit{}
	h := NewUserHandler(&stubUserService{}, &stubCodec{}, &stubThrottle{allowed: true}, audit, zerolog.Nop())

	c, rec := newRequestContext(http.MethodDelete, "/users/"+testUserID, "")
	withActor(c, manager)
	c.SetParamNames("id")
	c.SetParamValues(testUserID)

	if err := h.Delete(c); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if len(audit.events) != 1 || audit.events[0].Action != domain.AuditDeleted {
		t.Fatalf("expected a deleted audit event, got %+v", audit.events)
	}
}
