package handler

type registerRequest struct {
	Email      string `json:"email"       validate:"required,email"`
	Password   string `json:"password"    validate:"required,min=8"`
	GivenName  string `json:"given_name"  validate:"required"`
	FamilyName string `json:"family_name" validate:"required"`
}

// updateUserRequest is a full profile replacement; the password is always
// re-hashed and the role cannot be supplied here.
type updateUserRequest struct {
	Email      string `json:"email"       validate:"required,email"`
	Password   string `json:"password"    validate:"required,min=8"`
	GivenName  string `json:"given_name"  validate:"required"`
	FamilyName string `json:"family_name" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

// changeRoleRequest deliberately leaves the role values unconstrained at the
// schema level; the identity service owns the role whitelist.
type changeRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// errorResponse mirrors the envelope rendered by the central error handler;
// referenced by the swagger annotations.
type errorResponse struct {
	Error string `json:"error"`
}
