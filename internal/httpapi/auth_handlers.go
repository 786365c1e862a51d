package httpapi

import (
	"errors"
	"net/http"

	"idhub.org/internal/audit"
	"idhub.org/internal/identity"
	"idhub.org/internal/obs"
)

// The tenant selector travels as the `from` query parameter on both auth
// endpoints, keeping the wire contract of the system this replaces.
const tenantParam = "from"

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	Avatar   string `json:"avatar"`
	Memo     string `json:"memo"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	result, err := a.svc.Register(r.Context(), identity.RegisterInput{
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
		Avatar:   req.Avatar,
		Memo:     req.Memo,
		DomainID: r.URL.Query().Get(tenantParam),
	})
	if err != nil {
		handleIdentityError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.register", map[string]any{
		"username":  result.User.Username,
		"domain_id": result.Context.DomainID,
	})
	writeJSON(w, http.StatusCreated, result)
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	result, err := a.svc.Login(r.Context(), identity.Credentials{
		Username: req.Username,
		Password: req.Password,
		DomainID: r.URL.Query().Get(tenantParam),
	})
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrAuthentication):
			obs.CountLogin("denied")
			_ = audit.LogEvent(r.Context(), "auth.login.denied", map[string]any{
				"username": req.Username,
				"cause":    err.Error(),
			})
		case errors.Is(err, identity.ErrInvalidInput), errors.Is(err, identity.ErrNotFound):
			obs.CountLogin("denied")
		default:
			obs.CountLogin("error")
		}
		handleIdentityError(w, r, err)
		return
	}

	obs.CountLogin("success")
	_ = audit.LogEvent(r.Context(), "auth.login", map[string]any{
		"username":  result.User.Username,
		"domain_id": result.Context.DomainID,
		"is_admin":  result.Context.IsAdmin,
	})
	writeJSON(w, http.StatusOK, result)
}
