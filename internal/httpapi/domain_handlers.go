package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"idhub.org/internal/audit"
	"idhub.org/internal/identity"
)

type createDomainRequest struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	DefaultRoleID string `json:"default_role_id"`
}

type updateDomainRequest struct {
	Name          *string `json:"name"`
	Description   *string `json:"description"`
	DefaultRoleID *string `json:"default_role_id"`
}

func (a *API) handleDomains(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listDomains(w, r)
	case http.MethodPost:
		a.createDomain(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleDomainResource(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/domains/"), "/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		a.getDomain(w, r, id)
	case http.MethodPut:
		a.updateDomain(w, r, id)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut)
	}
}

func (a *API) listDomains(w http.ResponseWriter, r *http.Request) {
	if !a.ensureAdmin(w, r) {
		return
	}
	domains, err := a.svc.ListDomains(r.Context())
	if err != nil {
		handleIdentityError(w, r, err)
		return
	}
	if domains == nil {
		domains = []identity.Domain{}
	}
	writeJSON(w, http.StatusOK, domains)
}

func (a *API) createDomain(w http.ResponseWriter, r *http.Request) {
	if !a.ensureAdmin(w, r) {
		return
	}
	var req createDomainRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	domain, err := a.svc.CreateDomain(r.Context(), req.Name, req.Description, req.DefaultRoleID)
	if err != nil {
		handleIdentityError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "domain.create", map[string]any{
		"domain_id": domain.ID,
		"name":      domain.Name,
	})
	w.Header().Set("Location", fmt.Sprintf("/v1/domains/%s", domain.ID))
	writeJSON(w, http.StatusCreated, domain)
}

func (a *API) getDomain(w http.ResponseWriter, r *http.Request, id string) {
	domain, err := a.svc.GetDomain(r.Context(), id)
	if err != nil {
		handleIdentityError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, domain)
}

func (a *API) updateDomain(w http.ResponseWriter, r *http.Request, id string) {
	if !a.ensureAdmin(w, r) {
		return
	}
	var req updateDomainRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	domain, err := a.svc.UpdateDomain(r.Context(), id, identity.DomainUpdate{
		Name:          req.Name,
		Description:   req.Description,
		DefaultRoleID: req.DefaultRoleID,
	})
	if err != nil {
		handleIdentityError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "domain.update", map[string]any{
		"domain_id": domain.ID,
	})
	writeJSON(w, http.StatusOK, domain)
}
