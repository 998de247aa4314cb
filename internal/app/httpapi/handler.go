// Package httpapi exposes the application services as a REST API.
package httpapi

import (
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	app "github.com/harborline/claimstack/internal/app"
	"github.com/harborline/claimstack/internal/app/domain/claim"
	"github.com/harborline/claimstack/internal/app/domain/customer"
	"github.com/harborline/claimstack/internal/app/domain/employee"
	"github.com/harborline/claimstack/internal/app/domain/policytype"
	"github.com/harborline/claimstack/internal/app/domain/user"
	"github.com/harborline/claimstack/internal/app/metrics"
	authsvc "github.com/harborline/claimstack/internal/app/services/auth"
	"github.com/harborline/claimstack/internal/app/storage"
)

// handler bundles HTTP endpoints for the application services.
type handler struct {
	app *app.Application
}

// NewHandler returns a router exposing the REST API.
func NewHandler(application *app.Application) http.Handler {
	h := &handler{app: application}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	r.HandleFunc("/auth/register", h.register).Methods(http.MethodPost)
	r.HandleFunc("/auth/login", h.login).Methods(http.MethodPost)

	r.HandleFunc("/customers", h.createCustomer).Methods(http.MethodPost)
	r.HandleFunc("/customers", h.listCustomers).Methods(http.MethodGet)
	r.HandleFunc("/customers/{id}", h.getCustomer).Methods(http.MethodGet)
	r.HandleFunc("/customers/{id}", h.updateCustomer).Methods(http.MethodPut)
	r.HandleFunc("/customers/{id}", h.deleteCustomer).Methods(http.MethodDelete)

	r.HandleFunc("/employees", h.createEmployee).Methods(http.MethodPost)
	r.HandleFunc("/employees", h.listEmployees).Methods(http.MethodGet)
	r.HandleFunc("/employees/{id}", h.getEmployee).Methods(http.MethodGet)
	r.HandleFunc("/employees/{id}", h.updateEmployee).Methods(http.MethodPut)
	r.HandleFunc("/employees/{id}", h.deleteEmployee).Methods(http.MethodDelete)

	r.HandleFunc("/policy-types", h.createPolicyType).Methods(http.MethodPost)
	r.HandleFunc("/policy-types", h.listPolicyTypes).Methods(http.MethodGet)
	r.HandleFunc("/policy-types/{id}", h.getPolicyType).Methods(http.MethodGet)
	r.HandleFunc("/policy-types/{id}", h.updatePolicyType).Methods(http.MethodPut)
	r.HandleFunc("/policy-types/{id}", h.deletePolicyType).Methods(http.MethodDelete)
	r.HandleFunc("/policy-types/{id}/structure", h.policyTypeStructure).Methods(http.MethodGet)
	r.HandleFunc("/policy-types/{id}/leaves", h.policyTypeLeaves).Methods(http.MethodGet)
	r.HandleFunc("/policy-types/{id}/resolve", h.policyTypeResolve).Methods(http.MethodGet)
	r.HandleFunc("/policy-types/{id}/nodes", h.policyTypeInsertNode).Methods(http.MethodPost)
	r.HandleFunc("/policy-types/{id}/analytics", h.policyTypeAnalytics).Methods(http.MethodGet)

	r.HandleFunc("/claims", h.fileClaim).Methods(http.MethodPost)
	r.HandleFunc("/claims", h.listClaims).Methods(http.MethodGet)
	r.HandleFunc("/claims/{id}", h.getClaim).Methods(http.MethodGet)
	r.HandleFunc("/claims/{id}", h.updateClaim).Methods(http.MethodPut)
	r.HandleFunc("/claims/{id}", h.deleteClaim).Methods(http.MethodDelete)

	r.HandleFunc("/reports/policy-types", h.policyTypeReport).Methods(http.MethodGet)

	return r
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- auth ---

func (h *handler) register(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	created, err := h.app.Auth.Register(r.Context(), payload.Email, payload.Password, user.Role(payload.Role))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	token, err := h.app.Auth.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		if errors.Is(err, authsvc.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, token)
}

// --- customers ---

func (h *handler) createCustomer(w http.ResponseWriter, r *http.Request) {
	var payload customer.Customer
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	created, err := h.app.Customers.Create(r.Context(), payload)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	list, err := h.app.Customers.List(r.Context(), pageFrom(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *handler) getCustomer(w http.ResponseWriter, r *http.Request) {
	c, err := h.app.Customers.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, statusFor(err, http.StatusInternalServerError), err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *handler) updateCustomer(w http.ResponseWriter, r *http.Request) {
	var payload customer.Customer
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	payload.ID = mux.Vars(r)["id"]

	updated, err := h.app.Customers.Update(r.Context(), payload)
	if err != nil {
		writeError(w, statusFor(err, http.StatusBadRequest), err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *handler) deleteCustomer(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Customers.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, statusFor(err, http.StatusInternalServerError), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- employees ---

func (h *handler) createEmployee(w http.ResponseWriter, r *http.Request) {
	var payload employee.Employee
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	created, err := h.app.Employees.Create(r.Context(), payload)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *handler) listEmployees(w http.ResponseWriter, r *http.Request) {
	list, err := h.app.Employees.List(r.Context(), pageFrom(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *handler) getEmployee(w http.ResponseWriter, r *http.Request) {
	e, err := h.app.Employees.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, statusFor(err, http.StatusInternalServerError), err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *handler) updateEmployee(w http.ResponseWriter, r *http.Request) {
	var payload employee.Employee
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	payload.ID = mux.Vars(r)["id"]

	updated, err := h.app.Employees.Update(r.Context(), payload)
	if err != nil {
		writeError(w, statusFor(err, http.StatusBadRequest), err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *handler) deleteEmployee(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Employees.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, statusFor(err, http.StatusInternalServerError), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- policy types ---

func (h *handler) createPolicyType(w http.ResponseWriter, r *http.Request) {
	var payload policytype.PolicyType
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	created, err := h.app.PolicyTypes.Create(r.Context(), payload)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// listPolicyTypes returns every policy type, or the subset whose taxonomy
// contains the ?q= term.
func (h *handler) listPolicyTypes(w http.ResponseWriter, r *http.Request) {
	if term := r.URL.Query().Get("q"); term != "" {
		list, err := h.app.PolicyTypes.Search(r.Context(), term, pageFrom(r))
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
		return
	}

	list, err := h.app.PolicyTypes.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *handler) getPolicyType(w http.ResponseWriter, r *http.Request) {
	pt, err := h.app.PolicyTypes.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, statusFor(err, http.StatusInternalServerError), err)
		return
	}
	writeJSON(w, http.StatusOK, pt)
}

func (h *handler) updatePolicyType(w http.ResponseWriter, r *http.Request) {
	var payload policytype.PolicyType
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	payload.ID = mux.Vars(r)["id"]

	updated, err := h.app.PolicyTypes.Update(r.Context(), payload)
	if err != nil {
		writeError(w, statusFor(err, http.StatusBadRequest), err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *handler) deletePolicyType(w http.ResponseWriter, r *http.Request) {
	if err := h.app.PolicyTypes.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, statusFor(err, http.StatusInternalServerError), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) policyTypeStructure(w http.ResponseWriter, r *http.Request) {
	view, err := h.app.PolicyTypes.Structure(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, statusFor(err, http.StatusInternalServerError), err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *handler) policyTypeLeaves(w http.ResponseWriter, r *http.Request) {
	view, err := h.app.PolicyTypes.Leaves(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, statusFor(err, http.StatusInternalServerError), err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *handler) policyTypeResolve(w http.ResponseWriter, r *http.Request) {
	rawPath := r.URL.Query().Get("path")
	if rawPath == "" {
		writeError(w, http.StatusBadRequest, errors.New("query parameter path is required"))
		return
	}

	node, err := h.app.PolicyTypes.ResolvePath(r.Context(), mux.Vars(r)["id"], rawPath)
	if err != nil {
		writeError(w, statusFor(err, http.StatusBadRequest), err)
		return
	}
	writeJSON(w, http.StatusOK, node)
}

func (h *handler) policyTypeInsertNode(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Node       policytype.Node `json:"node"`
		ParentPath string          `json:"parent_path"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	updated, err := h.app.PolicyTypes.InsertNode(r.Context(), mux.Vars(r)["id"], payload.Node, payload.ParentPath)
	if err != nil {
		writeError(w, statusFor(err, http.StatusBadRequest), err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *handler) policyTypeAnalytics(w http.ResponseWriter, r *http.Request) {
	analytics, err := h.app.PolicyTypes.Analytics(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, statusFor(err, http.StatusInternalServerError), err)
		return
	}
	writeJSON(w, http.StatusOK, analytics)
}

// --- claims ---

func (h *handler) fileClaim(w http.ResponseWriter, r *http.Request) {
	var payload claim.Claim
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	created, err := h.app.Claims.File(r.Context(), payload)
	if err != nil {
		writeError(w, statusFor(err, http.StatusBadRequest), err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *handler) listClaims(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := claim.Filter{
		CustomerID:   q.Get("customer_id"),
		PolicyTypeID: q.Get("policy_type_id"),
		Status:       claim.Status(q.Get("status")),
	}

	list, err := h.app.Claims.List(r.Context(), filter, pageFrom(r))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *handler) getClaim(w http.ResponseWriter, r *http.Request) {
	c, err := h.app.Claims.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, statusFor(err, http.StatusInternalServerError), err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *handler) updateClaim(w http.ResponseWriter, r *http.Request) {
	var payload claim.Claim
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	payload.ID = mux.Vars(r)["id"]

	updated, err := h.app.Claims.Update(r.Context(), payload)
	if err != nil {
		writeError(w, statusFor(err, http.StatusBadRequest), err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *handler) deleteClaim(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Claims.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, statusFor(err, http.StatusInternalServerError), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- reports ---

func (h *handler) policyTypeReport(w http.ResponseWriter, r *http.Request) {
	rows, err := h.app.Reports.Overview(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// --- helpers ---

// pageFrom reads limit/offset query parameters. Invalid or negative values
// fall back to zero.
func pageFrom(r *http.Request) storage.Page {
	q := r.URL.Query()
	page := storage.Page{}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 {
		page.Limit = v
	}
	if v, err := strconv.Atoi(q.Get("offset")); err == nil && v > 0 {
		page.Offset = v
	}
	return page
}

// statusFor maps the well-known error sentinels onto HTTP statuses and
// returns fallback for everything else.
func statusFor(err error, fallback int) int {
	switch {
	case errors.Is(err, sql.ErrNoRows),
		errors.Is(err, storage.ErrNotFound),
		errors.Is(err, policytype.ErrPathNotFound):
		return http.StatusNotFound
	case errors.Is(err, policytype.ErrInvalidNode):
		return http.StatusBadRequest
	case errors.Is(err, authsvc.ErrInvalidCredentials):
		return http.StatusUnauthorized
	}
	return fallback
}

func decodeJSON(body io.ReadCloser, dst interface{}) error {
	defer body.Close()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
