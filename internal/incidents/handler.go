package incidents

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/oncallhub/incident-desk/internal/domain"
	"github.com/oncallhub/incident-desk/internal/pkg/httputil"
)

// Handler handles HTTP requests for the incidents module.
type Handler struct {
	service   *Service
	validator *validator.Validate
}

// NewHandler creates a new incidents handler.
func NewHandler(service *Service) *Handler {
	v := validator.New()

	// Report errors under the wire field name, not the Go field name.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// required catches empty strings; notblank additionally rejects
	// whitespace-only values after trimming.
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	return &Handler{service: service, validator: v}
}

// RegisterRoutes registers all HTTP routes for the incidents module.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/incidents", func(r chi.Router) {
		r.Get("/", h.ListIncidents)
		r.Post("/", h.CreateIncident)
		r.Get("/{id}", h.GetIncident)
		r.Patch("/{id}", h.UpdateIncident)
	})
}

// fieldMessages holds the human-readable reason for each field, shared
// between create and update validation.
var fieldMessages = map[string]string{
	"title":    "Title is required and must be a non-empty string",
	"service":  "Service is required and must be a non-empty string",
	"severity": "Severity must be one of: SEV1, SEV2, SEV3, SEV4",
	"status":   "Status must be one of: OPEN, MITIGATED, RESOLVED",
	"owner":    "Owner must be a string",
	"summary":  "Summary must be a string",
}

var errorMappings = []httputil.ErrorMapping{
	{Error: ErrNotFound, Status: http.StatusNotFound, Message: "Incident not found"},
}

// OptionalString is a JSON string field that distinguishes absent from
// explicit null from a value. A null on a nullable field clears it.
type OptionalString struct {
	Set     bool
	Null    bool
	Value   string
	invalid bool
}

// UnmarshalJSON records presence and tolerates wrong JSON types so a
// type mismatch becomes a field validation error instead of aborting
// the whole decode.
func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Null = true
		return nil
	}
	if err := json.Unmarshal(data, &o.Value); err != nil {
		o.invalid = true
	}
	return nil
}

// CreateIncidentRequest represents the request body for creating an incident.
type CreateIncidentRequest struct {
	Title    string         `json:"title" validate:"required,notblank"`
	Service  string         `json:"service" validate:"required,notblank"`
	Severity string         `json:"severity" validate:"required,oneof=SEV1 SEV2 SEV3 SEV4"`
	Status   string         `json:"status" validate:"required,oneof=OPEN MITIGATED RESOLVED"`
	Owner    OptionalString `json:"owner"`
	Summary  OptionalString `json:"summary"`
}

// ToInput converts the request to a service input. Null, absent and
// empty-string owner/summary all map to an absent field on create.
func (r *CreateIncidentRequest) ToInput() CreateIncidentInput {
	return CreateIncidentInput{
		Title:    r.Title,
		Service:  r.Service,
		Severity: domain.Severity(r.Severity),
		Status:   domain.Status(r.Status),
		Owner:    r.Owner.nonEmptyPointer(),
		Summary:  r.Summary.nonEmptyPointer(),
	}
}

// pointer returns the value as written, nil for absent or null.
func (o OptionalString) pointer() *string {
	if !o.Set || o.Null {
		return nil
	}
	v := o.Value
	return &v
}

// nonEmptyPointer additionally maps empty strings to nil; create treats
// a blank optional field as absent and stores NULL.
func (o OptionalString) nonEmptyPointer() *string {
	if !o.Set || o.Null || o.Value == "" {
		return nil
	}
	v := o.Value
	return &v
}

// UpdateIncidentRequest represents the request body for a partial
// update. Every field tracks its own presence: an absent key is left
// out of the change set, while an explicit null on a non-nullable field
// is a validation error.
type UpdateIncidentRequest struct {
	Title    OptionalString `json:"title"`
	Service  OptionalString `json:"service"`
	Severity OptionalString `json:"severity"`
	Status   OptionalString `json:"status"`
	Owner    OptionalString `json:"owner"`
	Summary  OptionalString `json:"summary"`
}

// validate checks only the fields present in the body. Null and wrong
// JSON types count as invalid values for the non-nullable fields.
func (r *UpdateIncidentRequest) validate() map[string]string {
	details := make(map[string]string)

	if r.Title.Set && (r.Title.Null || r.Title.invalid || strings.TrimSpace(r.Title.Value) == "") {
		details["title"] = fieldMessages["title"]
	}
	if r.Service.Set && (r.Service.Null || r.Service.invalid || strings.TrimSpace(r.Service.Value) == "") {
		details["service"] = fieldMessages["service"]
	}
	if r.Severity.Set && (r.Severity.Null || r.Severity.invalid || !domain.Severity(r.Severity.Value).IsValid()) {
		details["severity"] = fieldMessages["severity"]
	}
	if r.Status.Set && (r.Status.Null || r.Status.invalid || !domain.Status(r.Status.Value).IsValid()) {
		details["status"] = fieldMessages["status"]
	}
	addOptionalErrors(details, r.Owner, r.Summary)

	return details
}

// Changes converts the request into a repository change set. Callers
// must validate first; values land in the change set as written.
func (r *UpdateIncidentRequest) Changes() FieldChanges {
	var changes FieldChanges
	if r.Title.Set {
		v := r.Title.Value
		changes.Title = &v
	}
	if r.Service.Set {
		v := r.Service.Value
		changes.Service = &v
	}
	if r.Severity.Set {
		sev := domain.Severity(r.Severity.Value)
		changes.Severity = &sev
	}
	if r.Status.Set {
		st := domain.Status(r.Status.Value)
		changes.Status = &st
	}
	if r.Owner.Set {
		changes.OwnerSet = true
		changes.Owner = r.Owner.pointer()
	}
	if r.Summary.Set {
		changes.SummarySet = true
		changes.Summary = r.Summary.pointer()
	}
	return changes
}

// CreateIncident handles POST /incidents.
func (h *Handler) CreateIncident(w http.ResponseWriter, r *http.Request) {
	var req CreateIncidentRequest
	if !h.decode(w, r, &req) {
		return
	}

	details := h.validationDetails(req)
	addOptionalErrors(details, req.Owner, req.Summary)
	if len(details) > 0 {
		httputil.ValidationFailed(w, details)
		return
	}

	incident, err := h.service.Create(r.Context(), req.ToInput())
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.JSON(w, http.StatusCreated, incident)
}

// GetIncident handles GET /incidents/{id}.
func (h *Handler) GetIncident(w http.ResponseWriter, r *http.Request) {
	incident, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.JSON(w, http.StatusOK, incident)
}

// ListIncidents handles GET /incidents with filtering, sorting and
// pagination. Out-of-range paging inputs are clamped and unknown sort
// fields fall back to defaults, so the endpoint has no client-error
// path; an empty result set is a valid success.
func (h *Handler) ListIncidents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	params := ListParams{
		Page:      intParam(q.Get("page")),
		Limit:     intParam(q.Get("limit")),
		SortBy:    q.Get("sortBy"),
		SortOrder: q.Get("sortOrder"),
		Service:   q.Get("service"),
		Severity:  q.Get("severity"),
		Status:    q.Get("status"),
		Search:    q.Get("search"),
	}

	result, err := h.service.List(r.Context(), params)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.JSON(w, http.StatusOK, result)
}

// UpdateIncident handles PATCH /incidents/{id}. An unknown id is
// reported before body validation; an empty change set returns the
// current record unchanged.
func (h *Handler) UpdateIncident(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req UpdateIncidentRequest
	if !h.decode(w, r, &req) {
		return
	}

	if _, err := h.service.Get(r.Context(), id); err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	if details := req.validate(); len(details) > 0 {
		httputil.ValidationFailed(w, details)
		return
	}

	incident, err := h.service.Update(r.Context(), id, req.Changes())
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.JSON(w, http.StatusOK, incident)
}

// decode reads the JSON body into v. A type mismatch on a known field
// is reported as that field's validation error; anything else is a
// plain bad-request response.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			if msg, ok := fieldMessages[typeErr.Field]; ok {
				httputil.ValidationFailed(w, map[string]string{typeErr.Field: msg})
				return false
			}
		}
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}

// validationDetails runs struct validation and maps failures to the
// shared per-field messages.
func (h *Handler) validationDetails(req interface{}) map[string]string {
	details := make(map[string]string)

	err := h.validator.Struct(req)
	if err == nil {
		return details
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return details
	}

	for _, e := range verrs {
		if msg, ok := fieldMessages[e.Field()]; ok {
			details[e.Field()] = msg
		} else {
			details[e.Field()] = "invalid value"
		}
	}
	return details
}

// addOptionalErrors flags owner/summary values that were present but
// not strings.
func addOptionalErrors(details map[string]string, owner, summary OptionalString) {
	if owner.invalid {
		details["owner"] = fieldMessages["owner"]
	}
	if summary.invalid {
		details["summary"] = fieldMessages["summary"]
	}
}

// intParam parses a numeric query parameter; malformed values come back
// as zero and get defaulted during query normalization.
func intParam(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}
