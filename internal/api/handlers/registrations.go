package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/expotrade/server/internal/api/problem"
	"github.com/expotrade/server/internal/domain/registrations"
	"github.com/expotrade/server/internal/metrics"
	"github.com/expotrade/server/internal/storage"
)

// RegistrationService is the slice of the registrations domain the HTTP
// layer needs.
type RegistrationService interface {
	ListExhibitors(ctx context.Context) ([]storage.ExhibitorRegistration, error)
	CreateExhibitor(ctx context.Context, input registrations.ExhibitorInput) (storage.ExhibitorRegistration, error)
	GetExhibitor(ctx context.Context, id string) (storage.ExhibitorRegistration, error)
	UpdateExhibitor(ctx context.Context, id string, input registrations.ExhibitorInput) (storage.ExhibitorRegistration, error)
	DeleteExhibitor(ctx context.Context, id string) error
	ListVisitors(ctx context.Context) ([]storage.VisitorRegistration, error)
	CreateVisitor(ctx context.Context, input registrations.VisitorInput) (storage.VisitorRegistration, error)
	GetVisitor(ctx context.Context, id string) (storage.VisitorRegistration, error)
	UpdateVisitor(ctx context.Context, id string, input registrations.VisitorInput) (storage.VisitorRegistration, error)
	DeleteVisitor(ctx context.Context, id string) error
}

type RegistrationsHandler struct {
	service RegistrationService
	env     string
}

func NewRegistrationsHandler(service RegistrationService, env string) *RegistrationsHandler {
	return &RegistrationsHandler{service: service, env: env}
}

// writeRegistrationError maps domain errors shared by the registration
// endpoints.
func (h *RegistrationsHandler) writeRegistrationError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *registrations.ValidationError
	switch {
	case errors.As(err, &verr):
		fields := make(map[string]any, len(verr.Fields))
		for field, message := range verr.Fields {
			fields[field] = message
		}
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Validation failed", err, h.env,
			problem.WithErrors(fields))
	case errors.Is(err, registrations.ErrNotFound):
		problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Registration not found", err, h.env)
	default:
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Registration request failed", err, h.env)
	}
}

// --- exhibitor wire format ---

type exhibitorPayload struct {
	CompanyName       string `json:"company_name"`
	ContactPersonName string `json:"contact_person_name"`
	Designation       string `json:"designation"`
	EmailAddress      string `json:"email_address"`
	ContactNumber     string `json:"contact_number"`
	ProductService    string `json:"product_service"`
	CompanyAddress    string `json:"company_address"`
	Status            string `json:"status,omitempty"`
}

type exhibitorResponse struct {
	ID string `json:"id"`
	exhibitorPayload
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p exhibitorPayload) input() registrations.ExhibitorInput {
	return registrations.ExhibitorInput{
		CompanyName:       p.CompanyName,
		ContactPersonName: p.ContactPersonName,
		Designation:       p.Designation,
		EmailAddress:      p.EmailAddress,
		ContactNumber:     p.ContactNumber,
		ProductService:    p.ProductService,
		CompanyAddress:    p.CompanyAddress,
		Status:            p.Status,
	}
}

func exhibitorView(reg storage.ExhibitorRegistration) exhibitorResponse {
	return exhibitorResponse{
		ID: reg.ID,
		exhibitorPayload: exhibitorPayload{
			CompanyName:       reg.CompanyName,
			ContactPersonName: reg.ContactPersonName,
			Designation:       reg.Designation,
			EmailAddress:      reg.EmailAddress,
			ContactNumber:     reg.ContactNumber,
			ProductService:    reg.ProductService,
			CompanyAddress:    reg.CompanyAddress,
			Status:            reg.Status,
		},
		CreatedAt: reg.CreatedAt,
		UpdatedAt: reg.UpdatedAt,
	}
}

func (h *RegistrationsHandler) ListExhibitors(w http.ResponseWriter, r *http.Request) {
	regs, err := h.service.ListExhibitors(r.Context())
	if err != nil {
		h.writeRegistrationError(w, r, err)
		return
	}

	views := make([]exhibitorResponse, 0, len(regs))
	for _, reg := range regs {
		views = append(views, exhibitorView(reg))
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *RegistrationsHandler) CreateExhibitor(w http.ResponseWriter, r *http.Request) {
	var payload exhibitorPayload
	if !decodeJSON(w, r, h.env, &payload) {
		return
	}

	reg, err := h.service.CreateExhibitor(r.Context(), payload.input())
	if err != nil {
		h.writeRegistrationError(w, r, err)
		return
	}

	metrics.RegistrationsReceived.WithLabelValues("exhibitor").Inc()
	writeJSON(w, http.StatusCreated, exhibitorView(reg))
}

func (h *RegistrationsHandler) GetExhibitor(w http.ResponseWriter, r *http.Request) {
	reg, err := h.service.GetExhibitor(r.Context(), pathID(r))
	if err != nil {
		h.writeRegistrationError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, exhibitorView(reg))
}

func (h *RegistrationsHandler) UpdateExhibitor(w http.ResponseWriter, r *http.Request) {
	var payload exhibitorPayload
	if !decodeJSON(w, r, h.env, &payload) {
		return
	}

	reg, err := h.service.UpdateExhibitor(r.Context(), pathID(r), payload.input())
	if err != nil {
		h.writeRegistrationError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, exhibitorView(reg))
}

func (h *RegistrationsHandler) DeleteExhibitor(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteExhibitor(r.Context(), pathID(r)); err != nil {
		h.writeRegistrationError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- visitor wire format ---

// The visitor form uses phone_number and industry_interest on the wire;
// storage keeps the plain column names.
type visitorPayload struct {
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	CompanyName   string `json:"company_name"`
	EmailAddress  string `json:"email_address"`
	PhoneNumber   string `json:"phone_number"`
	IndustryField string `json:"industry_interest"`
}

type visitorResponse struct {
	ID string `json:"id"`
	visitorPayload
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p visitorPayload) input() registrations.VisitorInput {
	return registrations.VisitorInput{
		FirstName:     p.FirstName,
		LastName:      p.LastName,
		CompanyName:   p.CompanyName,
		EmailAddress:  p.EmailAddress,
		ContactNumber: p.PhoneNumber,
		Industry:      p.IndustryField,
	}
}

func visitorView(reg storage.VisitorRegistration) visitorResponse {
	return visitorResponse{
		ID: reg.ID,
		visitorPayload: visitorPayload{
			FirstName:     reg.FirstName,
			LastName:      reg.LastName,
			CompanyName:   reg.CompanyName,
			EmailAddress:  reg.EmailAddress,
			PhoneNumber:   reg.ContactNumber,
			IndustryField: reg.Industry,
		},
		CreatedAt: reg.CreatedAt,
		UpdatedAt: reg.UpdatedAt,
	}
}

func (h *RegistrationsHandler) ListVisitors(w http.ResponseWriter, r *http.Request) {
	regs, err := h.service.ListVisitors(r.Context())
	if err != nil {
		h.writeRegistrationError(w, r, err)
		return
	}

	views := make([]visitorResponse, 0, len(regs))
	for _, reg := range regs {
		views = append(views, visitorView(reg))
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *RegistrationsHandler) CreateVisitor(w http.ResponseWriter, r *http.Request) {
	var payload visitorPayload
	if !decodeJSON(w, r, h.env, &payload) {
		return
	}

	reg, err := h.service.CreateVisitor(r.Context(), payload.input())
	if err != nil {
		h.writeRegistrationError(w, r, err)
		return
	}

	metrics.RegistrationsReceived.WithLabelValues("visitor").Inc()
	writeJSON(w, http.StatusCreated, visitorView(reg))
}

func (h *RegistrationsHandler) GetVisitor(w http.ResponseWriter, r *http.Request) {
	reg, err := h.service.GetVisitor(r.Context(), pathID(r))
	if err != nil {
		h.writeRegistrationError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, visitorView(reg))
}

func (h *RegistrationsHandler) UpdateVisitor(w http.ResponseWriter, r *http.Request) {
	var payload visitorPayload
	if !decodeJSON(w, r, h.env, &payload) {
		return
	}

	reg, err := h.service.UpdateVisitor(r.Context(), pathID(r), payload.input())
	if err != nil {
		h.writeRegistrationError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, visitorView(reg))
}

func (h *RegistrationsHandler) DeleteVisitor(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteVisitor(r.Context(), pathID(r)); err != nil {
		h.writeRegistrationError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
