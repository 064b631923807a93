// Package registrations handles the public exhibitor and visitor
// registration forms and their admin-side management.
package registrations

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/expotrade/server/internal/domain/ids"
	"github.com/expotrade/server/internal/sanitize"
	"github.com/expotrade/server/internal/storage"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

var ErrNotFound = errors.New("registration not found")

// ExhibitorStatuses is the follow-up pipeline for an exhibitor lead.
var ExhibitorStatuses = []string{"pending", "contacted", "paid", "rejected"}

const StatusPending = "pending"

// ValidationError carries per-field messages for a rejected submission.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %d field(s)", len(e.Fields))
}

type Service struct {
	repo     storage.Repository
	validate *validator.Validate
	logger   zerolog.Logger
}

func NewService(repo storage.Repository, logger zerolog.Logger) *Service {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Phone numbers arrive in many formats; only the digit count matters.
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return len(digitsOf(fl.Field().String())) >= 10
	})

	return &Service{
		repo:     repo,
		validate: v,
		logger:   logger.With().Str("component", "registrations").Logger(),
	}
}

func digitsOf(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ExhibitorInput is a create or update payload for an exhibitor lead.
type ExhibitorInput struct {
	CompanyName       string `validate:"required"`
	ContactPersonName string `validate:"required"`
	Designation       string `validate:"required"`
	EmailAddress      string `validate:"required,email"`
	ContactNumber     string `validate:"required,phone"`
	ProductService    string `validate:"required"`
	CompanyAddress    string `validate:"required"`
	Status            string `validate:"omitempty,oneof=pending contacted paid rejected"`
}

// VisitorInput is a create or update payload for a visitor registration.
type VisitorInput struct {
	FirstName     string `validate:"required"`
	LastName      string `validate:"required"`
	CompanyName   string `validate:"required"`
	EmailAddress  string `validate:"required,email"`
	ContactNumber string `validate:"required,phone"`
	Industry      string `validate:"required"`
}

func (s *Service) checkInput(input any) error {
	err := s.validate.Struct(input)
	if err == nil {
		return nil
	}

	var invalid validator.ValidationErrors
	if !errors.As(err, &invalid) {
		return err
	}

	fields := make(map[string]string, len(invalid))
	for _, fe := range invalid {
		fields[fieldName(fe.Field())] = messageFor(fe)
	}
	return &ValidationError{Fields: fields}
}

func fieldName(structField string) string {
	switch structField {
	case "CompanyName":
		return "company_name"
	case "ContactPersonName":
		return "contact_person_name"
	case "Designation":
		return "designation"
	case "EmailAddress":
		return "email_address"
	case "ContactNumber":
		return "contact_number"
	case "ProductService":
		return "product_service"
	case "CompanyAddress":
		return "company_address"
	case "Status":
		return "status"
	case "FirstName":
		return "first_name"
	case "LastName":
		return "last_name"
	case "Industry":
		return "industry"
	default:
		return strings.ToLower(structField)
	}
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "enter a valid email address"
	case "phone":
		return "enter a valid contact number with at least 10 digits"
	case "oneof":
		return "must be one of: " + strings.Join(ExhibitorStatuses, ", ")
	default:
		return "invalid value"
	}
}

func cleanExhibitor(input ExhibitorInput) ExhibitorInput {
	input.CompanyName = sanitize.Text(input.CompanyName)
	input.ContactPersonName = sanitize.Text(input.ContactPersonName)
	input.Designation = sanitize.Text(input.Designation)
	input.EmailAddress = strings.ToLower(strings.TrimSpace(input.EmailAddress))
	input.ContactNumber = strings.TrimSpace(input.ContactNumber)
	input.ProductService = sanitize.Text(input.ProductService)
	input.CompanyAddress = sanitize.Text(input.CompanyAddress)
	input.Status = strings.ToLower(strings.TrimSpace(input.Status))
	return input
}

func cleanVisitor(input VisitorInput) VisitorInput {
	input.FirstName = sanitize.Text(input.FirstName)
	input.LastName = sanitize.Text(input.LastName)
	input.CompanyName = sanitize.Text(input.CompanyName)
	input.EmailAddress = strings.ToLower(strings.TrimSpace(input.EmailAddress))
	input.ContactNumber = strings.TrimSpace(input.ContactNumber)
	input.Industry = sanitize.Text(input.Industry)
	return input
}

// --- exhibitors ---

func (s *Service) ListExhibitors(ctx context.Context) ([]storage.ExhibitorRegistration, error) {
	return s.repo.Exhibitors().List(ctx)
}

func (s *Service) CreateExhibitor(ctx context.Context, input ExhibitorInput) (storage.ExhibitorRegistration, error) {
	input = cleanExhibitor(input)
	if err := s.checkInput(input); err != nil {
		return storage.ExhibitorRegistration{}, err
	}

	status := input.Status
	if status == "" {
		status = StatusPending
	}

	reg, err := s.repo.Exhibitors().Create(ctx, storage.ExhibitorRegistration{
		ID:                ids.NewULID(),
		CompanyName:       input.CompanyName,
		ContactPersonName: input.ContactPersonName,
		Designation:       input.Designation,
		EmailAddress:      input.EmailAddress,
		ContactNumber:     input.ContactNumber,
		ProductService:    input.ProductService,
		CompanyAddress:    input.CompanyAddress,
		Status:            status,
	})
	if err != nil {
		return storage.ExhibitorRegistration{}, err
	}

	s.logger.Info().
		Str("registration_id", reg.ID).
		Str("company", reg.CompanyName).
		Msg("exhibitor registration received")
	return reg, nil
}

func (s *Service) GetExhibitor(ctx context.Context, id string) (storage.ExhibitorRegistration, error) {
	reg, err := s.repo.Exhibitors().GetByID(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return storage.ExhibitorRegistration{}, ErrNotFound
	}
	return reg, err
}

func (s *Service) UpdateExhibitor(ctx context.Context, id string, input ExhibitorInput) (storage.ExhibitorRegistration, error) {
	existing, err := s.GetExhibitor(ctx, id)
	if err != nil {
		return storage.ExhibitorRegistration{}, err
	}

	input = cleanExhibitor(input)
	if err := s.checkInput(input); err != nil {
		return storage.ExhibitorRegistration{}, err
	}

	existing.CompanyName = input.CompanyName
	existing.ContactPersonName = input.ContactPersonName
	existing.Designation = input.Designation
	existing.EmailAddress = input.EmailAddress
	existing.ContactNumber = input.ContactNumber
	existing.ProductService = input.ProductService
	existing.CompanyAddress = input.CompanyAddress
	if input.Status != "" {
		existing.Status = input.Status
	}

	updated, err := s.repo.Exhibitors().Update(ctx, existing)
	if errors.Is(err, storage.ErrNotFound) {
		return storage.ExhibitorRegistration{}, ErrNotFound
	}
	return updated, err
}

func (s *Service) DeleteExhibitor(ctx context.Context, id string) error {
	err := s.repo.Exhibitors().Delete(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

// --- visitors ---

func (s *Service) ListVisitors(ctx context.Context) ([]storage.VisitorRegistration, error) {
	return s.repo.Visitors().List(ctx)
}

func (s *Service) CreateVisitor(ctx context.Context, input VisitorInput) (storage.VisitorRegistration, error) {
	input = cleanVisitor(input)
	if err := s.checkInput(input); err != nil {
		return storage.VisitorRegistration{}, err
	}

	reg, err := s.repo.Visitors().Create(ctx, storage.VisitorRegistration{
		ID:            ids.NewULID(),
		FirstName:     input.FirstName,
		LastName:      input.LastName,
		CompanyName:   input.CompanyName,
		EmailAddress:  input.EmailAddress,
		ContactNumber: input.ContactNumber,
		Industry:      input.Industry,
	})
	if err != nil {
		return storage.VisitorRegistration{}, err
	}

	s.logger.Info().
		Str("registration_id", reg.ID).
		Str("company", reg.CompanyName).
		Msg("visitor registration received")
	return reg, nil
}

func (s *Service) GetVisitor(ctx context.Context, id string) (storage.VisitorRegistration, error) {
	reg, err := s.repo.Visitors().GetByID(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return storage.VisitorRegistration{}, ErrNotFound
	}
	return reg, err
}

func (s *Service) UpdateVisitor(ctx context.Context, id string, input VisitorInput) (storage.VisitorRegistration, error) {
	existing, err := s.GetVisitor(ctx, id)
	if err != nil {
		return storage.VisitorRegistration{}, err
	}

	input = cleanVisitor(input)
	if err := s.checkInput(input); err != nil {
		return storage.VisitorRegistration{}, err
	}

	existing.FirstName = input.FirstName
	existing.LastName = input.LastName
	existing.CompanyName = input.CompanyName
	existing.EmailAddress = input.EmailAddress
	existing.ContactNumber = input.ContactNumber
	existing.Industry = input.Industry

	updated, err := s.repo.Visitors().Update(ctx, existing)
	if errors.Is(err, storage.ErrNotFound) {
		return storage.VisitorRegistration{}, ErrNotFound
	}
	return updated, err
}

func (s *Service) DeleteVisitor(ctx context.Context, id string) error {
	err := s.repo.Visitors().Delete(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
