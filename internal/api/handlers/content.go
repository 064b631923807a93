package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/expotrade/server/internal/api/problem"
	"github.com/expotrade/server/internal/domain/content"
	"github.com/expotrade/server/internal/storage"
)

// ContentService is the slice of the content domain the HTTP layer needs.
type ContentService interface {
	ListCategories(ctx context.Context) ([]storage.Category, error)
	CreateCategory(ctx context.Context, input content.CategoryInput) (storage.Category, error)
	GetCategory(ctx context.Context, id string) (storage.Category, error)
	UpdateCategory(ctx context.Context, id string, input content.CategoryInput) (storage.Category, error)
	DeleteCategory(ctx context.Context, id string) error
	ListEvents(ctx context.Context) ([]storage.Event, error)
	CreateEvent(ctx context.Context, input content.EventInput) (storage.Event, error)
	GetEvent(ctx context.Context, id string) (storage.Event, error)
	UpdateEvent(ctx context.Context, id string, input content.EventInput) (storage.Event, error)
	DeleteEvent(ctx context.Context, id string) error
	ListGallery(ctx context.Context) ([]storage.GalleryImage, error)
	CreateGalleryImage(ctx context.Context, input content.GalleryInput) (storage.GalleryImage, error)
	GetGalleryImage(ctx context.Context, id string) (storage.GalleryImage, error)
	UpdateGalleryImage(ctx context.Context, id string, input content.GalleryInput) (storage.GalleryImage, error)
	DeleteGalleryImage(ctx context.Context, id string) error
}

type ContentHandler struct {
	service ContentService
	env     string
}

func NewContentHandler(service ContentService, env string) *ContentHandler {
	return &ContentHandler{service: service, env: env}
}

func (h *ContentHandler) writeContentError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, content.ErrNotFound):
		problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Content not found", err, h.env)
	case errors.Is(err, content.ErrNameRequired),
		errors.Is(err, content.ErrTitleRequired),
		errors.Is(err, content.ErrDatesRequired),
		errors.Is(err, content.ErrInvalidDates),
		errors.Is(err, content.ErrImageRequired),
		errors.Is(err, content.ErrUnsupportedExt):
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid content", err, h.env)
	default:
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Content request failed", err, h.env)
	}
}

// imageFromForm pulls the optional "image" file out of a multipart form.
// The caller owns closing via the returned cleanup func.
func imageFromForm(r *http.Request) (*content.ImageUpload, func(), error) {
	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, func() {}, err
	}

	upload := &content.ImageUpload{
		Filename: header.Filename,
		Size:     header.Size,
		Body:     file,
	}
	return upload, func() { _ = file.Close() }, nil
}

// --- categories ---

type categoryResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	ImageURL    string    `json:"image_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func categoryView(c storage.Category) categoryResponse {
	return categoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		Icon:        c.Icon,
		ImageURL:    c.ImageURL,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func (h *ContentHandler) categoryInput(w http.ResponseWriter, r *http.Request) (content.CategoryInput, func(), bool) {
	if err := r.ParseMultipartForm(content.MaxImageSize); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid multipart form", err, h.env)
		return content.CategoryInput{}, nil, false
	}

	image, cleanup, err := imageFromForm(r)
	if err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid image upload", err, h.env)
		return content.CategoryInput{}, nil, false
	}

	return content.CategoryInput{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		Icon:        r.FormValue("icon"),
		Image:       image,
	}, cleanup, true
}

func (h *ContentHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListCategories(r.Context())
	if err != nil {
		h.writeContentError(w, r, err)
		return
	}

	views := make([]categoryResponse, 0, len(categories))
	for _, c := range categories {
		views = append(views, categoryView(c))
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *ContentHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	input, cleanup, ok := h.categoryInput(w, r)
	if !ok {
		return
	}
	defer cleanup()

	category, err := h.service.CreateCategory(r.Context(), input)
	if err != nil {
		h.writeContentError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, categoryView(category))
}

func (h *ContentHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	category, err := h.service.GetCategory(r.Context(), pathID(r))
	if err != nil {
		h.writeContentError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, categoryView(category))
}

func (h *ContentHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	input, cleanup, ok := h.categoryInput(w, r)
	if !ok {
		return
	}
	defer cleanup()

	category, err := h.service.UpdateCategory(r.Context(), pathID(r), input)
	if err != nil {
		h.writeContentError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, categoryView(category))
}

func (h *ContentHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteCategory(r.Context(), pathID(r)); err != nil {
		h.writeContentError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- events ---

const dateLayout = "2006-01-02"

type eventPayload struct {
	Title           string `json:"title"`
	Location        string `json:"location"`
	Venue           string `json:"venue"`
	StartDate       string `json:"start_date"`
	EndDate         string `json:"end_date"`
	TimeSchedule    string `json:"time_schedule"`
	ExhibitorsCount string `json:"exhibitors_count"`
	BuyersCount     string `json:"buyers_count"`
	CountriesCount  string `json:"countries_count"`
	SectorsCount    string `json:"sectors_count"`
	IsActive        *bool  `json:"is_active"`
	Description     string `json:"description"`
}

type eventResponse struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Location        string    `json:"location"`
	Venue           string    `json:"venue"`
	StartDate       string    `json:"start_date"`
	EndDate         string    `json:"end_date"`
	TimeSchedule    string    `json:"time_schedule"`
	ExhibitorsCount string    `json:"exhibitors_count"`
	BuyersCount     string    `json:"buyers_count"`
	CountriesCount  string    `json:"countries_count"`
	SectorsCount    string    `json:"sectors_count"`
	IsActive        bool      `json:"is_active"`
	Description     string    `json:"description"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func eventView(e storage.Event) eventResponse {
	return eventResponse{
		ID:              e.ID,
		Title:           e.Title,
		Location:        e.Location,
		Venue:           e.Venue,
		StartDate:       e.StartDate.Format(dateLayout),
		EndDate:         e.EndDate.Format(dateLayout),
		TimeSchedule:    e.TimeSchedule,
		ExhibitorsCount: e.ExhibitorsCount,
		BuyersCount:     e.BuyersCount,
		CountriesCount:  e.CountriesCount,
		SectorsCount:    e.SectorsCount,
		IsActive:        e.IsActive,
		Description:     e.Description,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}

func (h *ContentHandler) eventInput(w http.ResponseWriter, r *http.Request, payload eventPayload) (content.EventInput, bool) {
	input := content.EventInput{
		Title:           payload.Title,
		Location:        payload.Location,
		Venue:           payload.Venue,
		TimeSchedule:    payload.TimeSchedule,
		ExhibitorsCount: payload.ExhibitorsCount,
		BuyersCount:     payload.BuyersCount,
		CountriesCount:  payload.CountriesCount,
		SectorsCount:    payload.SectorsCount,
		IsActive:        payload.IsActive,
		Description:     payload.Description,
	}

	for _, date := range []struct {
		value  string
		target *time.Time
	}{
		{payload.StartDate, &input.StartDate},
		{payload.EndDate, &input.EndDate},
	} {
		if date.value == "" {
			continue
		}
		parsed, err := time.Parse(dateLayout, date.value)
		if err != nil {
			problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid date, expected YYYY-MM-DD", err, h.env)
			return content.EventInput{}, false
		}
		*date.target = parsed
	}
	return input, true
}

func (h *ContentHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.service.ListEvents(r.Context())
	if err != nil {
		h.writeContentError(w, r, err)
		return
	}

	views := make([]eventResponse, 0, len(events))
	for _, e := range events {
		views = append(views, eventView(e))
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *ContentHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var payload eventPayload
	if !decodeJSON(w, r, h.env, &payload) {
		return
	}

	input, ok := h.eventInput(w, r, payload)
	if !ok {
		return
	}

	event, err := h.service.CreateEvent(r.Context(), input)
	if err != nil {
		h.writeContentError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, eventView(event))
}

func (h *ContentHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.service.GetEvent(r.Context(), pathID(r))
	if err != nil {
		h.writeContentError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, eventView(event))
}

func (h *ContentHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	var payload eventPayload
	if !decodeJSON(w, r, h.env, &payload) {
		return
	}

	input, ok := h.eventInput(w, r, payload)
	if !ok {
		return
	}

	event, err := h.service.UpdateEvent(r.Context(), pathID(r), input)
	if err != nil {
		h.writeContentError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, eventView(event))
}

func (h *ContentHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteEvent(r.Context(), pathID(r)); err != nil {
		h.writeContentError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- gallery ---

type galleryResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url"`
	SortOrder   int       `json:"sort_order"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func galleryView(g storage.GalleryImage) galleryResponse {
	return galleryResponse{
		ID:          g.ID,
		Title:       g.Title,
		Description: g.Description,
		ImageURL:    g.ImageURL,
		SortOrder:   g.SortOrder,
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
	}
}

func (h *ContentHandler) galleryInput(w http.ResponseWriter, r *http.Request) (content.GalleryInput, func(), bool) {
	if err := r.ParseMultipartForm(content.MaxImageSize); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid multipart form", err, h.env)
		return content.GalleryInput{}, nil, false
	}

	image, cleanup, err := imageFromForm(r)
	if err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid image upload", err, h.env)
		return content.GalleryInput{}, nil, false
	}

	sortOrder := 0
	if raw := r.FormValue("sort_order"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			cleanup()
			problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "sort_order must be an integer", err, h.env)
			return content.GalleryInput{}, nil, false
		}
		sortOrder = parsed
	}

	return content.GalleryInput{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		SortOrder:   sortOrder,
		Image:       image,
	}, cleanup, true
}

func (h *ContentHandler) ListGallery(w http.ResponseWriter, r *http.Request) {
	images, err := h.service.ListGallery(r.Context())
	if err != nil {
		h.writeContentError(w, r, err)
		return
	}

	views := make([]galleryResponse, 0, len(images))
	for _, g := range images {
		views = append(views, galleryView(g))
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *ContentHandler) CreateGalleryImage(w http.ResponseWriter, r *http.Request) {
	input, cleanup, ok := h.galleryInput(w, r)
	if !ok {
		return
	}
	defer cleanup()

	image, err := h.service.CreateGalleryImage(r.Context(), input)
	if err != nil {
		h.writeContentError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, galleryView(image))
}

func (h *ContentHandler) GetGalleryImage(w http.ResponseWriter, r *http.Request) {
	image, err := h.service.GetGalleryImage(r.Context(), pathID(r))
	if err != nil {
		h.writeContentError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, galleryView(image))
}

func (h *ContentHandler) UpdateGalleryImage(w http.ResponseWriter, r *http.Request) {
	input, cleanup, ok := h.galleryInput(w, r)
	if !ok {
		return
	}
	defer cleanup()

	image, err := h.service.UpdateGalleryImage(r.Context(), pathID(r), input)
	if err != nil {
		h.writeContentError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, galleryView(image))
}

func (h *ContentHandler) DeleteGalleryImage(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteGalleryImage(r.Context(), pathID(r)); err != nil {
		h.writeContentError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
