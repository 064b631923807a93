// Package content manages the public site content: product categories,
// trade fair events, and the photo gallery. Category and gallery images
// live in blob storage; the owning record keeps the object key and URL.
package content

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/expotrade/server/internal/domain/ids"
	"github.com/expotrade/server/internal/sanitize"
	"github.com/expotrade/server/internal/storage"
	"github.com/rs/zerolog"
)

var (
	ErrNotFound       = errors.New("content not found")
	ErrTitleRequired  = errors.New("title is required")
	ErrNameRequired   = errors.New("name is required")
	ErrInvalidDates   = errors.New("end date must not be before start date")
	ErrDatesRequired  = errors.New("start and end dates are required")
	ErrImageRequired  = errors.New("an image file is required")
	ErrUnsupportedExt = errors.New("unsupported image type")
)

// maxImageSize caps multipart image uploads at 10 MiB.
const MaxImageSize = 10 << 20

var allowedImageExts = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// ImageUpload is a file received from a multipart form.
type ImageUpload struct {
	Filename string
	Size     int64
	Body     io.Reader
}

// Uploader is the slice of the blob store this package needs.
type Uploader interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
	Delete(ctx context.Context, key string) error
}

type Service struct {
	repo   storage.Repository
	blobs  Uploader
	logger zerolog.Logger
}

// NewService wires the content workflows. blobs is typically a
// *blob.Store; its methods are nil-receiver safe, so an unconfigured
// store degrades to ErrNotConfigured on upload instead of a panic.
func NewService(repo storage.Repository, blobs Uploader, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		blobs:  blobs,
		logger: logger.With().Str("component", "content").Logger(),
	}
}

// storeImage uploads under prefix/<ulid><ext> and returns (key, url).
func (s *Service) storeImage(ctx context.Context, prefix string, upload *ImageUpload) (string, string, error) {
	ext := strings.ToLower(path.Ext(upload.Filename))
	contentType, ok := allowedImageExts[ext]
	if !ok {
		return "", "", ErrUnsupportedExt
	}

	key := prefix + "/" + strings.ToLower(ids.NewULID()) + ext
	url, err := s.blobs.Upload(ctx, key, contentType, upload.Body, upload.Size)
	if err != nil {
		return "", "", fmt.Errorf("upload image: %w", err)
	}
	return key, url, nil
}

// dropImage removes a stored object. Failures are logged, not returned:
// the database row is already gone or replaced and a dangling object is
// preferable to a failed request.
func (s *Service) dropImage(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.blobs.Delete(ctx, key); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("failed to delete stored image")
	}
}

// --- categories ---

type CategoryInput struct {
	Name        string
	Description string
	Icon        string
	Image       *ImageUpload
}

func (s *Service) ListCategories(ctx context.Context) ([]storage.Category, error) {
	return s.repo.Categories().List(ctx)
}

func (s *Service) CreateCategory(ctx context.Context, input CategoryInput) (storage.Category, error) {
	name := sanitize.Text(input.Name)
	if name == "" {
		return storage.Category{}, ErrNameRequired
	}

	category := storage.Category{
		ID:          ids.NewULID(),
		Name:        name,
		Description: sanitize.Text(input.Description),
		Icon:        sanitize.Text(input.Icon),
	}

	if input.Image != nil {
		key, url, err := s.storeImage(ctx, "categories", input.Image)
		if err != nil {
			return storage.Category{}, err
		}
		category.ImageKey = key
		category.ImageURL = url
	}

	created, err := s.repo.Categories().Create(ctx, category)
	if err != nil {
		s.dropImage(ctx, category.ImageKey)
		return storage.Category{}, err
	}

	s.logger.Info().Str("category_id", created.ID).Str("name", created.Name).Msg("category created")
	return created, nil
}

func (s *Service) GetCategory(ctx context.Context, id string) (storage.Category, error) {
	category, err := s.repo.Categories().GetByID(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return storage.Category{}, ErrNotFound
	}
	return category, err
}

func (s *Service) UpdateCategory(ctx context.Context, id string, input CategoryInput) (storage.Category, error) {
	existing, err := s.GetCategory(ctx, id)
	if err != nil {
		return storage.Category{}, err
	}

	name := sanitize.Text(input.Name)
	if name == "" {
		return storage.Category{}, ErrNameRequired
	}

	existing.Name = name
	existing.Description = sanitize.Text(input.Description)
	existing.Icon = sanitize.Text(input.Icon)

	previousKey := ""
	if input.Image != nil {
		key, url, err := s.storeImage(ctx, "categories", input.Image)
		if err != nil {
			return storage.Category{}, err
		}
		previousKey = existing.ImageKey
		existing.ImageKey = key
		existing.ImageURL = url
	}

	updated, err := s.repo.Categories().Update(ctx, existing)
	if errors.Is(err, storage.ErrNotFound) {
		return storage.Category{}, ErrNotFound
	}
	if err != nil {
		return storage.Category{}, err
	}

	s.dropImage(ctx, previousKey)
	return updated, nil
}

func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	category, err := s.GetCategory(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Categories().Delete(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	s.dropImage(ctx, category.ImageKey)
	return nil
}

// --- events ---

type EventInput struct {
	Title           string
	Location        string
	Venue           string
	StartDate       time.Time
	EndDate         time.Time
	TimeSchedule    string
	ExhibitorsCount string
	BuyersCount     string
	CountriesCount  string
	SectorsCount    string
	IsActive        *bool
	Description     string
}

func (s *Service) ListEvents(ctx context.Context) ([]storage.Event, error) {
	return s.repo.Events().List(ctx)
}

// Headline display defaults for a newly announced fair.
const (
	defaultTimeSchedule    = "10:00 AM - 7:00 PM"
	defaultExhibitorsCount = "400+"
	defaultBuyersCount     = "6000+"
	defaultCountriesCount  = "40+"
	defaultSectorsCount    = "16"
)

func (s *Service) CreateEvent(ctx context.Context, input EventInput) (storage.Event, error) {
	event, err := eventFromInput(storage.Event{ID: ids.NewULID(), IsActive: true}, input)
	if err != nil {
		return storage.Event{}, err
	}

	if event.TimeSchedule == "" {
		event.TimeSchedule = defaultTimeSchedule
	}
	if event.ExhibitorsCount == "" {
		event.ExhibitorsCount = defaultExhibitorsCount
	}
	if event.BuyersCount == "" {
		event.BuyersCount = defaultBuyersCount
	}
	if event.CountriesCount == "" {
		event.CountriesCount = defaultCountriesCount
	}
	if event.SectorsCount == "" {
		event.SectorsCount = defaultSectorsCount
	}

	created, err := s.repo.Events().Create(ctx, event)
	if err != nil {
		return storage.Event{}, err
	}

	s.logger.Info().Str("event_id", created.ID).Str("title", created.Title).Msg("event created")
	return created, nil
}

func (s *Service) GetEvent(ctx context.Context, id string) (storage.Event, error) {
	event, err := s.repo.Events().GetByID(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return storage.Event{}, ErrNotFound
	}
	return event, err
}

func (s *Service) UpdateEvent(ctx context.Context, id string, input EventInput) (storage.Event, error) {
	existing, err := s.GetEvent(ctx, id)
	if err != nil {
		return storage.Event{}, err
	}

	event, err := eventFromInput(existing, input)
	if err != nil {
		return storage.Event{}, err
	}

	updated, err := s.repo.Events().Update(ctx, event)
	if errors.Is(err, storage.ErrNotFound) {
		return storage.Event{}, ErrNotFound
	}
	return updated, err
}

func (s *Service) DeleteEvent(ctx context.Context, id string) error {
	err := s.repo.Events().Delete(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func eventFromInput(base storage.Event, input EventInput) (storage.Event, error) {
	title := sanitize.Text(input.Title)
	if title == "" {
		return storage.Event{}, ErrTitleRequired
	}
	if input.StartDate.IsZero() || input.EndDate.IsZero() {
		return storage.Event{}, ErrDatesRequired
	}
	if input.EndDate.Before(input.StartDate) {
		return storage.Event{}, ErrInvalidDates
	}

	base.Title = title
	base.Location = sanitize.Text(input.Location)
	base.Venue = sanitize.Text(input.Venue)
	base.StartDate = input.StartDate
	base.EndDate = input.EndDate
	base.TimeSchedule = sanitize.Text(input.TimeSchedule)
	base.ExhibitorsCount = sanitize.Text(input.ExhibitorsCount)
	base.BuyersCount = sanitize.Text(input.BuyersCount)
	base.CountriesCount = sanitize.Text(input.CountriesCount)
	base.SectorsCount = sanitize.Text(input.SectorsCount)
	base.Description = sanitize.Text(input.Description)
	if input.IsActive != nil {
		base.IsActive = *input.IsActive
	}
	return base, nil
}

// --- gallery ---

type GalleryInput struct {
	Title       string
	Description string
	SortOrder   int
	Image       *ImageUpload
}

func (s *Service) ListGallery(ctx context.Context) ([]storage.GalleryImage, error) {
	return s.repo.Gallery().List(ctx)
}

func (s *Service) CreateGalleryImage(ctx context.Context, input GalleryInput) (storage.GalleryImage, error) {
	title := sanitize.Text(input.Title)
	if title == "" {
		return storage.GalleryImage{}, ErrTitleRequired
	}
	if input.Image == nil {
		return storage.GalleryImage{}, ErrImageRequired
	}

	key, url, err := s.storeImage(ctx, "gallery", input.Image)
	if err != nil {
		return storage.GalleryImage{}, err
	}

	image := storage.GalleryImage{
		ID:          ids.NewULID(),
		Title:       title,
		Description: sanitize.Text(input.Description),
		ImageKey:    key,
		ImageURL:    url,
		SortOrder:   input.SortOrder,
	}

	created, err := s.repo.Gallery().Create(ctx, image)
	if err != nil {
		s.dropImage(ctx, key)
		return storage.GalleryImage{}, err
	}

	s.logger.Info().Str("image_id", created.ID).Str("title", created.Title).Msg("gallery image added")
	return created, nil
}

func (s *Service) GetGalleryImage(ctx context.Context, id string) (storage.GalleryImage, error) {
	image, err := s.repo.Gallery().GetByID(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return storage.GalleryImage{}, ErrNotFound
	}
	return image, err
}

func (s *Service) UpdateGalleryImage(ctx context.Context, id string, input GalleryInput) (storage.GalleryImage, error) {
	existing, err := s.GetGalleryImage(ctx, id)
	if err != nil {
		return storage.GalleryImage{}, err
	}

	title := sanitize.Text(input.Title)
	if title == "" {
		return storage.GalleryImage{}, ErrTitleRequired
	}

	existing.Title = title
	existing.Description = sanitize.Text(input.Description)
	existing.SortOrder = input.SortOrder

	previousKey := ""
	if input.Image != nil {
		key, url, err := s.storeImage(ctx, "gallery", input.Image)
		if err != nil {
			return storage.GalleryImage{}, err
		}
		previousKey = existing.ImageKey
		existing.ImageKey = key
		existing.ImageURL = url
	}

	updated, err := s.repo.Gallery().Update(ctx, existing)
	if errors.Is(err, storage.ErrNotFound) {
		return storage.GalleryImage{}, ErrNotFound
	}
	if err != nil {
		return storage.GalleryImage{}, err
	}

	s.dropImage(ctx, previousKey)
	return updated, nil
}

func (s *Service) DeleteGalleryImage(ctx context.Context, id string) error {
	image, err := s.GetGalleryImage(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Gallery().Delete(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	s.dropImage(ctx, image.ImageKey)
	return nil
}
