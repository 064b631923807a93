package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/expotrade/server/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CategoryRepository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

const categoryColumns = `id, name, description, icon, image_key, image_url, created_at, updated_at`

func scanCategory(row pgx.Row) (storage.Category, error) {
	var category storage.Category
	err := row.Scan(
		&category.ID,
		&category.Name,
		&category.Description,
		&category.Icon,
		&category.ImageKey,
		&category.ImageURL,
		&category.CreatedAt,
		&category.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return storage.Category{}, storage.ErrNotFound
		}
		return storage.Category{}, fmt.Errorf("scan category: %w", err)
	}
	return category, nil
}

func (r *CategoryRepository) List(ctx context.Context) ([]storage.Category, error) {
	rows, err := pick(r.pool, r.tx).Query(ctx,
		`SELECT `+categoryColumns+` FROM categories ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []storage.Category
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}
	return categories, rows.Err()
}

func (r *CategoryRepository) Create(ctx context.Context, category storage.Category) (storage.Category, error) {
	row := pick(r.pool, r.tx).QueryRow(ctx, `
INSERT INTO categories (id, name, description, icon, image_key, image_url)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING `+categoryColumns,
		category.ID,
		category.Name,
		category.Description,
		category.Icon,
		category.ImageKey,
		category.ImageURL,
	)
	created, err := scanCategory(row)
	if err != nil {
		return storage.Category{}, fmt.Errorf("create category: %w", err)
	}
	return created, nil
}

func (r *CategoryRepository) GetByID(ctx context.Context, id string) (storage.Category, error) {
	row := pick(r.pool, r.tx).QueryRow(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id)
	return scanCategory(row)
}

func (r *CategoryRepository) Update(ctx context.Context, category storage.Category) (storage.Category, error) {
	row := pick(r.pool, r.tx).QueryRow(ctx, `
UPDATE categories
   SET name = $2,
       description = $3,
       icon = $4,
       image_key = $5,
       image_url = $6,
       updated_at = now()
 WHERE id = $1
RETURNING `+categoryColumns,
		category.ID,
		category.Name,
		category.Description,
		category.Icon,
		category.ImageKey,
		category.ImageURL,
	)
	return scanCategory(row)
}

func (r *CategoryRepository) Delete(ctx context.Context, id string) error {
	tag, err := pick(r.pool, r.tx).Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

type EventRepository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

const eventColumns = `id, title, location, venue, start_date, end_date, time_schedule, exhibitors_count, buyers_count, countries_count, sectors_count, is_active, description, created_at, updated_at`

func scanEvent(row pgx.Row) (storage.Event, error) {
	var event storage.Event
	err := row.Scan(
		&event.ID,
		&event.Title,
		&event.Location,
		&event.Venue,
		&event.StartDate,
		&event.EndDate,
		&event.TimeSchedule,
		&event.ExhibitorsCount,
		&event.BuyersCount,
		&event.CountriesCount,
		&event.SectorsCount,
		&event.IsActive,
		&event.Description,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return storage.Event{}, storage.ErrNotFound
		}
		return storage.Event{}, fmt.Errorf("scan event: %w", err)
	}
	return event, nil
}

func (r *EventRepository) List(ctx context.Context) ([]storage.Event, error) {
	rows, err := pick(r.pool, r.tx).Query(ctx,
		`SELECT `+eventColumns+` FROM events ORDER BY start_date ASC`)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []storage.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func (r *EventRepository) Create(ctx context.Context, event storage.Event) (storage.Event, error) {
	row := pick(r.pool, r.tx).QueryRow(ctx, `
INSERT INTO events
  (id, title, location, venue, start_date, end_date, time_schedule, exhibitors_count, buyers_count, countries_count, sectors_count, is_active, description)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
RETURNING `+eventColumns,
		event.ID,
		event.Title,
		event.Location,
		event.Venue,
		event.StartDate,
		event.EndDate,
		event.TimeSchedule,
		event.ExhibitorsCount,
		event.BuyersCount,
		event.CountriesCount,
		event.SectorsCount,
		event.IsActive,
		event.Description,
	)
	created, err := scanEvent(row)
	if err != nil {
		return storage.Event{}, fmt.Errorf("create event: %w", err)
	}
	return created, nil
}

func (r *EventRepository) GetByID(ctx context.Context, id string) (storage.Event, error) {
	row := pick(r.pool, r.tx).QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
	return scanEvent(row)
}

func (r *EventRepository) Update(ctx context.Context, event storage.Event) (storage.Event, error) {
	row := pick(r.pool, r.tx).QueryRow(ctx, `
UPDATE events
   SET title = $2,
       location = $3,
       venue = $4,
       start_date = $5,
       end_date = $6,
       time_schedule = $7,
       exhibitors_count = $8,
       buyers_count = $9,
       countries_count = $10,
       sectors_count = $11,
       is_active = $12,
       description = $13,
       updated_at = now()
 WHERE id = $1
RETURNING `+eventColumns,
		event.ID,
		event.Title,
		event.Location,
		event.Venue,
		event.StartDate,
		event.EndDate,
		event.TimeSchedule,
		event.ExhibitorsCount,
		event.BuyersCount,
		event.CountriesCount,
		event.SectorsCount,
		event.IsActive,
		event.Description,
	)
	return scanEvent(row)
}

func (r *EventRepository) Delete(ctx context.Context, id string) error {
	tag, err := pick(r.pool, r.tx).Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

type GalleryRepository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

const galleryColumns = `id, title, description, image_key, image_url, sort_order, created_at, updated_at`

func scanGalleryImage(row pgx.Row) (storage.GalleryImage, error) {
	var image storage.GalleryImage
	err := row.Scan(
		&image.ID,
		&image.Title,
		&image.Description,
		&image.ImageKey,
		&image.ImageURL,
		&image.SortOrder,
		&image.CreatedAt,
		&image.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return storage.GalleryImage{}, storage.ErrNotFound
		}
		return storage.GalleryImage{}, fmt.Errorf("scan gallery image: %w", err)
	}
	return image, nil
}

func (r *GalleryRepository) List(ctx context.Context) ([]storage.GalleryImage, error) {
	rows, err := pick(r.pool, r.tx).Query(ctx,
		`SELECT `+galleryColumns+` FROM gallery_images ORDER BY sort_order ASC, created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list gallery images: %w", err)
	}
	defer rows.Close()

	var images []storage.GalleryImage
	for rows.Next() {
		image, err := scanGalleryImage(rows)
		if err != nil {
			return nil, err
		}
		images = append(images, image)
	}
	return images, rows.Err()
}

func (r *GalleryRepository) Create(ctx context.Context, image storage.GalleryImage) (storage.GalleryImage, error) {
	row := pick(r.pool, r.tx).QueryRow(ctx, `
INSERT INTO gallery_images (id, title, description, image_key, image_url, sort_order)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING `+galleryColumns,
		image.ID,
		image.Title,
		image.Description,
		image.ImageKey,
		image.ImageURL,
		image.SortOrder,
	)
	created, err := scanGalleryImage(row)
	if err != nil {
		return storage.GalleryImage{}, fmt.Errorf("create gallery image: %w", err)
	}
	return created, nil
}

func (r *GalleryRepository) GetByID(ctx context.Context, id string) (storage.GalleryImage, error) {
	row := pick(r.pool, r.tx).QueryRow(ctx,
		`SELECT `+galleryColumns+` FROM gallery_images WHERE id = $1`, id)
	return scanGalleryImage(row)
}

func (r *GalleryRepository) Update(ctx context.Context, image storage.GalleryImage) (storage.GalleryImage, error) {
	row := pick(r.pool, r.tx).QueryRow(ctx, `
UPDATE gallery_images
   SET title = $2,
       description = $3,
       image_key = $4,
       image_url = $5,
       sort_order = $6,
       updated_at = now()
 WHERE id = $1
RETURNING `+galleryColumns,
		image.ID,
		image.Title,
		image.Description,
		image.ImageKey,
		image.ImageURL,
		image.SortOrder,
	)
	return scanGalleryImage(row)
}

func (r *GalleryRepository) Delete(ctx context.Context, id string) error {
	tag, err := pick(r.pool, r.tx).Exec(ctx, `DELETE FROM gallery_images WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete gallery image: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}
