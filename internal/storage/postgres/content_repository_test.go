package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/expotrade/server/internal/domain/ids"
	"github.com/expotrade/server/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t, ctx)

	created, err := repo.Categories().Create(ctx, storage.Category{
		ID:          ids.NewULID(),
		Name:        "Handicrafts",
		Description: "Hand-made goods",
		Icon:        "basket",
		ImageKey:    "categories/01abc.jpg",
		ImageURL:    "https://cdn.example.com/categories/01abc.jpg",
	})
	require.NoError(t, err)

	found, err := repo.Categories().GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Handicrafts", found.Name)

	found.Name = "Home & Handicrafts"
	updated, err := repo.Categories().Update(ctx, found)
	require.NoError(t, err)
	assert.Equal(t, "Home & Handicrafts", updated.Name)

	require.NoError(t, repo.Categories().Delete(ctx, created.ID))
	_, err = repo.Categories().GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestEventRepository_ListByStartDate(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t, ctx)

	later, err := repo.Events().Create(ctx, storage.Event{
		ID:        ids.NewULID(),
		Title:     "Autumn Fair",
		StartDate: time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC),
		IsActive:  true,
	})
	require.NoError(t, err)

	sooner, err := repo.Events().Create(ctx, storage.Event{
		ID:        ids.NewULID(),
		Title:     "Spring Fair",
		StartDate: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
		IsActive:  true,
	})
	require.NoError(t, err)

	events, err := repo.Events().List(ctx)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, sooner.ID, events[0].ID, "soonest event first")
	assert.Equal(t, later.ID, events[1].ID)
}

func TestEventRepository_DisplayDefaults(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t, ctx)

	pool := setupPostgres(t, ctx)
	_, err := pool.Exec(ctx, `
INSERT INTO events (id, title, start_date, end_date)
VALUES ($1, 'Defaults Fair', '2026-06-01', '2026-06-03')`,
		ids.NewULID())
	require.NoError(t, err)

	events, err := repo.Events().List(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "10:00 AM - 7:00 PM", events[0].TimeSchedule)
	assert.Equal(t, "400+", events[0].ExhibitorsCount)
	assert.Equal(t, "6000+", events[0].BuyersCount)
	assert.Equal(t, "40+", events[0].CountriesCount)
	assert.Equal(t, "16", events[0].SectorsCount)
}

func TestGalleryRepository_ListBySortOrderThenNewest(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t, ctx)

	second, err := repo.Gallery().Create(ctx, storage.GalleryImage{
		ID: ids.NewULID(), Title: "Hall B", SortOrder: 2,
	})
	require.NoError(t, err)
	first, err := repo.Gallery().Create(ctx, storage.GalleryImage{
		ID: ids.NewULID(), Title: "Hall A", SortOrder: 1,
	})
	require.NoError(t, err)

	// Same sort_order falls back to newest-first.
	olderTied, err := repo.Gallery().Create(ctx, storage.GalleryImage{
		ID: ids.NewULID(), Title: "Tied older", SortOrder: 5,
	})
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)
	newerTied, err := repo.Gallery().Create(ctx, storage.GalleryImage{
		ID: ids.NewULID(), Title: "Tied newer", SortOrder: 5,
	})
	require.NoError(t, err)

	images, err := repo.Gallery().List(ctx)
	require.NoError(t, err)
	require.Len(t, images, 4)
	assert.Equal(t, first.ID, images[0].ID)
	assert.Equal(t, second.ID, images[1].ID)
	assert.Equal(t, newerTied.ID, images[2].ID)
	assert.Equal(t, olderTied.ID, images[3].ID)
}

func TestGalleryRepository_Update(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t, ctx)

	image, err := repo.Gallery().Create(ctx, storage.GalleryImage{
		ID: ids.NewULID(), Title: "Entrance", SortOrder: 3,
	})
	require.NoError(t, err)

	image.Title = "Main entrance"
	image.SortOrder = 1
	updated, err := repo.Gallery().Update(ctx, image)
	require.NoError(t, err)
	assert.Equal(t, "Main entrance", updated.Title)
	assert.Equal(t, 1, updated.SortOrder)
}
