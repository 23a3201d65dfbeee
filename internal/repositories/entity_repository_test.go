package repositories_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"granito/internal/database/dbtest"
	"granito/internal/models"
	"granito/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func productRow(id, title string, price float64) models.Row {
	return models.Row{
		models.ColumnRemoteID:   id,
		"title":                 title,
		"vendor":                "Granito",
		"status":                "active",
		"price":                 price,
		models.ColumnSyncStatus: models.SyncStatusSynced,
	}
}

func TestUpsertInsertThenUpdate(t *testing.T) {
	db := dbtest.New(t)
	repo := repositories.NewEntityRepository(db.DB)
	ctx := context.Background()

	first := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	second := first.Add(time.Hour)

	created, err := repo.Upsert(ctx, models.KindProduct, productRow("1", "Deck A", 49.99), first)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.Upsert(ctx, models.KindProduct, productRow("1", "Deck A v2", 44.99), second)
	require.NoError(t, err)
	assert.False(t, created)

	count, err := repo.Count(ctx, models.KindProduct)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	record, err := repo.FindByRemoteID(ctx, models.KindProduct, "1")
	require.NoError(t, err)
	product := record.(*models.Product)
	assert.Equal(t, "Deck A v2", product.Title)
	assert.Equal(t, 44.99, product.Price)
	assert.True(t, product.CreatedAt.Equal(first), "created_at changed: %s", product.CreatedAt)
	assert.True(t, product.UpdatedAt.Equal(second), "updated_at not refreshed: %s", product.UpdatedAt)
	assert.NotEmpty(t, product.ID)
}

func TestUpsertConcurrentWritersCountOneInsert(t *testing.T) {
	db := dbtest.New(t)
	repo := repositories.NewEntityRepository(db.DB)
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	const writers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inserts int
		errs    []error
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			created, err := repo.Upsert(ctx, models.KindProduct, productRow("77", fmt.Sprintf("Deck %d", i), 10), now)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			if created {
				inserts++
			}
		}(i)
	}
	wg.Wait()

	require.Empty(t, errs)
	assert.Equal(t, 1, inserts)

	count, err := repo.Count(ctx, models.KindProduct)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestUpsertRejectsRowWithoutRemoteID(t *testing.T) {
	db := dbtest.New(t)
	repo := repositories.NewEntityRepository(db.DB)

	_, err := repo.Upsert(context.Background(), models.KindProduct, models.Row{"title": "x"}, time.Now())
	assert.ErrorIs(t, err, repositories.ErrMissingRemoteID)

	_, err = repo.Upsert(context.Background(), models.EntityKind("widget"), productRow("1", "x", 0), time.Now())
	assert.ErrorIs(t, err, repositories.ErrUnknownKind)
}

func TestGetByLocalOrRemoteID(t *testing.T) {
	db := dbtest.New(t)
	repo := repositories.NewEntityRepository(db.DB)
	ctx := context.Background()

	_, err := repo.Upsert(ctx, models.KindProduct, productRow("987654321", "Deck A", 10), time.Now())
	require.NoError(t, err)

	byRemote, err := repo.Get(ctx, models.KindProduct, "987654321")
	require.NoError(t, err)
	localID := byRemote.(*models.Product).ID

	byLocal, err := repo.Get(ctx, models.KindProduct, localID)
	require.NoError(t, err)
	assert.Equal(t, "987654321", byLocal.(*models.Product).ShopifyID)

	_, err = repo.Get(ctx, models.KindProduct, "404")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestListFilters(t *testing.T) {
	db := dbtest.New(t)
	repo := repositories.NewEntityRepository(db.DB)
	ctx := context.Background()
	now := time.Now()

	for i, title := range []string{"Street Deck", "Park Deck", "Bearings"} {
		row := productRow(string(rune('1'+i)), title, 10)
		if title == "Bearings" {
			row["status"] = "draft"
		}
		_, err := repo.Upsert(ctx, models.KindProduct, row, now.Add(time.Duration(i)*time.Second))
		require.NoError(t, err)
	}

	records, total, err := repo.List(ctx, models.KindProduct, repositories.ListFilter{Search: "deck"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, *records.(*[]models.Product), 2)

	records, total, err = repo.List(ctx, models.KindProduct, repositories.ListFilter{Status: "DRAFT"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "Bearings", (*records.(*[]models.Product))[0].Title)

	records, total, err = repo.List(ctx, models.KindProduct, repositories.ListFilter{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	page := *records.(*[]models.Product)
	require.Len(t, page, 1)
	assert.Equal(t, "Street Deck", page[0].Title)
}

func TestDeleteByRemoteID(t *testing.T) {
	db := dbtest.New(t)
	repo := repositories.NewEntityRepository(db.DB)
	ctx := context.Background()

	_, err := repo.Upsert(ctx, models.KindOrder, models.Row{
		models.ColumnRemoteID: "450789469",
		"name":                "#1001",
		"total_price":         109.98,
	}, time.Now())
	require.NoError(t, err)

	deleted, err := repo.DeleteByRemoteID(ctx, models.KindOrder, "450789469")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.DeleteByRemoteID(ctx, models.KindOrder, "450789469")
	require.NoError(t, err)
	assert.False(t, deleted)
}
