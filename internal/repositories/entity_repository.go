package repositories

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"granito/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrMissingRemoteID = errors.New("row has no shopify_id")
	ErrUnknownKind     = errors.New("unknown entity kind")
)

// EntityRepository reads and writes the local mirror tables.
type EntityRepository interface {
	// Upsert writes row keyed on shopify_id and reports whether it was
	// inserted. created_at is only set on insert; updated_at is set to now.
	Upsert(ctx context.Context, kind models.EntityKind, row models.Row, now time.Time) (bool, error)
	FindByRemoteID(ctx context.Context, kind models.EntityKind, remoteID string) (interface{}, error)
	// Get accepts either the local uuid or the shopify_id.
	Get(ctx context.Context, kind models.EntityKind, id string) (interface{}, error)
	List(ctx context.Context, kind models.EntityKind, filter ListFilter) (interface{}, int64, error)
	Count(ctx context.Context, kind models.EntityKind) (int64, error)
	DeleteByRemoteID(ctx context.Context, kind models.EntityKind, remoteID string) (bool, error)
}

type ListFilter struct {
	Page   int
	Limit  int
	Search string
	Status string
}

// Normalize fills pagination defaults.
func (f ListFilter) Normalize() ListFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 20
	}
	if f.Limit > 250 {
		f.Limit = 250
	}
	return f
}

type entityRepo struct {
	DB *gorm.DB
}

func NewEntityRepository(db *gorm.DB) EntityRepository {
	return &entityRepo{DB: db}
}

func (r *entityRepo) Upsert(ctx context.Context, kind models.EntityKind, row models.Row, now time.Time) (bool, error) {
	table := kind.Table()
	if table == "" {
		return false, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	remoteID := row.RemoteID()
	if remoteID == "" {
		return false, ErrMissingRemoteID
	}

	values := make(map[string]interface{}, len(row)+3)
	updates := make([]string, 0, len(row))
	for column, value := range row {
		values[column] = value
		switch column {
		case "id", "created_at", "updated_at", models.ColumnRemoteID:
		default:
			updates = append(updates, column)
		}
	}
	sort.Strings(updates)
	updates = append(updates, "updated_at")
	values["id"] = uuid.New().String()
	values["created_at"] = now
	values["updated_at"] = now

	var created bool
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if tx.Dialector.Name() == "postgres" {
			created, err = upsertReturning(tx, table, values, updates)
		} else {
			created, err = upsertLocked(tx, table, remoteID, values, updates)
		}
		if err != nil {
			return fmt.Errorf("failed to write %s %s: %w", kind, remoteID, err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

// upsertReturning reports inserts from the statement itself: xmax is zero
// only on a tuple this statement inserted, so two writers racing on a new
// shopify_id get one insert and one update.
func upsertReturning(tx *gorm.DB, table string, values map[string]interface{}, updates []string) (bool, error) {
	statement, args := upsertStatement(table, values, updates)
	var out struct {
		Inserted bool
	}
	if err := tx.Raw(statement, args...).Scan(&out).Error; err != nil {
		return false, err
	}
	return out.Inserted, nil
}

func upsertStatement(table string, values map[string]interface{}, updates []string) (string, []interface{}) {
	columns := make([]string, 0, len(values))
	for column := range values {
		columns = append(columns, column)
	}
	sort.Strings(columns)

	quoted := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	args := make([]interface{}, len(columns))
	for i, column := range columns {
		quoted[i] = quoteIdent(column)
		placeholders[i] = "?"
		args[i] = values[column]
	}
	sets := make([]string, len(updates))
	for i, column := range updates {
		sets[i] = quoteIdent(column) + " = EXCLUDED." + quoteIdent(column)
	}

	statement := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO UPDATE SET %s RETURNING (xmax = 0) AS inserted",
		quoteIdent(table),
		strings.Join(quoted, ", "),
		strings.Join(placeholders, ", "),
		quoteIdent(models.ColumnRemoteID),
		strings.Join(sets, ", "))
	return statement, args
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// upsertLocked decides insert vs update with a locked lookup. SQLite
// serializes writers, so the lookup cannot go stale before the write.
func upsertLocked(tx *gorm.DB, table, remoteID string, values map[string]interface{}, updates []string) (bool, error) {
	var ids []string
	err := tx.Table(table).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where(models.ColumnRemoteID+" = ?", remoteID).
		Limit(1).
		Pluck("id", &ids).Error
	if err != nil {
		return false, err
	}

	err = tx.Table(table).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: models.ColumnRemoteID}},
			DoUpdates: clause.AssignmentColumns(updates),
		}).
		Create(values).Error
	if err != nil {
		return false, err
	}
	return len(ids) == 0, nil
}

func (r *entityRepo) FindByRemoteID(ctx context.Context, kind models.EntityKind, remoteID string) (interface{}, error) {
	record := kind.NewRecord()
	if record == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	err := r.DB.WithContext(ctx).Where(models.ColumnRemoteID+" = ?", remoteID).First(record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (r *entityRepo) Get(ctx context.Context, kind models.EntityKind, id string) (interface{}, error) {
	if _, err := uuid.Parse(id); err != nil {
		return r.FindByRemoteID(ctx, kind, id)
	}
	record := kind.NewRecord()
	if record == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	err := r.DB.WithContext(ctx).Where("id = ?", id).First(record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (r *entityRepo) List(ctx context.Context, kind models.EntityKind, filter ListFilter) (interface{}, int64, error) {
	records := kind.NewRecords()
	if records == nil {
		return nil, 0, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	filter = filter.Normalize()

	query := r.DB.WithContext(ctx).Model(kind.NewRecord())
	if filter.Status != "" {
		query = query.Where(kind.StatusColumn()+" = ?", strings.ToLower(filter.Status))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		conditions := make([]string, 0, len(kind.SearchColumns()))
		args := make([]interface{}, 0, len(kind.SearchColumns()))
		for _, column := range kind.SearchColumns() {
			conditions = append(conditions, "LOWER("+column+") LIKE ?")
			args = append(args, pattern)
		}
		query = query.Where(strings.Join(conditions, " OR "), args...)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("updated_at DESC").
		Offset((filter.Page - 1) * filter.Limit).
		Limit(filter.Limit).
		Find(records).Error
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

func (r *entityRepo) Count(ctx context.Context, kind models.EntityKind) (int64, error) {
	table := kind.Table()
	if table == "" {
		return 0, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	var total int64
	err := r.DB.WithContext(ctx).Table(table).Count(&total).Error
	return total, err
}

func (r *entityRepo) DeleteByRemoteID(ctx context.Context, kind models.EntityKind, remoteID string) (bool, error) {
	record := kind.NewRecord()
	if record == nil {
		return false, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	result := r.DB.WithContext(ctx).Where(models.ColumnRemoteID+" = ?", remoteID).Delete(record)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
