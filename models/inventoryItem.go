package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PedrooFerraz/Inventory-app-sub000/utils"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

var (
	ErrItemNotFound           = errors.New("item not found")
	ErrBatchSelectionRequired = errors.New("batch selection required")
)

// effectiveLocationSQL is reported_location when set, else expected_location.
const effectiveLocationSQL = "COALESCE(NULLIF(reported_location, ''), expected_location)"

type InventoryItem struct {
	ID                int             `gorm:"primary_key" json:"id"`
	InventoryId       int             `gorm:"index;not null" json:"inventory_id"`
	InventoryDocument string          `gorm:"size:50;index:idx_inventory_items_document_year" json:"inventoryDocument"`
	Year              string          `gorm:"size:10;index:idx_inventory_items_document_year" json:"year"`
	Center            string          `gorm:"size:50" json:"center"`
	Storage           string          `gorm:"size:50" json:"storage"`
	Batch             string          `gorm:"size:100" json:"batch"`
	Sequence          int             `gorm:"column:inventory_item" json:"inventoryItem"`
	Code              string          `gorm:"size:100;index;not null" json:"code"`
	Description       string          `gorm:"size:255" json:"description"`
	Unit              string          `gorm:"size:20" json:"unit"`
	AveragePrice      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"averagePrice"`
	Currency          string          `gorm:"size:10" json:"currency"`
	ExpectedLocation  string          `gorm:"size:100" json:"expectedLocation"`
	ExpectedQuantity  int             `gorm:"not null;default:0" json:"expectedQuantity"`
	ReportedLocation  *string         `gorm:"size:100" json:"reportedLocation"`
	ReportedQuantity  *int            `json:"reportedQuantity"`
	Status            ItemStatus      `gorm:"not null;default:0" json:"status"`
	Observation       string          `gorm:"type:text" json:"observation"`
	Operator          string          `gorm:"size:50" json:"operator"`
	CountTime         *time.Time      `json:"countTime"`
}

// EffectiveLocation is where the item is believed to be right now.
func (item InventoryItem) EffectiveLocation() string {
	if item.ReportedLocation != nil && *item.ReportedLocation != "" {
		return *item.ReportedLocation
	}
	return item.ExpectedLocation
}

func (item InventoryItem) IsCounted() bool {
	return item.ReportedQuantity != nil
}

type ItemFilter struct {
	Code          string
	Location      string
	Status        *ItemStatus
	ExcludeStatus *ItemStatus
}

// countFields is the set of columns an operator count writes.
type countFields struct {
	ReportedQuantity int
	ReportedLocation string
	Observation      string
	Operator         string
	Status           ItemStatus
	CountTime        time.Time
}

func (f countFields) columns() map[string]interface{} {
	return map[string]interface{}{
		"reported_quantity": f.ReportedQuantity,
		"reported_location": f.ReportedLocation,
		"observation":       f.Observation,
		"operator":          f.Operator,
		"status":            f.Status,
		"count_time":        f.CountTime,
	}
}

/* store */

// GetItemByID returns ErrItemNotFound when the item is missing or belongs
// to another inventory.
func GetItemByID(ctx context.Context, db *gorm.DB, inventoryId int, itemId int) (*InventoryItem, error) {
	var item InventoryItem
	res := db.WithContext(ctx).Where("id = ? AND inventory_id = ?", itemId, inventoryId).Limit(1).Find(&item)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrItemNotFound
	}
	return &item, nil
}

func GetItemsByCode(ctx context.Context, db *gorm.DB, inventoryId int, code string) ([]InventoryItem, error) {
	var items []InventoryItem
	err := db.WithContext(ctx).
		Where("inventory_id = ? AND code = ?", inventoryId, utils.NormalizeLocation(code)).
		Order("id").
		Find(&items).Error
	return items, err
}

func GetItemByCodeAndBatch(ctx context.Context, db *gorm.DB, inventoryId int, code string, batch string) (*InventoryItem, error) {
	var item InventoryItem
	res := db.WithContext(ctx).
		Where("inventory_id = ? AND code = ? AND batch = ?", inventoryId, utils.NormalizeLocation(code), batch).
		Order("id").
		Limit(1).
		Find(&item)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrItemNotFound
	}
	return &item, nil
}

// GetBatchesForItem lists the distinct non-empty batches of a code.
func GetBatchesForItem(ctx context.Context, db *gorm.DB, inventoryId int, code string) ([]string, error) {
	var batches []string
	err := db.WithContext(ctx).Model(&InventoryItem{}).
		Where("inventory_id = ? AND code = ? AND batch <> ''", inventoryId, utils.NormalizeLocation(code)).
		Distinct("batch").
		Order("batch").
		Pluck("batch", &batches).Error
	return batches, err
}

func ListItems(ctx context.Context, db *gorm.DB, inventoryId int, filter ItemFilter) ([]InventoryItem, error) {
	q := db.WithContext(ctx).Where("inventory_id = ?", inventoryId)
	if filter.Code != "" {
		q = q.Where("code = ?", utils.NormalizeLocation(filter.Code))
	}
	if filter.Location != "" {
		q = q.Where(effectiveLocationSQL+" = ?", utils.NormalizeLocation(filter.Location))
	}
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}
	if filter.ExcludeStatus != nil {
		q = q.Where("status <> ?", *filter.ExcludeStatus)
	}
	var items []InventoryItem
	if err := q.Order("inventory_item, id").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// DocumentYearExists reports whether any item was already imported for the pair.
func DocumentYearExists(ctx context.Context, db *gorm.DB, document string, year string) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Model(&InventoryItem{}).
		Where("inventory_document = ? AND year = ?", document, year).
		Count(&count).Error
	return count > 0, err
}

// InsertItems writes items in consecutive batches of batchSize. The rows of
// one batch are inserted concurrently; the next batch starts only after the
// previous one finished. db may be a transaction.
func InsertItems(ctx context.Context, db *gorm.DB, items []InventoryItem, batchSize int) error {
	for _, batch := range utils.ChunkSlice(items, batchSize) {
		g, gctx := errgroup.WithContext(ctx)
		for i := range batch {
			item := &batch[i]
			g.Go(func() error {
				return db.WithContext(gctx).Create(item).Error
			})
		}
		if err := g.Wait(); err != nil {
			return fmt.Errorf("insert items: %w", err)
		}
	}
	return nil
}

func InsertItem(ctx context.Context, db *gorm.DB, item *InventoryItem) error {
	return db.WithContext(ctx).Create(item).Error
}

// NextItemSequence is max(inventory_item)+1 within the inventory.
func NextItemSequence(ctx context.Context, db *gorm.DB, inventoryId int) (int, error) {
	var next int
	err := db.WithContext(ctx).Raw(
		"SELECT COALESCE(MAX(inventory_item), 0) + 1 FROM inventory_items WHERE inventory_id = ?",
		inventoryId,
	).Scan(&next).Error
	return next, err
}

func applyCount(ctx context.Context, db *gorm.DB, itemId int, fields countFields) (int64, error) {
	res := db.WithContext(ctx).Model(&InventoryItem{}).
		Where("id = ?", itemId).
		UpdateColumns(fields.columns())
	return res.RowsAffected, res.Error
}

// claimPendingCount writes the count only while the row is still pending.
// 0 rows affected means another submission counted it first.
func claimPendingCount(ctx context.Context, db *gorm.DB, itemId int, fields countFields) (int64, error) {
	res := db.WithContext(ctx).Model(&InventoryItem{}).
		Where("id = ? AND status = ?", itemId, ItemStatusPending).
		UpdateColumns(fields.columns())
	return res.RowsAffected, res.Error
}

// AddToCountAtLocation adds qty to the counted row of code whose effective
// location is location. It returns the number of rows changed.
func AddToCountAtLocation(ctx context.Context, db *gorm.DB, inventoryId int, code string, location string, qty int) (int64, error) {
	res := db.WithContext(ctx).Exec(
		"UPDATE inventory_items SET reported_quantity = reported_quantity + ? "+
			"WHERE inventory_id = ? AND code = ? AND reported_quantity IS NOT NULL AND "+effectiveLocationSQL+" = ?",
		qty, inventoryId, utils.NormalizeLocation(code), utils.NormalizeLocation(location),
	)
	return res.RowsAffected, res.Error
}

// FindOtherLocation returns the effective location of code anywhere in the
// inventory other than location.
func FindOtherLocation(ctx context.Context, db *gorm.DB, inventoryId int, code string, location string) (string, bool, error) {
	var locations []string
	err := db.WithContext(ctx).Raw(
		"SELECT "+effectiveLocationSQL+" AS local FROM inventory_items "+
			"WHERE inventory_id = ? AND code = ? AND "+effectiveLocationSQL+" <> '' AND "+effectiveLocationSQL+" <> ? "+
			"ORDER BY id LIMIT 1",
		inventoryId, utils.NormalizeLocation(code), utils.NormalizeLocation(location),
	).Scan(&locations).Error
	if err != nil || len(locations) == 0 {
		return "", false, err
	}
	return locations[0], true, nil
}

// FindCountedElsewhere returns the first counted row of code at a location
// other than location.
func FindCountedElsewhere(ctx context.Context, db *gorm.DB, inventoryId int, code string, location string) (*PreviousCount, error) {
	var rows []PreviousCount
	err := db.WithContext(ctx).Raw(
		"SELECT id, "+effectiveLocationSQL+" AS local, reported_quantity FROM inventory_items "+
			"WHERE inventory_id = ? AND code = ? AND reported_quantity IS NOT NULL AND "+effectiveLocationSQL+" <> ? "+
			"ORDER BY id LIMIT 1",
		inventoryId, utils.NormalizeLocation(code), utils.NormalizeLocation(location),
	).Scan(&rows).Error
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return &rows[0], nil
}
