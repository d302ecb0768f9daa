package models

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var ErrInventoryNotFound = errors.New("inventory not found")

type Inventory struct {
	ID                 int             `gorm:"primary_key" json:"id"`
	FileName           string          `gorm:"size:255;not null" json:"fileName"`
	FileUri            string          `gorm:"size:1024" json:"fileUri"`
	ImportDate         time.Time       `gorm:"not null" json:"importDate"`
	InventoryYear      string          `gorm:"size:10;not null" json:"inventoryYear"`
	InventoryDocument  string          `gorm:"size:50;index;not null" json:"inventoryDocument"`
	CountType          CountType       `gorm:"not null;default:1" json:"countType"`
	Status             InventoryStatus `gorm:"not null;default:0" json:"status"`
	TotalItems         int             `gorm:"not null;default:0" json:"totalItems"`
	CountedItems       int             `gorm:"not null;default:0" json:"countedItems"`
	HasSurplusMaterial bool            `gorm:"not null;default:false" json:"hasSurplusMaterial"`
	CreatedAt          time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// Progress is the counted/total ratio shown while counting. Surplus items
// grow both sides, so it tracks items touched rather than items expected.
type Progress struct {
	InventoryId  int     `json:"inventoryId"`
	TotalItems   int     `json:"totalItems"`
	CountedItems int     `json:"countedItems"`
	Percent      float64 `json:"percent"`
}

func (inv Inventory) Progress() Progress {
	p := Progress{InventoryId: inv.ID, TotalItems: inv.TotalItems, CountedItems: inv.CountedItems}
	if inv.TotalItems > 0 {
		p.Percent = float64(inv.CountedItems) * 100 / float64(inv.TotalItems)
	}
	return p
}

/* store */

// GetInventory returns ErrInventoryNotFound when no row matches.
func GetInventory(ctx context.Context, db *gorm.DB, id int) (*Inventory, error) {
	var inv Inventory
	res := db.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&inv)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrInventoryNotFound
	}
	return &inv, nil
}

func ListInventories(ctx context.Context, db *gorm.DB) ([]Inventory, error) {
	var inventories []Inventory
	if err := db.WithContext(ctx).Order("import_date DESC, id DESC").Find(&inventories).Error; err != nil {
		return nil, err
	}
	return inventories, nil
}

func CreateInventory(ctx context.Context, db *gorm.DB, inv *Inventory) error {
	return db.WithContext(ctx).Create(inv).Error
}

// DeleteInventory removes the inventory and its items in one transaction.
func DeleteInventory(ctx context.Context, db *gorm.DB, id int) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("inventory_id = ?", id).Delete(&InventoryItem{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&Inventory{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInventoryNotFound
		}
		return nil
	})
}

func IncrementCountedItems(ctx context.Context, db *gorm.DB, id int) error {
	return db.WithContext(ctx).Model(&Inventory{}).
		Where("id = ?", id).
		UpdateColumn("counted_items", gorm.Expr("counted_items + ?", 1)).Error
}

// AdvanceInventoryStatus moves the status forward to to; it never regresses.
func AdvanceInventoryStatus(ctx context.Context, db *gorm.DB, id int, to InventoryStatus) error {
	return db.WithContext(ctx).Model(&Inventory{}).
		Where("id = ? AND status < ?", id, to).
		UpdateColumn("status", to).Error
}

// RecordSurplusItem bumps both counters, flags surplus material and moves
// an Open inventory to InProgress.
func RecordSurplusItem(ctx context.Context, db *gorm.DB, id int) error {
	return db.WithContext(ctx).Model(&Inventory{}).
		Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"total_items":          gorm.Expr("total_items + ?", 1),
			"counted_items":        gorm.Expr("counted_items + ?", 1),
			"has_surplus_material": true,
			"status":               gorm.Expr("CASE WHEN status < ? THEN ? ELSE status END", InventoryStatusInProgress, InventoryStatusInProgress),
		}).Error
}
