package models_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/PedrooFerraz/Inventory-app-sub000/config"
	"github.com/PedrooFerraz/Inventory-app-sub000/models"
	"gorm.io/gorm"
)

// newTestDB opens a private in-memory database with the schema migrated.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := config.OpenDatabase(config.DatabaseConfig{Driver: config.DriverSQLite, Path: ":memory:"})
	if err != nil {
		t.Fatalf("OpenDatabase: %v", err)
	}
	t.Cleanup(func() { _ = config.CloseDatabase(db) })
	if err := models.MigrateTable(db); err != nil {
		t.Fatalf("MigrateTable: %v", err)
	}
	return db
}

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []config.InventoryEvent
}

func (p *recordingPublisher) Publish(_ context.Context, event config.InventoryEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

func writeFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

type seedItem struct {
	Code     string
	Batch    string
	Location string
	Quantity int
}

// seedInventory creates an Open inventory with one pending row per item.
func seedInventory(t *testing.T, db *gorm.DB, countType models.CountType, items ...seedItem) *models.Inventory {
	t.Helper()
	ctx := context.Background()
	inv := models.Inventory{
		FileName:          "seed.csv",
		InventoryDocument: "900",
		InventoryYear:     "2024",
		CountType:         countType,
		TotalItems:        len(items),
	}
	if err := models.CreateInventory(ctx, db, &inv); err != nil {
		t.Fatalf("CreateInventory: %v", err)
	}
	rows := make([]models.InventoryItem, 0, len(items))
	for i, it := range items {
		rows = append(rows, models.InventoryItem{
			InventoryId:       inv.ID,
			InventoryDocument: inv.InventoryDocument,
			Year:              inv.InventoryYear,
			Center:            "C01",
			Storage:           "D01",
			Batch:             it.Batch,
			Sequence:          i + 1,
			Code:              it.Code,
			ExpectedLocation:  it.Location,
			ExpectedQuantity:  it.Quantity,
		})
	}
	if err := models.InsertItems(ctx, db, rows, models.ImportBatchSize); err != nil {
		t.Fatalf("InsertItems: %v", err)
	}
	return &inv
}

func mustItems(t *testing.T, db *gorm.DB, inventoryId int, code string) []models.InventoryItem {
	t.Helper()
	items, err := models.GetItemsByCode(context.Background(), db, inventoryId, code)
	if err != nil {
		t.Fatalf("GetItemsByCode(%s): %v", code, err)
	}
	return items
}

func mustInventory(t *testing.T, db *gorm.DB, id int) *models.Inventory {
	t.Helper()
	inv, err := models.GetInventory(context.Background(), db, id)
	if err != nil {
		t.Fatalf("GetInventory(%d): %v", id, err)
	}
	return inv
}
