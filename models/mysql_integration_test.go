package models_test

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/PedrooFerraz/Inventory-app-sub000/config"
	"github.com/PedrooFerraz/Inventory-app-sub000/models"
	"gorm.io/gorm"
)

// newMySQLTestDB connects with the DB_* environment and migrates the schema.
// The inventory created by each test is deleted again on cleanup.
func newMySQLTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires a MySQL database)")
	}
	cfg := config.Load().Database
	cfg.Driver = config.DriverMySQL
	db, err := config.OpenDatabase(cfg)
	if err != nil {
		t.Fatalf("OpenDatabase: %v", err)
	}
	t.Cleanup(func() { _ = config.CloseDatabase(db) })
	if err := models.MigrateTable(db); err != nil {
		t.Fatalf("MigrateTable: %v", err)
	}
	return db
}

func TestMySQLEffectiveLocationQueries(t *testing.T) {
	db := newMySQLTestDB(t)
	ctx := context.Background()

	inv := seedInventory(t, db, models.CountTypeByPosition,
		seedItem{Code: "MAT-1", Location: "A-01", Quantity: 10},
		seedItem{Code: "MAT-1", Location: "A-02", Quantity: 5},
	)
	t.Cleanup(func() { _ = models.DeleteInventory(context.Background(), db, inv.ID) })

	svc := models.NewInventoryService(db, &recordingPublisher{}, nil)
	rows := mustItems(t, db, inv.ID, "MAT-1")
	res, err := svc.UpdateItem(ctx, rows[0].ID, inv.ID,
		models.CountInput{ReportedQuantity: 10, ReportedLocation: "B-09"},
		models.UpdateOptions{IgnoreLocationMismatch: true})
	if err != nil || !res.Success {
		t.Fatalf("UpdateItem: %+v %v", res, err)
	}

	// the counted row now lives at B-09, the pending one still at A-02
	other, found, err := models.FindOtherLocation(ctx, db, inv.ID, "MAT-1", "B-09")
	if err != nil || !found || other != "A-02" {
		t.Fatalf("FindOtherLocation: %q %v %v", other, found, err)
	}
	affected, err := models.AddToCountAtLocation(ctx, db, inv.ID, "MAT-1", "B-09", 2)
	if err != nil || affected != 1 {
		t.Fatalf("AddToCountAtLocation: %d %v", affected, err)
	}
	if got := mustInventory(t, db, inv.ID); got.CountedItems != 1 || got.Status != models.InventoryStatusInProgress {
		t.Fatalf("unexpected inventory state %+v", got)
	}
}
