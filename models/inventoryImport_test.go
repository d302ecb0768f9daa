package models_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/PedrooFerraz/Inventory-app-sub000/models"
	"github.com/PedrooFerraz/Inventory-app-sub000/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const csvHeader = "INVENTÁRIO;ANO;CENTRO;DEPÓSITO;LOTE;ITEM;MATERIAL;DESCRIÇÃO;ESTOQUE;UN;PREÇO MÉDIO;MOEDA;POSIÇÃO NO DEPÓSITO\n"

func csvOf(rows ...string) []byte {
	return []byte(csvHeader + strings.Join(rows, "\n") + "\n")
}

func newImporter(db *gorm.DB, locker utils.Locker, events *recordingPublisher) *models.InventoryImporter {
	if events == nil {
		events = &recordingPublisher{}
	}
	return models.NewInventoryImporter(db, &utils.FileSources{}, locker, events, nil)
}

func countRows(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	if err := db.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func TestInsertInventory_MultipleDocuments(t *testing.T) {
	db := newTestDB(t)
	events := &recordingPublisher{}
	path := writeFile(t, "stock.csv", csvOf(
		"100;2024;C01;D01;;1;mat-1;Parafuso;1.234,5;UN;10,50;BRL; a-01 ",
		"100;2024;C01;D01;L1;2;MAT-2;Porca;10;UN;1,00;;A-02",
		"200;2024;C01;D02;;1;MAT-3;Arruela;;PC;;;B-01",
	))

	res, err := newImporter(db, nil, events).InsertInventory(context.Background(), path, "stock.csv", models.CountTypeByPosition)
	if err != nil {
		t.Fatalf("InsertInventory: %v", err)
	}
	if !res.Success || len(res.Inventories) != 2 {
		t.Fatalf("expected 2 inventories, got %+v", res)
	}
	if res.Message != "2 inventories imported successfully" {
		t.Fatalf("unexpected message %q", res.Message)
	}
	if res.Inventories[0].Document != "100" || res.Inventories[0].ItemCount != 2 {
		t.Fatalf("first bucket should be document 100 with 2 items, got %+v", res.Inventories[0])
	}

	inv := mustInventory(t, db, res.Inventories[0].InventoryId)
	if inv.TotalItems != 2 || inv.CountedItems != 0 || inv.Status != models.InventoryStatusOpen {
		t.Fatalf("unexpected inventory state %+v", inv)
	}
	if inv.CountType != models.CountTypeByPosition || inv.FileUri != path {
		t.Fatalf("inventory lost import metadata: %+v", inv)
	}

	items := mustItems(t, db, inv.ID, "MAT-1")
	if len(items) != 1 {
		t.Fatalf("expected MAT-1 stored upper-cased, got %d rows", len(items))
	}
	item := items[0]
	if item.ExpectedQuantity != 1234 {
		t.Fatalf("expected quantity 1234, got %d", item.ExpectedQuantity)
	}
	if item.ExpectedLocation != "A-01" {
		t.Fatalf("expected location A-01, got %q", item.ExpectedLocation)
	}
	if !item.AveragePrice.Equal(decimal.RequireFromString("10.5")) {
		t.Fatalf("expected average price 10.5, got %s", item.AveragePrice)
	}
	if item.Status != models.ItemStatusPending || item.IsCounted() {
		t.Fatalf("imported items must be pending, got %+v", item)
	}

	empty := mustItems(t, db, res.Inventories[1].InventoryId, "MAT-3")
	if len(empty) != 1 || empty[0].ExpectedQuantity != 0 {
		t.Fatalf("empty ESTOQUE should import as 0, got %+v", empty)
	}

	if got := events.types(); len(got) != 2 || got[0] != "inventory.imported" {
		t.Fatalf("expected one imported event per inventory, got %v", got)
	}
}

func TestInsertInventory_SingleDocumentMessage(t *testing.T) {
	db := newTestDB(t)
	path := writeFile(t, "one.csv", csvOf("300;2024;C01;D01;;1;MAT-1;Parafuso;5;UN;;;A-01"))

	res, err := newImporter(db, nil, nil).InsertInventory(context.Background(), path, "one.csv", models.CountTypeByCode)
	if err != nil {
		t.Fatalf("InsertInventory: %v", err)
	}
	if res.Message != "Inventory imported successfully" {
		t.Fatalf("unexpected message %q", res.Message)
	}
}

func TestInsertInventory_DuplicateRollsBackEveryGroup(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	imp := newImporter(db, nil, nil)

	first := writeFile(t, "first.csv", csvOf("200;2024;C01;D01;;1;MAT-1;Parafuso;5;UN;;;A-01"))
	if _, err := imp.InsertInventory(ctx, first, "first.csv", models.CountTypeByCode); err != nil {
		t.Fatalf("first import: %v", err)
	}

	second := writeFile(t, "second.csv", csvOf(
		"100;2024;C01;D01;;1;MAT-9;Novo;1;UN;;;Z-01",
		"200;2024;C01;D01;;1;MAT-1;Parafuso;5;UN;;;A-01",
	))
	_, err := imp.InsertInventory(ctx, second, "second.csv", models.CountTypeByCode)
	var dup *models.DuplicateInventoryError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateInventoryError, got %v", err)
	}
	if dup.Document != "200" || dup.Year != "2024" {
		t.Fatalf("unexpected duplicate %+v", dup)
	}
	if !strings.Contains(err.Error(), "200") {
		t.Fatalf("duplicate message should name the document, got %q", err.Error())
	}

	if n := countRows(t, db, &models.Inventory{}); n != 1 {
		t.Fatalf("expected only the first inventory to persist, got %d", n)
	}
	if n := countRows(t, db, &models.InventoryItem{}); n != 1 {
		t.Fatalf("expected only the first import's items to persist, got %d", n)
	}
	if exists, _ := models.DocumentYearExists(ctx, db, "100", "2024"); exists {
		t.Fatalf("document 100 must have been rolled back")
	}
}

func TestInsertInventory_ValidationFailures(t *testing.T) {
	cases := []struct {
		name    string
		content []byte
		kind    models.ImportErrorKind
		generic bool
	}{
		{"invalid utf8", append(csvOf("100;2024;C01;D01;;1;MAT-1;"), 0xff, 0xfe), models.ImportEncoding, true},
		{"header only", []byte(csvHeader), models.ImportNoValidItems, true},
		{"only repeated headers", []byte(csvHeader + csvHeader), models.ImportNoValidItems, true},
		{"malformed quantity", csvOf("100;2024;C01;D01;;1;MAT-1;Parafuso;abc;UN;;;A-01"), models.ImportParse, true},
		{"exponent quantity", csvOf("100;2024;C01;D01;;1;MAT-1;Parafuso;1e30;UN;;;A-01"), models.ImportParse, true},
		{"quantity out of range", csvOf("100;2024;C01;D01;;1;MAT-1;Parafuso;99.999.999.999.999.999.999;UN;;;A-01"), models.ImportParse, true},
		{"malformed price", csvOf("100;2024;C01;D01;;1;MAT-1;Parafuso;1;UN;x;;A-01"), models.ImportParse, true},
		{"too large", bytes.Repeat([]byte("a"), models.MaxImportFileSize+1), models.ImportFileTooLarge, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db := newTestDB(t)
			path := writeFile(t, "bad.csv", tc.content)

			_, err := newImporter(db, nil, nil).InsertInventory(context.Background(), path, "bad.csv", models.CountTypeByCode)
			var ie *models.ImportError
			if !errors.As(err, &ie) {
				t.Fatalf("expected ImportError, got %v", err)
			}
			if ie.Kind != tc.kind {
				t.Fatalf("expected kind %s, got %s", tc.kind, ie.Kind)
			}
			var failed *models.ImportFailedError
			if errors.As(err, &failed) != tc.generic {
				t.Fatalf("generic wrapping = %v, want %v (%v)", !tc.generic, tc.generic, err)
			}
			if n := countRows(t, db, &models.Inventory{}); n != 0 {
				t.Fatalf("no inventory may persist, got %d", n)
			}
		})
	}
}

func TestInsertInventory_MissingFile(t *testing.T) {
	db := newTestDB(t)
	_, err := newImporter(db, nil, nil).InsertInventory(context.Background(), "/does/not/exist.csv", "exist.csv", models.CountTypeByCode)
	var ie *models.ImportError
	if !errors.As(err, &ie) || ie.Kind != models.ImportFileAccess {
		t.Fatalf("expected file access error, got %v", err)
	}
}

func TestInsertInventory_RejectsConcurrentImportOfSameFile(t *testing.T) {
	db := newTestDB(t)
	locker := utils.NewLocalLocker()
	release, err := locker.Obtain(context.Background(), "inventory-import:busy.csv", time.Minute)
	if err != nil {
		t.Fatalf("Obtain: %v", err)
	}
	defer release()

	path := writeFile(t, "busy.csv", csvOf("100;2024;C01;D01;;1;MAT-1;Parafuso;5;UN;;;A-01"))
	_, err = newImporter(db, locker, nil).InsertInventory(context.Background(), path, "busy.csv", models.CountTypeByCode)
	if !errors.Is(err, models.ErrImportInProgress) {
		t.Fatalf("expected ErrImportInProgress, got %v", err)
	}
}

func TestInsertInventory_RejectsUnknownCountType(t *testing.T) {
	db := newTestDB(t)
	if _, err := newImporter(db, nil, nil).InsertInventory(context.Background(), "x.csv", "x.csv", models.CountType(7)); err == nil {
		t.Fatalf("expected error for count type 7")
	}
}

func TestInsertInventory_BatchesLargeFiles(t *testing.T) {
	db := newTestDB(t)
	rows := make([]string, 0, 120)
	for i := 0; i < 120; i++ {
		rows = append(rows, "100;2024;C01;D01;;;MAT-"+strings.Repeat("X", i%3+1)+";Item;1;UN;;;A-01")
	}
	path := writeFile(t, "big.csv", csvOf(rows...))

	res, err := newImporter(db, nil, nil).InsertInventory(context.Background(), path, "big.csv", models.CountTypeByCode)
	if err != nil {
		t.Fatalf("InsertInventory: %v", err)
	}
	if res.Inventories[0].ItemCount != 120 {
		t.Fatalf("expected 120 items, got %d", res.Inventories[0].ItemCount)
	}
	if n := countRows(t, db, &models.InventoryItem{}); n != 120 {
		t.Fatalf("expected 120 stored rows, got %d", n)
	}
}

func TestParseInventoryCSV(t *testing.T) {
	content := []byte("INVENTÁRIO,ANO,CENTRO,DEPÓSITO,LOTE,ITEM,MATERIAL,DESCRIÇÃO,ESTOQUE,UN,PREÇO MÉDIO,POSIÇÃO NO DEPÓSITO\n" +
		"100,2024,C01,D01,,10,mat-1,Parafuso,\"1.234,5\",UN,\"2,5\",a-01\n" +
		",,,,,,,,,,,\n" +
		"INVENTÁRIO,ANO,CENTRO,DEPÓSITO,LOTE,ITEM,MATERIAL,DESCRIÇÃO,ESTOQUE,UN,PREÇO MÉDIO,POSIÇÃO NO DEPÓSITO\n" +
		"100,2024,C01,D01,L9,20,MAT-2,Porca,3,UN,,B-02\n")

	rows, err := models.ParseInventoryCSV(content)
	if err != nil {
		t.Fatalf("ParseInventoryCSV: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 data rows, got %d", len(rows))
	}
	if rows[0].Code != "MAT-1" || rows[0].ExpectedQuantity != 1234 || rows[0].ExpectedLocation != "A-01" {
		t.Fatalf("unexpected first row %+v", rows[0])
	}
	if rows[0].Currency != "" {
		t.Fatalf("missing MOEDA column should leave currency empty, got %q", rows[0].Currency)
	}
	if rows[1].Batch != "L9" || rows[1].Line != 5 {
		t.Fatalf("unexpected second row %+v", rows[1])
	}
}

func TestParseInventoryCSV_ReportsLineOfBadQuantity(t *testing.T) {
	_, err := models.ParseInventoryCSV(csvOf(
		"100;2024;C01;D01;;1;MAT-1;Parafuso;1;UN;;;A-01",
		"100;2024;C01;D01;;2;MAT-2;Porca;1,2,3;UN;;;A-02",
	))
	var ie *models.ImportError
	if !errors.As(err, &ie) || ie.Kind != models.ImportParse {
		t.Fatalf("expected parse error, got %v", err)
	}
	if !strings.Contains(ie.Msg, "line 3") {
		t.Fatalf("message should name line 3, got %q", ie.Msg)
	}
	var pe *utils.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected the ParseError to stay reachable, got %v", err)
	}
}
