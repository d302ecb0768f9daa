package reports

import (
	"context"
	"fmt"
	"strings"

	"github.com/PedrooFerraz/Inventory-app-sub000/models"
	"gorm.io/gorm"
)

type ExportScope string

const (
	// ScopeCounted is every imported row; surplus rows are left out.
	ScopeCounted ExportScope = "counted"
	// ScopeSurplus is only the rows added during counting.
	ScopeSurplus ExportScope = "surplus"
	// ScopeAll writes both scopes as separate sheets.
	ScopeAll ExportScope = "all"
)

func ParseExportScope(s string) (ExportScope, error) {
	switch scope := ExportScope(strings.ToLower(strings.TrimSpace(s))); scope {
	case ScopeCounted, ScopeSurplus, ScopeAll:
		return scope, nil
	case "":
		return ScopeAll, nil
	}
	return "", fmt.Errorf("invalid export scope %q", s)
}

const countTimeLayout = "02/01/2006 15:04"

var ExportHeaders = []string{
	"INVENTÁRIO",
	"ANO",
	"CENTRO",
	"DEPÓSITO",
	"LOTE",
	"ITEM",
	"MATERIAL",
	"ESTOQUE SAP",
	"POSIÇÃO SAP",
	"ESTOQUE FÍSICO",
	"POSIÇÃO FÍSICA",
	"DATA DA CONTAGEM",
	"MATRICULA/NOME RESP. CONTAGEM",
	"OBSERVAÇÕES",
}

type ExportRow struct {
	InventoryDocument string `json:"inventoryDocument"`
	Year              string `json:"year"`
	Center            string `json:"center"`
	Storage           string `json:"storage"`
	Batch             string `json:"batch"`
	Item              int    `json:"item"`
	Code              string `json:"code"`
	ExpectedQuantity  int    `json:"expectedQuantity"`
	ExpectedLocation  string `json:"expectedLocation"`
	CountedQuantity   int    `json:"countedQuantity"`
	CountedLocation   string `json:"countedLocation"`
	CountTime         string `json:"countTime"`
	Operator          string `json:"operator"`
	Observation       string `json:"observation"`
}

func (r ExportRow) GetCellValues() []interface{} {
	return []interface{}{
		r.InventoryDocument,
		r.Year,
		r.Center,
		r.Storage,
		r.Batch,
		r.Item,
		r.Code,
		r.ExpectedQuantity,
		r.ExpectedLocation,
		r.CountedQuantity,
		r.CountedLocation,
		r.CountTime,
		r.Operator,
		r.Observation,
	}
}

// BuildExportRows flattens items for the stock system. Rows never counted
// are exported with zero physical stock.
func BuildExportRows(items []models.InventoryItem, operators []models.Operator, scope ExportScope) []ExportRow {
	names := make(map[string]string, len(operators))
	for _, op := range operators {
		names[op.Code] = op.Name
	}

	rows := make([]ExportRow, 0, len(items))
	for _, item := range items {
		surplus := item.Status == models.ItemStatusSurplus
		if (scope == ScopeCounted && surplus) || (scope == ScopeSurplus && !surplus) {
			continue
		}

		row := ExportRow{
			InventoryDocument: item.InventoryDocument,
			Year:              item.Year,
			Center:            item.Center,
			Storage:           item.Storage,
			Batch:             item.Batch,
			Item:              item.Sequence,
			Code:              item.Code,
			ExpectedQuantity:  item.ExpectedQuantity,
			ExpectedLocation:  item.ExpectedLocation,
			Operator:          operatorLabel(item.Operator, names),
			Observation:       item.Observation,
		}
		if item.IsCounted() {
			row.CountedQuantity = *item.ReportedQuantity
			row.CountedLocation = item.EffectiveLocation()
		}
		if item.CountTime != nil {
			row.CountTime = item.CountTime.Format(countTimeLayout)
		}
		rows = append(rows, row)
	}
	return rows
}

func operatorLabel(code string, names map[string]string) string {
	if code == "" {
		return ""
	}
	if name, ok := names[code]; ok {
		return code + " - " + name
	}
	return code
}

// ExportInventory loads the inventory and returns the sheets of scope.
func ExportInventory(ctx context.Context, db *gorm.DB, inventoryId int, scope ExportScope) (*models.Inventory, []Sheet, error) {
	inv, err := models.GetInventory(ctx, db, inventoryId)
	if err != nil {
		return nil, nil, err
	}
	items, err := models.ListItems(ctx, db, inventoryId, models.ItemFilter{})
	if err != nil {
		return nil, nil, err
	}
	operators, err := models.ListOperators(ctx, db)
	if err != nil {
		return nil, nil, err
	}

	var sheets []Sheet
	if scope == ScopeCounted || scope == ScopeAll {
		sheets = append(sheets, newSheet("Contagem", BuildExportRows(items, operators, ScopeCounted)))
	}
	if scope == ScopeSurplus || scope == ScopeAll {
		sheets = append(sheets, newSheet("Sobras", BuildExportRows(items, operators, ScopeSurplus)))
	}
	return inv, sheets, nil
}

// ExportFileName is the attachment name of an inventory workbook.
func ExportFileName(inv *models.Inventory, scope ExportScope) string {
	return fmt.Sprintf("inventario_%s_%s_%s.xlsx", inv.InventoryDocument, inv.InventoryYear, scope)
}

func newSheet(name string, rows []ExportRow) Sheet {
	exporters := make([]ExcelExporter, len(rows))
	for i := range rows {
		exporters[i] = rows[i]
	}
	return Sheet{Name: name, Headings: ExportHeaders, Rows: exporters}
}
