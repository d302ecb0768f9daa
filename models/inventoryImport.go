package models

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PedrooFerraz/Inventory-app-sub000/config"
	"github.com/PedrooFerraz/Inventory-app-sub000/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

const (
	MaxImportFileSize = 6 << 20
	ImportBatchSize   = 50
	importLockTTL     = 2 * time.Minute

	genericImportFailure = "Failed to import inventory. Check the CSV format and make sure the file is UTF-8 encoded."
)

// CSV header names of the stock extraction.
const (
	colInventory   = "INVENTÁRIO"
	colYear        = "ANO"
	colCenter      = "CENTRO"
	colStorage     = "DEPÓSITO"
	colBatch       = "LOTE"
	colItem        = "ITEM"
	colMaterial    = "MATERIAL"
	colDescription = "DESCRIÇÃO"
	colStock       = "ESTOQUE"
	colUnit        = "UN"
	colAvgPrice    = "PREÇO MÉDIO"
	colCurrency    = "MOEDA"
	colPosition    = "POSIÇÃO NO DEPÓSITO"
)

var ErrImportInProgress = errors.New("an import of this file is already running")

type ImportErrorKind string

const (
	ImportFileAccess   ImportErrorKind = "file_access"
	ImportFileTooLarge ImportErrorKind = "file_too_large"
	ImportFileRead     ImportErrorKind = "file_read"
	ImportEncoding     ImportErrorKind = "encoding"
	ImportParse        ImportErrorKind = "parse"
	ImportNoValidItems ImportErrorKind = "no_valid_items"
)

// ImportError is a validation failure of the import file.
type ImportError struct {
	Kind ImportErrorKind
	Msg  string
	Err  error
}

func (e *ImportError) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *ImportError) Unwrap() error {
	return e.Err
}

// DuplicateInventoryError is the one import failure whose message reaches
// the caller unchanged.
type DuplicateInventoryError struct {
	Document string
	Year     string
}

func (e *DuplicateInventoryError) Error() string {
	return fmt.Sprintf("Inventory %s of year %s has already been imported.", e.Document, e.Year)
}

// ImportFailedError hides the cause behind a generic message. The cause
// stays reachable through errors.Is/As.
type ImportFailedError struct {
	Err error
}

func (e *ImportFailedError) Error() string {
	return genericImportFailure
}

func (e *ImportFailedError) Unwrap() error {
	return e.Err
}

// ImportedInventoryItem is a CSV data row mapped onto named fields.
type ImportedInventoryItem struct {
	Line              int
	InventoryDocument string
	Year              string
	Center            string
	Storage           string
	Batch             string
	Item              string
	Code              string
	Description       string
	ExpectedQuantity  int
	Unit              string
	AveragePrice      decimal.Decimal
	Currency          string
	ExpectedLocation  string
}

type ImportedInventory struct {
	InventoryId int    `json:"inventoryId"`
	Document    string `json:"document"`
	Year        string `json:"year"`
	ItemCount   int    `json:"itemCount"`
}

type ImportResult struct {
	Success     bool                `json:"success"`
	Inventories []ImportedInventory `json:"inventories"`
	Message     string              `json:"message"`
}

type InventoryImporter struct {
	db     *gorm.DB
	files  utils.FileSource
	locker utils.Locker
	events config.EventPublisher
	logger *logrus.Logger
	now    func() time.Time
}

// NewInventoryImporter wires the pipeline. A nil locker, events or logger
// falls back to an in-process lock, no events and the shared logger.
func NewInventoryImporter(db *gorm.DB, files utils.FileSource, locker utils.Locker, events config.EventPublisher, logger *logrus.Logger) *InventoryImporter {
	if locker == nil {
		locker = utils.NewLocalLocker()
	}
	if events == nil {
		events = config.NoopPublisher{}
	}
	if logger == nil {
		logger = config.GetLogger()
	}
	return &InventoryImporter{db: db, files: files, locker: locker, events: events, logger: logger, now: time.Now}
}

// InsertInventory creates one inventory per distinct document found in the
// file, all in one transaction: either every inventory is created or none.
func (imp *InventoryImporter) InsertInventory(ctx context.Context, fileUri string, fileName string, countType CountType) (*ImportResult, error) {
	ctx, span := tracer.Start(ctx, "InventoryImporter.InsertInventory")
	defer span.End()
	span.SetAttributes(attribute.String("file.name", fileName))

	if !countType.IsValid() {
		return nil, fmt.Errorf("invalid count type %d", countType)
	}

	release, err := imp.locker.Obtain(ctx, "inventory-import:"+fileName, importLockTTL)
	if errors.Is(err, utils.ErrLockNotObtained) {
		return nil, ErrImportInProgress
	} else if err != nil {
		return nil, err
	}
	defer release()

	info, err := imp.files.Stat(ctx, fileUri)
	if err != nil {
		return nil, &ImportError{Kind: ImportFileAccess, Msg: "cannot access import file", Err: err}
	}
	if info.Size > MaxImportFileSize {
		return nil, &ImportError{Kind: ImportFileTooLarge, Msg: fmt.Sprintf("import file is %d bytes, the limit is 6 MiB", info.Size)}
	}
	content, err := imp.files.ReadAll(ctx, fileUri)
	if err != nil {
		return nil, &ImportError{Kind: ImportFileRead, Msg: "cannot read import file", Err: err}
	}

	tx := imp.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	created, err := imp.importContent(ctx, tx, content, fileUri, fileName, countType)
	if err != nil {
		tx.Rollback()
		span.RecordError(err)
		config.LogError(imp.logger, "inventoryImport.go", "InsertInventory", "import rolled back", fileName, err)
		var dup *DuplicateInventoryError
		if errors.As(err, &dup) {
			return nil, dup
		}
		return nil, &ImportFailedError{Err: err}
	}
	if err := tx.Commit().Error; err != nil {
		config.LogError(imp.logger, "inventoryImport.go", "InsertInventory", "commit", fileName, err)
		return nil, &ImportFailedError{Err: err}
	}

	for _, inv := range created {
		imp.publish(ctx, config.InventoryEvent{
			Type:              config.EventInventoryImported,
			InventoryId:       inv.InventoryId,
			InventoryDocument: inv.Document,
			InventoryYear:     inv.Year,
			ItemCount:         inv.ItemCount,
		})
	}

	msg := "Inventory imported successfully"
	if len(created) > 1 {
		msg = fmt.Sprintf("%d inventories imported successfully", len(created))
	}
	return &ImportResult{Success: true, Inventories: created, Message: msg}, nil
}

func (imp *InventoryImporter) importContent(ctx context.Context, tx *gorm.DB, content []byte, fileUri string, fileName string, countType CountType) ([]ImportedInventory, error) {
	content = bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(content) || bytes.ContainsRune(content, utf8.RuneError) {
		return nil, &ImportError{Kind: ImportEncoding, Msg: "file is not valid UTF-8"}
	}

	rows, err := ParseInventoryCSV(content)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &ImportError{Kind: ImportNoValidItems, Msg: "no valid items found in file"}
	}

	var created []ImportedInventory
	for _, group := range groupByDocument(rows) {
		document, year := group[0].InventoryDocument, group[0].Year

		exists, err := DocumentYearExists(ctx, tx, document, year)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, &DuplicateInventoryError{Document: document, Year: year}
		}

		inv := Inventory{
			FileName:          fileName,
			FileUri:           fileUri,
			ImportDate:        imp.now(),
			InventoryYear:     year,
			InventoryDocument: document,
			CountType:         countType,
			Status:            InventoryStatusOpen,
			TotalItems:        len(group),
		}
		if err := CreateInventory(ctx, tx, &inv); err != nil {
			return nil, err
		}
		if err := InsertItems(ctx, tx, toInventoryItems(inv.ID, group), ImportBatchSize); err != nil {
			return nil, err
		}

		imp.logger.WithFields(logrus.Fields{
			"inventoryId": inv.ID,
			"document":    document,
			"year":        year,
			"items":       len(group),
		}).Info("inventory imported")
		created = append(created, ImportedInventory{InventoryId: inv.ID, Document: document, Year: year, ItemCount: len(group)})
	}
	return created, nil
}

func (imp *InventoryImporter) publish(ctx context.Context, event config.InventoryEvent) {
	event.OccurredAt = imp.now()
	event.CorrelationId, _ = utils.GetCorrelationIdFromContext(ctx)
	if err := imp.events.Publish(ctx, event); err != nil {
		config.LogError(imp.logger, "inventoryImport.go", "publish", event.Type, event, err)
	}
}

// ParseInventoryCSV reads the stock extraction and returns its data rows.
// A row is data when MATERIAL is filled and is not a repeated header.
func ParseInventoryCSV(content []byte) ([]ImportedInventoryItem, error) {
	r := csv.NewReader(bytes.NewReader(content))
	r.Comma = detectDelimiter(content)
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, &ImportError{Kind: ImportParse, Msg: "invalid CSV", Err: err}
	}
	if len(records) == 0 {
		return nil, nil
	}

	header := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		header[strings.ToUpper(strings.TrimSpace(name))] = i
	}
	field := func(record []string, col string) string {
		i, ok := header[col]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var items []ImportedInventoryItem
	for n, record := range records[1:] {
		line := n + 2
		material := field(record, colMaterial)
		if material == "" || strings.ToUpper(material) == colMaterial {
			continue
		}

		qty := 0
		if raw := field(record, colStock); raw != "" {
			qty, err = utils.NormalizeQuantity(raw)
			if err != nil {
				return nil, &ImportError{Kind: ImportParse, Msg: fmt.Sprintf("invalid %s on line %d", colStock, line), Err: err}
			}
		}
		price := decimal.Zero
		if raw := field(record, colAvgPrice); raw != "" {
			price, err = utils.ParseDecimalBR(raw)
			if err != nil {
				return nil, &ImportError{Kind: ImportParse, Msg: fmt.Sprintf("invalid %s on line %d", colAvgPrice, line), Err: err}
			}
		}

		items = append(items, ImportedInventoryItem{
			Line:              line,
			InventoryDocument: field(record, colInventory),
			Year:              field(record, colYear),
			Center:            field(record, colCenter),
			Storage:           field(record, colStorage),
			Batch:             field(record, colBatch),
			Item:              field(record, colItem),
			Code:              utils.NormalizeLocation(material),
			Description:       field(record, colDescription),
			ExpectedQuantity:  qty,
			Unit:              field(record, colUnit),
			AveragePrice:      price,
			Currency:          field(record, colCurrency),
			ExpectedLocation:  utils.NormalizeLocation(field(record, colPosition)),
		})
	}
	return items, nil
}

// detectDelimiter picks the most frequent of ';', ',' and tab in the header line.
func detectDelimiter(content []byte) rune {
	headerLine := content
	if i := bytes.IndexByte(content, '\n'); i >= 0 {
		headerLine = content[:i]
	}
	best, bestCount := ',', 0
	for _, d := range []rune{';', ',', '\t'} {
		if c := bytes.Count(headerLine, []byte(string(d))); c > bestCount {
			best, bestCount = d, c
		}
	}
	return best
}

// groupByDocument buckets rows by inventory document in first-seen order.
func groupByDocument(rows []ImportedInventoryItem) [][]ImportedInventoryItem {
	index := make(map[string]int)
	var groups [][]ImportedInventoryItem
	for _, row := range rows {
		i, ok := index[row.InventoryDocument]
		if !ok {
			i = len(groups)
			index[row.InventoryDocument] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], row)
	}
	return groups
}

func toInventoryItems(inventoryId int, rows []ImportedInventoryItem) []InventoryItem {
	items := make([]InventoryItem, 0, len(rows))
	for i, row := range rows {
		seq, err := utils.NormalizeQuantity(row.Item)
		if err != nil || seq <= 0 {
			seq = i + 1
		}
		items = append(items, InventoryItem{
			InventoryId:       inventoryId,
			InventoryDocument: row.InventoryDocument,
			Year:              row.Year,
			Center:            row.Center,
			Storage:           row.Storage,
			Batch:             row.Batch,
			Sequence:          seq,
			Code:              row.Code,
			Description:       row.Description,
			Unit:              row.Unit,
			AveragePrice:      row.AveragePrice,
			Currency:          row.Currency,
			ExpectedLocation:  row.ExpectedLocation,
			ExpectedQuantity:  row.ExpectedQuantity,
			Status:            ItemStatusPending,
		})
	}
	return items
}
