package models

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PedrooFerraz/Inventory-app-sub000/config"
	"github.com/PedrooFerraz/Inventory-app-sub000/utils"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

var tracer = otel.Tracer("github.com/PedrooFerraz/Inventory-app-sub000/models")

// CountInput is what an operator reports for one item.
type CountInput struct {
	ReportedQuantity int    `json:"reportedQuantity" validate:"gte=0"`
	ReportedLocation string `json:"reportedLocation" validate:"required"`
	Observation      string `json:"observation"`
	Operator         string `json:"operator"`
}

type UpdateOptions struct {
	IgnoreQuantityMismatch bool `json:"ignoreQuantityMismatch"`
	IgnoreLocationMismatch bool `json:"ignoreLocationMismatch"`
}

// NewItemInput describes a surplus item found while counting.
type NewItemInput struct {
	Code             string `json:"code" validate:"required"`
	Description      string `json:"description"`
	Batch            string `json:"batch"`
	Unit             string `json:"unit"`
	ReportedQuantity int    `json:"reportedQuantity" validate:"gte=0"`
	ReportedLocation string `json:"reportedLocation" validate:"required"`
	Observation      string `json:"observation"`
	Operator         string `json:"operator"`
}

type AddOptions struct {
	IgnoreExistsElsewhere  bool `json:"ignoreExistsElsewhere"`
	IgnoreCountedElsewhere bool `json:"ignoreCountedElsewhere"`
}

// BatchSelectionError lists the batches the caller must choose from.
type BatchSelectionError struct {
	Code    string
	Batches []string
}

func (e *BatchSelectionError) Error() string {
	return fmt.Sprintf("material %s has batches %s; choose one", e.Code, strings.Join(e.Batches, ", "))
}

func (e *BatchSelectionError) Unwrap() error {
	return ErrBatchSelectionRequired
}

// InventoryService reconciles operator counts against the imported stock.
// Mutations return a *Result for every expected business branch; the error
// return is reserved for store failures.
type InventoryService struct {
	db     *gorm.DB
	events config.EventPublisher
	logger *logrus.Logger
	now    func() time.Time
}

func NewInventoryService(db *gorm.DB, events config.EventPublisher, logger *logrus.Logger) *InventoryService {
	if events == nil {
		events = config.NoopPublisher{}
	}
	if logger == nil {
		logger = config.GetLogger()
	}
	return &InventoryService{db: db, events: events, logger: logger, now: time.Now}
}

func (s *InventoryService) operatorFor(ctx context.Context, given string) string {
	if strings.TrimSpace(given) != "" {
		return strings.TrimSpace(given)
	}
	code, _ := utils.GetOperatorCodeFromContext(ctx)
	return code
}

// openInventory loads the inventory and maps the two early exits every
// mutation shares. A nil Result means the inventory accepts counts.
func (s *InventoryService) openInventory(ctx context.Context, inventoryId int) (*Inventory, *Result, error) {
	inv, err := GetInventory(ctx, s.db, inventoryId)
	if errors.Is(err, ErrInventoryNotFound) {
		return nil, failed(OutcomeInventoryNotFound), nil
	}
	if err != nil {
		return nil, nil, err
	}
	if inv.Status == InventoryStatusFinalized {
		return nil, failed(OutcomeInventoryAlreadyCompleted), nil
	}
	return inv, nil, nil
}

// UpdateItem records the operator's count of an imported item. Divergences
// are reported without touching the store; the caller repeats the call
// with the matching ignore flag once the operator confirms.
func (s *InventoryService) UpdateItem(ctx context.Context, itemId int, inventoryId int, input CountInput, opts UpdateOptions) (*Result, error) {
	ctx, span := tracer.Start(ctx, "InventoryService.UpdateItem")
	defer span.End()
	span.SetAttributes(attribute.Int("inventory.id", inventoryId), attribute.Int("item.id", itemId))

	item, err := GetItemByID(ctx, s.db, inventoryId, itemId)
	if errors.Is(err, ErrItemNotFound) {
		return failed(OutcomeItemNotFound), nil
	}
	if err != nil {
		return nil, err
	}
	if item.Status != ItemStatusPending {
		return alreadyCounted(item), nil
	}

	if _, res, err := s.openInventory(ctx, inventoryId); res != nil || err != nil {
		return res, err
	}

	location := utils.NormalizeLocation(input.ReportedLocation)
	quantityDiffers := input.ReportedQuantity != item.ExpectedQuantity
	locationDiffers := location != utils.NormalizeLocation(item.ExpectedLocation)

	var divergences []Outcome
	if quantityDiffers && !opts.IgnoreQuantityMismatch {
		divergences = append(divergences, OutcomeQuantityMismatch)
	}
	if locationDiffers && !opts.IgnoreLocationMismatch {
		divergences = append(divergences, OutcomeLocationMismatch)
	}
	if len(divergences) > 0 {
		return diverged(divergences), nil
	}

	fields := countFields{
		ReportedQuantity: input.ReportedQuantity,
		ReportedLocation: location,
		Observation:      strings.TrimSpace(input.Observation),
		Operator:         s.operatorFor(ctx, input.Operator),
		Status:           itemStatusFor(quantityDiffers, locationDiffers),
		CountTime:        s.now(),
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		claimed, err := claimPendingCount(ctx, tx, itemId, fields)
		if err != nil {
			return err
		}
		if claimed == 0 {
			return errCountRaced
		}
		if err := IncrementCountedItems(ctx, tx, inventoryId); err != nil {
			return err
		}
		return AdvanceInventoryStatus(ctx, tx, inventoryId, InventoryStatusInProgress)
	})
	if errors.Is(err, errCountRaced) {
		current, err := GetItemByID(ctx, s.db, inventoryId, itemId)
		if err != nil {
			return nil, err
		}
		return alreadyCounted(current), nil
	}
	if err != nil {
		config.LogError(s.logger, "inventoryService.go", "UpdateItem", "persist count", item.ID, err)
		return nil, err
	}
	return succeeded(), nil
}

// errCountRaced rolls back a count whose row stopped being pending between
// the read and the write.
var errCountRaced = errors.New("item counted concurrently")

func alreadyCounted(item *InventoryItem) *Result {
	return failedWith(OutcomeAlreadyCounted, LastCount{
		LastCount: item.ReportedQuantity,
		LastLoc:   item.EffectiveLocation(),
	})
}

// AddNewItem records a material that was not part of the import.
func (s *InventoryService) AddNewItem(ctx context.Context, inventoryId int, input NewItemInput, opts AddOptions) (*Result, error) {
	ctx, span := tracer.Start(ctx, "InventoryService.AddNewItem")
	defer span.End()
	span.SetAttributes(attribute.Int("inventory.id", inventoryId))

	inv, res, err := s.openInventory(ctx, inventoryId)
	if res != nil || err != nil {
		return res, err
	}

	code := utils.NormalizeLocation(input.Code)
	location := utils.NormalizeLocation(input.ReportedLocation)

	if inv.CountType == CountTypeByPosition && !opts.IgnoreExistsElsewhere {
		other, found, err := FindOtherLocation(ctx, s.db, inventoryId, code, location)
		if err != nil {
			return nil, err
		}
		if found {
			return failedWith(OutcomeExistsInOtherLocation, OtherLocation{Local: other}), nil
		}
	}
	if !opts.IgnoreCountedElsewhere {
		prev, err := FindCountedElsewhere(ctx, s.db, inventoryId, code, location)
		if err != nil {
			return nil, err
		}
		if prev != nil {
			return failedWith(OutcomeAlreadyCountedInOther, *prev), nil
		}
	}

	now := s.now()
	qty := input.ReportedQuantity
	item := InventoryItem{
		InventoryId:       inventoryId,
		InventoryDocument: inv.InventoryDocument,
		Year:              inv.InventoryYear,
		Batch:             strings.TrimSpace(input.Batch),
		Code:              code,
		Description:       strings.TrimSpace(input.Description),
		Unit:              strings.TrimSpace(input.Unit),
		ReportedLocation:  &location,
		ReportedQuantity:  &qty,
		Status:            ItemStatusSurplus,
		Observation:       strings.TrimSpace(input.Observation),
		Operator:          s.operatorFor(ctx, input.Operator),
		CountTime:         &now,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if sibling, err := firstItem(ctx, tx, inventoryId); err != nil {
			return err
		} else if sibling != nil {
			item.Center = sibling.Center
			item.Storage = sibling.Storage
		}
		seq, err := NextItemSequence(ctx, tx, inventoryId)
		if err != nil {
			return err
		}
		item.Sequence = seq
		if err := InsertItem(ctx, tx, &item); err != nil {
			return err
		}
		return RecordSurplusItem(ctx, tx, inventoryId)
	})
	if err != nil {
		config.LogError(s.logger, "inventoryService.go", "AddNewItem", "insert surplus item", input, err)
		return nil, err
	}
	return &Result{Success: true, Data: item}, nil
}

// ReplaceItem overwrites a previous count of the item unconditionally.
func (s *InventoryService) ReplaceItem(ctx context.Context, inventoryId int, itemId int, input CountInput) (*Result, error) {
	ctx, span := tracer.Start(ctx, "InventoryService.ReplaceItem")
	defer span.End()

	if _, err := GetInventory(ctx, s.db, inventoryId); errors.Is(err, ErrInventoryNotFound) {
		return failed(OutcomeInventoryNotFound), nil
	} else if err != nil {
		return nil, err
	}
	item, err := GetItemByID(ctx, s.db, inventoryId, itemId)
	if errors.Is(err, ErrItemNotFound) {
		return failed(OutcomeItemNotFound), nil
	}
	if err != nil {
		return nil, err
	}

	location := utils.NormalizeLocation(input.ReportedLocation)
	status := ItemStatusSurplus
	if item.Status != ItemStatusSurplus {
		status = itemStatusFor(
			input.ReportedQuantity != item.ExpectedQuantity,
			location != utils.NormalizeLocation(item.ExpectedLocation),
		)
	}
	fields := countFields{
		ReportedQuantity: input.ReportedQuantity,
		ReportedLocation: location,
		Observation:      strings.TrimSpace(input.Observation),
		Operator:         s.operatorFor(ctx, input.Operator),
		Status:           status,
		CountTime:        s.now(),
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if !item.IsCounted() {
			claimed, err := claimPendingCount(ctx, tx, itemId, fields)
			if err != nil {
				return err
			}
			if claimed == 0 {
				// counted meanwhile: overwrite, the counter already moved
				_, err := applyCount(ctx, tx, itemId, fields)
				return err
			}
		} else {
			_, err := applyCount(ctx, tx, itemId, fields)
			return err
		}
		// first count of this row: keep the progress counters in step
		if err := IncrementCountedItems(ctx, tx, inventoryId); err != nil {
			return err
		}
		return AdvanceInventoryStatus(ctx, tx, inventoryId, InventoryStatusInProgress)
	})
	if err != nil {
		return nil, err
	}
	return succeeded(), nil
}

// SumToPreviousCount adds additional to the count already recorded for code
// at previous.Local. The row is matched by effective location, not by id.
func (s *InventoryService) SumToPreviousCount(ctx context.Context, inventoryId int, code string, previous PreviousLocation, additional int) (*Result, error) {
	ctx, span := tracer.Start(ctx, "InventoryService.SumToPreviousCount")
	defer span.End()

	affected, err := AddToCountAtLocation(ctx, s.db, inventoryId, code, previous.Local, additional)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return failed(OutcomeItemNotFound), nil
	}
	return succeeded(), nil
}

// FinalizeInventory closes the inventory. Items never counted stay as they
// are; the export treats them as zero stock.
func (s *InventoryService) FinalizeInventory(ctx context.Context, inventoryId int) (*Result, error) {
	ctx, span := tracer.Start(ctx, "InventoryService.FinalizeInventory")
	defer span.End()

	inv, res, err := s.openInventory(ctx, inventoryId)
	if res != nil || err != nil {
		return res, err
	}
	if err := AdvanceInventoryStatus(ctx, s.db, inventoryId, InventoryStatusFinalized); err != nil {
		return nil, err
	}
	s.publish(ctx, config.InventoryEvent{
		Type:              config.EventInventoryFinalized,
		InventoryId:       inv.ID,
		InventoryDocument: inv.InventoryDocument,
		InventoryYear:     inv.InventoryYear,
	})
	return succeeded(), nil
}

func (s *InventoryService) DeleteInventory(ctx context.Context, inventoryId int) (*Result, error) {
	inv, err := GetInventory(ctx, s.db, inventoryId)
	if errors.Is(err, ErrInventoryNotFound) {
		return failed(OutcomeInventoryNotFound), nil
	}
	if err != nil {
		return nil, err
	}
	if err := DeleteInventory(ctx, s.db, inventoryId); err != nil {
		return nil, err
	}
	s.publish(ctx, config.InventoryEvent{
		Type:              config.EventInventoryDeleted,
		InventoryId:       inv.ID,
		InventoryDocument: inv.InventoryDocument,
		InventoryYear:     inv.InventoryYear,
	})
	return succeeded(), nil
}

/* lookups: a miss is an error, not a Result */

func (s *InventoryService) GetInventory(ctx context.Context, inventoryId int) (*Inventory, error) {
	return GetInventory(ctx, s.db, inventoryId)
}

func (s *InventoryService) ListInventories(ctx context.Context) ([]Inventory, error) {
	return ListInventories(ctx, s.db)
}

func (s *InventoryService) GetProgress(ctx context.Context, inventoryId int) (*Progress, error) {
	inv, err := GetInventory(ctx, s.db, inventoryId)
	if err != nil {
		return nil, err
	}
	p := inv.Progress()
	return &p, nil
}

func (s *InventoryService) ListItems(ctx context.Context, inventoryId int, filter ItemFilter) ([]InventoryItem, error) {
	return ListItems(ctx, s.db, inventoryId, filter)
}

// ListItemsByLocation lists the rows whose effective location is location,
// for count-by-position rounds.
func (s *InventoryService) ListItemsByLocation(ctx context.Context, inventoryId int, location string) ([]InventoryItem, error) {
	return ListItems(ctx, s.db, inventoryId, ItemFilter{Location: location})
}

// GetItemByCode returns every row of the material; ErrItemNotFound when none.
func (s *InventoryService) GetItemByCode(ctx context.Context, inventoryId int, code string) ([]InventoryItem, error) {
	items, err := GetItemsByCode(ctx, s.db, inventoryId, code)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrItemNotFound
	}
	return items, nil
}

func (s *InventoryService) GetItemByCodeAndBatch(ctx context.Context, inventoryId int, code string, batch string) (*InventoryItem, error) {
	return GetItemByCodeAndBatch(ctx, s.db, inventoryId, code, strings.TrimSpace(batch))
}

func (s *InventoryService) GetBatchesForItem(ctx context.Context, inventoryId int, code string) ([]string, error) {
	return GetBatchesForItem(ctx, s.db, inventoryId, code)
}

// ResolveItem narrows a scanned code to the one row to count. When more than
// one row carries a batch and none was given, it returns a
// *BatchSelectionError listing the distinct batches.
func (s *InventoryService) ResolveItem(ctx context.Context, inventoryId int, code string, batch string) (*InventoryItem, error) {
	if strings.TrimSpace(batch) != "" {
		return s.GetItemByCodeAndBatch(ctx, inventoryId, code, batch)
	}
	items, err := s.GetItemByCode(ctx, inventoryId, code)
	if err != nil {
		return nil, err
	}
	var batches []string
	for _, item := range items {
		if item.Batch != "" {
			batches = append(batches, item.Batch)
		}
	}
	if len(batches) > 1 {
		return nil, &BatchSelectionError{Code: utils.NormalizeLocation(code), Batches: utils.UniqueSlice(batches)}
	}
	for i := range items {
		if !items[i].IsCounted() {
			return &items[i], nil
		}
	}
	return &items[0], nil
}

func (s *InventoryService) publish(ctx context.Context, event config.InventoryEvent) {
	event.OccurredAt = s.now()
	event.CorrelationId, _ = utils.GetCorrelationIdFromContext(ctx)
	if err := s.events.Publish(ctx, event); err != nil {
		config.LogError(s.logger, "inventoryService.go", "publish", event.Type, event, err)
	}
}

func firstItem(ctx context.Context, db *gorm.DB, inventoryId int) (*InventoryItem, error) {
	var items []InventoryItem
	if err := db.WithContext(ctx).Where("inventory_id = ? AND status <> ?", inventoryId, ItemStatusSurplus).
		Order("id").Limit(1).Find(&items).Error; err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}
