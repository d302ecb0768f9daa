package main

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/PedrooFerraz/Inventory-app-sub000/models"
	"github.com/PedrooFerraz/Inventory-app-sub000/models/reports"
	"github.com/PedrooFerraz/Inventory-app-sub000/utils"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// countRequest is the wire form of models.CountInput. The quantity is a
// pointer so an omitted field is rejected instead of read as zero.
type countRequest struct {
	ReportedQuantity *int   `json:"reportedQuantity" validate:"required,gte=0"`
	ReportedLocation string `json:"reportedLocation" validate:"required"`
	Observation      string `json:"observation"`
	Operator         string `json:"operator"`
}

func (r countRequest) input() models.CountInput {
	return models.CountInput{
		ReportedQuantity: *r.ReportedQuantity,
		ReportedLocation: r.ReportedLocation,
		Observation:      r.Observation,
		Operator:         r.Operator,
	}
}

type updateItemRequest struct {
	countRequest
	models.UpdateOptions
}

type addItemRequest struct {
	Code        string `json:"code" validate:"required"`
	Description string `json:"description"`
	Batch       string `json:"batch"`
	Unit        string `json:"unit"`
	countRequest
	models.AddOptions
}

func (r addItemRequest) input() models.NewItemInput {
	return models.NewItemInput{
		Code:             r.Code,
		Description:      r.Description,
		Batch:            r.Batch,
		Unit:             r.Unit,
		ReportedQuantity: *r.ReportedQuantity,
		ReportedLocation: r.ReportedLocation,
		Observation:      r.Observation,
		Operator:         r.Operator,
	}
}

type sumRequest struct {
	Code               string                  `json:"code" validate:"required"`
	Previous           models.PreviousLocation `json:"previousLocation"`
	AdditionalQuantity int                     `json:"additionalQuantity" validate:"gt=0"`
}

// bindAndValidate decodes the JSON body into req and runs its validate tags.
// It writes the 400 response itself and returns false on failure.
func bindAndValidate(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return false
	}
	if err := validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": utils.ProcessValidationErrors(err)})
		return false
	}
	return true
}

func intParam(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

// writeResult maps a reconciliation Result onto a status code. Business
// conflicts are 409 so the client can offer the operator a choice.
func writeResult(c *gin.Context, res *models.Result, err error) {
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	switch {
	case res.Success:
		c.JSON(http.StatusOK, res)
	case res.Error == models.OutcomeItemNotFound || res.Error == models.OutcomeInventoryNotFound:
		c.JSON(http.StatusNotFound, res)
	default:
		c.JSON(http.StatusConflict, res)
	}
}

// writeLookupError answers lookups, where a miss is an error value.
func writeLookupError(c *gin.Context, err error) {
	var batch *models.BatchSelectionError
	switch {
	case errors.As(err, &batch):
		c.JSON(http.StatusConflict, gin.H{"error": batch.Error(), "batches": batch.Batches})
	case errors.Is(err, models.ErrItemNotFound), errors.Is(err, models.ErrInventoryNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (s *server) listInventoriesHandler(c *gin.Context) {
	inventories, err := s.inventory.ListInventories(c.Request.Context())
	if err != nil {
		writeLookupError(c, err)
		return
	}
	c.JSON(http.StatusOK, inventories)
}

func (s *server) getInventoryHandler(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	inv, err := s.inventory.GetInventory(c.Request.Context(), id)
	if err != nil {
		writeLookupError(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

func (s *server) deleteInventoryHandler(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	res, err := s.inventory.DeleteInventory(c.Request.Context(), id)
	writeResult(c, res, err)
}

func (s *server) progressHandler(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	progress, err := s.inventory.GetProgress(c.Request.Context(), id)
	if err != nil {
		writeLookupError(c, err)
		return
	}
	c.JSON(http.StatusOK, progress)
}

func (s *server) finalizeHandler(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	res, err := s.inventory.FinalizeInventory(c.Request.Context(), id)
	writeResult(c, res, err)
}

func (s *server) listItemsHandler(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	filter := models.ItemFilter{Code: c.Query("code"), Location: c.Query("location")}
	if raw := c.Query("status"); raw != "" {
		status, err := models.ParseItemStatus(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		filter.Status = &status
	}
	items, err := s.inventory.ListItems(c.Request.Context(), id, filter)
	if err != nil {
		writeLookupError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (s *server) resolveItemHandler(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code is required"})
		return
	}
	item, err := s.inventory.ResolveItem(c.Request.Context(), id, code, c.Query("batch"))
	if err != nil {
		writeLookupError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (s *server) batchesHandler(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	batches, err := s.inventory.GetBatchesForItem(c.Request.Context(), id, c.Query("code"))
	if err != nil {
		writeLookupError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"batches": batches})
}

func (s *server) updateItemHandler(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	itemId, ok := intParam(c, "itemId")
	if !ok {
		return
	}
	var req updateItemRequest
	if !bindAndValidate(c, &req) {
		return
	}
	res, err := s.inventory.UpdateItem(c.Request.Context(), itemId, id, req.input(), req.UpdateOptions)
	writeResult(c, res, err)
}

func (s *server) replaceItemHandler(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	itemId, ok := intParam(c, "itemId")
	if !ok {
		return
	}
	var req countRequest
	if !bindAndValidate(c, &req) {
		return
	}
	res, err := s.inventory.ReplaceItem(c.Request.Context(), id, itemId, req.input())
	writeResult(c, res, err)
}

func (s *server) addNewItemHandler(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	var req addItemRequest
	if !bindAndValidate(c, &req) {
		return
	}
	res, err := s.inventory.AddNewItem(c.Request.Context(), id, req.input(), req.AddOptions)
	if err == nil && res.Success {
		c.JSON(http.StatusCreated, res)
		return
	}
	writeResult(c, res, err)
}

func (s *server) sumToPreviousHandler(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	var req sumRequest
	if !bindAndValidate(c, &req) {
		return
	}
	res, err := s.inventory.SumToPreviousCount(c.Request.Context(), id, req.Code, req.Previous, req.AdditionalQuantity)
	writeResult(c, res, err)
}

func (s *server) exportHandler(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	scope, err := reports.ParseExportScope(c.Query("scope"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	inv, sheets, err := reports.ExportInventory(c.Request.Context(), s.db, id, scope)
	if err != nil {
		writeLookupError(c, err)
		return
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename="+reports.ExportFileName(inv, scope))
	if err := reports.WriteWorkbook(c.Writer, sheets...); err != nil {
		_ = c.Error(err)
		c.Status(http.StatusInternalServerError)
	}
}
