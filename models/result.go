package models

// Outcome names an expected business branch of a reconciliation operation.
type Outcome string

const (
	OutcomeItemNotFound              Outcome = "item_not_found"
	OutcomeAlreadyCounted            Outcome = "already_counted"
	OutcomeInventoryNotFound         Outcome = "inventory_not_found"
	OutcomeInventoryAlreadyCompleted Outcome = "inventory_already_completed"
	OutcomeQuantityMismatch          Outcome = "quantity_mismatch"
	OutcomeLocationMismatch          Outcome = "location_mismatch"
	OutcomeExistsInOtherLocation     Outcome = "exists_in_other_location"
	OutcomeAlreadyCountedInOther     Outcome = "already_counted_in_other"
)

// Result is returned by every mutating InventoryService operation.
// Success is false for business conflicts; Error carries a single terminal
// outcome, Errors the divergences found by UpdateItem. Data is the payload
// a caller needs to offer the operator a choice.
type Result struct {
	Success bool      `json:"success"`
	Error   Outcome   `json:"error,omitempty"`
	Errors  []Outcome `json:"errors,omitempty"`
	Data    any       `json:"data,omitempty"`
}

func succeeded() *Result {
	return &Result{Success: true}
}

func failed(o Outcome) *Result {
	return &Result{Error: o}
}

func failedWith(o Outcome, data any) *Result {
	return &Result{Error: o, Data: data}
}

func diverged(errs []Outcome) *Result {
	return &Result{Errors: errs}
}

// Has reports whether o is the terminal outcome or one of the divergences.
func (r *Result) Has(o Outcome) bool {
	if r.Error == o {
		return true
	}
	for _, e := range r.Errors {
		if e == o {
			return true
		}
	}
	return false
}

// LastCount is the payload of already_counted.
type LastCount struct {
	LastCount *int   `json:"lastCount"`
	LastLoc   string `json:"lastLoc"`
}

// OtherLocation is the payload of exists_in_other_location.
type OtherLocation struct {
	Local string `json:"local"`
}

// PreviousCount is the payload of already_counted_in_other.
type PreviousCount struct {
	Local            string `json:"local"`
	ID               int    `json:"id"`
	ReportedQuantity int    `json:"reportedQuantity"`
}

// PreviousLocation addresses the row a SumToPreviousCount adds into.
type PreviousLocation struct {
	Local string `json:"local" validate:"required"`
}
