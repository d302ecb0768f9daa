package models_test

import (
	"context"
	"errors"
	"testing"

	"github.com/PedrooFerraz/Inventory-app-sub000/models"
	"github.com/go-playground/validator/v10"
)

func TestOperatorCRUD(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	op, err := models.CreateOperator(ctx, db, &models.NewOperator{Name: " Maria Silva ", Code: "1001"})
	if err != nil {
		t.Fatalf("CreateOperator: %v", err)
	}
	if op.Name != "Maria Silva" {
		t.Fatalf("name should be trimmed, got %q", op.Name)
	}

	if _, err := models.CreateOperator(ctx, db, &models.NewOperator{Name: "Other", Code: "1001"}); !errors.Is(err, models.ErrDuplicateOperatorCode) {
		t.Fatalf("expected ErrDuplicateOperatorCode, got %v", err)
	}

	var verrs validator.ValidationErrors
	if _, err := models.CreateOperator(ctx, db, &models.NewOperator{Code: "1002"}); !errors.As(err, &verrs) {
		t.Fatalf("expected validation error for missing name, got %v", err)
	}

	updated, err := models.UpdateOperator(ctx, db, op.ID, &models.NewOperator{Name: "Maria S.", Code: "1001"})
	if err != nil {
		t.Fatalf("UpdateOperator keeping its own code: %v", err)
	}
	if updated.Name != "Maria S." {
		t.Fatalf("unexpected name %q", updated.Name)
	}

	second, err := models.CreateOperator(ctx, db, &models.NewOperator{Name: "Joao", Code: "1003"})
	if err != nil {
		t.Fatalf("CreateOperator: %v", err)
	}
	operators, err := models.ListOperators(ctx, db)
	if err != nil || len(operators) != 2 || operators[0].Name != "Joao" {
		t.Fatalf("expected operators ordered by name, got %+v %v", operators, err)
	}

	if err := models.DeleteOperator(ctx, db, second.ID); err != nil {
		t.Fatalf("DeleteOperator: %v", err)
	}
	if err := models.DeleteOperator(ctx, db, second.ID); !errors.Is(err, models.ErrOperatorNotFound) {
		t.Fatalf("expected ErrOperatorNotFound, got %v", err)
	}
	if _, err := models.GetOperator(ctx, db, second.ID); !errors.Is(err, models.ErrOperatorNotFound) {
		t.Fatalf("expected ErrOperatorNotFound, got %v", err)
	}
}
