package models

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

var (
	ErrOperatorNotFound      = errors.New("operator not found")
	ErrDuplicateOperatorCode = errors.New("duplicate operator code")
)

var validate = validator.New()

type Operator struct {
	ID   int    `gorm:"primary_key" json:"id"`
	Name string `gorm:"size:100;not null" json:"name"`
	Code string `gorm:"size:50;uniqueIndex;not null" json:"code"`
}

type NewOperator struct {
	Name string `json:"name" validate:"required,max=100"`
	Code string `json:"code" validate:"required,max=50"`
}

func (input NewOperator) validate(ctx context.Context, db *gorm.DB, exceptId int) error {
	if err := validate.Struct(input); err != nil {
		return err
	}
	var count int64
	q := db.WithContext(ctx).Model(&Operator{}).Where("code = ?", strings.TrimSpace(input.Code))
	if exceptId > 0 {
		q = q.Where("id <> ?", exceptId)
	}
	if err := q.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrDuplicateOperatorCode
	}
	return nil
}

func CreateOperator(ctx context.Context, db *gorm.DB, input *NewOperator) (*Operator, error) {
	if err := input.validate(ctx, db, 0); err != nil {
		return nil, err
	}
	op := Operator{Name: strings.TrimSpace(input.Name), Code: strings.TrimSpace(input.Code)}
	if err := db.WithContext(ctx).Create(&op).Error; err != nil {
		return nil, err
	}
	return &op, nil
}

func UpdateOperator(ctx context.Context, db *gorm.DB, id int, input *NewOperator) (*Operator, error) {
	if err := input.validate(ctx, db, id); err != nil {
		return nil, err
	}
	op, err := GetOperator(ctx, db, id)
	if err != nil {
		return nil, err
	}
	op.Name = strings.TrimSpace(input.Name)
	op.Code = strings.TrimSpace(input.Code)
	if err := db.WithContext(ctx).Save(op).Error; err != nil {
		return nil, err
	}
	return op, nil
}

func DeleteOperator(ctx context.Context, db *gorm.DB, id int) error {
	res := db.WithContext(ctx).Where("id = ?", id).Delete(&Operator{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrOperatorNotFound
	}
	return nil
}

func GetOperator(ctx context.Context, db *gorm.DB, id int) (*Operator, error) {
	var op Operator
	res := db.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&op)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrOperatorNotFound
	}
	return &op, nil
}

func ListOperators(ctx context.Context, db *gorm.DB) ([]Operator, error) {
	var operators []Operator
	if err := db.WithContext(ctx).Order("name").Find(&operators).Error; err != nil {
		return nil, err
	}
	return operators, nil
}
