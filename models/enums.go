package models

import (
	"errors"
	"fmt"
	"strconv"
)

type CountType int

const (
	CountTypeByCode     CountType = 1
	CountTypeByPosition CountType = 2
)

func (t CountType) IsValid() bool {
	return t == CountTypeByCode || t == CountTypeByPosition
}

func ParseCountType(s string) (CountType, error) {
	n, err := strconv.Atoi(s)
	if err != nil || !CountType(n).IsValid() {
		return 0, fmt.Errorf("invalid count type %q", s)
	}
	return CountType(n), nil
}

// InventoryStatus only moves forward: Open -> InProgress -> Finalized.
type InventoryStatus int

const (
	InventoryStatusOpen       InventoryStatus = 0
	InventoryStatusInProgress InventoryStatus = 1
	InventoryStatusFinalized  InventoryStatus = 2
)

func (s InventoryStatus) String() string {
	switch s {
	case InventoryStatusOpen:
		return "Open"
	case InventoryStatusInProgress:
		return "InProgress"
	case InventoryStatusFinalized:
		return "Finalized"
	}
	return "Unknown"
}

type ItemStatus int

const (
	ItemStatusPending                   ItemStatus = 0
	ItemStatusOK                        ItemStatus = 1
	ItemStatusQuantityDivergent         ItemStatus = 2
	ItemStatusLocationDivergent         ItemStatus = 3
	ItemStatusQuantityLocationDivergent ItemStatus = 4
	ItemStatusSurplus                   ItemStatus = 5
)

func (s ItemStatus) String() string {
	switch s {
	case ItemStatusPending:
		return "Pending"
	case ItemStatusOK:
		return "OK"
	case ItemStatusQuantityDivergent:
		return "QuantityDivergent"
	case ItemStatusLocationDivergent:
		return "LocationDivergent"
	case ItemStatusQuantityLocationDivergent:
		return "QuantityLocationDivergent"
	case ItemStatusSurplus:
		return "Surplus"
	}
	return "Unknown"
}

func ParseItemStatus(s string) (ItemStatus, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < int(ItemStatusPending) || n > int(ItemStatusSurplus) {
		return 0, errors.New("invalid item status")
	}
	return ItemStatus(n), nil
}

// itemStatusFor classifies an accepted count against the expected values.
func itemStatusFor(quantityDiffers, locationDiffers bool) ItemStatus {
	switch {
	case quantityDiffers && locationDiffers:
		return ItemStatusQuantityLocationDivergent
	case quantityDiffers:
		return ItemStatusQuantityDivergent
	case locationDiffers:
		return ItemStatusLocationDivergent
	}
	return ItemStatusOK
}
