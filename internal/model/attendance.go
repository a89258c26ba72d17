package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// AttendanceRecord is one salon visit. Customer is the customer's name at
// the time the visit was recorded and is not updated by later renames.
type AttendanceRecord struct {
	ID       string          `json:"id"`
	Customer string          `json:"customer"`
	Service  string          `json:"service"`
	Amount   decimal.Decimal `json:"amount"`
	Date     time.Time       `json:"date"`
	Status   string          `json:"status,omitempty"`
	Version  int64           `json:"version"`
}
