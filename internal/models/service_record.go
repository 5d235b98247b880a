package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// DateLayout is the wire format of ServiceRecord.Date.
const DateLayout = "2006-01-02"

// ServiceRecord is one row of service_records. The table is managed outside
// this service; the tags only describe the existing columns.
type ServiceRecord struct {
	SrNo          uint            `gorm:"column:sr_no;primaryKey;autoIncrement"`
	Date          datatypes.Date  `gorm:"column:date;not null;index"`
	CarNo         string          `gorm:"column:car_no;size:50;not null"`
	Model         string          `gorm:"column:model;size:100;not null"`
	TreatmentName string          `gorm:"column:treatment_name;size:255;not null"`
	RoNo          string          `gorm:"column:ro_no;size:50;not null"`
	InvoiceNo     string          `gorm:"column:invoice_no;size:50;not null"`
	Adviser       string          `gorm:"column:adviser;size:100;not null"`
	Amount        decimal.Decimal `gorm:"column:amount;type:numeric(12,2);not null"`
	Discount      decimal.Decimal `gorm:"column:discount;type:numeric(12,2);not null"`
}

func (ServiceRecord) TableName() string {
	return "service_records"
}

// FinalAmount is the only place the derived amount is computed. Every read
// path goes through it; negative results are allowed.
func FinalAmount(amount, discount decimal.Decimal) decimal.Decimal {
	return amount.Sub(discount)
}

// FinalAmount returns the derived amount for r.
func (r ServiceRecord) FinalAmount() decimal.Decimal {
	return FinalAmount(r.Amount, r.Discount)
}
