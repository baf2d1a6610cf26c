package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// DocumentType identifies the statement a line item was extracted from.
type DocumentType string

const (
	BalanceSheet      DocumentType = "balance_sheet"
	IncomeStatement   DocumentType = "income_statement"
	CashFlow          DocumentType = "cash_flow"
	RentRoll          DocumentType = "rent_roll"
	MortgageStatement DocumentType = "mortgage_statement"
)

// Period is a reporting period, year plus month.
type Period struct {
	Year  int `json:"year"`
	Month int `json:"month"` // 1-12
}

// String renders the period as "YYYY-MM".
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

// Compare returns -1, 0 or 1 comparing p against other chronologically.
func (p Period) Compare(other Period) int {
	if p.Year != other.Year {
		if p.Year < other.Year {
			return -1
		}
		return 1
	}
	if p.Month != other.Month {
		if p.Month < other.Month {
			return -1
		}
		return 1
	}
	return 0
}

// Previous returns the period one month earlier.
func (p Period) Previous() Period {
	if p.Month == 1 {
		return Period{Year: p.Year - 1, Month: 12}
	}
	return Period{Year: p.Year, Month: p.Month - 1}
}

// Next returns the period one month later.
func (p Period) Next() Period {
	if p.Month == 12 {
		return Period{Year: p.Year + 1, Month: 1}
	}
	return Period{Year: p.Year, Month: p.Month + 1}
}

// FinancialRecord is one extracted line item. Records are produced by the
// extraction pipeline and are read-only to the reconciliation engine.
type FinancialRecord struct {
	RecordID       string          `json:"recordID"`
	PropertyID     string          `json:"propertyID"`
	AccountCode    string          `json:"accountCode"` // may be hierarchical, e.g. "1010.02"
	AccountName    string          `json:"accountName"`
	Amount         decimal.Decimal `json:"amount"`
	Period         Period          `json:"period"`
	DocumentType   DocumentType    `json:"documentType"`
	SourceUploadID string          `json:"sourceUploadID"`
	AuditFields
}
