package entity

import "time"

// Expense is a spend recorded by an administrator.
type Expense struct {
	ID       string           `json:"id"`
	Item     string           `json:"item"`
	Category string           `json:"category"`
	Quantity float64          `json:"quantity"`
	Price    float64          `json:"price"`
	Purpose  string           `json:"purpose"`
	Date     time.Time        `json:"date"`
	TxHash   string           `json:"txHash,omitempty"`
	Receipts []ExpenseReceipt `json:"receipts"`
}

// Total is price times quantity.
func (e Expense) Total() float64 {
	return e.Price * e.Quantity
}

// ExpenseReceipt is an uploaded receipt file.
type ExpenseReceipt struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DownloadURL string `json:"downloadUrl"`
}

// Category is an expense category.
type Category struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}
