// Package domain defines the core interfaces and types for LuminaSAR.
package domain

import (
	"time"
)

// Transaction is a single customer transaction as read from the case file.
// Transactions are read-only inside the pipeline; the detector never mutates them.
type Transaction struct {
	ID         string  `json:"transactionId"`
	CustomerID string  `json:"customerId,omitempty"`
	Amount     float64 `json:"amount"`

	// Timestamp may be zero when the source row carried no usable date.
	// Velocity analysis drops such rows.
	Timestamp time.Time `json:"date"`

	SourceAccount      string `json:"sourceAccount"`
	DestinationAccount string `json:"destinationAccount"`
	Type               string `json:"transactionType,omitempty"`
}

// Customer is the subject of a SAR case.
type Customer struct {
	ID            string     `json:"customerId"`
	Name          string     `json:"name"`
	AccountNumber string     `json:"accountNumber"`
	Occupation    string     `json:"occupation,omitempty"`
	StatedIncome  float64    `json:"statedIncome,omitempty"`
	CustomerSince *time.Time `json:"customerSince,omitempty"`
}
