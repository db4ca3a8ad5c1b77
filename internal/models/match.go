// Package models defines the data structures for the loan application engine.
package models

// ProductMatch is the outcome of scoring one profile against one product.
// Product is shared with the catalog and must not be modified.
type ProductMatch struct {
	Product  *LoanProduct `json:"product"`
	Score    int          `json:"score"`
	Eligible bool         `json:"eligible"`
	Reasons  []string     `json:"reasons"`
}
