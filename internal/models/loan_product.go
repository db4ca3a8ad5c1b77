// Package models defines the data structures for the loan application engine.
package models

import (
	"fmt"
)

// ProductGender restricts which applicants a product is offered to.
type ProductGender string

const (
	ProductGenderMale   ProductGender = "male"
	ProductGenderFemale ProductGender = "female"
	ProductGenderAny    ProductGender = "any"
)

// LoanProduct is one entry of the product catalog.
type LoanProduct struct {
	ID              string           `json:"id" yaml:"id"`
	Name            string           `json:"name" yaml:"name"`
	MaxAmount       float64          `json:"maxAmount" yaml:"maxAmount"`
	MinAmount       float64          `json:"minAmount" yaml:"minAmount"`
	Gender          ProductGender    `json:"gender" yaml:"gender"`
	AgeMin          int              `json:"ageMin" yaml:"ageMin"`
	AgeMax          int              `json:"ageMax" yaml:"ageMax"`
	MinIncome       float64          `json:"minIncome" yaml:"minIncome"`
	Purposes        []string         `json:"purposes" yaml:"purposes"`
	EmploymentTypes []EmploymentType `json:"employmentTypes" yaml:"employmentTypes"`
}

// AmountWithinBounds reports whether amount lies in [MinAmount, MaxAmount].
func (p *LoanProduct) AmountWithinBounds(amount float64) bool {
	return amount >= p.MinAmount && amount <= p.MaxAmount
}

// AcceptsGender reports whether the product is offered to the given gender.
func (p *LoanProduct) AcceptsGender(g Gender) bool {
	return p.Gender == ProductGenderAny || string(p.Gender) == string(g)
}

// AcceptsEmployment reports whether the employment type is listed by the product.
func (p *LoanProduct) AcceptsEmployment(e EmploymentType) bool {
	for _, accepted := range p.EmploymentTypes {
		if accepted == e {
			return true
		}
	}
	return false
}

// AcceptsPurpose reports whether the purpose is listed by the product.
func (p *LoanProduct) AcceptsPurpose(purpose Purpose) bool {
	for _, accepted := range p.Purposes {
		if accepted == string(purpose) {
			return true
		}
	}
	return false
}

// Validate checks the product bounds together.
func (p *LoanProduct) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("%w: id is empty", ErrInvalidProduct)
	}
	if p.MinAmount < 0 {
		return fmt.Errorf("%w: %s: minAmount must be >= 0", ErrInvalidProduct, p.ID)
	}
	if p.MaxAmount < p.MinAmount {
		return fmt.Errorf("%w: %s: maxAmount %.0f is below minAmount %.0f", ErrInvalidProduct, p.ID, p.MaxAmount, p.MinAmount)
	}
	if p.AgeMin > p.AgeMax {
		return fmt.Errorf("%w: %s: ageMin %d is above ageMax %d", ErrInvalidProduct, p.ID, p.AgeMin, p.AgeMax)
	}
	if p.MinIncome < 0 {
		return fmt.Errorf("%w: %s: minIncome must be >= 0", ErrInvalidProduct, p.ID)
	}
	switch p.Gender {
	case ProductGenderMale, ProductGenderFemale, ProductGenderAny:
	default:
		return fmt.Errorf("%w: %s: unknown gender %q", ErrInvalidProduct, p.ID, p.Gender)
	}
	return nil
}
