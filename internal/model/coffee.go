package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Package option bounds.
const (
	MaxOptionQuantity = 10000
	LowStockThreshold = 20
)

// MinOptionPrice is the lowest price an option may be listed at.
var MinOptionPrice = decimal.RequireFromString("0.50")

// StockStatus is derived from an option's quantity.
type StockStatus string

const (
	StockOutOfStock StockStatus = "OUT_OF_STOCK"
	StockLow        StockStatus = "LOW_STOCK"
	StockIn         StockStatus = "IN_STOCK"
)

// Weight is the package size in grams.
type Weight int

const (
	Weight250  Weight = 250
	Weight500  Weight = 500
	Weight1000 Weight = 1000
)

// Valid reports whether w is one of the sold package sizes.
func (w Weight) Valid() bool {
	switch w {
	case Weight250, Weight500, Weight1000:
		return true
	}
	return false
}

// Label renders the weight the way it appears on order lines, e.g. "250g".
func (w Weight) Label() string {
	return fmt.Sprintf("%dg", int(w))
}

// Coffee represents a coffee in the catalogue.
type Coffee struct {
	ID          int64           `json:"id" db:"id"`
	Name        string          `json:"name" db:"name"`
	Description string          `json:"description" db:"description"`
	Origin      string          `json:"origin" db:"origin"`
	RoastLevel  string          `json:"roastLevel" db:"roast_level"`
	ImageURL    string          `json:"imageUrl" db:"image_url"`
	Options     []PackageOption `json:"options"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time       `json:"updatedAt" db:"updated_at"`
}

// PackageOption is a purchasable variant of a coffee.
type PackageOption struct {
	ID         int64           `json:"id" db:"id"`
	CoffeeID   int64           `json:"coffeeId" db:"coffee_id"`
	CoffeeName string          `json:"-" db:"-"`
	Weight     Weight          `json:"weight" db:"weight"`
	Price      decimal.Decimal `json:"price" db:"price"`
	Quantity   int             `json:"quantity" db:"quantity"`
}

// StockStatus classifies the current quantity.
func (o *PackageOption) StockStatus() StockStatus {
	switch {
	case o.Quantity <= 0:
		return StockOutOfStock
	case o.Quantity <= LowStockThreshold:
		return StockLow
	default:
		return StockIn
	}
}

// Decrease removes amount units from stock. The quantity is left untouched
// when the result would fall below zero.
func (o *PackageOption) Decrease(amount int) error {
	if amount <= 0 {
		return ErrInvalidQuantity
	}
	if o.Quantity-amount < 0 {
		return NewDomainError(ErrCodeInsufficientStock,
			fmt.Sprintf("Not enough stock for option %d: requested %d, available %d", o.ID, amount, o.Quantity))
	}
	o.Quantity -= amount
	return nil
}

// Increase returns amount units to stock, bounded by MaxOptionQuantity.
func (o *PackageOption) Increase(amount int) error {
	if amount <= 0 {
		return ErrInvalidQuantity
	}
	if o.Quantity+amount > MaxOptionQuantity {
		return NewDomainError(ErrCodeInvalidArgument,
			fmt.Sprintf("Stock for option %d cannot exceed %d", o.ID, MaxOptionQuantity))
	}
	o.Quantity += amount
	return nil
}

// HasStock reports whether qty units could be taken right now.
func (o *PackageOption) HasStock(qty int) bool {
	return qty <= o.Quantity
}

// Validate checks the option's catalogue constraints.
func (o *PackageOption) Validate() error {
	if !o.Weight.Valid() {
		return NewDomainError(ErrCodeInvalidArgument, "Weight must be one of 250, 500 or 1000")
	}
	if o.Price.LessThan(MinOptionPrice) {
		return NewDomainError(ErrCodeInvalidArgument, "Price must be at least 0.50")
	}
	if o.Quantity < 0 || o.Quantity > MaxOptionQuantity {
		return NewDomainError(ErrCodeInvalidArgument, fmt.Sprintf("Quantity must be between 0 and %d", MaxOptionQuantity))
	}
	return nil
}

// MarshalJSON adds the derived stock status to the option payload.
func (o PackageOption) MarshalJSON() ([]byte, error) {
	type alias PackageOption
	return json.Marshal(struct {
		alias
		StockStatus StockStatus `json:"stockStatus"`
	}{
		alias:       alias(o),
		StockStatus: o.StockStatus(),
	})
}

// CoffeeRequest is the admin payload for creating or replacing a coffee.
type CoffeeRequest struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Origin      string                 `json:"origin"`
	RoastLevel  string                 `json:"roastLevel"`
	ImageURL    string                 `json:"imageUrl"`
	Options     []PackageOptionRequest `json:"options"`
}

// PackageOptionRequest describes one option in a CoffeeRequest.
type PackageOptionRequest struct {
	Weight   int             `json:"weight"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

// ToCoffee validates the request and converts it into a Coffee.
func (r *CoffeeRequest) ToCoffee() (*Coffee, error) {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return nil, NewDomainError(ErrCodeInvalidArgument, "Name is required")
	}
	if len(r.Options) == 0 {
		return nil, NewDomainError(ErrCodeInvalidArgument, "At least one package option is required")
	}

	coffee := &Coffee{
		Name:        name,
		Description: r.Description,
		Origin:      r.Origin,
		RoastLevel:  r.RoastLevel,
		ImageURL:    r.ImageURL,
		Options:     make([]PackageOption, 0, len(r.Options)),
	}

	seen := make(map[Weight]bool, len(r.Options))
	for _, o := range r.Options {
		opt := PackageOption{
			Weight:   Weight(o.Weight),
			Price:    o.Price,
			Quantity: o.Quantity,
		}
		if err := opt.Validate(); err != nil {
			return nil, err
		}
		if seen[opt.Weight] {
			return nil, NewDomainError(ErrCodeInvalidArgument, fmt.Sprintf("Duplicate package weight %d", o.Weight))
		}
		seen[opt.Weight] = true
		coffee.Options = append(coffee.Options, opt)
	}

	return coffee, nil
}
