package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cart is a member's basket. Items are kept in insertion order and are unique
// by option.
type Cart struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	MemberID  uuid.UUID  `json:"memberId" db:"member_id"`
	Items     []CartItem `json:"items"`
	CreatedAt time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time  `json:"updatedAt" db:"updated_at"`
}

// CartItem is a line in a cart. The price is captured when the item is first
// added and does not follow later catalogue changes.
type CartItem struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	CartID        *uuid.UUID      `json:"-" db:"cart_id"`
	OptionID      int64           `json:"optionId" db:"option_id"`
	CoffeeID      int64           `json:"coffeeId" db:"coffee_id"`
	ProductName   string          `json:"productName" db:"product_name"`
	OptionName    string          `json:"optionName" db:"option_name"`
	Quantity      int             `json:"quantity" db:"quantity"`
	PriceSnapshot decimal.Decimal `json:"price" db:"price_snapshot"`
}

// LineTotal is price times quantity.
func (i *CartItem) LineTotal() decimal.Decimal {
	return i.PriceSnapshot.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// NewCart creates an empty cart for a member.
func NewCart(memberID uuid.UUID) *Cart {
	now := time.Now().UTC()
	return &Cart{
		ID:        uuid.New(),
		MemberID:  memberID,
		Items:     []CartItem{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsEmpty reports whether the cart has no items.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// TotalAmount sums the line totals. It is computed on every call.
func (c *Cart) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for i := range c.Items {
		total = total.Add(c.Items[i].LineTotal())
	}
	return total
}

// Find returns the item for optionID, or nil.
func (c *Cart) Find(optionID int64) *CartItem {
	for i := range c.Items {
		if c.Items[i].OptionID == optionID {
			return &c.Items[i]
		}
	}
	return nil
}

// OptionIDs lists the options referenced by the cart.
func (c *Cart) OptionIDs() []int64 {
	ids := make([]int64, 0, len(c.Items))
	for _, item := range c.Items {
		ids = append(ids, item.OptionID)
	}
	return ids
}

// AddOrIncrement adds qty units of option to the cart. If the option is already
// present its quantity is increased instead. Stock is checked against the
// resulting quantity before anything changes. The returned item is a copy of
// the stored line.
func (c *Cart) AddOrIncrement(option *PackageOption, productName string, qty int) (CartItem, error) {
	if qty <= 0 {
		return CartItem{}, ErrInvalidQuantity
	}

	existing := c.Find(option.ID)
	prospective := qty
	if existing != nil {
		prospective += existing.Quantity
	}
	if !option.HasStock(prospective) {
		return CartItem{}, NewDomainError(ErrCodeInsufficientStock,
			fmt.Sprintf("Only %d units of %s %s available", option.Quantity, productName, option.Weight.Label()))
	}

	c.UpdatedAt = time.Now().UTC()
	if existing != nil {
		existing.Quantity = prospective
		return *existing, nil
	}

	cartID := c.ID
	item := CartItem{
		ID:            uuid.New(),
		CartID:        &cartID,
		OptionID:      option.ID,
		CoffeeID:      option.CoffeeID,
		ProductName:   productName,
		OptionName:    option.Weight.Label(),
		Quantity:      qty,
		PriceSnapshot: option.Price,
	}
	c.Items = append(c.Items, item)
	return item, nil
}

// SetQuantity replaces the quantity of an existing line, subject to the same
// stock rule as AddOrIncrement.
func (c *Cart) SetQuantity(option *PackageOption, qty int) (CartItem, error) {
	if qty <= 0 {
		return CartItem{}, ErrInvalidQuantity
	}
	existing := c.Find(option.ID)
	if existing == nil {
		return CartItem{}, NewDomainError(ErrCodeNotFound, "Item is not in the cart")
	}
	if !option.HasStock(qty) {
		return CartItem{}, NewDomainError(ErrCodeInsufficientStock,
			fmt.Sprintf("Only %d units of %s %s available", option.Quantity, existing.ProductName, option.Weight.Label()))
	}
	existing.Quantity = qty
	c.UpdatedAt = time.Now().UTC()
	return *existing, nil
}

// RemoveItem detaches and removes the line for optionID. It returns false when
// the option is not in the cart.
func (c *Cart) RemoveItem(optionID int64) (CartItem, bool) {
	for i := range c.Items {
		if c.Items[i].OptionID != optionID {
			continue
		}
		removed := c.Items[i]
		removed.CartID = nil
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
		c.UpdatedAt = time.Now().UTC()
		return removed, true
	}
	return CartItem{}, false
}

// Clear detaches and removes every line, returning what was removed.
func (c *Cart) Clear() []CartItem {
	removed := make([]CartItem, len(c.Items))
	for i, item := range c.Items {
		item.CartID = nil
		removed[i] = item
	}
	c.Items = []CartItem{}
	c.UpdatedAt = time.Now().UTC()
	return removed
}

// AddToCartRequest represents the payload for adding an option to the cart.
type AddToCartRequest struct {
	OptionID int64 `json:"optionId"`
	Quantity int   `json:"quantity"`
}

// UpdateCartItemRequest represents the payload for changing a line quantity.
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

// CartItemResponse is a cart line with its computed total.
type CartItemResponse struct {
	OptionID    int64           `json:"optionId"`
	CoffeeID    int64           `json:"coffeeId"`
	ProductName string          `json:"productName"`
	OptionName  string          `json:"optionName"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	LineTotal   decimal.Decimal `json:"lineTotal"`
}

// CartResponse represents the response payload for a cart.
type CartResponse struct {
	ID          uuid.UUID          `json:"id"`
	Items       []CartItemResponse `json:"items"`
	TotalAmount decimal.Decimal    `json:"totalAmount"`
}

// ToResponse builds the API view of the cart.
func (c *Cart) ToResponse() CartResponse {
	items := make([]CartItemResponse, 0, len(c.Items))
	for i := range c.Items {
		item := &c.Items[i]
		items = append(items, CartItemResponse{
			OptionID:    item.OptionID,
			CoffeeID:    item.CoffeeID,
			ProductName: item.ProductName,
			OptionName:  item.OptionName,
			Quantity:    item.Quantity,
			Price:       item.PriceSnapshot,
			LineTotal:   item.LineTotal(),
		})
	}
	return CartResponse{
		ID:          c.ID,
		Items:       items,
		TotalAmount: c.TotalAmount(),
	}
}
