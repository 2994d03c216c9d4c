package event

import (
	"time"
)

// Entity is a persisted commerce record an email can be rebuilt from.
type Entity interface {
	EntityName() string
	EntityID() int64
}

type User struct {
	ID                 int64  `json:"id" liquid:"id"`
	Identifier         string `json:"identifier" liquid:"identifier"`
	Verified           bool   `json:"verified" liquid:"verified"`
	VerificationToken  string `json:"verificationToken,omitempty" liquid:"verificationToken"`
	PasswordResetToken string `json:"passwordResetToken,omitempty" liquid:"passwordResetToken"`
	PendingIdentifier  string `json:"pendingIdentifier,omitempty" liquid:"pendingIdentifier"`
	IdentifierToken    string `json:"identifierChangeToken,omitempty" liquid:"identifierChangeToken"`
}

func (User) EntityName() string { return "User" }

func (u User) EntityID() int64 { return u.ID }

type Customer struct {
	ID           int64  `json:"id" liquid:"id"`
	EmailAddress string `json:"emailAddress" liquid:"emailAddress"`
	FirstName    string `json:"firstName" liquid:"firstName"`
	LastName     string `json:"lastName" liquid:"lastName"`
	User         *User  `json:"user,omitempty" liquid:"user"`
}

func (Customer) EntityName() string { return "Customer" }

func (c Customer) EntityID() int64 { return c.ID }

// FullName joins first and last name, skipping empty parts.
func (c Customer) FullName() string {
	switch {
	case c.FirstName == "":
		return c.LastName
	case c.LastName == "":
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}

type OrderLine struct {
	ID          int64  `json:"id" liquid:"id"`
	ProductName string `json:"productName" liquid:"productName"`
	SKU         string `json:"sku" liquid:"sku"`
	Quantity    int    `json:"quantity" liquid:"quantity"`
	// UnitPrice is in minor currency units.
	UnitPrice int64 `json:"unitPrice" liquid:"unitPrice"`
}

// LinePrice is the line total in minor units.
func (l OrderLine) LinePrice() int64 {
	return l.UnitPrice * int64(l.Quantity)
}

// Order amounts are in minor currency units.
type Order struct {
	ID           int64       `json:"id" liquid:"id"`
	Code         string      `json:"code" liquid:"code"`
	State        string      `json:"state" liquid:"state"`
	Customer     *Customer   `json:"customer,omitempty" liquid:"customer"`
	Lines        []OrderLine `json:"lines" liquid:"lines"`
	SubTotal     int64       `json:"subTotal" liquid:"subTotal"`
	Shipping     int64       `json:"shipping" liquid:"shipping"`
	Total        int64       `json:"total" liquid:"total"`
	CurrencyCode string      `json:"currencyCode" liquid:"currencyCode"`
	PlacedAt     *time.Time  `json:"orderPlacedAt,omitempty" liquid:"orderPlacedAt"`
}

func (Order) EntityName() string { return "Order" }

func (o Order) EntityID() int64 { return o.ID }

// TotalQuantity sums the quantities of all lines.
func (o Order) TotalQuantity() int {
	n := 0
	for _, l := range o.Lines {
		n += l.Quantity
	}
	return n
}
