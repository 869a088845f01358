/**
 * @description
 * This file defines the core domain model for the subscription-management-api.
 * It includes the Subscription struct that maps to the subscriptions table and
 * the enumerated value types the API accepts.
 */
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Frequency is the billing cadence of a subscription.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

// Valid reports whether f is one of the four supported billing frequencies.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
		return true
	}
	return false
}

// Status is the lifecycle state of a subscription.
type Status string

const (
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled"
	StatusExpired   Status = "expired"
)

// Currency is the billing currency of a subscription.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
)

func (c Currency) Valid() bool {
	switch c {
	case CurrencyUSD, CurrencyEUR, CurrencyGBP:
		return true
	}
	return false
}

// Category classifies what kind of service the subscription pays for.
type Category string

const (
	CategorySports        Category = "sports"
	CategoryNews          Category = "news"
	CategoryEntertainment Category = "entertainment"
	CategoryLifestyle     Category = "lifestyle"
	CategoryTechnology    Category = "technology"
	CategoryFinance       Category = "finance"
	CategoryPolitics      Category = "politics"
	CategoryOther         Category = "other"
)

func (c Category) Valid() bool {
	switch c {
	case CategorySports, CategoryNews, CategoryEntertainment, CategoryLifestyle,
		CategoryTechnology, CategoryFinance, CategoryPolitics, CategoryOther:
		return true
	}
	return false
}

// PaymentMethod is how the subscription is paid.
type PaymentMethod string

const (
	PaymentMethodCreditCard   PaymentMethod = "Credit Card"
	PaymentMethodPayPal       PaymentMethod = "PayPal"
	PaymentMethodBankTransfer PaymentMethod = "Bank Transfer"
	PaymentMethodOther        PaymentMethod = "Other"
)

func (p PaymentMethod) Valid() bool {
	switch p {
	case PaymentMethodCreditCard, PaymentMethodPayPal, PaymentMethodBankTransfer, PaymentMethodOther:
		return true
	}
	return false
}

// Subscription represents a tracked recurring subscription.
//
// StartDate is immutable after creation. RenewalDate is owned by the
// scheduling engine: it is always the UTC instant of local midnight in the
// subscription's timezone and is only advanced by a renewal. Status moves
// active->cancelled, active->expired, or stays active across a renewal.
type Subscription struct {
	ID            uuid.UUID     `json:"id"`
	Name          string        `json:"name"`
	Price         float64       `json:"price"`
	Currency      Currency      `json:"currency"`
	Frequency     Frequency     `json:"frequency"`
	Category      Category      `json:"category"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	OwnerID       uuid.UUID     `json:"owner_id"`
	OwnerEmail    string        `json:"owner_email"`
	OwnerName     string        `json:"owner_name"`
	AutoRenew     bool          `json:"auto_renew"`
	Timezone      string        `json:"timezone"`
	StartDate     time.Time     `json:"start_date"`
	RenewalDate   time.Time     `json:"renewal_date"`
	Status        Status        `json:"status"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}
