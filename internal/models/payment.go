package models

import "time"

// PaymentStatus is the normalized state of a payment.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// ParsePaymentStatus maps a backend status string onto [PaymentStatus], treating anything unknown as pending.
func ParsePaymentStatus(s string) PaymentStatus {
	switch PaymentStatus(s) {
	case PaymentCompleted, PaymentFailed, PaymentPending:
		return PaymentStatus(s)
	default:
		return PaymentPending
	}
}

// RawPayment is a payment exactly as GET /payments returns it.
type RawPayment struct {
	ID              string           `json:"_id"`
	UserID          string           `json:"userId"`
	UserName        string           `json:"userName"`
	MovieID         string           `json:"movieId"`
	MovieTitle      string           `json:"movieTitle"`
	Status          string           `json:"status"`
	Amount          float64          `json:"amount"`
	Date            string           `json:"date"`
	PurchasedMovies []PurchasedMovie `json:"purchasedMovies"`
}

// Normalize converts the wire form into a [Payment].
func (r RawPayment) Normalize() Payment {
	purchased := make([]PurchasedMovie, len(r.PurchasedMovies))
	copy(purchased, r.PurchasedMovies)

	return Payment{
		ID:              r.ID,
		UserID:          r.UserID,
		Amount:          r.Amount,
		Date:            r.Date,
		PurchasedMovies: purchased,
		Status:          ParsePaymentStatus(r.Status),
	}
}

// Payment is a normalized payment record.
type Payment struct {
	ID              string           `json:"_id"`
	UserID          string           `json:"userId"`
	Amount          float64          `json:"amount"`
	Date            string           `json:"date"`
	PurchasedMovies []PurchasedMovie `json:"purchasedMovies"`
	Status          PaymentStatus    `json:"status"`
}

// Key returns the payment document id.
func (p Payment) Key() string { return p.ID }

// Time parses the payment date.
func (p Payment) Time() time.Time { return ParseTimestamp(p.Date) }
