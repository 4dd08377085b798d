package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus represents lifecycle states for an order. Transitions are
// monotonic: an order never moves back to an earlier state, and cancelled
// is terminal.
type OrderStatus string

const (
	OrderStatusCreated    OrderStatus = "created"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

var orderStatusRank = map[OrderStatus]int{
	OrderStatusCreated:    1,
	OrderStatusProcessing: 2,
	OrderStatusCompleted:  3,
	OrderStatusCancelled:  3,
}

// ValidOrderStatus reports whether s is a known status.
func ValidOrderStatus(s OrderStatus) bool {
	_, ok := orderStatusRank[s]
	return ok
}

// CanTransition reports whether an order may move from one status to another.
// Equal statuses are allowed (idempotent updates); rollbacks are not, and
// terminal states admit no further changes.
func CanTransition(from, to OrderStatus) bool {
	fromRank, ok := orderStatusRank[from]
	if !ok {
		return false
	}
	toRank, ok := orderStatusRank[to]
	if !ok {
		return false
	}
	if from == to {
		return true
	}
	if from == OrderStatusCompleted || from == OrderStatusCancelled {
		return false
	}
	return toRank > fromRank
}

// Order is a placed customer order. ProductIDs preserves the submitted
// basket order and may contain the same product more than once; each
// occurrence contributes its price to TotalAmount.
type Order struct {
	ID          string
	OrderNumber int64
	CustomerID  string
	ProductIDs  []string
	TotalAmount decimal.Decimal
	Status      OrderStatus
	Address     string
	Payment     string
	Email       string
	Phone       string
	Comment     string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Resolved references, populated by read paths.
	Customer *User
	Products []Product
}
