// Package storage defines persistence contracts for shop purchase state.
package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound indicates a requested record is missing or, for claims,
	// no longer pending.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyDelivered indicates the status flip found the purchase no
	// longer pending.
	ErrAlreadyDelivered = errors.New("purchase already delivered")
	// ErrItemUnavailable indicates the shop item is missing or disabled.
	ErrItemUnavailable = errors.New("shop item unavailable")
)

// PurchaseStatus is the delivery state of a purchase. The transition is
// monotonic: pending becomes delivered exactly once and never reverses.
type PurchaseStatus string

const (
	// StatusPending means the purchase has been paid for but not delivered.
	StatusPending PurchaseStatus = "pending"
	// StatusDelivered means the item has been granted in game.
	StatusDelivered PurchaseStatus = "delivered"
)

// ShopItem is one catalog entry deliverable on the game server.
type ShopItem struct {
	ID          int64
	Name        string
	Description string
	Category    string
	ItemCode    string // game item shortname, e.g. rifle.ak
	Quantity    int    // units granted per purchased unit
	Price       int64
	Available   bool
}

// Purchase is one purchased item awaiting or past delivery. ItemName and
// ItemCode are denormalized from the catalog on read.
type Purchase struct {
	ID          int64
	SteamID     string
	ShopItemID  int64
	ItemName    string
	ItemCode    string
	Quantity    int
	Status      PurchaseStatus
	PurchasedAt time.Time
	DeliveredAt *time.Time
}

// PurchaseClaim is one open transaction holding the exclusive lock on a
// pending purchase. Exactly one of Commit or Rollback must conclude it;
// Rollback after Commit is a safe no-op so callers can defer it.
type PurchaseClaim interface {
	// Purchase returns the claimed record as selected under the lock.
	Purchase() Purchase
	// MarkDelivered flips the record to delivered, re-asserting that it is
	// still pending. Returns ErrAlreadyDelivered if zero rows changed.
	MarkDelivered(ctx context.Context, at time.Time) error
	Commit() error
	Rollback() error
}

// PurchaseStore persists shop items and purchases.
type PurchaseStore interface {
	CreateShopItem(ctx context.Context, item ShopItem) (int64, error)
	CreatePurchase(ctx context.Context, steamID string, shopItemID int64, count int) (Purchase, error)
	GetPurchase(ctx context.Context, id int64) (Purchase, error)
	// ClaimPending selects the pending purchase for that id and owner under
	// an exclusive lock. ErrNotFound covers both nonexistence and a
	// concurrent winner having already claimed it.
	ClaimPending(ctx context.Context, purchaseID int64, steamID string) (PurchaseClaim, error)
}
