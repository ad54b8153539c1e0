// Package app composes shop purchase fulfillment and its web surface.
package app

import (
	"context"
	"errors"
	"log"
	"time"

	apperrors "github.com/dragonlost/web/internal/errors"
	"github.com/dragonlost/web/internal/services/shop/storage"
	"go.opentelemetry.io/otel/trace"
)

// GameClient is the slice of the RCON client the coordinator needs. It is an
// interface so tests can fulfill purchases against a fake game server.
type GameClient interface {
	Configured() bool
	PlayerOnline(ctx context.Context, steamID string) (bool, error)
	GiveItem(ctx context.Context, steamID, itemCode string, quantity int) (string, error)
}

// Delivery describes one successfully delivered purchase.
type Delivery struct {
	ItemName string
	ItemCode string
	Quantity int
}

// Coordinator moves purchases from pending to delivered, at most once each.
//
// The claim transaction's lock is held across the whole game-server round
// trip. Concurrent fulfillment of the same purchase serializes behind the
// lock and then finds the record no longer pending.
type Coordinator struct {
	store storage.PurchaseStore
	game  GameClient
	now   func() time.Time
}

// NewCoordinator wires the coordinator to its store and game client.
func NewCoordinator(store storage.PurchaseStore, game GameClient) *Coordinator {
	return &Coordinator{
		store: store,
		game:  game,
		now:   time.Now,
	}
}

// FulfillPurchase verifies the player is on the game server, grants the
// purchased item, and flips the record to delivered inside one claim
// transaction. Every failure exit rolls the claim back, leaving the record
// pending and the operation safe to retry.
func (c *Coordinator) FulfillPurchase(ctx context.Context, purchaseID int64, steamID string) (Delivery, error) {
	if purchaseID < 1 {
		return Delivery{}, apperrors.New(apperrors.CodePurchaseInvalidID, "purchase id must be positive")
	}
	if steamID == "" {
		return Delivery{}, apperrors.New(apperrors.CodePurchaseEmptySteamID, "steam id is required")
	}

	claim, err := c.store.ClaimPending(ctx, purchaseID, steamID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Delivery{}, apperrors.New(apperrors.CodePurchaseNotFoundOrUsed, "purchase not found or already used")
		}
		return Delivery{}, apperrors.Wrap(apperrors.CodeUnknown, "claim purchase", err)
	}
	// Rollback on every exit; a no-op once the claim has committed.
	defer func() {
		_ = claim.Rollback()
	}()

	if !c.game.Configured() {
		return Delivery{}, apperrors.New(apperrors.CodeDeliveryUnavailable, "rcon bridge is not configured")
	}

	record := claim.Purchase()

	online, err := c.game.PlayerOnline(ctx, steamID)
	if err != nil {
		return Delivery{}, apperrors.Wrap(apperrors.CodePresenceCheckFailed, "presence check failed", err)
	}
	if !online {
		return Delivery{}, apperrors.New(apperrors.CodePlayerOffline, "player is not on the game server")
	}

	if _, err := c.game.GiveItem(ctx, steamID, record.ItemCode, record.Quantity); err != nil {
		// The claim rolls back, so the record stays pending and a retried
		// request can attempt delivery again.
		return Delivery{}, apperrors.Wrap(apperrors.CodeDeliveryFailed, "item grant failed", err)
	}

	if err := claim.MarkDelivered(ctx, c.now()); err != nil {
		if errors.Is(err, storage.ErrAlreadyDelivered) {
			return Delivery{}, apperrors.New(apperrors.CodePurchaseAlreadyUsed, "purchase already delivered")
		}
		return Delivery{}, apperrors.Wrap(apperrors.CodeUnknown, "mark delivered", err)
	}
	if err := claim.Commit(); err != nil {
		return Delivery{}, apperrors.Wrap(apperrors.CodeUnknown, "commit delivery", err)
	}

	if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
		log.Printf("shop: delivered purchase id=%d item=%s qty=%d steam_id=%s trace_id=%s",
			record.ID, record.ItemCode, record.Quantity, steamID, sc.TraceID())
	} else {
		log.Printf("shop: delivered purchase id=%d item=%s qty=%d steam_id=%s",
			record.ID, record.ItemCode, record.Quantity, steamID)
	}

	return Delivery{
		ItemName: record.ItemName,
		ItemCode: record.ItemCode,
		Quantity: record.Quantity,
	}, nil
}
