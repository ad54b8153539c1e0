// Package sqlite provides a SQLite-backed shop storage implementation.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/dragonlost/web/internal/platform/storage/sqlitemigrate"
	"github.com/dragonlost/web/internal/services/shop/storage"
	"github.com/dragonlost/web/internal/services/shop/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store persists shop state in SQLite.
type Store struct {
	sqlDB *sql.DB
}

// busyTimeoutMillis must exceed the longest a claim transaction can hold the
// write lock: two 10s game-server round trips (presence check plus grant)
// with margin. A contender that waits out the winner then observes the row
// as no longer pending instead of surfacing SQLITE_BUSY.
const busyTimeoutMillis = 25000

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

func fromNullMillis(value sql.NullInt64) *time.Time {
	if !value.Valid {
		return nil
	}
	t := fromMillis(value.Int64)
	return &t
}

// Open opens a SQLite shop store and applies embedded migrations.
//
// Transactions start with an immediate lock (_txlock=immediate): SQLite has
// no row-level SELECT FOR UPDATE, so the database write lock is what orders
// concurrent purchase claims.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(%d)&_pragma=synchronous(NORMAL)&_txlock=immediate",
		cleanPath, busyTimeoutMillis)
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// CreateShopItem inserts one catalog entry and returns its id.
func (s *Store) CreateShopItem(ctx context.Context, item storage.ShopItem) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.sqlDB == nil {
		return 0, fmt.Errorf("storage is not configured")
	}
	name := strings.TrimSpace(item.Name)
	itemCode := strings.TrimSpace(item.ItemCode)
	if name == "" {
		return 0, fmt.Errorf("item name is required")
	}
	if itemCode == "" {
		return 0, fmt.Errorf("item code is required")
	}
	if item.Quantity <= 0 {
		return 0, fmt.Errorf("item quantity must be greater than zero")
	}

	res, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO shop_items (name, description, category, item_code, quantity, price, is_available)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		name,
		strings.TrimSpace(item.Description),
		strings.TrimSpace(item.Category),
		itemCode,
		item.Quantity,
		item.Price,
		boolToInt(item.Available),
	)
	if err != nil {
		return 0, fmt.Errorf("create shop item: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create shop item id: %w", err)
	}
	return id, nil
}

// CreatePurchase records count units of the catalog item as one pending
// purchase for the player. The stored quantity is the item's per-unit grant
// multiplied by count.
func (s *Store) CreatePurchase(ctx context.Context, steamID string, shopItemID int64, count int) (storage.Purchase, error) {
	if err := ctx.Err(); err != nil {
		return storage.Purchase{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.Purchase{}, fmt.Errorf("storage is not configured")
	}
	steamID = strings.TrimSpace(steamID)
	if steamID == "" {
		return storage.Purchase{}, fmt.Errorf("steam id is required")
	}
	if count <= 0 {
		return storage.Purchase{}, fmt.Errorf("count must be greater than zero")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return storage.Purchase{}, fmt.Errorf("begin purchase: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var item storage.ShopItem
	var available int
	err = tx.QueryRowContext(
		ctx,
		`SELECT id, name, item_code, quantity, is_available
		   FROM shop_items
		  WHERE id = ?`,
		shopItemID,
	).Scan(&item.ID, &item.Name, &item.ItemCode, &item.Quantity, &available)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Purchase{}, storage.ErrItemUnavailable
		}
		return storage.Purchase{}, fmt.Errorf("load shop item: %w", err)
	}
	if available == 0 {
		return storage.Purchase{}, storage.ErrItemUnavailable
	}

	purchasedAt := time.Now().UTC()
	quantity := item.Quantity * count
	res, err := tx.ExecContext(
		ctx,
		`INSERT INTO purchases (steam_id, shop_item_id, quantity, status, purchased_at)
		 VALUES (?, ?, ?, ?, ?)`,
		steamID,
		item.ID,
		quantity,
		string(storage.StatusPending),
		toMillis(purchasedAt),
	)
	if err != nil {
		return storage.Purchase{}, fmt.Errorf("create purchase: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return storage.Purchase{}, fmt.Errorf("create purchase id: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return storage.Purchase{}, fmt.Errorf("commit purchase: %w", err)
	}

	return storage.Purchase{
		ID:          id,
		SteamID:     steamID,
		ShopItemID:  item.ID,
		ItemName:    item.Name,
		ItemCode:    item.ItemCode,
		Quantity:    quantity,
		Status:      storage.StatusPending,
		PurchasedAt: purchasedAt,
	}, nil
}

const purchaseColumns = `p.id, p.steam_id, p.shop_item_id, si.name, si.item_code,
        p.quantity, p.status, p.purchased_at, p.delivered_at`

func scanPurchase(row *sql.Row) (storage.Purchase, error) {
	var p storage.Purchase
	var status string
	var purchasedAt int64
	var deliveredAt sql.NullInt64
	err := row.Scan(
		&p.ID,
		&p.SteamID,
		&p.ShopItemID,
		&p.ItemName,
		&p.ItemCode,
		&p.Quantity,
		&status,
		&purchasedAt,
		&deliveredAt,
	)
	if err != nil {
		return storage.Purchase{}, err
	}
	p.Status = storage.PurchaseStatus(status)
	p.PurchasedAt = fromMillis(purchasedAt)
	p.DeliveredAt = fromNullMillis(deliveredAt)
	return p, nil
}

// GetPurchase returns one purchase with its catalog fields.
func (s *Store) GetPurchase(ctx context.Context, id int64) (storage.Purchase, error) {
	if err := ctx.Err(); err != nil {
		return storage.Purchase{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.Purchase{}, fmt.Errorf("storage is not configured")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT `+purchaseColumns+`
		   FROM purchases p
		   JOIN shop_items si ON si.id = p.shop_item_id
		  WHERE p.id = ?`,
		id,
	)
	p, err := scanPurchase(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Purchase{}, storage.ErrNotFound
		}
		return storage.Purchase{}, fmt.Errorf("get purchase: %w", err)
	}
	return p, nil
}

// ClaimPending opens the claim transaction for a pending purchase.
//
// The transaction takes the database write lock immediately, so a concurrent
// claim for the same purchase blocks here until this one commits or rolls
// back, then observes the row as no longer pending.
func (s *Store) ClaimPending(ctx context.Context, purchaseID int64, steamID string) (storage.PurchaseClaim, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	steamID = strings.TrimSpace(steamID)
	if steamID == "" {
		return nil, fmt.Errorf("steam id is required")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin claim: %w", err)
	}

	row := tx.QueryRowContext(
		ctx,
		`SELECT `+purchaseColumns+`
		   FROM purchases p
		   JOIN shop_items si ON si.id = p.shop_item_id
		  WHERE p.id = ? AND p.steam_id = ? AND p.status = ?`,
		purchaseID,
		steamID,
		string(storage.StatusPending),
	)
	p, err := scanPurchase(row)
	if err != nil {
		_ = tx.Rollback()
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("claim purchase: %w", err)
	}

	return &purchaseClaim{tx: tx, purchase: p}, nil
}

type purchaseClaim struct {
	tx       *sql.Tx
	purchase storage.Purchase
}

func (c *purchaseClaim) Purchase() storage.Purchase {
	return c.purchase
}

func (c *purchaseClaim) MarkDelivered(ctx context.Context, at time.Time) error {
	at = at.UTC()
	res, err := c.tx.ExecContext(
		ctx,
		`UPDATE purchases
		    SET status = ?, delivered_at = ?
		  WHERE id = ? AND status = ?`,
		string(storage.StatusDelivered),
		toMillis(at),
		c.purchase.ID,
		string(storage.StatusPending),
	)
	if err != nil {
		return fmt.Errorf("mark delivered: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark delivered rows: %w", err)
	}
	if affected == 0 {
		return storage.ErrAlreadyDelivered
	}
	c.purchase.Status = storage.StatusDelivered
	c.purchase.DeliveredAt = &at
	return nil
}

func (c *purchaseClaim) Commit() error {
	return c.tx.Commit()
}

func (c *purchaseClaim) Rollback() error {
	if err := c.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

var _ storage.PurchaseStore = (*Store)(nil)
