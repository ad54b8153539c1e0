// Package errors provides structured error handling with i18n support.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Purchase fulfillment errors
	CodePurchaseNotFoundOrUsed Code = "PURCHASE_NOT_FOUND_OR_USED"
	CodePurchaseAlreadyUsed    Code = "PURCHASE_ALREADY_USED"
	CodeDeliveryUnavailable    Code = "DELIVERY_UNAVAILABLE"
	CodeDeliveryFailed         Code = "DELIVERY_FAILED"
	CodePresenceCheckFailed    Code = "PRESENCE_CHECK_FAILED"
	CodePlayerOffline          Code = "PLAYER_OFFLINE"

	// Purchase validation errors
	CodePurchaseInvalidID       Code = "PURCHASE_INVALID_ID"
	CodePurchaseEmptySteamID    Code = "PURCHASE_EMPTY_STEAM_ID"
	CodePurchaseInvalidQuantity Code = "PURCHASE_INVALID_QUANTITY"
	CodeShopItemUnavailable     Code = "SHOP_ITEM_UNAVAILABLE"
)

// HTTPStatus maps domain codes to HTTP status codes for the web surface.
func (c Code) HTTPStatus() int {
	switch c {
	// NotFound - missing or already-claimed records
	case CodePurchaseNotFoundOrUsed,
		CodeShopItemUnavailable:
		return http.StatusNotFound

	// Conflict - a concurrent winner claimed the record first
	case CodePurchaseAlreadyUsed:
		return http.StatusConflict

	// ServiceUnavailable - the bridge to the game server is not configured
	case CodeDeliveryUnavailable:
		return http.StatusServiceUnavailable

	// BadGateway - the game server did not cooperate; safe to retry
	case CodeDeliveryFailed,
		CodePresenceCheckFailed:
		return http.StatusBadGateway

	// BadRequest - caller input or caller state problems
	case CodePlayerOffline,
		CodePurchaseInvalidID,
		CodePurchaseEmptySteamID,
		CodePurchaseInvalidQuantity:
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}
