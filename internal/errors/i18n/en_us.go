package i18n

const (
	codeUnknown                 = "UNKNOWN"
	codePurchaseNotFoundOrUsed  = "PURCHASE_NOT_FOUND_OR_USED"
	codePurchaseAlreadyUsed     = "PURCHASE_ALREADY_USED"
	codeDeliveryUnavailable     = "DELIVERY_UNAVAILABLE"
	codeDeliveryFailed          = "DELIVERY_FAILED"
	codePresenceCheckFailed     = "PRESENCE_CHECK_FAILED"
	codePlayerOffline           = "PLAYER_OFFLINE"
	codePurchaseInvalidID       = "PURCHASE_INVALID_ID"
	codePurchaseEmptySteamID    = "PURCHASE_EMPTY_STEAM_ID"
	codePurchaseInvalidQuantity = "PURCHASE_INVALID_QUANTITY"
	codeShopItemUnavailable     = "SHOP_ITEM_UNAVAILABLE"
)

var enUSCatalog = &Catalog{
	locale: "en-US",
	messages: map[Code]string{
		codeUnknown: "An unexpected error occurred",

		// Fulfillment errors
		codePurchaseNotFoundOrUsed: "Item not found or already used",
		codePurchaseAlreadyUsed:    "Item has already been claimed",
		codeDeliveryUnavailable:    "Item delivery is temporarily unavailable",
		codeDeliveryFailed:         "Could not deliver the item on the server. Try again later.",
		codePresenceCheckFailed:    "Could not verify your online status. Try again later.",
		codePlayerOffline:          "You must be online on the server to receive the item",

		// Validation errors
		codePurchaseInvalidID:       "Invalid purchase ID",
		codePurchaseEmptySteamID:    "Steam ID is required",
		codePurchaseInvalidQuantity: "Quantity must be at least 1",
		codeShopItemUnavailable:     "Item {{.Item}} is not available",
	},
}
