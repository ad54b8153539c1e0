package i18n

var ruRUCatalog = &Catalog{
	locale: "ru-RU",
	messages: map[Code]string{
		codeUnknown: "Произошла непредвиденная ошибка",

		// Fulfillment errors
		codePurchaseNotFoundOrUsed: "Предмет не найден или уже получен",
		codePurchaseAlreadyUsed:    "Предмет уже был получен",
		codeDeliveryUnavailable:    "Выдача предметов временно недоступна",
		codeDeliveryFailed:         "Не удалось выдать предмет на сервере. Попробуйте позже.",
		codePresenceCheckFailed:    "Не удалось проверить онлайн-статус. Попробуйте позже.",
		codePlayerOffline:          "Вы должны быть онлайн на сервере, чтобы получить предмет",

		// Validation errors
		codePurchaseInvalidID:       "Некорректный идентификатор покупки",
		codePurchaseEmptySteamID:    "Steam ID обязателен",
		codePurchaseInvalidQuantity: "Количество должно быть не меньше 1",
		codeShopItemUnavailable:     "Предмет {{.Item}} недоступен",
	},
}
