package errors

import (
	stderrors "errors"

	"github.com/dragonlost/web/internal/errors/i18n"
)

// HandleHTTP converts any error into an HTTP status plus a user-facing
// message formatted for the requested Accept-Language header.
//
// Domain errors map through Code.HTTPStatus and the i18n catalog. Unknown
// errors collapse to 500 with a generic message so internal text never
// reaches clients.
func HandleHTTP(err error, acceptLanguage string) (int, string) {
	catalog := i18n.MatchAcceptLanguage(acceptLanguage)

	var appErr *Error
	if stderrors.As(err, &appErr) {
		msg := catalog.Format(string(appErr.Code), appErr.Metadata)
		return appErr.Code.HTTPStatus(), msg
	}

	return CodeUnknown.HTTPStatus(), catalog.Format(string(CodeUnknown), nil)
}
