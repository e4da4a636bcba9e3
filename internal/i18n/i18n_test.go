// internal/i18n/i18n_test.go
package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allKeys = []string{
	KeySuccess, KeyError,
	KeyAuthRequired, KeyAuthInvalidToken, KeyAuthTokenExpired,
	KeyAuthInvalidCredentials, KeyAuthUserExists, KeyAuthLoginSuccess,
	KeyAuthLogoutSuccess, KeyAuthRegisterSuccess,
	KeyUserProfileUpdated, KeyUserNotFound, KeyUserSuspended,
	KeyProductCreated, KeyProductUpdated, KeyProductDeleted,
	KeyProductNotFound, KeyProductUnavailable, KeyProductSold,
	KeyProductBorrowed,
	KeyRequestSent, KeyRequestOwnProduct, KeyRequestApproved,
	KeyRequestRejected, KeyRequestProcessed, KeyRequestNotYours,
	KeyNotificationNotFound,
	KeyValidationRequired, KeyValidationInvalid,
	KeyFileUploadSuccess, KeyFileUploadFailed, KeyFileInvalidType,
	KeyFileTooLarge,
}

func TestCatalogCompleteness(t *testing.T) {
	require.NoError(t, Initialize("locales"))

	langs := SupportedLanguages()
	require.Contains(t, langs, "en")
	require.Contains(t, langs, "hi")

	// Every key must resolve in every shipped language without falling
	// back to English or the raw key
	for _, lang := range langs {
		for _, key := range allKeys {
			text, ok := instance.lookup(lang, key)
			assert.Truef(t, ok, "language %q is missing key %q", lang, key)
			assert.NotEmptyf(t, text, "language %q has an empty message for %q", lang, key)
		}
	}
}

func TestTranslationFallback(t *testing.T) {
	require.NoError(t, Initialize("locales"))

	// Unknown language falls back to the default catalog
	assert.Equal(t, T("en", KeyProductNotFound), T("xx", KeyProductNotFound))

	// Unknown key falls back to the key itself
	assert.Equal(t, "no.such.key", T("hi", "no.such.key"))

	// Formatting arguments are applied to the resolved message
	assert.Contains(t, T("en", KeyRequestSent, "buy"), "buy")
}
