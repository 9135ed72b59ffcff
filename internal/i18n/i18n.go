// Package i18n holds the user-facing message catalog.
package i18n

import (
	"fmt"
	"sync"
)

// DefaultLanguage is used when no language is configured.
const DefaultLanguage = "uz"

var (
	mu      sync.RWMutex
	current = DefaultLanguage
)

// SetLanguage selects the active catalog. Unknown languages fall back to
// the default one and report false.
func SetLanguage(lang string) bool {
	mu.Lock()
	defer mu.Unlock()

	if _, ok := catalogs[lang]; !ok {
		current = DefaultLanguage
		return false
	}
	current = lang
	return true
}

// Language returns the active language code.
func Language() string {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// Languages lists the available catalogs.
func Languages() []string {
	return []string{"uz", "ru", "en"}
}

// T translates key with the active catalog. Missing keys fall back to the
// English catalog and finally to the key itself.
func T(key string, args ...interface{}) string {
	mu.RLock()
	lang := current
	mu.RUnlock()

	msg, ok := catalogs[lang][key]
	if !ok {
		msg, ok = catalogs["en"][key]
	}
	if !ok {
		return key
	}
	if len(args) > 0 {
		return fmt.Sprintf(msg, args...)
	}
	return msg
}

// Has reports whether key exists in the active catalog or the fallback.
func Has(key string) bool {
	mu.RLock()
	lang := current
	mu.RUnlock()

	if _, ok := catalogs[lang][key]; ok {
		return true
	}
	_, ok := catalogs["en"][key]
	return ok
}
