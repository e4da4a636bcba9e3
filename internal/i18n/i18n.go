// internal/i18n/i18n.go
package i18n

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const defaultLang = "en"

type catalog struct {
	mu           sync.RWMutex
	translations map[string]map[string]string
}

var instance *catalog
var once sync.Once

// Initialize loads every *.json locale file under localesPath. The file
// name (minus extension) is the language code.
func Initialize(localesPath string) error {
	var err error
	once.Do(func() {
		instance = &catalog{translations: make(map[string]map[string]string)}
		err = instance.load(localesPath)
	})
	return err
}

func (c *catalog) load(localesPath string) error {
	entries, err := filepath.Glob(filepath.Join(localesPath, "*.json"))
	if err != nil {
		return fmt.Errorf("failed to scan locales directory: %w", err)
	}
	if len(entries) == 0 {
		return fmt.Errorf("no locale files found in %s", localesPath)
	}

	for _, path := range entries {
		lang := strings.TrimSuffix(filepath.Base(path), ".json")

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read locale file %s: %w", path, err)
		}

		var messages map[string]string
		if err := json.Unmarshal(data, &messages); err != nil {
			return fmt.Errorf("failed to parse locale file %s: %w", path, err)
		}

		c.mu.Lock()
		c.translations[lang] = messages
		c.mu.Unlock()
	}

	return nil
}

func (c *catalog) lookup(lang, key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if messages, ok := c.translations[lang]; ok {
		if text, ok := messages[key]; ok {
			return text, true
		}
	}
	return "", false
}

// T resolves a message for the given language, falling back first to the
// default language, then to the key itself.
func T(lang, key string, args ...interface{}) string {
	if instance == nil {
		return key
	}

	text, ok := instance.lookup(lang, key)
	if !ok && lang != defaultLang {
		text, ok = instance.lookup(defaultLang, key)
	}
	if !ok {
		return key
	}

	if len(args) > 0 {
		return fmt.Sprintf(text, args...)
	}
	return text
}

func SupportedLanguages() []string {
	if instance == nil {
		return []string{defaultLang}
	}

	instance.mu.RLock()
	defer instance.mu.RUnlock()

	langs := make([]string, 0, len(instance.translations))
	for lang := range instance.translations {
		langs = append(langs, lang)
	}
	return langs
}
