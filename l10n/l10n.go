// Package l10n translates the user facing messages of public share pages.
// Bundles are flat JSON objects mapping the English text to its translation.
package l10n

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bytedance/sonic"
	"golang.org/x/text/language"
)

// Message keys shown to visitors.
const (
	LinkNotWorking    = "Sorry, this link doesn't seem to work anymore."
	PasswordProtected = "This share is password-protected"
	WrongPassword     = "The password is wrong. Try again."
	FileNotFound      = "Sorry, this file could not be found."
	TooManyAttempts   = "Too many attempts, please wait a moment."
	InternalError     = "Something went wrong on our side."
	ReasonsMightBe    = "Reasons might be:"
	ReasonRemoved     = "the item was removed"
	ReasonExpired     = "the link has expired"
	ReasonDisabled    = "sharing is disabled"
	AskSender         = "For more information, please ask the person who has sent you this link."
)

//go:embed bundles/*.json
var embedded embed.FS

// Catalog holds one bundle per language. English is the fallback.
type Catalog struct {
	mu      sync.RWMutex
	tags    []language.Tag
	bundles []map[string]string
	matcher language.Matcher
}

// NewCatalog returns a catalog loaded with the embedded bundles.
func NewCatalog() (*Catalog, error) {
	c := &Catalog{}
	if err := c.add(language.English, map[string]string{}); err != nil {
		return nil, err
	}
	entries, err := embedded.ReadDir("bundles")
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		data, err := embedded.ReadFile("bundles/" + entry.Name())
		if err != nil {
			return nil, err
		}
		if err := c.AddBundle(strings.TrimSuffix(entry.Name(), ".json"), data); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// LoadDir adds every <lang>.json file found in dir, replacing bundles of the same language.
func (c *Catalog) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read language dir: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return err
		}
		if err := c.AddBundle(strings.TrimSuffix(entry.Name(), ".json"), data); err != nil {
			return err
		}
	}
	return nil
}

// AddBundle parses a JSON bundle for lang ("pt_PT", "de", "en-GB", ...).
func (c *Catalog) AddBundle(lang string, data []byte) error {
	tag, err := language.Parse(strings.ReplaceAll(lang, "_", "-"))
	if err != nil {
		return fmt.Errorf("invalid language %q: %w", lang, err)
	}
	var messages map[string]string
	if err := sonic.Unmarshal(data, &messages); err != nil {
		return fmt.Errorf("parse bundle %s: %w", lang, err)
	}
	return c.add(tag, messages)
}

func (c *Catalog) add(tag language.Tag, messages map[string]string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, t := range c.tags {
		if t == tag {
			c.bundles[i] = messages
			return nil
		}
	}
	c.tags = append(c.tags, tag)
	c.bundles = append(c.bundles, messages)
	c.matcher = language.NewMatcher(c.tags)
	return nil
}

// Languages lists the loaded languages, fallback first.
func (c *Catalog) Languages() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.tags))
	for i, t := range c.tags {
		out[i] = t.String()
	}
	return out
}

// Translate picks the best bundle for an Accept-Language header value and
// returns the translation of key, or key itself when none exists.
func (c *Catalog) Translate(acceptLanguage, key string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	prefs, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(prefs) == 0 {
		return c.lookup(0, key)
	}
	_, idx, _ := c.matcher.Match(prefs...)
	return c.lookup(idx, key)
}

func (c *Catalog) lookup(idx int, key string) string {
	if idx >= 0 && idx < len(c.bundles) {
		if msg, ok := c.bundles[idx][key]; ok && msg != "" {
			return msg
		}
	}
	if msg, ok := c.bundles[0][key]; ok && msg != "" {
		return msg
	}
	return key
}
