// Package itemcfg holds the per-item-type configuration contracts carried in
// JobItem.Config. Each config knows how to normalize itself to server defaults
// and validate before the job is accepted.
package itemcfg

import (
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/language"

	"github.com/ceelsoin/productify-next-sub000/internal/domain"
)

const (
	DefaultLocale      = "en"
	DefaultAspectRatio = "1:1"
	DefaultImageCount  = 4
	MaxImageCount      = 8
	DefaultVideoLength = 15
	MaxVideoLength     = 60
	DefaultVoiceName   = "narrator-f1"
)

var allowedAspectRatios = map[string]struct{}{
	"1:1":  {},
	"4:3":  {},
	"3:4":  {},
	"16:9": {},
	"9:16": {},
}

// EnhancedImagesConfig configures the enhanced-images item.
type EnhancedImagesConfig struct {
	Count       int      `json:"count"`
	AspectRatio string   `json:"aspect_ratio"`
	Style       string   `json:"style"`
	Background  string   `json:"background"`
	References  []string `json:"references,omitempty"`
}

func (c *EnhancedImagesConfig) Normalize() {
	if c.Count <= 0 {
		c.Count = DefaultImageCount
	}
	if c.Count > MaxImageCount {
		c.Count = MaxImageCount
	}
	if c.AspectRatio == "" {
		c.AspectRatio = DefaultAspectRatio
	}
}

func (c EnhancedImagesConfig) Validate() error {
	if _, ok := allowedAspectRatios[c.AspectRatio]; !ok {
		return fmt.Errorf("%w: aspect_ratio %q not supported", domain.ErrInvalidItemConfig, c.AspectRatio)
	}
	return nil
}

// CopyConfig configures the viral-copy and product-description items.
type CopyConfig struct {
	Tone     string `json:"tone"`
	Locale   string `json:"locale"`
	MaxWords int    `json:"max_words,omitempty"`
}

func (c *CopyConfig) Normalize() {
	if c.Tone == "" {
		c.Tone = "energetic"
	}
	c.Locale = normalizeLocale(c.Locale)
}

func (c CopyConfig) Validate() error {
	return validateLocale(c.Locale)
}

// VoiceOverConfig configures the voice-over item.
type VoiceOverConfig struct {
	Voice  string  `json:"voice"`
	Locale string  `json:"locale"`
	Speed  float64 `json:"speed,omitempty"`
}

func (c *VoiceOverConfig) Normalize() {
	if c.Voice == "" {
		c.Voice = DefaultVoiceName
	}
	if c.Speed <= 0 {
		c.Speed = 1.0
	}
	c.Locale = normalizeLocale(c.Locale)
}

func (c VoiceOverConfig) Validate() error {
	if c.Speed < 0.5 || c.Speed > 2.0 {
		return fmt.Errorf("%w: speed %.2f out of range [0.5, 2.0]", domain.ErrInvalidItemConfig, c.Speed)
	}
	return validateLocale(c.Locale)
}

// CaptionsConfig configures the captions item.
type CaptionsConfig struct {
	Format string `json:"format"` // "srt" or "vtt"
	Locale string `json:"locale"`
}

func (c *CaptionsConfig) Normalize() {
	if c.Format == "" {
		c.Format = "srt"
	}
	c.Locale = normalizeLocale(c.Locale)
}

func (c CaptionsConfig) Validate() error {
	switch c.Format {
	case "srt", "vtt":
	default:
		return fmt.Errorf("%w: caption format %q not supported", domain.ErrInvalidItemConfig, c.Format)
	}
	return validateLocale(c.Locale)
}

// VideoConfig configures the promotional-video item.
type VideoConfig struct {
	LengthSeconds int    `json:"length_seconds"`
	AspectRatio   string `json:"aspect_ratio"`
	Music         string `json:"music,omitempty"`
}

func (c *VideoConfig) Normalize() {
	if c.LengthSeconds <= 0 {
		c.LengthSeconds = DefaultVideoLength
	}
	if c.LengthSeconds > MaxVideoLength {
		c.LengthSeconds = MaxVideoLength
	}
	if c.AspectRatio == "" {
		c.AspectRatio = "9:16"
	}
}

func (c VideoConfig) Validate() error {
	if _, ok := allowedAspectRatios[c.AspectRatio]; !ok {
		return fmt.Errorf("%w: aspect_ratio %q not supported", domain.ErrInvalidItemConfig, c.AspectRatio)
	}
	return nil
}

// NormalizeAndValidate decodes, normalizes, validates, and re-encodes the raw
// config for the given item type. Empty raw config yields the type defaults.
// The switch is exhaustive over domain.ItemType.
func NormalizeAndValidate(t domain.ItemType, raw json.RawMessage) (json.RawMessage, error) {
	switch t {
	case domain.ItemEnhancedImages:
		var c EnhancedImagesConfig
		return roundTrip(raw, &c, c.Normalize, func() error { return c.Validate() })
	case domain.ItemViralCopy, domain.ItemProductDescription:
		var c CopyConfig
		return roundTrip(raw, &c, c.Normalize, func() error { return c.Validate() })
	case domain.ItemVoiceOver:
		var c VoiceOverConfig
		return roundTrip(raw, &c, c.Normalize, func() error { return c.Validate() })
	case domain.ItemCaptions:
		var c CaptionsConfig
		return roundTrip(raw, &c, c.Normalize, func() error { return c.Validate() })
	case domain.ItemPromotionalVideo:
		var c VideoConfig
		return roundTrip(raw, &c, c.Normalize, func() error { return c.Validate() })
	default:
		return nil, fmt.Errorf("%w: unknown item type %q", domain.ErrInvalidItemConfig, t)
	}
}

func roundTrip(raw json.RawMessage, dst any, normalize func(), validate func() error) (json.RawMessage, error) {
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, dst); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidItemConfig, err)
		}
	}
	normalize()
	if err := validate(); err != nil {
		return nil, err
	}
	out, err := json.Marshal(dst)
	if err != nil {
		return nil, fmt.Errorf("encode item config: %w", err)
	}
	return out, nil
}

func normalizeLocale(locale string) string {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		return DefaultLocale
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return locale // leave as-is; Validate reports it
	}
	return tag.String()
}

func validateLocale(locale string) error {
	if _, err := language.Parse(locale); err != nil {
		return fmt.Errorf("%w: locale %q: %v", domain.ErrInvalidItemConfig, locale, err)
	}
	return nil
}
