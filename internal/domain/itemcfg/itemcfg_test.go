package itemcfg

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/ceelsoin/productify-next-sub000/internal/domain"
)

func TestNormalizeAndValidateAppliesDefaults(t *testing.T) {
	raw, err := NormalizeAndValidate(domain.ItemEnhancedImages, nil)
	if err != nil {
		t.Fatalf("NormalizeAndValidate returned error: %v", err)
	}
	var c EnhancedImagesConfig
	if err := json.Unmarshal(raw, &c); err != nil {
		t.Fatalf("unmarshal normalized config: %v", err)
	}
	if c.Count != DefaultImageCount {
		t.Fatalf("Count = %d, want %d", c.Count, DefaultImageCount)
	}
	if c.AspectRatio != DefaultAspectRatio {
		t.Fatalf("AspectRatio = %q, want %q", c.AspectRatio, DefaultAspectRatio)
	}
}

func TestNormalizeAndValidateCapsImageCount(t *testing.T) {
	raw, err := NormalizeAndValidate(domain.ItemEnhancedImages, json.RawMessage(`{"count": 50}`))
	if err != nil {
		t.Fatalf("NormalizeAndValidate returned error: %v", err)
	}
	var c EnhancedImagesConfig
	if err := json.Unmarshal(raw, &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if c.Count != MaxImageCount {
		t.Fatalf("Count = %d, want capped at %d", c.Count, MaxImageCount)
	}
}

func TestNormalizeAndValidateRejectsBadAspectRatio(t *testing.T) {
	_, err := NormalizeAndValidate(domain.ItemEnhancedImages, json.RawMessage(`{"aspect_ratio": "2:1"}`))
	if !errors.Is(err, domain.ErrInvalidItemConfig) {
		t.Fatalf("error = %v, want ErrInvalidItemConfig", err)
	}
}

func TestCopyConfigNormalizesLocale(t *testing.T) {
	raw, err := NormalizeAndValidate(domain.ItemViralCopy, json.RawMessage(`{"locale": "PT-br"}`))
	if err != nil {
		t.Fatalf("NormalizeAndValidate returned error: %v", err)
	}
	var c CopyConfig
	if err := json.Unmarshal(raw, &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if c.Locale != "pt-BR" {
		t.Fatalf("Locale = %q, want pt-BR", c.Locale)
	}
	if c.Tone != "energetic" {
		t.Fatalf("Tone = %q, want default", c.Tone)
	}
}

func TestCopyConfigRejectsBadLocale(t *testing.T) {
	_, err := NormalizeAndValidate(domain.ItemViralCopy, json.RawMessage(`{"locale": "no_such_locale!"}`))
	if !errors.Is(err, domain.ErrInvalidItemConfig) {
		t.Fatalf("error = %v, want ErrInvalidItemConfig", err)
	}
}

func TestVoiceOverConfigSpeedBounds(t *testing.T) {
	if _, err := NormalizeAndValidate(domain.ItemVoiceOver, json.RawMessage(`{"speed": 3.0}`)); !errors.Is(err, domain.ErrInvalidItemConfig) {
		t.Fatalf("speed 3.0 error = %v, want ErrInvalidItemConfig", err)
	}

	raw, err := NormalizeAndValidate(domain.ItemVoiceOver, nil)
	if err != nil {
		t.Fatalf("NormalizeAndValidate returned error: %v", err)
	}
	var c VoiceOverConfig
	if err := json.Unmarshal(raw, &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if c.Speed != 1.0 {
		t.Fatalf("Speed = %v, want 1.0", c.Speed)
	}
	if c.Voice != DefaultVoiceName {
		t.Fatalf("Voice = %q, want %q", c.Voice, DefaultVoiceName)
	}
}

func TestCaptionsConfigFormat(t *testing.T) {
	raw, err := NormalizeAndValidate(domain.ItemCaptions, nil)
	if err != nil {
		t.Fatalf("NormalizeAndValidate returned error: %v", err)
	}
	var c CaptionsConfig
	if err := json.Unmarshal(raw, &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if c.Format != "srt" {
		t.Fatalf("Format = %q, want srt", c.Format)
	}

	if _, err := NormalizeAndValidate(domain.ItemCaptions, json.RawMessage(`{"format": "ass"}`)); !errors.Is(err, domain.ErrInvalidItemConfig) {
		t.Fatalf("format ass error = %v, want ErrInvalidItemConfig", err)
	}
}

func TestVideoConfigCapsLength(t *testing.T) {
	raw, err := NormalizeAndValidate(domain.ItemPromotionalVideo, json.RawMessage(`{"length_seconds": 600}`))
	if err != nil {
		t.Fatalf("NormalizeAndValidate returned error: %v", err)
	}
	var c VideoConfig
	if err := json.Unmarshal(raw, &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if c.LengthSeconds != MaxVideoLength {
		t.Fatalf("LengthSeconds = %d, want capped at %d", c.LengthSeconds, MaxVideoLength)
	}
	if c.AspectRatio != "9:16" {
		t.Fatalf("AspectRatio = %q, want 9:16", c.AspectRatio)
	}
}

func TestNormalizeAndValidateRejectsUnknownType(t *testing.T) {
	if _, err := NormalizeAndValidate("hologram", nil); !errors.Is(err, domain.ErrInvalidItemConfig) {
		t.Fatalf("error = %v, want ErrInvalidItemConfig", err)
	}
}

func TestNormalizeAndValidateRejectsMalformedJSON(t *testing.T) {
	if _, err := NormalizeAndValidate(domain.ItemViralCopy, json.RawMessage(`{`)); !errors.Is(err, domain.ErrInvalidItemConfig) {
		t.Fatalf("error = %v, want ErrInvalidItemConfig", err)
	}
}
