package pipeline

import (
	"testing"

	"github.com/ceelsoin/productify-next-sub000/internal/domain"
)

func TestValidateAcceptsFullCampaign(t *testing.T) {
	p := GetPipeline("full-campaign")
	if p == nil {
		t.Fatal("full-campaign pipeline missing")
	}
	res := Validate(p)
	if !res.Valid {
		t.Fatalf("full-campaign invalid: %v", res.Errors)
	}
}

func TestValidateRejectsForwardReference(t *testing.T) {
	p := &Pipeline{
		Name: "forward",
		Steps: []Step{
			{Type: domain.ItemVoiceOver, DependsOn: []domain.ItemType{domain.ItemViralCopy}},
			{Type: domain.ItemViralCopy},
		},
	}
	res := Validate(p)
	if res.Valid {
		t.Fatal("forward reference accepted")
	}
}

func TestValidateRejectsUnknownType(t *testing.T) {
	p := &Pipeline{Name: "bad", Steps: []Step{{Type: "hologram"}}}
	if res := Validate(p); res.Valid {
		t.Fatal("unknown item type accepted")
	}
}

func TestValidateRejectsDuplicateType(t *testing.T) {
	p := &Pipeline{
		Name: "dup",
		Steps: []Step{
			{Type: domain.ItemViralCopy},
			{Type: domain.ItemViralCopy},
		},
	}
	if res := Validate(p); res.Valid {
		t.Fatal("duplicate item type accepted")
	}
}

func TestValidateRejectsEmptyPipeline(t *testing.T) {
	if res := Validate(&Pipeline{Name: "empty"}); res.Valid {
		t.Fatal("empty pipeline accepted")
	}
}

func TestCreateDynamicPipelineNarrowsDependencies(t *testing.T) {
	// Without viral-copy or product-description, voice-over has no deps left;
	// the video step keeps only the edges to present types.
	p := CreateDynamicPipeline([]domain.ItemType{
		domain.ItemVoiceOver,
		domain.ItemPromotionalVideo,
		domain.ItemEnhancedImages,
	})

	if res := Validate(p); !res.Valid {
		t.Fatalf("dynamic pipeline invalid: %v", res.Errors)
	}

	voice := p.Step(domain.ItemVoiceOver)
	if voice == nil {
		t.Fatal("voice-over step missing")
	}
	if len(voice.DependsOn) != 0 {
		t.Fatalf("voice-over deps = %v, want none", voice.DependsOn)
	}

	video := p.Step(domain.ItemPromotionalVideo)
	if video == nil {
		t.Fatal("promotional-video step missing")
	}
	want := map[domain.ItemType]bool{domain.ItemEnhancedImages: true, domain.ItemVoiceOver: true}
	if len(video.DependsOn) != len(want) {
		t.Fatalf("video deps = %v, want %v", video.DependsOn, want)
	}
	for _, dep := range video.DependsOn {
		if !want[dep] {
			t.Fatalf("video kept dep %v to an absent type", dep)
		}
	}
}

func TestCreateDynamicPipelineOrdersDependenciesFirst(t *testing.T) {
	// Item order at submission must not matter.
	p := CreateDynamicPipeline([]domain.ItemType{
		domain.ItemVoiceOver,
		domain.ItemViralCopy,
	})
	if res := Validate(p); !res.Valid {
		t.Fatalf("dynamic pipeline invalid: %v", res.Errors)
	}
	if p.Steps[0].Type != domain.ItemViralCopy {
		t.Fatalf("first step = %v, want viral-copy before its dependent", p.Steps[0].Type)
	}
}

func TestGetPipelineUnknownName(t *testing.T) {
	if p := GetPipeline("no-such-pipeline"); p != nil {
		t.Fatalf("GetPipeline returned %v for unknown name", p.Name)
	}
}
