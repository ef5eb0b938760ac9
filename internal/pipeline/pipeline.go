// Package pipeline describes, for a set of item types, the directed acyclic
// dependency graph the orchestrator walks when scheduling a job.
package pipeline

import (
	"fmt"

	"github.com/ceelsoin/productify-next-sub000/internal/domain"
)

// Step is one node in a pipeline: an item type, the types whose output it
// consumes, and an optional fixed prompt template.
type Step struct {
	Type           domain.ItemType   `json:"type"`
	DependsOn      []domain.ItemType `json:"depends_on,omitempty"`
	PromptTemplate string            `json:"prompt_template,omitempty"`
}

// Pipeline is an ordered list of steps. Every dependency must appear earlier
// in the list; Validate enforces that before execution starts.
type Pipeline struct {
	Name  string `json:"name"`
	Steps []Step `json:"steps"`
}

// Step returns the step for the given item type, or nil.
func (p *Pipeline) Step(t domain.ItemType) *Step {
	for i := range p.Steps {
		if p.Steps[i].Type == t {
			return &p.Steps[i]
		}
	}
	return nil
}

// DependenciesFor returns the full set of types the given item type may
// depend on. The switch is exhaustive over domain.ItemType so a new type
// cannot ship without declaring its edges.
func DependenciesFor(t domain.ItemType) []domain.ItemType {
	switch t {
	case domain.ItemEnhancedImages:
		return nil
	case domain.ItemViralCopy:
		return nil
	case domain.ItemProductDescription:
		return nil
	case domain.ItemVoiceOver:
		return []domain.ItemType{domain.ItemViralCopy, domain.ItemProductDescription}
	case domain.ItemCaptions:
		return []domain.ItemType{domain.ItemVoiceOver}
	case domain.ItemPromotionalVideo:
		return []domain.ItemType{
			domain.ItemEnhancedImages,
			domain.ItemViralCopy,
			domain.ItemVoiceOver,
			domain.ItemCaptions,
		}
	default:
		return nil
	}
}

// CreateDynamicPipeline derives the narrowest valid pipeline for the concrete
// item types present in a job: each step keeps only the dependency edges whose
// target type is actually requested.
func CreateDynamicPipeline(items []domain.ItemType) *Pipeline {
	present := make(map[domain.ItemType]bool, len(items))
	for _, t := range items {
		present[t] = true
	}

	p := &Pipeline{Name: "dynamic"}
	// Walk the canonical type order so dependencies land before dependents
	// whatever order the job listed its items in.
	for _, t := range domain.AllItemTypes() {
		if !present[t] {
			continue
		}
		step := Step{Type: t}
		for _, dep := range DependenciesFor(t) {
			if present[dep] {
				step.DependsOn = append(step.DependsOn, dep)
			}
		}
		p.Steps = append(p.Steps, step)
	}
	return p
}

// ValidationResult reports whether a pipeline may be executed.
type ValidationResult struct {
	Valid  bool
	Errors []string
}

// Validate walks steps in order accumulating satisfied types; every dependency
// must already be satisfied when its dependent step appears. Forward references
// and cycles both surface as "missing dependency" errors.
func Validate(p *Pipeline) ValidationResult {
	res := ValidationResult{Valid: true}
	if p == nil || len(p.Steps) == 0 {
		return ValidationResult{Valid: false, Errors: []string{"pipeline has no steps"}}
	}

	satisfied := make(map[domain.ItemType]bool, len(p.Steps))
	for i, step := range p.Steps {
		if !step.Type.Valid() {
			res.Errors = append(res.Errors, fmt.Sprintf("step %d: unknown item type %q", i, step.Type))
		}
		if satisfied[step.Type] {
			res.Errors = append(res.Errors, fmt.Sprintf("step %d: duplicate item type %q", i, step.Type))
		}
		for _, dep := range step.DependsOn {
			if !satisfied[dep] {
				res.Errors = append(res.Errors, fmt.Sprintf("step %d (%s): dependency %q not satisfied by an earlier step", i, step.Type, dep))
			}
		}
		satisfied[step.Type] = true
	}
	res.Valid = len(res.Errors) == 0
	return res
}

// staticPipelines are the named templates selectable at job submission.
var staticPipelines = map[string]*Pipeline{
	"full-campaign": {
		Name: "full-campaign",
		Steps: []Step{
			{Type: domain.ItemEnhancedImages},
			{Type: domain.ItemViralCopy, PromptTemplate: "Write a short, high-energy social post selling {{product}}."},
			{Type: domain.ItemVoiceOver, DependsOn: []domain.ItemType{domain.ItemViralCopy}},
			{Type: domain.ItemCaptions, DependsOn: []domain.ItemType{domain.ItemVoiceOver}},
			{Type: domain.ItemPromotionalVideo, DependsOn: []domain.ItemType{
				domain.ItemEnhancedImages,
				domain.ItemViralCopy,
				domain.ItemVoiceOver,
				domain.ItemCaptions,
			}},
		},
	},
	"copy-only": {
		Name: "copy-only",
		Steps: []Step{
			{Type: domain.ItemViralCopy},
			{Type: domain.ItemProductDescription},
		},
	},
}

// GetPipeline returns a named static pipeline, or nil when no such template
// exists.
func GetPipeline(name string) *Pipeline {
	return staticPipelines[name]
}
