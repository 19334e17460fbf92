// Package fewshot keeps the question/answer examples that are injected into
// prompts, grouped by question category.
package fewshot

import (
	"errors"
	"fmt"
	"sync"

	"github.com/toktokhan/chatbot-engine/internal/intent"
)

// ErrUnknownCategory is returned when examples are added under a category
// the registry does not know.
var ErrUnknownCategory = errors.New("unknown example category")

// PerPrompt is the number of examples placed into a single prompt.
const PerPrompt = 2

// Example is one question with its model answer.
type Example struct {
	Question string `json:"question" yaml:"question"`
	Answer   string `json:"answer" yaml:"answer"`
}

// Registry stores examples per category in insertion order. It is safe for
// concurrent use: the admin endpoint adds while requests build prompts.
type Registry struct {
	mu       sync.RWMutex
	examples map[intent.Category][]Example
}

// NewRegistry creates an empty registry with every category registered.
func NewRegistry() *Registry {
	r := &Registry{examples: make(map[intent.Category][]Example, len(intent.Categories))}
	for _, c := range intent.Categories {
		r.examples[c] = nil
	}
	return r
}

// NewDefaultRegistry creates a registry seeded with the built-in examples.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	for c, examples := range defaultExamples {
		r.examples[c] = append([]Example(nil), examples...)
	}
	return r
}

// ExamplesFor returns up to PerPrompt examples for a category.
// Unknown categories fall back to general.
func (r *Registry) ExamplesFor(category intent.Category) []Example {
	r.mu.RLock()
	defer r.mu.RUnlock()

	examples, ok := r.examples[category]
	if !ok {
		examples = r.examples[intent.CategoryGeneral]
	}
	if len(examples) > PerPrompt {
		examples = examples[:PerPrompt]
	}
	return append([]Example(nil), examples...)
}

// Add appends examples to a category. Duplicates are kept.
func (r *Registry) Add(category intent.Category, examples ...Example) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.examples[category]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	r.examples[category] = append(r.examples[category], examples...)
	return nil
}

// Count returns how many examples a category holds.
func (r *Registry) Count(category intent.Category) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.examples[category])
}
