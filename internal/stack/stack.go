// Package stack holds the selection state of one stack-building session.
//
// A Stack is owned by a single caller and is not safe for concurrent use;
// callers that share one across goroutines serialize access themselves.
package stack

import (
	"errors"
	"fmt"

	"gridstack/internal/compat"
	"gridstack/internal/models"
)

var (
	// ErrNoUseCase is returned when a selection is made before a use case is
	// installed.
	ErrNoUseCase = errors.New("no use case installed")
	// ErrUnknownCategory is returned when a selection names a category the
	// installed use case does not define.
	ErrUnknownCategory = errors.New("unknown category")
)

// Selection is one chosen product and the category it fills.
type Selection struct {
	Category string         `json:"category"`
	Product  models.Product `json:"product"`
}

// Stack tracks the installed use case, the product chosen per category, the
// category cursor and the last computed compatibility results.
type Stack struct {
	useCase       *models.UseCaseTemplate
	order         []string
	selected      map[string]models.Product
	categoryIndex int
	compatibility []models.CompatibilityResult
}

// New returns an empty stack with no use case installed.
func New() *Stack {
	s := &Stack{}
	s.Reset()
	return s
}

// SetUseCase installs template and clears every selection, the cursor and
// the compatibility results.
func (s *Stack) SetUseCase(template models.UseCaseTemplate) {
	installed := template.Clone()
	s.useCase = &installed
	s.clearSelections()
}

// AddProduct selects product for category, replacing any earlier choice. A
// replaced category keeps its original position in the selection order.
// Nothing is written when the category is not part of the installed use case.
func (s *Stack) AddProduct(category string, product models.Product) error {
	if s.useCase == nil {
		return ErrNoUseCase
	}
	if _, ok := s.useCase.Category(category); !ok {
		return fmt.Errorf("%w: %q is not in use case %q", ErrUnknownCategory, category, s.useCase.ID)
	}
	if _, exists := s.selected[category]; !exists {
		s.order = append(s.order, category)
	}
	s.selected[category] = product
	return nil
}

// RemoveProduct drops the selection for category. Removing an absent
// category is a no-op.
func (s *Stack) RemoveProduct(category string) {
	if _, exists := s.selected[category]; !exists {
		return
	}
	delete(s.selected, category)
	for i, name := range s.order {
		if name == category {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// SetCurrentCategoryIndex moves the cursor. The index is not clamped.
func (s *Stack) SetCurrentCategoryIndex(index int) {
	s.categoryIndex = index
}

// CanProceedToNext reports whether the workflow may leave the current
// category: optional categories always pass, required ones need a selection.
func (s *Stack) CanProceedToNext() bool {
	if s.useCase == nil || s.categoryIndex < 0 || s.categoryIndex >= len(s.useCase.Categories) {
		return false
	}
	current := s.useCase.Categories[s.categoryIndex]
	if !current.Required {
		return true
	}
	_, ok := s.selected[current.Name]
	return ok
}

// CalculateCompatibility scores every pair of selected products in selection
// order and stores the results.
func (s *Stack) CalculateCompatibility() []models.CompatibilityResult {
	s.compatibility = compat.Calculate(s.selectedProducts())
	return s.Compatibility()
}

// Reset returns the stack to its initial empty state.
func (s *Stack) Reset() {
	s.useCase = nil
	s.clearSelections()
}

func (s *Stack) clearSelections() {
	s.order = nil
	s.selected = make(map[string]models.Product)
	s.categoryIndex = 0
	s.compatibility = []models.CompatibilityResult{}
}

func (s *Stack) selectedProducts() []models.Product {
	products := make([]models.Product, 0, len(s.order))
	for _, name := range s.order {
		products = append(products, s.selected[name])
	}
	return products
}

// UseCase returns a copy of the installed template, or nil.
func (s *Stack) UseCase() *models.UseCaseTemplate {
	if s.useCase == nil {
		return nil
	}
	u := s.useCase.Clone()
	return &u
}

// CurrentCategoryIndex returns the raw cursor.
func (s *Stack) CurrentCategoryIndex() int { return s.categoryIndex }

// CurrentCategory returns the category under the cursor. ok is false when no
// use case is installed or the cursor is past the last category.
func (s *Stack) CurrentCategory() (category models.CategoryDefinition, ok bool) {
	if s.useCase == nil || s.categoryIndex < 0 || s.categoryIndex >= len(s.useCase.Categories) {
		return models.CategoryDefinition{}, false
	}
	return s.useCase.Categories[s.categoryIndex].Clone(), true
}

// Selected returns a snapshot of the selections in the order they were made.
func (s *Stack) Selected() []Selection {
	out := make([]Selection, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, Selection{Category: name, Product: s.selected[name]})
	}
	return out
}

// Product returns the product selected for category.
func (s *Stack) Product(category string) (models.Product, bool) {
	p, ok := s.selected[category]
	return p, ok
}

// Compatibility returns a copy of the last computed results.
func (s *Stack) Compatibility() []models.CompatibilityResult {
	out := make([]models.CompatibilityResult, len(s.compatibility))
	copy(out, s.compatibility)
	return out
}

// Report returns the last computed results with their aggregate score.
func (s *Stack) Report() models.StackReport {
	return compat.Report(s.Compatibility())
}
