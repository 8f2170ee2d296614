package stack

// The step helpers below drive the cursor one category at a time, the way a
// wizard-style client walks a use case. SetCurrentCategoryIndex stays
// available for direct jumps.

// Next advances the cursor by one when the current category allows it.
func (s *Stack) Next() bool {
	if !s.CanProceedToNext() {
		return false
	}
	s.categoryIndex++
	return true
}

// Back moves the cursor back by one. At the first category it uninstalls the
// use case and reports exited.
func (s *Stack) Back() (exited bool) {
	if s.useCase == nil {
		return true
	}
	if s.categoryIndex <= 0 {
		s.Reset()
		return true
	}
	s.categoryIndex--
	return false
}

// Complete reports whether every category has been traversed.
func (s *Stack) Complete() bool {
	return s.useCase != nil && s.categoryIndex == len(s.useCase.Categories)
}

// MissingRequired lists required categories that have no selection, in
// template order.
func (s *Stack) MissingRequired() []string {
	if s.useCase == nil {
		return nil
	}
	var missing []string
	for _, c := range s.useCase.Categories {
		if _, ok := s.selected[c.Name]; c.Required && !ok {
			missing = append(missing, c.Name)
		}
	}
	return missing
}
