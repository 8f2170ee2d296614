package models

// CategoryDefinition is one slot of a use case. Name is the selection key and
// must be unique within its template.
type CategoryDefinition struct {
	Name           string   `json:"name" yaml:"name"`
	ProductTypeIDs []string `json:"productTypeIds" yaml:"product_type_ids"`
	Required       bool     `json:"required" yaml:"required"`
}

// Accepts reports whether typeID is one of the category's acceptable types.
func (c CategoryDefinition) Accepts(typeID string) bool {
	for _, id := range c.ProductTypeIDs {
		if id == typeID {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no memory with c.
func (c CategoryDefinition) Clone() CategoryDefinition {
	c.ProductTypeIDs = append([]string(nil), c.ProductTypeIDs...)
	return c
}

// UseCaseTemplate describes an ordered list of categories to fill when
// building a stack. Category order drives the step sequence.
type UseCaseTemplate struct {
	ID          string               `json:"id" yaml:"id"`
	Name        string               `json:"name" yaml:"name"`
	Description string               `json:"description" yaml:"description"`
	Icon        string               `json:"icon" yaml:"icon"`
	Categories  []CategoryDefinition `json:"categories" yaml:"categories"`
}

// Category returns the definition named name.
func (u *UseCaseTemplate) Category(name string) (CategoryDefinition, bool) {
	if u == nil {
		return CategoryDefinition{}, false
	}
	for _, c := range u.Categories {
		if c.Name == name {
			return c.Clone(), true
		}
	}
	return CategoryDefinition{}, false
}

// Clone returns a deep copy of u.
func (u UseCaseTemplate) Clone() UseCaseTemplate {
	cats := make([]CategoryDefinition, len(u.Categories))
	for i, c := range u.Categories {
		cats[i] = c.Clone()
	}
	u.Categories = cats
	return u
}
