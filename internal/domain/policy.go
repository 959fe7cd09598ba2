package domain

// MaterialPolicy says whether claiming a task consumes a material unit.
// The zero value means no material is needed.
type MaterialPolicy struct {
	categoryID int
	pooled     bool
}

func NoMaterial() MaterialPolicy {
	return MaterialPolicy{}
}

func Pooled(categoryID int) MaterialPolicy {
	return MaterialPolicy{categoryID: categoryID, pooled: true}
}

// PolicyFromColumn maps the nullable material_category_id column.
func PolicyFromColumn(categoryID *int) MaterialPolicy {
	if categoryID == nil {
		return NoMaterial()
	}
	return Pooled(*categoryID)
}

func (p MaterialPolicy) CategoryID() (int, bool) {
	return p.categoryID, p.pooled
}

func (p MaterialPolicy) Column() *int {
	if !p.pooled {
		return nil
	}
	id := p.categoryID
	return &id
}
