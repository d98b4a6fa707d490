package series

import "strings"

// Entity identifies a generation plant, a grid zone holder, or the system
// marginal cost pseudo-entity. The value is always a normalized name:
// uppercase, with runs of whitespace and punctuation collapsed to a single
// underscore. Two upstream spellings of the same plant normalize to the
// same Entity.
type Entity string

// CostEntity is the pseudo-entity holding the per-zone marginal cost series.
const CostEntity Entity = "SYSTEM_COST"

// NormalizeEntity builds an Entity from a raw upstream name.
func NormalizeEntity(name string) Entity {
	var b strings.Builder
	b.Grow(len(name))
	pendingSep := false
	for _, r := range strings.ToUpper(strings.TrimSpace(name)) {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
		default:
			pendingSep = true
		}
	}
	return Entity(b.String())
}

// Slug returns the lowercase form used to compose remote series names.
func (e Entity) Slug() string {
	return strings.ToLower(string(e))
}
