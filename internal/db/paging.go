package db

// ListParams carries raw limit/offset query values before normalization.
type ListParams struct {
	Limit  int
	Offset int
}

// Clamp normalizes the params: a non-positive limit falls back to def, limits
// above max are capped, and negative offsets become zero.
func (p ListParams) Clamp(def, max int) ListParams {
	if p.Limit < 1 {
		p.Limit = def
	}
	if p.Limit > max {
		p.Limit = max
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}
