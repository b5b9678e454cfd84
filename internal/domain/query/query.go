package query

import "context"

// Pagination is the cursor-style paging shared by list endpoints.
type Pagination struct {
	Limit *int
	After *uint
	Order string
}

const DefaultLimit = 20

// EffectiveLimit returns the requested limit or DefaultLimit.
func (p *Pagination) EffectiveLimit() int {
	if p == nil || p.Limit == nil || *p.Limit <= 0 {
		return DefaultLimit
	}
	return *p.Limit
}

type primaryReadKey struct{}

// WithPrimary marks ctx so repository reads made with it go to the primary
// database instead of a read replica.
func WithPrimary(ctx context.Context) context.Context {
	return context.WithValue(ctx, primaryReadKey{}, true)
}

// ReadsPrimary reports whether ctx was marked by WithPrimary.
func ReadsPrimary(ctx context.Context) bool {
	v, _ := ctx.Value(primaryReadKey{}).(bool)
	return v
}
