package domain

import "time"

// EquivalencePair is an undirected edge between two substitutable products.
// Pairs are stored with the smaller id first so {A,B} and {B,A} share a row.
type EquivalencePair struct {
	ID                  string
	ProductID           string
	EquivalentProductID string
	CreatedAt           time.Time
}

// NewEquivalencePair returns the normalized pair for a and b. It reports false
// for a self-loop.
func NewEquivalencePair(a, b string) (EquivalencePair, bool) {
	if a == b {
		return EquivalencePair{}, false
	}
	if b < a {
		a, b = b, a
	}
	return EquivalencePair{
		ProductID:           a,
		EquivalentProductID: b,
	}, true
}

// Other returns the endpoint that is not id.
func (p EquivalencePair) Other(id string) string {
	if p.ProductID == id {
		return p.EquivalentProductID
	}
	return p.ProductID
}
