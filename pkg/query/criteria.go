// Package query filters and paginates footprint collections and renders the
// navigation links that go with a page.
package query

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Query parameter names.
const (
	ParamProductID      = "productId"
	ParamCompanyID      = "companyId"
	ParamGeography      = "geography"
	ParamClassification = "classification"
	ParamValidOn        = "validOn"
	ParamValidAfter     = "validAfter"
	ParamValidBefore    = "validBefore"
	ParamStatus         = "status"
	ParamLimit          = "limit"
	ParamOffset         = "offset"
)

// ErrInvalidCriteria is returned for filter values that cannot be interpreted.
var ErrInvalidCriteria = errors.New("invalid query criteria")

// Facets is the part of a record the engine can filter on.
type Facets struct {
	ProductIDs      []string
	CompanyIDs      []string
	Classifications []string
	Geographies     []string
	Status          string
	ValidityStart   *time.Time
	ValidityEnd     *time.Time
}

// Subject is anything that exposes Facets.
type Subject interface {
	Facets() Facets
}

// Criteria is an unordered set of optional predicates. Values inside one
// multi-valued predicate are OR-ed; distinct predicates are AND-ed.
type Criteria struct {
	ProductIDs      []string
	CompanyIDs      []string
	Geographies     []string
	Classifications []string
	ValidOn         *time.Time
	ValidAfter      *time.Time
	ValidBefore     *time.Time
	Status          string
}

// ParseCriteria reads filter predicates from query parameters. Values are
// NFC-normalised. An unparseable timestamp wraps ErrInvalidCriteria.
func ParseCriteria(q url.Values) (Criteria, error) {
	c := Criteria{
		ProductIDs:      values(q, ParamProductID),
		CompanyIDs:      values(q, ParamCompanyID),
		Geographies:     values(q, ParamGeography),
		Classifications: values(q, ParamClassification),
		Status:          norm.NFC.String(q.Get(ParamStatus)),
	}
	var err error
	if c.ValidOn, err = timeParam(q, ParamValidOn); err != nil {
		return Criteria{}, err
	}
	if c.ValidAfter, err = timeParam(q, ParamValidAfter); err != nil {
		return Criteria{}, err
	}
	if c.ValidBefore, err = timeParam(q, ParamValidBefore); err != nil {
		return Criteria{}, err
	}
	return c, nil
}

func values(q url.Values, key string) []string {
	var out []string
	for _, v := range q[key] {
		if v == "" {
			continue
		}
		out = append(out, norm.NFC.String(v))
	}
	return out
}

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02"}

func timeParam(q url.Values, key string) (*time.Time, error) {
	raw := q.Get(key)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%w: %s=%q is not an RFC 3339 timestamp", ErrInvalidCriteria, key, raw)
}

// Predicate is one filter step.
type Predicate struct {
	Name  string
	Match func(Facets) bool
}

// Predicates returns the active predicates in their fixed evaluation order.
func (c Criteria) Predicates() []Predicate {
	var ps []Predicate
	if len(c.ProductIDs) > 0 {
		ps = append(ps, Predicate{ParamProductID, func(f Facets) bool { return containsAny(f.ProductIDs, c.ProductIDs) }})
	}
	if len(c.CompanyIDs) > 0 {
		ps = append(ps, Predicate{ParamCompanyID, func(f Facets) bool { return containsAny(f.CompanyIDs, c.CompanyIDs) }})
	}
	if len(c.Geographies) > 0 {
		ps = append(ps, Predicate{ParamGeography, func(f Facets) bool { return containsAny(f.Geographies, c.Geographies) }})
	}
	if len(c.Classifications) > 0 {
		ps = append(ps, Predicate{ParamClassification, func(f Facets) bool { return containsAny(f.Classifications, c.Classifications) }})
	}
	if c.ValidOn != nil {
		on := *c.ValidOn
		ps = append(ps, Predicate{ParamValidOn, func(f Facets) bool {
			return f.ValidityStart != nil && f.ValidityEnd != nil &&
				!on.Before(*f.ValidityStart) && !on.After(*f.ValidityEnd)
		}})
	}
	if c.ValidAfter != nil {
		after := *c.ValidAfter
		ps = append(ps, Predicate{ParamValidAfter, func(f Facets) bool {
			return f.ValidityStart != nil && f.ValidityStart.After(after)
		}})
	}
	if c.ValidBefore != nil {
		before := *c.ValidBefore
		ps = append(ps, Predicate{ParamValidBefore, func(f Facets) bool {
			return f.ValidityEnd != nil && f.ValidityEnd.Before(before)
		}})
	}
	if c.Status != "" {
		ps = append(ps, Predicate{ParamStatus, func(f Facets) bool { return norm.NFC.String(f.Status) == c.Status }})
	}
	return ps
}

func containsAny(have, want []string) bool {
	for _, h := range have {
		if slices.Contains(want, norm.NFC.String(h)) {
			return true
		}
	}
	return false
}

// Filter keeps the items every predicate matches, preserving order.
func Filter[T Subject](items []T, preds []Predicate) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		f := it.Facets()
		keep := true
		for _, p := range preds {
			if !p.Match(f) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, it)
		}
	}
	return out
}
