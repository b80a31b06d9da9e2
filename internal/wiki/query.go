// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package wiki

import (
	"fmt"
	"iter"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/gobwas/glob"

	"github.com/pdiddy/tiddly-engine/pkg/types"
)

// Predicate selects tiddlers. Queries combine predicates with AND.
type Predicate func(types.Tiddler) bool

func matchAll(t types.Tiddler, preds []Predicate) bool {
	for _, p := range preds {
		if !p(t) {
			return false
		}
	}
	return true
}

// Filter yields the tiddlers of seq that satisfy every predicate.
func Filter(seq iter.Seq[types.Tiddler], preds ...Predicate) iter.Seq[types.Tiddler] {
	return func(yield func(types.Tiddler) bool) {
		for t := range seq {
			if matchAll(t, preds) && !yield(t) {
				return
			}
		}
	}
}

// Find returns the first tiddler satisfying every predicate.
func (w *Wiki) Find(preds ...Predicate) (types.Tiddler, bool) {
	for t := range w.FindAll(preds...) {
		return t, true
	}
	return types.Tiddler{}, false
}

// FindAll yields the tiddlers satisfying every predicate, in wiki order.
func (w *Wiki) FindAll(preds ...Predicate) iter.Seq[types.Tiddler] {
	return Filter(w.All(), preds...)
}

// Random picks one tiddler satisfying every predicate. It returns false
// when none does.
func (w *Wiki) Random(r *rand.Rand, preds ...Predicate) (types.Tiddler, bool) {
	candidates := slices.Collect(w.FindAll(preds...))
	if len(candidates) == 0 {
		return types.Tiddler{}, false
	}
	return candidates[r.IntN(len(candidates))], true
}

// HasTag selects tiddlers tagged with tag.
func HasTag(tag string) Predicate {
	return func(t types.Tiddler) bool { return t.HasTag(tag) }
}

// HasAnyTag selects tiddlers carrying at least one of tags.
func HasAnyTag(tags ...string) Predicate {
	return func(t types.Tiddler) bool {
		return slices.ContainsFunc(tags, t.HasTag)
	}
}

// LacksTags selects tiddlers carrying none of tags.
func LacksTags(tags ...string) Predicate {
	return func(t types.Tiddler) bool {
		return !slices.ContainsFunc(tags, t.HasTag)
	}
}

// TypeIs selects tiddlers whose type is one of typs.
func TypeIs(typs ...string) Predicate {
	return func(t types.Tiddler) bool { return slices.Contains(typs, t.Type) }
}

// CreatedBetween selects tiddlers created in [from, to). A zero bound is open.
func CreatedBetween(from, to time.Time) Predicate {
	return func(t types.Tiddler) bool {
		if !from.IsZero() && t.Created.Before(from) {
			return false
		}
		if !to.IsZero() && !t.Created.Before(to) {
			return false
		}
		return true
	}
}

// TitleMatches selects tiddlers whose title matches a glob pattern such as
// "Journal 2018-*" or "{Draft,Idea} *".
func TitleMatches(pattern string) (Predicate, error) {
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compiling title pattern %q: %w", pattern, err)
	}
	return func(t types.Tiddler) bool { return g.Match(t.Title) }, nil
}

// Not inverts p.
func Not(p Predicate) Predicate {
	return func(t types.Tiddler) bool { return !p(t) }
}
