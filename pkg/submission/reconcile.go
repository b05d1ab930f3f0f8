// Package submission holds the create/edit/duplicate machinery shared by
// every form family that has child rows.
package submission

import "fmt"

// Pair is a stored child row together with its replacement value
type Pair[T any] struct {
	Old T
	New T
}

// Plan is the three-way diff between the stored children of a submission
// and the user's current selection.
//
//	Removed = O \ N  (deactivated)
//	Kept    = O ∩ N  (updated in place)
//	Added   = N \ O  (inserted)
type Plan[T any] struct {
	Removed []T
	Kept    []Pair[T]
	Added   []T
}

// Empty reports whether applying the plan would do nothing
func (p Plan[T]) Empty() bool {
	return len(p.Removed) == 0 && len(p.Kept) == 0 && len(p.Added) == 0
}

// KeyFunc returns the stable identifier of a child row. ok=false means the
// row has no identity yet (a new row typed in by the user) and is always
// treated as added.
type KeyFunc[T any, K comparable] func(T) (key K, ok bool)

// Diff computes the reconciliation plan. Output order follows the input
// order. If next holds the same key twice the last occurrence wins, so a
// key never produces two rows.
func Diff[T any, K comparable](original, next []T, key KeyFunc[T, K]) Plan[T] {
	var plan Plan[T]

	latest := make(map[K]int, len(next))
	for i, n := range next {
		if k, ok := key(n); ok {
			latest[k] = i
		}
	}

	stored := make(map[K]int, len(original))
	for i, o := range original {
		k, ok := key(o)
		if !ok {
			continue
		}
		if _, dup := stored[k]; dup {
			// a second stored row with the same key is stale data
			plan.Removed = append(plan.Removed, o)
			continue
		}
		stored[k] = i
		if _, inNext := latest[k]; !inNext {
			plan.Removed = append(plan.Removed, o)
		}
	}

	for i, n := range next {
		k, ok := key(n)
		if !ok {
			plan.Added = append(plan.Added, n)
			continue
		}
		if latest[k] != i {
			continue
		}
		if oi, found := stored[k]; found {
			plan.Kept = append(plan.Kept, Pair[T]{Old: original[oi], New: n})
		} else {
			plan.Added = append(plan.Added, n)
		}
	}
	return plan
}

// Ops are the three writes a plan is applied with. Equal is optional; when
// set, kept pairs that compare equal are not written.
type Ops[T any] struct {
	Deactivate func(old T) error
	Update     func(old, new T) error
	Insert     func(new T) error
	Equal      func(old, new T) bool
}

// Result counts the writes performed by Apply
type Result struct {
	Deactivated int `json:"deactivated"`
	Updated     int `json:"updated"`
	Inserted    int `json:"inserted"`
}

func (r Result) Add(o Result) Result {
	return Result{
		Deactivated: r.Deactivated + o.Deactivated,
		Updated:     r.Updated + o.Updated,
		Inserted:    r.Inserted + o.Inserted,
	}
}

// Apply runs deactivations, then updates, then inserts, stopping at the
// first error. Callers run it inside a transaction so a partial failure
// leaves nothing behind.
func Apply[T any](plan Plan[T], ops Ops[T]) (Result, error) {
	var res Result
	for _, old := range plan.Removed {
		if err := ops.Deactivate(old); err != nil {
			return res, fmt.Errorf("deactivate: %w", err)
		}
		res.Deactivated++
	}
	for _, p := range plan.Kept {
		if ops.Equal != nil && ops.Equal(p.Old, p.New) {
			continue
		}
		if err := ops.Update(p.Old, p.New); err != nil {
			return res, fmt.Errorf("update: %w", err)
		}
		res.Updated++
	}
	for _, n := range plan.Added {
		if err := ops.Insert(n); err != nil {
			return res, fmt.Errorf("insert: %w", err)
		}
		res.Inserted++
	}
	return res, nil
}
