// Package cache holds the client-side view of one entity collection: the last
// listed items, a current item for detail screens, and loading/error flags.
//
// Reduce is a pure function from (state, operation result) to the next
// state. Store serializes Reduce calls and notifies subscribers.
package cache

import "slices"

// Op names a repository operation.
type Op string

const (
	OpList   Op = "list"
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpRemove Op = "remove"
)

// Outcome is the phase an operation result reports.
type Outcome int

const (
	OutcomePending Outcome = iota
	OutcomeFulfilled
	OutcomeRejected
	// OutcomeSelected and OutcomeErrorCleared are local actions that never
	// reach a remote store.
	OutcomeSelected
	OutcomeErrorCleared
)

// Result is a tagged operation result. Build one with the constructors below.
type Result[T any] struct {
	Op      Op
	Outcome Outcome
	Items   []T    // OpList fulfilled
	Item    T      // OpCreate / OpUpdate fulfilled
	ID      string // OpRemove fulfilled, Selected
	Err     error  // rejected
}

func Pending[T any](op Op) Result[T] {
	return Result[T]{Op: op, Outcome: OutcomePending}
}

func Listed[T any](items []T) Result[T] {
	return Result[T]{Op: OpList, Outcome: OutcomeFulfilled, Items: items}
}

func Created[T any](item T) Result[T] {
	return Result[T]{Op: OpCreate, Outcome: OutcomeFulfilled, Item: item}
}

func Updated[T any](item T) Result[T] {
	return Result[T]{Op: OpUpdate, Outcome: OutcomeFulfilled, Item: item}
}

func Removed[T any](id string) Result[T] {
	return Result[T]{Op: OpRemove, Outcome: OutcomeFulfilled, ID: id}
}

func Rejected[T any](op Op, err error) Result[T] {
	return Result[T]{Op: op, Outcome: OutcomeRejected, Err: err}
}

// Selected points Current at the cached item with id, or clears it when id
// is empty or not cached.
func Selected[T any](id string) Result[T] {
	return Result[T]{Outcome: OutcomeSelected, ID: id}
}

func ErrorCleared[T any]() Result[T] {
	return Result[T]{Outcome: OutcomeErrorCleared}
}

// State is one collection's cached view. Items never holds two entries with
// the same key.
type State[T any] struct {
	Items   []T    `json:"items"`
	Current *T     `json:"current,omitempty"`
	Loading bool   `json:"loading"`
	Error   string `json:"error,omitempty"`
}

// KeyFunc extracts the identity of an item.
type KeyFunc[T any] func(T) string

// defaultMessages are shown when a rejection carries no error text.
var defaultMessages = map[Op]string{
	OpList:   "failed to fetch entries",
	OpCreate: "failed to create entry",
	OpUpdate: "failed to update entry",
	OpRemove: "failed to delete entry",
}

// Reduce returns the state after applying r. It never modifies s.
func Reduce[T any](s State[T], r Result[T], key KeyFunc[T]) State[T] {
	next := State[T]{
		Items:   s.Items,
		Current: s.Current,
		Loading: s.Loading,
		Error:   s.Error,
	}

	switch r.Outcome {
	case OutcomePending:
		next.Loading = true
		next.Error = ""
		return next
	case OutcomeRejected:
		next.Loading = false
		next.Error = errorMessage(r.Op, r.Err)
		return next
	case OutcomeSelected:
		next.Current = nil
		if i := indexOf(s.Items, r.ID, key); r.ID != "" && i >= 0 {
			item := s.Items[i]
			next.Current = &item
		}
		return next
	case OutcomeErrorCleared:
		next.Error = ""
		return next
	}

	next.Loading = false
	switch r.Op {
	case OpList:
		next.Items = dedupe(r.Items, key)
	case OpCreate:
		id := key(r.Item)
		if i := indexOf(s.Items, id, key); i >= 0 {
			next.Items = slices.Clone(s.Items)
			next.Items[i] = r.Item
		} else {
			next.Items = make([]T, 0, len(s.Items)+1)
			next.Items = append(next.Items, r.Item)
			next.Items = append(next.Items, s.Items...)
		}
		item := r.Item
		next.Current = &item
	case OpUpdate:
		id := key(r.Item)
		i := indexOf(s.Items, id, key)
		if i < 0 {
			return next
		}
		next.Items = slices.Clone(s.Items)
		next.Items[i] = r.Item
		if s.Current != nil && key(*s.Current) == id {
			item := r.Item
			next.Current = &item
		}
	case OpRemove:
		if indexOf(s.Items, r.ID, key) < 0 {
			return next
		}
		next.Items = slices.DeleteFunc(slices.Clone(s.Items), func(v T) bool { return key(v) == r.ID })
		if s.Current != nil && key(*s.Current) == r.ID {
			next.Current = nil
		}
	}
	return next
}

func errorMessage(op Op, err error) string {
	if err != nil && err.Error() != "" {
		return err.Error()
	}
	if msg, ok := defaultMessages[op]; ok {
		return msg
	}
	return "operation failed"
}

func indexOf[T any](items []T, id string, key KeyFunc[T]) int {
	return slices.IndexFunc(items, func(v T) bool { return key(v) == id })
}

// dedupe keeps the first occurrence of each key, preserving order.
func dedupe[T any](items []T, key KeyFunc[T]) []T {
	seen := make(map[string]bool, len(items))
	out := make([]T, 0, len(items))
	for _, v := range items {
		k := key(v)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, v)
	}
	return out
}
