// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package filterutil builds zipengine.Filter values for the common
// cases spec.md's language-neutral filter contract leaves to the
// caller: match everything, match nothing, match a set of glob
// patterns against an entry's name.
package filterutil

import (
	"context"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/nunnzip/tokzip/internal/zipengine"
)

// All builds a Filter that extracts every entry via handle.
func All(handle zipengine.Handler) zipengine.Filter {
	return func(ctx context.Context, entry *zipengine.Entry) (zipengine.FilterResult, error) {
		return zipengine.FilterResult{Handler: handle}, nil
	}
}

// None builds a Filter that skips every entry's payload.
func None() zipengine.Filter {
	return func(ctx context.Context, entry *zipengine.Entry) (zipengine.FilterResult, error) {
		return zipengine.FilterResult{}, nil
	}
}

// Glob builds a Filter that invokes handle only for entries whose name
// matches at least one of patterns (doublestar syntax: ** matches
// across path separators). Stop is never requested; pass the returned
// Filter to a wrapper if early termination is also needed.
func Glob(handle zipengine.Handler, patterns ...string) zipengine.Filter {
	return func(ctx context.Context, entry *zipengine.Entry) (zipengine.FilterResult, error) {
		for _, pat := range patterns {
			ok, err := doublestar.Match(pat, entry.Name)
			if err != nil {
				return zipengine.FilterResult{}, err
			}
			if ok {
				return zipengine.FilterResult{Handler: handle}, nil
			}
		}
		return zipengine.FilterResult{}, nil
	}
}

// StopAfter wraps an existing Filter so that traversal stops once n
// entries whose Handler was non-nil (i.e. that the wrapped filter
// chose to extract) have been dispatched.
func StopAfter(inner zipengine.Filter, n int) zipengine.Filter {
	remaining := n
	return func(ctx context.Context, entry *zipengine.Entry) (zipengine.FilterResult, error) {
		result, err := inner(ctx, entry)
		if err != nil {
			return result, err
		}
		if result.Handler != nil {
			remaining--
			if remaining <= 0 {
				result.Stop = true
			}
		}
		return result, nil
	}
}
