package account

import (
	"context"
	"strings"
)

type Source string

const (
	SourceNone    Source = ""
	SourceSession Source = "session"
	SourceLookup  Source = "lookup"
	SourceDefault Source = "default"
)

// Resolver yields a billing account identifier. An error or an empty string both mean "no result".
type Resolver func(ctx context.Context) (string, error)

// Step is a Resolver tagged with the source it represents.
type Step struct {
	Source  Source
	Resolve Resolver
}

type Resolution struct {
	AccountID string
	Source    Source
}

func (r Resolution) Found() bool {
	return r.AccountID != ""
}

// FirstNonEmpty runs steps in order and returns the first non-empty identifier.
// Failed steps are reported to onMiss (which may be nil) and skipped.
func FirstNonEmpty(ctx context.Context, onMiss func(Source, error), steps ...Step) Resolution {
	for _, step := range steps {
		if step.Resolve == nil {
			continue
		}
		id, err := step.Resolve(ctx)
		id = strings.TrimSpace(id)
		if err == nil && id != "" {
			return Resolution{AccountID: id, Source: step.Source}
		}
		if onMiss != nil {
			onMiss(step.Source, err)
		}
	}
	return Resolution{}
}

// Static returns a Resolver that always yields id. An empty id always misses.
func Static(id string) Resolver {
	return func(context.Context) (string, error) {
		return id, nil
	}
}
