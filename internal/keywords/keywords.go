// Package keywords provides the selectable search keyword registry. A
// Registry is an owned value built per request (custom keywords live in the
// HTTP session), never a process-wide singleton, so searches stay
// referentially reproducible.
package keywords

import "strings"

// Defaults are the built-in food-type keywords every session starts with.
var Defaults = []string{
	"ラーメン",
	"カフェ",
	"定食",
	"居酒屋",
	"寿司",
	"焼肉",
	"イタリアン",
	"中華",
}

type Registry struct {
	custom []string
}

// NewRegistry builds a registry around a session's custom keyword list.
func NewRegistry(custom []string) *Registry {
	return &Registry{custom: append([]string(nil), custom...)}
}

// All returns defaults followed by custom keywords.
func (r *Registry) All() []string {
	out := make([]string, 0, len(Defaults)+len(r.custom))
	out = append(out, Defaults...)
	out = append(out, r.custom...)
	return out
}

// Custom returns a copy of the session-added keywords.
func (r *Registry) Custom() []string {
	return append([]string(nil), r.custom...)
}

// Add registers a custom keyword. Returns false for blank input or a
// duplicate of any default or custom keyword.
func (r *Registry) Add(keyword string) bool {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" || r.contains(keyword) {
		return false
	}
	r.custom = append(r.custom, keyword)
	return true
}

// Remove deletes a custom keyword. Defaults are not removable.
func (r *Registry) Remove(keyword string) bool {
	for i, k := range r.custom {
		if k == keyword {
			r.custom = append(r.custom[:i], r.custom[i+1:]...)
			return true
		}
	}
	return false
}

func (r *Registry) contains(keyword string) bool {
	for _, k := range Defaults {
		if k == keyword {
			return true
		}
	}
	for _, k := range r.custom {
		if k == keyword {
			return true
		}
	}
	return false
}
