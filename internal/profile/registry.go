package profile

import (
	"strconv"
	"strings"
	"sync"
)

// DefaultLabel names the i-th registered category: category-A, category-B,
// ..., category-Z, category-AA and so on.
func DefaultLabel(i int) string {
	var letters []byte
	for n := i; n >= 0; n = n/26 - 1 {
		letters = append([]byte{byte('A' + n%26)}, letters...)
	}
	return "category-" + string(letters)
}

// Registry owns a set of categories in registration order
type Registry struct {
	mu         sync.RWMutex
	defaults   []Option
	categories []*Category
}

// NewRegistry creates a registry whose categories all get opts
func NewRegistry(opts ...Option) *Registry {
	return &Registry{defaults: opts}
}

// ForCategory creates and registers a category. An empty label is replaced
// by the default label for its position; a label already taken gets a
// numeric suffix (bundle, bundle-2, bundle-3).
func (r *Registry) ForCategory(label string, opts ...Option) *Category {
	r.mu.Lock()
	defer r.mu.Unlock()

	if label == "" {
		label = DefaultLabel(len(r.categories))
	}
	label = r.uniqueLabel(label)
	all := make([]Option, 0, len(r.defaults)+len(opts))
	all = append(all, r.defaults...)
	all = append(all, opts...)

	c := NewCategory(label, all...)
	r.categories = append(r.categories, c)
	return c
}

func (r *Registry) uniqueLabel(label string) string {
	taken := make(map[string]bool, len(r.categories))
	for _, c := range r.categories {
		taken[c.label] = true
	}
	if !taken[label] {
		return label
	}
	for n := 2; ; n++ {
		if candidate := label + "-" + strconv.Itoa(n); !taken[candidate] {
			return candidate
		}
	}
}

// Categories returns the registered categories in order
func (r *Registry) Categories() []*Category {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Category(nil), r.categories...)
}

// Lookup finds the category with label
func (r *Registry) Lookup(label string) (*Category, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.categories {
		if c.label == label {
			return c, true
		}
	}
	return nil, false
}

// String joins every used category's table, dropping blank lines
func (r *Registry) String() string {
	var lines []string
	for _, c := range r.Categories() {
		for _, l := range strings.Split(c.String(), "\n") {
			if strings.TrimSpace(l) != "" {
				lines = append(lines, l)
			}
		}
	}
	return strings.Join(lines, "\n")
}
