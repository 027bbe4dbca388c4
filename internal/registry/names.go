package registry

import (
	"sort"

	"github.com/mmynk/gradebook/internal/models"
)

func fold(name string) string {
	return models.FoldName(name)
}

// nameSet is a sorted list of names, unique under case folding.
type nameSet struct {
	names []string
}

// index returns the position of name (case-insensitive), or -1.
func (n *nameSet) index(name string) int {
	key := fold(name)
	for i, existing := range n.names {
		if fold(existing) == key {
			return i
		}
	}
	return -1
}

func (n *nameSet) contains(name string) bool {
	return n.index(name) >= 0
}

// canonical returns the registered spelling of name.
func (n *nameSet) canonical(name string) (string, bool) {
	i := n.index(name)
	if i < 0 {
		return "", false
	}
	return n.names[i], true
}

// add inserts name unless an equal name exists. Reports whether it was added.
func (n *nameSet) add(name string) bool {
	if n.contains(name) {
		return false
	}
	n.names = append(n.names, name)
	sort.Strings(n.names)
	return true
}

// replace swaps the entry at i for name and re-sorts.
func (n *nameSet) replace(i int, name string) {
	n.names[i] = name
	sort.Strings(n.names)
}

// set replaces the contents, dropping case-insensitive duplicates (first wins)
// and blank names.
func (n *nameSet) set(names []string) {
	out := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		key := fold(name)
		if seen[key] || !models.IsValidName(name) {
			continue
		}
		seen[key] = true
		out = append(out, name)
	}
	sort.Strings(out)
	n.names = out
}

func (n *nameSet) list() []string {
	return append([]string{}, n.names...)
}

func (n *nameSet) len() int {
	return len(n.names)
}
