package keychain

import (
	"sort"
	"strings"
)

// OmitList is the set of logical names excluded from remote exports.
type OmitList map[string]struct{}

// NewOmitList builds an omit list, ignoring blank entries.
func NewOmitList(names ...string) OmitList {
	o := make(OmitList, len(names))
	for _, n := range names {
		o.Add(n)
	}
	return o
}

// ParseOmitList splits a comma-separated list such as "api_key, db_pass".
func ParseOmitList(csv string) OmitList {
	return NewOmitList(strings.Split(csv, ",")...)
}

// Add omits name. Surrounding whitespace is ignored.
func (o OmitList) Add(name string) {
	name = strings.TrimSpace(name)
	if name != "" {
		o[name] = struct{}{}
	}
}

// Remove stops omitting name.
func (o OmitList) Remove(name string) {
	delete(o, strings.TrimSpace(name))
}

// Contains reports whether name is omitted. An empty list omits nothing.
func (o OmitList) Contains(name string) bool {
	if len(o) == 0 {
		return false
	}
	_, ok := o[name]
	return ok
}

// Names returns the omitted names, sorted.
func (o OmitList) Names() []string {
	out := make([]string, 0, len(o))
	for n := range o {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func (o OmitList) String() string {
	return strings.Join(o.Names(), ",")
}
