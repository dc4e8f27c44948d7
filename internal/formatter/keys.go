package formatter

import (
	"fmt"
	"strings"

	"github.com/tordrt/tapmeta/internal/metadata"
)

// incomingKeys returns the keys targeting t, read from the back-links of
// its columns. A key spanning several columns is listed once.
func incomingKeys(t *metadata.Table) []*metadata.ForeignKey {
	var keys []*metadata.ForeignKey
	seen := make(map[*metadata.ForeignKey]bool)
	for _, c := range t.Columns() {
		for _, k := range c.IncomingKeys() {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	return keys
}

// splitPairs returns the local and remote column names of k.
func splitPairs(k *metadata.ForeignKey) (string, string) {
	pairs := k.Pairs()
	local := make([]string, len(pairs))
	remote := make([]string, len(pairs))
	for i, p := range pairs {
		local[i] = p.Local
		remote[i] = p.Remote
	}
	return strings.Join(local, ", "), strings.Join(remote, ", ")
}

// columnFlags lists the set TAP flags and annotations of c.
func columnFlags(c *metadata.Column) []string {
	var flags []string
	if c.Principal {
		flags = append(flags, "principal")
	}
	if c.Indexed {
		flags = append(flags, "indexed")
	}
	if c.Std {
		flags = append(flags, "std")
	}
	if c.Unit != "" {
		flags = append(flags, fmt.Sprintf("unit=%s", c.Unit))
	}
	if c.UCD != "" {
		flags = append(flags, fmt.Sprintf("ucd=%s", c.UCD))
	}
	if c.Utype != "" {
		flags = append(flags, fmt.Sprintf("utype=%s", c.Utype))
	}
	return flags
}

// referencedTables lists the distinct targets of the outgoing keys of t.
func referencedTables(t *metadata.Table) []string {
	var names []string
	seen := make(map[string]bool)
	for _, k := range t.ForeignKeys() {
		name := k.To().FullName()
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}
