package metadata

import (
	"fmt"
	"strings"
)

// ColumnPair maps a local column of a foreign key onto the column it references.
type ColumnPair struct {
	Local  string
	Remote string
}

// ForeignKey links columns of one table (From) to columns of another (To).
// The column mapping is fixed at construction and keeps insertion order.
type ForeignKey struct {
	id   string
	from *Table
	to   *Table

	pairs []ColumnPair

	Description string
	Utype       string

	// endpoints resolved when the key is registered; nil otherwise
	links []keyLink
}

type keyLink struct {
	local  *Column
	remote *Column
}

// NewForeignKey creates an unregistered foreign key. Nothing is validated
// until the key is handed to Table.AddForeignKey. A pair repeating a local
// name replaces the earlier remote name in place.
func NewForeignKey(id string, from, to *Table, pairs ...ColumnPair) *ForeignKey {
	k := &ForeignKey{id: id, from: from, to: to}
	for _, p := range pairs {
		k.put(p)
	}
	return k
}

func (k *ForeignKey) put(p ColumnPair) {
	for i := range k.pairs {
		if k.pairs[i].Local == p.Local {
			k.pairs[i].Remote = p.Remote
			return
		}
	}
	k.pairs = append(k.pairs, p)
}

// ID returns the key identifier. It is only meant for diagnostics.
func (k *ForeignKey) ID() string { return k.id }

// From returns the referencing table.
func (k *ForeignKey) From() *Table { return k.from }

// To returns the referenced table.
func (k *ForeignKey) To() *Table { return k.to }

// Pairs returns the column mapping in insertion order.
func (k *ForeignKey) Pairs() []ColumnPair {
	return append([]ColumnPair(nil), k.pairs...)
}

// Len returns the number of mapped columns.
func (k *ForeignKey) Len() int { return len(k.pairs) }

// IsEmpty reports whether the key maps no column.
func (k *ForeignKey) IsEmpty() bool { return len(k.pairs) == 0 }

// RemoteColumnName returns the remote column mapped to local.
func (k *ForeignKey) RemoteColumnName(local string) (string, bool) {
	for _, p := range k.pairs {
		if p.Local == local {
			return p.Remote, true
		}
	}
	return "", false
}

// Registered reports whether the key currently links columns of its tables.
func (k *ForeignKey) Registered() bool { return k.links != nil }

func (k *ForeignKey) String() string {
	locals := make([]string, len(k.pairs))
	remotes := make([]string, len(k.pairs))
	for i, p := range k.pairs {
		locals[i] = p.Local
		remotes[i] = p.Remote
	}
	return fmt.Sprintf("%s: %s(%s) -> %s(%s)", k.id,
		tableName(k.from), strings.Join(locals, ", "),
		tableName(k.to), strings.Join(remotes, ", "))
}

// resolve checks every structural requirement of a key registered on owner
// and returns the column links to commit. It mutates nothing.
func (k *ForeignKey) resolve(owner *Table) ([]keyLink, error) {
	prefix := fmt.Sprintf("cannot add foreign key %q", k.id)
	switch {
	case k.from == nil:
		return nil, fmt.Errorf("%w: %s: no source table", ErrIntegrity, prefix)
	case k.from != owner:
		return nil, fmt.Errorf("%w: %s: source table is not %q", ErrIntegrity, prefix, owner.adqlName)
	case k.to == nil:
		return nil, fmt.Errorf("%w: %s: no target table", ErrIntegrity, prefix)
	case k.IsEmpty():
		return nil, fmt.Errorf("%w: %s: it defines no column mapping", ErrIntegrity, prefix)
	}

	links := make([]keyLink, 0, len(k.pairs))
	for _, p := range k.pairs {
		local, ok := owner.Column(p.Local)
		if !ok {
			return nil, fmt.Errorf("%w: %s: source column %q does not exist in %q",
				ErrIntegrity, prefix, p.Local, owner.adqlName)
		}
		remote, ok := k.to.Column(p.Remote)
		if !ok {
			return nil, fmt.Errorf("%w: %s: target column %q does not exist in %q",
				ErrIntegrity, prefix, p.Remote, k.to.adqlName)
		}
		links = append(links, keyLink{local: local, remote: remote})
	}
	return links, nil
}

func (k *ForeignKey) link(links []keyLink) {
	k.links = links
	for _, l := range links {
		l.local.addOutgoing(k)
		l.remote.addIncoming(k)
	}
}

func (k *ForeignKey) unlink() {
	for _, l := range k.links {
		l.local.dropOutgoing(k)
		l.remote.dropIncoming(k)
	}
	k.links = nil
}

func tableName(t *Table) string {
	if t == nil {
		return "<nil>"
	}
	return t.FullName()
}
