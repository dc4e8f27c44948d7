package metadata

import (
	"fmt"
	"strings"
)

// Column is a column of a Table as described in TAP_SCHEMA.columns.
//
// The owning table and the foreign key back-links are maintained by Table
// only; Column exposes them read-only.
type Column struct {
	adqlName string
	dbName   string

	DataType    DataType
	Description string
	Unit        string
	UCD         string
	Utype       string
	Principal   bool
	Indexed     bool
	Std         bool
	Extension   Extension

	table    *Table
	outgoing []*ForeignKey
	incoming []*ForeignKey
}

// ColumnOption configures a Column at construction.
type ColumnOption func(*Column)

// WithDataType sets the column type.
func WithDataType(dt DataType) ColumnOption {
	return func(c *Column) { c.DataType = dt }
}

// WithDescription sets the column description.
func WithDescription(desc string) ColumnOption {
	return func(c *Column) { c.Description = desc }
}

// WithUnit sets the column unit.
func WithUnit(unit string) ColumnOption {
	return func(c *Column) { c.Unit = unit }
}

// WithUCD sets the column UCD.
func WithUCD(ucd string) ColumnOption {
	return func(c *Column) { c.UCD = ucd }
}

// WithUtype sets the column utype.
func WithUtype(utype string) ColumnOption {
	return func(c *Column) { c.Utype = utype }
}

// WithFlags sets the principal, indexed and std flags.
func WithFlags(principal, indexed, std bool) ColumnOption {
	return func(c *Column) {
		c.Principal = principal
		c.Indexed = indexed
		c.Std = std
	}
}

// WithColumnDBName sets the name of the column in the database.
func WithColumnDBName(name string) ColumnOption {
	return func(c *Column) { c.SetDBName(name) }
}

// NewColumn creates a column whose ADQL and DB names are name.
func NewColumn(name string, opts ...ColumnOption) (*Column, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: missing column name", ErrConfiguration)
	}
	c := &Column{adqlName: name, dbName: name}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ADQLName returns the name used in queries.
func (c *Column) ADQLName() string { return c.adqlName }

// DBName returns the name used by the database. It is never empty.
func (c *Column) DBName() string { return c.dbName }

// SetDBName changes the database name. An empty name restores the ADQL name.
func (c *Column) SetDBName(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = c.adqlName
	}
	c.dbName = name
}

// Table returns the owning table, or nil.
func (c *Column) Table() *Table { return c.table }

// FullName returns "schema.table.column", or fewer parts when detached.
func (c *Column) FullName() string {
	if c.table == nil {
		return c.adqlName
	}
	return c.table.FullName() + "." + c.adqlName
}

// OutgoingKeys returns the foreign keys in which this column is the local endpoint.
func (c *Column) OutgoingKeys() []*ForeignKey {
	return append([]*ForeignKey(nil), c.outgoing...)
}

// IncomingKeys returns the foreign keys in which this column is the remote endpoint.
func (c *Column) IncomingKeys() []*ForeignKey {
	return append([]*ForeignKey(nil), c.incoming...)
}

// HasOutgoingKeys reports whether the column references another table.
func (c *Column) HasOutgoingKeys() bool { return len(c.outgoing) > 0 }

// HasIncomingKeys reports whether another table references the column.
func (c *Column) HasIncomingKeys() bool { return len(c.incoming) > 0 }

// Copy returns a detached column with the same attributes and no foreign keys.
// Empty names keep the originals. The extension is shared, not cloned.
func (c *Column) Copy(dbName, adqlName string) *Column {
	if strings.TrimSpace(adqlName) == "" {
		adqlName = c.adqlName
	}
	if strings.TrimSpace(dbName) == "" {
		dbName = c.dbName
	}
	cp := *c
	cp.adqlName = strings.TrimSpace(adqlName)
	cp.table = nil
	cp.outgoing = nil
	cp.incoming = nil
	cp.SetDBName(dbName)
	return &cp
}

func (c *Column) String() string { return c.FullName() }

func (c *Column) addOutgoing(k *ForeignKey) { c.outgoing = appendKey(c.outgoing, k) }
func (c *Column) addIncoming(k *ForeignKey) { c.incoming = appendKey(c.incoming, k) }
func (c *Column) dropOutgoing(k *ForeignKey) { c.outgoing = removeKey(c.outgoing, k) }
func (c *Column) dropIncoming(k *ForeignKey) { c.incoming = removeKey(c.incoming, k) }

func appendKey(keys []*ForeignKey, k *ForeignKey) []*ForeignKey {
	for _, existing := range keys {
		if existing == k {
			return keys
		}
	}
	return append(keys, k)
}

func removeKey(keys []*ForeignKey, k *ForeignKey) []*ForeignKey {
	for i, existing := range keys {
		if existing == k {
			return append(keys[:i], keys[i+1:]...)
		}
	}
	return keys
}
