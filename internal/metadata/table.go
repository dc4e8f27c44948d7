package metadata

import (
	"fmt"
	"strings"
)

// TableType is the kind of a table as listed in TAP_SCHEMA.tables.
type TableType string

const (
	TableTypeTable  TableType = "table"
	TableTypeView   TableType = "view"
	TableTypeOutput TableType = "output"
)

// ParseTableType parses "table", "view" or "output" (case-insensitive).
func ParseTableType(s string) (TableType, error) {
	switch t := TableType(strings.ToLower(strings.TrimSpace(s))); t {
	case TableTypeTable, TableTypeView, TableTypeOutput:
		return t, nil
	default:
		return "", fmt.Errorf("%w: unknown table type %q", ErrConfiguration, s)
	}
}

// Table is a table as described in TAP_SCHEMA.tables. It owns its columns
// and its outgoing foreign keys, and is owned by at most one Schema.
type Table struct {
	adqlName  string
	dbName    string
	tableType TableType

	Description string
	Utype       string
	Extension   Extension

	schema      *Schema
	columns     *ordered[*Column]
	foreignKeys []*ForeignKey
}

// TableOption configures a Table at construction.
type TableOption func(*Table)

// WithTableType sets the table type.
func WithTableType(tt TableType) TableOption {
	return func(t *Table) { t.SetType(tt) }
}

// WithTableDescription sets the table description.
func WithTableDescription(desc string) TableOption {
	return func(t *Table) { t.Description = desc }
}

// WithTableUtype sets the table utype.
func WithTableUtype(utype string) TableOption {
	return func(t *Table) { t.Utype = utype }
}

// WithTableDBName sets the name of the table in the database.
func WithTableDBName(name string) TableOption {
	return func(t *Table) { t.SetDBName(name) }
}

// NewTable creates a table of type "table". A prefixed name such as
// "schema.table" keeps only the part after the last '.'.
func NewTable(name string, opts ...TableOption) (*Table, error) {
	adqlName := unqualify(name)
	if adqlName == "" {
		return nil, fmt.Errorf("%w: missing table name", ErrConfiguration)
	}
	t := &Table{
		adqlName:  adqlName,
		dbName:    adqlName,
		tableType: TableTypeTable,
		columns:   newOrdered[*Column](),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

func unqualify(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimSpace(name)
}

// ADQLName returns the name used in queries.
func (t *Table) ADQLName() string { return t.adqlName }

// DBName returns the name used by the database. It is never empty.
func (t *Table) DBName() string { return t.dbName }

// SetDBName changes the database name. An empty name restores the ADQL name.
func (t *Table) SetDBName(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = t.adqlName
	}
	t.dbName = name
}

// Type returns the table type.
func (t *Table) Type() TableType { return t.tableType }

// SetType changes the table type. The empty type is ignored.
func (t *Table) SetType(tt TableType) {
	if tt != "" {
		t.tableType = tt
	}
}

// Schema returns the owning schema, or nil.
func (t *Table) Schema() *Schema { return t.schema }

// FullName returns "schema.table", unquoted. A detached table returns its own name.
func (t *Table) FullName() string {
	if t.schema == nil {
		return t.adqlName
	}
	return t.schema.adqlName + "." + t.adqlName
}

func (t *Table) String() string { return t.FullName() }

// setSchema must only be called by Schema. A table moving to another
// schema is first dropped from the previous one.
func (t *Table) setSchema(s *Schema) {
	if t.schema != nil && t.schema != s {
		t.schema.detachTable(t)
	}
	t.schema = s
}

// AddColumn registers c under its ADQL name, replacing any column of the
// same name. A column owned by another table is removed from it first,
// along with its foreign keys. Nil or unnamed columns are ignored.
func (t *Table) AddColumn(c *Column) {
	if c == nil || c.adqlName == "" {
		return
	}
	if prev := c.table; prev != nil && prev != t {
		prev.detachColumn(c)
	}
	t.columns.put(c.adqlName, c)
	c.table = t
}

// AddNewColumn creates a column and adds it to the table.
func (t *Table) AddNewColumn(name string, opts ...ColumnOption) (*Column, error) {
	c, err := NewColumn(name, opts...)
	if err != nil {
		return nil, err
	}
	t.AddColumn(c)
	return c, nil
}

// Column looks a column up by ADQL name (case-sensitive).
func (t *Table) Column(name string) (*Column, bool) {
	return t.columns.get(name)
}

// ColumnByDBName looks a column up by database name.
func (t *Table) ColumnByDBName(name string) (*Column, bool) {
	if name == "" {
		return nil, false
	}
	for _, c := range t.columns.values() {
		if c.dbName == name {
			return c, true
		}
	}
	return nil, false
}

// HasColumn reports whether a column with this ADQL name exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.columns.get(name)
	return ok
}

// HasColumnByDBName reports whether a column with this database name exists.
func (t *Table) HasColumnByDBName(name string) bool {
	_, ok := t.ColumnByDBName(name)
	return ok
}

// Columns returns the columns in insertion order.
func (t *Table) Columns() []*Column { return t.columns.values() }

// ColumnCount returns the number of columns.
func (t *Table) ColumnCount() int { return t.columns.len() }

// IsEmpty reports whether the table has no column.
func (t *Table) IsEmpty() bool { return t.columns.len() == 0 }

// RemoveColumn removes the named column and every foreign key it takes part
// in, on either end. It returns false if no such column exists.
func (t *Table) RemoveColumn(name string) (*Column, bool) {
	c, ok := t.columns.remove(name)
	if !ok {
		return nil, false
	}
	t.deleteColumnRelations(c)
	return c, true
}

// RemoveAllColumns removes every column and the foreign keys they take part in.
func (t *Table) RemoveAllColumns() {
	for _, c := range t.columns.values() {
		t.columns.remove(c.adqlName)
		t.deleteColumnRelations(c)
	}
}

// detachColumn drops c from this table on behalf of another table adopting it.
// c may already have been replaced under its name, so only the exact entry goes.
func (t *Table) detachColumn(c *Column) {
	if current, ok := t.columns.get(c.adqlName); ok && current == c {
		t.columns.remove(c.adqlName)
	}
	t.deleteColumnRelations(c)
}

func (t *Table) deleteColumnRelations(c *Column) {
	c.table = nil
	for _, k := range c.OutgoingKeys() {
		dropKey(k)
	}
	for _, k := range c.IncomingKeys() {
		dropKey(k)
	}
}

// dropKey removes k from the table that registered it and unlinks its columns.
func dropKey(k *ForeignKey) {
	if k.from == nil || !k.from.RemoveForeignKey(k) {
		k.unlink()
	}
}

// AddForeignKey validates k against this table and its target, then
// registers it. Validation failures wrap ErrIntegrity and leave the graph
// untouched. Nil keys and keys already registered here are ignored.
func (t *Table) AddForeignKey(k *ForeignKey) error {
	if k == nil {
		return nil
	}
	for _, existing := range t.foreignKeys {
		if existing == k {
			return nil
		}
	}

	links, err := k.resolve(t)
	if err != nil {
		return err
	}

	t.foreignKeys = append(t.foreignKeys, k)
	k.link(links)
	return nil
}

// NewForeignKey builds a key from this table to target and registers it.
func (t *Table) NewForeignKey(id string, target *Table, pairs ...ColumnPair) (*ForeignKey, error) {
	k := NewForeignKey(id, t, target, pairs...)
	if err := t.AddForeignKey(k); err != nil {
		return nil, err
	}
	return k, nil
}

// ForeignKeys returns the outgoing foreign keys in registration order.
func (t *Table) ForeignKeys() []*ForeignKey {
	return append([]*ForeignKey(nil), t.foreignKeys...)
}

// ForeignKeyCount returns the number of outgoing foreign keys.
func (t *Table) ForeignKeyCount() int { return len(t.foreignKeys) }

// RemoveForeignKey unregisters k and removes its back-links from both
// endpoint columns. It returns false if k is not registered here.
func (t *Table) RemoveForeignKey(k *ForeignKey) bool {
	for i, existing := range t.foreignKeys {
		if existing == k {
			t.foreignKeys = append(t.foreignKeys[:i], t.foreignKeys[i+1:]...)
			k.unlink()
			return true
		}
	}
	return false
}

// RemoveAllForeignKeys unregisters every outgoing foreign key.
func (t *Table) RemoveAllForeignKeys() {
	keys := t.foreignKeys
	t.foreignKeys = nil
	for _, k := range keys {
		k.unlink()
	}
}

// dropIncomingKeys removes the keys of other tables that target this one.
func (t *Table) dropIncomingKeys() {
	for _, c := range t.columns.values() {
		for _, k := range c.IncomingKeys() {
			dropKey(k)
		}
	}
}

// Copy returns a detached duplicate of the table. Columns are copied with
// fresh identities; foreign keys are not copied. The copy refers to the same
// schema without being registered in it, and shares the extension.
// Empty names keep the originals.
func (t *Table) Copy(dbName, adqlName string) *Table {
	name := unqualify(adqlName)
	if name == "" {
		name = t.adqlName
	}
	if strings.TrimSpace(dbName) == "" {
		dbName = t.dbName
	}
	cp := &Table{
		adqlName:    name,
		tableType:   t.tableType,
		Description: t.Description,
		Utype:       t.Utype,
		Extension:   t.Extension,
		schema:      t.schema,
		columns:     newOrdered[*Column](),
	}
	cp.SetDBName(dbName)
	for _, c := range t.columns.values() {
		cp.AddColumn(c.Copy("", ""))
	}
	return cp
}
