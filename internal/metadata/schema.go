// Package metadata models the relational metadata published by a TAP
// service: schemas, tables, columns and the foreign keys between them.
//
// Containers own their children and maintain every back-reference
// (table to schema, column to table, column to foreign key) through their
// own mutators. The graph is not safe for concurrent mutation; build it
// once, then share it read-only or guard it with a sync.RWMutex.
package metadata

import (
	"fmt"
	"strings"
)

// Schema is a schema as described in TAP_SCHEMA.schemas.
type Schema struct {
	adqlName string
	dbName   string

	Description string
	Utype       string
	Extension   Extension

	tables *ordered[*Table]
}

// NewSchema creates an empty schema whose ADQL and DB names are name.
func NewSchema(name string) (*Schema, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: missing schema name", ErrConfiguration)
	}
	return &Schema{
		adqlName: name,
		dbName:   name,
		tables:   newOrdered[*Table](),
	}, nil
}

// ADQLName returns the name used in queries.
func (s *Schema) ADQLName() string { return s.adqlName }

// DBName returns the name used by the database. It is never empty.
func (s *Schema) DBName() string { return s.dbName }

// SetDBName changes the database name. An empty name is ignored.
func (s *Schema) SetDBName(name string) {
	if name = strings.TrimSpace(name); name != "" {
		s.dbName = name
	}
}

func (s *Schema) String() string { return s.adqlName }

// AddTable registers t under its ADQL name, replacing any table of the same
// name. A table owned by another schema is moved; its foreign keys survive
// the move. Nil tables are ignored.
func (s *Schema) AddTable(t *Table) {
	if t == nil {
		return
	}
	t.setSchema(s)
	s.tables.put(t.adqlName, t)
}

// AddNewTable creates a table and adds it to the schema.
func (s *Schema) AddNewTable(name string, opts ...TableOption) (*Table, error) {
	t, err := NewTable(name, opts...)
	if err != nil {
		return nil, err
	}
	s.AddTable(t)
	return t, nil
}

// Table looks a table up by ADQL name (case-sensitive).
func (s *Schema) Table(name string) (*Table, bool) {
	return s.tables.get(name)
}

// TableByDBName looks a table up by database name.
func (s *Schema) TableByDBName(name string) (*Table, bool) {
	if name == "" {
		return nil, false
	}
	for _, t := range s.tables.values() {
		if t.dbName == name {
			return t, true
		}
	}
	return nil, false
}

// HasTable reports whether a table with this ADQL name exists.
func (s *Schema) HasTable(name string) bool {
	_, ok := s.tables.get(name)
	return ok
}

// Tables returns the tables in insertion order.
func (s *Schema) Tables() []*Table { return s.tables.values() }

// TableCount returns the number of tables.
func (s *Schema) TableCount() int { return s.tables.len() }

// IsEmpty reports whether the schema has no table.
func (s *Schema) IsEmpty() bool { return s.tables.len() == 0 }

// RemoveTable removes the named table. Foreign keys of other tables that
// target it, and its own outgoing keys, are removed as well so that no key
// is left pointing at a table outside the schema.
func (s *Schema) RemoveTable(name string) (*Table, bool) {
	t, ok := s.tables.remove(name)
	if !ok {
		return nil, false
	}
	t.schema = nil
	t.dropIncomingKeys()
	// keys can outlive the column they were linked to (AddColumn overwrite)
	for _, other := range s.tables.values() {
		for _, k := range other.ForeignKeys() {
			if k.To() == t {
				dropKey(k)
			}
		}
	}
	t.RemoveAllForeignKeys()
	return t, true
}

// RemoveAllTables removes every table, as RemoveTable does.
func (s *Schema) RemoveAllTables() {
	for _, t := range s.tables.values() {
		s.RemoveTable(t.adqlName)
	}
}

// detachTable drops t without cascading; t is moving to another schema.
func (s *Schema) detachTable(t *Table) {
	if current, ok := s.tables.get(t.adqlName); ok && current == t {
		s.tables.remove(t.adqlName)
	}
}
