package config

import (
	"fmt"
	"maps"
	"slices"

	"github.com/tordrt/tapmeta/internal/metadata"
)

// Apply decorates s with the metadata section. Tables and columns are
// matched by ADQL name; naming one that s does not hold is an error
// wrapping metadata.ErrConfiguration. Declared foreign keys are registered
// after every decoration, so a key may use a table decorated in the same
// file; an invalid key wraps metadata.ErrIntegrity. Apply stops at the
// first error and leaves earlier changes in place.
func (c *Config) Apply(s *metadata.Schema) error {
	m := c.Metadata
	if m.Description != "" {
		s.Description = m.Description
	}
	if m.Utype != "" {
		s.Utype = m.Utype
	}

	for _, name := range slices.Sorted(maps.Keys(m.Tables)) {
		t, ok := s.Table(name)
		if !ok {
			return fmt.Errorf("%w: decorated table %s not in schema %s", metadata.ErrConfiguration, name, s)
		}
		if err := m.Tables[name].apply(t); err != nil {
			return err
		}
	}

	for i, fk := range m.ForeignKeys {
		if err := fk.register(s); err != nil {
			return fmt.Errorf("foreign_keys[%d]: %w", i, err)
		}
	}
	return nil
}

func (d TableDecoration) apply(t *metadata.Table) error {
	if d.Description != "" {
		t.Description = d.Description
	}
	if d.Utype != "" {
		t.Utype = d.Utype
	}
	if d.Type != "" {
		tt, err := metadata.ParseTableType(d.Type)
		if err != nil {
			return fmt.Errorf("table %s: %w", t.ADQLName(), err)
		}
		t.SetType(tt)
	}

	for _, name := range slices.Sorted(maps.Keys(d.Columns)) {
		col, ok := t.Column(name)
		if !ok {
			return fmt.Errorf("%w: decorated column %s not in table %s", metadata.ErrConfiguration, name, t)
		}
		if err := d.Columns[name].apply(col); err != nil {
			return fmt.Errorf("column %s: %w", col.FullName(), err)
		}
	}
	return nil
}

func (d ColumnDecoration) apply(c *metadata.Column) error {
	if d.Datatype != "" {
		dt, err := metadata.ParseDataType(d.Datatype)
		if err != nil {
			return err
		}
		c.DataType = dt
	}
	if d.Description != "" {
		c.Description = d.Description
	}
	if d.Unit != "" {
		c.Unit = d.Unit
	}
	if d.UCD != "" {
		c.UCD = d.UCD
	}
	if d.Utype != "" {
		c.Utype = d.Utype
	}
	if d.Principal != nil {
		c.Principal = *d.Principal
	}
	if d.Indexed != nil {
		c.Indexed = *d.Indexed
	}
	if d.Std != nil {
		c.Std = *d.Std
	}
	return nil
}

// register adds the declared key to its source table. Missing tables are
// left to AddForeignKey, which reports them as integrity violations.
func (fk ForeignKeyConfig) register(s *metadata.Schema) error {
	if len(fk.FromColumns) != len(fk.ToColumns) {
		return fmt.Errorf("%w: key %s maps %d columns onto %d", metadata.ErrConfiguration,
			fk.ID, len(fk.FromColumns), len(fk.ToColumns))
	}

	from, _ := s.Table(fk.From)
	to, _ := s.Table(fk.To)

	pairs := make([]metadata.ColumnPair, len(fk.FromColumns))
	for i := range fk.FromColumns {
		pairs[i] = metadata.ColumnPair{Local: fk.FromColumns[i], Remote: fk.ToColumns[i]}
	}

	key := metadata.NewForeignKey(fk.ID, from, to, pairs...)
	key.Description = fk.Description
	key.Utype = fk.Utype

	if from == nil {
		return fmt.Errorf("%w: key %s starts at unknown table %s", metadata.ErrIntegrity, fk.ID, fk.From)
	}
	return from.AddForeignKey(key)
}
