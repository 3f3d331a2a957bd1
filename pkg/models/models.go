package models

import "sort"

// Referential action keywords recognized for foreign keys
const (
	ActionRestrict = "RESTRICT"
	ActionCascade  = "CASCADE"
	ActionSetNull  = "SET NULL"
	ActionNoAction = "NO ACTION"
)

// PrimaryKeyName is the reserved index name the primary key is stored under
const PrimaryKeyName = "PRIMARY"

// Column represents a table column with its properties
type Column struct {
	Name      string
	Type      string
	Nullable  bool
	Default   *string
	Extra     string
	Comment   string
	Charset   string
	Collation string
}

// Equal reports whether two columns are the same for diffing purposes.
// Type and default are compared after normalization; comment, charset
// and collation changes do not trigger a modify.
func (c *Column) Equal(other *Column) bool {
	if c == nil || other == nil {
		return c == other
	}
	return NormalizeType(c.Type) == NormalizeType(other.Type) &&
		c.Nullable == other.Nullable &&
		sameDefault(NormalizeDefault(c.Default), NormalizeDefault(other.Default)) &&
		c.Extra == other.Extra
}

func sameDefault(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// Index represents a table index. The primary key is stored under the
// name PRIMARY and is always unique.
type Index struct {
	Name    string
	Columns []string
	Unique  bool
	Type    string
	Comment string
}

// Equal reports whether two indexes cover the same columns with the
// same uniqueness
func (i *Index) Equal(other *Index) bool {
	if i == nil || other == nil {
		return i == other
	}
	if i.Unique != other.Unique || len(i.Columns) != len(other.Columns) {
		return false
	}
	for n, col := range i.Columns {
		if other.Columns[n] != col {
			return false
		}
	}
	return true
}

// ForeignKey represents a foreign key constraint
type ForeignKey struct {
	Name              string
	Columns           []string
	ReferencedTable   string
	ReferencedColumns []string
	OnUpdate          string
	OnDelete          string
}

// Equal reports whether two foreign keys reference the same columns
// with the same rules
func (fk *ForeignKey) Equal(other *ForeignKey) bool {
	if fk == nil || other == nil {
		return fk == other
	}
	if fk.ReferencedTable != other.ReferencedTable ||
		fk.OnUpdate != other.OnUpdate ||
		fk.OnDelete != other.OnDelete ||
		len(fk.Columns) != len(other.Columns) ||
		len(fk.ReferencedColumns) != len(other.ReferencedColumns) {
		return false
	}
	for n, col := range fk.Columns {
		if other.Columns[n] != col {
			return false
		}
	}
	for n, col := range fk.ReferencedColumns {
		if other.ReferencedColumns[n] != col {
			return false
		}
	}
	return true
}

// TableOptions represents table-level options. Charset is captured
// from DDL but excluded from diffs; AutoIncrement and Comment are
// likewise ignored when comparing.
type TableOptions struct {
	Engine        string
	Charset       string
	Collation     string
	Comment       string
	AutoIncrement string
}

// Table represents a table definition
type Table struct {
	Name        string
	Columns     []*Column
	Indexes     map[string]*Index
	ForeignKeys map[string]*ForeignKey
	Options     TableOptions
}

// NewTable creates an empty table definition
func NewTable(name string) *Table {
	return &Table{
		Name:        name,
		Indexes:     make(map[string]*Index),
		ForeignKeys: make(map[string]*ForeignKey),
	}
}

// Column returns the column with the given name, or nil
func (t *Table) Column(name string) *Column {
	for _, c := range t.Columns {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// HasColumn reports whether the table has a column with the given name
func (t *Table) HasColumn(name string) bool {
	return t.Column(name) != nil
}

// PrimaryKey returns the primary key index, or nil
func (t *Table) PrimaryKey() *Index {
	return t.Indexes[PrimaryKeyName]
}

// IndexNames returns the index names sorted, PRIMARY first
func (t *Table) IndexNames() []string {
	var names []string
	for name := range t.Indexes {
		if name != PrimaryKeyName {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	if _, ok := t.Indexes[PrimaryKeyName]; ok {
		names = append([]string{PrimaryKeyName}, names...)
	}
	return names
}

// ForeignKeyNames returns the foreign key names sorted
func (t *Table) ForeignKeyNames() []string {
	var names []string
	for name := range t.ForeignKeys {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Schema represents a full database schema keyed by table name
type Schema struct {
	Tables map[string]*Table
}

// NewSchema creates an empty schema
func NewSchema() *Schema {
	return &Schema{Tables: make(map[string]*Table)}
}

// AddTable adds a table to the schema, replacing any previous
// definition of the same name
func (s *Schema) AddTable(t *Table) {
	s.Tables[t.Name] = t
}

// TableNames returns the table names sorted for deterministic output
func (s *Schema) TableNames() []string {
	names := make([]string, 0, len(s.Tables))
	for name := range s.Tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ColumnChange holds the current and desired definition of a modified
// column
type ColumnChange struct {
	Current *Column
	Desired *Column
}

// OptionChanges holds the table option values that need to change.
// Only engine and collation participate in diffs.
type OptionChanges struct {
	Engine    string
	Collation string
}

// Empty reports whether no option changed
func (o OptionChanges) Empty() bool {
	return o.Engine == "" && o.Collation == ""
}

// TableDelta represents the changes required to bring one table from
// its current definition to the desired one
type TableDelta struct {
	ColumnsToAdd      []*Column
	ColumnsToModify   map[string]ColumnChange
	ColumnsToDrop     []string
	IndexesToAdd      map[string]*Index
	IndexesToDrop     []string
	ForeignKeysToAdd  map[string]*ForeignKey
	ForeignKeysToDrop []string
	Options           OptionChanges
}

// NewTableDelta creates an empty table delta
func NewTableDelta() *TableDelta {
	return &TableDelta{
		ColumnsToModify:  make(map[string]ColumnChange),
		IndexesToAdd:     make(map[string]*Index),
		ForeignKeysToAdd: make(map[string]*ForeignKey),
	}
}

// Empty reports whether the delta carries no change at all. Column
// drops count: a delta that only drops columns is still non-empty even
// though drop emission is gated by configuration.
func (d *TableDelta) Empty() bool {
	return len(d.ColumnsToAdd) == 0 &&
		len(d.ColumnsToModify) == 0 &&
		len(d.ColumnsToDrop) == 0 &&
		len(d.IndexesToAdd) == 0 &&
		len(d.IndexesToDrop) == 0 &&
		len(d.ForeignKeysToAdd) == 0 &&
		len(d.ForeignKeysToDrop) == 0 &&
		d.Options.Empty()
}

// Delta represents the full difference between two schemas. Table
// drops are never produced.
type Delta struct {
	TablesToCreate []string
	TablesToAlter  map[string]*TableDelta
}

// NewDelta creates an empty delta
func NewDelta() *Delta {
	return &Delta{TablesToAlter: make(map[string]*TableDelta)}
}

// Empty reports whether the delta carries no change
func (d *Delta) Empty() bool {
	return len(d.TablesToCreate) == 0 && len(d.TablesToAlter) == 0
}

// AlteredTableNames returns the altered table names sorted
func (d *Delta) AlteredTableNames() []string {
	names := make([]string, 0, len(d.TablesToAlter))
	for name := range d.TablesToAlter {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
