package differ

import (
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/vitebski/mysql-schema-sync/pkg/models"
)

// Options filters what the differ looks at. IgnoreColumns entries may
// be fully-qualified table.column or a bare column name that matches
// in every table.
type Options struct {
	IgnoreTables  map[string]bool
	IgnoreColumns map[string]bool
}

func (o Options) ignoreTable(table string) bool {
	return o.IgnoreTables[table]
}

func (o Options) ignoreColumn(table, column string) bool {
	return o.IgnoreColumns[table+"."+column] || o.IgnoreColumns[column]
}

// Differ computes the structural delta between two schemas
type Differ struct {
	Options Options
	Logger  *logrus.Logger
}

// NewDiffer creates a differ with the given options
func NewDiffer(opts Options, logger *logrus.Logger) *Differ {
	return &Differ{Options: opts, Logger: logger}
}

// Diff computes the delta that transforms current into desired. Table
// drops are never produced; column drops are computed but their
// emission is gated downstream.
func (d *Differ) Diff(current, desired *models.Schema) *models.Delta {
	delta := models.NewDelta()

	for _, name := range desired.TableNames() {
		if d.Options.ignoreTable(name) {
			d.Logger.Debugf("ignoring table %s", name)
			continue
		}
		desiredTable := desired.Tables[name]
		currentTable, exists := current.Tables[name]
		if !exists {
			delta.TablesToCreate = append(delta.TablesToCreate, name)
			continue
		}
		td := d.diffTable(currentTable, desiredTable)
		if !td.Empty() {
			delta.TablesToAlter[name] = td
		}
	}

	return delta
}

// diffTable compares two definitions of the same table
func (d *Differ) diffTable(current, desired *models.Table) *models.TableDelta {
	td := models.NewTableDelta()

	d.diffColumns(current, desired, td)
	d.diffIndexes(current, desired, td)
	d.diffForeignKeys(current, desired, td)
	d.diffOptions(current, desired, td)

	return td
}

func (d *Differ) diffColumns(current, desired *models.Table, td *models.TableDelta) {
	for _, col := range desired.Columns {
		if d.Options.ignoreColumn(desired.Name, col.Name) {
			continue
		}
		existing := current.Column(col.Name)
		if existing == nil {
			td.ColumnsToAdd = append(td.ColumnsToAdd, col)
			continue
		}
		if !existing.Equal(col) {
			td.ColumnsToModify[col.Name] = models.ColumnChange{Current: existing, Desired: col}
		}
	}

	for _, col := range current.Columns {
		if d.Options.ignoreColumn(current.Name, col.Name) {
			continue
		}
		if !desired.HasColumn(col.Name) {
			td.ColumnsToDrop = append(td.ColumnsToDrop, col.Name)
		}
	}
}

func (d *Differ) diffIndexes(current, desired *models.Table, td *models.TableDelta) {
	for _, name := range desired.IndexNames() {
		idx := desired.Indexes[name]
		existing, exists := current.Indexes[name]
		if !exists {
			td.IndexesToAdd[name] = idx
			continue
		}
		if !existing.Equal(idx) {
			td.IndexesToDrop = append(td.IndexesToDrop, name)
			td.IndexesToAdd[name] = idx
		}
	}

	for _, name := range current.IndexNames() {
		if _, exists := desired.Indexes[name]; !exists {
			td.IndexesToDrop = append(td.IndexesToDrop, name)
		}
	}
	sort.Strings(td.IndexesToDrop)
}

func (d *Differ) diffForeignKeys(current, desired *models.Table, td *models.TableDelta) {
	for _, name := range desired.ForeignKeyNames() {
		fk := desired.ForeignKeys[name]
		existing, exists := current.ForeignKeys[name]
		if !exists {
			td.ForeignKeysToAdd[name] = fk
			continue
		}
		if !existing.Equal(fk) {
			td.ForeignKeysToDrop = append(td.ForeignKeysToDrop, name)
			td.ForeignKeysToAdd[name] = fk
		}
	}

	for _, name := range current.ForeignKeyNames() {
		if _, exists := desired.ForeignKeys[name]; !exists {
			td.ForeignKeysToDrop = append(td.ForeignKeysToDrop, name)
		}
	}
	sort.Strings(td.ForeignKeysToDrop)
}

// diffOptions compares engine and collation only; auto-increment and
// comment changes never produce a diff
func (d *Differ) diffOptions(current, desired *models.Table, td *models.TableDelta) {
	if desired.Options.Engine != "" && desired.Options.Engine != current.Options.Engine {
		td.Options.Engine = desired.Options.Engine
	}
	if desired.Options.Collation != "" && desired.Options.Collation != current.Options.Collation {
		td.Options.Collation = desired.Options.Collation
	}
}
