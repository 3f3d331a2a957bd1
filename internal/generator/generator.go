package generator

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/vitebski/mysql-schema-sync/pkg/models"
)

var numericLiteral = regexp.MustCompile(`^[0-9.]+$`)

// stringTypes are the base column types whose defaults are rendered as
// quoted string literals
var stringTypes = map[string]bool{
	"char": true, "varchar": true, "tinytext": true, "text": true,
	"mediumtext": true, "longtext": true, "enum": true, "set": true,
	"date": true, "datetime": true, "time": true, "year": true,
}

// Generator renders schema values and deltas as MySQL DDL statements.
// Statements are produced without the terminating semicolon; the
// planner appends it.
type Generator struct {
	AllowColumnDrops bool
	Logger           *logrus.Logger
}

// NewGenerator creates a new DDL generator
func NewGenerator(allowColumnDrops bool, logger *logrus.Logger) *Generator {
	return &Generator{AllowColumnDrops: allowColumnDrops, Logger: logger}
}

// quoteIdent backtick-quotes an identifier
func quoteIdent(name string) string {
	return "`" + name + "`"
}

// quoteIdents backtick-quotes a list of identifiers and joins them
func quoteIdents(names []string) string {
	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = quoteIdent(name)
	}
	return strings.Join(quoted, ", ")
}

// RenderSchema renders one CREATE TABLE statement per table, in name
// order
func (g *Generator) RenderSchema(schema *models.Schema) []string {
	var stmts []string
	for _, name := range schema.TableNames() {
		stmts = append(stmts, g.RenderTable(schema.Tables[name]))
	}
	return stmts
}

// RenderTable renders a full CREATE TABLE statement
func (g *Generator) RenderTable(table *models.Table) string {
	var defs []string

	for _, col := range table.Columns {
		defs = append(defs, "  "+g.RenderColumn(col))
	}

	if pk := table.PrimaryKey(); pk != nil {
		defs = append(defs, fmt.Sprintf("  PRIMARY KEY (%s)", quoteIdents(pk.Columns)))
	}
	for _, name := range table.IndexNames() {
		if name == models.PrimaryKeyName {
			continue
		}
		defs = append(defs, "  "+renderIndexDef(table.Indexes[name]))
	}
	for _, name := range table.ForeignKeyNames() {
		defs = append(defs, "  "+renderForeignKeyDef(table.ForeignKeys[name]))
	}

	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	b.WriteString(quoteIdent(table.Name))
	b.WriteString(" (\n")
	b.WriteString(strings.Join(defs, ",\n"))
	b.WriteString("\n)")
	b.WriteString(renderTableOptions(table.Options))
	return b.String()
}

// RenderColumn renders a column definition
func (g *Generator) RenderColumn(col *models.Column) string {
	var b strings.Builder
	b.WriteString(quoteIdent(col.Name))
	b.WriteByte(' ')
	b.WriteString(col.Type)

	if !col.Nullable {
		b.WriteString(" NOT NULL")
	}
	b.WriteString(renderDefault(col))
	if col.Extra == "auto_increment" {
		b.WriteString(" AUTO_INCREMENT")
	}
	if col.Charset != "" {
		b.WriteString(" CHARACTER SET " + col.Charset)
	}
	if col.Collation != "" {
		b.WriteString(" COLLATE " + col.Collation)
	}
	if col.Comment != "" {
		b.WriteString(" COMMENT '" + models.EscapeString(col.Comment) + "'")
	}
	return b.String()
}

// renderDefault renders the DEFAULT clause of a column. A nullable
// column with no default gets an explicit DEFAULT NULL to match
// dump-style output; a NOT NULL column with no default gets no clause.
func renderDefault(col *models.Column) string {
	if col.Default == nil {
		if col.Nullable {
			return " DEFAULT NULL"
		}
		return ""
	}
	v := *col.Default
	if v == "" || isStringType(col.Type) {
		return " DEFAULT '" + models.EscapeString(v) + "'"
	}
	if numericLiteral.MatchString(v) || strings.EqualFold(v, "null") {
		return " DEFAULT " + v
	}
	if strings.HasPrefix(strings.ToUpper(v), "CURRENT_TIMESTAMP") {
		return " DEFAULT " + v
	}
	return " DEFAULT '" + models.EscapeString(v) + "'"
}

// isStringType reports whether defaults for the given type are quoted
func isStringType(typ string) bool {
	base := typ
	if i := strings.IndexByte(base, '('); i >= 0 {
		base = base[:i]
	}
	base = strings.ToLower(strings.TrimSpace(base))
	return stringTypes[base]
}

// renderIndexDef renders an index definition for a CREATE TABLE body
func renderIndexDef(idx *models.Index) string {
	kind := "KEY"
	if idx.Unique {
		kind = "UNIQUE KEY"
	}
	def := fmt.Sprintf("%s %s (%s)", kind, quoteIdent(idx.Name), quoteIdents(idx.Columns))
	if idx.Comment != "" {
		def += " COMMENT '" + models.EscapeString(idx.Comment) + "'"
	}
	return def
}

// renderForeignKeyDef renders a foreign key constraint definition.
// RESTRICT rules are left implicit, matching dump output.
func renderForeignKeyDef(fk *models.ForeignKey) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s)",
		quoteIdent(fk.Name), quoteIdents(fk.Columns),
		quoteIdent(fk.ReferencedTable), quoteIdents(fk.ReferencedColumns))
	if fk.OnDelete != "" && fk.OnDelete != models.ActionRestrict {
		b.WriteString(" ON DELETE " + fk.OnDelete)
	}
	if fk.OnUpdate != "" && fk.OnUpdate != models.ActionRestrict {
		b.WriteString(" ON UPDATE " + fk.OnUpdate)
	}
	return b.String()
}

// renderTableOptions renders the options clause of a CREATE TABLE
func renderTableOptions(opts models.TableOptions) string {
	var b strings.Builder
	if opts.Engine != "" {
		b.WriteString(" ENGINE=" + opts.Engine)
	}
	if opts.AutoIncrement != "" {
		b.WriteString(" AUTO_INCREMENT=" + opts.AutoIncrement)
	}
	if opts.Collation != "" {
		b.WriteString(" COLLATE=" + opts.Collation)
	}
	if opts.Comment != "" {
		b.WriteString(" COMMENT='" + models.EscapeString(opts.Comment) + "'")
	}
	return b.String()
}

// RenderTableDelta renders the ALTER TABLE statements for one table in
// safe application order: drops of foreign keys and indexes first,
// then column work, then adds of indexes and foreign keys, then
// option changes.
func (g *Generator) RenderTableDelta(tableName string, td *models.TableDelta) []string {
	alter := "ALTER TABLE " + quoteIdent(tableName) + " "
	var stmts []string

	for _, name := range td.ForeignKeysToDrop {
		stmts = append(stmts, alter+"DROP FOREIGN KEY "+quoteIdent(name))
	}

	for _, name := range td.IndexesToDrop {
		if name == models.PrimaryKeyName {
			stmts = append(stmts, alter+"DROP PRIMARY KEY")
		} else {
			stmts = append(stmts, alter+"DROP INDEX "+quoteIdent(name))
		}
	}

	for _, col := range td.ColumnsToAdd {
		stmts = append(stmts, alter+"ADD COLUMN "+g.RenderColumn(col))
	}

	for _, name := range sortedChangeNames(td.ColumnsToModify) {
		stmts = append(stmts, alter+"MODIFY COLUMN "+g.RenderColumn(td.ColumnsToModify[name].Desired))
	}

	if g.AllowColumnDrops {
		for _, name := range td.ColumnsToDrop {
			stmts = append(stmts, alter+"DROP COLUMN "+quoteIdent(name))
		}
	} else if len(td.ColumnsToDrop) > 0 {
		g.Logger.Warningf("table %s: suppressing drop of %d column(s): %s",
			tableName, len(td.ColumnsToDrop), strings.Join(td.ColumnsToDrop, ", "))
	}

	for _, name := range sortedIndexNames(td.IndexesToAdd) {
		idx := td.IndexesToAdd[name]
		switch {
		case name == models.PrimaryKeyName:
			stmts = append(stmts, alter+"ADD PRIMARY KEY ("+quoteIdents(idx.Columns)+")")
		case idx.Unique:
			stmts = append(stmts, alter+"ADD UNIQUE KEY "+quoteIdent(name)+" ("+quoteIdents(idx.Columns)+")")
		default:
			stmts = append(stmts, alter+"ADD KEY "+quoteIdent(name)+" ("+quoteIdents(idx.Columns)+")")
		}
	}

	for _, name := range sortedForeignKeyNames(td.ForeignKeysToAdd) {
		stmts = append(stmts, alter+"ADD "+renderForeignKeyDef(td.ForeignKeysToAdd[name]))
	}

	if td.Options.Engine != "" {
		stmts = append(stmts, alter+"ENGINE="+td.Options.Engine)
	}
	if td.Options.Collation != "" {
		stmts = append(stmts, alter+"COLLATE="+td.Options.Collation)
	}

	return stmts
}

func sortedChangeNames(m map[string]models.ColumnChange) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func sortedIndexNames(m map[string]*models.Index) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	// the primary key, when re-added, goes first
	for i, name := range names {
		if name == models.PrimaryKeyName && i != 0 {
			copy(names[1:i+1], names[:i])
			names[0] = models.PrimaryKeyName
			break
		}
	}
	return names
}

func sortedForeignKeyNames(m map[string]*models.ForeignKey) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
