package parser

import (
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/vitebski/mysql-schema-sync/pkg/models"
)

// Parser converts a document of CREATE TABLE statements into a schema.
// It tolerates typical mysqldump output: conditional-execution
// comments, SET directives and DROP TABLE IF EXISTS statements are
// stripped before structural parsing.
type Parser struct {
	Logger *logrus.Logger
}

// New creates a new DDL parser
func New(logger *logrus.Logger) *Parser {
	return &Parser{Logger: logger}
}

// Parse parses the given DDL document and returns the schema it
// describes. Statements other than CREATE TABLE are skipped.
func (p *Parser) Parse(input string) (*models.Schema, error) {
	src := Preprocess(input)
	schema := models.NewSchema()
	cur := &cursor{src: src}

	for {
		cur.skipSpace()
		if cur.eof() {
			break
		}
		if cur.peek() == ';' {
			cur.pos++
			continue
		}
		start := cur.pos
		if !cur.matchKeyword("CREATE") || !cur.matchKeyword("TABLE") {
			cur.pos = start
			p.Logger.Debugf("skipping non-CREATE TABLE statement at byte %d", cur.offset())
			cur.skipStatement()
			continue
		}

		table, err := p.parseCreateTable(cur)
		if err != nil {
			return nil, err
		}
		if verr := validateTable(table, start); verr != nil {
			return nil, verr
		}
		schema.AddTable(table)
		p.Logger.Debugf("parsed table %s (%d columns, %d indexes, %d foreign keys)",
			table.Name, len(table.Columns), len(table.Indexes), len(table.ForeignKeys))
	}

	return schema, nil
}

// parseCreateTable parses one CREATE TABLE statement; the CREATE TABLE
// keywords have already been consumed
func (p *Parser) parseCreateTable(cur *cursor) (*models.Table, *models.SyncError) {
	if cur.matchKeyword("IF") {
		if !cur.matchKeyword("NOT") || !cur.matchKeyword("EXISTS") {
			return nil, cur.errorf("expected NOT EXISTS after IF")
		}
	}

	name, err := cur.readIdentifier()
	if err != nil {
		return nil, err
	}
	table := models.NewTable(name)

	cur.skipSpace()
	bodyBase := cur.pos + 1
	body, err := cur.readParenGroup()
	if err != nil {
		return nil, err
	}

	parts, err := splitBodyParts(body, cur.base+bodyBase)
	if err != nil {
		return nil, err
	}
	for _, part := range parts {
		if perr := p.parseBodyPart(table, part); perr != nil {
			return nil, perr
		}
	}

	optStart := cur.pos
	cur.skipStatement()
	optEnd := cur.pos
	if optEnd > optStart && cur.src[optEnd-1] == ';' {
		optEnd--
	}
	if perr := parseTableOptions(&cursor{src: cur.src[optStart:optEnd], base: cur.base + optStart}, table); perr != nil {
		return nil, perr
	}
	if table.Options.Engine == "" {
		table.Options.Engine = "InnoDB"
	}

	return table, nil
}

// parseBodyPart classifies and parses one comma-separated part of a
// table body
func (p *Parser) parseBodyPart(table *models.Table, part bodyPart) *models.SyncError {
	cur := &cursor{src: part.text, base: part.offset}

	switch {
	case cur.matchKeyword("PRIMARY"):
		if !cur.matchKeyword("KEY") {
			return cur.errorf("expected KEY after PRIMARY")
		}
		cols, err := parseIndexColumns(cur)
		if err != nil {
			return err
		}
		table.Indexes[models.PrimaryKeyName] = &models.Index{
			Name:    models.PrimaryKeyName,
			Columns: cols,
			Unique:  true,
			Type:    "BTREE",
		}
		return nil

	case cur.matchKeyword("UNIQUE"):
		if !cur.matchKeyword("KEY") {
			cur.matchKeyword("INDEX")
		}
		return parseIndex(cur, table, true)

	case cur.matchKeyword("KEY"), cur.matchKeyword("INDEX"):
		return parseIndex(cur, table, false)

	case cur.matchKeyword("FULLTEXT"), cur.matchKeyword("SPATIAL"):
		return cur.errorf("unsupported index type in table %s", table.Name)

	case cur.matchKeyword("CONSTRAINT"):
		var name string
		if !cur.matchKeyword("FOREIGN") {
			ident, err := cur.readIdentifier()
			if err != nil {
				return err
			}
			name = ident
			if cur.matchKeyword("CHECK") {
				return nil
			}
			if !cur.matchKeyword("FOREIGN") {
				return cur.errorf("expected FOREIGN KEY after CONSTRAINT %s", name)
			}
		}
		if !cur.matchKeyword("KEY") {
			return cur.errorf("expected KEY after FOREIGN")
		}
		return parseForeignKey(cur, table, name)

	case cur.matchKeyword("FOREIGN"):
		if !cur.matchKeyword("KEY") {
			return cur.errorf("expected KEY after FOREIGN")
		}
		return parseForeignKey(cur, table, "")

	case cur.matchKeyword("CHECK"):
		// check constraints are not represented in the model
		return nil

	default:
		return parseColumn(cur, table)
	}
}

// parseColumn parses a column definition part
func parseColumn(cur *cursor, table *models.Table) *models.SyncError {
	name, err := cur.readIdentifier()
	if err != nil {
		return err
	}

	base, err := cur.readIdentifier()
	if err != nil {
		return cur.errorf("expected type for column %s", name)
	}
	typ := strings.ToLower(base)
	cur.skipSpace()
	if cur.peek() == '(' {
		params, perr := cur.readParenGroup()
		if perr != nil {
			return perr
		}
		typ += "(" + strings.TrimSpace(params) + ")"
	}

	col := &models.Column{Name: name, Type: typ, Nullable: true}

	for !cur.eof() {
		cur.skipSpace()
		if cur.eof() {
			break
		}
		switch {
		case cur.matchKeyword("NOT"):
			if !cur.matchKeyword("NULL") {
				return cur.errorf("expected NULL after NOT in column %s", name)
			}
			col.Nullable = false
		case cur.matchKeyword("NULL"):
			col.Nullable = true
		case cur.matchKeyword("DEFAULT"):
			if derr := parseDefault(cur, col); derr != nil {
				return derr
			}
		case cur.matchKeyword("AUTO_INCREMENT"):
			col.Extra = "auto_increment"
		case cur.matchKeyword("COMMENT"):
			comment, cerr := cur.readStringLiteral()
			if cerr != nil {
				return cerr
			}
			col.Comment = comment
		case cur.matchKeyword("CHARACTER"):
			if !cur.matchKeyword("SET") {
				return cur.errorf("expected SET after CHARACTER in column %s", name)
			}
			cs, cerr := cur.readIdentifier()
			if cerr != nil {
				return cerr
			}
			col.Charset = cs
		case cur.matchKeyword("CHARSET"):
			cs, cerr := cur.readIdentifier()
			if cerr != nil {
				return cerr
			}
			col.Charset = cs
		case cur.matchKeyword("COLLATE"):
			coll, cerr := cur.readIdentifier()
			if cerr != nil {
				return cerr
			}
			col.Collation = coll
		case cur.matchKeyword("UNSIGNED"):
			// part of the column type, matching information_schema's
			// full column_type
			col.Type += " unsigned"
		case cur.matchKeyword("ZEROFILL"):
			col.Type += " zerofill"
		default:
			// ON UPDATE and other attributes the model does not carry
			if serr := cur.skipToken(); serr != nil {
				return serr
			}
		}
	}

	table.Columns = append(table.Columns, col)
	return nil
}

// parseDefault parses the value after a DEFAULT keyword. The literal
// NULL means absence of a default.
func parseDefault(cur *cursor, col *models.Column) *models.SyncError {
	cur.skipSpace()
	if cur.eof() {
		return cur.errorf("expected value after DEFAULT in column %s", col.Name)
	}
	if cur.peek() == '\'' || cur.peek() == '"' {
		value, err := cur.readStringLiteral()
		if err != nil {
			return err
		}
		col.Default = &value
		return nil
	}
	token := cur.readBareToken()
	if token == "" {
		return cur.errorf("expected value after DEFAULT in column %s", col.Name)
	}
	if strings.EqualFold(token, "null") {
		col.Default = nil
		return nil
	}
	// function defaults like CURRENT_TIMESTAMP may carry a precision
	cur.skipSpace()
	if cur.peek() == '(' {
		params, err := cur.readParenGroup()
		if err != nil {
			return err
		}
		token += "(" + params + ")"
	}
	col.Default = &token
	return nil
}

// parseIndex parses a KEY/INDEX part; the introducing keyword has been
// consumed
func parseIndex(cur *cursor, table *models.Table, unique bool) *models.SyncError {
	var name string
	cur.skipSpace()
	if cur.peek() != '(' {
		ident, err := cur.readIdentifier()
		if err != nil {
			return err
		}
		name = ident
	}

	cols, err := parseIndexColumns(cur)
	if err != nil {
		return err
	}
	if name == "" {
		name = cols[0]
	}

	idx := &models.Index{Name: name, Columns: cols, Unique: unique, Type: "BTREE"}

	if cur.matchKeyword("USING") {
		typ, terr := cur.readIdentifier()
		if terr != nil {
			return terr
		}
		idx.Type = strings.ToUpper(typ)
	}
	if cur.matchKeyword("COMMENT") {
		comment, cerr := cur.readStringLiteral()
		if cerr != nil {
			return cerr
		}
		idx.Comment = comment
	}

	table.Indexes[name] = idx
	return nil
}

// parseIndexColumns reads a parenthesized index column list, dropping
// prefix lengths and sort order
func parseIndexColumns(cur *cursor) ([]string, *models.SyncError) {
	cur.skipSpace()
	groupBase := cur.offset() + 1
	group, err := cur.readParenGroup()
	if err != nil {
		return nil, err
	}
	inner := &cursor{src: group, base: groupBase}
	var cols []string
	for {
		ident, ierr := inner.readIdentifier()
		if ierr != nil {
			return nil, ierr
		}
		cols = append(cols, ident)
		inner.skipSpace()
		if inner.peek() == '(' {
			if _, perr := inner.readParenGroup(); perr != nil {
				return nil, perr
			}
		}
		inner.matchKeyword("ASC")
		inner.matchKeyword("DESC")
		inner.skipSpace()
		if inner.eof() {
			return cols, nil
		}
		if inner.peek() != ',' {
			return nil, inner.errorf("expected ',' in index column list")
		}
		inner.pos++
	}
}

// parseForeignKey parses a FOREIGN KEY part; the FOREIGN KEY keywords
// have been consumed. A missing constraint name is synthesized from
// the column names and the referenced table.
func parseForeignKey(cur *cursor, table *models.Table, name string) *models.SyncError {
	cur.skipSpace()
	if cur.peek() != '(' {
		// MySQL allows an index name between FOREIGN KEY and the column list
		if _, err := cur.readIdentifier(); err != nil {
			return err
		}
	}

	cols, err := parseIndexColumns(cur)
	if err != nil {
		return err
	}

	if !cur.matchKeyword("REFERENCES") {
		return cur.errorf("expected REFERENCES in foreign key on table %s", table.Name)
	}
	refTable, rerr := cur.readIdentifier()
	if rerr != nil {
		return rerr
	}
	refCols, rcerr := parseIndexColumns(cur)
	if rcerr != nil {
		return rcerr
	}

	fk := &models.ForeignKey{
		Columns:           cols,
		ReferencedTable:   refTable,
		ReferencedColumns: refCols,
		OnUpdate:          models.ActionRestrict,
		OnDelete:          models.ActionRestrict,
	}

	for cur.matchKeyword("ON") {
		var action string
		var isUpdate bool
		switch {
		case cur.matchKeyword("DELETE"):
			isUpdate = false
		case cur.matchKeyword("UPDATE"):
			isUpdate = true
		default:
			return cur.errorf("expected DELETE or UPDATE after ON in foreign key")
		}
		action, err = parseReferentialAction(cur)
		if err != nil {
			return err
		}
		if isUpdate {
			fk.OnUpdate = action
		} else {
			fk.OnDelete = action
		}
	}

	if name == "" {
		name = "fk_" + strings.Join(cols, "_") + "_" + refTable
	}
	fk.Name = name
	table.ForeignKeys[name] = fk
	return nil
}

// parseReferentialAction reads one of RESTRICT, CASCADE, SET NULL and
// NO ACTION, normalized upper-case
func parseReferentialAction(cur *cursor) (string, *models.SyncError) {
	switch {
	case cur.matchKeyword("RESTRICT"):
		return models.ActionRestrict, nil
	case cur.matchKeyword("CASCADE"):
		return models.ActionCascade, nil
	case cur.matchKeyword("SET"):
		if !cur.matchKeyword("NULL") {
			return "", cur.errorf("expected NULL after SET in referential action")
		}
		return models.ActionSetNull, nil
	case cur.matchKeyword("NO"):
		if !cur.matchKeyword("ACTION") {
			return "", cur.errorf("expected ACTION after NO in referential action")
		}
		return models.ActionNoAction, nil
	}
	return "", cur.errorf("unrecognized referential action")
}

// parseTableOptions parses the clause between the closing ')' and the
// statement terminator
func parseTableOptions(cur *cursor, table *models.Table) *models.SyncError {
	for {
		cur.skipSpace()
		if cur.eof() {
			return nil
		}
		switch {
		case cur.matchKeyword("ENGINE"):
			value, err := readOptionValue(cur)
			if err != nil {
				return err
			}
			table.Options.Engine = value
		case cur.matchKeyword("DEFAULT"):
			// DEFAULT CHARSET / DEFAULT COLLATE; the keyword itself
			// carries no information
		case cur.matchKeyword("CHARSET"):
			value, err := readOptionValue(cur)
			if err != nil {
				return err
			}
			table.Options.Charset = value
		case cur.matchKeyword("CHARACTER"):
			if !cur.matchKeyword("SET") {
				return cur.errorf("expected SET after CHARACTER in table options")
			}
			value, err := readOptionValue(cur)
			if err != nil {
				return err
			}
			table.Options.Charset = value
		case cur.matchKeyword("COLLATE"):
			value, err := readOptionValue(cur)
			if err != nil {
				return err
			}
			table.Options.Collation = value
		case cur.matchKeyword("COMMENT"):
			skipEquals(cur)
			comment, err := cur.readStringLiteral()
			if err != nil {
				return err
			}
			table.Options.Comment = comment
		case cur.matchKeyword("AUTO_INCREMENT"):
			value, err := readOptionValue(cur)
			if err != nil {
				return err
			}
			table.Options.AutoIncrement = value
		default:
			if err := cur.skipToken(); err != nil {
				return err
			}
		}
	}
}

func skipEquals(cur *cursor) {
	cur.skipSpace()
	if cur.peek() == '=' {
		cur.pos++
	}
}

func readOptionValue(cur *cursor) (string, *models.SyncError) {
	skipEquals(cur)
	cur.skipSpace()
	if cur.peek() == '\'' || cur.peek() == '"' {
		return cur.readStringLiteral()
	}
	value := cur.readBareToken()
	if value == "" {
		return "", cur.errorf("expected value in table options")
	}
	return value, nil
}

// validateTable enforces the model invariants the parser is
// responsible for
func validateTable(table *models.Table, offset int) *models.SyncError {
	seen := make(map[string]bool, len(table.Columns))
	for _, col := range table.Columns {
		if seen[col.Name] {
			return models.NewParseError(offset, "duplicate column %s in table %s", col.Name, table.Name)
		}
		seen[col.Name] = true
	}
	for _, fk := range table.ForeignKeys {
		if len(fk.Columns) != len(fk.ReferencedColumns) {
			return models.NewParseError(offset,
				"foreign key %s on table %s has %d columns but %d referenced columns",
				fk.Name, table.Name, len(fk.Columns), len(fk.ReferencedColumns))
		}
		for _, col := range fk.Columns {
			if !table.HasColumn(col) {
				return models.NewParseError(offset,
					"foreign key %s references unknown column %s in table %s", fk.Name, col, table.Name)
			}
		}
	}
	return nil
}
