package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/vitebski/mysql-schema-sync/pkg/models"
)

func testParser() *Parser {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel) // Suppress log output during tests
	return New(logger)
}

func mustParse(t *testing.T, ddl string) *models.Schema {
	t.Helper()
	schema, err := testParser().Parse(ddl)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	return schema
}

func TestParseSimpleTable(t *testing.T) {
	schema := mustParse(t, "CREATE TABLE `users` (\n"+
		"  `id` int(11) NOT NULL AUTO_INCREMENT,\n"+
		"  `name` varchar(64) NOT NULL,\n"+
		"  `bio` text,\n"+
		"  PRIMARY KEY (`id`)\n"+
		") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;")

	table, ok := schema.Tables["users"]
	if !ok {
		t.Fatal("expected table users to be parsed")
	}
	if len(table.Columns) != 3 {
		t.Fatalf("expected 3 columns, got %d", len(table.Columns))
	}

	id := table.Column("id")
	if id == nil {
		t.Fatal("expected column id")
	}
	if id.Type != "int(11)" {
		t.Errorf("expected type int(11), got %q", id.Type)
	}
	if id.Nullable {
		t.Error("expected id to be NOT NULL")
	}
	if id.Extra != "auto_increment" {
		t.Errorf("expected auto_increment extra, got %q", id.Extra)
	}

	bio := table.Column("bio")
	if bio == nil || !bio.Nullable {
		t.Error("expected bio to be nullable")
	}

	pk := table.PrimaryKey()
	if pk == nil {
		t.Fatal("expected primary key")
	}
	if !pk.Unique || len(pk.Columns) != 1 || pk.Columns[0] != "id" {
		t.Errorf("unexpected primary key: %+v", pk)
	}

	if table.Options.Engine != "InnoDB" {
		t.Errorf("expected engine InnoDB, got %q", table.Options.Engine)
	}
	if table.Options.Charset != "utf8mb4" {
		t.Errorf("expected charset utf8mb4, got %q", table.Options.Charset)
	}
}

func TestParseDumpBoilerplate(t *testing.T) {
	ddl := `-- MySQL dump 10.13
/*!40101 SET NAMES utf8 */;
SET FOREIGN_KEY_CHECKS=0;
DROP TABLE IF EXISTS ` + "`users`" + `;
CREATE TABLE users (
  id int NOT NULL
);
SET FOREIGN_KEY_CHECKS=1;`

	schema := mustParse(t, ddl)
	if len(schema.Tables) != 1 {
		t.Fatalf("expected exactly one table, got %d", len(schema.Tables))
	}
	if _, ok := schema.Tables["users"]; !ok {
		t.Error("expected table users to survive boilerplate stripping")
	}
}

func TestParseSetTypeSurvivesDirectiveStripping(t *testing.T) {
	ddl := `SET NAMES utf8;
CREATE TABLE prefs (
  flags SET('a','b','c') NOT NULL,
  name varchar(32) CHARACTER SET latin1 COLLATE latin1_bin
);`

	schema := mustParse(t, ddl)
	table := schema.Tables["prefs"]
	if table == nil {
		t.Fatal("expected table prefs")
	}

	flags := table.Column("flags")
	if flags == nil {
		t.Fatal("expected column flags")
	}
	if flags.Type != "set('a','b','c')" {
		t.Errorf("expected SET column type to survive, got %q", flags.Type)
	}

	name := table.Column("name")
	if name == nil {
		t.Fatal("expected column name")
	}
	if name.Charset != "latin1" {
		t.Errorf("expected charset latin1, got %q", name.Charset)
	}
	if name.Collation != "latin1_bin" {
		t.Errorf("expected collation latin1_bin, got %q", name.Collation)
	}
}

func TestParseQuotedParenthesis(t *testing.T) {
	ddl := `CREATE TABLE t (
  a varchar(16) NOT NULL DEFAULT '(foo' COMMENT 'hello ) world',
  b int
);`

	schema := mustParse(t, ddl)
	table := schema.Tables["t"]
	if table == nil {
		t.Fatal("expected table t")
	}
	if len(table.Columns) != 2 {
		t.Fatalf("expected 2 columns, got %d", len(table.Columns))
	}

	a := table.Column("a")
	if a.Default == nil || *a.Default != "(foo" {
		t.Errorf("expected default '(foo', got %v", a.Default)
	}
	if a.Comment != "hello ) world" {
		t.Errorf("expected comment preserved, got %q", a.Comment)
	}
}

func TestParseDefaults(t *testing.T) {
	ddl := `CREATE TABLE t (
  a varchar(255) NOT NULL DEFAULT '',
  b int DEFAULT NULL,
  c decimal(20,8) NOT NULL DEFAULT 0,
  d varchar(16) DEFAULT 'it\'s',
  e timestamp DEFAULT CURRENT_TIMESTAMP
);`

	schema := mustParse(t, ddl)
	table := schema.Tables["t"]

	a := table.Column("a")
	if a.Default == nil || *a.Default != "" {
		t.Error("expected empty-string default for a")
	}

	b := table.Column("b")
	if b.Default != nil {
		t.Errorf("expected absent default for b, got %q", *b.Default)
	}

	c := table.Column("c")
	if c.Type != "decimal(20,8)" {
		t.Errorf("expected decimal(20,8), got %q", c.Type)
	}
	if c.Default == nil || *c.Default != "0" {
		t.Error("expected numeric default 0 for c")
	}

	d := table.Column("d")
	if d.Default == nil || *d.Default != "it's" {
		t.Errorf("expected escape resolved in default for d, got %v", d.Default)
	}

	e := table.Column("e")
	if e.Default == nil || *e.Default != "CURRENT_TIMESTAMP" {
		t.Errorf("expected function default for e, got %v", e.Default)
	}
}

func TestParseIndexes(t *testing.T) {
	ddl := `CREATE TABLE users (
  id int NOT NULL,
  email varchar(255) NOT NULL,
  org_id int NOT NULL,
  PRIMARY KEY (id),
  UNIQUE KEY email (email),
  KEY idx_org (org_id, email)
);`

	schema := mustParse(t, ddl)
	table := schema.Tables["users"]

	email := table.Indexes["email"]
	if email == nil {
		t.Fatal("expected unique index email")
	}
	if !email.Unique {
		t.Error("expected email index to be unique")
	}

	org := table.Indexes["idx_org"]
	if org == nil {
		t.Fatal("expected index idx_org")
	}
	if org.Unique {
		t.Error("expected idx_org to be non-unique")
	}
	if len(org.Columns) != 2 || org.Columns[0] != "org_id" || org.Columns[1] != "email" {
		t.Errorf("unexpected idx_org columns: %v", org.Columns)
	}
}

func TestParseForeignKeys(t *testing.T) {
	ddl := `CREATE TABLE posts (
  id int NOT NULL,
  user_id int NOT NULL,
  editor_id int,
  PRIMARY KEY (id),
  CONSTRAINT fk_author FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE ON UPDATE NO ACTION,
  FOREIGN KEY (editor_id) REFERENCES users (id) ON DELETE SET NULL
);`

	schema := mustParse(t, ddl)
	table := schema.Tables["posts"]

	named := table.ForeignKeys["fk_author"]
	if named == nil {
		t.Fatal("expected foreign key fk_author")
	}
	if named.OnDelete != models.ActionCascade {
		t.Errorf("expected ON DELETE CASCADE, got %q", named.OnDelete)
	}
	if named.OnUpdate != models.ActionNoAction {
		t.Errorf("expected ON UPDATE NO ACTION, got %q", named.OnUpdate)
	}

	synth := table.ForeignKeys["fk_editor_id_users"]
	if synth == nil {
		t.Fatalf("expected synthesized foreign key name, have %v", table.ForeignKeyNames())
	}
	if synth.OnDelete != models.ActionSetNull {
		t.Errorf("expected ON DELETE SET NULL, got %q", synth.OnDelete)
	}
	if synth.OnUpdate != models.ActionRestrict {
		t.Errorf("expected default ON UPDATE RESTRICT, got %q", synth.OnUpdate)
	}
}

func TestParseTableOptions(t *testing.T) {
	ddl := "CREATE TABLE t (id int) ENGINE=MyISAM AUTO_INCREMENT=1000 COLLATE=utf8mb4_general_ci COMMENT='audit log';"

	schema := mustParse(t, ddl)
	opts := schema.Tables["t"].Options
	if opts.Engine != "MyISAM" {
		t.Errorf("expected engine MyISAM, got %q", opts.Engine)
	}
	if opts.AutoIncrement != "1000" {
		t.Errorf("expected auto_increment 1000, got %q", opts.AutoIncrement)
	}
	if opts.Collation != "utf8mb4_general_ci" {
		t.Errorf("expected collation, got %q", opts.Collation)
	}
	if opts.Comment != "audit log" {
		t.Errorf("expected comment, got %q", opts.Comment)
	}
}

func TestParseUnsignedColumns(t *testing.T) {
	ddl := `CREATE TABLE counters (
  id int(10) unsigned NOT NULL AUTO_INCREMENT,
  hits bigint(20) UNSIGNED ZEROFILL NOT NULL DEFAULT 0,
  delta int(11) NOT NULL,
  PRIMARY KEY (id)
);`

	schema := mustParse(t, ddl)
	table := schema.Tables["counters"]
	if table == nil {
		t.Fatal("expected table counters")
	}

	id := table.Column("id")
	if id.Type != "int(10) unsigned" {
		t.Errorf("expected unsigned kept in type, got %q", id.Type)
	}

	hits := table.Column("hits")
	if hits.Type != "bigint(20) unsigned zerofill" {
		t.Errorf("expected unsigned zerofill kept in type, got %q", hits.Type)
	}

	delta := table.Column("delta")
	if delta.Type != "int(11)" {
		t.Errorf("expected plain type untouched, got %q", delta.Type)
	}
}

func TestParseDefaultEngine(t *testing.T) {
	schema := mustParse(t, "CREATE TABLE t (id int NOT NULL);")
	if engine := schema.Tables["t"].Options.Engine; engine != "InnoDB" {
		t.Errorf("expected omitted ENGINE to default to InnoDB, got %q", engine)
	}

	schema = mustParse(t, "CREATE TABLE t (id int NOT NULL) ENGINE=MyISAM;")
	if engine := schema.Tables["t"].Options.Engine; engine != "MyISAM" {
		t.Errorf("expected explicit ENGINE preserved, got %q", engine)
	}
}

func TestParseIfNotExists(t *testing.T) {
	schema := mustParse(t, "CREATE TABLE IF NOT EXISTS `t` (id int);")
	if _, ok := schema.Tables["t"]; !ok {
		t.Error("expected table t with IF NOT EXISTS")
	}
}

func TestParseMultipleTables(t *testing.T) {
	ddl := `CREATE TABLE a (id int);
CREATE TABLE b (id int);
CREATE TABLE c (id int);`

	schema := mustParse(t, ddl)
	if len(schema.Tables) != 3 {
		t.Errorf("expected 3 tables, got %d", len(schema.Tables))
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name string
		ddl  string
	}{
		{"unbalanced parenthesis", "CREATE TABLE t (id int"},
		{"unterminated string", "CREATE TABLE t (a varchar(10) DEFAULT 'oops);"},
		{"malformed foreign key", "CREATE TABLE t (id int, FOREIGN KEY (id) REFS users (id));"},
		{"duplicate column", "CREATE TABLE t (id int, id int);"},
		{"fk unknown column", "CREATE TABLE t (id int, FOREIGN KEY (missing) REFERENCES u (id));"},
		{"fk length mismatch", "CREATE TABLE t (a int, b int, FOREIGN KEY (a, b) REFERENCES u (id));"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := testParser().Parse(c.ddl)
			if err == nil {
				t.Fatal("expected parse error")
			}
			var serr *models.SyncError
			if !errors.As(err, &serr) {
				t.Fatalf("expected SyncError, got %T", err)
			}
			if serr.Kind != models.ParseError {
				t.Errorf("expected parse kind, got %v", serr.Kind)
			}
			if serr.Offset < 0 {
				t.Error("expected byte offset on parse error")
			}
		})
	}
}

func TestParseErrorOffsetPointsIntoInput(t *testing.T) {
	ddl := "CREATE TABLE ok (id int);\nCREATE TABLE bad (id int"
	_, err := testParser().Parse(ddl)
	if err == nil {
		t.Fatal("expected parse error")
	}
	var serr *models.SyncError
	if !errors.As(err, &serr) {
		t.Fatalf("expected SyncError, got %T", err)
	}
	if serr.Offset <= strings.Index(ddl, "bad") {
		t.Errorf("expected offset inside the failing table, got %d", serr.Offset)
	}
}

func TestPreprocessKeepsOffsets(t *testing.T) {
	input := "-- comment\nCREATE TABLE t (id int);"
	out := Preprocess(input)
	if len(out) != len(input) {
		t.Fatalf("expected preprocessing to preserve length: %d != %d", len(out), len(input))
	}
	idx := strings.Index(out, "CREATE")
	if idx != strings.Index(input, "CREATE") {
		t.Error("expected CREATE to stay at the same offset")
	}
}

func TestPreprocessConditionalComment(t *testing.T) {
	out := Preprocess("/*!40101 SET NAMES utf8 */ CREATE TABLE t (id int);")
	if strings.Contains(out, "40101") {
		t.Error("expected conditional comment content to be blanked")
	}
	if !strings.Contains(out, "CREATE TABLE") {
		t.Error("expected statement to survive")
	}
}
