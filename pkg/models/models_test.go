package models

import "testing"

func strptr(s string) *string {
	return &s
}

func TestNormalizeType(t *testing.T) {
	cases := []struct {
		input    string
		expected string
	}{
		{"INT", "int"},
		{"int(11)", "int(11)"},
		{"INT(11)", "int(11)"},
		{"VARCHAR (128)", "varchar(128)"},
		{"varchar( 128 )", "varchar(128)"},
		{"DECIMAL(20, 8)", "decimal(20,8)"},
		{"decimal(20,8)", "decimal(20,8)"},
		{"  text  ", "text"},
		{"DOUBLE   PRECISION", "double precision"},
		{"int(10) unsigned", "int(10) unsigned"},
		{"INT(10)  UNSIGNED", "int(10) unsigned"},
		{"enum('a','b')", "enum('a','b')"},
	}

	for _, c := range cases {
		if got := NormalizeType(c.input); got != c.expected {
			t.Errorf("NormalizeType(%q) = %q, expected %q", c.input, got, c.expected)
		}
	}
}

func TestNormalizeTypeStable(t *testing.T) {
	inputs := []string{"VARCHAR (128)", "DECIMAL(20, 8)", "int", "INT(10)  UNSIGNED"}
	for _, input := range inputs {
		once := NormalizeType(input)
		twice := NormalizeType(once)
		if once != twice {
			t.Errorf("NormalizeType not stable for %q: %q != %q", input, once, twice)
		}
	}
}

func TestNormalizeDefault(t *testing.T) {
	if got := NormalizeDefault(nil); got != nil {
		t.Errorf("expected nil for nil default, got %q", *got)
	}
	if got := NormalizeDefault(strptr("NULL")); got != nil {
		t.Errorf("expected nil for NULL default, got %q", *got)
	}
	if got := NormalizeDefault(strptr("null")); got != nil {
		t.Errorf("expected nil for null default, got %q", *got)
	}
	if got := NormalizeDefault(strptr("''")); got == nil || *got != "" {
		t.Error("expected empty string for '' default")
	}
	if got := NormalizeDefault(strptr("'hello'")); got == nil || *got != "hello" {
		t.Error("expected quotes stripped from 'hello'")
	}
	if got := NormalizeDefault(strptr(`"hello"`)); got == nil || *got != "hello" {
		t.Error("expected quotes stripped from double-quoted value")
	}
	if got := NormalizeDefault(strptr(`'it\'s'`)); got == nil || *got != "it's" {
		t.Error("expected backslash escape resolved")
	}
	if got := NormalizeDefault(strptr("0")); got == nil || *got != "0" {
		t.Error("expected numeric literal preserved")
	}
	if got := NormalizeDefault(strptr("0.00000000")); got == nil || *got != "0.00000000" {
		t.Error("expected decimal literal preserved verbatim")
	}
}

func TestNormalizeDefaultStable(t *testing.T) {
	inputs := []*string{strptr("'hello'"), strptr("0"), strptr("''"), strptr("NULL"), nil}
	for _, input := range inputs {
		once := NormalizeDefault(input)
		twice := NormalizeDefault(once)
		if (once == nil) != (twice == nil) {
			t.Errorf("NormalizeDefault not stable for %v", input)
			continue
		}
		if once != nil && *once != *twice {
			t.Errorf("NormalizeDefault not stable: %q != %q", *once, *twice)
		}
	}
}

func TestColumnEqual(t *testing.T) {
	a := &Column{Name: "id", Type: "INT(11)", Nullable: false}
	b := &Column{Name: "id", Type: "int(11)", Nullable: false}
	if !a.Equal(b) {
		t.Error("expected columns with equivalent types to be equal")
	}

	c := &Column{Name: "id", Type: "int(11)", Nullable: true}
	if a.Equal(c) {
		t.Error("expected nullability change to make columns unequal")
	}

	d := &Column{Name: "id", Type: "int(11)", Nullable: false, Default: strptr("NULL")}
	if !a.Equal(d) {
		t.Error("expected NULL default to compare equal to absent default")
	}

	e := &Column{Name: "id", Type: "int(11)", Nullable: false, Extra: "auto_increment"}
	if a.Equal(e) {
		t.Error("expected extra change to make columns unequal")
	}

	f := &Column{Name: "name", Type: "varchar(64)", Default: strptr("'x'")}
	g := &Column{Name: "name", Type: "varchar(64)", Default: strptr("x")}
	if !f.Equal(g) {
		t.Error("expected quoted and raw defaults to compare equal after normalization")
	}
}

func TestIndexEqual(t *testing.T) {
	a := &Index{Name: "email", Columns: []string{"email"}, Unique: false}
	b := &Index{Name: "email", Columns: []string{"email"}, Unique: true}
	if a.Equal(b) {
		t.Error("expected uniqueness change to make indexes unequal")
	}

	c := &Index{Name: "email", Columns: []string{"email", "name"}, Unique: false}
	if a.Equal(c) {
		t.Error("expected column list change to make indexes unequal")
	}

	d := &Index{Name: "email2", Columns: []string{"email"}, Unique: false}
	if !a.Equal(d) {
		t.Error("expected name-only change to compare equal")
	}
}

func TestForeignKeyEqual(t *testing.T) {
	a := &ForeignKey{
		Name:              "fk_user",
		Columns:           []string{"user_id"},
		ReferencedTable:   "users",
		ReferencedColumns: []string{"id"},
		OnUpdate:          ActionRestrict,
		OnDelete:          ActionRestrict,
	}
	b := &ForeignKey{
		Name:              "fk_user",
		Columns:           []string{"user_id"},
		ReferencedTable:   "users",
		ReferencedColumns: []string{"id"},
		OnUpdate:          ActionRestrict,
		OnDelete:          ActionCascade,
	}
	if a.Equal(b) {
		t.Error("expected ON DELETE change to make foreign keys unequal")
	}

	c := *a
	if !a.Equal(&c) {
		t.Error("expected identical foreign keys to be equal")
	}
}

func TestTableHelpers(t *testing.T) {
	table := NewTable("users")
	table.Columns = append(table.Columns, &Column{Name: "id", Type: "int(11)"})
	table.Columns = append(table.Columns, &Column{Name: "email", Type: "varchar(255)"})
	table.Indexes[PrimaryKeyName] = &Index{Name: PrimaryKeyName, Columns: []string{"id"}, Unique: true}
	table.Indexes["email"] = &Index{Name: "email", Columns: []string{"email"}}

	if !table.HasColumn("id") {
		t.Error("expected HasColumn to find id")
	}
	if table.HasColumn("missing") {
		t.Error("expected HasColumn to miss unknown column")
	}
	if table.PrimaryKey() == nil {
		t.Error("expected primary key to be found")
	}

	names := table.IndexNames()
	if len(names) != 2 || names[0] != PrimaryKeyName {
		t.Errorf("expected PRIMARY first in index names, got %v", names)
	}
}

func TestDeltaEmpty(t *testing.T) {
	delta := NewDelta()
	if !delta.Empty() {
		t.Error("expected fresh delta to be empty")
	}

	td := NewTableDelta()
	if !td.Empty() {
		t.Error("expected fresh table delta to be empty")
	}

	td.ColumnsToDrop = append(td.ColumnsToDrop, "old")
	if td.Empty() {
		t.Error("expected delta with column drops to be non-empty")
	}
}

func TestSyncError(t *testing.T) {
	err := NewParseError(42, "unbalanced parenthesis")
	if err.Kind != ParseError {
		t.Errorf("expected parse kind, got %v", err.Kind)
	}
	if err.Offset != 42 {
		t.Errorf("expected offset 42, got %d", err.Offset)
	}

	msg := err.Error()
	if msg == "" {
		t.Error("expected non-empty error message")
	}

	exec := NewError(ExecutionError, "statement failed")
	exec.Statement = "ALTER TABLE `t` ADD COLUMN `c` int;"
	if exec.Offset != -1 {
		t.Errorf("expected no offset on execution error, got %d", exec.Offset)
	}
}
