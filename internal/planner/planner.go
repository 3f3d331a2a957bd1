package planner

import (
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/yourbasic/graph"

	"github.com/vitebski/mysql-schema-sync/internal/generator"
	"github.com/vitebski/mysql-schema-sync/internal/parser"
	"github.com/vitebski/mysql-schema-sync/pkg/models"
)

// Planner turns a delta into the ordered statement sequence that can
// be applied to the database. CREATE TABLE statements come first,
// ordered so referenced tables are created before the tables that
// reference them; ALTER TABLE statements follow in table-name order.
type Planner struct {
	Generator *generator.Generator
	Logger    *logrus.Logger
}

// NewPlanner creates a new planner
func NewPlanner(gen *generator.Generator, logger *logrus.Logger) *Planner {
	return &Planner{Generator: gen, Logger: logger}
}

// Plan renders the delta as an ordered list of terminated DDL
// statements
func (p *Planner) Plan(delta *models.Delta, desired *models.Schema) []string {
	var stmts []string

	for _, name := range p.orderCreates(delta.TablesToCreate, desired) {
		stmts = append(stmts, p.Generator.RenderTable(desired.Tables[name])+";")
	}

	for _, name := range delta.AlteredTableNames() {
		for _, stmt := range p.Generator.RenderTableDelta(name, delta.TablesToAlter[name]) {
			stmts = append(stmts, stmt+";")
		}
	}

	p.Logger.Debugf("planned %d statement(s)", len(stmts))
	return stmts
}

// orderCreates sorts new tables so foreign key targets come first.
// Only dependencies among the new tables matter: pre-existing tables
// are already there. When the new tables form a cycle the name order
// is kept, as the engine accepts forward references within a session.
func (p *Planner) orderCreates(creates []string, desired *models.Schema) []string {
	if len(creates) < 2 {
		return creates
	}

	names := append([]string(nil), creates...)
	sort.Strings(names)

	index := make(map[string]int, len(names))
	for i, name := range names {
		index[name] = i
	}

	g := graph.New(len(names))
	for i, name := range names {
		table := desired.Tables[name]
		if table == nil {
			continue
		}
		for _, fk := range table.ForeignKeys {
			if fk.ReferencedTable == name {
				continue
			}
			if j, ok := index[fk.ReferencedTable]; ok {
				// referenced table first
				g.Add(j, i)
			}
		}
	}

	order, ok := graph.TopSort(g)
	if !ok {
		p.Logger.Warningf("circular foreign key dependency among new tables, creating in name order")
		return names
	}

	ordered := make([]string, len(order))
	for i, v := range order {
		ordered[i] = names[v]
	}
	return ordered
}

// FastPath reports whether the two schemas render to byte-equal
// normalized DDL, in which case the plan is empty and the differ need
// not run at all.
func (p *Planner) FastPath(current, desired *models.Schema) bool {
	currentDDL := NormalizeDDL(strings.Join(p.Generator.RenderSchema(current), ";\n") + ";")
	desiredDDL := NormalizeDDL(strings.Join(p.Generator.RenderSchema(desired), ";\n") + ";")
	return currentDDL == desiredDDL
}

// NormalizeDDL reduces a DDL document to a canonical comparison form:
// comments, SET directives and DROP TABLE statements are stripped, the
// text is lower-cased, whitespace runs collapse to a single space and
// incidental spacing around punctuation is removed. The result is only
// used for equality tests, never for rendering.
func NormalizeDDL(ddl string) string {
	s := strings.ToLower(parser.Preprocess(ddl))
	s = strings.Join(strings.Fields(s), " ")

	var b strings.Builder
	b.Grow(len(s))
	var prev byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == ' ' {
			var next byte
			if i+1 < len(s) {
				next = s[i+1]
			}
			if isPunct(prev) || isPunct(next) {
				continue
			}
		}
		b.WriteByte(c)
		prev = c
	}
	return b.String()
}

func isPunct(c byte) bool {
	switch c {
	case '(', ')', ',', ';', '=', '`':
		return true
	}
	return false
}
