package introspector

import (
	"context"
	"database/sql"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/vitebski/mysql-schema-sync/internal/connector"
	"github.com/vitebski/mysql-schema-sync/pkg/models"
)

// Introspector materializes the schema of a live database from its
// information schema. The result is semantically equivalent to what
// the parser would produce from a clean dump of the same tables.
type Introspector struct {
	DB     *connector.DatabaseConnector
	Logger *logrus.Logger
}

// NewIntrospector creates a new schema introspector
func NewIntrospector(db *connector.DatabaseConnector, logger *logrus.Logger) *Introspector {
	return &Introspector{DB: db, Logger: logger}
}

type tableRow struct {
	Name          string         `db:"table_name"`
	Engine        sql.NullString `db:"engine"`
	Collation     sql.NullString `db:"table_collation"`
	Comment       sql.NullString `db:"table_comment"`
	AutoIncrement sql.NullString `db:"auto_increment"`
}

type columnRow struct {
	Name       string         `db:"column_name"`
	ColumnType string         `db:"column_type"`
	IsNullable string         `db:"is_nullable"`
	Default    sql.NullString `db:"column_default"`
	Extra      string         `db:"extra"`
	Comment    string         `db:"column_comment"`
	Charset    sql.NullString `db:"character_set_name"`
	Collation  sql.NullString `db:"collation_name"`
}

type indexRow struct {
	Name      string `db:"index_name"`
	NonUnique int    `db:"non_unique"`
	Column    string `db:"column_name"`
	Type      string `db:"index_type"`
	Comment   string `db:"index_comment"`
}

type foreignKeyRow struct {
	Name             string `db:"constraint_name"`
	Column           string `db:"column_name"`
	ReferencedTable  string `db:"referenced_table_name"`
	ReferencedColumn string `db:"referenced_column_name"`
	UpdateRule       string `db:"update_rule"`
	DeleteRule       string `db:"delete_rule"`
}

// IntrospectSchema reads the full schema of the connected database
func (in *Introspector) IntrospectSchema(ctx context.Context) (*models.Schema, error) {
	tablesQuery := `
		SELECT
			table_name,
			engine,
			table_collation,
			table_comment,
			auto_increment
		FROM information_schema.tables
		WHERE table_schema = ?
		AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`
	var tables []tableRow
	if err := in.DB.Select(ctx, &tables, tablesQuery, in.DB.Database); err != nil {
		in.Logger.Errorf("Error getting tables: %v", err)
		return nil, models.WrapError(models.IntrospectionError, err, "list tables of %s", in.DB.Database)
	}

	schema := models.NewSchema()
	for _, row := range tables {
		table, err := in.introspectTable(ctx, row)
		if err != nil {
			return nil, err
		}
		schema.AddTable(table)
	}

	in.Logger.Infof("Introspected %d tables from %s", len(schema.Tables), in.DB.Database)
	return schema, nil
}

// introspectTable gathers columns, indexes, foreign keys and options
// for one table
func (in *Introspector) introspectTable(ctx context.Context, row tableRow) (*models.Table, error) {
	table := models.NewTable(row.Name)
	table.Options = models.TableOptions{
		Engine:        row.Engine.String,
		Collation:     row.Collation.String,
		Comment:       row.Comment.String,
		AutoIncrement: row.AutoIncrement.String,
	}
	if table.Options.Engine == "" {
		table.Options.Engine = "InnoDB"
	}

	if err := in.introspectColumns(ctx, table); err != nil {
		return nil, err
	}
	if err := in.introspectIndexes(ctx, table); err != nil {
		return nil, err
	}
	if err := in.introspectForeignKeys(ctx, table); err != nil {
		return nil, err
	}

	in.Logger.Debugf("introspected table %s (%d columns, %d indexes, %d foreign keys)",
		table.Name, len(table.Columns), len(table.Indexes), len(table.ForeignKeys))
	return table, nil
}

func (in *Introspector) introspectColumns(ctx context.Context, table *models.Table) error {
	columnsQuery := `
		SELECT
			column_name,
			column_type,
			is_nullable,
			column_default,
			extra,
			column_comment,
			character_set_name,
			collation_name
		FROM information_schema.columns
		WHERE table_schema = ?
		AND table_name = ?
		ORDER BY ordinal_position
	`
	var rows []columnRow
	if err := in.DB.Select(ctx, &rows, columnsQuery, in.DB.Database, table.Name); err != nil {
		in.Logger.Errorf("Error getting columns for table %s: %v", table.Name, err)
		return models.WrapError(models.IntrospectionError, err, "columns of %s", table.Name)
	}

	for _, row := range rows {
		col := &models.Column{
			Name:      row.Name,
			Type:      models.NormalizeType(row.ColumnType),
			Nullable:  row.IsNullable == "YES",
			Extra:     normalizeExtra(row.Extra),
			Comment:   row.Comment,
			Charset:   row.Charset.String,
			Collation: row.Collation.String,
		}
		if row.Default.Valid {
			def := row.Default.String
			col.Default = &def
		}
		table.Columns = append(table.Columns, col)
	}
	return nil
}

func (in *Introspector) introspectIndexes(ctx context.Context, table *models.Table) error {
	indexesQuery := `
		SELECT
			index_name,
			non_unique,
			column_name,
			index_type,
			index_comment
		FROM information_schema.statistics
		WHERE table_schema = ?
		AND table_name = ?
		ORDER BY index_name, seq_in_index
	`
	var rows []indexRow
	if err := in.DB.Select(ctx, &rows, indexesQuery, in.DB.Database, table.Name); err != nil {
		in.Logger.Errorf("Error getting indexes for table %s: %v", table.Name, err)
		return models.WrapError(models.IntrospectionError, err, "indexes of %s", table.Name)
	}

	for _, row := range rows {
		idx, ok := table.Indexes[row.Name]
		if !ok {
			idx = &models.Index{
				Name:    row.Name,
				Unique:  row.NonUnique == 0,
				Type:    row.Type,
				Comment: row.Comment,
			}
			table.Indexes[row.Name] = idx
		}
		idx.Columns = append(idx.Columns, row.Column)
	}
	return nil
}

func (in *Introspector) introspectForeignKeys(ctx context.Context, table *models.Table) error {
	fkQuery := `
		SELECT
			kcu.constraint_name,
			kcu.column_name,
			kcu.referenced_table_name,
			kcu.referenced_column_name,
			rc.update_rule,
			rc.delete_rule
		FROM information_schema.key_column_usage kcu
		JOIN information_schema.referential_constraints rc
		ON rc.constraint_schema = kcu.constraint_schema
		AND rc.constraint_name = kcu.constraint_name
		WHERE kcu.table_schema = ?
		AND kcu.table_name = ?
		AND kcu.referenced_table_name IS NOT NULL
		ORDER BY kcu.constraint_name, kcu.ordinal_position
	`
	var rows []foreignKeyRow
	if err := in.DB.Select(ctx, &rows, fkQuery, in.DB.Database, table.Name); err != nil {
		in.Logger.Errorf("Error getting foreign keys for table %s: %v", table.Name, err)
		return models.WrapError(models.IntrospectionError, err, "foreign keys of %s", table.Name)
	}

	for _, row := range rows {
		fk, ok := table.ForeignKeys[row.Name]
		if !ok {
			fk = &models.ForeignKey{
				Name:            row.Name,
				ReferencedTable: row.ReferencedTable,
				OnUpdate:        strings.ToUpper(row.UpdateRule),
				OnDelete:        strings.ToUpper(row.DeleteRule),
			}
			table.ForeignKeys[row.Name] = fk
		}
		fk.Columns = append(fk.Columns, row.Column)
		fk.ReferencedColumns = append(fk.ReferencedColumns, row.ReferencedColumn)
	}
	return nil
}

// normalizeExtra lower-cases the extra flag and keeps only the values
// the model represents
func normalizeExtra(extra string) string {
	extra = strings.ToLower(strings.TrimSpace(extra))
	if strings.Contains(extra, "auto_increment") {
		return "auto_increment"
	}
	return ""
}
