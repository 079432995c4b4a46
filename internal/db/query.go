package db

import (
	"embed"
	"fmt"
	"strconv"
	"strings"
	"time"

	"taskmanager/internal/db/models"
)

//go:embed schema/*.sql
var schemaFS embed.FS

const taskColumns = "id, title, description, completed, created_at, updated_at"

type dialect struct {
	name        string
	schema      string
	placeholder func(n int) string
}

var (
	postgresDialect = dialect{
		name:        "postgres",
		schema:      "schema/postgres.sql",
		placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
	}
	sqliteDialect = dialect{
		name:        "sqlite",
		schema:      "schema/sqlite.sql",
		placeholder: func(int) string { return "?" },
	}
)

func (d dialect) schemaSQL(table string) (string, error) {
	raw, err := schemaFS.ReadFile(d.schema)
	if err != nil {
		return "", fmt.Errorf("read %s schema: %w", d.name, err)
	}
	return strings.ReplaceAll(string(raw), "{{table}}", table), nil
}

func (d dialect) listQuery(table string) string {
	return fmt.Sprintf("SELECT %s FROM %s ORDER BY id", taskColumns, table)
}

func (d dialect) getQuery(table string) string {
	return fmt.Sprintf("SELECT %s FROM %s WHERE id = %s", taskColumns, table, d.placeholder(1))
}

func (d dialect) deleteQuery(table string) string {
	return fmt.Sprintf("DELETE FROM %s WHERE id = %s", table, d.placeholder(1))
}

func (d dialect) insert(table, title string, description *string, now time.Time) (string, []any) {
	args := []any{title, description, false, now, now}
	q := fmt.Sprintf(
		"INSERT INTO %s (title, description, completed, created_at, updated_at) VALUES (%s, %s, %s, %s, %s) RETURNING %s",
		table,
		d.placeholder(1), d.placeholder(2), d.placeholder(3), d.placeholder(4), d.placeholder(5),
		taskColumns,
	)
	return q, args
}

// update builds an UPDATE touching only the supplied patch fields.
// updated_at is always refreshed.
func (d dialect) update(table string, id int64, patch models.TaskPatch, now time.Time) (string, []any) {
	var (
		sets []string
		args []any
	)
	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, col+" = "+d.placeholder(len(args)))
	}

	if patch.Title.Set {
		set("title", patch.Title.Value)
	}
	if patch.Description.Set {
		set("description", patch.Description.Value)
	}
	if patch.Completed.Set {
		set("completed", patch.Completed.Value)
	}
	set("updated_at", now)

	args = append(args, id)
	q := fmt.Sprintf("UPDATE %s SET %s WHERE id = %s RETURNING %s",
		table, strings.Join(sets, ", "), d.placeholder(len(args)), taskColumns)
	return q, args
}
