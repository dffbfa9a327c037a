package session

import (
	"fmt"
	"strconv"
	"strings"
)

// DbHandle is a named, in-memory resource for `sqlite3`: named handles are
// kept in the session state and borrowed per call, and ":memory:" is never
// persisted. It implements just enough of CREATE TABLE / INSERT / DELETE /
// SELECT
// to exercise that lifecycle; swapping in a real pure-Go driver
// (e.g. modernc.org/sqlite) is the natural next step if full SQL
// semantics are ever required.
type DbHandle struct {
	name   string
	tables map[string]*dbTable
}

type dbTable struct {
	columns []string
	rows    [][]string
}

// NewDbHandle returns an empty named database, analogous to opening
// `:memory:` under that name.
func NewDbHandle(name string) *DbHandle {
	return &DbHandle{name: name, tables: map[string]*dbTable{}}
}

// Name returns the handle's name, as given to `sqlite3 <name>`.
func (d *DbHandle) Name() string { return d.name }

// Exec runs a single statement (CREATE TABLE, INSERT or DELETE) and reports rows
// affected, or an error for anything else.
func (d *DbHandle) Exec(stmt string) (rowsAffected int, err error) {
	stmt = strings.TrimSpace(stmt)
	upper := strings.ToUpper(stmt)
	switch {
	case strings.HasPrefix(upper, "CREATE TABLE"):
		return 0, d.createTable(stmt)
	case strings.HasPrefix(upper, "INSERT INTO"):
		return d.insert(stmt)
	case strings.HasPrefix(upper, "DELETE FROM"):
		return d.deleteFrom(stmt)
	default:
		return 0, fmt.Errorf("sqlite3: unsupported statement: %s", stmt)
	}
}

// Query runs a SELECT and returns the matching rows as ordered column/value
// pairs, preserving insertion order the way a real engine would for an
// unindexed table scan.
func (d *DbHandle) Query(stmt string) (columns []string, rows [][]string, err error) {
	stmt = strings.TrimSpace(stmt)
	if !strings.HasPrefix(strings.ToUpper(stmt), "SELECT") {
		return nil, nil, fmt.Errorf("sqlite3: not a SELECT: %s", stmt)
	}
	rest := strings.TrimSpace(stmt[len("SELECT"):])
	fromIdx := strings.Index(strings.ToUpper(rest), "FROM")
	if fromIdx < 0 {
		return nil, nil, fmt.Errorf("sqlite3: missing FROM: %s", stmt)
	}
	colPart := strings.TrimSpace(rest[:fromIdx])
	tail := strings.TrimSpace(rest[fromIdx+len("FROM"):])

	tableName, whereCol, whereVal, hasWhere := splitTableAndWhere(tail)
	t, ok := d.tables[tableName]
	if !ok {
		return nil, nil, fmt.Errorf("sqlite3: no such table: %s", tableName)
	}

	var wantCols []string
	if colPart == "*" {
		wantCols = t.columns
	} else {
		for _, c := range strings.Split(colPart, ",") {
			wantCols = append(wantCols, strings.TrimSpace(c))
		}
	}

	whereIdx := -1
	if hasWhere {
		whereIdx = indexOf(t.columns, whereCol)
		if whereIdx < 0 {
			return nil, nil, fmt.Errorf("sqlite3: no such column: %s", whereCol)
		}
	}

	for _, row := range t.rows {
		if hasWhere && row[whereIdx] != whereVal {
			continue
		}
		var out []string
		for _, c := range wantCols {
			idx := indexOf(t.columns, c)
			if idx < 0 {
				out = append(out, "")
				continue
			}
			out = append(out, row[idx])
		}
		rows = append(rows, out)
	}
	return wantCols, rows, nil
}

func (d *DbHandle) createTable(stmt string) error {
	open := strings.IndexByte(stmt, '(')
	close := strings.LastIndexByte(stmt, ')')
	if open < 0 || close < 0 || close < open {
		return fmt.Errorf("sqlite3: malformed CREATE TABLE: %s", stmt)
	}
	header := stmt[len("CREATE TABLE"):open]
	name := strings.TrimSpace(header)
	colsRaw := strings.Split(stmt[open+1:close], ",")
	var cols []string
	for _, c := range colsRaw {
		fields := strings.Fields(strings.TrimSpace(c))
		if len(fields) == 0 {
			continue
		}
		cols = append(cols, fields[0])
	}
	d.tables[name] = &dbTable{columns: cols}
	return nil
}

func (d *DbHandle) insert(stmt string) (int, error) {
	rest := strings.TrimSpace(stmt[len("INSERT INTO"):])
	open := strings.IndexByte(rest, '(')
	name := strings.TrimSpace(rest)
	var explicitCols []string
	if open >= 0 {
		name = strings.TrimSpace(rest[:open])
		close := strings.IndexByte(rest, ')')
		for _, c := range strings.Split(rest[open+1:close], ",") {
			explicitCols = append(explicitCols, strings.TrimSpace(c))
		}
		rest = rest[close+1:]
	}
	valuesIdx := strings.Index(strings.ToUpper(rest), "VALUES")
	if valuesIdx < 0 {
		return 0, fmt.Errorf("sqlite3: missing VALUES: %s", stmt)
	}
	rest = strings.TrimSpace(rest[valuesIdx+len("VALUES"):])
	open = strings.IndexByte(rest, '(')
	close := strings.LastIndexByte(rest, ')')
	if open < 0 || close < 0 {
		return 0, fmt.Errorf("sqlite3: malformed VALUES: %s", stmt)
	}
	var vals []string
	for _, v := range strings.Split(rest[open+1:close], ",") {
		vals = append(vals, unquoteSQL(strings.TrimSpace(v)))
	}

	t, ok := d.tables[name]
	if !ok {
		return 0, fmt.Errorf("sqlite3: no such table: %s", name)
	}
	row := make([]string, len(t.columns))
	if explicitCols == nil {
		copy(row, vals)
	} else {
		for i, c := range explicitCols {
			idx := indexOf(t.columns, c)
			if idx >= 0 && i < len(vals) {
				row[idx] = vals[i]
			}
		}
	}
	t.rows = append(t.rows, row)
	return 1, nil
}

func (d *DbHandle) deleteFrom(stmt string) (int, error) {
	rest := strings.TrimSpace(stmt[len("DELETE FROM"):])
	name, whereCol, whereVal, hasWhere := splitTableAndWhere(rest)
	t, ok := d.tables[name]
	if !ok {
		return 0, fmt.Errorf("sqlite3: no such table: %s", name)
	}
	if !hasWhere {
		n := len(t.rows)
		t.rows = nil
		return n, nil
	}
	idx := indexOf(t.columns, whereCol)
	if idx < 0 {
		return 0, fmt.Errorf("sqlite3: no such column: %s", whereCol)
	}
	var kept [][]string
	removed := 0
	for _, row := range t.rows {
		if row[idx] == whereVal {
			removed++
			continue
		}
		kept = append(kept, row)
	}
	t.rows = kept
	return removed, nil
}

func splitTableAndWhere(s string) (table, col, val string, hasWhere bool) {
	upper := strings.ToUpper(s)
	whereIdx := strings.Index(upper, "WHERE")
	if whereIdx < 0 {
		return strings.TrimSpace(s), "", "", false
	}
	table = strings.TrimSpace(s[:whereIdx])
	cond := strings.TrimSpace(s[whereIdx+len("WHERE"):])
	parts := strings.SplitN(cond, "=", 2)
	if len(parts) != 2 {
		return table, "", "", false
	}
	return table, strings.TrimSpace(parts[0]), unquoteSQL(strings.TrimSpace(parts[1])), true
}

func unquoteSQL(s string) string {
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return s
	}
	return s
}

func indexOf(list []string, v string) int {
	for i, s := range list {
		if strings.EqualFold(s, v) {
			return i
		}
	}
	return -1
}
