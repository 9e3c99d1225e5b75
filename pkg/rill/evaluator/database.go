package evaluator

import (
	"database/sql"

	_ "modernc.org/sqlite"
)

// builtinSQL runs a read-only query against a SQLite database file and
// returns the result set as a table: an array of records keyed by column
// name.
func builtinSQL(args []Object, env *Environment) Object {
	if len(args) != 2 {
		return newArityError("sql", len(args), 2)
	}

	path, ok := baseObject(args[0]).(*String)
	if !ok {
		return newFirstArgError("sql", "a database path string", args[0])
	}
	query, ok := baseObject(args[1]).(*String)
	if !ok {
		return newSecondArgError("sql", "a query string", args[1])
	}

	db, err := sql.Open("sqlite", path.Value)
	if err != nil {
		return newError("DB-0001", map[string]any{"Path": path.Value, "GoError": err.Error()})
	}
	defer db.Close()

	rows, err := db.Query(query.Value)
	if err != nil {
		return newError("DB-0002", map[string]any{"GoError": err.Error()})
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return newError("DB-0002", map[string]any{"GoError": err.Error()})
	}

	table := []Object{}
	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return newError("DB-0003", map[string]any{"GoError": err.Error()})
		}

		rec := NewRecord()
		for i, column := range columns {
			rec.Set(column, sqlValueToObject(values[i]))
		}
		table = append(table, rec)
	}
	if err := rows.Err(); err != nil {
		return newError("DB-0002", map[string]any{"GoError": err.Error()})
	}

	return &Array{Elements: table}
}

func sqlValueToObject(val any) Object {
	switch v := val.(type) {
	case nil:
		return NULL
	case int64:
		return &Integer{Value: v}
	case float64:
		return &Float{Value: v}
	case bool:
		return nativeBoolToBoolean(v)
	case string:
		return &String{Value: v}
	case []byte:
		return &String{Value: string(v)}
	default:
		return NULL
	}
}
