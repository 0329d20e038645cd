package native

import (
	"database/sql"
	"fmt"

	"github.com/alexchoi0/blueprint-engine/internal/value"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

type dbHandle struct {
	db *sql.DB
	tx *sql.Tx
}

func (h *dbHandle) close() {
	if h.tx != nil {
		h.tx.Rollback()
	}
	h.db.Close()
}

func dbFns() []*Fn {
	return []*Fn{
		{Name: "connect", Call: dbConnect},
		{Name: "query", Call: dbQuery},
		{Name: "exec", Call: dbExec},
		{Name: "begin", Call: dbBegin},
		{Name: "commit", Call: dbCommit},
		{Name: "rollback", Call: dbRollback},
		{Name: "close", Call: dbClose},
	}
}

func (c *Context) dbHandle(id int64) (*dbHandle, *value.Error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.dbs[id]
	if !ok {
		return nil, value.NewValueError("db: invalid connection handle %d", id)
	}
	return h, nil
}

// dbConnect opens a connection. Positional: driver (sqlite3, mysql or
// postgres), data source name. Returns an opaque handle.
func dbConnect(ctx *Context, args []value.Value, kwargs map[string]value.Value) value.Value {
	driver, errv := argString("db.connect", args, 0)
	if errv != nil {
		return errv
	}
	dsn, errv := argString("db.connect", args, 1)
	if errv != nil {
		return errv
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return value.NewNativeError("db.connect: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return value.NewNativeError("db.connect: ping: %v", err)
	}

	id := ctx.NextHandleID()
	ctx.mu.Lock()
	ctx.dbs[id] = &dbHandle{db: db}
	ctx.mu.Unlock()
	return &value.Int{Value: id}
}

func dbParams(args []value.Value) ([]interface{}, *value.Error) {
	params := make([]interface{}, len(args))
	for i, a := range args {
		switch v := a.(type) {
		case *value.NoneValue:
			params[i] = nil
		case *value.Bool:
			params[i] = v.Value
		case *value.Int:
			params[i] = v.Value
		case *value.Float:
			params[i] = v.Value
		case *value.String:
			params[i] = v.Value
		case *value.Bytes:
			params[i] = v.Value
		default:
			return nil, value.NewTypeError("db: unsupported parameter type %s", value.TypeName(a))
		}
	}
	return params, nil
}

func dbQuery(ctx *Context, args []value.Value, kwargs map[string]value.Value) value.Value {
	id, errv := argInt("db.query", args, 0)
	if errv != nil {
		return errv
	}
	query, errv := argString("db.query", args, 1)
	if errv != nil {
		return errv
	}
	h, errv := ctx.dbHandle(id)
	if errv != nil {
		return errv
	}
	params, errv := dbParams(args[2:])
	if errv != nil {
		return errv
	}

	var rows *sql.Rows
	var err error
	if h.tx != nil {
		rows, err = h.tx.Query(query, params...)
	} else {
		rows, err = h.db.Query(query, params...)
	}
	if err != nil {
		return value.NewNativeError("db.query: %v", err)
	}
	defer rows.Close()

	return renderRows(rows)
}

// renderRows converts a result set into a list of dicts keyed by column.
func renderRows(rows *sql.Rows) value.Value {
	cols, err := rows.Columns()
	if err != nil {
		return value.NewNativeError("db.query: %v", err)
	}

	out := &value.List{}
	for rows.Next() {
		raw := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return value.NewNativeError("db.query: scan: %v", err)
		}

		row := value.NewDict()
		for i, col := range cols {
			row.Set(&value.String{Value: col}, sqlToValue(raw[i]))
		}
		out.Elements = append(out.Elements, row)
	}
	if err := rows.Err(); err != nil {
		return value.NewNativeError("db.query: %v", err)
	}
	return out
}

func sqlToValue(raw interface{}) value.Value {
	switch raw := raw.(type) {
	case nil:
		return value.None
	case bool:
		if raw {
			return value.True
		}
		return value.False
	case int64:
		return &value.Int{Value: raw}
	case float64:
		return &value.Float{Value: raw}
	case string:
		return &value.String{Value: raw}
	case []byte:
		return &value.String{Value: string(raw)}
	}
	return &value.String{Value: fmt.Sprintf("%v", raw)}
}

func dbExec(ctx *Context, args []value.Value, kwargs map[string]value.Value) value.Value {
	id, errv := argInt("db.exec", args, 0)
	if errv != nil {
		return errv
	}
	query, errv := argString("db.exec", args, 1)
	if errv != nil {
		return errv
	}
	h, errv := ctx.dbHandle(id)
	if errv != nil {
		return errv
	}
	params, errv := dbParams(args[2:])
	if errv != nil {
		return errv
	}

	var result sql.Result
	var err error
	if h.tx != nil {
		result, err = h.tx.Exec(query, params...)
	} else {
		result, err = h.db.Exec(query, params...)
	}
	if err != nil {
		return value.NewNativeError("db.exec: %v", err)
	}

	affected, _ := result.RowsAffected()
	lastID, _ := result.LastInsertId()

	out := value.NewDict()
	out.Set(&value.String{Value: "rows_affected"}, &value.Int{Value: affected})
	out.Set(&value.String{Value: "last_insert_id"}, &value.Int{Value: lastID})
	return out
}

func dbBegin(ctx *Context, args []value.Value, kwargs map[string]value.Value) value.Value {
	id, errv := argInt("db.begin", args, 0)
	if errv != nil {
		return errv
	}
	h, errv := ctx.dbHandle(id)
	if errv != nil {
		return errv
	}
	if h.tx != nil {
		return value.NewValueError("db.begin: transaction already open")
	}
	tx, err := h.db.Begin()
	if err != nil {
		return value.NewNativeError("db.begin: %v", err)
	}
	h.tx = tx
	return value.None
}

func dbCommit(ctx *Context, args []value.Value, kwargs map[string]value.Value) value.Value {
	id, errv := argInt("db.commit", args, 0)
	if errv != nil {
		return errv
	}
	h, errv := ctx.dbHandle(id)
	if errv != nil {
		return errv
	}
	if h.tx == nil {
		return value.NewValueError("db.commit: no open transaction")
	}
	err := h.tx.Commit()
	h.tx = nil
	if err != nil {
		return value.NewNativeError("db.commit: %v", err)
	}
	return value.None
}

func dbRollback(ctx *Context, args []value.Value, kwargs map[string]value.Value) value.Value {
	id, errv := argInt("db.rollback", args, 0)
	if errv != nil {
		return errv
	}
	h, errv := ctx.dbHandle(id)
	if errv != nil {
		return errv
	}
	if h.tx == nil {
		return value.NewValueError("db.rollback: no open transaction")
	}
	err := h.tx.Rollback()
	h.tx = nil
	if err != nil {
		return value.NewNativeError("db.rollback: %v", err)
	}
	return value.None
}

func dbClose(ctx *Context, args []value.Value, kwargs map[string]value.Value) value.Value {
	id, errv := argInt("db.close", args, 0)
	if errv != nil {
		return errv
	}
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	h, ok := ctx.dbs[id]
	if !ok {
		return value.None
	}
	h.close()
	delete(ctx.dbs, id)
	return value.None
}
