package engine

import (
	"fmt"

	"github.com/sparrowdb/sparrowdb/pkg/catalog"
	"github.com/sparrowdb/sparrowdb/pkg/query"
	"github.com/sparrowdb/sparrowdb/pkg/value"
)

// executeInsert, executeUpdate, and executeDelete each snapshot their
// table before mutating it and restore on the first error, so a statement
// that fails partway through (e.g. a UNIQUE violation on row 3 of a
// multi-row INSERT) leaves no partial effect — nothing is partially
// committed.

func (ex *executor) executeInsert(stmt *query.InsertStmt) (*Result, error) {
	t, err := ex.catalog.GetTable(stmt.Table)
	if err != nil {
		return nil, err
	}

	snap, err := ex.catalog.Snapshot(stmt.Table)
	if err != nil {
		return nil, err
	}

	inserted, err := ex.insertRows(stmt, t)
	if err != nil {
		if rerr := ex.catalog.Restore(stmt.Table, snap); rerr != nil {
			return nil, rerr
		}
		return nil, err
	}

	return &Result{Affected: inserted, Message: fmt.Sprintf("%d row(s) inserted", inserted)}, nil
}

func (ex *executor) insertRows(stmt *query.InsertStmt, t *catalog.Table) (int, error) {
	inserted := 0
	for _, exprs := range stmt.Values {
		values := make(map[string]value.Value)

		if len(stmt.Columns) > 0 {
			if len(stmt.Columns) != len(exprs) {
				return inserted, &catalog.SchemaError{Message: fmt.Sprintf("INSERT expects %d values, got %d", len(stmt.Columns), len(exprs))}
			}
			for i, col := range stmt.Columns {
				v, err := ex.eval(exprs[i], wrapRow(tuple{}))
				if err != nil {
					return inserted, err
				}
				values[col] = v
			}
		} else {
			if len(exprs) != len(t.Columns) {
				return inserted, &catalog.SchemaError{Message: fmt.Sprintf("INSERT expects %d values, got %d", len(t.Columns), len(exprs))}
			}
			for i, col := range t.Columns {
				v, err := ex.eval(exprs[i], wrapRow(tuple{}))
				if err != nil {
					return inserted, err
				}
				values[col.Name] = v
			}
		}

		if _, err := ex.catalog.InsertRow(stmt.Table, values); err != nil {
			return inserted, err
		}
		inserted++
	}
	return inserted, nil
}

func (ex *executor) executeUpdate(stmt *query.UpdateStmt) (*Result, error) {
	t, err := ex.catalog.GetTable(stmt.Table)
	if err != nil {
		return nil, err
	}

	snap, err := ex.catalog.Snapshot(stmt.Table)
	if err != nil {
		return nil, err
	}

	updated, err := ex.updateRows(stmt, t)
	if err != nil {
		if rerr := ex.catalog.Restore(stmt.Table, snap); rerr != nil {
			return nil, rerr
		}
		return nil, err
	}

	return &Result{Affected: updated, Message: fmt.Sprintf("%d row(s) updated", updated)}, nil
}

func (ex *executor) updateRows(stmt *query.UpdateStmt, t *catalog.Table) (int, error) {
	updated := 0
	for _, id := range t.OrderedRowIDs() {
		row, ok := t.Rows[id]
		if !ok {
			continue
		}
		tp := tupleFromRow(stmt.Table, t, row)

		if stmt.Where != nil {
			v, err := ex.eval(stmt.Where, wrapRow(tp))
			if err != nil {
				return updated, err
			}
			keep, known := value.Truthy(v)
			if !known || !keep {
				continue
			}
		}

		values := make(map[string]value.Value, len(stmt.Set))
		for _, set := range stmt.Set {
			v, err := ex.eval(set.Value, wrapRow(tp))
			if err != nil {
				return updated, err
			}
			values[set.Column] = v
		}

		if err := ex.catalog.UpdateRow(stmt.Table, id, values); err != nil {
			return updated, err
		}
		updated++
	}
	return updated, nil
}

func (ex *executor) executeDelete(stmt *query.DeleteStmt) (*Result, error) {
	t, err := ex.catalog.GetTable(stmt.Table)
	if err != nil {
		return nil, err
	}

	snap, err := ex.catalog.Snapshot(stmt.Table)
	if err != nil {
		return nil, err
	}

	deleted, err := ex.deleteRows(stmt, t)
	if err != nil {
		if rerr := ex.catalog.Restore(stmt.Table, snap); rerr != nil {
			return nil, rerr
		}
		return nil, err
	}

	return &Result{Affected: deleted, Message: fmt.Sprintf("%d row(s) deleted", deleted)}, nil
}

func (ex *executor) deleteRows(stmt *query.DeleteStmt, t *catalog.Table) (int, error) {
	var toDelete []catalog.RowID
	for _, id := range t.OrderedRowIDs() {
		row, ok := t.Rows[id]
		if !ok {
			continue
		}
		if stmt.Where != nil {
			tp := tupleFromRow(stmt.Table, t, row)
			v, err := ex.eval(stmt.Where, wrapRow(tp))
			if err != nil {
				return 0, err
			}
			keep, known := value.Truthy(v)
			if !known || !keep {
				continue
			}
		}
		toDelete = append(toDelete, id)
	}

	for _, id := range toDelete {
		if err := ex.catalog.DeleteRow(stmt.Table, id); err != nil {
			return len(toDelete), err
		}
	}
	return len(toDelete), nil
}

func (ex *executor) executeCreateTable(stmt *query.CreateTableStmt) (*Result, error) {
	cols := make([]catalog.Column, len(stmt.Columns))
	for i, cd := range stmt.Columns {
		ct, err := columnType(cd)
		if err != nil {
			return nil, err
		}

		col := catalog.Column{
			Name:       cd.Name,
			Type:       ct,
			NotNull:    cd.NotNull || cd.PrimaryKey,
			Unique:     cd.Unique,
			PrimaryKey: cd.PrimaryKey,
		}

		if cd.Default != nil {
			v, err := ex.eval(cd.Default, wrapRow(tuple{}))
			if err != nil {
				return nil, err
			}
			col.HasDefault = true
			col.Default = v
		}

		cols[i] = col
	}

	if err := ex.catalog.CreateTable(stmt.Table, cols, stmt.IfNotExists); err != nil {
		return nil, err
	}
	return &Result{Message: fmt.Sprintf("table %q created", stmt.Table)}, nil
}

func columnType(cd *query.ColumnDef) (value.ColumnType, error) {
	switch cd.Type {
	case query.TokenTypeInteger:
		return value.ColumnType{DataType: value.TypeInteger}, nil
	case query.TokenTypeFloat:
		return value.ColumnType{DataType: value.TypeFloat}, nil
	case query.TokenTypeVarchar:
		return value.ColumnType{DataType: value.TypeVarchar, Size: cd.VarcharLen}, nil
	case query.TokenTypeText:
		return value.ColumnType{DataType: value.TypeText}, nil
	case query.TokenTypeBoolean:
		return value.ColumnType{DataType: value.TypeBoolean}, nil
	case query.TokenTypeDate:
		return value.ColumnType{DataType: value.TypeDate}, nil
	case query.TokenTypeTimestamp:
		return value.ColumnType{DataType: value.TypeTimestamp}, nil
	default:
		return value.ColumnType{}, &catalog.SchemaError{Message: fmt.Sprintf("unsupported column type %v", cd.Type)}
	}
}

func (ex *executor) executeDropTable(stmt *query.DropTableStmt) (*Result, error) {
	if err := ex.catalog.DropTable(stmt.Table, stmt.IfExists); err != nil {
		return nil, err
	}
	return &Result{Message: fmt.Sprintf("table %q dropped", stmt.Table)}, nil
}

func (ex *executor) executeCreateIndex(stmt *query.CreateIndexStmt) (*Result, error) {
	if err := ex.catalog.CreateIndex(stmt.Index, stmt.Table, stmt.Column, stmt.Unique); err != nil {
		return nil, err
	}
	return &Result{Message: fmt.Sprintf("index %q created", stmt.Index)}, nil
}

func (ex *executor) executeDropIndex(stmt *query.DropIndexStmt) (*Result, error) {
	if err := ex.catalog.DropIndex(stmt.Index, stmt.Table); err != nil {
		return nil, err
	}
	return &Result{Message: fmt.Sprintf("index %q dropped", stmt.Index)}, nil
}

func (ex *executor) executeShowTables(stmt *query.ShowTablesStmt) (*Result, error) {
	names := ex.catalog.ListTables()
	rows := make([][]value.Value, len(names))
	for i, n := range names {
		rows[i] = []value.Value{value.NewString(n)}
	}
	return &Result{Columns: []string{"table_name"}, Rows: rows}, nil
}

func (ex *executor) executeDescribe(stmt *query.DescribeStmt) (*Result, error) {
	t, err := ex.catalog.GetTable(stmt.Table)
	if err != nil {
		return nil, err
	}

	rows := make([][]value.Value, len(t.Columns))
	for i, col := range t.Columns {
		rows[i] = []value.Value{
			value.NewString(col.Name),
			value.NewString(col.Type.String()),
			value.NewBoolean(col.NotNull),
			value.NewBoolean(col.PrimaryKey),
			value.NewBoolean(col.Unique),
		}
	}
	return &Result{Columns: []string{"column", "type", "not_null", "primary_key", "unique"}, Rows: rows}, nil
}

func (ex *executor) executeTruncate(stmt *query.TruncateStmt) (*Result, error) {
	n, err := ex.catalog.Truncate(stmt.Table)
	if err != nil {
		return nil, err
	}
	return &Result{Affected: n, Message: fmt.Sprintf("%d row(s) truncated", n)}, nil
}
