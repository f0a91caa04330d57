package catalog

import (
	"fmt"

	"github.com/sparrowdb/sparrowdb/pkg/btree"
	"github.com/sparrowdb/sparrowdb/pkg/storage"
	"github.com/sparrowdb/sparrowdb/pkg/value"
)

// buildRow coerces values against t's schema, applies column defaults, and
// enforces NOT NULL, UNIQUE-adjacent VARCHAR length, and other row-shape
// constraints. values is keyed by whatever case the caller used for each
// column name; lookup folds to the table's declared columns.
func (c *Catalog) buildRow(t *Table, values map[string]value.Value) (Row, error) {
	folded := make(map[string]value.Value, len(values))
	for k, v := range values {
		folded[FoldIdentifier(k)] = v
	}

	row := make(Row, len(t.Columns))

	for i, col := range t.Columns {
		v, given := folded[FoldIdentifier(col.Name)]
		if !given {
			if col.HasDefault {
				v = col.Default
			} else {
				v = value.NewNull()
			}
		}

		coerced, err := value.Coerce(v, col.Type)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", col.Name, err)
		}

		if col.NotNull && coerced.IsNull() {
			return nil, &ConstraintError{Message: fmt.Sprintf("column %q may not be null", col.Name)}
		}

		if col.Type.DataType == value.TypeVarchar && col.Type.Size > 0 && !coerced.IsNull() {
			if n := len([]rune(coerced.AsString())); n > col.Type.Size {
				return nil, &ConstraintError{Message: fmt.Sprintf("column %q: string of length %d exceeds VARCHAR(%d)", col.Name, n, col.Type.Size)}
			}
		}

		row[i] = coerced
	}

	return row, nil
}

// checkUnique enforces every unique/primary-key index on row, ignoring the
// row identified by excluding (used by UPDATE, where the row being
// written is allowed to collide with its own prior values).
func (c *Catalog) checkUnique(t *Table, row Row, excluding RowID, hasExcluding bool) error {
	for _, idx := range t.Indexes {
		if !idx.Unique {
			continue
		}
		pos, _ := t.ColumnIndex(idx.Column)
		if row[pos].IsNull() {
			continue
		}

		existing, err := idx.tree.Search(row[pos])
		if err != nil {
			return err
		}
		for _, id := range existing {
			if hasExcluding && id == excluding {
				continue
			}
			return &ConstraintError{
				Message: fmt.Sprintf("duplicate value for unique column %q", idx.Column),
			}
		}
	}
	return nil
}

func (c *Catalog) indexInsert(t *Table, row Row, id RowID) error {
	for _, idx := range t.Indexes {
		pos, _ := t.ColumnIndex(idx.Column)
		if err := idx.tree.Insert(row[pos], id); err != nil {
			return err
		}
	}
	return nil
}

func (c *Catalog) indexDelete(t *Table, row Row, id RowID) error {
	for _, idx := range t.Indexes {
		pos, _ := t.ColumnIndex(idx.Column)
		if err := idx.tree.Delete(row[pos], id); err != nil {
			return err
		}
	}
	return nil
}

// InsertRow validates and stores a new row, assigning it the table's next
// row ID.
func (c *Catalog) InsertRow(tableName string, values map[string]value.Value) (RowID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	t, ok := c.tables[FoldIdentifier(tableName)]
	if !ok {
		return 0, errTableNotFound(tableName)
	}

	row, err := c.buildRow(t, values)
	if err != nil {
		return 0, err
	}

	if err := c.checkUnique(t, row, 0, false); err != nil {
		return 0, err
	}

	id := t.NextRowID
	t.Rows[id] = row
	t.NextRowID++

	if err := c.indexInsert(t, row, id); err != nil {
		return 0, err
	}

	return id, nil
}

// UpdateRow applies a partial column update to an existing row.
func (c *Catalog) UpdateRow(tableName string, id RowID, values map[string]value.Value) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	t, ok := c.tables[FoldIdentifier(tableName)]
	if !ok {
		return errTableNotFound(tableName)
	}

	old, ok := t.Rows[id]
	if !ok {
		return &storage.NotFoundError{Resource: "row", Key: id}
	}

	merged := make(map[string]value.Value, len(t.Columns))
	for i, col := range t.Columns {
		merged[FoldIdentifier(col.Name)] = old[i]
	}
	for k, v := range values {
		merged[FoldIdentifier(k)] = v
	}

	row, err := c.buildRow(t, merged)
	if err != nil {
		return err
	}

	if err := c.checkUnique(t, row, id, true); err != nil {
		return err
	}

	if err := c.indexDelete(t, old, id); err != nil {
		return err
	}
	if err := c.indexInsert(t, row, id); err != nil {
		return err
	}

	t.Rows[id] = row
	return nil
}

// DeleteRow removes a row and its index entries.
func (c *Catalog) DeleteRow(tableName string, id RowID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	t, ok := c.tables[FoldIdentifier(tableName)]
	if !ok {
		return errTableNotFound(tableName)
	}

	row, ok := t.Rows[id]
	if !ok {
		return &storage.NotFoundError{Resource: "row", Key: id}
	}

	if err := c.indexDelete(t, row, id); err != nil {
		return err
	}
	delete(t.Rows, id)
	return nil
}

// Truncate deletes every row in a table and resets its row ID sequence
// back to 1, rather than leaving it to keep climbing.
func (c *Catalog) Truncate(tableName string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	t, ok := c.tables[FoldIdentifier(tableName)]
	if !ok {
		return 0, errTableNotFound(tableName)
	}

	count := len(t.Rows)
	t.Rows = make(map[RowID]Row)
	t.NextRowID = 1

	for _, idx := range t.Indexes {
		tree, err := btree.New(c.btreeDegree)
		if err != nil {
			return 0, err
		}
		idx.tree = tree
	}

	return count, nil
}
