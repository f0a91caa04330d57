package catalog

// TableSnapshot captures a table's rows and index definitions so a statement
// that fails partway through can be rolled back to a consistent prior state,
// per the no-partial-commit propagation rule: "errors abort the statement...
// in-memory mutations are reverted."
type TableSnapshot struct {
	rows      map[RowID]Row
	nextRowID RowID
	indexes   []persistedIndex
}

// Snapshot captures table's current rows and index definitions.
func (c *Catalog) Snapshot(table string) (*TableSnapshot, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	t, ok := c.tables[FoldIdentifier(table)]
	if !ok {
		return nil, errTableNotFound(table)
	}

	rows := make(map[RowID]Row, len(t.Rows))
	for id, row := range t.Rows {
		cp := make(Row, len(row))
		copy(cp, row)
		rows[id] = cp
	}

	var indexes []persistedIndex
	for _, idx := range t.Indexes {
		indexes = append(indexes, persistedIndex{Name: idx.Name, Column: idx.Column, Unique: idx.Unique})
	}

	return &TableSnapshot{rows: rows, nextRowID: t.NextRowID, indexes: indexes}, nil
}

// Restore reverts table to the state captured by snap, rebuilding every
// index's B-tree from the restored rows rather than trying to undo
// individual tree mutations.
func (c *Catalog) Restore(table string, snap *TableSnapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	t, ok := c.tables[FoldIdentifier(table)]
	if !ok {
		return errTableNotFound(table)
	}

	t.Rows = snap.rows
	t.NextRowID = snap.nextRowID
	t.Indexes = make(map[string]*Index)

	for _, pi := range snap.indexes {
		if err := c.attachIndex(t, pi.Name, pi.Column, pi.Unique); err != nil {
			return err
		}
	}
	return nil
}
