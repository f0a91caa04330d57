// Package catalog owns table schemas, their row stores, and their
// secondary indexes, persisting all three through pkg/storage as a
// single component that keeps rows and indexes consistent with each
// other.
package catalog

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/sparrowdb/sparrowdb/pkg/btree"
	"github.com/sparrowdb/sparrowdb/pkg/storage"
	"github.com/sparrowdb/sparrowdb/pkg/value"
)

// defaultBTreeDegree is the B-tree minimum degree used for every index
// when Options.BTreeDegree is unset, favoring production-sized fan-out
// over a small teaching-sized tree.
const defaultBTreeDegree = 64

// FoldIdentifier returns the canonical form of a table or column name
// used for lookup. Table and column names are case-insensitive: a table
// created as `Users` is reachable as `users`, `USERS`, or `Users`. The
// declared case is preserved everywhere a name is stored or returned
// (Table.Name, Column.Name); only map keys and comparisons go through
// this.
func FoldIdentifier(s string) string { return strings.ToLower(s) }

// RowID identifies a row within a table's row store.
type RowID = btree.RowID

// Row is one record, positioned the same as its table's Columns.
type Row []value.Value

// Column describes one column of a table.
type Column struct {
	Name       string
	Type       value.ColumnType
	NotNull    bool
	Unique     bool
	PrimaryKey bool
	HasDefault bool
	Default    value.Value
}

// Index is a secondary (or implicit primary-key/unique) index over one
// column.
type Index struct {
	Name   string
	Column string
	Unique bool
	tree   *btree.Tree
}

// Table holds a schema, its row store, and its indexes.
type Table struct {
	Name      string
	Columns   []Column
	Rows      map[RowID]Row
	NextRowID RowID
	Indexes   map[string]*Index

	columnPos map[string]int
}

func newTable(name string, columns []Column) *Table {
	t := &Table{
		Name:      name,
		Columns:   columns,
		Rows:      make(map[RowID]Row),
		NextRowID: 1,
		Indexes:   make(map[string]*Index),
	}
	t.rebuildColumnPos()
	return t
}

func (t *Table) rebuildColumnPos() {
	t.columnPos = make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		t.columnPos[FoldIdentifier(c.Name)] = i
	}
}

// ColumnIndex returns the ordinal position of name within the table.
func (t *Table) ColumnIndex(name string) (int, bool) {
	i, ok := t.columnPos[FoldIdentifier(name)]
	return i, ok
}

// Column returns the column definition for name.
func (t *Table) Column(name string) (Column, bool) {
	i, ok := t.columnPos[FoldIdentifier(name)]
	if !ok {
		return Column{}, false
	}
	return t.Columns[i], true
}

// OrderedRowIDs returns every row ID in ascending order, giving scans a
// deterministic iteration order over the otherwise-unordered Rows map.
func (t *Table) OrderedRowIDs() []RowID {
	ids := make([]RowID, 0, len(t.Rows))
	for id := range t.Rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// IndexesOn returns every index defined over column, if any.
func (t *Table) IndexesOn(column string) []*Index {
	folded := FoldIdentifier(column)
	var out []*Index
	for _, idx := range t.Indexes {
		if FoldIdentifier(idx.Column) == folded {
			out = append(out, idx)
		}
	}
	return out
}

// SchemaError reports an unknown table/column, a duplicate table or index
// name, or any other invalid schema declaration or reference.
type SchemaError struct{ Message string }

func (e *SchemaError) Error() string { return e.Message }

func errTableNotFound(name string) *SchemaError {
	return &SchemaError{Message: fmt.Sprintf("table %q does not exist", name)}
}

func errTableExists(name string) *SchemaError {
	return &SchemaError{Message: fmt.Sprintf("table %q already exists", name)}
}

func errIndexNotFound(name string) *SchemaError {
	return &SchemaError{Message: fmt.Sprintf("index %q does not exist", name)}
}

func errIndexExists(name string) *SchemaError {
	return &SchemaError{Message: fmt.Sprintf("index %q already exists", name)}
}

// ConstraintError reports a failed NOT NULL, UNIQUE, PRIMARY KEY, or
// VARCHAR-length check.
type ConstraintError struct{ Message string }

func (e *ConstraintError) Error() string { return e.Message }

// Options configures a Catalog.
type Options struct {
	// Dir is the directory a disk-backed catalog persists under. Ignored
	// when InMemory is set.
	Dir string

	// BTreeDegree is the minimum degree used for every index's B-tree.
	// Zero or negative means defaultBTreeDegree.
	BTreeDegree int

	// InMemory, when true, keeps the catalog and every table entirely in
	// process memory: nothing is written to Dir, and the catalog starts
	// empty every time.
	InMemory bool

	// ChecksumEnabled guards every persisted document with a blake2b-256
	// checksum so a torn write is detected on load rather than silently
	// decoded. The zero value (false) turns the checksum off; engine.Open
	// sets it to true.
	ChecksumEnabled bool
}

// Catalog owns every table in a database and persists them as a single
// document.
type Catalog struct {
	mu          sync.RWMutex
	dir         string
	store       storage.Store
	btreeDegree int
	tables      map[string]*Table
}

// Open loads a catalog from opts.Dir, or creates an empty one if none
// exists yet, or (opts.InMemory) creates an empty catalog backed by
// nothing but process memory.
func Open(opts Options) (*Catalog, error) {
	degree := opts.BTreeDegree
	if degree <= 0 {
		degree = defaultBTreeDegree
	}

	var store storage.Store
	if opts.InMemory {
		store = storage.NewMemoryStore(opts.ChecksumEnabled)
	} else {
		store = storage.NewDiskStore(opts.ChecksumEnabled)
	}

	c := &Catalog{dir: opts.Dir, store: store, btreeDegree: degree, tables: make(map[string]*Table)}

	if store.Exists(c.snapshotPath()) {
		if err := c.load(); err != nil {
			return nil, err
		}
	}

	return c, nil
}

func (c *Catalog) snapshotPath() string {
	return filepath.Join(c.dir, "catalog.db")
}

// persistedIndex is Index without its in-memory B-tree.
type persistedIndex struct {
	Name   string
	Column string
	Unique bool
}

type persistedTable struct {
	Name      string
	Columns   []Column
	Rows      map[RowID]Row
	NextRowID RowID
	Indexes   []persistedIndex
}

type persistedCatalog struct {
	Tables []persistedTable
}

func (c *Catalog) load() error {
	var snap persistedCatalog
	if err := c.store.Load(c.snapshotPath(), &snap); err != nil {
		return fmt.Errorf("catalog: load: %w", err)
	}

	for _, pt := range snap.Tables {
		t := newTable(pt.Name, pt.Columns)
		t.Rows = pt.Rows
		t.NextRowID = pt.NextRowID

		for _, pi := range pt.Indexes {
			if err := c.attachIndex(t, pi.Name, pi.Column, pi.Unique); err != nil {
				return err
			}
		}

		c.tables[FoldIdentifier(t.Name)] = t
	}

	return nil
}

// Save persists the full catalog: schemas, rows, and index definitions.
// Index B-trees themselves are rebuilt from rows on load rather than
// serialized.
func (c *Catalog) Save() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := persistedCatalog{}
	for _, t := range c.tables {
		pt := persistedTable{
			Name:      t.Name,
			Columns:   t.Columns,
			Rows:      t.Rows,
			NextRowID: t.NextRowID,
		}
		for _, idx := range t.Indexes {
			pt.Indexes = append(pt.Indexes, persistedIndex{Name: idx.Name, Column: idx.Column, Unique: idx.Unique})
		}
		snap.Tables = append(snap.Tables, pt)
	}

	if err := c.store.Save(c.snapshotPath(), &snap); err != nil {
		return fmt.Errorf("catalog: save: %w", err)
	}
	return nil
}

// CreateTable defines a new table. Columns marked PRIMARY KEY or UNIQUE
// get an implicit index so constraint enforcement always has a B-tree to
// consult.
func (c *Catalog) CreateTable(name string, columns []Column, ifNotExists bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.tables[FoldIdentifier(name)]; exists {
		if ifNotExists {
			return nil
		}
		return errTableExists(name)
	}

	t := newTable(name, columns)
	for _, col := range columns {
		if col.PrimaryKey {
			if err := c.attachIndex(t, "pk_"+name, col.Name, true); err != nil {
				return err
			}
		} else if col.Unique {
			if err := c.attachIndex(t, "uniq_"+name+"_"+col.Name, col.Name, true); err != nil {
				return err
			}
		}
	}

	c.tables[FoldIdentifier(name)] = t
	return nil
}

// DropTable removes a table and every index defined on it.
func (c *Catalog) DropTable(name string, ifExists bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.tables[FoldIdentifier(name)]; !exists {
		if ifExists {
			return nil
		}
		return errTableNotFound(name)
	}

	delete(c.tables, FoldIdentifier(name))
	return nil
}

// TableExists reports whether name is a defined table.
func (c *Catalog) TableExists(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.tables[FoldIdentifier(name)]
	return ok
}

// GetTable returns the named table.
func (c *Catalog) GetTable(name string) (*Table, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	t, ok := c.tables[FoldIdentifier(name)]
	if !ok {
		return nil, errTableNotFound(name)
	}
	return t, nil
}

// ListTables returns every table's declared-case name, sorted.
func (c *Catalog) ListTables() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.tables))
	for _, t := range c.tables {
		names = append(names, t.Name)
	}
	sort.Strings(names)
	return names
}

// attachIndex creates a fresh B-tree for idx and, if the table already
// has rows (the load path), populates it from them.
func (c *Catalog) attachIndex(t *Table, name, column string, unique bool) error {
	for _, other := range c.tables {
		if _, exists := other.Indexes[name]; exists {
			return errIndexExists(name)
		}
	}
	if _, exists := t.Indexes[name]; exists {
		return errIndexExists(name)
	}
	if _, ok := t.ColumnIndex(column); !ok {
		return &SchemaError{Message: fmt.Sprintf("column %q does not exist on table %q", column, t.Name)}
	}

	tree, err := btree.New(c.btreeDegree)
	if err != nil {
		return err
	}

	pos, _ := t.ColumnIndex(column)
	for id, row := range t.Rows {
		if err := tree.Insert(row[pos], id); err != nil {
			return err
		}
	}

	t.Indexes[name] = &Index{Name: name, Column: column, Unique: unique, tree: tree}
	return nil
}

// CreateIndex defines a new named index over a table column.
func (c *Catalog) CreateIndex(name, table, column string, unique bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	t, ok := c.tables[FoldIdentifier(table)]
	if !ok {
		return errTableNotFound(table)
	}

	return c.attachIndex(t, name, column, unique)
}

// DropIndex removes a named index, scoped to table when given.
func (c *Catalog) DropIndex(name, table string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if table != "" {
		t, ok := c.tables[FoldIdentifier(table)]
		if !ok {
			return errTableNotFound(table)
		}
		if _, ok := t.Indexes[name]; !ok {
			return errIndexNotFound(name)
		}
		delete(t.Indexes, name)
		return nil
	}

	for _, t := range c.tables {
		if _, ok := t.Indexes[name]; ok {
			delete(t.Indexes, name)
			return nil
		}
	}
	return errIndexNotFound(name)
}
