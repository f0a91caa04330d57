// Package engine ties pkg/query and pkg/catalog together into a runnable
// database: parse a statement, execute it against the catalog, and
// return a uniform Result.
package engine

import (
	"fmt"
	"sync"

	"github.com/sparrowdb/sparrowdb/pkg/catalog"
	"github.com/sparrowdb/sparrowdb/pkg/query"
	"github.com/sparrowdb/sparrowdb/pkg/value"
)

// Result is the uniform shape returned by every statement: SELECT, SHOW
// TABLES and DESCRIBE populate Columns/Rows; INSERT, UPDATE, DELETE and
// TRUNCATE populate Affected and Message; CREATE/DROP set Message only.
type Result struct {
	Columns  []string
	Rows     [][]value.Value
	Affected int
	Message  string
}

// Options configures a Database.
type Options struct {
	// DataDir is the directory the catalog and its documents persist
	// under. Ignored when InMemory is set.
	DataDir string

	// BTreeDegree is the minimum degree used for every index's B-tree.
	// Zero means the catalog's own default.
	BTreeDegree int

	// InMemory, when true, opens a database that never touches disk:
	// every table and index lives only as long as the process does.
	InMemory bool

	// ChecksumEnabled guards every persisted document with a blake2b-256
	// checksum so a torn write is caught on load instead of silently
	// decoded. Defaults to true via Open.
	ChecksumEnabled bool
}

// Database owns a catalog and executes SQL text against it.
type Database struct {
	mu      sync.Mutex
	catalog *catalog.Catalog
}

// Open loads (or creates) the catalog stored under dir, with checksums
// enabled. Equivalent to OpenWithOptions(Options{DataDir: dir,
// ChecksumEnabled: true}).
func Open(dir string) (*Database, error) {
	return OpenWithOptions(Options{DataDir: dir, ChecksumEnabled: true})
}

// OpenWithOptions loads (or creates) a database per opts.
func OpenWithOptions(opts Options) (*Database, error) {
	c, err := catalog.Open(catalog.Options{
		Dir:             opts.DataDir,
		BTreeDegree:     opts.BTreeDegree,
		InMemory:        opts.InMemory,
		ChecksumEnabled: opts.ChecksumEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("engine: open: %w", err)
	}
	return &Database{catalog: c}, nil
}

// Execute parses sql as a single statement and runs it. Per the
// write-new-then-rename durability rule, a statement that mutates state is
// flushed to disk before Execute returns rather than waiting for Close.
func (db *Database) Execute(sql string) (*Result, error) {
	stmt, err := query.Parse(sql)
	if err != nil {
		return nil, err
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	ex := &executor{catalog: db.catalog}
	result, err := ex.run(stmt)
	if err != nil {
		return nil, err
	}

	if isMutating(stmt) {
		if err := db.catalog.Save(); err != nil {
			return nil, err
		}
	}

	return result, nil
}

func isMutating(stmt query.Statement) bool {
	switch stmt.(type) {
	case *query.SelectStmt, *query.ShowTablesStmt, *query.DescribeStmt:
		return false
	default:
		return true
	}
}

// Tables lists every table name, sorted.
func (db *Database) Tables() []string {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.catalog.ListTables()
}

// Count returns the number of rows currently stored in table.
func (db *Database) Count(table string) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	t, err := db.catalog.GetTable(table)
	if err != nil {
		return 0, err
	}
	return len(t.Rows), nil
}

// Close persists the catalog to disk.
func (db *Database) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.catalog.Save()
}
