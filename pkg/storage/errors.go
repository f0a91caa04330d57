package storage

import "fmt"

// NotFoundError reports that a reference to an internal resource (a row
// ID, or a document path in MemoryStore.Load — never a SQL-level
// table/column name) could not be resolved. It is exported so catalog's
// row-by-id APIs (UpdateRow, DeleteRow) can return it via errors.As, but it never
// reaches a user-facing identifier lookup — those use catalog.SchemaError.
type NotFoundError struct {
	Resource string
	Key      interface{}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("storage: %s %v not found", e.Resource, e.Key)
}

// IOError reports a persistence failure underneath SaveDocument/
// LoadDocument: a failed open, write, sync, rename, or read.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("storage: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }
