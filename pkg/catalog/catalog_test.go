package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sparrowdb/sparrowdb/pkg/value"
)

func intCol(name string, primaryKey bool) Column {
	return Column{Name: name, Type: value.ColumnType{DataType: value.TypeInteger}, PrimaryKey: primaryKey, NotNull: primaryKey}
}

func varcharCol(name string, size int, notNull bool) Column {
	return Column{Name: name, Type: value.ColumnType{DataType: value.TypeVarchar, Size: size}, NotNull: notNull}
}

func TestCreateTableAndInsert(t *testing.T) {
	c, err := Open(Options{Dir: t.TempDir(), ChecksumEnabled: true})
	require.NoError(t, err)

	require.NoError(t, c.CreateTable("accounts", []Column{
		intCol("id", true),
		varcharCol("name", 32, true),
	}, false))

	id, err := c.InsertRow("accounts", map[string]value.Value{
		"id":   value.NewInteger(1),
		"name": value.NewString("alice"),
	})
	require.NoError(t, err)
	require.Equal(t, RowID(1), id)

	tbl, err := c.GetTable("accounts")
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 1)
}

func TestCreateTableIfNotExistsIsIdempotent(t *testing.T) {
	c, err := Open(Options{Dir: t.TempDir(), ChecksumEnabled: true})
	require.NoError(t, err)

	cols := []Column{intCol("id", true)}
	require.NoError(t, c.CreateTable("t", cols, false))
	require.Error(t, c.CreateTable("t", cols, false))
	require.NoError(t, c.CreateTable("t", cols, true))
}

func TestPrimaryKeyUniquenessEnforced(t *testing.T) {
	c, err := Open(Options{Dir: t.TempDir(), ChecksumEnabled: true})
	require.NoError(t, err)
	require.NoError(t, c.CreateTable("t", []Column{intCol("id", true)}, false))

	_, err = c.InsertRow("t", map[string]value.Value{"id": value.NewInteger(1)})
	require.NoError(t, err)

	_, err = c.InsertRow("t", map[string]value.Value{"id": value.NewInteger(1)})
	require.Error(t, err)
	require.IsType(t, &ConstraintError{}, err)
}

func TestNotNullEnforced(t *testing.T) {
	c, err := Open(Options{Dir: t.TempDir(), ChecksumEnabled: true})
	require.NoError(t, err)
	require.NoError(t, c.CreateTable("t", []Column{
		intCol("id", true),
		varcharCol("name", 10, true),
	}, false))

	_, err = c.InsertRow("t", map[string]value.Value{"id": value.NewInteger(1)})
	require.Error(t, err)
}

func TestUpdateRowReindexes(t *testing.T) {
	c, err := Open(Options{Dir: t.TempDir(), ChecksumEnabled: true})
	require.NoError(t, err)
	require.NoError(t, c.CreateTable("t", []Column{intCol("id", true), varcharCol("name", 10, false)}, false))

	id, err := c.InsertRow("t", map[string]value.Value{"id": value.NewInteger(1), "name": value.NewString("x")})
	require.NoError(t, err)

	require.NoError(t, c.UpdateRow("t", id, map[string]value.Value{"name": value.NewString("y")}))

	tbl, err := c.GetTable("t")
	require.NoError(t, err)
	pos, _ := tbl.ColumnIndex("name")
	require.Equal(t, "y", tbl.Rows[id][pos].AsString())
}

func TestDeleteRowRemovesIndexEntries(t *testing.T) {
	c, err := Open(Options{Dir: t.TempDir(), ChecksumEnabled: true})
	require.NoError(t, err)
	require.NoError(t, c.CreateTable("t", []Column{intCol("id", true)}, false))

	id, err := c.InsertRow("t", map[string]value.Value{"id": value.NewInteger(5)})
	require.NoError(t, err)
	require.NoError(t, c.DeleteRow("t", id))

	_, err = c.InsertRow("t", map[string]value.Value{"id": value.NewInteger(5)})
	require.NoError(t, err, "deleting the row should have freed its unique key")
}

func TestTruncateResetsRowIDSequence(t *testing.T) {
	c, err := Open(Options{Dir: t.TempDir(), ChecksumEnabled: true})
	require.NoError(t, err)
	require.NoError(t, c.CreateTable("t", []Column{intCol("id", false)}, false))

	for i := int64(1); i <= 3; i++ {
		_, err := c.InsertRow("t", map[string]value.Value{"id": value.NewInteger(i)})
		require.NoError(t, err)
	}

	count, err := c.Truncate("t")
	require.NoError(t, err)
	require.Equal(t, 3, count)

	id, err := c.InsertRow("t", map[string]value.Value{"id": value.NewInteger(99)})
	require.NoError(t, err)
	require.Equal(t, RowID(1), id, "TRUNCATE must reset the row ID sequence")
}

func TestCreateAndDropIndex(t *testing.T) {
	c, err := Open(Options{Dir: t.TempDir(), ChecksumEnabled: true})
	require.NoError(t, err)
	require.NoError(t, c.CreateTable("t", []Column{intCol("id", false), varcharCol("name", 10, false)}, false))
	require.NoError(t, c.CreateIndex("idx_name", "t", "name", false))

	_, err = c.InsertRow("t", map[string]value.Value{"id": value.NewInteger(1), "name": value.NewString("a")})
	require.NoError(t, err)

	tbl, err := c.GetTable("t")
	require.NoError(t, err)
	rows, err := tbl.Indexes["idx_name"].Search(value.NewString("a"))
	require.NoError(t, err)
	require.Len(t, rows, 1)

	require.NoError(t, c.DropIndex("idx_name", "t"))
	require.Error(t, c.DropIndex("idx_name", "t"))
}

func TestSaveAndReopenRoundTrips(t *testing.T) {
	dir := t.TempDir()

	c, err := Open(Options{Dir: dir, ChecksumEnabled: true})
	require.NoError(t, err)
	require.NoError(t, c.CreateTable("t", []Column{intCol("id", true), varcharCol("name", 10, false)}, false))
	_, err = c.InsertRow("t", map[string]value.Value{"id": value.NewInteger(1), "name": value.NewString("a")})
	require.NoError(t, err)
	require.NoError(t, c.Save())

	reopened, err := Open(Options{Dir: dir, ChecksumEnabled: true})
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"t"}, reopened.ListTables())

	tbl, err := reopened.GetTable("t")
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 1)

	_, err = reopened.InsertRow("t", map[string]value.Value{"id": value.NewInteger(1), "name": value.NewString("dup")})
	require.Error(t, err, "reopened catalog must rebuild the primary-key index from rows")

	require.Equal(t, filepath.Join(dir, "catalog.db"), reopened.snapshotPath())
}

func TestInMemoryCatalogNeverTouchesDisk(t *testing.T) {
	dir := t.TempDir()

	c, err := Open(Options{Dir: dir, InMemory: true})
	require.NoError(t, err)
	require.NoError(t, c.CreateTable("t", []Column{intCol("id", true)}, false))
	_, err = c.InsertRow("t", map[string]value.Value{"id": value.NewInteger(1)})
	require.NoError(t, err)
	require.NoError(t, c.Save())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries, "an in-memory catalog must leave the data dir empty")

	reopened, err := Open(Options{Dir: dir, InMemory: true})
	require.NoError(t, err)
	require.Empty(t, reopened.ListTables(), "a fresh in-memory catalog starts empty even if a prior one wrote to the same Dir")
}

func TestTableAndColumnLookupIsCaseInsensitive(t *testing.T) {
	c, err := Open(Options{Dir: t.TempDir(), ChecksumEnabled: true})
	require.NoError(t, err)
	require.NoError(t, c.CreateTable("Users", []Column{intCol("Id", true), varcharCol("Name", 32, false)}, false))

	id, err := c.InsertRow("USERS", map[string]value.Value{"ID": value.NewInteger(1), "name": value.NewString("alice")})
	require.NoError(t, err)

	require.NoError(t, c.UpdateRow("users", id, map[string]value.Value{"NAME": value.NewString("bob")}))

	tbl, err := c.GetTable("uSeRs")
	require.NoError(t, err)
	require.Equal(t, "Users", tbl.Name, "declared case must be preserved for output")

	pos, ok := tbl.ColumnIndex("NAME")
	require.True(t, ok)
	require.Equal(t, "bob", tbl.Rows[id][pos].AsString())

	require.ElementsMatch(t, []string{"Users"}, c.ListTables(), "ListTables must report declared case, not the folded lookup key")

	require.NoError(t, c.DeleteRow("Users", id))
	require.Equal(t, 0, len(tbl.Rows))
}

func TestVarcharOverflowIsConstraintError(t *testing.T) {
	c, err := Open(Options{Dir: t.TempDir(), ChecksumEnabled: true})
	require.NoError(t, err)
	require.NoError(t, c.CreateTable("t", []Column{intCol("id", true), varcharCol("name", 4, false)}, false))

	_, err = c.InsertRow("t", map[string]value.Value{"id": value.NewInteger(1), "name": value.NewString("toolong")})
	require.Error(t, err)
	require.IsType(t, &ConstraintError{}, err, "a VARCHAR(n) length overflow is a constraint failure, not a type error")

	id, err := c.InsertRow("t", map[string]value.Value{"id": value.NewInteger(2), "name": value.NewString("ok")})
	require.NoError(t, err)

	err = c.UpdateRow("t", id, map[string]value.Value{"name": value.NewString("toolong")})
	require.Error(t, err)
	require.IsType(t, &ConstraintError{}, err)
}
