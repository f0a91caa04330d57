package engine

import (
	"os"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func open(t *testing.T) *Database {
	t.Helper()
	db, err := Open(t.TempDir())
	require.NoError(t, err)
	return db
}

func exec(t *testing.T, db *Database, sql string) *Result {
	t.Helper()
	r, err := db.Execute(sql)
	require.NoError(t, err, sql)
	return r
}

// TestCreateInsertSelect is spec scenario S1.
func TestCreateInsertSelect(t *testing.T) {
	db := open(t)
	exec(t, db, `CREATE TABLE users (id INTEGER PRIMARY KEY, name VARCHAR(10) NOT NULL, age INTEGER)`)
	exec(t, db, `INSERT INTO users VALUES (1, 'Alice', 30)`)
	exec(t, db, `INSERT INTO users VALUES (2, 'Bob', 25)`)

	r := exec(t, db, `SELECT name FROM users WHERE age > 26 ORDER BY age DESC`)
	require.Len(t, r.Rows, 1)
	require.Equal(t, "Alice", r.Rows[0][0].AsString())
}

// TestUniqueViolationLeavesCountUnchanged is spec scenario S2.
func TestUniqueViolationLeavesCountUnchanged(t *testing.T) {
	db := open(t)
	exec(t, db, `CREATE TABLE u (id INTEGER PRIMARY KEY, e VARCHAR(20) UNIQUE)`)
	exec(t, db, `INSERT INTO u VALUES (1, 'a@x')`)

	_, err := db.Execute(`INSERT INTO u VALUES (2, 'a@x')`)
	require.Error(t, err)

	r := exec(t, db, `SELECT COUNT(*) FROM u`)
	require.Equal(t, int64(1), r.Rows[0][0].AsInt())
}

// TestLeftJoinZeroMatches is spec scenario S3.
func TestLeftJoinZeroMatches(t *testing.T) {
	db := open(t)
	exec(t, db, `CREATE TABLE c (id INTEGER PRIMARY KEY, name VARCHAR(20))`)
	exec(t, db, `CREATE TABLE e (id INTEGER PRIMARY KEY, cid INTEGER, amount FLOAT)`)
	exec(t, db, `INSERT INTO c VALUES (1,'Food')`)
	exec(t, db, `INSERT INTO c VALUES (2,'Rent')`)
	exec(t, db, `INSERT INTO e VALUES (10,1,5.0)`)

	r := exec(t, db, `SELECT c.name, COUNT(e.id) FROM c LEFT JOIN e ON c.id=e.cid GROUP BY c.name ORDER BY c.name`)
	require.Len(t, r.Rows, 2)
	require.Equal(t, "Food", r.Rows[0][0].AsString())
	require.Equal(t, int64(1), r.Rows[0][1].AsInt())
	require.Equal(t, "Rent", r.Rows[1][0].AsString())
	require.Equal(t, int64(0), r.Rows[1][1].AsInt())
}

// TestAggregatesIgnoreNulls is spec scenario S4.
func TestAggregatesIgnoreNulls(t *testing.T) {
	db := open(t)
	exec(t, db, `CREATE TABLE x (v INTEGER)`)
	exec(t, db, `INSERT INTO x VALUES (1)`)
	exec(t, db, `INSERT INTO x VALUES (NULL)`)
	exec(t, db, `INSERT INTO x VALUES (3)`)

	r := exec(t, db, `SELECT COUNT(*), COUNT(v), SUM(v), AVG(v) FROM x`)
	require.Len(t, r.Rows, 1)
	row := r.Rows[0]
	require.Equal(t, int64(3), row[0].AsInt())
	require.Equal(t, int64(2), row[1].AsInt())
	require.Equal(t, int64(4), row[2].AsInt())
	require.InDelta(t, 2.0, row[3].AsFloat(), 0.0001)
}

// TestRangeQueryOverIndexedColumn is spec scenario S5.
func TestRangeQueryOverIndexedColumn(t *testing.T) {
	db := open(t)
	exec(t, db, `CREATE TABLE p (id INTEGER PRIMARY KEY, price FLOAT)`)
	exec(t, db, `CREATE INDEX idx_price ON p(price)`)
	exec(t, db, `INSERT INTO p VALUES (1,10.0)`)
	exec(t, db, `INSERT INTO p VALUES (2,25.0)`)
	exec(t, db, `INSERT INTO p VALUES (3,50.0)`)

	r := exec(t, db, `SELECT id FROM p WHERE price BETWEEN 20 AND 40 ORDER BY id`)
	require.Len(t, r.Rows, 1)
	require.Equal(t, int64(2), r.Rows[0][0].AsInt())
}

// TestUpdateConstraintViolationLeavesRowUnchanged is spec scenario S6.
func TestUpdateConstraintViolationLeavesRowUnchanged(t *testing.T) {
	db := open(t)
	exec(t, db, `CREATE TABLE t (id INTEGER PRIMARY KEY, e VARCHAR(20) UNIQUE)`)
	exec(t, db, `INSERT INTO t VALUES (1,'a')`)
	exec(t, db, `INSERT INTO t VALUES (2,'b')`)

	_, err := db.Execute(`UPDATE t SET e='a' WHERE id=2`)
	require.Error(t, err)

	r := exec(t, db, `SELECT e FROM t WHERE id=2`)
	require.Equal(t, "b", r.Rows[0][0].AsString())
}

func TestWhereEqualsNullYieldsNoRows(t *testing.T) {
	db := open(t)
	exec(t, db, `CREATE TABLE t (id INTEGER PRIMARY KEY, v INTEGER)`)
	exec(t, db, `INSERT INTO t VALUES (1, NULL)`)

	r := exec(t, db, `SELECT id FROM t WHERE v = NULL`)
	require.Empty(t, r.Rows)

	r = exec(t, db, `SELECT id FROM t WHERE v IS NULL`)
	require.Len(t, r.Rows, 1)
}

func TestDeleteThenCountIsZero(t *testing.T) {
	db := open(t)
	exec(t, db, `CREATE TABLE t (id INTEGER PRIMARY KEY)`)
	exec(t, db, `INSERT INTO t VALUES (1)`)
	exec(t, db, `DELETE FROM t WHERE id = 1`)

	r := exec(t, db, `SELECT COUNT(*) FROM t WHERE id = 1`)
	require.Equal(t, int64(0), r.Rows[0][0].AsInt())
}

func TestTruncateResetsButKeepsSchema(t *testing.T) {
	db := open(t)
	exec(t, db, `CREATE TABLE t (id INTEGER PRIMARY KEY)`)
	exec(t, db, `INSERT INTO t VALUES (1)`)
	exec(t, db, `TRUNCATE TABLE t`)

	r := exec(t, db, `SELECT COUNT(*) FROM t`)
	require.Equal(t, int64(0), r.Rows[0][0].AsInt())
}

func TestMultiRowInsertFailureRollsBackEntireStatement(t *testing.T) {
	db := open(t)
	exec(t, db, `CREATE TABLE t (id INTEGER PRIMARY KEY)`)

	_, err := db.Execute(`INSERT INTO t VALUES (1), (2), (1)`)
	require.Error(t, err, "duplicate primary key in the third tuple must fail the whole statement")

	r := exec(t, db, `SELECT COUNT(*) FROM t`)
	require.Equal(t, int64(0), r.Rows[0][0].AsInt(), "a failed multi-row INSERT must leave no partial rows behind")
}

func TestDistinctDeduplicatesRows(t *testing.T) {
	db := open(t)
	exec(t, db, `CREATE TABLE t (id INTEGER PRIMARY KEY, category VARCHAR(10))`)
	exec(t, db, `INSERT INTO t VALUES (1, 'a')`)
	exec(t, db, `INSERT INTO t VALUES (2, 'a')`)
	exec(t, db, `INSERT INTO t VALUES (3, 'b')`)

	r := exec(t, db, `SELECT DISTINCT category FROM t ORDER BY category`)
	require.Len(t, r.Rows, 2)
	require.Equal(t, "a", r.Rows[0][0].AsString())
	require.Equal(t, "b", r.Rows[1][0].AsString())
}

func TestOrderByNullPlacement(t *testing.T) {
	db := open(t)
	exec(t, db, `CREATE TABLE t (id INTEGER PRIMARY KEY, v INTEGER)`)
	exec(t, db, `INSERT INTO t VALUES (1, 5)`)
	exec(t, db, `INSERT INTO t VALUES (2, NULL)`)
	exec(t, db, `INSERT INTO t VALUES (3, 1)`)

	asc := exec(t, db, `SELECT id FROM t ORDER BY v ASC`)
	require.Equal(t, []int64{2, 3, 1}, idColumn(asc))

	desc := exec(t, db, `SELECT id FROM t ORDER BY v DESC`)
	require.Equal(t, []int64{1, 3, 2}, idColumn(desc))
}

func idColumn(r *Result) []int64 {
	ids := make([]int64, len(r.Rows))
	for i, row := range r.Rows {
		ids[i] = row[0].AsInt()
	}
	return ids
}

func TestLimitOffset(t *testing.T) {
	db := open(t)
	exec(t, db, `CREATE TABLE t (id INTEGER PRIMARY KEY)`)
	for i := int64(1); i <= 5; i++ {
		exec(t, db, "INSERT INTO t VALUES ("+strconv.FormatInt(i, 10)+")")
	}

	r := exec(t, db, `SELECT id FROM t ORDER BY id LIMIT 2 OFFSET 1`)
	require.Equal(t, []int64{2, 3}, idColumn(r))
}

func TestVarcharLengthBoundary(t *testing.T) {
	db := open(t)
	exec(t, db, `CREATE TABLE t (id INTEGER PRIMARY KEY, s VARCHAR(3))`)

	exec(t, db, `INSERT INTO t VALUES (1, 'abc')`)
	_, err := db.Execute(`INSERT INTO t VALUES (2, 'abcd')`)
	require.Error(t, err)
}

func TestInMemoryDatabaseLeavesNoFiles(t *testing.T) {
	dir := t.TempDir()
	db, err := OpenWithOptions(Options{DataDir: dir, InMemory: true})
	require.NoError(t, err)

	exec(t, db, `CREATE TABLE t (id INTEGER PRIMARY KEY)`)
	exec(t, db, `INSERT INTO t VALUES (1)`)
	require.NoError(t, db.Close())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestCustomBTreeDegreeStillIndexesCorrectly(t *testing.T) {
	db, err := OpenWithOptions(Options{DataDir: t.TempDir(), BTreeDegree: 2, ChecksumEnabled: true})
	require.NoError(t, err)

	exec(t, db, `CREATE TABLE t (id INTEGER PRIMARY KEY)`)
	for i := int64(1); i <= 10; i++ {
		exec(t, db, "INSERT INTO t VALUES ("+strconv.FormatInt(i, 10)+")")
	}

	r := exec(t, db, `SELECT COUNT(*) FROM t`)
	require.Equal(t, int64(10), r.Rows[0][0].AsInt())
}

func TestIdentifierLookupIsCaseInsensitive(t *testing.T) {
	db := open(t)
	exec(t, db, `CREATE TABLE Users (Id INTEGER PRIMARY KEY, Name VARCHAR(10) NOT NULL)`)
	exec(t, db, `INSERT INTO users VALUES (1, 'Alice')`)

	r := exec(t, db, `SELECT NAME FROM Users WHERE ID = 1`)
	require.Len(t, r.Rows, 1)
	require.Equal(t, "Alice", r.Rows[0][0].AsString())

	exec(t, db, `UPDATE USERS SET name = 'Ann' WHERE id = 1`)
	r = exec(t, db, `SELECT Users.Name FROM users WHERE users.id = 1`)
	require.Equal(t, "Ann", r.Rows[0][0].AsString())
}

func TestUnaliasedAggregateColumnHeaderIsCanonical(t *testing.T) {
	db := open(t)
	exec(t, db, `CREATE TABLE x (v INTEGER)`)
	exec(t, db, `INSERT INTO x VALUES (1)`)
	exec(t, db, `INSERT INTO x VALUES (2)`)

	r := exec(t, db, `SELECT COUNT(*), COUNT(v), SUM(v), AVG(v) FROM x`)
	require.Equal(t, []string{"COUNT(*)", "COUNT(v)", "SUM(v)", "AVG(v)"}, r.Columns)
}

func TestReopenAfterCloseReproducesState(t *testing.T) {
	dir := t.TempDir()

	db, err := Open(dir)
	require.NoError(t, err)
	exec(t, db, `CREATE TABLE t (id INTEGER PRIMARY KEY, name VARCHAR(10))`)
	exec(t, db, `INSERT INTO t VALUES (1, 'a')`)
	require.NoError(t, db.Close())

	reopened, err := Open(dir)
	require.NoError(t, err)
	r := exec(t, reopened, `SELECT name FROM t WHERE id = 1`)
	require.Equal(t, "a", r.Rows[0][0].AsString())
}
