package main

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sparrowdb/sparrowdb/pkg/engine"
)

func TestRunExecutesStatementsAndQuits(t *testing.T) {
	db, err := engine.Open(t.TempDir())
	require.NoError(t, err)
	defer db.Close()

	script := strings.Join([]string{
		"CREATE TABLE t (id INTEGER PRIMARY KEY, name VARCHAR(10));",
		"INSERT INTO t VALUES (1, 'a');",
		"SELECT name FROM t;",
		"\\q",
		"",
	}, "\n")

	var out bytes.Buffer
	run(db, bufio.NewReader(strings.NewReader(script)), &out)

	output := out.String()
	require.Contains(t, output, "name")
	require.Contains(t, output, "a")
	require.Contains(t, output, "(1 row(s))")
}

func TestRunReportsStatementErrorsAndContinues(t *testing.T) {
	db, err := engine.Open(t.TempDir())
	require.NoError(t, err)
	defer db.Close()

	script := "SELECT * FROM missing;\n\\q\n"

	var out bytes.Buffer
	run(db, bufio.NewReader(strings.NewReader(script)), &out)

	require.Contains(t, out.String(), "error:")
}

func TestRunMultiLineStatement(t *testing.T) {
	db, err := engine.Open(t.TempDir())
	require.NoError(t, err)
	defer db.Close()

	script := "CREATE TABLE t (\nid INTEGER PRIMARY KEY\n);\n\\q\n"

	var out bytes.Buffer
	run(db, bufio.NewReader(strings.NewReader(script)), &out)

	require.NotContains(t, out.String(), "error:")
}
