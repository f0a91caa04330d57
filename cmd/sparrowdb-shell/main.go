// Command sparrowdb-shell is a line-oriented SQL shell over a local data
// directory, running in-process against pkg/engine rather than dialed
// over the wire, per the database's single-handle, single-process
// concurrency model.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/sparrowdb/sparrowdb/pkg/engine"
)

func main() {
	var (
		dataDir  = flag.String("data", "./data", "data directory")
		inMemory = flag.Bool("memory", false, "open an in-memory database instead of -data")
		degree   = flag.Int("degree", 0, "B-tree minimum degree for new indexes (0 = default)")
		checksum = flag.Bool("checksum", true, "guard persisted documents with a checksum")
	)
	flag.Parse()

	db, err := engine.OpenWithOptions(engine.Options{
		DataDir:         *dataDir,
		InMemory:        *inMemory,
		BTreeDegree:     *degree,
		ChecksumEnabled: *checksum,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "sparrowdb-shell: failed to open %q: %v\n", *dataDir, err)
		os.Exit(1)
	}
	defer db.Close()

	if *inMemory {
		fmt.Println("sparrowdb shell — in-memory database")
	} else {
		fmt.Printf("sparrowdb shell — data dir %q\n", *dataDir)
	}
	fmt.Println("Type SQL terminated by ';', \\h for help, \\q to quit.")

	run(db, bufio.NewReader(os.Stdin), os.Stdout)
}

// run drives the prompt loop, buffering input until a terminating ';' is
// seen so a statement can span multiple lines.
func run(db *engine.Database, in *bufio.Reader, out io.Writer) {
	var pending strings.Builder

	for {
		if pending.Len() == 0 {
			fmt.Fprint(out, "sparrow> ")
		} else {
			fmt.Fprint(out, "     -> ")
		}

		line, err := in.ReadString('\n')
		if err != nil {
			fmt.Fprintln(out)
			return
		}
		trimmed := strings.TrimSpace(line)

		if pending.Len() == 0 {
			switch trimmed {
			case "\\q":
				return
			case "\\h":
				printHelp(out)
				continue
			case "":
				continue
			}
		}

		pending.WriteString(line)
		if !strings.Contains(trimmed, ";") {
			continue
		}

		stmt := strings.TrimSpace(pending.String())
		pending.Reset()
		if stmt == "" {
			continue
		}

		result, err := db.Execute(stmt)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		printResult(out, result)
	}
}

func printHelp(out io.Writer) {
	fmt.Fprintln(out, "  \\q            quit")
	fmt.Fprintln(out, "  \\h            this help")
	fmt.Fprintln(out, "  <sql>;        execute a statement")
}

func printResult(out io.Writer, r *engine.Result) {
	if len(r.Columns) == 0 {
		if r.Message != "" {
			fmt.Fprintln(out, r.Message)
		}
		return
	}

	w := tabwriter.NewWriter(out, 0, 2, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(r.Columns, "\t"))

	for _, row := range r.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = v.String()
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	w.Flush()

	fmt.Fprintf(out, "(%d row(s))\n", len(r.Rows))
}
