// Command sparrowdb-demo walks through table creation, inserts, a query,
// and a constraint violation against an in-memory database, scoped to
// this database's single-statement engine.Database.Execute (no
// transactions: the engine is single-threaded and has no BEGIN/COMMIT).
package main

import (
	"fmt"
	"log"

	"github.com/sparrowdb/sparrowdb/pkg/engine"
)

func main() {
	fmt.Println("sparrowdb demo")
	fmt.Println("==============")
	fmt.Println()

	db, err := engine.OpenWithOptions(engine.Options{InMemory: true, ChecksumEnabled: true})
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	fmt.Println("1. creating table 'users'...")
	must(db, `CREATE TABLE users (
		id INTEGER PRIMARY KEY,
		name VARCHAR(40) NOT NULL,
		email VARCHAR(60) UNIQUE
	)`)
	fmt.Println("   table created")
	fmt.Println()

	fmt.Println("2. inserting users...")
	users := []struct{ name, email string }{
		{"Priya", "priya@example.com"},
		{"Jonas", "jonas@example.com"},
		{"Mei", "mei@example.com"},
	}
	for i, u := range users {
		r := must(db, fmt.Sprintf(`INSERT INTO users (id, name, email) VALUES (%d, '%s', '%s')`, i+1, u.name, u.email))
		fmt.Printf("   inserted %s (rows affected: %d)\n", u.name, r.Affected)
	}
	fmt.Println()

	fmt.Println("3. querying all users...")
	r := must(db, `SELECT name, email FROM users ORDER BY name`)
	fmt.Println("   columns:", r.Columns)
	for _, row := range r.Rows {
		fmt.Printf("   - %s <%s>\n", row[0].AsString(), row[1].AsString())
	}
	fmt.Println()

	fmt.Println("4. a duplicate email is rejected...")
	if _, err := db.Execute(`INSERT INTO users (id, name, email) VALUES (4, 'Priya 2', 'priya@example.com')`); err != nil {
		fmt.Printf("   rejected as expected: %v\n", err)
	} else {
		log.Fatal("expected a UNIQUE violation, got none")
	}
	fmt.Println()

	fmt.Println("5. counting users...")
	r = must(db, `SELECT COUNT(*) FROM users`)
	fmt.Printf("   total users: %d\n", r.Rows[0][0].AsInt())
	fmt.Println()

	fmt.Println("demo complete")
}

func must(db *engine.Database, sql string) *engine.Result {
	r, err := db.Execute(sql)
	if err != nil {
		log.Fatalf("%s: %v", sql, err)
	}
	return r
}
