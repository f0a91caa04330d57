package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sparrowdb/sparrowdb/pkg/catalog"
	"github.com/sparrowdb/sparrowdb/pkg/query"
	"github.com/sparrowdb/sparrowdb/pkg/value"
)

// executor runs one parsed statement against a catalog as a staged
// pipeline: scan sources, filter, group, filter groups, order, project,
// then apply DISTINCT and LIMIT/OFFSET last.
type executor struct {
	catalog *catalog.Catalog
}

func (ex *executor) run(stmt query.Statement) (*Result, error) {
	switch s := stmt.(type) {
	case *query.SelectStmt:
		return ex.executeSelect(s)
	case *query.InsertStmt:
		return ex.executeInsert(s)
	case *query.UpdateStmt:
		return ex.executeUpdate(s)
	case *query.DeleteStmt:
		return ex.executeDelete(s)
	case *query.CreateTableStmt:
		return ex.executeCreateTable(s)
	case *query.DropTableStmt:
		return ex.executeDropTable(s)
	case *query.CreateIndexStmt:
		return ex.executeCreateIndex(s)
	case *query.DropIndexStmt:
		return ex.executeDropIndex(s)
	case *query.ShowTablesStmt:
		return ex.executeShowTables(s)
	case *query.DescribeStmt:
		return ex.executeDescribe(s)
	case *query.TruncateStmt:
		return ex.executeTruncate(s)
	default:
		return nil, &catalog.SchemaError{Message: fmt.Sprintf("unsupported statement %T", stmt)}
	}
}

// tuple holds one (possibly joined) row, keyed by both bare column name and
// "alias.column" so unqualified references work until they're ambiguous.
type tuple map[string]value.Value

// source names one table contributing to a FROM/JOIN chain, kept around for
// Star expansion and DESCRIBE-style column ordering.
type source struct {
	alias string
	table *catalog.Table
}

// group is the unit projection/HAVING/ORDER BY operate over: a representative
// tuple (env) for plain column references, and the full tuple set backing any
// aggregate function call. Ungrouped rows are one-tuple groups.
type group struct {
	tuples []tuple
	env    tuple
}

func wrapRow(tp tuple) *group { return &group{tuples: []tuple{tp}, env: tp} }

func tupleFromRow(alias string, t *catalog.Table, row catalog.Row) tuple {
	foldedAlias := catalog.FoldIdentifier(alias)
	tp := make(tuple, len(t.Columns)*2)
	for i, col := range t.Columns {
		key := catalog.FoldIdentifier(col.Name)
		tp[key] = row[i]
		tp[foldedAlias+"."+key] = row[i]
	}
	return tp
}

func mergeTuples(left, right tuple) tuple {
	out := make(tuple, len(left)+len(right))
	for k, v := range left {
		out[k] = v
	}
	for k, v := range right {
		out[k] = v
	}
	return out
}

func (ex *executor) executeSelect(stmt *query.SelectStmt) (*Result, error) {
	srcs, tuples, err := ex.scanSources(stmt)
	if err != nil {
		return nil, err
	}

	tuples, err = ex.filterTuples(tuples, stmt.Where)
	if err != nil {
		return nil, err
	}

	groups, err := ex.buildGroups(stmt, tuples)
	if err != nil {
		return nil, err
	}

	groups, err = ex.filterGroups(groups, stmt.Having)
	if err != nil {
		return nil, err
	}

	if len(stmt.OrderBy) > 0 {
		if err := ex.sortGroups(groups, stmt.OrderBy); err != nil {
			return nil, err
		}
	}

	columns := ex.projectColumns(stmt, srcs)
	rows := make([][]value.Value, 0, len(groups))
	for _, g := range groups {
		row, err := ex.projectRow(stmt, srcs, g)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}

	if stmt.Distinct {
		rows = dedupRows(rows)
	}

	rows, err = ex.applyLimitOffset(rows, stmt.Limit, stmt.Offset)
	if err != nil {
		return nil, err
	}

	return &Result{Columns: columns, Rows: rows}, nil
}

// scanSources materializes the FROM table (index-assisted when a query
// without JOINs has a WHERE carrying a simple equality on an indexed column)
// and folds in every JOIN.
func (ex *executor) scanSources(stmt *query.SelectStmt) ([]*source, []tuple, error) {
	if stmt.From == nil {
		return nil, []tuple{{}}, nil
	}

	t, err := ex.catalog.GetTable(stmt.From.Name)
	if err != nil {
		return nil, nil, err
	}
	alias := stmt.From.Alias
	if alias == "" {
		alias = stmt.From.Name
	}
	srcs := []*source{{alias: alias, table: t}}

	where := stmt.Where
	if len(stmt.Joins) > 0 {
		where = nil
	}
	tuples := make([]tuple, 0, len(t.Rows))
	for _, id := range ex.baseRowIDs(t, where) {
		row, ok := t.Rows[id]
		if !ok {
			continue
		}
		tuples = append(tuples, tupleFromRow(alias, t, row))
	}

	for _, j := range stmt.Joins {
		jt, err := ex.catalog.GetTable(j.Table.Name)
		if err != nil {
			return nil, nil, err
		}
		jalias := j.Table.Alias
		if jalias == "" {
			jalias = j.Table.Name
		}
		srcs = append(srcs, &source{alias: jalias, table: jt})

		tuples, err = ex.applyJoin(tuples, jalias, jt, j)
		if err != nil {
			return nil, nil, err
		}
	}

	return srcs, tuples, nil
}

func (ex *executor) applyJoin(left []tuple, alias string, t *catalog.Table, j *query.JoinClause) ([]tuple, error) {
	foldedAlias := catalog.FoldIdentifier(alias)
	nullRow := make(tuple, len(t.Columns)*2)
	for _, col := range t.Columns {
		key := catalog.FoldIdentifier(col.Name)
		nullRow[key] = value.NewNull()
		nullRow[foldedAlias+"."+key] = value.NewNull()
	}

	ids := t.OrderedRowIDs()
	var out []tuple
	for _, lt := range left {
		matched := false
		for _, id := range ids {
			rt := tupleFromRow(alias, t, t.Rows[id])
			combined := mergeTuples(lt, rt)

			v, err := ex.eval(j.Condition, wrapRow(combined))
			if err != nil {
				return nil, err
			}
			keep, known := value.Truthy(v)
			if known && keep {
				out = append(out, combined)
				matched = true
			}
		}
		if !matched && j.Left {
			out = append(out, mergeTuples(lt, nullRow))
		}
	}
	return out, nil
}

// baseRowIDs tries a simple indexed-equality shortcut for the base table's
// WHERE clause; it falls back to a full scan whenever no such shortcut
// applies. This is an optimization only — filterTuples still re-applies the
// full WHERE expression afterward.
func (ex *executor) baseRowIDs(t *catalog.Table, where query.Expression) []catalog.RowID {
	if where == nil {
		return t.OrderedRowIDs()
	}
	if ids := indexedEqualityRowIDs(t, where); ids != nil {
		return ids
	}
	return t.OrderedRowIDs()
}

func indexedEqualityRowIDs(t *catalog.Table, e query.Expression) []catalog.RowID {
	n, ok := e.(*query.BinaryExpr)
	if !ok {
		return nil
	}
	if n.Operator == query.TokenAnd {
		if ids := indexedEqualityRowIDs(t, n.Left); ids != nil {
			return ids
		}
		return indexedEqualityRowIDs(t, n.Right)
	}
	if n.Operator != query.TokenEq {
		return nil
	}
	col, lit, ok := splitEquality(n)
	if !ok {
		return nil
	}
	for _, idx := range t.IndexesOn(col) {
		ids, err := idx.Search(lit)
		if err != nil {
			return nil
		}
		return ids
	}
	return nil
}

func splitEquality(n *query.BinaryExpr) (string, value.Value, bool) {
	if col, ok := identColumn(n.Left); ok {
		if lit, ok := literalValue(n.Right); ok {
			return col, lit, true
		}
	}
	if col, ok := identColumn(n.Right); ok {
		if lit, ok := literalValue(n.Left); ok {
			return col, lit, true
		}
	}
	return "", value.Value{}, false
}

func identColumn(e query.Expression) (string, bool) {
	switch n := e.(type) {
	case *query.Identifier:
		return n.Name, true
	case *query.QualifiedIdentifier:
		return n.Column, true
	}
	return "", false
}

func literalValue(e query.Expression) (value.Value, bool) {
	switch n := e.(type) {
	case *query.IntegerLiteral:
		return value.NewInteger(n.Value), true
	case *query.FloatLiteral:
		return value.NewFloat(n.Value), true
	case *query.StringLiteral:
		return value.NewString(n.Value), true
	case *query.BooleanLiteral:
		return value.NewBoolean(n.Value), true
	}
	return value.Value{}, false
}

func (ex *executor) filterTuples(tuples []tuple, where query.Expression) ([]tuple, error) {
	if where == nil {
		return tuples, nil
	}
	var out []tuple
	for _, tp := range tuples {
		v, err := ex.eval(where, wrapRow(tp))
		if err != nil {
			return nil, err
		}
		keep, known := value.Truthy(v)
		if known && keep {
			out = append(out, tp)
		}
	}
	return out, nil
}

func (ex *executor) filterGroups(groups []*group, having query.Expression) ([]*group, error) {
	if having == nil {
		return groups, nil
	}
	var out []*group
	for _, g := range groups {
		v, err := ex.eval(having, g)
		if err != nil {
			return nil, err
		}
		keep, known := value.Truthy(v)
		if known && keep {
			out = append(out, g)
		}
	}
	return out, nil
}

// buildGroups partitions tuples by GROUP BY, or wraps them as one implicit
// group when an aggregate is projected without GROUP BY, or leaves each row
// its own group when there's no aggregation at all.
func (ex *executor) buildGroups(stmt *query.SelectStmt, tuples []tuple) ([]*group, error) {
	if len(stmt.GroupBy) == 0 {
		if !selectHasAggregate(stmt) {
			groups := make([]*group, len(tuples))
			for i, tp := range tuples {
				groups[i] = wrapRow(tp)
			}
			return groups, nil
		}
		if len(tuples) == 0 {
			return []*group{{tuples: nil, env: tuple{}}}, nil
		}
		return []*group{{tuples: tuples, env: tuples[0]}}, nil
	}

	type bucket struct {
		key []value.Value
		g   *group
	}
	var buckets []bucket

	for _, tp := range tuples {
		key := make([]value.Value, len(stmt.GroupBy))
		for i, expr := range stmt.GroupBy {
			v, err := ex.eval(expr, wrapRow(tp))
			if err != nil {
				return nil, err
			}
			key[i] = v
		}

		found := false
		for i := range buckets {
			if groupKeysEqual(buckets[i].key, key) {
				buckets[i].g.tuples = append(buckets[i].g.tuples, tp)
				found = true
				break
			}
		}
		if !found {
			buckets = append(buckets, bucket{key: key, g: &group{tuples: []tuple{tp}, env: tp}})
		}
	}

	groups := make([]*group, len(buckets))
	for i, b := range buckets {
		groups[i] = b.g
	}
	return groups, nil
}

func groupKeysEqual(a, b []value.Value) bool {
	for i := range a {
		if !value.EqualForGrouping(a[i], b[i]) {
			return false
		}
	}
	return true
}

func selectHasAggregate(stmt *query.SelectStmt) bool {
	for _, item := range stmt.Columns {
		if item.Expr != nil && exprHasAggregate(item.Expr) {
			return true
		}
	}
	return stmt.Having != nil && exprHasAggregate(stmt.Having)
}

func exprHasAggregate(e query.Expression) bool {
	switch n := e.(type) {
	case *query.FunctionCall:
		if n.Aggregate {
			return true
		}
		for _, a := range n.Args {
			if exprHasAggregate(a) {
				return true
			}
		}
	case *query.BinaryExpr:
		return exprHasAggregate(n.Left) || exprHasAggregate(n.Right)
	case *query.UnaryExpr:
		return exprHasAggregate(n.Expr)
	case *query.InExpr:
		return exprHasAggregate(n.Expr)
	case *query.BetweenExpr:
		return exprHasAggregate(n.Expr)
	case *query.LikeExpr:
		return exprHasAggregate(n.Expr)
	case *query.IsNullExpr:
		return exprHasAggregate(n.Expr)
	}
	return false
}

// sortGroups implements ORDER BY's null placement: null sorts first under
// ASC and last under DESC, applied key by key.
func (ex *executor) sortGroups(groups []*group, orderBy []*query.OrderByExpr) error {
	var sortErr error
	sort.SliceStable(groups, func(i, j int) bool {
		for _, ob := range orderBy {
			vi, err := ex.eval(ob.Expr, groups[i])
			if err != nil {
				sortErr = err
				return false
			}
			vj, err := ex.eval(ob.Expr, groups[j])
			if err != nil {
				sortErr = err
				return false
			}

			if vi.IsNull() && vj.IsNull() {
				continue
			}
			if vi.IsNull() {
				return !ob.Desc
			}
			if vj.IsNull() {
				return ob.Desc
			}

			cmp, err := value.Compare(vi, vj)
			if err != nil {
				sortErr = err
				return false
			}
			if cmp == 0 {
				continue
			}
			if ob.Desc {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
	return sortErr
}

func (ex *executor) projectColumns(stmt *query.SelectStmt, srcs []*source) []string {
	var names []string
	for _, item := range stmt.Columns {
		if item.Star {
			for _, s := range srcs {
				for _, col := range s.table.Columns {
					names = append(names, col.Name)
				}
			}
			continue
		}
		if item.Alias != "" {
			names = append(names, item.Alias)
			continue
		}
		names = append(names, exprLabel(item.Expr))
	}
	return names
}

func exprLabel(e query.Expression) string {
	switch n := e.(type) {
	case *query.Identifier:
		return n.Name
	case *query.QualifiedIdentifier:
		return n.Table + "." + n.Column
	case *query.FunctionCall:
		if n.Star {
			return n.Name + "(*)"
		}
		args := make([]string, len(n.Args))
		for i, a := range n.Args {
			args[i] = exprLabel(a)
		}
		return n.Name + "(" + strings.Join(args, ", ") + ")"
	default:
		return "expr"
	}
}

func (ex *executor) projectRow(stmt *query.SelectStmt, srcs []*source, g *group) ([]value.Value, error) {
	var out []value.Value
	for _, item := range stmt.Columns {
		if item.Star {
			for _, s := range srcs {
				for _, col := range s.table.Columns {
					v, ok := g.env[catalog.FoldIdentifier(s.alias)+"."+catalog.FoldIdentifier(col.Name)]
					if !ok {
						v = g.env[catalog.FoldIdentifier(col.Name)]
					}
					out = append(out, v)
				}
			}
			continue
		}
		v, err := ex.eval(item.Expr, g)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func dedupRows(rows [][]value.Value) [][]value.Value {
	var out [][]value.Value
	for _, r := range rows {
		dup := false
		for _, o := range out {
			if rowsEqual(r, o) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, r)
		}
	}
	return out
}

func rowsEqual(a, b []value.Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !value.EqualForGrouping(a[i], b[i]) {
			return false
		}
	}
	return true
}

func (ex *executor) applyLimitOffset(rows [][]value.Value, limitExpr, offsetExpr query.Expression) ([][]value.Value, error) {
	offset := 0
	if offsetExpr != nil {
		v, err := ex.eval(offsetExpr, wrapRow(tuple{}))
		if err != nil {
			return nil, err
		}
		offset = int(v.AsInt())
	}
	if offset > len(rows) {
		offset = len(rows)
	}
	rows = rows[offset:]

	if limitExpr != nil {
		v, err := ex.eval(limitExpr, wrapRow(tuple{}))
		if err != nil {
			return nil, err
		}
		limit := int(v.AsInt())
		if limit < 0 {
			limit = 0
		}
		if limit < len(rows) {
			rows = rows[:limit]
		}
	}
	return rows, nil
}

// eval evaluates an expression against a group: plain column references
// resolve through g.env, aggregate calls reduce over g.tuples, and every
// other node recurses with the same group so aggregates nested inside
// arithmetic (e.g. SUM(x) + 1) still see the whole group.
func (ex *executor) eval(e query.Expression, g *group) (value.Value, error) {
	switch n := e.(type) {
	case *query.Identifier:
		v, ok := g.env[catalog.FoldIdentifier(n.Name)]
		if !ok {
			return value.Value{}, &catalog.SchemaError{Message: fmt.Sprintf("unknown column %q", n.Name)}
		}
		return v, nil
	case *query.QualifiedIdentifier:
		key := catalog.FoldIdentifier(n.Table) + "." + catalog.FoldIdentifier(n.Column)
		v, ok := g.env[key]
		if !ok {
			return value.Value{}, &catalog.SchemaError{Message: fmt.Sprintf("unknown column %q", n.Table+"."+n.Column)}
		}
		return v, nil
	case *query.IntegerLiteral:
		return value.NewInteger(n.Value), nil
	case *query.FloatLiteral:
		return value.NewFloat(n.Value), nil
	case *query.StringLiteral:
		return value.NewString(n.Value), nil
	case *query.BooleanLiteral:
		return value.NewBoolean(n.Value), nil
	case *query.NullLiteral:
		return value.NewNull(), nil
	case *query.UnaryExpr:
		return ex.evalUnary(n, g)
	case *query.BinaryExpr:
		return ex.evalBinary(n, g)
	case *query.LikeExpr:
		return ex.evalLike(n, g)
	case *query.InExpr:
		return ex.evalIn(n, g)
	case *query.BetweenExpr:
		return ex.evalBetween(n, g)
	case *query.IsNullExpr:
		return ex.evalIsNull(n, g)
	case *query.FunctionCall:
		if n.Aggregate {
			return ex.computeAggregate(n, g)
		}
		return value.Value{}, &catalog.SchemaError{Message: fmt.Sprintf("unknown function %s", n.Name)}
	default:
		return value.Value{}, &catalog.SchemaError{Message: fmt.Sprintf("cannot evaluate %T", e)}
	}
}

func (ex *executor) evalUnary(n *query.UnaryExpr, g *group) (value.Value, error) {
	v, err := ex.eval(n.Expr, g)
	if err != nil {
		return value.Value{}, err
	}

	switch n.Operator {
	case query.TokenNot:
		if v.IsNull() {
			return value.NewNull(), nil
		}
		b, ok := value.Truthy(v)
		if !ok {
			return value.Value{}, &value.TypeError{Message: "NOT requires a boolean operand"}
		}
		return value.NewBoolean(!b), nil
	case query.TokenMinus:
		if v.IsNull() {
			return value.NewNull(), nil
		}
		switch v.Kind() {
		case value.Integer:
			r, err := value.CheckedSub(0, v.AsInt())
			if err != nil {
				return value.Value{}, err
			}
			return value.NewInteger(r), nil
		case value.Float:
			return value.NewFloat(-v.AsFloat()), nil
		default:
			return value.Value{}, &value.TypeError{Message: "unary - requires a numeric operand"}
		}
	case query.TokenPlus:
		return v, nil
	}
	return value.Value{}, &value.TypeError{Message: "unsupported unary operator"}
}

func (ex *executor) evalBinary(n *query.BinaryExpr, g *group) (value.Value, error) {
	if n.Operator == query.TokenAnd || n.Operator == query.TokenOr {
		return ex.evalLogical(n, g)
	}

	lv, err := ex.eval(n.Left, g)
	if err != nil {
		return value.Value{}, err
	}
	rv, err := ex.eval(n.Right, g)
	if err != nil {
		return value.Value{}, err
	}

	switch n.Operator {
	case query.TokenEq, query.TokenNeq, query.TokenLt, query.TokenLte, query.TokenGt, query.TokenGte:
		if !lv.IsNull() && !rv.IsNull() {
			if _, err := value.Compare(lv, rv); err != nil {
				return value.Value{}, err
			}
		}
	}

	switch n.Operator {
	case query.TokenEq:
		eq, known := value.Equal(lv, rv)
		if !known {
			return value.NewNull(), nil
		}
		return value.NewBoolean(eq), nil
	case query.TokenNeq:
		eq, known := value.Equal(lv, rv)
		if !known {
			return value.NewNull(), nil
		}
		return value.NewBoolean(!eq), nil
	case query.TokenLt:
		lt, known := value.Less(lv, rv)
		if !known {
			return value.NewNull(), nil
		}
		return value.NewBoolean(lt), nil
	case query.TokenLte:
		le, known := value.LessOrEqual(lv, rv)
		if !known {
			return value.NewNull(), nil
		}
		return value.NewBoolean(le), nil
	case query.TokenGt:
		le, known := value.LessOrEqual(lv, rv)
		if !known {
			return value.NewNull(), nil
		}
		return value.NewBoolean(!le), nil
	case query.TokenGte:
		lt, known := value.Less(lv, rv)
		if !known {
			return value.NewNull(), nil
		}
		return value.NewBoolean(!lt), nil
	case query.TokenPlus, query.TokenMinus, query.TokenStar, query.TokenSlash:
		return arith(n.Operator, lv, rv)
	}
	return value.Value{}, &value.TypeError{Message: "unsupported operator"}
}

// evalLogical implements three-valued AND/OR, short-circuiting when the left
// side alone already decides the result.
func (ex *executor) evalLogical(n *query.BinaryExpr, g *group) (value.Value, error) {
	lv, err := ex.eval(n.Left, g)
	if err != nil {
		return value.Value{}, err
	}
	lb, lknown := value.Truthy(lv)

	if n.Operator == query.TokenAnd && lknown && !lb {
		return value.NewBoolean(false), nil
	}
	if n.Operator == query.TokenOr && lknown && lb {
		return value.NewBoolean(true), nil
	}

	rv, err := ex.eval(n.Right, g)
	if err != nil {
		return value.Value{}, err
	}
	rb, rknown := value.Truthy(rv)

	if n.Operator == query.TokenAnd {
		if rknown && !rb {
			return value.NewBoolean(false), nil
		}
		if lknown && rknown {
			return value.NewBoolean(lb && rb), nil
		}
		return value.NewNull(), nil
	}

	if rknown && rb {
		return value.NewBoolean(true), nil
	}
	if lknown && rknown {
		return value.NewBoolean(lb || rb), nil
	}
	return value.NewNull(), nil
}

func arith(op query.TokenType, l, r value.Value) (value.Value, error) {
	if l.IsNull() || r.IsNull() {
		return value.NewNull(), nil
	}

	if l.Kind() == value.Integer && r.Kind() == value.Integer {
		a, b := l.AsInt(), r.AsInt()
		switch op {
		case query.TokenPlus:
			v, err := value.CheckedAdd(a, b)
			if err != nil {
				return value.Value{}, err
			}
			return value.NewInteger(v), nil
		case query.TokenMinus:
			v, err := value.CheckedSub(a, b)
			if err != nil {
				return value.Value{}, err
			}
			return value.NewInteger(v), nil
		case query.TokenStar:
			v, err := value.CheckedMul(a, b)
			if err != nil {
				return value.Value{}, err
			}
			return value.NewInteger(v), nil
		case query.TokenSlash:
			if b == 0 {
				return value.Value{}, &value.TypeError{Message: "division by zero"}
			}
			return value.NewFloat(float64(a) / float64(b)), nil
		}
	}

	af, aok := numeric(l)
	bf, bok := numeric(r)
	if !aok || !bok {
		return value.Value{}, &value.TypeError{Message: "arithmetic requires numeric operands"}
	}
	switch op {
	case query.TokenPlus:
		return value.NewFloat(af + bf), nil
	case query.TokenMinus:
		return value.NewFloat(af - bf), nil
	case query.TokenStar:
		return value.NewFloat(af * bf), nil
	case query.TokenSlash:
		if bf == 0 {
			return value.Value{}, &value.TypeError{Message: "division by zero"}
		}
		return value.NewFloat(af / bf), nil
	}
	return value.Value{}, &value.TypeError{Message: "unsupported arithmetic operator"}
}

func numeric(v value.Value) (float64, bool) {
	switch v.Kind() {
	case value.Integer:
		return float64(v.AsInt()), true
	case value.Float:
		return v.AsFloat(), true
	default:
		return 0, false
	}
}

func (ex *executor) evalLike(n *query.LikeExpr, g *group) (value.Value, error) {
	v, err := ex.eval(n.Expr, g)
	if err != nil {
		return value.Value{}, err
	}
	p, err := ex.eval(n.Pattern, g)
	if err != nil {
		return value.Value{}, err
	}
	if v.IsNull() || p.IsNull() {
		return value.NewNull(), nil
	}
	if v.Kind() != value.String || p.Kind() != value.String {
		return value.Value{}, &value.TypeError{Message: "LIKE requires string operands"}
	}
	match := value.Like(v.AsString(), p.AsString())
	if n.Not {
		match = !match
	}
	return value.NewBoolean(match), nil
}

func (ex *executor) evalIn(n *query.InExpr, g *group) (value.Value, error) {
	v, err := ex.eval(n.Expr, g)
	if err != nil {
		return value.Value{}, err
	}
	if v.IsNull() {
		return value.NewNull(), nil
	}

	sawNull := false
	for _, item := range n.List {
		iv, err := ex.eval(item, g)
		if err != nil {
			return value.Value{}, err
		}
		if iv.IsNull() {
			sawNull = true
			continue
		}
		eq, known := value.Equal(v, iv)
		if known && eq {
			return value.NewBoolean(!n.Not), nil
		}
	}
	if sawNull {
		return value.NewNull(), nil
	}
	return value.NewBoolean(n.Not), nil
}

func (ex *executor) evalBetween(n *query.BetweenExpr, g *group) (value.Value, error) {
	v, err := ex.eval(n.Expr, g)
	if err != nil {
		return value.Value{}, err
	}
	lo, err := ex.eval(n.Lower, g)
	if err != nil {
		return value.Value{}, err
	}
	hi, err := ex.eval(n.Upper, g)
	if err != nil {
		return value.Value{}, err
	}

	geLo, known1 := value.LessOrEqual(lo, v)
	leHi, known2 := value.LessOrEqual(v, hi)
	if !known1 || !known2 {
		return value.NewNull(), nil
	}
	result := geLo && leHi
	if n.Not {
		result = !result
	}
	return value.NewBoolean(result), nil
}

func (ex *executor) evalIsNull(n *query.IsNullExpr, g *group) (value.Value, error) {
	v, err := ex.eval(n.Expr, g)
	if err != nil {
		return value.Value{}, err
	}
	isNull := v.IsNull()
	if n.Not {
		isNull = !isNull
	}
	return value.NewBoolean(isNull), nil
}

// computeAggregate reduces a group's tuples through an aggregate function.
// SUM/AVG/MIN/MAX ignore nulls rather than treating them as zero, and
// return NULL (not zero) when every input was null.
func (ex *executor) computeAggregate(fc *query.FunctionCall, g *group) (value.Value, error) {
	name := strings.ToUpper(fc.Name)

	if name == "COUNT" && fc.Star {
		return value.NewInteger(int64(len(g.tuples))), nil
	}

	if len(fc.Args) != 1 {
		return value.Value{}, &catalog.SchemaError{Message: fmt.Sprintf("%s takes exactly one argument", name)}
	}

	var nonNull []value.Value
	for _, tp := range g.tuples {
		v, err := ex.eval(fc.Args[0], wrapRow(tp))
		if err != nil {
			return value.Value{}, err
		}
		if !v.IsNull() {
			nonNull = append(nonNull, v)
		}
	}

	if fc.Distinct {
		nonNull = dedupValues(nonNull)
	}

	switch name {
	case "COUNT":
		return value.NewInteger(int64(len(nonNull))), nil
	case "SUM":
		if len(nonNull) == 0 {
			return value.NewNull(), nil
		}
		return sumValues(nonNull)
	case "AVG":
		if len(nonNull) == 0 {
			return value.NewNull(), nil
		}
		sum, err := sumValues(nonNull)
		if err != nil {
			return value.Value{}, err
		}
		f, _ := numeric(sum)
		return value.NewFloat(f / float64(len(nonNull))), nil
	case "MIN":
		return extremeValue(nonNull, true)
	case "MAX":
		return extremeValue(nonNull, false)
	default:
		return value.Value{}, &catalog.SchemaError{Message: fmt.Sprintf("unknown aggregate function %s", name)}
	}
}

func dedupValues(vs []value.Value) []value.Value {
	var out []value.Value
	for _, v := range vs {
		dup := false
		for _, o := range out {
			if value.EqualForGrouping(v, o) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, v)
		}
	}
	return out
}

func sumValues(vs []value.Value) (value.Value, error) {
	allInt := true
	for _, v := range vs {
		if v.Kind() != value.Integer {
			allInt = false
			break
		}
	}
	if allInt {
		var total int64
		for _, v := range vs {
			t, err := value.CheckedAdd(total, v.AsInt())
			if err != nil {
				return value.Value{}, err
			}
			total = t
		}
		return value.NewInteger(total), nil
	}

	var total float64
	for _, v := range vs {
		f, ok := numeric(v)
		if !ok {
			return value.Value{}, &value.TypeError{Message: "SUM requires numeric operands"}
		}
		total += f
	}
	return value.NewFloat(total), nil
}

func extremeValue(vs []value.Value, min bool) (value.Value, error) {
	if len(vs) == 0 {
		return value.NewNull(), nil
	}
	best := vs[0]
	for _, v := range vs[1:] {
		cmp, err := value.Compare(v, best)
		if err != nil {
			return value.Value{}, err
		}
		if (min && cmp < 0) || (!min && cmp > 0) {
			best = v
		}
	}
	return best, nil
}
