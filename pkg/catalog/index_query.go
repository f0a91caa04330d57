package catalog

import (
	"github.com/sparrowdb/sparrowdb/pkg/btree"
	"github.com/sparrowdb/sparrowdb/pkg/value"
)

// Search returns every row ID whose indexed column equals key.
func (idx *Index) Search(key value.Value) ([]RowID, error) {
	return idx.tree.Search(key)
}

// Range returns every row ID whose indexed column falls within the given
// bounds. A nil bound is unbounded on that side.
func (idx *Index) Range(lower, upper *btree.Bound) ([]RowID, error) {
	return idx.tree.Range(lower, upper)
}
