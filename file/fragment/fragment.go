package fragment

import "github.com/apache/arrow/go/v12/arrow"

// Fragment is one object of a dataset together with what Open learned
// about its physical layout.
type Fragment struct {
	fragmentId int64
	path       string
	size       int64
	numRows    int64
	// columns holds, for every declared field, the physical column it is
	// read from.
	columns []string
	layout  *arrow.Schema
}

type FragmentVector []*Fragment

func ToFilesVector(fragments FragmentVector) []string {
	files := make([]string, 0, len(fragments))
	for _, fragment := range fragments {
		files = append(files, fragment.path)
	}
	return files
}

// NumRows sums the row counts of the fragments, -1 if any is unknown.
func (v FragmentVector) NumRows() int64 {
	var n int64
	for _, f := range v {
		if f.numRows < 0 {
			return -1
		}
		n += f.numRows
	}
	return n
}

func NewFragment(fragmentId int64, path string, size int64) *Fragment {
	return &Fragment{
		fragmentId: fragmentId,
		path:       path,
		size:       size,
		numRows:    -1,
	}
}

func (f *Fragment) FragmentId() int64 {
	return f.fragmentId
}

func (f *Fragment) Path() string {
	return f.path
}

func (f *Fragment) Size() int64 {
	return f.size
}

func (f *Fragment) NumRows() int64 {
	return f.numRows
}

func (f *Fragment) SetNumRows(n int64) {
	f.numRows = n
}

func (f *Fragment) Columns() []string {
	return f.columns
}

// Layout is the physical schema of the object as seen by local scans.
func (f *Fragment) Layout() *arrow.Schema {
	return f.layout
}

func (f *Fragment) SetLayout(layout *arrow.Schema, columns []string) {
	f.layout = layout
	f.columns = columns
}
