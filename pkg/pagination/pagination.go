package pagination

const (
	// DefaultSize is the admin order list page size.
	DefaultSize = 10
	// MaxPage caps how deep a caller may page.
	MaxPage = 100000
)

// Page is a 1-based page number with a fixed size.
type Page struct {
	Number int
	Size   int
}

// New normalizes number and size; values below 1 fall back to the defaults.
func New(number, size int) Page {
	if number < 1 {
		number = 1
	}
	if number > MaxPage {
		number = MaxPage
	}
	if size < 1 {
		size = DefaultSize
	}
	return Page{Number: number, Size: size}
}

// Offset returns the number of rows to skip.
func (p Page) Offset() int {
	if p.Number < 1 {
		return 0
	}
	return (p.Number - 1) * p.Size
}

// Limit returns the page size.
func (p Page) Limit() int {
	return p.Size
}
