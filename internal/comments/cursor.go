package comments

import "strconv"

// DefaultPer is the page size used when none is configured.
const DefaultPer = 10

// Cursor is the pagination state of one comment thread. Next is the offset
// of the page currently shown.
type Cursor struct {
	Slug  string
	Next  int
	Total int
	Per   int
}

// Page returns the 1-based page number.
func (c Cursor) Page() int {
	return c.Next/c.per() + 1
}

// TotalPages is never less than 1.
func (c Cursor) TotalPages() int {
	per := c.per()
	return max(1, (c.Total+per-1)/per)
}

func (c Cursor) PrevDisabled() bool {
	return c.Page() <= 1
}

func (c Cursor) NextDisabled() bool {
	return c.Page() >= c.TotalPages()
}

// Indicator renders "{page}/{totalPages}".
func (c Cursor) Indicator() string {
	return strconv.Itoa(c.Page()) + "/" + strconv.Itoa(c.TotalPages())
}

// PrevOffset is the offset of the previous page, clamped to zero.
func (c Cursor) PrevOffset() int {
	return max(0, c.Next-c.per())
}

func (c Cursor) NextOffset() int {
	return c.Next + c.per()
}

func (c Cursor) per() int {
	if c.Per <= 0 {
		return DefaultPer
	}
	return c.Per
}
