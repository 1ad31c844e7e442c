package sax

// Location is the position of the byte most recently consumed by the
// parser: Bytes is the number of bytes consumed so far (the 1-based
// offset of that byte), and Line and Column are its 1-based line and
// column. Column is 0 while no byte of the current line has been consumed:
// before the first byte, and right after a '\n', which advances Line and
// resets Column. A bare '\r' (or a "\r\n" pair) advances the byte count
// and column normally, matching how the state machine sees raw bytes
// rather than normalized line endings.
type Location struct {
	Bytes  int
	Line   int
	Column int
}
