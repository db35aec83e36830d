package model

// BoardSize is the number of cells on the 3x3 board
const BoardSize = 9

// Symbol is a player mark. The zero value is an empty cell.
type Symbol string

const (
	SymbolNone Symbol = ""
	SymbolX    Symbol = "X"
	SymbolO    Symbol = "O"
)

// Other returns the opposing symbol
func (s Symbol) Other() Symbol {
	switch s {
	case SymbolX:
		return SymbolO
	case SymbolO:
		return SymbolX
	default:
		return SymbolNone
	}
}

// WinningTriples are the rows, columns and diagonals of a row-major 3x3 board
var WinningTriples = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8}, // Rows
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8}, // Columns
	{0, 4, 8}, {2, 4, 6},            // Diagonals
}

// Board holds the nine cells of a game, indexed 0-8 row-major
type Board [BoardSize]Symbol

// IsValidIndex returns true if the index addresses a cell
func IsValidIndex(index int) bool {
	return index >= 0 && index < BoardSize
}

// IsEmpty returns true if the cell at index holds no symbol
func (b *Board) IsEmpty(index int) bool {
	return IsValidIndex(index) && b[index] == SymbolNone
}

// IsFull returns true if no empty cell remains
func (b *Board) IsFull() bool {
	return b.EmptyCount() == 0
}

// EmptyCount returns the number of empty cells
func (b *Board) EmptyCount() int {
	count := 0
	for _, cell := range b {
		if cell == SymbolNone {
			count++
		}
	}
	return count
}

// EmptyCells returns the indices of all empty cells in ascending order
func (b *Board) EmptyCells() []int {
	cells := make([]int, 0, BoardSize)
	for i, cell := range b {
		if cell == SymbolNone {
			cells = append(cells, i)
		}
	}
	return cells
}

// CompletedLines reports, per symbol, whether it holds any full triple.
// All eight triples are always inspected.
func (b *Board) CompletedLines() (x bool, o bool) {
	for _, t := range WinningTriples {
		first := b[t[0]]
		if first == SymbolNone || b[t[1]] != first || b[t[2]] != first {
			continue
		}
		switch first {
		case SymbolX:
			x = true
		case SymbolO:
			o = true
		}
	}
	return x, o
}

// Evaluate computes the outcome implied by the board alone.
// A board where both symbols complete a line cannot be reached through
// accepted moves; X is reported for it.
func (b *Board) Evaluate() Outcome {
	x, o := b.CompletedLines()
	switch {
	case x:
		return OutcomeXWins
	case o:
		return OutcomeOWins
	case b.IsFull():
		return OutcomeDraw
	default:
		return OutcomeNone
	}
}

// String renders the board as nine characters with '_' for empty cells
func (b *Board) String() string {
	out := make([]byte, BoardSize)
	for i, cell := range b {
		if cell == SymbolNone {
			out[i] = '_'
		} else {
			out[i] = cell[0]
		}
	}
	return string(out)
}
