package model

// Side identifies which record wins a stat comparison.
type Side int

const (
	Tie Side = iota
	Left
	Right
)

// StatComparison is one row of a side-by-side comparison.
type StatComparison struct {
	Stat   StatID
	Left   int
	Right  int
	Winner Side
}

// Diff returns Left minus Right.
func (c StatComparison) Diff() int {
	return c.Left - c.Right
}

// Compare lines up the base stats of a and b in canonical stat order.
// Missing stats compare as zero.
func Compare(a, b Record) []StatComparison {
	rows := make([]StatComparison, 0, len(Stats))
	for _, id := range Stats {
		row := StatComparison{Stat: id, Left: a.Stat(id), Right: b.Stat(id)}
		switch {
		case row.Left > row.Right:
			row.Winner = Left
		case row.Right > row.Left:
			row.Winner = Right
		}
		rows = append(rows, row)
	}
	return rows
}

// Tally counts how many stats each side wins; ties count for neither.
func Tally(rows []StatComparison) (left, right int) {
	for _, r := range rows {
		switch r.Winner {
		case Left:
			left++
		case Right:
			right++
		}
	}
	return left, right
}
