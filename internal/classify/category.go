package classify

import "fmt"

// Category is the analysis label for a span of session time. It is a closed
// set of four values; aggregation and scoring code switches exhaustively over
// them.
type Category int

const (
	Teaching Category = iota
	Interactive
	QnA
	Wasted
)

// Categories lists every category in declaration order.
var Categories = [4]Category{Teaching, Interactive, QnA, Wasted}

func (c Category) String() string {
	switch c {
	case Teaching:
		return "teaching"
	case Interactive:
		return "interactive"
	case QnA:
		return "qna"
	case Wasted:
		return "wasted"
	default:
		return fmt.Sprintf("category(%d)", int(c))
	}
}

// Segment is a time span tagged with exactly one category. A classified
// session is an ordered slice of segments partitioning [0, duration].
type Segment struct {
	Start    float64  `json:"start"`
	End      float64  `json:"end"`
	Category Category `json:"category"`
}

// Duration returns the segment length in seconds.
func (s Segment) Duration() float64 {
	return s.End - s.Start
}
