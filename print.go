package mrl

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// compressedEdge is the number of levels kept at each end of a
// compressed dump; the levels in between are replaced by an ellipsis.
const compressedEdge = 3

// Fprint writes every level of the sketch to w, top level first, one
// line per level with "-" for empty slots. In compressed mode levels
// 3 through L-3 are elided.
func (s *Sketch) Fprint(w io.Writer, compressed bool) error {
	bw := bufio.NewWriter(w)
	bw.WriteString("--- MRL sketch scheme (k = ")
	bw.WriteString(strconv.FormatInt(s.k, 10))
	bw.WriteString(", L = ")
	bw.WriteString(strconv.FormatInt(s.levels, 10))
	bw.WriteString(") ---\n")

	for j := s.levels; j >= 0; j-- {
		if compressed && j >= compressedEdge && j <= s.levels-compressedEdge {
			if j == s.levels-compressedEdge {
				bw.WriteString(strings.Repeat(" .\n", 3))
			}
			continue
		}
		bw.WriteString("A_")
		bw.WriteString(strconv.FormatInt(j, 10))
		bw.WriteString(": [")
		buf := s.buffers[j]
		for i := 0; i < buf.capacity(); i++ {
			if i > 0 {
				bw.WriteString(", ")
			}
			if i < buf.size() {
				bw.WriteString(strconv.FormatInt(buf.slots[i], 10))
			} else {
				bw.WriteString("-")
			}
		}
		bw.WriteString("]\n")
	}
	bw.WriteString("\n")
	return bw.Flush()
}

// String returns the uncompressed dump.
func (s *Sketch) String() string {
	var sb strings.Builder
	s.Fprint(&sb, false)
	return sb.String()
}
