package vm

import (
	"sort"
	"strings"
)

// Dump returns a human-readable listing of the program: one line per
// instruction, with "+ Kind" annotations right-aligned for instructions
// that begin one or more debug entries (outermost first).
//
// The format is for tooling only and is not a stable contract.
func (p *Program) Dump() string {
	lines := make([]string, len(p.Code))
	annotations := make([]string, len(p.Code))

	width := 0
	for i, in := range p.Code {
		lines[i] = in.String()
		if len(lines[i]) > width {
			width = len(lines[i])
		}
	}

	annWidth := 0
	for i := range p.Code {
		annotations[i] = p.annotationAt(i)
		if len(annotations[i]) > annWidth {
			annWidth = len(annotations[i])
		}
	}

	var sb strings.Builder
	for i, line := range lines {
		sb.WriteString(line)
		if annotations[i] != "" {
			sb.WriteString(strings.Repeat(" ", width-len(line)+2+annWidth-len(annotations[i])))
			sb.WriteString(annotations[i])
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// annotationAt lists the kinds of all entries starting at ip, widest first.
func (p *Program) annotationAt(ip int) string {
	var starting []DebugEntry
	for _, e := range p.Debug {
		if e.Length > 0 && e.Start() == ip {
			starting = append(starting, e)
		}
	}
	if len(starting) == 0 {
		return ""
	}

	sort.SliceStable(starting, func(i, j int) bool {
		return starting[i].Length > starting[j].Length
	})

	parts := make([]string, len(starting))
	for i, e := range starting {
		parts[i] = "+ " + e.Kind
	}
	return strings.Join(parts, " ")
}
