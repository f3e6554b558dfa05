package vm

import (
	"fmt"
	"strconv"
)

// Position is a 1-based line/column location in a source file.
type Position struct {
	Line   int
	Column int
}

// Span is a range of source text.
type Span struct {
	File  string
	Start Position
	End   Position
}

// String renders the span as file:line:col.
func (s Span) String() string {
	if s.File == "" {
		return fmt.Sprintf("%d:%d", s.Start.Line, s.Start.Column)
	}
	return fmt.Sprintf("%s:%d:%d", s.File, s.Start.Line, s.Start.Column)
}

// Instruction is one unit of a Program: an opcode and an optional
// string-encoded immediate operand.
type Instruction struct {
	Op         Opcode
	Operand    string
	HasOperand bool
}

// Ins builds an instruction without an operand.
func Ins(op Opcode) Instruction {
	return Instruction{Op: op}
}

// InsArg builds an instruction with an operand.
func InsArg(op Opcode, operand string) Instruction {
	return Instruction{Op: op, Operand: operand, HasOperand: true}
}

// InsJump builds a relative-jump style instruction.
func InsJump(op Opcode, distance int) Instruction {
	return InsArg(op, strconv.Itoa(distance))
}

// InsNumber builds a PUSH_NUMBER instruction.
func InsNumber(n float64) Instruction {
	return InsArg(OpPushNumber, strconv.FormatFloat(n, 'g', -1, 64))
}

// Distance decodes the operand of a jump-style instruction.
func (in Instruction) Distance() (int, error) {
	d, err := strconv.Atoi(in.Operand)
	if err != nil {
		return 0, fmt.Errorf("%s: bad jump operand %q", in.Op, in.Operand)
	}
	return d, nil
}

// String renders the instruction as it appears in a dump.
func (in Instruction) String() string {
	if !in.HasOperand {
		return in.Op.String()
	}
	return fmt.Sprintf("%s %q", in.Op, in.Operand)
}

// DebugEntry ties the instruction range [End-Length, End) to the syntax
// node that produced it.
type DebugEntry struct {
	End    int
	Length int
	Span   Span
	Kind   string
}

// Start returns the first instruction index covered by the entry.
func (e DebugEntry) Start() int {
	return e.End - e.Length
}

// Contains reports whether ip lies inside the entry's range.
func (e DebugEntry) Contains(ip int) bool {
	return ip >= e.Start() && ip < e.End
}

// DebugTable is the set of debug entries emitted alongside a Program.
type DebugTable []DebugEntry

// Lookup returns the most specific entry (smallest length) containing ip.
// Ties go to the entry recorded first, which is the innermost node.
func (t DebugTable) Lookup(ip int) (DebugEntry, bool) {
	best := -1
	for i, e := range t {
		if !e.Contains(ip) {
			continue
		}
		if best < 0 || e.Length < t[best].Length {
			best = i
		}
	}
	if best < 0 {
		return DebugEntry{}, false
	}
	return t[best], true
}

// Program is a compiled instruction sequence plus its debug table.
// Programs are immutable once emitted.
type Program struct {
	Code  []Instruction
	Debug DebugTable
}

// Len returns the number of instructions.
func (p *Program) Len() int {
	return len(p.Code)
}
