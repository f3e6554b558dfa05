package vm

import (
	"strings"
	"testing"
)

func TestDebugTableLookupMostSpecific(t *testing.T) {
	table := DebugTable{
		{End: 1, Length: 1, Kind: "Number"},
		{End: 2, Length: 1, Kind: "Number"},
		{End: 4, Length: 4, Kind: "Binary"},
		{End: 4, Length: 4, Kind: "ExprStmt"},
	}

	cases := []struct {
		ip   int
		kind string
	}{
		{0, "Number"},
		{1, "Number"},
		{3, "Binary"},
	}
	for _, c := range cases {
		e, ok := table.Lookup(c.ip)
		if !ok || e.Kind != c.kind {
			t.Errorf("Lookup(%d) = %q, %v, want %q", c.ip, e.Kind, ok, c.kind)
		}
	}
	if _, ok := table.Lookup(4); ok {
		t.Error("Lookup past every entry should fail")
	}
}

func TestInstructionString(t *testing.T) {
	if got := Ins(OpPop).String(); got != "POP" {
		t.Errorf("got %q", got)
	}
	if got := InsNumber(2.5).String(); got != `PUSH_NUMBER "2.5"` {
		t.Errorf("got %q", got)
	}
	if got := InsJump(OpJump, -3).String(); got != `JUMP "-3"` {
		t.Errorf("got %q", got)
	}
	if d, err := InsJump(OpJump, -3).Distance(); err != nil || d != -3 {
		t.Errorf("Distance = %d, %v", d, err)
	}
	if _, err := InsArg(OpJump, "x").Distance(); err == nil {
		t.Error("expected error for bad jump operand")
	}
}

func TestProgramDump(t *testing.T) {
	p := &Program{
		Code: []Instruction{
			InsNumber(2),
			InsNumber(3),
			InsNumber(2),
			InsArg(OpDispatch, "+"),
		},
		Debug: DebugTable{
			{End: 1, Length: 1, Kind: "Number"},
			{End: 2, Length: 1, Kind: "Number"},
			{End: 4, Length: 4, Kind: "Binary"},
		},
	}

	lines := strings.Split(strings.TrimSuffix(p.Dump(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("dump has %d lines, want 4", len(lines))
	}
	if !strings.HasPrefix(lines[0], `PUSH_NUMBER "2"`) || !strings.HasSuffix(lines[0], "+ Binary + Number") {
		t.Errorf("line 0 = %q", lines[0])
	}
	if !strings.HasSuffix(lines[1], "+ Number") {
		t.Errorf("line 1 = %q", lines[1])
	}
	if len(lines[0]) != len(lines[1]) {
		t.Error("annotations should be right-aligned to one column")
	}
	if lines[2] != `PUSH_NUMBER "2"` || lines[3] != `DISPATCH "+"` {
		t.Errorf("unannotated lines = %q, %q", lines[2], lines[3])
	}
}

func TestOpcodeInfo(t *testing.T) {
	for _, op := range AllOpcodes() {
		if strings.HasPrefix(op.String(), "UNKNOWN") {
			t.Errorf("opcode 0x%02X has no name", byte(op))
		}
	}
	if !OpJumpIfFalse.IsJump() || OpCall.IsJump() {
		t.Error("IsJump misclassifies")
	}
	if !OpAssignOuter.IsAssign() || OpGetVar.IsAssign() {
		t.Error("IsAssign misclassifies")
	}
	if got := Opcode(0xFF).String(); got != "UNKNOWN(0xFF)" {
		t.Errorf("unknown opcode name = %q", got)
	}
}
