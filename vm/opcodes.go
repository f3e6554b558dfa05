package vm

import "fmt"

// Opcode identifies a single instruction of a Program.
// Opcodes are grouped by family so related operations sit together.
type Opcode uint8

const (
	// ========================================================================
	// Constants
	// ========================================================================

	OpPushNumber  Opcode = 0x00 // push Number parsed from the operand
	OpPushString  Opcode = 0x01 // push String operand
	OpPushBoolean Opcode = 0x02 // push Boolean operand ("true"/"false")
	OpPushNull    Opcode = 0x03 // push null
	OpPushType    Opcode = 0x04 // push conversion Type named by the operand
	OpPushEmpty   Opcode = 0x05 // push the empty-slot marker

	// ========================================================================
	// Aggregate builders (pop a count, then that many items)
	// ========================================================================

	OpBuildList Opcode = 0x10 // count, N values -> List
	OpBuildDict Opcode = 0x11 // count, N (key, value) pairs -> Dict
	OpBuildType Opcode = 0x12 // count, N field names -> record Type named by the operand
	OpBuildFunc Opcode = 0x13 // count, N (name, guard) pairs -> Closure; operand = body length

	// ========================================================================
	// Control transfer (operand = signed distance from the next instruction)
	// ========================================================================

	OpJump            Opcode = 0x20 // unconditional
	OpJumpIfFalsePeek Opcode = 0x21 // jump if top is false, keep it
	OpJumpIfTruePeek  Opcode = 0x22 // jump if top is true, keep it
	OpJumpIfFalse     Opcode = 0x23 // pop, jump if false

	// ========================================================================
	// Calls
	// ========================================================================

	OpCall     Opcode = 0x30 // callee, count, N args
	OpDispatch Opcode = 0x31 // count, N args; callee resolved from operand and first arg type
	OpReturn   Opcode = 0x32 // return top of stack

	// ========================================================================
	// Lookup
	// ========================================================================

	OpGetVar    Opcode = 0x40 // push binding named by the operand
	OpGetMember Opcode = 0x41 // key, object -> member

	// ========================================================================
	// Assignment (name, target-or-empty, value -> value)
	// ========================================================================

	OpAssignLocal   Opcode = 0x50 // create or overwrite in the current frame
	OpAssignNearest Opcode = 0x51 // nearest binding inside the function, else local
	OpAssignOuter   Opcode = 0x52 // binding past the function boundary

	// ========================================================================
	// Arithmetic and logic
	// ========================================================================

	OpIncrement Opcode = 0x60 // binding named by the operand += 1
	OpDecrement Opcode = 0x61 // binding named by the operand -= 1
	OpNegate    Opcode = 0x62
	OpNot       Opcode = 0x63

	// ========================================================================
	// Loop exits. The compiler resolves these to jumps; reaching one at
	// runtime means it had no enclosing loop.
	// ========================================================================

	OpBreak    Opcode = 0x70
	OpContinue Opcode = 0x71

	// ========================================================================
	// Scopes and stack
	// ========================================================================

	OpScopeEnter Opcode = 0x80 // push a Block frame
	OpScopeExit  Opcode = 0x81 // pop a Block frame
	OpPop        Opcode = 0x82 // discard top of stack
)

// OperandKind describes how an opcode's immediate operand is interpreted.
type OperandKind uint8

const (
	OperandNone OperandKind = iota
	OperandNumber
	OperandString
	OperandBoolean
	OperandName
	OperandJump
)

// OpcodeInfo provides metadata about each opcode for the dump and validation.
type OpcodeInfo struct {
	Name    string      // Human-readable name
	Operand OperandKind // Kind of immediate operand
}

// opcodeInfoTable maps opcodes to their metadata.
var opcodeInfoTable = map[Opcode]OpcodeInfo{
	OpPushNumber:  {"PUSH_NUMBER", OperandNumber},
	OpPushString:  {"PUSH_STRING", OperandString},
	OpPushBoolean: {"PUSH_BOOLEAN", OperandBoolean},
	OpPushNull:    {"PUSH_NULL", OperandNone},
	OpPushType:    {"PUSH_TYPE", OperandName},
	OpPushEmpty:   {"PUSH_EMPTY", OperandNone},

	OpBuildList: {"BUILD_LIST", OperandNone},
	OpBuildDict: {"BUILD_DICT", OperandNone},
	OpBuildType: {"BUILD_TYPE", OperandName},
	OpBuildFunc: {"BUILD_FUNC", OperandJump},

	OpJump:            {"JUMP", OperandJump},
	OpJumpIfFalsePeek: {"JUMP_IF_FALSE_PEEK", OperandJump},
	OpJumpIfTruePeek:  {"JUMP_IF_TRUE_PEEK", OperandJump},
	OpJumpIfFalse:     {"JUMP_IF_FALSE", OperandJump},

	OpCall:     {"CALL", OperandNone},
	OpDispatch: {"DISPATCH", OperandName},
	OpReturn:   {"RETURN", OperandNone},

	OpGetVar:    {"GET_VAR", OperandName},
	OpGetMember: {"GET_MEMBER", OperandNone},

	OpAssignLocal:   {"ASSIGN_LOCAL", OperandNone},
	OpAssignNearest: {"ASSIGN_NEAREST", OperandNone},
	OpAssignOuter:   {"ASSIGN_OUTER", OperandNone},

	OpIncrement: {"INCREMENT", OperandName},
	OpDecrement: {"DECREMENT", OperandName},
	OpNegate:    {"NEGATE", OperandNone},
	OpNot:       {"NOT", OperandNone},

	OpBreak:    {"BREAK", OperandNone},
	OpContinue: {"CONTINUE", OperandNone},

	OpScopeEnter: {"SCOPE_ENTER", OperandNone},
	OpScopeExit:  {"SCOPE_EXIT", OperandNone},
	OpPop:        {"POP", OperandNone},
}

// GetOpcodeInfo returns metadata for an opcode.
// Returns an OpcodeInfo named "UNKNOWN(..)" if the opcode is not recognized.
func GetOpcodeInfo(op Opcode) OpcodeInfo {
	if info, ok := opcodeInfoTable[op]; ok {
		return info
	}
	return OpcodeInfo{Name: fmt.Sprintf("UNKNOWN(0x%02X)", byte(op))}
}

// String returns the human-readable name of an opcode.
func (op Opcode) String() string {
	return GetOpcodeInfo(op).Name
}

// Operand returns the operand kind for this opcode.
func (op Opcode) Operand() OperandKind {
	return GetOpcodeInfo(op).Operand
}

// IsJump returns true if this opcode transfers control by a relative distance.
func (op Opcode) IsJump() bool {
	return op >= OpJump && op <= OpJumpIfFalse
}

// IsAssign returns true for the three assignment forms.
func (op Opcode) IsAssign() bool {
	return op >= OpAssignLocal && op <= OpAssignOuter
}

// AllOpcodes returns a slice of all defined opcodes.
func AllOpcodes() []Opcode {
	opcodes := make([]Opcode, 0, len(opcodeInfoTable))
	for op := range opcodeInfoTable {
		opcodes = append(opcodes, op)
	}
	return opcodes
}
