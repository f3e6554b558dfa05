package vm

import "strings"

// ---------------------------------------------------------------------------
// Dispatch name scrambling
// ---------------------------------------------------------------------------

// scrambleSep joins a type name and a member name into one binding key.
// It cannot appear in identifiers, so keys never collide with plain names.
const scrambleSep = "⊕"

// Scramble maps (name, type) to the flat binding key used for lookup.
// Type-free globals keep their bare name.
func Scramble(name, typeName string) string {
	if typeName == "" {
		return name
	}
	return typeName + scrambleSep + name
}

// Unscramble recovers (type, name) from a key produced by Scramble.
// Plain names return an empty type.
func Unscramble(key string) (typeName, name string) {
	if i := strings.Index(key, scrambleSep); i >= 0 {
		return key[:i], key[i+len(scrambleSep):]
	}
	return "", key
}

// DisplayName renders a binding key for traces: "Type.name" for scrambled
// keys, the plain name otherwise.
func DisplayName(key string) string {
	typeName, name := Unscramble(key)
	if typeName == "" {
		return name
	}
	return typeName + "." + name
}

// operatorMethods maps operator tokens to the method names they dispatch to.
var operatorMethods = map[string]string{
	"+":  "plus",
	"-":  "minus",
	"*":  "times",
	"/":  "divide",
	"%":  "mod",
	"==": "eq",
	"!=": "neq",
	"<":  "lt",
	"<=": "lte",
	">":  "gt",
	">=": "gte",
}

// OperatorMethod returns the method name an operator token dispatches to.
// Tokens without a named method dispatch under their own text.
func OperatorMethod(token string) string {
	if name, ok := operatorMethods[token]; ok {
		return name
	}
	return token
}
