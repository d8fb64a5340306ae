package bytecode

// FunctionHeader is the fixed-size header preceding a function body,
// whether the top-level function of a Program or a nested function
// introduced by FUNCTION inside the executable section.
type FunctionHeader struct {
	BodyLen  uint32 // length of the body, in words
	Argc     uint32
	NumRegs  uint32
	SymIndex uint32 // index into the owning Program's symbol table
}

// SymbolEntry is one entry of a Program's local symbol table.
type SymbolEntry struct {
	Kind SymKind
	Name string // STRCONST: the string's value; SYMSTUB: the global's name; FUNCDEF: the function's name
	// FuncOffset is the word offset of the function body within Code,
	// meaningful only for FUNCDEF entries.
	FuncOffset uint32
}

// Program is a compiled unit: the top-level function header, its
// executable section (which may itself contain nested FUNCTION blocks),
// and the local symbol table. This is the in-memory mirror of the .spo
// on-disk layout.
type Program struct {
	Header  FunctionHeader
	Code    []Word
	Symbols []SymbolEntry
	// SourcePath records where this program was loaded from, for error
	// messages and disassembly headers; empty for synthesized programs
	// (e.g. REPL expressions).
	SourcePath string
}

// NewProgram wraps a header, code stream and symbol table.
func NewProgram(header FunctionHeader, code []Word, symbols []SymbolEntry) *Program {
	return &Program{Header: header, Code: code, Symbols: symbols}
}
