package bytecode

import (
	"fmt"
	"math"
	"strings"
)

// Disassemble renders a human-readable listing of p, recursing into
// nested FUNCTION blocks. It is used by the CLI's --disasm command and
// by tests that want to eyeball compiler output.
func Disassemble(p *Program) string {
	var b strings.Builder
	fmt.Fprintf(&b, "; function <main> argc=%d nregs=%d body=%d words\n",
		p.Header.Argc, p.Header.NumRegs, p.Header.BodyLen)
	disasmRange(&b, p, 0, len(p.Code))
	if len(p.Symbols) > 0 {
		b.WriteString("; symbol table\n")
		for i, s := range p.Symbols {
			switch s.Kind {
			case SymSTRCONST:
				fmt.Fprintf(&b, "  [%d] STRCONST %q\n", i, s.Name)
			case SymSYMSTUB:
				fmt.Fprintf(&b, "  [%d] SYMSTUB %s\n", i, s.Name)
			case SymFUNCDEF:
				fmt.Fprintf(&b, "  [%d] FUNCDEF %s @%d\n", i, s.Name, s.FuncOffset)
			}
		}
	}
	return b.String()
}

func disasmRange(b *strings.Builder, p *Program, start, end int) {
	pc := start
	for pc < end {
		ins := Instruction(p.Code[pc])
		op := ins.Op()
		fmt.Fprintf(b, "%6d  %-8s", pc, op)
		pc++
		switch op {
		case OpJMP:
			off := DecodeSignedOffset(p.Code[pc])
			fmt.Fprintf(b, " -> %d\n", pc+1+int(off))
			pc++
		case OpJZE, OpJNZ:
			off := DecodeSignedOffset(p.Code[pc])
			fmt.Fprintf(b, " r%d -> %d\n", ins.A(), pc+1+int(off))
			pc++
		case OpCALL:
			argc := int(ins.C())
			nWords := (argc + 3) / 4
			fmt.Fprintf(b, " r%d, r%d, argc=%d\n", ins.A(), ins.B(), argc)
			pc += nWords
		case OpLDCONST:
			switch ins.B() {
			case 1: // float
				bits := uint64(p.Code[pc]) | uint64(p.Code[pc+1])<<32
				fmt.Fprintf(b, " r%d, %g\n", ins.A(), math.Float64frombits(bits))
				pc += 2
			case 2: // nil
				fmt.Fprintf(b, " r%d, nil\n", ins.A())
			case 3: // false
				fmt.Fprintf(b, " r%d, false\n", ins.A())
			case 4: // true
				fmt.Fprintf(b, " r%d, true\n", ins.A())
			default: // int
				bits := uint64(p.Code[pc]) | uint64(p.Code[pc+1])<<32
				fmt.Fprintf(b, " r%d, %d\n", ins.A(), int64(bits))
				pc += 2
			}
		case OpLDSYM:
			idx := int(ins.B()) | int(ins.C())<<8
			fmt.Fprintf(b, " r%d, sym[%d]\n", ins.A(), idx)
		case OpFUNCTION:
			bodyLen := p.Code[pc]
			argc := p.Code[pc+1]
			nregs := p.Code[pc+2]
			symIdx := p.Code[pc+3]
			fmt.Fprintf(b, " r%d, argc=%d nregs=%d sym=%d body=%d\n",
				ins.A(), argc, nregs, symIdx, bodyLen)
			bodyStart := pc + 4
			disasmRange(b, p, bodyStart, bodyStart+int(bodyLen))
			pc = bodyStart + int(bodyLen)
		case OpGLBVAL:
			length := int(ins.B())
			nWords := (length + 1 + 3) / 4
			name, _ := readName(p.Code, pc, length)
			fmt.Fprintf(b, " r%d, %q\n", ins.A(), name)
			pc += nWords
		case OpCLOSURE:
			n := int(ins.B())
			fmt.Fprintf(b, " r%d, n=%d\n", ins.A(), n)
			for i := 0; i < n; i++ {
				d := Instruction(p.Code[pc])
				kind := "LOCAL"
				if d.Op() == UVOuter {
					kind = "OUTER"
				}
				fmt.Fprintf(b, "          [%d] %s idx=%d\n", i, kind, d.A())
				pc++
			}
		case OpRET, OpINC, OpDEC, OpLDARGC:
			fmt.Fprintf(b, " r%d\n", ins.A())
		case OpNEWARR:
			kind := "array"
			if ins.B() == 1 {
				kind = "hashmap"
			}
			fmt.Fprintf(b, " r%d, %s\n", ins.A(), kind)
		case OpNEG, OpBITNOT, OpLOGNOT, OpSIZEOF, OpTYPEOF, OpMOV, OpLDUPVAL, OpNTHARG:
			fmt.Fprintf(b, " r%d, r%d\n", ins.A(), ins.B())
		default:
			fmt.Fprintf(b, " r%d, r%d, r%d\n", ins.A(), ins.B(), ins.C())
		}
	}
}
