package bytecode

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// wordsPerName returns the number of words needed to store a
// NUL-terminated name, word-aligned.
func wordsPerName(name string) int {
	n := len(name) + 1 // NUL terminator
	return (n + 3) / 4
}

func writeName(buf *bytes.Buffer, name string) {
	padded := make([]byte, wordsPerName(name)*4)
	copy(padded, name)
	buf.Write(padded)
}

func readName(words []Word, at int, length int) (string, int) {
	nWords := (length + 1 + 3) / 4
	raw := make([]byte, nWords*4)
	for i := 0; i < nWords; i++ {
		binary.LittleEndian.PutUint32(raw[i*4:], words[at+i])
	}
	return string(raw[:length]), nWords
}

// Serialize renders p as the raw concatenation of words described by
// the format: header, executable section, symbol-table entry count,
// symbol table. Every word is written little-endian, whatever the host
// byte order.
func Serialize(p *Program) []byte {
	var buf bytes.Buffer
	putWord := func(w Word) {
		var tmp [4]byte
		binary.LittleEndian.PutUint32(tmp[:], w)
		buf.Write(tmp[:])
	}

	putWord(p.Header.BodyLen)
	putWord(p.Header.Argc)
	putWord(p.Header.NumRegs)
	putWord(p.Header.SymIndex)

	for _, w := range p.Code {
		putWord(w)
	}

	putWord(uint32(len(p.Symbols)))
	for _, sym := range p.Symbols {
		putWord(EncodeLong(Op(sym.Kind), uint32(len(sym.Name))).Word())
		writeName(&buf, sym.Name)
		if sym.Kind == SymFUNCDEF {
			putWord(sym.FuncOffset)
		}
	}

	return buf.Bytes()
}

// Deserialize parses the .spo on-disk layout produced by Serialize.
func Deserialize(data []byte) (*Program, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("bytecode: truncated word stream (%d bytes)", len(data))
	}
	words := make([]Word, len(data)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(data[i*4 : i*4+4])
	}
	if len(words) < 4 {
		return nil, fmt.Errorf("bytecode: missing function header")
	}

	p := &Program{}
	p.Header = FunctionHeader{
		BodyLen:  words[0],
		Argc:     words[1],
		NumRegs:  words[2],
		SymIndex: words[3],
	}
	pos := 4
	bodyEnd := pos + int(p.Header.BodyLen)
	if bodyEnd > len(words) {
		return nil, fmt.Errorf("bytecode: body length overruns stream")
	}
	p.Code = words[pos:bodyEnd]
	pos = bodyEnd

	if pos >= len(words) {
		return nil, fmt.Errorf("bytecode: missing symbol table count")
	}
	symCount := int(words[pos])
	pos++

	for i := 0; i < symCount; i++ {
		if pos >= len(words) {
			return nil, fmt.Errorf("bytecode: truncated symbol table entry %d", i)
		}
		head := Instruction(words[pos])
		pos++
		kind := SymKind(head.Op())
		length := int(head.Long())
		name, nWords := readName(words, pos, length)
		if len(name) != length {
			return nil, fmt.Errorf("bytecode: symbol %d name length mismatch", i)
		}
		pos += nWords
		entry := SymbolEntry{Kind: kind, Name: name}
		if kind == SymFUNCDEF {
			if pos >= len(words) {
				return nil, fmt.Errorf("bytecode: missing FUNCDEF offset for symbol %d", i)
			}
			entry.FuncOffset = words[pos]
			pos++
		}
		p.Symbols = append(p.Symbols, entry)
	}

	return p, nil
}
