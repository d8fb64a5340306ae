package bytecode

// ReadName exposes the word-aligned NUL-terminated name decoder to
// callers outside this package, namely the VM resolving GLBVAL's
// embedded name.
func ReadName(words []Word, at int, length int) (string, int) {
	return readName(words, at, length)
}
