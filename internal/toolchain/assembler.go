package toolchain

// Assemble invokes the backend assembler on src, producing an object
// file at dst. Unlike Compiler/Linker, the assembler needs no
// per-backend flag dispatch: GNU as and NASM both accept this exact
// calling shape once AsmSyntax has already picked the right directive
// dialect.
func Assemble(assemblerBinary, src, dst string) error {
	_, _, err := RunCommand([]string{assemblerBinary, "-o", dst, src})
	return err
}
