package toolchain

// StripFlags is the fixed section-keep/discard flag set the final strip
// invocation uses for conventionally linked binaries (vanilla/dlfcn
// methods): .bss/.text/.data are kept, the rest (debug/unwind/note/
// version metadata the stripped binary never needs) are discarded. The
// hand-built image the hash/maximum methods produce carries no section
// headers at all, so Strip is never run against it.
var StripFlags = []string{
	"-K", ".bss", "-K", ".text", "-K", ".data",
	"-R", ".comment", "-R", ".eh_frame", "-R", ".eh_frame_hdr", "-R", ".fini",
	"-R", ".gnu.hash", "-R", ".gnu.version", "-R", ".jcr",
	"-R", ".note", "-R", ".note.ABI-tag", "-R", ".note.tag",
}

// Strip runs the configured strip binary against path in place.
func Strip(stripBinary, path string) error {
	args := append([]string{stripBinary}, StripFlags...)
	args = append(args, path)
	_, _, err := RunCommand(args)
	return err
}
