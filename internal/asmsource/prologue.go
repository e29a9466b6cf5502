package asmsource

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// pushWidth returns the stack-adjustment width, in bytes, of one push
// instruction on the given architecture ("ia32" or "amd64").
func pushWidth(arch string) int {
	if arch == "ia32" {
		return 4
	}
	return 8
}

var startLabelRe = regexp.MustCompile(`^_start:\s*$`)
var pushRe = regexp.MustCompile(`^\s*push[lq]\s+%\w+`)
var xorRe = regexp.MustCompile(`^\s*xor`)
var subSpRe = regexp.MustCompile(`^(\s*sub[lq]\s+\$)(\d+)(\s*,\s*%[er]sp.*)$`)

// excisePrologue finds "_start:" and deletes the contiguous run of push
// instructions that follows it, rewriting a subsequent stack-adjustment
// "sub $N, %[er]sp" so its immediate absorbs the cumulative push width
// that was removed. A "xor" instruction within the push run is
// reinstated (left in place, uncounted) since it is zeroing a register,
// not adjusting the stack. The entry function has no caller whose
// registers need preserving, so the pushes are dead weight.
func excisePrologue(s *Section, arch string) {
	idx := -1
	for i, l := range s.Line {
		if startLabelRe.MatchString(strings.TrimRight(l, "\n")) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}

	width := pushWidth(arch)
	offset := 0
	var toDelete []int
	i := idx + 1
	for ; i < len(s.Line); i++ {
		trimmed := strings.TrimRight(s.Line[i], "\n")
		if pushRe.MatchString(trimmed) {
			offset += width
			toDelete = append(toDelete, i)
			continue
		}
		if xorRe.MatchString(trimmed) {
			continue
		}
		break
	}
	if i < len(s.Line) {
		if m := subSpRe.FindStringSubmatch(strings.TrimRight(s.Line[i], "\n")); m != nil {
			n, _ := strconv.Atoi(m[2])
			s.Line[i] = fmt.Sprintf("%s%d%s\n", m[1], n+offset, m[3])
		}
	}
	for j := len(toDelete) - 1; j >= 0; j-- {
		k := toDelete[j]
		s.Line = append(s.Line[:k], s.Line[k+1:]...)
	}
}

var syscallRe = regexp.MustCompile(`^\s*syscall\s*$`)
var intSyscallRe = regexp.MustCompile(`^\s*int\s+\$?(0x80|128)\s*$`)
var labelLineRe = regexp.MustCompile(`^\s*[A-Za-z_.$][\w.$]*:\s*$`)

// exciseEpilogue finds the exit syscall instruction (amd64 "syscall",
// ia32 "int $0x80"/"int $128") and deletes every line up to (not
// including) the next label - the program has exited, so nothing after
// the syscall is reachable.
func exciseEpilogue(s *Section, arch string) {
	for i, line := range s.Line {
		trimmed := strings.TrimRight(line, "\n")
		if !syscallRe.MatchString(trimmed) && !intSyscallRe.MatchString(trimmed) {
			continue
		}
		j := i + 1
		for j < len(s.Line) && !labelLineRe.MatchString(strings.TrimRight(s.Line[j], "\n")) {
			j++
		}
		s.Line = append(s.Line[:i+1], s.Line[j:]...)
		return
	}
}
