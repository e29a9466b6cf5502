// Package compress wraps the external `xz` binary to produce the final
// self-extracting compressed executable: a single shell-stub line
// followed by a newline and the compressed payload.
package compress

import (
	"fmt"
	"os"

	"github.com/xyproto/dnload/internal/dnerr"
	"github.com/xyproto/dnload/internal/toolchain"
)

// Format selects the unpack-header value passed via -u/--unpack-header:
// the xz and lzma container formats, plus "raw" for a containerless
// stream unpacked with `xzcat -F raw`.
type Format int

const (
	LZMA Format = iota
	XZ
	Raw
)

// ParseFormat accepts the three spellings -u/--unpack-header takes.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "lzma":
		return LZMA, nil
	case "xz":
		return XZ, nil
	case "raw":
		return Raw, nil
	default:
		return LZMA, fmt.Errorf("compress: unknown unpack format %q", s)
	}
}

// stub returns the one-line shell snippet that decompresses and runs
// the payload appended after it. The stub always ends in "exit" so that
// the payload bytes after the stub line are never interpreted as shell
// input.
func (f Format) stub() string {
	switch f {
	case XZ:
		return "i=/tmp/i;tail -n+2 $0|xzcat>$i;chmod +x $i;$i;rm $i;exit"
	case Raw:
		return "i=/tmp/i;tail -n+2 $0|xzcat -F raw>$i;chmod +x $i;$i;rm $i;exit"
	default:
		return "i=/tmp/i;tail -n+2 $0|lzcat>$i;chmod +x $i;$i;rm $i;exit"
	}
}

// xzArgs returns the `xz` invocation that produces f's payload
// encoding. lzma and xz select xz's own container formats; raw strips
// every container.
func (f Format) xzArgs() []string {
	switch f {
	case XZ:
		return []string{"-9", "--extreme", "--format=xz", "--stdout"}
	case Raw:
		return []string{"-9", "--extreme", "--format=raw", "--stdout"}
	default:
		return []string{"-9", "--extreme", "--format=lzma", "--stdout"}
	}
}

// File reads src, compresses it with the backend xz binary, and writes
// the self-extracting shell-stub-plus-payload file to dst, marking it
// executable.
func File(xzBinary, src, dst string, format Format) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return dnerr.New(dnerr.Tool, "compress: read %s: %v", src, err)
	}

	payload, err := runXZ(xzBinary, data, format)
	if err != nil {
		return err
	}

	out := append([]byte(format.stub()+"\n"), payload...)
	if err := os.WriteFile(dst, out, 0o644); err != nil {
		return dnerr.New(dnerr.Tool, "compress: write %s: %v", dst, err)
	}
	return toolchain.MakeExecutable(dst)
}

func runXZ(xzBinary string, data []byte, format Format) ([]byte, error) {
	stdout, err := toolchain.RunPipe(xzBinary, format.xzArgs(), data)
	if err != nil {
		return nil, err
	}
	return stdout, nil
}
