package symtab

import (
	"fmt"
	"sort"
	"strings"
)

// CType is a C parameter or return type, used only to generate
// syntactically plausible prototypes in the emitted header - the
// composer never needs to know a type's size, only its spelling.
type CType int

const (
	CTypeVoid CType = iota
	CTypeInt
	CTypeUInt
	CTypeLong
	CTypeFloat
	CTypeDouble
	CTypePointer
	CTypeChar
	CTypeStruct
)

func (t CType) String() string {
	switch t {
	case CTypeVoid:
		return "void"
	case CTypeInt:
		return "int"
	case CTypeUInt:
		return "unsigned int"
	case CTypeLong:
		return "long"
	case CTypeFloat:
		return "float"
	case CTypeDouble:
		return "double"
	case CTypePointer:
		return "void*"
	case CTypeChar:
		return "char"
	case CTypeStruct:
		return "struct"
	default:
		return "void"
	}
}

// Parameter is one argument of a Symbol's prototype.
type Parameter struct {
	Name string
	Type CType
}

// Library groups Symbols that share a shared-object name. Segments and
// loaders iterate symbols grouped by their owning library.
type Library struct {
	Name    string // logical name, e.g. "GL"
	SOFile  string // e.g. "libGL.so.1"
	Symbols []*Symbol
}

// Symbol is one external entry point dnload's generated header can
// redirect a call through. Rename is non-empty when the real libc entry
// point differs from the name user code calls (e.g. FreeBSD's rand is
// exposed as bsd_rand after the portability shim).
type Symbol struct {
	ReturnType CType
	Name       string
	Rename     string
	Parameters []Parameter
	Library    *Library
}

// EffectiveName is the real symbol name resolved at link/runtime: Rename
// if set, otherwise Name.
func (s *Symbol) EffectiveName() string {
	if s.Rename != "" {
		return s.Rename
	}
	return s.Name
}

// Hash is the SDBM hash of the symbol's plain name, used by the
// hash-mode loader. The rename is deliberately not applied: the runtime
// resolver hashes names out of each shared object's own symbol table,
// where only the plain name exists (renames point at portability shims
// compiled into the guarded build, not at library entry points).
func (s *Symbol) Hash() uint32 {
	return Hash(s.Name)
}

// callingConventionPrefix returns "DNLOADAPIENTRY " for GL entry points
// (which carry a non-default calling convention on some platforms) and
// "" otherwise.
func (s *Symbol) callingConventionPrefix() string {
	if strings.HasPrefix(s.Name, "gl") {
		return "DNLOADAPIENTRY "
	}
	return ""
}

func (s *Symbol) paramList() string {
	if len(s.Parameters) == 0 {
		return "void"
	}
	parts := make([]string, len(s.Parameters))
	for i, p := range s.Parameters {
		parts[i] = p.Type.String()
	}
	return strings.Join(parts, ", ")
}

// Definition renders the symbol-table struct field declaration: a named
// function-pointer member, e.g. "void* (*malloc)(long)".
func (s *Symbol) Definition() string {
	return fmt.Sprintf("%s (%s*%s)(%s)", s.ReturnType, s.callingConventionPrefix(), s.Name, s.paramList())
}

// CastPrototype renders the anonymous function-pointer cast used in the
// hash-mode initializer list, e.g. "(void* (*)(long))".
func (s *Symbol) CastPrototype() string {
	return fmt.Sprintf("(%s (%s*)(%s))", s.ReturnType, s.callingConventionPrefix(), s.paramList())
}

// RenameDirect renders the vanilla-mode macro:
// #define <prefix><name> <realname>
func (s *Symbol) RenameDirect(prefix string) string {
	return fmt.Sprintf("#define %s%s %s", prefix, s.Name, s.EffectiveName())
}

// RenameTabled renders the tabled (dlfcn/hash mode) macro:
// #define <prefix><name> g_symbol_table.<name>
func (s *Symbol) RenameTabled(prefix string) string {
	return fmt.Sprintf("#define %s%s g_symbol_table.%s", prefix, s.Name, s.Name)
}

// SortSymbols orders symbols first by library name, then by symbol
// name, the order the dlfcn loader's packed string table and the
// DT_NEEDED grouping both depend on.
func SortSymbols(syms []*Symbol) {
	sort.Slice(syms, func(i, j int) bool {
		li, lj := syms[i].Library, syms[j].Library
		var ln1, ln2 string
		if li != nil {
			ln1 = li.Name
		}
		if lj != nil {
			ln2 = lj.Name
		}
		if ln1 != ln2 {
			return ln1 < ln2
		}
		return syms[i].Name < syms[j].Name
	})
}
