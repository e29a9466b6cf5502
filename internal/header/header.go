// Package header implements HeaderEmitter: the C header generator that
// turns a resolved symbol set into rename macros, a symbol-table struct,
// and one of three loader bodies (vanilla, dlfcn, import-by-hash) behind
// a user-chosen preprocessor guard.
package header

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/xyproto/dnload/internal/symtab"
)

// Mode selects the loader strategy.
type Mode int

const (
	Vanilla Mode = iota
	Dlfcn
	Hash
)

func (m Mode) String() string {
	switch m {
	case Vanilla:
		return "vanilla"
	case Dlfcn:
		return "dlfcn"
	case Hash:
		return "hash"
	default:
		return "unknown"
	}
}

// ParseMode accepts the three loader spellings of the CLI's
// -m/--method flag ("maximum" maps onto Hash before reaching here).
func ParseMode(s string) (Mode, error) {
	switch s {
	case "vanilla":
		return Vanilla, nil
	case "dlfcn":
		return Dlfcn, nil
	case "hash":
		return Hash, nil
	default:
		return Vanilla, fmt.Errorf("header: unknown loader mode %q", s)
	}
}

// Emitter produces dnload.h for a resolved symbol set.
type Emitter struct {
	Mode       Mode
	GuardMacro string // preprocessor symbol that disables dnload(), e.g. "USE_LD"
	Prefix     string // symbol rename prefix, e.g. "dnload_"
}

// New builds an Emitter with the given loader mode, guard macro, and
// rename prefix.
func New(mode Mode, guardMacro, prefix string) *Emitter {
	return &Emitter{Mode: mode, GuardMacro: guardMacro, Prefix: prefix}
}

var headerBeginTmpl = template.Must(template.New("begin").Parse(`#ifndef DNLOAD_H
#define DNLOAD_H

/** \file
 * \brief Dynamic loader header stub.
 *
 * This file was automatically generated by 'dnload'.
 */

#if defined({{.Guard}})
#include "GL/glew.h"
#include "GL/glu.h"
#include "SDL.h"
#else
/** \cond */
#define GL_GLEXT_PROTOTYPES
/** \endcond */
#include "GL/gl.h"
#include "GL/glext.h"
#include "GL/glu.h"
#include "SDL.h"
#endif

#if defined(GLEWAPIENTRY)
/** \cond */
#define DNLOADAPIENTRY GLEWAPIENTRY
/** \endcond */
#else
/** \cond */
#define DNLOADAPIENTRY
/** \endcond */
#endif

#if defined(__cplusplus)
extern "C" {
#endif
`))

const headerEnd = `
#if defined(__cplusplus)
}
#endif

#endif
`

var renameTmpl = template.Must(template.New("rename").Parse(`
#if defined({{.Guard}})
/** \cond */
{{.Direct}}
/** \endcond */
#else
/** \cond */
{{.Tabled}}
/** \endcond */
#endif
`))

// GenerateSymbolDefinitions renders the rename-macro block: under the
// guard macro, symbols expand directly to their real names; otherwise
// they expand through g_symbol_table. In vanilla mode both branches are
// identical, since there is no table to expand through.
func (e *Emitter) GenerateSymbolDefinitions(symbols []*symtab.Symbol) string {
	direct := make([]string, len(symbols))
	tabled := make([]string, len(symbols))
	for i, s := range symbols {
		direct[i] = s.RenameDirect(e.Prefix)
		if e.Mode == Vanilla {
			tabled[i] = direct[i]
		} else {
			tabled[i] = s.RenameTabled(e.Prefix)
		}
	}
	var buf bytes.Buffer
	renameTmpl.Execute(&buf, struct{ Guard, Direct, Tabled string }{
		Guard:  e.GuardMacro,
		Direct: strings.Join(direct, "\n"),
		Tabled: strings.Join(tabled, "\n"),
	})
	return buf.String()
}

var symbolTableTmpl = template.Must(template.New("symtab").Parse(`
#if !defined({{.Guard}})
/** \brief Symbol table structure.
 *
 * Contains all the symbols required for dynamic linking.
 */
static struct SymbolTableStruct
{
{{.Definitions}}
} g_symbol_table{{.Initializer}};
#endif
`))

// GenerateSymbolStruct renders the symbol-table struct definition. In
// vanilla mode there is no struct at all - every symbol resolves via a
// direct macro, so dnload() has nothing to fill in. In hash mode the
// struct is initialized with each slot set to the symbol's SDBM
// hash cast to a function pointer; dnload() overwrites each slot with
// the resolved address at runtime. In dlfcn mode the struct has no
// initializer - dnload() fills every slot via dlopen/dlsym.
func (e *Emitter) GenerateSymbolStruct(symbols []*symtab.Symbol) string {
	if e.Mode == Vanilla {
		return ""
	}
	defs := make([]string, len(symbols))
	hashes := make([]string, len(symbols))
	for i, s := range symbols {
		defs[i] = "  " + s.Definition() + ";"
		hashes[i] = fmt.Sprintf("  %s%d,", s.CastPrototype(), s.Hash())
	}
	initializer := ""
	if e.Mode != Dlfcn {
		initializer = " =\n{\n" + strings.Join(hashes, "\n") + "\n}"
	}
	var buf bytes.Buffer
	symbolTableTmpl.Execute(&buf, struct{ Guard, Definitions, Initializer string }{
		Guard:       e.GuardMacro,
		Definitions: strings.Join(defs, "\n"),
		Initializer: initializer,
	})
	return buf.String()
}

var loaderTmpl = template.Must(template.New("loader").Parse(`
#if defined({{.Guard}})
/** \cond */
#define dnload()
/** \endcond */
#else
{{.Body}}
#endif
`))

const loaderVanillaBody = `/** \cond */
#define dnload()
/** \endcond */`

var loaderDlfcnTmpl = template.Must(template.New("dlfcn").Parse(`#include <dlfcn.h>
static const char g_dynstr[] = ""
{{.DynStr}};
/** \brief Perform init.
 *
 * dlopen/dlsym -style.
 */
static void dnload(void)
{
  char *src = (char*)g_dynstr;
  void **dst = (void**)&g_symbol_table;
  do {
    void *handle = dlopen(src, RTLD_LAZY);
    for(;;)
    {
      while(*(src++));
      if(!*(src))
      {
        break;
      }
      *dst++ = dlsym(handle, src);
    }
  } while(*(++src));
}`))

var loaderHashTmpl = template.Must(template.New("hash").Parse(`#if defined(__FreeBSD__) || defined(__linux__)
#if defined(__i386) || defined(__x86_64)
#include <elf.h>
#include <link.h>
#include <stdint.h>
#if defined(__x86_64)
/** \cond */
#define ELF_BASE_ADDRESS 0x400000
/** \endcond */
/** Elf header type. */
typedef Elf64_Ehdr dnload_elf_ehdr_t;
/** Elf program header type. */
typedef Elf64_Phdr dnload_elf_phdr_t;
/** Elf dynamic structure type. */
typedef Elf64_Dyn dnload_elf_dyn_t;
/** Elf symbol type. */
typedef Elf64_Sym dnload_elf_sym_t;
#else
/** \cond */
#define ELF_BASE_ADDRESS 0x2000000
/** \endcond */
/** Elf header type. */
typedef Elf32_Ehdr dnload_elf_ehdr_t;
/** Elf program header type. */
typedef Elf32_Phdr dnload_elf_phdr_t;
/** Elf dynamic structure type. */
typedef Elf32_Dyn dnload_elf_dyn_t;
/** Elf symbol type. */
typedef Elf32_Sym dnload_elf_sym_t;
#endif
/** \brief Get dynamic section element by tag.
 *
 * No error checking: if the tag is not present, the walk runs off the
 * end of the dynamic section and crashes.
 *
 * \param dyn Dynamic section.
 * \param tag Tag to look for.
 * \return Pointer to dynamic element.
 */
static const dnload_elf_dyn_t* elf_get_dynamic_element_by_tag(const void *dyn, size_t tag)
{
  const dnload_elf_dyn_t *dynamic = (const dnload_elf_dyn_t*)dyn;
  while((size_t)dynamic->d_tag != tag)
  {
    ++dynamic;
  }
  return dynamic;
}
/** \brief Get the runtime link map.
 *
 * The ELF header sits at a known fixed address, so the program headers
 * can be read directly to find PT_DYNAMIC, and DT_DEBUG within it leads
 * to the dynamic linker's r_debug block and its link_map list.
 *
 * \return Link map struct.
 */
static const struct link_map* elf_get_link_map(void)
{
  const dnload_elf_ehdr_t *ehdr = (const dnload_elf_ehdr_t*)ELF_BASE_ADDRESS;
  const dnload_elf_phdr_t *phdr = (const dnload_elf_phdr_t*)((const uint8_t*)ehdr + (size_t)ehdr->e_phoff);
  while(PT_DYNAMIC != phdr->p_type)
  {
    ++phdr;
  }
  {
    const struct r_debug *debug = (const struct r_debug*)elf_get_dynamic_element_by_tag((const void*)phdr->p_vaddr, DT_DEBUG)->d_un.d_ptr;
    return debug->r_map;
  }
}
/** \brief Find a symbol in any of the link map's objects.
 *
 * Walks all the symbols of every shared object in the link map, hashing
 * each name and comparing against the given hash. No error checking: a
 * missing symbol walks off the end of the list and crashes.
 *
 * \param hash Hash of the symbol name to find.
 * \return Symbol address.
 */
static void* dnload_find_symbol(uint32_t hash)
{
  const struct link_map* lmap = elf_get_link_map()->l_next;
#if defined(__linux__) && defined(__x86_64)
  // The first entry after the program itself lacks usable DT_* data.
  lmap = lmap->l_next;
#endif
  for(;;)
  {
    const dnload_elf_dyn_t* dynamic = (const dnload_elf_dyn_t*)lmap->l_ld;
    const char* strtab = (const char*)elf_get_dynamic_element_by_tag(dynamic, DT_STRTAB)->d_un.d_ptr;
    const dnload_elf_sym_t* symtab = (const dnload_elf_sym_t*)elf_get_dynamic_element_by_tag(dynamic, DT_SYMTAB)->d_un.d_ptr;
    const uint32_t* hashtable = (const uint32_t*)elf_get_dynamic_element_by_tag(dynamic, DT_HASH)->d_un.d_ptr;
    unsigned numchains = hashtable[1];
    unsigned ii;
    for(ii = 0; (numchains > ii); ++ii)
    {
      const dnload_elf_sym_t* sym = &symtab[ii];
      const char* name = strtab + sym->st_name;
      uint32_t current_hash = 0;
      while(*name)
      {
        current_hash = 65599 * current_hash + (uint32_t)*name++;
      }
      if(current_hash == hash)
      {
        return (void*)((const uint8_t*)lmap->l_addr + sym->st_value);
      }
    }
    lmap = lmap->l_next;
  }
}
#else
#error "no import by hash procedure defined for current architecture"
#endif
#else
#error "no import by hash procedure defined for current operating system"
#endif
/** \brief Perform init.
 *
 * Import by hash - style.
 */
static void dnload(void)
{
  unsigned ii;
  for(ii = 0; ({{.Count}} > ii); ++ii)
  {
    void **iter = ((void**)&g_symbol_table) + ii;
    *iter = dnload_find_symbol(*(uint32_t*)iter);
  }
}`))

// GenerateLoader renders the dnload() implementation body for the
// emitter's mode, wrapped in the guard-macro no-op branch. symbols must
// already be sorted by library (symtab.SortSymbols) for dlfcn mode's
// packed string table to group correctly.
func (e *Emitter) GenerateLoader(symbols []*symtab.Symbol) string {
	var body string
	switch e.Mode {
	case Dlfcn:
		body = e.generateLoaderDlfcn(symbols)
	case Hash:
		var buf bytes.Buffer
		loaderHashTmpl.Execute(&buf, struct{ Count int }{len(symbols)})
		body = buf.String()
	default:
		body = loaderVanillaBody
	}
	var buf bytes.Buffer
	loaderTmpl.Execute(&buf, struct{ Guard, Body string }{Guard: e.GuardMacro, Body: body})
	return buf.String()
}

// generateLoaderDlfcn builds the packed "lib\0sym\0sym\0\0lib2\0sym\0\0\0"
// string table, one library-name entry per group transition and a
// trailing empty string terminating the whole table.
func (e *Emitter) generateLoaderDlfcn(symbols []*symtab.Symbol) string {
	var b strings.Builder
	var currentLib string
	first := true
	for _, s := range symbols {
		libName := ""
		if s.Library != nil {
			libName = s.Library.SOFile
		}
		if currentLib != libName {
			if !first {
				fmt.Fprintf(&b, "\"\\0%s\\0\"\n", libName)
			} else {
				fmt.Fprintf(&b, "\"%s\\0\"\n", libName)
			}
			currentLib = libName
			first = false
		}
		fmt.Fprintf(&b, "\"%s\\0\"\n", s.Name)
	}
	b.WriteString(`"\0"`)
	var buf bytes.Buffer
	loaderDlfcnTmpl.Execute(&buf, struct{ DynStr string }{b.String()})
	return buf.String()
}

// Generate renders the full header: the include-guard prologue (the
// guard also lets the pipeline's analysis pass skip this header with a
// -D flag), symbol rename macros, the symbol table struct, the loader,
// and the closing epilogue, concatenated in include order.
func (e *Emitter) Generate(symbols []*symtab.Symbol) string {
	var b strings.Builder
	var begin bytes.Buffer
	headerBeginTmpl.Execute(&begin, struct{ Guard string }{e.GuardMacro})
	b.Write(begin.Bytes())
	b.WriteString(e.GenerateSymbolDefinitions(symbols))
	b.WriteString(e.GenerateSymbolStruct(symbols))
	b.WriteString(e.GenerateLoader(symbols))
	b.WriteString(headerEnd)
	return b.String()
}
