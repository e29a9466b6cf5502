package symtab

import "github.com/xyproto/dnload/internal/dnerr"

// Catalog is the static library-symbol table: a frozen collection of
// (library, return type, name, parameters) records that source analysis
// resolves discovered symbol names against. It carries a
// representative, extensible subset of the libc/libm/SDL/GL/GLU entry
// points a demoscene program reaches for; see DESIGN.md for scope
// notes.
type Catalog struct {
	libraries map[string]*Library
}

// NewCatalog builds the catalog with its built-in libraries.
func NewCatalog() *Catalog {
	c := &Catalog{libraries: make(map[string]*Library)}
	c.addLibc()
	c.addLibm()
	c.addSDL()
	c.addGL()
	c.addGLU()
	return c
}

func (c *Catalog) library(name, soFile string) *Library {
	lib, ok := c.libraries[name]
	if !ok {
		lib = &Library{Name: name, SOFile: soFile}
		c.libraries[name] = lib
	}
	return lib
}

func (c *Catalog) add(lib *Library, sym *Symbol) {
	sym.Library = lib
	lib.Symbols = append(lib.Symbols, sym)
}

func (c *Catalog) addLibc() {
	lib := c.library("c", "libc.so.6")
	c.add(lib, &Symbol{ReturnType: CTypeInt, Name: "printf",
		Parameters: []Parameter{{"format", CTypePointer}}})
	c.add(lib, &Symbol{ReturnType: CTypeVoid, Name: "exit",
		Parameters: []Parameter{{"status", CTypeInt}}})
	c.add(lib, &Symbol{ReturnType: CTypePointer, Name: "malloc",
		Parameters: []Parameter{{"size", CTypeLong}}})
	c.add(lib, &Symbol{ReturnType: CTypeVoid, Name: "free",
		Parameters: []Parameter{{"ptr", CTypePointer}}})
	c.add(lib, &Symbol{ReturnType: CTypeInt, Name: "puts",
		Parameters: []Parameter{{"s", CTypePointer}}})
	// rand/srand route through the bsd_rand portability shim so that
	// every platform produces the same pseudo-random sequence.
	c.add(lib, &Symbol{ReturnType: CTypeInt, Name: "rand", Rename: "bsd_rand"})
	c.add(lib, &Symbol{ReturnType: CTypeVoid, Name: "srand", Rename: "bsd_srand",
		Parameters: []Parameter{{"seed", CTypeUInt}}})
	c.add(lib, &Symbol{ReturnType: CTypePointer, Name: "memcpy",
		Parameters: []Parameter{{"dst", CTypePointer}, {"src", CTypePointer}, {"n", CTypeLong}}})
	c.add(lib, &Symbol{ReturnType: CTypePointer, Name: "memset",
		Parameters: []Parameter{{"s", CTypePointer}, {"c", CTypeInt}, {"n", CTypeLong}}})
}

func (c *Catalog) addLibm() {
	lib := c.library("m", "libm.so.6")
	c.add(lib, &Symbol{ReturnType: CTypeDouble, Name: "sinf",
		Parameters: []Parameter{{"x", CTypeFloat}}})
	c.add(lib, &Symbol{ReturnType: CTypeDouble, Name: "cosf",
		Parameters: []Parameter{{"x", CTypeFloat}}})
	c.add(lib, &Symbol{ReturnType: CTypeDouble, Name: "sqrtf",
		Parameters: []Parameter{{"x", CTypeFloat}}})
	c.add(lib, &Symbol{ReturnType: CTypeDouble, Name: "powf",
		Parameters: []Parameter{{"x", CTypeFloat}, {"y", CTypeFloat}}})
}

func (c *Catalog) addSDL() {
	lib := c.library("SDL", "libSDL-1.2.so.0")
	c.add(lib, &Symbol{ReturnType: CTypeInt, Name: "SDL_Init",
		Parameters: []Parameter{{"flags", CTypeUInt}}})
	c.add(lib, &Symbol{ReturnType: CTypePointer, Name: "SDL_SetVideoMode",
		Parameters: []Parameter{{"width", CTypeInt}, {"height", CTypeInt}, {"bpp", CTypeInt}, {"flags", CTypeUInt}}})
	c.add(lib, &Symbol{ReturnType: CTypeVoid, Name: "SDL_GL_SwapBuffers"})
	c.add(lib, &Symbol{ReturnType: CTypeUInt, Name: "SDL_GetTicks"})
	c.add(lib, &Symbol{ReturnType: CTypeInt, Name: "SDL_PollEvent",
		Parameters: []Parameter{{"event", CTypePointer}}})
}

func (c *Catalog) addGL() {
	lib := c.library("GL", "libGL.so.1")
	c.add(lib, &Symbol{ReturnType: CTypeVoid, Name: "glClear",
		Parameters: []Parameter{{"mask", CTypeUInt}}})
	c.add(lib, &Symbol{ReturnType: CTypeVoid, Name: "glBegin",
		Parameters: []Parameter{{"mode", CTypeUInt}}})
	c.add(lib, &Symbol{ReturnType: CTypeVoid, Name: "glEnd"})
	c.add(lib, &Symbol{ReturnType: CTypeVoid, Name: "glVertex3f",
		Parameters: []Parameter{{"x", CTypeFloat}, {"y", CTypeFloat}, {"z", CTypeFloat}}})
	c.add(lib, &Symbol{ReturnType: CTypeVoid, Name: "glUniform1f",
		Parameters: []Parameter{{"location", CTypeInt}, {"v0", CTypeFloat}}})
}

func (c *Catalog) addGLU() {
	lib := c.library("GLU", "libGLU.so.1")
	c.add(lib, &Symbol{ReturnType: CTypeInt, Name: "gluBuild3DMipmaps",
		Parameters: []Parameter{{"target", CTypeUInt}, {"internalFormat", CTypeInt}, {"width", CTypeInt}, {"height", CTypeInt}, {"depth", CTypeInt}, {"format", CTypeUInt}, {"type", CTypeUInt}, {"data", CTypePointer}}})
}

// Find looks up a symbol by its dnload-facing name across every library
// in the catalog. An unknown name is a fatal data error.
func (c *Catalog) Find(name string) (*Symbol, error) {
	for _, lib := range c.libraries {
		for _, sym := range lib.Symbols {
			if sym.Name == name {
				return sym, nil
			}
		}
	}
	return nil, dnerr.New(dnerr.Data, "symbol %q not known, please add it to the catalog", name)
}

// FindAll resolves a set of discovered symbol names into Symbol records,
// returning an error on the first unknown name.
func (c *Catalog) FindAll(names []string) ([]*Symbol, error) {
	out := make([]*Symbol, 0, len(names))
	for _, n := range names {
		sym, err := c.Find(n)
		if err != nil {
			return nil, err
		}
		out = append(out, sym)
	}
	return out, nil
}

// LibraryByName returns the library record with the given logical name,
// or nil if unknown.
func (c *Catalog) LibraryByName(name string) *Library {
	return c.libraries[name]
}
