package main

import (
	"fmt"

	"github.com/danmuck/xwire/internal/xproto"
)

// check reports the catalogue's definitions, which were validated when it
// loaded, or validates the built-in types when there is no catalogue.
func (e *env) check() error {
	if e.catalog == nil {
		if err := xproto.Check(); err != nil {
			return err
		}
		fmt.Fprintln(e.stdout, "built-in types ok")
		return nil
	}
	defs := e.catalog.Definitions()
	for _, def := range defs {
		kind := def.Kind.String()
		if def.IsEnum {
			kind = "enum"
		}
		fmt.Fprintf(e.stdout, "%-8s %s\n", kind, def.Name)
	}
	fmt.Fprintf(e.stdout, "%s: %d definitions ok\n", e.cfg.Catalog, len(defs))
	return nil
}
