package main

import (
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/danmuck/xwire/internal/logging"
	"github.com/danmuck/xwire/internal/protocol/schema"
)

var errNoCatalog = errors.New("no catalogue configured")

// assignments collects repeated name=value flags in order.
type assignments []string

func (a *assignments) String() string { return strings.Join(*a, ",") }

func (a *assignments) Set(s string) error {
	if !strings.Contains(s, "=") {
		return fmt.Errorf("expected name=value, got %q", s)
	}
	*a = append(*a, s)
	return nil
}

func (e *env) encode(args []string) error {
	fs := flag.NewFlagSet("encode", flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	name := fs.String("message", "", "definition name")
	raw := fs.Bool("raw", false, "write raw bytes instead of hex")
	var variants, sets assignments
	fs.Var(&variants, "variant", "select an enum item's variant: item=Variant (repeatable)")
	fs.Var(&sets, "set", "set an item: name=value or enumitem.name=value (repeatable)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if e.catalog == nil {
		return fmt.Errorf("encode: %w", errNoCatalog)
	}
	def, ok := e.catalog.Lookup(*name)
	if !ok {
		return fmt.Errorf("encode: %w: %q", schema.ErrUnknownMessage, *name)
	}
	v := def.New()
	for _, a := range variants {
		item, variant, _ := strings.Cut(a, "=")
		if err := selectVariant(v, item, variant); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
	}
	for _, a := range sets {
		path, text, _ := strings.Cut(a, "=")
		if err := setPath(v, path, text); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
	}

	data, err := e.catalog.Encode(v, e.cfg.Limits())
	if err != nil {
		return fmt.Errorf("encode: %s: %w", def.Name, err)
	}
	logging.Logger().Debug().Str("message", def.Name).Int("bytes", len(data)).Msg("message encoded")
	if *raw {
		_, err = e.stdout.Write(data)
		return err
	}
	_, err = fmt.Fprintln(e.stdout, hex.EncodeToString(data))
	return err
}

func selectVariant(v *schema.Value, item, variant string) error {
	union, err := v.EnumOf(item)
	if err != nil {
		return err
	}
	sub, err := union.Variant(variant)
	if err != nil {
		return err
	}
	return v.SetEnum(item, sub)
}

// setPath walks dotted enum items down to the value that owns the last
// segment.
func setPath(v *schema.Value, path, text string) error {
	parts := strings.Split(path, ".")
	for _, p := range parts[:len(parts)-1] {
		sub, err := v.Enum(p)
		if err != nil {
			return err
		}
		v = sub
	}
	return v.SetText(parts[len(parts)-1], text)
}
