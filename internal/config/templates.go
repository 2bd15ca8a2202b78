package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "xwirectl", "config":
		return configTemplate, nil
	case "catalog":
		return catalogTemplate, nil
	default:
		return "", fmt.Errorf("unknown template kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const configTemplate = `# catalog = "catalog.toml"
max_message_bytes = 16777216
log_level = "info"
log_nocolor = false
workers = 4
`

const catalogTemplate = `[[message]]
name = "GetGeometry"
kind = "request"
opcode = 14
reply = "GetGeometryReply"

  [[message.item]]
  name = "drawable"
  type = "u32"

[[message]]
name = "GetGeometryReply"
kind = "reply"

  [[message.item]]
  name = "depth"
  type = "u8"
  metabyte = true
  [[message.item]]
  name = "sequence"
  type = "u16"
  sequence = true
  [[message.item]]
  name = "root"
  type = "u32"
  [[message.item]]
  name = "x"
  type = "i16"
  [[message.item]]
  name = "y"
  type = "i16"
  [[message.item]]
  name = "width"
  type = "u16"
  [[message.item]]
  name = "height"
  type = "u16"
  [[message.item]]
  name = "border_width"
  type = "u16"
  [[message.item]]
  item = "unused"
  count = 10

[[message]]
name = "InternAtom"
kind = "request"
opcode = 16

  [[message.item]]
  name = "only_if_exists"
  type = "bool"
  metabyte = true
  [[message.item]]
  name = "name_len"
  item = "let"
  type = "u16"
  source = "len(name)"
  [[message.item]]
  item = "unused"
  count = 2
  [[message.item]]
  name = "name"
  type = "string"
  context = "name_len"
  [[message.item]]
  item = "unused"
  context = "pad(name_len)"
`
