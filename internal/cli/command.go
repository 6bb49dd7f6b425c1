package cli

import (
	"strings"
)

// Builder assembles a single-line REPL command of the form
// `base --flag=value --switch -- pos1 pos2`.
//
// Empty string flags and false switches are omitted. Positional arguments
// follow a literal `--` and only when at least one is non-empty.
type Builder struct {
	base        string
	flags       []string
	positionals []string
}

// NewBuilder starts a command for the given CLI topic, e.g. "apps:info".
func NewBuilder(base string) *Builder {
	return &Builder{base: base}
}

// Flag adds --name=value when value is non-empty.
func (b *Builder) Flag(name, value string) *Builder {
	if value == "" {
		return b
	}

	b.flags = append(b.flags, "--"+name+"="+singleLine(value))

	return b
}

// BoolFlag adds --name when on is true.
func (b *Builder) BoolFlag(name string, on bool) *Builder {
	if on {
		b.flags = append(b.flags, "--"+name)
	}

	return b
}

// QuotedFlag always adds --name="value", even for an empty value.
// Line breaks in value become spaces.
func (b *Builder) QuotedFlag(name, value string) *Builder {
	b.flags = append(b.flags, "--"+name+`="`+singleLine(value)+`"`)

	return b
}

// Positional appends non-empty positional arguments in order.
func (b *Builder) Positional(values ...string) *Builder {
	for _, v := range values {
		if v != "" {
			b.positionals = append(b.positionals, singleLine(v))
		}
	}

	return b
}

// Build renders the command line.
func (b *Builder) Build() string {
	var sb strings.Builder

	sb.WriteString(b.base)

	for _, f := range b.flags {
		sb.WriteByte(' ')
		sb.WriteString(f)
	}

	if len(b.positionals) > 0 {
		sb.WriteString(" -- ")
		sb.WriteString(strings.Join(b.positionals, " "))
	}

	return sb.String()
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

func singleLine(s string) string {
	return lineBreaks.Replace(s)
}
