package patcher

import (
	"fmt"
	"strings"
)

// EOL modes for adapting step text to the target's line endings.
const (
	EOLAuto = "auto"
	EOLLF   = "lf"
	EOLCRLF = "crlf"
	EOLKeep = "keep"
)

// UsesCRLF reports whether most line breaks in content are "\r\n".
// A stray CRLF line in an LF file does not count.
func UsesCRLF(content string) bool {
	crlf := strings.Count(content, "\r\n")
	return crlf > strings.Count(content, "\n")-crlf
}

// ToCRLF rewrites every line break in s to "\r\n".
func ToCRLF(s string) string {
	return strings.ReplaceAll(ToLF(s), "\n", "\r\n")
}

// ToLF rewrites every "\r\n" in s to "\n".
func ToLF(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}

// AdaptSteps returns copies of steps whose pattern and replacement line
// breaks match the requested mode. Only raw newline characters are touched;
// an escaped `\n` inside a regexp is left alone.
func AdaptSteps(steps []Step, mode, content string) ([]Step, error) {
	var convert func(string) string
	switch mode {
	case "", EOLAuto:
		if UsesCRLF(content) {
			convert = ToCRLF
		}
	case EOLCRLF:
		convert = ToCRLF
	case EOLLF:
		convert = ToLF
	case EOLKeep:
	default:
		return nil, fmt.Errorf("unknown eol mode %q", mode)
	}

	adapted := make([]Step, len(steps))
	copy(adapted, steps)
	if convert == nil {
		return adapted, nil
	}
	for i := range adapted {
		adapted[i].Pattern = convert(adapted[i].Pattern)
		adapted[i].Replace = convert(adapted[i].Replace)
	}
	return adapted, nil
}
