package surface

import (
	"strings"
)

var attrEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"\n", "&#10;",
	"\t", "&#9;",
)

var textEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
)

func writeAttrs(ew *errWriter, e *Element) {
	for _, a := range e.attrs {
		ew.printf(" %s=\"%s\"", a.name, attrEscaper.Replace(a.value))
	}
}

func writeElement(ew *errWriter, e *Element, depth int) {
	indent := strings.Repeat("  ", depth)
	ew.printf("%s<%s", indent, e.tag)
	writeAttrs(ew, e)

	switch {
	case len(e.children) == 0 && e.text == "":
		ew.printf("/>\n")
	case len(e.children) == 0:
		ew.printf(">%s</%s>\n", textEscaper.Replace(e.text), e.tag)
	default:
		ew.printf(">")
		if e.text != "" {
			ew.printf("%s", textEscaper.Replace(e.text))
		}
		ew.printf("\n")
		for _, c := range e.children {
			writeElement(ew, c, depth+1)
		}
		ew.printf("%s</%s>\n", indent, e.tag)
	}
}
