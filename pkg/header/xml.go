package header

import (
	"io"
	"strconv"

	"github.com/beevik/etree"
)

// WriteXML dumps the header as an <rpmHeader> document, one <rpmTag>
// element per tag in ascending tag order.
func (h *Header) WriteXML(w io.Writer) error {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement("rpmHeader")

	for _, tag := range h.Tags() {
		el := root.CreateElement("rpmTag")
		el.CreateAttr("name", tag.String())
		switch tag.Type() {
		case TypeString:
			el.CreateElement("string").SetText(h.GetString(tag))
		case TypeStringArray:
			for _, s := range h.GetStrings(tag) {
				el.CreateElement("string").SetText(s)
			}
		case TypeNumber:
			el.CreateElement("integer").SetText(strconv.FormatUint(h.GetNumber(tag), 10))
		case TypeNumberArray:
			for _, n := range h.GetUint32s(tag) {
				el.CreateElement("integer").SetText(strconv.FormatUint(uint64(n), 10))
			}
		}
	}

	doc.Indent(2)
	_, err := doc.WriteTo(w)
	return err
}
