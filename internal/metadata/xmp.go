package metadata

import (
	"fmt"
	"strings"
)

// Built-in namespace prefixes and URIs, fixed per spec.
const (
	PrefixDC   = "dc"
	PrefixExif = "exif"
	PrefixTiff = "tiff"
	PrefixXMP  = "xmp"
)

var namespaceURIs = map[string]string{
	PrefixDC:   "http://purl.org/dc/elements/1.1/",
	PrefixExif: "http://ns.adobe.com/exif/1.0/",
	PrefixTiff: "http://ns.adobe.com/tiff/1.0/",
	PrefixXMP:  "http://ns.adobe.com/xap/1.0/",
}

// splitPath splits a "prefix:name" leading path segment.
func splitPath(path string) (prefix, name string) {
	seg := path
	if i := strings.IndexByte(path, '/'); i >= 0 {
		seg = path[:i]
	}
	if i := strings.IndexByte(seg, ':'); i >= 0 {
		return seg[:i], seg[i+1:]
	}
	return "", seg
}

// ToXMP serializes m as an XMP packet: an x:xmpmeta wrapper around an
// rdf:RDF description, binding every namespace prefix actually used.
func (m *Metadata) ToXMP() []byte {
	used := map[string]bool{}
	for _, path := range m.sortedPaths() {
		prefix, _ := splitPath(path)
		if prefix != "" {
			used[prefix] = true
		}
	}

	var b strings.Builder
	b.WriteString(`<?xpacket begin="` + "\xEF\xBB\xBF" + `" id="W5M0MpCehiHzreSzNTczkc9d"?>` + "\n")
	b.WriteString(`<x:xmpmeta xmlns:x="adobe:ns:meta/">` + "\n")
	b.WriteString(`<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"`)
	for _, prefix := range sortedKeys(used) {
		uri := namespaceURIs[prefix]
		if uri == "" {
			uri = "urn:unknown:" + prefix
		}
		fmt.Fprintf(&b, "\n  xmlns:%s=%q", prefix, uri)
	}
	b.WriteString(">\n")
	b.WriteString(`<rdf:Description rdf:about="">` + "\n")

	for _, path := range m.sortedPaths() {
		v := m.tags[path]
		if v.Type == TypeStruct {
			continue // struct values are not flattened into XMP leaf properties
		}
		prefix, name := splitPath(path)
		if prefix == "" {
			continue
		}
		fmt.Fprintf(&b, "  <%s:%s>%s</%s:%s>\n", prefix, name, escapeXML(v.String()), prefix, name)
	}

	b.WriteString("</rdf:Description>\n")
	b.WriteString("</rdf:RDF>\n")
	b.WriteString("</x:xmpmeta>\n")
	b.WriteString(`<?xpacket end="w"?>`)
	return []byte(b.String())
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// Deterministic order; namespace prefixes are few, insertion sort is fine.
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	return keys
}

func escapeXML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}
