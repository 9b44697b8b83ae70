package metadata

import "strings"

// FromXMP builds a Metadata object from raw XMP packet bytes. The parser is
// intentionally tolerant (accept-only, per spec): it scans for
// "<prefix:name>value</prefix:name>" leaf elements inside rdf:Description
// and ignores anything it doesn't recognize (attributes, nested rdf:Bag/Seq
// structures, comments) rather than failing the whole packet.
func FromXMP(data []byte) *Metadata {
	m := New()
	s := string(data)

	descStart := strings.Index(s, "<rdf:Description")
	if descStart < 0 {
		return m
	}
	bodyStart := strings.IndexByte(s[descStart:], '>')
	if bodyStart < 0 {
		return m
	}
	body := s[descStart+bodyStart+1:]
	descEnd := strings.Index(body, "</rdf:Description>")
	if descEnd >= 0 {
		body = body[:descEnd]
	}

	pos := 0
	for pos < len(body) {
		open := strings.IndexByte(body[pos:], '<')
		if open < 0 {
			break
		}
		open += pos
		if open+1 < len(body) && body[open+1] == '/' {
			pos = open + 1
			continue
		}
		tagEnd := strings.IndexByte(body[open:], '>')
		if tagEnd < 0 {
			break
		}
		tagEnd += open
		tagName := body[open+1 : tagEnd]
		if strings.ContainsAny(tagName, " \t\n") {
			// Element has attributes; drop them and keep the bare element name.
			tagName = tagName[:strings.IndexAny(tagName, " \t\n")]
		}
		if !strings.Contains(tagName, ":") {
			pos = tagEnd + 1
			continue
		}
		closeTag := "</" + tagName + ">"
		closeIdx := strings.Index(body[tagEnd+1:], closeTag)
		if closeIdx < 0 {
			pos = tagEnd + 1
			continue
		}
		value := body[tagEnd+1 : tagEnd+1+closeIdx]
		if !strings.Contains(value, "<") {
			m.SetString(tagName, unescapeXML(strings.TrimSpace(value)))
		}
		pos = tagEnd + 1 + closeIdx + len(closeTag)
	}
	return m
}

func unescapeXML(s string) string {
	s = strings.ReplaceAll(s, "&lt;", "<")
	s = strings.ReplaceAll(s, "&gt;", ">")
	s = strings.ReplaceAll(s, "&amp;", "&")
	return s
}
