package imageio

// Status is a Source handle's parse state: a small string-backed enum with
// its own stringer, like the String() method on internal/container's
// int-backed FormatType (internal/container/riff.go).
type Status string

const (
	StatusReadingHeader Status = "reading_header"
	StatusIncomplete    Status = "incomplete"
	StatusUnknownType   Status = "unknown_type"
	StatusInvalidData   Status = "invalid_data"
	StatusUnexpectedEOF Status = "unexpected_eof"
	StatusComplete      Status = "complete"
)

func (s Status) String() string { return string(s) }
