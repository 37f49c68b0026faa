package id2path

import (
	"bufio"
	"io"
	"strings"
)

// Record is one "<path>;<type>;<label>" line of a record stream.
type Record struct {
	Line    int
	Path    string
	Type    string
	HasType bool
	Label   string
}

// RecordHandler receives the entries of a record stream. Identifier is
// called for "#<identifier>" lines.
type RecordHandler interface {
	Identifier(line int, identifier string) error
	Record(rec Record) error
}

// ScanRecords feeds the stream to h. Empty lines are skipped and
// surrounding whitespace is trimmed.
func ScanRecords(r io.Reader, h RecordHandler) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		if text[0] == '#' {
			if err := h.Identifier(line, text[1:]); err != nil {
				return err
			}
			continue
		}

		fields := strings.Split(text, ";")
		rec := Record{Line: line, Path: fields[0]}
		if len(fields) > 1 {
			rec.Type = fields[1]
			rec.HasType = true
		}
		if len(fields) > 2 {
			rec.Label = fields[2]
		}
		if err := h.Record(rec); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// FormatRecord writes a path item the way ScanRecords reads it.
func FormatRecord(item PathItem) string {
	fields := []string{item.Path, item.Type.String()}
	if item.Label != "" {
		fields = append(fields, item.Label)
	}
	return strings.Join(fields, ";")
}
