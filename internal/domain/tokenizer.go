package domain

import (
	"strconv"
	"strings"

	m "github.com/mouse-blink/ubsynth/internal/model"
)

const (
	markerOpen  = "/*I:"
	markerClose = ":*/"
)

// Tokenize scans instrumented source for record markers of the form
// /*I:ID<n>:<KIND>:<field>...:*/ and returns them in source order with the
// exact byte span of each comment. A marker must close on the line it opens;
// anything else that starts with the marker prefix is left for cleanup.
func Tokenize(src string) []m.Marker {
	var markers []m.Marker

	for pos := 0; pos < len(src); {
		rel := strings.Index(src[pos:], markerOpen)
		if rel < 0 {
			break
		}

		start := pos + rel
		bodyStart := start + len(markerOpen)

		lineEnd := len(src)
		if nl := strings.IndexByte(src[start:], '\n'); nl >= 0 {
			lineEnd = start + nl
		}

		// the closing ":*/" may reuse the opening colon, as in "/*I::*/"
		searchFrom := bodyStart - 1

		closeRel := strings.Index(src[searchFrom:lineEnd], markerClose)
		if closeRel < 0 {
			pos = bodyStart
			continue
		}

		closeStart := searchFrom + closeRel
		end := closeStart + len(markerClose)
		pos = end

		body := ""
		if closeStart > bodyStart {
			body = src[bodyStart:closeStart]
		}

		marker, ok := parseMarkerBody(body)
		if !ok {
			continue
		}

		marker.Span = m.Span{Start: start, End: end}
		markers = append(markers, marker)
	}

	return markers
}

func parseMarkerBody(body string) (m.Marker, bool) {
	parts := strings.Split(body, ":")
	if len(parts) < 2 {
		return m.Marker{}, false
	}

	kind, ok := m.ParseRecordKind(parts[1])
	if !ok {
		return m.Marker{}, false
	}

	id := -1

	if digits, found := strings.CutPrefix(parts[0], "ID"); found && digits != "" {
		n, err := strconv.Atoi(digits)
		if err != nil {
			return m.Marker{}, false
		}

		id = n
	}

	return m.Marker{Kind: kind, ID: id, Fields: parts[2:]}, true
}
