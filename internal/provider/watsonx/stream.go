package watsonx

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"
)

const (
	doneMarker  = "[DONE]"
	maxLineSize = 1024 * 1024
)

type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// ReadStream concatenates choices[0].delta.content from newline-delimited
// frames. Frames may carry a "data:" prefix. Blank frames, the [DONE] marker
// and frames that are not valid JSON are skipped. A final frame without a
// trailing newline is still processed. On a read error the text gathered so
// far is returned with the error.
func ReadStream(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var sb strings.Builder
	for scanner.Scan() {
		if content, ok := parseFrame(scanner.Text()); ok {
			sb.WriteString(content)
		}
	}
	return sb.String(), scanner.Err()
}

func parseFrame(line string) (string, bool) {
	data := strings.TrimSpace(line)
	if rest, ok := strings.CutPrefix(data, "data:"); ok {
		data = strings.TrimSpace(rest)
	}
	if data == "" || data == doneMarker {
		return "", false
	}

	var chunk streamChunk
	if err := json.Unmarshal([]byte(data), &chunk); err != nil {
		return "", false
	}
	if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
		return "", false
	}
	return chunk.Choices[0].Delta.Content, true
}
