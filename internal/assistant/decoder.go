package assistant

import (
	"encoding/json"
	"errors"
	"io"
	"strings"
)

const (
	dataPrefix    = "data: "
	doneSentinel  = "[DONE]"
	commentMarker = ":"
)

// ErrEmptyStream is returned when the upstream connection closes before a
// single content fragment was decoded.
var ErrEmptyStream = errors.New("assistant: stream closed before any content")

type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content,omitempty"`
		} `json:"delta,omitempty"`
	} `json:"choices"`
}

// Decoder turns the chunked body of a chat-completions stream into ordered
// content fragments. Chunks arrive at arbitrary byte boundaries; the decoder
// keeps one text buffer, extracts complete lines, and parses `data:` frames.
//
// A line can look complete (it ends in \n) while its JSON payload is still
// partial, because a network chunk boundary may coincide with a newline
// inside the logical record. When payload parsing fails the decoder puts the
// line back in front of the buffer and waits for more bytes instead of
// dropping it.
type Decoder struct {
	buffer    string
	done      bool
	fragments int
}

func NewDecoder() *Decoder {
	return &Decoder{}
}

// Done reports whether the terminator frame has been seen. After Done the
// decoder ignores further input.
func (d *Decoder) Done() bool {
	return d.done
}

// Fragments is the number of content fragments decoded so far.
func (d *Decoder) Fragments() int {
	return d.fragments
}

// Feed appends one chunk and returns the content fragments that became
// decodable, in input order. A trailing partial line stays buffered for the
// next call.
func (d *Decoder) Feed(chunk []byte) []string {
	if d.done {
		return nil
	}
	d.buffer += string(chunk)

	var out []string
	for {
		newlineIndex := strings.IndexByte(d.buffer, '\n')
		if newlineIndex == -1 {
			break
		}
		line := d.buffer[:newlineIndex]
		d.buffer = d.buffer[newlineIndex+1:]

		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, commentMarker) {
			continue
		}
		if !strings.HasPrefix(line, dataPrefix) {
			continue
		}

		payload := strings.TrimSpace(line[len(dataPrefix):])
		if payload == doneSentinel {
			d.done = true
			break
		}

		var parsed streamChunk
		if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
			// The newline belonged to the payload itself; roll the line
			// back and wait for the rest of the record.
			d.buffer = line + "\n" + d.buffer
			break
		}

		for _, c := range parsed.Choices {
			if c.Delta.Content == "" {
				continue
			}
			d.fragments++
			out = append(out, c.Delta.Content)
		}
	}
	return out
}

// Finish signals end of input. A close without the terminator frame counts
// as an implicit end of stream provided at least one fragment was decoded;
// otherwise it reports ErrEmptyStream.
func (d *Decoder) Finish() error {
	if d.done {
		return nil
	}
	if d.fragments == 0 {
		return ErrEmptyStream
	}
	d.done = true
	return nil
}

// DecodeStream drains r through a Decoder, invoking onDelta for every
// fragment in order. It returns the concatenated content, or an error on
// transport failure or an empty stream.
func DecodeStream(r io.Reader, onDelta func(delta string)) (string, error) {
	d := NewDecoder()
	var full strings.Builder

	buf := make([]byte, 4096)
	for !d.Done() {
		n, err := r.Read(buf)
		if n > 0 {
			for _, delta := range d.Feed(buf[:n]) {
				full.WriteString(delta)
				if onDelta != nil {
					onDelta(delta)
				}
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return full.String(), err
		}
	}

	if err := d.Finish(); err != nil {
		return "", err
	}
	return full.String(), nil
}
