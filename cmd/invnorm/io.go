package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"os"
	"unicode"
)

// openInput opens args[0], or returns stdin when no file is given or the
// file is "-".
func openInput(stdin io.Reader, args []string) (io.ReadCloser, string, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.NopCloser(stdin), "stdin", nil
	}
	f, err := os.Open(args[0])
	if err != nil {
		return nil, "", err
	}
	return f, args[0], nil
}

// firstByte returns the first non-space byte without consuming it.
// It returns 0 for input that is empty or all whitespace.
func firstByte(br *bufio.Reader) (byte, error) {
	for n := 1; ; n++ {
		b, err := br.Peek(n)
		if len(b) < n {
			if errors.Is(err, io.EOF) {
				return 0, nil
			}
			return 0, err
		}
		if c := b[n-1]; !unicode.IsSpace(rune(c)) {
			return c, nil
		}
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
