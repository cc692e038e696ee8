// assets/embed.go
//
// Embedded default data for the server. puzzles.txt is the offline
// fallback pool: one "gibberish | answer" pair per line, blank lines and
// lines starting with '#' ignored.
package assets

import (
	"bufio"
	"embed"
	"io"
	"strings"
)

//go:embed puzzles.txt
var FS embed.FS

// ReadLines returns the trimmed, non-comment lines of r.
func ReadLines(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		out = append(out, s)
	}
	return out, sc.Err()
}

// PuzzleLines returns the lines of the embedded fallback pool.
func PuzzleLines() ([]string, error) {
	f, err := FS.Open("puzzles.txt")
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadLines(f)
}
