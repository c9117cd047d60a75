package files

import (
	"bufio"
	_ "embed"
	"os"
	"strings"
)

//go:embed paths.txt
var defaultPaths string

// LoadPaths reads probe paths from file. An empty file name selects the
// embedded list.
func LoadPaths(file string) ([]string, error) {
	if file == "" {
		return parseLines(defaultPaths), nil
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	return parseLines(string(data)), nil
}

// parseLines splits text into trimmed lines, skipping blanks and comments.
func parseLines(text string) []string {
	var lines []string
	sc := bufio.NewScanner(strings.NewReader(text))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, strings.TrimPrefix(line, "/"))
	}
	return lines
}
