package board

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
)

var (
	sizePattern  = regexp.MustCompile(`^([0-9]+)x([0-9]+)$`)
	valuePattern = regexp.MustCompile(`^\S+$`)
)

// Definition describes a board to construct: dimensions plus one
// initial value per cell in row-major order.
type Definition struct {
	Height int
	Width  int
	Values []string
}

func (d *Definition) validate() error {
	if d.Height < 1 || d.Width < 1 {
		return &ErrInvalidArgument{Reason: fmt.Sprintf("board dimensions %dx%d must be positive", d.Height, d.Width)}
	}
	if len(d.Values) != d.Height*d.Width {
		return &ErrInvalidArgument{Reason: fmt.Sprintf("board %dx%d requires %d values, got %d", d.Height, d.Width, d.Height*d.Width, len(d.Values))}
	}
	for i, value := range d.Values {
		if !valuePattern.MatchString(value) {
			return &ErrInvalidArgument{Reason: fmt.Sprintf("value %d is not a non-empty token: %q", i, value)}
		}
	}
	return nil
}

// ParseDefinition parses the board description format: a first line of
// the form HEIGHTxWIDTH followed by exactly HEIGHT*WIDTH non-blank
// lines, each the initial value of one cell in row-major order.
func ParseDefinition(r io.Reader) (*Definition, error) {
	scanner := bufio.NewScanner(r)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("failed to read size line: %v", err)
		}
		return nil, &ErrInvalidArgument{Reason: "missing size line"}
	}
	sizeLine := strings.TrimRight(scanner.Text(), "\r")
	matches := sizePattern.FindStringSubmatch(sizeLine)
	if matches == nil {
		return nil, &ErrInvalidArgument{Reason: fmt.Sprintf("malformed size line %q", sizeLine)}
	}

	height, err := strconv.Atoi(matches[1])
	if err != nil {
		return nil, &ErrInvalidArgument{Reason: fmt.Sprintf("malformed height in size line %q", sizeLine)}
	}
	width, err := strconv.Atoi(matches[2])
	if err != nil {
		return nil, &ErrInvalidArgument{Reason: fmt.Sprintf("malformed width in size line %q", sizeLine)}
	}
	if height < 1 || width < 1 {
		return nil, &ErrInvalidArgument{Reason: fmt.Sprintf("board dimensions %dx%d must be positive", height, width)}
	}

	want := height * width
	values := make([]string, 0, want)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			// Trailing blank lines are tolerated once all values have
			// been read.
			if len(values) == want {
				continue
			}
			return nil, &ErrInvalidArgument{Reason: fmt.Sprintf("blank value line at position %d", len(values))}
		}
		if !valuePattern.MatchString(line) {
			return nil, &ErrInvalidArgument{Reason: fmt.Sprintf("value line %d is not a token: %q", len(values), line)}
		}
		values = append(values, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read value lines: %v", err)
	}
	if len(values) != want {
		return nil, &ErrInvalidArgument{Reason: fmt.Sprintf("board %dx%d requires %d values, got %d", height, width, want, len(values))}
	}

	return &Definition{
		Height: height,
		Width:  width,
		Values: values,
	}, nil
}

// LoadDefinition reads and parses a board description file.
func LoadDefinition(path string) (*Definition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open board file: %v", err)
	}
	defer f.Close()

	def, err := ParseDefinition(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse board file %s: %v", path, err)
	}
	return def, nil
}
