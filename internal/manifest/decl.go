package manifest

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"p4nett/internal/serrors"
)

// LinkDecl is one entry of a target's links list: [a, b] or [a, b, latency].
// A latency is either a duration string ("50ms") or a number of milliseconds.
type LinkDecl struct {
	A       string
	B       string
	Latency time.Duration
}

func (l *LinkDecl) UnmarshalJSON(b []byte) error {
	var raw []any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	return l.fromSlice(raw)
}

func (l *LinkDecl) UnmarshalYAML(value *yaml.Node) error {
	var raw []any
	if err := value.Decode(&raw); err != nil {
		return err
	}
	return l.fromSlice(raw)
}

func (l *LinkDecl) fromSlice(raw []any) error {
	if len(raw) < 2 || len(raw) > 3 {
		return serrors.Join(serrors.ErrConfig, nil, "link", fmt.Sprint(raw))
	}
	a, okA := raw[0].(string)
	b, okB := raw[1].(string)
	if !okA || !okB {
		return serrors.Join(serrors.ErrConfig, nil, "link", fmt.Sprint(raw))
	}
	l.A, l.B = a, b
	if len(raw) == 3 {
		d, err := parseLatency(raw[2])
		if err != nil {
			return serrors.Join(serrors.ErrConfig, err, "link", fmt.Sprint(raw))
		}
		l.Latency = d
	}
	return nil
}

func parseLatency(v any) (time.Duration, error) {
	switch v := v.(type) {
	case string:
		return time.ParseDuration(v)
	case float64:
		return time.Duration(v * float64(time.Millisecond)), nil
	case int:
		return time.Duration(v) * time.Millisecond, nil
	default:
		return 0, fmt.Errorf("unsupported latency %v", v)
	}
}

// Lines is a list of text lines given either inline or as the path of a file
// holding one line per entry.
type Lines struct {
	Inline []string
	File   string
}

func (l *Lines) UnmarshalJSON(b []byte) error {
	var file string
	if err := json.Unmarshal(b, &file); err == nil {
		l.File = file
		return nil
	}
	return json.Unmarshal(b, &l.Inline)
}

func (l *Lines) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		return value.Decode(&l.File)
	}
	return value.Decode(&l.Inline)
}

// Resolve returns the lines. File references are read relative to dir; blank
// lines and lines starting with '#' are dropped from files.
func (l Lines) Resolve(dir string) ([]string, error) {
	if l.File == "" {
		return append([]string(nil), l.Inline...), nil
	}
	path := l.File
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}
	return ReadLines(path)
}

// ReadLines reads a newline-delimited command file.
func ReadLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, serrors.Join(serrors.ErrConfig, err, "file", path)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, serrors.Join(serrors.ErrConfig, err, "file", path)
	}
	return lines, nil
}
