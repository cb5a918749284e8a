package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// isTerminal is a test seam for term.IsTerminal.
var isTerminal = term.IsTerminal

// GetSimpleText prints a prompt to w and reads a single line of input from reader.
// The trailing newline is trimmed. If EOF occurs after some input was read,
// the partial line is returned.
//
// Example prompt format:
//
//	Prompt text
//	> _
func GetSimpleText(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, prompt+"\n> "); err != nil {
		return "", err
	}
	return readLine(reader)
}

// GetWithDefault works like GetSimpleText but returns def on an empty answer.
func GetWithDefault(reader *bufio.Reader, prompt, def string, w io.Writer) (string, error) {
	if def != "" {
		prompt = fmt.Sprintf("%s [%s]", prompt, def)
	}
	s, err := GetSimpleText(reader, prompt, w)
	if err != nil {
		return "", err
	}
	if s == "" {
		return def, nil
	}
	return s, nil
}

// GetMultiline prints a prompt to w and reads multiple lines until an empty
// line is entered. Lines are joined with '\n'.
func GetMultiline(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, prompt+"\n(press Enter on an empty line to finish)\n"); err != nil {
		return "", err
	}

	var lines []string
	for {
		line, err := reader.ReadString('\n')
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		lines = append(lines, line)
		if err != nil {
			break
		}
	}

	return strings.TrimSpace(strings.Join(lines, "\n")), nil
}

// GetChoice lists labels and reads a choice by number or label. An empty
// answer keeps def. parse maps the answer to an index.
func GetChoice(reader *bufio.Reader, prompt string, labels []string, def int, parse func(string) (int, error), w io.Writer) (int, error) {
	if def < 0 || def >= len(labels) {
		def = len(labels) - 1
	}
	for i, l := range labels {
		fmt.Fprintf(w, "  %2d. %s\n", i, l)
	}
	for {
		s, err := GetWithDefault(reader, prompt, labels[def], w)
		if err != nil {
			return 0, err
		}
		i, err := parse(s)
		if err == nil {
			return i, nil
		}
		fmt.Fprintln(w, "Invalid choice:", err)
	}
}

// GetConfirm asks a yes/no question. Anything but y/yes/o/oui is no.
func GetConfirm(reader *bufio.Reader, prompt string, w io.Writer) (bool, error) {
	s, err := GetSimpleText(reader, prompt+" (y/n)", w)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(s) {
	case "y", "yes", "o", "oui":
		return true, nil
	}
	return false, nil
}

// GetVintageLines reads "year count [price]" lines until an empty line.
// The year may be NV for bottles without a vintage.
func GetVintageLines(reader *bufio.Reader, w io.Writer) ([]VintageLine, error) {
	fmt.Fprint(w, "Enter vintages as: year count [price] (NV for no vintage, count 0 removes)\n(press Enter on an empty line to finish)\n")

	var out []VintageLine
	for {
		line, err := readLine(reader)
		if line == "" {
			if err != nil && !errors.Is(err, io.EOF) {
				return nil, err
			}
			return out, nil
		}
		v, perr := ParseVintageLine(line)
		if perr != nil {
			fmt.Fprintln(w, "Invalid line:", perr)
		} else {
			out = append(out, v)
		}
		if err != nil {
			return out, nil
		}
	}
}

func readLine(reader *bufio.Reader) (string, error) {
	line, err := reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// VintageLine is one parsed vintage entry.
type VintageLine struct {
	Year     int
	Count    int
	Price    float64
	HasPrice bool
}

// ParseVintageLine parses "2018 3 24.5", "2018 3" or "NV 2".
func ParseVintageLine(s string) (VintageLine, error) {
	f := strings.Fields(s)
	if len(f) < 2 || len(f) > 3 {
		return VintageLine{}, fmt.Errorf("want: year count [price], got %q", s)
	}

	year, err := parseYear(f[0])
	if err != nil {
		return VintageLine{}, err
	}
	count, err := strconv.Atoi(f[1])
	if err != nil {
		return VintageLine{}, fmt.Errorf("count: %w", err)
	}

	v := VintageLine{Year: year, Count: count}
	if len(f) == 3 {
		p, err := strconv.ParseFloat(strings.Replace(f[2], ",", ".", 1), 64)
		if err != nil {
			return VintageLine{}, fmt.Errorf("price: %w", err)
		}
		v.Price, v.HasPrice = p, true
	}
	return v, nil
}
