package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// readPassword and isTerminal are test seams for golang.org/x/term.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

// errInputClosed is returned by prompts when input ends before an answer.
var errInputClosed = errors.New("input closed")

// readLine reads one line from reader. A final line without newline is
// returned as is; an empty read at EOF yields errInputClosed.
func readLine(reader *bufio.Reader) (string, error) {
	line, err := reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) {
			if len(line) > 0 {
				return strings.TrimSpace(line), nil
			}
			return "", errInputClosed
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// GetSimpleText prints a prompt to w and reads a single line of input from
// reader. Surrounding whitespace is trimmed.
//
//	Prompt text
//	> _
func GetSimpleText(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, prompt+"\n> "); err != nil {
		return "", err
	}
	return readLine(reader)
}

// GetPassword prints a password prompt to w and reads a password without
// echo. When stdin is not a terminal (piped input) the password is read as
// a plain line from reader instead.
//
// The returned byte slice should be wiped by the caller when no longer needed.
func GetPassword(reader *bufio.Reader, w io.Writer) ([]byte, error) {
	if _, err := fmt.Fprint(w, "Enter password: "); err != nil {
		return nil, err
	}

	fd := int(os.Stdin.Fd())
	if !isTerminal(fd) {
		line, err := readLine(reader)
		fmt.Fprintln(w)
		if err != nil {
			return nil, err
		}
		return []byte(line), nil
	}

	pw, err := readPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return nil, err
	}
	return pw, nil
}

// GetChoice lists options numbered from 1 and returns the one picked. The
// answer may be the number or the option text (case-insensitive). Invalid
// answers re-prompt until input ends.
func GetChoice(reader *bufio.Reader, prompt string, options []string, w io.Writer) (string, error) {
	if len(options) == 0 {
		return "", errors.New("nothing to choose from")
	}

	for {
		fmt.Fprintln(w, prompt)
		for i, o := range options {
			fmt.Fprintf(w, "  %d) %s\n", i+1, o)
		}
		fmt.Fprint(w, "> ")

		answer, err := readLine(reader)
		if err != nil {
			return "", err
		}
		if n, err := strconv.Atoi(answer); err == nil && n >= 1 && n <= len(options) {
			return options[n-1], nil
		}
		for _, o := range options {
			if strings.EqualFold(o, answer) {
				return o, nil
			}
		}
		fmt.Fprintf(w, "Please pick 1-%d.\n", len(options))
	}
}

// GetInt reads an integer in [min, max], re-prompting on bad input.
func GetInt(reader *bufio.Reader, prompt string, min, max int, w io.Writer) (int, error) {
	for {
		answer, err := GetSimpleText(reader, fmt.Sprintf("%s (%d-%d)", prompt, min, max), w)
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(answer)
		if err == nil && n >= min && n <= max {
			return n, nil
		}
		fmt.Fprintf(w, "Please enter a whole number between %d and %d.\n", min, max)
	}
}

// GetFloat reads a finite number >= min, re-prompting on bad input.
func GetFloat(reader *bufio.Reader, prompt string, min float64, w io.Writer) (float64, error) {
	for {
		answer, err := GetSimpleText(reader, prompt, w)
		if err != nil {
			return 0, err
		}
		f, err := strconv.ParseFloat(strings.ReplaceAll(answer, ",", "."), 64)
		if err == nil && f >= min && !math.IsInf(f, 0) && !math.IsNaN(f) {
			return f, nil
		}
		fmt.Fprintf(w, "Please enter a number not below %g.\n", min)
	}
}
