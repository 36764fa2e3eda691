// Package diff renders unified diffs between an original and a rewritten
// source file, optionally colorized for a terminal.
package diff

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"

	"github.com/charmbracelet/lipgloss"
)

// Diff returns the unified diff between old and new in "diff -u" format,
// using oldName/newName as the file labels. It returns nil, nil when the
// two texts are identical.
func Diff(oldName string, old []byte, newName string, new []byte) ([]byte, error) {
	if bytes.Equal(old, new) {
		return nil, nil
	}

	f1, err := writeTempFile(old)
	if err != nil {
		return nil, err
	}
	defer os.Remove(f1)

	f2, err := writeTempFile(new)
	if err != nil {
		return nil, err
	}
	defer os.Remove(f2)

	data, err := exec.Command("diff", "-u", f1, f2).CombinedOutput()
	if err != nil && len(data) == 0 {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}

	i := bytes.IndexByte(data, '\n')
	if i < 0 {
		return data, nil
	}
	j := bytes.IndexByte(data[i+1:], '\n')
	if j < 0 {
		return data, nil
	}
	start := i + 1 + j + 1
	if start >= len(data) || data[start] != '@' {
		return data, nil
	}

	header := fmt.Sprintf("diff %s %s\n--- %s\n+++ %s\n", oldName, newName, oldName, newName)
	return append([]byte(header), data[start:]...), nil
}

func writeTempFile(data []byte) (string, error) {
	file, err := os.CreateTemp("", "dissolve-diff")
	if err != nil {
		return "", err
	}
	name := file.Name()
	_, err = file.Write(data)
	if err1 := file.Close(); err == nil {
		err = err1
	}
	if err != nil {
		os.Remove(name)
		return "", err
	}
	return name, nil
}

var (
	addStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	delStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	hunkStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	headerStyle = lipgloss.NewStyle().Bold(true)
)

// Colorize applies ANSI color to the +/-/@@ lines of a unified diff produced
// by Diff. It is a no-op (returns the input unchanged) when color is false,
// so callers can gate it on --color and NO_COLOR uniformly.
func Colorize(udiff []byte, color bool) []byte {
	if !color || len(udiff) == 0 {
		return udiff
	}
	lines := bytes.Split(udiff, []byte("\n"))
	for i, line := range lines {
		switch {
		case bytes.HasPrefix(line, []byte("+++")), bytes.HasPrefix(line, []byte("---")), bytes.HasPrefix(line, []byte("diff ")):
			lines[i] = []byte(headerStyle.Render(string(line)))
		case bytes.HasPrefix(line, []byte("@@")):
			lines[i] = []byte(hunkStyle.Render(string(line)))
		case bytes.HasPrefix(line, []byte("+")):
			lines[i] = []byte(addStyle.Render(string(line)))
		case bytes.HasPrefix(line, []byte("-")):
			lines[i] = []byte(delStyle.Render(string(line)))
		}
	}
	return bytes.Join(lines, []byte("\n"))
}
