//go:build linux

package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/sys/unix"
)

var chatHistory []string

// readInteractiveLine reads one line with basic editing (cursor motion,
// backspace, up/down history) when stdin is a terminal, falling back to
// plain buffered reads otherwise.
func readInteractiveLine(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	oldState, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		fmt.Print(prompt)
		r := bufio.NewReader(os.Stdin)
		s, err := r.ReadString('\n')
		if err != nil {
			if err == io.EOF && s != "" {
				return trimTrailingNewline(s), nil
			}
			return "", err
		}
		return trimTrailingNewline(s), nil
	}
	raw := *oldState
	raw.Lflag &^= unix.ICANON | unix.ECHO
	raw.Cc[unix.VMIN] = 1
	raw.Cc[unix.VTIME] = 0
	if err := unix.IoctlSetTermios(fd, unix.TCSETS, &raw); err != nil {
		return "", err
	}
	defer func() { _ = unix.IoctlSetTermios(fd, unix.TCSETS, oldState) }()

	fmt.Print(prompt)
	line := make([]byte, 0, maxInputBytes)
	cursor := 0
	histPos := len(chatHistory)
	draft := ""
	var esc strings.Builder
	escState := 0
	var buf [16]byte

	redraw := func() {
		fmt.Printf("\r%s%s\x1b[K", prompt, string(line))
		if cursor < len(line) {
			fmt.Printf("\r%s%s", prompt, string(line[:cursor]))
		}
	}
	setLine := func(s string) {
		line = append(line[:0], s...)
		cursor = len(line)
		redraw()
	}
	handleCSI := func(seq string) {
		switch seq {
		case "A":
			if histPos > 0 {
				if histPos == len(chatHistory) {
					draft = string(line)
				}
				histPos--
				setLine(chatHistory[histPos])
			}
		case "B":
			if histPos < len(chatHistory) {
				histPos++
				if histPos == len(chatHistory) {
					setLine(draft)
				} else {
					setLine(chatHistory[histPos])
				}
			}
		case "D":
			if cursor > 0 {
				cursor--
				redraw()
			}
		case "C":
			if cursor < len(line) {
				cursor++
				redraw()
			}
		case "H":
			cursor = 0
			redraw()
		case "F":
			cursor = len(line)
			redraw()
		case "3~":
			if cursor < len(line) {
				line = append(line[:cursor], line[cursor+1:]...)
				redraw()
			}
		}
	}

	for {
		n, err := os.Stdin.Read(buf[:])
		if err != nil {
			return "", err
		}
		for i := 0; i < n; i++ {
			b := buf[i]
			if escState == 1 {
				if b == '[' {
					escState = 2
					esc.Reset()
				} else {
					escState = 0
				}
				continue
			}
			if escState == 2 {
				esc.WriteByte(b)
				if (b >= 'A' && b <= 'Z') || b == '~' {
					handleCSI(esc.String())
					escState = 0
				}
				continue
			}

			switch b {
			case 27:
				escState = 1
			case '\r', '\n':
				fmt.Print("\r\n")
				out := string(line)
				if strings.TrimSpace(out) != "" {
					chatHistory = append(chatHistory, out)
				}
				return out, nil
			case 3: // Ctrl+C
				fmt.Print("^C\r\n")
				return "", io.EOF
			case 4: // Ctrl+D
				if len(line) == 0 {
					fmt.Print("\r\n")
					return "", io.EOF
				}
			case 127, 8:
				if cursor > 0 {
					line = append(line[:cursor-1], line[cursor:]...)
					cursor--
					redraw()
				}
			case 1: // Ctrl+A
				cursor = 0
				redraw()
			case 5: // Ctrl+E
				cursor = len(line)
				redraw()
			default:
				if b >= 32 && len(line) < maxInputBytes {
					line = append(line, 0)
					copy(line[cursor+1:], line[cursor:])
					line[cursor] = b
					cursor++
					redraw()
				}
			}
		}
	}
}

func trimTrailingNewline(s string) string {
	s = strings.TrimSuffix(s, "\n")
	return strings.TrimSuffix(s, "\r")
}
