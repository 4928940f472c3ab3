// file: jsbridge/pkg/x_rtm/js/position.go
package js

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/rskv-p/jsbridge/fault"
)

// ----------------------------------------------------
// Stack frames and fault positions
// ----------------------------------------------------

var (
	// "\tat fn (file:line:col(pc))" or "\tat file:line:col(pc)"
	frameRe = regexp.MustCompile(`^(?:(.+?) \()?(.+):(\d+):(\d+)\(\d+\)\)?$`)
	// "\tat fn (native)" or "\tat native"
	nativeFrameRe = regexp.MustCompile(`^(?:(.+?) \()?native\)?$`)

	// parser errors: "SyntaxError: file: Line 1:9 Unexpected token ;"
	parseErrRe = regexp.MustCompile(`^(?:SyntaxError: )+(.*?): Line (\d+):(\d+) (.*)$`)
	// compiler errors: "SyntaxError: msg at file:1:9"
	compileErrRe = regexp.MustCompile(`^(?:SyntaxError: )+(.*) at (.+):(\d+):(\d+)$`)
)

// parseStack reads the frames goja prints under an exception value.
func parseStack(text string) []fault.Frame {
	var frames []fault.Frame
	for _, line := range strings.Split(text, "\n") {
		if !strings.HasPrefix(line, "\tat ") {
			continue
		}
		line = strings.TrimPrefix(line, "\tat ")

		if m := nativeFrameRe.FindStringSubmatch(line); m != nil {
			fn := m[1]
			if fn == "" {
				fn = "<native>"
			}
			frames = append(frames, fault.Frame{Function: fn, Source: "<native>"})
			continue
		}
		m := frameRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		fn := m[1]
		if fn == "" {
			fn = "<anonymous>"
		}
		ln, _ := strconv.Atoi(m[3])
		col, _ := strconv.Atoi(m[4])
		frames = append(frames, fault.Frame{Function: fn, Source: m[2], Line: ln, Column: col})
	}
	return frames
}

// syntaxPosition extracts the location goja folds into a SyntaxError message.
func syntaxPosition(msg string) (f fault.Frame, text string, ok bool) {
	if m := parseErrRe.FindStringSubmatch(msg); m != nil {
		ln, _ := strconv.Atoi(m[2])
		col, _ := strconv.Atoi(m[3])
		return fault.Frame{Function: "<anonymous>", Source: m[1], Line: ln, Column: col}, "SyntaxError: " + m[4], true
	}
	if m := compileErrRe.FindStringSubmatch(msg); m != nil {
		ln, _ := strconv.Atoi(m[3])
		col, _ := strconv.Atoi(m[4])
		return fault.Frame{Function: "<anonymous>", Source: m[2], Line: ln, Column: col}, "SyntaxError: " + m[1], true
	}
	return fault.Frame{}, msg, false
}

// exprStart moves a 1-based column that sits on a call's "(" back to the
// first byte of the callee (identifier or member chain) on the same line.
func exprStart(src string, line, col int) int {
	text, ok := lineOf(src, line)
	if !ok || col < 1 || col > len(text) || text[col-1] != '(' {
		return col
	}
	j := col - 1
	for j > 0 && (text[j-1] == ' ' || text[j-1] == '\t') {
		j--
	}
	end := j
scan:
	for j > 0 {
		c := text[j-1]
		switch {
		case isIdentByte(c):
			j--
		case c == '.' && j > 1 && text[j-2] == '?':
			j -= 2
		case c == '.':
			j--
		default:
			break scan
		}
	}
	for j < end && (text[j] == '.' || text[j] == '?') {
		j++
	}
	if j == end {
		return col
	}
	return j + 1
}

func lineOf(src string, line int) (string, bool) {
	if line < 1 {
		return "", false
	}
	for n := 1; ; n++ {
		idx := strings.IndexByte(src, '\n')
		if n == line {
			if idx >= 0 {
				src = src[:idx]
			}
			return strings.TrimSuffix(src, "\r"), true
		}
		if idx < 0 {
			return "", false
		}
		src = src[idx+1:]
	}
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '$' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') ||
		c >= 0x80
}
