package main

import (
	"strings"
	"unicode"
)

func getLine(content string, lineIndex int) string {
	lines := strings.Split(content, "\n")
	if lineIndex < 0 || lineIndex >= len(lines) {
		return ""
	}
	return strings.TrimRight(lines[lineIndex], "\r")
}

// getWordAtPosition returns the identifier under the cursor. char counts
// runes, which matches UTF-16 offsets for the scripts Luma sources use.
func getWordAtPosition(content string, line, char int) string {
	lineRunes := []rune(getLine(content, line))
	if char < 0 || char >= len(lineRunes) {
		// If cursor is at the end of line (after last char), check previous char
		if char == len(lineRunes) && char > 0 {
			char--
		} else {
			return ""
		}
	}

	start := char
	for start > 0 && isIdentifierChar(lineRunes[start-1]) {
		start--
	}
	end := char
	for end < len(lineRunes) && isIdentifierChar(lineRunes[end]) {
		end++
	}
	if start >= end {
		return ""
	}
	return string(lineRunes[start:end])
}

// getPrefixAtPosition returns the identifier fragment before the cursor.
func getPrefixAtPosition(content string, line, char int) string {
	lineRunes := []rune(getLine(content, line))
	if char > len(lineRunes) {
		char = len(lineRunes)
	}
	start := char
	for start > 0 && isIdentifierChar(lineRunes[start-1]) {
		start--
	}
	return string(lineRunes[start:char])
}

func isIdentifierChar(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsMark(r) || unicode.IsDigit(r) || r == '_'
}
