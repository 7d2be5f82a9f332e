package config

import (
	"path/filepath"
	"strings"
)

const SourceFileExt = ".luma"

// SourceFileExtensions are all recognized source file extensions
var SourceFileExtensions = []string{".luma", ".lm"}

// ChunkFileExt is the extension of serialized chunk files.
const ChunkFileExt = ".lumac"

// Version and banner shown by the REPL
const (
	Version      = "0.2.0"
	LanguageName = "Luma VM Language"
)

// Keywords of the language, in the order they are documented.
var Keywords = []string{
	"let", "be", "is", "show",
	"if", "then", "else", "end",
	"while", "repeat", "times",
	"and", "or", "not",
	"true", "false",
}

// Machine limits
const (
	StackMax        = 256
	MaxLocals       = 255
	MaxConstants    = 1 << 16
	MaxJump         = 0xffff
	HotLoopDefault  = 1000
	JITThreshold    = 5000
	WarmThreshold   = 100
	ContextInterval = 1000
)

// IsSourceFile reports whether path has a recognized source extension.
func IsSourceFile(path string) bool {
	ext := filepath.Ext(path)
	for _, e := range SourceFileExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// TrimSourceExt removes a recognized source extension from path.
func TrimSourceExt(path string) string {
	for _, e := range SourceFileExtensions {
		if strings.HasSuffix(path, e) {
			return strings.TrimSuffix(path, e)
		}
	}
	return path
}

// IsKeyword reports whether word is reserved.
func IsKeyword(word string) bool {
	for _, k := range Keywords {
		if k == word {
			return true
		}
	}
	return false
}
