// Package gcode splits a G-code line into letter/value words. It checks
// syntax only; what the words mean is up to the motion planner.
package gcode

import "errors"

var (
	ErrExpectedLetter = errors.New("gcode: expected command letter")
	ErrBadNumber      = errors.New("gcode: bad number format")
	ErrOpenComment    = errors.New("gcode: unterminated comment")
	ErrTooManyWords   = errors.New("gcode: too many words")
)

// MaxWords bounds the words in one block
const MaxWords = 16

// Word is one letter and its value, e.g. X10.5
type Word struct {
	Letter byte
	Value  float64
}

// Block is one parsed line
type Block struct {
	Words   []Word
	Comment string
}

// Parse parses a single line. Letters are upper-cased, whitespace is ignored
// anywhere, and comments in parentheses or after a semicolon are collected
// into Comment. An empty or comment-only line gives an empty Block.
func Parse(line string) (Block, error) {
	var b Block
	i := 0
	for i < len(line) {
		c := line[i]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			i++

		case c == ';':
			b.Comment = line[i+1:]
			return b, nil

		case c == '(':
			end := i + 1
			for end < len(line) && line[end] != ')' {
				end++
			}
			if end == len(line) {
				return Block{}, ErrOpenComment
			}
			b.Comment = line[i+1 : end]
			i = end + 1

		case isLetter(c):
			value, next, ok := parseNumber(line, skipSpace(line, i+1))
			if !ok {
				return Block{}, ErrBadNumber
			}
			if len(b.Words) == MaxWords {
				return Block{}, ErrTooManyWords
			}
			b.Words = append(b.Words, Word{Letter: toUpper(c), Value: value})
			i = next

		default:
			return Block{}, ErrExpectedLetter
		}
	}
	return b, nil
}

// Empty reports whether the block has no words
func (b Block) Empty() bool {
	return len(b.Words) == 0
}

// Get returns the value of the first word with the given letter
func (b Block) Get(letter byte) (float64, bool) {
	letter = toUpper(letter)
	for _, w := range b.Words {
		if w.Letter == letter {
			return w.Value, true
		}
	}
	return 0, false
}

// Command returns the first G, M or T word as letter and number
func (b Block) Command() (letter byte, number int, ok bool) {
	for _, w := range b.Words {
		switch w.Letter {
		case 'G', 'M', 'T':
			return w.Letter, int(w.Value), true
		}
	}
	return 0, 0, false
}

// parseNumber reads a signed decimal starting at pos. It returns the index
// after the number, and ok is false if there are no digits.
func parseNumber(s string, pos int) (value float64, next int, ok bool) {
	negative := false
	if pos < len(s) && (s[pos] == '-' || s[pos] == '+') {
		negative = s[pos] == '-'
		pos++
	}

	digits := 0
	intPart := 0.0
	for pos < len(s) && isDigit(s[pos]) {
		intPart = intPart*10 + float64(s[pos]-'0')
		pos++
		digits++
	}

	frac, scale := 0.0, 1.0
	if pos < len(s) && s[pos] == '.' {
		pos++
		for pos < len(s) && isDigit(s[pos]) {
			frac = frac*10 + float64(s[pos]-'0')
			scale *= 10
			pos++
			digits++
		}
	}

	if digits == 0 {
		return 0, pos, false
	}

	value = intPart + frac/scale
	if negative {
		value = -value
	}
	return value, pos, true
}

func skipSpace(s string, pos int) int {
	for pos < len(s) && (s[pos] == ' ' || s[pos] == '\t') {
		pos++
	}
	return pos
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isLetter(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

func toUpper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - ('a' - 'A')
	}
	return c
}
