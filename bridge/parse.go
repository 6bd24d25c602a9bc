package bridge

import (
	"math"
	"strconv"
)

// ParseInt converts the leading decimal number in s to an int32.
//
// Leading ASCII whitespace is skipped, an optional '+' or '-' is accepted, and
// digits are read up to the first non-digit. Input without digits parses as 0
// with ok set to false, so callers can tell garbage from an explicit "0".
// Values that overflow saturate at math.MinInt32 or math.MaxInt32.
func ParseInt(s []byte) (v int32, ok bool) {
	var p intParser
	for _, c := range s {
		p.feed(c)
	}
	return p.result()
}

const (
	parseLeading uint8 = iota // skipping whitespace, sign not seen yet
	parseDigits               // after the sign or first digit
	parseDone                 // a non-digit ended the number
)

// intParser is ParseInt fed one byte at a time, so a message can be parsed
// as it arrives regardless of how much of it is kept.
type intParser struct {
	state  uint8
	neg    bool
	digits bool
	n      int64
}

func (p *intParser) reset() { *p = intParser{} }

func (p *intParser) feed(c byte) {
	switch p.state {
	case parseLeading:
		switch {
		case isSpace(c):
			return
		case c == '+' || c == '-':
			p.neg = c == '-'
			p.state = parseDigits
			return
		}
		p.state = parseDigits
		p.feedDigit(c)
	case parseDigits:
		p.feedDigit(c)
	}
}

func (p *intParser) feedDigit(c byte) {
	if c < '0' || c > '9' {
		p.state = parseDone
		return
	}
	p.digits = true
	if p.n <= math.MaxInt32 {
		p.n = p.n*10 + int64(c-'0')
	}
}

func (p *intParser) result() (int32, bool) {
	n := p.n
	if p.neg {
		n = -n
	}
	switch {
	case n > math.MaxInt32:
		n = math.MaxInt32
	case n < math.MinInt32:
		n = math.MinInt32
	}
	return int32(n), p.digits
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

// AppendApplied appends the acknowledgement for duty to dst.
func AppendApplied(dst []byte, duty uint8) []byte {
	dst = append(dst, AppliedPrefix...)
	dst = strconv.AppendUint(dst, uint64(duty), 10)
	return append(dst, lineEnd...)
}
