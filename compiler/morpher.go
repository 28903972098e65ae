package compiler

// Morpher filters whitespace, newline and comment tokens out of a raw token
// stream so the parser only sees significant tokens.
type Morpher struct {
	src TokenReader
}

// NewMorpher wraps src.
func NewMorpher(src TokenReader) *Morpher {
	return &Morpher{src: src}
}

// ReadToken returns the next significant token.
func (m *Morpher) ReadToken() Token {
	for {
		tok := m.src.ReadToken()
		if !tok.Type.IsTrivia() {
			return tok
		}
	}
}
