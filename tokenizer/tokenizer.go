package tokenizer

import (
	"fmt"
	"strings"

	"github.com/Laisky/errors/v2"
	gocache "github.com/patrickmn/go-cache"
	"github.com/pkoukk/tiktoken-go"
)

// encoderCache holds fetched tiktoken encoders keyed by encoding name. The
// cache is shared by all handles so concurrent streams never fetch the same
// BPE dictionary twice.
var encoderCache = gocache.New(gocache.NoExpiration, 0)

// Tokenizer is a lazily initialized handle over one tiktoken encoding. It is
// read-only after the first successful fetch and safe for concurrent use.
type Tokenizer struct {
	encoding string
}

// New returns a handle for the given tiktoken encoding name, e.g.
// "r50k_base" (the GPT-2 byte-pair vocabulary). The encoder itself is
// fetched on first use.
func New(encoding string) *Tokenizer {
	return &Tokenizer{encoding: encoding}
}

func (t *Tokenizer) encoder() (*tiktoken.Tiktoken, error) {
	if enc, ok := encoderCache.Get(t.encoding); ok {
		return enc.(*tiktoken.Tiktoken), nil
	}

	enc, err := tiktoken.GetEncoding(t.encoding)
	if err != nil {
		return nil, errors.Wrapf(err, "get token encoder %q", t.encoding)
	}

	encoderCache.Set(t.encoding, enc, gocache.NoExpiration)
	return enc, nil
}

// TokenizeIDs encodes text into its token ids.
func (t *Tokenizer) TokenizeIDs(text string) ([]int, error) {
	enc, err := t.encoder()
	if err != nil {
		return nil, err
	}
	return enc.Encode(text, nil, nil), nil
}

// Tokenize encodes text and renders each token's raw bytes as a readable
// token string: printable ASCII stays verbatim, control characters use
// \t/\n/\r escapes, all other bytes become \xNN, and tokens containing a
// \xNN escape are prefixed with "bytes:". Token boundaries of byte-level
// vocabularies can split multi-byte characters, so individual token strings
// are not necessarily valid UTF-8 text.
func (t *Tokenizer) Tokenize(text string) ([]string, error) {
	enc, err := t.encoder()
	if err != nil {
		return nil, err
	}

	ids := enc.Encode(text, nil, nil)
	tokens := make([]string, 0, len(ids))
	for _, id := range ids {
		tokens = append(tokens, tokenString([]byte(enc.Decode([]int{id}))))
	}
	return tokens, nil
}

func tokenString(raw []byte) string {
	s := renderTokenBytes(raw)
	if strings.Contains(s, `\x`) {
		return "bytes:" + s
	}
	return s
}

// renderTokenBytes renders raw token bytes the way a Python bytes literal
// body reads: the quote character is double only when the bytes contain a
// single quote and no double quote, matching repr()'s choice.
func renderTokenBytes(b []byte) string {
	quote := byte('\'')
	hasSingle := false
	hasDouble := false
	for _, c := range b {
		switch c {
		case '\'':
			hasSingle = true
		case '"':
			hasDouble = true
		}
	}
	if hasSingle && !hasDouble {
		quote = '"'
	}

	var sb strings.Builder
	for _, c := range b {
		switch {
		case c == '\\':
			sb.WriteString(`\\`)
		case c == quote && quote == '\'':
			sb.WriteString(`\'`)
		case c == '\t':
			sb.WriteString(`\t`)
		case c == '\n':
			sb.WriteString(`\n`)
		case c == '\r':
			sb.WriteString(`\r`)
		case c < 0x20 || c >= 0x7f:
			fmt.Fprintf(&sb, `\x%02x`, c)
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}
