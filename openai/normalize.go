package openai

import (
	"github.com/Laisky/errors/v2"
)

// chatNormalizer reshapes chat deltas into the completion choice schema,
// reconstructing the token-level fields the chat wire format omits. It keeps
// the text received so far because the first content delta is tokenized with
// a synthetic leading space, matching how the completion API spaces its
// first token.
type chatNormalizer struct {
	tokenizer Tokenizer
	received  string
}

func (n *chatNormalizer) normalize(frame *chatStreamResponse) (*NormalizedEvent, error) {
	choices := make([]NormalizedChoice, 0, len(frame.Choices))
	for _, c := range frame.Choices {
		content, hasContent := c.Delta["content"]
		if !hasContent {
			// a bare {} delta terminates the choice; a delta that still
			// carries other keys (role announcements) yields nothing
			if len(c.Delta) == 0 {
				choices = append(choices, NormalizedChoice{
					Text:         "",
					Index:        c.Index,
					FinishReason: c.FinishReason,
					LogProbs:     emptyLogProbs(),
				})
			}
			continue
		}

		text, _ := content.(string)
		tokenizeInput := text
		if n.received == "" {
			tokenizeInput = " " + text
		}
		tokens, err := n.tokenizer.Tokenize(tokenizeInput)
		if err != nil {
			return nil, errors.Wrap(err, "tokenize chat delta")
		}
		n.received += text
		choices = append(choices, NormalizedChoice{
			Text:         text,
			Index:        c.Index,
			FinishReason: c.FinishReason,
			LogProbs:     zeroLogProbs(tokens),
		})
	}

	return &NormalizedEvent{
		ID:      frame.ID,
		Object:  frame.Object,
		Created: frame.Created,
		Model:   frame.Model,
		Choices: choices,
		Usage:   frame.Usage,
	}, nil
}

// echoEvent synthesizes the event that mirrors the prompt back before any
// network traffic. Only chat-format requests need it; the completion API
// implements echo server-side.
func echoEvent(prompt string, tokens []string) *NormalizedEvent {
	return &NormalizedEvent{
		Choices: []NormalizedChoice{{
			Text:     prompt,
			Index:    0,
			LogProbs: zeroLogProbs(tokens),
		}},
	}
}

func emptyLogProbs() *LogProbs {
	return &LogProbs{
		TextOffset:    []int{},
		TokenLogProbs: []float64{},
		Tokens:        []string{},
		TopLogProbs:   []map[string]float64{},
	}
}

// zeroLogProbs builds the reconstructed block for freshly received tokens.
// Offsets and probabilities are all zero: the chat wire format does not
// expose the real values, only the token text is meaningful.
func zeroLogProbs(tokens []string) *LogProbs {
	lp := &LogProbs{
		TextOffset:    make([]int, len(tokens)),
		TokenLogProbs: make([]float64, len(tokens)),
		Tokens:        tokens,
		TopLogProbs:   make([]map[string]float64, 0, len(tokens)),
	}
	for _, t := range tokens {
		lp.TopLogProbs = append(lp.TopLogProbs, map[string]float64{t: 0})
	}
	return lp
}
