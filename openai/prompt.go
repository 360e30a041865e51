package openai

import (
	"regexp"

	glog "github.com/Laisky/go-utils/v5/log"
	"github.com/Laisky/zap"
)

// promptTagPattern matches inline role markers of the form <lmql:TAG/>.
var promptTagPattern = regexp.MustCompile(`<lmql:(.*?)/>`)

// taggedSegment is one run of prompt text together with the marker that
// preceded it; tag is nil for text before the first marker.
type taggedSegment struct {
	tag  *string
	text string
}

// taggedSegments splits a prompt on role markers. Each marker applies to the
// text that follows it. Interior empty runs between adjacent markers are
// dropped; the run after the last marker is always kept, even when empty.
func taggedSegments(s string) []taggedSegment {
	var segments []taggedSegment
	var current *string
	offset := 0
	for _, m := range promptTagPattern.FindAllStringSubmatchIndex(s, -1) {
		if m[0] > offset {
			segments = append(segments, taggedSegment{tag: current, text: s[offset:m[0]]})
		}
		tag := s[m[2]:m[3]]
		current = &tag
		offset = m[1]
	}
	return append(segments, taggedSegment{tag: current, text: s[offset:]})
}

// chatMessages maps tagged prompt segments onto chat wire messages. Untagged
// or unknown-tagged segments become user messages; unknown tags are logged.
// Empty segments produce no message.
func chatMessages(prompt string, lg glog.Logger) []ChatMessage {
	segments := taggedSegments(prompt)
	messages := make([]ChatMessage, 0, len(segments))
	for _, seg := range segments {
		if seg.text == "" {
			continue
		}
		role := RoleUser
		if seg.tag != nil {
			switch *seg.tag {
			case RoleSystem, RoleUser, RoleAssistant:
				role = *seg.tag
			default:
				lg.Warn("unknown chat role tag, treating segment as user",
					zap.String("tag", *seg.tag))
			}
		}
		messages = append(messages, ChatMessage{Role: role, Content: seg.text})
	}
	return messages
}
