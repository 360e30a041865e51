package openai

import (
	"encoding/json"

	"github.com/Laisky/errors/v2"
	glog "github.com/Laisky/go-utils/v5/log"
	"github.com/jinzhu/copier"
)

// wireBody derives the upstream request body. The chat shape keeps only the
// fields that endpoint accepts and replaces the prompt with role-tagged
// messages; the completion shape passes everything through.
func wireBody(req *GenerationRequest, chat bool, lg glog.Logger) ([]byte, error) {
	if chat {
		wire := chatRequest{}
		if err := copier.Copy(&wire, req); err != nil {
			return nil, errors.Wrap(err, "derive chat request body")
		}
		wire.Messages = chatMessages(req.Prompt[0], lg)
		body, err := json.Marshal(&wire)
		if err != nil {
			return nil, errors.Wrap(err, "marshal chat request body")
		}
		return body, nil
	}

	wire := completionRequest{}
	if err := copier.Copy(&wire, req); err != nil {
		return nil, errors.Wrap(err, "derive completion request body")
	}
	body, err := json.Marshal(&wire)
	if err != nil {
		return nil, errors.Wrap(err, "marshal completion request body")
	}
	return body, nil
}
