package openai

import (
	"fmt"
	"os"
	"strings"

	"github.com/Laisky/errors/v2"
)

const (
	publicChatEndpoint       = "https://api.openai.com/v1/chat/completions"
	publicCompletionEndpoint = "https://api.openai.com/v1/completions"

	azureEndpointScheme = "azure:"

	apiTypeEnv = "OPENAI_API_TYPE"
	secretEnv  = "OPENAI_API_KEY"
)

// ResolvedEndpoint is the target of exactly one request. Resolution happens
// per call and is never cached, so credential rotation takes effect on the
// next request.
type ResolvedEndpoint struct {
	URL     string
	Headers map[string]string
}

// SecretFunc resolves the bearer secret for the public API.
type SecretFunc func() (string, error)

func envSecret() (string, error) {
	if v := os.Getenv(secretEnv); v != "" {
		return v, nil
	}
	return "", errors.Errorf("%s is not set", secretEnv)
}

// IsChatModel reports whether the model speaks the chat wire format.
func IsChatModel(model string) bool {
	return strings.HasPrefix(model, "gpt-3.5-turbo") || strings.Contains(model, "gpt-4")
}

// azureEnvName derives the environment variable infix for a model:
// uppercased, dots replaced by underscores. Hyphens survive, so
// gpt-3.5-turbo reads AZURE_OPENAI_GPT-3_5-TURBO_ENDPOINT.
func azureEnvName(model string) string {
	return strings.ReplaceAll(strings.ToUpper(model), ".", "_")
}

// resolveEndpoint picks the endpoint and auth headers for one request. The
// branches are checked in order: azure:-tagged endpoint override, azure
// deployment environment, plain endpoint override, public API.
func (c *Client) resolveEndpoint(req *GenerationRequest) (*ResolvedEndpoint, error) {
	cfg := req.APIConfig

	if cfg != nil && strings.HasPrefix(cfg.Endpoint, azureEndpointScheme) {
		url := "https:" + strings.TrimPrefix(cfg.Endpoint, azureEndpointScheme)
		key := cfg.AzureAPIKey
		if key == "" {
			name := azureEnvName(req.Model)
			key = os.Getenv("AZURE_OPENAI_" + name + "_KEY")
			if key == "" {
				return nil, &ConfigurationError{Reason: fmt.Sprintf(
					"no azure API key for model %s: set AZURE_OPENAI_%s_KEY or provide AzureAPIKey", req.Model, name)}
			}
		}
		return &ResolvedEndpoint{URL: url, Headers: azureHeaders(key)}, nil
	}

	if os.Getenv(apiTypeEnv) == "azure" {
		name := azureEnvName(req.Model)
		endpoint := os.Getenv("AZURE_OPENAI_" + name + "_ENDPOINT")
		if endpoint == "" {
			return nil, &ConfigurationError{Reason: fmt.Sprintf(
				"no azure endpoint for model %s: set AZURE_OPENAI_%s_ENDPOINT", req.Model, name)}
		}
		key := os.Getenv("AZURE_OPENAI_" + name + "_KEY")
		if key == "" {
			return nil, &ConfigurationError{Reason: fmt.Sprintf(
				"no azure API key for model %s: set AZURE_OPENAI_%s_KEY", req.Model, name)}
		}
		return &ResolvedEndpoint{URL: endpoint, Headers: azureHeaders(key)}, nil
	}

	if cfg != nil && cfg.Endpoint != "" {
		endpoint := cfg.Endpoint
		if !strings.Contains(endpoint, "://") {
			endpoint = "http://" + endpoint
		}
		return &ResolvedEndpoint{URL: endpoint + "/completions", Headers: map[string]string{
			"Content-Type": "application/json",
		}}, nil
	}

	secret, err := c.secret()
	if err != nil {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("resolve API secret: %v", err)}
	}
	url := publicCompletionEndpoint
	if IsChatModel(req.Model) {
		url = publicChatEndpoint
	}
	return &ResolvedEndpoint{URL: url, Headers: map[string]string{
		"Content-Type":  "application/json",
		"Authorization": "Bearer " + secret,
	}}, nil
}

func azureHeaders(key string) map[string]string {
	return map[string]string{
		"Content-Type": "application/json",
		"api-key":      key,
	}
}
