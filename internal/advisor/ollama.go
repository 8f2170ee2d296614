package advisor

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/JexSrs/go-ollama"
	"github.com/sirupsen/logrus"
)

// OllamaGenerator sends prompts to an Ollama server.
type OllamaGenerator struct {
	client *ollama.Ollama
	model  string
}

var _ Generator = (*OllamaGenerator)(nil)

// NewOllamaGenerator creates a generator for the given host and model.
func NewOllamaGenerator(host, model string) (*OllamaGenerator, error) {
	ollamaURL, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama url: %w", err)
	}

	client := ollama.New(*ollamaURL)

	logrus.Infof("Using Ollama client for host: %s", host)
	logrus.Infof("Using Ollama model: %s", model)

	return &OllamaGenerator{
		client: client,
		model:  model,
	}, nil
}

// Generate runs a single non-streaming generation. The Ollama client has no
// context support, so ctx is only checked before the call.
func (g *OllamaGenerator) Generate(ctx context.Context, system, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	res, err := g.client.Generate(
		g.client.Generate.WithModel(g.model),
		g.client.Generate.WithSystem(system),
		g.client.Generate.WithPrompt(prompt),
	)
	if err != nil {
		return "", fmt.Errorf("ollama generate: %w", err)
	}

	if !res.Done {
		return "", errors.New("ollama generation did not complete")
	}
	if res.Response == "" {
		return "", errors.New("ollama returned an empty response")
	}
	logrus.Debug("Response received from Ollama.")
	// Models sometimes wrap the answer in a code fence.
	return strings.TrimSpace(strings.Trim(res.Response, "`")), nil
}
