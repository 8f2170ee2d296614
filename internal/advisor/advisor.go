// Package advisor turns a stack's compatibility report into a short
// narrative written by a language model.
package advisor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"gridstack/internal/compat"
	"gridstack/internal/models"
	"gridstack/internal/stack"
)

// ErrEmptyStack is returned when there is nothing to summarize.
var ErrEmptyStack = errors.New("stack has no selections")

const systemPrompt = "You are a web3 infrastructure analyst. Explain in a few short paragraphs how well " +
	"the selected products work together, citing shared chains and assets, and point out the weakest pair."

// Generator produces text from a system message and a user prompt.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// Input is a snapshot of everything the advisor reads from a stack.
type Input struct {
	UseCase    *models.UseCaseTemplate
	Selections []stack.Selection
	Report     models.StackReport
}

// FromStack snapshots s. The caller must hold whatever lock guards s.
func FromStack(s *stack.Stack) Input {
	return Input{
		UseCase:    s.UseCase(),
		Selections: s.Selected(),
		Report:     s.Report(),
	}
}

// Advisor asks a Generator to summarize stacks.
type Advisor struct {
	gen             Generator
	maxPromptLength int
}

// New returns an Advisor. Prompts longer than maxPromptLength are truncated.
func New(gen Generator, maxPromptLength int) *Advisor {
	return &Advisor{gen: gen, maxPromptLength: maxPromptLength}
}

// Summarize returns the model's narrative for in.
func (a *Advisor) Summarize(ctx context.Context, in Input) (string, error) {
	if len(in.Selections) == 0 {
		return "", ErrEmptyStack
	}
	prompt := BuildContext(in)
	if a.maxPromptLength > 0 && len(prompt) > a.maxPromptLength {
		logrus.Warnf("Prompt is being truncated from %d to %d characters.", len(prompt), a.maxPromptLength)
		prompt = truncate(prompt, a.maxPromptLength)
	}
	logrus.Debugf("Sending prompt of %d characters to the advisor model", len(prompt))

	answer, err := a.gen.Generate(ctx, systemPrompt, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to summarize stack: %w", err)
	}
	return answer, nil
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// BuildContext renders the stack as plain text for the model.
func BuildContext(in Input) string {
	var summary strings.Builder

	if in.UseCase != nil {
		summary.WriteString(fmt.Sprintf("Use case: %s (%s)\n", in.UseCase.Name, in.UseCase.Description))
	}

	summary.WriteString("\nSelected products:\n")
	if len(in.Selections) == 0 {
		summary.WriteString("(none)\n")
	}
	names := make(map[string]string, len(in.Selections))
	for _, sel := range in.Selections {
		p := sel.Product
		names[p.ID] = p.DisplayName()
		summary.WriteString(fmt.Sprintf("- %s: %s", sel.Category, p.DisplayName()))
		if chains := chainNames(p); len(chains) > 0 {
			summary.WriteString(fmt.Sprintf(" | chains: %s", strings.Join(chains, ", ")))
		}
		if assets := assetTickers(p); len(assets) > 0 {
			summary.WriteString(fmt.Sprintf(" | assets: %s", strings.Join(assets, ", ")))
		}
		summary.WriteString("\n")
	}

	summary.WriteString("\nPairwise compatibility:\n")
	if len(in.Report.Pairs) == 0 {
		summary.WriteString("(fewer than two products selected)\n")
	}
	for _, pair := range in.Report.Pairs {
		reasons := "no shared chains or assets"
		if len(pair.Reasons) > 0 {
			reasons = strings.Join(pair.Reasons, "; ")
		}
		summary.WriteString(fmt.Sprintf("- %s: %d/%d (%s)\n", compat.PairLabel(pair.PairID, names), pair.Score, compat.MaxPairScore, reasons))
	}

	if in.Report.Tier != "" {
		summary.WriteString(fmt.Sprintf("\nStack score: %d (%s)\n", in.Report.StackScore, in.Report.Tier))
	}
	return summary.String()
}

func chainNames(p models.Product) []string {
	var out []string
	seen := make(map[string]bool)
	for _, d := range p.ProductDeployments {
		chain := d.SmartContractDeployment.DeployedOnProduct
		label := chain.Name
		if label == "" {
			label = chain.ID
		}
		if label != "" && !seen[label] {
			seen[label] = true
			out = append(out, label)
		}
	}
	return out
}

func assetTickers(p models.Product) []string {
	var out []string
	seen := make(map[string]bool)
	for _, r := range p.ProductAssetRelationships {
		label := r.Asset.Ticker
		if label == "" {
			label = r.Asset.Name
		}
		if label != "" && !seen[label] {
			seen[label] = true
			out = append(out, label)
		}
	}
	return out
}
