package fanout

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

const improvementTemplate = `You are an expert in writing effective prompts for AI models.

Analyze and improve the following prompt:
- Make it clearer and more specific
- Add structure if needed
- Make sure the instructions are easy to understand
- Optimize it to get better results

Original prompt:
%s

Return only the improved version of the prompt, without any additional comments or explanations.`

var (
	openingFence = regexp.MustCompile("^```[\\w-]*[ \\t]*\\r?\\n?")
	closingFence = regexp.MustCompile("\\r?\\n?```\\s*$")
	leadIn       = regexp.MustCompile(`(?i)^(?:improved prompt|here is the improved version|here is the improved prompt|improved version|улучшенный промт|вот улучшенная версия|улучшенная версия)\s*:\s*`)
)

// ImprovementPrompt embeds the original prompt in the meta-instruction sent to
// the improving model.
func ImprovementPrompt(original string) string {
	return fmt.Sprintf(improvementTemplate, strings.TrimSpace(original))
}

// CleanImprovedPrompt extracts the rewritten prompt from a free-form model
// reply: code fences and lead-in phrases such as "Improved prompt:" are
// removed, in English or Russian.
func CleanImprovedPrompt(reply string) string {
	s := strings.TrimSpace(reply)
	s = leadIn.ReplaceAllString(s, "")
	s = openingFence.ReplaceAllString(s, "")
	s = closingFence.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	s = leadIn.ReplaceAllString(s, "")

	return strings.TrimSpace(s)
}

// Improve asks one model to rewrite a prompt for clarity.
//
// The call goes through the same path as a single-model dispatch. A failed
// call returns an error carrying the outcome message unchanged.
//
// Example usage:
//
//	improved, err := dispatcher.Improve(ctx, "write a poem about go", model)
func (d *Dispatcher) Improve(ctx context.Context, original string, model ModelConfig) (string, error) {
	if strings.TrimSpace(original) == "" {
		return "", ErrEmptyOriginalPrompt
	}

	d.logger.WithField("model", model.Name).Info("requesting prompt improvement")

	outcome := d.send(ctx, d.logger, ImprovementPrompt(original), model)

	if !outcome.Ok() {
		return "", &Error{Kind: outcome.Kind, Message: *outcome.Error}
	}

	improved := CleanImprovedPrompt(*outcome.Response)

	if improved == "" {
		d.logger.WithField("model", model.Name).Warn("improved prompt is empty after cleanup")

		return "", ErrEmptyImprovedPrompt
	}

	return improved, nil
}
