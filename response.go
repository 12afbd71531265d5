package fanout

import (
	"slices"
	"time"

	"github.com/samber/lo"
)

// Outcome is the result of sending a prompt to one model.
//
// Exactly one of Response or Error is set.
type Outcome struct {
	ModelId   int64   `json:"model_id"`
	ModelName string  `json:"model_name"`
	Provider  string  `json:"provider,omitempty"`
	Response  *string `json:"response"`
	Error     *string `json:"error"`

	Kind     ErrorKind     `json:"kind,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

func succeeded(o Outcome, text string) Outcome {
	o.Response = &text
	o.Error = nil
	o.Kind = KindNone

	return o
}

func failed(o Outcome, err error) Outcome {
	o.Response = nil
	o.Error = lo.ToPtr(err.Error())
	o.Kind = KindOf(err)

	return o
}

func (o Outcome) Ok() bool {
	return o.Error == nil && o.Response != nil
}

// Text returns the response, or the error message for failed outcomes.
func (o Outcome) Text() string {
	if o.Ok() {
		return *o.Response
	}

	return lo.FromPtr(o.Error)
}

// SortById orders outcomes by model id, for callers that need them in a
// stable order rather than in completion order.
func SortById(outcomes []Outcome) []Outcome {
	sorted := slices.Clone(outcomes)

	slices.SortStableFunc(sorted, func(a, b Outcome) int {
		switch {
		case a.ModelId < b.ModelId:
			return -1
		case a.ModelId > b.ModelId:
			return 1
		default:
			return 0
		}
	})

	return sorted
}
