package providers

import (
	"context"
	"errors"
)

// ErrClassifierUnavailable is returned when no classifier is configured or
// its circuit is open.
var ErrClassifierUnavailable = errors.New("text classifier unavailable")

// TextClassifier is the black-box AI model used for cultural tagging. The
// reply is expected to contain JSON but may be empty or malformed.
type TextClassifier interface {
	Classify(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
