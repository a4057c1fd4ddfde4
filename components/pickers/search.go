package pickers

import (
	"sort"
	"strings"

	"github.com/goliatone/go-picker/pkg/picker"
	"github.com/goliatone/go-picker/pkg/sidechannel"
)

// Option is one entry of the options payload. Value is the encoded primary
// string to submit; Companion, when present, belongs in the hidden field
// named CompanionField.
type Option struct {
	Value          string `json:"value"`
	Label          string `json:"label"`
	Companion      string `json:"companion,omitempty"`
	CompanionField string `json:"companionField,omitempty"`
}

// Search filters choices by a case-insensitive substring of their label.
// Prefix matches come first, then labels in order; equal labels keep their
// snapshot order.
func Search(choices []picker.Choice, query string, limit int, opts Options) []picker.Choice {
	limit = clampLimit(limit, opts)
	if limit == 0 {
		return nil
	}

	query = strings.TrimSpace(query)
	if query == "" {
		if opts.EmptySearchMode == EmptySearchTop {
			if len(choices) <= limit {
				return append([]picker.Choice{}, choices...)
			}
			return append([]picker.Choice{}, choices[:limit]...)
		}
		return nil
	}

	q := strings.ToLower(query)
	matches := make([]matchedChoice, 0, 32)
	for _, choice := range choices {
		lower := strings.ToLower(choice.Label)
		if !strings.Contains(lower, q) {
			continue
		}
		matches = append(matches, matchedChoice{
			choice:   choice,
			isPrefix: strings.HasPrefix(lower, q),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].isPrefix != matches[j].isPrefix {
			return matches[i].isPrefix
		}
		return matches[i].choice.Label < matches[j].choice.Label
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}

	out := make([]picker.Choice, 0, len(matches))
	for _, match := range matches {
		out = append(out, match.choice)
	}
	return out
}

// SearchOptions runs Search and converts the result to payload options.
func SearchOptions(choices []picker.Choice, query string, limit int, opts Options) []Option {
	results := Search(choices, query, limit, opts)
	if len(results) == 0 {
		return nil
	}

	field := opts.FormField
	if field == "" {
		field = defaultFormField
	}
	hiddenName := sidechannel.CompanionName(field)
	out := make([]Option, 0, len(results))
	for _, choice := range results {
		option := Option{Value: choice.Value.Primary, Label: choice.Label}
		if hidden, ok := sidechannel.CompanionField(hiddenName, choice.Value); ok {
			option.Companion = hidden.Value
			option.CompanionField = hidden.Name
		}
		out = append(out, option)
	}
	return out
}

type matchedChoice struct {
	choice   picker.Choice
	isPrefix bool
}
