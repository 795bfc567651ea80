package models

import "encoding/json"

// Labels is a set of required label key/value pairs gating pipeline triggers
type Labels map[string]string

// ParseLabelPolicy parses a JSON object of required labels. Anything that is
// not a JSON object of strings (including an empty string) yields the empty
// policy, which matches every secret; the error is returned so callers can
// log the fallback.
func ParseLabelPolicy(raw string) (Labels, error) {
	var labels Labels
	if err := json.Unmarshal([]byte(raw), &labels); err != nil {
		return Labels{}, err
	}
	if labels == nil {
		return Labels{}, nil
	}
	return labels, nil
}

// SatisfiedBy reports whether every required label is present on the secret
// with an exactly equal value. Comparison is case-sensitive and supports no
// wildcards; extra labels on the secret are ignored. The empty policy is
// satisfied by any label set.
func (p Labels) SatisfiedBy(secretLabels map[string]string) bool {
	for k, v := range p {
		actual, ok := secretLabels[k]
		if !ok || actual != v {
			return false
		}
	}
	return true
}
