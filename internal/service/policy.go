package service

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Escalation and confidence policy. Pure functions over the message and
// the synthesized response, kept free of orchestration state so they
// can be extended per-locale and tested in isolation.

// escalationFloor is the confidence below which every turn escalates.
const escalationFloor = 0.4

const (
	groundedBonus     = 0.2
	ungroundedMalus   = 0.2
	ungroundedFloor   = 0.3
	shortReplyRunes   = 40
	shortReplyMalus   = 0.1
	longGroundedReply = 600
	longGroundedBonus = 0.05
	minConfidence     = 0.1
	maxConfidence     = 1.0
)

// ShouldEscalate applies the escalation rules in order: low confidence
// first, then an explicit request for a human in any supported locale.
func ShouldEscalate(message string, confidence float64) bool {
	if confidence < escalationFloor {
		return true
	}
	return containsEscalationKeyword(message)
}

// containsEscalationKeyword reports whether the message contains a
// whole-word escalation keyword from any locale list. Matching is
// whole-word: "management" does not match "manager".
func containsEscalationKeyword(message string) bool {
	words := strings.FieldsFunc(strings.ToLower(message), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, word := range words {
		for _, list := range escalationKeywords {
			for _, keyword := range list {
				if word == keyword {
					return true
				}
			}
		}
	}
	return false
}

// AdjustConfidence derives the final confidence from the classifier's
// base value, the synthesis path taken and the reply length.
func AdjustConfidence(base float64, grounded bool, response string) float64 {
	conf := base
	if grounded {
		conf += groundedBonus
		if conf > maxConfidence {
			conf = maxConfidence
		}
	} else {
		conf -= ungroundedMalus
		if conf < ungroundedFloor {
			conf = ungroundedFloor
		}
	}

	length := utf8.RuneCountInString(response)
	if length < shortReplyRunes {
		conf -= shortReplyMalus
	} else if grounded && length > longGroundedReply {
		conf += longGroundedBonus
	}

	return clampConfidence(conf)
}

// clampConfidence bounds every externally visible confidence to
// [minConfidence, maxConfidence].
func clampConfidence(conf float64) float64 {
	if conf < minConfidence {
		return minConfidence
	}
	if conf > maxConfidence {
		return maxConfidence
	}
	return conf
}
