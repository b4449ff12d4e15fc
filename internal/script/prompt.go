package script

import (
	"strconv"
	"strings"
)

const (
	customBeginTag = "```custom-begin"
	customEndTag   = "```custom-end"

	// DefaultUsetime is the running time used when none is requested.
	DefaultUsetime = "5-6 minutes"

	// DefaultOutputLanguage instructs the generator to answer in the input language.
	DefaultOutputLanguage = "Make sure the input language is set as the output language"
)

// ExtractCustomContent splits a ```custom-begin ... ```custom-end block off
// the front of input. It returns the block body and the text after the block.
// Input without a complete block is returned unchanged.
func ExtractCustomContent(input string) (custom, rest string) {
	start := strings.Index(input, customBeginTag)
	if start == -1 {
		return "", input
	}
	bodyStart := start + len(customBeginTag)
	end := strings.Index(input[bodyStart:], customEndTag)
	if end == -1 {
		return "", input
	}
	custom = strings.TrimSpace(input[bodyStart : bodyStart+end])
	rest = strings.TrimSpace(input[bodyStart+end+len(customEndTag):])
	return custom, rest
}

// PromptParams fills the placeholders of a script prompt template.
type PromptParams struct {
	NumSpeakers    int
	TurnPattern    string
	Usetime        string
	OutputLanguage string

	// Briefing is the speaker identity text from the resolver.
	Briefing string

	// Custom is the custom content block of the input.
	Custom string
}

// BuildScriptPrompt renders the script system prompt: the speaker briefing,
// the custom content and the template with its placeholders replaced.
func BuildScriptPrompt(template string, p PromptParams) string {
	turn := p.TurnPattern
	if turn == "" {
		turn = "random"
	}
	usetime := p.Usetime
	if usetime == "" {
		usetime = DefaultUsetime
	}

	body := strings.NewReplacer(
		"{{numSpeakers}}", strconv.Itoa(p.NumSpeakers),
		"{{turnPattern}}", turn,
		"{{usetime}}", usetime,
		"{{outlang}}", OutputLanguage(p.OutputLanguage),
	).Replace(template)

	return p.Briefing + "\n\n" + p.Custom + "\n\n" + body
}

// BuildOverviewPrompt renders the overview system prompt.
func BuildOverviewPrompt(template, outputLanguage string) string {
	return strings.ReplaceAll(template, "{{outlang}}", OutputLanguage(outputLanguage))
}

// OutputLanguage returns lang, or the default instruction when lang is empty.
func OutputLanguage(lang string) string {
	if lang == "" {
		return DefaultOutputLanguage
	}
	return lang
}
