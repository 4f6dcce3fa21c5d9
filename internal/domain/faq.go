package domain

// FAQ is one knowledge-base entry as stored, with both translations.
type FAQ struct {
	ID         string `json:"id"`
	QuestionPT string `json:"question_pt"`
	QuestionEN string `json:"question_en"`
	AnswerPT   string `json:"answer_pt"`
	AnswerEN   string `json:"answer_en"`
	Category   string `json:"category"`
	Views      int    `json:"views"`
	CreatedAt  string `json:"created_at,omitempty"`
}

// Question returns the question text for the given language.
func (f *FAQ) Question(lang Language) string {
	if lang == LanguageEN {
		return f.QuestionEN
	}
	return f.QuestionPT
}

// Answer returns the answer text for the given language.
func (f *FAQ) Answer(lang Language) string {
	if lang == LanguageEN {
		return f.AnswerEN
	}
	return f.AnswerPT
}

// FAQView is the single-language projection served to clients.
type FAQView struct {
	ID       string `json:"id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Category string `json:"category"`
	Views    int    `json:"views"`
}

// FAQList wraps a filtered FAQ listing.
type FAQList struct {
	FAQs  []FAQView `json:"faqs"`
	Total int       `json:"total"`
}
