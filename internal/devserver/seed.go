package devserver

import "github.com/langassess/langassess/internal/assessment"

func opts(correct string, wrong ...string) []assessment.Option {
	out := []assessment.Option{{Text: correct, IsCorrect: true}}
	for _, w := range wrong {
		out = append(out, assessment.Option{Text: w})
	}
	return out
}

// sampleBank is a small question bank covering every level.
var sampleBank = []assessment.Question{
	{Text: "She ___ a teacher.", Competency: assessment.Grammar, Level: assessment.A1, Options: opts("is", "are", "am", "be")},
	{Text: "Which word is a colour?", Competency: assessment.Vocabulary, Level: assessment.A1, Options: opts("green", "table", "run")},
	{Text: "Pick the correct greeting for a letter.", Competency: assessment.Writing, Level: assessment.A1, Options: opts("Dear Sam,", "Dear, Sam", "Sam dear")},

	{Text: "I ___ to London last year.", Competency: assessment.Grammar, Level: assessment.A2, Options: opts("went", "go", "gone", "going")},
	{Text: "The opposite of 'cheap' is ___.", Competency: assessment.Vocabulary, Level: assessment.A2, Options: opts("expensive", "cheerful", "empty")},
	{Text: "Which sentence ends correctly?", Competency: assessment.Writing, Level: assessment.A2, Options: opts("See you tomorrow.", "See you tomorrow,", "see you tomorrow")},

	{Text: "If it rains, we ___ at home.", Competency: assessment.Grammar, Level: assessment.B1, Options: opts("will stay", "would stay", "stayed", "stay will")},
	{Text: "'Reluctant' means ___.", Competency: assessment.Vocabulary, Level: assessment.B1, Options: opts("unwilling", "eager", "late", "quiet")},
	{Text: "Best linker: 'It was late, ___ we kept working.'", Competency: assessment.Writing, Level: assessment.B1, Options: opts("but", "so that", "because")},

	{Text: "By next June she ___ here for ten years.", Competency: assessment.Grammar, Level: assessment.B2, Options: opts("will have worked", "will work", "has worked", "works")},
	{Text: "A 'setback' is ___.", Competency: assessment.Vocabulary, Level: assessment.B2, Options: opts("a problem that delays progress", "a reclining seat", "a refund")},
	{Text: "Most formal closing for a complaint letter:", Competency: assessment.Writing, Level: assessment.B2, Options: opts("Yours faithfully,", "Cheers,", "Love,")},

	{Text: "Hardly ___ the station when the train left.", Competency: assessment.Grammar, Level: assessment.C1, Options: opts("had we reached", "we had reached", "we reached", "did we reached")},
	{Text: "'Ubiquitous' means ___.", Competency: assessment.Vocabulary, Level: assessment.C1, Options: opts("found everywhere", "very rare", "hard to see")},
	{Text: "Which best hedges a claim?", Competency: assessment.Writing, Level: assessment.C1, Options: opts("This may suggest that", "This proves that", "Obviously")},

	{Text: "Were he ___ the truth, he would not hesitate.", Competency: assessment.Grammar, Level: assessment.C2, Options: opts("to know", "knowing", "knows", "known")},
	{Text: "'Obfuscate' is closest to ___.", Competency: assessment.Vocabulary, Level: assessment.C2, Options: opts("obscure", "clarify", "accelerate", "observe")},
	{Text: "Most concise revision of 'due to the fact that':", Competency: assessment.Writing, Level: assessment.C2, Options: opts("because", "owing to the fact that", "in view of the fact that")},
}

func (s *Server) seed() {
	for _, q := range sampleBank {
		q.CreatedBy = "seed"
		s.store.putQuestion(q)
	}
}
