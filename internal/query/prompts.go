package query

import "strings"

// textQASystemPrompt is sent as the system message of every question.
const textQASystemPrompt = `You are an expert Q&A system that is trusted around the world.
Always answer the query using the provided context information, and not prior knowledge.
Some rules to follow:
1. Never directly reference the given context in your answer.
2. Avoid statements like 'Based on the context, ...' or 'The context information ...' or anything along those lines.`

// buildQuestionPrompt wraps the retrieved context and the question in the
// text-QA template.
func buildQuestionPrompt(question string, sources []Source) string {
	var b strings.Builder
	b.WriteString("Context information is below.\n")
	b.WriteString("---------------------\n")
	for i, s := range sources {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(s.Text)
	}
	b.WriteString("\n---------------------\n")
	b.WriteString("Given the context information and not prior knowledge, answer the query.\n")
	b.WriteString("Query: ")
	b.WriteString(question)
	b.WriteString("\nAnswer: ")
	return b.String()
}
