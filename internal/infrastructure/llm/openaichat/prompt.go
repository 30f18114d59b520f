package openaichat

import (
	"fmt"
	"strings"

	"github.com/knowledgeport/corpus-assistant/internal/core/domain"
)

const historyTurnsInPrompt = 3

const intentSystemPrompt = `You are an expert at understanding user intent. Always return valid JSON only, no other text.`

func buildIntentPrompt(question string) string {
	return fmt.Sprintf(`You are an intent classifier for an engineering company's knowledge assistant.

User Question: %q

Your job: Classify this question into ONE of these categories:

1. Policy - company policies, rules, H&S requirements, HR/IT policies, employee obligations
   Examples: "what's the wellness policy?", "sick leave policy", "harassment policy"

2. Procedure - how to do things, best practices, technical procedures, how-to handbooks
   Examples: "how do I use the wind speed spreadsheet?", "procedure for site inspections"

3. Standards - engineering standards, NZS codes, AS/NZS specifications, design codes
   Examples: "what does NZS 3604 say about bracing?", "seismic design code"

4. Project - past projects, job numbers, project details, work history
   Examples: "what is project 225?", "tell me about job 219208", "projects from 2025"

5. Client - clients, contact details, client history, client relationships
   Examples: "who is the client for the bridge upgrade?", "what have we done for client X?"

6. General_Knowledge - general engineering or company questions, or anything that fits nowhere above
   Examples: "who works here?", "what is a moment connection?"

IMPORTANT: When someone asks "project 225" or "job 219208" they want PROJECT information, not technical dimensions like "225mm beam depth".

Return ONLY valid JSON: {"intent": "Policy"}`, question)
}

const synthesisSystemPrompt = `You are an engineering knowledge assistant. Your goal is to provide accurate, concise, and helpful answers based ONLY on the provided context.

Tone & Synthesis Rules:
1. Be a direct colleague: active, clear, professional yet friendly. No filler or tentative language.
2. Synthesis ONLY: write the answer in a single block of text. DO NOT mention file names, document titles, or folder paths within the body of your answer.

Citation Rules:
3. Immediately after the answer, output a list of the documents used. Use the filename and folder metadata.

If the context does not contain the information needed, say so directly instead of guessing.

Format your response EXACTLY like this:

ANSWER:
[Your direct, natural answer here without mentioning any document names]

SOURCES:
1. [filename] ([folder])
2. [filename] ([folder])`

func buildSynthesisPrompt(question string, passages []domain.RetrievedPassage, history []domain.Turn) string {
	var contextBuilder strings.Builder
	for i, p := range passages {
		fmt.Fprintf(&contextBuilder, "[Source %d: %s (%s)]\n%s\n\n", i+1, p.Filename, p.Folder, p.Text)
	}

	var sb strings.Builder
	sb.WriteString("Context from the knowledge base:\n")
	sb.WriteString(contextBuilder.String())

	if turns := recentTurns(history, historyTurnsInPrompt); len(turns) > 0 {
		sb.WriteString("Previous conversation:\n")
		for _, turn := range turns {
			fmt.Fprintf(&sb, "%s: %s\n", turn.Role, turn.Content)
		}
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "User Query: %q\n\n", question)
	sb.WriteString("Please answer the user's question using ONLY the information from the provided context.")
	return sb.String()
}

const replySystemPrompt = `You are a friendly engineering knowledge assistant. Reply briefly and naturally to the user's conversational message. Do not invent facts about documents or projects.`

func recentTurns(history []domain.Turn, n int) []domain.Turn {
	if len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}
