package usecase

import (
	"strings"

	"github.com/kirillkom/rag-chat/internal/core/domain"
)

// PolicyRefusal is the fixed reply for document-specific questions the
// context cannot answer.
const PolicyRefusal = "I'm sorry, I can't answer this question, this is against my policy."

// AnswerSystemInstruction is sent out-of-band with every retrieval prompt.
const AnswerSystemInstruction = "You are a helpful assistant answering questions about a specific document. " +
	"Your primary goal is to answer the user's question using the provided context. " +
	"The user's question might be phrased differently than the document; connect synonyms and related concepts. " +
	"If the context clearly contains the answer, or it can be inferred from the context, provide it. " +
	"If the question is about a specific policy, number, or detail, and the answer is not in the context, you MUST say: \"" +
	PolicyRefusal + "\" " +
	"Do not answer general-knowledge questions unrelated to the document."

const contextSeparator = "\n\n---\n\n"

// BuildAugmentedPrompt prefixes the question with the retrieved chunk contents.
func BuildAugmentedPrompt(chunks []domain.ScoredChunk, question string) string {
	contents := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		contents = append(contents, chunk.Content)
	}

	var b strings.Builder
	b.WriteString("Context:\n\"\"\"\n")
	b.WriteString(strings.Join(contents, contextSeparator))
	b.WriteString("\n\"\"\"\nUser Question:\n\"\"\"\n")
	b.WriteString(question)
	b.WriteString("\n\"\"\"")
	return b.String()
}

const intentSystemInstruction = `You route messages sent to a document question-answering assistant.
Decide whether the user message is a GREETING or a QUERY and reply with a single JSON object:
{"intent": "GREETING" | "QUERY", "response": "<string>"}

GREETING covers:
- plain greetings ("hi", "hello", "hey");
- time-based greetings ("good morning", "good evening");
- misspelled or playful greetings ("helo", "heyyy", "yo");
- personal or emotional statements aimed at the assistant ("you are great", "thanks", "I'm bored");
- light small talk ("how are you?", "what's up?").

For a GREETING, "response" is a short, friendly reply of one or two sentences that invites a question about the document. Do not state facts about the document.
Everything else is a QUERY; for a QUERY, "response" is an empty string.
Return only the JSON object, with no markdown and no extra keys.`
