package driven

// PromptStore provides access to LLM prompt templates. Implementations
// may load prompts from files or embed defaults in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names.
const (
	// PromptAnswerSystem is the grounded-answer system prompt. It forbids
	// content outside the retrieved context and mandates source citations.
	PromptAnswerSystem = "answer_system"

	// PromptAnswerUser wraps the retrieved context and the question.
	// The template expects %s (context) and %s (question) placeholders.
	PromptAnswerUser = "answer_user"

	// PromptIntentClassify asks the model to label a query GLOBAL or
	// DETAIL. The template expects a %s placeholder for the query.
	PromptIntentClassify = "intent_classify"
)
