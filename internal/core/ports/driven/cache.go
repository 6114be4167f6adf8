package driven

// ResponseCache memoizes prompt/response pairs so repeated questions
// skip the remote chat-completion call. Entries expire and the cache
// is bounded, so absence is always a possible answer.
type ResponseCache interface {
	// Get returns the cached response for a prompt and optional
	// context, or ok=false on a miss.
	Get(prompt, context string) (response string, ok bool)

	// Set stores a response for a prompt and optional context.
	Set(prompt, context, response string)

	// Len reports the number of live entries.
	Len() int
}
