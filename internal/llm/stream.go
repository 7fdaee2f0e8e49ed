package llm

// ChunkFunc receives one string fragment of a streaming response. Fragments
// arrive strictly in stream order; a provider never invokes the same
// request's callbacks concurrently.
type ChunkFunc func(chunk string)
