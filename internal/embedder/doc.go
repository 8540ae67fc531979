// Package embedder turns chunk text into vectors for similarity search.
//
// A Client wraps one provider backend (OpenAI, Azure OpenAI or the
// deterministic local backend) and adds what every provider needs: an LRU
// cache keyed by content hash, a request rate limiter, batching up to the
// provider limit and retry with exponential backoff.
//
// # Basic Usage
//
//	client, err := embedder.New(embedder.Config{Provider: embedder.ProviderLocal})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	embs, err := client.Embed(ctx, []string{chunk.Content})
//
// Texts already in the cache are not sent to the provider. The remaining
// texts are sent in batches of at most MaxBatchSize, each batch waiting
// on the rate limiter first.
//
// # Provider Selection
//
// Config.Provider selects the backend. DetectProvider picks one from the
// environment: IBCRAG_EMBEDDING_PROVIDER if set, otherwise Azure when
// AZURE_OPENAI_API_KEY is set, OpenAI when OPENAI_API_KEY is set and the
// local backend otherwise.
//
// The local backend needs no network access. Its vectors are derived from
// a SHA-256 stream of the text, so identical texts embed identically but
// similarity carries no meaning. It exists for offline use and tests.
package embedder
