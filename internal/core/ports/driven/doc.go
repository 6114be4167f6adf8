// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - DocumentStore: Document persistence
//   - ChunkStore: Chunk persistence and similarity matching
//   - EmbeddingService: Generates vector embeddings. The provider chain
//     guarantees one is always available (the local tier needs no network).
//   - ResponseCache: Memoizes generated responses
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - LLMService: Chat completion. Without it, response generation falls
//     back to the local template and analysis returns error-shaped results.
//   - Connector / Normaliser: Only needed by the ingestion path.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or normaliser package
package driven
