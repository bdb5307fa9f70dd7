/*
Package tokenizer measures text in model tokens.

The Tokenizer interface exposes CountTokens, Encode and Decode. Decode of a
token prefix reconstructs a text prefix, which is what the session package
relies on for trailing-token truncation.

Two implementations are provided:

  - Tiktoken: exact counts for OpenAI-family models via tiktoken-go,
    with lazy encoding initialization.
  - Estimator: character-class heuristic used when no real tokenizer is
    registered for a model. It cannot decode.

AsyncCounter offloads counting to a bounded worker pool for large inputs;
its results match the blocking path exactly.
*/
package tokenizer
