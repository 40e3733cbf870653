// Package engine orchestrates code generation.
//
// A Generator drives one intent through a fixed sequence of stages with a
// single conditional backward step:
//
//	AST build -> IR build -> emit -> validate
//	                                    | failure
//	                                    v
//	                   repair once -> IR build -> emit -> validate -> artifact
//
// The success path never touches the repair branch. When repair fails, or
// the repaired tree still fails validation, the artifact is returned with
// Validation.Success == false rather than as an error. At most two
// emit+validate passes run per call (MaxAttempts).
//
// Errors are reserved for cases with no artifact at all: malformed intents,
// unimplemented (language, kind) combinations, invariant violations in the
// IR, strict node policy, cancellation and persistence failures. See
// GenerateError.
//
// CONCURRENCY:
//
// Stages never block and share no mutable state between calls. Grammars
// are built once per process and read-only afterwards. Generate is safe
// for concurrent use; GenerateBatch runs a bounded errgroup worker pool.
// The context is consulted between stages only; a stage, once started,
// runs to completion.
//
// ORDERING:
//
// Every artifact is stamped with a seq from the logical Clock. The store
// orders by seq, never wall time, so a replayed log compares byte for byte.
package engine
