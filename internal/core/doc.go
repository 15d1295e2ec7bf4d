// Package core hosts the conversion engine behind a service that any
// frontend can call.
//
// The engine in package transcode is synchronous and pure. This package adds
// the resource model around it:
//
//   - Operations: each conversion is registered by name in an
//     [OperationRegistry] together with its media type and file extension.
//   - Limits: bodies are read up to a size limit by [ReadInput], and a
//     [ConversionLimiter] bounds how many conversions run at once.
//   - Timeouts: every call runs on a worker goroutine. When the caller's
//     context ends or the timeout passes, the call returns and the worker's
//     result is discarded.
//   - Artifacts: outputs are persisted through a store.Store so they can be
//     downloaded later, and a retention job purges old ones.
//
// # Error Handling
//
// Typed engine errors and the sentinels of this package map to coded user
// messages through [MapError]:
//
//   - XML001, INP001, TAB001, REC001, REP001, SCH001: document errors
//   - CNV001-CNV005: limiter, size, operation, timeout and format errors
//   - ART001: unknown artifact
//
// Logging uses log/slog through the logging package so request IDs follow
// each conversion into the logs.
package core
