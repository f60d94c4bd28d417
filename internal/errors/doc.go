// Package errors provides the structured error type used across the
// progression service.
//
// It provides:
//   - Structured errors with codes, messages, and metadata
//   - Error context preservation through wrapping
//   - Validation error helpers for config checking
//   - Type-safe error checking
//
// # Basic Usage
//
// Creating errors:
//
//	err := errors.NotFound("skill not found")
//	err := errors.FailedPreconditionf("prerequisites not met for %s", skillID)
//
// Adding metadata:
//
//	err := errors.FailedPrecondition("prerequisites not met").
//	    WithMeta("missing_skills", missing)
//
// Wrapping errors:
//
//	if err := repo.Get(ctx, input); err != nil {
//	    return errors.Wrap(err, "failed to load unlock document")
//	}
//
// # Error Checking
//
//	if errors.IsFailedPrecondition(err) {
//	    missing := errors.GetMeta(err)["missing_skills"]
//	    // surface unmet prerequisites to the caller
//	}
//
// # Layer-Specific Guidelines
//
// Repository layer:
//   - Return domain-specific errors (NotFound, Unavailable)
//   - Include relevant IDs in metadata
//   - Wrap transport errors with context
//
// Orchestrator layer:
//   - Validate inputs and return InvalidArgument errors
//   - Check unlock gates and return FailedPrecondition errors
//   - Never surface persistence write errors from mutation methods;
//     those are logged out of band (writes are fire-and-forget)
//
// # Error Codes
//
// The following error codes are available:
//   - NotFound: skill or quest id not recognized
//   - InvalidArgument: invalid input provided
//   - AlreadyExists: resource already exists
//   - FailedPrecondition: unlock or quest gate requirements not met
//   - Unauthenticated: mutating operation with no signed-in user
//   - Unavailable: document store unreachable
//   - Internal: everything else
package errors
