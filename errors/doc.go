// Package errors provides standardized error handling for gqlwire.
//
// Errors fall into three classes: Transient (temporary, retryable), Invalid
// (bad input or markers, not retryable) and Fatal (the build cannot continue).
// Classification drives two decisions in the pipeline:
//
//   - during the scan phase, Invalid member failures are recorded in the scan
//     report and logged while the remaining members keep registering;
//   - during execution, the class selects the extensions.code attached to the
//     GraphQL error returned to the client.
//
// # Error Wrapping Pattern
//
// All error wrapping follows the format:
//
//	"component.method: action failed: %w"
//
// Three wrapper functions attach a class while keeping the chain intact for
// errors.Is and errors.As:
//
//	errors.WrapTransient(err, "NATSLoader", "Batch", "request")
//	errors.WrapInvalid(err, "LoaderStrategy", "Parse", "invoke member")
//	errors.WrapFatal(err, "Assembler", "Assemble", "load schema")
//
// # Retry
//
// RetryConfig decides whether a transient failure, such as a remote batch
// request that timed out, should be attempted again and how long to wait.
package errors
