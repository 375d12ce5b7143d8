// Package errors provides the structured error type shared by the producer
// and consumer halves of evtsrc.
//
// Every failure surfaced by the library is an *AppError carrying a
// machine-readable ErrorCode. Configuration and validation errors are returned
// synchronously from the call that caused them; connection-lifecycle and
// transport errors are delivered by rejecting pending promises.
//
// # Usage
//
//	if err := producer.Emit(chunk); errors.IsValidation(err) {
//	    // caller bug: fix the chunk
//	}
package errors
