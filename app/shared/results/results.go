// Package results carries the success-or-failure envelope returned by
// service operations. A failure payload is a handled business outcome,
// not an error; errors are reserved for infrastructure problems.
package results

// OperationResult holds at most one of a success or failure payload.
type OperationResult[S any, F any] struct {
	Success *S
	Failure *F
}

func Success[S any, F any](payload *S) OperationResult[S, F] {
	return OperationResult[S, F]{Success: payload}
}

func Failure[S any, F any](payload *F) OperationResult[S, F] {
	return OperationResult[S, F]{Failure: payload}
}

func (r OperationResult[S, F]) IsSuccess() bool {
	return r.Success != nil
}

func (r OperationResult[S, F]) IsFailure() bool {
	return r.Failure != nil
}
