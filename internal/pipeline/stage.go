package pipeline

// StageResult separates "stage produced no data" from "stage failed". A
// failed stage still carries its documented empty value in Data, so callers
// can always continue with it; Err exists for the run report, not for
// control flow.
type StageResult[T any] struct {
	Data T
	Err  error
}

func ok[T any](data T) StageResult[T] {
	return StageResult[T]{Data: data}
}

func failed[T any](empty T, err error) StageResult[T] {
	return StageResult[T]{Data: empty, Err: err}
}

// Failed reports whether the stage recorded an error.
func (r StageResult[T]) Failed() bool { return r.Err != nil }
