package export

import "fmt"

// SaveErrorKind classifies a failed save.
type SaveErrorKind int

const (
	NothingToSave SaveErrorKind = iota + 1
	WriteFailure
)

// SaveError is returned by Exporter.Save. The in-memory transcript is never
// affected; the save can be retried.
type SaveError struct {
	Kind SaveErrorKind
	Path string
	Err  error
}

func (e *SaveError) Error() string {
	if e.Kind == NothingToSave {
		return "nothing to save: the transcript is empty"
	}
	return fmt.Sprintf("saving %s: %v", e.Path, e.Err)
}

func (e *SaveError) Unwrap() error { return e.Err }

// Is matches another *SaveError by kind.
func (e *SaveError) Is(target error) bool {
	t, ok := target.(*SaveError)
	return ok && t.Kind == e.Kind
}

// OpenAfterSaveError reports that a saved file could not be opened with the
// platform handler. It is informational only.
type OpenAfterSaveError struct {
	Path string
	Err  error
}

func (e *OpenAfterSaveError) Error() string {
	return fmt.Sprintf("saved, but could not open %s: %v", e.Path, e.Err)
}

func (e *OpenAfterSaveError) Unwrap() error { return e.Err }
