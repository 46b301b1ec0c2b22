package models

import "fmt"

// ProvisionErrorKind classifies why a model could not be made available.
type ProvisionErrorKind int

const (
	UserDeclined ProvisionErrorKind = iota + 1
	ArchiveMissing
	ExtractionFailed
)

func (k ProvisionErrorKind) String() string {
	switch k {
	case UserDeclined:
		return "user declined"
	case ArchiveMissing:
		return "archive missing"
	case ExtractionFailed:
		return "extraction failed"
	default:
		return fmt.Sprintf("ProvisionErrorKind(%d)", int(k))
	}
}

// ProvisionError is returned by Provisioner.Ensure. Every kind is fatal to
// startup: there is nothing to transcribe with.
type ProvisionError struct {
	Kind  ProvisionErrorKind
	Model string
	Path  string // archive or cache path involved
	Err   error
}

func (e *ProvisionError) Error() string {
	switch e.Kind {
	case UserDeclined:
		return fmt.Sprintf("model %q: extraction declined, cannot continue without a model", e.Model)
	case ArchiveMissing:
		return fmt.Sprintf("model %q: archive not found at %s", e.Model, e.Path)
	default:
		if e.Err != nil {
			return fmt.Sprintf("model %q: extracting %s: %v", e.Model, e.Path, e.Err)
		}
		return fmt.Sprintf("model %q: extracting %s failed", e.Model, e.Path)
	}
}

func (e *ProvisionError) Unwrap() error { return e.Err }

// Is matches another *ProvisionError by kind, so callers can write
// errors.Is(err, &models.ProvisionError{Kind: models.UserDeclined}).
func (e *ProvisionError) Is(target error) bool {
	t, ok := target.(*ProvisionError)
	return ok && t.Kind == e.Kind
}
