package models

import "errors"

// ErrorKind classifies failures of the note generation pipeline.
type ErrorKind int

const (
	ErrKindUnknown ErrorKind = iota
	ErrKindValidation
	ErrKindCorpusUnavailable
	ErrKindEmbeddingService
	ErrKindGenerationService
)

func (k ErrorKind) String() string {
	switch k {
	case ErrKindValidation:
		return "ValidationError"
	case ErrKindCorpusUnavailable:
		return "CorpusUnavailable"
	case ErrKindEmbeddingService:
		return "EmbeddingServiceError"
	case ErrKindGenerationService:
		return "GenerationServiceError"
	default:
		return "InternalError"
	}
}

// Error attaches an ErrorKind to an underlying error.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError wraps err with kind. A nil err stays nil.
func NewError(kind ErrorKind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

// KindOf returns the kind of the outermost classified error in err's chain,
// or ErrKindUnknown if there is none.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrKindUnknown
}
