package domain

// ContentType identifies which kind of learning content a review item
// schedules. The scheduler only ever holds (ContentType, ContentID)
// references; fetching the actual content is the calling layer's concern.
type ContentType string

// Supported content types.
const (
	ContentTypeFlashcard     ContentType = "flashcard"
	ContentTypeQuestion      ContentType = "question"
	ContentTypeErrorNotebook ContentType = "error_notebook"
)

// AllContentTypes lists every supported content type in the default
// tie-breaking priority order used by the queue builder: questions first,
// then flashcards, then error-notebook entries.
var AllContentTypes = []ContentType{
	ContentTypeQuestion,
	ContentTypeFlashcard,
	ContentTypeErrorNotebook,
}

// IsValid reports whether t is one of the supported content types.
func (t ContentType) IsValid() bool {
	switch t {
	case ContentTypeFlashcard, ContentTypeQuestion, ContentTypeErrorNotebook:
		return true
	default:
		return false
	}
}

// String returns the wire representation of the content type.
func (t ContentType) String() string {
	return string(t)
}
