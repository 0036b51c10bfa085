package domain

// Code is the outcome code reported at the request boundary.
type Code string

const (
	CodeOK               Code = "OK"
	CodeBadInput         Code = "BAD_INPUT"
	CodeNoContent        Code = "NO_CONTENT"
	CodeInternalError    Code = "INTERNAL_ERROR"
	CodeUnsupportedRoute Code = "UNSUPPORTED_ROUTE"
)

// OutcomeKind is the tag of an Outcome.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeBadInput
	OutcomeNoClassFound
	OutcomeConfigInvalid
	OutcomeFailed
)

// Request is one feature info request.
type Request struct {
	Identifier       string `json:"iri" query:"iri" form:"iri"`
	EndpointOverride string `json:"endpoint,omitempty" query:"endpoint" form:"endpoint"`
}

// Outcome is the combined result of one request.
type Outcome struct {
	Kind        OutcomeKind
	Description string // Safe, human-readable description for failures
	Class       string
	Meta        MetadataRecord
	Time        []TaggedSample
	HasTime     bool     // False when the time section must be omitted
	Warnings    []string // Degraded sections of a successful outcome
}

// Code maps the outcome to its boundary code.
func (o Outcome) Code() Code {
	switch o.Kind {
	case OutcomeSuccess:
		return CodeOK
	case OutcomeBadInput:
		return CodeBadInput
	case OutcomeNoClassFound:
		return CodeNoContent
	default:
		return CodeInternalError
	}
}
