package pipeline

import "github.com/rotisserie/eris"

// ErrMissingPayload marks a submission with no body, no answer-set, or no
// report number. Returned before any side effect; the caller can correct
// and resubmit.
var ErrMissingPayload = eris.New("missing submission payload")
