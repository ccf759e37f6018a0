package prediction

import "fmt"

// NoViableAltError reports that prediction exhausted every alternative of a
// decision. The driver wraps it with the offending token and rule context.
type NoViableAltError struct {
	Decision       int
	StartIndex     int
	OffendingIndex int
	Configs        *ATNConfigSet
}

func (e *NoViableAltError) Error() string {
	return fmt.Sprintf("no viable alternative at decision %v (input %v..%v)", e.Decision, e.StartIndex, e.OffendingIndex)
}
