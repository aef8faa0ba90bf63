package matcher

import "errors"

// errInvalidDynamicMatcher is wrapped by [NewDynamic] validation failures.
var errInvalidDynamicMatcher = errors.New("invalid dynamic matcher")
