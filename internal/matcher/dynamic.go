package matcher

import (
	"fmt"
	"regexp"
	"time"

	"github.com/brickwarden/brickwarden/internal/rpc"
)

// NewDynamic compiles a plugin's register_matcher request into a Matcher.
// Its completion handler publishes one capture map per regex position, in
// order, as a matcher_captures notification, per the params schema chosen
// in DESIGN.md to resolve spec.md §9's open question on this method.
func NewDynamic(name string, params rpc.RegisterMatcherParams) (*Matcher, error) {
	if len(params.Regexes) == 0 {
		return nil, fmt.Errorf("%w: register_matcher requires at least one regex", errInvalidDynamicMatcher)
	}

	regexes := make([]*regexp.Regexp, len(params.Regexes))

	for i, pattern := range params.Regexes {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("failed to compile regex %q: %w", pattern, err)
		}

		regexes[i] = re
	}

	timeout := defaultTimeout
	if params.TimeoutMS > 0 {
		timeout = time.Duration(params.TimeoutMS) * time.Millisecond
	}

	return &Matcher{
		Name:    name,
		Regexes: regexes,
		Timeout: timeout,
		Complete: func(captures []map[string]string) (rpc.Notification, error) {
			n, err := rpc.NewNotification("matcher_captures", rpc.MatcherCapturesParams{Captures: captures})
			if err != nil {
				return rpc.Notification{}, fmt.Errorf("failed to build matcher_captures notification: %w", err) //nolint:exhaustruct,lll
			}

			return n, nil
		},
	}, nil
}
