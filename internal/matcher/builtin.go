package matcher

import (
	"fmt"
	"regexp"

	"github.com/brickwarden/brickwarden/internal/rpc"
	"github.com/google/uuid"
)

// Chat returns the built-in matcher recognizing chat lines, grounded on the
// wire example: "LogChat: alice: hello world" → {"user":"alice",
// "message":"hello world"}.
func Chat() *Matcher {
	return &Matcher{
		Name:    "chat",
		Regexes: []*regexp.Regexp{regexp.MustCompile(`^LogChat: (?P<user>[^:]+): (?P<message>.*)$`)},
		Timeout: defaultTimeout,
		Complete: func(captures []map[string]string) (rpc.Notification, error) {
			n, err := rpc.NewNotification("chat", rpc.ChatParams{
				User:    captures[0]["user"],
				Message: captures[0]["message"],
			})
			if err != nil {
				return rpc.Notification{}, fmt.Errorf("failed to build chat notification: %w", err) //nolint:exhaustruct
			}

			return n, nil
		},
	}
}

// Connect returns the built-in matcher recognizing a player's connection
// handshake, a four-line sequence that must occur consecutively at the same
// emitter index. The third line's captured id is parsed as a UUID; a
// malformed id fails the completion handler per spec.md §7's match-error
// policy, rather than being surfaced as a malformed event.
func Connect() *Matcher {
	return &Matcher{
		Name: "connect",
		Regexes: []*regexp.Regexp{
			regexp.MustCompile(`^LogServerList: Auth payload valid\. Result:$`),
			regexp.MustCompile(`^LogServerList: UserName: (?P<user>.+)$`),
			regexp.MustCompile(`^LogServerList: UserId: (?P<id>.+)$`),
			regexp.MustCompile(`^LogServerList: HandleId: (?P<handle>.+)$`),
		},
		Timeout: defaultTimeout,
		Complete: func(captures []map[string]string) (rpc.Notification, error) {
			rawID := captures[2]["id"]

			id, err := uuid.Parse(rawID)
			if err != nil {
				return rpc.Notification{}, fmt.Errorf("connect event carried an invalid uuid %q: %w", rawID, err) //nolint:exhaustruct,lll
			}

			n, err := rpc.NewNotification("connect", rpc.ConnectParams{
				Name: captures[1]["user"],
				UUID: id.String(),
			})
			if err != nil {
				return rpc.Notification{}, fmt.Errorf("failed to build connect notification: %w", err) //nolint:exhaustruct
			}

			return n, nil
		},
	}
}
