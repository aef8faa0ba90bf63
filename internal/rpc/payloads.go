package rpc

// This file defines the concrete payload shapes carried in the params of the
// Notification/Request messages brickwarden and its plugins exchange. They
// are grounded directly in the wire examples given for the built-in matchers
// and the plugin-facing method table, and in the original Rust
// `plugin::payloads` module's serde-tagged structs.

// ChatParams is the params of a "chat" notification, emitted by the built-in
// chat matcher.
type ChatParams struct {
	User    string `json:"user"`
	Message string `json:"message"`
}

// ConnectParams is the params of a "connect" notification, emitted by the
// built-in connect matcher once all four of its sub-lines have matched.
type ConnectParams struct {
	Name string `json:"name"`
	UUID string `json:"uuid"`
}

// LogSeverity is the severity a plugin attaches to a "log" method call. It
// mirrors brickwarden's own [logging.Level] names rather than introducing a
// second vocabulary.
type LogSeverity string

// Severities a plugin may report via the "log" method.
const (
	LogSeverityTrace LogSeverity = "Trace"
	LogSeverityDebug LogSeverity = "Debug"
	LogSeverityInfo  LogSeverity = "Info"
	LogSeverityWarn  LogSeverity = "Warn"
	LogSeverityError LogSeverity = "Error"
)

// LogParams is the params of a "log" method call: a plugin asking the
// supervisor to relay a message through its own logger.
type LogParams struct {
	Severity LogSeverity `json:"severity"`
	Content  string      `json:"content"`
}

// RegisterMatcherParams is the params of a "register_matcher" method call: a
// plugin asking the supervisor to construct a dynamic regex matcher on its
// behalf. The schema is not dictated by the source material (spec.md §9,
// Open Question 3); regexes are matched in order, consecutively, at a single
// emitter index, the same contract the built-in matchers follow, and
// timeoutMs bounds how long a partially-advanced instance may live before
// it is garbage-collected.
type RegisterMatcherParams struct {
	Regexes   []string `json:"regexes"`
	TimeoutMS int64    `json:"timeoutMs"`
}

// MatcherCapturesParams is the params of the "matcher_captures" notification
// sent back to every plugin once a dynamic matcher registered via
// "register_matcher" completes. Captures holds one map of named capture
// groups per regex position, in the order the matcher's regexes were given,
// per spec.md §3's "list of map, indexed by regex position" data model; a
// group name reused across regex positions keeps both values instead of one
// overwriting the other.
type MatcherCapturesParams struct {
	Captures []map[string]string `json:"captures"`
}

// BroadcastParams is the params of a "broadcast" method call. Unlike the
// other payloads it is a bare JSON string, not an object, so it is decoded
// with DecodeParams[string], not a dedicated struct.
type BroadcastParams = string

// WritelnParams is the params of a "writeln" method call: also a bare JSON
// string.
type WritelnParams = string
