// Package audit records executed statements as structured audit events.
//
// An Auditor plugs into the connection adapter as a core.QueryHook. Bound
// values are never logged: only a SHA-256 digest of them is kept.
package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/coregx/sqlforge/internal/core"
	"github.com/coregx/sqlforge/internal/logger"
	"github.com/coregx/sqlforge/internal/tracer"
)

// Level defines which statements are audited.
type Level int

const (
	// None disables auditing.
	None Level = iota
	// Writes audits INSERT, UPDATE and DELETE.
	Writes
	// Reads audits SELECT only.
	Reads
	// All audits every statement, including raw DDL.
	All
)

// ParseLevel maps a configuration value to a Level. The empty string is None.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "off":
		return None, nil
	case "writes":
		return Writes, nil
	case "reads":
		return Reads, nil
	case "all":
		return All, nil
	default:
		return None, fmt.Errorf("unknown audit level %q", s)
	}
}

// Event is a single audited statement.
type Event struct {
	Timestamp    time.Time `json:"timestamp"`
	User         string    `json:"user,omitempty"`
	Operation    string    `json:"operation"`
	Table        string    `json:"table,omitempty"`
	AffectedRows int64     `json:"affected_rows"`
	SQL          string    `json:"sql"`
	ArgsHash     string    `json:"args_hash,omitempty"`
	RequestID    string    `json:"request_id,omitempty"`
	QueryID      string    `json:"query_id"`
	Success      bool      `json:"success"`
	Error        string    `json:"error,omitempty"`
	Duration     int64     `json:"duration_ms"`
}

// Auditor writes audit events to a Logger.
type Auditor struct {
	logger logger.Logger
	level  Level
	now    func() time.Time
}

// New creates an Auditor. A nil logger disables it.
func New(log logger.Logger, level Level) *Auditor {
	return &Auditor{logger: log, level: level, now: time.Now}
}

// Hook returns the core.QueryHook that feeds this Auditor.
func (a *Auditor) Hook() core.QueryHook {
	return func(ctx context.Context, e core.QueryEvent) {
		if !a.shouldLog(e.Operation) {
			return
		}
		a.log(a.Event(ctx, e))
	}
}

// Event builds the audit record for an executed statement.
func (a *Auditor) Event(ctx context.Context, e core.QueryEvent) Event {
	ev := Event{
		Timestamp: a.now().UTC(),
		User:      User(ctx),
		RequestID: RequestID(ctx),
		Operation: e.Operation,
		Table:     tracer.DetectTable(e.SQL),
		SQL:       e.SQL,
		ArgsHash:  hashArgs(e.Args),
		QueryID:   e.QueryID,
		Success:   e.Error == nil,
		Duration:  e.Duration.Milliseconds(),
	}
	if e.Error != nil {
		ev.Error = e.Error.Error()
	} else {
		ev.AffectedRows = e.RowsAffected
	}
	return ev
}

func (a *Auditor) shouldLog(operation string) bool {
	if a.logger == nil {
		return false
	}
	switch a.level {
	case Writes:
		return operation == "INSERT" || operation == "UPDATE" || operation == "DELETE"
	case Reads:
		return operation == "SELECT"
	case All:
		return true
	default:
		return false
	}
}

func (a *Auditor) log(ev Event) {
	logFn := a.logger.Info
	if !ev.Success {
		logFn = a.logger.Warn
	}
	logFn("audit_event",
		"timestamp", ev.Timestamp,
		"user", ev.User,
		"operation", ev.Operation,
		"table", ev.Table,
		"affected_rows", ev.AffectedRows,
		"sql", ev.SQL,
		"args_hash", ev.ArgsHash,
		"request_id", ev.RequestID,
		"query_id", ev.QueryID,
		"success", ev.Success,
		"error", ev.Error,
		"duration_ms", ev.Duration,
	)
}

func hashArgs(args []interface{}) string {
	if len(args) == 0 {
		return ""
	}
	h := sha256.New()
	for _, arg := range args {
		_, _ = fmt.Fprintf(h, "%v\x00", arg)
	}
	return hex.EncodeToString(h.Sum(nil))
}

type contextKey string

const (
	userKey      contextKey = "sqlforge:user"
	requestIDKey contextKey = "sqlforge:request_id"
)

// WithUser attaches the acting user to ctx.
func WithUser(ctx context.Context, user string) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// WithRequestID attaches a request id to ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// User returns the user attached by WithUser.
func User(ctx context.Context) string {
	user, _ := ctx.Value(userKey).(string)
	return user
}

// RequestID returns the request id attached by WithRequestID.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
