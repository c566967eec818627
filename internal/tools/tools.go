// Package tools implements the concrete tools exposed to agents: a Pink
// Floyd song database and a currency exchange rate checker. Each tool
// provides a schema definition for the model and a handler that renders
// its result as plain text.
package tools

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/nidhogg/echoes/internal/agent"
	"github.com/nidhogg/echoes/internal/songdb"
)

// RegisterAll wires the standard tool set into a registry.
func RegisterAll(reg *agent.ToolRegistry, db *songdb.DB, logger *zap.Logger) {
	floyd := NewFloyd(db)
	reg.Register(floyd.Definition(), floyd.Invoke)

	currency := NewCurrency(logger)
	reg.Register(currency.Definition(), currency.Invoke)
}

// queryFromArgs recovers the query text from a tool call's JSON arguments.
// Models usually send {"query": "..."} but sometimes invent their own
// argument names, so any other object is flattened to its values in key
// order. Non-JSON payloads are used as-is.
func queryFromArgs(args string) string {
	if args == "" {
		return ""
	}

	var m map[string]interface{}
	if err := json.Unmarshal([]byte(args), &m); err != nil {
		return strings.TrimSpace(args)
	}

	if q, ok := m["query"].(string); ok {
		return q
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			parts = append(parts, v)
		case float64:
			parts = append(parts, fmt.Sprintf("%g", v))
		}
	}
	return strings.Join(parts, " ")
}
