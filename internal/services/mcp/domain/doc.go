// Package domain maps MCP tool calls onto the WFRP3e dice engine.
//
// Each tool has a constructor describing it and a handler that builds a pool
// or formula, evaluates it and returns a structured result. Domain errors are
// returned with their code as the message prefix, e.g. "UNKNOWN_DIE_TYPE: ...".
package domain
