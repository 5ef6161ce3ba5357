// Package llm provides LLM client implementations.
//
// The factory creates text generators based on provider configuration.
// Currently supports:
//   - Anthropic Claude
package llm
