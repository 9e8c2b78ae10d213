package expressions

import (
	"github.com/google/uuid"

	"github.com/rendis/flowgate/internal/safety"
	"github.com/rendis/flowgate/pkg/schema"
)

// Builtins returns the rich-object constructor functions injected into the
// expr evaluation environment. Under a safe policy every constructor is
// still present but fails with UNSAFE_OPERATION_BLOCKED, so a template that
// references one fails loudly instead of silently degrading.
//
// These are the only operations capable of constructing a new rich object
// from inside a template; plain data access is never gated here.
func Builtins(policy safety.Policy) map[string]any {
	blocked := func(name string) error {
		return schema.NewErrorf(schema.ErrCodeUnsafeBlocked,
			"builtin %q constructs a rich object and requires unsafe mode", name).
			WithDetails(map[string]any{"builtin": name})
	}

	return map[string]any{
		"message": func(role, content string) (*schema.ChatMessage, error) {
			if !policy.Allows(safety.OpConstructRich) {
				return nil, blocked("message")
			}
			return &schema.ChatMessage{Role: role, Content: content}, nil
		},
		"document": func(content string) (*schema.Document, error) {
			if !policy.Allows(safety.OpConstructRich) {
				return nil, blocked("document")
			}
			return &schema.Document{ID: uuid.NewString(), Content: content}, nil
		},
		"answer": func(query, data string) (*schema.Answer, error) {
			if !policy.Allows(safety.OpConstructRich) {
				return nil, blocked("answer")
			}
			return &schema.Answer{Query: query, Data: data}, nil
		},
	}
}

// BuiltinNames lists the reserved environment names claimed by Builtins.
// Component inputs may not shadow them.
func BuiltinNames() []string {
	return []string{"message", "document", "answer"}
}
