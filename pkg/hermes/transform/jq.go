package transform

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/itchyny/gojq"
	"go.uber.org/zap"

	"github.com/tsarna/hermes/pkg/hermes/topic"
)

// Jq returns a Func that replaces each payload with the result of a jq
// query. The query can use these variables:
//
//	$topic   the encoded topic
//	$family  the hermes family, or null for a non-hermes topic
//	$site    the site of a per-site topic, or null
//
// Payloads are converted to plain JSON values first: strings and byte slices
// are parsed as JSON when they can be, structs go through encoding/json.
// A query yielding nothing drops the message; several results become an
// array. Runtime errors are logged and the message passes unchanged.
func Jq(query string, logger *zap.Logger) (Func, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	parsed, err := gojq.Parse(query)
	if err != nil {
		return nil, fmt.Errorf("failed to parse jq query %q: %w", query, err)
	}

	code, err := gojq.Compile(parsed, gojq.WithVariables([]string{"$topic", "$family", "$site"}))
	if err != nil {
		return nil, fmt.Errorf("failed to compile jq query %q: %w", query, err)
	}

	return func(msg *Message) (*Message, bool) {
		input, err := toJqInput(msg.Payload)
		if err != nil {
			logger.Error("jq transform: cannot convert payload",
				zap.String("jq_query", query),
				zap.String("topic", msg.Topic),
				zap.String("payload_type", fmt.Sprintf("%T", msg.Payload)),
				zap.Error(err))
			return msg, true
		}

		var family, site any
		if t, ok := topic.Decode(msg.Topic); ok {
			family = t.Family().Path()
			if s := topic.SiteOf(t); s != "" {
				site = s
			}
		}

		ctx := msg.Ctx
		if ctx == nil {
			ctx = context.Background()
		}

		var results []any
		iter := code.RunWithContext(ctx, input, msg.Topic, family, site)
		for {
			result, ok := iter.Next()
			if !ok {
				break
			}
			if err, ok := result.(error); ok {
				logger.Error("jq transform: execution error",
					zap.String("jq_query", query),
					zap.String("topic", msg.Topic),
					zap.Error(err))
				return msg, true
			}
			results = append(results, result)
		}

		switch len(results) {
		case 0:
			return nil, false
		case 1:
			return &Message{Ctx: msg.Ctx, Topic: msg.Topic, Payload: results[0]}, true
		default:
			return &Message{Ctx: msg.Ctx, Topic: msg.Topic, Payload: results}, true
		}
	}, nil
}

func toJqInput(payload any) (any, error) {
	var out any

	switch v := payload.(type) {
	case nil:
		return nil, nil
	case string:
		if err := json.Unmarshal([]byte(v), &out); err != nil {
			return v, nil
		}
		return out, nil
	case []byte:
		if err := json.Unmarshal(v, &out); err != nil {
			return string(v), nil
		}
		return out, nil
	case json.RawMessage:
		err := json.Unmarshal(v, &out)
		return out, err
	case bool, int, float64, []any, map[string]any:
		return payload, nil
	}

	// anything else, structs and typed maps included, goes through JSON
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	err = json.Unmarshal(data, &out)
	return out, err
}
