package mcpserver

import (
	"encoding/json"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/tidwall/sjson"
	"go.uber.org/zap"

	"github.com/remotecontext/ctxfetch/internal/core"
)

const notGitRepoMessage = "Not a git repository. Context requires git."

// field is one member of a JSON object built by object.
type field struct {
	key   string
	value any
}

// object encodes fields as a JSON object, keeping their order.
func object(fields ...field) ([]byte, error) {
	out := []byte(`{}`)
	for _, f := range fields {
		raw, ok := f.value.(json.RawMessage)
		if !ok {
			var err error
			if raw, err = json.Marshal(f.value); err != nil {
				return nil, err
			}
		}
		var err error
		if out, err = sjson.SetRawBytes(out, core.EscapeJSONKey(f.key), raw); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// objectResult wraps fields into a tool result. An encoding failure turns
// into an error document.
func objectResult(logger *zap.Logger, fields ...field) *mcp.CallToolResult {
	data, err := object(fields...)
	if err != nil {
		return errorResult(logger, "encoding result", err)
	}
	return mcp.NewToolResultText(string(data))
}

// errorResult reports an unexpected failure as {"error": ...}.
func errorResult(logger *zap.Logger, op string, err error) *mcp.CallToolResult {
	logger.Error(op, zap.Error(err))
	data, _ := sjson.SetBytes([]byte(`{}`), "error", err.Error())
	return mcp.NewToolResultText(string(data))
}

// failureResult reports an expected failure as {"success": false, "error": ...}.
func failureResult(logger *zap.Logger, op string, msg string) *mcp.CallToolResult {
	logger.Warn(op, zap.String("error", msg))
	data, _ := sjson.SetBytes([]byte(`{"success":false}`), "error", msg)
	return mcp.NewToolResultText(string(data))
}

// resultFor picks the envelope for err: lookups of unknown names and
// workspaces outside git are expected failures, anything else is an error.
func resultFor(logger *zap.Logger, op string, err error) *mcp.CallToolResult {
	var nf *core.NotFoundError
	if errors.As(err, &nf) || errors.Is(err, core.ErrNotGitRepo) || errors.Is(err, core.ErrReadOnlySource) {
		return failureResult(logger, op, failureMessage(err))
	}
	return errorResult(logger, op, err)
}

func failureMessage(err error) string {
	if errors.Is(err, core.ErrNotGitRepo) {
		return notGitRepoMessage
	}
	return err.Error()
}
