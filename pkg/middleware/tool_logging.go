package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// bulkyArguments are tool parameters that carry whole JSON documents
// (analysis payloads, export envelopes, duplicate match lists). They are
// logged by size rather than content.
var bulkyArguments = map[string]bool{
	"payload":  true,
	"envelope": true,
	"matches":  true,
}

// ToolCallLogger returns middleware that logs MCP tool calls flowing through
// the streamable HTTP transport. It parses the JSON-RPC request to extract
// the tool name and arguments, and the response to distinguish success from
// error. A nil logger disables logging.
func ToolCallLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if logger == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(r.Body)
			if err != nil {
				logger.Error("Failed to read MCP request body", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			var rpcReq toolCallRequest
			// Not every frame is a tool call; non-JSON or non-call frames
			// still pass through with an empty tool name.
			_ = json.Unmarshal(body, &rpcReq)

			logger.Debug("MCP request",
				zap.String("method", rpcReq.Method),
				zap.String("tool", rpcReq.Params.Name),
				zap.Any("arguments", elideArguments(rpcReq.Params.Arguments)),
			)

			rec := &bodyRecorder{ResponseWriter: w, body: &bytes.Buffer{}}
			start := time.Now()

			next.ServeHTTP(rec, r)

			var rpcResp toolCallResponse
			if err := json.Unmarshal(rec.body.Bytes(), &rpcResp); err != nil {
				return
			}

			if rpcResp.Error != nil {
				logger.Debug("MCP response error",
					zap.String("tool", rpcReq.Params.Name),
					zap.Int("error_code", rpcResp.Error.Code),
					zap.String("error_message", rpcResp.Error.Message),
					zap.Duration("elapsed", time.Since(start)),
				)
				return
			}
			logger.Debug("MCP response",
				zap.String("tool", rpcReq.Params.Name),
				zap.Duration("elapsed", time.Since(start)),
			)
		})
	}
}

type toolCallRequest struct {
	Method string `json:"method"`
	Params struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	} `json:"params"`
}

type toolCallResponse struct {
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// bodyRecorder tees the response body so the JSON-RPC result can be parsed
// after the handler runs.
type bodyRecorder struct {
	http.ResponseWriter
	body *bytes.Buffer
}

func (rec *bodyRecorder) Write(b []byte) (int, error) {
	rec.body.Write(b)
	return rec.ResponseWriter.Write(b)
}

// elideArguments replaces document-sized argument values with a byte count
// and truncates any remaining long strings.
func elideArguments(args map[string]any) map[string]any {
	if args == nil {
		return nil
	}

	out := make(map[string]any, len(args))
	for k, v := range args {
		if str, ok := v.(string); ok {
			if bulkyArguments[k] {
				out[k] = fmt.Sprintf("<%d bytes>", len(str))
				continue
			}
			if len(str) > 200 {
				out[k] = str[:200] + "..."
				continue
			}
		}
		out[k] = v
	}
	return out
}
