package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/parser"

	"github.com/HammerMeetNail/thoughtwall/internal/graph"
	"github.com/HammerMeetNail/thoughtwall/internal/logging"
)

const maxGraphQLBodyBytes = 1 << 20

// Executor runs a parsed GraphQL request.
type Executor interface {
	Execute(ctx context.Context, req graph.Request) *graphql.Result
}

type GraphQLHandler struct {
	executor Executor
}

func NewGraphQLHandler(executor Executor) *GraphQLHandler {
	return &GraphQLHandler{executor: executor}
}

// Serve accepts POST bodies and GET query strings. Execution errors are
// reported inside the result with status 200.
func (h *GraphQLHandler) Serve(w http.ResponseWriter, r *http.Request) {
	var req graph.Request
	switch r.Method {
	case http.MethodPost:
		r.Body = http.MaxBytesReader(w, r.Body, maxGraphQLBodyBytes)
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	case http.MethodGet:
		q := r.URL.Query()
		req.Query = q.Get("query")
		req.OperationName = q.Get("operationName")
		if raw := q.Get("variables"); raw != "" {
			if err := json.Unmarshal([]byte(raw), &req.Variables); err != nil {
				writeError(w, http.StatusBadRequest, "Invalid variables")
				return
			}
		}
		if isMutation(req.Query, req.OperationName) {
			writeError(w, http.StatusMethodNotAllowed, "Mutations require POST")
			return
		}
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "Query is required")
		return
	}

	result := h.executor.Execute(r.Context(), req)
	if result.HasErrors() {
		messages := make([]string, 0, len(result.Errors))
		for _, e := range result.Errors {
			messages = append(messages, e.Message)
		}
		logging.Debug("GraphQL request returned errors", map[string]interface{}{
			"operation": req.OperationName,
			"errors":    messages,
		})
	}
	writeJSON(w, http.StatusOK, result)
}

// isMutation reports whether the operation the executor would select is a
// mutation. Documents that fail to parse or select nothing are left to the
// executor, which rejects them without running anything.
func isMutation(query, operationName string) bool {
	doc, err := parser.Parse(parser.ParseParams{Source: query})
	if err != nil {
		return false
	}

	var selected *ast.OperationDefinition
	count := 0
	for _, def := range doc.Definitions {
		op, ok := def.(*ast.OperationDefinition)
		if !ok {
			continue
		}
		count++
		if operationName == "" {
			selected = op
			continue
		}
		if op.GetName() != nil && op.GetName().Value == operationName {
			selected = op
		}
	}
	if operationName == "" && count != 1 {
		return false
	}
	return selected != nil && selected.GetOperation() == ast.OperationTypeMutation
}
