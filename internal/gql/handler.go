package gql

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/gqlerrors"
	"github.com/graphql-go/graphql/language/location"
)

type Handler struct {
	schema graphql.Schema
}

func NewHandler(schema graphql.Schema) *Handler {
	return &Handler{schema: schema}
}

type request struct {
	Query         string                 `json:"query"`
	Variables     map[string]interface{} `json:"variables"`
	OperationName string                 `json:"operationName"`
}

type errorBody struct {
	Message   string                    `json:"message"`
	Status    int                       `json:"status,omitempty"`
	Data      interface{}               `json:"data,omitempty"`
	Locations []location.SourceLocation `json:"locations,omitempty"`
	Path      []interface{}             `json:"path,omitempty"`
}

type responseBody struct {
	Data   interface{} `json:"data"`
	Errors []errorBody `json:"errors,omitempty"`
}

func (h *Handler) Serve(c *gin.Context) {
	req, ok := parseRequest(c)
	if !ok {
		c.JSON(http.StatusBadRequest, responseBody{Errors: []errorBody{{Message: "invalid request body"}}})
		return
	}
	if req.Query == "" {
		c.JSON(http.StatusBadRequest, responseBody{Errors: []errorBody{{Message: "must provide query string"}}})
		return
	}
	result := graphql.Do(graphql.Params{
		Schema:         h.schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        c.Request.Context(),
	})
	status := http.StatusOK
	if result.Data == nil && len(result.Errors) > 0 && !executed(result.Errors) {
		status = http.StatusBadRequest
	}
	c.JSON(status, responseBody{Data: result.Data, Errors: formatErrors(result.Errors)})
}

func parseRequest(c *gin.Context) (request, bool) {
	var req request
	if c.Request.Method == http.MethodGet {
		req.Query = c.Query("query")
		req.OperationName = c.Query("operationName")
		if raw := c.Query("variables"); raw != "" {
			if err := json.Unmarshal([]byte(raw), &req.Variables); err != nil {
				return req, false
			}
		}
		return req, true
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		return req, false
	}
	return req, true
}

// executed reports whether errors came from resolvers rather than parsing or validation.
func executed(errs []gqlerrors.FormattedError) bool {
	for _, fe := range errs {
		if len(fe.Path) > 0 {
			return true
		}
	}
	return false
}

func formatErrors(errs []gqlerrors.FormattedError) []errorBody {
	if len(errs) == 0 {
		return nil
	}
	out := make([]errorBody, 0, len(errs))
	for _, fe := range errs {
		body := errorBody{
			Message:   fe.Message,
			Locations: fe.Locations,
			Path:      fe.Path,
		}
		if status, ok := fe.Extensions["status"].(int); ok {
			body.Status = status
		} else if len(fe.Path) > 0 {
			body.Status = http.StatusInternalServerError
		}
		if data, ok := fe.Extensions["data"]; ok {
			body.Data = data
		}
		out = append(out, body)
	}
	return out
}
