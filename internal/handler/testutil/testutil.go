// Package testutil holds the HTTP test helpers shared by the handler tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	domainvalidator "github.com/makhanda-smiles/portal-api/pkg/validator"
)

func init() {
	gin.SetMode(gin.TestMode)
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = domainvalidator.Register(v)
	}
}

// APIResponse mirrors the response envelope.
type APIResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (r APIResponse) IsSuccess() bool {
	return r.Status == "success"
}

// Decode unmarshals Data into v.
func (r APIResponse) Decode(t *testing.T, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.Data, v))
}

// NewRouter returns an engine with a /api/v1 group for handlers to register on.
func NewRouter(mw ...gin.HandlerFunc) (*gin.Engine, *gin.RouterGroup) {
	r := gin.New()
	r.Use(mw...)
	return r, r.Group("/api/v1")
}

// Request is one call against the router.
type Request struct {
	Method string
	Path   string
	Body   interface{}
	Header map[string]string
}

// Do performs req and returns the recorder and decoded envelope. A nil body
// sends no payload; an io.Reader body is sent as is.
func Do(t *testing.T, r http.Handler, req Request) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()

	var body io.Reader
	switch b := req.Body.(type) {
	case nil:
	case io.Reader:
		body = b
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}

	httpReq := httptest.NewRequest(req.Method, req.Path, body)
	if _, isReader := req.Body.(io.Reader); req.Body != nil && !isReader {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for k, v := range req.Header {
		httpReq.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httpReq)

	var resp APIResponse
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") != "" {
		_ = json.Unmarshal(w.Body.Bytes(), &resp)
	}
	return w, resp
}
