// SPDX-License-Identifier: MIT

package api

import (
	_ "embed"
	"net/http"
	"sync"

	"github.com/oasdiff/yaml"
)

//go:generate go run github.com/oapi-codegen/oapi-codegen/v2/cmd/oapi-codegen --config=oapi-codegen.yaml openapi.yaml

//go:embed openapi.yaml
var openapiYAML []byte

var (
	openapiJSONOnce sync.Once
	openapiJSON     []byte
	openapiJSONErr  error
)

// OpenAPIDocument returns the embedded API description as JSON.
func OpenAPIDocument() ([]byte, error) {
	openapiJSONOnce.Do(func() {
		openapiJSON, openapiJSONErr = yaml.YAMLToJSON(openapiYAML)
	})
	return openapiJSON, openapiJSONErr
}

func (s *Server) GetOpenAPIDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := OpenAPIDocument()
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}
