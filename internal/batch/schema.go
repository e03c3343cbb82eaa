package batch

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/officemind/docagent/internal/api"
)

// ProcessingConfig tells the server what to do with the batch's files.
type ProcessingConfig struct {
	Operation      string `json:"operation"`
	Parallelism    int    `json:"parallelism,omitempty"`
	OutputDir      string `json:"output_dir,omitempty"`
	OverwriteFiles bool   `json:"overwrite_files,omitempty"`
}

// processingConfigSchema is checked client-side before the create call so a
// malformed config never reaches the server.
const processingConfigSchema = `{
  "type": "object",
  "required": ["operation"],
  "properties": {
    "operation": {
      "type": "string",
      "minLength": 1
    },
    "parallelism": {
      "type": "integer",
      "minimum": 1,
      "maximum": 16
    },
    "output_dir": {
      "type": "string"
    },
    "overwrite_files": {
      "type": "boolean"
    }
  }
}`

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func configSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("processing_config.json", strings.NewReader(processingConfigSchema)); err != nil {
			schemaErr = fmt.Errorf("failed to load processing config schema: %w", err)
			return
		}
		compiledSchema, schemaErr = compiler.Compile("processing_config.json")
	})
	return compiledSchema, schemaErr
}

// Validate checks the config against the embedded schema.
func (c ProcessingConfig) Validate() error {
	schema, err := configSchema()
	if err != nil {
		return err
	}

	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode processing config: %w", err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("failed to decode processing config: %w", err)
	}

	if err := schema.Validate(doc); err != nil {
		return api.Validationf("处理配置无效: %v", err)
	}
	return nil
}
