package indexfile

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/janelia-flyem/subvol/subvol"
)

const indexSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "subvol block relevance index",
  "type": "object",
  "definitions": {
    "int3": {"type": "array", "items": {"type": "integer"}, "minItems": 3, "maxItems": 3},
    "float3": {"type": "array", "items": {"type": "number"}, "minItems": 3, "maxItems": 3}
  },
  "required": ["version", "run_id", "created", "world_dims", "vol_stats", "volume", "tr_func",
               "dtype", "num_blocks", "blocks_extent", "blocks"],
  "properties": {
    "version": {"type": "string"},
    "run_id": {"type": "string"},
    "created": {"type": "string"},
    "world_dims": {"$ref": "#/definitions/float3"},
    "vol_stats": {
      "type": "object",
      "required": ["min", "max", "avg", "tot"],
      "properties": {
        "min": {"type": "number"},
        "max": {"type": "number"},
        "avg": {"type": "number"},
        "tot": {"type": "number"}
      }
    },
    "volume": {
      "type": "object",
      "required": ["name", "path", "vox_dims", "world_dims", "rov_min", "rov_max"],
      "properties": {
        "name": {"type": "string"},
        "path": {"type": "string"},
        "vox_dims": {"$ref": "#/definitions/int3"},
        "world_dims": {"$ref": "#/definitions/float3"},
        "rov_min": {"type": "number"},
        "rov_max": {"type": "number"}
      }
    },
    "tr_func": {"type": "string"},
    "dtype": {"type": "string"},
    "num_blocks": {"$ref": "#/definitions/int3"},
    "blocks_extent": {"$ref": "#/definitions/int3"},
    "blocks": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["index", "ijk", "vox_dims", "dims", "origin", "offset", "data_bytes", "rel", "empty"],
        "properties": {
          "index": {"type": "integer", "minimum": 0},
          "ijk": {"$ref": "#/definitions/int3"},
          "vox_dims": {"$ref": "#/definitions/int3"},
          "dims": {"$ref": "#/definitions/float3"},
          "origin": {"$ref": "#/definitions/float3"},
          "offset": {"type": "integer", "minimum": 0},
          "data_bytes": {"type": "integer", "minimum": 0},
          "rel": {"type": "number"},
          "empty": {"type": "boolean"}
        }
      }
    }
  }
}`

var (
	compiledSchema     *jsonschema.Schema
	compiledSchemaErr  error
	compiledSchemaOnce sync.Once
)

// Schema returns the compiled JSON schema of the index format.
func Schema() (*jsonschema.Schema, error) {
	compiledSchemaOnce.Do(func() {
		compiledSchema, compiledSchemaErr = jsonschema.CompileString("schema.json", indexSchema)
	})
	return compiledSchema, compiledSchemaErr
}

func encodeJSON(idx *IndexFile) ([]byte, error) {
	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("unable to encode index as json: %w", err)
	}
	return append(data, '\n'), nil
}

func decodeJSON(data []byte, name string) (*IndexFile, error) {
	sch, err := Schema()
	if err != nil {
		return nil, fmt.Errorf("unable to compile index schema: %w", err)
	}
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &subvol.FormatError{Path: name, Msg: fmt.Sprintf("bad json: %v", err)}
	}
	if err := sch.Validate(doc); err != nil {
		return nil, &subvol.FormatError{Path: name, Msg: fmt.Sprintf("index does not match schema: %v", err)}
	}
	idx := new(IndexFile)
	if err := json.Unmarshal(data, idx); err != nil {
		return nil, &subvol.FormatError{Path: name, Msg: fmt.Sprintf("bad index: %v", err)}
	}
	if err := checkVersion(idx.Version, name); err != nil {
		return nil, err
	}
	return idx, nil
}
