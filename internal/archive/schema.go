package archive

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// listingSchema is the minimum shape a file_info response must have.
const listingSchema = `{
  "type": "object",
  "required": ["files"],
  "properties": {
    "files": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["file_name"],
        "properties": {
          "file_name": {"type": "string", "minLength": 1},
          "file_size": {"type": "integer", "minimum": 0},
          "timetag": {"type": ["string", "null"]},
          "modified_date": {"type": ["string", "null"]}
        }
      }
    }
  }
}`

var listingSchemaLoader = gojsonschema.NewStringLoader(listingSchema)

// validateListing checks a raw response body against listingSchema.
func validateListing(body []byte) error {
	result, err := gojsonschema.Validate(listingSchemaLoader, gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrParse, err)
	}
	if !result.Valid() {
		var sb strings.Builder
		for i, e := range result.Errors() {
			if i > 0 {
				sb.WriteString("; ")
			}
			sb.WriteString(e.String())
		}
		return fmt.Errorf("%w: %s", ErrParse, sb.String())
	}
	return nil
}
