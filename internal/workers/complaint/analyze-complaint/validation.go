package analyzecomplaint

import "complaint-router/internal/common/validation"

var inputSchema = validation.MustCompile(`{
  "type": "object",
  "required": ["complaint"],
  "properties": {
    "complaint": {"type": "string", "minLength": 1, "maxLength": 10000},
    "language":  {"type": "string", "maxLength": 16}
  }
}`)
