package httpapi

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// Request body schemas, compiled once in New.
const (
	recordActivitySchema = `{
  "type": "object",
  "required": ["activity_type", "activity_id"],
  "properties": {
    "activity_type": {"enum": ["lesson", "quiz", "mission", "problem"]},
    "activity_id": {"type": "string", "minLength": 1, "maxLength": 200},
    "grade": {"type": "integer", "minimum": 6, "maximum": 10},
    "topic_id": {"type": "string", "maxLength": 200},
    "difficulty": {"type": "string", "maxLength": 50},
    "status": {"enum": ["started", "in_progress", "completed"]},
    "score": {"type": "integer", "minimum": 0, "maximum": 2147483647},
    "max_score": {"type": "integer", "minimum": 0, "maximum": 2147483647},
    "time_spent": {"type": "integer", "minimum": 0, "maximum": 2147483647}
  }
}`

	quizSubmissionSchema = `{
  "type": "object",
  "required": ["answers"],
  "properties": {
    "answers": {"type": "array", "minItems": 1, "items": {"type": "integer", "minimum": 0}},
    "time_spent": {"type": "integer", "minimum": 0, "maximum": 2147483647}
  }
}`

	missionProgressSchema = `{
  "type": "object",
  "required": ["progress"],
  "properties": {
    "progress": {"type": "integer", "minimum": 0, "maximum": 100}
  }
}`

	problemAnswerSchema = `{
  "type": "object",
  "required": ["answer"],
  "properties": {
    "answer": {"type": "string", "minLength": 1, "maxLength": 8000},
    "time_spent": {"type": "integer", "minimum": 0, "maximum": 2147483647}
  }
}`

	auditEventSchema = `{
  "type": "object",
  "required": ["activity_type"],
  "properties": {
    "activity_type": {"enum": ["login", "signup", "logout"]},
    "user_email": {"type": "string", "maxLength": 320},
    "user_name": {"type": "string", "maxLength": 200}
  }
}`

	roleGrantSchema = `{
  "type": "object",
  "required": ["role"],
  "properties": {
    "role": {"enum": ["admin", "user"]}
  }
}`
)

type schemas struct {
	recordActivity  *gojsonschema.Schema
	quizSubmission  *gojsonschema.Schema
	missionProgress *gojsonschema.Schema
	problemAnswer   *gojsonschema.Schema
	auditEvent      *gojsonschema.Schema
	roleGrant       *gojsonschema.Schema
}

func compileSchemas() (schemas, error) {
	var s schemas
	for _, c := range []struct {
		name string
		src  string
		dst  **gojsonschema.Schema
	}{
		{"record activity", recordActivitySchema, &s.recordActivity},
		{"quiz submission", quizSubmissionSchema, &s.quizSubmission},
		{"mission progress", missionProgressSchema, &s.missionProgress},
		{"problem answer", problemAnswerSchema, &s.problemAnswer},
		{"audit event", auditEventSchema, &s.auditEvent},
		{"role grant", roleGrantSchema, &s.roleGrant},
	} {
		compiled, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(c.src))
		if err != nil {
			return schemas{}, fmt.Errorf("compile %s schema: %w", c.name, err)
		}
		*c.dst = compiled
	}
	return s, nil
}
