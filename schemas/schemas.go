// Package schemas embeds the JSON Schemas for the YAML documents SemantIQ
// reads: pipeline configs and benchmark specs.
package schemas

import _ "embed"

//go:embed pipeline.schema.json
var PipelineSchemaJSON string

//go:embed benchmark.schema.json
var BenchmarkSchemaJSON string
