// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package docagent answers questions about AWS services with an LLM that
// can search and read the official AWS documentation.
//
// The documentation is reached through the AWS documentation MCP server.
// One task runs per invocation:
//
//	docagent --task foo --params '{"aws_service": "s3"}'
//
// A task naming an aws_service is first enriched with that service's
// getting-started page. The model then works the task with the
// search_aws_documentation, read_aws_documentation and
// get_aws_documentation_recommendations tools, and the result is written to
// <output_dir>/<task>_result.json.
//
// Configuration is a YAML or JSON file:
//
//	provider: anthropic
//	model: claude-sonnet-4-5
//	output_dir: output
//	mcp:
//	  command: uvx
//	  args: ["awslabs.aws-documentation-mcp-server@latest"]
//
// API keys are read from OPENAI_API_KEY, ANTHROPIC_API_KEY or GEMINI_API_KEY,
// including .env and .env.local files in the working directory.
package docagent
