// Copyright 2026 OctoQL, LLC
//
// Licensed under the Business Source License 1.1 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://mariadb.com/bsl11
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package mcpserver exposes the tool registry over the Model Context
// Protocol. Each registered operation becomes one MCP tool with a JSON
// schema derived from its parameter declarations; tool calls are translated
// into registry invocations and results marshaled back as text content.
//
// The protocol stream runs over stdio, so nothing in this package (or
// anything it calls) may write to stdout. All logging goes to stderr.
package mcpserver
