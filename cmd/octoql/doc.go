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

// Command octoql is an MCP server that exposes the GitHub GraphQL API as a
// set of typed tools over stdio.
//
// Exit codes:
//   - 0: success
//   - 1: general error
//   - 2: authentication or rate limit error
//   - 3: network error
package main
