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

package gql

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

// Paginator drives connection operations across pages, feeding each page's
// end cursor into the next request's "after" variable. Pagination is
// sequential within an invocation (each page depends on the previous
// cursor) and independent across invocations.
type Paginator struct {
	exec   *Executor
	logger *slog.Logger
}

// NewPaginator creates a paginator backed by the given executor.
func NewPaginator(exec *Executor, logger *slog.Logger) *Paginator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Paginator{exec: exec, logger: logger}
}

// FetchAll collects pages until the connection is exhausted, an item or
// page cap is reached, the context is cancelled, or a page fails. Pages
// collected before a failure or cancellation are returned alongside the
// stop reason; they are never discarded. Both caps must be finite.
func (p *Paginator) FetchAll(ctx context.Context, req *Request, conn *Connection, bounds PageBounds) *PageSet {
	set := &PageSet{TotalCount: -1}

	after := bounds.After
	for {
		if set.Pages >= bounds.MaxPages {
			set.Reason = StopMaxPages
			return set
		}
		if ctx.Err() != nil {
			set.Reason = StopCancelled
			set.Err = ctx.Err()
			return set
		}

		// Never request more items than the cap still allows.
		first := bounds.PageSize
		if remaining := bounds.MaxItems - len(set.Items); remaining < first {
			first = remaining
		}

		out, err := p.exec.Execute(ctx, req.WithPage(first, after))
		if err != nil {
			if ctx.Err() != nil {
				set.Reason = StopCancelled
			} else {
				set.Reason = StopFailed
			}
			set.Err = err
			return set
		}

		if len(out.Errors) > 0 {
			// GraphQL-level errors end pagination; any data on this page
			// is still stitched in below if the connection is readable.
			set.Errors = out.Errors
			set.Reason = StopFailed
			set.Err = fmt.Errorf("operation %q: upstream reported %d errors on page %d: %s",
				req.Operation, len(out.Errors), set.Pages+1, out.Errors[0].Message)
		}

		page, err := extractConnection(out.Data, conn.Path)
		if err != nil {
			if set.Err == nil {
				set.Reason = StopFailed
				set.Err = fmt.Errorf("operation %q: %w", req.Operation, err)
			}
			return set
		}

		set.Items = append(set.Items, page.Nodes...)
		set.Pages++
		set.EndCursor = page.PageInfo.EndCursor
		set.HasNextPage = page.PageInfo.HasNextPage
		if page.TotalCount >= 0 {
			set.TotalCount = page.TotalCount
		}

		p.logger.Debug("fetched page",
			"operation", req.Operation, "page", set.Pages,
			"items", len(page.Nodes), "hasNextPage", page.PageInfo.HasNextPage)

		if set.Err != nil {
			return set
		}
		if !page.PageInfo.HasNextPage {
			set.Reason = StopComplete
			return set
		}
		if len(set.Items) >= bounds.MaxItems {
			set.Reason = StopMaxItems
			set.Items = set.Items[:bounds.MaxItems]
			return set
		}

		after = page.PageInfo.EndCursor
	}
}

// connectionPage is the decoded shape of one connection object.
type connectionPage struct {
	PageInfo   PageInfo
	Nodes      []json.RawMessage
	TotalCount int
}

// extractConnection walks the response data along the declared path and
// decodes the connection object found there. It accepts both nodes and
// edges shapes; edges are unwrapped to their node.
func extractConnection(data json.RawMessage, path []string) (*connectionPage, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, fmt.Errorf("response carried no data for connection path %q", strings.Join(path, "."))
	}

	current := data
	for i, key := range path {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(current, &obj); err != nil {
			return nil, fmt.Errorf("connection path %q: element %q is not an object: %w",
				strings.Join(path, "."), strings.Join(path[:i], "."), err)
		}
		next, ok := obj[key]
		if !ok || string(next) == "null" {
			return nil, fmt.Errorf("connection path %q: missing %q", strings.Join(path, "."), key)
		}
		current = next
	}

	var raw struct {
		PageInfo PageInfo          `json:"pageInfo"`
		Nodes    []json.RawMessage `json:"nodes"`
		Edges    []struct {
			Node json.RawMessage `json:"node"`
		} `json:"edges"`
		TotalCount *int `json:"totalCount"`
	}
	if err := json.Unmarshal(current, &raw); err != nil {
		return nil, fmt.Errorf("connection path %q: not a connection object: %w",
			strings.Join(path, "."), err)
	}

	page := &connectionPage{
		PageInfo:   raw.PageInfo,
		Nodes:      raw.Nodes,
		TotalCount: -1,
	}
	if page.Nodes == nil {
		for _, edge := range raw.Edges {
			page.Nodes = append(page.Nodes, edge.Node)
		}
	}
	if raw.TotalCount != nil {
		page.TotalCount = *raw.TotalCount
	}
	return page, nil
}
