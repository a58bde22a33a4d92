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

package github

import (
	"fmt"

	"github.com/octoql/octoql/internal/config"
	"github.com/octoql/octoql/internal/gql"
)

// GraphQL documents for the catalog operations. Caller input only ever
// arrives through variables; the documents themselves are fixed.
const (
	getRepositoryQuery = `query GetRepository($owner: String!, $name: String!) {
  repository(owner: $owner, name: $name) {
    name
    nameWithOwner
    description
    url
    homepageUrl
    isPrivate
    isArchived
    isFork
    stargazerCount
    forkCount
    createdAt
    updatedAt
    pushedAt
    diskUsage
    primaryLanguage { name }
    licenseInfo { spdxId name }
    defaultBranchRef { name }
    owner { login }
    issues(states: OPEN) { totalCount }
    pullRequests(states: OPEN) { totalCount }
  }
}`

	getUserQuery = `query GetUser($login: String!) {
  user(login: $login) {
    login
    name
    bio
    company
    location
    email
    websiteUrl
    createdAt
    followers { totalCount }
    following { totalCount }
    repositories { totalCount }
  }
}`

	searchRepositoriesQuery = `query SearchRepositories($query: String!, $first: Int!, $after: String) {
  search(query: $query, type: REPOSITORY, first: $first, after: $after) {
    repositoryCount
    pageInfo { hasNextPage endCursor }
    nodes {
      ... on Repository {
        nameWithOwner
        description
        url
        stargazerCount
        forkCount
        isArchived
        primaryLanguage { name }
        updatedAt
      }
    }
  }
}`

	listIssuesQuery = `query ListIssues($owner: String!, $name: String!, $states: [IssueState!], $first: Int!, $after: String) {
  repository(owner: $owner, name: $name) {
    issues(states: $states, first: $first, after: $after, orderBy: {field: CREATED_AT, direction: DESC}) {
      totalCount
      pageInfo { hasNextPage endCursor }
      nodes {
        number
        title
        state
        url
        createdAt
        updatedAt
        closedAt
        author { login }
        labels(first: 10) { nodes { name } }
        comments { totalCount }
      }
    }
  }
}`

	listPullRequestsQuery = `query ListPullRequests($owner: String!, $name: String!, $states: [PullRequestState!], $first: Int!, $after: String) {
  repository(owner: $owner, name: $name) {
    pullRequests(states: $states, first: $first, after: $after, orderBy: {field: CREATED_AT, direction: DESC}) {
      totalCount
      pageInfo { hasNextPage endCursor }
      nodes {
        number
        title
        state
        url
        isDraft
        createdAt
        updatedAt
        mergedAt
        closedAt
        author { login }
        baseRefName
        headRefName
        additions
        deletions
        changedFiles
      }
    }
  }
}`

	createIssueMutation = `mutation CreateIssue($repositoryId: ID!, $title: String!, $body: String) {
  createIssue(input: {repositoryId: $repositoryId, title: $title, body: $body}) {
    issue {
      number
      title
      url
      state
      createdAt
    }
  }
}`

	addCommentMutation = `mutation AddComment($subjectId: ID!, $body: String!) {
  addComment(input: {subjectId: $subjectId, body: $body}) {
    commentEdge {
      node {
        url
        createdAt
        author { login }
      }
    }
  }
}`

	rateLimitQuery = `query RateLimit {
  rateLimit {
    limit
    remaining
    used
    resetAt
    cost
  }
}`
)

// Catalog builds the full set of operations octoql exposes as MCP tools,
// with pagination bounds resolved from the configuration.
func Catalog(cfg *config.Config) []*gql.Operation {
	bounds := func(name string) gql.PageBounds {
		return gql.PageBounds{
			PageSize: cfg.PageSize(name),
			MaxPages: cfg.MaxPages(name),
			MaxItems: cfg.MaxItems(name),
		}
	}

	return []*gql.Operation{
		{
			Name:        "get_repository",
			Description: "Fetch metadata for a single repository: description, stars, forks, language, license, open issue and PR counts.",
			Kind:        gql.OpQuery,
			Document:    getRepositoryQuery,
			Params: []gql.Param{
				{Name: "owner", Type: gql.ParamString, Required: true, Description: "Repository owner (user or organization login)."},
				{Name: "name", Type: gql.ParamString, Required: true, Description: "Repository name."},
			},
		},
		{
			Name:        "get_user",
			Description: "Fetch a user's profile: bio, company, location, follower and repository counts.",
			Kind:        gql.OpQuery,
			Document:    getUserQuery,
			Params: []gql.Param{
				{Name: "login", Type: gql.ParamString, Required: true, Description: "User login."},
			},
		},
		{
			Name:        "search_repositories",
			Description: "Search repositories with GitHub's search syntax (e.g. \"language:go stars:>1000\"). Paginated.",
			Kind:        gql.OpQuery,
			Document:    searchRepositoriesQuery,
			Params: []gql.Param{
				{Name: "query", Type: gql.ParamString, Required: true, Description: "Search query in GitHub search syntax."},
			},
			Connection: &gql.Connection{Path: []string{"search"}},
			Bounds:     bounds("search_repositories"),
		},
		{
			Name:        "list_issues",
			Description: "List a repository's issues, newest first. Paginated.",
			Kind:        gql.OpQuery,
			Document:    listIssuesQuery,
			Params: []gql.Param{
				{Name: "owner", Type: gql.ParamString, Required: true, Description: "Repository owner."},
				{Name: "name", Type: gql.ParamString, Required: true, Description: "Repository name."},
				{Name: "states", Type: gql.ParamStringList, Description: "Filter by state.", Enum: []string{"OPEN", "CLOSED"}},
			},
			Connection: &gql.Connection{Path: []string{"repository", "issues"}},
			Bounds:     bounds("list_issues"),
		},
		{
			Name:        "list_pull_requests",
			Description: "List a repository's pull requests, newest first. Paginated.",
			Kind:        gql.OpQuery,
			Document:    listPullRequestsQuery,
			Params: []gql.Param{
				{Name: "owner", Type: gql.ParamString, Required: true, Description: "Repository owner."},
				{Name: "name", Type: gql.ParamString, Required: true, Description: "Repository name."},
				{Name: "states", Type: gql.ParamStringList, Description: "Filter by state.", Enum: []string{"OPEN", "CLOSED", "MERGED"}},
			},
			Connection: &gql.Connection{Path: []string{"repository", "pullRequests"}},
			Bounds:     bounds("list_pull_requests"),
		},
		{
			Name:        "create_issue",
			Description: "Open a new issue. Not retried on failure; check the result before re-invoking.",
			Kind:        gql.OpMutation,
			Document:    createIssueMutation,
			Params: []gql.Param{
				{Name: "repositoryId", Type: gql.ParamString, Required: true, Description: "Node ID of the repository (from get_repository)."},
				{Name: "title", Type: gql.ParamString, Required: true, Description: "Issue title."},
				{Name: "body", Type: gql.ParamString, Description: "Issue body in Markdown."},
			},
		},
		{
			Name:        "add_comment",
			Description: "Comment on an issue or pull request. Not retried on failure.",
			Kind:        gql.OpMutation,
			Document:    addCommentMutation,
			Params: []gql.Param{
				{Name: "subjectId", Type: gql.ParamString, Required: true, Description: "Node ID of the issue or pull request."},
				{Name: "body", Type: gql.ParamString, Required: true, Description: "Comment body in Markdown."},
			},
		},
		{
			Name:        "rate_limit",
			Description: "Report the current API rate limit state for the configured token.",
			Kind:        gql.OpQuery,
			Document:    rateLimitQuery,
		},
		{
			Name:        "execute_graphql",
			Description: "Execute an arbitrary GraphQL document against the GitHub API. Mutations are never retried.",
			Kind:        gql.OpQuery,
			Raw:         true,
			Params: []gql.Param{
				{Name: "query", Type: gql.ParamString, Required: true, Description: "The GraphQL document to execute."},
				{Name: "variables", Type: gql.ParamObject, Description: "Variables for the document."},
			},
		},
	}
}

// RegisterCatalog installs every catalog operation into the registry.
func RegisterCatalog(reg *gql.Registry, cfg *config.Config) error {
	for _, op := range Catalog(cfg) {
		if err := reg.Register(op); err != nil {
			return fmt.Errorf("failed to register operation %q: %w", op.Name, err)
		}
	}
	return nil
}
