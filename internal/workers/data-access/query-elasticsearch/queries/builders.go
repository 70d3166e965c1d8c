// internal/workers/data-access/query-elasticsearch/queries/builders.go
package queries

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8/esapi"
)

var (
	ErrUnknownQueryType = errors.New("unknown query type")
	ErrMissingIndex     = errors.New("index name is required")
)

// SearchQuery describes one search against the proposal index.
type SearchQuery struct {
	Index      string
	QueryType  string
	Filters    map[string]interface{}
	ProjectID  string
	Pagination struct {
		From int
		Size int
	}
}

// BuildQuery builds an Elasticsearch search request based on query type and filters
func BuildQuery(sq SearchQuery) (*esapi.SearchRequest, error) {
	if sq.Index == "" {
		return nil, ErrMissingIndex
	}

	var queryBody map[string]interface{}

	switch sq.QueryType {
	case "search_proposals":
		queryBody = buildProposalSearchQuery(sq)
	case "search_projects":
		queryBody = buildProjectSearchQuery(sq)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownQueryType, sq.QueryType)
	}

	body, _ := json.Marshal(queryBody)

	req := esapi.SearchRequest{
		Index: []string{sq.Index},
		Body:  strings.NewReader(string(body)),
		From:  &sq.Pagination.From,
		Size:  &sq.Pagination.Size,
	}

	return &req, nil
}

// buildProposalSearchQuery matches proposals by company, with optional
// term filters narrowing to one project or trade. Company matching is
// fuzzy so "Apx Mechanical" still finds Apex Mechanical's bids.
func buildProposalSearchQuery(sq SearchQuery) map[string]interface{} {
	boolQuery := make(map[string]interface{})
	mustClauses := []interface{}{}
	filterClauses := []interface{}{}

	if company, ok := sq.Filters["company"].(string); ok && company != "" {
		mustClauses = append(mustClauses, map[string]interface{}{
			"match": map[string]interface{}{
				"companyName": map[string]interface{}{
					"query":     company,
					"fuzziness": "AUTO",
				},
			},
		})
	}

	if keywords, ok := sq.Filters["keywords"].(string); ok && keywords != "" {
		mustClauses = append(mustClauses, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  keywords,
				"fields": []string{"companyName^3", "tradeName^2", "projectName"},
				"type":   "best_fields",
			},
		})
	}

	if sq.ProjectID != "" {
		filterClauses = append(filterClauses, map[string]interface{}{
			"term": map[string]interface{}{"projectId.keyword": sq.ProjectID},
		})
	}

	if tradeID, ok := sq.Filters["tradeId"].(string); ok && tradeID != "" {
		filterClauses = append(filterClauses, map[string]interface{}{
			"term": map[string]interface{}{"tradeId.keyword": tradeID},
		})
	}

	if tradeName, ok := sq.Filters["tradeName"].(string); ok && tradeName != "" {
		filterClauses = append(filterClauses, map[string]interface{}{
			"term": map[string]interface{}{"tradeName.keyword": tradeName},
		})
	}

	// Default match_all if no search text
	if len(mustClauses) == 0 {
		mustClauses = append(mustClauses, map[string]interface{}{"match_all": map[string]interface{}{}})
	}

	boolQuery["must"] = mustClauses
	if len(filterClauses) > 0 {
		boolQuery["filter"] = filterClauses
	}

	query := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": boolQuery,
		},
	}

	if sortBy, ok := sq.Filters["sortBy"].(string); ok {
		switch sortBy {
		case "receivedAt":
			query["sort"] = []map[string]interface{}{{"receivedAt": "desc"}}
		case "companyName":
			query["sort"] = []map[string]interface{}{{"companyName.keyword": "asc"}}
		}
	}

	return query
}

// buildProjectSearchQuery finds projects by name. Projects live in the
// proposal index, one document per proposal, so the hits are collapsed
// on projectId to return each matching project once.
func buildProjectSearchQuery(sq SearchQuery) map[string]interface{} {
	var match map[string]interface{}

	if name, ok := sq.Filters["projectName"].(string); ok && name != "" {
		match = map[string]interface{}{
			"match": map[string]interface{}{
				"projectName": map[string]interface{}{
					"query":     name,
					"fuzziness": "AUTO",
				},
			},
		}
	} else {
		match = map[string]interface{}{"match_all": map[string]interface{}{}}
	}

	return map[string]interface{}{
		"query": match,
		"collapse": map[string]interface{}{
			"field": "projectId.keyword",
		},
	}
}
