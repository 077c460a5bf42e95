// Package graphql exposes a read-only admin query schema over the
// catalogue and orders.
package graphql

import (
	"github.com/graphql-go/graphql"
)

// NewSchema creates a GraphQL schema from a provided root query.
func NewSchema(query *graphql.Object) (graphql.Schema, error) {
	return graphql.NewSchema(graphql.SchemaConfig{
		Query: query,
	})
}
