// Package graph exposes a read-only GraphQL view of the catalog at
// /graphql. Mutations stay on the REST surface where the role guard and
// audit wiring live.
package graph

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/graphql-go/graphql"

	"github.com/pizzanova/backend/app/repositories"
	"github.com/pizzanova/backend/app/services"
	"github.com/pizzanova/backend/pkg/logger"
	"github.com/pizzanova/backend/pkg/response"
)

var productType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Product",
	Fields: graphql.Fields{
		"id":          &graphql.Field{Type: graphql.String},
		"name":        &graphql.Field{Type: graphql.String},
		"description": &graphql.Field{Type: graphql.String},
		"category":    &graphql.Field{Type: graphql.String},
		"price":       &graphql.Field{Type: graphql.Float},
		"imageUrl":    &graphql.Field{Type: graphql.String},
		"isAvailable": &graphql.Field{Type: graphql.Boolean},
	},
})

type productView struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
	ImageURL    string  `json:"imageUrl"`
	IsAvailable bool    `json:"isAvailable"`
}

// NewSchema builds the catalog query schema over the product service, so
// GraphQL reads share the REST surface's cache.
func NewSchema(products *services.ProductService) (graphql.Schema, error) {
	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"products": &graphql.Field{
				Type: graphql.NewList(productType),
				Args: graphql.FieldConfigArgument{
					"category": &graphql.ArgumentConfig{Type: graphql.String},
					"search":   &graphql.ArgumentConfig{Type: graphql.String},
					"page":     &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 1},
					"limit":    &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					filter := repositories.ProductFilter{OnlyAvailable: true}
					if v, ok := p.Args["category"].(string); ok {
						filter.Category = v
					}
					if v, ok := p.Args["search"].(string); ok {
						filter.Search = v
					}
					page, _ := p.Args["page"].(int)
					limit, _ := p.Args["limit"].(int)

					items, _, err := products.List(p.Context, filter, page, limit)
					if err != nil {
						return nil, err
					}

					views := make([]productView, 0, len(items))
					for _, it := range items {
						views = append(views, productView{
							ID:          it.ID.Hex(),
							Name:        it.Name,
							Description: it.Description,
							Category:    it.Category,
							Price:       it.Price,
							ImageURL:    it.ImageURL,
							IsAvailable: it.IsAvailable,
						})
					}
					return views, nil
				},
			},
			"product": &graphql.Field{
				Type: productType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id, _ := p.Args["id"].(string)
					it, err := products.Get(p.Context, id)
					if err != nil {
						return nil, err
					}
					return productView{
						ID:          it.ID.Hex(),
						Name:        it.Name,
						Description: it.Description,
						Category:    it.Category,
						Price:       it.Price,
						ImageURL:    it.ImageURL,
						IsAvailable: it.IsAvailable,
					}, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{Query: query})
}

type request struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

// Handler serves POST /graphql.
func Handler(schema graphql.Schema) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "invalid GraphQL request body")
			return
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			OperationName:  req.OperationName,
			VariableValues: req.Variables,
			Context:        r.Context(),
		})
		writeResult(r.Context(), w, result)
	}
}

func writeResult(ctx context.Context, w http.ResponseWriter, result *graphql.Result) {
	if len(result.Errors) > 0 {
		logger.WithCtx(ctx).Warn("graphql errors", "errors", result.Errors)
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		logger.WithCtx(ctx).Error("graphql encode", "error", err)
	}
}
