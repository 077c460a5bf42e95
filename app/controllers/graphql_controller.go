package controllers

import (
	"net/http"

	"github.com/graphql-go/graphql"

	"github.com/shashiranjanraj/sehatly/app/services"
	"github.com/shashiranjanraj/sehatly/pkg/bind"
	gqlschema "github.com/shashiranjanraj/sehatly/pkg/graphql"
	"github.com/shashiranjanraj/sehatly/pkg/response"
)

// GraphQLController serves the admin read-only query API over the
// catalogue and orders.
type GraphQLController struct {
	schema graphql.Schema
}

func NewGraphQLController(medicines *services.MedicineService, orders services.AnalyticsReader) (*GraphQLController, error) {
	medicineType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Medicine",
		Fields: graphql.Fields{
			"id":            &graphql.Field{Type: graphql.String},
			"name":          &graphql.Field{Type: graphql.String},
			"brand":         &graphql.Field{Type: graphql.String},
			"price":         &graphql.Field{Type: graphql.Float},
			"discount":      &graphql.Field{Type: graphql.Float},
			"stockQuantity": &graphql.Field{Type: graphql.Int},
		},
	})

	orderType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Order",
		Fields: graphql.Fields{
			"id":         &graphql.Field{Type: graphql.String},
			"userId":     &graphql.Field{Type: graphql.String},
			"status":     &graphql.Field{Type: graphql.String},
			"totalPrice": &graphql.Field{Type: graphql.Float},
			"createdAt":  &graphql.Field{Type: graphql.DateTime},
		},
	})

	topSellerType := graphql.NewObject(graphql.ObjectConfig{
		Name: "TopSeller",
		Fields: graphql.Fields{
			"name":      &graphql.Field{Type: graphql.String},
			"totalSold": &graphql.Field{Type: graphql.Int},
			"revenue":   &graphql.Field{Type: graphql.Float},
		},
	})

	rootQuery := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"medicines": &graphql.Field{
				Type: graphql.NewList(medicineType),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					meds, err := medicines.Catalogue(p.Context)
					if err != nil {
						return nil, err
					}
					out := make([]map[string]interface{}, 0, len(meds))
					for _, m := range meds {
						out = append(out, map[string]interface{}{
							"id":            m.ID.Hex(),
							"name":          m.Name,
							"brand":         m.Brand,
							"price":         m.Price,
							"discount":      m.Discount,
							"stockQuantity": m.StockQuantity,
						})
					}
					return out, nil
				},
			},
			"orders": &graphql.Field{
				Type: graphql.NewList(orderType),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					all, err := orders.All(p.Context)
					if err != nil {
						return nil, err
					}
					out := make([]map[string]interface{}, 0, len(all))
					for _, o := range all {
						out = append(out, map[string]interface{}{
							"id":         o.ID.Hex(),
							"userId":     o.UserID.Hex(),
							"status":     o.Status,
							"totalPrice": o.TotalPrice,
							"createdAt":  o.CreatedAt,
						})
					}
					return out, nil
				},
			},
			"topMedicines": &graphql.Field{
				Type: graphql.NewList(topSellerType),
				Args: graphql.FieldConfigArgument{
					"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 5},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					limit, _ := p.Args["limit"].(int)
					if limit <= 0 {
						limit = 5
					}
					return orders.TopMedicines(p.Context, limit)
				},
			},
		},
	})

	schema, err := gqlschema.NewSchema(rootQuery)
	if err != nil {
		return nil, err
	}
	return &GraphQLController{schema: schema}, nil
}

type graphqlInput struct {
	Query     string                 `json:"query" validate:"required"`
	Variables map[string]interface{} `json:"variables"`
}

// Query handles POST /api/graphql (admin).
func (c *GraphQLController) Query(w http.ResponseWriter, r *http.Request) {
	var in graphqlInput
	if errs, err := bind.JSON(w, r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	} else if errs != nil {
		response.ValidationError(w, errs)
		return
	}

	result := graphql.Do(graphql.Params{
		Schema:         c.schema,
		RequestString:  in.Query,
		VariableValues: in.Variables,
		Context:        r.Context(),
	})
	response.JSON(w, http.StatusOK, result)
}
