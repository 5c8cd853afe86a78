package api

import (
	"net/http"
	"sort"
	"strconv"
	"strings"

	"asur-wears/internal/service"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3gen"
	"github.com/gin-gonic/gin"
)

type routeDoc struct {
	summary string
	tag     string
	body    interface{}
	status  int
}

// routeDocs describes the JSON API. Routes missing here still appear in
// the document with a generated summary.
var routeDocs = map[string]routeDoc{
	"GET /api/categories":                 {summary: "List product categories and sizes", tag: "catalogue"},
	"GET /api/products":                   {summary: "List products", tag: "catalogue"},
	"GET /api/products/featured":          {summary: "List featured products", tag: "catalogue"},
	"GET /api/products/{id}":              {summary: "Get a product and count the view", tag: "catalogue"},
	"POST /api/cart/quote":                {summary: "Price a cart", tag: "checkout", body: service.QuoteRequest{}, status: http.StatusOK},
	"POST /api/coupons/validate":          {summary: "Validate a coupon code", tag: "checkout", status: http.StatusOK},
	"GET /api/shipping/{pincode}":         {summary: "Shipping cost and delivery days for a pincode", tag: "checkout"},
	"POST /api/orders/create":             {summary: "Place an order", tag: "checkout", body: service.CreateOrderRequest{}},
	"GET /api/orders/{orderNumber}":       {summary: "Track an order by number and phone", tag: "checkout"},
	"POST /api/analytics/track":           {summary: "Record a storefront event", tag: "analytics", body: service.TrackRequest{}, status: http.StatusNoContent},
	"POST /api/auth/signup":               {summary: "Create an account", tag: "auth", body: service.SignupRequest{}},
	"POST /api/auth/login":                {summary: "Sign in with a password", tag: "auth", body: service.LoginRequest{}, status: http.StatusOK},
	"POST /api/auth/send-otp":             {summary: "Email a one-time code", tag: "auth", body: service.SendOTPRequest{}, status: http.StatusOK},
	"POST /api/auth/verify-otp":           {summary: "Redeem a one-time code", tag: "auth", body: service.VerifyOTPRequest{}, status: http.StatusOK},
	"GET /api/auth/me":                    {summary: "Current user", tag: "auth"},
	"POST /api/admin/login":               {summary: "Staff sign in", tag: "admin", body: service.LoginRequest{}, status: http.StatusOK},
	"POST /api/admin/upload-image":        {summary: "Upload a product image (multipart field image)", tag: "admin"},
	"DELETE /api/admin/images/{publicId}": {summary: "Delete an uploaded image", tag: "admin"},
	"POST /api/admin/products":            {summary: "Create a product", tag: "admin", body: service.ProductRequest{}},
	"PUT /api/admin/products/{id}":        {summary: "Update a product", tag: "admin", body: service.ProductUpdateRequest{}},
	"DELETE /api/admin/products/{id}":     {summary: "Delete a product and its images", tag: "admin"},
	"GET /api/admin/orders":               {summary: "List orders", tag: "admin"},
	"GET /api/admin/orders/{id}":          {summary: "Get an order", tag: "admin"},
	"PUT /api/admin/orders/{id}/status":   {summary: "Move an order to a new status", tag: "admin"},
	"PUT /api/admin/orders/{id}/payment":  {summary: "Record a payment status", tag: "admin"},
	"GET /api/admin/dashboard":            {summary: "Store overview", tag: "admin"},
	"GET /api/admin/analytics":            {summary: "Daily analytics for the last N days", tag: "admin"},
	"GET /api/admin/campaigns":            {summary: "List campaigns", tag: "admin"},
	"POST /api/admin/campaigns":           {summary: "Send a campaign", tag: "admin", body: service.CampaignRequest{}},
}

// newOpenAPIDoc builds an OpenAPI 3 document from the registered gin routes
func newOpenAPIDoc(routes gin.RoutesInfo) *openapi3.T {
	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:   "Asur Wears API",
			Version: "1.0.0",
		},
		Paths: &openapi3.Paths{},
		Components: &openapi3.Components{
			Schemas: openapi3.Schemas{},
			SecuritySchemes: openapi3.SecuritySchemes{
				"bearerAuth": &openapi3.SecuritySchemeRef{Value: openapi3.NewJWTSecurityScheme()},
			},
		},
	}

	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path == routes[j].Path {
			return routes[i].Method < routes[j].Method
		}
		return routes[i].Path < routes[j].Path
	})

	for _, route := range routes {
		if !strings.HasPrefix(route.Path, "/api/") {
			continue
		}
		path, params := openAPIPath(route.Path)
		key := route.Method + " " + path
		rd, ok := routeDocs[key]
		if !ok {
			rd = routeDoc{summary: key}
		}

		op := &openapi3.Operation{
			Summary:   rd.summary,
			Responses: &openapi3.Responses{},
		}
		if rd.tag != "" {
			op.Tags = []string{rd.tag}
		}
		for _, name := range params {
			op.Parameters = append(op.Parameters, &openapi3.ParameterRef{Value: &openapi3.Parameter{
				Name:     name,
				In:       "path",
				Required: true,
				Schema:   &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}}},
			}})
		}
		if rd.body != nil {
			if schema, err := openapi3gen.NewSchemaRefForValue(rd.body, doc.Components.Schemas); err == nil {
				op.RequestBody = &openapi3.RequestBodyRef{Value: &openapi3.RequestBody{
					Required: true,
					Content:  openapi3.NewContentWithJSONSchemaRef(schema),
				}}
			}
		}
		if (strings.HasPrefix(path, "/api/admin/") && path != "/api/admin/login") || path == "/api/auth/me" {
			op.Security = &openapi3.SecurityRequirements{{"bearerAuth": []string{}}}
		}

		status := rd.status
		if status == 0 {
			status = http.StatusOK
			if route.Method == http.MethodPost {
				status = http.StatusCreated
			}
		}
		description := http.StatusText(status)
		op.Responses.Set(strconv.Itoa(status), &openapi3.ResponseRef{Value: &openapi3.Response{Description: &description}})
		errDescription := "Error"
		op.Responses.Set("default", &openapi3.ResponseRef{Value: &openapi3.Response{Description: &errDescription}})

		item := doc.Paths.Value(path)
		if item == nil {
			item = &openapi3.PathItem{}
			doc.Paths.Set(path, item)
		}
		item.SetOperation(route.Method, op)
	}
	return doc
}

// openAPIPath converts ":id" segments into "{id}" and returns their names
func openAPIPath(ginPath string) (string, []string) {
	segments := strings.Split(ginPath, "/")
	var params []string
	for i, seg := range segments {
		if strings.HasPrefix(seg, ":") || strings.HasPrefix(seg, "*") {
			name := seg[1:]
			params = append(params, name)
			segments[i] = "{" + name + "}"
		}
	}
	return strings.Join(segments, "/"), params
}
