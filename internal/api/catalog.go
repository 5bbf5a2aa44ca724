package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/bookbuddy/storefront/pkg/errors"
	"github.com/bookbuddy/storefront/pkg/types"
	"github.com/bookbuddy/storefront/pkg/validators"
)

// Categories lists every category.
func (c *Client) Categories(ctx context.Context) ([]types.Category, error) {
	var out types.CategoryListResponse
	ep := endpoint{name: "category.list", method: http.MethodGet, path: "category/get-category"}
	if err := c.do(ctx, ep, nil, &out); err != nil {
		return nil, err
	}
	return out.Category, nil
}

// ListProducts fetches one page of the unfiltered catalog. Pages start at 1.
func (c *Client) ListProducts(ctx context.Context, page int) ([]types.Product, error) {
	if page < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "page must be at least 1")
	}
	var out types.ProductListResponse
	ep := endpoint{name: "product.list", method: http.MethodGet, path: "product/product-list/" + strconv.Itoa(page)}
	if err := c.do(ctx, ep, nil, &out); err != nil {
		return nil, err
	}
	return out.Products, nil
}

// CountProducts returns the size of the unfiltered catalog.
func (c *Client) CountProducts(ctx context.Context) (int, error) {
	var out types.ProductCountResponse
	ep := endpoint{name: "product.count", method: http.MethodGet, path: "product/product-count"}
	if err := c.do(ctx, ep, nil, &out); err != nil {
		return 0, err
	}
	return out.Total, nil
}

// FilterProducts runs a single non-paginated filter query.
func (c *Client) FilterProducts(ctx context.Context, req types.FilterRequest) ([]types.Product, error) {
	if err := validators.Struct(req); err != nil {
		return nil, err
	}
	var out types.ProductListResponse
	ep := endpoint{name: "product.filter", method: http.MethodPost, path: "product/product-filters"}
	if err := c.do(ctx, ep, req, &out); err != nil {
		return nil, err
	}
	return out.Products, nil
}

// GetProduct fetches one product by slug.
func (c *Client) GetProduct(ctx context.Context, slug string) (types.Product, error) {
	if strings.TrimSpace(slug) == "" {
		return types.Product{}, pkgerrors.New(pkgerrors.CodeValidation, "product slug is required")
	}
	var out types.ProductResponse
	ep := endpoint{name: "product.get", method: http.MethodGet, path: "product/get-product/" + segment(slug)}
	if err := c.do(ctx, ep, nil, &out); err != nil {
		return types.Product{}, err
	}
	if out.Product == nil {
		return types.Product{}, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %q not found", slug))
	}
	return *out.Product, nil
}

// RelatedProducts lists products sharing categoryID, excluding productID.
func (c *Client) RelatedProducts(ctx context.Context, productID, categoryID string) ([]types.Product, error) {
	if strings.TrimSpace(productID) == "" || strings.TrimSpace(categoryID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product and category ids are required")
	}
	var out types.ProductListResponse
	ep := endpoint{
		name:   "product.related",
		method: http.MethodGet,
		path:   "product/related-product/" + segment(productID) + "/" + segment(categoryID),
	}
	if err := c.do(ctx, ep, nil, &out); err != nil {
		return nil, err
	}
	return out.Products, nil
}

// ProductsByCategory returns a category and its products.
func (c *Client) ProductsByCategory(ctx context.Context, slug string) (types.Category, []types.Product, error) {
	if strings.TrimSpace(slug) == "" {
		return types.Category{}, nil, pkgerrors.New(pkgerrors.CodeValidation, "category slug is required")
	}
	var out types.CategoryProductsResponse
	ep := endpoint{name: "product.by_category", method: http.MethodGet, path: "product/product-category/" + segment(slug)}
	if err := c.do(ctx, ep, nil, &out); err != nil {
		return types.Category{}, nil, err
	}
	var cat types.Category
	if out.Category != nil {
		cat = *out.Category
	}
	return cat, out.Products, nil
}

// Search matches keyword against product names and descriptions. The API
// answers with a bare array.
func (c *Client) Search(ctx context.Context, keyword string) ([]types.Product, error) {
	keyword = validators.SanitizeString(keyword, 100)
	if keyword == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "search keyword is required")
	}
	var out []types.Product
	ep := endpoint{name: "product.search", method: http.MethodGet, path: "product/search/" + segment(keyword)}
	if err := c.do(ctx, ep, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Photo is a product image as served by the API.
type Photo struct {
	ContentType string
	Data        []byte
}

// ProductPhoto downloads the binary image for a product.
func (c *Client) ProductPhoto(ctx context.Context, productID string) (Photo, error) {
	if strings.TrimSpace(productID) == "" {
		return Photo{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	ep := endpoint{name: "product.photo", method: http.MethodGet, path: "product/product-photo/" + segment(productID)}
	resp, err := c.send(ctx, ep, nil)
	if err != nil {
		return Photo{}, err
	}
	if len(resp.body) == 0 {
		return Photo{}, pkgerrors.New(pkgerrors.CodeNotFound, "product has no photo")
	}
	return Photo{ContentType: resp.contentType, Data: resp.body}, nil
}
