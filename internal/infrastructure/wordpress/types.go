package wordpress

import "encoding/json"

// Meta keys written by the storefront's import tooling
const (
	MetaProductSource    = "_product_source"
	MetaPopularityScore  = "_popularity_score"
	MetaDistributorStock = "_wt_stock"
)

// graphqlRequest is the POST body sent to WPGraphQL
type graphqlRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

// graphqlResponse is the WPGraphQL response envelope
type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphqlError  `json:"errors,omitempty"`
}

type graphqlError struct {
	Message string `json:"message"`
}

// PageInfo is the relay cursor block of a connection
type PageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor"`
}

// ImageNode is a media item reference
type ImageNode struct {
	SourceURL string `json:"sourceUrl"`
	AltText   string `json:"altText"`
}

// SlugNode is one product in the slug listing query
type SlugNode struct {
	Slug  string     `json:"slug"`
	Name  string     `json:"name"`
	Image *ImageNode `json:"image"`
}

// AttributeNode is a product attribute with its options
type AttributeNode struct {
	Name    string   `json:"name"`
	Options []string `json:"options"`
}

// TermNode is a taxonomy term (brand, material)
type TermNode struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// MetaNode is a product meta entry; WPGraphQL returns every value as a string
type MetaNode struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ProductNode is one product as returned by the catalog query
type ProductNode struct {
	ID            string     `json:"id"`
	DatabaseID    int        `json:"databaseId"`
	Name          string     `json:"name"`
	Slug          string     `json:"slug"`
	Type          string     `json:"type"`
	SKU           string     `json:"sku"`
	Price         string     `json:"price"`
	RegularPrice  string     `json:"regularPrice"`
	SalePrice     string     `json:"salePrice"`
	StockStatus   string     `json:"stockStatus"`
	StockQuantity *int       `json:"stockQuantity"`
	Image         *ImageNode `json:"image"`
	Attributes    *struct {
		Nodes []AttributeNode `json:"nodes"`
	} `json:"attributes"`
	Brands *struct {
		Nodes []TermNode `json:"nodes"`
	} `json:"brands"`
	Materials *struct {
		Nodes []TermNode `json:"nodes"`
	} `json:"materials"`
	MetaData []MetaNode `json:"metaData"`
}

type slugsData struct {
	Products struct {
		PageInfo PageInfo   `json:"pageInfo"`
		Nodes    []SlugNode `json:"nodes"`
	} `json:"products"`
}

type productsData struct {
	Products struct {
		PageInfo PageInfo      `json:"pageInfo"`
		Nodes    []ProductNode `json:"nodes"`
	} `json:"products"`
}

const slugsQuery = `query ProductSlugs($first: Int!, $after: String) {
  products(first: $first, after: $after, where: {status: "publish"}) {
    pageInfo { hasNextPage endCursor }
    nodes {
      slug
      name
      image { sourceUrl(size: THUMBNAIL) }
    }
  }
}`

const productFields = `
      sku
      price(format: RAW)
      regularPrice(format: RAW)
      salePrice(format: RAW)
      stockStatus
      stockQuantity
      attributes { nodes { name options } }`

const productsQuery = `query CatalogProducts($first: Int!, $after: String) {
  products(first: $first, after: $after, where: {status: "publish"}) {
    pageInfo { hasNextPage endCursor }
    nodes {
      id
      databaseId
      name
      slug
      type
      image { sourceUrl altText }
      brands: productBrands { nodes { id name slug } }
      materials: allPaMaterial { nodes { id name slug } }
      metaData(keysIn: ["` + MetaProductSource + `", "` + MetaPopularityScore + `", "` + MetaDistributorStock + `"]) { key value }
      ... on SimpleProduct {` + productFields + `
      }
      ... on VariableProduct {` + productFields + `
      }
      ... on ExternalProduct {
        sku
        price(format: RAW)
        regularPrice(format: RAW)
        salePrice(format: RAW)
      }
      ... on GroupProduct {
        sku
        price(format: RAW)
      }
    }
  }
}`
