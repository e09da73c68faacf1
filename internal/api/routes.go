package api

import (
	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	"github.com/emicklei/go-restful/v3"
	"github.com/go-openapi/spec"
	"github.com/taigrr/obsidian-search/internal/api/middleware"
	"github.com/taigrr/obsidian-search/internal/types"
)

const OpenAPIPath = "/api/v1/openapi.json"

func RegisterRoutes(container *restful.Container, handler *Handler) {
	ws := new(restful.WebService)

	ws.
		Path("/api/v1").
		Consumes(restful.MIME_JSON).
		Produces(restful.MIME_JSON)

	ws.
		Route(ws.GET("/health").
			To(handler.Health).
			Doc("Health check").
			Metadata(restfulspec.KeyOpenAPITags, []string{"health"}).
			Writes(HealthResponse{}).
			Returns(200, "OK", HealthResponse{}))

	ws.
		Route(ws.GET("/ls").
			To(handler.List).
			Doc("List a directory").
			Metadata(restfulspec.KeyOpenAPITags, []string{"browse"}).
			Param(ws.QueryParameter("path", "Directory to list, relative to the browse root (default: root)").DataType("string").Required(false)).
			Writes(types.Listing{}).
			Returns(200, "OK", types.Listing{}).
			Returns(400, "Not a directory", middleware.ErrorResponse{}).
			Returns(403, "Outside the browse root", middleware.ErrorResponse{}).
			Returns(404, "Not Found", middleware.ErrorResponse{}))

	ws.
		Route(ws.GET("/search").
			To(handler.Search).
			Doc("Full-text search of the notes under a scope").
			Metadata(restfulspec.KeyOpenAPITags, []string{"search"}).
			Param(ws.QueryParameter("q", "Whitespace-separated search terms").DataType("string")).
			Param(ws.QueryParameter("scope", "Directory to search (default: browse root)").DataType("string").Required(false)).
			Param(ws.QueryParameter("limit", "Maximum results to return (default: all)").DataType("integer").Required(false)).
			Writes(SearchResponse{}).
			Returns(200, "OK", SearchResponse{}).
			Returns(400, "Bad Request", middleware.ErrorResponse{}).
			Returns(403, "Outside the browse root", middleware.ErrorResponse{}).
			Returns(404, "Not Found", middleware.ErrorResponse{}).
			Returns(504, "Search timed out", middleware.ErrorResponse{}))

	ws.
		Route(ws.GET("/link").
			To(handler.Link).
			Doc("Build an obsidian:// deep link for a note").
			Metadata(restfulspec.KeyOpenAPITags, []string{"link"}).
			Param(ws.QueryParameter("path", "Note path").DataType("string")).
			Writes(LinkResponse{}).
			Returns(200, "OK", LinkResponse{}).
			Returns(403, "Outside the browse root", middleware.ErrorResponse{}).
			Returns(404, "Not Found", middleware.ErrorResponse{}).
			Returns(422, "No link mode configured", middleware.ErrorResponse{}))

	ws.
		Route(ws.GET("/note").
			To(handler.Note).
			Doc("Read a note with its rendered HTML").
			Metadata(restfulspec.KeyOpenAPITags, []string{"browse"}).
			Param(ws.QueryParameter("path", "Note path").DataType("string")).
			Writes(types.NoteView{}).
			Returns(200, "OK", types.NoteView{}).
			Returns(400, "Bad Request", middleware.ErrorResponse{}).
			Returns(403, "Forbidden", middleware.ErrorResponse{}).
			Returns(404, "Not Found", middleware.ErrorResponse{}))

	container.Add(ws)
}

// RegisterOpenAPI serves the OpenAPI document of every web service added
// so far.
func RegisterOpenAPI(container *restful.Container, version string) {
	config := restfulspec.Config{
		WebServices: container.RegisteredWebServices(),
		APIPath:     OpenAPIPath,
		PostBuildSwaggerObjectHandler: func(swo *spec.Swagger) {
			enrichSwaggerObject(swo, version)
		},
	}
	container.Add(restfulspec.NewOpenAPIService(config))
}

func enrichSwaggerObject(swo *spec.Swagger, version string) {
	swo.Info = &spec.Info{
		InfoProps: spec.InfoProps{
			Title:       "Obsidian Search API",
			Description: "Browse, search and deep-link the notes of an Obsidian vault",
			Version:     version,
		},
	}
	swo.Tags = []spec.Tag{
		{TagProps: spec.TagProps{Name: "health", Description: "Health checks"}},
		{TagProps: spec.TagProps{Name: "browse", Description: "Directory listings and note previews"}},
		{TagProps: spec.TagProps{Name: "search", Description: "Full-text search"}},
		{TagProps: spec.TagProps{Name: "link", Description: "Obsidian deep links"}},
	}
}
