package api

import (
	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	"github.com/emicklei/go-restful/v3"

	"github.com/webpuppy/webhound-go/internal/api/middleware"
	"github.com/webpuppy/webhound-go/internal/models"
)

func RegisterRoutes(container *restful.Container, handler *Handler) {
	ws := new(restful.WebService)

	ws.
		Path("/api").
		Consumes(restful.MIME_JSON).
		Produces(restful.MIME_JSON)

	ws.
		Route(ws.GET("/health").
			To(handler.Health).
			Doc("Health check").
			Metadata(restfulspec.KeyOpenAPITags, []string{"health"}).
			Writes(models.HealthResponse{}).
			Returns(200, "OK", models.HealthResponse{}))

	ws.
		Route(ws.POST("/datasets/generate").
			To(handler.Generate).
			Doc("Submit a query for dataset generation").
			Metadata(restfulspec.KeyOpenAPITags, []string{"datasets"}).
			Reads(models.GenerateRequest{}).
			Writes(models.GenerateResponse{}).
			Returns(202, "Accepted", models.GenerateResponse{}).
			Returns(400, "Query Rejected", models.PreprocessingErrorData{}))

	ws.
		Route(ws.GET("/datasets/{job_id}/results").
			To(handler.Results).
			Doc("Fetch job status and dataset").
			Metadata(restfulspec.KeyOpenAPITags, []string{"datasets"}).
			Param(ws.PathParameter("job_id", "Job identifier").DataType("string")).
			Writes(models.DatasetResult{}).
			Returns(200, "OK", models.DatasetResult{}).
			Returns(404, "Not Found", middleware.ErrorResponse{}))

	ws.
		Route(ws.GET("/datasets/{job_id}/raw").
			To(handler.Raw).
			Doc("Fetch the unprocessed job record").
			Metadata(restfulspec.KeyOpenAPITags, []string{"datasets"}).
			Param(ws.PathParameter("job_id", "Job identifier").DataType("string")).
			Writes(models.RawDataResponse{}).
			Returns(200, "OK", models.RawDataResponse{}).
			Returns(404, "Not Found", middleware.ErrorResponse{}))

	ws.
		Route(ws.GET("/datasets/{job_id}/download").
			To(handler.Download).
			Doc("Download the dataset as CSV").
			Metadata(restfulspec.KeyOpenAPITags, []string{"datasets"}).
			Param(ws.PathParameter("job_id", "Job identifier").DataType("string")).
			Produces("text/csv").
			Returns(200, "OK", nil).
			Returns(404, "Not Found", middleware.ErrorResponse{}).
			Returns(409, "Not Completed", middleware.ErrorResponse{}))

	ws.
		Route(ws.GET("/queries/recent").
			To(handler.Recent).
			Doc("List recent queries").
			Metadata(restfulspec.KeyOpenAPITags, []string{"queries"}).
			Param(ws.QueryParameter("limit", "Maximum entries to return (default: 10)").DataType("integer").Required(false)).
			Writes(models.RecentQueriesResponse{}).
			Returns(200, "OK", models.RecentQueriesResponse{}))

	ws.
		Route(ws.POST("/jobs/{job_id}/rate").
			To(handler.Rate).
			Doc("Rate a completed job").
			Metadata(restfulspec.KeyOpenAPITags, []string{"feedback"}).
			Param(ws.PathParameter("job_id", "Job identifier").DataType("string")).
			Reads(models.RatingRequest{}).
			Writes(models.RatingResponse{}).
			Returns(200, "OK", models.RatingResponse{}).
			Returns(400, "Bad Request", middleware.ErrorResponse{}).
			Returns(404, "Not Found", middleware.ErrorResponse{}))

	ws.
		Route(ws.GET("/jobs/rating-stats").
			To(handler.RatingStats).
			Doc("Aggregate rating statistics").
			Metadata(restfulspec.KeyOpenAPITags, []string{"feedback"}).
			Writes(models.RatingStats{}).
			Returns(200, "OK", models.RatingStats{}))

	container.Add(ws)
}
