package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"Pressroom/internal/api/handlers/post"
	"Pressroom/internal/core/posts"
)

// RegisterPostRoutes mounts the posts resource under /posts.
// The router is expected to run the identity middleware already; handlers
// read the caller from the request context and the service enforces who may
// do what. requireAuth guards the write routes. Static paths are registered
// before /{id} so they are never read as an id.
func RegisterPostRoutes(r chi.Router, service posts.Service, requireAuth func(http.Handler) http.Handler, maxUploadBytes int64) {
	listHandler := post.NewListHandler(service)
	getHandler := post.NewGetHandler(service)
	createHandler := post.NewCreateHandler(service, maxUploadBytes)
	updateHandler := post.NewUpdateHandler(service)
	deleteHandler := post.NewDeleteHandler(service)

	r.Route("/posts", func(r chi.Router) {
		r.Get("/", listHandler.HandleListPublished)
		r.Get("/published", listHandler.HandleListMyPublished)

		// The draft listings answer any method
		r.HandleFunc("/allunpublished", listHandler.HandleListAllUnpublished)
		r.HandleFunc("/unpublished", listHandler.HandleListMyUnpublished)

		r.With(requireAuth).Post("/create", createHandler.HandleCreate)
		r.With(requireAuth).Post("/create/image", createHandler.HandleCreateWithImage)

		r.Get("/{id}", getHandler.HandleGet)
		r.With(requireAuth).Put("/{id}", updateHandler.HandleUpdate)
		r.With(requireAuth).Delete("/{id}", deleteHandler.HandleDelete)
	})
}

// RegisterImageRoutes serves locally stored uploads from dir under /image/
func RegisterImageRoutes(r chi.Router, dir string) {
	fs := http.StripPrefix("/image/", http.FileServer(http.Dir(dir)))
	r.Get("/image/*", func(w http.ResponseWriter, req *http.Request) {
		// Directory listings are not served
		if chi.URLParam(req, "*") == "" {
			http.NotFound(w, req)
			return
		}
		fs.ServeHTTP(w, req)
	})
}
