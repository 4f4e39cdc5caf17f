package api

import (
	"encoding/json"
	"net/http"

	"github.com/rubiojr/hayao/pkg/highlight"
	"github.com/rubiojr/hayao/pkg/log"
	"github.com/rubiojr/hayao/pkg/search"
	"github.com/rubiojr/hayao/pkg/warehouse"
)

type Server struct {
	warehouse     *warehouse.Warehouse
	searchService *search.Service
	logger        *log.Logger
}

// NewServer builds the JSON API on top of wh. Highlighted values in search
// responses are HTML: matches wrapped in <mark>, everything else escaped.
func NewServer(wh *warehouse.Warehouse, maxResults int) *Server {
	return &Server{
		warehouse:     wh,
		searchService: search.NewSearchService(wh, highlight.HTML, maxResults),
		logger:        log.ForService("api"),
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Errorf("Error encoding JSON response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, error, message string) {
	response := ErrorResponse{
		Error:   error,
		Message: message,
	}
	s.writeJSON(w, status, response)
}

func CorsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
