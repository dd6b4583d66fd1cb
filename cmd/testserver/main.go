// Demo server exposing the book catalog grid over HTTP. Every request
// carries its full grid state in URL query parameters, e.g.:
//
//	curl 'localhost:8080/api/books?title=dune&sort=-year&page=1&page_size=3'
//	curl 'localhost:8080/api/books?tags[]=space&tags[]=classic&search=iron'
//	curl 'localhost:8080/api/books?year_from=2019&year_to=2022&sort=price'
package main

import (
	"encoding/json"
	"net/http"
	"os"

	"github.com/glebarez/sqlite"
	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/bitechdev/GridSpec/pkg/common"
	"github.com/bitechdev/GridSpec/pkg/common/adapters/database"
	"github.com/bitechdev/GridSpec/pkg/gridspec"
	"github.com/bitechdev/GridSpec/pkg/logger"
	"github.com/bitechdev/GridSpec/pkg/testmodels"
)

func main() {
	logger.Init(true)

	db, err := openDatabase()
	if err != nil {
		logger.Error("Failed to open database: %v", err)
		os.Exit(1)
	}

	adapter := database.NewGormAdapter(db)

	table, err := gridspec.NewTable(
		adapter,
		testmodels.BooksResource(),
		testmodels.BookColumns(),
		gridspec.TableOptions{
			PageSize: 10,
			Preload:  []string{"Author", "Author.Publisher"},
		},
	)
	if err != nil {
		logger.Error("Failed to configure grid: %v", err)
		os.Exit(1)
	}

	router := mux.NewRouter()
	router.HandleFunc("/api/books", handleBooks(table)).Methods(http.MethodGet)
	router.HandleFunc("/api/books/genres", handleGenres(adapter)).Methods(http.MethodGet)

	addr := ":8080"
	if v := os.Getenv("ADDR"); v != "" {
		addr = v
	}
	logger.Info("Test server listening on %s", addr)
	if err := http.ListenAndServe(addr, router); err != nil {
		logger.Error("Server stopped: %v", err)
		os.Exit(1)
	}
}

func handleBooks(table *gridspec.Table) http.HandlerFunc {
	type response struct {
		Rows     []interface{}   `json:"rows"`
		PageInfo common.PageInfo `json:"page_info"`
		Error    string          `json:"error,omitempty"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		result := table.QueryParams(r.Context(), r.URL.Query())

		resp := response{Rows: result.Rows, PageInfo: result.PageInfo}
		status := http.StatusOK
		if result.Err != nil {
			resp.Error = result.Err.Error()
			status = http.StatusInternalServerError
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			logger.Error("Failed to encode response: %v", err)
		}
	}
}

// handleGenres serves the distinct genres with their row counts, used to
// populate the genre filter's option list.
func handleGenres(db common.Database) http.HandlerFunc {
	type genreCount struct {
		Genre string `json:"genre"`
		Count int    `json:"count"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var counts []genreCount
		err := db.Query(r.Context(), &counts,
			"SELECT genre, COUNT(*) AS count FROM books GROUP BY genre ORDER BY genre")

		w.Header().Set("Content-Type", "application/json")
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
			return
		}
		if err := json.NewEncoder(w).Encode(counts); err != nil {
			logger.Error("Failed to encode response: %v", err)
		}
	}
}

func openDatabase() (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&testmodels.Publisher{}, &testmodels.Author{}, &testmodels.Book{}); err != nil {
		return nil, err
	}
	if err := db.Create(testmodels.SeedPublishers()).Error; err != nil {
		return nil, err
	}
	if err := db.Create(testmodels.SeedAuthors()).Error; err != nil {
		return nil, err
	}
	if err := db.Create(testmodels.SeedBooks()).Error; err != nil {
		return nil, err
	}
	return db, nil
}
