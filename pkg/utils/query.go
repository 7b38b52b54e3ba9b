package utils

import (
	"net/http"
	"strconv"
	"time"

	"github.com/toosila/toosila-api/internal/models"
)

const dateLayout = "2006-01-02"

// ParsePage reads ?page= and ?limit=, falling back to defaults on bad input
func ParsePage(r *http.Request) models.Page {
	q := r.URL.Query()
	number, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	return models.NewPage(number, limit)
}

// QueryInt returns the integer value of key or def when missing or malformed
func QueryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// QueryBool treats "1", "true" and friends as true
func QueryBool(r *http.Request, key string) bool {
	b, _ := strconv.ParseBool(r.URL.Query().Get(key))
	return b
}

// QueryDate parses a YYYY-MM-DD value. A missing key yields nil, nil.
func QueryDate(r *http.Request, key string) (*time.Time, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
