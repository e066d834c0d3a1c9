package tableserver

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const maxBodyBytes = 8 << 20

func (s *Server) table(c *gin.Context) (string, bool) {
	name := c.Param("table")
	s.mu.RLock()
	_, ok := s.tables[name]
	s.mu.RUnlock()
	if !ok {
		abort(c, http.StatusNotFound, "unknown_table", `relation "`+name+`" does not exist`)
		return "", false
	}
	return name, true
}

func wantsRepresentation(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Prefer"), "return=representation")
}

func (s *Server) list(c *gin.Context) {
	name, ok := s.table(c)
	if !ok {
		return
	}
	q, err := parseQuery(c.Request.URL.Query())
	if err != nil {
		abort(c, http.StatusBadRequest, "bad_filter", err.Error())
		return
	}
	s.mu.RLock()
	out := make([]Row, 0)
	for _, row := range s.tables[name] {
		if q.matches(row) {
			out = append(out, cloneRow(row))
		}
	}
	s.mu.RUnlock()
	q.sort(out)
	c.JSON(http.StatusOK, out)
}

func (s *Server) insert(c *gin.Context) {
	name, ok := s.table(c)
	if !ok {
		return
	}
	rows, err := decodeRows(c.Request.Body)
	if err != nil {
		abort(c, http.StatusBadRequest, "bad_body", err.Error())
		return
	}
	created := make([]Row, 0, len(rows))
	s.mu.Lock()
	for _, row := range rows {
		if id, _ := row["id"].(string); strings.TrimSpace(id) == "" {
			row["id"] = s.newID()
		}
		s.tables[name] = append(s.tables[name], row)
		created = append(created, cloneRow(row))
	}
	s.mu.Unlock()
	if wantsRepresentation(c) {
		c.JSON(http.StatusCreated, created)
		return
	}
	c.Status(http.StatusCreated)
}

func (s *Server) update(c *gin.Context) {
	name, ok := s.table(c)
	if !ok {
		return
	}
	q, ok := filteredQuery(c)
	if !ok {
		return
	}
	var patch Row
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err == nil {
		err = json.Unmarshal(body, &patch)
	}
	if err != nil || patch == nil {
		abort(c, http.StatusBadRequest, "bad_body", "PATCH body must be a JSON object")
		return
	}
	delete(patch, "id")
	updated := make([]Row, 0)
	s.mu.Lock()
	for _, row := range s.tables[name] {
		if !q.matches(row) {
			continue
		}
		for k, v := range patch {
			row[k] = v
		}
		updated = append(updated, cloneRow(row))
	}
	s.mu.Unlock()
	if wantsRepresentation(c) {
		c.JSON(http.StatusOK, updated)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) remove(c *gin.Context) {
	name, ok := s.table(c)
	if !ok {
		return
	}
	q, ok := filteredQuery(c)
	if !ok {
		return
	}
	removed := make([]Row, 0)
	s.mu.Lock()
	kept := s.tables[name][:0]
	for _, row := range s.tables[name] {
		if q.matches(row) {
			removed = append(removed, row)
			continue
		}
		kept = append(kept, row)
	}
	clear(s.tables[name][len(kept):])
	s.tables[name] = kept
	s.mu.Unlock()
	if wantsRepresentation(c) {
		c.JSON(http.StatusOK, removed)
		return
	}
	c.Status(http.StatusNoContent)
}

// filteredQuery parses the filters of a PATCH or DELETE. Unfiltered writes
// would touch the whole table and are refused.
func filteredQuery(c *gin.Context) (query, bool) {
	q, err := parseQuery(c.Request.URL.Query())
	if err != nil {
		abort(c, http.StatusBadRequest, "bad_filter", err.Error())
		return query{}, false
	}
	if len(q.filters) == 0 {
		abort(c, http.StatusBadRequest, "missing_filter", c.Request.Method+" requires at least one filter")
		return query{}, false
	}
	return q, true
}

// decodeRows accepts a single JSON object or an array of objects.
func decodeRows(r io.Reader) ([]Row, error) {
	body, err := io.ReadAll(io.LimitReader(r, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '[' {
		var rows []Row
		if err := json.Unmarshal(body, &rows); err != nil {
			return nil, err
		}
		for _, row := range rows {
			if row == nil {
				return nil, errNullRow
			}
		}
		return rows, nil
	}
	var row Row
	if err := json.Unmarshal(body, &row); err != nil {
		return nil, err
	}
	if row == nil {
		return nil, errNullRow
	}
	return []Row{row}, nil
}
