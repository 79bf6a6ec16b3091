package devserver

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/langassess/langassess/internal/assessment"
	"github.com/langassess/langassess/internal/auth"
)

// GET /question?page&limit&competency&level  (level is comma separated)
func (s *Server) listQuestions(w http.ResponseWriter, r *http.Request) {
	page, limit := paging(r, 10)
	f := questionFilter{
		Competency: assessment.Competency(r.URL.Query().Get("competency")),
		Offset:     (page - 1) * limit,
		Limit:      limit,
	}
	if f.Competency != "" && !f.Competency.Valid() {
		writeFail(w, http.StatusBadRequest, "unknown competency")
		return
	}
	for _, part := range strings.Split(r.URL.Query().Get("level"), ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		l, err := assessment.ParseLevel(part)
		if err != nil {
			writeFail(w, http.StatusBadRequest, err.Error())
			return
		}
		f.Levels = append(f.Levels, l)
	}

	qs, total := s.store.listQuestions(f)
	writeJSON(w, http.StatusOK, reply{
		Success: true,
		Message: "questions retrieved",
		Data:    qs,
		Meta:    &meta{Page: page, Limit: limit, Total: total},
	})
}

func (s *Server) getQuestion(w http.ResponseWriter, r *http.Request) {
	q, found := s.store.question(chi.URLParam(r, "id"))
	if !found {
		writeFail(w, http.StatusNotFound, "question not found")
		return
	}
	writeOK(w, http.StatusOK, "question retrieved", q)
}

func (s *Server) createQuestion(w http.ResponseWriter, r *http.Request) {
	var q assessment.Question
	if !decode(w, r, &q) {
		return
	}
	if err := q.Validate(); err != nil {
		writeFail(w, http.StatusBadRequest, err.Error())
		return
	}
	q.ID = ""
	q.CreatedBy = auth.SubjectFromContext(r.Context())
	writeOK(w, http.StatusCreated, "question created", s.store.putQuestion(q))
}

func (s *Server) updateQuestion(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	old, found := s.store.question(id)
	if !found {
		writeFail(w, http.StatusNotFound, "question not found")
		return
	}
	var q assessment.Question
	if !decode(w, r, &q) {
		return
	}
	if err := q.Validate(); err != nil {
		writeFail(w, http.StatusBadRequest, err.Error())
		return
	}
	q.ID, q.CreatedBy = id, old.CreatedBy
	writeOK(w, http.StatusOK, "question updated", s.store.putQuestion(q))
}

func (s *Server) deleteQuestion(w http.ResponseWriter, r *http.Request) {
	if err := s.store.deleteQuestion(chi.URLParam(r, "id")); err != nil {
		writeFail(w, http.StatusNotFound, "question not found")
		return
	}
	writeOK(w, http.StatusOK, "question deleted", nil)
}
