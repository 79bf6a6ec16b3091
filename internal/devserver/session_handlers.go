package devserver

import (
	"errors"
	"net/http"
	"slices"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/langassess/langassess/internal/assessment"
	"github.com/langassess/langassess/internal/auth"
	"github.com/langassess/langassess/internal/grading"
)

var (
	errAbandoned = errors.New("assessment abandoned")
	errQualified = errors.New("assessment already completed at the final step")
	errNoAnswers = errors.New("no answers to score")
	errChanged   = errors.New("assessment changed while scoring, retry")
)

// POST /assessment/user creates the caller's session at step 1.
func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	u, err := s.store.userByID(auth.SubjectFromContext(r.Context()))
	if err != nil {
		writeFail(w, http.StatusUnauthorized, "user not found")
		return
	}
	sess, err := s.store.createSession(u)
	if errors.Is(err, errExists) {
		writeFail(w, http.StatusConflict, "assessment already exists")
		return
	}
	writeOK(w, http.StatusCreated, "assessment created", sess)
}

// GET /assessment/user
func (s *Server) userSessions(w http.ResponseWriter, r *http.Request) {
	out := []assessment.Session{}
	if sess, found := s.store.sessionOf(auth.SubjectFromContext(r.Context())); found {
		out = append(out, sess)
	}
	writeOK(w, http.StatusOK, "assessments retrieved", out)
}

// PATCH /assessment stores one attempt's answers. Submitting after a
// proceed result starts the next step; after a completed result, a retake
// of the same step.
func (s *Server) submitAnswers(w http.ResponseWriter, r *http.Request) {
	var answers []assessment.Answer
	if !decode(w, r, &answers) {
		return
	}
	if len(answers) == 0 {
		writeFail(w, http.StatusBadRequest, "no answers submitted")
		return
	}
	sess, found := s.store.sessionOf(auth.SubjectFromContext(r.Context()))
	if !found {
		writeFail(w, http.StatusNotFound, "no assessment for this user")
		return
	}

	sess, err := s.store.updateSession(sess.ID, func(sess *assessment.Session) error {
		switch sess.Status {
		case assessment.StatusAbandoned:
			return errAbandoned
		case assessment.StatusProceed:
			if sess.CurrentStep >= assessment.MaxStep {
				return errQualified
			}
			sess.CurrentStep++
		}
		sess.Status = assessment.StatusInProgress
		for _, a := range answers {
			sess.Answers = assessment.UpsertAnswer(sess.Answers, a)
		}
		return nil
	})
	if err != nil {
		writeFail(w, http.StatusConflict, err.Error())
		return
	}
	submissions.WithLabelValues(strconv.Itoa(sess.CurrentStep)).Inc()
	writeOK(w, http.StatusOK, "answers submitted", sess)
}

// PATCH /assessment/{id} scores the stored answers.
func (s *Server) scoreSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, found := s.store.session(id)
	if !found || !s.sessionOwnerOrRole(r, sess) {
		writeFail(w, http.StatusNotFound, "assessment not found")
		return
	}

	switch {
	case sess.Status == assessment.StatusAbandoned:
		writeFail(w, http.StatusConflict, errAbandoned.Error())
		return
	case len(sess.Answers) == 0:
		writeFail(w, http.StatusBadRequest, errNoAnswers.Error())
		return
	}

	// Grading reads the question bank, so it runs before the session is
	// locked. The update only lands if the session did not move meanwhile.
	_, out := s.grader.Score(sess.CurrentStep, sess.Answers)
	snapshot := sess
	sess, err := s.store.updateSession(id, func(cur *assessment.Session) error {
		if cur.Status == assessment.StatusAbandoned {
			return errAbandoned
		}
		if len(cur.Answers) == 0 {
			return errNoAnswers
		}
		if cur.CurrentStep != snapshot.CurrentStep || !slices.Equal(cur.Answers, snapshot.Answers) {
			return errChanged
		}
		grading.Apply(cur, out)
		return nil
	})
	switch {
	case errors.Is(err, errNoAnswers):
		writeFail(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		writeFail(w, http.StatusConflict, err.Error())
		return
	}
	scorings.WithLabelValues(strconv.Itoa(out.Step), string(out.Status)).Inc()
	s.log.Printf("scored %s: %s", id, out)
	writeOK(w, http.StatusOK, "result processed", sess)
}

// GET /assessment?page&limit&status
func (s *Server) allSessions(w http.ResponseWriter, r *http.Request) {
	page, limit := paging(r, 10)
	list, total := s.store.listSessions(sessionFilter{
		Status: assessment.Status(r.URL.Query().Get("status")),
		Offset: (page - 1) * limit,
		Limit:  limit,
	})
	writeJSON(w, http.StatusOK, reply{
		Success: true,
		Message: "assessments retrieved",
		Data:    list,
		Meta:    &meta{Page: page, Limit: limit, Total: total},
	})
}
