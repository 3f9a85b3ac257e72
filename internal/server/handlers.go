package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/emberwiki/emberwiki/wiki"
)

// draftRequest is the submission body shared by create and edit.
type draftRequest struct {
	Title           string   `json:"title"`
	Category        string   `json:"category"`
	Summary         string   `json:"summary"`
	Content         string   `json:"content"`
	ContentFormat   string   `json:"contentFormat"`
	Tags            []string `json:"tags"`
	RelatedArticles []string `json:"relatedArticles"`

	EditSummary        string `json:"editSummary"`
	BaseRevisionNumber int    `json:"baseRevisionNumber"`
}

func (r *draftRequest) draft() wiki.Draft {
	format := wiki.ContentFormat(r.ContentFormat)
	if r.ContentFormat == "" {
		format = wiki.FormatMarkdown
	}
	return wiki.Draft{
		Title:           r.Title,
		Category:        wiki.Category(r.Category),
		Summary:         r.Summary,
		Content:         r.Content,
		ContentFormat:   format,
		Tags:            r.Tags,
		RelatedArticles: r.RelatedArticles,
	}
}

func decodeBody(rw http.ResponseWriter, req *http.Request, v any) bool {
	if err := json.NewDecoder(req.Body).Decode(v); err != nil {
		writeError(rw, wiki.NewValidationError("body", "malformed JSON"))
		return false
	}
	return true
}

// viewerForWrite resolves the request's viewer, hard-failing on a broken
// session. Returns nil after writing the error response.
func (a *App) viewerForWrite(rw http.ResponseWriter, req *http.Request) *wiki.Viewer {
	viewer, err := a.Viewers.ResolveViewer(requestSession(req))
	if err != nil {
		writeError(rw, err)
		return nil
	}
	return viewer
}

func (a *App) viewerForRead(req *http.Request) *wiki.Viewer {
	return a.Viewers.ResolveViewerForRead(requestSession(req))
}

func (a *App) CreateArticleHandler(rw http.ResponseWriter, req *http.Request) {
	var body draftRequest
	if !decodeBody(rw, req, &body) {
		return
	}
	viewer := a.viewerForWrite(rw, req)
	if viewer == nil {
		return
	}

	result, err := a.Revisions.CreateArticle(req.Context(), viewer, body.draft(), body.EditSummary)
	if err != nil {
		writeError(rw, err)
		return
	}
	slog.Info("article created", "slug", result.Slug, "status", result.Status, "author", viewer.Name)
	writeJSON(rw, http.StatusCreated, result)
}

func (a *App) GetArticleHandler(rw http.ResponseWriter, req *http.Request) {
	slug := mux.Vars(req)["slug"]
	view, err := a.Articles.GetArticle(a.viewerForRead(req), slug)
	if err != nil {
		writeError(rw, err)
		return
	}
	writeJSON(rw, http.StatusOK, view)
}

func (a *App) SubmitEditHandler(rw http.ResponseWriter, req *http.Request) {
	slug := mux.Vars(req)["slug"]
	var body draftRequest
	if !decodeBody(rw, req, &body) {
		return
	}
	viewer := a.viewerForWrite(rw, req)
	if viewer == nil {
		return
	}

	result, err := a.Revisions.SubmitEdit(req.Context(), viewer, slug, body.draft(), body.EditSummary, body.BaseRevisionNumber)
	if err != nil {
		writeError(rw, err)
		return
	}
	slog.Info("edit submitted", "slug", slug, "revision", result.RevisionNumber, "status", result.Status, "author", viewer.Name)
	writeJSON(rw, http.StatusOK, result)
}

func (a *App) HistoryHandler(rw http.ResponseWriter, req *http.Request) {
	slug := mux.Vars(req)["slug"]
	entries, err := a.History.GetHistory(a.viewerForRead(req), slug)
	if err != nil {
		writeError(rw, err)
		return
	}
	writeJSON(rw, http.StatusOK, map[string]any{"slug": slug, "revisions": entries})
}

func (a *App) RawRevisionHandler(rw http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)
	number, err := strconv.Atoi(vars["number"])
	if err != nil {
		writeError(rw, wiki.NewValidationError("revisionNumber", "must be an integer"))
		return
	}

	rev, err := a.History.GetRaw(a.viewerForRead(req), vars["slug"], number)
	if err != nil {
		writeError(rw, err)
		return
	}
	rw.Header().Set("Content-Type", "text/plain; charset=utf-8")
	rw.Write([]byte(rev.Content))
}

func (a *App) BlameHandler(rw http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)
	number, err := strconv.Atoi(vars["number"])
	if err != nil {
		writeError(rw, wiki.NewValidationError("revisionNumber", "must be an integer"))
		return
	}

	view, err := a.History.GetBlame(a.viewerForRead(req), vars["slug"], number)
	if err != nil {
		writeError(rw, err)
		return
	}
	writeJSON(rw, http.StatusOK, view)
}

func (a *App) CompareHandler(rw http.ResponseWriter, req *http.Request) {
	slug := mux.Vars(req)["slug"]
	query := req.URL.Query()
	oldNumber, err := strconv.Atoi(query.Get("old"))
	if err != nil {
		writeError(rw, wiki.NewValidationError("old", "must be an integer"))
		return
	}
	newNumber, err := strconv.Atoi(query.Get("new"))
	if err != nil {
		writeError(rw, wiki.NewValidationError("new", "must be an integer"))
		return
	}

	comparison, err := a.History.GetCompare(a.viewerForRead(req), slug, oldNumber, newNumber)
	if err != nil {
		writeError(rw, err)
		return
	}
	writeJSON(rw, http.StatusOK, comparison)
}

func (a *App) RevertHandler(rw http.ResponseWriter, req *http.Request) {
	revisionID, err := strconv.ParseInt(mux.Vars(req)["id"], 10, 64)
	if err != nil {
		writeError(rw, wiki.NewValidationError("revisionId", "must be an integer"))
		return
	}
	viewer := a.viewerForWrite(rw, req)
	if viewer == nil {
		return
	}

	result, err := a.Revisions.RevertRevision(req.Context(), viewer, revisionID)
	if err != nil {
		writeError(rw, err)
		return
	}
	slog.Info("revision reverted", "slug", result.Slug, "revision", result.RevisionNumber, "author", viewer.Name)
	writeJSON(rw, http.StatusOK, result)
}

func (a *App) ModerateHandler(rw http.ResponseWriter, req *http.Request) {
	revisionID, err := strconv.ParseInt(mux.Vars(req)["id"], 10, 64)
	if err != nil {
		writeError(rw, wiki.NewValidationError("revisionId", "must be an integer"))
		return
	}
	var body struct {
		Action string `json:"action"`
	}
	if !decodeBody(rw, req, &body) {
		return
	}
	viewer := a.viewerForWrite(rw, req)
	if viewer == nil {
		return
	}

	result, err := a.Revisions.ModerateRevision(viewer, revisionID, wiki.ModerationAction(body.Action))
	if err != nil {
		writeError(rw, err)
		return
	}
	slog.Info("revision moderated",
		"revision_id", revisionID, "action", body.Action, "status", result.Status, "moderator", viewer.Name)
	writeJSON(rw, http.StatusOK, result)
}

func (a *App) ModerationQueueHandler(rw http.ResponseWriter, req *http.Request) {
	viewer := a.viewerForWrite(rw, req)
	if viewer == nil {
		return
	}

	queue, err := a.Queue.ModerationQueue(viewer)
	if err != nil {
		writeError(rw, err)
		return
	}
	writeJSON(rw, http.StatusOK, queue)
}

func (a *App) SubmitReportHandler(rw http.ResponseWriter, req *http.Request) {
	var body struct {
		TargetType string `json:"targetType"`
		TargetID   string `json:"targetId"`
		Reason     string `json:"reason"`
		Detail     string `json:"detail"`
	}
	if !decodeBody(rw, req, &body) {
		return
	}
	viewer := a.viewerForWrite(rw, req)
	if viewer == nil {
		return
	}

	report, err := a.Queue.SubmitReport(req.Context(), viewer,
		wiki.TargetType(body.TargetType), body.TargetID, wiki.ReportReason(body.Reason), body.Detail)
	if err != nil {
		writeError(rw, err)
		return
	}
	slog.Info("report submitted", "report_id", report.ID, "target", report.FallbackLabel(), "reason", report.Reason)
	writeJSON(rw, http.StatusCreated, report)
}

func (a *App) ResolveReportHandler(rw http.ResponseWriter, req *http.Request) {
	reportID, err := strconv.ParseInt(mux.Vars(req)["id"], 10, 64)
	if err != nil {
		writeError(rw, wiki.NewValidationError("reportId", "must be an integer"))
		return
	}
	var body struct {
		Status string `json:"status"`
		Detail string `json:"detail"`
	}
	if !decodeBody(rw, req, &body) {
		return
	}
	viewer := a.viewerForWrite(rw, req)
	if viewer == nil {
		return
	}

	report, err := a.Queue.ResolveReport(viewer, reportID, wiki.ReportStatus(body.Status), body.Detail)
	if err != nil {
		writeError(rw, err)
		return
	}
	slog.Info("report resolved", "report_id", reportID, "status", report.Status, "moderator", viewer.Name)
	writeJSON(rw, http.StatusOK, report)
}

func (a *App) RegisterHandler(rw http.ResponseWriter, req *http.Request) {
	var body struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeBody(rw, req, &body) {
		return
	}

	profile, err := a.Identity.Register(body.Username, body.Email, body.Password)
	if err != nil {
		slog.Warn("registration failed", "category", "auth", "action", "register", "username", body.Username, "reason", err.Error(), "ip", req.RemoteAddr)
		writeError(rw, err)
		return
	}
	slog.Info("user registered", "category", "auth", "action", "register", "username", profile.Username, "ip", req.RemoteAddr)

	if err := a.beginSession(rw, req, profile.ActorID); err != nil {
		writeError(rw, err)
		return
	}
	writeJSON(rw, http.StatusCreated, map[string]string{"actorId": profile.ActorID, "username": profile.Username})
}

func (a *App) LoginHandler(rw http.ResponseWriter, req *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeBody(rw, req, &body) {
		return
	}

	profile, err := a.Identity.Login(body.Email, body.Password)
	if err != nil {
		slog.Warn("login failed", "category", "auth", "action", "login", "email", body.Email, "ip", req.RemoteAddr)
		writeError(rw, err)
		return
	}
	slog.Info("user logged in", "category", "auth", "action", "login", "username", profile.Username, "ip", req.RemoteAddr)

	if err := a.beginSession(rw, req, profile.ActorID); err != nil {
		writeError(rw, err)
		return
	}
	writeJSON(rw, http.StatusOK, map[string]string{"actorId": profile.ActorID, "username": profile.Username})
}

func (a *App) LogoutHandler(rw http.ResponseWriter, req *http.Request) {
	if err := a.endSession(rw, req); err != nil {
		writeError(rw, err)
		return
	}
	writeJSON(rw, http.StatusOK, map[string]string{"status": "logged out"})
}
