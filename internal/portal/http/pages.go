package http

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/portal/internal/portal/domain"
	"github.com/aussiebroadwan/portal/internal/portal/service"
	"github.com/aussiebroadwan/portal/pkg/httpx"
	"github.com/aussiebroadwan/portal/pkg/slogx"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Page notices selected by query parameters.
const (
	noticeConfirmFailed = "Your confirmation link is invalid or has expired. Please sign in or register again."
	noticeLoggedOut     = "You have been signed out."
	noticeRegistered    = "Your account is ready. Please sign in."
	noticeSignIn        = "Please sign in to continue."
)

type pageData struct {
	Title string
	Brand string

	Notice string
	Error  string
	Fields map[string]string

	// login
	Email          string
	RedirectedFrom string

	// register
	Form service.RegistrationInput
	Done bool

	// dashboard
	DisplayName string
	Profile     *domain.Profile
}

// Pages serves the server-rendered pages.
type Pages struct {
	RegistrationService *service.RegistrationService
	Sessions            *Sessions
	Guard               service.Guard
	Brand               string
}

func (p *Pages) render(w http.ResponseWriter, r *http.Request, status int, name string, data pageData) {
	data.Brand = p.Brand
	if data.Fields == nil {
		data.Fields = map[string]string{}
	}

	var buf bytes.Buffer
	if err := pageTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		slogx.FromContext(r.Context()).Error("failed to render page", "page", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	httpx.NoCache(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// HandleIndex sends visitors to the dashboard; the guard takes it from there.
func (p *Pages) HandleIndex(w http.ResponseWriter, r *http.Request) {
	httpx.SeeOther(w, r, service.DashboardPath)
}

func (p *Pages) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	data := pageData{Title: "Sign in", RedirectedFrom: q.Get("redirectedFrom")}

	switch {
	case q.Get("error") == "confirmation_failed":
		data.Error = noticeConfirmFailed
	case q.Get("registered") != "":
		data.Notice = noticeRegistered
	case q.Get("loggedOut") != "":
		data.Notice = noticeLoggedOut
	case data.RedirectedFrom != "":
		data.Notice = noticeSignIn
	}

	p.render(w, r, http.StatusOK, "login", data)
}

func (p *Pages) HandleLoginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		p.render(w, r, http.StatusBadRequest, "login", pageData{Title: "Sign in", Error: "Invalid form data"})
		return
	}

	in := service.LoginInput{Email: strings.TrimSpace(r.PostForm.Get("email")), Password: r.PostForm.Get("password")}
	redirectedFrom := r.PostForm.Get("redirectedFrom")

	sess, err := p.Sessions.Service.Login(r.Context(), in)
	if err != nil {
		status, data := pageError(err)
		data.Title = "Sign in"
		data.Email = in.Email
		data.RedirectedFrom = redirectedFrom
		p.render(w, r, status, "login", data)
		return
	}

	p.Sessions.setCookies(w, sess)
	httpx.SeeOther(w, r, p.Guard.PostLoginTarget(redirectedFrom))
}

func (p *Pages) HandleRegisterPage(w http.ResponseWriter, r *http.Request) {
	p.render(w, r, http.StatusOK, "register", pageData{Title: "Register"})
}

func (p *Pages) HandleRegisterSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		p.render(w, r, http.StatusBadRequest, "register", pageData{Title: "Register", Error: "Invalid form data"})
		return
	}

	f := r.PostForm
	in := service.RegistrationInput{
		FirstName: f.Get("firstName"),
		LastName:  f.Get("lastName"),
		Email:     f.Get("email"),
		Password:  f.Get("password"),
		Phone:     f.Get("phone"),
	}
	if f.Has("confirmPassword") {
		confirm := f.Get("confirmPassword")
		in.ConfirmPassword = &confirm
	}

	res, err := p.RegistrationService.Register(r.Context(), in)
	if err != nil {
		status, data := pageError(err)
		data.Title = "Register"
		data.Form = service.RegistrationInput{FirstName: in.FirstName, LastName: in.LastName, Email: in.Email, Phone: in.Phone}
		p.render(w, r, status, "register", data)
		return
	}

	if res.Status == domain.StatusRegistered {
		httpx.SeeOther(w, r, service.LoginPath+"?registered=1")
		return
	}

	status := http.StatusCreated
	if res.Status == domain.StatusUnknown {
		status = http.StatusAccepted
	}
	p.render(w, r, status, "register", pageData{Title: "Register", Notice: res.Message, Done: true})
}

func (p *Pages) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	if sess == nil {
		// The guard normally catches this first.
		httpx.SeeOther(w, r, service.LoginPath)
		return
	}

	view := p.Sessions.Service.Dashboard(r.Context(), *sess)
	p.render(w, r, http.StatusOK, "dashboard", pageData{
		Title:       "Dashboard",
		Email:       view.User.Email,
		DisplayName: view.DisplayName.Full(),
		Profile:     view.Profile,
	})
}

func (p *Pages) HandleLogout(w http.ResponseWriter, r *http.Request) {
	(&LogoutHandler{Sessions: p.Sessions}).logout(w, r)
	httpx.SeeOther(w, r, service.LoginPath+"?loggedOut=1")
}

// HandleConfirm completes an email confirmation link.
func (p *Pages) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sess, err := p.Sessions.Service.ConfirmEmail(r.Context(), q.Get("token_hash"), q.Get("type"))
	if err != nil {
		httpx.SeeOther(w, r, service.LoginPath+"?error=confirmation_failed")
		return
	}

	p.Sessions.setCookies(w, sess)
	next := service.DashboardPath
	if to := q.Get("next"); service.SafeRedirect(to) {
		next = to
	}
	httpx.SeeOther(w, r, next)
}

// pageError turns a service failure into an inline form error.
func pageError(err error) (int, pageData) {
	var se *service.Error
	if !errors.As(err, &se) {
		return http.StatusInternalServerError, pageData{Error: service.MsgProviderFailure}
	}
	status, _ := statusFor(se.Kind)
	data := pageData{Error: se.Message, Fields: se.Fields}
	if se.Kind == service.KindValidation {
		data.Error = ""
	}
	return status, data
}
