package main

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/andybalholm/brotli"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"html/template"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
)

//go:embed templates/page.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/page.html"))

type Server struct {
	cfg      *Config
	sessions *Sessions
	store    *Store
	gatherer prometheus.Gatherer
	log      *log.Logger
}

func NewServer(cfg *Config, sessions *Sessions, store *Store, gatherer prometheus.Gatherer) *Server {
	return &Server{
		cfg:      cfg,
		sessions: sessions,
		store:    store,
		gatherer: gatherer,
		log:      log.New(os.Stderr, "(server) ", log.LstdFlags),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.requireUser(s.handlePage))
	mux.HandleFunc("/form", s.requireUser(s.handleForm))
	mux.HandleFunc("/state", s.requireUser(s.handleState))
	if s.gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return mux
}

func (s *Server) requireUser(next http.HandlerFunc) http.HandlerFunc {
	if !s.cfg.Server.RequireAuth || s.store == nil {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || !s.store.TestUser(user, pass) {
			w.Header().Set("WWW-Authenticate", `Basic realm="dogimages"`)
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, "Unauthorized")
			return
		}
		next(w, r)
	}
}

func notFound(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNotFound)
	fmt.Fprint(w, "Not Found")
}

// upstreamContext detaches fetches from the browser request so a dropped
// connection doesn't leave an error on the form.
func upstreamContext(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		notFound(w)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	form := s.sessions.Form(w, r)
	if err := form.Load(upstreamContext(r)); err != nil {
		s.log.Println("Breed catalog unavailable:", err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	body := brotli.HTTPCompressor(w, r)
	defer body.Close()
	if err := pageTemplate.Execute(body, form.View()); err != nil {
		s.log.Println("Failed to render page", err)
	}
}

func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, "Malformed form data")
		return
	}
	form := s.sessions.Form(w, r)
	ctx := upstreamContext(r)

	var err error
	switch action := r.PostFormValue("action"); action {
	case FieldBreed:
		var index int
		if index, err = parseSelection(r.PostFormValue(FieldBreed)); err == nil {
			err = s.run(ctx, form, func() (*FetchTicket, error) { return form.SelectBreed(index) })
		}
	case FieldSubBreed:
		err = s.run(ctx, form, func() (*FetchTicket, error) { return form.SelectSubBreed(r.PostFormValue(FieldSubBreed)) })
	case FieldNumberImage:
		err = selectCount(form, r.PostFormValue(FieldNumberImage))
	case "submit":
		if _, posted := r.PostForm[FieldNumberImage]; posted {
			err = selectCount(form, r.PostFormValue(FieldNumberImage))
		}
		if err == nil {
			var verrs ValidationErrors
			if _, serr := form.Submit(); serr != nil && !errors.As(serr, &verrs) {
				err = serr
			}
		}
	case "dismiss":
		form.Dismiss()
	default:
		err = fmt.Errorf("unknown action %q", action)
	}
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, err.Error())
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// run applies a transition and performs the fetch it asks for. Upstream
// failures already show on the form, so only bad input is returned.
func (s *Server) run(ctx context.Context, form *Form, transition func() (*FetchTicket, error)) error {
	ticket, err := transition()
	if err != nil {
		return err
	}
	if _, err := form.Fetch(ctx, ticket); err != nil {
		s.log.Println("Image fetch failed for", ticket.Path, err)
	}
	return nil
}

func parseSelection(v string) (int, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return NoSelection, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid selection %q", v)
	}
	return n, nil
}

func selectCount(form *Form, v string) error {
	n, err := parseSelection(v)
	if err != nil {
		return err
	}
	if n == NoSelection {
		n = 0
	}
	return form.SelectCount(n)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	form := s.sessions.Form(w, r)
	w.Header().Set("Content-Type", "application/json")
	body := brotli.HTTPCompressor(w, r)
	defer body.Close()
	enc := json.NewEncoder(body)
	indent := ""
	if s.cfg.Debug.PrettyJson {
		indent = "  "
	}
	enc.SetIndent("", indent)
	if err := enc.Encode(form.View()); err != nil {
		s.log.Println("Failed to encode state", err)
	}
}
