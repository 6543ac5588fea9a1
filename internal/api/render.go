package api

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/harrylevesque/convoportal/internal/config"
	"github.com/harrylevesque/convoportal/internal/models"
	"github.com/harrylevesque/convoportal/internal/utils"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed legal/*.md
var legalFS embed.FS

// Page templates, by file name without extension.
const (
	pageLogin                = "login"
	pageLoginFailed          = "login_failed"
	pageRegistrationComplete = "registration_complete"
	pagePricing              = "pricing"
	pageChangePlan           = "change_plan"
	pageUnsubscribe          = "unsubscribe"
	pagePaymentResult        = "payment_result"
	pagePaymentSuccess       = "payment_success"
	pagePaymentFailure       = "payment_failure"
	pageLegal                = "legal"
	pageError                = "error"
)

var pages = []string{
	pageLogin, pageLoginFailed, pageRegistrationComplete, pagePricing, pageChangePlan,
	pageUnsubscribe, pagePaymentResult, pagePaymentSuccess, pagePaymentFailure, pageLegal, pageError,
}

// view is what every page template receives.
type view struct {
	Title string
	Error *utils.PageError
	Links config.Links
	Data  any
}

type renderer struct {
	pages map[string]*template.Template
	legal map[string]template.HTML
	links config.Links
}

var funcs = template.FuncMap{
	"price": models.FormatPrice,
}

func newRenderer(links config.Links) (*renderer, error) {
	r := &renderer{
		pages: make(map[string]*template.Template, len(pages)),
		legal: make(map[string]template.HTML),
		links: links,
	}
	for _, name := range pages {
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS,
			"templates/layout.html", "templates/reasons.html", "templates/"+name+".html")
		if err != nil {
			return nil, errors.Wrapf(err, "parse template %s", name)
		}
		r.pages[name] = t
	}

	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	docs, err := fs.Glob(legalFS, "legal/*.md")
	if err != nil {
		return nil, errors.Wrap(err, "list legal pages")
	}
	for _, path := range docs {
		src, err := legalFS.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "read %s", path)
		}
		var buf bytes.Buffer
		if err := md.Convert(src, &buf); err != nil {
			return nil, errors.Wrapf(err, "render %s", path)
		}
		name := path[len("legal/") : len(path)-len(".md")]
		r.legal[name] = template.HTML(buf.String())
	}
	return r, nil
}

// render executes a page into a buffer first so a template failure never
// leaves a half-written response.
func (rd *renderer) render(w http.ResponseWriter, status int, page string, v view) error {
	t, ok := rd.pages[page]
	if !ok {
		return errors.Errorf("unknown page %q", page)
	}
	v.Links = rd.links

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", v); err != nil {
		return errors.Wrapf(err, "render %s", page)
	}

	if v.Error != nil && v.Error.RedirectTo != "" {
		w.Header().Set("Refresh", strconv.Itoa(v.Error.RedirectSeconds())+"; url="+v.Error.RedirectTo)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
