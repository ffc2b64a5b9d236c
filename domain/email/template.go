package email

import (
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"sync"

	"github.com/aymerick/raymond"

	"github.com/yardline-app/yardline/pkg/logger"
)

//go:embed templates/*.hbs
var templateFS embed.FS

// TemplateService renders the digest email templates using Handlebars.
// Templates are embedded in the binary and parsed once at startup.
type TemplateService struct {
	log *slog.Logger

	mu    sync.RWMutex
	cache map[string]*raymond.Template
}

// TemplateContext is the data passed to templates
type TemplateContext map[string]interface{}

// NewTemplateService creates the template service and parses all embedded
// templates
func NewTemplateService(log *slog.Logger) (*TemplateService, error) {
	ts := &TemplateService{
		log:   log.With(logger.Scope("email.template")),
		cache: make(map[string]*raymond.Template),
	}

	entries, err := fs.ReadDir(templateFS, "templates")
	if err != nil {
		return nil, fmt.Errorf("read templates: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".hbs") {
			continue
		}

		name := strings.TrimSuffix(entry.Name(), ".hbs")
		content, err := fs.ReadFile(templateFS, "templates/"+entry.Name())
		if err != nil {
			return nil, fmt.Errorf("read template %s: %w", name, err)
		}

		tpl, err := raymond.Parse(string(content))
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		ts.cache[name] = tpl
	}

	ts.log.Debug("email templates loaded", slog.Int("count", len(ts.cache)))
	return ts, nil
}

// Render executes a named template with the given context
func (ts *TemplateService) Render(name string, data TemplateContext) (string, error) {
	ts.mu.RLock()
	tpl, ok := ts.cache[name]
	ts.mu.RUnlock()

	if !ok {
		return "", fmt.Errorf("unknown email template %q", name)
	}

	html, err := tpl.Exec(data)
	if err != nil {
		return "", fmt.Errorf("render template %s: %w", name, err)
	}
	return html, nil
}
