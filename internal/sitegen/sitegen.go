// Package sitegen turns an agent configuration into the source tree of a
// buildable React + Vite chat site. Generation is pure: the same
// configuration and options always produce byte-identical files.
package sitegen

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html"
	"regexp"
	"strings"
	"text/template"

	"github.com/mtlprog/pludo/internal/domain"
)

//go:embed templates
var templateFS embed.FS

// DefaultColor is used when the configured color is not a hex color.
const DefaultColor = "#4f46e5"

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// AvatarPath is the placeholder file emitted only when an avatar URL is set.
const AvatarPath = "public/avatar.txt"

// manifest is the fixed, ordered list of generated files. Entries with a
// template are rendered; the rest are copied from templates/static.
var manifest = []struct {
	path     string
	template string
	static   string
}{
	{path: "package.json", template: "package.json.tmpl"},
	{path: "vite.config.js", static: "vite.config.js"},
	{path: "vercel.json", static: "vercel.json"},
	{path: "index.html", template: "index.html.tmpl"},
	{path: "widget.html", template: "widget.html.tmpl"},
	{path: "src/index.css", template: "index.css.tmpl"},
	{path: "src/agent.js"},
	{path: "src/main.jsx", static: "main.jsx"},
	{path: "src/widget.jsx", static: "widget.jsx"},
	{path: "src/ChatWidget.jsx", static: "ChatWidget.jsx"},
	{path: "src/ai.js", template: "ai.js.tmpl"},
	{path: "knowledge.txt"},
	{path: "public/float.js", template: "float.js.tmpl"},
	{path: "public/widget.js", template: "widget.js.tmpl"},
	{path: "README.md", template: "README.md.tmpl"},
}

var templates = template.Must(template.New("site").Funcs(template.FuncMap{
	"html": html.EscapeString,
	"js":   jsString,
}).ParseFS(templateFS, "templates/*.tmpl"))

// Options are the platform settings baked into every generated site.
type Options struct {
	// PlatformDomain is the parent domain of agent subdomains.
	PlatformDomain string
	// APIBaseURL is the public base URL of the PLUDO API, used for the chat proxy.
	APIBaseURL string
}

// Generator renders agent sites.
type Generator struct {
	opts Options
}

// Generate renders cfg with a one-off Generator.
func Generate(cfg domain.AgentConfig, opts Options) []domain.GeneratedFile {
	return New(opts).Generate(cfg)
}

// New creates a Generator.
func New(opts Options) *Generator {
	opts.APIBaseURL = strings.TrimSuffix(opts.APIBaseURL, "/")
	return &Generator{opts: opts}
}

// SiteURL is the public URL an agent is served at.
func (g *Generator) SiteURL(subdomain string) string {
	return fmt.Sprintf("https://%s.%s", subdomain, g.opts.PlatformDomain)
}

// ChatEndpoint is the chat proxy URL the generated widget posts to.
func (g *Generator) ChatEndpoint(subdomain string) string {
	return g.opts.APIBaseURL + "/api/v1/chat/" + subdomain
}

// EmbedSnippet is the tag a site owner pastes to show the floating widget.
func (g *Generator) EmbedSnippet(subdomain string) string {
	return fmt.Sprintf(`<script src="%s/widget.js" defer></script>`, g.SiteURL(subdomain))
}

// siteData is the template context.
type siteData struct {
	Cfg          domain.AgentConfig
	DisplayName  string
	PackageName  string
	Color        string
	SiteURL      string
	ChatEndpoint string
	EmbedSnippet string
}

// agentModule is the JSON shape of src/agent.js. All user-supplied text the
// UI displays reaches the site through this module.
type agentModule struct {
	Name            string       `json:"name"`
	BrandName       string       `json:"brandName"`
	DisplayName     string       `json:"displayName"`
	RoleDescription string       `json:"roleDescription"`
	Services        []string     `json:"services"`
	FAQs            []domain.FAQ `json:"faqs"`
	PrimaryColor    string       `json:"primaryColor"`
	Tone            domain.Tone  `json:"tone"`
	AvatarURL       string       `json:"avatarUrl"`
	OfficeHours     string       `json:"officeHours"`
	Greeting        string       `json:"greeting"`
	ErrorMessage    string       `json:"errorMessage"`
	Model           string       `json:"model"`
}

// Generate renders the full file list for cfg. The manifest order is fixed;
// the avatar placeholder is appended last when cfg.AvatarURL is set.
func (g *Generator) Generate(cfg domain.AgentConfig) []domain.GeneratedFile {
	data := siteData{
		Cfg:          cfg,
		DisplayName:  DisplayName(cfg),
		PackageName:  "pludo-" + cfg.Subdomain,
		Color:        safeColor(cfg.PrimaryColor),
		SiteURL:      g.SiteURL(cfg.Subdomain),
		ChatEndpoint: g.ChatEndpoint(cfg.Subdomain),
		EmbedSnippet: g.EmbedSnippet(cfg.Subdomain),
	}

	files := make([]domain.GeneratedFile, 0, len(manifest)+1)
	for _, entry := range manifest {
		var content string
		switch {
		case entry.path == "src/agent.js":
			content = renderAgentModule(cfg, data)
		case entry.path == "knowledge.txt":
			content = KnowledgeText(cfg)
		case entry.static != "":
			content = mustReadStatic(entry.static)
		default:
			content = mustExecute(entry.template, data)
		}
		files = append(files, domain.GeneratedFile{Path: entry.path, Content: content})
	}

	if cfg.AvatarURL != "" {
		files = append(files, domain.GeneratedFile{Path: AvatarPath, Content: cfg.AvatarURL + "\n"})
	}

	return files
}

func renderAgentModule(cfg domain.AgentConfig, data siteData) string {
	services := cfg.Services
	if services == nil {
		services = []string{}
	}
	faqs := cfg.FAQs
	if faqs == nil {
		faqs = []domain.FAQ{}
	}

	module := agentModule{
		Name:            cfg.Name,
		BrandName:       cfg.BrandName,
		DisplayName:     data.DisplayName,
		RoleDescription: cfg.RoleDescription,
		Services:        services,
		FAQs:            faqs,
		PrimaryColor:    data.Color,
		Tone:            cfg.Tone,
		AvatarURL:       cfg.AvatarURL,
		OfficeHours:     cfg.OfficeHours,
		Greeting:        Greeting(cfg),
		ErrorMessage:    "Sorry, I couldn't reach the server. Please try again in a moment.",
		Model:           cfg.Model,
	}

	// json.Marshal escapes <, >, & and U+2028/U+2029, so the literal is safe
	// inside a script.
	body, err := json.MarshalIndent(module, "", "  ")
	if err != nil {
		panic(fmt.Sprintf("sitegen: marshal agent module: %v", err))
	}

	return "// Generated by PLUDO. Edit the agent in the dashboard instead of this file.\n" +
		"const agent = " + string(body) + "\n\nexport default agent\n"
}

// jsString renders s as a double-quoted JavaScript string literal.
func jsString(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		panic(fmt.Sprintf("sitegen: marshal string: %v", err))
	}
	return string(b)
}

// IsColor reports whether c is a #rgb or #rrggbb hex color.
func IsColor(c string) bool {
	return hexColor.MatchString(c)
}

func safeColor(c string) string {
	if IsColor(c) {
		return strings.ToLower(c)
	}
	return DefaultColor
}

// Templates are fixed and parsed at init, so execution can only fail on a
// programming error.
func mustExecute(name string, data siteData) string {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		panic(fmt.Sprintf("sitegen: execute %s: %v", name, err))
	}
	return buf.String()
}

func mustReadStatic(name string) string {
	b, err := templateFS.ReadFile("templates/static/" + name)
	if err != nil {
		panic(fmt.Sprintf("sitegen: read %s: %v", name, err))
	}
	return string(b)
}
