package core

import (
	"bytes"
	"fmt"
	htmltmpl "html/template"
	"log"
	"net/mail"
	"path/filepath"
	"strings"
	"sync"
	texttmpl "text/template"
)

type (
	EmailService interface {
		SendMessages(messages ...*EmailMessage)
	}

	// ContextData is the data passed to email templates.
	ContextData struct {
		FrontendBaseURL string
		Data            interface{}
	}

	EmailMessage struct {
		To           []mail.Address
		Cc           []mail.Address
		Bcc          []mail.Address
		Subject      string
		BodyStr      string // plain text body; used as-is when no template is set
		TemplateName string
		TemplateData interface{}
		TextContent  string
		HTMLContent  string
	}

	tmplCacheEntry map[string]interface{} // ext -> parsed template
	tmplCache      map[string]tmplCacheEntry
)

var (
	templates    tmplCache
	tmplInit     sync.Once
	templatesDir string
)

// SetTemplatesDir points template rendering at `dir`. Must be called before
// the first Render of a templated message; plain-body messages need no setup.
func SetTemplatesDir(dir string) { templatesDir = dir }

func (m *EmailMessage) getContextData(conf *Config) ContextData {
	return ContextData{
		FrontendBaseURL: conf.FrontendBaseURL,
		Data:            m.TemplateData,
	}
}

func (m *EmailMessage) renderText(conf *Config) error {
	if m.BodyStr != "" {
		m.TextContent = m.BodyStr
		return nil
	}
	if m.TemplateName == "" {
		return nil
	}
	entry, ok := templates[m.TemplateName]
	if !ok {
		return nil
	}
	tmpl, ok := entry[".txt"].(*texttmpl.Template)
	if !ok {
		return nil
	}

	var buff bytes.Buffer
	if err := tmpl.Execute(&buff, m.getContextData(conf)); err != nil {
		return err
	}
	m.TextContent = buff.String()
	return nil
}

func (m *EmailMessage) renderHTML(conf *Config) error {
	if m.TemplateName == "" {
		return nil
	}
	entry, ok := templates[m.TemplateName]
	if !ok {
		return nil
	}
	tmpl, ok := entry[".gohtml"].(*htmltmpl.Template)
	if !ok {
		return nil
	}

	var buff bytes.Buffer
	if err := tmpl.Execute(&buff, m.getContextData(conf)); err != nil {
		return err
	}
	m.HTMLContent = buff.String()
	return nil
}

func (m *EmailMessage) Render(conf *Config) error {
	if m.TemplateName != "" {
		tmplInit.Do(parseTemplates) // only parse once on first use
	}
	if err := m.renderText(conf); err != nil {
		return err
	}
	return m.renderHTML(conf)
}

func (m *EmailMessage) HasRecipients() bool { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool    { return (m.TextContent != "") || (m.HTMLContent != "") }

func parseTemplates() {
	templates = make(tmplCache)
	if templatesDir == "" {
		return
	}

	fps, err := filepath.Glob(filepath.Join(templatesDir, "*"))
	if err != nil {
		log.Print(fmt.Errorf("core.parseTemplates: %v", err))
	}

	for _, fp := range fps {
		fname := filepath.Base(fp)
		ext := filepath.Ext(fname)
		if strings.HasPrefix(fname, "_") || !(ext == ".txt" || ext == ".gohtml") {
			continue
		}
		name := fname[:strings.LastIndex(fname, ".")]
		entry, ok := templates[name]
		if !ok {
			templates[name] = make(tmplCacheEntry)
			entry = templates[name]
		}
		if ext == ".txt" {
			tmpl, err := texttmpl.ParseFiles(fp)
			if err != nil {
				log.Print(fmt.Errorf("core.parseTemplates: %v", err))
				continue
			}
			entry[ext] = tmpl
		} else {
			tmpl, err := htmltmpl.ParseFiles(fp)
			if err != nil {
				log.Print(fmt.Errorf("core.parseTemplates: %v", err))
				continue
			}
			entry[ext] = tmpl
		}
	}
}
