package lifecycle

import (
	"strings"
	"time"
)

// dateLayout is the local date convention used in notice bodies.
const dateLayout = "02/01/2006"

// Fallbacks for missing context fields. Stored templates are user-facing
// Portuguese copy, so the defaults are too.
const (
	defaultUserName = "cliente"
	defaultPlanName = "seu plano"
)

// TemplateContext carries the values available to notice templates.
type TemplateContext struct {
	UserName   string
	PlanName   string
	ExpiryDate time.Time
}

// placeholders is the closed set of supported tokens. Anything else inside
// {{...}} is delivered verbatim, so template bodies stored before a token
// existed keep rendering unchanged.
var placeholders = []struct {
	token string
	value func(TemplateContext) string
}{
	{"{{user_name}}", func(c TemplateContext) string {
		if c.UserName == "" {
			return defaultUserName
		}
		return c.UserName
	}},
	{"{{plan_name}}", func(c TemplateContext) string {
		if c.PlanName == "" {
			return defaultPlanName
		}
		return c.PlanName
	}},
	{"{{expiry_date}}", func(c TemplateContext) string {
		if c.ExpiryDate.IsZero() {
			return ""
		}
		return c.ExpiryDate.Format(dateLayout)
	}},
}

// RenderTemplate substitutes the supported placeholders wherever they occur.
func RenderTemplate(body string, tctx TemplateContext) string {
	for _, p := range placeholders {
		body = strings.ReplaceAll(body, p.token, p.value(tctx))
	}
	return body
}
