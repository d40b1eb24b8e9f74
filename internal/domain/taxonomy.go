package domain

import "strings"

// CategoryDef is one entry of the closed enrichment taxonomy.
type CategoryDef struct {
	Name  string
	Scope string
}

// Taxonomy is the closed set of categories the enrichment step may assign.
var Taxonomy = []CategoryDef{
	{Name: "Paid Media", Scope: "Google, Meta, TikTok, LinkedIn ads, PPC, display, programmatic"},
	{Name: "SEO & Organic", Scope: "search optimization, content strategy, algorithm updates"},
	{Name: "Social Media", Scope: "organic social, influencer marketing, community management"},
	{Name: "AI & Automation", Scope: "AI tools, marketing automation, machine learning in marketing"},
	{Name: "Analytics & Data", Scope: "tracking, attribution, data privacy, measurement"},
	{Name: "E-commerce", Scope: "online retail, DTC, marketplaces, conversion optimization"},
	{Name: "Creative & Content", Scope: "ad creatives, copywriting, video, design trends"},
	{Name: "Strategy & Trends", Scope: "industry trends, market shifts, business strategy"},
	{Name: "Tools & Platforms", Scope: "new tools, platform updates, martech stack"},
	{Name: "Career & Industry", Scope: "jobs, agency news, industry events"},
}

// CanonicalCategory returns the taxonomy spelling of name, matching case-insensitively.
func CanonicalCategory(name string) (string, bool) {
	name = strings.TrimSpace(name)
	for _, def := range Taxonomy {
		if strings.EqualFold(def.Name, name) {
			return def.Name, true
		}
	}
	return "", false
}
