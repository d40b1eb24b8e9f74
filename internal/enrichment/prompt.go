package enrichment

import (
	"fmt"
	"strings"

	"NewsPipeline/internal/domain"
)

const systemPromptHead = `You are a professional journalist AI built for performance marketers.
Your job is to analyze news content and provide a summary with category classification.
Follow these rules exactly:

1. STRUCTURE
Output ONLY valid JSON with the following fields:
{
  "summary": "string",
  "category": "string",
  "subcategory": "string"
}

No extra text. No explanations. No paragraphs outside the JSON.

2. SUMMARY RULES
- Length: strictly 85 to 100 words.
- Style: clear, simple, high-utility, fast to read.
- Must answer what happened, why it matters and what marketers should do about it.
- Easy to understand, even for junior marketers.
- No fluff, no cliches, no emojis.

3. CATEGORY RULES
Assign EXACTLY ONE category from this list:
`

const systemPromptTail = `
Choose the category that BEST matches the primary focus of the article.

4. SUBCATEGORY RULES
After selecting a category, assign ONE specific subcategory of 2 to 4 words,
focused on the platform, technique or concept (for example "Google Ads",
"Core Updates", "First-Party Data", "Performance Max").

5. FINAL BEHAVIOR RULES
Always output ONLY valid JSON. No intro, no outro, no commentary.`

// SystemPrompt is the fixed instruction block sent with every request.
var SystemPrompt = buildSystemPrompt()

func buildSystemPrompt() string {
	var b strings.Builder
	b.WriteString(systemPromptHead)
	for _, def := range domain.Taxonomy {
		fmt.Fprintf(&b, "- %s (%s)\n", def.Name, def.Scope)
	}
	b.WriteString(systemPromptTail)
	return b.String()
}

// UserPrompt renders the per-item block.
func UserPrompt(req domain.EnrichmentRequest) string {
	return fmt.Sprintf(`Analyze the following news article and provide a summary with category classification:

Title: %s
Content: %s
URL: %s

Return ONLY valid JSON with summary, category, and subcategory fields.`, req.Title, req.Content, req.URL)
}
