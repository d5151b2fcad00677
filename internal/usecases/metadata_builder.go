package usecases

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"soulbound.backend/internal/domain/entities"
)

const (
	svgDataURIPrefix  = "data:image/svg+xml;base64,"
	jsonDataURIPrefix = "data:application/json;base64,"
	metadataDate      = "2006-01-02"
	badgeTitleMaxLen  = 28
)

// CredentialMetadata is the token metadata document stored behind tokenURI.
type CredentialMetadata struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Image       string              `json:"image"`
	Attributes  []MetadataAttribute `json:"attributes"`
}

// MetadataAttribute is one trait of the metadata document.
type MetadataAttribute struct {
	TraitType string `json:"trait_type"`
	Value     string `json:"value"`
}

type badgeStyle struct {
	label      string
	background string
	accent     string
}

var badgeStyles = map[entities.CredentialKind]badgeStyle{
	entities.CredentialKindEventAttendance: {label: "ATTENDED", background: "#0f172a", accent: "#38bdf8"},
	entities.CredentialKindQuestCompletion: {label: "QUEST COMPLETE", background: "#1c1917", accent: "#f59e0b"},
}

// BuildCredentialMetadata renders the metadata document for a credential.
// The output depends only on its arguments.
func BuildCredentialMetadata(kind entities.CredentialKind, facts entities.CredentialFacts) CredentialMetadata {
	date := ""
	if !facts.Date.IsZero() {
		date = facts.Date.UTC().Format(metadataDate)
	}

	attrs := []MetadataAttribute{
		{TraitType: "Type", Value: string(kind)},
		{TraitType: "Title", Value: facts.Title},
	}
	if date != "" {
		attrs = append(attrs, MetadataAttribute{TraitType: "Date", Value: date})
	}
	if facts.RecipientName != "" {
		attrs = append(attrs, MetadataAttribute{TraitType: "Recipient", Value: facts.RecipientName})
	}
	if facts.IssuerName != "" {
		attrs = append(attrs, MetadataAttribute{TraitType: "Issuer", Value: facts.IssuerName})
	}
	if facts.RewardAmount != "" {
		attrs = append(attrs, MetadataAttribute{TraitType: "Reward", Value: facts.RewardAmount})
	}
	if facts.ReferenceID != "" {
		attrs = append(attrs, MetadataAttribute{TraitType: "Reference", Value: facts.ReferenceID})
	}

	return CredentialMetadata{
		Name:        credentialName(kind, facts.Title),
		Description: credentialDescription(kind, facts, date),
		Image:       svgDataURIPrefix + base64.StdEncoding.EncodeToString([]byte(renderBadge(kind, facts.Title, date))),
		Attributes:  attrs,
	}
}

// MetadataURI encodes doc as a base64 JSON data URI.
func MetadataURI(doc CredentialMetadata) (string, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encode credential metadata: %w", err)
	}
	return jsonDataURIPrefix + base64.StdEncoding.EncodeToString(raw), nil
}

func credentialName(kind entities.CredentialKind, title string) string {
	if kind == entities.CredentialKindQuestCompletion {
		return "Quest Completed: " + title
	}
	return "Attended: " + title
}

func credentialDescription(kind entities.CredentialKind, facts entities.CredentialFacts, date string) string {
	recipient := facts.RecipientName
	if recipient == "" {
		recipient = "The holder"
	}

	var b strings.Builder
	if kind == entities.CredentialKindQuestCompletion {
		fmt.Fprintf(&b, "%s completed the quest %q", recipient, facts.Title)
	} else {
		fmt.Fprintf(&b, "%s attended %q", recipient, facts.Title)
	}
	if date != "" {
		fmt.Fprintf(&b, " on %s", date)
	}
	b.WriteString(".")
	if facts.RewardAmount != "" {
		fmt.Fprintf(&b, " Reward: %s.", facts.RewardAmount)
	}
	if facts.IssuerName != "" {
		fmt.Fprintf(&b, " Issued by %s.", facts.IssuerName)
	}
	b.WriteString(" This credential is soulbound and cannot be transferred.")
	return b.String()
}

func renderBadge(kind entities.CredentialKind, title, date string) string {
	style, ok := badgeStyles[kind]
	if !ok {
		style = badgeStyles[entities.CredentialKindEventAttendance]
	}

	title = truncateRunes(title, badgeTitleMaxLen)

	var b strings.Builder
	b.WriteString(`<svg xmlns="http://www.w3.org/2000/svg" width="400" height="400" viewBox="0 0 400 400">`)
	fmt.Fprintf(&b, `<rect width="400" height="400" rx="32" fill="%s"/>`, style.background)
	fmt.Fprintf(&b, `<circle cx="200" cy="160" r="90" fill="none" stroke="%s" stroke-width="8"/>`, style.accent)
	fmt.Fprintf(&b, `<text x="200" y="170" font-family="sans-serif" font-size="22" font-weight="bold" fill="%s" text-anchor="middle">%s</text>`,
		style.accent, style.label)
	fmt.Fprintf(&b, `<text x="200" y="300" font-family="sans-serif" font-size="24" fill="#ffffff" text-anchor="middle">%s</text>`,
		html.EscapeString(title))
	if date != "" {
		fmt.Fprintf(&b, `<text x="200" y="340" font-family="monospace" font-size="16" fill="#94a3b8" text-anchor="middle">%s</text>`, date)
	}
	b.WriteString(`</svg>`)
	return b.String()
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
