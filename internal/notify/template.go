package notify

import "strings"

const (
	PlaceholderResource = "%%RESOURCE%%"
	PlaceholderRole     = "%%ROLE%%"

	// FallbackMention stands in for the role when none is configured.
	FallbackMention = "people"

	DefaultUpMessage   = "%%RESOURCE%% is back online, %%ROLE%%!"
	DefaultDownMessage = "Nevermind, it's dead again. Boowomp :sob:."
)

// RoleMention formats a role id the way Discord renders a mention.
func RoleMention(roleID string) string {
	if roleID == "" {
		return FallbackMention
	}
	return "<@&" + roleID + ">"
}

// RenderTemplate replaces every resource and role placeholder in tmpl.
func RenderTemplate(tmpl, resource, roleID string) string {
	r := strings.NewReplacer(
		PlaceholderResource, resource,
		PlaceholderRole, RoleMention(roleID),
	)
	return r.Replace(tmpl)
}
