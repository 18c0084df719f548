// ABOUTME: Built-in groups and lookup fallbacks for the vault
// ABOUTME: The "all" pseudo-group plus the four defaults every vault starts with

package vault

import (
	"fmt"
	"math/rand/v2"

	"github.com/buggiebug/Secure-Vault/internal/client"
)

// AllGroupID selects every entry. It is never persisted and never deletable.
const AllGroupID = "all"

// IndividualGroupID is where entries without a group land.
const IndividualGroupID = "individual"

// Lookup fallbacks for ids that match no group.
const (
	UnknownGroupName  = "Unknown"
	UnknownGroupColor = "#666666"
	DefaultGroupIcon  = "📁"
)

var allGroup = client.Group{ID: AllGroupID, Name: "All", Icon: "📂", Color: "#6C63FF"}

var defaultGroups = []client.Group{
	{ID: IndividualGroupID, Name: "Individual", Icon: "🙈", Color: "#666666"},
	{ID: "financial", Name: "Financial", Icon: "💳", Color: "#00C851"},
	{ID: "social", Name: "Social Media", Icon: "📱", Color: "#4267B2"},
	{ID: "mail", Name: "Mail", Icon: "📧", Color: "#aa66cc"},
}

// Palette is the set of colors new groups are drawn from.
var Palette = []string{"#FF6B35", "#F7931E", "#FFD23F", "#06FFA5", "#118AB2", "#073B4C"}

// BuiltinGroups returns "all" followed by the default groups.
func BuiltinGroups() []client.Group {
	out := make([]client.Group, 0, len(defaultGroups)+1)
	out = append(out, allGroup)
	return append(out, defaultGroups...)
}

// IsReserved reports whether id belongs to a built-in group.
func IsReserved(id string) bool {
	return id == AllGroupID || IsDefault(id)
}

// IsDefault reports whether id is one of the default groups. Deleting one
// removes its entries for good; the group itself comes back on the next load.
func IsDefault(id string) bool {
	for _, g := range defaultGroups {
		if g.ID == id {
			return true
		}
	}
	return false
}

// DeletePrompt is the confirmation text shown before deleting group g.
func DeletePrompt(g client.Group) string {
	if IsDefault(g.ID) {
		return fmt.Sprintf("This is a default group (%s). It will come back when you reopen the app, but the passwords inside will be removed.", g.Name)
	}
	return fmt.Sprintf("Are you sure you want to delete %q?\nAll passwords in this group will also be deleted.", g.Name)
}

// mergeGroups builds the full collection: built-ins first, then server
// groups with reserved and duplicate ids dropped.
func mergeGroups(server []client.Group) []client.Group {
	out := BuiltinGroups()
	seen := make(map[string]bool, len(out)+len(server))
	for _, g := range out {
		seen[g.ID] = true
	}
	for _, g := range server {
		if g.ID == "" || seen[g.ID] {
			continue
		}
		seen[g.ID] = true
		out = append(out, g)
	}
	return out
}

func pickColor() string {
	return Palette[rand.IntN(len(Palette))]
}
