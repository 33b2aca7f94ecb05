/* maps.go
 * Contains the logic for resolving map names typed by admins against the known map list
 * Authors: Zachary Bower
 */

package logic

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// KnownMaps are the maps an admin can add to a lobby map pool
var KnownMaps = []string{
	"de_ancient",
	"de_anubis",
	"de_dust2",
	"de_inferno",
	"de_mirage",
	"de_nuke",
	"de_overpass",
	"de_train",
	"de_vertigo",
}

// DefaultMapPool is the pool given to newly created lobbies
var DefaultMapPool = []string{"de_ancient", "de_anubis", "de_dust2", "de_inferno", "de_mirage", "de_nuke", "de_vertigo"}

// ResolveMapNames matches user input against the valid map names. "mirage" and "de_mirage" both resolve to de_mirage.
// Preconditions: receives two string slices; one containing the user's input and another that is a list of valid map names
// Postconditions: returns two string slices, the resolved map names without duplicates and the inputs that did not match
func ResolveMapNames(input []string, validMaps []string) ([]string, []string) {
	var resolved []string
	var invalid []string
	seen := make(map[string]bool)

	lookup := make(map[string]string)
	var validLower []string
	for _, name := range validMaps {
		lower := strings.ToLower(name)
		lookup[lower] = name
		validLower = append(validLower, lower)
	}

	for _, raw := range input {
		name := strings.ToLower(strings.Trim(strings.TrimSpace(raw), "\""))
		if name == "" {
			continue
		}
		results := fuzzy.RankFind(name, validLower)
		if len(results) == 0 {
			invalid = append(invalid, raw)
			continue
		}

		// Prefer an exact match, then the best ranked one
		target := ""
		for _, r := range results {
			if r.Target == name || r.Target == "de_"+name {
				target = r.Target
				break
			}
		}
		if target == "" {
			best := results[0]
			for _, r := range results[1:] {
				if r.Distance < best.Distance {
					best = r
				}
			}
			target = best.Target
		}

		if !seen[target] {
			seen[target] = true
			resolved = append(resolved, lookup[target])
		}
	}
	return resolved, invalid
}
