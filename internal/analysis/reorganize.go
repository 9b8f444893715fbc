package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/attachehq/attache/internal/card"
)

// clusterOverlap is the minimum shared-keyword count for two unassigned
// cards to be considered related.
const clusterOverlap = 2

// Reorganizations proposes structure changes: grouping unassigned cards
// that share keywords, and refiling envelope members that drifted away
// from their envelope's topic.
func Reorganizations(s Snapshot) []card.Suggestion {
	var out []card.Suggestion
	out = append(out, unassignedClusters(s)...)
	out = append(out, driftedMembers(s)...)
	return out
}

// unassignedClusters greedily groups unassigned active cards sharing at
// least clusterOverlap keywords and suggests a new envelope per group.
func unassignedClusters(s Snapshot) []card.Suggestion {
	var loose []card.Card
	for _, c := range s.Cards {
		if c.Status == card.StatusActive && c.EnvelopeID == nil {
			loose = append(loose, c)
		}
	}
	if len(loose) < 2 {
		return nil
	}
	sort.Slice(loose, func(i, j int) bool { return loose[i].ID < loose[j].ID })

	used := make(map[string]bool)
	var out []card.Suggestion
	for i := 0; i < len(loose); i++ {
		if used[loose[i].ID] {
			continue
		}
		cluster := []card.Card{loose[i]}
		shared := card.NormalizeKeywords(loose[i].Keywords)
		for j := i + 1; j < len(loose); j++ {
			if used[loose[j].ID] {
				continue
			}
			common := card.SharedKeywords(shared, loose[j].Keywords)
			if len(common) >= clusterOverlap {
				cluster = append(cluster, loose[j])
				shared = common
			}
		}
		if len(cluster) < 2 {
			continue
		}
		ids := make([]string, len(cluster))
		for k, c := range cluster {
			used[c.ID] = true
			ids[k] = c.ID
		}
		out = append(out, card.Suggestion{
			Kind: card.KindReorganization,
			Message: fmt.Sprintf("%d unfiled cards share the topic %q; consider grouping them into an envelope",
				len(cluster), strings.Join(shared, ", ")),
			CardIDs: ids,
		})
	}
	return out
}

// driftedMembers flags active envelope members that share no keywords
// with their envelope; when another envelope matches better, it is named.
func driftedMembers(s Snapshot) []card.Suggestion {
	envelopes := envelopeByID(s)

	var out []card.Suggestion
	for _, c := range s.Cards {
		if c.Status != card.StatusActive || c.EnvelopeID == nil || len(c.Keywords) == 0 {
			continue
		}
		home, ok := envelopes[*c.EnvelopeID]
		if !ok || len(home.Keywords) == 0 {
			continue
		}
		if home.MatchScore(c.Keywords) > 0 {
			continue
		}

		suggestion := card.Suggestion{
			Kind: card.KindReorganization,
			Message: fmt.Sprintf("%q no longer matches its envelope %s; consider refiling it",
				truncate(c.Description, 50), home.Name),
			CardIDs:     []string{c.ID},
			EnvelopeIDs: []string{home.ID},
		}
		if better := bestOtherEnvelope(s, c, home.ID); better != nil {
			suggestion.Message = fmt.Sprintf("%q fits envelope %s better than %s; consider refiling it",
				truncate(c.Description, 50), better.Name, home.Name)
			suggestion.EnvelopeIDs = []string{home.ID, better.ID}
		}
		out = append(out, suggestion)
	}
	return out
}

// bestOtherEnvelope finds the strongest keyword match among the other
// envelopes, requiring clusterOverlap shared keywords.
func bestOtherEnvelope(s Snapshot, c card.Card, excludeID string) *card.Envelope {
	var best *card.Envelope
	bestScore := clusterOverlap - 1
	for i := range s.Envelopes {
		e := &s.Envelopes[i]
		if e.ID == excludeID {
			continue
		}
		if score := e.MatchScore(c.Keywords); score > bestScore {
			best = e
			bestScore = score
		}
	}
	return best
}
