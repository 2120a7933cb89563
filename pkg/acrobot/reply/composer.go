// Package reply renders definition lines and assembles the final reply
// body. It performs no network or persistence side effects.
package reply

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/everettsouthwick/songacronymbot/pkg/acrobot/match"
	"github.com/everettsouthwick/songacronymbot/pkg/acrobot/store"
)

// DefaultSponsorChance is the probability of substituting the sponsored
// footer phrasing. Purely cosmetic.
const DefaultSponsorChance = 0.01

// sponsorPhrasings are the alternate footer lead-ins; one is picked at
// random when the sponsored footer fires.
var sponsorPhrasings = []string{
	"Powered by", "Powered with",
	"Guided by", "Guided with",
	"Using", "Featuring",
	"Made better by", "Made better with",
	"Augmented by", "Augmented with",
	"Elevated by", "Elevated with",
	"Optimized by", "Optimized with",
	"Improved by", "Improved with",
	"Enhanced by", "Enhanced with",
}

// Composer renders matches into a reply body with the standard footer.
type Composer struct {
	feedbackCommunity string
	suggestURL        string
	sponsorName       string
	sponsorURL        string
	sponsorChance     float64
	rng               *rand.Rand
}

// Options configures a Composer. Zero values disable the sponsor line and
// fall back to the default feedback community.
type Options struct {
	FeedbackCommunity string
	SuggestURL        string
	SponsorName       string
	SponsorURL        string
	SponsorChance     float64
	Rand              *rand.Rand
}

// NewComposer creates a composer.
func NewComposer(opts Options) *Composer {
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	chance := opts.SponsorChance
	if opts.SponsorName == "" {
		chance = 0
	}
	return &Composer{
		feedbackCommunity: opts.FeedbackCommunity,
		suggestURL:        opts.SuggestURL,
		sponsorName:       opts.SponsorName,
		sponsorURL:        opts.SponsorURL,
		sponsorChance:     chance,
		rng:               rng,
	}
}

// RenderLine renders the type-specific definition sentence for one
// acronym.
func RenderLine(a store.Acronym) string {
	switch a.Kind {
	case store.KindAlbum:
		return fmt.Sprintf("- %s could mean *%s* (%s), an album by %s.\n",
			a.Name, a.AlbumName, a.YearReleased, a.ArtistName)
	case store.KindArtist:
		return fmt.Sprintf("- %s could mean %s.\n", a.Name, a.ArtistName)
	case store.KindSingle:
		return fmt.Sprintf("- %s could mean \"%s\", a single by %s.\n",
			a.Name, a.TrackName, a.ArtistName)
	default:
		return fmt.Sprintf("- %s could mean \"%s\", a track from *%s* (%s) by %s.\n",
			a.Name, a.TrackName, a.AlbumName, a.YearReleased, a.ArtistName)
	}
}

// NotRecognizedLine renders the fallback line for a token no lookup could
// resolve.
func (c *Composer) NotRecognizedLine(name string) string {
	return fmt.Sprintf("- %s was not recognized. [Click here](%s) to suggest this to be added.\n",
		name, c.suggestURL)
}

// Compose orders the matches by first occurrence, renders one line per
// match, and appends the footer crediting the author.
func (c *Composer) Compose(matches []match.Match, author string) string {
	ordered := make([]match.Match, len(matches))
	copy(ordered, matches)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Position < ordered[j].Position
	})

	var b strings.Builder
	for _, m := range ordered {
		b.WriteString(RenderLine(m.Acronym))
	}
	return c.Finalize(b.String(), author)
}

// Finalize appends the footer to an already rendered body.
func (c *Composer) Finalize(body, author string) string {
	return body + "\n---\n\n" + c.footer(author)
}

func (c *Composer) footer(author string) string {
	base := fmt.Sprintf("^[/u/%s](/u/%s) ^(can reply with \"delete\" to remove comment. |) ^[%s](%s) ^(for feedback.)",
		author, author, c.feedbackCommunity, c.feedbackCommunity)

	if c.sponsorChance > 0 && c.rng.Float64() <= c.sponsorChance {
		phrasing := sponsorPhrasings[c.rng.Intn(len(sponsorPhrasings))]
		return fmt.Sprintf("^([%s %s](%s) | %s", phrasing, c.sponsorName, c.sponsorURL, base)
	}
	return base
}
