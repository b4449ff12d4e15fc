// Package voice resolves roster speakers to concrete voices and backends.
package voice

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nadzzz/podsynth/internal/podcast"
)

// DefaultBackend is used for roster entries that name no owner.
const DefaultBackend = "edge-tts"

// ErrMissingVoice is returned when a roster voice code has no display name in the catalog.
var ErrMissingVoice = errors.New("voice not found in catalog")

// ErrUnknownSpeaker is returned when an utterance references a speaker outside the roster.
var ErrUnknownSpeaker = errors.New("speaker not in roster")

// Profiles maps speaker IDs to resolved voice profiles, in roster order.
type Profiles struct {
	list []podcast.VoiceProfile
}

// Resolve joins the roster against the catalog. Speaker IDs are roster
// positions. Any voice without a display name fails the whole resolution.
func Resolve(roster []podcast.Speaker, catalog []podcast.Voice) (*Profiles, error) {
	byCode := make(map[string]podcast.Voice, len(catalog))
	for _, v := range catalog {
		if v.Code != "" {
			byCode[v.Code] = v
		}
	}

	p := &Profiles{list: make([]podcast.VoiceProfile, 0, len(roster))}
	for id, sp := range roster {
		v, ok := byCode[sp.Code]
		name := v.DisplayName()
		if !ok || name == "" {
			return nil, fmt.Errorf("%w: voice code %q (speaker_id=%d) has no name or alias", ErrMissingVoice, sp.Code, id)
		}
		backend := sp.Owner
		if backend == "" {
			backend = DefaultBackend
		}
		p.list = append(p.list, podcast.VoiceProfile{
			SpeakerID:        id,
			VoiceCode:        sp.Code,
			DisplayName:      name,
			Role:             sp.Role,
			BackendName:      backend,
			VolumeAdjustment: v.VolumeAdjustment,
			SpeedAdjustment:  v.SpeedAdjustment,
		})
	}
	return p, nil
}

// Len returns the number of speakers.
func (p *Profiles) Len() int { return len(p.list) }

// Lookup returns the profile for speakerID.
func (p *Profiles) Lookup(speakerID int) (podcast.VoiceProfile, error) {
	if speakerID < 0 || speakerID >= len(p.list) {
		return podcast.VoiceProfile{}, fmt.Errorf("%w: speaker_id=%d, roster has %d speakers", ErrUnknownSpeaker, speakerID, len(p.list))
	}
	return p.list[speakerID], nil
}

// All returns the profiles in speaker ID order.
func (p *Profiles) All() []podcast.VoiceProfile {
	out := make([]podcast.VoiceProfile, len(p.list))
	copy(out, p.list)
	return out
}

// Backends returns the distinct backend names, in first-use order.
func (p *Profiles) Backends() []string {
	seen := make(map[string]bool, len(p.list))
	var names []string
	for _, vp := range p.list {
		if !seen[vp.BackendName] {
			seen[vp.BackendName] = true
			names = append(names, vp.BackendName)
		}
	}
	return names
}

// Briefing renders the speaker identity text handed to the script generator:
// one clause per speaker, each terminated by a full stop.
func (p *Profiles) Briefing() string {
	var sb strings.Builder
	for i, vp := range p.list {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "speaker_id=%d is named %s", vp.SpeakerID, vp.DisplayName)
		if vp.Role != "" {
			fmt.Fprintf(&sb, ", who is a %s", vp.Role)
		}
		sb.WriteByte('.')
	}
	return sb.String()
}
