// Package convert rewrites transcripts between Chinese script variants.
package convert

import (
	"fmt"

	"github.com/longbridgeapp/opencc"
	"github.com/rs/zerolog"
	"golang.org/x/text/unicode/norm"
)

// ProfileNone disables conversion.
const ProfileNone = "none"

// Converter maps text to another script. It never fails: text the backend
// cannot handle is returned normalized but otherwise unchanged.
type Converter interface {
	Convert(text string) string
}

// New returns a Converter for an opencc profile such as "t2s", or Identity
// for ProfileNone.
func New(profile string, log zerolog.Logger) (Converter, error) {
	if profile == ProfileNone {
		return Identity{}, nil
	}
	cc, err := opencc.New(profile)
	if err != nil {
		return nil, fmt.Errorf("convert: load opencc profile %q: %w", profile, err)
	}
	return &OpenCC{cc: cc, profile: profile, log: log}, nil
}

// OpenCC converts with the opencc dictionaries.
type OpenCC struct {
	cc      *opencc.OpenCC
	profile string
	log     zerolog.Logger
}

func (c *OpenCC) Convert(text string) string {
	text = norm.NFC.String(text)
	out, err := c.cc.Convert(text)
	if err != nil {
		c.log.Warn().Err(err).Str("profile", c.profile).Msg("script conversion failed, keeping original text")
		return text
	}
	return out
}

// Identity returns its input NFC-normalized.
type Identity struct{}

func (Identity) Convert(text string) string { return norm.NFC.String(text) }
