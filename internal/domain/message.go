package domain

// Platform identifies a publishing target.
type Platform string

const (
	PlatformX        Platform = "x"
	PlatformTelegram Platform = "telegram"
	PlatformDiscord  Platform = "discord"
	PlatformSlack    Platform = "slack"
)

// Platforms lists every supported platform, in display order.
func Platforms() []Platform {
	return []Platform{PlatformX, PlatformTelegram, PlatformDiscord, PlatformSlack}
}

// Valid reports whether p is a recognized platform name.
func (p Platform) Valid() bool {
	switch p {
	case PlatformX, PlatformTelegram, PlatformDiscord, PlatformSlack:
		return true
	}
	return false
}

// Tone selects the writing style for generated drafts.
type Tone string

const (
	ToneProfessional Tone = "professional"
	ToneCasual       Tone = "casual"
	ToneHumorous     Tone = "humorous"
	ToneInformative  Tone = "informative"
)

// Tones lists every supported tone.
func Tones() []Tone {
	return []Tone{ToneProfessional, ToneCasual, ToneHumorous, ToneInformative}
}

// Valid reports whether t is a recognized tone name.
func (t Tone) Valid() bool {
	switch t {
	case ToneProfessional, ToneCasual, ToneHumorous, ToneInformative:
		return true
	}
	return false
}

// Segment is one platform-sized chunk of a longer post. Ordinal is 1-based;
// a sequence of segments forms a thread where each segment after the first
// replies to the platform id of the previous one.
type Segment struct {
	Ordinal int
	Total   int
	Body    string
}
