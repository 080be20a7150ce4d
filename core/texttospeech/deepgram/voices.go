package deepgram

type deepgramVoice string

const (
	VoiceAsteria deepgramVoice = "aura-2-asteria-en"
	VoiceThalia  deepgramVoice = "aura-2-thalia-en"
	VoiceHelena  deepgramVoice = "aura-2-helena-en"
	VoiceOrion   deepgramVoice = "aura-2-orion-en"
	VoiceApollo  deepgramVoice = "aura-2-apollo-en"
	VoiceLuna    deepgramVoice = "aura-luna-en"
	VoiceStella  deepgramVoice = "aura-stella-en"
	VoiceOrpheus deepgramVoice = "aura-orpheus-en"

	defaultVoice = VoiceThalia
)

func GetAvailableVoices() []deepgramVoice {
	return []deepgramVoice{
		VoiceAsteria,
		VoiceThalia,
		VoiceHelena,
		VoiceOrion,
		VoiceApollo,
		VoiceLuna,
		VoiceStella,
		VoiceOrpheus,
	}
}

// ParseVoice accepts any of the available voice names; the empty string
// selects the default voice.
func ParseVoice(name string) (deepgramVoice, bool) {
	if name == "" {
		return defaultVoice, true
	}
	for _, voice := range GetAvailableVoices() {
		if string(voice) == name {
			return voice, true
		}
	}
	return "", false
}
