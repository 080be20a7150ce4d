package events

const (
	// KindUserAudioEnergy identifies per-frame capture energy.
	KindUserAudioEnergy Kind = "user_input.audio_energy"
	// KindUserTranscriptSegment identifies finalized append-only transcript segments.
	KindUserTranscriptSegment Kind = "user_input.transcript_segment"
	// KindUserTranscriptFinal identifies the final transcript for the turn.
	KindUserTranscriptFinal Kind = "user_input.transcript_final"
)

// UserAudioEnergy carries the RMS energy of a captured frame.
type UserAudioEnergy struct {
	Base
	Energy float64
}

func NewUserAudioEnergy(turnID int64, energy float64) UserAudioEnergy {
	return UserAudioEnergy{Base: NewBase(KindUserAudioEnergy, turnID), Energy: energy}
}

// UserTranscriptSegment carries a finalized transcript segment.
type UserTranscriptSegment struct {
	Base
	Segment string
}

func NewUserTranscriptSegment(turnID int64, segment string) UserTranscriptSegment {
	return UserTranscriptSegment{Base: NewBase(KindUserTranscriptSegment, turnID), Segment: segment}
}

// UserTranscriptFinal carries the transcript the turn was dispatched with.
type UserTranscriptFinal struct {
	Base
	Transcript string
}

func NewUserTranscriptFinal(turnID int64, transcript string) UserTranscriptFinal {
	return UserTranscriptFinal{Base: NewBase(KindUserTranscriptFinal, turnID), Transcript: transcript}
}
