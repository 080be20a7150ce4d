// Package events defines the typed events that flow from turn tasks to the
// orchestrator and on to its sinks.
//
// Every event carries the id of the turn that produced it. The orchestrator
// drops events whose turn is no longer the current one, so a sink only ever
// observes the latest turn.
//
// Event kinds are grouped by receiver-facing namespaces:
//
//   - user_input.*
//   - assistant_response.*
//   - assistant_image.*
//   - turn_state.*
//
// user_input events
//
//   - UserAudioEnergy (user_input.audio_energy): RMS energy of one captured
//     frame.
//   - UserTranscriptSegment (user_input.transcript_segment): finalized,
//     append-only transcript segment.
//   - UserTranscriptFinal (user_input.transcript_final): full transcript the
//     turn was dispatched with.
//
// assistant_response events
//
//   - AssistantResponseSegment (assistant_response.segment): speakable chunk
//     of the streamed reply.
//   - AssistantResponseFinal (assistant_response.final): the reply stream
//     reached its done record.
//
// assistant_image events
//
//   - AssistantImageGenerated (assistant_image.generated): encoded image for
//     the turn.
//
// turn_state events
//
//   - TurnStateChanged (turn_state.changed): the turn moved to a new status.
//   - TurnFailed (turn_state.failed): a task of the turn failed.
package events
