package events

// KindAssistantImageGenerated identifies a generated illustration.
const KindAssistantImageGenerated Kind = "assistant_image.generated"

type AssistantImageGenerated struct {
	Base
	Image []byte
}

func NewAssistantImageGenerated(turnID int64, image []byte) AssistantImageGenerated {
	return AssistantImageGenerated{Base: NewBase(KindAssistantImageGenerated, turnID), Image: image}
}
