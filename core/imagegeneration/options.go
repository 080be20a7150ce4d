// Package imagegeneration holds the options shared by image generators.
package imagegeneration

type GenerationOptions struct {
	// StylePrefix is prepended to every prompt, e.g. "A children's book
	// illustration of".
	StylePrefix string
	AspectRatio string
}

type GenerationOption func(*GenerationOptions)

func NewGenerationOptions(opts ...GenerationOption) GenerationOptions {
	options := GenerationOptions{AspectRatio: "1:1"}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

func WithStylePrefix(prefix string) GenerationOption {
	return func(o *GenerationOptions) { o.StylePrefix = prefix }
}

func WithAspectRatio(ratio string) GenerationOption {
	return func(o *GenerationOptions) {
		if ratio != "" {
			o.AspectRatio = ratio
		}
	}
}

// Prompt applies the style prefix to prompt.
func (o GenerationOptions) Prompt(prompt string) string {
	if o.StylePrefix == "" {
		return prompt
	}
	return o.StylePrefix + " " + prompt
}
