package llm

const (
	roleUser = "user"

	blockTypeText  = "text"
	blockTypeImage = "image_url"

	imageDetailAuto = "auto"
)

// ChatCompletionRequest is the body POSTed to the chat-completions endpoint.
type ChatCompletionRequest struct {
	Model         string        `json:"model"`
	Stream        bool          `json:"stream"`
	EnableCaching bool          `json:"enable_caching"`
	Messages      []ChatMessage `json:"messages"`
}

// ChatMessage is a single turn made of ordered content blocks.
type ChatMessage struct {
	Role    string         `json:"role"`
	Content []ContentBlock `json:"content"`
}

// ContentBlock is either a text block or an image block, discriminated by Type.
// Use TextBlock and ImageBlock to build them.
type ContentBlock struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL references the image, either by URL or as inline base64 data.
type ImageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail"`
}

func TextBlock(text string) ContentBlock {
	return ContentBlock{Type: blockTypeText, Text: text}
}

func ImageBlock(url, detail string) ContentBlock {
	return ContentBlock{Type: blockTypeImage, ImageURL: &ImageURL{URL: url, Detail: detail}}
}

// NewTagRequest builds the single-turn tagging request: the prompt first, then the image.
func NewTagRequest(modelName, prompt, payload string) ChatCompletionRequest {
	return ChatCompletionRequest{
		Model:         modelName,
		Stream:        false,
		EnableCaching: true,
		Messages: []ChatMessage{
			{
				Role: roleUser,
				Content: []ContentBlock{
					TextBlock(prompt),
					ImageBlock(payload, imageDetailAuto),
				},
			},
		},
	}
}

// ChatCompletionResponse holds the only part of the answer this service reads.
type ChatCompletionResponse struct {
	Choices []struct {
		Message *struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// FirstContent returns choices[0].message.content, or false when any link is missing.
func (r ChatCompletionResponse) FirstContent() (string, bool) {
	if len(r.Choices) == 0 {
		return "", false
	}
	msg := r.Choices[0].Message
	if msg == nil || msg.Content == nil {
		return "", false
	}
	return *msg.Content, true
}
