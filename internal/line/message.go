package line

// Message is an outbound message object. Only the fields used by the bot are
// modelled.
type Message struct {
	Type               string           `json:"type"`
	Text               string           `json:"text,omitempty"`
	OriginalContentURL string           `json:"originalContentUrl,omitempty"`
	PreviewImageURL    string           `json:"previewImageUrl,omitempty"`
	AltText            string           `json:"altText,omitempty"`
	Template           *ButtonsTemplate `json:"template,omitempty"`
	QuickReply         *QuickReply      `json:"quickReply,omitempty"`
}

type ButtonsTemplate struct {
	Type    string   `json:"type"`
	Title   string   `json:"title,omitempty"`
	Text    string   `json:"text"`
	Actions []Action `json:"actions"`
}

type Action struct {
	Type        string `json:"type"`
	Label       string `json:"label"`
	Data        string `json:"data,omitempty"`
	DisplayText string `json:"displayText,omitempty"`
	Text        string `json:"text,omitempty"`
	URI         string `json:"uri,omitempty"`
}

type QuickReply struct {
	Items []QuickReplyItem `json:"items"`
}

type QuickReplyItem struct {
	Type   string `json:"type"`
	Action Action `json:"action"`
}

func TextMessage(text string) Message {
	return Message{Type: "text", Text: text}
}

func ImageMessage(url string) Message {
	return Message{Type: "image", OriginalContentURL: url, PreviewImageURL: url}
}

// ButtonsMessage builds a buttons template. LINE allows at most four actions
// and a 160 character text when no image is attached.
func ButtonsMessage(altText, title, text string, actions ...Action) Message {
	return Message{
		Type:    "template",
		AltText: altText,
		Template: &ButtonsTemplate{
			Type:    "buttons",
			Title:   title,
			Text:    text,
			Actions: actions,
		},
	}
}

func PostbackAction(label, data, displayText string) Action {
	return Action{Type: "postback", Label: label, Data: data, DisplayText: displayText}
}

func URIAction(label, uri string) Action {
	return Action{Type: "uri", Label: label, URI: uri}
}

func MessageAction(label, text string) Action {
	return Action{Type: "message", Label: label, Text: text}
}

// WithQuickReplies attaches message-action quick replies to m.
func (m Message) WithQuickReplies(actions ...Action) Message {
	items := make([]QuickReplyItem, len(actions))
	for i, a := range actions {
		items[i] = QuickReplyItem{Type: "action", Action: a}
	}
	m.QuickReply = &QuickReply{Items: items}
	return m
}
