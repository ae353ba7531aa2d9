package domain

// Effect is an outbound instruction produced by the core. The delivery
// adapter realizes effects against the transport; the core never calls a
// transport API directly.
type Effect interface {
	effect()
}

// Choice is one selectable option offered to the user. Picking it makes the
// transport deliver the embedded event back to the core.
type Choice struct {
	Label string    `json:"label"`
	Kind  EventKind `json:"kind"`
	Arg   string    `json:"arg,omitempty"`
}

// SendText delivers a plain message to a user.
type SendText struct {
	UserID string `json:"user_id"`
	Text   string `json:"text"`
}

// SendMedia delivers an image reference with a caption, optionally with
// choices attached.
type SendMedia struct {
	UserID   string   `json:"user_id"`
	MediaRef string   `json:"media_ref"`
	Caption  string   `json:"caption"`
	Choices  []Choice `json:"choices,omitempty"`
}

// SendChoices delivers a prompt with selectable options.
type SendChoices struct {
	UserID  string   `json:"user_id"`
	Prompt  string   `json:"prompt"`
	Options []Choice `json:"options"`
}

// NotifyOperator delivers a message to the configured operator channel.
type NotifyOperator struct {
	Text string `json:"text"`
}

func (SendText) effect()       {}
func (SendMedia) effect()      {}
func (SendChoices) effect()    {}
func (NotifyOperator) effect() {}
